package stream

import "fmt"

// ParseErrorKind classifies a total parse failure so callers can present an
// actionable message.
type ParseErrorKind int

const (
	// KindInvalidJSON means the response was not valid JSON even after repair.
	KindInvalidJSON ParseErrorKind = iota
	// KindMissingGroups means the JSON decoded but carried no groups field.
	KindMissingGroups
	// KindGeneric covers every other parse failure.
	KindGeneric
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindInvalidJSON:
		return "invalid_json"
	case KindMissingGroups:
		return "missing_groups"
	default:
		return "parse_failed"
	}
}

// ParseError is a total failure to extract any grouping from a model
// response. Individual malformed objects inside an otherwise usable stream
// never produce a ParseError; they are skipped.
type ParseError struct {
	Kind   ParseErrorKind
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
