// Package stream incrementally extracts commit-group suggestions from a
// partially received model response, so groups can surface as soon as the
// model finishes emitting each one instead of after the whole response.
package stream

import (
	"encoding/json"
	"regexp"

	"github.com/commitlens/pkg/models"
)

var groupsMarker = regexp.MustCompile(`"groups"\s*:\s*\[`)

// Parser extracts complete group objects from a monotonically growing text
// buffer. Feed is re-entrant: each call re-scans from the start of the groups
// array, but only objects completed since the previous call are surfaced.
type Parser struct {
	scanned int // complete objects already consumed by earlier Feed calls
	valid   int // valid suggestions surfaced so far
}

// NewParser returns a parser with empty emission state.
func NewParser() *Parser {
	return &Parser{}
}

// Feed scans buffer and returns the suggestions whose objects became complete
// since the last call. Objects that decode but miss required fields are
// skipped silently; a truncated trailing object is left for the next call.
func (p *Parser) Feed(buffer string) []models.GroupingSuggestion {
	loc := groupsMarker.FindStringIndex(buffer)
	if loc == nil {
		// Array marker not received yet, or the response is not the
		// expected shape. The caller decides once the stream completes.
		return nil
	}

	pos := loc[1]
	count := 0
	var out []models.GroupingSuggestion

	for {
		for pos < len(buffer) && (isSpace(buffer[pos]) || buffer[pos] == ',') {
			pos++
		}
		if pos >= len(buffer) || buffer[pos] != '{' {
			// End of array, or truncation before the next object.
			break
		}

		end, complete := scanObject(buffer, pos)
		if !complete {
			break
		}

		raw := buffer[pos:end]
		pos = end
		count++
		if count <= p.scanned {
			continue
		}
		p.scanned = count

		var sug models.GroupingSuggestion
		if err := json.Unmarshal([]byte(raw), &sug); err != nil {
			continue
		}
		if !sug.Valid() {
			continue
		}
		p.valid++
		out = append(out, sug)
	}

	return out
}

// ValidCount reports how many valid suggestions have been surfaced in total.
func (p *Parser) ValidCount() int {
	return p.valid
}

// scanObject scans the object starting at an opening brace, tracking string
// state, escapes, and brace depth. Returns the index one past the closing
// brace and whether the object is complete within the buffer.
func scanObject(buffer string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(buffer); i++ {
		c := buffer[i]

		if escaped {
			escaped = false
			continue
		}

		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}

	return len(buffer), false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
