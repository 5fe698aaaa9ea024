package stream

import (
	"encoding/json"

	"github.com/commitlens/internal/llm"
	"github.com/commitlens/pkg/models"
)

// ParseFull parses an entire buffered response as one JSON document. It is
// the fallback for responses that were valid JSON but not incrementally
// extractable (markdown fences, prose around the document, non-append-friendly
// formatting), run after streaming surfaced zero valid suggestions.
func ParseFull(raw string) ([]models.GroupingSuggestion, error) {
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return nil, &ParseError{Kind: KindGeneric, Detail: "no JSON found in response"}
	}

	repaired, _, err := llm.RepairJSON(jsonStr)
	if err != nil {
		return nil, &ParseError{Kind: KindInvalidJSON, Detail: "response is not valid JSON", Err: err}
	}

	var doc struct {
		Groups *[]json.RawMessage `json:"groups"`
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, &ParseError{Kind: KindInvalidJSON, Detail: "response is not a JSON object", Err: err}
	}
	if doc.Groups == nil {
		return nil, &ParseError{Kind: KindMissingGroups, Detail: "response has no groups field"}
	}

	var out []models.GroupingSuggestion
	for _, rawGroup := range *doc.Groups {
		var sug models.GroupingSuggestion
		if err := json.Unmarshal(rawGroup, &sug); err != nil {
			continue
		}
		if !sug.Valid() {
			continue
		}
		out = append(out, sug)
	}

	if len(out) == 0 {
		return nil, &ParseError{Kind: KindGeneric, Detail: "response contained no valid groups"}
	}

	return out, nil
}
