package cmd

import (
	"fmt"
	"strings"

	"github.com/commitlens/pkg/models"
)

// ResolveGroupRef finds the group a user-supplied reference points at. A
// reference matches by exact id, unique id prefix, or exact name (case
// insensitive). Ambiguous references are an error rather than a guess.
func ResolveGroupRef(groups []*models.CommitGroup, ref string) (*models.CommitGroup, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty group reference")
	}

	for _, g := range groups {
		if g.ID == ref {
			return g, nil
		}
	}

	var matches []*models.CommitGroup
	for _, g := range groups {
		if strings.HasPrefix(g.ID, ref) {
			matches = append(matches, g)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("ambiguous group reference %q matches %d groups", ref, len(matches))
	}

	for _, g := range groups {
		if strings.EqualFold(g.Name, ref) {
			matches = append(matches, g)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("ambiguous group reference %q matches %d groups", ref, len(matches))
	}

	return nil, fmt.Errorf("no group matches %q", ref)
}
