package ai

import (
	"fmt"
	"strings"

	"github.com/commitlens/pkg/models"
)

const defaultMaxDiffBytes = 12000

// BuildGroupingPrompt renders the grouping request: the change list with
// per-file diffs (each truncated to maxDiffBytes), recent commit messages for
// style inference, and strict JSON output instructions.
func BuildGroupingPrompt(files []*models.FileChange, history []string, maxDiffBytes int) string {
	if maxDiffBytes <= 0 {
		maxDiffBytes = defaultMaxDiffBytes
	}

	var b strings.Builder

	b.WriteString("You are an expert at splitting a developer's uncommitted changes into logically related, atomic commits.\n\n")

	b.WriteString(fmt.Sprintf("The working tree has %d changed files:\n\n", len(files)))
	for _, f := range files {
		b.WriteString(fmt.Sprintf("### %s (%s, +%d -%d)\n", f.Path, f.Status, f.Additions, f.Deletions))
		if f.OriginalPath != "" {
			b.WriteString(fmt.Sprintf("Renamed from: %s\n", f.OriginalPath))
		}
		if f.Diff != "" {
			b.WriteString("```diff\n")
			b.WriteString(truncateDiff(f.Diff, maxDiffBytes))
			b.WriteString("\n```\n")
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("Recent commit messages in this repository, for style reference:\n")
		for _, msg := range history {
			b.WriteString("- " + msg + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(`Partition the files into groups where each group is one logical, atomic commit.

Rules:
- Every file must appear in exactly one group.
- Use file paths exactly as listed above.
- Write commit messages matching the repository's existing style.
- Keep groups small and focused; unrelated changes belong in separate groups.

Respond with ONLY a JSON object, no other text:
{
  "groups": [
    {
      "name": "short-slug",
      "message": "commit message",
      "files": ["path/one", "path/two"],
      "reasoning": "why these files belong together"
    }
  ]
}
`)

	return b.String()
}

// truncateDiff cuts diff text at the byte budget, on a line boundary when
// possible, and marks the truncation.
func truncateDiff(diff string, maxBytes int) string {
	if len(diff) <= maxBytes {
		return diff
	}

	cut := diff[:maxBytes]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n... (diff truncated)"
}
