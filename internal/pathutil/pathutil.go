// Package pathutil canonicalizes file path strings for matching AI-suggested
// paths against the change set's canonical repository-relative paths.
package pathutil

import "strings"

// Normalize produces a comparison key for a raw path string: backslashes
// become forward slashes, leading "./" layers are stripped, and surrounding
// whitespace is trimmed. The function is total and idempotent; it never
// rewrites the canonical path stored on a FileChange.
func Normalize(path string) string {
	p := strings.TrimSpace(path)
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
