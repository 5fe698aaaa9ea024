package models

// FileStatus describes a file's state in the working tree
type FileStatus string

const (
	StatusAdded     FileStatus = "added"
	StatusModified  FileStatus = "modified"
	StatusDeleted   FileStatus = "deleted"
	StatusRenamed   FileStatus = "renamed"
	StatusUntracked FileStatus = "untracked"
)

// FileChange represents a single file's uncommitted change.
// Instances are created by the VCS collaborator and treated as immutable
// afterwards; groups and the ungrouped pool hold them by reference.
type FileChange struct {
	Path         string     `json:"path"`
	Status       FileStatus `json:"status"`
	Diff         string     `json:"diff,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	OriginalPath string     `json:"original_path,omitempty"` // set only when Status is renamed
}

// GroupStatus describes a commit group's lifecycle state
type GroupStatus string

const (
	GroupPending   GroupStatus = "pending"
	GroupCommitted GroupStatus = "committed"
	GroupError     GroupStatus = "error"
)

// CommitGroup is a proposed or user-defined atomic commit: a subset of the
// change set plus a commit message. A file path appears in at most one group
// at any time.
type CommitGroup struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Message   string        `json:"message"`
	Files     []*FileChange `json:"files"`
	Reasoning string        `json:"reasoning,omitempty"`
	Status    GroupStatus   `json:"status"`
}

// HasFile reports whether the group contains the given canonical path.
func (g *CommitGroup) HasFile(path string) bool {
	for _, f := range g.Files {
		if f.Path == path {
			return true
		}
	}
	return false
}

// FilePaths returns the group's file paths in order.
func (g *CommitGroup) FilePaths() []string {
	paths := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// GroupingSuggestion is the untrusted shape produced by the AI collaborator.
// Files holds raw path strings that still need normalization and matching
// against the known change set.
type GroupingSuggestion struct {
	Name      string   `json:"name"`
	Message   string   `json:"message"`
	Files     []string `json:"files"`
	Reasoning string   `json:"reasoning"`
}

// Valid reports whether the suggestion carries the required fields.
func (s GroupingSuggestion) Valid() bool {
	return s.Name != "" && s.Message != "" && s.Files != nil
}
