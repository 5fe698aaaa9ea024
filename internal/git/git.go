// Package git wraps the git CLI to expose the working tree's uncommitted
// changes and the staging/commit operations the grouping engine needs.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/commitlens/pkg/models"
)

// CommandRunner executes a git command in dir and returns its stdout.
// Exposed so tests can substitute a fake and avoid depending on a real
// repository.
type CommandRunner func(ctx context.Context, dir string, args ...string) (string, error)

// Service shells out to git for one repository.
type Service struct {
	dir string
	run CommandRunner
}

// NewService constructs a Service for the repository at dir.
func NewService(dir string) *Service {
	return &Service{dir: dir, run: runGit}
}

// NewServiceWithRunner constructs a Service with a custom command runner.
func NewServiceWithRunner(dir string, run CommandRunner) *Service {
	return &Service{dir: dir, run: run}
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	// #nosec G204 -- arguments come from internal logic, never shell interpolated
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), detail, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return stdout.String(), nil
}

// AllChanges returns every uncommitted change in the working tree, including
// untracked files. Paths are repository-relative with forward slashes.
func (s *Service) AllChanges(ctx context.Context) ([]*models.FileChange, error) {
	statusOut, err := s.run(ctx, s.dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to read working tree status: %w", err)
	}

	counts := s.lineCounts(ctx)

	var changes []*models.FileChange
	for _, line := range strings.Split(statusOut, "\n") {
		if len(line) < 4 {
			continue
		}

		code := line[:2]
		path := strings.TrimSpace(line[3:])
		originalPath := ""

		// Renames are reported as "old -> new"
		if idx := strings.Index(path, " -> "); idx != -1 {
			originalPath = path[:idx]
			path = path[idx+4:]
		}
		path = strings.Trim(path, `"`)

		status := statusFromCode(code)

		change := &models.FileChange{
			Path:         path,
			Status:       status,
			OriginalPath: originalPath,
		}

		if status != models.StatusUntracked {
			diff, derr := s.run(ctx, s.dir, "diff", "HEAD", "--", path)
			if derr == nil {
				change.Diff = diff
			} else {
				log.Debug().Str("path", path).Err(derr).Msg("Could not read diff for file")
			}
		}

		if c, ok := counts[path]; ok {
			change.Additions = c.additions
			change.Deletions = c.deletions
		} else if change.Diff != "" {
			change.Additions, change.Deletions = countDiffLines(change.Diff)
		}

		changes = append(changes, change)
	}

	return changes, nil
}

// RecentCommitMessages returns up to count recent commit subjects. Failures
// (for example an empty repository) degrade to an empty history, never an
// error, because history is only used for message style inference.
func (s *Service) RecentCommitMessages(ctx context.Context, count int) []string {
	if count <= 0 {
		return nil
	}

	out, err := s.run(ctx, s.dir, "log", "-n", strconv.Itoa(count), "--pretty=format:%s")
	if err != nil {
		log.Debug().Err(err).Msg("Could not read commit history")
		return nil
	}

	var messages []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			messages = append(messages, line)
		}
	}
	return messages
}

// StageAndCommit stages exactly the given paths and commits them with the
// given message. Returns the resulting commit id.
func (s *Service) StageAndCommit(ctx context.Context, paths []string, message string, noVerify bool) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no files to commit")
	}

	if err := s.StageFiles(ctx, paths); err != nil {
		return "", err
	}

	commitArgs := []string{"commit", "-m", message, "--only"}
	if noVerify {
		commitArgs = append(commitArgs, "--no-verify")
	}
	commitArgs = append(commitArgs, "--")
	commitArgs = append(commitArgs, paths...)

	if _, err := s.run(ctx, s.dir, commitArgs...); err != nil {
		return "", fmt.Errorf("commit failed: %w", err)
	}

	commitID, err := s.run(ctx, s.dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("commit succeeded but HEAD could not be resolved: %w", err)
	}

	return strings.TrimSpace(commitID), nil
}

// StageFiles stages the given paths.
func (s *Service) StageFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	args := append([]string{"add", "--"}, paths...)
	if _, err := s.run(ctx, s.dir, args...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	return nil
}

// UnstageAll resets the index, returning the staging area to a clean state.
func (s *Service) UnstageAll(ctx context.Context) error {
	if _, err := s.run(ctx, s.dir, "reset"); err != nil {
		return fmt.Errorf("failed to unstage files: %w", err)
	}
	return nil
}

// RunPreCommitHook runs the repository's pre-commit hook against the current
// index. A missing hook is not an error; a rejecting hook is.
func (s *Service) RunPreCommitHook(ctx context.Context) error {
	if _, err := s.run(ctx, s.dir, "hook", "run", "--ignore-missing", "pre-commit"); err != nil {
		return fmt.Errorf("pre-commit hook rejected the changes: %w", err)
	}
	return nil
}

type lineCount struct {
	additions int
	deletions int
}

// lineCounts reads per-file addition/deletion counts. Binary files report
// "-" in numstat and keep zero counts; untracked files do not appear at all.
func (s *Service) lineCounts(ctx context.Context) map[string]lineCount {
	out, err := s.run(ctx, s.dir, "diff", "HEAD", "--numstat")
	if err != nil {
		return nil
	}

	counts := make(map[string]lineCount)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		additions, _ := strconv.Atoi(fields[0])
		deletions, _ := strconv.Atoi(fields[1])
		counts[fields[2]] = lineCount{additions: additions, deletions: deletions}
	}
	return counts
}

func statusFromCode(code string) models.FileStatus {
	switch {
	case code == "??":
		return models.StatusUntracked
	case strings.Contains(code, "R"):
		return models.StatusRenamed
	case strings.Contains(code, "A"):
		return models.StatusAdded
	case strings.Contains(code, "D"):
		return models.StatusDeleted
	default:
		return models.StatusModified
	}
}

// countDiffLines derives addition/deletion counts from unified diff text,
// used when numstat has no entry for a path.
func countDiffLines(diff string) (additions, deletions int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}
