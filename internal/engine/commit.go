package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/commitlens/pkg/models"
)

// HookStrategy controls how pre-commit hooks run during a batch commit.
type HookStrategy string

const (
	// HookOnce stages the union of all batch files, runs the pre-commit
	// hook a single time, then commits each group with hooks disabled.
	HookOnce HookStrategy = "once"
	// HookPerGroup lets each group's commit run hooks normally.
	HookPerGroup HookStrategy = "per-group"
	// HookSkip disables hooks for every commit in the batch.
	HookSkip HookStrategy = "skip"
)

// BatchResult tallies the outcome of a batch commit.
type BatchResult struct {
	Success   int
	Failed    int
	Cancelled int
}

// HookError wraps a batch-level pre-commit hook failure: no commits were
// attempted.
type HookError struct {
	Err error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("pre-commit hook failed for the batch: %v", e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// ProgressFunc reports batch progress before each group's commit: how many
// groups committed so far, the batch total, and the group about to commit.
type ProgressFunc func(done, total int, group *models.CommitGroup)

// CommitOne commits a single pending group. On success the group leaves the
// partition; on failure it stays with status error so it remains editable.
func (e *Engine) CommitOne(ctx context.Context, groupID string, noVerify bool) error {
	e.mu.Lock()
	_, group := e.findGroup(groupID)
	e.mu.Unlock()
	if group == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	commitID, err := e.vcs.StageAndCommit(ctx, group.FilePaths(), group.Message, noVerify)
	if err != nil {
		e.mu.Lock()
		group.Status = models.GroupError
		e.mu.Unlock()
		e.notify()
		return fmt.Errorf("commit of group %q failed: %w", group.Name, err)
	}

	e.removeCommitted(group)
	log.Info().Str("group", group.Name).Str("commit", commitID).Msg("Group committed")
	return nil
}

// CommitBatch commits the selected pending groups in order. A nil ids slice
// selects every pending group. Failures are isolated per group; remaining
// groups still commit. Cancellation stops the batch before the next commit
// and counts the untouched groups as cancelled.
func (e *Engine) CommitBatch(ctx context.Context, ids []string, strategy HookStrategy, progress ProgressFunc) (BatchResult, error) {
	var result BatchResult

	targets := e.selectPending(ids)
	if len(targets) == 0 {
		return result, nil
	}

	if strategy == HookOnce {
		if err := e.runBatchHook(ctx, targets); err != nil {
			return result, err
		}
	}

	// With once and skip the per-group commits must not re-run hooks.
	noVerify := strategy != HookPerGroup

	total := len(targets)
	for i, group := range targets {
		if ctx.Err() != nil {
			result.Cancelled = total - i
			break
		}
		if progress != nil {
			progress(result.Success, total, group)
		}

		commitID, err := e.vcs.StageAndCommit(ctx, group.FilePaths(), group.Message, noVerify)
		if err != nil {
			e.mu.Lock()
			group.Status = models.GroupError
			e.mu.Unlock()
			e.notify()
			result.Failed++
			log.Warn().Err(err).Str("group", group.Name).Msg("Group commit failed, continuing batch")
			continue
		}

		e.removeCommitted(group)
		result.Success++
		log.Info().Str("group", group.Name).Str("commit", commitID).Msg("Group committed")
	}

	return result, nil
}

// selectPending returns the pending groups matching ids (all pending groups
// when ids is nil), preserving partition order.
func (e *Engine) selectPending(ids []string) []*models.CommitGroup {
	var want map[string]bool
	if ids != nil {
		want = make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	var targets []*models.CommitGroup
	for _, g := range e.groups {
		if g.Status != models.GroupPending {
			continue
		}
		if want != nil && !want[g.ID] {
			continue
		}
		targets = append(targets, g)
	}
	return targets
}

// runBatchHook stages the union of all target files, runs the pre-commit
// hook once, then unstages so each group commit restages its own paths.
func (e *Engine) runBatchHook(ctx context.Context, targets []*models.CommitGroup) error {
	var union []string
	for _, g := range targets {
		union = append(union, g.FilePaths()...)
	}

	if err := e.vcs.StageFiles(ctx, union); err != nil {
		return &HookError{Err: err}
	}
	if err := e.vcs.RunPreCommitHook(ctx); err != nil {
		if uerr := e.vcs.UnstageAll(ctx); uerr != nil {
			log.Warn().Err(uerr).Msg("Failed to unstage after hook failure")
		}
		return &HookError{Err: err}
	}
	if err := e.vcs.UnstageAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to unstage after batch hook run")
	}
	return nil
}

// removeCommitted marks a group committed and removes it from the partition.
func (e *Engine) removeCommitted(group *models.CommitGroup) {
	e.mu.Lock()
	group.Status = models.GroupCommitted
	if idx, g := e.findGroup(group.ID); g != nil {
		e.groups = append(e.groups[:idx], e.groups[idx+1:]...)
	}
	e.mu.Unlock()
	e.notify()
}
