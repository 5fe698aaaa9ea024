package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitlens/pkg/models"
)

func TestCommitOne(t *testing.T) {
	vcs := &fakeVCS{}
	eng := seedEngine()
	eng.vcs = vcs

	require.NoError(t, eng.CommitOne(context.Background(), "beta", false))

	require.Len(t, vcs.commits, 1)
	assert.Equal(t, []string{"c.go"}, vcs.commits[0].paths)
	assert.Equal(t, "fix: beta", vcs.commits[0].message)
	assert.False(t, vcs.commits[0].noVerify)
	assert.Nil(t, groupByID(t, eng, "beta"))
}

func TestCommitOneUnknownGroup(t *testing.T) {
	eng := seedEngine()
	err := eng.CommitOne(context.Background(), "nope", false)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestCommitOneFailureKeepsGroupEditable(t *testing.T) {
	vcs := &fakeVCS{commitErr: map[string]error{"fix: beta": errors.New("hook rejected")}}
	eng := seedEngine()
	eng.vcs = vcs

	err := eng.CommitOne(context.Background(), "beta", false)
	assert.ErrorContains(t, err, "hook rejected")

	g := groupByID(t, eng, "beta")
	require.NotNil(t, g)
	assert.Equal(t, models.GroupError, g.Status)

	// The failed group can still be mutated and retried.
	require.True(t, eng.UpdateGroupMessage("beta", "fix: beta again"))
}

func TestCommitBatchPerGroup(t *testing.T) {
	vcs := &fakeVCS{}
	eng := seedEngine()
	eng.vcs = vcs

	result, err := eng.CommitBatch(context.Background(), nil, HookPerGroup, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Success: 2}, result)

	require.Len(t, vcs.commits, 2)
	assert.False(t, vcs.commits[0].noVerify)
	assert.Equal(t, 0, vcs.hookCalls)
	assert.Empty(t, eng.Groups())
}

func TestCommitBatchSelectsByID(t *testing.T) {
	vcs := &fakeVCS{}
	eng := seedEngine()
	eng.vcs = vcs

	result, err := eng.CommitBatch(context.Background(), []string{"beta", "nope"}, HookPerGroup, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Success: 1}, result)
	require.Len(t, vcs.commits, 1)
	assert.Equal(t, "fix: beta", vcs.commits[0].message)
	assert.NotNil(t, groupByID(t, eng, "alpha"))
}

func TestCommitBatchPartialFailure(t *testing.T) {
	vcs := &fakeVCS{commitErr: map[string]error{"feat: alpha": errors.New("boom")}}
	eng := seedEngine()
	eng.vcs = vcs

	result, err := eng.CommitBatch(context.Background(), nil, HookPerGroup, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Success: 1, Failed: 1}, result)

	g := groupByID(t, eng, "alpha")
	require.NotNil(t, g)
	assert.Equal(t, models.GroupError, g.Status)
	assert.Nil(t, groupByID(t, eng, "beta"))
}

func TestCommitBatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vcs := &fakeVCS{afterCommit: cancel}
	eng := seedEngine()
	eng.groups = append(eng.groups, &models.CommitGroup{
		ID: "gamma", Name: "gamma", Message: "chore: gamma",
		Files: []*models.FileChange{change("e.go")}, Status: models.GroupPending,
	})
	eng.vcs = vcs

	result, err := eng.CommitBatch(ctx, nil, HookPerGroup, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Success: 1, Cancelled: 2}, result)

	// The untouched groups stay pending.
	assert.Equal(t, models.GroupPending, groupByID(t, eng, "beta").Status)
	assert.Equal(t, models.GroupPending, groupByID(t, eng, "gamma").Status)
}

func TestCommitBatchHookOnce(t *testing.T) {
	vcs := &fakeVCS{}
	eng := seedEngine()
	eng.vcs = vcs

	result, err := eng.CommitBatch(context.Background(), nil, HookOnce, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Success: 2}, result)

	assert.Equal(t, 1, vcs.hookCalls)
	require.Len(t, vcs.staged, 1)
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, vcs.staged[0])
	assert.Equal(t, 1, vcs.unstageCalls)

	// Per-group commits must not re-run the hook.
	for _, c := range vcs.commits {
		assert.True(t, c.noVerify)
	}
}

func TestCommitBatchHookOnceFailure(t *testing.T) {
	vcs := &fakeVCS{hookErr: errors.New("lint failed")}
	eng := seedEngine()
	eng.vcs = vcs

	result, err := eng.CommitBatch(context.Background(), nil, HookOnce, nil)
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, BatchResult{}, result)
	assert.Empty(t, vcs.commits)
	assert.Equal(t, 1, vcs.unstageCalls)

	// Everything stays pending for a retry.
	assert.Len(t, eng.Groups(), 2)
}

func TestCommitBatchHookSkip(t *testing.T) {
	vcs := &fakeVCS{}
	eng := seedEngine()
	eng.vcs = vcs

	_, err := eng.CommitBatch(context.Background(), nil, HookSkip, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, vcs.hookCalls)
	for _, c := range vcs.commits {
		assert.True(t, c.noVerify)
	}
}

func TestCommitBatchProgress(t *testing.T) {
	vcs := &fakeVCS{}
	eng := seedEngine()
	eng.vcs = vcs

	type step struct {
		done, total int
		name        string
	}
	var steps []step
	_, err := eng.CommitBatch(context.Background(), nil, HookPerGroup, func(done, total int, g *models.CommitGroup) {
		steps = append(steps, step{done, total, g.Name})
	})
	require.NoError(t, err)
	assert.Equal(t, []step{{0, 2, "alpha"}, {1, 2, "beta"}}, steps)
}

func TestCommitBatchEmpty(t *testing.T) {
	vcs := &fakeVCS{}
	eng := New(vcs, &fakeAI{}, nil, Options{})

	result, err := eng.CommitBatch(context.Background(), nil, HookOnce, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{}, result)
	assert.Equal(t, 0, vcs.hookCalls)
}
