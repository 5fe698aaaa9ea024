package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitlens/pkg/models"
)

type fakeCommit struct {
	paths    []string
	message  string
	noVerify bool
}

type fakeVCS struct {
	changes    []*models.FileChange
	changesErr error
	history    []string

	commitErr   map[string]error // keyed by commit message
	commits     []fakeCommit
	afterCommit func()

	staged       [][]string
	stageErr     error
	unstageCalls int
	hookCalls    int
	hookErr      error
}

func (f *fakeVCS) AllChanges(ctx context.Context) ([]*models.FileChange, error) {
	return f.changes, f.changesErr
}

func (f *fakeVCS) RecentCommitMessages(ctx context.Context, count int) []string {
	return f.history
}

func (f *fakeVCS) StageAndCommit(ctx context.Context, paths []string, message string, noVerify bool) (string, error) {
	if err := f.commitErr[message]; err != nil {
		return "", err
	}
	f.commits = append(f.commits, fakeCommit{paths: paths, message: message, noVerify: noVerify})
	if f.afterCommit != nil {
		f.afterCommit()
	}
	return fmt.Sprintf("commit-%d", len(f.commits)), nil
}

func (f *fakeVCS) StageFiles(ctx context.Context, paths []string) error {
	if f.stageErr != nil {
		return f.stageErr
	}
	f.staged = append(f.staged, paths)
	return nil
}

func (f *fakeVCS) UnstageAll(ctx context.Context) error {
	f.unstageCalls++
	return nil
}

func (f *fakeVCS) RunPreCommitHook(ctx context.Context) error {
	f.hookCalls++
	return f.hookErr
}

type fakeAI struct {
	chunks      []string
	response    string
	err         error
	cancelAfter int // invoke cancel after this many chunks
	cancel      context.CancelFunc
}

func (f *fakeAI) RequestGrouping(ctx context.Context, files []*models.FileChange, history []string, onChunk func(chunk []byte) error) (string, error) {
	for i, c := range f.chunks {
		if err := onChunk([]byte(c)); err != nil {
			return "", err
		}
		if f.cancel != nil && i+1 == f.cancelAfter {
			f.cancel()
		}
	}
	return f.response, f.err
}

func change(path string) *models.FileChange {
	return &models.FileChange{Path: path, Status: models.StatusModified}
}

func threeChanges() []*models.FileChange {
	return []*models.FileChange{change("a.go"), change("b.go"), change("c.go")}
}

// allPaths flattens a partition into its sorted set of file paths,
// failing the test if any path appears twice.
func allPaths(t *testing.T, groups []*models.CommitGroup) []string {
	t.Helper()
	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, fc := range g.Files {
			require.Falsef(t, seen[fc.Path], "path %s appears in more than one group", fc.Path)
			seen[fc.Path] = true
			out = append(out, fc.Path)
		}
	}
	sort.Strings(out)
	return out
}

func TestAnalyzeStreamedGroupsPlusCatchAll(t *testing.T) {
	vcs := &fakeVCS{changes: threeChanges(), history: []string{"feat: earlier work"}}
	ai := &fakeAI{chunks: []string{
		`{"groups": [{"name": "core", "message": "feat: core`,
		` change", "files": ["a.go", "b.go"], "reasoning": "related"}]}`,
	}}
	eng := New(vcs, ai, nil, Options{})

	groups, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "core", groups[0].Name)
	assert.Equal(t, []string{"a.go", "b.go"}, groups[0].FilePaths())
	assert.Equal(t, models.GroupPending, groups[0].Status)
	assert.NotEmpty(t, groups[0].ID)

	assert.Equal(t, "unassigned-changes", groups[1].Name)
	assert.Equal(t, []string{"c.go"}, groups[1].FilePaths())

	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, allPaths(t, groups))
	assert.Empty(t, eng.Ungrouped())
}

func TestAnalyzeNoCatchAllWhenFullyAssigned(t *testing.T) {
	vcs := &fakeVCS{changes: []*models.FileChange{change("a.go")}}
	ai := &fakeAI{chunks: []string{
		`{"groups": [{"name": "only", "message": "fix: a", "files": ["a.go"], "reasoning": ""}]}`,
	}}
	eng := New(vcs, ai, nil, Options{})

	groups, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "only", groups[0].Name)
}

func TestAnalyzeDropsUnknownAndDuplicatePaths(t *testing.T) {
	vcs := &fakeVCS{changes: threeChanges()}
	ai := &fakeAI{chunks: []string{
		`{"groups": [` +
			`{"name": "first", "message": "m1", "files": ["./a.go", "ghost.go"], "reasoning": ""},` +
			`{"name": "second", "message": "m2", "files": ["a.go", "b.go"], "reasoning": ""}]}`,
	}}
	eng := New(vcs, ai, nil, Options{})

	groups, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)

	// a.go stays with the first group that claimed it, even through the
	// "./" prefix.
	assert.Equal(t, []string{"a.go"}, groups[0].FilePaths())
	assert.Equal(t, []string{"b.go"}, groups[1].FilePaths())
	assert.Equal(t, []string{"c.go"}, groups[2].FilePaths())
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, allPaths(t, groups))
}

func TestAnalyzeFallsBackToFullParse(t *testing.T) {
	// Chunks that never complete a group object force the full-response
	// repair path.
	response := "Here you go:\n```json\n{\"groups\": [{\"name\": \"late\", \"message\": \"fix: late\", \"files\": [\"a.go\"], \"reasoning\": \"\"},]}\n```"
	vcs := &fakeVCS{changes: []*models.FileChange{change("a.go")}}
	ai := &fakeAI{chunks: []string{"Here you"}, response: response}
	eng := New(vcs, ai, nil, Options{})

	groups, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "late", groups[0].Name)
}

func TestAnalyzeNoChanges(t *testing.T) {
	eng := New(&fakeVCS{}, &fakeAI{}, nil, Options{})
	_, err := eng.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestAnalyzeVCSError(t *testing.T) {
	vcs := &fakeVCS{changesErr: errors.New("not a git repository")}
	eng := New(vcs, &fakeAI{}, nil, Options{})
	_, err := eng.Analyze(context.Background())
	assert.ErrorContains(t, err, "not a git repository")
}

func TestAnalyzeRequestFailureWithNoOutput(t *testing.T) {
	vcs := &fakeVCS{changes: threeChanges()}
	ai := &fakeAI{err: errors.New("connection refused")}
	eng := New(vcs, ai, nil, Options{})
	_, err := eng.Analyze(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestAnalyzeRequestFailureWithUnusableOutput(t *testing.T) {
	// The stream died mid-response before any group completed and the
	// buffered text cannot be salvaged; the transport error must surface,
	// not just the parse failure.
	vcs := &fakeVCS{changes: threeChanges()}
	transportErr := errors.New("connection reset by peer")
	ai := &fakeAI{chunks: []string{"The groups are as fol"}, err: transportErr}
	eng := New(vcs, ai, nil, Options{})

	_, err := eng.Analyze(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
	assert.ErrorContains(t, err, "connection reset by peer")
}

func TestAnalyzeIgnorePatterns(t *testing.T) {
	vcs := &fakeVCS{changes: []*models.FileChange{
		change("a.go"), change("go.sum"), change("vendor/dep.go"),
	}}
	ai := &fakeAI{chunks: []string{
		`{"groups": [{"name": "work", "message": "m", "files": ["a.go", "go.sum"], "reasoning": ""}]}`,
	}}
	eng := New(vcs, ai, NewGlobIgnore([]string{"go.sum", "vendor/"}), Options{})

	groups, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	// go.sum was excluded before analysis, so the suggestion's reference
	// to it is dropped as unknown.
	assert.Equal(t, []string{"a.go"}, groups[0].FilePaths())
}

func TestAnalyzeAllChangesIgnored(t *testing.T) {
	vcs := &fakeVCS{changes: []*models.FileChange{change("go.sum")}}
	eng := New(vcs, &fakeAI{}, NewGlobIgnore([]string{"go.sum"}), Options{})
	_, err := eng.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestAnalyzeCancellationKeepsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vcs := &fakeVCS{changes: threeChanges()}
	ai := &fakeAI{
		chunks: []string{
			`{"groups": [{"name": "early", "message": "m1", "files": ["a.go"], "reasoning": ""},`,
			`{"name": "never-arrives", "message": "m2", "files": ["b.go"], "reasoning": ""}]}`,
		},
		cancelAfter: 1,
		cancel:      cancel,
	}
	eng := New(vcs, ai, nil, Options{})

	groups, err := eng.Analyze(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "early", groups[0].Name)
	assert.Equal(t, "unassigned-changes", groups[1].Name)
	assert.Equal(t, []string{"b.go", "c.go"}, groups[1].FilePaths())
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, allPaths(t, groups))
}

func TestAnalyzeNotifiesIncrementally(t *testing.T) {
	vcs := &fakeVCS{changes: threeChanges()}
	ai := &fakeAI{chunks: []string{
		`{"groups": [{"name": "g1", "message": "m1", "files": ["a.go"], "reasoning": ""},`,
		`{"name": "g2", "message": "m2", "files": ["b.go"], "reasoning": ""}]}`,
	}}
	eng := New(vcs, ai, nil, Options{})

	var sizes []int
	eng.Subscribe(func(groups []*models.CommitGroup) {
		sizes = append(sizes, len(groups))
	})

	_, err := eng.Analyze(context.Background())
	require.NoError(t, err)

	// Reset, one notification per streamed group, then the catch-all.
	assert.Equal(t, []int{0, 1, 2, 3}, sizes)
}

func TestAnalyzeResetsPreviousPartition(t *testing.T) {
	vcs := &fakeVCS{changes: []*models.FileChange{change("a.go")}}
	ai := &fakeAI{chunks: []string{
		`{"groups": [{"name": "g", "message": "m", "files": ["a.go"], "reasoning": ""}]}`,
	}}
	eng := New(vcs, ai, nil, Options{})

	_, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	require.True(t, eng.RemoveFileFromGroup("a.go", eng.Groups()[0].ID))
	require.Len(t, eng.Ungrouped(), 1)

	groups, err := eng.Analyze(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 1)
	assert.Empty(t, eng.Ungrouped())
}
