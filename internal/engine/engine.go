// Package engine owns the partition of the working tree's change set into
// commit groups: it drives AI-assisted analysis, guarantees every file is
// accounted for exactly once, and exposes the mutation operations the UI
// layers on top.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/commitlens/internal/pathutil"
	"github.com/commitlens/internal/stream"
	"github.com/commitlens/pkg/models"
)

// Sentinel errors raised by engine operations.
var (
	ErrNoChanges     = errors.New("no changes to analyze")
	ErrGroupNotFound = errors.New("group not found")
)

// Catch-all group identity, used during reconciliation for files the AI
// suggestions failed to assign.
const (
	catchAllName      = "unassigned-changes"
	catchAllMessage   = "chore: remaining uncommitted changes"
	catchAllReasoning = "Files not assigned to any group by the AI suggestions."
)

// DiffProvider is the VCS collaborator surface the engine consumes.
type DiffProvider interface {
	AllChanges(ctx context.Context) ([]*models.FileChange, error)
	RecentCommitMessages(ctx context.Context, count int) []string
	StageAndCommit(ctx context.Context, paths []string, message string, noVerify bool) (string, error)
	StageFiles(ctx context.Context, paths []string) error
	UnstageAll(ctx context.Context) error
	RunPreCommitHook(ctx context.Context) error
}

// SuggestionProvider asks an AI collaborator to partition changes into
// groups, streaming raw response text through onChunk as it arrives.
type SuggestionProvider interface {
	RequestGrouping(ctx context.Context, files []*models.FileChange, history []string, onChunk func(chunk []byte) error) (string, error)
}

// IgnorePredicate decides which paths are excluded from analysis entirely.
type IgnorePredicate interface {
	ShouldExclude(path string) bool
}

// Subscriber receives the full group list after every mutating operation.
type Subscriber func(groups []*models.CommitGroup)

// Options tunes engine behavior.
type Options struct {
	// HistoryCount bounds how many recent commit messages are fetched for
	// message style inference. Zero means the default of 20.
	HistoryCount int
}

// Engine exclusively owns the authoritative partition (groups plus the
// ungrouped pool) for one analysis session. Listeners must not call back
// into mutation operations from inside a notification.
type Engine struct {
	mu           sync.Mutex
	vcs          DiffProvider
	ai           SuggestionProvider
	ignore       IgnorePredicate // nil means include everything
	historyCount int

	subscribers []Subscriber

	groups    []*models.CommitGroup
	pool      []*models.FileChange
	changeSet []*models.FileChange // filtered snapshot of the last analysis
}

// New constructs an engine with explicit collaborators. ignore may be nil.
func New(vcs DiffProvider, ai SuggestionProvider, ignore IgnorePredicate, opts Options) *Engine {
	historyCount := opts.HistoryCount
	if historyCount <= 0 {
		historyCount = 20
	}

	return &Engine{
		vcs:          vcs,
		ai:           ai,
		ignore:       ignore,
		historyCount: historyCount,
	}
}

// Subscribe registers a change listener. Notifications are synchronous and
// fan out to every subscriber in registration order.
func (e *Engine) Subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Groups returns a snapshot of the current group list.
func (e *Engine) Groups() []*models.CommitGroup {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.CommitGroup, len(e.groups))
	copy(out, e.groups)
	return out
}

// Ungrouped returns a snapshot of the ungrouped pool.
func (e *Engine) Ungrouped() []*models.FileChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.FileChange, len(e.pool))
	copy(out, e.pool)
	return out
}

// notify fans the current group list out to all subscribers. Callers must
// not hold the mutex.
func (e *Engine) notify() {
	snapshot := e.Groups()
	e.mu.Lock()
	subscribers := make([]Subscriber, len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// Analyze partitions the working tree's changes into commit groups. Groups
// surface to subscribers incrementally as the model emits them; a catch-all
// group guarantees every file ends up assigned. Cancellation mid-stream
// produces a partial but internally consistent partition, not an error.
func (e *Engine) Analyze(ctx context.Context) ([]*models.CommitGroup, error) {
	// Reset before the potentially slow AI call so observers see a clean
	// slate immediately.
	e.mu.Lock()
	e.groups = nil
	e.pool = nil
	e.changeSet = nil
	e.mu.Unlock()
	e.notify()

	changes, err := e.vcs.AllChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read working tree changes: %w", err)
	}

	var filtered []*models.FileChange
	for _, c := range changes {
		if e.ignore != nil && e.ignore.ShouldExclude(c.Path) {
			continue
		}
		filtered = append(filtered, c)
	}

	if len(filtered) == 0 {
		return nil, ErrNoChanges
	}

	history := e.vcs.RecentCommitMessages(ctx, e.historyCount)

	e.mu.Lock()
	e.changeSet = filtered
	e.mu.Unlock()

	byPath := make(map[string]*models.FileChange, len(filtered))
	for _, c := range filtered {
		byPath[pathutil.Normalize(c.Path)] = c
	}

	parser := stream.NewParser()
	claimed := make(map[string]bool)
	var buf strings.Builder

	onChunk := func(chunk []byte) error {
		// Cancellation is polled once per streamed chunk.
		if err := ctx.Err(); err != nil {
			return err
		}
		buf.Write(chunk)
		for _, sug := range parser.Feed(buf.String()) {
			e.addSuggestedGroup(sug, byPath, claimed)
		}
		return nil
	}

	response, reqErr := e.ai.RequestGrouping(ctx, filtered, history, onChunk)
	cancelled := ctx.Err() != nil

	if reqErr != nil && !cancelled {
		if parser.ValidCount() == 0 && response == "" && buf.Len() == 0 {
			return nil, fmt.Errorf("grouping request failed: %w", reqErr)
		}
		// A failure after usable output degrades to a partial result.
		log.Warn().Err(reqErr).Int("groups", parser.ValidCount()).Msg("Grouping request failed mid-response, continuing with partial result")
	}

	if parser.ValidCount() == 0 && !cancelled {
		full := response
		if full == "" {
			full = buf.String()
		}
		suggestions, perr := stream.ParseFull(full)
		if perr != nil {
			if reqErr != nil {
				// The truncated response never stood a chance of parsing;
				// the transport failure is the error worth surfacing.
				return nil, fmt.Errorf("grouping request failed with unusable partial response (%v): %w", perr, reqErr)
			}
			return nil, perr
		}
		for _, sug := range suggestions {
			e.addSuggestedGroup(sug, byPath, claimed)
		}
	}

	e.reconcile(claimed)

	return e.Groups(), nil
}

// addSuggestedGroup resolves a suggestion's raw paths against the change set
// and appends the resulting group, notifying immediately. Paths matching no
// known file are dropped; paths already claimed by an earlier group stay
// with that group. A suggestion whose paths all drop out produces no group.
func (e *Engine) addSuggestedGroup(sug models.GroupingSuggestion, byPath map[string]*models.FileChange, claimed map[string]bool) {
	var files []*models.FileChange
	for _, raw := range sug.Files {
		key := pathutil.Normalize(raw)
		fc, ok := byPath[key]
		if !ok {
			log.Debug().Str("path", raw).Str("group", sug.Name).Msg("Suggested path matches no known change, dropping")
			continue
		}
		if claimed[key] {
			continue
		}
		claimed[key] = true
		files = append(files, fc)
	}

	if len(files) == 0 {
		return
	}

	group := &models.CommitGroup{
		ID:        uuid.NewString(),
		Name:      sug.Name,
		Message:   sug.Message,
		Files:     files,
		Reasoning: sug.Reasoning,
		Status:    models.GroupPending,
	}

	e.mu.Lock()
	e.groups = append(e.groups, group)
	e.mu.Unlock()
	e.notify()
}

// reconcile collects every change-set file the suggestions missed into a
// synthetic catch-all group, guaranteeing full coverage of the change set.
func (e *Engine) reconcile(claimed map[string]bool) {
	e.mu.Lock()
	var missed []*models.FileChange
	for _, c := range e.changeSet {
		if !claimed[pathutil.Normalize(c.Path)] {
			missed = append(missed, c)
		}
	}
	if len(missed) == 0 {
		e.mu.Unlock()
		return
	}

	group := &models.CommitGroup{
		ID:        uuid.NewString(),
		Name:      catchAllName,
		Message:   catchAllMessage,
		Files:     missed,
		Reasoning: catchAllReasoning,
		Status:    models.GroupPending,
	}
	e.groups = append(e.groups, group)
	e.mu.Unlock()

	e.notify()
}

// findGroup returns the index and group for id. Callers must hold the mutex.
func (e *Engine) findGroup(id string) (int, *models.CommitGroup) {
	for i, g := range e.groups {
		if g.ID == id {
			return i, g
		}
	}
	return -1, nil
}
