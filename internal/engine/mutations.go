package engine

import (
	"github.com/google/uuid"

	"github.com/commitlens/internal/pathutil"
	"github.com/commitlens/pkg/models"
)

// MoveFileToGroup moves the file identified by path from one group into
// another. Returns false without notifying when either group is unknown or
// the file is not in the source group. Moving a file onto its own group
// succeeds and still notifies. A source group left empty is deleted.
func (e *Engine) MoveFileToGroup(path, fromID, toID string) bool {
	key := pathutil.Normalize(path)

	e.mu.Lock()
	fromIdx, from := e.findGroup(fromID)
	_, to := e.findGroup(toID)
	if from == nil || to == nil {
		e.mu.Unlock()
		return false
	}

	fileIdx := -1
	for i, fc := range from.Files {
		if pathutil.Normalize(fc.Path) == key {
			fileIdx = i
			break
		}
	}
	if fileIdx == -1 {
		e.mu.Unlock()
		return false
	}

	if fromID != toID {
		fc := from.Files[fileIdx]
		from.Files = append(from.Files[:fileIdx], from.Files[fileIdx+1:]...)
		to.Files = append(to.Files, fc)
		if len(from.Files) == 0 {
			e.groups = append(e.groups[:fromIdx], e.groups[fromIdx+1:]...)
		}
	}
	e.mu.Unlock()

	e.notify()
	return true
}

// RemoveFileFromGroup moves a file out of a group and back into the
// ungrouped pool. A group left empty is deleted.
func (e *Engine) RemoveFileFromGroup(path, groupID string) bool {
	key := pathutil.Normalize(path)

	e.mu.Lock()
	idx, group := e.findGroup(groupID)
	if group == nil {
		e.mu.Unlock()
		return false
	}

	fileIdx := -1
	for i, fc := range group.Files {
		if pathutil.Normalize(fc.Path) == key {
			fileIdx = i
			break
		}
	}
	if fileIdx == -1 {
		e.mu.Unlock()
		return false
	}

	fc := group.Files[fileIdx]
	group.Files = append(group.Files[:fileIdx], group.Files[fileIdx+1:]...)
	e.pool = append(e.pool, fc)
	if len(group.Files) == 0 {
		e.groups = append(e.groups[:idx], e.groups[idx+1:]...)
	}
	e.mu.Unlock()

	e.notify()
	return true
}

// AddFileToGroup moves a file from the ungrouped pool into a group. Returns
// false when the group is unknown or the file is not in the pool.
func (e *Engine) AddFileToGroup(path, groupID string) bool {
	key := pathutil.Normalize(path)

	e.mu.Lock()
	_, group := e.findGroup(groupID)
	if group == nil {
		e.mu.Unlock()
		return false
	}

	poolIdx := -1
	for i, fc := range e.pool {
		if pathutil.Normalize(fc.Path) == key {
			poolIdx = i
			break
		}
	}
	if poolIdx == -1 {
		e.mu.Unlock()
		return false
	}

	fc := e.pool[poolIdx]
	e.pool = append(e.pool[:poolIdx], e.pool[poolIdx+1:]...)
	group.Files = append(group.Files, fc)
	e.mu.Unlock()

	e.notify()
	return true
}

// CreateGroup appends a new empty group with the given name and message.
// Empty groups are otherwise never retained, so callers are expected to add
// files right after.
func (e *Engine) CreateGroup(name, message string) *models.CommitGroup {
	group := &models.CommitGroup{
		ID:        uuid.NewString(),
		Name:      name,
		Message:   message,
		Reasoning: "manually created",
		Status:    models.GroupPending,
	}

	e.mu.Lock()
	e.groups = append(e.groups, group)
	e.mu.Unlock()

	e.notify()
	return group
}

// MergeGroups moves every file from the source group into the target group
// and deletes the source. Files already present in the target by path are
// skipped. Returns false when either group is unknown or both ids are the
// same.
func (e *Engine) MergeGroups(sourceID, targetID string) bool {
	if sourceID == targetID {
		return false
	}

	e.mu.Lock()
	srcIdx, source := e.findGroup(sourceID)
	_, target := e.findGroup(targetID)
	if source == nil || target == nil {
		e.mu.Unlock()
		return false
	}

	for _, fc := range source.Files {
		if !target.HasFile(fc.Path) {
			target.Files = append(target.Files, fc)
		}
	}
	e.groups = append(e.groups[:srcIdx], e.groups[srcIdx+1:]...)
	e.mu.Unlock()

	e.notify()
	return true
}

// UpdateGroupMessage replaces a group's commit message. Unknown ids are a
// no-op.
func (e *Engine) UpdateGroupMessage(groupID, message string) bool {
	e.mu.Lock()
	_, group := e.findGroup(groupID)
	if group == nil {
		e.mu.Unlock()
		return false
	}
	group.Message = message
	e.mu.Unlock()

	e.notify()
	return true
}

// DiscardGroup deletes a group, returning its files to the ungrouped pool.
// Unknown ids are a no-op.
func (e *Engine) DiscardGroup(groupID string) bool {
	e.mu.Lock()
	idx, group := e.findGroup(groupID)
	if group == nil {
		e.mu.Unlock()
		return false
	}
	e.pool = append(e.pool, group.Files...)
	e.groups = append(e.groups[:idx], e.groups[idx+1:]...)
	e.mu.Unlock()

	e.notify()
	return true
}

// ClearGroups drops all groups and the ungrouped pool.
func (e *Engine) ClearGroups() {
	e.mu.Lock()
	e.groups = nil
	e.pool = nil
	e.mu.Unlock()

	e.notify()
}
