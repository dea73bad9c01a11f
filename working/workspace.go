package working

import (
	"context"
	"time"

	"github.com/rohith4444/VITA-sub003/memory"
)

// NotifyFunc is the callback invoked when another participant writes to a
// workspace the recipient belongs to. Callbacks run asynchronously; errors
// are swallowed and logged, never surfaced to the writer.
type NotifyFunc func(workspaceID, updaterID string, entry *memory.Entry) error

// workspace is a participant-scoped collaboration area. Entries keep their
// insertion order; a write with an already-present memory_id replaces that
// entry in place.
type workspace struct {
	id           string
	createdBy    string
	createdAt    time.Time
	participants map[string]struct{}
	entries      []*memory.Entry
}

// CreateWorkspace seeds a new workspace with the given participant set. The
// creator is always a participant.
func (s *Store) CreateWorkspace(ctx context.Context, workspaceID, creatorID string, participants []string) error {
	if workspaceID == "" {
		return memory.ErrMissingProjectID
	}
	if creatorID == "" {
		return memory.ErrEmptyAgentID
	}

	lock := s.workspaceLocks.get(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if _, exists := s.workspaces[workspaceID]; exists {
		return memory.ErrWorkspaceExists
	}

	ws := &workspace{
		id:           workspaceID,
		createdBy:    creatorID,
		createdAt:    time.Now(),
		participants: map[string]struct{}{creatorID: {}},
	}
	for _, id := range participants {
		if id != "" {
			ws.participants[id] = struct{}{}
		}
	}
	s.workspaces[workspaceID] = ws

	s.logger.Info("workspace created",
		"workspace_id", workspaceID,
		"created_by", creatorID,
		"participants", len(ws.participants),
	)
	return nil
}

// AddParticipant adds an agent to the workspace's participant set.
func (s *Store) AddParticipant(ctx context.Context, workspaceID, agentID string) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}

	lock := s.workspaceLocks.get(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	ws, err := s.workspaceSlot(workspaceID)
	if err != nil {
		return err
	}
	ws.participants[agentID] = struct{}{}

	s.logger.Debug("participant added", "workspace_id", workspaceID, "agent_id", agentID)
	return nil
}

// RemoveParticipant removes an agent from the workspace. Removing the last
// participant deletes the workspace and its contents.
func (s *Store) RemoveParticipant(ctx context.Context, workspaceID, agentID string) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}

	lock := s.workspaceLocks.get(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	ws, err := s.workspaceSlot(workspaceID)
	if err != nil {
		return err
	}
	delete(ws.participants, agentID)

	if len(ws.participants) == 0 {
		s.stateMu.Lock()
		delete(s.workspaces, workspaceID)
		s.stateMu.Unlock()
		s.logger.Info("workspace deleted", "workspace_id", workspaceID)
		return nil
	}

	s.logger.Debug("participant removed", "workspace_id", workspaceID, "agent_id", agentID)
	return nil
}

// WorkspaceInfo describes a workspace at a point in time.
type WorkspaceInfo struct {
	ID           string
	CreatedBy    string
	CreatedAt    time.Time
	Participants []string
	Entries      int
}

// WorkspaceInfo returns the workspace's descriptor.
func (s *Store) WorkspaceInfo(workspaceID string) (WorkspaceInfo, error) {
	lock := s.workspaceLocks.get(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	ws, err := s.workspaceSlot(workspaceID)
	if err != nil {
		return WorkspaceInfo{}, err
	}

	info := WorkspaceInfo{
		ID:           ws.id,
		CreatedBy:    ws.createdBy,
		CreatedAt:    ws.createdAt,
		Participants: make([]string, 0, len(ws.participants)),
		Entries:      len(ws.entries),
	}
	for id := range ws.participants {
		info.Participants = append(info.Participants, id)
	}
	return info, nil
}

// Participants returns the workspace's current participant set.
func (s *Store) Participants(workspaceID string) ([]string, error) {
	lock := s.workspaceLocks.get(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	ws, err := s.workspaceSlot(workspaceID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(ws.participants))
	for id := range ws.participants {
		ids = append(ids, id)
	}
	return ids, nil
}

// RegisterCallback registers the agent's change-notification callback,
// replacing any previous registration.
func (s *Store) RegisterCallback(agentID string, fn NotifyFunc) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	if fn == nil {
		delete(s.callbacks, agentID)
		return
	}
	s.callbacks[agentID] = fn
}

// UnregisterCallback removes the agent's notification callback.
func (s *Store) UnregisterCallback(agentID string) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	delete(s.callbacks, agentID)
}

// storeWorkspace places a shared-context entry in its workspace. The writer
// must be a participant; a missing project id is rejected.
func (s *Store) storeWorkspace(ctx context.Context, entry *memory.Entry) error {
	if entry.ProjectID == "" {
		return memory.ErrMissingProjectID
	}

	lock := s.workspaceLocks.get(entry.ProjectID)
	lock.Lock()

	ws, err := s.workspaceSlot(entry.ProjectID)
	if err != nil {
		lock.Unlock()
		return err
	}
	if _, ok := ws.participants[entry.OwnerID]; !ok {
		lock.Unlock()
		return memory.ErrNotParticipant
	}

	clone := entry.Clone()
	replaced := false
	for i, existing := range ws.entries {
		if existing.MemoryID() == clone.MemoryID() {
			ws.entries[i] = clone
			replaced = true
			break
		}
	}
	if !replaced {
		ws.entries = append(ws.entries, clone)
	}
	recipients := s.otherParticipants(ws, clone.OwnerID)
	// Private copy for the notification goroutines: clone itself now lives in
	// ws.entries and may be mutated by a later update under the lock.
	notifyCopy := clone.Clone()
	lock.Unlock()

	s.notify(entry.ProjectID, notifyCopy.OwnerID, notifyCopy, recipients)

	s.logger.Debug("stored workspace entry",
		"workspace_id", entry.ProjectID,
		"agent_id", notifyCopy.OwnerID,
		"memory_id", notifyCopy.MemoryID(),
		"replaced", replaced,
	)
	return nil
}

// retrieveWorkspace returns the workspace entries visible to the agent:
// the agent must be a participant, and each entry must pass the access
// predicate. Non-participants retrieve nothing rather than an error.
func (s *Store) retrieveWorkspace(agentID string, q *memory.Query) ([]*memory.Entry, error) {
	if q.ProjectID == "" {
		return nil, memory.ErrMissingProjectID
	}

	lock := s.workspaceLocks.get(q.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	ws, err := s.workspaceSlot(q.ProjectID)
	if err != nil {
		return []*memory.Entry{}, nil
	}
	if _, ok := ws.participants[agentID]; !ok {
		return []*memory.Entry{}, nil
	}

	results := make([]*memory.Entry, 0, len(ws.entries))
	for _, entry := range ws.entries {
		if !memory.CanAccess(entry, agentID) {
			continue
		}
		if !q.Matches(entry) {
			continue
		}
		results = append(results, entry.Clone())
	}
	return results, nil
}

// updateWorkspace patches matching workspace entries and notifies the other
// participants, mirroring store semantics.
func (s *Store) updateWorkspace(agentID string, q *memory.Query, patch map[string]any) error {
	if q.ProjectID == "" {
		return memory.ErrMissingProjectID
	}

	lock := s.workspaceLocks.get(q.ProjectID)
	lock.Lock()

	ws, err := s.workspaceSlot(q.ProjectID)
	if err != nil {
		lock.Unlock()
		return err
	}
	if _, ok := ws.participants[agentID]; !ok {
		lock.Unlock()
		return memory.ErrNotParticipant
	}

	var updated []*memory.Entry
	for _, entry := range ws.entries {
		if !memory.CanAccess(entry, agentID) {
			continue
		}
		if !q.Matches(entry) {
			continue
		}
		for k, v := range patch {
			entry.Content[k] = memory.CloneValue(v)
		}
		entry.Touch()
		updated = append(updated, entry.Clone())
	}
	recipients := s.otherParticipants(ws, agentID)
	lock.Unlock()

	if len(updated) == 0 {
		return memory.ErrNotFound
	}
	for _, entry := range updated {
		s.notify(q.ProjectID, agentID, entry, recipients)
	}
	return nil
}

// workspaceSlot looks up a workspace. The caller holds the workspace lock.
func (s *Store) workspaceSlot(workspaceID string) (*workspace, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, memory.ErrWorkspaceNotFound
	}
	return ws, nil
}

// otherParticipants snapshots the participant set minus the writer. The
// caller holds the workspace lock.
func (s *Store) otherParticipants(ws *workspace, writerID string) []string {
	others := make([]string, 0, len(ws.participants))
	for id := range ws.participants {
		if id != writerID {
			others = append(others, id)
		}
	}
	return others
}

// notify fires the registered callbacks of the recipients asynchronously.
// Failures are logged and swallowed; the triggering write has already
// succeeded.
func (s *Store) notify(workspaceID, updaterID string, entry *memory.Entry, recipients []string) {
	s.callbackMu.RLock()
	targets := make(map[string]NotifyFunc, len(recipients))
	for _, id := range recipients {
		if fn, ok := s.callbacks[id]; ok {
			targets[id] = fn
		}
	}
	s.callbackMu.RUnlock()

	for id, fn := range targets {
		go func(recipientID string, fn NotifyFunc) {
			if err := fn(workspaceID, updaterID, entry.Clone()); err != nil {
				s.logger.Warn("workspace notification failed",
					"workspace_id", workspaceID,
					"recipient", recipientID,
					"updater", updaterID,
					"error", err,
				)
			}
		}(id, fn)
	}
}
