package working

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rohith4444/VITA-sub003/memory"
)

// TeamLeadAgent is the agent id permitted to update arbitrary project-state
// fields. Every other agent may only update tasks it owns.
const TeamLeadAgent = "team_lead"

// Store is the working memory tier: per-agent scratch state, shared
// workspaces, and project state. It is TTL-less; entries live until
// explicitly cleared or their workspace is deleted.
type Store struct {
	logger *slog.Logger

	agentLocks     *lockTable
	workspaceLocks *lockTable
	projectLocks   *lockTable

	// stateMu guards the resource maps themselves (slot creation and
	// lookup). It is held briefly and never across an operation; per-resource
	// content is guarded by the lock tables above.
	stateMu    sync.Mutex
	scratch    map[string]map[string]any
	workspaces map[string]*workspace
	projects   map[string]*memory.Entry

	callbackMu sync.RWMutex
	callbacks  map[string]NotifyFunc
}

// New creates an empty working store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:         logger.With("component", "working"),
		agentLocks:     newLockTable(),
		workspaceLocks: newLockTable(),
		projectLocks:   newLockTable(),
		scratch:        make(map[string]map[string]any),
		workspaces:     make(map[string]*workspace),
		projects:       make(map[string]*memory.Entry),
		callbacks:      make(map[string]NotifyFunc),
	}
}

// Store routes the entry by kind: shared-context entries go to their
// workspace, project-state entries overwrite the project document, and
// working entries merge into the owner's scratch map.
func (s *Store) Store(ctx context.Context, entry *memory.Entry) error {
	if entry == nil || len(entry.Content) == 0 {
		return memory.ErrEmptyContent
	}
	if entry.OwnerID == "" {
		return memory.ErrEmptyAgentID
	}

	switch entry.Kind {
	case memory.KindSharedContext:
		return s.storeWorkspace(ctx, entry)
	case memory.KindProjectState:
		return s.storeProject(ctx, entry)
	case memory.KindWorking:
		return s.storeScratch(ctx, entry)
	default:
		return fmt.Errorf("%w: working tier cannot store %q", memory.ErrInvalidKind, entry.Kind)
	}
}

// Retrieve dispatches on the query's kind. A nil query returns the agent's
// whole scratch map as one synthetic entry.
func (s *Store) Retrieve(ctx context.Context, agentID string, q *memory.Query) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}

	if q == nil {
		return s.retrieveScratch(agentID, nil)
	}
	switch q.Kind {
	case memory.KindSharedContext:
		return s.retrieveWorkspace(agentID, q)
	case memory.KindProjectState:
		return s.retrieveProject(agentID, q)
	default:
		return s.retrieveScratch(agentID, q)
	}
}

// Update dispatches on the query's kind: project-state updates are
// ownership-gated, workspace updates patch matching shared-context entries,
// and scratch updates merge the patch into an existing scratch map.
func (s *Store) Update(ctx context.Context, agentID string, q *memory.Query, patch map[string]any) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}
	if len(patch) == 0 {
		return memory.ErrEmptyContent
	}

	if q != nil {
		switch q.Kind {
		case memory.KindProjectState:
			return s.updateProject(agentID, q, patch)
		case memory.KindSharedContext:
			return s.updateWorkspace(agentID, q, patch)
		}
	}
	return s.updateScratch(agentID, patch)
}

// Clear removes the agent's scratch state. Workspaces and project state are
// shared resources and survive a per-agent clear.
func (s *Store) Clear(ctx context.Context, agentID string) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}

	lock := s.agentLocks.get(agentID)
	lock.Lock()
	defer lock.Unlock()

	s.stateMu.Lock()
	delete(s.scratch, agentID)
	s.stateMu.Unlock()

	s.logger.Debug("cleared scratch state", "agent_id", agentID)
	return nil
}

// storeScratch merges the entry's content into the agent's scratch map,
// last-write-wins per key.
func (s *Store) storeScratch(ctx context.Context, entry *memory.Entry) error {
	lock := s.agentLocks.get(entry.OwnerID)
	lock.Lock()
	defer lock.Unlock()

	m := s.scratchSlot(entry.OwnerID)
	clone := entry.Clone()
	for k, v := range clone.Content {
		m[k] = v
	}

	s.logger.Debug("merged scratch state", "agent_id", entry.OwnerID, "keys", len(clone.Content))
	return nil
}

// retrieveScratch returns the agent's scratch map as one synthetic entry,
// optionally filtered to the query's residual field keys.
func (s *Store) retrieveScratch(agentID string, q *memory.Query) ([]*memory.Entry, error) {
	lock := s.agentLocks.get(agentID)
	lock.Lock()
	snapshot := make(map[string]any)
	s.stateMu.Lock()
	m := s.scratch[agentID]
	s.stateMu.Unlock()
	for k, v := range m {
		snapshot[k] = v
	}
	lock.Unlock()

	if q != nil && len(q.Fields) > 0 {
		filtered := make(map[string]any, len(q.Fields))
		for k, want := range q.Fields {
			got, ok := snapshot[k]
			if !ok {
				continue
			}
			if want != nil && !memory.ValueEqual(got, want) {
				continue
			}
			filtered[k] = got
		}
		snapshot = filtered
	}

	if len(snapshot) == 0 {
		return []*memory.Entry{}, nil
	}

	entry, err := memory.NewEntry(memory.EntryParams{
		Kind:    memory.KindWorking,
		OwnerID: agentID,
		Content: snapshot,
	})
	if err != nil {
		return nil, err
	}
	return []*memory.Entry{entry}, nil
}

// updateScratch merges the patch into an existing scratch map. It never
// creates a scratch map for an unknown agent.
func (s *Store) updateScratch(agentID string, patch map[string]any) error {
	lock := s.agentLocks.get(agentID)
	lock.Lock()
	defer lock.Unlock()

	s.stateMu.Lock()
	m, ok := s.scratch[agentID]
	s.stateMu.Unlock()
	if !ok {
		return memory.ErrNotFound
	}

	for k, v := range patch {
		m[k] = memory.CloneValue(v)
	}
	return nil
}

// Stats is a point-in-time snapshot of the store's population.
type Stats struct {
	Agents       int
	Workspaces   int
	Participants int
	Projects     int
}

// Stats returns the current population counts.
func (s *Store) Stats() Stats {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	st := Stats{
		Agents:     len(s.scratch),
		Workspaces: len(s.workspaces),
		Projects:   len(s.projects),
	}
	for _, ws := range s.workspaces {
		st.Participants += len(ws.participants)
	}
	return st
}

// scratchSlot returns the agent's scratch map, creating the slot on first
// use. The caller holds the agent's lock.
func (s *Store) scratchSlot(agentID string) map[string]any {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	m, ok := s.scratch[agentID]
	if !ok {
		m = make(map[string]any)
		s.scratch[agentID] = m
	}
	return m
}

// Compile-time check that the store satisfies the tier contract.
var _ memory.Tier = (*Store)(nil)
