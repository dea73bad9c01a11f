package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rohith4444/VITA-sub003/longterm"
	"github.com/rohith4444/VITA-sub003/memory"
	"github.com/rohith4444/VITA-sub003/shortterm"
	"github.com/rohith4444/VITA-sub003/working"
)

// MemoryManager is the unified facade over the memory tiers.
type MemoryManager interface {
	// Store places the entry in the tier selected by its kind.
	Store(ctx context.Context, entry *memory.Entry) error

	// Retrieve returns the agent's entries matching the query from the tier
	// selected by the query's kind. Tier-local failures are logged and
	// yield an empty result rather than an error.
	Retrieve(ctx context.Context, agentID string, q *memory.Query) ([]*memory.Entry, error)

	// RetrieveLongTerm queries the long-term tier directly with ordering
	// and a result limit.
	RetrieveLongTerm(ctx context.Context, agentID string, q *memory.Query, sortBy memory.SortBy, limit int) ([]*memory.Entry, error)

	// Update patches matching entries in the tier selected by the query's
	// kind.
	Update(ctx context.Context, agentID string, q *memory.Query, patch map[string]any) error

	// Clear removes the agent's short-term and working state. Long-term
	// memory is durable and only shrinks through CleanupOldMemories.
	Clear(ctx context.Context, agentID string) error

	// ConsolidateToLongTerm copies the agent's short-term entries with
	// importance at or above the threshold into long-term memory, stamping
	// each with a consolidation timestamp. A non-positive threshold uses
	// the configured default. Returns the number promoted; partial
	// failures are logged and do not abort the rest.
	ConsolidateToLongTerm(ctx context.Context, agentID string, threshold float64) (int, error)

	// UpdateMemoryImportance re-scores a long-term entry addressed by its
	// memory id.
	UpdateMemoryImportance(ctx context.Context, agentID, memoryID string, importance float64) error

	// CleanupOldMemories removes the agent's long-term entries older than
	// maxAge with importance below minImportance, returning the number
	// removed.
	CleanupOldMemories(ctx context.Context, agentID string, maxAge time.Duration, minImportance float64) (int, error)

	// Close releases all resources. Idempotent.
	Close() error
}

// Manager implements MemoryManager by composing the tiers.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	short    *shortterm.Store
	working  *working.Store
	longTerm memory.LongTermStore

	// ownsLongTerm is set when the manager constructed the long-term client
	// itself and is responsible for closing it.
	ownsLongTerm bool

	closeMu sync.Mutex
	closed  bool
}

// New creates a manager with the given configuration.
//
// When longTerm is nil and the configuration carries a long-term URL, a
// Redis-backed store is constructed and owned by the manager. When longTerm
// is nil and no URL is configured, the long-term tier is disabled and
// operations that need it fail with a storage error.
func New(cfg Config, longTerm memory.LongTermStore, logger *slog.Logger) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	short, err := shortterm.New(cfg.ShortTerm, logger)
	if err != nil {
		return nil, err
	}

	ownsLongTerm := false
	if longTerm == nil && cfg.LongTerm.URL != "" {
		store, err := longterm.NewRedisStore(longterm.Options{
			URL:            cfg.LongTerm.URL,
			KeyPrefix:      cfg.LongTerm.KeyPrefix,
			ConnectTimeout: cfg.LongTerm.ConnectTimeout,
			ReadTimeout:    cfg.LongTerm.ReadTimeout,
			WriteTimeout:   cfg.LongTerm.WriteTimeout,
		}, logger)
		if err != nil {
			_ = short.Close()
			return nil, err
		}
		longTerm = store
		ownsLongTerm = true
	}

	return &Manager{
		cfg:          cfg,
		logger:       logger.With("component", "manager"),
		short:        short,
		working:      working.New(logger),
		longTerm:     longTerm,
		ownsLongTerm: ownsLongTerm,
	}, nil
}

// Working returns the working store for workspace and callback management.
func (m *Manager) Working() *working.Store {
	return m.working
}

// ShortTermStats returns the short-term tier's bucket counts.
func (m *Manager) ShortTermStats() shortterm.Stats {
	return m.short.Stats()
}

// Store places the entry in the tier selected by its kind.
func (m *Manager) Store(ctx context.Context, entry *memory.Entry) error {
	if entry == nil {
		return memory.ErrEmptyContent
	}

	switch entry.Kind {
	case memory.KindShortTerm:
		return m.short.Store(ctx, entry)
	case memory.KindWorking, memory.KindSharedContext, memory.KindProjectState:
		return m.working.Store(ctx, entry)
	case memory.KindLongTerm, memory.KindDeliverable:
		lt, err := m.longTermStore()
		if err != nil {
			return err
		}
		if err := lt.Store(ctx, entry); err != nil {
			m.logger.Error("long-term store failed",
				"agent_id", entry.OwnerID,
				"memory_id", entry.MemoryID(),
				"error", err,
			)
			return err
		}
		return nil
	default:
		err := fmt.Errorf("%w: no tier for kind %q", memory.ErrInvalidKind, entry.Kind)
		m.logger.Error("routing failed", "agent_id", entry.OwnerID, "error", err)
		return err
	}
}

// Retrieve returns the agent's entries matching the query. Tier-local
// failures are logged and yield an empty result.
func (m *Manager) Retrieve(ctx context.Context, agentID string, q *memory.Query) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}

	var (
		results []*memory.Entry
		err     error
	)
	switch kind := queryKind(q); kind {
	case memory.KindShortTerm, "":
		results, err = m.short.Retrieve(ctx, agentID, q)
	case memory.KindWorking, memory.KindSharedContext, memory.KindProjectState:
		results, err = m.working.Retrieve(ctx, agentID, q)
	case memory.KindLongTerm, memory.KindDeliverable:
		return m.RetrieveLongTerm(ctx, agentID, q, memory.SortByTimestamp, 0)
	default:
		err = fmt.Errorf("%w: no tier for kind %q", memory.ErrInvalidKind, kind)
	}

	if err != nil {
		m.logger.Error("retrieve failed", "agent_id", agentID, "error", err)
		return []*memory.Entry{}, nil
	}
	return results, nil
}

// RetrieveLongTerm queries the long-term tier with ordering and a limit.
// Persistence failures are logged and yield an empty result.
func (m *Manager) RetrieveLongTerm(ctx context.Context, agentID string, q *memory.Query, sortBy memory.SortBy, limit int) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}
	lt, err := m.longTermStore()
	if err != nil {
		return nil, err
	}

	results, err := lt.Retrieve(ctx, agentID, q, sortBy, limit)
	if err != nil {
		m.logger.Error("long-term retrieve failed", "agent_id", agentID, "error", err)
		return []*memory.Entry{}, nil
	}
	return results, nil
}

// Update patches matching entries in the tier selected by the query's kind.
func (m *Manager) Update(ctx context.Context, agentID string, q *memory.Query, patch map[string]any) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}

	switch kind := queryKind(q); kind {
	case memory.KindShortTerm, "":
		return m.short.Update(ctx, agentID, q, patch)
	case memory.KindWorking, memory.KindSharedContext, memory.KindProjectState:
		return m.working.Update(ctx, agentID, q, patch)
	case memory.KindLongTerm, memory.KindDeliverable:
		return m.updateLongTerm(ctx, agentID, q, patch)
	default:
		err := fmt.Errorf("%w: no tier for kind %q", memory.ErrInvalidKind, kind)
		m.logger.Error("routing failed", "agent_id", agentID, "error", err)
		return err
	}
}

// Clear removes the agent's short-term and working state.
func (m *Manager) Clear(ctx context.Context, agentID string) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}
	if err := m.short.Clear(ctx, agentID); err != nil {
		return err
	}
	return m.working.Clear(ctx, agentID)
}

// ConsolidateToLongTerm promotes the agent's important short-term entries to
// long-term memory.
func (m *Manager) ConsolidateToLongTerm(ctx context.Context, agentID string, threshold float64) (int, error) {
	if agentID == "" {
		return 0, memory.ErrEmptyAgentID
	}
	lt, err := m.longTermStore()
	if err != nil {
		return 0, err
	}
	if threshold <= 0 {
		threshold = m.cfg.Consolidation.Threshold
	}

	entries, err := m.short.Retrieve(ctx, agentID, nil)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, entry := range entries {
		if entry.Importance() < threshold {
			continue
		}
		clone := entry.Clone()
		clone.SetMetadata(memory.MetaConsolidatedAt, time.Now().UTC().Format(time.RFC3339))
		if err := lt.Store(ctx, clone); err != nil {
			m.logger.Warn("consolidation failed for entry",
				"agent_id", agentID,
				"memory_id", clone.MemoryID(),
				"error", err,
			)
			continue
		}
		promoted++
	}

	m.logger.Info("consolidated short-term memories",
		"agent_id", agentID,
		"candidates", len(entries),
		"promoted", promoted,
		"threshold", threshold,
	)
	return promoted, nil
}

// UpdateMemoryImportance re-scores a long-term entry addressed by memory id.
func (m *Manager) UpdateMemoryImportance(ctx context.Context, agentID, memoryID string, importance float64) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}
	if importance < 0 || importance > 1 {
		return fmt.Errorf("manager: importance must be in [0, 1], got %g", importance)
	}
	lt, err := m.longTermStore()
	if err != nil {
		return err
	}

	results, err := lt.Retrieve(ctx, agentID, &memory.Query{MemoryID: memoryID}, memory.SortByTimestamp, 1)
	if err != nil {
		m.logger.Error("long-term retrieve failed", "agent_id", agentID, "memory_id", memoryID, "error", err)
		return err
	}
	if len(results) == 0 {
		return memory.ErrNotFound
	}

	entry := results[0]
	entry.SetMetadata(memory.MetaImportance, importance)
	return lt.Update(ctx, entry)
}

// CleanupOldMemories removes aged-out, low-importance long-term entries.
func (m *Manager) CleanupOldMemories(ctx context.Context, agentID string, maxAge time.Duration, minImportance float64) (int, error) {
	if agentID == "" {
		return 0, memory.ErrEmptyAgentID
	}
	lt, err := m.longTermStore()
	if err != nil {
		return 0, err
	}
	return lt.Cleanup(ctx, agentID, maxAge, minImportance)
}

// Close releases all resources held by the manager. Idempotent.
func (m *Manager) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.short.Close(); err != nil {
		return err
	}
	if m.ownsLongTerm {
		if closer, ok := m.longTerm.(interface{ Close() error }); ok {
			return closer.Close()
		}
	}
	return nil
}

// updateLongTerm applies a content patch to the long-term entry addressed by
// the query's memory id.
func (m *Manager) updateLongTerm(ctx context.Context, agentID string, q *memory.Query, patch map[string]any) error {
	if q == nil || q.MemoryID == "" {
		return fmt.Errorf("%w: long-term update requires a memory id", memory.ErrNotFound)
	}
	lt, err := m.longTermStore()
	if err != nil {
		return err
	}

	results, err := lt.Retrieve(ctx, agentID, &memory.Query{MemoryID: q.MemoryID}, memory.SortByTimestamp, 1)
	if err != nil {
		m.logger.Error("long-term retrieve failed", "agent_id", agentID, "memory_id", q.MemoryID, "error", err)
		return err
	}
	if len(results) == 0 {
		return memory.ErrNotFound
	}

	entry := results[0]
	for k, v := range patch {
		entry.Content[k] = v
	}
	return lt.Update(ctx, entry)
}

// longTermStore returns the long-term collaborator or a storage error when
// the tier is disabled.
func (m *Manager) longTermStore() (memory.LongTermStore, error) {
	if m.longTerm == nil {
		return nil, fmt.Errorf("%w: long-term store not configured", memory.ErrStorageFailed)
	}
	return m.longTerm, nil
}

func queryKind(q *memory.Query) memory.MemoryKind {
	if q == nil {
		return ""
	}
	return q.Kind
}

// Compile-time check that Manager satisfies the facade contract.
var _ MemoryManager = (*Manager)(nil)
