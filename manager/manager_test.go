package manager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohith4444/VITA-sub003/memory"
	"github.com/rohith4444/VITA-sub003/shortterm"
)

// fakeLongTerm is an in-memory LongTermStore for facade tests. Set failWith
// to make every call fail.
type fakeLongTerm struct {
	mu       sync.Mutex
	entries  map[string]*memory.Entry
	failWith error
}

func newFakeLongTerm() *fakeLongTerm {
	return &fakeLongTerm{entries: make(map[string]*memory.Entry)}
}

func (f *fakeLongTerm) Store(ctx context.Context, entry *memory.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.entries[entry.MemoryID()] = entry.Clone()
	return nil
}

func (f *fakeLongTerm) Retrieve(ctx context.Context, agentID string, q *memory.Query, sortBy memory.SortBy, limit int) ([]*memory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var results []*memory.Entry
	for _, entry := range f.entries {
		if !memory.CanAccess(entry, agentID) {
			continue
		}
		if !q.Matches(entry) {
			continue
		}
		results = append(results, entry.Clone())
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakeLongTerm) Update(ctx context.Context, entry *memory.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.entries[entry.MemoryID()]; !ok {
		return memory.ErrNotFound
	}
	entry.Touch()
	f.entries[entry.MemoryID()] = entry.Clone()
	return nil
}

func (f *fakeLongTerm) Cleanup(ctx context.Context, agentID string, maxAge time.Duration, minImportance float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, entry := range f.entries {
		if entry.OwnerID != agentID {
			continue
		}
		if entry.Timestamp.Before(cutoff) && entry.Importance() < minImportance {
			delete(f.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeLongTerm) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func newTestManager(t *testing.T) (*Manager, *fakeLongTerm) {
	t.Helper()

	lt := newFakeLongTerm()
	m, err := New(Config{
		ShortTerm: shortterm.Config{
			RetentionPeriod: 30 * time.Minute,
			SweepInterval:   time.Hour,
		},
	}, lt, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, lt
}

func entryOf(t *testing.T, kind memory.MemoryKind, agentID string, content map[string]any, metadata map[string]any) *memory.Entry {
	t.Helper()
	p := memory.EntryParams{
		Kind:     kind,
		OwnerID:  agentID,
		Content:  content,
		Metadata: metadata,
	}
	if kind == memory.KindDeliverable {
		p.DeliverableKind = memory.DeliverableCode
	}
	entry, err := memory.NewEntry(p)
	require.NoError(t, err)
	return entry
}

func TestStoreDispatch(t *testing.T) {
	m, lt := newTestManager(t)
	ctx := context.Background()

	t.Run("short-term entries reach the TTL store", func(t *testing.T) {
		entry := entryOf(t, memory.KindShortTerm, "a1", map[string]any{"k": "st"}, nil)
		require.NoError(t, m.Store(ctx, entry))

		results, err := m.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindShortTerm})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "st", results[0].Content["k"])
	})

	t.Run("working entries reach the scratch store", func(t *testing.T) {
		entry := entryOf(t, memory.KindWorking, "a1", map[string]any{"task": "triage"}, nil)
		require.NoError(t, m.Store(ctx, entry))

		results, err := m.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindWorking})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "triage", results[0].Content["task"])
	})

	t.Run("long-term and deliverable entries reach the durable store", func(t *testing.T) {
		require.NoError(t, m.Store(ctx, entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "lt"}, nil)))
		require.NoError(t, m.Store(ctx, entryOf(t, memory.KindDeliverable, "a1", map[string]any{"k": "dl"}, nil)))
		assert.Equal(t, 2, lt.count())
	})

	t.Run("unknown kind is a routing error", func(t *testing.T) {
		entry := entryOf(t, memory.KindShortTerm, "a1", map[string]any{"k": "v"}, nil)
		entry.Kind = memory.MemoryKind("holographic")
		err := m.Store(ctx, entry)
		assert.ErrorIs(t, err, memory.ErrInvalidKind)
	})

	t.Run("nil entry", func(t *testing.T) {
		assert.ErrorIs(t, m.Store(ctx, nil), memory.ErrEmptyContent)
	})
}

func TestRetrieveConvertsTierFailures(t *testing.T) {
	m, lt := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "v"}, nil)))
	lt.failWith = fmt.Errorf("connection refused")

	results, err := m.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindLongTerm})
	require.NoError(t, err)
	assert.Empty(t, results)

	// Validation errors still surface.
	_, err = m.Retrieve(ctx, "", nil)
	assert.ErrorIs(t, err, memory.ErrEmptyAgentID)
}

func TestRetrieveUnknownKindIsEmpty(t *testing.T) {
	m, _ := newTestManager(t)

	results, err := m.Retrieve(context.Background(), "a1", &memory.Query{Kind: memory.MemoryKind("holographic")})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConsolidateToLongTerm(t *testing.T) {
	m, lt := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindShortTerm, "a1",
		map[string]any{"k": "important"}, map[string]any{memory.MetaImportance: 0.9})))
	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindShortTerm, "a1",
		map[string]any{"k": "trivial"}, map[string]any{memory.MetaImportance: 0.2})))

	promoted, err := m.ConsolidateToLongTerm(ctx, "a1", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)
	assert.Equal(t, 1, lt.count())

	t.Run("promoted entry carries a consolidation timestamp", func(t *testing.T) {
		results, err := m.RetrieveLongTerm(ctx, "a1", nil, memory.SortByTimestamp, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].HasMetadata(memory.MetaConsolidatedAt))
	})

	t.Run("short-term copies survive consolidation", func(t *testing.T) {
		results, err := m.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindShortTerm})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("default threshold applies when non-positive", func(t *testing.T) {
		promoted, err := m.ConsolidateToLongTerm(ctx, "a1", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, promoted)
	})
}

func TestConsolidatePartialFailure(t *testing.T) {
	m, lt := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindShortTerm, "a1",
		map[string]any{"k": "v"}, map[string]any{memory.MetaImportance: 0.9})))
	lt.failWith = fmt.Errorf("write timeout")

	promoted, err := m.ConsolidateToLongTerm(ctx, "a1", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, promoted)
}

func TestUpdateMemoryImportance(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	entry := entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "v"},
		map[string]any{memory.MetaImportance: 0.3})
	require.NoError(t, m.Store(ctx, entry))

	t.Run("re-scores the entry", func(t *testing.T) {
		require.NoError(t, m.UpdateMemoryImportance(ctx, "a1", entry.MemoryID(), 0.95))

		results, err := m.RetrieveLongTerm(ctx, "a1", &memory.Query{MemoryID: entry.MemoryID()}, memory.SortByTimestamp, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 0.95, results[0].Importance(), 1e-9)
	})

	t.Run("unknown memory id", func(t *testing.T) {
		err := m.UpdateMemoryImportance(ctx, "a1", "no-such-id", 0.5)
		assert.ErrorIs(t, err, memory.ErrNotFound)
	})

	t.Run("out-of-range importance", func(t *testing.T) {
		err := m.UpdateMemoryImportance(ctx, "a1", entry.MemoryID(), 1.5)
		assert.Error(t, err)
	})
}

func TestUpdateLongTermPatch(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	entry := entryOf(t, memory.KindLongTerm, "a1", map[string]any{"status": "open"}, nil)
	require.NoError(t, m.Store(ctx, entry))

	q := &memory.Query{Kind: memory.KindLongTerm, MemoryID: entry.MemoryID()}
	require.NoError(t, m.Update(ctx, "a1", q, map[string]any{"status": "resolved"}))

	results, err := m.RetrieveLongTerm(ctx, "a1", &memory.Query{MemoryID: entry.MemoryID()}, memory.SortByTimestamp, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "resolved", results[0].Content["status"])

	t.Run("missing memory id", func(t *testing.T) {
		err := m.Update(ctx, "a1", &memory.Query{Kind: memory.KindLongTerm}, map[string]any{"k": "v"})
		assert.ErrorIs(t, err, memory.ErrNotFound)
	})
}

func TestCleanupOldMemoriesPassThrough(t *testing.T) {
	m, lt := newTestManager(t)
	ctx := context.Background()

	stale := entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "stale"},
		map[string]any{memory.MetaImportance: 0.1})
	require.NoError(t, m.Store(ctx, stale))
	lt.mu.Lock()
	lt.entries[stale.MemoryID()].Timestamp = time.Now().Add(-60 * 24 * time.Hour)
	lt.mu.Unlock()

	removed, err := m.CleanupOldMemories(ctx, "a1", 30*24*time.Hour, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, lt.count())
}

func TestClearSpansShortTermAndWorking(t *testing.T) {
	m, lt := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindShortTerm, "a1", map[string]any{"k": "v"}, nil)))
	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindWorking, "a1", map[string]any{"k": "v"}, nil)))
	require.NoError(t, m.Store(ctx, entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "v"}, nil)))

	require.NoError(t, m.Clear(ctx, "a1"))

	st, err := m.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindShortTerm})
	require.NoError(t, err)
	assert.Empty(t, st)

	wk, err := m.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindWorking})
	require.NoError(t, err)
	assert.Empty(t, wk)

	// Long-term memory is untouched by Clear.
	assert.Equal(t, 1, lt.count())
}

func TestLongTermDisabled(t *testing.T) {
	m, err := New(Config{
		ShortTerm: shortterm.Config{SweepInterval: time.Hour},
	}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	err = m.Store(ctx, entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "v"}, nil))
	assert.ErrorIs(t, err, memory.ErrStorageFailed)

	_, err = m.ConsolidateToLongTerm(ctx, "a1", 0.5)
	assert.ErrorIs(t, err, memory.ErrStorageFailed)
}

func TestCloseIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 30*time.Minute, cfg.ShortTerm.RetentionPeriod)
	assert.Equal(t, 60*time.Second, cfg.ShortTerm.SweepInterval)
	assert.Equal(t, 0.7, cfg.Consolidation.Threshold)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Consolidation: ConsolidationConfig{Threshold: 1.5}}
	cfg.ShortTerm.ApplyDefaults()
	assert.Error(t, cfg.Validate())
}
