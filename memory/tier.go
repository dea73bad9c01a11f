package memory

import (
	"context"
	"fmt"
	"time"
)

// Tier is the small shared contract every storage tier implements. The
// facade dispatches calls to exactly one tier based on the entry's or
// query's memory kind.
//
// Retrieve returns deep copies; callers may mutate the result freely.
// Update is refresh-on-write: it patches content fields of entries matching
// the query and resets their timestamps, and reports ErrNotFound when
// nothing matched rather than creating entries.
type Tier interface {
	// Store places an entry in the tier. Validation errors surface
	// immediately; the entry is never partially stored.
	Store(ctx context.Context, entry *Entry) error

	// Retrieve returns the agent's entries matching the query. A nil query
	// matches everything visible to the agent.
	Retrieve(ctx context.Context, agentID string, q *Query) ([]*Entry, error)

	// Update patches content fields of matching entries and refreshes their
	// timestamps. Returns ErrNotFound when no entry matched.
	Update(ctx context.Context, agentID string, q *Query, patch map[string]any) error

	// Clear removes the agent's entries from the tier.
	Clear(ctx context.Context, agentID string) error
}

// SortBy selects the ordering of long-term retrieval results.
type SortBy string

const (
	// SortByTimestamp orders newest first.
	SortByTimestamp SortBy = "timestamp"

	// SortByImportance orders highest importance first.
	SortByImportance SortBy = "importance"

	// SortByAccessCount orders most-retrieved first.
	SortByAccessCount SortBy = "access_count"
)

// IsValid returns true if the SortBy is one of the defined constants.
func (s SortBy) IsValid() bool {
	switch s {
	case SortByTimestamp, SortByImportance, SortByAccessCount:
		return true
	default:
		return false
	}
}

// Validate returns an error if the SortBy is not valid.
func (s SortBy) Validate() error {
	if !s.IsValid() {
		return fmt.Errorf("memory: invalid sort order %q", s)
	}
	return nil
}

// LongTermStore is the contract of the durable long-term collaborator. The
// facade treats its failures as tier-local: they are caught, logged, and
// surfaced as failed results, never propagated as faults.
type LongTermStore interface {
	// Store persists an entry durably.
	Store(ctx context.Context, entry *Entry) error

	// Retrieve returns up to limit of the agent's entries matching the
	// query, ordered by sortBy. A limit <= 0 means no limit.
	Retrieve(ctx context.Context, agentID string, q *Query, sortBy SortBy, limit int) ([]*Entry, error)

	// Update overwrites a previously stored entry, addressed by its
	// memory_id.
	Update(ctx context.Context, entry *Entry) error

	// Cleanup deletes the agent's entries older than maxAge whose importance
	// is below minImportance, returning the number removed.
	Cleanup(ctx context.Context, agentID string, maxAge time.Duration, minImportance float64) (int, error)
}
