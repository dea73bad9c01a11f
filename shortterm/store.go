package shortterm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rohith4444/VITA-sub003/memory"
)

// bucketName identifies a retention class for routing, logging, and metrics.
type bucketName string

const (
	bucketNormal       bucketName = "normal"
	bucketPrioritized  bucketName = "prioritized"
	bucketCoordination bucketName = "coordination"
)

// backupRecord is a critical-backup copy. Retention is measured from the
// copy time, independent of timestamp refreshes on the live entry.
type backupRecord struct {
	entry   *memory.Entry
	savedAt time.Time
}

// Store is the short-term memory tier. All operations are safe for
// concurrent use; a single store-wide mutex guards the bucket maps, and the
// background sweeper shares it per agent so one slow agent never blocks a
// full pass.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.RWMutex
	normal       map[string][]*memory.Entry
	prioritized  map[string][]*memory.Entry
	coordination map[string][]*memory.Entry
	backup       map[string]backupRecord

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	storedCounter  metric.Int64Counter
	expiredCounter metric.Int64Counter
}

// Stats summarizes bucket occupancy, for introspection and tests.
type Stats struct {
	Agents       int
	Normal       int
	Prioritized  int
	Coordination int
	Backup       int
}

// New creates a short-term store and starts its background sweeper. Call
// Close to stop the sweeper before discarding the store.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		cfg:          cfg,
		logger:       logger.With("component", "shortterm"),
		normal:       make(map[string][]*memory.Entry),
		prioritized:  make(map[string][]*memory.Entry),
		coordination: make(map[string][]*memory.Entry),
		backup:       make(map[string]backupRecord),
		done:         make(chan struct{}),
	}

	meter := otel.Meter("vita.memory.shortterm")
	var err error
	s.storedCounter, err = meter.Int64Counter("memory.shortterm.stored_entries",
		metric.WithDescription("Entries accepted by the short-term store, by bucket."))
	if err != nil {
		s.logger.Warn("failed to create stored-entries counter", "error", err)
	}
	s.expiredCounter, err = meter.Int64Counter("memory.shortterm.expired_entries",
		metric.WithDescription("Entries dropped by the expiry sweep, by bucket."))
	if err != nil {
		s.logger.Warn("failed to create expired-entries counter", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)

	return s, nil
}

// Store places an entry in the bucket chosen by its importance and message
// type. Entries at or above the backup threshold are also copied onto the
// critical-backup shelf.
func (s *Store) Store(ctx context.Context, entry *memory.Entry) error {
	if entry == nil || len(entry.Content) == 0 {
		return memory.ErrEmptyContent
	}
	if entry.OwnerID == "" {
		return memory.ErrEmptyAgentID
	}

	clone := entry.Clone()
	bucket := routeBucket(clone)

	s.mu.Lock()
	switch bucket {
	case bucketCoordination:
		s.coordination[clone.OwnerID] = append(s.coordination[clone.OwnerID], clone)
	case bucketPrioritized:
		s.prioritized[clone.OwnerID] = append(s.prioritized[clone.OwnerID], clone)
	default:
		s.normal[clone.OwnerID] = append(s.normal[clone.OwnerID], clone)
	}
	if clone.Importance() >= BackupThreshold {
		s.backup[clone.MemoryID()] = backupRecord{entry: clone.Clone(), savedAt: time.Now()}
	}
	s.mu.Unlock()

	if s.storedCounter != nil {
		s.storedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", string(bucket))))
	}
	s.logger.Debug("stored short-term entry",
		"agent_id", clone.OwnerID,
		"bucket", string(bucket),
		"memory_id", clone.MemoryID(),
		"importance", clone.Importance(),
	)
	return nil
}

// Retrieve returns deep copies of the agent's live entries matching the
// query, across all three buckets. Expired entries are invisible even before
// the sweeper has dropped them.
func (s *Store) Retrieve(ctx context.Context, agentID string, q *memory.Query) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*memory.Entry, 0)
	results = s.collect(results, s.normal[agentID], s.cfg.RetentionPeriod, q)
	results = s.collect(results, s.prioritized[agentID], s.extendedRetention(), q)
	results = s.collect(results, s.coordination[agentID], s.extendedRetention(), q)
	return results, nil
}

// RetrieveCoordinationMessages returns the agent's live coordination-lane
// entries matching the query.
func (s *Store) RetrieveCoordinationMessages(ctx context.Context, agentID string, q *memory.Query) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(make([]*memory.Entry, 0), s.coordination[agentID], s.extendedRetention(), q), nil
}

// RetrieveCriticalBackup returns the agent's critical-backup copies within
// the backup retention horizon. A non-empty memoryID restricts the result to
// that single entry.
func (s *Store) RetrieveCriticalBackup(ctx context.Context, agentID string, memoryID string) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*memory.Entry, 0)
	for id, rec := range s.backup {
		if rec.entry.OwnerID != agentID {
			continue
		}
		if memoryID != "" && id != memoryID {
			continue
		}
		if time.Since(rec.savedAt) > s.cfg.BackupRetention {
			continue
		}
		results = append(results, rec.entry.Clone())
	}
	return results, nil
}

// Update patches content fields of every entry matching the query, across
// all three buckets and the backup shelf, and refreshes the entries'
// timestamps (extending their remaining TTL). It never creates entries;
// ErrNotFound is returned when nothing matched.
func (s *Store) Update(ctx context.Context, agentID string, q *memory.Query, patch map[string]any) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}
	if len(patch) == 0 {
		return memory.ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := 0
	matched += applyPatch(s.normal[agentID], q, patch)
	matched += applyPatch(s.prioritized[agentID], q, patch)
	matched += applyPatch(s.coordination[agentID], q, patch)
	for _, rec := range s.backup {
		if rec.entry.OwnerID == agentID && q.Matches(rec.entry) {
			patchEntry(rec.entry, patch)
			matched++
		}
	}

	if matched == 0 {
		return memory.ErrNotFound
	}
	s.logger.Debug("updated short-term entries", "agent_id", agentID, "matched", matched)
	return nil
}

// Clear removes the agent's three buckets. Critical-backup copies are kept
// until their own retention horizon; that is the point of the shelf.
func (s *Store) Clear(ctx context.Context, agentID string) error {
	if agentID == "" {
		return memory.ErrEmptyAgentID
	}

	s.mu.Lock()
	delete(s.normal, agentID)
	delete(s.prioritized, agentID)
	delete(s.coordination, agentID)
	s.mu.Unlock()

	s.logger.Debug("cleared short-term memory", "agent_id", agentID)
	return nil
}

// Stats returns current bucket occupancy.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make(map[string]struct{})
	st := Stats{Backup: len(s.backup)}
	for id, entries := range s.normal {
		agents[id] = struct{}{}
		st.Normal += len(entries)
	}
	for id, entries := range s.prioritized {
		agents[id] = struct{}{}
		st.Prioritized += len(entries)
	}
	for id, entries := range s.coordination {
		agents[id] = struct{}{}
		st.Coordination += len(entries)
	}
	st.Agents = len(agents)
	return st
}

// Close stops the background sweeper and waits for it to exit. It is
// idempotent and safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// collect appends clones of the live entries matching q. The caller holds at
// least a read lock.
func (s *Store) collect(dst []*memory.Entry, entries []*memory.Entry, ttl time.Duration, q *memory.Query) []*memory.Entry {
	for _, entry := range entries {
		if entry.Age() > ttl {
			continue
		}
		if !q.Matches(entry) {
			continue
		}
		dst = append(dst, entry.Clone())
	}
	return dst
}

func (s *Store) extendedRetention() time.Duration {
	return s.cfg.RetentionPeriod * extendedFactor
}

// routeBucket decides the retention class at store time: coordination
// messages first, then the importance threshold.
func routeBucket(entry *memory.Entry) bucketName {
	if entry.MessageType() == memory.MessageTypeCoordination {
		return bucketCoordination
	}
	if entry.Importance() >= PriorityThreshold {
		return bucketPrioritized
	}
	return bucketNormal
}

func applyPatch(entries []*memory.Entry, q *memory.Query, patch map[string]any) int {
	matched := 0
	for _, entry := range entries {
		if q.Matches(entry) {
			patchEntry(entry, patch)
			matched++
		}
	}
	return matched
}

func patchEntry(entry *memory.Entry, patch map[string]any) {
	for k, v := range patch {
		entry.Content[k] = memory.CloneValue(v)
	}
	entry.Touch()
}

// Compile-time check that the store satisfies the tier contract.
var _ memory.Tier = (*Store)(nil)
