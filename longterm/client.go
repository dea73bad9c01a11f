package longterm

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rohith4444/VITA-sub003/memory"
)

// Options configures the Redis connection and key layout.
type Options struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration

	// KeyPrefix namespaces every key written by the store.
	KeyPrefix string
}

// RedisStore persists memory entries in Redis.
//
// Key layout, all under the configured prefix:
//
//	{prefix}:entry:{memory_id}   JSON-serialized entry
//	{prefix}:agent:{agent_id}    set of the agent's memory ids
//	{prefix}:access_counts       hash of memory_id -> retrieval count
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(opts Options, logger *slog.Logger) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "memory:longterm"
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: opts.KeyPrefix,
		logger: logger.With("component", "longterm"),
	}, nil
}

// Store persists the entry under its memory id and indexes it for its owner.
func (s *RedisStore) Store(ctx context.Context, entry *memory.Entry) error {
	if entry == nil || len(entry.Content) == 0 {
		return memory.ErrEmptyContent
	}
	if entry.OwnerID == "" {
		return memory.ErrEmptyAgentID
	}
	id := entry.MemoryID()
	if id == "" {
		return fmt.Errorf("%w: entry has no memory_id", memory.ErrStorageFailed)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshal entry %s: %v", memory.ErrStorageFailed, id, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(id), data, 0)
	pipe.SAdd(ctx, s.agentKey(entry.OwnerID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: store entry %s: %v", memory.ErrStorageFailed, id, err)
	}

	s.logger.Debug("stored long-term entry",
		"agent_id", entry.OwnerID,
		"memory_id", id,
		"memory_kind", entry.Kind.String(),
	)
	return nil
}

// Retrieve returns up to limit of the agent's entries matching the query,
// ordered by sortBy. Each returned entry has its access count incremented
// and reflected in metadata.
func (s *RedisStore) Retrieve(ctx context.Context, agentID string, q *memory.Query, sortBy memory.SortBy, limit int) ([]*memory.Entry, error) {
	if agentID == "" {
		return nil, memory.ErrEmptyAgentID
	}
	if sortBy == "" {
		sortBy = memory.SortByTimestamp
	}
	if err := sortBy.Validate(); err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, s.agentKey(agentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list entries for %s: %v", memory.ErrStorageFailed, agentID, err)
	}
	if len(ids) == 0 {
		return []*memory.Entry{}, nil
	}

	entries := make([]*memory.Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.loadEntry(ctx, id)
		if err != nil {
			// Index entries whose payload is gone are pruned lazily.
			s.client.SRem(ctx, s.agentKey(agentID), id)
			continue
		}
		if !memory.CanAccess(entry, agentID) {
			continue
		}
		if !q.Matches(entry) {
			continue
		}
		entries = append(entries, entry)
	}

	counts, err := s.bumpAccessCounts(ctx, entries)
	if err != nil {
		s.logger.Warn("access count update failed", "agent_id", agentID, "error", err)
	}
	for _, entry := range entries {
		if n, ok := counts[entry.MemoryID()]; ok {
			entry.SetMetadata(memory.MetaAccessCount, n)
		}
	}

	sortEntries(entries, sortBy)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Update overwrites a previously stored entry, addressed by its memory id.
func (s *RedisStore) Update(ctx context.Context, entry *memory.Entry) error {
	if entry == nil {
		return memory.ErrEmptyContent
	}
	id := entry.MemoryID()
	if id == "" {
		return memory.ErrNotFound
	}

	exists, err := s.client.Exists(ctx, s.entryKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: check entry %s: %v", memory.ErrStorageFailed, id, err)
	}
	if exists == 0 {
		return memory.ErrNotFound
	}

	entry.Touch()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshal entry %s: %v", memory.ErrStorageFailed, id, err)
	}
	if err := s.client.Set(ctx, s.entryKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: update entry %s: %v", memory.ErrStorageFailed, id, err)
	}

	s.logger.Debug("updated long-term entry", "memory_id", id, "version", entry.Version)
	return nil
}

// Cleanup deletes the agent's entries older than maxAge whose importance is
// below minImportance, returning the number removed.
func (s *RedisStore) Cleanup(ctx context.Context, agentID string, maxAge time.Duration, minImportance float64) (int, error) {
	if agentID == "" {
		return 0, memory.ErrEmptyAgentID
	}

	ids, err := s.client.SMembers(ctx, s.agentKey(agentID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: list entries for %s: %v", memory.ErrStorageFailed, agentID, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, id := range ids {
		entry, err := s.loadEntry(ctx, id)
		if err != nil {
			s.client.SRem(ctx, s.agentKey(agentID), id)
			continue
		}
		if !entry.Timestamp.Before(cutoff) {
			continue
		}
		if entry.Importance() >= minImportance {
			continue
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, s.entryKey(id))
		pipe.SRem(ctx, s.agentKey(agentID), id)
		pipe.HDel(ctx, s.accessKey(), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("%w: delete entry %s: %v", memory.ErrStorageFailed, id, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("cleaned up long-term entries",
			"agent_id", agentID,
			"removed", removed,
			"max_age", maxAge.String(),
		)
	}
	return removed, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) loadEntry(ctx context.Context, id string) (*memory.Entry, error) {
	data, err := s.client.Get(ctx, s.entryKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, memory.ErrNotFound
		}
		return nil, fmt.Errorf("%w: load entry %s: %v", memory.ErrStorageFailed, id, err)
	}

	var entry memory.Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("%w: unmarshal entry %s: %v", memory.ErrStorageFailed, id, err)
	}
	return &entry, nil
}

// bumpAccessCounts increments the retrieval counter of each entry in one
// pipeline and returns the new counts keyed by memory id.
func (s *RedisStore) bumpAccessCounts(ctx context.Context, entries []*memory.Entry) (map[string]int64, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	pipe := s.client.TxPipeline()
	cmds := make(map[string]*redis.IntCmd, len(entries))
	for _, entry := range entries {
		id := entry.MemoryID()
		cmds[id] = pipe.HIncrBy(ctx, s.accessKey(), id, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(cmds))
	for id, cmd := range cmds {
		counts[id] = cmd.Val()
	}
	return counts, nil
}

func (s *RedisStore) entryKey(id string) string {
	return fmt.Sprintf("%s:entry:%s", s.prefix, id)
}

func (s *RedisStore) agentKey(agentID string) string {
	return fmt.Sprintf("%s:agent:%s", s.prefix, agentID)
}

func (s *RedisStore) accessKey() string {
	return s.prefix + ":access_counts"
}

// sortEntries orders entries in place by the requested criterion; ties fall
// back to recency so ordering is stable across runs.
func sortEntries(entries []*memory.Entry, sortBy memory.SortBy) {
	sort.SliceStable(entries, func(i, j int) bool {
		switch sortBy {
		case memory.SortByImportance:
			if entries[i].Importance() != entries[j].Importance() {
				return entries[i].Importance() > entries[j].Importance()
			}
		case memory.SortByAccessCount:
			if accessCount(entries[i]) != accessCount(entries[j]) {
				return accessCount(entries[i]) > accessCount(entries[j])
			}
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

func accessCount(e *memory.Entry) int64 {
	v, ok := e.GetMetadata(memory.MetaAccessCount)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Compile-time check that the store satisfies the long-term contract.
var _ memory.LongTermStore = (*RedisStore)(nil)
