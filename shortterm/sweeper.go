package shortterm

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rohith4444/VITA-sub003/memory"
)

// run is the background sweep loop. It drops expired entries once per sweep
// interval and exits when the context is cancelled; Close waits on the done
// channel so shutdown never races an in-flight sweep.
func (s *Store) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.logger.Debug("sweeper started", "interval", s.cfg.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one expiry pass over every agent and the backup shelf. A
// failure for one agent is logged and skipped; the pass continues for all
// other agents and resumes on the next tick.
func (s *Store) sweep(ctx context.Context) {
	for _, agentID := range s.agentIDs() {
		if err := s.sweepAgent(ctx, agentID); err != nil {
			s.logger.Error("sweep failed for agent", "agent_id", agentID, "error", err)
			continue
		}
	}
	s.sweepBackup(ctx)
}

// agentIDs snapshots the union of agent ids across the three buckets.
func (s *Store) agentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for id := range s.normal {
		seen[id] = struct{}{}
	}
	for id := range s.prioritized {
		seen[id] = struct{}{}
	}
	for id := range s.coordination {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

// sweepAgent drops the agent's expired entries from all three buckets.
func (s *Store) sweepAgent(ctx context.Context, agentID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sweep cancelled: %w", err)
	}

	s.mu.Lock()
	expired := 0
	expired += s.dropExpired(ctx, s.normal, agentID, s.cfg.RetentionPeriod, bucketNormal)
	expired += s.dropExpired(ctx, s.prioritized, agentID, s.extendedRetention(), bucketPrioritized)
	expired += s.dropExpired(ctx, s.coordination, agentID, s.extendedRetention(), bucketCoordination)
	s.mu.Unlock()

	if expired > 0 {
		s.logger.Debug("swept expired short-term entries", "agent_id", agentID, "expired", expired)
	}
	return nil
}

// dropExpired filters one agent's bucket in place. The caller holds the
// write lock.
func (s *Store) dropExpired(ctx context.Context, bucket map[string][]*memory.Entry, agentID string, ttl time.Duration, name bucketName) int {
	entries := bucket[agentID]
	if len(entries) == 0 {
		return 0
	}

	kept := entries[:0]
	expired := 0
	for _, entry := range entries {
		if entry.Age() > ttl {
			expired++
			continue
		}
		kept = append(kept, entry)
	}

	if len(kept) == 0 {
		delete(bucket, agentID)
	} else {
		bucket[agentID] = kept
	}

	if expired > 0 && s.expiredCounter != nil {
		s.expiredCounter.Add(ctx, int64(expired), metric.WithAttributes(attribute.String("bucket", string(name))))
	}
	return expired
}

// sweepBackup drops critical-backup copies past the backup retention
// horizon. Copies inside the horizon are never touched, regardless of what
// happened to the live buckets.
func (s *Store) sweepBackup(ctx context.Context) {
	s.mu.Lock()
	expired := 0
	for id, rec := range s.backup {
		if time.Since(rec.savedAt) > s.cfg.BackupRetention {
			delete(s.backup, id)
			expired++
		}
	}
	s.mu.Unlock()

	if expired > 0 {
		if s.expiredCounter != nil {
			s.expiredCounter.Add(ctx, int64(expired), metric.WithAttributes(attribute.String("bucket", "backup")))
		}
		s.logger.Debug("swept expired critical backups", "expired", expired)
	}
}
