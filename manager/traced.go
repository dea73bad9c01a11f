package manager

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rohith4444/VITA-sub003/memory"
)

// TracedManager wraps a MemoryManager with OpenTelemetry tracing. Every
// operation gets a span named "vita.memory.{operation}" carrying the agent,
// kind, and duration attributes, with error status recorded on failure.
type TracedManager struct {
	inner  MemoryManager
	tracer trace.Tracer
}

// NewTracedManager wraps the manager with the given tracer.
func NewTracedManager(inner MemoryManager, tracer trace.Tracer) *TracedManager {
	return &TracedManager{inner: inner, tracer: tracer}
}

// Store traces the store operation with kind and agent attributes.
func (t *TracedManager) Store(ctx context.Context, entry *memory.Entry) error {
	ctx, span := t.tracer.Start(ctx, "vita.memory.store")
	defer span.End()

	if entry != nil {
		span.SetAttributes(
			attribute.String("vita.memory.kind", entry.Kind.String()),
			attribute.String("vita.memory.agent_id", entry.OwnerID),
			attribute.String("vita.memory.memory_id", entry.MemoryID()),
		)
	}

	start := time.Now()
	err := t.inner.Store(ctx, entry)
	span.SetAttributes(attribute.Float64("vita.memory.duration_ms", float64(time.Since(start).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "store succeeded")
	return nil
}

// Retrieve traces the retrieve operation with a result-count attribute.
func (t *TracedManager) Retrieve(ctx context.Context, agentID string, q *memory.Query) ([]*memory.Entry, error) {
	ctx, span := t.tracer.Start(ctx, "vita.memory.retrieve")
	defer span.End()

	span.SetAttributes(
		attribute.String("vita.memory.agent_id", agentID),
		attribute.String("vita.memory.kind", string(queryKind(q))),
	)

	start := time.Now()
	results, err := t.inner.Retrieve(ctx, agentID, q)
	span.SetAttributes(attribute.Float64("vita.memory.duration_ms", float64(time.Since(start).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("vita.memory.results_count", len(results)))
	span.SetStatus(codes.Ok, "retrieve succeeded")
	return results, nil
}

// RetrieveLongTerm traces the long-term retrieval with sort and limit
// attributes.
func (t *TracedManager) RetrieveLongTerm(ctx context.Context, agentID string, q *memory.Query, sortBy memory.SortBy, limit int) ([]*memory.Entry, error) {
	ctx, span := t.tracer.Start(ctx, "vita.memory.retrieve_longterm")
	defer span.End()

	span.SetAttributes(
		attribute.String("vita.memory.agent_id", agentID),
		attribute.String("vita.memory.sort_by", string(sortBy)),
		attribute.Int("vita.memory.limit", limit),
	)

	start := time.Now()
	results, err := t.inner.RetrieveLongTerm(ctx, agentID, q, sortBy, limit)
	span.SetAttributes(attribute.Float64("vita.memory.duration_ms", float64(time.Since(start).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("vita.memory.results_count", len(results)))
	span.SetStatus(codes.Ok, "retrieve succeeded")
	return results, nil
}

// Update traces the update operation.
func (t *TracedManager) Update(ctx context.Context, agentID string, q *memory.Query, patch map[string]any) error {
	ctx, span := t.tracer.Start(ctx, "vita.memory.update")
	defer span.End()

	span.SetAttributes(
		attribute.String("vita.memory.agent_id", agentID),
		attribute.String("vita.memory.kind", string(queryKind(q))),
		attribute.Int("vita.memory.patch_size", len(patch)),
	)

	start := time.Now()
	err := t.inner.Update(ctx, agentID, q, patch)
	span.SetAttributes(attribute.Float64("vita.memory.duration_ms", float64(time.Since(start).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "update succeeded")
	return nil
}

// Clear traces the clear operation.
func (t *TracedManager) Clear(ctx context.Context, agentID string) error {
	ctx, span := t.tracer.Start(ctx, "vita.memory.clear")
	defer span.End()

	span.SetAttributes(attribute.String("vita.memory.agent_id", agentID))

	err := t.inner.Clear(ctx, agentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "clear succeeded")
	return nil
}

// ConsolidateToLongTerm traces consolidation with the promoted count.
func (t *TracedManager) ConsolidateToLongTerm(ctx context.Context, agentID string, threshold float64) (int, error) {
	ctx, span := t.tracer.Start(ctx, "vita.memory.consolidate")
	defer span.End()

	span.SetAttributes(
		attribute.String("vita.memory.agent_id", agentID),
		attribute.Float64("vita.memory.threshold", threshold),
	)

	start := time.Now()
	promoted, err := t.inner.ConsolidateToLongTerm(ctx, agentID, threshold)
	span.SetAttributes(attribute.Float64("vita.memory.duration_ms", float64(time.Since(start).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return promoted, err
	}
	span.SetAttributes(attribute.Int("vita.memory.promoted", promoted))
	span.SetStatus(codes.Ok, "consolidation succeeded")
	return promoted, nil
}

// UpdateMemoryImportance traces importance re-scoring.
func (t *TracedManager) UpdateMemoryImportance(ctx context.Context, agentID, memoryID string, importance float64) error {
	ctx, span := t.tracer.Start(ctx, "vita.memory.update_importance")
	defer span.End()

	span.SetAttributes(
		attribute.String("vita.memory.agent_id", agentID),
		attribute.String("vita.memory.memory_id", memoryID),
		attribute.Float64("vita.memory.importance", importance),
	)

	err := t.inner.UpdateMemoryImportance(ctx, agentID, memoryID, importance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "importance updated")
	return nil
}

// CleanupOldMemories traces cleanup with the removed count.
func (t *TracedManager) CleanupOldMemories(ctx context.Context, agentID string, maxAge time.Duration, minImportance float64) (int, error) {
	ctx, span := t.tracer.Start(ctx, "vita.memory.cleanup")
	defer span.End()

	span.SetAttributes(
		attribute.String("vita.memory.agent_id", agentID),
		attribute.String("vita.memory.max_age", maxAge.String()),
		attribute.Float64("vita.memory.min_importance", minImportance),
	)

	removed, err := t.inner.CleanupOldMemories(ctx, agentID, maxAge, minImportance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return removed, err
	}
	span.SetAttributes(attribute.Int("vita.memory.removed", removed))
	span.SetStatus(codes.Ok, "cleanup succeeded")
	return removed, nil
}

// Close traces facade shutdown.
func (t *TracedManager) Close() error {
	_, span := t.tracer.Start(context.Background(), "vita.memory.close")
	defer span.End()

	err := t.inner.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "manager closed")
	return nil
}

// Compile-time check that TracedManager satisfies the facade contract.
var _ MemoryManager = (*TracedManager)(nil)
