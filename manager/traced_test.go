package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rohith4444/VITA-sub003/memory"
	"github.com/rohith4444/VITA-sub003/shortterm"
)

func newTracedManager(t *testing.T) (*TracedManager, *fakeLongTerm, *tracetest.SpanRecorder) {
	t.Helper()

	lt := newFakeLongTerm()
	inner, err := New(Config{
		ShortTerm: shortterm.Config{SweepInterval: time.Hour},
	}, lt, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inner.Close() })

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return NewTracedManager(inner, provider.Tracer("test")), lt, recorder
}

func spanNames(recorder *tracetest.SpanRecorder) []string {
	spans := recorder.Ended()
	names := make([]string, len(spans))
	for i, span := range spans {
		names[i] = span.Name()
	}
	return names
}

func TestTracedOperationsEmitSpans(t *testing.T) {
	tm, _, recorder := newTracedManager(t)
	ctx := context.Background()

	entry := entryOf(t, memory.KindShortTerm, "a1", map[string]any{"k": "v"},
		map[string]any{memory.MetaImportance: 0.9})
	require.NoError(t, tm.Store(ctx, entry))

	_, err := tm.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindShortTerm})
	require.NoError(t, err)

	promoted, err := tm.ConsolidateToLongTerm(ctx, "a1", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	require.NoError(t, tm.Clear(ctx, "a1"))

	names := spanNames(recorder)
	assert.Contains(t, names, "vita.memory.store")
	assert.Contains(t, names, "vita.memory.retrieve")
	assert.Contains(t, names, "vita.memory.consolidate")
	assert.Contains(t, names, "vita.memory.clear")

	for _, span := range recorder.Ended() {
		assert.Equal(t, codes.Ok, span.Status().Code, "span %s", span.Name())
	}
}

func TestTracedErrorStatus(t *testing.T) {
	tm, _, recorder := newTracedManager(t)

	err := tm.Store(context.Background(), nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "vita.memory.store", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
}

func TestTracedRetrieveRecordsResultCount(t *testing.T) {
	tm, _, recorder := newTracedManager(t)
	ctx := context.Background()

	require.NoError(t, tm.Store(ctx, entryOf(t, memory.KindShortTerm, "a1", map[string]any{"k": "v"}, nil)))
	_, err := tm.Retrieve(ctx, "a1", &memory.Query{Kind: memory.KindShortTerm})
	require.NoError(t, err)

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() != "vita.memory.retrieve" {
			continue
		}
		for _, attr := range span.Attributes() {
			if string(attr.Key) == "vita.memory.results_count" {
				assert.Equal(t, int64(1), attr.Value.AsInt64())
				found = true
			}
		}
	}
	assert.True(t, found, "retrieve span missing results_count attribute")
}

func TestTracedCleanupAndImportance(t *testing.T) {
	tm, _, recorder := newTracedManager(t)
	ctx := context.Background()

	entry := entryOf(t, memory.KindLongTerm, "a1", map[string]any{"k": "v"}, nil)
	require.NoError(t, tm.Store(ctx, entry))
	require.NoError(t, tm.UpdateMemoryImportance(ctx, "a1", entry.MemoryID(), 0.8))

	removed, err := tm.CleanupOldMemories(ctx, "a1", 30*24*time.Hour, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	names := spanNames(recorder)
	assert.Contains(t, names, "vita.memory.update_importance")
	assert.Contains(t, names, "vita.memory.cleanup")
}
