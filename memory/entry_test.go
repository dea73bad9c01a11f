package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	t.Run("minimal valid entry", func(t *testing.T) {
		entry, err := NewEntry(EntryParams{
			Kind:    KindShortTerm,
			OwnerID: "solution_architect",
			Content: map[string]any{"note": "use event sourcing"},
		})
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.Equal(t, KindShortTerm, entry.Kind)
		assert.Equal(t, "solution_architect", entry.OwnerID)
		assert.Equal(t, "1.0", entry.Version)
		assert.Equal(t, AccessPrivate, entry.AccessLevel)
		assert.False(t, entry.Timestamp.IsZero())
		assert.NotEmpty(t, entry.MemoryID(), "memory_id is generated when absent")
	})

	t.Run("empty content rejected", func(t *testing.T) {
		_, err := NewEntry(EntryParams{
			Kind:    KindShortTerm,
			OwnerID: "a1",
			Content: map[string]any{},
		})
		require.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("empty owner rejected", func(t *testing.T) {
		_, err := NewEntry(EntryParams{
			Kind:    KindShortTerm,
			Content: map[string]any{"k": "v"},
		})
		require.ErrorIs(t, err, ErrEmptyOwner)
	})

	t.Run("invalid kind rejected", func(t *testing.T) {
		_, err := NewEntry(EntryParams{
			Kind:    MemoryKind("episodic"),
			OwnerID: "a1",
			Content: map[string]any{"k": "v"},
		})
		require.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("shared without accessible_by rejected", func(t *testing.T) {
		_, err := NewEntry(EntryParams{
			Kind:        KindWorking,
			OwnerID:     "a1",
			Content:     map[string]any{"k": "v"},
			AccessLevel: AccessShared,
		})
		require.ErrorIs(t, err, ErrSharedAccessList)
	})

	t.Run("non-shared accessible_by auto-cleared", func(t *testing.T) {
		entry, err := NewEntry(EntryParams{
			Kind:         KindWorking,
			OwnerID:      "a1",
			Content:      map[string]any{"k": "v"},
			AccessLevel:  AccessTeam,
			AccessibleBy: []string{"a2", "a3"},
		})
		require.NoError(t, err)
		assert.Empty(t, entry.AccessibleBy)
	})

	t.Run("deliverable requires deliverable kind", func(t *testing.T) {
		_, err := NewEntry(EntryParams{
			Kind:    KindDeliverable,
			OwnerID: "a1",
			Content: map[string]any{"code": "package main"},
		})
		require.ErrorIs(t, err, ErrMissingDeliverableKind)
	})

	t.Run("deliverable kind auto-cleared on other kinds", func(t *testing.T) {
		entry, err := NewEntry(EntryParams{
			Kind:            KindShortTerm,
			OwnerID:         "a1",
			Content:         map[string]any{"k": "v"},
			DeliverableKind: DeliverableCode,
		})
		require.NoError(t, err)
		assert.Empty(t, entry.DeliverableKind)
	})

	t.Run("provided memory_id preserved", func(t *testing.T) {
		entry, err := NewEntry(EntryParams{
			Kind:     KindShortTerm,
			OwnerID:  "a1",
			Content:  map[string]any{"k": "v"},
			Metadata: map[string]any{MetaMemoryID: "mem-42"},
		})
		require.NoError(t, err)
		assert.Equal(t, "mem-42", entry.MemoryID())
	})

	t.Run("content is copied at construction", func(t *testing.T) {
		content := map[string]any{"k": "v"}
		entry, err := NewEntry(EntryParams{
			Kind:    KindShortTerm,
			OwnerID: "a1",
			Content: content,
		})
		require.NoError(t, err)

		content["k"] = "mutated"
		assert.Equal(t, "v", entry.Content["k"])
	})
}

func TestEntryImportance(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     float64
	}{
		{"absent", nil, 0},
		{"float", map[string]any{MetaImportance: 0.8}, 0.8},
		{"int", map[string]any{MetaImportance: 1}, 1.0},
		{"non-numeric", map[string]any{MetaImportance: "high"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewEntry(EntryParams{
				Kind:     KindShortTerm,
				OwnerID:  "a1",
				Content:  map[string]any{"k": "v"},
				Metadata: tt.metadata,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Importance())
		})
	}
}

func TestEntryTouch(t *testing.T) {
	entry, err := NewEntry(EntryParams{
		Kind:    KindShortTerm,
		OwnerID: "a1",
		Content: map[string]any{"k": "v"},
	})
	require.NoError(t, err)

	before := entry.Timestamp
	entry.Touch()
	assert.Equal(t, "1.1", entry.Version)
	assert.False(t, entry.Timestamp.Before(before))

	entry.Touch()
	assert.Equal(t, "1.2", entry.Version)
}

func TestBumpVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.0", "1.1"},
		{"1.9", "1.10"},
		{"2.3", "2.4"},
		{"", "1.0"},
		{"abc", "1.0"},
		{"1.2.3", "1.0"},
		{"-1.2", "1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, bumpVersion(tt.in))
		})
	}
}

func TestEntryClone(t *testing.T) {
	entry, err := NewEntry(EntryParams{
		Kind:     KindShortTerm,
		OwnerID:  "a1",
		Content:  map[string]any{"nested": map[string]any{"k": "v"}},
		Metadata: map[string]any{MetaImportance: 0.5},
	})
	require.NoError(t, err)
	require.NoError(t, entry.AddRelationship(RelationDependsOn, "mem-1", nil))

	clone := entry.Clone()
	clone.Content["nested"].(map[string]any)["k"] = "mutated"
	clone.SetMetadata(MetaImportance, 0.9)
	clone.Relationships[0].TargetID = "mem-2"

	assert.Equal(t, "v", entry.Content["nested"].(map[string]any)["k"])
	assert.Equal(t, 0.5, entry.Importance())
	assert.Equal(t, "mem-1", entry.Relationships[0].TargetID)
}

func TestEntryRelationships(t *testing.T) {
	entry, err := NewEntry(EntryParams{
		Kind:    KindShortTerm,
		OwnerID: "a1",
		Content: map[string]any{"k": "v"},
	})
	require.NoError(t, err)

	require.NoError(t, entry.AddRelationship(RelationDependsOn, "mem-1", nil))
	require.NoError(t, entry.AddRelationship(RelationSuccessor, "mem-2", map[string]any{"why": "v2"}))
	require.Error(t, entry.AddRelationship(RelationKind("knows"), "mem-3", nil))

	require.Len(t, entry.Relationships, 2)
	assert.Equal(t, RelationDependsOn, entry.Relationships[0].Kind)
	assert.Equal(t, RelationSuccessor, entry.Relationships[1].Kind)
}

func TestKindValidation(t *testing.T) {
	valid := []MemoryKind{KindShortTerm, KindWorking, KindLongTerm, KindProjectState, KindSharedContext, KindDeliverable}
	for _, k := range valid {
		assert.True(t, k.IsValid(), k.String())
		assert.NoError(t, k.Validate())
	}
	assert.False(t, MemoryKind("").IsValid())
	assert.Error(t, MemoryKind("semantic").Validate())
}

func TestDeliverableKindValidation(t *testing.T) {
	valid := []DeliverableKind{DeliverableCode, DeliverableConfiguration, DeliverableDocumentation, DeliverableDesign, DeliverableTest, DeliverableData}
	for _, d := range valid {
		assert.True(t, d.IsValid(), d.String())
	}
	assert.Error(t, DeliverableKind("binary").Validate())
}
