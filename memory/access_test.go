package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAccess(t *testing.T) {
	mustEntry := func(level AccessLevel, accessibleBy []string) *Entry {
		t.Helper()
		entry, err := NewEntry(EntryParams{
			Kind:         KindWorking,
			OwnerID:      "owner",
			Content:      map[string]any{"k": "v"},
			AccessLevel:  level,
			AccessibleBy: accessibleBy,
		})
		require.NoError(t, err)
		return entry
	}

	tests := []struct {
		name      string
		entry     *Entry
		requester string
		want      bool
	}{
		{"owner on private", mustEntry(AccessPrivate, nil), "owner", true},
		{"other on private", mustEntry(AccessPrivate, nil), "other", false},
		{"other on team", mustEntry(AccessTeam, nil), "other", true},
		{"other on public", mustEntry(AccessPublic, nil), "other", true},
		{"listed on shared", mustEntry(AccessShared, []string{"a2"}), "a2", true},
		{"unlisted on shared", mustEntry(AccessShared, []string{"a2"}), "a3", false},
		{"owner on shared without listing", mustEntry(AccessShared, []string{"a2"}), "owner", true},
		{"empty requester", mustEntry(AccessPublic, nil), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.entry, tt.requester))
		})
	}

	t.Run("nil entry", func(t *testing.T) {
		assert.False(t, CanAccess(nil, "anyone"))
	})
}
