package memory

import "encoding/json"

// Query is the open keyed filter accepted by retrieve and update calls.
//
// The well-known fields are matched against the corresponding entry fields;
// zero values mean "no constraint". Fields carries the residual filter keys,
// matched directly against entry content: a nil value requires only key
// presence, any other value must compare equal.
//
// A nil *Query matches every entry.
type Query struct {
	// Kind constrains the entry's memory kind.
	Kind MemoryKind `json:"memory_kind,omitempty"`

	// ProjectID constrains the entry's project correlation key. For
	// shared-context retrieval it selects the workspace.
	ProjectID string `json:"project_id,omitempty"`

	// TaskID constrains the entry's task correlation key.
	TaskID string `json:"task_id,omitempty"`

	// MessageType constrains the entry's message-type metadata tag.
	MessageType string `json:"message_type,omitempty"`

	// MinImportance is the inclusive lower bound on the entry's importance.
	// Zero admits every entry.
	MinImportance float64 `json:"min_importance,omitempty"`

	// MemoryID constrains the entry's stable identifier.
	MemoryID string `json:"memory_id,omitempty"`

	// Fields is the open residual filter matched against entry content.
	Fields map[string]any `json:"fields,omitempty"`
}

// Matches reports whether the entry satisfies every constraint in the query.
// Matching is explicit field-by-field; residual keys are compared against
// entry content.
func (q *Query) Matches(entry *Entry) bool {
	if entry == nil {
		return false
	}
	if q == nil {
		return true
	}
	if q.Kind != "" && entry.Kind != q.Kind {
		return false
	}
	if q.ProjectID != "" && entry.ProjectID != q.ProjectID {
		return false
	}
	if q.TaskID != "" && entry.TaskID != q.TaskID {
		return false
	}
	if q.MessageType != "" && entry.MessageType() != q.MessageType {
		return false
	}
	if q.MinImportance > 0 && entry.Importance() < q.MinImportance {
		return false
	}
	if q.MemoryID != "" && entry.MemoryID() != q.MemoryID {
		return false
	}
	for key, want := range q.Fields {
		got, ok := entry.Content[key]
		if !ok {
			return false
		}
		if want != nil && !ValueEqual(got, want) {
			return false
		}
	}
	return true
}

// ValueEqual is the comparison used for residual field matching. It
// tolerates the int/float64 asymmetry introduced by JSON decoding, and
// composite values fall back to a JSON comparison so that maps and slices
// never panic on ==.
func ValueEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	aj, aerr := json.Marshal(a)
	bj, berr := json.Marshal(b)
	return aerr == nil && berr == nil && string(aj) == string(bj)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
