package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Metadata keys recognized across the subsystem.
const (
	// MetaImportance holds the entry's importance score in [0.0, 1.0].
	MetaImportance = "importance"

	// MetaMemoryID holds the entry's stable identifier, used for critical
	// backup and long-term addressing.
	MetaMemoryID = "memory_id"

	// MetaMessageType tags inter-agent messages; coordination messages are
	// routed to the short-term coordination lane.
	MetaMessageType = "message_type"

	// MetaConsolidatedAt is stamped on entries promoted to long-term memory.
	MetaConsolidatedAt = "consolidated_at"

	// MetaAccessCount tracks how often a long-term entry has been retrieved.
	MetaAccessCount = "access_count"
)

// MessageTypeCoordination marks an entry as an inter-agent coordination
// message.
const MessageTypeCoordination = "coordination"

// initialVersion is the version tag assigned at construction and after
// malformed version input.
const initialVersion = "1.0"

// Relationship is a directed, ordered edge from one entry to another.
type Relationship struct {
	Kind     RelationKind   `json:"relation_kind"`
	TargetID string         `json:"target_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Entry is the unit of storage shared by every memory tier.
//
// Entries are immutable except through explicit update calls: Timestamp is
// set once at construction and reset only by refresh-on-write updates, and
// Version is bumped on every update.
type Entry struct {
	// Timestamp is the creation time, reset only by refresh-on-write updates.
	Timestamp time.Time `json:"timestamp"`

	// Kind determines tier routing and lifecycle rules.
	Kind MemoryKind `json:"memory_kind"`

	// OwnerID is the agent that created the entry. The owner always retains
	// access regardless of AccessLevel.
	OwnerID string `json:"owner_id"`

	// Content is the non-empty keyed payload.
	Content map[string]any `json:"content"`

	// Metadata is an optional keyed payload. See the Meta* constants for
	// recognized keys.
	Metadata map[string]any `json:"metadata,omitempty"`

	// ProjectID correlates the entry with a project. For shared-context
	// entries it doubles as the workspace id.
	ProjectID string `json:"project_id,omitempty"`

	// TaskID correlates the entry with a task.
	TaskID string `json:"task_id,omitempty"`

	// Version is a "major.minor" tag, auto-incremented on update.
	Version string `json:"version"`

	// AccessLevel controls cross-agent visibility. See CanAccess.
	AccessLevel AccessLevel `json:"access_level"`

	// AccessibleBy names the agents permitted to read a shared entry. It is
	// non-empty iff AccessLevel is AccessShared.
	AccessibleBy []string `json:"accessible_by,omitempty"`

	// Relationships are ordered edges to other entries.
	Relationships []Relationship `json:"relationships,omitempty"`

	// DeliverableKind is set iff Kind is KindDeliverable.
	DeliverableKind DeliverableKind `json:"deliverable_kind,omitempty"`

	// ParentID optionally points at a parent entry for hierarchical grouping.
	ParentID string `json:"parent_id,omitempty"`
}

// EntryParams carries the fields for constructing an Entry. Kind, OwnerID,
// and Content are required; everything else is optional.
type EntryParams struct {
	Kind            MemoryKind
	OwnerID         string
	Content         map[string]any
	Metadata        map[string]any
	ProjectID       string
	TaskID          string
	AccessLevel     AccessLevel
	AccessibleBy    []string
	Relationships   []Relationship
	DeliverableKind DeliverableKind
	ParentID        string
}

// NewEntry builds a validated Entry.
//
// Validation errors (empty content, empty owner, invalid kind, shared access
// without an accessible_by set, deliverable without a deliverable kind) are
// returned immediately. Recoverable inconsistencies are auto-corrected and
// logged: a non-shared entry with a populated accessible_by set has the set
// cleared, and a non-deliverable entry with a deliverable kind has the kind
// cleared.
//
// A memory_id is generated when the metadata does not already carry one.
func NewEntry(p EntryParams) (*Entry, error) {
	if err := p.Kind.Validate(); err != nil {
		return nil, err
	}
	if p.OwnerID == "" {
		return nil, ErrEmptyOwner
	}
	if len(p.Content) == 0 {
		return nil, ErrEmptyContent
	}

	level := p.AccessLevel
	if level == "" {
		level = AccessPrivate
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}

	accessibleBy := append([]string(nil), p.AccessibleBy...)
	switch {
	case level == AccessShared && len(accessibleBy) == 0:
		return nil, ErrSharedAccessList
	case level != AccessShared && len(accessibleBy) > 0:
		slog.Warn("memory: clearing accessible_by on non-shared entry",
			"owner_id", p.OwnerID,
			"access_level", level.String(),
		)
		accessibleBy = nil
	}

	deliverableKind := p.DeliverableKind
	switch {
	case p.Kind == KindDeliverable && deliverableKind == "":
		return nil, ErrMissingDeliverableKind
	case p.Kind == KindDeliverable:
		if err := deliverableKind.Validate(); err != nil {
			return nil, err
		}
	case deliverableKind != "":
		slog.Warn("memory: clearing deliverable_kind on non-deliverable entry",
			"owner_id", p.OwnerID,
			"memory_kind", p.Kind.String(),
		)
		deliverableKind = ""
	}

	entry := &Entry{
		Timestamp:       time.Now(),
		Kind:            p.Kind,
		OwnerID:         p.OwnerID,
		Content:         copyMap(p.Content),
		Metadata:        copyMap(p.Metadata),
		ProjectID:       p.ProjectID,
		TaskID:          p.TaskID,
		Version:         initialVersion,
		AccessLevel:     level,
		AccessibleBy:    accessibleBy,
		Relationships:   append([]Relationship(nil), p.Relationships...),
		DeliverableKind: deliverableKind,
		ParentID:        p.ParentID,
	}

	if entry.MemoryID() == "" {
		entry.SetMetadata(MetaMemoryID, uuid.New().String())
	}

	return entry, nil
}

// Importance returns the entry's importance score from metadata, or 0 when
// absent or not numeric.
func (e *Entry) Importance() float64 {
	v, ok := e.GetMetadata(MetaImportance)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// MemoryID returns the entry's stable identifier from metadata, or "" when
// absent.
func (e *Entry) MemoryID() string {
	v, ok := e.GetMetadata(MetaMemoryID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// MessageType returns the entry's message-type tag from metadata, or "" when
// absent.
func (e *Entry) MessageType() string {
	v, ok := e.GetMetadata(MetaMessageType)
	if !ok {
		return ""
	}
	mt, _ := v.(string)
	return mt
}

// GetMetadata retrieves a metadata value by key, returning the value and
// whether it was found.
func (e *Entry) GetMetadata(key string) (any, bool) {
	if e.Metadata == nil {
		return nil, false
	}
	v, ok := e.Metadata[key]
	return v, ok
}

// SetMetadata sets a metadata value for the given key, initializing the
// metadata map when needed.
func (e *Entry) SetMetadata(key string, value any) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
}

// HasMetadata reports whether a metadata key exists.
func (e *Entry) HasMetadata(key string) bool {
	_, ok := e.GetMetadata(key)
	return ok
}

// AddRelationship appends an edge to the entry's ordered relationship list.
func (e *Entry) AddRelationship(kind RelationKind, targetID string, metadata map[string]any) error {
	if !kind.IsValid() {
		return fmt.Errorf("memory: invalid relation kind %q", kind)
	}
	e.Relationships = append(e.Relationships, Relationship{
		Kind:     kind,
		TargetID: targetID,
		Metadata: copyMap(metadata),
	})
	return nil
}

// Age returns the duration since the entry was created or last refreshed.
func (e *Entry) Age() time.Duration {
	return time.Since(e.Timestamp)
}

// Touch resets the timestamp to now and bumps the version. It is called by
// refresh-on-write updates; the reset extends the entry's remaining TTL in
// the short-term tier.
func (e *Entry) Touch() {
	e.Timestamp = time.Now()
	e.Version = bumpVersion(e.Version)
}

// Clone returns a deep copy of the entry. Tiers return clones so callers
// cannot observe or cause torn writes.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.Content = copyMap(e.Content)
	clone.Metadata = copyMap(e.Metadata)
	clone.AccessibleBy = append([]string(nil), e.AccessibleBy...)
	clone.Relationships = make([]Relationship, len(e.Relationships))
	for i, rel := range e.Relationships {
		clone.Relationships[i] = Relationship{
			Kind:     rel.Kind,
			TargetID: rel.TargetID,
			Metadata: copyMap(rel.Metadata),
		}
	}
	return &clone
}

// String returns a human-readable representation of the entry.
func (e *Entry) String() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// bumpVersion increments the minor component of a "major.minor" version tag.
// Malformed input resets to the initial version.
func bumpVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 2 {
		return initialVersion
	}
	major, majErr := strconv.Atoi(parts[0])
	minor, minErr := strconv.Atoi(parts[1])
	if majErr != nil || minErr != nil || major < 0 || minor < 0 {
		return initialVersion
	}
	return fmt.Sprintf("%d.%d", major, minor+1)
}

// CloneValue returns a deep copy of a single content value, using the same
// JSON round trip as Clone. Tiers run incoming patch values through it so a
// caller mutating its patch afterward cannot reach stored state.
func CloneValue(v any) any {
	return copyValue(v)
}

// copyMap returns a deep copy of a keyed payload. Nested values are copied
// via JSON round-tripping, which covers every JSON-serializable value.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies a single value. Scalars are returned as-is;
// composites go through a JSON round trip.
func copyValue(v any) any {
	switch v.(type) {
	case nil, string, bool, int, int64, float32, float64, json.Number:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
