package memory

import "fmt"

// MemoryKind identifies the tier an entry is routed to and the lifecycle
// rules that apply to it.
//
// The kind is fixed at construction. The facade dispatches every store,
// retrieve, and update call on it; unknown kinds are reported as routing
// failures rather than faults.
type MemoryKind string

const (
	// KindShortTerm is TTL-bounded per-agent state managed by the short-term
	// store. Entries expire after their bucket's retention period.
	KindShortTerm MemoryKind = "short_term"

	// KindWorking is per-agent scratch state managed by the working store.
	// Entries live until explicitly cleared.
	KindWorking MemoryKind = "working"

	// KindLongTerm is durable state managed by the long-term collaborator.
	KindLongTerm MemoryKind = "long_term"

	// KindProjectState is the single authoritative document per project,
	// fully overwritten on store and update-gated by ownership rules.
	KindProjectState MemoryKind = "project_state"

	// KindSharedContext is a multi-agent shared workspace entry. Storing one
	// requires a project id, which doubles as the workspace id.
	KindSharedContext MemoryKind = "shared_context"

	// KindDeliverable is a produced artifact (code, documentation, ...).
	// Deliverables carry a DeliverableKind and are persisted durably.
	KindDeliverable MemoryKind = "deliverable"
)

// String returns the string representation of the MemoryKind.
func (k MemoryKind) String() string {
	return string(k)
}

// IsValid returns true if the MemoryKind is one of the defined constants.
func (k MemoryKind) IsValid() bool {
	switch k {
	case KindShortTerm, KindWorking, KindLongTerm, KindProjectState, KindSharedContext, KindDeliverable:
		return true
	default:
		return false
	}
}

// Validate returns an error if the MemoryKind is not valid.
func (k MemoryKind) Validate() error {
	if !k.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, k)
	}
	return nil
}

// AccessLevel controls which agents besides the owner may read an entry.
//
// The owner always retains access regardless of level. AccessShared requires
// a non-empty AccessibleBy set; every other level forces AccessibleBy empty.
type AccessLevel string

const (
	// AccessPrivate restricts the entry to its owner.
	AccessPrivate AccessLevel = "private"

	// AccessShared grants access to the agents named in AccessibleBy.
	AccessShared AccessLevel = "shared"

	// AccessTeam grants access to every agent.
	AccessTeam AccessLevel = "team"

	// AccessPublic grants access to every agent.
	AccessPublic AccessLevel = "public"
)

// String returns the string representation of the AccessLevel.
func (a AccessLevel) String() string {
	return string(a)
}

// IsValid returns true if the AccessLevel is one of the defined constants.
func (a AccessLevel) IsValid() bool {
	switch a {
	case AccessPrivate, AccessShared, AccessTeam, AccessPublic:
		return true
	default:
		return false
	}
}

// Validate returns an error if the AccessLevel is not valid.
func (a AccessLevel) Validate() error {
	if !a.IsValid() {
		return fmt.Errorf("memory: invalid access level %q", a)
	}
	return nil
}

// RelationKind labels a directed edge between two entries.
type RelationKind string

const (
	RelationDependsOn   RelationKind = "depends_on"
	RelationPartOf      RelationKind = "part_of"
	RelationReferences  RelationKind = "references"
	RelationDerivedFrom RelationKind = "derived_from"
	RelationSuccessor   RelationKind = "successor"
)

// String returns the string representation of the RelationKind.
func (r RelationKind) String() string {
	return string(r)
}

// IsValid returns true if the RelationKind is one of the defined constants.
func (r RelationKind) IsValid() bool {
	switch r {
	case RelationDependsOn, RelationPartOf, RelationReferences, RelationDerivedFrom, RelationSuccessor:
		return true
	default:
		return false
	}
}

// DeliverableKind classifies a deliverable entry. It is required iff the
// entry's MemoryKind is KindDeliverable.
type DeliverableKind string

const (
	DeliverableCode          DeliverableKind = "code"
	DeliverableConfiguration DeliverableKind = "configuration"
	DeliverableDocumentation DeliverableKind = "documentation"
	DeliverableDesign        DeliverableKind = "design"
	DeliverableTest          DeliverableKind = "test"
	DeliverableData          DeliverableKind = "data"
)

// String returns the string representation of the DeliverableKind.
func (d DeliverableKind) String() string {
	return string(d)
}

// IsValid returns true if the DeliverableKind is one of the defined constants.
func (d DeliverableKind) IsValid() bool {
	switch d {
	case DeliverableCode, DeliverableConfiguration, DeliverableDocumentation, DeliverableDesign, DeliverableTest, DeliverableData:
		return true
	default:
		return false
	}
}

// Validate returns an error if the DeliverableKind is not valid.
func (d DeliverableKind) Validate() error {
	if !d.IsValid() {
		return fmt.Errorf("memory: invalid deliverable kind %q", d)
	}
	return nil
}
