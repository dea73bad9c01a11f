package memory

import "errors"

// Common errors returned by memory operations.
var (
	// ErrEmptyContent is returned when an entry is constructed or stored with
	// no content fields.
	ErrEmptyContent = errors.New("memory: entry content must not be empty")

	// ErrEmptyAgentID is returned when a caller passes an empty agent id.
	ErrEmptyAgentID = errors.New("memory: agent id must not be empty")

	// ErrEmptyOwner is returned when an entry is constructed without an owner.
	ErrEmptyOwner = errors.New("memory: entry owner must not be empty")

	// ErrInvalidKind is returned when a memory kind is not one of the defined
	// constants. The facade reports this as a routing failure.
	ErrInvalidKind = errors.New("memory: invalid memory kind")

	// ErrSharedAccessList is returned when an entry declares AccessShared
	// without naming at least one agent in AccessibleBy.
	ErrSharedAccessList = errors.New("memory: shared access level requires a non-empty accessible_by set")

	// ErrMissingDeliverableKind is returned when a deliverable entry does not
	// declare its deliverable kind.
	ErrMissingDeliverableKind = errors.New("memory: deliverable entries require a deliverable kind")

	// ErrMissingProjectID is returned when a shared-context or project-state
	// entry does not carry a project id.
	ErrMissingProjectID = errors.New("memory: entry requires a project id")

	// ErrNotFound is returned when no stored entry matches the request.
	ErrNotFound = errors.New("memory: entry not found")

	// ErrWorkspaceNotFound is returned when a workspace id does not exist.
	ErrWorkspaceNotFound = errors.New("memory: workspace not found")

	// ErrWorkspaceExists is returned when creating a workspace whose id is
	// already in use.
	ErrWorkspaceExists = errors.New("memory: workspace already exists")

	// ErrNotParticipant is returned when an agent operates on a workspace it
	// does not belong to.
	ErrNotParticipant = errors.New("memory: agent is not a workspace participant")

	// ErrUpdateDenied is returned when a project-state update violates the
	// ownership rule.
	ErrUpdateDenied = errors.New("memory: project state update denied")

	// ErrStorageFailed is returned when the underlying storage backend fails.
	ErrStorageFailed = errors.New("memory: storage operation failed")
)
