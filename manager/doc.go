// Package manager provides the unified memory facade for agents.
//
// The facade dispatches every operation to exactly one tier based on memory
// kind: short-term entries to the TTL store, working, shared-context, and
// project-state entries to the working store, and long-term and deliverable
// entries to the durable long-term collaborator. It also hosts the
// cross-tier operations: consolidation of important short-term entries into
// long-term memory, importance re-scoring, and age-based cleanup.
//
// Tier routing failures and long-term persistence failures are caught at the
// facade: they are logged and surfaced as errors to the caller, but never
// panic and never poison the facade for subsequent calls.
//
// Use NewTracedManager to wrap a manager with OpenTelemetry spans.
package manager
