// Package working implements the TTL-less working memory tier: per-agent
// scratch state plus the two coordination primitives built on top of it.
//
// # Agent scratch
//
// Each agent owns a key-value map. Store merges content into it
// (last-write-wins per key); Retrieve with no query returns the whole map as
// one synthetic entry, and with a query returns a filtered subset.
//
// # Shared workspaces
//
// A workspace is a named, participant-scoped area identified by a project
// id. CreateWorkspace seeds the participant set; removing the last
// participant deletes the workspace. Shared-context entries are only visible
// to agents that are both workspace participants and granted access by the
// entry's access level. Successful writes fire best-effort notifications to
// the other participants' registered callbacks; a failing callback is logged
// and never fails the write.
//
// # Project state
//
// One authoritative document per project, fully overwritten on store.
// Updates are ownership-gated: only the team lead may update arbitrary
// fields, while any other agent may only update a task it owns.
//
// # Concurrency
//
// Locks are scoped per resource: one mutex per agent's scratch, per
// workspace, and per project, created lazily under a short-lived bootstrap
// lock that is never held during the operation itself. Operations within one
// scope are linearized by that scope's lock; across scopes there is no
// ordering guarantee. Reads return deep copies so callers cannot observe
// torn writes.
package working
