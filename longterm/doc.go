// Package longterm implements the durable long-term memory store on Redis.
//
// Entries are serialized as JSON under per-entry keys, indexed by a per-agent
// set of memory ids. Retrieval filters server-side data client-side with the
// shared query predicate, tracks per-entry access counts in a hash, and
// supports ordering by recency, importance, or access count. Cleanup removes
// an agent's aged-out, low-importance entries.
//
// The store is a collaborator behind the memory manager facade; the facade
// treats its failures as tier-local and never lets them fault the caller.
package longterm
