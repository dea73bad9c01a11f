// Package memory defines the shared entry model for the VITA multi-tier
// memory subsystem.
//
// Every tier (short-term, working, long-term) stores the same record type,
// Entry, and routes it by its MemoryKind:
//
//   - KindShortTerm: TTL-bounded per-agent state (shortterm package)
//   - KindWorking: per-agent scratch state (working package)
//   - KindSharedContext: multi-agent shared workspace entries (working package)
//   - KindProjectState: the authoritative per-project document (working package)
//   - KindLongTerm, KindDeliverable: durable entries (longterm package)
//
// Entries are constructed through NewEntry, which validates content, access
// level, and deliverable-kind invariants at the call boundary:
//
//	entry, err := memory.NewEntry(memory.EntryParams{
//	    Kind:    memory.KindShortTerm,
//	    OwnerID: "solution_architect",
//	    Content: map[string]any{"decision": "use event sourcing"},
//	    Metadata: map[string]any{"importance": 0.8},
//	})
//	if err != nil {
//	    return err
//	}
//
// Visibility between agents is governed by the access predicate:
//
//	if memory.CanAccess(entry, "backend_developer") {
//	    // requester may read the entry
//	}
//
// Retrieval filters are expressed as a Query: a small closed set of
// well-known optional fields plus an open residual map matched against entry
// content fields. See Query.Matches.
//
// The Tier interface is the small contract every storage tier implements;
// LongTermStore is the extended contract of the durable collaborator.
package memory
