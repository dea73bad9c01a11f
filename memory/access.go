package memory

// CanAccess reports whether the requesting agent may read the entry.
//
// The owner always has access. AccessTeam and AccessPublic entries are
// readable by every agent. AccessShared entries are readable only by the
// agents named in AccessibleBy. AccessPrivate entries are owner-only.
func CanAccess(entry *Entry, requesterID string) bool {
	if entry == nil || requesterID == "" {
		return false
	}
	if requesterID == entry.OwnerID {
		return true
	}
	switch entry.AccessLevel {
	case AccessTeam, AccessPublic:
		return true
	case AccessShared:
		for _, id := range entry.AccessibleBy {
			if id == requesterID {
				return true
			}
		}
		return false
	default:
		return false
	}
}
