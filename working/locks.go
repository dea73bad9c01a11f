package working

import "sync"

// lockTable hands out one mutex per resource id. Lock creation happens
// lazily under the table's own short-lived mutex; the returned lock is then
// acquired by the caller for the actual operation, so the table mutex is
// never held while work is in flight.
//
// Locks are never removed: a resource id keeps the same mutex for the
// store's lifetime even across deletion and recreation, so two writers can
// never hold different locks for one id. The per-id cost is a single mutex.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// get returns the lock for the given resource id, creating it on first use.
func (t *lockTable) get(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}
