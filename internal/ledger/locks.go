package ledger

import "sync"

// userLocks is a set of per-user mutexes. Entries are reference counted and
// dropped once no goroutine holds or waits for them, so memory stays
// proportional to the number of users with operations in flight.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// lock acquires the mutex for userID and returns its release function.
func (u *userLocks) lock(userID string) (unlock func()) {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &userLock{}
		u.locks[userID] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(u.locks, userID)
		}
		u.mu.Unlock()
	}
}

// size returns the number of tracked users.
func (u *userLocks) size() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.locks)
}
