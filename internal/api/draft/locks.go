package draft

import "sync"

// sessionLocks serialises load-mutate-save per session. Entries are dropped
// once no goroutine holds or waits on them.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{m: make(map[string]*lockEntry)}
}

func (l *sessionLocks) lock(session string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[session]
	if !ok {
		e = &lockEntry{}
		l.m[session] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, session)
		}
		l.mu.Unlock()
	}
}
