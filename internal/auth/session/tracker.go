// Package session holds the process-wide current-user state. The
// tracker is the single source of the "current user or absent" value
// the rest of the application gates on; nothing else caches identity.
package session

import (
	"sync"

	"github.com/socialclone/go-social-backend/internal/auth/domain"
)

// Tracker is an observable holding the latest session snapshot.
// Subscribers receive every state change until they cancel; the
// tracker never retains more than the most recent snapshot.
type Tracker struct {
	mu      sync.Mutex
	current *domain.Session
	subs    map[int]chan *domain.Session
	nextID  int
}

func NewTracker() *Tracker {
	return &Tracker{subs: make(map[int]chan *domain.Session)}
}

// Current returns the latest snapshot, or nil when signed out.
func (t *Tracker) Current() *domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set replaces the snapshot and notifies subscribers. nil means
// signed out.
func (t *Tracker) Set(s *domain.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = s
	for _, ch := range t.subs {
		// Latest-wins: a slow subscriber only ever misses
		// intermediate states.
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

// Subscribe registers an observer. The returned cancel func must be
// called on teardown or the channel leaks.
func (t *Tracker) Subscribe() (<-chan *domain.Session, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan *domain.Session, 1)
	t.subs[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
