// Package memstore is an in-process Store used by tests and local
// development. It implements the same full-snapshot delivery contract
// as the remote drivers.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/socialclone/go-social-backend/internal/store"
)

type watcher struct {
	path string
	ch   chan store.Delivery
}

type Store struct {
	mu       sync.Mutex
	root     map[string]any
	watchers map[int]*watcher
	nextID   int
	now      func() time.Time
	closed   bool
}

func New() *Store {
	return &Store{
		root:     make(map[string]any),
		watchers: make(map[int]*watcher),
		now:      time.Now,
	}
}

func (s *Store) Watch(ctx context.Context, path, orderKey string) (*store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrWatchClosed
	}

	id := s.nextID
	s.nextID++

	w := &watcher{path: path, ch: make(chan store.Delivery, 1)}
	s.watchers[id] = w

	// Initial delivery: current state of the collection.
	w.send(store.Delivery{Snapshot: s.snapshotAtLocked(path)})

	wctx, cancel := context.WithCancel(ctx)
	go func() {
		<-wctx.Done()
		s.mu.Lock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w.ch)
		}
		s.mu.Unlock()
	}()

	return store.NewSubscription(w.ch, cancel), nil
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := store.TreeAt(s.root, store.SplitPath(path))
	if !ok {
		return nil, store.ErrNotFound
	}
	return json.Marshal(node)
}

func (s *Store) Put(ctx context.Context, path string, value any) error {
	node, err := store.ToTree(value)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}

	segs := store.SplitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("%w: empty path", store.ErrWriteFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	store.SetTreeAt(s.root, segs, node)
	s.notifyLocked()
	return nil
}

func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	key := store.NewPushKey(s.now())
	if err := s.Put(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	store.DeleteTreeAt(s.root, store.SplitPath(path))
	s.notifyLocked()
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, w := range s.watchers {
		delete(s.watchers, id)
		close(w.ch)
	}
	return nil
}

// notifyLocked re-materializes every watcher's collection. Full
// replacement semantics make over-notification harmless.
func (s *Store) notifyLocked() {
	for _, w := range s.watchers {
		w.send(store.Delivery{Snapshot: s.snapshotAtLocked(w.path)})
	}
}

// send delivers with latest-wins coalescing so a slow consumer only
// ever misses intermediate states, never the final one.
func (w *watcher) send(d store.Delivery) {
	select {
	case w.ch <- d:
	default:
		select {
		case <-w.ch:
		default:
		}
		w.ch <- d
	}
}

func (s *Store) snapshotAtLocked(path string) store.Snapshot {
	node, ok := store.TreeAt(s.root, store.SplitPath(path))
	if !ok {
		return make(store.Snapshot)
	}
	return store.ChildrenSnapshot(node)
}
