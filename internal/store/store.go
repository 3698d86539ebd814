// Package store defines the realtime store boundary: a path-addressed
// JSON tree that delivers full-collection snapshots on every change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no value exists at the requested path.
	ErrNotFound = errors.New("store: path not found")
	// ErrWriteFailed wraps any write the remote store rejected.
	ErrWriteFailed = errors.New("store: remote write failed")
	// ErrWatchClosed is delivered when a subscription terminates abnormally.
	ErrWatchClosed = errors.New("store: watch closed")
)

// Snapshot is the full materialized state of a collection: direct
// children of the watched path, keyed by child key. Consumers must
// treat every delivery as a wholesale replacement, never a diff.
type Snapshot map[string]json.RawMessage

// Delivery carries one subscription update. A non-nil Err is terminal;
// the channel closes after it.
type Delivery struct {
	Snapshot Snapshot
	Err      error
}

// Subscription is a live watch on a collection path. Stop must be
// called when the owning view is torn down, otherwise the listener
// goroutine and its callbacks leak.
type Subscription struct {
	C      <-chan Delivery
	cancel context.CancelFunc
}

func NewSubscription(c <-chan Delivery, cancel context.CancelFunc) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Stop releases the watch. Safe to call more than once.
func (s *Subscription) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Store is the abstract realtime data source. Implementations own
// reconnection and transport concerns; callers own subscription
// lifecycle.
type Store interface {
	// Watch establishes a live subscription on a collection path.
	// The first delivery is the current state; each subsequent one is
	// the entire collection after a remote change. orderKey is a hint
	// for backends that support server-side ordering; projection
	// re-sorts regardless.
	Watch(ctx context.Context, path, orderKey string) (*Subscription, error)

	// Get reads the raw value at a path. Returns ErrNotFound when absent.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Put creates or overwrites the value at a path.
	Put(ctx context.Context, path string, value any) error

	// Push appends value under a new store-assigned key and returns it.
	Push(ctx context.Context, path string, value any) (string, error)

	// Delete removes the value at a path. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error

	Close() error
}

// Path helpers for the three collections this system uses.

func PostPath(postID string) string {
	return fmt.Sprintf("posts/%s", postID)
}

func LikePath(postID, userID string) string {
	return fmt.Sprintf("posts/%s/likes/%s", postID, userID)
}

func LikesPath(postID string) string {
	return fmt.Sprintf("posts/%s/likes", postID)
}

func CommentsPath(postID string) string {
	return fmt.Sprintf("posts/%s/comments", postID)
}
