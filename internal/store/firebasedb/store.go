// Package firebasedb backs the realtime store boundary with the
// Firebase Realtime Database. Writes go through the Admin SDK; Watch
// polls the collection and delivers a snapshot whenever its contents
// change, since the Admin SDK exposes no streaming listener.
package firebasedb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"

	"github.com/socialclone/go-social-backend/internal/store"
)

type Store struct {
	client       *db.Client
	pollInterval time.Duration
}

func New(client *db.Client, pollInterval time.Duration) *Store {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Store{client: client, pollInterval: pollInterval}
}

func (s *Store) Watch(ctx context.Context, path, orderKey string) (*store.Subscription, error) {
	wctx, cancel := context.WithCancel(ctx)

	ch := make(chan store.Delivery, 1)
	go func() {
		defer close(ch)

		snap, raw, err := s.snapshotAt(wctx, path)
		if err != nil {
			deliver(ch, store.Delivery{Err: err})
			return
		}
		deliver(ch, store.Delivery{Snapshot: snap})
		last := raw

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-wctx.Done():
				return
			case <-ticker.C:
				snap, raw, err := s.snapshotAt(wctx, path)
				if err != nil {
					if wctx.Err() != nil {
						return
					}
					deliver(ch, store.Delivery{Err: err})
					return
				}
				if bytes.Equal(raw, last) {
					continue
				}
				last = raw
				deliver(ch, store.Delivery{Snapshot: snap})
			}
		}
	}()

	return store.NewSubscription(ch, cancel), nil
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.client.NewRef(path).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("rtdb get %s: %w", path, err)
	}
	if isAbsent(raw) {
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (s *Store) Put(ctx context.Context, path string, value any) error {
	if err := s.client.NewRef(path).Set(ctx, value); err != nil {
		return fmt.Errorf("%w: rtdb set %s: %v", store.ErrWriteFailed, path, err)
	}
	return nil
}

func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	ref, err := s.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", fmt.Errorf("%w: rtdb push %s: %v", store.ErrWriteFailed, path, err)
	}
	return ref.Key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.NewRef(path).Delete(ctx); err != nil {
		return fmt.Errorf("%w: rtdb delete %s: %v", store.ErrWriteFailed, path, err)
	}
	return nil
}

// Close is a no-op; the underlying client has no teardown.
func (s *Store) Close() error { return nil }

func (s *Store) snapshotAt(ctx context.Context, path string) (store.Snapshot, json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.client.NewRef(path).Get(ctx, &raw); err != nil {
		return nil, nil, fmt.Errorf("rtdb get %s: %w", path, err)
	}

	snap := make(store.Snapshot)
	if isAbsent(raw) {
		return snap, raw, nil
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		// Legacy scalar at a collection path (e.g. likes stored as a
		// count): expose as an empty collection.
		return snap, raw, nil
	}
	for key, child := range children {
		snap[key] = child
	}
	return snap, raw, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func deliver(ch chan store.Delivery, d store.Delivery) {
	select {
	case ch <- d:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- d
	}
}
