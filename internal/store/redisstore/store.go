// Package redisstore backs the realtime store boundary with Redis:
// one JSON blob per post, an index set for the collection, and a
// Pub/Sub channel that drives re-materialization for watchers.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/socialclone/go-social-backend/internal/store"
)

const (
	postKeyPrefix = "social:post:"  // Post tree JSON: social:post:{post_id}
	postIndexKey  = "social:posts"  // Set of post IDs in the collection
	eventsChannel = "social:events" // Pub/Sub channel for change notifications
)

type Store struct {
	client *redis.Client
	now    func() time.Time
}

func New(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) Watch(ctx context.Context, path, orderKey string) (*store.Subscription, error) {
	if _, err := parsePath(path); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	pubsub := s.client.Subscribe(wctx, eventsChannel)

	ch := make(chan store.Delivery, 1)
	go func() {
		defer close(ch)
		defer pubsub.Close()

		snap, err := s.snapshotAt(wctx, path)
		if err != nil {
			deliver(ch, store.Delivery{Err: err})
			return
		}
		deliver(ch, store.Delivery{Snapshot: snap})

		msgs := pubsub.Channel()
		for {
			select {
			case <-wctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					deliver(ch, store.Delivery{Err: store.ErrWatchClosed})
					return
				}
				snap, err := s.snapshotAt(wctx, path)
				if err != nil {
					if wctx.Err() != nil {
						return
					}
					deliver(ch, store.Delivery{Err: err})
					return
				}
				deliver(ch, store.Delivery{Snapshot: snap})
			}
		}
	}()

	return store.NewSubscription(ch, cancel), nil
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	if len(segs) == 0 {
		snap, err := s.snapshotAt(ctx, path)
		if err != nil {
			return nil, err
		}
		return json.Marshal(snap)
	}

	node, err := s.postTree(ctx, segs[0])
	if err != nil {
		return nil, err
	}
	child, ok := store.TreeAt(node, segs[1:])
	if !ok {
		return nil, store.ErrNotFound
	}
	return json.Marshal(child)
}

func (s *Store) Put(ctx context.Context, path string, value any) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return fmt.Errorf("%w: cannot overwrite the posts collection", store.ErrWriteFailed)
	}

	node, err := store.ToTree(value)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}

	postID := segs[0]
	if len(segs) > 1 {
		// Subpath write: read-modify-write scoped to one post key.
		// Concurrent writers to the same key race with last-write-wins.
		tree, err := s.postTree(ctx, postID)
		if err == store.ErrNotFound {
			tree = make(map[string]any)
		} else if err != nil {
			return err
		}
		root, ok := tree.(map[string]any)
		if !ok {
			root = make(map[string]any)
		}
		store.SetTreeAt(root, segs[1:], node)
		node = root
	}

	return s.writePost(ctx, postID, node)
}

func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	key := store.NewPushKey(s.now())
	if err := s.Put(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}

	switch len(segs) {
	case 0:
		return fmt.Errorf("%w: cannot delete the posts collection", store.ErrWriteFailed)
	case 1:
		pipe := s.client.Pipeline()
		pipe.Del(ctx, postKeyPrefix+segs[0])
		pipe.SRem(ctx, postIndexKey, segs[0])
		pipe.Publish(ctx, eventsChannel, "posts")
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
		}
		return nil
	default:
		tree, err := s.postTree(ctx, segs[0])
		if err == store.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		root, ok := tree.(map[string]any)
		if !ok {
			return nil
		}
		store.DeleteTreeAt(root, segs[1:])
		return s.writePost(ctx, segs[0], root)
	}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) writePost(ctx context.Context, postID string, node any) error {
	raw, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, postKeyPrefix+postID, raw, 0)
	pipe.SAdd(ctx, postIndexKey, postID)
	pipe.Publish(ctx, eventsChannel, "posts")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

func (s *Store) postTree(ctx context.Context, postID string) (any, error) {
	data, err := s.client.Get(ctx, postKeyPrefix+postID).Result()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", postID, err)
	}
	var node any
	if err := json.Unmarshal([]byte(data), &node); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", postID, err)
	}
	return node, nil
}

func (s *Store) snapshotAt(ctx context.Context, path string) (store.Snapshot, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	if len(segs) == 0 {
		ids, err := s.client.SMembers(ctx, postIndexKey).Result()
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		snap := make(store.Snapshot, len(ids))
		for _, id := range ids {
			data, err := s.client.Get(ctx, postKeyPrefix+id).Result()
			if err == redis.Nil {
				continue // index ahead of a delete; skip
			}
			if err != nil {
				return nil, fmt.Errorf("get post %s: %w", id, err)
			}
			snap[id] = json.RawMessage(data)
		}
		return snap, nil
	}

	node, err := s.postTree(ctx, segs[0])
	if err == store.ErrNotFound {
		return make(store.Snapshot), nil
	}
	if err != nil {
		return nil, err
	}
	child, ok := store.TreeAt(node, segs[1:])
	if !ok {
		return make(store.Snapshot), nil
	}
	return store.ChildrenSnapshot(child), nil
}

// parsePath strips the leading "posts" segment; every path this system
// uses lives under the posts collection.
func parsePath(path string) ([]string, error) {
	segs := store.SplitPath(path)
	if len(segs) == 0 || segs[0] != "posts" {
		return nil, fmt.Errorf("redisstore: unsupported path %q", path)
	}
	return segs[1:], nil
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
