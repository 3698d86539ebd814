// Package pgstore backs the realtime store boundary with Postgres:
// one jsonb row per post and LISTEN/NOTIFY driving re-materialization
// for watchers.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/socialclone/go-social-backend/internal/store"
)

const (
	notifyChannel = "social_changes"

	schemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	post_id    text PRIMARY KEY,
	value      jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects, pings and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(cctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, 2*time.Second)
	defer pcancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Watch(ctx context.Context, path, orderKey string) (*store.Subscription, error) {
	if _, err := parsePath(path); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)

	conn, err := s.pool.Acquire(wctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(wctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		cancel()
		return nil, fmt.Errorf("listen: %w", err)
	}

	ch := make(chan store.Delivery, 1)
	go func() {
		defer close(ch)
		defer conn.Release()

		snap, err := s.snapshotAt(wctx, path)
		if err != nil {
			deliver(ch, store.Delivery{Err: err})
			return
		}
		deliver(ch, store.Delivery{Snapshot: snap})

		for {
			if _, err := conn.Conn().WaitForNotification(wctx); err != nil {
				if wctx.Err() != nil {
					return
				}
				deliver(ch, store.Delivery{Err: fmt.Errorf("%w: %v", store.ErrWatchClosed, err)})
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

	if len(segs) == 1 {
		return s.writePost(ctx, segs[0], node)
	}

	// Subpath write: row-locked read-modify-write scoped to one post.
	return s.updatePost(ctx, segs[0], func(root map[string]any) {
		store.SetTreeAt(root, segs[1:], node)
	})
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
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
		}
		defer tx.Rollback(ctx)
		if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE post_id = $1`, segs[0]); err != nil {
			return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, "posts"); err != nil {
			return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
		}
		return tx.Commit(ctx)
	default:
		err := s.updatePost(ctx, segs[0], func(root map[string]any) {
			store.DeleteTreeAt(root, segs[1:])
		})
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) writePost(ctx context.Context, postID string, node any) error {
	raw, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO posts (post_id, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (post_id) DO UPDATE SET value = EXCLUDED.value, updated_at = now();
`
	if _, err := tx.Exec(ctx, q, postID, raw); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, "posts"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return tx.Commit(ctx)
}

func (s *Store) updatePost(ctx context.Context, postID string, mutate func(root map[string]any)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT value FROM posts WHERE post_id = $1 FOR UPDATE`, postID).Scan(&raw)
	root := make(map[string]any)
	switch {
	case err == pgx.ErrNoRows:
		// creating a subtree under a post that does not exist yet
	case err != nil:
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	default:
		var node any
		if uerr := json.Unmarshal(raw, &node); uerr == nil {
			if m, ok := node.(map[string]any); ok {
				root = m
			}
		}
	}

	mutate(root)

	out, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	const q = `
INSERT INTO posts (post_id, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (post_id) DO UPDATE SET value = EXCLUDED.value, updated_at = now();
`
	if _, err := tx.Exec(ctx, q, postID, out); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, "posts"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return tx.Commit(ctx)
}

func (s *Store) postTree(ctx context.Context, postID string) (any, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM posts WHERE post_id = $1`, postID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", postID, err)
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
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
		rows, err := s.pool.Query(ctx, `SELECT post_id, value FROM posts`)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		defer rows.Close()

		snap := make(store.Snapshot)
		for rows.Next() {
			var id string
			var raw []byte
			if err := rows.Scan(&id, &raw); err != nil {
				return nil, err
			}
			snap[id] = json.RawMessage(raw)
		}
		return snap, rows.Err()
	}

	node, err := s.postTree(ctx, segs[0])
	if errors.Is(err, store.ErrNotFound) {
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

func parsePath(path string) ([]string, error) {
	segs := store.SplitPath(path)
	if len(segs) == 0 || segs[0] != "posts" {
		return nil, fmt.Errorf("pgstore: unsupported path %q", path)
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
