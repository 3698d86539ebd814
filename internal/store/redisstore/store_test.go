package redisstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialclone/go-social-backend/internal/store"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestPutAndGetPost(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "hi", "timestamp": 100}))

	raw, err := st.Get(ctx, "posts/p1")
	require.NoError(t, err)
	var post map[string]any
	require.NoError(t, json.Unmarshal(raw, &post))
	assert.Equal(t, "hi", post["caption"])

	_, err = st.Get(ctx, "posts/missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRejectsPathsOutsidePosts(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	_, err := st.Get(ctx, "users/u1")
	assert.Error(t, err)
	err = st.Put(ctx, "users/u1", map[string]any{})
	assert.Error(t, err)
}

func TestSubpathWriteMergesIntoPost(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "hi"}))
	require.NoError(t, st.Put(ctx, "posts/p1/likes/u1", map[string]any{"userId": "u1", "timestamp": 10}))

	raw, err := st.Get(ctx, "posts/p1")
	require.NoError(t, err)
	var post map[string]any
	require.NoError(t, json.Unmarshal(raw, &post))
	assert.Equal(t, "hi", post["caption"], "sibling fields survive a subpath write")

	raw, err = st.Get(ctx, "posts/p1/likes/u1")
	require.NoError(t, err)
	var like map[string]any
	require.NoError(t, json.Unmarshal(raw, &like))
	assert.Equal(t, "u1", like["userId"])
}

func TestDeleteSubpath(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	require.NoError(t, st.Put(ctx, "posts/p1/likes/u1", map[string]any{"userId": "u1"}))
	require.NoError(t, st.Put(ctx, "posts/p1/likes/u2", map[string]any{"userId": "u2"}))

	require.NoError(t, st.Delete(ctx, "posts/p1/likes/u1"))

	_, err := st.Get(ctx, "posts/p1/likes/u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(ctx, "posts/p1/likes/u2")
	assert.NoError(t, err)

	// Deleting under a missing post is a no-op, not an error.
	assert.NoError(t, st.Delete(ctx, "posts/nope/likes/u1"))
}

func TestDeletePostRemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "hi"}))
	require.NoError(t, st.Delete(ctx, "posts/p1"))

	raw, err := st.Get(ctx, "posts")
	require.NoError(t, err)
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Empty(t, snap)
}

func TestPushKeysLandInCollection(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	id, err := st.Push(ctx, "posts", map[string]any{"caption": "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	raw, err := st.Get(ctx, "posts/"+id)
	require.NoError(t, err)
	var post map[string]any
	require.NoError(t, json.Unmarshal(raw, &post))
	assert.Equal(t, "hi", post["caption"])
}

func TestWatchDeliversInitialAndUpdates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, _ := newTestStore(t)

	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "first", "timestamp": 100}))

	sub, err := st.Watch(ctx, "posts", "timestamp")
	require.NoError(t, err)
	defer sub.Stop()

	d := <-sub.C
	require.NoError(t, d.Err)
	assert.Contains(t, d.Snapshot, "p1")

	require.NoError(t, st.Put(ctx, "posts/p2", map[string]any{"caption": "second", "timestamp": 200}))

	for {
		select {
		case d, ok := <-sub.C:
			require.True(t, ok)
			require.NoError(t, d.Err)
			if _, present := d.Snapshot["p2"]; present {
				return
			}
		case <-ctx.Done():
			t.Fatal("never observed the second post")
		}
	}
}
