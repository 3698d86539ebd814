package memstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialclone/go-social-backend/internal/store"
)

func recvDelivery(t *testing.T, ch <-chan store.Delivery) store.Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "subscription channel closed")
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return store.Delivery{}
	}
}

func TestGetPutDelete(t *testing.T) {
	ctx := context.Background()
	st := New()

	_, err := st.Get(ctx, "posts/p1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "hi"}))

	raw, err := st.Get(ctx, "posts/p1")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "hi", got["caption"])

	require.NoError(t, st.Delete(ctx, "posts/p1"))
	_, err = st.Get(ctx, "posts/p1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutNestedPath(t *testing.T) {
	ctx := context.Background()
	st := New()

	require.NoError(t, st.Put(ctx, "posts/p1/likes/u1", map[string]any{"userId": "u1"}))
	require.NoError(t, st.Put(ctx, "posts/p1/likes/u2", map[string]any{"userId": "u2"}))

	raw, err := st.Get(ctx, "posts/p1/likes")
	require.NoError(t, err)
	var likes map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &likes))
	assert.Len(t, likes, 2)

	// Deleting one sibling leaves the other untouched.
	require.NoError(t, st.Delete(ctx, "posts/p1/likes/u1"))
	raw, err = st.Get(ctx, "posts/p1/likes")
	require.NoError(t, err)
	likes = nil
	require.NoError(t, json.Unmarshal(raw, &likes))
	assert.Len(t, likes, 1)
}

func TestPushAssignsDistinctOrderedKeys(t *testing.T) {
	ctx := context.Background()
	st := New()

	ms := int64(1_700_000_000_000)
	st.now = func() time.Time { return time.UnixMilli(ms) }
	first, err := st.Push(ctx, "posts", map[string]any{"caption": "a"})
	require.NoError(t, err)

	ms += 5
	second, err := st.Push(ctx, "posts", map[string]any{"caption": "b"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second, "later pushes sort after earlier ones")
}

func TestWatchInitialDelivery(t *testing.T) {
	ctx := context.Background()
	st := New()
	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "hi"}))

	sub, err := st.Watch(ctx, "posts", "timestamp")
	require.NoError(t, err)
	defer sub.Stop()

	d := recvDelivery(t, sub.C)
	require.NoError(t, d.Err)
	assert.Contains(t, d.Snapshot, "p1")
}

func TestWatchSeesSubsequentWrites(t *testing.T) {
	ctx := context.Background()
	st := New()

	sub, err := st.Watch(ctx, "posts", "timestamp")
	require.NoError(t, err)
	defer sub.Stop()

	d := recvDelivery(t, sub.C)
	assert.Empty(t, d.Snapshot)

	require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"caption": "hi"}))
	d = recvDelivery(t, sub.C)
	assert.Contains(t, d.Snapshot, "p1")

	require.NoError(t, st.Delete(ctx, "posts/p1"))
	d = recvDelivery(t, sub.C)
	assert.Empty(t, d.Snapshot)
}

func TestWatchCoalescesToLatest(t *testing.T) {
	ctx := context.Background()
	st := New()

	sub, err := st.Watch(ctx, "posts", "timestamp")
	require.NoError(t, err)
	defer sub.Stop()

	// Burst of writes while the consumer is not draining. Only the
	// final state must be observable.
	for i := 0; i < 20; i++ {
		require.NoError(t, st.Put(ctx, "posts/p1", map[string]any{"rev": i}))
	}

	var last store.Delivery
	for {
		d := recvDelivery(t, sub.C)
		last = d
		var node map[string]any
		require.NoError(t, json.Unmarshal(d.Snapshot["p1"], &node))
		if node["rev"] == float64(19) {
			break
		}
	}
	require.NoError(t, last.Err)
}

func TestWatchStopUnblocksConsumer(t *testing.T) {
	ctx := context.Background()
	st := New()

	sub, err := st.Watch(ctx, "posts", "timestamp")
	require.NoError(t, err)
	recvDelivery(t, sub.C) // initial

	sub.Stop()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok, "channel should close after Stop")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after Stop")
	}
}

func TestCloseClosesAllWatchers(t *testing.T) {
	ctx := context.Background()
	st := New()

	sub, err := st.Watch(ctx, "posts", "timestamp")
	require.NoError(t, err)
	recvDelivery(t, sub.C)

	require.NoError(t, st.Close())

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after store Close")
	}

	_, err = st.Watch(ctx, "posts", "timestamp")
	assert.ErrorIs(t, err, store.ErrWatchClosed)
}
