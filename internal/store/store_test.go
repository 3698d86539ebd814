package store

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPushKey_SortsByCreationTime(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)

	keys := []string{
		NewPushKey(base.Add(3 * time.Millisecond)),
		NewPushKey(base),
		NewPushKey(base.Add(1 * time.Millisecond)),
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	assert.Equal(t, []string{keys[1], keys[2], keys[0]}, sorted)
}

func TestNewPushKey_Distinct(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		k := NewPushKey(now)
		assert.False(t, seen[k], "key collision: %s", k)
		seen[k] = true
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"posts", "p1", "likes"}, SplitPath("posts/p1/likes"))
	assert.Equal(t, []string{"posts"}, SplitPath("/posts/"))
	assert.Empty(t, SplitPath(""))
	assert.Empty(t, SplitPath("///"))
}

func TestTreeRoundTrip(t *testing.T) {
	root := make(map[string]any)

	SetTreeAt(root, []string{"posts", "p1", "caption"}, "hello")
	SetTreeAt(root, []string{"posts", "p1", "likes", "u1"}, map[string]any{"userId": "u1"})

	node, ok := TreeAt(root, []string{"posts", "p1", "caption"})
	require.True(t, ok)
	assert.Equal(t, "hello", node)

	_, ok = TreeAt(root, []string{"posts", "missing"})
	assert.False(t, ok)

	// Descending through a scalar fails cleanly.
	_, ok = TreeAt(root, []string{"posts", "p1", "caption", "deeper"})
	assert.False(t, ok)

	DeleteTreeAt(root, []string{"posts", "p1", "likes", "u1"})
	_, ok = TreeAt(root, []string{"posts", "p1", "likes", "u1"})
	assert.False(t, ok)

	DeleteTreeAt(root, []string{"nope", "nothing"}) // no-op
}

func TestToTreeAppliesJSONTags(t *testing.T) {
	type entry struct {
		UserID string `json:"userId"`
	}
	node, err := ToTree(entry{UserID: "u1"})
	require.NoError(t, err)

	m, ok := node.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", m["userId"])
}

func TestChildrenSnapshot(t *testing.T) {
	node := map[string]any{
		"p1": map[string]any{"caption": "a"},
		"p2": map[string]any{"caption": "b"},
	}
	snap := ChildrenSnapshot(node)
	require.Len(t, snap, 2)

	var p1 map[string]any
	require.NoError(t, json.Unmarshal(snap["p1"], &p1))
	assert.Equal(t, "a", p1["caption"])

	// Legacy scalar at a collection path reads as empty, not an error.
	assert.Empty(t, ChildrenSnapshot(float64(7)))
	assert.Empty(t, ChildrenSnapshot(nil))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "posts/p1", PostPath("p1"))
	assert.Equal(t, "posts/p1/likes", LikesPath("p1"))
	assert.Equal(t, "posts/p1/likes/u1", LikePath("p1", "u1"))
	assert.Equal(t, "posts/p1/comments", CommentsPath("p1"))
}
