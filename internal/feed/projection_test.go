package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialclone/go-social-backend/internal/store"
)

func rawPost(t *testing.T, fields map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(fields)
	require.NoError(t, err)
	return b
}

func TestProject_NewestFirst(t *testing.T) {
	snap := store.Snapshot{
		"a": rawPost(t, map[string]any{"caption": "older", "timestamp": 100}),
		"b": rawPost(t, map[string]any{"caption": "newer", "timestamp": 200}),
	}

	posts := Project(snap)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].ID)
	assert.Equal(t, "newer", posts[0].Caption)
	assert.Equal(t, "a", posts[1].ID)
}

func TestProject_TieBreakByKeyDescending(t *testing.T) {
	snap := store.Snapshot{
		"0000000000100-aaaa": rawPost(t, map[string]any{"timestamp": 100}),
		"0000000000100-bbbb": rawPost(t, map[string]any{"timestamp": 100}),
		"0000000000100-cccc": rawPost(t, map[string]any{"timestamp": 100}),
	}

	posts := Project(snap)
	require.Len(t, posts, 3)
	assert.Equal(t, "0000000000100-cccc", posts[0].ID)
	assert.Equal(t, "0000000000100-bbbb", posts[1].ID)
	assert.Equal(t, "0000000000100-aaaa", posts[2].ID)
}

func TestProject_Deterministic(t *testing.T) {
	snap := store.Snapshot{
		"p1": rawPost(t, map[string]any{"timestamp": 300, "caption": "x"}),
		"p2": rawPost(t, map[string]any{"timestamp": 100, "caption": "y"}),
		"p3": rawPost(t, map[string]any{"timestamp": 300, "caption": "z"}),
	}

	first := Project(snap)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Project(snap))
	}
}

func TestProject_LegacyNumericLikes(t *testing.T) {
	snap := store.Snapshot{
		"p1": json.RawMessage(`{"timestamp": 100, "likes": 7}`),
		"p2": json.RawMessage(`{"timestamp": 200, "likes": {"u1": {"userId": "u1", "timestamp": 150}}}`),
	}

	posts := Project(snap)
	require.Len(t, posts, 2)
	assert.Equal(t, 1, posts[0].LikeCount())
	// A legacy scalar count carries no liker identity, so it reads as
	// zero likes rather than a fabricated set.
	assert.Equal(t, 0, posts[1].LikeCount())
}

func TestProject_SkipsUndecodableEntries(t *testing.T) {
	snap := store.Snapshot{
		"good": rawPost(t, map[string]any{"timestamp": 100}),
		"bad":  json.RawMessage(`"just a string"`),
	}

	posts := Project(snap)
	require.Len(t, posts, 1)
	assert.Equal(t, "good", posts[0].ID)
}

func TestProject_EmptySnapshot(t *testing.T) {
	assert.Empty(t, Project(store.Snapshot{}))
	assert.Empty(t, Project(nil))
}

func TestProject_KeyOverridesEmbeddedID(t *testing.T) {
	snap := store.Snapshot{
		"store-key": rawPost(t, map[string]any{"id": "stale-id", "timestamp": 100}),
	}
	posts := Project(snap)
	require.Len(t, posts, 1)
	assert.Equal(t, "store-key", posts[0].ID)
}

func TestProjectComments_NewestFirst(t *testing.T) {
	snap := store.Snapshot{
		"c1": json.RawMessage(`{"userId": "u1", "text": "first", "timestamp": 10}`),
		"c2": json.RawMessage(`{"userId": "u2", "text": "second", "timestamp": 20}`),
	}

	comments := ProjectComments(snap)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "c1", comments[1].ID)
}

func TestProjectLikes_UserIDDefaultsToKey(t *testing.T) {
	snap := store.Snapshot{
		"u1": json.RawMessage(`{"timestamp": 10}`),
		"u2": json.RawMessage(`{"userId": "u2", "timestamp": 20}`),
	}

	likes := ProjectLikes(snap)
	require.Len(t, likes, 2)
	assert.Equal(t, "u2", likes[0].UserID)
	assert.Equal(t, "u1", likes[1].UserID)
}
