package domain

import "encoding/json"

// Post is the client-side view of one feed entry. Author fields are
// denormalized at creation time and intentionally go stale when the
// author later edits their profile.
type Post struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	UserDisplayName string      `json:"userDisplayName"`
	UserPhotoURL    string      `json:"userPhotoURL"`
	ImageURL        string      `json:"imageUrl"`
	Caption         string      `json:"caption"`
	Timestamp       int64       `json:"timestamp"` // unix milliseconds
	Likes           LikeMap     `json:"likes"`
	Comments        RawComments `json:"comments"`
}

// LikeCount is the number of keys in the likes map, never a stored
// counter.
func (p Post) LikeCount() int { return len(p.Likes) }

// Like is one like entry, keyed by the liker's user ID under the post.
type Like struct {
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

// LikeMap tolerates the legacy wire shape where likes arrived as a raw
// count instead of a map. Any non-mapping value decodes to an empty
// map, keeping "count = number of keys" true for all consumers. This
// is the single normalization point; consumers never type-check.
type LikeMap map[string]Like

func (m *LikeMap) UnmarshalJSON(data []byte) error {
	var entries map[string]Like
	if err := json.Unmarshal(data, &entries); err != nil {
		*m = LikeMap{}
		return nil
	}
	if entries == nil {
		entries = map[string]Like{}
	}
	*m = entries
	return nil
}

// RawComments carries the comments subtree undecoded for lazy
// rendering; the detail view projects it on demand. Like LikeMap it
// swallows malformed legacy shapes.
type RawComments map[string]json.RawMessage

func (m *RawComments) UnmarshalJSON(data []byte) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		*m = RawComments{}
		return nil
	}
	if entries == nil {
		entries = map[string]json.RawMessage{}
	}
	*m = entries
	return nil
}

// Comment is append-only: no edit or delete operation exists.
type Comment struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	UserDisplayName string `json:"userDisplayName"`
	UserPhotoURL    string `json:"userPhotoURL"`
	Text            string `json:"text"`
	Timestamp       int64  `json:"timestamp"`
}
