// Package feed folds raw store snapshots into stable, sorted view
// lists and manages the live subscriptions feeding them.
package feed

import (
	"encoding/json"
	"sort"

	"github.com/socialclone/go-social-backend/internal/feed/domain"
	"github.com/socialclone/go-social-backend/internal/store"
)

// Project folds a full posts snapshot into the feed view list: newest
// first by creation timestamp, ties broken by key descending (push
// keys grow with creation time, so key order agrees with recency).
// Pure and idempotent: the same snapshot always yields a list-equal
// result. Entries that fail to decode are dropped rather than failing
// the whole projection.
func Project(snap store.Snapshot) []domain.Post {
	posts := make([]domain.Post, 0, len(snap))
	for key, raw := range snap {
		var p domain.Post
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		p.ID = key // the store key is authoritative over any embedded id
		if p.Likes == nil {
			p.Likes = domain.LikeMap{}
		}
		if p.Comments == nil {
			p.Comments = domain.RawComments{}
		}
		posts = append(posts, p)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Timestamp != posts[j].Timestamp {
			return posts[i].Timestamp > posts[j].Timestamp
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

// ProjectComments folds a comments snapshot for one post, newest
// first, with the same tie-break as Project.
func ProjectComments(snap store.Snapshot) []domain.Comment {
	comments := make([]domain.Comment, 0, len(snap))
	for key, raw := range snap {
		var c domain.Comment
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		c.ID = key
		comments = append(comments, c)
	}

	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Timestamp != comments[j].Timestamp {
			return comments[i].Timestamp > comments[j].Timestamp
		}
		return comments[i].ID > comments[j].ID
	})
	return comments
}

// ProjectLikes folds a likes snapshot into the liker set for a post
// detail view.
func ProjectLikes(snap store.Snapshot) []domain.Like {
	likes := make([]domain.Like, 0, len(snap))
	for key, raw := range snap {
		var l domain.Like
		if err := json.Unmarshal(raw, &l); err != nil {
			continue
		}
		if l.UserID == "" {
			l.UserID = key
		}
		likes = append(likes, l)
	}

	sort.Slice(likes, func(i, j int) bool {
		if likes[i].Timestamp != likes[j].Timestamp {
			return likes[i].Timestamp > likes[j].Timestamp
		}
		return likes[i].UserID > likes[j].UserID
	})
	return likes
}
