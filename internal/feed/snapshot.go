package feed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/socialclone/go-social-backend/internal/feed/domain"
	"github.com/socialclone/go-social-backend/internal/store"
)

// CurrentPosts reads and projects the feed once, without holding a
// subscription open.
func (s *Subscriber) CurrentPosts(ctx context.Context) ([]domain.Post, error) {
	snap, err := s.currentSnapshot(ctx, "posts")
	if err != nil {
		return nil, err
	}
	return Project(snap), nil
}

// CurrentComments reads and projects one post's comments once.
func (s *Subscriber) CurrentComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	snap, err := s.currentSnapshot(ctx, store.CommentsPath(postID))
	if err != nil {
		return nil, err
	}
	return ProjectComments(snap), nil
}

func (s *Subscriber) currentSnapshot(ctx context.Context, path string) (store.Snapshot, error) {
	raw, err := s.store.Get(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return store.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Legacy scalar at a collection path: expose as empty.
		return store.Snapshot{}, nil
	}
	return snap, nil
}
