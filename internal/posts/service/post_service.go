// Package service dispatches user mutations against the remote store.
// Every operation is fire-and-forget from the view's perspective:
// success becomes visible through the next live-subscription delivery,
// never through a locally applied update.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	authdomain "github.com/socialclone/go-social-backend/internal/auth/domain"
	"github.com/socialclone/go-social-backend/internal/auth/session"
	"github.com/socialclone/go-social-backend/internal/platform/logging"
	"github.com/socialclone/go-social-backend/internal/posts/domain"
	"github.com/socialclone/go-social-backend/internal/store"
)

type PostService struct {
	sessions *session.Tracker
	store    store.Store
	now      func() time.Time
}

func NewPostService(sessions *session.Tracker, st store.Store) *PostService {
	return &PostService{sessions: sessions, store: st, now: time.Now}
}

// CreatePost appends a new post with a store-assigned identifier.
// Author display name and avatar are denormalized here and never kept
// in sync with later profile edits.
func (s *PostService) CreatePost(ctx context.Context, caption, imageURL string) (string, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return "", authdomain.ErrUnauthenticated
	}
	if strings.TrimSpace(imageURL) == "" {
		return "", domain.ErrMissingImage
	}

	post := map[string]any{
		"userId":          sess.User.UID,
		"userDisplayName": displayNameOrDefault(sess.User.DisplayName),
		"userPhotoURL":    sess.User.PhotoURL,
		"imageUrl":        imageURL,
		"caption":         caption,
		"timestamp":       s.now().UnixMilli(),
		"comments":        map[string]any{},
	}

	id, err := s.store.Push(ctx, "posts", post)
	if err != nil {
		logging.NewLogger(ctx).LogError("create_post", err)
		return "", err
	}
	return id, nil
}

// ToggleLike writes a like entry under the user's key if absent and
// deletes it if present. Read-then-write: concurrent toggles by the
// same user from multiple sessions race with last-write-wins, which is
// accepted under the single-session assumption.
func (s *PostService) ToggleLike(ctx context.Context, postID string) (liked bool, err error) {
	sess := s.sessions.Current()
	if sess == nil {
		return false, authdomain.ErrUnauthenticated
	}

	path := store.LikePath(postID, sess.User.UID)

	_, err = s.store.Get(ctx, path)
	switch {
	case errors.Is(err, store.ErrNotFound):
		entry := map[string]any{
			"userId":    sess.User.UID,
			"timestamp": s.now().UnixMilli(),
		}
		if err := s.store.Put(ctx, path, entry); err != nil {
			logging.NewLogger(ctx).LogError("toggle_like", err)
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	default:
		if err := s.store.Delete(ctx, path); err != nil {
			logging.NewLogger(ctx).LogError("toggle_like", err)
			return false, err
		}
		return false, nil
	}
}

// AddComment appends a keyed entry to the post's comment mapping.
// Comments are append-only; no edit or delete exists.
func (s *PostService) AddComment(ctx context.Context, postID, text string) (string, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return "", authdomain.ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyComment
	}

	comment := map[string]any{
		"userId":          sess.User.UID,
		"userDisplayName": displayNameOrDefault(sess.User.DisplayName),
		"userPhotoURL":    sess.User.PhotoURL,
		"text":            text,
		"timestamp":       s.now().UnixMilli(),
	}

	id, err := s.store.Push(ctx, store.CommentsPath(postID), comment)
	if err != nil {
		logging.NewLogger(ctx).LogError("add_comment", err)
		return "", err
	}
	return id, nil
}

func displayNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Anonymous"
	}
	return name
}
