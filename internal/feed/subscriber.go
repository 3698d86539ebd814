package feed

import (
	"context"

	"github.com/socialclone/go-social-backend/internal/feed/domain"
	"github.com/socialclone/go-social-backend/internal/store"
)

// Subscriber owns the live subscriptions this client holds against the
// remote store: one for the posts collection, plus two per open post
// detail view (likes, comments). Every delivery replaces local state
// wholesale; there is no diffing. A delivery with a non-nil Err is
// terminal for that subscription and the caller's retry affordance is
// a full re-subscribe.
type Subscriber struct {
	store store.Store
}

func NewSubscriber(st store.Store) *Subscriber {
	return &Subscriber{store: st}
}

type PostsDelivery struct {
	Posts []domain.Post
	Err   error
}

type PostsSubscription struct {
	C   <-chan PostsDelivery
	sub *store.Subscription
}

func (s *PostsSubscription) Stop() { s.sub.Stop() }

// Posts subscribes to the feed. The first delivery is the current
// projected feed; each later one is the full feed after a remote
// change.
func (s *Subscriber) Posts(ctx context.Context) (*PostsSubscription, error) {
	sub, err := s.store.Watch(ctx, "posts", "timestamp")
	if err != nil {
		return nil, err
	}

	out := make(chan PostsDelivery, 1)
	go func() {
		defer close(out)
		for d := range sub.C {
			if d.Err != nil {
				sendPostsDelivery(out, PostsDelivery{Err: d.Err})
				return
			}
			sendPostsDelivery(out, PostsDelivery{Posts: Project(d.Snapshot)})
		}
	}()

	return &PostsSubscription{C: out, sub: sub}, nil
}

type CommentsDelivery struct {
	Comments []domain.Comment
	Err      error
}

type CommentsSubscription struct {
	C   <-chan CommentsDelivery
	sub *store.Subscription
}

func (s *CommentsSubscription) Stop() { s.sub.Stop() }

// Comments subscribes to one post's comment list.
func (s *Subscriber) Comments(ctx context.Context, postID string) (*CommentsSubscription, error) {
	sub, err := s.store.Watch(ctx, store.CommentsPath(postID), "timestamp")
	if err != nil {
		return nil, err
	}

	out := make(chan CommentsDelivery, 1)
	go func() {
		defer close(out)
		for d := range sub.C {
			if d.Err != nil {
				sendCommentsDelivery(out, CommentsDelivery{Err: d.Err})
				return
			}
			sendCommentsDelivery(out, CommentsDelivery{Comments: ProjectComments(d.Snapshot)})
		}
	}()

	return &CommentsSubscription{C: out, sub: sub}, nil
}

type LikesDelivery struct {
	Likes []domain.Like
	Err   error
}

type LikesSubscription struct {
	C   <-chan LikesDelivery
	sub *store.Subscription
}

func (s *LikesSubscription) Stop() { s.sub.Stop() }

// Likes subscribes to one post's like entries. This runs independently
// of the posts subscription, so a detail view may transiently disagree
// with the feed's like count until both have caught up.
func (s *Subscriber) Likes(ctx context.Context, postID string) (*LikesSubscription, error) {
	sub, err := s.store.Watch(ctx, store.LikesPath(postID), "timestamp")
	if err != nil {
		return nil, err
	}

	out := make(chan LikesDelivery, 1)
	go func() {
		defer close(out)
		for d := range sub.C {
			if d.Err != nil {
				sendLikesDelivery(out, LikesDelivery{Err: d.Err})
				return
			}
			sendLikesDelivery(out, LikesDelivery{Likes: ProjectLikes(d.Snapshot)})
		}
	}()

	return &LikesSubscription{C: out, sub: sub}, nil
}

// Latest-wins sends: a consumer mid-render only ever misses
// intermediate states, never the final one, and the transform
// goroutine can never wedge on a departed consumer.

func sendPostsDelivery(ch chan PostsDelivery, d PostsDelivery) {
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

func sendCommentsDelivery(ch chan CommentsDelivery, d CommentsDelivery) {
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

func sendLikesDelivery(ch chan LikesDelivery, d LikesDelivery) {
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
