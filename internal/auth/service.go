// Package auth implements the identity boundary: sign-up, sign-in,
// sign-out, session restoration and profile updates, all funneled
// through the process-wide session tracker.
package auth

import (
	"context"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/socialclone/go-social-backend/internal/auth/domain"
	"github.com/socialclone/go-social-backend/internal/auth/session"
	"github.com/socialclone/go-social-backend/internal/platform/logging"
)

// Service drives the auth lifecycle. The tracker is its only output:
// every successful call ends by replacing the current session
// snapshot, and consumers observe identity exclusively through it.
type Service struct {
	tracker  *session.Tracker
	identity *IdentityClient
	verifier *fbauth.Client // optional; verifies restored tokens
}

func NewService(tracker *session.Tracker, identity *IdentityClient, verifier *fbauth.Client) *Service {
	return &Service{tracker: tracker, identity: identity, verifier: verifier}
}

func (s *Service) Tracker() *session.Tracker { return s.tracker }

// SignUp registers a new account, sets its display name and signs the
// session in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*domain.Session, error) {
	result, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName != "" {
		if _, err := s.identity.UpdateProfile(ctx, result.IDToken, displayName, ""); err != nil {
			// The account exists; a failed name write should not
			// strand the user outside it.
			logging.NewLogger(ctx).LogError("sign_up_set_name", err)
		} else {
			result.DisplayName = displayName
		}
	}

	sess := sessionFromToken(result)
	s.tracker.Set(sess)
	return sess, nil
}

// SignIn verifies credentials and replaces the current session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	result, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := sessionFromToken(result)
	// The grant omits createdAt; fill the snapshot from a lookup but
	// do not fail sign-in over it.
	if user, err := s.identity.Lookup(ctx, result.IDToken); err == nil {
		sess.User = *user
	}
	s.tracker.Set(sess)
	return sess, nil
}

// SignOut clears the session. The provider keeps no server-side state
// for password sessions, so this is purely local.
func (s *Service) SignOut(ctx context.Context) {
	s.tracker.Set(nil)
}

// Restore rebuilds a session from a persisted refresh token, e.g.
// after process restart. The refreshed ID token is verified against
// the Admin SDK when a verifier is configured.
func (s *Service) Restore(ctx context.Context, refreshToken string) (*domain.Session, error) {
	result, err := s.identity.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if s.verifier != nil {
		if _, err := s.verifier.VerifyIDToken(ctx, result.IDToken); err != nil {
			return nil, &domain.ProviderError{Kind: domain.KindInvalidCredentials, Code: "INVALID_ID_TOKEN"}
		}
	}

	user, err := s.identity.Lookup(ctx, result.IDToken)
	if err != nil {
		return nil, err
	}

	sess := sessionFromToken(result)
	sess.User = *user
	s.tracker.Set(sess)
	return sess, nil
}

// RefreshSession renews the current session's tokens in place. Called
// by the refresh scheduler; a provider rejection signs the session
// out, a transport failure leaves it for the next tick.
func (s *Service) RefreshSession(ctx context.Context) error {
	current := s.tracker.Current()
	if current == nil {
		return nil
	}

	result, err := s.identity.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if _, isProvider := domain.AsProviderError(err); isProvider {
			s.tracker.Set(nil)
		}
		return err
	}

	renewed := *current
	renewed.IDToken = result.IDToken
	renewed.RefreshToken = result.RefreshToken
	renewed.ExpiresAt = result.ExpiresAt
	s.tracker.Set(&renewed)
	return nil
}

// UpdateProfilePhoto updates the stored avatar URL for the current
// user. Denormalized copies on past posts and comments are left
// stale on purpose.
func (s *Service) UpdateProfilePhoto(ctx context.Context, photoURL string) (*domain.User, error) {
	current := s.tracker.Current()
	if current == nil {
		return nil, domain.ErrUnauthenticated
	}

	if _, err := s.identity.UpdateProfile(ctx, current.IDToken, "", photoURL); err != nil {
		return nil, err
	}

	renewed := *current
	renewed.User.PhotoURL = photoURL
	s.tracker.Set(&renewed)
	return &renewed.User, nil
}

func sessionFromToken(result *TokenResult) *domain.Session {
	return &domain.Session{
		User: domain.User{
			UID:         result.UID,
			Email:       result.Email,
			DisplayName: result.DisplayName,
			PhotoURL:    result.PhotoURL,
		},
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	}
}
