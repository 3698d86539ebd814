package domain

import (
	"errors"
	"fmt"
	"time"
)

// User is the cached snapshot of the identity provider's record. It is
// read-only to this system outside explicit profile-update calls and
// is refreshed wholesale on every auth-state change.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is the current signed-in state: the user snapshot plus the
// provider tokens needed to keep it alive.
type Session struct {
	User         User      `json:"user"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ErrUnauthenticated gates every action that requires a signed-in
// user. Consumers treat it as terminal (redirect to the sign-in view),
// never as a retry signal.
var ErrUnauthenticated = errors.New("auth: no signed-in user")

// ErrorKind classifies provider failures into the user-facing
// categories the views render.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindAccountDisabled    ErrorKind = "account_disabled"
	KindRateLimited        ErrorKind = "rate_limited"
	KindEmailExists        ErrorKind = "email_exists"
	KindWeakPassword       ErrorKind = "weak_password"
	KindInvalidEmail       ErrorKind = "invalid_email"
	KindProviderFailure    ErrorKind = "provider_failure"
)

// ProviderError maps a provider-specific code onto one ErrorKind.
type ProviderError struct {
	Kind ErrorKind
	Code string // raw provider code, for logs
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider: %s (%s)", e.Kind, e.Code)
}

// Message is the user-visible line for this failure.
func (e *ProviderError) Message() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "Invalid email or password"
	case KindAccountDisabled:
		return "This account has been disabled"
	case KindRateLimited:
		return "Too many attempts. Please try again later."
	case KindEmailExists:
		return "An account with this email already exists"
	case KindWeakPassword:
		return "Password is too weak (minimum 6 characters)"
	case KindInvalidEmail:
		return "Invalid email address"
	default:
		return "Sign-in failed. Please try again."
	}
}

// AsProviderError unwraps err to a ProviderError if one is in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}
