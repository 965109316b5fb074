// Package service defines domain service interfaces implemented by the
// infrastructure layer.
package service

import (
	"context"
	"errors"

	"crm/internal/domain/entity"
)

// ErrNoSession is returned by VerifyToken when the provider reports that the
// presented token maps to no authenticated user. Provider outages and
// timeouts are deliberately folded into this error by callers that must
// fail closed.
var ErrNoSession = errors.New("no authenticated session")

// AuthSession is the token bundle issued by the identity provider on login
// or refresh.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // Access token lifetime in seconds.
	User         *entity.AuthUser
}

// AuthEventType identifies a provider-pushed auth state change.
type AuthEventType string

const (
	AuthEventSignedIn       AuthEventType = "SIGNED_IN"
	AuthEventSignedOut      AuthEventType = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
)

// AuthEvent is one auth state change pushed by the identity provider.
type AuthEvent struct {
	Type AuthEventType
	// User is the account the event concerns; nil for SIGNED_OUT.
	User *entity.AuthUser
}

// IdentityProvider is the boundary to the hosted authentication service.
// The application never stores sessions itself; it always asks the provider.
type IdentityProvider interface {
	// VerifyToken performs the authoritative, round-trip verification of an
	// access token and returns the account it belongs to. It returns
	// ErrNoSession for missing, invalid or expired tokens. It never serves
	// answers from a local cache.
	VerifyToken(ctx context.Context, accessToken string) (*entity.AuthUser, error)

	// SignInWithPassword exchanges email/password credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error)

	// RefreshSession exchanges a refresh token for a fresh session.
	RefreshSession(ctx context.Context, refreshToken string) (*AuthSession, error)

	// SignUp registers a new account. Depending on provider settings the
	// returned session may be empty until the email is confirmed.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthSession, error)

	// SignOut revokes the session behind the access token.
	SignOut(ctx context.Context, accessToken string) error

	// UpdatePassword sets a new password for the session's account. Used by
	// the reset flow, where the access token comes from the recovery link.
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error

	// ResetPasswordForEmail triggers the provider's recovery email flow.
	ResetPasswordForEmail(ctx context.Context, email string) error
}

// AuthEventSource exposes the provider's push stream of auth state changes.
// Subscribe returns a receive channel plus an unsubscribe function the
// subscriber must call on teardown so no listener leaks across lifetimes.
type AuthEventSource interface {
	Subscribe() (<-chan AuthEvent, func())
}
