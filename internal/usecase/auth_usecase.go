// Package usecase defines the application's use case interfaces and their
// input/output types. Implementations live in the impl subpackage.
package usecase

import (
	"context"

	"crm/internal/domain/service"
)

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthUsecase defines authentication and account lifecycle use cases on top
// of the hosted identity provider.
type AuthUsecase interface {
	// Login exchanges credentials for a session and syncs the local profile
	// row with the provider's account data.
	Login(ctx context.Context, email, password string) (*service.AuthSession, error)

	// Register creates a new account. The returned session has no tokens
	// when the provider requires email confirmation first.
	Register(ctx context.Context, input RegisterInput) (*service.AuthSession, error)

	// RefreshSession exchanges a refresh token for a fresh session.
	RefreshSession(ctx context.Context, refreshToken string) (*service.AuthSession, error)

	// Logout revokes the session remotely. A remote failure is not returned:
	// the caller always proceeds with clearing local state.
	Logout(ctx context.Context, accessToken string)

	// RequestPasswordReset triggers the provider's recovery email.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword sets a new password using the access token minted by the
	// recovery link.
	ResetPassword(ctx context.Context, accessToken, newPassword string) error
}
