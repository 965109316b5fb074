// Package impl contains the use case implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"
	"crm/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type authService struct {
	provider  service.IdentityProvider
	txManager repository.TransactionManager
	logger    *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Provider  service.IdentityProvider
	TxManager repository.TransactionManager
	Logger    *slog.Logger
}

// NewAuthService creates a new auth service instance
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		provider:  params.Provider,
		txManager: params.TxManager,
		logger:    params.Logger,
	}
}

// Login exchanges credentials for a session and mirrors the provider account
// into the local users table.
func (s *authService) Login(ctx context.Context, email, password string) (*service.AuthSession, error) {
	authSession, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if authSession.User != nil {
		if err := s.syncProfile(ctx, authSession.User); err != nil {
			// The session is valid; a failed mirror sync must not lock the
			// user out. The next login retries it.
			s.logger.Warn("Profile sync after login failed",
				slog.String("user_id", authSession.User.ID.String()),
				slog.Any("error", err))
		}
	}

	return authSession, nil
}

// Register creates a new provider account.
func (s *authService) Register(ctx context.Context, input usecase.RegisterInput) (*service.AuthSession, error) {
	metadata := map[string]any{}
	if input.Name != "" {
		metadata["name"] = input.Name
	}

	authSession, err := s.provider.SignUp(ctx, input.Email, input.Password, metadata)
	if err != nil {
		return nil, err
	}

	// With email confirmation disabled the provider signs the account in
	// immediately; mirror it like a login.
	if authSession.AccessToken != "" && authSession.User != nil {
		if err := s.syncProfile(ctx, authSession.User); err != nil {
			s.logger.Warn("Profile sync after registration failed",
				slog.String("user_id", authSession.User.ID.String()),
				slog.Any("error", err))
		}
	}

	return authSession, nil
}

// RefreshSession exchanges a refresh token for a fresh session.
func (s *authService) RefreshSession(ctx context.Context, refreshToken string) (*service.AuthSession, error) {
	if refreshToken == "" {
		return nil, domainerrors.ErrSessionExpired
	}

	authSession, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return authSession, nil
}

// Logout revokes the session remotely. The error is swallowed on purpose:
// local sign-out must always complete, a dead provider cannot trap the user
// in an authenticated view.
func (s *authService) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}

	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("Remote sign-out failed, continuing with local logout",
			slog.Any("error", err))
	}
}

// RequestPasswordReset triggers the provider's recovery email.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.provider.ResetPasswordForEmail(ctx, email)
}

// ResetPassword sets a new password using the recovery link's access token.
func (s *authService) ResetPassword(ctx context.Context, accessToken, newPassword string) error {
	if accessToken == "" {
		return domainerrors.ErrSessionExpired
	}

	return s.provider.UpdatePassword(ctx, accessToken, newPassword)
}

// syncProfile upserts the local profile row from the provider account.
func (s *authService) syncProfile(ctx context.Context, authUser *entity.AuthUser) error {
	profile := &entity.User{
		ID:        authUser.ID,
		Email:     authUser.Email,
		Name:      authUser.DisplayName(),
		UpdatedAt: time.Now(),
	}
	if avatar, ok := authUser.Metadata["avatar_url"].(string); ok {
		profile.AvatarURL = avatar
	}

	err := s.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.UserRepo().Upsert(ctx, profile)
	})
	if err != nil {
		return errors.Wrap(err, "failed to upsert profile")
	}

	return nil
}
