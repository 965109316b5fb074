package impl

import (
	"context"
	"testing"

	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/service"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthService(provider *mockIdentityProvider, userRepo *mockUserRepository) usecase.AuthUsecase {
	return NewAuthService(AuthServiceParams{
		Provider:  provider,
		TxManager: &stubTransactionManager{factory: &stubRepositoryFactory{userRepo: userRepo}},
		Logger:    testLogger(),
	})
}

func TestAuthService_Login_SyncsProfile(t *testing.T) {
	provider := new(mockIdentityProvider)
	userRepo := new(mockUserRepository)
	authUsecase := newAuthService(provider, userRepo)

	ctx := context.Background()
	userID := uuid.New()
	authUser := &entity.AuthUser{
		ID:    userID,
		Email: "ana@example.com",
		Metadata: map[string]any{
			"name":       "Ana García",
			"avatar_url": "https://cdn.example.com/ana.png",
		},
	}

	provider.On("SignInWithPassword", ctx, "ana@example.com", "secret").
		Return(&service.AuthSession{AccessToken: "at-1", RefreshToken: "rt-1", User: authUser}, nil)
	userRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(user *entity.User) bool {
		return user.ID == userID && user.Email == "ana@example.com" &&
			user.Name == "Ana García" && user.AvatarURL == "https://cdn.example.com/ana.png"
	})).Return(nil)

	authSession, err := authUsecase.Login(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at-1", authSession.AccessToken)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_ProfileSyncFailureDoesNotBlockLogin(t *testing.T) {
	provider := new(mockIdentityProvider)
	userRepo := new(mockUserRepository)
	authUsecase := newAuthService(provider, userRepo)

	ctx := context.Background()
	authUser := &entity.AuthUser{ID: uuid.New(), Email: "ana@example.com"}

	provider.On("SignInWithPassword", ctx, "ana@example.com", "secret").
		Return(&service.AuthSession{AccessToken: "at-1", User: authUser}, nil)
	userRepo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	authSession, err := authUsecase.Login(ctx, "ana@example.com", "secret")
	require.NoError(t, err, "a broken mirror table must not block login")
	assert.Equal(t, "at-1", authSession.AccessToken)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	provider := new(mockIdentityProvider)
	authUsecase := newAuthService(provider, new(mockUserRepository))

	ctx := context.Background()
	provider.On("SignInWithPassword", ctx, "ana@example.com", "wrong").
		Return(nil, domainerrors.ErrInvalidCredentials)

	_, err := authUsecase.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Register_PendingConfirmationSkipsSync(t *testing.T) {
	provider := new(mockIdentityProvider)
	userRepo := new(mockUserRepository)
	authUsecase := newAuthService(provider, userRepo)

	ctx := context.Background()
	authUser := &entity.AuthUser{ID: uuid.New(), Email: "ana@example.com"}

	// No access token: the provider wants the email confirmed first.
	provider.On("SignUp", ctx, "ana@example.com", "secret", map[string]any{"name": "Ana"}).
		Return(&service.AuthSession{User: authUser}, nil)

	authSession, err := authUsecase.Register(ctx, usecase.RegisterInput{
		Email:    "ana@example.com",
		Password: "secret",
		Name:     "Ana",
	})
	require.NoError(t, err)
	assert.Empty(t, authSession.AccessToken)
	userRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAuthService_Logout_SwallowsRemoteFailure(t *testing.T) {
	provider := new(mockIdentityProvider)
	authUsecase := newAuthService(provider, new(mockUserRepository))

	ctx := context.Background()
	provider.On("SignOut", ctx, "at-1").Return(errors.New("provider down"))

	authUsecase.Logout(ctx, "at-1")
	provider.AssertExpectations(t)

	// Without a token there is nothing to revoke.
	authUsecase.Logout(ctx, "")
	provider.AssertNumberOfCalls(t, "SignOut", 1)
}

func TestAuthService_RefreshSession_EmptyTokenExpired(t *testing.T) {
	authUsecase := newAuthService(new(mockIdentityProvider), new(mockUserRepository))

	_, err := authUsecase.RefreshSession(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrSessionExpired)
}

func TestAuthService_ResetPassword(t *testing.T) {
	provider := new(mockIdentityProvider)
	authUsecase := newAuthService(provider, new(mockUserRepository))

	ctx := context.Background()
	provider.On("UpdatePassword", ctx, "recovery-token", "new-secret").Return(nil)

	require.NoError(t, authUsecase.ResetPassword(ctx, "recovery-token", "new-secret"))

	err := authUsecase.ResetPassword(ctx, "", "new-secret")
	assert.ErrorIs(t, err, domainerrors.ErrSessionExpired)
}
