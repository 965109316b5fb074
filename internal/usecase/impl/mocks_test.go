package impl

import (
	"context"
	"io"
	"log/slog"

	"crm/internal/domain/entity"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- repository mocks ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error) {
	args := m.Called(ctx, id, userID)
	if client, ok := args.Get(0).(*entity.Client); ok {
		return client, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockClientRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Client, error) {
	args := m.Called(ctx, userID, limit, offset)
	if clients, ok := args.Get(0).([]*entity.Client); ok {
		return clients, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockClientRepository) FindWithDetails(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error) {
	args := m.Called(ctx, id, userID)
	if client, ok := args.Get(0).(*entity.Client); ok {
		return client, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockClientRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockClientRepository) Create(ctx context.Context, client *entity.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepository) Update(ctx context.Context, client *entity.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockOpportunityRepository struct {
	mock.Mock
}

func (m *mockOpportunityRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Opportunity, error) {
	args := m.Called(ctx, id, userID)
	if opportunity, ok := args.Get(0).(*entity.Opportunity); ok {
		return opportunity, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockOpportunityRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Opportunity, error) {
	args := m.Called(ctx, userID, limit, offset)
	if opportunities, ok := args.Get(0).([]*entity.Opportunity); ok {
		return opportunities, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockOpportunityRepository) FindByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Opportunity, error) {
	args := m.Called(ctx, clientID, userID)
	if opportunities, ok := args.Get(0).([]*entity.Opportunity); ok {
		return opportunities, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockOpportunityRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOpportunityRepository) SumClosedWonValue(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)

	return args.String(0), args.Error(1)
}

func (m *mockOpportunityRepository) Create(ctx context.Context, opportunity *entity.Opportunity) error {
	return m.Called(ctx, opportunity).Error(0)
}

func (m *mockOpportunityRepository) Update(ctx context.Context, opportunity *entity.Opportunity) error {
	return m.Called(ctx, opportunity).Error(0)
}

func (m *mockOpportunityRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockActivityRepository struct {
	mock.Mock
}

func (m *mockActivityRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error) {
	args := m.Called(ctx, id, userID)
	if activity, ok := args.Get(0).(*entity.Activity); ok {
		return activity, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockActivityRepository) FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error) {
	args := m.Called(ctx, userID, limit)
	if activities, ok := args.Get(0).([]*entity.Activity); ok {
		return activities, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockActivityRepository) FindByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Activity, error) {
	args := m.Called(ctx, clientID, userID)
	if activities, ok := args.Get(0).([]*entity.Activity); ok {
		return activities, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockActivityRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockActivityRepository) Create(ctx context.Context, activity *entity.Activity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *mockActivityRepository) Update(ctx context.Context, activity *entity.Activity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *mockActivityRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

// --- service mocks ---

type mockQRCodeService struct {
	mock.Mock
}

func (m *mockQRCodeService) GenerateClientQR(clientID uuid.UUID) ([]byte, error) {
	args := m.Called(clientID)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}

	return nil, args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishDomainEvent(ctx context.Context, event *service.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type mockIdentityProvider struct {
	mock.Mock
}

func (m *mockIdentityProvider) VerifyToken(ctx context.Context, accessToken string) (*entity.AuthUser, error) {
	args := m.Called(ctx, accessToken)
	if user, ok := args.Get(0).(*entity.AuthUser); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*service.AuthSession, error) {
	args := m.Called(ctx, email, password)
	if authSession, ok := args.Get(0).(*service.AuthSession); ok {
		return authSession, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockIdentityProvider) RefreshSession(ctx context.Context, refreshToken string) (*service.AuthSession, error) {
	args := m.Called(ctx, refreshToken)
	if authSession, ok := args.Get(0).(*service.AuthSession); ok {
		return authSession, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockIdentityProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*service.AuthSession, error) {
	args := m.Called(ctx, email, password, metadata)
	if authSession, ok := args.Get(0).(*service.AuthSession); ok {
		return authSession, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *mockIdentityProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return m.Called(ctx, accessToken, newPassword).Error(0)
}

func (m *mockIdentityProvider) ResetPasswordForEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// --- transaction mocks ---

// stubRepositoryFactory hands the mock repositories to transactional
// callbacks.
type stubRepositoryFactory struct {
	userRepo        repository.UserRepository
	clientRepo      repository.ClientRepository
	opportunityRepo repository.OpportunityRepository
	activityRepo    repository.ActivityRepository
}

func (f *stubRepositoryFactory) UserRepo() repository.UserRepository { return f.userRepo }

func (f *stubRepositoryFactory) ClientRepo() repository.ClientRepository { return f.clientRepo }

func (f *stubRepositoryFactory) OpportunityRepo() repository.OpportunityRepository {
	return f.opportunityRepo
}

func (f *stubRepositoryFactory) ActivityRepo() repository.ActivityRepository { return f.activityRepo }

// stubTransactionManager runs the callback directly against the stub factory,
// with no real transaction semantics.
type stubTransactionManager struct {
	factory *stubRepositoryFactory
	err     error
}

func (tm *stubTransactionManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	if tm.err != nil {
		return tm.err
	}

	return fn(tm.factory)
}
