package impl

import (
	"context"
	"testing"

	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newClientService(clientRepo *mockClientRepository, qrService *mockQRCodeService, publisher *mockEventPublisher) usecase.ClientUsecase {
	return NewClientService(ClientServiceParams{
		ClientRepo:     clientRepo,
		QRCodeService:  qrService,
		EventPublisher: publisher,
		Logger:         testLogger(),
	})
}

func TestClientService_ListClients(t *testing.T) {
	clientRepo := new(mockClientRepository)
	clientUsecase := newClientService(clientRepo, new(mockQRCodeService), new(mockEventPublisher))

	ctx := context.Background()
	userID := uuid.New()
	clients := []*entity.Client{
		{ID: uuid.New(), Name: "Acme SL", UserID: userID, OpportunitiesCount: 2},
		{ID: uuid.New(), Name: "Pérez y Asociados", UserID: userID},
	}

	clientRepo.On("FindByUser", ctx, userID, 20, 0).Return(clients, nil)
	clientRepo.On("CountByUser", ctx, userID).Return(int64(42), nil)

	list, err := clientUsecase.ListClients(ctx, userID, 0, -5)
	require.NoError(t, err)
	assert.Len(t, list.Clients, 2)
	assert.Equal(t, int64(42), list.Total)
}

func TestClientService_CreateClient_PublishesEvent(t *testing.T) {
	clientRepo := new(mockClientRepository)
	publisher := new(mockEventPublisher)
	clientUsecase := newClientService(clientRepo, new(mockQRCodeService), publisher)

	ctx := context.Background()
	userID := uuid.New()

	clientRepo.On("Create", ctx, mock.MatchedBy(func(client *entity.Client) bool {
		return client.Name == "Acme SL" && client.UserID == userID
	})).Return(nil)
	publisher.On("PublishDomainEvent", ctx, mock.MatchedBy(func(event *service.DomainEvent) bool {
		return event.Type == service.EventClientCreated && event.UserID == userID.String()
	})).Return(nil)

	client, err := clientUsecase.CreateClient(ctx, userID, usecase.ClientInput{Name: "Acme SL", City: "Madrid"})
	require.NoError(t, err)
	assert.Equal(t, "Acme SL", client.Name)
	publisher.AssertExpectations(t)
}

func TestClientService_CreateClient_RequiresName(t *testing.T) {
	clientUsecase := newClientService(new(mockClientRepository), new(mockQRCodeService), new(mockEventPublisher))

	_, err := clientUsecase.CreateClient(context.Background(), uuid.New(), usecase.ClientInput{})
	require.Error(t, err)
	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrValidationFailed.ErrorCode(), appErr.ErrorCode())
}

func TestClientService_GetClient_NotFoundIncludesForeignRows(t *testing.T) {
	clientRepo := new(mockClientRepository)
	clientUsecase := newClientService(clientRepo, new(mockQRCodeService), new(mockEventPublisher))

	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()

	// The repository answers identically for missing rows and rows owned by
	// someone else.
	clientRepo.On("FindWithDetails", ctx, id, userID).Return(nil, repository.ErrClientNotFound)

	_, err := clientUsecase.GetClient(ctx, id, userID)
	assert.ErrorIs(t, err, domainerrors.ErrClientNotFound)
}

func TestClientService_DeleteClient_PublishesEvent(t *testing.T) {
	clientRepo := new(mockClientRepository)
	publisher := new(mockEventPublisher)
	clientUsecase := newClientService(clientRepo, new(mockQRCodeService), publisher)

	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()

	clientRepo.On("Delete", ctx, id, userID).Return(nil)
	publisher.On("PublishDomainEvent", ctx, mock.MatchedBy(func(event *service.DomainEvent) bool {
		return event.Type == service.EventClientDeleted && event.EntityID == id.String()
	})).Return(nil)

	require.NoError(t, clientUsecase.DeleteClient(ctx, id, userID))
	publisher.AssertExpectations(t)
}

func TestClientService_GenerateClientQR_VerifiesOwnershipFirst(t *testing.T) {
	clientRepo := new(mockClientRepository)
	qrService := new(mockQRCodeService)
	clientUsecase := newClientService(clientRepo, qrService, new(mockEventPublisher))

	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()

	clientRepo.On("FindByID", ctx, id, userID).Return(nil, repository.ErrClientNotFound)

	_, err := clientUsecase.GenerateClientQR(ctx, id, userID)
	assert.ErrorIs(t, err, domainerrors.ErrClientNotFound)
	qrService.AssertNotCalled(t, "GenerateClientQR", mock.Anything)
}

func TestClientService_GenerateClientQR(t *testing.T) {
	clientRepo := new(mockClientRepository)
	qrService := new(mockQRCodeService)
	clientUsecase := newClientService(clientRepo, qrService, new(mockEventPublisher))

	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()

	clientRepo.On("FindByID", ctx, id, userID).Return(&entity.Client{ID: id, UserID: userID}, nil)
	qrService.On("GenerateClientQR", id).Return([]byte{0x89, 0x50, 0x4E, 0x47}, nil)

	qrBytes, err := clientUsecase.GenerateClientQR(ctx, id, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, qrBytes)
}
