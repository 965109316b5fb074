package impl

import (
	"context"
	"log/slog"

	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultClientPageSize = 20

type clientService struct {
	clientRepo     repository.ClientRepository
	qrcodeService  service.QRCodeService
	eventPublisher service.EventPublisher
	logger         *slog.Logger
}

// ClientServiceParams holds dependencies for ClientService, injected by Fx.
type ClientServiceParams struct {
	fx.In

	ClientRepo     repository.ClientRepository
	QRCodeService  service.QRCodeService
	EventPublisher service.EventPublisher
	Logger         *slog.Logger
}

// NewClientService creates a new client service instance
func NewClientService(params ClientServiceParams) usecase.ClientUsecase {
	return &clientService{
		clientRepo:     params.ClientRepo,
		qrcodeService:  params.QRCodeService,
		eventPublisher: params.EventPublisher,
		logger:         params.Logger,
	}
}

// ListClients returns one page of the user's clients, newest first.
func (s *clientService) ListClients(ctx context.Context, userID uuid.UUID, limit, offset int) (*usecase.ClientList, error) {
	if limit <= 0 {
		limit = defaultClientPageSize
	}
	if offset < 0 {
		offset = 0
	}

	clients, err := s.clientRepo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}

	total, err := s.clientRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count clients")
	}

	return &usecase.ClientList{Clients: clients, Total: total}, nil
}

// GetClient returns a client with its recent opportunities and activities.
func (s *clientService) GetClient(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.FindWithDetails(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, domainerrors.ErrClientNotFound
		}

		return nil, errors.Wrap(err, "failed to load client details")
	}

	return client, nil
}

// CreateClient creates a client owned by userID.
func (s *clientService) CreateClient(ctx context.Context, userID uuid.UUID, input usecase.ClientInput) (*entity.Client, error) {
	if input.Name == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("client name is required")
	}

	client := &entity.Client{
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Company:    input.Company,
		Address:    input.Address,
		City:       input.City,
		Country:    input.Country,
		PostalCode: input.PostalCode,
		UserID:     userID,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, service.EventClientCreated, userID, client.ID.String(),
		map[string]any{"name": client.Name})

	return client, nil
}

// UpdateClient modifies a client owned by userID.
func (s *clientService) UpdateClient(ctx context.Context, id, userID uuid.UUID, input usecase.ClientInput) (*entity.Client, error) {
	if input.Name == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("client name is required")
	}

	client := &entity.Client{
		ID:         id,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Company:    input.Company,
		Address:    input.Address,
		City:       input.City,
		Country:    input.Country,
		PostalCode: input.PostalCode,
		UserID:     userID,
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, domainerrors.ErrClientNotFound
		}

		return nil, err
	}

	return s.clientRepo.FindByID(ctx, id, userID)
}

// DeleteClient removes a client owned by userID.
func (s *clientService) DeleteClient(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return domainerrors.ErrClientNotFound
		}

		return errors.Wrap(err, "failed to delete client")
	}

	publishEvent(ctx, s.eventPublisher, s.logger, service.EventClientDeleted, userID, id.String(), nil)

	return nil
}

// GenerateClientQR returns a PNG QR code linking to the client's page. The
// ownership check runs first so QR codes cannot probe other users' IDs.
func (s *clientService) GenerateClientQR(ctx context.Context, id, userID uuid.UUID) ([]byte, error) {
	if _, err := s.clientRepo.FindByID(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, domainerrors.ErrClientNotFound
		}

		return nil, errors.Wrap(err, "failed to verify client ownership")
	}

	qrBytes, err := s.qrcodeService.GenerateClientQR(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate client QR")
	}

	return qrBytes, nil
}
