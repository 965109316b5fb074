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

const (
	defaultOpportunityPageSize = 20
	defaultCurrency            = "EUR"

	// pipelineFetchLimit caps the board view. A single-user CRM stays well
	// under this; the board is not paginated.
	pipelineFetchLimit = 500
)

type opportunityService struct {
	opportunityRepo repository.OpportunityRepository
	clientRepo      repository.ClientRepository
	eventPublisher  service.EventPublisher
	logger          *slog.Logger
}

// OpportunityServiceParams holds dependencies for OpportunityService, injected by Fx.
type OpportunityServiceParams struct {
	fx.In

	OpportunityRepo repository.OpportunityRepository
	ClientRepo      repository.ClientRepository
	EventPublisher  service.EventPublisher
	Logger          *slog.Logger
}

// NewOpportunityService creates a new opportunity service instance
func NewOpportunityService(params OpportunityServiceParams) usecase.OpportunityUsecase {
	return &opportunityService{
		opportunityRepo: params.OpportunityRepo,
		clientRepo:      params.ClientRepo,
		eventPublisher:  params.EventPublisher,
		logger:          params.Logger,
	}
}

// ListOpportunities returns one page ordered by value descending.
func (s *opportunityService) ListOpportunities(ctx context.Context, userID uuid.UUID, limit, offset int) (*usecase.OpportunityList, error) {
	if limit <= 0 {
		limit = defaultOpportunityPageSize
	}
	if offset < 0 {
		offset = 0
	}

	opportunities, err := s.opportunityRepo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list opportunities")
	}

	total, err := s.opportunityRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count opportunities")
	}

	return &usecase.OpportunityList{Opportunities: opportunities, Total: total}, nil
}

// ListByClient returns all opportunities of one client, newest first.
func (s *opportunityService) ListByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Opportunity, error) {
	opportunities, err := s.opportunityRepo.FindByClient(ctx, clientID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list opportunities by client")
	}

	return opportunities, nil
}

// Pipeline groups the user's opportunities into funnel stages. Stages come
// back in funnel order and are present even when empty, so the board always
// renders every column.
func (s *opportunityService) Pipeline(ctx context.Context, userID uuid.UUID) ([]*usecase.PipelineStage, error) {
	opportunities, err := s.opportunityRepo.FindByUser(ctx, userID, pipelineFetchLimit, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline")
	}

	byStatus := make(map[entity.OpportunityStatus][]*entity.Opportunity, len(entity.OpportunityStatuses))
	for _, opportunity := range opportunities {
		byStatus[opportunity.Status] = append(byStatus[opportunity.Status], opportunity)
	}

	stages := make([]*usecase.PipelineStage, 0, len(entity.OpportunityStatuses))
	for _, status := range entity.OpportunityStatuses {
		stages = append(stages, &usecase.PipelineStage{
			Status:        status,
			Opportunities: byStatus[status],
		})
	}

	return stages, nil
}

// GetOpportunity returns a single opportunity with its client.
func (s *opportunityService) GetOpportunity(ctx context.Context, id, userID uuid.UUID) (*entity.Opportunity, error) {
	opportunity, err := s.opportunityRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOpportunityNotFound) {
			return nil, domainerrors.ErrOpportunityNotFound
		}

		return nil, errors.Wrap(err, "failed to load opportunity")
	}

	return opportunity, nil
}

// CreateOpportunity creates an opportunity on one of the user's clients.
func (s *opportunityService) CreateOpportunity(ctx context.Context, userID uuid.UUID, input usecase.OpportunityInput) (*entity.Opportunity, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	// The client must exist and belong to the user before hanging a deal
	// off it.
	if _, err := s.clientRepo.FindByID(ctx, input.ClientID, userID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, domainerrors.ErrClientNotFound
		}

		return nil, errors.Wrap(err, "failed to verify client ownership")
	}

	opportunity := buildOpportunity(input)
	opportunity.UserID = userID

	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, domainerrors.ErrClientNotFound
		}

		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, service.EventOpportunityCreated, userID, opportunity.ID.String(),
		map[string]any{
			"title":  opportunity.Title,
			"value":  opportunity.Value,
			"status": string(opportunity.Status),
		})

	return opportunity, nil
}

// UpdateOpportunity modifies an opportunity. A pipeline stage change is
// broadcast as a status-changed event.
func (s *opportunityService) UpdateOpportunity(ctx context.Context, id, userID uuid.UUID, input usecase.OpportunityInput) (*entity.Opportunity, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.opportunityRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOpportunityNotFound) {
			return nil, domainerrors.ErrOpportunityNotFound
		}

		return nil, errors.Wrap(err, "failed to load opportunity")
	}

	opportunity := buildOpportunity(input)
	opportunity.ID = id
	opportunity.UserID = userID
	// The owning client never changes on update; moving a deal between
	// clients is a delete-and-recreate.
	opportunity.ClientID = existing.ClientID

	if err := s.opportunityRepo.Update(ctx, opportunity); err != nil {
		if errors.Is(err, repository.ErrOpportunityNotFound) {
			return nil, domainerrors.ErrOpportunityNotFound
		}

		return nil, err
	}

	if existing.Status != opportunity.Status {
		publishEvent(ctx, s.eventPublisher, s.logger, service.EventOpportunityStatusChanged, userID, id.String(),
			map[string]any{
				"from": string(existing.Status),
				"to":   string(opportunity.Status),
			})
	}

	return s.opportunityRepo.FindByID(ctx, id, userID)
}

// DeleteOpportunity removes an opportunity owned by userID.
func (s *opportunityService) DeleteOpportunity(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.opportunityRepo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrOpportunityNotFound) {
			return domainerrors.ErrOpportunityNotFound
		}

		return errors.Wrap(err, "failed to delete opportunity")
	}

	return nil
}

func (s *opportunityService) validateInput(input usecase.OpportunityInput) error {
	if input.Title == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("opportunity title is required")
	}
	if !input.Status.Valid() {
		return domainerrors.ErrInvalidStatus
	}

	return nil
}

func buildOpportunity(input usecase.OpportunityInput) *entity.Opportunity {
	value := input.Value
	if value == "" {
		value = "0"
	}
	currency := input.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return &entity.Opportunity{
		Title:             input.Title,
		Description:       input.Description,
		Value:             value,
		Currency:          currency,
		Status:            input.Status,
		ExpectedCloseDate: input.ExpectedCloseDate,
		ClientID:          input.ClientID,
	}
}
