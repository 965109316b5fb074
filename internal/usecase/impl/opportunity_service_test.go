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

func newOpportunityService(opportunityRepo *mockOpportunityRepository, clientRepo *mockClientRepository, publisher *mockEventPublisher) usecase.OpportunityUsecase {
	return NewOpportunityService(OpportunityServiceParams{
		OpportunityRepo: opportunityRepo,
		ClientRepo:      clientRepo,
		EventPublisher:  publisher,
		Logger:          testLogger(),
	})
}

func TestOpportunityService_CreateOpportunity(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	clientRepo := new(mockClientRepository)
	publisher := new(mockEventPublisher)
	opportunityUsecase := newOpportunityService(opportunityRepo, clientRepo, publisher)

	ctx := context.Background()
	userID, clientID := uuid.New(), uuid.New()

	clientRepo.On("FindByID", ctx, clientID, userID).Return(&entity.Client{ID: clientID, UserID: userID}, nil)
	opportunityRepo.On("Create", ctx, mock.MatchedBy(func(opportunity *entity.Opportunity) bool {
		return opportunity.Title == "Renovación anual" &&
			opportunity.Currency == "EUR" &&
			opportunity.Value == "1250.00" &&
			opportunity.UserID == userID
	})).Return(nil)
	publisher.On("PublishDomainEvent", ctx, mock.MatchedBy(func(event *service.DomainEvent) bool {
		return event.Type == service.EventOpportunityCreated
	})).Return(nil)

	opportunity, err := opportunityUsecase.CreateOpportunity(ctx, userID, usecase.OpportunityInput{
		Title:    "Renovación anual",
		Value:    "1250.00",
		Status:   entity.StatusLead,
		ClientID: clientID,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusLead, opportunity.Status)
	publisher.AssertExpectations(t)
}

func TestOpportunityService_CreateOpportunity_DefaultsValueAndCurrency(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	clientRepo := new(mockClientRepository)
	publisher := new(mockEventPublisher)
	opportunityUsecase := newOpportunityService(opportunityRepo, clientRepo, publisher)

	ctx := context.Background()
	userID, clientID := uuid.New(), uuid.New()

	clientRepo.On("FindByID", ctx, clientID, userID).Return(&entity.Client{ID: clientID}, nil)
	opportunityRepo.On("Create", ctx, mock.MatchedBy(func(opportunity *entity.Opportunity) bool {
		return opportunity.Value == "0" && opportunity.Currency == "EUR"
	})).Return(nil)
	publisher.On("PublishDomainEvent", mock.Anything, mock.Anything).Return(nil)

	_, err := opportunityUsecase.CreateOpportunity(ctx, userID, usecase.OpportunityInput{
		Title:    "Piloto",
		Status:   entity.StatusQualified,
		ClientID: clientID,
	})
	require.NoError(t, err)
}

func TestOpportunityService_CreateOpportunity_RejectsUnknownStatus(t *testing.T) {
	opportunityUsecase := newOpportunityService(new(mockOpportunityRepository), new(mockClientRepository), new(mockEventPublisher))

	_, err := opportunityUsecase.CreateOpportunity(context.Background(), uuid.New(), usecase.OpportunityInput{
		Title:    "Piloto",
		Status:   entity.OpportunityStatus("archived"),
		ClientID: uuid.New(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidStatus)
}

func TestOpportunityService_CreateOpportunity_ForeignClient(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	clientRepo := new(mockClientRepository)
	opportunityUsecase := newOpportunityService(opportunityRepo, clientRepo, new(mockEventPublisher))

	ctx := context.Background()
	userID, clientID := uuid.New(), uuid.New()

	clientRepo.On("FindByID", ctx, clientID, userID).Return(nil, repository.ErrClientNotFound)

	_, err := opportunityUsecase.CreateOpportunity(ctx, userID, usecase.OpportunityInput{
		Title:    "Piloto",
		Status:   entity.StatusLead,
		ClientID: clientID,
	})
	assert.ErrorIs(t, err, domainerrors.ErrClientNotFound)
	opportunityRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOpportunityService_Pipeline_GroupsByStatusInFunnelOrder(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	opportunityUsecase := newOpportunityService(opportunityRepo, new(mockClientRepository), new(mockEventPublisher))

	ctx := context.Background()
	userID := uuid.New()

	opportunityRepo.On("FindByUser", ctx, userID, pipelineFetchLimit, 0).Return([]*entity.Opportunity{
		{ID: uuid.New(), Title: "Renovación anual", Status: entity.StatusClosedWon},
		{ID: uuid.New(), Title: "Ampliación licencias", Status: entity.StatusLead},
		{ID: uuid.New(), Title: "Proyecto piloto", Status: entity.StatusLead},
	}, nil)

	stages, err := opportunityUsecase.Pipeline(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stages, len(entity.OpportunityStatuses))

	assert.Equal(t, entity.StatusLead, stages[0].Status)
	assert.Len(t, stages[0].Opportunities, 2)

	// Empty stages still show up so the board renders every column.
	assert.Equal(t, entity.StatusQualified, stages[1].Status)
	assert.Empty(t, stages[1].Opportunities)

	assert.Equal(t, entity.StatusClosedWon, stages[4].Status)
	assert.Len(t, stages[4].Opportunities, 1)
}

func TestOpportunityService_UpdateOpportunity_StatusChangeEmitsEvent(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	publisher := new(mockEventPublisher)
	opportunityUsecase := newOpportunityService(opportunityRepo, new(mockClientRepository), publisher)

	ctx := context.Background()
	id, userID, clientID := uuid.New(), uuid.New(), uuid.New()

	existing := &entity.Opportunity{
		ID: id, Title: "Renovación anual", Status: entity.StatusProposal,
		ClientID: clientID, UserID: userID, Value: "1250.00", Currency: "EUR",
	}
	updated := &entity.Opportunity{
		ID: id, Title: "Renovación anual", Status: entity.StatusClosedWon,
		ClientID: clientID, UserID: userID, Value: "1250.00", Currency: "EUR",
	}

	opportunityRepo.On("FindByID", ctx, id, userID).Return(existing, nil).Once()
	opportunityRepo.On("Update", ctx, mock.MatchedBy(func(opportunity *entity.Opportunity) bool {
		return opportunity.Status == entity.StatusClosedWon && opportunity.ClientID == clientID
	})).Return(nil)
	publisher.On("PublishDomainEvent", ctx, mock.MatchedBy(func(event *service.DomainEvent) bool {
		return event.Type == service.EventOpportunityStatusChanged &&
			event.Payload["from"] == string(entity.StatusProposal) &&
			event.Payload["to"] == string(entity.StatusClosedWon)
	})).Return(nil)
	opportunityRepo.On("FindByID", ctx, id, userID).Return(updated, nil).Once()

	result, err := opportunityUsecase.UpdateOpportunity(ctx, id, userID, usecase.OpportunityInput{
		Title:  "Renovación anual",
		Value:  "1250.00",
		Status: entity.StatusClosedWon,
		// A different ClientID in the input is ignored on update.
		ClientID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusClosedWon, result.Status)
	publisher.AssertExpectations(t)
}

func TestOpportunityService_UpdateOpportunity_SameStatusNoEvent(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	publisher := new(mockEventPublisher)
	opportunityUsecase := newOpportunityService(opportunityRepo, new(mockClientRepository), publisher)

	ctx := context.Background()
	id, userID, clientID := uuid.New(), uuid.New(), uuid.New()

	existing := &entity.Opportunity{ID: id, Title: "Piloto", Status: entity.StatusLead, ClientID: clientID, UserID: userID}

	opportunityRepo.On("FindByID", ctx, id, userID).Return(existing, nil)
	opportunityRepo.On("Update", ctx, mock.Anything).Return(nil)

	_, err := opportunityUsecase.UpdateOpportunity(ctx, id, userID, usecase.OpportunityInput{
		Title:    "Piloto renombrado",
		Status:   entity.StatusLead,
		ClientID: clientID,
	})
	require.NoError(t, err)
	publisher.AssertNotCalled(t, "PublishDomainEvent", mock.Anything, mock.Anything)
}

func TestOpportunityService_DeleteOpportunity_NotFound(t *testing.T) {
	opportunityRepo := new(mockOpportunityRepository)
	opportunityUsecase := newOpportunityService(opportunityRepo, new(mockClientRepository), new(mockEventPublisher))

	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()

	opportunityRepo.On("Delete", ctx, id, userID).Return(repository.ErrOpportunityNotFound)

	err := opportunityUsecase.DeleteOpportunity(ctx, id, userID)
	assert.ErrorIs(t, err, domainerrors.ErrOpportunityNotFound)
}
