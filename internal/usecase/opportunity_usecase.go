package usecase

import (
	"context"
	"time"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// OpportunityInput carries the writable fields of an opportunity.
type OpportunityInput struct {
	Title             string
	Description       string
	Value             string // Decimal string, e.g. "1250.00".
	Currency          string // Defaults to EUR when empty.
	Status            entity.OpportunityStatus
	ExpectedCloseDate *time.Time
	ClientID          uuid.UUID
}

// OpportunityList is one page of opportunities plus the total count.
type OpportunityList struct {
	Opportunities []*entity.Opportunity
	Total         int64
}

// PipelineStage is one column of the sales funnel board.
type PipelineStage struct {
	Status        entity.OpportunityStatus
	Opportunities []*entity.Opportunity
}

// OpportunityUsecase defines sales pipeline use cases scoped to the
// requesting user.
type OpportunityUsecase interface {
	// ListOpportunities returns one page ordered by value descending.
	ListOpportunities(ctx context.Context, userID uuid.UUID, limit, offset int) (*OpportunityList, error)

	// ListByClient returns all opportunities of one client, newest first.
	ListByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Opportunity, error)

	// Pipeline groups the user's opportunities by status in funnel order.
	// Every stage is present even when empty.
	Pipeline(ctx context.Context, userID uuid.UUID) ([]*PipelineStage, error)

	// GetOpportunity returns a single opportunity with its client.
	GetOpportunity(ctx context.Context, id, userID uuid.UUID) (*entity.Opportunity, error)

	// CreateOpportunity creates an opportunity on one of the user's clients.
	CreateOpportunity(ctx context.Context, userID uuid.UUID, input OpportunityInput) (*entity.Opportunity, error)

	// UpdateOpportunity modifies an opportunity; a status change is
	// broadcast as a domain event.
	UpdateOpportunity(ctx context.Context, id, userID uuid.UUID, input OpportunityInput) (*entity.Opportunity, error)

	// DeleteOpportunity removes an opportunity owned by userID.
	DeleteOpportunity(ctx context.Context, id, userID uuid.UUID) error
}
