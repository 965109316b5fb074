package repository

import (
	"context"
	"errors"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOpportunityNotFound is returned when an opportunity does not exist or
// does not belong to the requesting user.
var ErrOpportunityNotFound = errors.New("opportunity not found")

// OpportunityRepository defines persistence operations for the sales pipeline.
type OpportunityRepository interface {
	// FindByID retrieves a single opportunity owned by userID, with its client.
	FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Opportunity, error)

	// FindByUser lists opportunities for a user ordered by value descending.
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Opportunity, error)

	// FindByClient lists opportunities for one client, newest first.
	FindByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Opportunity, error)

	// CountByUser returns the number of opportunities a user owns.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// SumClosedWonValue returns the total value of closed-won deals as a
	// decimal string, "0" when there are none.
	SumClosedWonValue(ctx context.Context, userID uuid.UUID) (string, error)

	// Create persists a new opportunity.
	Create(ctx context.Context, opportunity *entity.Opportunity) error

	// Update modifies an existing opportunity owned by the entity's UserID.
	Update(ctx context.Context, opportunity *entity.Opportunity) error

	// Delete removes an opportunity owned by userID.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
