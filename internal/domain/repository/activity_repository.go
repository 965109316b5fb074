package repository

import (
	"context"
	"errors"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrActivityNotFound is returned when an activity does not exist or does
// not belong to the requesting user.
var ErrActivityNotFound = errors.New("activity not found")

// ActivityRepository defines persistence operations for interactions and tasks.
type ActivityRepository interface {
	// FindByID retrieves a single activity owned by userID.
	FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error)

	// FindRecent lists the most recent activities for the dashboard, with
	// linked client and opportunity summaries populated.
	FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error)

	// FindByClient lists activities linked to one client, newest first.
	FindByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Activity, error)

	// CountByUser returns the number of activities a user owns.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Create persists a new activity.
	Create(ctx context.Context, activity *entity.Activity) error

	// Update modifies an existing activity owned by the entity's UserID.
	Update(ctx context.Context, activity *entity.Activity) error

	// Delete removes an activity owned by userID.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
