package usecase

import (
	"context"
	"time"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// ActivityInput carries the writable fields of an activity.
type ActivityInput struct {
	Title         string
	Description   string
	Type          entity.ActivityType
	ScheduledAt   *time.Time
	ClientID      *uuid.UUID
	OpportunityID *uuid.UUID
}

// ActivityUsecase defines interaction and task tracking use cases scoped to
// the requesting user.
type ActivityUsecase interface {
	// ListRecent returns the newest activities for the dashboard feed.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error)

	// ListByClient returns all activities linked to one client, newest first.
	ListByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Activity, error)

	// GetActivity returns a single activity.
	GetActivity(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error)

	// CreateActivity creates an activity, optionally linked to a client
	// and/or an opportunity the user owns.
	CreateActivity(ctx context.Context, userID uuid.UUID, input ActivityInput) (*entity.Activity, error)

	// UpdateActivity modifies an activity owned by userID.
	UpdateActivity(ctx context.Context, id, userID uuid.UUID, input ActivityInput) (*entity.Activity, error)

	// CompleteActivity marks an activity done, stamping the completion time.
	CompleteActivity(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error)

	// ReopenActivity clears the completion state of a finished activity.
	ReopenActivity(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error)

	// DeleteActivity removes an activity owned by userID.
	DeleteActivity(ctx context.Context, id, userID uuid.UUID) error
}
