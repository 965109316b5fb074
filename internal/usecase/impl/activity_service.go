package impl

import (
	"context"
	"log/slog"
	"time"

	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/repository"
	"crm/internal/domain/service"
	"crm/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultRecentActivities = 10

type activityService struct {
	activityRepo    repository.ActivityRepository
	clientRepo      repository.ClientRepository
	opportunityRepo repository.OpportunityRepository
	eventPublisher  service.EventPublisher
	logger          *slog.Logger
}

// ActivityServiceParams holds dependencies for ActivityService, injected by Fx.
type ActivityServiceParams struct {
	fx.In

	ActivityRepo    repository.ActivityRepository
	ClientRepo      repository.ClientRepository
	OpportunityRepo repository.OpportunityRepository
	EventPublisher  service.EventPublisher
	Logger          *slog.Logger
}

// NewActivityService creates a new activity service instance
func NewActivityService(params ActivityServiceParams) usecase.ActivityUsecase {
	return &activityService{
		activityRepo:    params.ActivityRepo,
		clientRepo:      params.ClientRepo,
		opportunityRepo: params.OpportunityRepo,
		eventPublisher:  params.EventPublisher,
		logger:          params.Logger,
	}
}

// ListRecent returns the newest activities for the dashboard feed.
func (s *activityService) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error) {
	if limit <= 0 {
		limit = defaultRecentActivities
	}

	activities, err := s.activityRepo.FindRecent(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent activities")
	}

	return activities, nil
}

// ListByClient returns all activities linked to one client, newest first.
func (s *activityService) ListByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Activity, error) {
	activities, err := s.activityRepo.FindByClient(ctx, clientID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activities by client")
	}

	return activities, nil
}

// GetActivity returns a single activity.
func (s *activityService) GetActivity(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error) {
	activity, err := s.activityRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return nil, domainerrors.ErrActivityNotFound
		}

		return nil, errors.Wrap(err, "failed to load activity")
	}

	return activity, nil
}

// CreateActivity creates an activity, optionally linked to a client and/or
// an opportunity the user owns.
func (s *activityService) CreateActivity(ctx context.Context, userID uuid.UUID, input usecase.ActivityInput) (*entity.Activity, error) {
	if err := s.validateInput(ctx, userID, input); err != nil {
		return nil, err
	}

	activity := buildActivity(input)
	activity.UserID = userID

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	return activity, nil
}

// UpdateActivity modifies an activity owned by userID.
func (s *activityService) UpdateActivity(ctx context.Context, id, userID uuid.UUID, input usecase.ActivityInput) (*entity.Activity, error) {
	if err := s.validateInput(ctx, userID, input); err != nil {
		return nil, err
	}

	existing, err := s.activityRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return nil, domainerrors.ErrActivityNotFound
		}

		return nil, errors.Wrap(err, "failed to load activity")
	}

	activity := buildActivity(input)
	activity.ID = id
	activity.UserID = userID
	// Completion state is managed by CompleteActivity, not by edits.
	activity.IsCompleted = existing.IsCompleted
	activity.CompletedAt = existing.CompletedAt

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return nil, domainerrors.ErrActivityNotFound
		}

		return nil, err
	}

	return s.activityRepo.FindByID(ctx, id, userID)
}

// CompleteActivity marks an activity done, stamping the completion time.
// Completing an already-completed activity is a no-op.
func (s *activityService) CompleteActivity(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error) {
	activity, err := s.activityRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return nil, domainerrors.ErrActivityNotFound
		}

		return nil, errors.Wrap(err, "failed to load activity")
	}

	if activity.IsCompleted {
		return activity, nil
	}

	now := time.Now()
	activity.IsCompleted = true
	activity.CompletedAt = &now

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		return nil, errors.Wrap(err, "failed to complete activity")
	}

	publishEvent(ctx, s.eventPublisher, s.logger, service.EventActivityCompleted, userID, id.String(),
		map[string]any{
			"title": activity.Title,
			"type":  string(activity.Type),
		})

	return activity, nil
}

// ReopenActivity puts a completed activity back on the task list. Reopening
// a pending activity is a no-op.
func (s *activityService) ReopenActivity(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error) {
	activity, err := s.activityRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return nil, domainerrors.ErrActivityNotFound
		}

		return nil, errors.Wrap(err, "failed to load activity")
	}

	if !activity.IsCompleted {
		return activity, nil
	}

	activity.IsCompleted = false
	activity.CompletedAt = nil

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		return nil, errors.Wrap(err, "failed to reopen activity")
	}

	return activity, nil
}

// DeleteActivity removes an activity owned by userID.
func (s *activityService) DeleteActivity(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.activityRepo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return domainerrors.ErrActivityNotFound
		}

		return errors.Wrap(err, "failed to delete activity")
	}

	return nil
}

// validateInput checks the type and verifies ownership of any linked records.
func (s *activityService) validateInput(ctx context.Context, userID uuid.UUID, input usecase.ActivityInput) error {
	if input.Title == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("activity title is required")
	}
	if !input.Type.Valid() {
		return domainerrors.ErrInvalidActivityType
	}

	if input.ClientID != nil {
		if _, err := s.clientRepo.FindByID(ctx, *input.ClientID, userID); err != nil {
			if errors.Is(err, repository.ErrClientNotFound) {
				return domainerrors.ErrClientNotFound
			}

			return errors.Wrap(err, "failed to verify client ownership")
		}
	}

	if input.OpportunityID != nil {
		if _, err := s.opportunityRepo.FindByID(ctx, *input.OpportunityID, userID); err != nil {
			if errors.Is(err, repository.ErrOpportunityNotFound) {
				return domainerrors.ErrOpportunityNotFound
			}

			return errors.Wrap(err, "failed to verify opportunity ownership")
		}
	}

	return nil
}

func buildActivity(input usecase.ActivityInput) *entity.Activity {
	return &entity.Activity{
		Title:         input.Title,
		Description:   input.Description,
		Type:          input.Type,
		ScheduledAt:   input.ScheduledAt,
		ClientID:      input.ClientID,
		OpportunityID: input.OpportunityID,
	}
}
