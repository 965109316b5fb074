package postgres

import (
	"context"

	"crm/internal/domain/entity"
	domainerrors "crm/internal/domain/errors"
	"crm/internal/domain/repository"
	"crm/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// activityRepository implements the repository.ActivityRepository interface.
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository is the constructor for activityRepository.
func NewActivityRepository(db *gorm.DB) repository.ActivityRepository {
	return &activityRepository{
		db: db,
	}
}

// FindByID retrieves a single activity owned by userID.
func (repo *activityRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Activity, error) {
	var activityM model.ActivityModel

	if err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&activityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrActivityNotFound
		}

		return nil, errors.Wrap(err, "failed to find activity by ID")
	}

	return toActivityDomain(&activityM), nil
}

// FindRecent lists the newest activities for the dashboard feed, with their
// linked client and opportunity summaries populated.
func (repo *activityRepository) FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Activity, error) {
	var activityModels []*model.ActivityModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list recent activities")
	}

	activities := make([]*entity.Activity, 0, len(activityModels))
	for _, activityM := range activityModels {
		activities = append(activities, toActivityDomain(activityM))
	}

	if err := repo.attachLinks(ctx, userID, activities); err != nil {
		return nil, err
	}

	return activities, nil
}

// FindByClient lists activities linked to one client, newest first.
func (repo *activityRepository) FindByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Activity, error) {
	var activityModels []*model.ActivityModel

	if err := repo.db.WithContext(ctx).
		Where("client_id = ? AND user_id = ?", clientID, userID).
		Order("created_at DESC").
		Find(&activityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list activities by client")
	}

	activities := make([]*entity.Activity, 0, len(activityModels))
	for _, activityM := range activityModels {
		activities = append(activities, toActivityDomain(activityM))
	}

	return activities, nil
}

// CountByUser returns the number of activities a user owns.
func (repo *activityRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.ActivityModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count activities by user")
	}

	return count, nil
}

// Create persists a new activity.
func (repo *activityRepository) Create(ctx context.Context, activity *entity.Activity) error {
	activityM := fromActivityDomain(activity)

	if err := repo.db.WithContext(ctx).Create(activityM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("linked client or opportunity does not exist")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required activity information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create activity")
	}

	activity.ID = activityM.ID
	activity.CreatedAt = activityM.CreatedAt
	activity.UpdatedAt = activityM.UpdatedAt

	return nil
}

// Update modifies an existing activity owned by the entity's UserID.
func (repo *activityRepository) Update(ctx context.Context, activity *entity.Activity) error {
	activityM := fromActivityDomain(activity)

	result := repo.db.WithContext(ctx).
		Model(&model.ActivityModel{}).
		Where("id = ? AND user_id = ?", activity.ID, activity.UserID).
		Updates(map[string]any{
			"title":          activityM.Title,
			"description":    activityM.Description,
			"type":           activityM.Type,
			"scheduled_at":   activityM.ScheduledAt,
			"completed_at":   activityM.CompletedAt,
			"is_completed":   activityM.IsCompleted,
			"client_id":      activityM.ClientID,
			"opportunity_id": activityM.OpportunityID,
		})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update activity")
	}

	if result.RowsAffected == 0 {
		return repository.ErrActivityNotFound
	}

	return nil
}

// Delete removes an activity owned by userID.
func (repo *activityRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.ActivityModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete activity")
	}

	if result.RowsAffected == 0 {
		return repository.ErrActivityNotFound
	}

	return nil
}

// attachLinks populates the optional client and opportunity summaries with
// batched lookups.
func (repo *activityRepository) attachLinks(ctx context.Context, userID uuid.UUID, activities []*entity.Activity) error {
	clientIDs := make([]uuid.UUID, 0, len(activities))
	opportunityIDs := make([]uuid.UUID, 0, len(activities))
	for _, activity := range activities {
		if activity.ClientID != nil {
			clientIDs = append(clientIDs, *activity.ClientID)
		}
		if activity.OpportunityID != nil {
			opportunityIDs = append(opportunityIDs, *activity.OpportunityID)
		}
	}

	clientsByID := make(map[uuid.UUID]*entity.Client)
	if len(clientIDs) > 0 {
		var clientModels []*model.ClientModel
		if err := repo.db.WithContext(ctx).
			Where("id IN ? AND user_id = ?", clientIDs, userID).
			Find(&clientModels).Error; err != nil {
			return errors.Wrap(err, "failed to load activity clients")
		}
		for _, clientM := range clientModels {
			clientsByID[clientM.ID] = toClientDomain(clientM)
		}
	}

	opportunitiesByID := make(map[uuid.UUID]*entity.Opportunity)
	if len(opportunityIDs) > 0 {
		var opportunityModels []*model.OpportunityModel
		if err := repo.db.WithContext(ctx).
			Where("id IN ? AND user_id = ?", opportunityIDs, userID).
			Find(&opportunityModels).Error; err != nil {
			return errors.Wrap(err, "failed to load activity opportunities")
		}
		for _, opportunityM := range opportunityModels {
			opportunitiesByID[opportunityM.ID] = toOpportunityDomain(opportunityM)
		}
	}

	for _, activity := range activities {
		if activity.ClientID != nil {
			activity.Client = clientsByID[*activity.ClientID]
		}
		if activity.OpportunityID != nil {
			activity.Opportunity = opportunitiesByID[*activity.OpportunityID]
		}
	}

	return nil
}

// --- Mapper Functions ---

func toActivityDomain(data *model.ActivityModel) *entity.Activity {
	if data == nil {
		return nil
	}

	return &entity.Activity{
		ID:            data.ID,
		Title:         data.Title,
		Description:   data.Description,
		Type:          entity.ActivityType(data.Type),
		ScheduledAt:   data.ScheduledAt,
		CompletedAt:   data.CompletedAt,
		IsCompleted:   data.IsCompleted,
		ClientID:      data.ClientID,
		OpportunityID: data.OpportunityID,
		UserID:        data.UserID,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

func fromActivityDomain(data *entity.Activity) *model.ActivityModel {
	if data == nil {
		return nil
	}

	return &model.ActivityModel{
		ID:            data.ID,
		Title:         data.Title,
		Description:   data.Description,
		Type:          string(data.Type),
		ScheduledAt:   data.ScheduledAt,
		CompletedAt:   data.CompletedAt,
		IsCompleted:   data.IsCompleted,
		ClientID:      data.ClientID,
		OpportunityID: data.OpportunityID,
		UserID:        data.UserID,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}
