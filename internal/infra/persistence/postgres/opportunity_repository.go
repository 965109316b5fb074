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

// opportunityRepository implements the repository.OpportunityRepository interface.
type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository is the constructor for opportunityRepository.
func NewOpportunityRepository(db *gorm.DB) repository.OpportunityRepository {
	return &opportunityRepository{
		db: db,
	}
}

// FindByID retrieves a single opportunity owned by userID, with its client.
func (repo *opportunityRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Opportunity, error) {
	var opportunityM model.OpportunityModel

	if err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&opportunityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOpportunityNotFound
		}

		return nil, errors.Wrap(err, "failed to find opportunity by ID")
	}

	opportunity := toOpportunityDomain(&opportunityM)

	var clientM model.ClientModel
	if err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", opportunityM.ClientID, userID).
		First(&clientM).Error; err == nil {
		opportunity.Client = toClientDomain(&clientM)
	}

	return opportunity, nil
}

// FindByUser lists a user's opportunities ordered by value descending, each
// with its client summary.
func (repo *opportunityRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Opportunity, error) {
	var opportunityModels []*model.OpportunityModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("value DESC").
		Limit(limit).
		Offset(offset).
		Find(&opportunityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list opportunities by user")
	}

	opportunities := make([]*entity.Opportunity, 0, len(opportunityModels))
	for _, opportunityM := range opportunityModels {
		opportunities = append(opportunities, toOpportunityDomain(opportunityM))
	}

	if err := repo.attachClients(ctx, userID, opportunities); err != nil {
		return nil, err
	}

	return opportunities, nil
}

// FindByClient lists opportunities for one client, newest first.
func (repo *opportunityRepository) FindByClient(ctx context.Context, clientID, userID uuid.UUID) ([]*entity.Opportunity, error) {
	var opportunityModels []*model.OpportunityModel

	if err := repo.db.WithContext(ctx).
		Where("client_id = ? AND user_id = ?", clientID, userID).
		Order("created_at DESC").
		Find(&opportunityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list opportunities by client")
	}

	opportunities := make([]*entity.Opportunity, 0, len(opportunityModels))
	for _, opportunityM := range opportunityModels {
		opportunities = append(opportunities, toOpportunityDomain(opportunityM))
	}

	return opportunities, nil
}

// CountByUser returns the number of opportunities a user owns.
func (repo *opportunityRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.OpportunityModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count opportunities by user")
	}

	return count, nil
}

// SumClosedWonValue totals the value of closed-won deals as a decimal string.
func (repo *opportunityRepository) SumClosedWonValue(ctx context.Context, userID uuid.UUID) (string, error) {
	var total string

	if err := repo.db.WithContext(ctx).
		Model(&model.OpportunityModel{}).
		Select("COALESCE(SUM(value), 0)::text").
		Where("user_id = ? AND status = ?", userID, string(entity.StatusClosedWon)).
		Scan(&total).Error; err != nil {
		return "", errors.Wrap(err, "failed to sum closed-won value")
	}

	if total == "" {
		total = "0"
	}

	return total, nil
}

// Create persists a new opportunity.
func (repo *opportunityRepository) Create(ctx context.Context, opportunity *entity.Opportunity) error {
	opportunityM := fromOpportunityDomain(opportunity)

	if err := repo.db.WithContext(ctx).Create(opportunityM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrClientNotFound
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required opportunity information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create opportunity")
	}

	opportunity.ID = opportunityM.ID
	opportunity.CreatedAt = opportunityM.CreatedAt
	opportunity.UpdatedAt = opportunityM.UpdatedAt

	return nil
}

// Update modifies an existing opportunity owned by the entity's UserID.
func (repo *opportunityRepository) Update(ctx context.Context, opportunity *entity.Opportunity) error {
	opportunityM := fromOpportunityDomain(opportunity)

	result := repo.db.WithContext(ctx).
		Model(&model.OpportunityModel{}).
		Where("id = ? AND user_id = ?", opportunity.ID, opportunity.UserID).
		Updates(map[string]any{
			"title":               opportunityM.Title,
			"description":         opportunityM.Description,
			"value":               opportunityM.Value,
			"currency":            opportunityM.Currency,
			"status":              opportunityM.Status,
			"expected_close_date": opportunityM.ExpectedCloseDate,
		})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update opportunity")
	}

	if result.RowsAffected == 0 {
		return repository.ErrOpportunityNotFound
	}

	return nil
}

// Delete removes an opportunity owned by userID.
func (repo *opportunityRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.OpportunityModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete opportunity")
	}

	if result.RowsAffected == 0 {
		return repository.ErrOpportunityNotFound
	}

	return nil
}

// attachClients populates the Client summary on each opportunity with one
// batched lookup instead of a query per row.
func (repo *opportunityRepository) attachClients(ctx context.Context, userID uuid.UUID, opportunities []*entity.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	clientIDs := make([]uuid.UUID, 0, len(opportunities))
	seen := make(map[uuid.UUID]struct{}, len(opportunities))
	for _, opportunity := range opportunities {
		if _, ok := seen[opportunity.ClientID]; !ok {
			seen[opportunity.ClientID] = struct{}{}
			clientIDs = append(clientIDs, opportunity.ClientID)
		}
	}

	var clientModels []*model.ClientModel
	if err := repo.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", clientIDs, userID).
		Find(&clientModels).Error; err != nil {
		return errors.Wrap(err, "failed to load opportunity clients")
	}

	clientsByID := make(map[uuid.UUID]*entity.Client, len(clientModels))
	for _, clientM := range clientModels {
		clientsByID[clientM.ID] = toClientDomain(clientM)
	}

	for _, opportunity := range opportunities {
		opportunity.Client = clientsByID[opportunity.ClientID]
	}

	return nil
}

// --- Mapper Functions ---

func toOpportunityDomain(data *model.OpportunityModel) *entity.Opportunity {
	if data == nil {
		return nil
	}

	return &entity.Opportunity{
		ID:                data.ID,
		Title:             data.Title,
		Description:       data.Description,
		Value:             data.Value,
		Currency:          data.Currency,
		Status:            entity.OpportunityStatus(data.Status),
		ExpectedCloseDate: data.ExpectedCloseDate,
		ClientID:          data.ClientID,
		UserID:            data.UserID,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func fromOpportunityDomain(data *entity.Opportunity) *model.OpportunityModel {
	if data == nil {
		return nil
	}

	return &model.OpportunityModel{
		ID:                data.ID,
		Title:             data.Title,
		Description:       data.Description,
		Value:             data.Value,
		Currency:          data.Currency,
		Status:            string(data.Status),
		ExpectedCloseDate: data.ExpectedCloseDate,
		ClientID:          data.ClientID,
		UserID:            data.UserID,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}
