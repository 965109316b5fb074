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

const detailChildrenLimit = 20

// clientRepository implements the repository.ClientRepository interface.
// Every query filters by user_id so one user can never reach another's
// clients; a foreign row reads as not found.
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository is the constructor for clientRepository.
func NewClientRepository(db *gorm.DB) repository.ClientRepository {
	return &clientRepository{
		db: db,
	}
}

// FindByID retrieves a single client owned by userID.
func (repo *clientRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error) {
	var clientM model.ClientModel

	if err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&clientM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrClientNotFound
		}

		return nil, errors.Wrap(err, "failed to find client by ID")
	}

	return toClientDomain(&clientM), nil
}

// clientRowWithCount carries a client row plus its opportunity count from
// the list query's correlated subselect.
type clientRowWithCount struct {
	model.ClientModel
	OpportunitiesCount int64
}

// FindByUser lists a user's clients, newest first, with opportunity counts.
func (repo *clientRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Client, error) {
	var rows []*clientRowWithCount

	if err := repo.db.WithContext(ctx).
		Model(&model.ClientModel{}).
		Select("clients.*, (SELECT COUNT(*) FROM opportunities o WHERE o.client_id = clients.id) AS opportunities_count").
		Where("clients.user_id = ?", userID).
		Order("clients.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list clients by user")
	}

	clients := make([]*entity.Client, 0, len(rows))
	for _, row := range rows {
		client := toClientDomain(&row.ClientModel)
		client.OpportunitiesCount = row.OpportunitiesCount
		clients = append(clients, client)
	}

	return clients, nil
}

// FindWithDetails retrieves a client with its recent opportunities and
// activities for the detail page.
func (repo *clientRepository) FindWithDetails(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error) {
	client, err := repo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var opportunityModels []*model.OpportunityModel
	if err := repo.db.WithContext(ctx).
		Where("client_id = ? AND user_id = ?", id, userID).
		Order("created_at DESC").
		Limit(detailChildrenLimit).
		Find(&opportunityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load client opportunities")
	}

	client.Opportunities = make([]*entity.Opportunity, 0, len(opportunityModels))
	for _, opportunityM := range opportunityModels {
		client.Opportunities = append(client.Opportunities, toOpportunityDomain(opportunityM))
	}
	client.OpportunitiesCount = int64(len(client.Opportunities))

	var activityModels []*model.ActivityModel
	if err := repo.db.WithContext(ctx).
		Where("client_id = ? AND user_id = ?", id, userID).
		Order("created_at DESC").
		Limit(detailChildrenLimit).
		Find(&activityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load client activities")
	}

	client.Activities = make([]*entity.Activity, 0, len(activityModels))
	for _, activityM := range activityModels {
		client.Activities = append(client.Activities, toActivityDomain(activityM))
	}

	return client, nil
}

// CountByUser returns the number of clients a user manages.
func (repo *clientRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.ClientModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count clients by user")
	}

	return count, nil
}

// Create persists a new client.
func (repo *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	clientM := fromClientDomain(client)

	if err := repo.db.WithContext(ctx).Create(clientM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid user reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required client information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create client")
	}

	client.ID = clientM.ID
	client.CreatedAt = clientM.CreatedAt
	client.UpdatedAt = clientM.UpdatedAt

	return nil
}

// Update modifies an existing client owned by the entity's UserID.
func (repo *clientRepository) Update(ctx context.Context, client *entity.Client) error {
	clientM := fromClientDomain(client)

	result := repo.db.WithContext(ctx).
		Model(&model.ClientModel{}).
		Where("id = ? AND user_id = ?", client.ID, client.UserID).
		Updates(map[string]any{
			"name":        clientM.Name,
			"email":       clientM.Email,
			"phone":       clientM.Phone,
			"company":     clientM.Company,
			"address":     clientM.Address,
			"city":        clientM.City,
			"country":     clientM.Country,
			"postal_code": clientM.PostalCode,
		})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update client")
	}

	if result.RowsAffected == 0 {
		return repository.ErrClientNotFound
	}

	return nil
}

// Delete removes a client owned by userID.
func (repo *clientRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.ClientModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete client")
	}

	if result.RowsAffected == 0 {
		return repository.ErrClientNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toClientDomain(data *model.ClientModel) *entity.Client {
	if data == nil {
		return nil
	}

	return &entity.Client{
		ID:         data.ID,
		Name:       data.Name,
		Email:      data.Email,
		Phone:      data.Phone,
		Company:    data.Company,
		Address:    data.Address,
		City:       data.City,
		Country:    data.Country,
		PostalCode: data.PostalCode,
		UserID:     data.UserID,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}

func fromClientDomain(data *entity.Client) *model.ClientModel {
	if data == nil {
		return nil
	}

	return &model.ClientModel{
		ID:         data.ID,
		Name:       data.Name,
		Email:      data.Email,
		Phone:      data.Phone,
		Company:    data.Company,
		Address:    data.Address,
		City:       data.City,
		Country:    data.Country,
		PostalCode: data.PostalCode,
		UserID:     data.UserID,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}
