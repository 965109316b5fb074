package repository

import (
	"context"
	"errors"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrClientNotFound is returned when a client does not exist or does not
// belong to the requesting user.
var ErrClientNotFound = errors.New("client not found")

// ClientRepository defines persistence operations for CRM clients.
// Every read and write is scoped by the owning user; a client belonging to
// another user behaves exactly like a missing one.
type ClientRepository interface {
	// FindByID retrieves a single client owned by userID.
	FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error)

	// FindByUser lists clients for a user, newest first, with each client's
	// opportunity count populated.
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Client, error)

	// FindWithDetails retrieves a client together with its most recent
	// opportunities and activities, for the detail page.
	FindWithDetails(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error)

	// CountByUser returns the number of clients a user manages.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Create persists a new client.
	Create(ctx context.Context, client *entity.Client) error

	// Update modifies an existing client owned by the entity's UserID.
	Update(ctx context.Context, client *entity.Client) error

	// Delete removes a client owned by userID.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
