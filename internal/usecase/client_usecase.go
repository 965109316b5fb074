package usecase

import (
	"context"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// ClientInput carries the writable fields of a client.
type ClientInput struct {
	Name       string
	Email      string
	Phone      string
	Company    string
	Address    string
	City       string
	Country    string
	PostalCode string
}

// ClientList is one page of clients plus the total count for pagination.
type ClientList struct {
	Clients []*entity.Client
	Total   int64
}

// ClientUsecase defines client management use cases. Every operation is
// scoped to the requesting user.
type ClientUsecase interface {
	// ListClients returns one page of the user's clients, newest first.
	ListClients(ctx context.Context, userID uuid.UUID, limit, offset int) (*ClientList, error)

	// GetClient returns a client with its recent opportunities and activities.
	GetClient(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error)

	// CreateClient creates a client owned by userID.
	CreateClient(ctx context.Context, userID uuid.UUID, input ClientInput) (*entity.Client, error)

	// UpdateClient modifies a client owned by userID.
	UpdateClient(ctx context.Context, id, userID uuid.UUID, input ClientInput) (*entity.Client, error)

	// DeleteClient removes a client owned by userID.
	DeleteClient(ctx context.Context, id, userID uuid.UUID) error

	// GenerateClientQR returns a PNG QR code linking to the client's page.
	GenerateClientQR(ctx context.Context, id, userID uuid.UUID) ([]byte, error)
}
