// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers
// and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"crm/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no profile row exists for the given key.
var ErrUserNotFound = errors.New("user not found")

// UserRepository persists the CRM profile rows that mirror provider accounts.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Upsert creates the profile row or refreshes email/name/avatar when it
	// already exists. Called on every successful login.
	Upsert(ctx context.Context, user *entity.User) error
}
