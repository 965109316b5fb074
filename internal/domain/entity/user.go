// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuthUser is the identity returned by the hosted identity provider.
// It is owned by the provider; the application only ever holds a read-only,
// possibly stale copy. Metadata fields are advisory and may be rendered
// directly, but access-control decisions must always re-verify the session
// against the provider instead of trusting this copy.
type AuthUser struct {
	ID       uuid.UUID      // The provider's subject identifier (matches users.id).
	Email    string         // The email the account was registered with.
	Metadata map[string]any // Free-form user metadata (display name, avatar URL, ...).
}

// DisplayName returns the metadata name when present, falling back to the email.
func (u *AuthUser) DisplayName() string {
	if u == nil {
		return ""
	}
	if name, ok := u.Metadata["name"].(string); ok && name != "" {
		return name
	}

	return u.Email
}

// User is the CRM profile row that mirrors the provider's account. It is
// upserted on login so clients, opportunities and activities can reference
// a local foreign key.
type User struct {
	ID        uuid.UUID // Same UUID as the provider account.
	Email     string    // Primary contact email, unique.
	Name      string    // Display name, may be empty.
	AvatarURL string    // Profile picture URL, may be empty.
	CreatedAt time.Time // Timestamp of when this profile row was first created.
	UpdatedAt time.Time // Timestamp of the last modification.
}
