package entity

import (
	"time"

	"github.com/google/uuid"
)

// Client is the core CRM entity: a person or company the user manages.
type Client struct {
	ID         uuid.UUID // Unique identifier for the client.
	Name       string    // Contact or company name, required.
	Email      string    // Contact email, optional.
	Phone      string    // Contact phone, optional.
	Company    string    // Company name when the contact is a person, optional.
	Address    string    // Street address, optional.
	City       string    // City, optional.
	Country    string    // Country, optional.
	PostalCode string    // Postal code, optional.
	UserID     uuid.UUID // The user who manages this client.
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// OpportunitiesCount is a derived read-only field populated by list
	// queries; it is never persisted.
	OpportunitiesCount int64

	// Opportunities and Activities are populated on detail reads only.
	Opportunities []*Opportunity
	Activities    []*Activity
}
