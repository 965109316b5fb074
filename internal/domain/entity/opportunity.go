package entity

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityStatus represents a stage in the sales pipeline.
type OpportunityStatus string

const (
	StatusLead        OpportunityStatus = "lead"
	StatusQualified   OpportunityStatus = "qualified"
	StatusProposal    OpportunityStatus = "proposal"
	StatusNegotiation OpportunityStatus = "negotiation"
	StatusClosedWon   OpportunityStatus = "closed_won"
	StatusClosedLost  OpportunityStatus = "closed_lost"
)

// OpportunityStatuses lists every pipeline stage in funnel order.
var OpportunityStatuses = []OpportunityStatus{
	StatusLead,
	StatusQualified,
	StatusProposal,
	StatusNegotiation,
	StatusClosedWon,
	StatusClosedLost,
}

// Valid reports whether s is a known pipeline stage.
func (s OpportunityStatus) Valid() bool {
	switch s {
	case StatusLead, StatusQualified, StatusProposal, StatusNegotiation, StatusClosedWon, StatusClosedLost:
		return true
	}

	return false
}

// Closed reports whether the opportunity left the active pipeline.
func (s OpportunityStatus) Closed() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// Opportunity is a potential deal attached to a client.
type Opportunity struct {
	ID          uuid.UUID
	Title       string // Short deal title, required.
	Description string
	// Value is the monetary amount as a decimal string (e.g. "1250.00").
	// Kept as a string to avoid float rounding on money.
	Value             string
	Currency          string // ISO currency code, defaults to EUR.
	Status            OpportunityStatus
	ExpectedCloseDate *time.Time
	ClientID          uuid.UUID
	UserID            uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Client is populated on reads that join the owning client.
	Client *Client
}
