package entity

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType categorizes an interaction or task.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityTask    ActivityType = "task"
	ActivityNote    ActivityType = "note"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityTask, ActivityNote:
		return true
	}

	return false
}

// Activity tracks an interaction or task, optionally linked to a client
// and/or an opportunity.
type Activity struct {
	ID          uuid.UUID
	Title       string // Short description, required.
	Description string
	Type        ActivityType
	ScheduledAt *time.Time
	CompletedAt *time.Time
	IsCompleted bool
	// ClientID and OpportunityID are optional links; an activity can stand alone.
	ClientID      *uuid.UUID
	OpportunityID *uuid.UUID
	UserID        uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Client and Opportunity are populated on dashboard reads.
	Client      *Client
	Opportunity *Opportunity
}
