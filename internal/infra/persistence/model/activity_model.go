package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityModel is the GORM struct for the 'activities' table. ClientID and
// OpportunityID are nullable: an activity can stand alone.
type ActivityModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title         string    `gorm:"type:varchar(255);not null"`
	Description   string    `gorm:"type:text"`
	Type          string    `gorm:"type:varchar(20);not null;index"`
	ScheduledAt   *time.Time
	CompletedAt   *time.Time
	IsCompleted   bool       `gorm:"not null;default:false"`
	ClientID      *uuid.UUID `gorm:"type:uuid;index"`
	OpportunityID *uuid.UUID `gorm:"type:uuid;index"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (ActivityModel) TableName() string {
	return "activities"
}
