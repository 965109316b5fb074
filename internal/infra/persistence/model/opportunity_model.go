package model

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityModel is the GORM struct for the 'opportunities' table.
// Value maps to a NUMERIC column and is carried as a string end to end so
// money never goes through a float.
type OpportunityModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title             string    `gorm:"type:varchar(255);not null"`
	Description       string    `gorm:"type:text"`
	Value             string    `gorm:"type:numeric(12,2);not null;default:0"`
	Currency          string    `gorm:"type:varchar(3);not null;default:EUR"`
	Status            string    `gorm:"type:varchar(20);not null;default:lead;index"`
	ExpectedCloseDate *time.Time
	ClientID          uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (OpportunityModel) TableName() string {
	return "opportunities"
}
