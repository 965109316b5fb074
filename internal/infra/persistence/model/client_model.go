package model

import (
	"time"

	"github.com/google/uuid"
)

// ClientModel is the GORM struct for the 'clients' table.
type ClientModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Email      string    `gorm:"type:varchar(255)"`
	Phone      string    `gorm:"type:varchar(50)"`
	Company    string    `gorm:"type:varchar(255)"`
	Address    string    `gorm:"type:text"`
	City       string    `gorm:"type:varchar(100)"`
	Country    string    `gorm:"type:varchar(100)"`
	PostalCode string    `gorm:"type:varchar(20)"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (ClientModel) TableName() string {
	return "clients"
}
