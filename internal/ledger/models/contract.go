package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contract is a single receivable owed by a company. A contract number is
// only unique within its company, not globally; the pair is enforced by
// lookup rather than a database constraint.
type Contract struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContractNumber string    `gorm:"size:50;index;not null"`
	AmountDue      float64   `gorm:"default:0"`
	DateIn         time.Time `gorm:"not null"`
	Paid           bool      `gorm:"default:false"`
	// Reverted is a legacy flag carried in the schema; no business logic
	// reads or writes it.
	Reverted  bool      `gorm:"default:false"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contract) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
