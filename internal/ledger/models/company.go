// Package models contains the domain models for the ledger service,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company represents a contracted customer. Identity is the exact,
// case-sensitive name: "Acme" and "ACME" are distinct companies.
type Company struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"size:120;uniqueIndex;not null"`
	ContactPerson string    `gorm:"size:120"`
	PhoneNumber   string    `gorm:"size:50"`
	Email         string    `gorm:"size:120"`
	Address       string    `gorm:"size:250"`
	Notes         string    `gorm:"type:text"`

	Contracts            []Contract           `gorm:"constraint:OnDelete:CASCADE"`
	AlternativeContacts  []AlternativeContact `gorm:"constraint:OnDelete:CASCADE"`
	Activities           []ActivityLog        `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a UUID when none was set by the caller.
func (c *Company) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AlternativeContact is secondary contact info owned by a company.
// Append-only: there is no update or delete path.
type AlternativeContact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:120"`
	Phone     string    `gorm:"size:50"`
	Email     string    `gorm:"size:120"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time
}

func (a *AlternativeContact) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	// ID is the unique identifier for the company to update.
	ID uuid.UUID
	// ContactPerson is the new primary contact name.
	ContactPerson *string
	// PhoneNumber is the new phone number.
	PhoneNumber *string
	// Email is the new email address.
	Email *string
	// Address is the new mailing address.
	Address *string
	// Notes is the new free-text notes body.
	Notes *string
}
