package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionKind is the closed set of activity categories. Free text from
// callers is mapped through ParseAction so known categories stay
// exhaustively checkable while arbitrary detail survives in Details.
type ActionKind string

const (
	ActionCallMade       ActionKind = "Call Made"
	ActionEmailSent      ActionKind = "Email Sent"
	ActionMarkedPaid     ActionKind = "Marked as Paid"
	ActionRevertedUnpaid ActionKind = "Reverted to Unpaid"
	ActionNoteAdded      ActionKind = "Note Added"
	ActionContacted      ActionKind = "Contacted"
	ActionUpdated        ActionKind = "Update"
	ActionOther          ActionKind = "Other"
)

// SystemEmployee attributes audit entries produced by reconciliation
// rather than by a person.
const SystemEmployee = "System"

var knownActions = map[ActionKind]bool{
	ActionCallMade:       true,
	ActionEmailSent:      true,
	ActionMarkedPaid:     true,
	ActionRevertedUnpaid: true,
	ActionNoteAdded:      true,
	ActionContacted:      true,
	ActionUpdated:        true,
}

// ParseAction maps free text onto a known ActionKind, falling back to
// ActionOther for anything unrecognized.
func ParseAction(s string) ActionKind {
	if knownActions[ActionKind(s)] {
		return ActionKind(s)
	}
	return ActionOther
}

// ActivityLog is an immutable audit entry. Employee is a free-text name;
// there is no employee table to reference.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Timestamp time.Time `gorm:"index;not null"`
	Employee  string    `gorm:"size:120;not null"`
	Action    string    `gorm:"size:120"`
	Details   string    `gorm:"type:text"`
	// CompanyID is optional: some entries describe actions with no
	// company in scope.
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}
