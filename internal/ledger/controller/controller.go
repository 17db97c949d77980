// Package controller implements the service layer for manual operations:
// company detail upkeep, paid-status toggles, and employee-logged contact
// activity. The acting employee is always an explicit argument, never
// ambient state.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autohive/arledger/internal/ledger/activity"
	e "github.com/autohive/arledger/internal/ledger/errors"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository defines the storage operations the controller needs.
type Repository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	GetContract(ctx context.Context, companyID uuid.UUID, number string) (*models.Contract, error)
	UpdateContract(ctx context.Context, contract *models.Contract) error
	CreateAlternativeContact(ctx context.Context, contact *models.AlternativeContact) error
	CreateActivity(ctx context.Context, entry *models.ActivityLog) error
}

type Service struct {
	repo     Repository
	activity *activity.Logger
	logger   *zap.Logger
}

func NewService(repo Repository, act *activity.Logger, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		activity: act,
		logger:   logger.Named("controller"),
	}
}

// UpdateCompanyDetails applies a partial update and records one audit
// entry naming the fields that actually changed. An update that changes
// nothing writes nothing.
func (s *Service) UpdateCompanyDetails(ctx context.Context, employee string, update *models.CompanyUpdate) (*models.Company, error) {
	if err := requireEmployee(employee); err != nil {
		return nil, err
	}
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}

	company, err := s.repo.GetCompany(ctx, update.ID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	changed := changedFields(company, update)
	if len(changed) == 0 {
		return company, nil
	}

	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	details := fmt.Sprintf("%s updated %s for %s", employee, strings.Join(changed, ", "), company.Name)
	if _, err := s.activity.Record(ctx, s.repo, employee, models.ActionUpdated, details, &company.ID); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetCompany(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get company after update",
			zap.Error(err),
			zap.String("company_id", update.ID.String()),
		)
		return nil, err
	}
	return updated, nil
}

// UpdateNotes replaces a company's free-text notes.
func (s *Service) UpdateNotes(ctx context.Context, employee string, companyID uuid.UUID, notes string) error {
	if err := requireEmployee(employee); err != nil {
		return err
	}

	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}

	update := &models.CompanyUpdate{ID: companyID, Notes: &notes}
	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}

	details := fmt.Sprintf("%s updated notes for %s", employee, company.Name)
	_, err = s.activity.Record(ctx, s.repo, employee, models.ActionNoteAdded, details, &companyID)
	return err
}

// AddAlternativeContact appends secondary contact info to a company.
// Contacts are append-only; there is no update or delete path.
func (s *Service) AddAlternativeContact(ctx context.Context, employee string, companyID uuid.UUID, contact *models.AlternativeContact) error {
	if err := requireEmployee(employee); err != nil {
		return err
	}
	if contact.Name == "" && contact.Phone == "" && contact.Email == "" {
		return fmt.Errorf("%w: empty alternative contact", e.ErrInvalidInput)
	}

	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}

	contact.CompanyID = companyID
	if err := s.repo.CreateAlternativeContact(ctx, contact); err != nil {
		return fmt.Errorf("failed to add alternative contact: %w", err)
	}

	details := fmt.Sprintf("%s added alternative contact %s for %s", employee, contact.Name, company.Name)
	_, err = s.activity.Record(ctx, s.repo, employee, models.ActionUpdated, details, &companyID)
	return err
}

// TogglePaidStatus flips a contract between paid and unpaid, recording
// the matching audit action, and returns the contract's new state.
func (s *Service) TogglePaidStatus(ctx context.Context, employee string, companyID uuid.UUID, contractNumber string) (*models.Contract, error) {
	if err := requireEmployee(employee); err != nil {
		return nil, err
	}
	if contractNumber == "" {
		return nil, fmt.Errorf("%w: contract number required", e.ErrInvalidInput)
	}

	contract, err := s.repo.GetContract(ctx, companyID, contractNumber)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	action := models.ActionMarkedPaid
	if contract.Paid {
		action = models.ActionRevertedUnpaid
	}
	contract.Paid = !contract.Paid

	if err := s.repo.UpdateContract(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	details := fmt.Sprintf("Contract %s %s.", contractNumber, strings.ToLower(string(action)))
	if _, err := s.activity.Record(ctx, s.repo, employee, action, details, &companyID); err != nil {
		return nil, err
	}
	return contract, nil
}

// LogActivity records an employee-attributed contact entry against a
// company. Unrecognized action text degrades to the Other kind with the
// original text preserved in the details.
func (s *Service) LogActivity(ctx context.Context, employee string, companyID uuid.UUID, actionText, details string) (*models.ActivityLog, error) {
	if err := requireEmployee(employee); err != nil {
		return nil, err
	}
	if actionText == "" {
		return nil, fmt.Errorf("%w: action required", e.ErrInvalidInput)
	}

	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	action := models.ParseAction(actionText)
	if action == models.ActionOther {
		details = strings.TrimSpace(fmt.Sprintf("%s: %s", actionText, details))
	}
	return s.activity.Record(ctx, s.repo, employee, action, details, &companyID)
}

func requireEmployee(employee string) error {
	if employee == "" {
		return fmt.Errorf("%w: employee identity required", e.ErrInvalidInput)
	}
	return nil
}

// changedFields names the update fields that differ from the stored
// company, in the order the update form presents them.
func changedFields(company *models.Company, update *models.CompanyUpdate) []string {
	var changed []string
	if update.ContactPerson != nil && *update.ContactPerson != company.ContactPerson {
		changed = append(changed, "contact person")
	}
	if update.PhoneNumber != nil && *update.PhoneNumber != company.PhoneNumber {
		changed = append(changed, "phone number")
	}
	if update.Email != nil && *update.Email != company.Email {
		changed = append(changed, "email")
	}
	if update.Address != nil && *update.Address != company.Address {
		changed = append(changed, "address")
	}
	if update.Notes != nil && *update.Notes != company.Notes {
		changed = append(changed, "notes")
	}
	return changed
}
