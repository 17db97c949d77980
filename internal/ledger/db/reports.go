package db

import (
	"context"
	"time"

	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/google/uuid"
)

// OverdueContract is a contract joined with its owning company's name for
// report assembly.
type OverdueContract struct {
	ContractID     uuid.UUID
	ContractNumber string
	CompanyID      uuid.UUID
	CompanyName    string
	AmountDue      float64
	DateIn         time.Time
}

// OutstandingBalance sums amount_due across all unpaid contracts.
func (r *Repository) OutstandingBalance(ctx context.Context) (float64, error) {
	var total float64
	result := r.db.WithContext(ctx).Model(&models.Contract{}).
		Where("paid = ?", false).
		Select("COALESCE(SUM(amount_due), 0)").
		Scan(&total)
	return total, result.Error
}

// CompanyOutstandingBalance sums amount_due across one company's unpaid
// contracts.
func (r *Repository) CompanyOutstandingBalance(ctx context.Context, companyID uuid.UUID) (float64, error) {
	var total float64
	result := r.db.WithContext(ctx).Model(&models.Contract{}).
		Where("company_id = ? AND paid = ?", companyID, false).
		Select("COALESCE(SUM(amount_due), 0)").
		Scan(&total)
	return total, result.Error
}

func (r *Repository) CountContracts(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Contract{}).Count(&count)
	return count, result.Error
}

func (r *Repository) CountContractsByPaid(ctx context.Context, paid bool) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Contract{}).
		Where("paid = ?", paid).
		Count(&count)
	return count, result.Error
}

func (r *Repository) CountContractsForCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Contract{}).
		Where("company_id = ?", companyID).
		Count(&count)
	return count, result.Error
}

func (r *Repository) CountActivitiesByAction(ctx context.Context, action models.ActionKind) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("action = ?", string(action)).
		Count(&count)
	return count, result.Error
}

// OverdueContracts lists unpaid contracts whose date_in is at or before
// the cutoff, newest debt first.
func (r *Repository) OverdueContracts(ctx context.Context, cutoff time.Time) ([]OverdueContract, error) {
	var overdue []OverdueContract
	result := r.db.WithContext(ctx).Model(&models.Contract{}).
		Select(`contracts.id AS contract_id,
			contracts.contract_number,
			contracts.company_id,
			companies.name AS company_name,
			contracts.amount_due,
			contracts.date_in`).
		Joins("JOIN companies ON companies.id = contracts.company_id").
		Where("contracts.paid = ? AND contracts.date_in <= ?", false, cutoff).
		Order("contracts.amount_due DESC").
		Scan(&overdue)
	if overdue == nil {
		overdue = make([]OverdueContract, 0)
	}
	return overdue, result.Error
}

// InactiveCompanies lists companies with no activity entries at or after
// the cutoff, including companies with no activity at all.
func (r *Repository) InactiveCompanies(ctx context.Context, cutoff time.Time) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).
		Where(`NOT EXISTS (
			SELECT 1 FROM activity_logs
			WHERE activity_logs.company_id = companies.id
			  AND activity_logs.timestamp >= ?
		)`, cutoff).
		Order("name").
		Find(&companies)
	if companies == nil {
		companies = make([]models.Company, 0)
	}
	return companies, result.Error
}
