// Package db implements the persistence store for companies, contracts,
// and activity records on top of GORM.
package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/autohive/arledger/internal/ledger/errors"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewWithDB wraps an existing gorm handle and migrates the schema. Tests
// and tools that bring their own driver use this instead of NewRepository.
func NewWithDB(db *gorm.DB) (*Repository, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.Contract{},
		&models.AlternativeContact{},
		&models.ActivityLog{},
	)
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

// GetCompanyByName matches on the exact, case-sensitive name.
func (r *Repository) GetCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

func (r *Repository) CompanyExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("name = ?", name).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	fields := map[string]interface{}{}
	if update.ContactPerson != nil {
		fields["contact_person"] = *update.ContactPerson
	}
	if update.PhoneNumber != nil {
		fields["phone_number"] = *update.PhoneNumber
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Address != nil {
		fields["address"] = *update.Address
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", update.ID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).Order("name").Find(&companies)
	return companies, result.Error
}

func (r *Repository) CreateContract(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

// GetContract looks up a contract by its (number, company) pair, the only
// identity contracts have.
func (r *Repository) GetContract(ctx context.Context, companyID uuid.UUID, number string) (*models.Contract, error) {
	var contract models.Contract
	result := r.db.WithContext(ctx).
		First(&contract, "company_id = ? AND contract_number = ?", companyID, number)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &contract, nil
}

func (r *Repository) UpdateContract(ctx context.Context, contract *models.Contract) error {
	result := r.db.WithContext(ctx).Model(&models.Contract{}).
		Where("id = ?", contract.ID).
		Select("amount_due", "paid", "date_in").
		Updates(map[string]interface{}{
			"amount_due": contract.AmountDue,
			"paid":       contract.Paid,
			"date_in":    contract.DateIn,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) ListContracts(ctx context.Context, companyID uuid.UUID) ([]models.Contract, error) {
	var contracts []models.Contract
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("contract_number").
		Find(&contracts)
	return contracts, result.Error
}

func (r *Repository) ListContractsByPaid(ctx context.Context, companyID uuid.UUID, paid bool) ([]models.Contract, error) {
	var contracts []models.Contract
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND paid = ?", companyID, paid).
		Order("contract_number").
		Find(&contracts)
	return contracts, result.Error
}

func (r *Repository) CreateAlternativeContact(ctx context.Context, contact *models.AlternativeContact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *Repository) CreateActivity(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListActivities(ctx context.Context, companyID uuid.UUID) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("timestamp DESC").
		Find(&entries)
	return entries, result.Error
}

func (r *Repository) ListAllActivities(ctx context.Context) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	result := r.db.WithContext(ctx).Order("timestamp DESC").Find(&entries)
	return entries, result.Error
}

func (r *Repository) DistinctEmployees(ctx context.Context) ([]string, error) {
	var employees []string
	result := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Distinct("employee").
		Order("employee").
		Pluck("employee", &employees)
	return employees, result.Error
}

// Exec runs a raw statement. Used by the integration suite to reset
// state between tests.
func (r *Repository) Exec(ctx context.Context, sql string, values ...interface{}) error {
	return r.db.WithContext(ctx).Exec(sql, values...).Error
}

// WithTransaction runs fn against a transactional repository. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
