package db

import (
	"context"
	"testing"
	"time"

	e "github.com/autohive/arledger/internal/ledger/errors"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/autohive/arledger/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	repo, err := NewWithDB(db)
	require.NoError(t, err, "failed to migrate test database")

	return repo
}

func TestCreateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Test Company"}
	err := repo.CreateCompany(ctx, company)
	assert.NoError(t, err, "CreateCompany should not return an error")
	assert.NotEqual(t, uuid.Nil, company.ID, "Create should assign an ID")

	retrieved, err := repo.GetCompany(ctx, company.ID)
	assert.NoError(t, err, "GetCompany should retrieve the created company")
	assert.Equal(t, company.Name, retrieved.Name, "Company name should match")
}

func TestGetCompanyByName(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Acme Corp"}
	require.NoError(t, repo.CreateCompany(ctx, company))

	found, err := repo.GetCompanyByName(ctx, "Acme Corp")
	assert.NoError(t, err)
	assert.Equal(t, company.ID, found.ID)

	// Matching is exact and case-sensitive.
	_, err = repo.GetCompanyByName(ctx, "ACME CORP")
	assert.ErrorIs(t, err, e.ErrNotFound, "name matching must be case-sensitive")
}

func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	_, err := repo.GetCompany(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound, "GetCompany should return ErrNotFound for non-existent company")
}

func TestUpdateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Acme Corp", ContactPerson: "Old Contact"}
	require.NoError(t, repo.CreateCompany(ctx, company))

	update := &models.CompanyUpdate{
		ID:            company.ID,
		ContactPerson: utils.Ptr("New Contact"),
		Notes:         utils.Ptr("Key account."),
	}
	err := repo.UpdateCompany(ctx, update)
	assert.NoError(t, err, "UpdateCompany should not return an error")

	updated, err := repo.GetCompany(ctx, company.ID)
	assert.NoError(t, err)
	assert.Equal(t, "New Contact", updated.ContactPerson)
	assert.Equal(t, "Key account.", updated.Notes)
	assert.Equal(t, "Acme Corp", updated.Name, "fields not in the update must be untouched")
}

func TestUpdateCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	update := &models.CompanyUpdate{
		ID:    uuid.New(),
		Email: utils.Ptr("nobody@example.com"),
	}
	err := repo.UpdateCompany(ctx, update)
	assert.ErrorIs(t, err, e.ErrNotFound, "UpdateCompany should return ErrNotFound for missing company")
}

func TestUpdateCompanyEmptyUpdate(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.UpdateCompany(ctx, &models.CompanyUpdate{ID: uuid.New()})
	assert.NoError(t, err, "an update with no fields is a no-op, not an error")
}

func TestCompanyExistsByName(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	exists, err := repo.CompanyExistsByName(ctx, "Non-existent")
	assert.NoError(t, err)
	assert.False(t, exists, "Non-existent company should return false")

	require.NoError(t, repo.CreateCompany(ctx, &models.Company{Name: "Existing Company"}))

	exists, err = repo.CompanyExistsByName(ctx, "Existing Company")
	assert.NoError(t, err)
	assert.True(t, exists, "Existing company should return true")
}

func TestContractLifecycle(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Acme Corp"}
	require.NoError(t, repo.CreateCompany(ctx, company))

	contract := &models.Contract{
		ContractNumber: "A-100",
		AmountDue:      250.00,
		DateIn:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CompanyID:      company.ID,
	}
	require.NoError(t, repo.CreateContract(ctx, contract))

	found, err := repo.GetContract(ctx, company.ID, "A-100")
	require.NoError(t, err)
	assert.Equal(t, 250.00, found.AmountDue)
	assert.False(t, found.Paid)

	found.AmountDue = 300.00
	found.Paid = true
	require.NoError(t, repo.UpdateContract(ctx, found))

	updated, err := repo.GetContract(ctx, company.ID, "A-100")
	require.NoError(t, err)
	assert.Equal(t, 300.00, updated.AmountDue)
	assert.True(t, updated.Paid)
}

func TestGetContractScopedToCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := &models.Company{Name: "First Co"}
	second := &models.Company{Name: "Second Co"}
	require.NoError(t, repo.CreateCompany(ctx, first))
	require.NoError(t, repo.CreateCompany(ctx, second))

	// The same contract number may exist under both companies.
	require.NoError(t, repo.CreateContract(ctx, &models.Contract{
		ContractNumber: "C-1", AmountDue: 10, DateIn: time.Now(), CompanyID: first.ID,
	}))
	require.NoError(t, repo.CreateContract(ctx, &models.Contract{
		ContractNumber: "C-1", AmountDue: 20, DateIn: time.Now(), CompanyID: second.ID,
	}))

	got, err := repo.GetContract(ctx, second.ID, "C-1")
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.AmountDue)

	_, err = repo.GetContract(ctx, first.ID, "C-2")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListContractsByPaid(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Acme Corp"}
	require.NoError(t, repo.CreateCompany(ctx, company))

	require.NoError(t, repo.CreateContract(ctx, &models.Contract{
		ContractNumber: "A-1", DateIn: time.Now(), Paid: false, CompanyID: company.ID,
	}))
	require.NoError(t, repo.CreateContract(ctx, &models.Contract{
		ContractNumber: "A-2", DateIn: time.Now(), Paid: true, CompanyID: company.ID,
	}))

	unpaid, err := repo.ListContractsByPaid(ctx, company.ID, false)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "A-1", unpaid[0].ContractNumber)

	paid, err := repo.ListContractsByPaid(ctx, company.ID, true)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "A-2", paid[0].ContractNumber)
}

func TestActivityLogAppend(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{Name: "Acme Corp"}
	require.NoError(t, repo.CreateCompany(ctx, company))

	entry := &models.ActivityLog{
		Employee:  "Jordan",
		Action:    string(models.ActionCallMade),
		Details:   "Left a voicemail.",
		CompanyID: &company.ID,
	}
	require.NoError(t, repo.CreateActivity(ctx, entry))
	assert.False(t, entry.Timestamp.IsZero(), "timestamp should default on insert")

	entries, err := repo.ListActivities(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Jordan", entries[0].Employee)

	employees, err := repo.DistinctEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jordan"}, employees)
}

func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		return txRepo.CreateCompany(ctx, &models.Company{Name: "Transactional Company"})
	})
	assert.NoError(t, err, "WithTransaction should execute successfully")

	exists, _ := repo.CompanyExistsByName(ctx, "Transactional Company")
	assert.True(t, exists, "Company should exist after transaction")
}

func TestWithTransactionRollback(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	sentinel := e.ErrCommit
	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		if err := txRepo.CreateCompany(ctx, &models.Company{Name: "Doomed Company"}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	exists, _ := repo.CompanyExistsByName(ctx, "Doomed Company")
	assert.False(t, exists, "Company should not persist after rollback")
}
