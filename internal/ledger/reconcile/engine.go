package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/autohive/arledger/internal/ledger/activity"
	"github.com/autohive/arledger/internal/ledger/db"
	e "github.com/autohive/arledger/internal/ledger/errors"
	"github.com/autohive/arledger/internal/ledger/models"
	"go.uber.org/zap"
)

const (
	// SelfPayCompany is the umbrella company that collects individual
	// walk-in payers from the unlabeled self-pay ledger segment.
	SelfPayCompany = "SELF-PAY"

	// selfPayPrefix marks the row that opens the self-pay segment: an
	// empty company cell whose contract number carries this prefix.
	selfPayPrefix = "ROME-"

	paidCell   = "Yes"
	dateLayout = "01/02/2006"
)

// Placeholder fields for companies created as stubs during reconciliation,
// awaiting manual enrichment.
const (
	placeholderContact = "Unknown Contact"
	placeholderField   = "N/A"
	placeholderNotes   = "No additional notes provided."
)

// Result counts the mutations one reconciliation pass performed.
type Result struct {
	CompaniesCreated int `json:"companies_created"`
	ContractsCreated int `json:"contracts_created"`
	ContractsUpdated int `json:"contracts_updated"`
	ContractsSettled int `json:"contracts_settled"`
	RowsSkipped      int `json:"rows_skipped"`
}

// Engine applies a parsed ledger extract to the store. The extract is
// authoritative: contracts it does not mention are presumed collected.
type Engine struct {
	repo     *db.Repository
	activity *activity.Logger
	logger   *zap.Logger
	now      func() time.Time
}

func NewEngine(repo *db.Repository, act *activity.Logger, logger *zap.Logger) *Engine {
	return &Engine{
		repo:     repo,
		activity: act,
		logger:   logger.Named("reconcile"),
		now:      time.Now,
	}
}

// Reconcile walks the rows in file order, creating or overwriting
// companies and contracts, then settles every previously-open contract the
// extract no longer mentions. All mutations happen in one transaction:
// either the whole pass persists or none of it does. Malformed rows are
// logged and skipped without aborting the batch.
func (en *Engine) Reconcile(ctx context.Context, rows []Row) (*Result, error) {
	res := &Result{}
	err := en.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		// Contract numbers seen per company this upload, keyed by the
		// exact company name.
		seen := make(map[string]map[string]bool)
		companies := make(map[string]*models.Company)
		selfPay := false

		for i, row := range rows {
			name := row.CompanyName
			if name == "" && strings.HasPrefix(row.ContractNumber, selfPayPrefix) && row.AmountDue != "" {
				// Entering the self-pay segment. The mode is sticky:
				// nothing in the file format ever terminates it.
				selfPay = true
			}
			if name == "" {
				if !selfPay {
					res.RowsSkipped++
					continue
				}
				name = SelfPayCompany
			}

			amount, dateIn, paid, rowErr := en.coerce(i, row)
			if rowErr != nil {
				en.logger.Warn("skipping malformed ledger row", zap.Error(rowErr))
				res.RowsSkipped++
				continue
			}

			company, err := en.companyByName(ctx, tx, companies, name, res)
			if err != nil {
				return err
			}

			contract, err := tx.GetContract(ctx, company.ID, row.ContractNumber)
			switch {
			case err == nil:
				// Last-seen-wins: the new extract overwrites
				// unconditionally, no diff or merge.
				contract.AmountDue = amount
				contract.Paid = paid
				contract.DateIn = dateIn
				if err := tx.UpdateContract(ctx, contract); err != nil {
					return err
				}
				res.ContractsUpdated++
			case errors.Is(err, e.ErrNotFound):
				contract = &models.Contract{
					ContractNumber: row.ContractNumber,
					AmountDue:      amount,
					DateIn:         dateIn,
					Paid:           paid,
					CompanyID:      company.ID,
				}
				if err := tx.CreateContract(ctx, contract); err != nil {
					return err
				}
				res.ContractsCreated++
			default:
				return err
			}

			if seen[name] == nil {
				seen[name] = make(map[string]bool)
			}
			seen[name][row.ContractNumber] = true
		}

		return en.settleAbsent(ctx, tx, seen, res)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrCommit, err)
	}

	en.logger.Info("ledger reconciled",
		zap.Int("companies_created", res.CompaniesCreated),
		zap.Int("contracts_created", res.ContractsCreated),
		zap.Int("contracts_updated", res.ContractsUpdated),
		zap.Int("contracts_settled", res.ContractsSettled),
		zap.Int("rows_skipped", res.RowsSkipped),
	)
	return res, nil
}

// settleAbsent marks as paid every unpaid contract whose number was not
// seen for its company this upload. A company missing from the upload
// entirely has all of its open contracts settled.
func (en *Engine) settleAbsent(ctx context.Context, tx *db.Repository, seen map[string]map[string]bool, res *Result) error {
	all, err := tx.ListCompanies(ctx)
	if err != nil {
		return err
	}
	for _, company := range all {
		numbers := seen[company.Name]
		unpaid, err := tx.ListContractsByPaid(ctx, company.ID, false)
		if err != nil {
			return err
		}
		for _, contract := range unpaid {
			if numbers[contract.ContractNumber] {
				continue
			}
			contract.Paid = true
			if err := tx.UpdateContract(ctx, &contract); err != nil {
				return err
			}
			details := fmt.Sprintf("Contract %s absent from latest A/R extract; marked as paid.", contract.ContractNumber)
			companyID := company.ID
			if _, err := en.activity.Record(ctx, tx, models.SystemEmployee, models.ActionMarkedPaid, details, &companyID); err != nil {
				return err
			}
			res.ContractsSettled++
		}
	}
	return nil
}

// companyByName resolves a company by exact name, creating a placeholder
// stub on first reference. The per-upload cache keeps repeated rows for
// one company from re-querying.
func (en *Engine) companyByName(ctx context.Context, tx *db.Repository, cache map[string]*models.Company, name string, res *Result) (*models.Company, error) {
	if company, ok := cache[name]; ok {
		return company, nil
	}
	company, err := tx.GetCompanyByName(ctx, name)
	if errors.Is(err, e.ErrNotFound) {
		company = &models.Company{
			Name:          name,
			ContactPerson: placeholderContact,
			PhoneNumber:   placeholderField,
			Email:         placeholderField,
			Address:       placeholderField,
			Notes:         placeholderNotes,
		}
		if err := tx.CreateCompany(ctx, company); err != nil {
			return nil, err
		}
		res.CompaniesCreated++
	} else if err != nil {
		return nil, err
	}
	cache[name] = company
	return company, nil
}

// coerce converts a row's string cells into typed values. A non-numeric
// amount fails the row; an unparseable date only degrades to the current
// processing date.
func (en *Engine) coerce(index int, row Row) (float64, time.Time, bool, error) {
	amount := 0.0
	if row.AmountDue != "" {
		v, err := strconv.ParseFloat(row.AmountDue, 64)
		if err != nil {
			return 0, time.Time{}, false, &e.RowError{
				Index:  index,
				Reason: fmt.Errorf("bad amount %q: %v", row.AmountDue, err),
			}
		}
		amount = v
	}

	dateIn := en.now()
	if row.DateIn != "" {
		t, err := time.Parse(dateLayout, row.DateIn)
		if err != nil {
			en.logger.Warn("unparseable date cell, using processing date",
				zap.Int("row", index),
				zap.String("date_in", row.DateIn),
			)
		} else {
			dateIn = t
		}
	}

	return amount, dateIn, row.Paid == paidCell, nil
}
