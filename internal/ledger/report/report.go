// Package report assembles read-only views over the store: dashboard,
// statistics, the current A/R report, and company listings. No business
// logic beyond summation and filtering lives here.
package report

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/autohive/arledger/internal/ledger/db"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// OverdueAfter is the age at which an unpaid contract shows on the
	// dashboard.
	OverdueAfter = 90 * 24 * time.Hour
	// InactiveAfter is how long a company can go without logged activity
	// before it is flagged for follow-up.
	InactiveAfter = 30 * 24 * time.Hour

	dateLayout = "01/02/2006"
)

type Dashboard struct {
	OverdueContracts  []db.OverdueContract `json:"overdue_contracts"`
	InactiveCompanies []models.Company     `json:"inactive_companies"`
}

type Stats struct {
	TotalBalance       float64 `json:"total_balance"`
	TotalContracts     int64   `json:"total_contracts"`
	TotalPaidContracts int64   `json:"total_paid_contracts"`
	CallsMade          int64   `json:"calls_made"`
	EmailsSent         int64   `json:"emails_sent"`
	AttemptsMade       int64   `json:"attempts_made"`
	PaymentsMade       int64   `json:"payments_made"`
}

type ContractLine struct {
	ContractNumber string  `json:"contract_number"`
	AmountDue      float64 `json:"amount_due"`
	DateIn         string  `json:"date_in"`
	Paid           bool    `json:"paid"`
}

type CompanyAR struct {
	CompanyID   uuid.UUID      `json:"company_id"`
	CompanyName string         `json:"company_name"`
	Contracts   []ContractLine `json:"contracts"`
}

type CurrentAR struct {
	Companies    []CompanyAR `json:"companies"`
	TotalBalance float64     `json:"total_balance"`
}

type CompanySummary struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	ContractsCount     int64     `json:"contracts_count"`
	OutstandingBalance float64   `json:"outstanding_balance"`
}

type ActivityFeed struct {
	Entries   []models.ActivityLog `json:"entries"`
	Employees []string             `json:"employees"`
}

type CompanyProfile struct {
	Company         *models.Company      `json:"company"`
	UnpaidContracts []models.Contract    `json:"unpaid_contracts"`
	PaidContracts   []models.Contract    `json:"paid_contracts"`
	TotalUnpaid     float64              `json:"total_unpaid"`
	TotalPaid       float64              `json:"total_paid"`
	RecentActivity  []models.ActivityLog `json:"recent_activity"`
}

type Service struct {
	repo   *db.Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo *db.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.Named("report"),
		now:    time.Now,
	}
}

// Dashboard lists contracts 90+ days overdue and companies with no
// contact in 30+ days.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	overdue, err := s.repo.OverdueContracts(ctx, now.Add(-OverdueAfter))
	if err != nil {
		return nil, err
	}
	inactive, err := s.repo.InactiveCompanies(ctx, now.Add(-InactiveAfter))
	if err != nil {
		return nil, err
	}
	return &Dashboard{OverdueContracts: overdue, InactiveCompanies: inactive}, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	balance, err := s.repo.OutstandingBalance(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountContracts(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.CountContractsByPaid(ctx, true)
	if err != nil {
		return nil, err
	}
	calls, err := s.repo.CountActivitiesByAction(ctx, models.ActionCallMade)
	if err != nil {
		return nil, err
	}
	emails, err := s.repo.CountActivitiesByAction(ctx, models.ActionEmailSent)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.CountActivitiesByAction(ctx, models.ActionMarkedPaid)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalBalance:       balance,
		TotalContracts:     total,
		TotalPaidContracts: paid,
		CallsMade:          calls,
		EmailsSent:         emails,
		AttemptsMade:       calls + emails,
		PaymentsMade:       payments,
	}, nil
}

// CurrentAR reports every company's contracts along with the total
// outstanding balance across unpaid ones.
func (s *Service) CurrentAR(ctx context.Context) (*CurrentAR, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}

	out := &CurrentAR{Companies: make([]CompanyAR, 0, len(companies))}
	for _, company := range companies {
		contracts, err := s.repo.ListContracts(ctx, company.ID)
		if err != nil {
			return nil, err
		}
		ar := CompanyAR{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Contracts:   make([]ContractLine, 0, len(contracts)),
		}
		for _, contract := range contracts {
			ar.Contracts = append(ar.Contracts, ContractLine{
				ContractNumber: contract.ContractNumber,
				AmountDue:      contract.AmountDue,
				DateIn:         contract.DateIn.Format(dateLayout),
				Paid:           contract.Paid,
			})
			if !contract.Paid {
				out.TotalBalance += contract.AmountDue
			}
		}
		out.Companies = append(out.Companies, ar)
	}
	return out, nil
}

// CompanyList summarizes every company, optionally filtered by a
// case-insensitive substring of the name or the balance figure.
func (s *Service) CompanyList(ctx context.Context, query string) ([]CompanySummary, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]CompanySummary, 0, len(companies))
	for _, company := range companies {
		count, err := s.repo.CountContractsForCompany(ctx, company.ID)
		if err != nil {
			return nil, err
		}
		balance, err := s.repo.CompanyOutstandingBalance(ctx, company.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, CompanySummary{
			ID:                 company.ID,
			Name:               company.Name,
			ContractsCount:     count,
			OutstandingBalance: balance,
		})
	}

	if query == "" {
		return summaries, nil
	}
	q := strings.ToLower(query)
	filtered := summaries[:0]
	for _, summary := range summaries {
		if strings.Contains(strings.ToLower(summary.Name), q) ||
			strings.Contains(strings.ToLower(formatBalance(summary.OutstandingBalance)), q) {
			filtered = append(filtered, summary)
		}
	}
	return filtered, nil
}

// CompanyProfile assembles one company's full picture. Blank contact
// fields render as placeholders so the profile never shows empty cells.
func (s *Service) CompanyProfile(ctx context.Context, id uuid.UUID) (*CompanyProfile, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	fillDefaults(company)

	unpaid, err := s.repo.ListContractsByPaid(ctx, id, false)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.ListContractsByPaid(ctx, id, true)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListActivities(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &CompanyProfile{
		Company:         company,
		UnpaidContracts: unpaid,
		PaidContracts:   paid,
		RecentActivity:  recent,
	}
	for _, contract := range unpaid {
		profile.TotalUnpaid += contract.AmountDue
	}
	for _, contract := range paid {
		profile.TotalPaid += contract.AmountDue
	}
	return profile, nil
}

// ActivityFeed lists every audit entry newest-first, plus the distinct
// employee names that appear in them.
func (s *Service) ActivityFeed(ctx context.Context) (*ActivityFeed, error) {
	entries, err := s.repo.ListAllActivities(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.repo.DistinctEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return &ActivityFeed{Entries: entries, Employees: employees}, nil
}

func fillDefaults(company *models.Company) {
	if company.ContactPerson == "" {
		company.ContactPerson = "N/A"
	}
	if company.PhoneNumber == "" {
		company.PhoneNumber = "N/A"
	}
	if company.Email == "" {
		company.Email = "N/A"
	}
	if company.Address == "" {
		company.Address = "N/A"
	}
	if company.Notes == "" {
		company.Notes = "No notes available."
	}
}

func formatBalance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
