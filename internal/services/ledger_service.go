package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

// ILedgerService is CRUD over project costs and compensations plus in-memory reports.
type ILedgerService interface {
	CreateCost(ctx context.Context, in LedgerInput) (*models.ProjectCost, error)
	GetCost(ctx context.Context, id uint) (*models.ProjectCost, error)
	UpdateCost(ctx context.Context, id uint, in LedgerInput) (*models.ProjectCost, error)
	DeleteCost(ctx context.Context, id uint) error
	ListCosts(ctx context.Context, projectSlug string) (*LedgerReport[models.ProjectCost], error)

	CreateCompensation(ctx context.Context, in LedgerInput) (*models.ProjectCompensation, error)
	GetCompensation(ctx context.Context, id uint) (*models.ProjectCompensation, error)
	UpdateCompensation(ctx context.Context, id uint, in LedgerInput) (*models.ProjectCompensation, error)
	DeleteCompensation(ctx context.Context, id uint) error
	ListCompensations(ctx context.Context, projectSlug string) (*LedgerReport[models.ProjectCompensation], error)
}

// LedgerInput is the full set of writable columns; amounts are stored as supplied.
type LedgerInput struct {
	ProjectID     uint
	Date          time.Time
	Category      string
	Description   string
	AmountPesos   decimal.Decimal
	DollarRate    decimal.Decimal
	AmountDollars decimal.Decimal
	InvestorID    *uint
}

type Totals struct {
	Pesos   decimal.Decimal `json:"pesos"`
	Dollars decimal.Decimal `json:"dollars"`
}

type LedgerSummary struct {
	TotalPesos   decimal.Decimal   `json:"totalPesos"`
	TotalDollars decimal.Decimal   `json:"totalDollars"`
	ByCategory   map[string]Totals `json:"byCategory"`
	ByMonth      map[string]Totals `json:"byMonth"`
}

type LedgerReport[T any] struct {
	Entries []T           `json:"entries"`
	Summary LedgerSummary `json:"summary"`
}

// Summarize reduces entries into totals grouped by category and by "YYYY-MM" month.
func Summarize(entries []*models.LedgerEntry) LedgerSummary {
	summary := LedgerSummary{
		ByCategory: map[string]Totals{},
		ByMonth:    map[string]Totals{},
	}
	for _, e := range entries {
		summary.TotalPesos = summary.TotalPesos.Add(e.AmountPesos)
		summary.TotalDollars = summary.TotalDollars.Add(e.AmountDollars)

		cat := summary.ByCategory[e.Category]
		cat.Pesos = cat.Pesos.Add(e.AmountPesos)
		cat.Dollars = cat.Dollars.Add(e.AmountDollars)
		summary.ByCategory[e.Category] = cat

		key := e.Date.UTC().Format("2006-01")
		month := summary.ByMonth[key]
		month.Pesos = month.Pesos.Add(e.AmountPesos)
		month.Dollars = month.Dollars.Add(e.AmountDollars)
		summary.ByMonth[key] = month
	}
	return summary
}

// ledgerRow is satisfied by *models.ProjectCost and *models.ProjectCompensation.
type ledgerRow[T any] interface {
	*T
	Entry() *models.LedgerEntry
}

type ledgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) ILedgerService {
	return &ledgerService{db: db}
}

func validateLedgerInput(in LedgerInput) error {
	switch {
	case in.ProjectID == 0:
		return validationErrorf("projectId is required")
	case in.Date.IsZero():
		return validationErrorf("date is required")
	case strings.TrimSpace(in.Category) == "":
		return validationErrorf("category is required")
	case in.AmountPesos.IsNegative():
		return validationErrorf("amountPesos must not be negative")
	case !in.DollarRate.IsPositive():
		return validationErrorf("dollarRate must be greater than zero")
	case in.AmountDollars.IsNegative():
		return validationErrorf("amountDollars must not be negative")
	}
	return nil
}

func (s *ledgerService) checkProject(tx *gorm.DB, projectID uint) error {
	var project models.Project
	if err := tx.Select("id").First(&project, projectID).Error; err != nil {
		return lookupError("project", projectID, err)
	}
	return nil
}

func applyLedgerInput(e *models.LedgerEntry, in LedgerInput) {
	e.ProjectID = in.ProjectID
	e.Date = in.Date.UTC()
	e.Category = strings.TrimSpace(in.Category)
	e.Description = strings.TrimSpace(in.Description)
	e.AmountPesos = in.AmountPesos
	e.DollarRate = in.DollarRate
	e.AmountDollars = in.AmountDollars
}

func createEntry[T any, PT ledgerRow[T]](ctx context.Context, s *ledgerService, in LedgerInput, extra func(PT)) (*T, error) {
	if err := validateLedgerInput(in); err != nil {
		return nil, err
	}
	row := new(T)
	applyLedgerInput(PT(row).Entry(), in)
	if extra != nil {
		extra(PT(row))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkProject(tx, in.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return writeError("creating ledger entry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func getEntry[T any](ctx context.Context, s *ledgerService, entity string, id uint) (*T, error) {
	row := new(T)
	if err := s.db.WithContext(ctx).First(row, id).Error; err != nil {
		return nil, lookupError(entity, id, err)
	}
	return row, nil
}

func updateEntry[T any, PT ledgerRow[T]](ctx context.Context, s *ledgerService, entity string, id uint, in LedgerInput, extra func(PT)) (*T, error) {
	if err := validateLedgerInput(in); err != nil {
		return nil, err
	}
	row := new(T)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(row, id).Error; err != nil {
			return lookupError(entity, id, err)
		}
		if err := s.checkProject(tx, in.ProjectID); err != nil {
			return err
		}
		applyLedgerInput(PT(row).Entry(), in)
		if extra != nil {
			extra(PT(row))
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("error updating %s %d: %w", entity, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func deleteEntry[T any](ctx context.Context, s *ledgerService, entity string, id uint) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("error deleting %s %d: %w", entity, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return lookupError(entity, id, gorm.ErrRecordNotFound)
	}
	return nil
}

func listEntries[T any, PT ledgerRow[T]](ctx context.Context, s *ledgerService, projectSlug string) (*LedgerReport[T], error) {
	q := s.db.WithContext(ctx).Order("date ASC, id ASC")
	if projectSlug != "" {
		var project models.Project
		if err := s.db.WithContext(ctx).Where("slug = ?", projectSlug).First(&project).Error; err != nil {
			return nil, lookupError("project", projectSlug, err)
		}
		q = q.Where("project_id = ?", project.ID)
	}
	rows := []T{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error listing ledger entries: %w", err)
	}
	entries := make([]*models.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = PT(&rows[i]).Entry()
	}
	return &LedgerReport[T]{Entries: rows, Summary: Summarize(entries)}, nil
}

func (s *ledgerService) CreateCost(ctx context.Context, in LedgerInput) (*models.ProjectCost, error) {
	return createEntry[models.ProjectCost](ctx, s, in, nil)
}

func (s *ledgerService) GetCost(ctx context.Context, id uint) (*models.ProjectCost, error) {
	return getEntry[models.ProjectCost](ctx, s, "cost", id)
}

func (s *ledgerService) UpdateCost(ctx context.Context, id uint, in LedgerInput) (*models.ProjectCost, error) {
	return updateEntry[models.ProjectCost](ctx, s, "cost", id, in, nil)
}

func (s *ledgerService) DeleteCost(ctx context.Context, id uint) error {
	return deleteEntry[models.ProjectCost](ctx, s, "cost", id)
}

func (s *ledgerService) ListCosts(ctx context.Context, projectSlug string) (*LedgerReport[models.ProjectCost], error) {
	return listEntries[models.ProjectCost](ctx, s, projectSlug)
}

func setInvestor(in LedgerInput) func(*models.ProjectCompensation) {
	return func(c *models.ProjectCompensation) {
		c.InvestorID = in.InvestorID
	}
}

func (s *ledgerService) CreateCompensation(ctx context.Context, in LedgerInput) (*models.ProjectCompensation, error) {
	return createEntry[models.ProjectCompensation](ctx, s, in, setInvestor(in))
}

func (s *ledgerService) GetCompensation(ctx context.Context, id uint) (*models.ProjectCompensation, error) {
	return getEntry[models.ProjectCompensation](ctx, s, "compensation", id)
}

func (s *ledgerService) UpdateCompensation(ctx context.Context, id uint, in LedgerInput) (*models.ProjectCompensation, error) {
	return updateEntry[models.ProjectCompensation](ctx, s, "compensation", id, in, setInvestor(in))
}

func (s *ledgerService) DeleteCompensation(ctx context.Context, id uint) error {
	return deleteEntry[models.ProjectCompensation](ctx, s, "compensation", id)
}

func (s *ledgerService) ListCompensations(ctx context.Context, projectSlug string) (*LedgerReport[models.ProjectCompensation], error) {
	return listEntries[models.ProjectCompensation](ctx, s, projectSlug)
}
