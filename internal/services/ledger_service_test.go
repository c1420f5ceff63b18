package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

func ledgerInput(projectID uint, date string, category string, pesos, rate int64) LedgerInput {
	d, _ := time.Parse("2006-01-02", date)
	return LedgerInput{
		ProjectID:     projectID,
		Date:          d,
		Category:      category,
		AmountPesos:   decimal.NewFromInt(pesos),
		DollarRate:    decimal.NewFromInt(rate),
		AmountDollars: decimal.NewFromInt(pesos / rate),
	}
}

func TestSummarize(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	entries := []*models.LedgerEntry{
		{Date: jan, Category: "materiales", AmountPesos: decimal.NewFromInt(100000), AmountDollars: decimal.NewFromInt(100)},
		{Date: jan, Category: "mano de obra", AmountPesos: decimal.NewFromInt(50000), AmountDollars: decimal.NewFromInt(50)},
		{Date: feb, Category: "materiales", AmountPesos: decimal.NewFromInt(20000), AmountDollars: decimal.NewFromInt(16)},
	}

	summary := Summarize(entries)
	assert.True(t, summary.TotalPesos.Equal(decimal.NewFromInt(170000)))
	assert.True(t, summary.TotalDollars.Equal(decimal.NewFromInt(166)))
	require.Len(t, summary.ByCategory, 2)
	assert.True(t, summary.ByCategory["materiales"].Pesos.Equal(decimal.NewFromInt(120000)))
	assert.True(t, summary.ByCategory["materiales"].Dollars.Equal(decimal.NewFromInt(116)))
	require.Len(t, summary.ByMonth, 2)
	assert.True(t, summary.ByMonth["2024-01"].Pesos.Equal(decimal.NewFromInt(150000)))
	assert.True(t, summary.ByMonth["2024-02"].Dollars.Equal(decimal.NewFromInt(16)))

	empty := Summarize(nil)
	assert.True(t, empty.TotalPesos.IsZero())
	assert.Empty(t, empty.ByCategory)
}

func TestLedgerCosts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, admin := seedUser(t, db, models.RoleAdmin)
	project, err := NewProjectService(db).CreateProject(ctx, admin, "", "Torre Norte", "")
	require.NoError(t, err)
	other, err := NewProjectService(db).CreateProject(ctx, admin, "torre-sur", "Torre Sur", "")
	require.NoError(t, err)
	svc := NewLedgerService(db)

	bad := ledgerInput(project.ID, "2024-01-10", "materiales", 1000, 1)
	bad.DollarRate = decimal.Zero
	_, err = svc.CreateCost(ctx, bad)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateCost(ctx, ledgerInput(999, "2024-01-10", "materiales", 1000, 1))
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := svc.CreateCost(ctx, ledgerInput(project.ID, "2024-02-01", "materiales", 200000, 1000))
	require.NoError(t, err)
	_, err = svc.CreateCost(ctx, ledgerInput(project.ID, "2024-01-15", "mano de obra", 90000, 900))
	require.NoError(t, err)
	_, err = svc.CreateCost(ctx, ledgerInput(other.ID, "2024-01-15", "materiales", 5000, 1000))
	require.NoError(t, err)

	report, err := svc.ListCosts(ctx, "torre-norte")
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "mano de obra", report.Entries[0].Category, "entries are ordered by date")
	assert.True(t, report.Summary.TotalPesos.Equal(decimal.NewFromInt(290000)))
	assert.True(t, report.Summary.TotalDollars.Equal(decimal.NewFromInt(300)))
	assert.Contains(t, report.Summary.ByMonth, "2024-01")

	all, err := svc.ListCosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all.Entries, 3)

	_, err = svc.ListCosts(ctx, "no-such-project")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.UpdateCost(ctx, first.ID, ledgerInput(project.ID, "2024-02-01", "terminaciones", 300000, 1000))
	require.NoError(t, err)
	assert.Equal(t, "terminaciones", updated.Category)

	got, err := svc.GetCost(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountPesos.Equal(decimal.NewFromInt(300000)))

	require.NoError(t, svc.DeleteCost(ctx, first.ID))
	assert.ErrorIs(t, svc.DeleteCost(ctx, first.ID), ErrNotFound)
	_, err = svc.GetCost(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerCompensations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, admin := seedUser(t, db, models.RoleAdmin)
	investor, _ := seedUser(t, db, models.RoleInvestors)
	project, err := NewProjectService(db).CreateProject(ctx, admin, "", "Loteo Oeste", "")
	require.NoError(t, err)
	svc := NewLedgerService(db)

	in := ledgerInput(project.ID, "2024-03-01", "rendimiento", 100000, 1000)
	in.InvestorID = &investor.ID
	created, err := svc.CreateCompensation(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, created.InvestorID)
	assert.Equal(t, investor.ID, *created.InvestorID)

	in.InvestorID = nil
	updated, err := svc.UpdateCompensation(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Nil(t, updated.InvestorID)

	report, err := svc.ListCompensations(ctx, project.Slug)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.True(t, report.Summary.ByCategory["rendimiento"].Dollars.Equal(decimal.NewFromInt(100)))

	_, err = svc.GetCompensation(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, svc.DeleteCompensation(ctx, created.ID))
}
