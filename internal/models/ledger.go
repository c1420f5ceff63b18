package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry holds the columns shared by costs and compensations.
// AmountDollars is supplied by the caller and stored as is.
type LedgerEntry struct {
	Base
	ProjectID     uint            `gorm:"not null;index" json:"projectId"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	Category      string          `gorm:"size:100;not null" json:"category"`
	Description   string          `gorm:"type:text" json:"description"`
	AmountPesos   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amountPesos"`
	DollarRate    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"dollarRate"`
	AmountDollars decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amountDollars"`
}

// Entry exposes the shared columns of a cost or compensation.
func (e *LedgerEntry) Entry() *LedgerEntry {
	return e
}

type ProjectCost struct {
	LedgerEntry
}

func (ProjectCost) TableName() string {
	return "proyect_costs"
}

type ProjectCompensation struct {
	LedgerEntry
	InvestorID *uint `gorm:"index" json:"investorId"`
	Investor   *User `gorm:"foreignKey:InvestorID" json:"investor,omitempty"`
}

func (ProjectCompensation) TableName() string {
	return "proyect_compensations"
}
