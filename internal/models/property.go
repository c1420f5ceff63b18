package models

import (
	"github.com/shopspring/decimal"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "AVAILABLE"
	PropertyReserved  PropertyStatus = "RESERVED"
	PropertySold      PropertyStatus = "SOLD"
)

// Property is a listing that inquiries and sales refer to.
type Property struct {
	Base
	Title        string          `gorm:"size:255;not null" json:"title"`
	Slug         string          `gorm:"size:191;not null;uniqueIndex" json:"slug"`
	Price        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	CurrencyCode string          `gorm:"size:8;not null;default:'USD'" json:"currencyCode"`
	Status       PropertyStatus  `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	SellerID     *uint           `json:"sellerId,omitempty"`
}
