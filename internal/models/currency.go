package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrencyCode is the display currency whose rate tracks the blue-dollar quote.
const BaseCurrencyCode = "ARS"

// Currency is an exchange rate keyed by its ISO code.
type Currency struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"size:8;not null;uniqueIndex" json:"code"`
	Name      string          `gorm:"size:100" json:"name"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rate"`
	Symbol    string          `gorm:"size:8" json:"symbol"`
	FlagCode  string          `gorm:"size:8" json:"flagCode"`
	ApiURL    *string         `gorm:"size:512" json:"apiUrl"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
