package models

import (
	"time"
)

// Base carries the surrogate key and timestamps shared by most tables.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// All lists every model that has a table, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Property{},
		&Project{},
		&Inquiry{},
		&InquiryMessage{},
		&Sale{},
		&SaleTransaction{},
		&Currency{},
		&ProjectCost{},
		&ProjectCompensation{},
	}
}
