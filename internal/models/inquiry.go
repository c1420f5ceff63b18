package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InquiryStatus string

const (
	InquiryOpen       InquiryStatus = "OPEN"
	InquiryInProgress InquiryStatus = "IN_PROGRESS"
	InquiryClosed     InquiryStatus = "CLOSED"
	InquiryResolved   InquiryStatus = "RESOLVED"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryOpen, InquiryInProgress, InquiryClosed, InquiryResolved:
		return true
	}
	return false
}

// Terminal reports whether the thread is closed for acceptance.
func (s InquiryStatus) Terminal() bool {
	return s == InquiryClosed || s == InquiryResolved
}

// Inquiry is a negotiation thread between one customer and the staff over one property.
type Inquiry struct {
	Base
	Title           string           `gorm:"size:255;not null" json:"title"`
	PropertyID      uint             `gorm:"not null;index" json:"propertyId"`
	Property        *Property        `json:"property,omitempty"`
	UserID          uint             `gorm:"not null;index" json:"userId"`
	User            *User            `json:"user,omitempty"`
	Status          InquiryStatus    `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	OfferedPrice    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"offeredPrice"`
	NegotiatedPrice *decimal.Decimal `gorm:"type:decimal(20,4)" json:"negotiatedPrice"`
	AdminAccepted   bool             `gorm:"not null;default:false" json:"adminAccepted"`
	ClientAccepted  bool             `gorm:"not null;default:false" json:"clientAccepted"`
	Messages        []InquiryMessage `gorm:"foreignKey:InquiryID" json:"messages,omitempty"`
}

// InquiryMessage is one append-only entry in an inquiry thread.
type InquiryMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	InquiryID uint      `gorm:"not null;index" json:"inquiryId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}
