package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Legalistas/brixar-sub002/internal/utils"
)

type SaleStatus string

const (
	SalePending    SaleStatus = "PENDING"
	SaleProcessing SaleStatus = "PROCESSING"
	SaleCompleted  SaleStatus = "COMPLETED"
	SaleCancelled  SaleStatus = "CANCELLED"
)

var saleTransitions = map[SaleStatus][]SaleStatus{
	SalePending:    {SaleProcessing, SaleCancelled},
	SaleProcessing: {SaleCompleted, SaleCancelled},
}

func (s SaleStatus) Valid() bool {
	switch s {
	case SalePending, SaleProcessing, SaleCompleted, SaleCancelled:
		return true
	}
	return false
}

// CanMoveTo reports whether next is a legal successor. COMPLETED and CANCELLED are terminal.
func (s SaleStatus) CanMoveTo(next SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SaleDocument is one entry of Sale.Documents.
type SaleDocument struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"uploadDate"`
}

// Sale is the committed outcome of a negotiation, or a direct staff sale.
type Sale struct {
	Base
	Reference        utils.RefCode     `gorm:"type:char(10);not null;uniqueIndex" json:"reference"`
	PropertyID       uint              `gorm:"not null;index" json:"propertyId"`
	Property         *Property         `json:"property,omitempty"`
	BuyerID          uint              `gorm:"not null;index" json:"buyerId"`
	Buyer            *User             `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID         *uint             `gorm:"index" json:"sellerId"`
	Seller           *User             `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	InquiryID        *uint             `gorm:"uniqueIndex" json:"inquiryId"`
	Inquiry          *Inquiry          `json:"-"`
	Price            decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"price"`
	Status           SaleStatus        `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PaymentMethod    string            `gorm:"size:100" json:"paymentMethod"`
	PaymentReference string            `gorm:"size:255" json:"paymentReference"`
	Documents        datatypes.JSON    `gorm:"type:json" json:"documents"`
	Notes            string            `gorm:"type:text" json:"notes"`
	Transactions     []SaleTransaction `gorm:"foreignKey:SaleID" json:"transactions,omitempty"`
}

// DocumentList decodes Documents; an empty column yields an empty list.
func (s *Sale) DocumentList() ([]SaleDocument, error) {
	docs := []SaleDocument{}
	if len(s.Documents) == 0 || string(s.Documents) == "null" {
		return docs, nil
	}
	if err := json.Unmarshal(s.Documents, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Sale) SetDocuments(docs []SaleDocument) error {
	if docs == nil {
		docs = []SaleDocument{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	s.Documents = datatypes.JSON(raw)
	return nil
}

type TransactionType string

const (
	TransactionDeposit      TransactionType = "DEPOSIT"
	TransactionInstallment  TransactionType = "INSTALLMENT"
	TransactionFinalPayment TransactionType = "FINAL_PAYMENT"
	TransactionRefund       TransactionType = "REFUND"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionInstallment, TransactionFinalPayment, TransactionRefund:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionFailed:
		return true
	}
	return false
}

// SaleTransaction is an append-only payment event on a sale.
type SaleTransaction struct {
	Base
	SaleID        uint              `gorm:"not null;index" json:"saleId"`
	Amount        decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	Type          TransactionType   `gorm:"type:varchar(20);not null" json:"type"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	PaymentMethod string            `gorm:"size:100" json:"paymentMethod"`
	Reference     string            `gorm:"size:255" json:"reference"`
	Notes         string            `gorm:"type:text" json:"notes"`
}
