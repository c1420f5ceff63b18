package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Legalistas/brixar-sub002/internal/db"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/utils"
)

// ISaleService manages sales, their documents and payment transactions.
type ISaleService interface {
	CreateSale(ctx context.Context, p Principal, in CreateSaleInput) (*models.Sale, error)
	ListSales(ctx context.Context, p Principal, status *models.SaleStatus) ([]models.Sale, error)
	ListSalesAdmin(ctx context.Context, p Principal) ([]models.Sale, error)
	ListSalesForBuyer(ctx context.Context, p Principal) ([]models.Sale, error)
	GetSale(ctx context.Context, p Principal, saleID uint) (*models.Sale, error)
	UpdateSale(ctx context.Context, p Principal, saleID uint, patch SalePatch) (*models.Sale, error)
	AddDocument(ctx context.Context, p Principal, saleID uint, in AddDocumentInput) (*models.Sale, error)
	AddTransaction(ctx context.Context, p Principal, saleID uint, in AddTransactionInput) (*models.SaleTransaction, error)
	ListTransactions(ctx context.Context, p Principal, saleID uint) ([]models.SaleTransaction, error)
}

type CreateSaleInput struct {
	PropertyID    uint
	BuyerID       uint
	Price         decimal.Decimal
	PaymentMethod string
	Notes         string
}

type SalePatch struct {
	Status           *models.SaleStatus
	Notes            *string
	PaymentMethod    *string
	PaymentReference *string
}

type AddDocumentInput struct {
	Name string
	Type string
	URL  string
}

type AddTransactionInput struct {
	Amount        decimal.Decimal
	Type          models.TransactionType
	Status        models.TransactionStatus
	PaymentMethod string
	Reference     string
	Notes         string
}

type saleService struct {
	db *gorm.DB
}

func NewSaleService(db *gorm.DB) ISaleService {
	return &saleService{db: db}
}

// insertSale assigns a fresh reference code and inserts the sale, retrying on code collisions.
func insertSale(tx *gorm.DB, sale *models.Sale) error {
	if sale.Documents == nil {
		if err := sale.SetDocuments(nil); err != nil {
			return err
		}
	}
	err := db.Try(func() error {
		sale.ID = 0
		sale.Reference = utils.NewRefCode()
		return tx.Omit(clause.Associations).Create(sale).Error
	})
	if err != nil {
		return writeError("creating sale", err)
	}
	return nil
}

// reserveProperty moves an AVAILABLE property to RESERVED.
func reserveProperty(tx *gorm.DB, propertyID uint) error {
	res := tx.Model(&models.Property{}).
		Where("id = ? AND status = ?", propertyID, models.PropertyAvailable).
		Update("status", models.PropertyReserved)
	if res.Error != nil {
		return fmt.Errorf("error reserving property %d: %w", propertyID, res.Error)
	}
	if res.RowsAffected == 0 {
		var property models.Property
		if err := tx.Select("id", "status").First(&property, propertyID).Error; err != nil {
			return lookupError("property", propertyID, err)
		}
		return conflictErrorf("property %d is %s", propertyID, property.Status)
	}
	return nil
}

func requireStaff(p Principal) error {
	if !p.HasRole(StaffRoles...) {
		return forbiddenErrorf("administrator or seller role required")
	}
	return nil
}

func (s *saleService) CreateSale(ctx context.Context, p Principal, in CreateSaleInput) (*models.Sale, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if in.PropertyID == 0 || in.BuyerID == 0 {
		return nil, validationErrorf("propertyId and buyerId are required")
	}
	if !in.Price.IsPositive() {
		return nil, validationErrorf("price must be greater than zero")
	}

	sellerID := p.UserID
	sale := &models.Sale{
		PropertyID:    in.PropertyID,
		BuyerID:       in.BuyerID,
		SellerID:      &sellerID,
		Price:         in.Price,
		Status:        models.SalePending,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Notes:         in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var buyer models.User
		if err := tx.Select("id").First(&buyer, in.BuyerID).Error; err != nil {
			return lookupError("buyer", in.BuyerID, err)
		}
		if err := reserveProperty(tx, in.PropertyID); err != nil {
			return err
		}
		return insertSale(tx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, p Principal, status *models.SaleStatus) ([]models.Sale, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("Property").Order("created_at DESC, id DESC")
	if status != nil {
		if !status.Valid() {
			return nil, validationErrorf("unknown status %q", *status)
		}
		q = q.Where("status = ?", *status)
	}
	sales := []models.Sale{}
	if err := q.Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("error listing sales: %w", err)
	}
	return sales, nil
}

// ListSalesAdmin is the back-office listing with parties and payments loaded.
func (s *saleService) ListSalesAdmin(ctx context.Context, p Principal) ([]models.Sale, error) {
	if !p.IsAdmin() {
		return nil, forbiddenErrorf("administrator role required")
	}
	sales := []models.Sale{}
	err := s.db.WithContext(ctx).
		Preload("Property").
		Preload("Buyer").
		Preload("Seller").
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC, id DESC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("error listing sales: %w", err)
	}
	return sales, nil
}

func (s *saleService) ListSalesForBuyer(ctx context.Context, p Principal) ([]models.Sale, error) {
	sales := []models.Sale{}
	err := s.db.WithContext(ctx).
		Preload("Property").
		Where("buyer_id = ?", p.UserID).
		Order("created_at DESC, id DESC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("error listing sales of user %d: %w", p.UserID, err)
	}
	return sales, nil
}

// loadSale fetches a sale visible to the caller: staff see every sale, buyers their own.
func loadSale(tx *gorm.DB, p Principal, saleID uint) (*models.Sale, error) {
	var sale models.Sale
	if err := tx.First(&sale, saleID).Error; err != nil {
		return nil, lookupError("sale", saleID, err)
	}
	if !p.HasRole(StaffRoles...) && sale.BuyerID != p.UserID {
		return nil, forbiddenErrorf("sale %d belongs to another user", saleID)
	}
	return &sale, nil
}

func (s *saleService) GetSale(ctx context.Context, p Principal, saleID uint) (*models.Sale, error) {
	if _, err := loadSale(s.db.WithContext(ctx), p, saleID); err != nil {
		return nil, err
	}
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Property").
		Preload("Buyer").
		Preload("Seller").
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&sale, saleID).Error
	if err != nil {
		return nil, lookupError("sale", saleID, err)
	}
	return &sale, nil
}

// UpdateSale edits the sale and advances its status. Completing a sale marks
// the property SOLD; cancelling releases a reserved property.
func (s *saleService) UpdateSale(ctx context.Context, p Principal, saleID uint, patch SalePatch) (*models.Sale, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if patch.Status == nil && patch.Notes == nil && patch.PaymentMethod == nil && patch.PaymentReference == nil {
		return nil, validationErrorf("nothing to update")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErrorf("unknown status %q", *patch.Status)
	}

	var updated models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := loadSale(tx, p, saleID)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if patch.Notes != nil {
			changes["notes"] = *patch.Notes
		}
		if patch.PaymentMethod != nil {
			changes["payment_method"] = strings.TrimSpace(*patch.PaymentMethod)
		}
		if patch.PaymentReference != nil {
			changes["payment_reference"] = strings.TrimSpace(*patch.PaymentReference)
		}

		q := tx.Model(&models.Sale{}).Where("id = ?", saleID)
		if patch.Status != nil && *patch.Status != sale.Status {
			if !sale.Status.CanMoveTo(*patch.Status) {
				return validationErrorf("cannot move sale from %s to %s", sale.Status, *patch.Status)
			}
			changes["status"] = *patch.Status
			q = q.Where("status = ?", sale.Status)
		}

		if len(changes) > 0 {
			res := q.Updates(changes)
			if res.Error != nil {
				return fmt.Errorf("error updating sale %d: %w", saleID, res.Error)
			}
			if res.RowsAffected == 0 {
				return conflictErrorf("sale %d was modified concurrently", saleID)
			}
		}

		if patch.Status != nil && *patch.Status != sale.Status {
			if err := settleProperty(tx, sale.PropertyID, *patch.Status); err != nil {
				return err
			}
		}
		return tx.First(&updated, saleID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func settleProperty(tx *gorm.DB, propertyID uint, status models.SaleStatus) error {
	var res *gorm.DB
	switch status {
	case models.SaleCompleted:
		res = tx.Model(&models.Property{}).Where("id = ?", propertyID).Update("status", models.PropertySold)
	case models.SaleCancelled:
		res = tx.Model(&models.Property{}).
			Where("id = ? AND status = ?", propertyID, models.PropertyReserved).
			Update("status", models.PropertyAvailable)
	default:
		return nil
	}
	if res.Error != nil {
		return fmt.Errorf("error updating property %d: %w", propertyID, res.Error)
	}
	return nil
}

func (s *saleService) AddDocument(ctx context.Context, p Principal, saleID uint, in AddDocumentInput) (*models.Sale, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	if in.Name == "" || in.URL == "" {
		return nil, validationErrorf("name and url are required")
	}

	var sale models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, saleID).Error; err != nil {
			return lookupError("sale", saleID, err)
		}
		docs, err := sale.DocumentList()
		if err != nil {
			return fmt.Errorf("error decoding documents of sale %d: %w", saleID, err)
		}
		docs = append(docs, models.SaleDocument{
			ID:         uuid.NewString(),
			Name:       in.Name,
			Type:       strings.TrimSpace(in.Type),
			URL:        in.URL,
			UploadDate: time.Now().UTC(),
		})
		if err := sale.SetDocuments(docs); err != nil {
			return err
		}
		if err := tx.Model(&sale).Update("documents", sale.Documents).Error; err != nil {
			return fmt.Errorf("error saving documents of sale %d: %w", saleID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *saleService) AddTransaction(ctx context.Context, p Principal, saleID uint, in AddTransactionInput) (*models.SaleTransaction, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, validationErrorf("amount must be greater than zero")
	}
	if !in.Type.Valid() {
		return nil, validationErrorf("unknown transaction type %q", in.Type)
	}
	if in.Status == "" {
		in.Status = models.TransactionPending
	}
	if !in.Status.Valid() {
		return nil, validationErrorf("unknown transaction status %q", in.Status)
	}

	txn := &models.SaleTransaction{
		SaleID:        saleID,
		Amount:        in.Amount,
		Type:          in.Type,
		Status:        in.Status,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Reference:     strings.TrimSpace(in.Reference),
		Notes:         in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := loadSale(tx, p, saleID)
		if err != nil {
			return err
		}
		if sale.Status == models.SaleCancelled {
			return conflictErrorf("sale %d is cancelled", saleID)
		}
		if err := tx.Create(txn).Error; err != nil {
			return writeError("creating transaction", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *saleService) ListTransactions(ctx context.Context, p Principal, saleID uint) ([]models.SaleTransaction, error) {
	if _, err := loadSale(s.db.WithContext(ctx), p, saleID); err != nil {
		return nil, err
	}
	txns := []models.SaleTransaction{}
	err := s.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC, id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("error listing transactions of sale %d: %w", saleID, err)
	}
	return txns, nil
}
