package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

// IInquiryService covers the inquiry thread, the dual acceptance of a
// negotiated price and the conversion of an accepted inquiry into a sale.
type IInquiryService interface {
	CreateInquiry(ctx context.Context, p Principal, in CreateInquiryInput) (*models.Inquiry, error)
	PostMessage(ctx context.Context, p Principal, inquiryID uint, message string) (*models.InquiryMessage, error)
	UpdateInquiry(ctx context.Context, p Principal, inquiryID uint, patch InquiryPatch) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, p Principal) ([]models.Inquiry, error)
	ListInquiriesByProperty(ctx context.Context, p Principal, propertyID uint) ([]models.Inquiry, error)
	GetInquiry(ctx context.Context, p Principal, inquiryID uint) (*models.Inquiry, error)
	ListMessages(ctx context.Context, p Principal, inquiryID uint) ([]models.InquiryMessage, error)
	DeleteInquiry(ctx context.Context, p Principal, inquiryID uint) error

	AcceptAsAdmin(ctx context.Context, p Principal, inquiryID uint) (*models.Inquiry, bool, error)
	AcceptAsClient(ctx context.Context, p Principal, inquiryID uint) (*models.Inquiry, bool, error)

	CompleteTransaction(ctx context.Context, p Principal, inquiryID uint, in CompleteTransactionInput) (*models.Sale, error)
}

type CreateInquiryInput struct {
	PropertyID   uint
	Title        string
	Message      string
	OfferedPrice *decimal.Decimal
}

// InquiryPatch holds the optional fields of an update; nil means unchanged.
type InquiryPatch struct {
	Status          *models.InquiryStatus
	NegotiatedPrice *decimal.Decimal
	OfferedPrice    *decimal.Decimal
}

func (p InquiryPatch) empty() bool {
	return p.Status == nil && p.NegotiatedPrice == nil && p.OfferedPrice == nil
}

// inquiryTransitions lists the status changes staff may make explicitly.
var inquiryTransitions = map[models.InquiryStatus][]models.InquiryStatus{
	models.InquiryOpen:       {models.InquiryInProgress},
	models.InquiryInProgress: {models.InquiryResolved, models.InquiryClosed},
	models.InquiryClosed:     {models.InquiryInProgress},
	models.InquiryResolved:   {models.InquiryInProgress},
}

func canTransition(from, to models.InquiryStatus) bool {
	for _, next := range inquiryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type inquiryService struct {
	db *gorm.DB
}

func NewInquiryService(db *gorm.DB) IInquiryService {
	return &inquiryService{db: db}
}

// loadInquiry fetches an inquiry and checks the caller is its owner or an admin.
func loadInquiry(tx *gorm.DB, p Principal, inquiryID uint, lock bool) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&inquiry, inquiryID).Error; err != nil {
		return nil, lookupError("inquiry", inquiryID, err)
	}
	if !p.IsAdmin() && inquiry.UserID != p.UserID {
		return nil, forbiddenErrorf("inquiry %d belongs to another user", inquiryID)
	}
	return &inquiry, nil
}

func positive(name string, v *decimal.Decimal) error {
	if v != nil && !v.IsPositive() {
		return validationErrorf("%s must be greater than zero", name)
	}
	return nil
}

func (s *inquiryService) CreateInquiry(ctx context.Context, p Principal, in CreateInquiryInput) (*models.Inquiry, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}
	if in.PropertyID == 0 {
		return nil, validationErrorf("propertyId is required")
	}
	if err := positive("offeredPrice", in.OfferedPrice); err != nil {
		return nil, err
	}

	inquiry := &models.Inquiry{
		Title:        title,
		PropertyID:   in.PropertyID,
		UserID:       p.UserID,
		Status:       models.InquiryOpen,
		OfferedPrice: in.OfferedPrice,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.Select("id").First(&property, in.PropertyID).Error; err != nil {
			return lookupError("property", in.PropertyID, err)
		}
		if err := tx.Create(inquiry).Error; err != nil {
			return writeError("creating inquiry", err)
		}
		if message := strings.TrimSpace(in.Message); message != "" {
			return appendMessage(tx, inquiry.ID, p.UserID, message, p.IsAdmin())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inquiry, nil
}

func appendMessage(tx *gorm.DB, inquiryID, userID uint, text string, isAdmin bool) error {
	msg := &models.InquiryMessage{
		InquiryID: inquiryID,
		UserID:    userID,
		Message:   text,
		IsAdmin:   isAdmin,
	}
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("error appending message to inquiry %d: %w", inquiryID, err)
	}
	return nil
}

// PostMessage appends to the thread. A CLOSED or RESOLVED inquiry is reopened to IN_PROGRESS.
func (s *inquiryService) PostMessage(ctx context.Context, p Principal, inquiryID uint, message string) (*models.InquiryMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validationErrorf("message is required")
	}

	msg := &models.InquiryMessage{
		InquiryID: inquiryID,
		UserID:    p.UserID,
		Message:   message,
		IsAdmin:   p.IsAdmin(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inquiry, err := loadInquiry(tx, p, inquiryID, false)
		if err != nil {
			return err
		}
		if inquiry.Status.Terminal() {
			res := tx.Model(&models.Inquiry{}).
				Where("id = ? AND status IN ?", inquiryID, []models.InquiryStatus{models.InquiryClosed, models.InquiryResolved}).
				Update("status", models.InquiryInProgress)
			if res.Error != nil {
				return fmt.Errorf("error reopening inquiry %d: %w", inquiryID, res.Error)
			}
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("error appending message to inquiry %d: %w", inquiryID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateInquiry applies staff changes (status, negotiatedPrice) and owner changes (offeredPrice).
func (s *inquiryService) UpdateInquiry(ctx context.Context, p Principal, inquiryID uint, patch InquiryPatch) (*models.Inquiry, error) {
	if patch.empty() {
		return nil, validationErrorf("nothing to update")
	}
	if err := positive("negotiatedPrice", patch.NegotiatedPrice); err != nil {
		return nil, err
	}
	if err := positive("offeredPrice", patch.OfferedPrice); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErrorf("unknown status %q", *patch.Status)
	}

	var updated models.Inquiry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inquiry, err := loadInquiry(tx, p, inquiryID, true)
		if err != nil {
			return err
		}
		isOwner := inquiry.UserID == p.UserID
		if (patch.Status != nil || patch.NegotiatedPrice != nil) && !p.IsAdmin() {
			return forbiddenErrorf("only an administrator may change status or negotiatedPrice")
		}
		if patch.OfferedPrice != nil && !isOwner {
			return forbiddenErrorf("only the inquiry owner may change offeredPrice")
		}
		if inquiry.Status == models.InquiryResolved && (patch.NegotiatedPrice != nil || patch.OfferedPrice != nil) {
			return conflictErrorf("inquiry %d is already resolved", inquiryID)
		}

		changes := map[string]any{}
		status := inquiry.Status
		if patch.Status != nil && *patch.Status != inquiry.Status {
			if !canTransition(inquiry.Status, *patch.Status) {
				return validationErrorf("cannot move inquiry from %s to %s", inquiry.Status, *patch.Status)
			}
			status = *patch.Status
			changes["status"] = status
		}
		if patch.NegotiatedPrice != nil {
			if inquiry.NegotiatedPrice == nil || !inquiry.NegotiatedPrice.Equal(*patch.NegotiatedPrice) {
				changes["negotiated_price"] = *patch.NegotiatedPrice
				// A new counter-offer needs fresh agreement from both sides.
				changes["admin_accepted"] = false
				changes["client_accepted"] = false
			}
			if patch.Status == nil && status == models.InquiryOpen {
				changes["status"] = models.InquiryInProgress
			}
		}
		if patch.OfferedPrice != nil {
			changes["offered_price"] = *patch.OfferedPrice
		}

		if len(changes) > 0 {
			if err := tx.Model(inquiry).Updates(changes).Error; err != nil {
				return fmt.Errorf("error updating inquiry %d: %w", inquiryID, err)
			}
		}
		return tx.First(&updated, inquiryID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListInquiries returns every inquiry for an admin and the caller's own otherwise.
func (s *inquiryService) ListInquiries(ctx context.Context, p Principal) ([]models.Inquiry, error) {
	q := s.db.WithContext(ctx).Preload("Property").Order("updated_at DESC, id DESC")
	if p.IsAdmin() {
		q = q.Preload("User")
	} else {
		q = q.Where("user_id = ?", p.UserID)
	}
	inquiries := []models.Inquiry{}
	if err := q.Find(&inquiries).Error; err != nil {
		return nil, fmt.Errorf("error listing inquiries: %w", err)
	}
	return inquiries, nil
}

func (s *inquiryService) ListInquiriesByProperty(ctx context.Context, p Principal, propertyID uint) ([]models.Inquiry, error) {
	if !p.IsAdmin() {
		return nil, forbiddenErrorf("administrator role required")
	}
	inquiries := []models.Inquiry{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("property_id = ?", propertyID).
		Order("updated_at DESC, id DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, fmt.Errorf("error listing inquiries for property %d: %w", propertyID, err)
	}
	return inquiries, nil
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func (s *inquiryService) GetInquiry(ctx context.Context, p Principal, inquiryID uint) (*models.Inquiry, error) {
	inquiry, err := loadInquiry(s.db.WithContext(ctx), p, inquiryID, false)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Preload("Property").
		Preload("User").
		Preload("Messages", orderedMessages).
		First(inquiry, inquiryID).Error
	if err != nil {
		return nil, lookupError("inquiry", inquiryID, err)
	}
	return inquiry, nil
}

// ListMessages returns the thread oldest first.
func (s *inquiryService) ListMessages(ctx context.Context, p Principal, inquiryID uint) ([]models.InquiryMessage, error) {
	if _, err := loadInquiry(s.db.WithContext(ctx), p, inquiryID, false); err != nil {
		return nil, err
	}
	messages := []models.InquiryMessage{}
	err := orderedMessages(s.db.WithContext(ctx)).
		Preload("User").
		Where("inquiry_id = ?", inquiryID).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("error listing messages of inquiry %d: %w", inquiryID, err)
	}
	return messages, nil
}

// DeleteInquiry removes the thread and then the inquiry. Inquiries that produced a sale are kept.
func (s *inquiryService) DeleteInquiry(ctx context.Context, p Principal, inquiryID uint) error {
	if !p.IsAdmin() {
		return forbiddenErrorf("administrator role required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadInquiry(tx, p, inquiryID, true); err != nil {
			return err
		}
		var sales int64
		if err := tx.Model(&models.Sale{}).Where("inquiry_id = ?", inquiryID).Count(&sales).Error; err != nil {
			return fmt.Errorf("error checking sales of inquiry %d: %w", inquiryID, err)
		}
		if sales > 0 {
			return conflictErrorf("inquiry %d has a sale and cannot be deleted", inquiryID)
		}
		if err := tx.Where("inquiry_id = ?", inquiryID).Delete(&models.InquiryMessage{}).Error; err != nil {
			return fmt.Errorf("error deleting messages of inquiry %d: %w", inquiryID, err)
		}
		res := tx.Delete(&models.Inquiry{}, inquiryID)
		if res.Error != nil {
			return fmt.Errorf("error deleting inquiry %d: %w", inquiryID, res.Error)
		}
		if res.RowsAffected == 0 {
			return lookupError("inquiry", inquiryID, gorm.ErrRecordNotFound)
		}
		return nil
	})
}
