package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

const (
	MessageAdminAccepted  = "El administrador ha aceptado la oferta"
	MessageClientAccepted = "El cliente ha aceptado la oferta"
)

// AcceptAsAdmin records the administrator's agreement to the negotiated price.
// The returned bool is true only for the call that flipped the flag; repeated
// calls leave the inquiry and its thread untouched.
func (s *inquiryService) AcceptAsAdmin(ctx context.Context, p Principal, inquiryID uint) (*models.Inquiry, bool, error) {
	if !p.IsAdmin() {
		return nil, false, forbiddenErrorf("administrator role required")
	}
	return s.accept(ctx, p, inquiryID, "admin_accepted", MessageAdminAccepted, true)
}

// AcceptAsClient records the owning customer's agreement to the negotiated price.
func (s *inquiryService) AcceptAsClient(ctx context.Context, p Principal, inquiryID uint) (*models.Inquiry, bool, error) {
	return s.accept(ctx, p, inquiryID, "client_accepted", MessageClientAccepted, false)
}

func (s *inquiryService) accept(ctx context.Context, p Principal, inquiryID uint, flag, message string, asAdmin bool) (*models.Inquiry, bool, error) {
	var (
		inquiry *models.Inquiry
		flipped bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inquiry, err = loadInquiry(tx, p, inquiryID, false)
		if err != nil {
			return err
		}
		if !asAdmin && inquiry.UserID != p.UserID {
			return forbiddenErrorf("only the inquiry owner may accept as client")
		}
		if inquiry.NegotiatedPrice == nil {
			return validationErrorf("negotiatedPrice must be set before accepting")
		}
		if inquiry.Status.Terminal() {
			return conflictErrorf("inquiry %d is %s", inquiryID, inquiry.Status)
		}

		res := tx.Model(&models.Inquiry{}).
			Where("id = ? AND "+flag+" = ? AND negotiated_price IS NOT NULL", inquiryID, false).
			Update(flag, true)
		if res.Error != nil {
			return fmt.Errorf("error accepting inquiry %d: %w", inquiryID, res.Error)
		}
		if res.RowsAffected == 1 {
			flipped = true
			if err := appendMessage(tx, inquiryID, p.UserID, message, asAdmin); err != nil {
				return err
			}
		}
		return tx.First(inquiry, inquiryID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return inquiry, flipped, nil
}
