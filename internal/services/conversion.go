package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

// CompleteTransactionInput carries the optional overrides of a conversion.
// Price defaults to the inquiry's negotiated price and BuyerID to its owner.
type CompleteTransactionInput struct {
	PropertyID *uint
	Price      *decimal.Decimal
	BuyerID    *uint
}

func saleCreatedMessage(saleID uint) string {
	return fmt.Sprintf("Se ha creado la venta #%d", saleID)
}

// CompleteTransaction converts a mutually accepted inquiry into a PENDING sale.
// Resolving the inquiry, creating the sale, recording the system message and
// reserving the property happen in one transaction.
func (s *inquiryService) CompleteTransaction(ctx context.Context, p Principal, inquiryID uint, in CompleteTransactionInput) (*models.Sale, error) {
	if !p.HasRole(StaffRoles...) {
		return nil, forbiddenErrorf("administrator or seller role required")
	}
	if err := positive("price", in.Price); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inquiry models.Inquiry
		if err := tx.First(&inquiry, inquiryID).Error; err != nil {
			return lookupError("inquiry", inquiryID, err)
		}
		if !inquiry.AdminAccepted || !inquiry.ClientAccepted {
			return validationErrorf("both the administrator and the client must accept the offer")
		}
		if inquiry.Status.Terminal() {
			return conflictErrorf("inquiry %d is %s", inquiryID, inquiry.Status)
		}
		if in.PropertyID != nil && *in.PropertyID != inquiry.PropertyID {
			return validationErrorf("propertyId %d does not match inquiry property %d", *in.PropertyID, inquiry.PropertyID)
		}

		price := in.Price
		if price == nil {
			price = inquiry.NegotiatedPrice
		}
		if price == nil {
			return validationErrorf("price is required")
		}

		buyerID := inquiry.UserID
		if in.BuyerID != nil {
			var buyer models.User
			if err := tx.Select("id").First(&buyer, *in.BuyerID).Error; err != nil {
				return lookupError("buyer", *in.BuyerID, err)
			}
			buyerID = buyer.ID
		}

		res := tx.Model(&models.Inquiry{}).
			Where("id = ? AND status NOT IN ?", inquiryID, []models.InquiryStatus{models.InquiryResolved, models.InquiryClosed}).
			Update("status", models.InquiryResolved)
		if res.Error != nil {
			return fmt.Errorf("error resolving inquiry %d: %w", inquiryID, res.Error)
		}
		if res.RowsAffected == 0 {
			return conflictErrorf("inquiry %d was already converted", inquiryID)
		}

		if err := reserveProperty(tx, inquiry.PropertyID); err != nil {
			return err
		}

		sale = &models.Sale{
			PropertyID: inquiry.PropertyID,
			BuyerID:    buyerID,
			InquiryID:  &inquiry.ID,
			Price:      *price,
			Status:     models.SalePending,
		}
		if p.IsAdmin() {
			sellerID := p.UserID
			sale.SellerID = &sellerID
		}
		if err := insertSale(tx, sale); err != nil {
			return err
		}

		return appendMessage(tx, inquiryID, p.UserID, saleCreatedMessage(sale.ID), p.IsAdmin())
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}
