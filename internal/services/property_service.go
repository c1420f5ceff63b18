package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

type IPropertyService interface {
	CreateProperty(ctx context.Context, p Principal, in CreatePropertyInput) (*models.Property, error)
	GetProperty(ctx context.Context, propertyID uint) (*models.Property, error)
}

type CreatePropertyInput struct {
	Title        string
	Slug         string
	Price        decimal.Decimal
	CurrencyCode string
}

type propertyService struct {
	db *gorm.DB
}

func NewPropertyService(db *gorm.DB) IPropertyService {
	return &propertyService{db: db}
}

func (s *propertyService) CreateProperty(ctx context.Context, p Principal, in CreatePropertyInput) (*models.Property, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if !in.Price.IsPositive() {
		return nil, validationErrorf("price must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if currency == "" {
		currency = "USD"
	}

	property := &models.Property{
		Title:        title,
		Slug:         slug,
		Price:        in.Price,
		CurrencyCode: currency,
		Status:       models.PropertyAvailable,
	}
	if p.Role == models.RoleSeller {
		sellerID := p.UserID
		property.SellerID = &sellerID
	}
	if err := s.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, writeError("creating property", err)
	}
	return property, nil
}

func (s *propertyService) GetProperty(ctx context.Context, propertyID uint) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, propertyID).Error; err != nil {
		return nil, lookupError("property", propertyID, err)
	}
	return &property, nil
}
