package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	return utils.SetupTestDB(t, models.All()...)
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role) (*models.User, Principal) {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	user := &models.User{
		Name:         fmt.Sprintf("%s %d", role, n+1),
		Email:        fmt.Sprintf("user%d@brixar.test", n+1),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user, Principal{UserID: user.ID, Role: role}
}

func seedProperty(t *testing.T, db *gorm.DB) *models.Property {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Property{}).Count(&n).Error)
	property := &models.Property{
		Title:        fmt.Sprintf("Casa %d", n+1),
		Slug:         fmt.Sprintf("casa-%d", n+1),
		Price:        decimal.NewFromInt(120000),
		CurrencyCode: "USD",
		Status:       models.PropertyAvailable,
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func countMessages(t *testing.T, db *gorm.DB, inquiryID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.InquiryMessage{}).Where("inquiry_id = ?", inquiryID).Count(&n).Error)
	return n
}
