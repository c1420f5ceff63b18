package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/utils"
)

func duplicateEntry(key string) error {
	return &mysql.MySQLError{
		Number:  1062,
		Message: fmt.Sprintf("Duplicate entry '%s' for key 'sales.idx_sales_reference'", key),
	}
}

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	var calls int
	err := WithRetries(func() error {
		calls++
		return nil
	}, 3, IsUniqueViolation)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_FailureNonDuplicateKey(t *testing.T) {
	var calls int
	expected := errors.New("some other error")
	err := WithRetries(func() error {
		calls++
		return expected
	}, 3, IsUniqueViolation)

	assert.ErrorIs(t, err, expected)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	var calls int
	err := WithRetries(func() error {
		calls++
		return duplicateEntry("0000000001")
	}, 3, IsUniqueViolation)

	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, 4, calls)
}

func TestWithRetries_CollisionResolves(t *testing.T) {
	original := utils.NewRefCodeHook
	defer func() { utils.NewRefCodeHook = original }()

	first := utils.RefCode{1, 2, 3, 4, 5, 1}
	second := utils.RefCode{1, 2, 3, 4, 5, 2}
	queue := []utils.RefCode{first, first, second}
	hookCalls := 0
	utils.NewRefCodeHook = func() (utils.RefCode, bool) {
		if hookCalls < len(queue) {
			code := queue[hookCalls]
			hookCalls++
			return code, true
		}
		return utils.RefCode{}, false
	}

	taken := map[utils.RefCode]bool{first: true}
	var calls int
	err := WithRetries(func() error {
		calls++
		code := utils.NewRefCode()
		if taken[code] {
			return duplicateEntry(code.String())
		}
		taken[code] = true
		return nil
	}, 3, IsUniqueViolation)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, hookCalls)
	assert.True(t, taken[second])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert sale: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(duplicateEntry("x")))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}
