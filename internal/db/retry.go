package db

import (
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsDuplicateKeyError reports whether err is a unique index violation.
type IsDuplicateKeyError func(err error) bool

const DefaultMaxRetries = 3

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Try runs op, retrying on duplicate key errors up to DefaultMaxRetries times.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsUniqueViolation)
}

// WithRetries runs op once plus up to maxRetries more times while it keeps
// failing with a duplicate key error. Any other error is returned immediately.
func WithRetries(op Operation, maxRetries int, isDuplicateKey IsDuplicateKeyError) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !isDuplicateKey(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsUniqueViolation recognises both the translated gorm error and a raw
// MySQL duplicate entry error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
