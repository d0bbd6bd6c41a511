// Package store holds the GORM-backed repositories. Each repository owns one
// aggregate; callers receive sentinel errors and never see gorm errors.
package store

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrSlotTaken      = errors.New("slot already booked")
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStateChanged means a conditional update matched no row because the
	// record moved on since it was read.
	ErrStateChanged = errors.New("record state changed")
)

const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a unique-index violation. The
// translated gorm error covers both dialects; the raw MySQL code covers
// handles opened without TranslateError.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
