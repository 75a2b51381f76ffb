package repositories

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Admission and uniqueness outcomes surface as sentinels so handlers can
// map them to status codes with errors.Is.
var (
	ErrQuotaExceeded   = errors.New("monthly lead quota exceeded")
	ErrAccountInactive = errors.New("account is not active")
	ErrDuplicateEmail  = errors.New("email already exists")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
