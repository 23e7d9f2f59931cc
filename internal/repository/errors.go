// Package repository defines error values that are reused across the
// repositories. They carry apperr kinds, so services and handlers can match
// either the specific value or the generic kind.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/contacts-api/internal/apperr"
)

// ErrUserNotFound is returned when no user matches a lookup or mutation.
var ErrUserNotFound = apperr.NotFound("user not found")

// ErrContactNotFound is returned when the contact does not exist or is
// owned by another user.
var ErrContactNotFound = apperr.NotFound("contact not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = apperr.Conflict("record already exists")

// mysqlDuplicateEntry is the server error number of a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
