// Package repository defines error values shared across repositories.
// These sentinels let handlers map storage failures onto the API error
// taxonomy without inspecting driver errors themselves.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row the caller asked for does not
// exist. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update violates the
// unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrMobileExists is returned when an insert or update violates the
// unique mobile index.
var ErrMobileExists = errors.New("mobile already exists")

// ErrReferenceExists is returned when a booking insert collides on the
// unique booking reference. Callers regenerate and retry once before
// surfacing a conflict.
var ErrReferenceExists = errors.New("booking reference already exists")

// mysql error 1062 = duplicate entry for a unique key.
const dupEntryErrNo = 1062

// duplicateOn reports whether err is a duplicate-key violation on the
// named index. An empty key matches any duplicate violation.
func duplicateOn(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != dupEntryErrNo {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}
