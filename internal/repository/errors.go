// Package repository implements data access over MySQL. Every method takes
// a context and issues plain SQL through database/sql; state-changing
// booking operations are written as conditional updates so the database
// row lock decides races.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist or is not
// visible to the caller (for example a slot of another teacher).
var ErrNotFound = errors.New("not found")

// ErrSlotUnavailable is returned when a conditional slot update matched no
// row: the slot is already booked, has changed state, or does not exist.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrConflict is returned when a write is rejected because of existing
// state, such as a duplicate slot time or an edit of a booked slot.
var ErrConflict = errors.New("conflict")

// ErrUsernameExists is returned when a user with the same username exists.
var ErrUsernameExists = errors.New("username already exists")

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

// affected returns RowsAffected or the error that prevented reading it.
func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
