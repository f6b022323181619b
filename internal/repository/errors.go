// Package repository defines error values shared across the data
// access layer.  These sentinels let the service layer distinguish
// failure scenarios without parsing driver errors itself.  Not-found
// conditions are reported as sql.ErrNoRows straight from QueryRow, as
// is conventional for database/sql code.
package repository

import (
    "errors"
    "strings"
)

// ErrVersionConflict is returned when an optimistic update matched no
// row because the record's version moved underneath the writer.  The
// whole read-modify-write should be retried against fresh state.
var ErrVersionConflict = errors.New("version conflict")

// ErrDuplicateKey is returned when an insert violates a unique
// constraint, such as two writers racing to create the same derived id
// or to append the same (student_id, version) history row.
var ErrDuplicateKey = errors.New("duplicate key")

// isDuplicateKey reports whether a MySQL error is a unique-constraint
// violation (error 1062).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
