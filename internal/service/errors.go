// Package service holds the business core: the versioned update
// engine for student records and the submission log.  It consumes the
// repository layer and exposes typed errors so the HTTP boundary can
// map failures to status codes without inspecting driver errors.
package service

import "fmt"

// ValidationError reports a malformed input field.  Always recoverable
// by the caller correcting the input.
type ValidationError struct {
    Field  string
    Reason string
}

func (e *ValidationError) Error() string {
    return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports a failed proof-of-edit check, e.g. a
// wrong edit token.  The operation performed no mutation.
type AuthorizationError struct {
    Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// NotFoundError reports that no record exists at the requested id.
type NotFoundError struct {
    Resource string
    ID       string
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a concurrent-update race: another writer
// advanced the record between this writer's read and write.  Transient;
// the whole read-modify-write is safe to retry against fresh state.
type ConflictError struct {
    ID string
}

func (e *ConflictError) Error() string {
    return fmt.Sprintf("concurrent update on %s, retry with fresh state", e.ID)
}

// StorageError reports that the store could not complete an operation
// atomically.  The transaction was rolled back; neither the record nor
// its history changed.
type StorageError struct {
    Op  string
    Err error
}

func (e *StorageError) Error() string {
    return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
