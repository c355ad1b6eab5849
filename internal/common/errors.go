package common

import (
	"fmt"
)

// InvalidTransactionError is returned when an operation refers to an unknown
// transaction or to a transaction that is no longer active.
type InvalidTransactionError struct {
	Message string
}

func (it InvalidTransactionError) Error() string {
	return fmt.Sprintf("%s", it.Message)
}

// NewInvalidTransactionError creates a new instance of InvalidTransactionError with the given message.
func NewInvalidTransactionError(message string) InvalidTransactionError {
	return InvalidTransactionError{
		Message: message,
	}
}

// RecordNotFoundError is returned when an update/delete targets a record with
// no version visible to the caller.
type RecordNotFoundError struct {
	Message string
}

func (rnf RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s", rnf.Message)
}

// NewRecordNotFoundError creates a new instance of RecordNotFoundError with the given message.
func NewRecordNotFoundError(message string) RecordNotFoundError {
	return RecordNotFoundError{
		Message: message,
	}
}

// DuplicateKeyError is returned when an insert collides with a live, visible record.
type DuplicateKeyError struct {
	Message string
}

func (dk DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s", dk.Message)
}

// NewDuplicateKeyError creates a new instance of DuplicateKeyError with the given message.
func NewDuplicateKeyError(message string) DuplicateKeyError {
	return DuplicateKeyError{
		Message: message,
	}
}

// SerializationConflictError is returned when a commit-time write-write race
// is detected under snapshot isolation. The losing transaction is aborted.
type SerializationConflictError struct {
	Message string
}

func (sc SerializationConflictError) Error() string {
	return fmt.Sprintf("%s", sc.Message)
}

// NewSerializationConflictError creates a new instance of SerializationConflictError with the given message.
func NewSerializationConflictError(message string) SerializationConflictError {
	return SerializationConflictError{
		Message: message,
	}
}

// InvalidIsolationError is returned when an unsupported isolation value is
// passed to begin.
type InvalidIsolationError struct {
	Message string
}

func (ii InvalidIsolationError) Error() string {
	return fmt.Sprintf("%s", ii.Message)
}

// NewInvalidIsolationError creates a new instance of InvalidIsolationError with the given message.
func NewInvalidIsolationError(message string) InvalidIsolationError {
	return InvalidIsolationError{
		Message: message,
	}
}

// TableNotFoundError is returned when an operation refers to a table that
// doesn't exist in the catalog.
type TableNotFoundError struct {
	Message string
}

func (tnf TableNotFoundError) Error() string {
	return fmt.Sprintf("%s", tnf.Message)
}

// NewTableNotFoundError creates a new instance of TableNotFoundError with the given message.
func NewTableNotFoundError(message string) TableNotFoundError {
	return TableNotFoundError{
		Message: message,
	}
}

// TableExistsError is returned when creating a table that already exists.
type TableExistsError struct {
	Message string
}

func (te TableExistsError) Error() string {
	return fmt.Sprintf("%s", te.Message)
}

// NewTableExistsError creates a new instance of TableExistsError with the given message.
func NewTableExistsError(message string) TableExistsError {
	return TableExistsError{
		Message: message,
	}
}

// UnknownColumnError is returned when a mutation names a column the table
// doesn't declare.
type UnknownColumnError struct {
	Message string
}

func (uc UnknownColumnError) Error() string {
	return fmt.Sprintf("%s", uc.Message)
}

// NewUnknownColumnError creates a new instance of UnknownColumnError with the given message.
func NewUnknownColumnError(message string) UnknownColumnError {
	return UnknownColumnError{
		Message: message,
	}
}
