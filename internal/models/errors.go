package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so handlers can map them to HTTP statuses
type ErrorKind string

const (
	ErrKindInvalidInput         ErrorKind = "invalid_input"
	ErrKindNotFound             ErrorKind = "not_found"
	ErrKindForbidden            ErrorKind = "forbidden"
	ErrKindConflict             ErrorKind = "conflict"
	ErrKindGateway              ErrorKind = "gateway_error"
	ErrKindPaymentNotSuccessful ErrorKind = "payment_not_successful"
	ErrKindPersistence          ErrorKind = "persistence_error"
)

// DomainError is the error type returned by the booking service layer
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewInvalidInput creates an InvalidInput error
func NewInvalidInput(message string) *DomainError {
	return &DomainError{Kind: ErrKindInvalidInput, Message: message}
}

// NewNotFound creates a NotFound error
func NewNotFound(message string) *DomainError {
	return &DomainError{Kind: ErrKindNotFound, Message: message}
}

// NewForbidden creates a Forbidden error
func NewForbidden(message string) *DomainError {
	return &DomainError{Kind: ErrKindForbidden, Message: message}
}

// NewConflict creates a Conflict error
func NewConflict(message string) *DomainError {
	return &DomainError{Kind: ErrKindConflict, Message: message}
}

// NewGatewayError wraps a payment gateway failure
func NewGatewayError(err error) *DomainError {
	return &DomainError{Kind: ErrKindGateway, Message: "payment gateway error", Err: err}
}

// NewPaymentNotSuccessful creates a PaymentNotSuccessful error
func NewPaymentNotSuccessful(message string) *DomainError {
	return &DomainError{Kind: ErrKindPaymentNotSuccessful, Message: message}
}

// NewPersistenceError wraps a ledger read/write failure
func NewPersistenceError(err error) *DomainError {
	return &DomainError{Kind: ErrKindPersistence, Message: "persistence error", Err: err}
}

// KindOf returns the ErrorKind of err, or empty string if err is not a DomainError
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
