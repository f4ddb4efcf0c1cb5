package errors

import (
	"fmt"
	"strings"
)

// ErrNotFound indicates a requested resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates missing or invalid credentials
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrValidation aggregates every violation found while validating an input.
// Violations accumulate; callers get all of them in one error.
type ErrValidation struct {
	Violations []string
}

func (e *ErrValidation) Error() string {
	return "validation failed: " + strings.Join(e.Violations, ". ")
}

// ErrInvalidStateTransition indicates a checkout state change that the
// state machine does not allow
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrPaymentFailed carries the payment/transaction identifier so the user
// can quote it to support
type ErrPaymentFailed struct {
	PaymentID string
	Message   string
}

func (e *ErrPaymentFailed) Error() string {
	if e.PaymentID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (payment ID: %s)", e.Message, e.PaymentID)
}
