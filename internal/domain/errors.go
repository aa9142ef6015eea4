package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
	ErrAllocationMismatch  = errors.New("allocations do not add up to the total")
	ErrEmptyAllocation     = errors.New("no positive allocation")
	ErrUnknownPool         = errors.New("unknown funding pool")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrInsufficientBalance = errors.New("insufficient pool balance")
	ErrMissingDescription  = errors.New("description required")
	ErrApplyFailed         = errors.New("apply failed")
	ErrDuplicatePayment    = errors.New("payment already recorded")
	ErrLedgerDrift         = errors.New("ledger and pool balances diverge")
)

// Error carries a sentinel Kind together with the offending field or pool.
// errors.Is matches both the Kind and any wrapped cause.
type Error struct {
	Kind    error
	Field   string
	PoolID  int64
	Message string
	Err     error
}

// NewError builds an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// OnField records the request field that caused the error.
func (e *Error) OnField(field string) *Error {
	e.Field = field
	return e
}

// OnPool records the pool that caused the error.
func (e *Error) OnPool(id int64) *Error {
	e.PoolID = id
	return e
}

// ApplyFailed wraps a storage failure that happened while committing a batch.
func ApplyFailed(err error) *Error {
	return &Error{Kind: ErrApplyFailed, Message: "ledger update failed", Err: err}
}

// IsRejection reports whether err is a validation outcome rather than a failure.
func IsRejection(err error) bool {
	for _, kind := range []error{
		ErrValidation, ErrAllocationMismatch, ErrEmptyAllocation, ErrUnknownPool,
		ErrBelowMinimum, ErrInsufficientBalance, ErrMissingDescription, ErrDuplicatePayment,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
