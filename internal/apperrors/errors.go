package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller lacks the capability for the operation.
var ErrForbidden = errors.New("operation not permitted")

// ErrConflict indicates that the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("operation conflicts with current state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Booking and ledger specific errors. These are all recoverable: the
// operation that reports one leaves no partial side effects behind.
var (
	// ErrInsufficientFunds indicates a debit would take a household balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSlotFull indicates a reservation would exceed the slot's capacity.
	ErrSlotFull = errors.New("slot capacity exhausted")

	// ErrSourceUnderMaintenance indicates the water source is not accepting bookings.
	ErrSourceUnderMaintenance = errors.New("source under maintenance")

	// ErrPriorityWindowClosed indicates the household's priority tier does not yet
	// (or no longer) have access to the requested slot.
	ErrPriorityWindowClosed = errors.New("priority window closed for tier")

	// ErrInvalidTransition indicates a booking state transition that the
	// lifecycle does not allow, including any transition out of a terminal state.
	ErrInvalidTransition = errors.New("invalid booking state transition")

	// ErrAlreadyReleased indicates a slot reservation was released twice.
	ErrAlreadyReleased = errors.New("reservation already released")
)

// AppError carries an HTTP-ish status code alongside the underlying error.
// Used by the repository layer for infrastructure failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
