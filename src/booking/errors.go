package booking

import (
	"errors"
	"fmt"
	"sbs/src/types"
)

var (
	// ErrSlotTaken means the slot is occupied by a live booking. Not
	// retryable with the same input; the caller must pick another slot.
	ErrSlotTaken = errors.New("slot is already booked")

	ErrNotFound = errors.New("booking not found")

	// ErrJobNotStarted is returned when a completion-stage operation runs
	// against a booking that never issued a completion code.
	ErrJobNotStarted = errors.New("job has not been started")

	// ErrCodeLocked blocks further completion attempts until the customer
	// regenerates the code.
	ErrCodeLocked = errors.New("too many failed attempts, ask the customer to regenerate the code")

	ErrCodeExpired = errors.New("completion code has expired, ask the customer to regenerate it")

	ErrBillNotRecorded = errors.New("no final bill recorded for this booking")
)

type InvalidTransitionError struct {
	From types.BookingStatus
	To   types.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

type CodeKind string

const (
	StartCode      CodeKind = "start"
	CompletionCode CodeKind = "completion"
)

type InvalidCodeError struct {
	Kind         CodeKind
	AttemptsLeft int
}

func (e *InvalidCodeError) Error() string {
	if e.Kind == CompletionCode {
		return fmt.Sprintf("incorrect completion code, %d attempt(s) remaining", e.AttemptsLeft)
	}
	return "incorrect start code"
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreUnavailableError wraps a failed document-store call. The engine
// performs no retries; the caller decides.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("document store error on %s: %s", e.Op, e.Err.Error())
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
