package errors

import (
	"errors"
	"fmt"
)

// Precondition failures raised by the core. Callers match them with errors.Is.
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrProfileIncomplete = errors.New("profile registration is not complete")
	ErrInvalidAge        = errors.New("age must be at least 18")
	ErrSelfDecision      = errors.New("cannot decide on yourself")
	ErrThreadNotFound    = errors.New("thread not found")
	ErrNotParticipant    = errors.New("sender is not a participant of the thread")
	ErrEmptyMessage      = errors.New("message body is empty")
	ErrMessageTooLong    = errors.New("message body is too long")
	ErrBlocked           = errors.New("conversation is blocked")
	ErrSelfBlock         = errors.New("cannot block yourself")

	// ErrDuplicateMatch is the storage-level conflict on the unordered match pair.
	// The match detector resolves it internally; it never reaches callers.
	ErrDuplicateMatch = errors.New("match already exists for pair")
)

// DeliveryFailure reports that a persisted chat message could not be pushed to
// the recipient. It is returned as a warning next to a successful result.
type DeliveryFailure struct {
	RecipientID uint64
	Err         error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("delivery to profile %d failed: %v", e.RecipientID, e.Err)
}

func (e *DeliveryFailure) Unwrap() error { return e.Err }
