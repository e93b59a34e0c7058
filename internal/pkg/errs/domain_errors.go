package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Inventory errors
	ErrSlotNotFound         = errors.New("time slot not found")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrVersionConflict      = errors.New("slot version conflict")
	ErrDuplicateSlotItem    = errors.New("duplicate slot in reservation request")
	ErrInvalidCapacityUnits = errors.New("capacity units must be at least 1")

	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")

	// Idempotency errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyInProgress  = errors.New("idempotency in progress")
	ErrFingerprintMismatch    = errors.New("idempotency key reused with different request")
	ErrAwaitTimeout           = errors.New("timed out waiting for idempotent operation")
	ErrRetryBudgetExhausted   = errors.New("idempotency retry budget exhausted")

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// Validation / operation errors
	ErrDomainValidation        = errors.New("domain validation error")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
