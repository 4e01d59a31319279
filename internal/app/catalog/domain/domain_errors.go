package domain

import "errors"

// Domain errors as sentinel values
var (
	// Record errors
	ErrRecordNotFound      = errors.New("catalog record not found")
	ErrDuplicateExternalID = errors.New("catalog record with this external id already exists")
	ErrMissingExternalID   = errors.New("external id is missing or not an integer")
	ErrEmptyTitle          = errors.New("record title cannot be empty")
	ErrEmptyHandle         = errors.New("record handle cannot be empty")
	ErrNegativePrice       = errors.New("representative price cannot be negative")
	ErrPriceOutOfRange     = errors.New("price is out of range")

	// Sync errors
	ErrInvalidCapacity  = errors.New("capacity cannot be negative")
	ErrStoreUnavailable = errors.New("catalog store unavailable")
)
