package models

import "errors"

// Domain error taxonomy. Validation errors are detected before any write;
// ErrAlreadySettled is an expected outcome, not a failure.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrEmptyParticipants    = errors.New("at least one participant required")
	ErrDuplicateParticipant = errors.New("duplicate participant")
	ErrNotAMember           = errors.New("not a member of the group")
	ErrSplitMismatch        = errors.New("shares do not sum to the expense total")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrAlreadySettled       = errors.New("debt entry already settled")
	ErrUnauthorized         = errors.New("not authorized")
	ErrNotFound             = errors.New("not found")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)
