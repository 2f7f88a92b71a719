package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by session intents.
var (
	ErrValidation          = errors.New("validation error")
	ErrCapExceeded         = errors.New("daily cap exceeded")
	ErrNoActiveSeason      = errors.New("select or create a season first")
	ErrNotFound            = errors.New("not found")
	ErrBackpressure        = errors.New("too many pending changes, try again")
	ErrUnknownConfirmation = errors.New("unknown or expired confirmation")
	ErrNotStarted          = errors.New("service not started")
)

// CapExceededError carries the daily limit that refused a grant.
type CapExceededError struct {
	Limit int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("daily limit of %d points reached", e.Limit)
}

func (e *CapExceededError) Unwrap() error { return ErrCapExceeded }
