package confirm

import "errors"

// Sentinel errors returned by the Gate.
var (
	ErrUnknownToken = errors.New("unknown confirmation token")
	ErrExpired      = errors.New("confirmation expired")
)
