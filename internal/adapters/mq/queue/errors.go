package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("mutation queue full")
	ErrClosed = errors.New("mutation queue closed")
)
