package simulate

import "time"

// HTTP status code constants.
const (
	StatusOK                  = 200
	StatusAccepted            = 202
	StatusUnprocessableEntity = 422
	StatusTooManyRequests     = 429
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PollInterval         = 250 * time.Millisecond
	PercentageMultiplier = 100
	maxBoostPoints       = 5
)
