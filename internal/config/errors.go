package config

import "errors"

// Validation failures wrap ErrInvalidConfig; read and parse failures wrap ErrLoadConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrUnknownStore is joined to ErrInvalidConfig when store names no supported backend.
	ErrUnknownStore = errors.New("unknown store backend")
)
