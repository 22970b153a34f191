package model

import "errors"

// Error definitions for the model package.
var (
	// ErrNotReady is returned when inference is requested before the model
	// finished loading, or after a load failure still inside the retry
	// hold-off window.
	ErrNotReady = errors.New("model is not ready")
)
