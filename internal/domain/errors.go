package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("speech backend unavailable")
	ErrNoVoices           = errors.New("no voices installed")
	ErrEmptyCommand       = errors.New("empty command")
	ErrInvalidTrigger     = errors.New("invalid trigger phrase")
	ErrNotImplemented     = errors.New("not implemented")
)
