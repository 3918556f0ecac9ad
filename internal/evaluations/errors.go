package evaluations

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrQueueNotConfigured = errors.New("evaluation queue not configured")
	ErrStorage            = errors.New("storage failure")
)

const (
	ErrorCodeValidation          = "VALIDATION_ERROR"
	ErrorCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrorCodePhaseOneFailed      = "PHASE_ONE_FAILED"
	ErrorCodeStorage             = "STORAGE_ERROR"
	ErrorCodeInternal            = "INTERNAL_ERROR"
)
