package app

import "errors"

var (
	// ErrValidation marks request payloads the caller must fix.
	ErrValidation      = errors.New("validation failed")
	ErrCompanyNotFound = errors.New("company not found")
	ErrPersonaNotFound = errors.New("persona not found")
)
