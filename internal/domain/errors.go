package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrNoSession          = errors.New("no authenticated session")
	ErrEmptyIdentity      = errors.New("identity is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrTaskNotFound       = errors.New("task not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidTask        = errors.New("invalid task")
)
