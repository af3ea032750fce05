package services

import (
	"errors"
)

// Sentinel errors surfaced by the service layer. Handlers map these to HTTP
// statuses; bulk operations skip Conflict items instead of aborting.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)
