package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrDirectoryUnavailable marks a refresh cycle that could not load the
	// user directory at all: without it no reference can be resolved, so the
	// whole cycle fails instead of rendering placeholders for everyone.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
)
