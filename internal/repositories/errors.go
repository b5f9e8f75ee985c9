package repositories

import "errors"

var (
	// ErrNotFound indicates no media row exists for the requested id.
	ErrNotFound = errors.New("media not found")
	// ErrConflict indicates the provider reference is already registered.
	ErrConflict = errors.New("media already registered for provider reference")
)
