package models

import "errors"

// Repository sentinel errors. Implementations wrap driver errors and return these
// for the conditions services need to branch on.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrAlreadyRegistered = errors.New("already registered for event")
	// ErrMissingReference means a referenced user or event row does not exist.
	ErrMissingReference = errors.New("referenced record does not exist")
)
