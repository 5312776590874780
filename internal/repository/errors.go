package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates the email is already registered (case-insensitive).
	ErrDuplicateEmail = errors.New("repository: duplicate email")
	// ErrDuplicateUsername indicates the username is already taken (case-insensitive).
	ErrDuplicateUsername = errors.New("repository: duplicate username")
	// ErrUnavailable signals the backing store cannot be reached.
	ErrUnavailable = errors.New("repository: store unavailable")
)
