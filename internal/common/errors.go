// Package common holds error values shared by the store, service and handler layers.
package common

import "errors"

var (
	// ErrNotAuthenticated means the request carried no usable session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidIdentity means a session was present but does not resolve to a user.
	ErrInvalidIdentity = errors.New("invalid user identity")
	// ErrUsernameTaken is returned when the unique username index rejects an insert.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidInput covers empty credentials and similar form errors.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is deliberately the same for unknown users and bad passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrStoreUnavailable is returned while running without a database.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("not found")
)
