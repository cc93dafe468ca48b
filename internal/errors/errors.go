package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session client
var (
	// Session errors
	ErrAuthCheckFailed    = errors.New("auth check failed")
	ErrAlreadyInitialized = errors.New("session store already initialized")
	ErrAlreadySubscribed  = errors.New("auth state subscription already registered")
	ErrStoreClosed        = errors.New("session store closed")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrSignOutFailed      = errors.New("sign out failed")

	// Provider boundary errors
	ErrInvalidUser    = errors.New("invalid user record")
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidState   = errors.New("invalid state parameter")

	// Activity errors
	ErrActivityQueryFailed = errors.New("activity query failed")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
