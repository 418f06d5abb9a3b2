// Package common defines shared constants and sentinel errors used across
// the chirper client and hub. Callers should match these values with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	// Document store errors.
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidQuery     = errors.New("invalid query")

	// Identity provider errors.
	ErrEmailInUse       = errors.New("email already in use")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrWrongCredential  = errors.New("wrong credential")

	// Token errors.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")

	// Transport / generic errors.
	ErrUnavailable = errors.New("backend unavailable")
	ErrInternal    = errors.New("internal error")
)

// ErrValidation is the parent of every error detected locally before a
// remote call is made.
var ErrValidation = errors.New("validation error")

var (
	ErrEmptyBody        = fmt.Errorf("%w: post text is empty", ErrValidation)
	ErrBodyTooLong      = fmt.Errorf("%w: post text is too long", ErrValidation)
	ErrEmptyIdentifier  = fmt.Errorf("%w: username or email is empty", ErrValidation)
	ErrMalformedEmail   = fmt.Errorf("%w: malformed email", ErrValidation)
	ErrPasswordTooShort = fmt.Errorf("%w: password is too short", ErrValidation)
	ErrHandleTooShort   = fmt.Errorf("%w: username is too short", ErrValidation)
	ErrEmptySearch      = fmt.Errorf("%w: search text is empty", ErrValidation)
)

var (
	// Handle lookups.
	ErrHandleNotFound = errors.New("handle not found")
	ErrHandleTaken    = errors.New("handle already taken")

	// Client-side ownership check failed before any write was attempted.
	ErrNotOwner = errors.New("not the owner")
)
