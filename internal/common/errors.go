// Package common defines the sentinel errors shared by the realty services,
// repositories and the agency layer. Callers should use errors.Is to match
// these values; services wrap them with the offending name.
package common

import "errors"

var (
	// Repository-level errors. Services translate them into the domain
	// errors below before returning to callers.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Account and permission errors.
	ErrPasswordTooShort = errors.New("password is too short")
	ErrAlreadyExists    = errors.New("already exists")
	ErrDoesNotExist     = errors.New("does not exist")
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPermissionDenied = errors.New("permission denied")

	// Session errors (token missing, malformed or expired; session closed).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")

	// Validation errors for catalog entries and configuration values.
	ErrValidation = errors.New("validation error")
)
