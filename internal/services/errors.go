// Package services implements the suggestion box business logic: the
// suggestion lifecycle, accounts and the session, notifications and
// settings. This file centralizes the service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-suggestion-box/internal/repo"
)

// Validation errors. Callers usually receive them wrapped with the
// offending field, so compare with errors.Is.
var (
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrPasswordTooShort is returned when a password has fewer than six characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrPasswordMismatch is returned when the confirmation does not match.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrEmptyComment is returned for a comment without content.
	ErrEmptyComment = errors.New("comment is empty")

	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// Account errors.
var (
	// ErrUserExists is returned when registering an email that is already
	// stored, compared case-insensitively.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned when no user matches email and password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoCurrentUser is returned when an operation needs a session and
	// nobody is logged in.
	ErrNoCurrentUser = repo.ErrNoCurrentUser

	// ErrUserNotFound indicates that no stored user has the given email.
	ErrUserNotFound = errors.New("user not found")
)

// Record errors.
var (
	// ErrSuggestionNotFound indicates that the suggestion does not exist.
	ErrSuggestionNotFound = errors.New("suggestion not found")

	// ErrCommentNotFound indicates that the comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNotificationNotFound indicates that the notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
)
