package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")

	// Client-side failures.
	ErrMalformedResponse    = errors.New("malformed server response")
	ErrMalformedFrame       = errors.New("malformed socket frame")
	ErrSocketNotReady       = errors.New("inbox socket is not open")
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrEmptyMessage         = errors.New("message is empty")
)
