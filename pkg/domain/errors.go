package domain

import "errors"

// ErrSessionNotFound is returned when a session ID is not mounted.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when operating on a session that was unmounted.
var ErrSessionClosed = errors.New("session closed")
