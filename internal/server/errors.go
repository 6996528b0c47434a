package server

import "errors"

// Errors reported to clients as game_error payloads use the wording clients
// already match on.
var (
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchFull          = errors.New("match is full")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrAlreadyInMatch     = errors.New("already in a match")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrMalformedMessage   = errors.New("malformed message")
)

// Server-side errors.
var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrSessionClosed        = errors.New("session is closed")
	ErrSendQueueFull        = errors.New("send queue is full")
)
