package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed      = errors.New("client is closed")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrUnexpectedPayload = errors.New("unexpected payload")
)
