package protocol

import "errors"

var (
	ErrEmptyEvent     = errors.New("protocol: message has no event")
	ErrMissingData    = errors.New("protocol: message has no data")
	ErrUnknownCodec   = errors.New("protocol: unknown codec")
	ErrFrameTooLarge  = errors.New("protocol: frame too large")
	ErrMalformedFrame = errors.New("protocol: malformed frame")
)
