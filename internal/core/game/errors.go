package game

import "errors"

// Match errors
var (
	ErrMatchNotRunning  = errors.New("match is not running")
	ErrMatchFinished    = errors.New("match is finished")
	ErrMatchFull        = errors.New("match is full")
	ErrOpponentMissing  = errors.New("match has no opponent yet")
	ErrUnknownRole      = errors.New("unknown player role")
	ErrInvalidDirection = errors.New("invalid direction")
)
