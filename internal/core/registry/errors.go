package registry

import "errors"

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrDuplicateID   = errors.New("match id already registered")
)
