package bus

import "errors"

var (
	ErrNilHandler     = errors.New("bus: nil handler")
	ErrNilEvent       = errors.New("bus: nil event")
	ErrEmptyEventType = errors.New("bus: empty event type")
)
