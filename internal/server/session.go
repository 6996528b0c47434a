package server

import (
	"sync"

	"github.com/zeusync/pong/internal/core/protocol"
)

// Session is one connected client as seen by the hub.
type Session interface {
	ID() string
	Codec() protocol.Codec
	RemoteAddr() string
	// Send queues an encoded frame without blocking.
	Send(frame []byte) error
	Close() error
}

// outbox is the bounded send queue shared by the transports. A single writer
// goroutine drains it.
type outbox struct {
	queue  chan []byte
	closed chan struct{}
	once   sync.Once
}

func newOutbox(size int) *outbox {
	if size <= 0 {
		size = 1
	}
	return &outbox{
		queue:  make(chan []byte, size),
		closed: make(chan struct{}),
	}
}

func (o *outbox) push(frame []byte) error {
	select {
	case <-o.closed:
		return ErrSessionClosed
	default:
	}

	select {
	case o.queue <- frame:
		return nil
	case <-o.closed:
		return ErrSessionClosed
	default:
		return ErrSendQueueFull
	}
}

// shut reports whether this call closed the outbox.
func (o *outbox) shut() bool {
	first := false
	o.once.Do(func() {
		close(o.closed)
		first = true
	})
	return first
}

func (o *outbox) done() <-chan struct{} {
	return o.closed
}
