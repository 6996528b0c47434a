// Package client is a Go client for the pong match server. It speaks the
// websocket and QUIC transports and both wire codecs.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/protocol"
)

type Config struct {
	// Codec is "json" or "msgpack".
	Codec          string
	ConnectTimeout time.Duration
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
	Logger      log.Log
}

func DefaultConfig() Config {
	return Config{
		Codec:          protocol.CodecJSON,
		ConnectTimeout: 10 * time.Second,
		EventBuffer:    256,
	}
}

// Event is one decoded server message. Exactly one of the payload fields is
// set, according to Type.
type Event struct {
	Type      string
	Timestamp time.Time

	Assigned *protocol.GameAssigned
	State    *game.Snapshot
	Log      string
	Error    string
	Winner   string
}

// transport moves whole frames.
type transport interface {
	writeFrame(frame []byte) error
	readFrame() ([]byte, error)
	close() error
}

type Client struct {
	conn   transport
	codec  protocol.Codec
	events chan Event
	done   chan struct{}
	quit   chan struct{}
	closed atomic.Bool
	logger log.Log

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error
}

func newClient(conn transport, codec protocol.Codec, cfg Config) *Client {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Provide()
	}
	c := &Client{
		conn:   conn,
		codec:  codec,
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
		logger: logger.With(log.String("component", "pong_client")),
	}
	go c.readLoop()
	return c
}

func (c *Client) CreateGame(playerName string, maxScore int) error {
	return c.send(protocol.EventCreateGame, protocol.CreateGame{PlayerName: playerName, MaxScore: maxScore})
}

func (c *Client) JoinGame(playerName, gameID string) error {
	return c.send(protocol.EventJoinGame, protocol.JoinGame{PlayerName: playerName, GameID: gameID})
}

func (c *Client) Move(gameID string, d game.Direction) error {
	return c.send(protocol.EventMovePaddle, protocol.MovePaddle{GameID: gameID, Direction: d.String()})
}

// Events delivers server messages in arrival order. It is closed when the
// connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Done is closed once the read loop has stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection ended, or nil after a local Close.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.quit)
	return c.conn.close()
}

// WaitFor returns the next event of the given type, discarding others.
func (c *Client) WaitFor(ctx context.Context, eventType string) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case e, ok := <-c.events:
			if !ok {
				if err := c.Err(); err != nil {
					return Event{}, err
				}
				return Event{}, ErrClientClosed
			}
			if e.Type == eventType {
				return e, nil
			}
		}
	}
}

func (c *Client) send(event string, data any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	frame, err := c.codec.Encode(event, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.writeFrame(frame)
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		frame, err := c.conn.readFrame()
		if err != nil {
			if !c.closed.Load() {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
				c.logger.Debug("Connection ended", log.Error(err))
			}
			return
		}

		e, err := c.decode(frame)
		if err != nil {
			c.logger.Warn("Dropping undecodable message", log.Error(err))
			continue
		}
		select {
		case c.events <- e:
		case <-c.quit:
			return
		}
	}
}

func (c *Client) decode(frame []byte) (Event, error) {
	msg, err := c.codec.Decode(frame)
	if err != nil {
		return Event{}, err
	}

	e := Event{Type: msg.Event, Timestamp: time.Now()}
	switch msg.Event {
	case protocol.EventGameCreated, protocol.EventGameJoined:
		e.Assigned = &protocol.GameAssigned{}
		err = msg.Bind(e.Assigned)
	case protocol.EventGameState:
		e.State = &game.Snapshot{}
		err = msg.Bind(e.State)
	case protocol.EventGameLog:
		err = msg.Bind(&e.Log)
	case protocol.EventGameError:
		err = msg.Bind(&e.Error)
	case protocol.EventGameOver:
		var over protocol.GameOver
		err = msg.Bind(&over)
		e.Winner = over.Winner
	default:
		err = errors.Wrapf(ErrUnexpectedPayload, "event %q", msg.Event)
	}
	return e, err
}
