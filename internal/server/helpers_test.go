package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/events/bus"
	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/observability/metrics"
	"github.com/zeusync/pong/internal/core/protocol"
	"github.com/zeusync/pong/internal/core/registry"
)

// constRandom launches every ball right and down for values above 0.5.
type constRandom float64

func (r constRandom) Float64() float64 { return float64(r) }

type idleDriver struct{}

func (idleDriver) Start(time.Duration, func()) {}
func (idleDriver) Stop()                       {}

type fakeSession struct {
	id     string
	codec  protocol.Codec
	inbox  chan protocol.Message
	mu     sync.Mutex
	closed bool
	full   bool
}

func newFakeSession(id string, codec protocol.Codec) *fakeSession {
	return &fakeSession{id: id, codec: codec, inbox: make(chan protocol.Message, 4096)}
}

func (s *fakeSession) ID() string            { return s.id }
func (s *fakeSession) Codec() protocol.Codec { return s.codec }
func (s *fakeSession) RemoteAddr() string    { return "fake:" + s.id }

func (s *fakeSession) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.full {
		return ErrSendQueueFull
	}
	msg, err := s.codec.Decode(frame)
	if err != nil {
		return err
	}
	s.inbox <- msg
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// next returns the next message of the given event, skipping others.
func (s *fakeSession) next(t *testing.T, event string) protocol.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-s.inbox:
			if msg.Event == event {
				return msg
			}
		case <-timeout:
			t.Fatalf("session %s: no %s message", s.id, event)
			return protocol.Message{}
		}
	}
}

// drain returns everything received so far.
func (s *fakeSession) drain() []protocol.Message {
	var out []protocol.Message
	for {
		select {
		case msg := <-s.inbox:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func events(msgs []protocol.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Event)
	}
	return out
}

func bindString(t *testing.T, msg protocol.Message) string {
	t.Helper()
	var s string
	require.NoError(t, msg.Bind(&s))
	return s
}

func bindSnapshot(t *testing.T, msg protocol.Message) game.Snapshot {
	t.Helper()
	var s game.Snapshot
	require.NoError(t, msg.Bind(&s))
	return s
}

func encode(t *testing.T, codec protocol.Codec, event string, data any) []byte {
	t.Helper()
	frame, err := codec.Encode(event, data)
	require.NoError(t, err)
	return frame
}

type testHub struct {
	*Hub
	registry *registry.Registry
	bus      bus.EventBus
}

func newTestHub(t *testing.T, mutate func(*config.Config), tune func(*game.Options)) *testHub {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	reg := registry.New(4)
	b := bus.New()
	h := NewHub(cfg, reg, b, metrics.NewInMemory(), log.Nop())
	h.tune = func(o *game.Options) {
		o.Driver = idleDriver{}
		o.Random = constRandom(0.9)
		if tune != nil {
			tune(o)
		}
	}
	return &testHub{Hub: h, registry: reg, bus: b}
}

func (h *testHub) connect(id string) *fakeSession {
	s := newFakeSession(id, protocol.JSON)
	h.Register(s)
	return s
}

func (h *testHub) create(t *testing.T, s *fakeSession, name string, maxScore int) string {
	t.Helper()
	h.Handle(s, encode(t, s.codec, protocol.EventCreateGame, protocol.CreateGame{PlayerName: name, MaxScore: maxScore}))
	var ack protocol.GameAssigned
	require.NoError(t, s.next(t, protocol.EventGameCreated).Bind(&ack))
	return ack.GameID
}

func (h *testHub) join(t *testing.T, s *fakeSession, name, id string) {
	t.Helper()
	h.Handle(s, encode(t, s.codec, protocol.EventJoinGame, protocol.JoinGame{PlayerName: name, GameID: id}))
}

func (h *testHub) move(t *testing.T, s *fakeSession, id, direction string) {
	t.Helper()
	h.Handle(s, encode(t, s.codec, protocol.EventMovePaddle, protocol.MovePaddle{GameID: id, Direction: direction}))
}
