package term

import (
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/protocol"
	"github.com/zeusync/pong/sdk/go/client"
)

type fakeClient struct {
	mu     sync.Mutex
	moves  []game.Direction
	events chan client.Event
}

func (c *fakeClient) CreateGame(string, int) error  { return nil }
func (c *fakeClient) JoinGame(string, string) error { return nil }
func (c *fakeClient) Events() <-chan client.Event   { return c.events }

func (c *fakeClient) Move(_ string, d game.Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves = append(c.moves, d)
	return nil
}

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func sampleSnapshot() *game.Snapshot {
	return &game.Snapshot{
		Players: game.PlayersSnapshot{
			P1: game.PlayerSnapshot{Name: "alice", Score: 1, IsReady: true},
			P2: game.PlayerSnapshot{Name: "bob", Score: 2, IsReady: true},
		},
		Ball:      game.BoxSnapshot{X: 395, Y: 245, Width: 10, Height: 10},
		Paddle1:   game.BoxSnapshot{X: 10, Y: 0, Width: 10, Height: 100},
		Paddle2:   game.BoxSnapshot{X: 780, Y: 400, Width: 10, Height: 100},
		IsRunning: true,
		MaxScore:  3,
		GameID:    "G1",
		Canvas:    game.CanvasSnapshot{Width: game.CourtWidth, Height: game.CourtHeight},
	}
}

func TestViewDrawsCourt(t *testing.T) {
	screen := newSimScreen(t, 82, 54)
	v := NewView(screen)

	x, y, w, h := v.Court()
	assert.Equal(t, []int{1, 2, 80, 50}, []int{x, y, w, h})

	v.Draw(sampleSnapshot(), "hello")

	// The ball's centre (400, 250) maps to column 40 and row 25 of the court.
	assert.Equal(t, runeBall, runeAt(screen, 1+40, 2+25))
	assert.Equal(t, runePaddle, runeAt(screen, 1+1, 2))
	assert.Equal(t, runePaddle, runeAt(screen, 1+78, 2+49))
	assert.Equal(t, 'a', runeAt(screen, 0, 0))
	assert.Equal(t, 'h', runeAt(screen, 0, 53))
}

func TestViewClampsOutsideCourt(t *testing.T) {
	screen := newSimScreen(t, 82, 54)
	v := NewView(screen)

	x, y := v.cell(-50, 9000)
	assert.Equal(t, 1, x)
	assert.Equal(t, 2+49, y)
}

func TestDirectionFor(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want game.Direction
		ok   bool
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), game.DirectionUp, true},
		{tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), game.DirectionDown, true},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), game.DirectionStop, true},
		{tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), game.DirectionUp, true},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), game.DirectionStop, false},
	}
	for _, tc := range cases {
		d, ok := directionFor(tc.ev)
		assert.Equal(t, tc.ok, ok)
		if ok {
			assert.Equal(t, tc.want, d)
		}
	}
}

func TestAppInputAndEvents(t *testing.T) {
	screen := newSimScreen(t, 82, 54)
	c := &fakeClient{events: make(chan client.Event)}
	app := NewApp(screen, c, nil, Options{PlayerName: "alice", MaxScore: 3, Logger: log.Nop()})

	// Moves are ignored until a match is assigned.
	assert.True(t, app.handleInput(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)))
	assert.Empty(t, c.moves)

	app.apply(client.Event{
		Type:     protocol.EventGameCreated,
		Assigned: &protocol.GameAssigned{GameID: "G1", PlayerRole: "player1"},
	})
	assert.Equal(t, "Playing as player1 in G1", app.status)

	assert.True(t, app.handleInput(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)))
	assert.True(t, app.handleInput(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)))
	assert.Equal(t, []game.Direction{game.DirectionUp, game.DirectionStop}, c.moves)

	app.apply(client.Event{Type: protocol.EventGameState, State: sampleSnapshot()})
	assert.Equal(t, "G1", app.snapshot.GameID)

	app.apply(client.Event{Type: protocol.EventGameOver, Winner: "bob"})
	app.apply(client.Event{Type: protocol.EventGameLog, Log: "ignored"})
	assert.Equal(t, "bob wins! Press Esc to quit.", app.status)

	assert.True(t, app.handleInput(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)))
	assert.Len(t, c.moves, 2)

	assert.False(t, app.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.False(t, app.handleInput(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone)))
}

func TestSoundDisabledIsNoop(t *testing.T) {
	s := NewSound()
	assert.False(t, s.Enabled())
	s.Point()
	s.GameOver()
	s.Close()
}
