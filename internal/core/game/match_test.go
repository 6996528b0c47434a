package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pong/internal/core/observability/log"
)

func TestNewMatchWaitsForOpponent(t *testing.T) {
	m, rec, drv := newTestMatch(3, towardPlayer2())

	assert.Equal(t, PhaseWaiting, m.Phase())
	assert.False(t, m.IsRunning())
	assert.Zero(t, drv.started)
	assert.Empty(t, rec.all())

	p1, p2 := m.Players()
	assert.Equal(t, Player{Name: "alice", Ready: true, ConnRef: "conn-a"}, p1)
	assert.Equal(t, Player{Name: WaitingName}, p2)

	s := m.Snapshot()
	assert.Equal(t, "G1", s.GameID)
	assert.Equal(t, 3, s.MaxScore)
	assert.False(t, s.IsRunning)
	assert.Equal(t, CanvasSnapshot{Width: 800, Height: 500}, s.Canvas)
	assert.Equal(t, BoxSnapshot{X: 10, Y: 200, Width: 10, Height: 100}, s.Paddle1)
	assert.Equal(t, BoxSnapshot{X: 780, Y: 200, Width: 10, Height: 100}, s.Paddle2)
	assert.Equal(t, BoxSnapshot{X: 395, Y: 245, Width: 10, Height: 10}, s.Ball)
	assert.Equal(t, PlayerSnapshot{Name: "alice", IsReady: true}, s.Players.P1)
}

func TestMatchOperationsBeforeStartAreRejected(t *testing.T) {
	m, rec, _ := newTestMatch(3, towardPlayer2())

	assert.ErrorIs(t, m.Update(), ErrMatchNotRunning)
	assert.ErrorIs(t, m.SetDirection(RolePlayer1, DirectionUp), ErrMatchNotRunning)
	assert.ErrorIs(t, m.Start(), ErrOpponentMissing)
	assert.Equal(t, PhaseWaiting, m.Phase())
	assert.Empty(t, rec.all())
}

func TestAttachStartsMatch(t *testing.T) {
	m, rec, drv := newTestMatch(3, towardPlayer2())

	require.NoError(t, m.Attach("bob", "conn-b"))

	assert.Equal(t, PhaseRunning, m.Phase())
	assert.Equal(t, 1, drv.started)
	assert.Equal(t, TickInterval, drv.interval)
	assert.Equal(t, []string{"state", "log", "state", "log"}, rec.kinds())
	assert.Equal(t, []string{"Player bob joined. The match is starting!", "Game started"}, rec.logs())

	events := rec.all()
	assert.False(t, events[0].snapshot.IsRunning)
	assert.True(t, events[2].snapshot.IsRunning)
	assert.Equal(t, PlayerSnapshot{Name: "bob", IsReady: true}, events[2].snapshot.Players.P2)

	role, ok := m.RoleOf("conn-b")
	assert.True(t, ok)
	assert.Equal(t, RolePlayer2, role)
	role, ok = m.RoleOf("conn-a")
	assert.True(t, ok)
	assert.Equal(t, RolePlayer1, role)
	_, ok = m.RoleOf("stranger")
	assert.False(t, ok)
	_, ok = m.RoleOf("")
	assert.False(t, ok)

	assert.Equal(t, []string{"conn-a", "conn-b"}, m.ConnRefs())
}

func TestAttachRejectsSecondOpponent(t *testing.T) {
	m, _, _ := newRunningMatch(3, towardPlayer2())
	assert.ErrorIs(t, m.Attach("carol", "conn-c"), ErrMatchFull)

	_, p2 := m.Players()
	assert.Equal(t, "bob", p2.Name)
}

func TestAttachToFinishedMatch(t *testing.T) {
	m, _, _ := newTestMatch(3, towardPlayer2())
	m.Stop()
	assert.ErrorIs(t, m.Attach("bob", "conn-b"), ErrMatchFinished)
}

func TestStartIsIdempotent(t *testing.T) {
	m, rec, drv := newRunningMatch(3, towardPlayer2())
	require.NoError(t, m.Start())
	assert.Equal(t, 1, drv.started)
	assert.Empty(t, rec.all())
}

func TestUpdateEmitsOneSnapshotPerTick(t *testing.T) {
	m, rec, _ := newRunningMatch(3, towardPlayer2())
	require.NoError(t, m.SetDirection(RolePlayer1, DirectionDown))
	require.NoError(t, m.SetDirection(RolePlayer2, DirectionUp))

	for i := 0; i < 4; i++ {
		require.NoError(t, m.Update())
	}

	events := rec.all()
	require.Len(t, events, 4)
	last := events[3].snapshot
	assert.Equal(t, 200+4*PaddleSpeed, last.Paddle1.Y)
	assert.Equal(t, 200-4*PaddleSpeed, last.Paddle2.Y)
	assert.Equal(t, 395+4*BallBaseSpeed, last.Ball.X)
	assert.True(t, last.IsRunning)
}

func TestSetDirectionRejectsUnknownRole(t *testing.T) {
	m, _, _ := newRunningMatch(3, towardPlayer2())
	assert.ErrorIs(t, m.SetDirection(Role("spectator"), DirectionUp), ErrUnknownRole)
}

func TestPlayer1ScoresWhenBallPassesRightEdge(t *testing.T) {
	m, rec, _ := newRunningMatch(3, towardPlayer2())

	for i := 0; i < 79; i++ {
		require.NoError(t, m.Update())
	}
	p1, p2 := m.Players()
	require.Zero(t, p1.Score)
	require.Zero(t, p2.Score)
	assert.Equal(t, 790.0, m.Snapshot().Ball.X)

	rec.reset()
	require.NoError(t, m.Update())

	p1, p2 = m.Players()
	assert.Equal(t, 1, p1.Score)
	assert.Zero(t, p2.Score)
	assert.Equal(t, []string{"state", "log", "state"}, rec.kinds())
	assert.Equal(t, []string{"alice scored a point!"}, rec.logs())

	s := m.Snapshot()
	assert.Equal(t, 395.0, s.Ball.X, "ball reset after the point")
	assert.Equal(t, 245.0, s.Ball.Y)
	assert.Equal(t, PhaseRunning, m.Phase())
}

func TestPlayer2ScoresWhenBallPassesLeftEdge(t *testing.T) {
	m, rec, _ := newRunningMatch(3, &fixedRandom{values: []float64{0.1}})

	for i := 0; i < 80; i++ {
		require.NoError(t, m.Update())
	}

	p1, p2 := m.Players()
	assert.Zero(t, p1.Score)
	assert.Equal(t, 1, p2.Score)
	assert.Contains(t, rec.logs(), "bob scored a point!")
}

func TestMatchFinishesAtMaxScore(t *testing.T) {
	m, rec, drv := newRunningMatch(3, towardPlayer2())

	ticks := 0
	for m.IsRunning() && ticks < 10_000 {
		require.NoError(t, m.Update())
		ticks++
	}

	assert.Equal(t, 240, ticks)
	assert.Equal(t, PhaseFinished, m.Phase())
	assert.GreaterOrEqual(t, drv.stopped, 1)

	p1, p2 := m.Players()
	assert.Equal(t, 3, p1.Score)
	assert.Zero(t, p2.Score)

	winner, ok := m.Winner()
	assert.True(t, ok)
	assert.Equal(t, "alice", winner)

	var overs []string
	for _, e := range rec.all() {
		if e.kind == "game_over" {
			overs = append(overs, e.message)
		}
	}
	assert.Equal(t, []string{"alice"}, overs)

	// terminal: no further ticks change anything
	before := m.Snapshot()
	rec.reset()
	err := m.Update()
	assert.ErrorIs(t, err, ErrMatchNotRunning)
	assert.ErrorIs(t, err, ErrMatchFinished)
	assert.Equal(t, before, m.Snapshot())
	assert.Empty(t, rec.all())
	assert.ErrorIs(t, m.SetDirection(RolePlayer1, DirectionUp), ErrMatchFinished)
}

func TestEndToEndFirstPointWins(t *testing.T) {
	m, rec, _ := newRunningMatch(1, towardPlayer2())
	require.NoError(t, m.SetDirection(RolePlayer2, DirectionUp))

	for i := 0; i < 1000 && m.IsRunning(); i++ {
		require.NoError(t, m.Update())
	}

	p1, _ := m.Players()
	assert.Equal(t, 1, p1.Score)
	assert.Equal(t, PhaseFinished, m.Phase())
	winner, ok := m.Winner()
	require.True(t, ok)
	assert.Equal(t, "alice", winner)

	kinds := rec.kinds()
	require.GreaterOrEqual(t, len(kinds), 4)
	assert.Equal(t, []string{"state", "log", "game_over", "state"}, kinds[len(kinds)-4:])

	events := rec.all()
	final := events[len(events)-1].snapshot
	assert.False(t, final.IsRunning)
	assert.Equal(t, 1, final.Players.P1.Score)
}

func TestTieGoesToPlayer2(t *testing.T) {
	m, rec, _ := newRunningMatch(2, towardPlayer2())

	m.mu.Lock()
	m.players[0].Score = 2
	m.players[1].Score = 2
	m.checkScoringLocked()
	m.unlockAndFlush()

	winner, ok := m.Winner()
	assert.True(t, ok)
	assert.Equal(t, "bob", winner)
	assert.Equal(t, []string{"game_over"}, rec.kinds())
}

func TestAbortEndsWithoutWinner(t *testing.T) {
	m, rec, drv := newRunningMatch(3, towardPlayer2())

	m.Abort("The opponent disconnected. The match is over.")

	assert.Equal(t, PhaseFinished, m.Phase())
	assert.Equal(t, 1, drv.stopped)
	_, ok := m.Winner()
	assert.False(t, ok)
	assert.Equal(t, []string{"The opponent disconnected. The match is over."}, rec.logs())
	assert.ErrorIs(t, m.Update(), ErrMatchFinished)
}

func TestStopIsRepeatable(t *testing.T) {
	m, rec, drv := newRunningMatch(3, towardPlayer2())
	m.Stop()
	m.Stop()

	assert.Equal(t, PhaseFinished, m.Phase())
	assert.Equal(t, 2, drv.stopped)
	assert.Empty(t, rec.all())
	assert.ErrorIs(t, m.Start(), ErrMatchFinished)
}

func TestBroadcastStateWithMessage(t *testing.T) {
	m, rec, _ := newTestMatch(3, towardPlayer2())
	m.BroadcastState("Waiting for the second player...")
	m.BroadcastState("")

	assert.Equal(t, []string{"state", "log", "state"}, rec.kinds())
	assert.Equal(t, []string{"Waiting for the second player..."}, rec.logs())
}

func TestNewMatchDefaults(t *testing.T) {
	m := NewMatch("G9", "alice", "conn-a", nil, Options{Logger: log.Nop()})
	assert.Equal(t, 1, m.MaxScore())
	assert.False(t, m.CreatedAt().IsZero())
	assert.NotPanics(t, func() { m.BroadcastState("nobody listens") })
	m.Stop()
}

func TestMatchWithTickerDriver(t *testing.T) {
	rec := &recorder{}
	m := NewMatch("G2", "alice", "conn-a", rec, Options{
		MaxScore:     50,
		TickInterval: time.Millisecond,
		Random:       towardPlayer2(),
		Logger:       log.Nop(),
	})
	require.NoError(t, m.Attach("bob", "conn-b"))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dirs := []Direction{DirectionUp, DirectionDown, DirectionStop}
			for j := 0; j < 50; j++ {
				_ = m.SetDirection(RolePlayer1, dirs[(i+j)%len(dirs)])
			}
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(rec.all()) > 20
	}, 2*time.Second, 5*time.Millisecond)

	m.Stop()
	// a tick already past its phase check may still be flushing
	time.Sleep(10 * time.Millisecond)
	count := len(rec.all())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, count, len(rec.all()), "no tick emits once stopped")
	assert.Equal(t, PhaseFinished, m.Phase())
}
