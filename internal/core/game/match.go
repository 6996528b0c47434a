package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/pong/internal/core/observability/log"
)

// Phase is the lifecycle state of a match.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseWaiting
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaiting:
		return "waiting"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Role identifies a player slot.
type Role string

const (
	RolePlayer1 Role = "player1"
	RolePlayer2 Role = "player2"
)

// Player is one participant. ConnRef is owned by the transport and opaque here.
type Player struct {
	Name    string
	Score   int
	Ready   bool
	ConnRef string
}

// Broadcaster delivers match output to participants. Calls for one match are
// serialized and arrive in the order the state changed. Implementations must
// not call back into the emitting Match.
type Broadcaster interface {
	BroadcastState(matchID string, snapshot Snapshot)
	BroadcastLog(matchID string, message string)
	BroadcastGameOver(matchID string, winner string)
}

type Options struct {
	MaxScore     int
	TickInterval time.Duration
	Random       RandomSource
	Driver       Driver
	Logger       log.Log
	Now          func() time.Time
}

var errFinished = fmt.Errorf("%w: %w", ErrMatchNotRunning, ErrMatchFinished)

// Match owns the simulation of one two-player session.
type Match struct {
	id        string
	maxScore  int
	interval  time.Duration
	createdAt time.Time
	out       Broadcaster
	driver    Driver
	logger    log.Log

	// mu guards the simulation state. emitMu serializes delivery of pending
	// notifications and is taken before mu is released.
	mu      sync.Mutex
	emitMu  sync.Mutex
	pending []func(Broadcaster)

	phase   Phase
	players [2]Player
	ball    *Ball
	paddle1 *Paddle
	paddle2 *Paddle
	winner  string
}

// NewMatch creates a match waiting for its second player. The host is ready.
func NewMatch(id, hostName, hostConn string, out Broadcaster, opts Options) *Match {
	if opts.MaxScore <= 0 {
		opts.MaxScore = 1
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = TickInterval
	}
	if opts.Driver == nil {
		opts.Driver = NewTickerDriver()
	}
	if opts.Logger == nil {
		opts.Logger = log.Provide()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Match{
		id:        id,
		maxScore:  opts.MaxScore,
		interval:  opts.TickInterval,
		createdAt: opts.Now(),
		out:       out,
		driver:    opts.Driver,
		logger:    opts.Logger.With(log.String("component", "match"), log.String("match_id", id)),
		phase:     PhaseWaiting,
		ball:      NewBall(opts.Random),
		paddle1:   NewPaddle(PaddleInset),
		paddle2:   NewPaddle(CourtWidth - PaddleWidth - PaddleInset),
	}
	m.players[0] = Player{Name: hostName, Ready: true, ConnRef: hostConn}
	m.players[1] = Player{Name: WaitingName}

	m.logger.Info("Match created",
		log.String("host", hostName),
		log.Int("max_score", opts.MaxScore))

	return m
}

func (m *Match) ID() string           { return m.id }
func (m *Match) MaxScore() int        { return m.maxScore }
func (m *Match) CreatedAt() time.Time { return m.createdAt }

func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Match) IsRunning() bool {
	return m.Phase() == PhaseRunning
}

// Players returns copies of both player records.
func (m *Match) Players() (Player, Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[0], m.players[1]
}

// Winner returns the winner's name once the match finished on score.
// Stopped or aborted matches have no winner.
func (m *Match) Winner() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner, m.winner != ""
}

// RoleOf returns the slot held by the given connection.
func (m *Match) RoleOf(connRef string) (Role, bool) {
	if connRef == "" {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch connRef {
	case m.players[0].ConnRef:
		return RolePlayer1, true
	case m.players[1].ConnRef:
		return RolePlayer2, true
	}
	return "", false
}

// ConnRefs lists the connection references of attached players.
func (m *Match) ConnRefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, 0, 2)
	for _, p := range m.players {
		if p.ConnRef != "" {
			refs = append(refs, p.ConnRef)
		}
	}
	return refs
}

func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Attach fills the second slot and starts the match.
func (m *Match) Attach(name, connRef string) error {
	m.mu.Lock()
	switch {
	case m.phase == PhaseFinished:
		m.mu.Unlock()
		return ErrMatchFinished
	case m.phase != PhaseWaiting || m.players[1].Ready:
		m.mu.Unlock()
		return ErrMatchFull
	}

	m.players[1] = Player{Name: name, Ready: true, ConnRef: connRef}
	m.logger.Info("Opponent attached", log.String("opponent", name))
	m.queueStateLocked(fmt.Sprintf("Player %s joined. The match is starting!", name))

	err := m.startLocked()
	m.unlockAndFlush()
	return err
}

// Start begins ticking. It is a no-op on a running match.
func (m *Match) Start() error {
	m.mu.Lock()
	err := m.startLocked()
	m.unlockAndFlush()
	return err
}

func (m *Match) startLocked() error {
	switch m.phase {
	case PhaseRunning:
		return nil
	case PhaseFinished:
		return ErrMatchFinished
	}
	if !m.players[0].Ready || !m.players[1].Ready {
		return ErrOpponentMissing
	}

	m.phase = PhaseRunning
	m.ball.Reset()
	m.driver.Start(m.interval, m.tick)
	m.logger.Info("Match started", log.Duration("tick_interval", m.interval))
	m.queueStateLocked("Game started")
	return nil
}

func (m *Match) tick() {
	if err := m.Update(); err != nil && !errors.Is(err, ErrMatchNotRunning) {
		m.logger.Error("Tick failed", log.Error(err))
	}
}

// Update advances the simulation by one tick.
func (m *Match) Update() error {
	m.mu.Lock()
	if err := m.runningErrLocked(); err != nil {
		m.mu.Unlock()
		return err
	}

	m.paddle1.Update()
	m.paddle2.Update()
	m.ball.Update(m.paddle1, m.paddle2)

	m.checkScoringLocked()
	m.queueStateLocked("")
	m.unlockAndFlush()
	return nil
}

func (m *Match) checkScoringLocked() {
	switch {
	case m.ball.X+m.ball.Width > CourtWidth:
		m.pointLocked(0)
	case m.ball.X < 0:
		m.pointLocked(1)
	}

	p1, p2 := m.players[0], m.players[1]
	if p1.Score < m.maxScore && p2.Score < m.maxScore {
		return
	}

	m.stopLocked()
	// Ties go to player2.
	if p1.Score > p2.Score {
		m.winner = p1.Name
	} else {
		m.winner = p2.Name
	}

	m.logger.Info("Match finished",
		log.String("winner", m.winner),
		log.Int("player1_score", p1.Score),
		log.Int("player2_score", p2.Score))

	id, winner := m.id, m.winner
	m.pending = append(m.pending, func(out Broadcaster) {
		out.BroadcastGameOver(id, winner)
	})
}

func (m *Match) pointLocked(idx int) {
	m.players[idx].Score++
	m.ball.Reset()

	name := m.players[idx].Name
	m.logger.Debug("Point scored",
		log.String("player", name),
		log.Int("score", m.players[idx].Score))
	m.queueStateLocked(fmt.Sprintf("%s scored a point!", name))
}

// SetDirection records the latest intent for role's paddle.
func (m *Match) SetDirection(role Role, d Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.runningErrLocked(); err != nil {
		return err
	}
	switch role {
	case RolePlayer1:
		m.paddle1.SetDirection(d)
	case RolePlayer2:
		m.paddle2.SetDirection(d)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return nil
}

// Stop cancels the tick driver and makes the match terminal without a winner.
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Abort stops the match and tells participants why.
func (m *Match) Abort(reason string) {
	m.mu.Lock()
	m.stopLocked()
	m.logger.Info("Match aborted", log.String("reason", reason))
	if reason != "" {
		id := m.id
		m.pending = append(m.pending, func(out Broadcaster) {
			out.BroadcastLog(id, reason)
		})
	}
	m.unlockAndFlush()
}

func (m *Match) stopLocked() {
	m.phase = PhaseFinished
	m.driver.Stop()
}

// BroadcastState emits a snapshot, plus message as a log line when non-empty.
func (m *Match) BroadcastState(message string) {
	m.mu.Lock()
	m.queueStateLocked(message)
	m.unlockAndFlush()
}

func (m *Match) runningErrLocked() error {
	switch m.phase {
	case PhaseRunning:
		return nil
	case PhaseFinished:
		return errFinished
	default:
		return ErrMatchNotRunning
	}
}

func (m *Match) queueStateLocked(message string) {
	id, snapshot := m.id, m.snapshotLocked()
	m.pending = append(m.pending, func(out Broadcaster) {
		out.BroadcastState(id, snapshot)
		if message != "" {
			out.BroadcastLog(id, message)
		}
	})
}

// unlockAndFlush releases mu and delivers everything queued while it was held.
func (m *Match) unlockAndFlush() {
	pending := m.pending
	m.pending = nil

	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	if m.out == nil {
		return
	}
	for _, emit := range pending {
		emit(m.out)
	}
}

func (m *Match) snapshotLocked() Snapshot {
	return Snapshot{
		Players: PlayersSnapshot{
			P1: playerSnapshot(m.players[0]),
			P2: playerSnapshot(m.players[1]),
		},
		Ball:      ballSnapshot(m.ball),
		Paddle1:   paddleSnapshot(m.paddle1),
		Paddle2:   paddleSnapshot(m.paddle2),
		IsRunning: m.phase == PhaseRunning,
		MaxScore:  m.maxScore,
		GameID:    m.id,
		Canvas:    CanvasSnapshot{Width: CourtWidth, Height: CourtHeight},
	}
}
