package server

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/events/bus"
	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/observability/metrics"
	"github.com/zeusync/pong/internal/core/protocol"
	"github.com/zeusync/pong/internal/core/registry"
)

const (
	msgWaiting        = "Waiting for the second player..."
	msgOpponentLeft   = "The opponent disconnected. The match is over."
	msgWaitingExpired = "No opponent joined in time. The match was closed."
	msgServerStopping = "The server is shutting down."
)

// Hub routes client messages to matches and match output back to clients.
//
// The hub never calls into a match while holding its own lock: match output
// arrives through the bus on the match's delivery path and takes the hub lock
// for reading.
type Hub struct {
	cfg       config.GameConfig
	registry  *registry.Registry
	bus       bus.EventBus
	publisher *bus.MatchPublisher
	metrics   metrics.Collector
	logger    log.Log

	// tune adjusts options of every new match.
	tune func(*game.Options)

	// joinMu serializes the check-then-attach sequence of joins.
	joinMu sync.Mutex

	mu       sync.RWMutex
	sessions map[string]Session
	members  map[string]map[string]struct{}
	matchOf  map[string]string
}

// Stats is the hub view reported by the health endpoint.
type Stats struct {
	ActiveGames     int      `json:"activeGames"`
	Games           []string `json:"games"`
	Sessions        int      `json:"sessions"`
	EventsPublished uint64   `json:"eventsPublished"`
}

func NewHub(cfg config.Config, reg *registry.Registry, b bus.EventBus, collector metrics.Collector, logger log.Log) *Hub {
	if logger == nil {
		logger = log.Provide()
	}
	h := &Hub{
		cfg:       cfg.Game,
		registry:  reg,
		bus:       b,
		publisher: bus.NewMatchPublisher(b, logger),
		metrics:   collector,
		logger:    logger.With(log.String("component", "hub")),
		sessions:  make(map[string]Session),
		members:   make(map[string]map[string]struct{}),
		matchOf:   make(map[string]string),
	}
	b.AddObserver(busMetrics{collector})
	return h
}

func (h *Hub) Register(s Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.mu.Unlock()

	h.metrics.Gauge("sessions").Inc()
	h.logger.Info("Session connected",
		log.String("session_id", s.ID()),
		log.String("remote_addr", s.RemoteAddr()),
		log.String("codec", s.Codec().Name()))
}

// Handle processes one inbound frame. Failures are reported to the sender as
// game_error and never affect running matches.
func (h *Hub) Handle(s Session, frame []byte) {
	h.metrics.Counter("frames_received").Inc()

	msg, err := s.Codec().Decode(frame)
	if err != nil {
		h.logger.Debug("Undecodable frame", log.String("session_id", s.ID()), log.Error(err))
		h.replyError(s, ErrMalformedMessage)
		return
	}

	switch msg.Event {
	case protocol.EventCreateGame:
		err = h.handleCreate(s, msg)
	case protocol.EventJoinGame:
		err = h.handleJoin(s, msg)
	case protocol.EventMovePaddle:
		err = h.handleMove(s, msg)
	default:
		err = ErrUnknownEvent
	}
	if err != nil {
		h.replyError(s, err)
	}
}

func (h *Hub) handleCreate(s Session, msg protocol.Message) error {
	var req protocol.CreateGame
	if err := msg.Bind(&req); err != nil {
		return ErrMalformedMessage
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return ErrPlayerNameRequired
	}
	if err := h.leaveFinished(s.ID()); err != nil {
		return err
	}

	id := h.registry.NextID()
	if _, err := h.bus.Subscribe(id, bus.AnyType, h.deliver(id)); err != nil {
		return err
	}
	h.bind(s.ID(), id)

	m := game.NewMatch(id, name, s.ID(), h.publisher, h.matchOptions(req.MaxScore))
	if err := h.registry.Add(m); err != nil {
		h.release(s.ID())
		return err
	}
	h.metrics.Counter("matches_created").Inc()

	h.reply(s, protocol.EventGameCreated, protocol.GameAssigned{
		GameID:     id,
		PlayerRole: string(game.RolePlayer1),
	})
	m.BroadcastState(msgWaiting)
	return nil
}

func (h *Hub) handleJoin(s Session, msg protocol.Message) error {
	var req protocol.JoinGame
	if err := msg.Bind(&req); err != nil {
		return ErrMalformedMessage
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return ErrPlayerNameRequired
	}

	h.joinMu.Lock()
	defer h.joinMu.Unlock()

	m, err := h.registry.Get(strings.TrimSpace(req.GameID))
	if err != nil {
		return ErrMatchNotFound
	}
	if _, p2 := m.Players(); m.Phase() != game.PhaseWaiting || p2.Ready {
		return ErrMatchFull
	}
	if err = h.leaveFinished(s.ID()); err != nil {
		return err
	}

	h.bind(s.ID(), m.ID())
	h.reply(s, protocol.EventGameJoined, protocol.GameAssigned{
		GameID:     m.ID(),
		PlayerRole: string(game.RolePlayer2),
	})

	if err = m.Attach(name, s.ID()); err != nil {
		h.release(s.ID())
		if errors.Is(err, game.ErrMatchFull) {
			return ErrMatchFull
		}
		return ErrMatchNotFound
	}
	return nil
}

// handleMove ignores intents for unknown matches and from non-participants.
func (h *Hub) handleMove(s Session, msg protocol.Message) error {
	var req protocol.MovePaddle
	if err := msg.Bind(&req); err != nil {
		return ErrMalformedMessage
	}
	d, err := game.ParseDirection(req.Direction)
	if err != nil {
		return ErrInvalidDirection
	}

	m, err := h.registry.Get(req.GameID)
	if err != nil {
		return nil
	}
	role, ok := m.RoleOf(s.ID())
	if !ok {
		return nil
	}
	if err = m.SetDirection(role, d); err != nil {
		h.logger.Debug("Move ignored",
			log.String("match_id", m.ID()),
			log.String("role", string(role)),
			log.Error(err))
	}
	return nil
}

// Disconnect forgets s and aborts the match it played in.
func (h *Hub) Disconnect(s Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID()]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID())
	matchID := h.matchOf[s.ID()]
	h.mu.Unlock()

	h.metrics.Gauge("sessions").Dec()
	h.logger.Info("Session disconnected", log.String("session_id", s.ID()))

	if matchID == "" {
		return
	}
	h.release(s.ID())

	m, ok := h.registry.Remove(matchID)
	if !ok {
		return
	}
	if m.Phase() == game.PhaseFinished {
		m.Stop()
		return
	}
	m.Abort(msgOpponentLeft)
	h.metrics.Counter("matches_aborted").Inc()
}

// Sweep closes matches that waited for an opponent longer than the
// configured timeout. It returns how many were closed.
func (h *Hub) Sweep(now time.Time) int {
	closed := 0
	for _, m := range h.registry.Stale(now, h.cfg.WaitingTimeout) {
		if _, ok := h.registry.Remove(m.ID()); !ok {
			continue
		}
		m.Abort(msgWaitingExpired)
		closed++
		h.logger.Info("Waiting match expired", log.String("match_id", m.ID()))
	}
	return closed
}

// Shutdown aborts every match and closes every session.
func (h *Hub) Shutdown() {
	var matches []*game.Match
	h.registry.Range(func(m *game.Match) bool {
		matches = append(matches, m)
		return true
	})
	for _, m := range matches {
		h.registry.Remove(m.ID())
		m.Abort(msgServerStopping)
	}

	h.mu.RLock()
	sessions := make([]Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	sessions := len(h.sessions)
	h.mu.RUnlock()

	games := h.registry.IDs()
	if games == nil {
		games = []string{}
	}
	return Stats{
		ActiveGames:     len(games),
		Games:           games,
		Sessions:        sessions,
		EventsPublished: h.bus.Metrics().Published,
	}
}

func (h *Hub) matchOptions(requested int) game.Options {
	opts := game.Options{
		MaxScore:     h.cfg.ResolveMaxScore(requested),
		TickInterval: h.cfg.TickInterval(),
		Logger:       h.logger,
	}
	if h.tune != nil {
		h.tune(&opts)
	}
	return opts
}

// deliver fans match output out to the match members.
func (h *Hub) deliver(matchID string) bus.EventHandler {
	return func(e bus.Event) error {
		var (
			event   string
			payload any
		)
		switch e.Type() {
		case bus.EventState:
			event, payload = protocol.EventGameState, e.Data()
		case bus.EventLog:
			event, payload = protocol.EventGameLog, e.Data()
		case bus.EventGameOver:
			winner, _ := e.Data().(string)
			event, payload = protocol.EventGameOver, protocol.GameOver{Winner: winner}
			if _, ok := h.registry.Remove(matchID); ok {
				h.metrics.Counter("matches_finished").Inc()
			}
		default:
			return nil
		}
		return h.broadcast(matchID, event, payload)
	}
}

func (h *Hub) broadcast(matchID, event string, payload any) error {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.members[matchID]))
	for id := range h.members[matchID] {
		if s, ok := h.sessions[id]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	frames := make(map[string][]byte, 2)
	var all error
	for _, s := range targets {
		codec := s.Codec()
		frame, ok := frames[codec.Name()]
		if !ok {
			var err error
			if frame, err = codec.Encode(event, payload); err != nil {
				return err
			}
			frames[codec.Name()] = frame
		}
		if err := h.send(s, frame); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (h *Hub) reply(s Session, event string, payload any) {
	frame, err := s.Codec().Encode(event, payload)
	if err != nil {
		h.logger.Error("Encode reply failed", log.String("event", event), log.Error(err))
		return
	}
	_ = h.send(s, frame)
}

func (h *Hub) replyError(s Session, err error) {
	h.metrics.Counter("errors_sent").Inc()
	h.reply(s, protocol.EventGameError, err.Error())
}

func (h *Hub) send(s Session, frame []byte) error {
	err := s.Send(frame)
	switch {
	case err == nil:
		h.metrics.Counter("frames_sent").Inc()
	case errors.Is(err, ErrSendQueueFull):
		h.logger.Warn("Slow session dropped", log.String("session_id", s.ID()))
		_ = s.Close()
	}
	return err
}

func (h *Hub) bind(sessionID, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.members[matchID] == nil {
		h.members[matchID] = make(map[string]struct{}, 2)
	}
	h.members[matchID][sessionID] = struct{}{}
	h.matchOf[sessionID] = matchID
}

// release drops the session's membership and the match topic once nobody is left.
func (h *Hub) release(sessionID string) {
	h.mu.Lock()
	matchID, ok := h.matchOf[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.matchOf, sessionID)
	delete(h.members[matchID], sessionID)
	empty := len(h.members[matchID]) == 0
	if empty {
		delete(h.members, matchID)
	}
	h.mu.Unlock()

	if empty {
		h.bus.CloseTopic(matchID)
	}
}

// leaveFinished lets a session start over once its previous match ended.
func (h *Hub) leaveFinished(sessionID string) error {
	h.mu.RLock()
	matchID := h.matchOf[sessionID]
	h.mu.RUnlock()
	if matchID == "" {
		return nil
	}

	if m, err := h.registry.Get(matchID); err == nil && m.Phase() != game.PhaseFinished {
		return ErrAlreadyInMatch
	}
	h.release(sessionID)
	return nil
}

type busMetrics struct {
	collector metrics.Collector
}

func (o busMetrics) OnPublish(_, eventType string, _ bus.Event) {
	o.collector.Counter("bus_published_" + eventType).Inc()
}

func (o busMetrics) OnDelivered(_, _ string, _ int, err error, _ time.Duration) {
	if err != nil {
		o.collector.Counter("bus_delivery_errors").Inc()
	}
}
