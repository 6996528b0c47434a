package bus

import (
	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/observability/log"
)

// Event types published for match output. Each match publishes on the topic
// named by its id.
const (
	EventState    = "game_state"
	EventLog      = "game_log"
	EventGameOver = "game_over"
)

// MatchPublisher adapts a bus to game.Broadcaster.
type MatchPublisher struct {
	bus    EventBus
	logger log.Log
}

func NewMatchPublisher(b EventBus, logger log.Log) *MatchPublisher {
	if logger == nil {
		logger = log.Provide()
	}
	return &MatchPublisher{
		bus:    b,
		logger: logger.With(log.String("component", "match_publisher")),
	}
}

var _ game.Broadcaster = (*MatchPublisher)(nil)

func (p *MatchPublisher) BroadcastState(matchID string, snapshot game.Snapshot) {
	p.publish(matchID, EventState, snapshot)
}

func (p *MatchPublisher) BroadcastLog(matchID, message string) {
	p.publish(matchID, EventLog, message)
}

func (p *MatchPublisher) BroadcastGameOver(matchID, winner string) {
	p.publish(matchID, EventGameOver, winner)
}

func (p *MatchPublisher) publish(matchID, eventType string, data any) {
	if err := p.bus.Publish(matchID, NewEvent(eventType, matchID, data)); err != nil {
		p.logger.Warn("Match event delivery failed",
			log.String("match_id", matchID),
			log.String("event", eventType),
			log.Error(err))
	}
}
