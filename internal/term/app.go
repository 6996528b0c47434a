package term

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/pong/internal/core/game"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/protocol"
	"github.com/zeusync/pong/sdk/go/client"
)

// Client is the part of the pong client the terminal needs.
type Client interface {
	CreateGame(playerName string, maxScore int) error
	JoinGame(playerName, gameID string) error
	Move(gameID string, d game.Direction) error
	Events() <-chan client.Event
}

type Options struct {
	PlayerName string
	// GameID joins an existing match. Empty creates a new one.
	GameID   string
	MaxScore int
	Logger   log.Log
}

type App struct {
	screen tcell.Screen
	view   *View
	client Client
	sound  *Sound
	opts   Options
	logger log.Log

	gameID   string
	role     string
	snapshot *game.Snapshot
	status   string
	over     bool
}

func NewApp(screen tcell.Screen, c Client, sound *Sound, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.Provide()
	}
	if sound == nil {
		sound = NewSound()
	}
	return &App{
		screen: screen,
		view:   NewView(screen),
		client: c,
		sound:  sound,
		opts:   opts,
		logger: logger.With(log.String("component", "pongterm")),
		gameID: opts.GameID,
		status: "Connecting...",
	}
}

// Run sends the opening request and processes input and server events until
// the user quits, ctx ends or the connection closes.
func (a *App) Run(ctx context.Context) error {
	if a.opts.GameID != "" {
		if err := a.client.JoinGame(a.opts.PlayerName, a.opts.GameID); err != nil {
			return err
		}
	} else if err := a.client.CreateGame(a.opts.PlayerName, a.opts.MaxScore); err != nil {
		return err
	}

	input := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case input <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	a.view.Draw(a.snapshot, a.status)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-input:
			if !a.handleInput(ev) {
				return nil
			}
		case e, ok := <-a.client.Events():
			if !ok {
				return nil
			}
			a.apply(e)
		}
		a.view.Draw(a.snapshot, a.status)
	}
}

// handleInput reports false when the user asked to quit.
func (a *App) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' {
			return false
		}
		d, ok := directionFor(ev)
		if !ok || a.gameID == "" || a.over {
			return true
		}
		if err := a.client.Move(a.gameID, d); err != nil {
			a.logger.Warn("Failed to send move", log.Error(err))
			a.status = err.Error()
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func directionFor(ev *tcell.EventKey) (game.Direction, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return game.DirectionUp, true
	case tcell.KeyDown:
		return game.DirectionDown, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'k':
			return game.DirectionUp, true
		case 's', 'j':
			return game.DirectionDown, true
		case ' ':
			return game.DirectionStop, true
		}
	}
	return game.DirectionStop, false
}

func (a *App) apply(e client.Event) {
	switch e.Type {
	case protocol.EventGameCreated, protocol.EventGameJoined:
		a.gameID = e.Assigned.GameID
		a.role = e.Assigned.PlayerRole
		a.status = fmt.Sprintf("Playing as %s in %s", a.role, a.gameID)
	case protocol.EventGameState:
		if a.snapshot != nil && totalScore(e.State) > totalScore(a.snapshot) {
			a.sound.Point()
		}
		a.snapshot = e.State
	case protocol.EventGameLog:
		if !a.over {
			a.status = e.Log
		}
	case protocol.EventGameError:
		a.status = "Error: " + e.Error
	case protocol.EventGameOver:
		a.over = true
		a.status = fmt.Sprintf("%s wins! Press Esc to quit.", e.Winner)
		a.sound.GameOver()
	}
}

func totalScore(s *game.Snapshot) int {
	return s.Players.P1.Score + s.Players.P2.Score
}
