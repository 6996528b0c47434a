package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/protocol"
	"github.com/zeusync/pong/internal/term"
	"github.com/zeusync/pong/sdk/go/client"
)

func main() {
	var (
		server   = flag.String("server", "ws://localhost:4000/ws", "websocket URL, or host:port with -quic")
		useQUIC  = flag.Bool("quic", false, "connect over QUIC instead of websocket")
		codec    = flag.String("codec", protocol.CodecJSON, "wire codec: json or msgpack")
		name     = flag.String("name", "", "player name")
		gameID   = flag.String("join", "", "id of the match to join; empty creates a new one")
		maxScore = flag.Int("max-score", 0, "points needed to win a new match; 0 uses the server default")
		mute     = flag.Bool("mute", false, "disable sound")
		logPath  = flag.String("log", filepath.Join(os.TempDir(), "pongterm.log"), "log file")
	)
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := log.NewWithOptions(log.Options{
		Level:       log.LevelInfo,
		Encoding:    "console",
		OutputPaths: []string{*logPath},
	})
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *server, *useQUIC, *codec, *mute, term.Options{
		PlayerName: *name,
		GameID:     *gameID,
		MaxScore:   *maxScore,
		Logger:     logger,
	}); err != nil {
		logger.Error("pongterm failed", log.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(logger log.Log, server string, useQUIC bool, codec string, mute bool, opts term.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := client.DefaultConfig()
	cfg.Codec = codec
	cfg.Logger = logger

	var (
		c   *client.Client
		err error
	)
	if useQUIC {
		c, err = client.DialQUIC(ctx, server, cfg)
	} else {
		c, err = client.DialWebSocket(ctx, server, cfg)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	sound := term.NewSound()
	if !mute {
		if err = sound.Init(); err != nil {
			// Play silently.
			logger.Warn("Audio initialization failed", log.Error(err))
		}
	}
	defer sound.Close()

	return term.NewApp(screen, c, sound, opts).Run(ctx)
}
