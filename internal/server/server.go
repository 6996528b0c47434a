package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/observability/log"
)

// Server runs the HTTP/websocket endpoint, the optional QUIC listener and the
// waiting-match sweeper under one errgroup.
type Server struct {
	cfg    config.Config
	hub    *Hub
	http   *http.Server
	quic   *QUICListener
	logger log.Log

	running atomic.Bool
	addr    atomic.Value // net.Addr
}

func NewServer(cfg config.Config, hub *Hub, ws *WebSocketHandler, q *QUICListener, logger log.Log) *Server {
	if logger == nil {
		logger = log.Provide()
	}
	return &Server{
		cfg: cfg,
		hub: hub,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           NewHTTPHandler(hub, ws, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		},
		quic:   q,
		logger: logger.With(log.String("component", "server")),
	}
}

// Run serves until ctx is cancelled or a component fails, then shuts
// everything down.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.http.Addr)
	}
	s.addr.Store(ln.Addr())

	if s.cfg.QUIC.Enabled {
		if err = s.quic.Listen(); err != nil {
			_ = ln.Close()
			return err
		}
	}

	s.logger.Info("Server started",
		log.String("addr", ln.Addr().String()),
		log.Bool("quic", s.cfg.QUIC.Enabled))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http serve")
		}
		return nil
	})

	if s.cfg.QUIC.Enabled {
		g.Go(func() error {
			return s.quic.Serve(gctx)
		})
	}

	if s.cfg.Game.WaitingTimeout > 0 {
		g.Go(func() error {
			s.sweep(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

// Addr is the bound HTTP address once Run has started listening.
func (s *Server) Addr() net.Addr {
	addr, _ := s.addr.Load().(net.Addr)
	return addr
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Game.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.hub.Sweep(now); n > 0 {
				s.logger.Info("Expired waiting matches", log.Int("count", n))
			}
		}
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("Server shutting down")
	s.hub.Shutdown()

	if s.cfg.QUIC.Enabled {
		if err := s.quic.Close(); err != nil {
			s.logger.Warn("QUIC close failed", log.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Wrap(s.http.Shutdown(ctx), "http shutdown")
}
