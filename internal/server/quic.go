package server

import (
	"context"
	"io"
	"net"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/protocol"
)

// QUICListener accepts QUIC connections. Each connection carries one
// bidirectional stream that starts with a codec tag followed by
// length-prefixed frames.
type QUICListener struct {
	hub      *Hub
	cfg      config.Config
	listener *quic.Listener
	closed   atomic.Bool
	logger   log.Log
}

func NewQUICListener(hub *Hub, cfg config.Config, logger log.Log) *QUICListener {
	if logger == nil {
		logger = log.Provide()
	}
	return &QUICListener{
		hub:    hub,
		cfg:    cfg,
		logger: logger.With(log.String("component", "quic")),
	}
}

// Listen binds the UDP address from the configuration.
func (l *QUICListener) Listen() error {
	tlsConfig, err := quicTLSConfig(l.cfg.QUIC)
	if err != nil {
		return err
	}

	ln, err := quic.ListenAddr(l.cfg.QUIC.Addr, tlsConfig, &quic.Config{
		MaxIdleTimeout:  l.cfg.QUIC.MaxIdleTimeout,
		KeepAlivePeriod: l.cfg.QUIC.MaxIdleTimeout / 3,
	})
	if err != nil {
		return errors.Wrapf(err, "listen quic on %s", l.cfg.QUIC.Addr)
	}
	l.listener = ln

	l.logger.Info("QUIC listener started", log.String("addr", ln.Addr().String()))
	return nil
}

func (l *QUICListener) Addr() net.Addr {
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Serve accepts connections until ctx is done or the listener is closed.
func (l *QUICListener) Serve(ctx context.Context) error {
	if l.listener == nil {
		if err := l.Listen(); err != nil {
			return err
		}
	}

	for {
		conn, err := l.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || l.closed.Load() {
				return nil
			}
			return errors.Wrap(err, "accept quic connection")
		}
		go l.serveConn(ctx, conn)
	}
}

func (l *QUICListener) Close() error {
	if l.listener == nil || !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.logger.Info("Closing QUIC listener")
	return l.listener.Close()
}

func (l *QUICListener) serveConn(ctx context.Context, conn *quic.Conn) {
	logger := l.logger.With(log.String("remote_addr", conn.RemoteAddr().String()))

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		logger.Debug("No stream opened", log.Error(err))
		_ = conn.CloseWithError(0, "no stream")
		return
	}

	codec, err := protocol.ReadCodecTag(stream)
	if err != nil {
		logger.Debug("Bad codec tag", log.Error(err))
		_ = conn.CloseWithError(1, "bad codec")
		return
	}

	s := newQUICSession(conn, stream, codec, l.cfg.Server.SendQueueSize)
	l.hub.Register(s)
	go s.writeLoop(logger)

	for {
		frame, err := protocol.ReadFrame(stream)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.Debug("QUIC read failed", log.Error(err))
			}
			break
		}
		l.hub.Handle(s, frame)
	}

	l.hub.Disconnect(s)
	_ = s.Close()
}

type quicSession struct {
	id     string
	conn   *quic.Conn
	stream *quic.Stream
	codec  protocol.Codec
	out    *outbox
}

func newQUICSession(conn *quic.Conn, stream *quic.Stream, codec protocol.Codec, queue int) *quicSession {
	return &quicSession{
		id:     uuid.NewString(),
		conn:   conn,
		stream: stream,
		codec:  codec,
		out:    newOutbox(queue),
	}
}

func (s *quicSession) ID() string              { return s.id }
func (s *quicSession) Codec() protocol.Codec   { return s.codec }
func (s *quicSession) RemoteAddr() string      { return s.conn.RemoteAddr().String() }
func (s *quicSession) Send(frame []byte) error { return s.out.push(frame) }

func (s *quicSession) Close() error {
	s.out.shut()
	return nil
}

func (s *quicSession) writeLoop(logger log.Log) {
	defer func() {
		_ = s.stream.Close()
		_ = s.conn.CloseWithError(0, "")
	}()
	defer s.out.shut()

	for {
		select {
		case <-s.out.done():
			return
		case frame := <-s.out.queue:
			if err := protocol.WriteFrame(s.stream, frame); err != nil {
				logger.Debug("QUIC write failed", log.Error(err))
				return
			}
		}
	}
}
