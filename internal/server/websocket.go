package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/protocol"
)

// WebSocketHandler upgrades /ws requests and pumps frames between the
// connection and the hub. The codec is chosen by the "codec" query parameter.
type WebSocketHandler struct {
	hub      *Hub
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
	logger   log.Log
}

func NewWebSocketHandler(hub *Hub, cfg config.Config, logger log.Log) *WebSocketHandler {
	if logger == nil {
		logger = log.Provide()
	}
	h := &WebSocketHandler{
		hub:    hub,
		cfg:    cfg.Server,
		logger: logger.With(log.String("component", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
	}
	return h
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	s := newWSSession(conn, codec, h.cfg, h.logger)
	h.hub.Register(s)
	go s.writeLoop()

	s.readLoop(h.hub)

	h.hub.Disconnect(s)
	_ = s.Close()
}

type wsSession struct {
	id     string
	conn   *websocket.Conn
	codec  protocol.Codec
	out    *outbox
	cfg    config.ServerConfig
	logger log.Log
}

func newWSSession(conn *websocket.Conn, codec protocol.Codec, cfg config.ServerConfig, logger log.Log) *wsSession {
	id := uuid.NewString()
	return &wsSession{
		id:     id,
		conn:   conn,
		codec:  codec,
		out:    newOutbox(cfg.SendQueueSize),
		cfg:    cfg,
		logger: logger.With(log.String("session_id", id)),
	}
}

func (s *wsSession) ID() string              { return s.id }
func (s *wsSession) Codec() protocol.Codec   { return s.codec }
func (s *wsSession) RemoteAddr() string      { return s.conn.RemoteAddr().String() }
func (s *wsSession) Send(frame []byte) error { return s.out.push(frame) }

// Close stops the session. The writer sends a close frame and releases the
// connection, which also ends the reader.
func (s *wsSession) Close() error {
	s.out.shut()
	return nil
}

func (s *wsSession) pongWait() time.Duration {
	if s.cfg.PingInterval <= 0 {
		return 0
	}
	return s.cfg.PingInterval * 2
}

func (s *wsSession) readLoop(hub *Hub) {
	s.conn.SetReadLimit(protocol.MaxFrameSize)
	if wait := s.pongWait(); wait > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(wait))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Websocket read failed", log.Error(err))
			}
			return
		}
		hub.Handle(s, data)
	}
}

func (s *wsSession) writeLoop() {
	defer s.conn.Close()
	defer s.out.shut()

	messageType := websocket.TextMessage
	if s.codec.Binary() {
		messageType = websocket.BinaryMessage
	}

	var ping <-chan time.Time
	if s.cfg.PingInterval > 0 {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-s.out.done():
			_ = s.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-s.out.queue:
			if err := s.write(messageType, frame); err != nil {
				s.logger.Debug("Websocket write failed", log.Error(err))
				return
			}
		case <-ping:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *wsSession) write(messageType int, data []byte) error {
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return errors.Wrap(s.conn.WriteMessage(messageType, data), "websocket write")
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || originAllowed(allowed, origin)
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
