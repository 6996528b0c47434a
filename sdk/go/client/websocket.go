package client

import (
	"context"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/pong/internal/core/protocol"
)

// DialWebSocket connects to a server's /ws endpoint, for example
// "ws://localhost:4000/ws".
func DialWebSocket(ctx context.Context, rawURL string, cfg Config) (*Client, error) {
	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse server url")
	}
	q := u.Query()
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrConnectionTimeout
		}
		return nil, errors.Wrapf(err, "dial %s", u.Redacted())
	}

	messageType := websocket.TextMessage
	if codec.Binary() {
		messageType = websocket.BinaryMessage
	}
	return newClient(&wsTransport{conn: conn, messageType: messageType}, codec, cfg), nil
}

type wsTransport struct {
	conn        *websocket.Conn
	messageType int
}

func (t *wsTransport) writeFrame(frame []byte) error {
	return errors.Wrap(t.conn.WriteMessage(t.messageType, frame), "websocket write")
}

func (t *wsTransport) readFrame() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) close() error {
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}
