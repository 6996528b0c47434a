package client

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/pong/internal/core/protocol"
)

// DialQUIC connects to a server's QUIC listener. The server certificate is not
// verified, matching the self-signed certificate servers generate by default.
func DialQUIC(ctx context.Context, addr string, cfg Config) (*Client, error) {
	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := quic.DialAddr(ctx, addr, &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{protocol.QUICNextProto},
	}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrConnectionTimeout
		}
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "failed to open stream")
		return nil, errors.Wrap(err, "open stream")
	}
	if err = protocol.WriteCodecTag(stream, codec); err != nil {
		_ = conn.CloseWithError(0, "")
		return nil, err
	}

	return newClient(&quicTransport{conn: conn, stream: stream}, codec, cfg), nil
}

type quicTransport struct {
	conn   *quic.Conn
	stream *quic.Stream
}

func (t *quicTransport) writeFrame(frame []byte) error {
	return protocol.WriteFrame(t.stream, frame)
}

func (t *quicTransport) readFrame() ([]byte, error) {
	return protocol.ReadFrame(t.stream)
}

func (t *quicTransport) close() error {
	_ = t.stream.Close()
	return t.conn.CloseWithError(0, "")
}
