package protocol

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MaxFrameSize bounds a single length-prefixed frame.
const MaxFrameSize = 64 << 10

// WriteFrame writes payload with a 4-byte big-endian length prefix.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	_, err := w.Write(frame)
	return errors.Wrap(err, "write frame")
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMalformedFrame
		}
		return nil, err
	}
	return payload, nil
}

// WriteCodecTag announces the codec at the start of a stream.
func WriteCodecTag(w io.Writer, c Codec) error {
	_, err := w.Write([]byte{c.Tag()})
	return errors.Wrap(err, "write codec tag")
}

func ReadCodecTag(r io.Reader) (Codec, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}
	return CodecByTag(tag[0])
}

// QUICNextProto is the ALPN identifier of the pong stream protocol.
const QUICNextProto = "pong-quic"
