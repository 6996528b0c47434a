package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/pong/pkg/generic"
)

// Message is a decoded envelope whose payload has not been bound yet.
type Message struct {
	Event string
	Data  []byte

	codec Codec
}

// Bind decodes the payload into v with the codec that produced the message.
func (m Message) Bind(v any) error {
	if len(m.Data) == 0 {
		return ErrMissingData
	}
	return m.codec.Unmarshal(m.Data, v)
}

// Codec converts envelopes {"event", "data"} to and from frames.
type Codec interface {
	Name() string
	// Binary reports whether frames must travel as binary websocket messages.
	Binary() bool
	// Tag is the single byte that selects this codec on stream transports.
	Tag() byte
	Encode(event string, data any) ([]byte, error)
	Decode(frame []byte) (Message, error)
	Unmarshal(data []byte, v any) error
}

const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

var buffers = generic.NewPool(func() *bytes.Buffer {
	return bytes.NewBuffer(make([]byte, 0, 512))
}, func(b *bytes.Buffer) { b.Reset() })

// CodecByName returns the named codec. An empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSON, nil
	case CodecMsgpack:
		return Msgpack, nil
	}
	return nil, errors.Wrapf(ErrUnknownCodec, "name %q", name)
}

func CodecByTag(tag byte) (Codec, error) {
	switch tag {
	case JSON.Tag():
		return JSON, nil
	case Msgpack.Tag():
		return Msgpack, nil
	}
	return nil, errors.Wrapf(ErrUnknownCodec, "tag %#x", tag)
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

type jsonEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecJSON }
func (jsonCodec) Binary() bool { return false }
func (jsonCodec) Tag() byte    { return 'j' }

func (jsonCodec) Encode(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	buf := buffers.Get()
	defer buffers.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{event, data}); err != nil {
		return nil, errors.Wrap(err, "encode json envelope")
	}
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

func (c jsonCodec) Decode(frame []byte) (Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Message{}, errors.Wrap(err, "decode json envelope")
	}
	if env.Event == "" {
		return Message{}, ErrEmptyEvent
	}
	data := []byte(env.Data)
	if bytes.Equal(data, []byte("null")) {
		data = nil
	}
	return Message{Event: env.Event, Data: data, codec: c}, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return errors.Wrap(json.Unmarshal(data, v), "decode json payload")
}

type msgpackEnvelope struct {
	Event string             `msgpack:"event"`
	Data  msgpack.RawMessage `msgpack:"data"`
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CodecMsgpack }
func (msgpackCodec) Binary() bool { return true }
func (msgpackCodec) Tag() byte    { return 'm' }

func (msgpackCodec) Encode(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	buf := buffers.Get()
	defer buffers.Put(buf)

	enc := msgpack.NewEncoder(buf)
	if err := enc.Encode(struct {
		Event string `msgpack:"event"`
		Data  any    `msgpack:"data"`
	}{event, data}); err != nil {
		return nil, errors.Wrap(err, "encode msgpack envelope")
	}
	return bytes.Clone(buf.Bytes()), nil
}

func (c msgpackCodec) Decode(frame []byte) (Message, error) {
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(frame, &env); err != nil {
		return Message{}, errors.Wrap(err, "decode msgpack envelope")
	}
	if env.Event == "" {
		return Message{}, ErrEmptyEvent
	}
	data := []byte(env.Data)
	// 0xc0 is msgpack nil
	if len(data) == 1 && data[0] == 0xc0 {
		data = nil
	}
	return Message{Event: env.Event, Data: data, codec: c}, nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return errors.Wrap(msgpack.Unmarshal(data, v), "decode msgpack payload")
}
