package stream

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	rxerrors "github.com/kbukum/rxkit/errors"
)

// Decoder turns an encoded payload into a value.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Encoder turns a value into an encoded payload.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// JSONDecoder decodes and encodes JSON payloads.
type JSONDecoder struct {
	// DisallowUnknownFields rejects objects with fields the target lacks.
	DisallowUnknownFields bool
}

func (d JSONDecoder) Decode(data []byte, v any) error {
	if !d.DisallowUnknownFields {
		return json.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (JSONDecoder) Encode(v any) ([]byte, error) { return json.Marshal(v) }

// MsgpackDecoder decodes and encodes MessagePack payloads.
type MsgpackDecoder struct{}

func (MsgpackDecoder) Decode(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func (MsgpackDecoder) Encode(v any) ([]byte, error) { return msgpack.Marshal(v) }

// Decode decodes every payload of p into a T. A payload that does not
// decode fails the stream with a DECODE_FAILURE error, unless the decoder
// already returned a coded error, which is passed through as is.
func Decode[T any](p Publisher[[]byte], dec Decoder) Publisher[T] {
	return TryMap(p, func(data []byte) (T, error) {
		var v T
		if err := dec.Decode(data, &v); err != nil {
			if rxerrors.IsAppError(err) {
				return v, err
			}
			return v, rxerrors.DecodeFailure(fmt.Sprintf("%T", v), err)
		}
		return v, nil
	})
}

// Encode encodes every value of p. An encoding error fails the stream.
func Encode[T any](p Publisher[T], enc Encoder) Publisher[[]byte] {
	return TryMap(p, func(v T) ([]byte, error) {
		data, err := enc.Encode(v)
		if err != nil {
			return nil, rxerrors.Internal(err)
		}
		return data, nil
	})
}
