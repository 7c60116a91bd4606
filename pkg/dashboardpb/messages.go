// Package dashboardpb holds the wire messages and gRPC bindings of the
// dashboard service.
//
// The messages are encoded with the protobuf wire format so that peers built
// from the dashboard.proto definition interoperate:
//
//	message ImageSample   { int32 id = 1; string true_label = 2; string predicted_label = 3; bytes image_data = 4; }
//	message TrainingBatch { int64 iteration = 1; double loss = 2; double fps = 3; repeated ImageSample images = 4; }
//	message Heartbeat     { int64 timestamp_ms = 1; }
//	message Ack           { bool ok = 1; string message = 2; }
package dashboardpb

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrInvalidUTF8 is returned when a string field holds bytes that are not
// valid UTF-8. proto3 peers reject such messages, so both directions do too.
var ErrInvalidUTF8 = errors.New("string field contains invalid UTF-8")

// Message is implemented by every wire type in this package.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire(b []byte) error
}

type ImageSample struct {
	Id             int32
	TrueLabel      string
	PredictedLabel string
	ImageData      []byte
}

type TrainingBatch struct {
	Iteration int64
	Loss      float64
	Fps       float64
	Images    []*ImageSample
}

type Heartbeat struct {
	TimestampMs int64
}

type Ack struct {
	Ok      bool
	Message string
}

func (m *ImageSample) MarshalWire() ([]byte, error) {
	return m.appendWire(nil)
}

func (m *ImageSample) appendWire(b []byte) ([]byte, error) {
	if err := validString(2, m.TrueLabel); err != nil {
		return nil, err
	}
	if err := validString(3, m.PredictedLabel); err != nil {
		return nil, err
	}
	if m.Id != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Id)))
	}
	if m.TrueLabel != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, m.TrueLabel)
	}
	if m.PredictedLabel != "" {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, m.PredictedLabel)
	}
	if len(m.ImageData) > 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, m.ImageData)
	}
	return b, nil
}

func (m *ImageSample) UnmarshalWire(b []byte) error {
	*m = ImageSample{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Id = int32(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(num, b)
			m.TrueLabel = v
			return n, err
		case num == 3 && typ == protowire.BytesType:
			v, n, err := consumeString(num, b)
			m.PredictedLabel = v
			return n, err
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			// copy out so the message does not alias the receive buffer
			m.ImageData = append([]byte(nil), v...)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *TrainingBatch) MarshalWire() ([]byte, error) {
	var b []byte
	if m.Iteration != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Iteration))
	}
	if m.Loss != 0 || math.Signbit(m.Loss) {
		b = protowire.AppendTag(b, 2, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(m.Loss))
	}
	if m.Fps != 0 {
		b = protowire.AppendTag(b, 3, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(m.Fps))
	}
	for i, img := range m.Images {
		if img == nil {
			return nil, fmt.Errorf("images[%d] is nil", i)
		}
		enc, err := img.appendWire(nil)
		if err != nil {
			return nil, fmt.Errorf("images[%d]: %w", i, err)
		}
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, enc)
	}
	return b, nil
}

func (m *TrainingBatch) UnmarshalWire(b []byte) error {
	*m = TrainingBatch{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Iteration = int64(v)
			return n, nil
		case num == 2 && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			m.Loss = math.Float64frombits(v)
			return n, nil
		case num == 3 && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			m.Fps = math.Float64frombits(v)
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			img := &ImageSample{}
			if err := img.UnmarshalWire(v); err != nil {
				return 0, fmt.Errorf("images[%d]: %w", len(m.Images), err)
			}
			m.Images = append(m.Images, img)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *Heartbeat) MarshalWire() ([]byte, error) {
	var b []byte
	if m.TimestampMs != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.TimestampMs))
	}
	return b, nil
}

func (m *Heartbeat) UnmarshalWire(b []byte) error {
	*m = Heartbeat{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			m.TimestampMs = int64(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *Ack) MarshalWire() ([]byte, error) {
	if err := validString(2, m.Message); err != nil {
		return nil, err
	}
	var b []byte
	if m.Ok {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(m.Ok))
	}
	if m.Message != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, m.Message)
	}
	return b, nil
}

func (m *Ack) UnmarshalWire(b []byte) error {
	*m = Ack{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Ok = protowire.DecodeBool(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(num, b)
			m.Message = v
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// consumeFields walks the tagged fields of b, handing each value to fn.
// fn returns the number of bytes consumed, negative on a wire error.
// Unknown fields are skipped by fn via protowire.ConsumeFieldValue.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func consumeString(num protowire.Number, b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", n, nil
	}
	if err := validString(num, v); err != nil {
		return "", 0, err
	}
	return v, n, nil
}

func validString(num protowire.Number, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("field %d: %w", num, ErrInvalidUTF8)
	}
	return nil
}
