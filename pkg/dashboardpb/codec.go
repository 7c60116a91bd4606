package dashboardpb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype the codec answers to. It matches the
// default protobuf codec so protoc-generated peers need no configuration.
const CodecName = "proto"

// Codec marshals the wire messages of this package and falls back to
// proto.Marshal for generated messages such as the health service's.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		return m.MarshalWire()
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("dashboardpb: cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		return m.UnmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("dashboardpb: cannot unmarshal into %T", v)
	}
}

func (Codec) Name() string { return CodecName }
