package mdfanout

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is registered distinct from grpc's built-in "proto" codec
// (which expects real proto.Message values) so this adapter's hand-framed
// messages never collide with it; clients opt in with
// grpc.CallContentSubtype(codecName).
const codecName = "mdproto"

type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("mdfanout: %T does not implement wireMessage", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("mdfanout: %T does not implement wireMessage", v)
	}
	return m.Unmarshal(data)
}

func (codec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(codec{})
}
