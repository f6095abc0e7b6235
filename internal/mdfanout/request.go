package mdfanout

import "google.golang.org/protobuf/encoding/protowire"

// StreamRequest optionally restricts a StreamTicks call to one symbol; an
// empty Symbol streams every update on the feed.
type StreamRequest struct {
	Symbol string // field 1
}

func (r *StreamRequest) Marshal() ([]byte, error) {
	if r.Symbol == "" {
		return nil, nil
	}
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, r.Symbol)
	return b, nil
}

func (r *StreamRequest) Unmarshal(data []byte) error {
	*r = StreamRequest{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		if num == 1 {
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Symbol = v
			data = data[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
	}
	return nil
}
