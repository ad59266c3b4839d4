package rpc

import (
	"encoding/json"
)

// jsonCodec serializes messages as plain JSON. It replaces connect's
// protobuf JSON codec, so messages are ordinary Go structs.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
