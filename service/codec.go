package service

import (
	"encoding/json"

	"myremoting/interfaces"
)

// JSONCodec serializes invocation payloads as JSON.
type JSONCodec struct{}

var _ interfaces.Codec = JSONCodec{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
