package kafka

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MustMarshal is for event structs we own; failing to encode one is a
// programming error, not a runtime condition.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode unmarshals an inbound payload into a typed event. Callers treat a
// failure as a SerializationError: log, drop, commit.
func Decode[T any](value []byte) (T, error) {
	var t T
	if err := json.Unmarshal(value, &t); err != nil {
		return t, errors.Wrap(err, "decode event")
	}
	return t, nil
}
