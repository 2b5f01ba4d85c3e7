package record

import (
	"encoding/json"
	"fmt"
)

// EncodeJSON serializes a record for MQTT transport.
func EncodeJSON[T any](value T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}
	return data, nil
}

// DecodeJSON deserializes a record from an MQTT payload.
//
// Decoding is tolerant: unknown keys are ignored and missing keys leave
// the field at its zero value. A record decoded from "{}" is therefore
// valid and all-zero; callers that need to distinguish "absent" from
// "zero" must carry that signal in the schema itself.
func DecodeJSON[T any](data []byte) (T, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("%w: %w", ErrDecodingFailed, err)
	}
	return value, nil
}
