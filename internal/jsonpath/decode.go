package jsonpath

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrNotObject is returned by DecodeObject when the document root is not a JSON object.
var ErrNotObject = errors.New("document root is not a JSON object")

// Decode parses JSON text into a generic tree of map[string]any, []any, string,
// bool, json.Number and nil.
func Decode(data []byte) (any, error) {
	var v any
	if err := api.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode JSON document: %w", err)
	}

	return v, nil
}

// DecodeObject parses JSON text whose root must be an object.
func DecodeObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	v, err := Decode(trimmed)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	return obj, nil
}

// Marshal serializes v with the same configuration used for decoding.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent is like Marshal but indents the output by two spaces.
func MarshalIndent(v any) ([]byte, error) {
	return api.MarshalIndent(v, "", "  ")
}
