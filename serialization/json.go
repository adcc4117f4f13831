package serialization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// JSON implements Serializer using encoding/json
type JSON struct{}

// Serialize encodes data as JSON
func (JSON) Serialize(data any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize json: %w", err)
	}
	return b, nil
}

// Deserialize decodes a JSON body. An empty body decodes to an empty mapping.
func (JSON) Deserialize(data []byte) any {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]any{}
	}

	v, err := DecodeJSON(data)
	if err != nil {
		return softError(err)
	}
	return v
}

// DecodeJSON decodes one JSON value without losing integer precision.
// Integers become int64, integers outside the int64 range stay json.Number
// and other numbers become float64.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid character after top-level value")
	}
	return convertNumbers(v), nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = convertNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = convertNumbers(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if !strings.ContainsAny(string(t), ".eE") {
			return t
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t
	default:
		return v
	}
}

// Headers returns the JSON content type
func (JSON) Headers() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// Keys returns the top-level object keys in document order
func (JSON) Keys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("json body is not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read json key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected json token %v", tok)
		}
		keys = append(keys, key)

		// Skip the value
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("failed to read json value for %q: %w", key, err)
		}
	}

	return keys, nil
}
