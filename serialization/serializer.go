package serialization

import (
	"fmt"
	"strings"
)

// Serializer converts request parameters to a wire body and response bodies back
type Serializer interface {
	// Serialize encodes data into a request body
	Serialize(data any) ([]byte, error)

	// Deserialize decodes a response body. Malformed input is reported as a
	// mapping with an "error" key instead of an error.
	Deserialize(data []byte) any

	// Headers returns the headers implied by the wire format
	Headers() map[string]string
}

// KeyOrderer is implemented by serializers that can report the top-level keys
// of a mapping body in document order
type KeyOrderer interface {
	Keys(data []byte) ([]string, error)
}

// ByName returns the serializer registered under name
func ByName(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("unknown serialization: %s", name)
	}
}

// softError is the in-band representation of a body that failed to parse
func softError(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
