package serialization

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML implements Serializer using gopkg.in/yaml.v3
type YAML struct{}

// Serialize encodes data as YAML
func (YAML) Serialize(data any) ([]byte, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize yaml: %w", err)
	}
	return b, nil
}

// Deserialize decodes a YAML body. An empty body decodes to an empty mapping.
func (YAML) Deserialize(data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return softError(err)
	}
	return v
}

// Headers returns the YAML content type
func (YAML) Headers() map[string]string {
	return map[string]string{"Content-Type": "application/yaml"}
}

// Keys returns the top-level mapping keys in document order
func (YAML) Keys(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to read yaml: %w", err)
	}

	node := &doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml body is not a mapping")
	}

	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys, nil
}
