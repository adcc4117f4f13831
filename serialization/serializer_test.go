package serialization

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	data := map[string]any{
		"username": "john.doe",
		"active":   true,
		"score":    12.5,
		"count":    int64(3),
		"tags":     []any{"a", "b"},
		"profile":  map[string]any{"city": "Oslo", "zip": nil},
	}

	s := JSON{}
	body, err := s.Serialize(data)
	require.NoError(t, err)
	assert.Equal(t, data, s.Deserialize(body))
}

func TestJSONKeepsIntegerPrecision(t *testing.T) {
	body := `{"big":123456789012345678901234567890,"id":9007199254740993,"owner":1234567,"ratio":0.5,"sci":1e3}`

	s := JSON{}
	data, ok := s.Deserialize([]byte(body)).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(9007199254740993), data["id"])
	assert.Equal(t, int64(1234567), data["owner"])
	assert.Equal(t, 0.5, data["ratio"])
	assert.Equal(t, float64(1000), data["sci"])
	assert.Equal(t, json.Number("123456789012345678901234567890"), data["big"])

	out, err := s.Serialize(data)
	require.NoError(t, err)
	assert.Equal(t, `{"big":123456789012345678901234567890,"id":9007199254740993,"owner":1234567,"ratio":0.5,"sci":1000}`, string(out))
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(`[1, 2.5, {"n": -3}]`))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), 2.5, map[string]any{"n": int64(-3)}}, v)

	_, err = DecodeJSON([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err)
	_, err = DecodeJSON([]byte(`{"a": `))
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	data := map[string]any{
		"username": "john.doe",
		"active":   true,
		"tags":     []any{"a", "b"},
	}

	s := YAML{}
	body, err := s.Serialize(data)
	require.NoError(t, err)
	assert.Equal(t, data, s.Deserialize(body))
}

func TestDeserializeMalformed(t *testing.T) {
	tests := []struct {
		name string
		s    Serializer
		body string
	}{
		{"json", JSON{}, `{"username": `},
		{"yaml", YAML{}, "key: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := tt.s.Deserialize([]byte(tt.body)).(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestDeserializeEmptyBody(t *testing.T) {
	assert.Equal(t, map[string]any{}, JSON{}.Deserialize(nil))
	assert.Equal(t, map[string]any{}, JSON{}.Deserialize([]byte(" \n")))
	assert.Equal(t, map[string]any{}, YAML{}.Deserialize([]byte("")))
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, "application/json", JSON{}.Headers()["Content-Type"])
	assert.Equal(t, "application/yaml", YAML{}.Headers()["Content-Type"])
}

func TestKeysPreserveOrder(t *testing.T) {
	keys, err := JSON{}.Keys([]byte(`{"users": {"list_endpoint": "/api/v0/users/"}, "projects": [], "alpha": 1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "projects", "alpha"}, keys)

	keys, err = YAML{}.Keys([]byte("zeta: 1\nusers: []\nprojects: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "users", "projects"}, keys)
}

func TestKeysRejectNonMapping(t *testing.T) {
	_, err := JSON{}.Keys([]byte(`["users"]`))
	assert.Error(t, err)

	_, err = YAML{}.Keys([]byte("- users\n"))
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	s, err := ByName("json")
	require.NoError(t, err)
	assert.IsType(t, JSON{}, s)

	s, err = ByName("YAML")
	require.NoError(t, err)
	assert.IsType(t, YAML{}, s)

	_, err = ByName("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown serialization")
}
