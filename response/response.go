// Package response holds the value returned by every restkit request.
package response

import (
	"net/http"
)

// Response pairs the status, decoded body and headers of one HTTP call
type Response struct {
	Status  int
	Data    any // deserialized body, or the raw bytes when deserialization is off
	Raw     []byte
	Headers http.Header

	// Request details, useful for debugging
	Method  string
	URL     string
	Payload []byte
}

// Map returns Data as a mapping, or nil if the body was not a mapping
func (r *Response) Map() map[string]any {
	m, _ := r.Data.(map[string]any)
	return m
}

// SoftError returns the message of an in-band "error" key left by a
// serializer that could not parse the body
func (r *Response) SoftError() (string, bool) {
	m := r.Map()
	if m == nil {
		return "", false
	}
	msg, ok := m["error"].(string)
	return msg, ok
}

// Records returns the list stored under key, or Data itself when it is a list
func (r *Response) Records(key string) []any {
	if list, ok := r.Data.([]any); ok {
		return list
	}
	list, _ := r.Map()[key].([]any)
	return list
}

// IsSuccess returns true if status code is 2xx
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}
