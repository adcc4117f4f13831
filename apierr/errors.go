package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/s0up4200/restkit/response"
)

// Sentinel errors used for classification with errors.Is
var (
	// ErrClient matches every error produced by restkit
	ErrClient = errors.New("restkit error")
	// ErrInterface indicates a pluggable handler is missing a capability
	ErrInterface = errors.New("restkit interface error")
	// ErrRequest indicates the server answered with an error status
	ErrRequest = errors.New("restkit request error")
	// ErrResource indicates an invalid resource registration or lookup
	ErrResource = errors.New("restkit resource error")
	// ErrConnection indicates a transport failure
	ErrConnection = errors.New("restkit connection error")
	// ErrAPI indicates misuse of an API facade
	ErrAPI = errors.New("restkit api error")
)

// Error types returned by restkit
type (
	// InterfaceError indicates a handler does not provide a required capability
	InterfaceError struct {
		Msg string
	}

	// RequestError is returned for 4xx and 500 responses. Response is never nil.
	RequestError struct {
		Msg      string
		Response *response.Response
	}

	// ResourceError indicates a resource could not be registered or found
	ResourceError struct {
		Msg string
	}

	// ConnectionError indicates the request never produced a response
	ConnectionError struct {
		Msg string
		Err error
	}

	// APIError indicates an API facade could not satisfy a call
	APIError struct {
		Msg string
	}
)

func (e *InterfaceError) Error() string { return e.Msg }

func (e *InterfaceError) Is(target error) bool {
	return target == ErrInterface || target == ErrClient
}

// NewRequestError builds the standard error for an error status
func NewRequestError(resp *response.Response) *RequestError {
	reason := http.StatusText(resp.Status)
	if reason == "" {
		reason = "Unknown"
	}
	return &RequestError{
		Msg:      fmt.Sprintf("Received HTTP Code %d - %s", resp.Status, reason),
		Response: resp,
	}
}

func (e *RequestError) Error() string { return e.Msg }

func (e *RequestError) Is(target error) bool {
	return target == ErrRequest || target == ErrClient
}

// WithContext returns a copy of the error with context appended to the message.
// The response is shared with the original error.
func (e *RequestError) WithContext(context string) *RequestError {
	return &RequestError{
		Msg:      fmt.Sprintf("%s (%s)", e.Msg, context),
		Response: e.Response,
	}
}

// StatusCode returns the HTTP status of the failed response
func (e *RequestError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// IsNotFound checks if the error indicates a not found response
func (e *RequestError) IsNotFound() bool {
	return e.StatusCode() == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *RequestError) IsUnauthorized() bool {
	code := e.StatusCode()
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func (e *ResourceError) Error() string { return e.Msg }

func (e *ResourceError) Is(target error) bool {
	return target == ErrResource || target == ErrClient
}

func (e *ConnectionError) Error() string { return e.Msg }

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection || target == ErrClient
}

func (e *APIError) Error() string { return e.Msg }

func (e *APIError) Is(target error) bool {
	return target == ErrAPI || target == ErrClient
}
