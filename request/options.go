package request

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/s0up4200/restkit/serialization"
)

// DebugEnv enables request debug output when set to "1"
const DebugEnv = "RESTKIT_DEBUG"

// DefaultTimeout is applied to every transport handle unless overridden
const DefaultTimeout = 30 * time.Second

// Option configures a Handler.
type Option func(*options)

// options holds configuration options for the Handler.
type options struct {
	timeout             time.Duration
	trailingSlash       bool
	ignoreSSLValidation bool
	serialize           bool
	deserialize         bool
	serializer          serialization.Serializer
	extraHeaders        map[string]string
	extraParams         Params
	extraURLParams      Params
	allowGetBody        bool
	debug               bool
	debugOutput         io.Writer
	transport           http.RoundTripper
	metrics             *Metrics
}

func defaultOptions() options {
	return options{
		timeout:        DefaultTimeout,
		trailingSlash:  true,
		deserialize:    true,
		serializer:     serialization.JSON{},
		extraHeaders:   make(map[string]string),
		extraParams:    make(Params),
		extraURLParams: make(Params),
		debug:          os.Getenv(DebugEnv) == "1",
		debugOutput:    os.Stdout,
	}
}

// WithTimeout sets the connect/read timeout of the transport handle.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithTrailingSlash controls whether request URLs end with a slash.
func WithTrailingSlash(enabled bool) Option {
	return func(o *options) {
		o.trailingSlash = enabled
	}
}

// WithIgnoreSSLValidation disables certificate verification.
// Use with caution and only for development/testing.
func WithIgnoreSSLValidation(ignore bool) Option {
	return func(o *options) {
		o.ignoreSSLValidation = ignore
	}
}

// WithSerialize controls whether request params are encoded with the serializer.
func WithSerialize(enabled bool) Option {
	return func(o *options) {
		o.serialize = enabled
	}
}

// WithDeserialize controls whether response bodies are decoded with the serializer.
func WithDeserialize(enabled bool) Option {
	return func(o *options) {
		o.deserialize = enabled
	}
}

// WithSerializer replaces the serializer. A nil serializer turns off both
// serialization and deserialization.
func WithSerializer(s serialization.Serializer) Option {
	return func(o *options) {
		o.serializer = s
	}
}

// WithExtraHeaders adds headers sent with every request.
func WithExtraHeaders(headers map[string]string) Option {
	return func(o *options) {
		for k, v := range headers {
			o.extraHeaders[k] = v
		}
	}
}

// WithExtraParams adds params merged into every request.
func WithExtraParams(params Params) Option {
	return func(o *options) {
		for k, v := range params {
			o.extraParams[k] = v
		}
	}
}

// WithExtraURLParams adds params placed in the query string of every request.
func WithExtraURLParams(params Params) Option {
	return func(o *options) {
		for k, v := range params {
			o.extraURLParams[k] = v
		}
	}
}

// WithAllowGetBody sends GET params in the body instead of the query string.
func WithAllowGetBody(allow bool) Option {
	return func(o *options) {
		o.allowGetBody = allow
	}
}

// WithDebug forces debug output on or off regardless of RESTKIT_DEBUG.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithDebugOutput sets where debug output is written. Defaults to stdout.
func WithDebugOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.debugOutput = w
		}
	}
}

// WithTransport sets the base RoundTripper used by every transport handle.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
