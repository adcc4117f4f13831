package request

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/response"
	"github.com/s0up4200/restkit/serialization"
)

// Params are request parameters keyed by name
type Params map[string]any

// Clone returns a shallow copy of p. The copy of a nil Params is empty, not nil.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Requester performs requests for an API facade and its resources
type Requester interface {
	// AddParam adds a param merged into every request
	AddParam(key string, value any)

	// AddURLParam adds a param placed in the query string of every request
	AddURLParam(key string, value any)

	// AddHeader adds a header sent with every request
	AddHeader(key, value string)

	// SetAuthCredentials sets HTTP Basic credentials
	SetAuthCredentials(user, password string)

	// MakeRequest performs one call. target is an absolute URL or a path
	// relative to the base URL.
	MakeRequest(ctx context.Context, method, target string, params Params, headers map[string]string) (*response.Response, error)

	// HandleResponse classifies the status of a response
	HandleResponse(resp *response.Response) error
}

// credentials are applied to every request as HTTP Basic auth
type credentials struct {
	user     string
	password string
}

// Handler is the default Requester. Every resource attached to an API shares
// one Handler, which owns all transport configuration.
type Handler struct {
	baseURL     string
	opts        options
	logger      zerolog.Logger
	debugLogger zerolog.Logger

	mu             sync.Mutex
	extraParams    Params
	extraURLParams Params
	extraHeaders   map[string]string
	credentials    *credentials
	client         *http.Client
}

var _ Requester = (*Handler)(nil)

// New creates a Handler for baseURL. baseURL may be empty if only absolute
// URLs are requested.
func New(baseURL string, logger zerolog.Logger, opts ...Option) *Handler {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}

	if o.serializer == nil {
		o.serialize = false
		o.deserialize = false
	}

	h := &Handler{
		baseURL:        strings.TrimRight(baseURL, "/"),
		opts:           o,
		logger:         logger,
		extraParams:    o.extraParams.Clone(),
		extraURLParams: o.extraURLParams.Clone(),
		extraHeaders:   maps.Clone(o.extraHeaders),
	}
	if o.debug {
		h.debugLogger = newDebugLogger(o.debugOutput)
	}

	return h
}

// NewTastyPie creates a Handler that serializes and deserializes JSON by
// default, which is what TastyPie APIs expect.
func NewTastyPie(baseURL string, logger zerolog.Logger, opts ...Option) *Handler {
	defaults := []Option{WithSerialize(true), WithDeserialize(true)}
	return New(baseURL, logger, append(defaults, opts...)...)
}

// BaseURL returns the normalized base URL
func (h *Handler) BaseURL() string {
	return h.baseURL
}

// Serializer returns the active serializer, or nil when serialization is off
func (h *Handler) Serializer() serialization.Serializer {
	if !h.opts.serialize && !h.opts.deserialize {
		return nil
	}
	return h.opts.serializer
}

// AddParam adds a param merged into every request body (or GET query string)
func (h *Handler) AddParam(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extraParams[key] = value
}

// AddURLParam adds a param placed in the query string of every request
func (h *Handler) AddURLParam(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extraURLParams[key] = value
}

// AddHeader adds a header sent with every request
func (h *Handler) AddHeader(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extraHeaders[key] = value
}

// ExtraParams returns a copy of the default body params
func (h *Handler) ExtraParams() Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.extraParams.Clone()
}

// ExtraURLParams returns a copy of the default query params
func (h *Handler) ExtraURLParams() Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.extraURLParams.Clone()
}

// ExtraHeaders returns a copy of the default headers, including the headers
// implied by the serializer when serializing
func (h *Handler) ExtraHeaders() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headerLayer()
}

// SetAuthCredentials sets HTTP Basic credentials and drops the cached transport
func (h *Handler) SetAuthCredentials(user, password string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.credentials = &credentials{user: user, password: password}
	h.dropClientLocked()
}

// AuthCredentials returns the configured Basic credentials
func (h *Handler) AuthCredentials() (user, password string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.credentials == nil {
		return "", "", false
	}
	return h.credentials.user, h.credentials.password, true
}

// MakeRequest builds, sends and classifies one request
func (h *Handler) MakeRequest(ctx context.Context, method, target string, params Params, headers map[string]string) (*response.Response, error) {
	method = strings.ToUpper(method)
	start := time.Now()
	requestID := uuid.NewString()

	h.mu.Lock()
	layers := requestLayers{
		params:    h.extraParams.Clone(),
		urlParams: h.extraURLParams.Clone(),
		headers:   h.headerLayer(),
	}
	creds := h.credentials
	h.mu.Unlock()

	prep, err := h.prepare(method, target, params, headers, layers)
	if err != nil {
		return nil, err
	}

	if h.opts.debug {
		h.debugLogger.Log().
			Str("method", prep.method).
			Str("url", prep.url).
			Bytes("payload", prep.body).
			Interface("headers", prep.header).
			Msg(DebugEnv)
	}

	raw, err := h.execute(ctx, prep, creds)
	if err != nil {
		if errors.Is(err, apierr.ErrConnection) {
			h.opts.metrics.connectionError(method)
		}
		h.logger.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("method", method).
			Str("url", prep.url).
			Msg("Request failed")
		return nil, err
	}

	resp := &response.Response{
		Status:  raw.status,
		Raw:     raw.body,
		Headers: raw.header,
		Method:  method,
		URL:     prep.url,
		Payload: prep.body,
	}
	if h.opts.deserialize {
		resp.Data = h.opts.serializer.Deserialize(raw.body)
	} else {
		resp.Data = raw.body
	}

	duration := time.Since(start)
	h.opts.metrics.observe(method, resp.Status, duration)
	h.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", prep.url).
		Int("status", resp.Status).
		Dur("duration", duration).
		Msg("Request completed")

	if err := h.HandleResponse(resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// HandleResponse returns a RequestError for 4xx statuses and for 500
func (h *Handler) HandleResponse(resp *response.Response) error {
	if (resp.Status >= 400 && resp.Status <= 499) || resp.Status == http.StatusInternalServerError {
		return apierr.NewRequestError(resp)
	}
	return nil
}

// headerLayer merges serializer headers under the extra headers. Caller holds mu.
func (h *Handler) headerLayer() map[string]string {
	out := make(map[string]string, len(h.extraHeaders)+1)
	if h.opts.serialize {
		maps.Copy(out, h.opts.serializer.Headers())
	}
	maps.Copy(out, h.extraHeaders)
	return out
}
