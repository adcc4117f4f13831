package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/resource"
	"github.com/s0up4200/restkit/response"
)

// API is a client for one REST endpoint. Resources are attached by name and
// share the API's request handler.
type API struct {
	baseURL   string
	logger    zerolog.Logger
	requester request.Requester
	factory   resource.Factory

	mu        sync.RWMutex
	root      *Namespace
	resources []string
}

var _ resource.Client = (*API)(nil)

// New creates an API for baseURL
func New(baseURL string, logger zerolog.Logger, opts ...Option) (*API, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newAPI(baseURL, logger, o, request.New)
}

func newAPI(baseURL string, logger zerolog.Logger, o options, newRequester func(string, zerolog.Logger, ...request.Option) *request.Handler) (*API, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, &apierr.APIError{Msg: "baseurl is required."}
	}

	requester := o.requester
	if requester == nil {
		requester = newRequester(baseURL, logger, o.requestOpts...)
	}

	return &API{
		baseURL:   baseURL,
		logger:    logger,
		requester: requester,
		factory:   o.factory,
		root:      newNamespace(""),
	}, nil
}

// BaseURL returns the base URL without trailing slashes
func (a *API) BaseURL() string {
	return a.baseURL
}

// Request returns the request handler shared by every resource
func (a *API) Request() request.Requester {
	return a.requester
}

// Auth sets HTTP Basic credentials for every request
func (a *API) Auth(user, password string) {
	a.requester.SetAuthCredentials(user, password)
}

// MakeRequest performs a call against path, which is joined to the base URL
// unless it is already absolute
func (a *API) MakeRequest(ctx context.Context, method, path string, params request.Params, headers map[string]string) (*response.Response, error) {
	target := path
	if !request.IsAbsoluteURL(path) {
		p, query, hasQuery := strings.Cut(path, "?")
		target = a.baseURL + "/" + strings.Trim(p, "/")
		if hasQuery {
			target += "?" + query
		}
	}
	return a.requester.MakeRequest(ctx, method, target, params, headers)
}

// AddResource registers a resource handler under name. Dotted names nest the
// handler under namespaces, so "my.nested.users" is reachable with
// Resource("my.nested.users") or Namespace("my.nested").
func (a *API) AddResource(name string, opts ...ResourceOption) (resource.Handler, error) {
	if !validName(name) {
		return nil, &apierr.ResourceError{Msg: "resource name must be alpha-numeric."}
	}

	ro := resourceOptions{factory: a.factory}
	for _, opt := range opts {
		opt(&ro)
	}

	path := strings.Trim(ro.path, "/")
	if path == "" {
		path = name
	}
	factory := ro.factory
	if factory == nil {
		factory = a.factory
	}

	h := factory(a, name, path)
	if h == nil {
		return nil, &apierr.InterfaceError{Msg: fmt.Sprintf("resource factory returned no handler for '%s'", name)}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.root.insert(name, h); err != nil {
		return nil, err
	}
	a.resources = append(a.resources, name)

	a.logger.Debug().
		Str("resource", name).
		Str("path", path).
		Msg("Resource added")

	return h, nil
}

// Resource resolves a registered resource by its full dotted name
func (a *API) Resource(name string) (resource.Handler, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root.Resource(name)
}

// Namespace resolves a namespace created by a dotted resource name
func (a *API) Namespace(name string) (*Namespace, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root.Namespace(name)
}

// Resources returns the registered names in registration order
func (a *API) Resources() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, len(a.resources))
	copy(out, a.resources)
	return out
}

// HasResource reports whether name is registered
func (a *API) HasResource(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, r := range a.resources {
		if r == name {
			return true
		}
	}
	return false
}

// validName accepts letters, digits, '_' and '.' with no empty segments
func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r == '.' || r == '_' {
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
	}
	return true
}
