package api

import (
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/resource"
)

// Auth mechanisms understood by TastyPie
const (
	AuthAPIKey = "api_key"
	AuthBasic  = "basic"
)

// DefaultSchemaConcurrency bounds concurrent schema fetches
const DefaultSchemaConcurrency = 4

// Option configures an API
type Option func(*options)

type options struct {
	requester         request.Requester
	requestOpts       []request.Option
	factory           resource.Factory
	authMechanism     string
	autoDetect        bool
	schemaConcurrency int
}

func defaultOptions() options {
	return options{
		factory:           resource.RESTFactory(),
		authMechanism:     AuthAPIKey,
		autoDetect:        true,
		schemaConcurrency: DefaultSchemaConcurrency,
	}
}

// WithRequester replaces the request handler. Request options are ignored
// when a requester is supplied.
func WithRequester(r request.Requester) Option {
	return func(o *options) {
		o.requester = r
	}
}

// WithRequestOptions configures the default request handler
func WithRequestOptions(opts ...request.Option) Option {
	return func(o *options) {
		o.requestOpts = append(o.requestOpts, opts...)
	}
}

// WithResourceFactory sets the factory used when a resource is added
// without its own
func WithResourceFactory(f resource.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithAuthMechanism selects how TastyPie.Auth authenticates: "api_key" or "basic"
func WithAuthMechanism(mechanism string) Option {
	return func(o *options) {
		o.authMechanism = mechanism
	}
}

// WithAutoDetect controls whether TastyPie discovers resources on construction
func WithAutoDetect(enabled bool) Option {
	return func(o *options) {
		o.autoDetect = enabled
	}
}

// WithSchemaConcurrency bounds the number of concurrent schema fetches
func WithSchemaConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.schemaConcurrency = n
		}
	}
}

// ResourceOption configures a single AddResource call
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	path    string
	factory resource.Factory
}

// WithPath sets the resource path relative to the base URL. Defaults to the name.
func WithPath(path string) ResourceOption {
	return func(o *resourceOptions) {
		o.path = path
	}
}

// WithFactory overrides the API resource factory for one resource
func WithFactory(f resource.Factory) ResourceOption {
	return func(o *resourceOptions) {
		o.factory = f
	}
}
