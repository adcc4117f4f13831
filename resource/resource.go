package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/response"
)

var errIDRequired = &apierr.InterfaceError{Msg: "resource id required."}

// Client is what a resource handler needs from the API it is attached to
type Client interface {
	// BaseURL returns the normalized base URL of the API
	BaseURL() string

	// MakeRequest performs a call against a path relative to the base URL
	MakeRequest(ctx context.Context, method, path string, params request.Params, headers map[string]string) (*response.Response, error)
}

// Handler is a named REST resource bound to a path under the API base URL
type Handler interface {
	Name() string
	Path() string

	// Get fetches the collection when id is nil, otherwise one member
	Get(ctx context.Context, id any, params request.Params) (*response.Response, error)
	Post(ctx context.Context, params request.Params) (*response.Response, error)
	Create(ctx context.Context, params request.Params) (*response.Response, error)
	Put(ctx context.Context, id any, params request.Params) (*response.Response, error)
	Update(ctx context.Context, id any, params request.Params) (*response.Response, error)
	Patch(ctx context.Context, id any, params request.Params) (*response.Response, error)
	Delete(ctx context.Context, id any, params request.Params) (*response.Response, error)
}

// Factory builds the handler for a resource registered on an API
type Factory func(client Client, name, path string) Handler

// FilterFunc alters params before every outbound call
type FilterFunc func(params request.Params) request.Params

// Option configures a REST handler
type Option func(*REST)

// WithFilter sets the params filter applied to every call
func WithFilter(f FilterFunc) Option {
	return func(r *REST) {
		if f != nil {
			r.filter = f
		}
	}
}

// REST is the default resource handler
type REST struct {
	client Client
	name   string
	path   string
	filter FilterFunc
}

var _ Handler = (*REST)(nil)

// NewREST creates a REST handler for name at path
func NewREST(client Client, name, path string, opts ...Option) *REST {
	r := &REST{
		client: client,
		name:   name,
		path:   path,
		filter: func(p request.Params) request.Params { return p },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RESTFactory returns a Factory building REST handlers with opts
func RESTFactory(opts ...Option) Factory {
	return func(client Client, name, path string) Handler {
		return NewREST(client, name, path, opts...)
	}
}

func (r *REST) Name() string { return r.name }

func (r *REST) Path() string { return r.path }

func (r *REST) Get(ctx context.Context, id any, params request.Params) (*response.Response, error) {
	if isCollection(id) {
		resp, err := r.do(ctx, http.MethodGet, r.collectionPath(), params)
		return resp, r.wrap(err, nil)
	}

	resp, err := r.do(ctx, http.MethodGet, r.memberPath(id), params)
	return resp, r.wrap(err, id)
}

func (r *REST) Post(ctx context.Context, params request.Params) (*response.Response, error) {
	resp, err := r.do(ctx, http.MethodPost, r.collectionPath(), params)
	return resp, r.wrap(err, nil)
}

// Create is a synonym for Post
func (r *REST) Create(ctx context.Context, params request.Params) (*response.Response, error) {
	return r.Post(ctx, params)
}

func (r *REST) Put(ctx context.Context, id any, params request.Params) (*response.Response, error) {
	if isCollection(id) {
		return nil, errIDRequired
	}

	resp, err := r.do(ctx, http.MethodPut, r.memberPath(id), params)
	return resp, r.wrap(err, id)
}

// Update is a synonym for Put
func (r *REST) Update(ctx context.Context, id any, params request.Params) (*response.Response, error) {
	return r.Put(ctx, id, params)
}

func (r *REST) Patch(ctx context.Context, id any, params request.Params) (*response.Response, error) {
	if isCollection(id) {
		return nil, errIDRequired
	}

	resp, err := r.do(ctx, http.MethodPatch, r.memberPath(id), params)
	return resp, r.wrap(err, id)
}

func (r *REST) Delete(ctx context.Context, id any, params request.Params) (*response.Response, error) {
	if isCollection(id) {
		return nil, errIDRequired
	}

	resp, err := r.do(ctx, http.MethodDelete, r.memberPath(id), params)
	return resp, r.wrap(err, id)
}

// do copies params, filters the copy and sends it
func (r *REST) do(ctx context.Context, method, path string, params request.Params) (*response.Response, error) {
	return r.client.MakeRequest(ctx, method, path, r.filter(params.Clone()), nil)
}

func (r *REST) collectionPath() string {
	return "/" + r.path + "/"
}

func (r *REST) memberPath(id any) string {
	return "/" + r.path + "/" + url.PathEscape(request.FormatValue(id)) + "/"
}

// wrap adds the resource name, and the id when there is one, to request errors
func (r *REST) wrap(err error, id any) error {
	if err == nil {
		return nil
	}

	var reqErr *apierr.RequestError
	if !errors.As(err, &reqErr) {
		return err
	}

	if id == nil {
		return reqErr.WithContext("resource: " + r.name)
	}
	return reqErr.WithContext(fmt.Sprintf("resource: %s, id: %s", r.name, request.FormatValue(id)))
}

func isCollection(id any) bool {
	if id == nil {
		return true
	}
	s, ok := id.(string)
	return ok && s == ""
}

// As returns h as the capability T, or an InterfaceError naming what is missing.
//
//	schemer, err := resource.As[resource.Schemer](users)
func As[T any](h Handler) (T, error) {
	if v, ok := h.(T); ok {
		return v, nil
	}

	var zero T
	name := "<nil>"
	if h != nil {
		name = h.Name()
	}
	return zero, &apierr.InterfaceError{
		Msg: fmt.Sprintf("Invalid or missing: %s in resource %s", reflect.TypeFor[T]().Name(), name),
	}
}
