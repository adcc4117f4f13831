package resource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/response"
)

// Schemer is implemented by handlers that can describe their resource
type Schemer interface {
	Schema(ctx context.Context) (map[string]any, error)
}

// URIGetter is implemented by handlers that can fetch a member by resource_uri
type URIGetter interface {
	GetByURI(ctx context.Context, uri string, params request.Params) (*response.Response, error)
}

// ListPatcher is implemented by handlers that support bulk PATCH of a collection
type ListPatcher interface {
	PatchList(ctx context.Context, objects []map[string]any, deletedURIs []string) (*response.Response, error)
}

// TastyPie is a REST handler with the extras offered by django-tastypie
type TastyPie struct {
	*REST
}

var (
	_ Handler     = (*TastyPie)(nil)
	_ Schemer     = (*TastyPie)(nil)
	_ URIGetter   = (*TastyPie)(nil)
	_ ListPatcher = (*TastyPie)(nil)
)

// NewTastyPie creates a TastyPie handler for name at path
func NewTastyPie(client Client, name, path string, opts ...Option) *TastyPie {
	return &TastyPie{REST: NewREST(client, name, path, opts...)}
}

// TastyPieFactory returns a Factory building TastyPie handlers with opts
func TastyPieFactory(opts ...Option) Factory {
	return func(client Client, name, path string) Handler {
		return NewTastyPie(client, name, path, opts...)
	}
}

// Schema fetches <path>/schema/
func (t *TastyPie) Schema(ctx context.Context) (map[string]any, error) {
	resp, err := t.client.MakeRequest(ctx, http.MethodGet, "/"+t.path+"/schema/", nil, nil)
	if err != nil {
		return nil, t.wrap(err, nil)
	}

	schema := resp.Map()
	if schema == nil {
		return nil, &apierr.APIError{Msg: fmt.Sprintf("schema for resource %s is not a mapping", t.name)}
	}
	return schema, nil
}

// GetByURI fetches a member by the resource_uri TastyPie reports for it. The
// path of the base URL is stripped from uri before joining.
func (t *TastyPie) GetByURI(ctx context.Context, uri string, params request.Params) (*response.Response, error) {
	resp, err := t.client.MakeRequest(ctx, http.MethodGet, t.relativeURI(uri), t.filter(params.Clone()), nil)
	return resp, t.wrap(err, uri)
}

// PatchList creates objects and deletes deletedURIs in one PATCH to the collection
func (t *TastyPie) PatchList(ctx context.Context, objects []map[string]any, deletedURIs []string) (*response.Response, error) {
	if objects == nil {
		objects = []map[string]any{}
	}
	if deletedURIs == nil {
		deletedURIs = []string{}
	}

	params := request.Params{
		"objects":         objects,
		"deleted_objects": deletedURIs,
	}
	resp, err := t.client.MakeRequest(ctx, http.MethodPatch, t.collectionPath(), params, nil)
	return resp, t.wrap(err, nil)
}

func (t *TastyPie) relativeURI(uri string) string {
	if request.IsAbsoluteURL(uri) {
		return uri
	}

	base, err := url.Parse(t.client.BaseURL())
	if err != nil {
		return uri
	}

	prefix := strings.TrimRight(base.Path, "/")
	if prefix != "" && strings.HasPrefix(uri, prefix+"/") {
		return strings.TrimPrefix(uri, prefix)
	}
	return uri
}
