package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/resource"
	"github.com/s0up4200/restkit/serialization"
)

// TastyPie is an API client for django-tastypie endpoints. It authenticates
// with an API key by default and discovers resources from the API root.
type TastyPie struct {
	*API

	authMechanism     string
	schemaConcurrency int
}

// NewTastyPie creates a TastyPie API. With auto-detect on (the default) the
// API root is fetched and every listed resource is added before returning.
func NewTastyPie(ctx context.Context, baseURL string, logger zerolog.Logger, opts ...Option) (*TastyPie, error) {
	o := defaultOptions()
	o.factory = resource.TastyPieFactory()
	for _, opt := range opts {
		opt(&o)
	}

	a, err := newAPI(baseURL, logger, o, request.NewTastyPie)
	if err != nil {
		return nil, err
	}

	t := &TastyPie{
		API:               a,
		authMechanism:     o.authMechanism,
		schemaConcurrency: o.schemaConcurrency,
	}

	if o.autoDetect {
		if err := t.FindResources(ctx); err != nil {
			return nil, fmt.Errorf("failed to detect resources: %w", err)
		}
	}

	return t, nil
}

// Auth authenticates with the configured mechanism. For "api_key" secret is
// the API key and is sent as "Authorization: ApiKey user:secret". For "basic"
// it is the password.
func (t *TastyPie) Auth(user, secret string) error {
	switch t.authMechanism {
	case AuthAPIKey:
		t.requester.AddHeader("Authorization", fmt.Sprintf("ApiKey %s:%s", user, secret))
	case AuthBasic:
		t.API.Auth(user, secret)
	default:
		return &apierr.APIError{Msg: "Unknown TastyPie auth mechanism."}
	}
	return nil
}

// AuthMechanism returns the configured auth mechanism
func (t *TastyPie) AuthMechanism() string {
	return t.authMechanism
}

// FindResources fetches the API root and adds every listed resource that is
// not registered yet, in the order the root lists them
func (t *TastyPie) FindResources(ctx context.Context) error {
	resp, err := t.MakeRequest(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return err
	}

	listing := resp.Map()
	if listing == nil {
		return &apierr.APIError{Msg: "API root did not return a resource listing."}
	}

	for _, name := range t.listingOrder(resp.Raw, listing) {
		if t.HasResource(name) {
			continue
		}
		if _, err := t.AddResource(name); err != nil {
			return err
		}
	}

	t.logger.Debug().
		Int("resources", len(t.Resources())).
		Msg("Resources detected")

	return nil
}

// listingOrder returns the listing keys in document order when the serializer
// can report it, otherwise sorted
func (t *TastyPie) listingOrder(raw []byte, listing map[string]any) []string {
	if s, ok := t.requester.(interface {
		Serializer() serialization.Serializer
	}); ok {
		if orderer, ok := s.Serializer().(serialization.KeyOrderer); ok {
			if keys, err := orderer.Keys(raw); err == nil {
				return keys
			}
		}
	}

	keys := make([]string, 0, len(listing))
	for k := range listing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Schema fetches the schema of one resource
func (t *TastyPie) Schema(ctx context.Context, name string) (map[string]any, error) {
	h, err := t.Resource(name)
	if err != nil {
		return nil, err
	}

	schemer, err := resource.As[resource.Schemer](h)
	if err != nil {
		return nil, err
	}
	return schemer.Schema(ctx)
}

// Schemas fetches the schemas of names concurrently, or of every registered
// resource when names is empty. The first failure cancels the rest.
func (t *TastyPie) Schemas(ctx context.Context, names ...string) (map[string]map[string]any, error) {
	if len(names) == 0 {
		names = t.Resources()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.schemaConcurrency)

	var mu sync.Mutex
	schemas := make(map[string]map[string]any, len(names))

	for _, name := range names {
		g.Go(func() error {
			schema, err := t.Schema(ctx, name)
			if err != nil {
				t.logger.Warn().
					Err(err).
					Str("resource", name).
					Msg("Failed to fetch schema")
				return err
			}

			mu.Lock()
			schemas[name] = schema
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return schemas, nil
}
