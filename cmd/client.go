package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/s0up4200/restkit/api"
	"github.com/s0up4200/restkit/config"
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/resource"
)

// client wraps the API facade built from the configuration
type client struct {
	api      *api.API
	tastypie *api.TastyPie
}

func newClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*client, error) {
	reqOpts, err := cfg.RequestOptions()
	if err != nil {
		return nil, err
	}
	// Keep stdout for response output
	reqOpts = append(reqOpts, request.WithDebugOutput(os.Stderr))

	c := &client{}
	if cfg.API.TastyPie {
		// Discovery runs after the configured resources are added so they keep their paths
		c.tastypie, err = api.NewTastyPie(ctx, cfg.API.BaseURL, logger,
			api.WithRequestOptions(reqOpts...),
			api.WithAuthMechanism(cfg.Auth.Mechanism),
			api.WithAutoDetect(false),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create TastyPie client: %w", err)
		}
		c.api = c.tastypie.API
	} else {
		c.api, err = api.New(cfg.API.BaseURL, logger, api.WithRequestOptions(reqOpts...))
		if err != nil {
			return nil, fmt.Errorf("failed to create API client: %w", err)
		}
	}

	for _, r := range cfg.Resources {
		if _, err := c.api.AddResource(r.Name, api.WithPath(r.Path)); err != nil {
			return nil, fmt.Errorf("failed to add resource %s: %w", r.Name, err)
		}
	}

	if cfg.HasCredentials() {
		if c.tastypie != nil {
			if err := c.tastypie.Auth(cfg.Auth.User, cfg.Auth.Secret); err != nil {
				return nil, err
			}
		} else {
			c.api.Auth(cfg.Auth.User, cfg.Auth.Secret)
		}
	}

	if c.tastypie != nil && cfg.API.AutoDetect {
		if err := c.tastypie.FindResources(ctx); err != nil {
			return nil, fmt.Errorf("failed to detect resources: %w", err)
		}
	}

	logger.Debug().
		Str("baseurl", c.api.BaseURL()).
		Bool("tastypie", c.tastypie != nil).
		Int("resources", len(c.api.Resources())).
		Msg("API client ready")

	return c, nil
}

// resource looks up a resource. Plain REST APIs get undeclared resources
// added on first use with their name as path.
func (c *client) resource(name string) (resource.Handler, error) {
	if c.tastypie == nil && !c.api.HasResource(name) {
		return c.api.AddResource(name)
	}
	return c.api.Resource(name)
}
