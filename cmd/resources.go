package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/resource"
	"github.com/s0up4200/restkit/response"
)

func (a *app) resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the configured and discovered resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			names := c.api.Resources()
			if len(names) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No resources registered.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "get <resource> [id|uri]",
		Short: "Get a resource list or a single object",
		Long: `Get the resource list, or a single object when an id is given.
For TastyPie resources a resource_uri such as /api/v1/users/1/ works as id.`,
		Example: `  restkit get users
  restkit get users 1
  restkit get projects -p label__startswith=my --where 'id > 1' -q 'objects[].label'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResource(cmd, args[0], pf, func(ctx context.Context, h resource.Handler, params request.Params) (*response.Response, error) {
				if len(args) == 1 {
					return h.Get(ctx, nil, params)
				}
				if strings.HasPrefix(args[1], "/") || strings.Contains(args[1], "://") {
					getter, err := resource.As[resource.URIGetter](h)
					if err != nil {
						return nil, err
					}
					return getter.GetByURI(ctx, args[1], params)
				}
				return h.Get(ctx, args[1], params)
			})
		},
	}
	pf.register(cmd, false)
	return cmd
}

func (a *app) postCmd() *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "post <resource>",
		Short: "Create an object in a resource",
		Example: `  restkit post projects -p label="My Project"
  restkit post projects --data @project.jsonc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResource(cmd, args[0], pf, func(ctx context.Context, h resource.Handler, params request.Params) (*response.Response, error) {
				return h.Post(ctx, params)
			})
		},
	}
	pf.register(cmd, true)
	return cmd
}

func (a *app) putCmd() *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "put <resource> <id>",
		Short: "Replace an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResource(cmd, args[0], pf, func(ctx context.Context, h resource.Handler, params request.Params) (*response.Response, error) {
				return h.Put(ctx, args[1], params)
			})
		},
	}
	pf.register(cmd, true)
	return cmd
}

func (a *app) patchCmd() *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "patch <resource> <id>",
		Short: "Partially update an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResource(cmd, args[0], pf, func(ctx context.Context, h resource.Handler, params request.Params) (*response.Response, error) {
				return h.Patch(ctx, args[1], params)
			})
		},
	}
	pf.register(cmd, true)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResource(cmd, args[0], pf, func(ctx context.Context, h resource.Handler, params request.Params) (*response.Response, error) {
				return h.Delete(ctx, args[1], params)
			})
		},
	}
	pf.register(cmd, false)
	return cmd
}

type resourceCall func(ctx context.Context, h resource.Handler, params request.Params) (*response.Response, error)

func (a *app) runResource(cmd *cobra.Command, name string, pf paramFlags, call resourceCall) error {
	ctx := cmd.Context()

	params, err := pf.build(cmd.InOrStdin())
	if err != nil {
		return err
	}

	c, err := a.connect(ctx)
	if err != nil {
		return err
	}

	h, err := c.resource(name)
	if err != nil {
		return err
	}

	resp, err := call(ctx, h, params)
	if err != nil {
		return err
	}

	a.logger.Debug().
		Str("method", resp.Method).
		Str("url", resp.URL).
		Int("status", resp.Status).
		Msg("Request completed")

	return a.render(ctx, cmd.OutOrStdout(), resp)
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [resource...]",
		Short: "Show TastyPie resource schemas",
		Long:  "Show the schema of the given TastyPie resources, or of every resource when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			if c.tastypie == nil {
				return fmt.Errorf("schema requires a TastyPie API (set api.tastypie or --tastypie)")
			}

			if len(args) == 1 {
				schema, err := c.tastypie.Schema(ctx, args[0])
				if err != nil {
					return err
				}
				return a.write(ctx, cmd.OutOrStdout(), schema)
			}

			schemas, err := c.tastypie.Schemas(ctx, args...)
			if err != nil {
				return err
			}
			out := make(map[string]any, len(schemas))
			for name, schema := range schemas {
				out[name] = schema
			}
			return a.write(ctx, cmd.OutOrStdout(), out)
		},
	}
}

func (a *app) requestCmd() *cobra.Command {
	var pf paramFlags
	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send a request to a path relative to the base URL",
		Example: `  restkit request GET /
  restkit request POST projects/ --data '{"label": "x"}' -H 'X-Trace: 1'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions:
			default:
				return fmt.Errorf("unsupported method: %s", args[0])
			}

			params, err := pf.build(cmd.InOrStdin())
			if err != nil {
				return err
			}
			headers, err := parseHeaders(pf.headers)
			if err != nil {
				return err
			}

			c, err := a.connect(ctx)
			if err != nil {
				return err
			}

			resp, err := c.api.MakeRequest(ctx, method, args[1], params, headers)
			if err != nil {
				return err
			}
			return a.render(ctx, cmd.OutOrStdout(), resp)
		},
	}
	pf.register(cmd, true)
	pf.registerHeaders(cmd)
	return cmd
}

func (a *app) filtersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the filters defined in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.filters.ListFilters()
			if len(names) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No filters configured.")
				return nil
			}
			for _, name := range names {
				f, _ := a.filters.GetFilter(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, f.Expression())
			}
			return nil
		},
	}
}
