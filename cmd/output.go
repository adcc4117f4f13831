package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/s0up4200/restkit/filter"
	"github.com/s0up4200/restkit/response"
)

// outputFlags control how responses are printed
type outputFlags struct {
	query  string
	where  string
	format string
}

func (o outputFlags) validate() error {
	switch o.format {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --output: %s (must be 'json' or 'yaml')", o.format)
	}
}

// render filters, queries and prints the response data. Undecoded bodies are
// written as is.
func (a *app) render(ctx context.Context, w io.Writer, resp *response.Response) error {
	if raw, ok := resp.Data.([]byte); ok {
		if len(raw) == 0 {
			return nil
		}
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}

	if msg, ok := resp.SoftError(); ok {
		a.logger.Warn().Str("url", resp.URL).Str("error", msg).Msg("Response body could not be decoded")
	}

	return a.write(ctx, w, resp.Data)
}

func (a *app) write(ctx context.Context, w io.Writer, data any) error {
	var err error
	if a.out.where != "" {
		f, resolveErr := a.filters.Resolve(a.out.where)
		if resolveErr != nil {
			return fmt.Errorf("invalid --where: %w", resolveErr)
		}
		data, err = filter.ApplyToData(ctx, f, data, filter.ListKey)
		if err != nil {
			return err
		}
	}

	data, err = filter.Query(data, a.out.query)
	if err != nil {
		return err
	}

	return encode(w, a.out.format, data)
}

func encode(w io.Writer, format string, data any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlValue(data)); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// yamlValue turns json.Number values into plain YAML number scalars
func yamlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlValue(e)
		}
		return out
	case json.Number:
		// Untagged so yaml.v3 prints the digits plain
		return &yaml.Node{Kind: yaml.ScalarNode, Value: t.String()}
	default:
		return v
	}
}
