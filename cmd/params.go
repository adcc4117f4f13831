package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/serialization"
)

// paramFlags are the request parameter flags shared by the resource commands
type paramFlags struct {
	params  []string
	headers []string
	data    string
}

func (p *paramFlags) register(cmd *cobra.Command, withData bool) {
	cmd.Flags().StringArrayVarP(&p.params, "param", "p", nil, "request parameter as key=value, or key:=<json> for typed values (repeatable)")
	if withData {
		cmd.Flags().StringVarP(&p.data, "data", "d", "", "request body as JSON, @file or @- for stdin (comments allowed)")
	}
}

func (p *paramFlags) registerHeaders(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&p.headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
}

// build merges --data and --param; parameters win over the body document
func (p *paramFlags) build(stdin io.Reader) (request.Params, error) {
	params := request.Params{}
	if p.data != "" {
		data, err := loadData(p.data, stdin)
		if err != nil {
			return nil, err
		}
		maps.Copy(params, data)
	}

	pairs, err := parseParams(p.params)
	if err != nil {
		return nil, err
	}
	maps.Copy(params, pairs)

	return params, nil
}

// parseParams parses key=value and key:=<json> pairs
func parseParams(pairs []string) (request.Params, error) {
	params := make(request.Params, len(pairs))
	for _, pair := range pairs {
		eq := strings.Index(pair, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}

		key, value := pair[:eq], pair[eq+1:]
		if strings.HasSuffix(key, ":") {
			key = strings.TrimSuffix(key, ":")
			if key == "" {
				return nil, fmt.Errorf("invalid parameter %q, expected key:=<json>", pair)
			}
			v, err := serialization.DecodeJSON([]byte(value))
			if err != nil {
				return nil, fmt.Errorf("invalid JSON value for %s: %w", key, err)
			}
			params[key] = v
			continue
		}
		params[key] = value
	}
	return params, nil
}

// parseHeaders parses "Name: value" headers
func parseHeaders(lines []string) (map[string]string, error) {
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", line)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// loadData reads a JSON object from the flag value, a file (@path) or stdin (@-).
// Comments and trailing commas are stripped first.
func loadData(data string, stdin io.Reader) (map[string]any, error) {
	raw := []byte(data)
	switch {
	case data == "@-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		raw = b
	}

	v, err := serialization.DecodeJSON(jsonc.ToJSON(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid data, expected a JSON object: %w", err)
	}
	switch out := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return out, nil
	default:
		return nil, fmt.Errorf("invalid data, expected a JSON object, got %T", v)
	}
}
