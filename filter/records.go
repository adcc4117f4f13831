package filter

import (
	"context"
	"maps"
)

// ListKey is the key TastyPie list responses keep their records under
const ListKey = "objects"

// Apply returns the records matching f, in their original order
func Apply(ctx context.Context, f *Filter, records []any) ([]any, error) {
	matches := make([]any, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Matches(record) {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

// ApplyToData filters decoded response data. A list is filtered directly; a
// map has the list under key replaced by its matches in a shallow copy.
// Anything else is returned unchanged.
func ApplyToData(ctx context.Context, f *Filter, data any, key string) (any, error) {
	switch d := data.(type) {
	case []any:
		return Apply(ctx, f, d)
	case map[string]any:
		records, ok := d[key].([]any)
		if !ok {
			return data, nil
		}
		matches, err := Apply(ctx, f, records)
		if err != nil {
			return nil, err
		}
		out := maps.Clone(d)
		out[key] = matches
		return out, nil
	default:
		return data, nil
	}
}
