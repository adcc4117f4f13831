package filter

import (
	"encoding/json"
)

// numbersAsFloat returns a copy of v with every number as float64, the only
// numeric type JMESPath compares.
func numbersAsFloat(v any) any {
	return walkNumbers(v, func(n any) any {
		if f, ok := toFloat(n); ok {
			return f
		}
		return n
	})
}

// exprNumbers returns a copy of v with json.Number values as int64 or float64
func exprNumbers(v any) any {
	return walkNumbers(v, func(n any) any {
		num, ok := n.(json.Number)
		if !ok {
			return n
		}
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
		return n
	})
}

func walkNumbers(v any, leaf func(any) any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = walkNumbers(e, leaf)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = walkNumbers(e, leaf)
		}
		return out
	default:
		return leaf(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
