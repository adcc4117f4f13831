package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/s0up4200/restkit/apierr"
)

const formContentType = "application/x-www-form-urlencoded"

// requestLayers is a snapshot of the handler defaults taken under lock
type requestLayers struct {
	params    Params
	urlParams Params
	headers   map[string]string
}

// preparedRequest is everything needed to put a request on the wire, and
// is reused unchanged when a request is retried
type preparedRequest struct {
	method string
	url    string
	body   []byte
	header http.Header
}

func (h *Handler) prepare(method, target string, params Params, headers map[string]string, layers requestLayers) (*preparedRequest, error) {
	u, err := h.resolveURL(target)
	if err != nil {
		return nil, err
	}

	merged := layers.params
	for k, v := range params {
		merged[k] = v
	}

	query := u.Query()
	for k, v := range layers.urlParams {
		addValues(query, k, v)
	}

	header := make(http.Header, len(layers.headers)+len(headers))
	for k, v := range layers.headers {
		header.Set(k, v)
	}
	for k, v := range headers {
		header.Set(k, v)
	}

	var body []byte
	switch {
	case len(merged) == 0:
	case method == http.MethodGet && !h.opts.allowGetBody:
		for k, v := range merged {
			addValues(query, k, v)
		}
	case h.opts.serialize:
		body, err = h.opts.serializer.Serialize(map[string]any(merged))
		if err != nil {
			return nil, fmt.Errorf("failed to serialize params: %w", err)
		}
	default:
		form := url.Values{}
		for k, v := range merged {
			addValues(form, k, v)
		}
		body = []byte(form.Encode())
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", formContentType)
		}
	}

	u.RawQuery = query.Encode()

	return &preparedRequest{
		method: method,
		url:    u.String(),
		body:   body,
		header: header,
	}, nil
}

// resolveURL joins relative targets onto the base URL and normalizes the
// trailing slash of the path
func (h *Handler) resolveURL(target string) (*url.URL, error) {
	raw := target
	if !IsAbsoluteURL(target) {
		if h.baseURL == "" {
			return nil, &apierr.APIError{Msg: fmt.Sprintf("cannot resolve relative path %q without a base url", target)}
		}
		raw = h.baseURL + "/" + strings.TrimLeft(target, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &apierr.APIError{Msg: fmt.Sprintf("invalid url %q: %v", raw, err)}
	}

	u.Path = h.normalizePath(u.Path)
	if u.RawPath != "" {
		u.RawPath = h.normalizePath(u.RawPath)
	}

	return u, nil
}

func (h *Handler) normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if h.opts.trailingSlash {
		p += "/"
	}
	return p
}

// addValues appends value under key. nil becomes an empty string, slices
// repeat the key per item and maps contribute their values in key order.
func addValues(values url.Values, key string, value any) {
	if value == nil {
		values.Add(key, "")
		return
	}

	switch v := value.(type) {
	case string:
		values.Add(key, v)
		return
	case []byte:
		values.Add(key, string(v))
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			values.Add(key, FormatValue(rv.Index(i).Interface()))
		}
	case reflect.Map:
		mapKeys := rv.MapKeys()
		sort.Slice(mapKeys, func(i, j int) bool {
			return fmt.Sprint(mapKeys[i].Interface()) < fmt.Sprint(mapKeys[j].Interface())
		})
		for _, mk := range mapKeys {
			values.Add(key, FormatValue(rv.MapIndex(mk).Interface()))
		}
	default:
		values.Add(key, FormatValue(value))
	}
}

// FormatValue renders a parameter or id as it appears in a URL or form body.
// Whole floats print without an exponent, so 1234567.0 becomes "1234567".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

// IsAbsoluteURL reports whether target carries its own scheme and host.
// A scheme inside the query string does not count.
func IsAbsoluteURL(target string) bool {
	u, err := url.Parse(target)
	return err == nil && u.Scheme != "" && u.Host != ""
}
