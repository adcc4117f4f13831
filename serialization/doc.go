// Package serialization provides the pluggable body encoders used by the
// request handler.
//
// JSON is the default. YAML is available for APIs that speak it. Both report a
// body that fails to parse as a mapping with an "error" key rather than an
// error, so callers should check Response.SoftError on decoded data.
package serialization
