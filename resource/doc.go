// Package resource implements the handlers attached to an API for each named
// REST resource.
//
// REST maps the usual verbs onto <path>/ and <path>/<id>/. TastyPie adds the
// schema, resource_uri lookups and bulk PATCH that django-tastypie exposes.
// Optional capabilities are discovered with As:
//
//	schemer, err := resource.As[resource.Schemer](users)
//	if err != nil {
//		return err // *apierr.InterfaceError
//	}
//	schema, err := schemer.Schema(ctx)
package resource
