// Package apierr defines the error taxonomy shared by the restkit packages.
//
// Every error returned by restkit matches ErrClient with errors.Is, and each
// concrete type additionally matches its own sentinel:
//
//   - InterfaceError (ErrInterface): a handler lacks a required capability
//   - RequestError (ErrRequest): the server returned 4xx or 500
//   - ResourceError (ErrResource): invalid or duplicate resource registration
//   - ConnectionError (ErrConnection): refused, unresolvable or dropped connections
//   - APIError (ErrAPI): API facade misuse
//
// RequestError keeps the response that triggered it:
//
//	resp, err := users.Get(ctx, 1, nil)
//	var reqErr *apierr.RequestError
//	if errors.As(err, &reqErr) && reqErr.IsNotFound() {
//		log.Println(reqErr.Response.Data)
//	}
package apierr
