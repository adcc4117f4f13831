// Package request builds, sends and classifies HTTP requests for restkit.
//
// A Handler owns everything transport related: the base URL, default params,
// query params and headers, Basic credentials, serialization and the cached
// *http.Client. Resources never talk to the network themselves; they go
// through the Handler of the API they belong to.
//
// # Usage
//
//	h := request.New("https://api.example.com/v1", logger,
//		request.WithSerialize(true),
//		request.WithTimeout(10*time.Second),
//	)
//	h.AddHeader("X-Client", "restkit")
//
//	resp, err := h.MakeRequest(ctx, http.MethodGet, "users", request.Params{"limit": 10}, nil)
//	if err != nil {
//		var reqErr *apierr.RequestError
//		if errors.As(err, &reqErr) && reqErr.IsNotFound() {
//			// ...
//		}
//		return err
//	}
//
// # Request building
//
// Relative targets are joined to the base URL and the path gets exactly one
// trailing slash unless WithTrailingSlash(false) is used. GET params go to the
// query string unless WithAllowGetBody(true) is set. Other bodies are encoded
// with the serializer, or form encoded when serialization is off.
//
// # Debugging
//
// Setting RESTKIT_DEBUG=1 prints the method, URL, payload and headers of every
// request to stdout.
package request
