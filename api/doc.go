// Package api provides the high level client facade for a REST endpoint.
//
// # Usage
//
//	a, err := api.New("http://localhost:8000/api/v1/", logger)
//	if err != nil {
//		return err
//	}
//	a.Auth("john.doe", "password")
//
//	users, err := a.AddResource("users")
//	if err != nil {
//		return err
//	}
//	resp, err := users.Get(ctx, 1, nil)
//
// Resources can be nested under dotted names:
//
//	a.AddResource("my.nested.users", api.WithPath("/users/"))
//	users, err := a.Resource("my.nested.users")
//
// # TastyPie
//
// NewTastyPie discovers resources from the API root and authenticates with
// TastyPie's ApiKey scheme unless WithAuthMechanism(api.AuthBasic) is given:
//
//	tp, err := api.NewTastyPie(ctx, "http://localhost:8000/api/v0/", logger)
//	if err != nil {
//		return err
//	}
//	if err := tp.Auth("john.doe", apiKey); err != nil {
//		return err
//	}
//	schema, err := tp.Schema(ctx, "users")
package api
