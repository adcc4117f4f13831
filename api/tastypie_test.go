package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/internal/mockapi"
	"github.com/s0up4200/restkit/request"
	"github.com/s0up4200/restkit/resource"
)

var mockResources = []string{"users", "users_via_apikey_auth", "users_via_basic_auth", "projects"}

func newTastyPie(t *testing.T, opts ...Option) *TastyPie {
	t.Helper()

	tp, err := NewTastyPie(context.Background(), newMockServer(t), zerolog.Nop(), opts...)
	require.NoError(t, err)
	return tp
}

func mustResource(t *testing.T, tp *TastyPie, name string) resource.Handler {
	t.Helper()

	h, err := tp.Resource(name)
	require.NoError(t, err)
	return h
}

func TestTastyPieDiscoversResourcesInOrder(t *testing.T) {
	tp := newTastyPie(t)
	assert.Equal(t, mockResources, tp.Resources())

	users := mustResource(t, tp, "users")
	assert.IsType(t, &resource.TastyPie{}, users)
}

func TestTastyPieFindResourcesSkipsRegistered(t *testing.T) {
	tp := newTastyPie(t, WithAutoDetect(false))
	assert.Empty(t, tp.Resources())

	_, err := tp.AddResource("projects", WithPath("/projects/"))
	require.NoError(t, err)

	require.NoError(t, tp.FindResources(context.Background()))
	require.NoError(t, tp.FindResources(context.Background()))

	assert.Equal(t, []string{"projects", "users", "users_via_apikey_auth", "users_via_basic_auth"}, tp.Resources())
}

func TestTastyPieDiscoveryFailure(t *testing.T) {
	_, err := NewTastyPie(context.Background(), newMockServer(t)+"nope/", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrRequest))
}

func TestTastyPieUsesJSON(t *testing.T) {
	tp := newTastyPie(t)

	h, ok := tp.Request().(*request.Handler)
	require.True(t, ok)
	assert.Equal(t, "application/json", h.ExtraHeaders()["Content-Type"])
}

func TestTastyPieAPIKeyAuth(t *testing.T) {
	ctx := context.Background()
	tp := newTastyPie(t)
	assert.Equal(t, AuthAPIKey, tp.AuthMechanism())

	users := mustResource(t, tp, "users_via_apikey_auth")

	_, err := users.Get(ctx, nil, nil)
	var reqErr *apierr.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.IsUnauthorized())

	require.NoError(t, tp.Auth("john.doe", mockapi.JohnDoeAPIKey))

	h := tp.Request().(*request.Handler)
	assert.Equal(t, "ApiKey john.doe:"+mockapi.JohnDoeAPIKey, h.ExtraHeaders()["Authorization"])

	resp, err := users.Get(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Records("objects"), 2)
}

func TestTastyPieBasicAuth(t *testing.T) {
	ctx := context.Background()
	tp := newTastyPie(t, WithAuthMechanism(AuthBasic))

	require.NoError(t, tp.Auth("john.doe", mockapi.JohnDoePassword))

	h := tp.Request().(*request.Handler)
	_, hasHeader := h.ExtraHeaders()["Authorization"]
	assert.False(t, hasHeader)

	resp, err := mustResource(t, tp, "users_via_basic_auth").Get(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Map()["username"])
}

func TestTastyPieUnknownAuthMechanism(t *testing.T) {
	tp := newTastyPie(t, WithAuthMechanism("digest"))

	err := tp.Auth("john.doe", "secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrAPI))
	assert.Equal(t, "Unknown TastyPie auth mechanism.", err.Error())
}

func TestTastyPieSchema(t *testing.T) {
	tp := newTastyPie(t)

	schema, err := tp.Schema(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, []any{"get"}, schema["allowed_list_http_methods"])

	_, err = tp.Schema(context.Background(), "missing")
	assert.True(t, errors.Is(err, apierr.ErrResource))
}

func TestTastyPieSchemaRequiresCapability(t *testing.T) {
	tp := newTastyPie(t)

	_, err := tp.AddResource("plain", WithPath("users"), WithFactory(resource.RESTFactory()))
	require.NoError(t, err)

	_, err = tp.Schema(context.Background(), "plain")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrInterface))
}

func TestTastyPieSchemas(t *testing.T) {
	tp := newTastyPie(t, WithSchemaConcurrency(2))

	schemas, err := tp.Schemas(context.Background())
	require.NoError(t, err)
	assert.Len(t, schemas, len(mockResources))
	assert.Equal(t, []any{"get", "post", "patch"}, schemas["projects"]["allowed_list_http_methods"])

	schemas, err = tp.Schemas(context.Background(), "users")
	require.NoError(t, err)
	assert.Len(t, schemas, 1)

	_, err = tp.Schemas(context.Background(), "users", "missing")
	assert.True(t, errors.Is(err, apierr.ErrResource))
}

func TestTastyPieGetByURI(t *testing.T) {
	tp := newTastyPie(t)

	users, err := resource.As[resource.URIGetter](mustResource(t, tp, "users"))
	require.NoError(t, err)

	resp, err := users.GetByURI(context.Background(), mockapi.APIPath+"/users/1/", nil)
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Map()["username"])
}

func TestTastyPieProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	tp := newTastyPie(t)
	require.NoError(t, tp.Auth("john.doe", mockapi.JohnDoeAPIKey))

	projects := mustResource(t, tp, "projects")

	resp, err := projects.Create(ctx, request.Params{"label": "Test Project"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Regexp(t, `^http://.*/api/v0/projects/\d+/$`, resp.Headers.Get("Location"))

	resp, err = projects.Get(ctx, nil, request.Params{"label__exact": "Test Project"})
	require.NoError(t, err)
	objects := resp.Records("objects")
	require.Len(t, objects, 1)
	id := objects[0].(map[string]any)["id"]

	resp, err = projects.Patch(ctx, id, request.Params{"label": "Patched"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.Status)

	current, err := projects.Get(ctx, id, nil)
	require.NoError(t, err)
	data := current.Map()
	data["label"] = "Updated"

	_, err = projects.Update(ctx, id, request.Params(data))
	require.NoError(t, err)

	resp, err = projects.Get(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "Updated", resp.Map()["label"])

	resp, err = projects.Delete(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)

	_, err = projects.Get(ctx, id, nil)
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("Received HTTP Code 404 - Not Found (resource: projects, id: %v)", id), err.Error())
}

func TestTastyPiePatchList(t *testing.T) {
	ctx := context.Background()
	tp := newTastyPie(t)

	h := mustResource(t, tp, "projects")
	patcher, err := resource.As[resource.ListPatcher](h)
	require.NoError(t, err)

	resp, err := patcher.PatchList(ctx, []map[string]any{
		{"label": "NewProject1", "create_date": "2013-02-27T21:07:26.403323"},
		{"label": "NewProject2"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.Status)

	labels := func() map[string]string {
		resp, err := h.Get(ctx, nil, nil)
		require.NoError(t, err)
		out := make(map[string]string)
		for _, obj := range resp.Records("objects") {
			m := obj.(map[string]any)
			out[m["label"].(string)] = m["resource_uri"].(string)
		}
		return out
	}

	current := labels()
	require.Contains(t, current, "NewProject1")
	require.Contains(t, current, "NewProject2")

	resp, err = patcher.PatchList(ctx, nil, []string{current["NewProject1"], current["NewProject2"]})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.Status)

	current = labels()
	assert.NotContains(t, current, "NewProject1")
	assert.NotContains(t, current, "NewProject2")
}
