package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestIndexKeepsOrder(t *testing.T) {
	s := New(zerolog.Nop())

	rec := serve(t, s, http.MethodGet, APIPath+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	last := -1
	for _, name := range resourceNames {
		idx := strings.Index(body, `"`+name+`":`)
		require.Greater(t, idx, last, name)
		last = idx
	}
}

func TestUsersAreReadOnly(t *testing.T) {
	s := New(zerolog.Nop())

	rec := serve(t, s, http.MethodGet, APIPath+"/users/2/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": 2, "username": "john.doe", "resource_uri": "/api/v0/users/2/"}`, rec.Body.String())

	rec = serve(t, s, http.MethodPost, APIPath+"/users/", `{"username": "x"}`, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(t, s, http.MethodGet, APIPath+"/users/99/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserFilter(t *testing.T) {
	s := New(zerolog.Nop())

	rec := serve(t, s, http.MethodGet, APIPath+"/users/?username=admin", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Objects []User `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Objects, 1)
	assert.Equal(t, "admin", out.Objects[0].Username)
}

func TestAPIKeyAuth(t *testing.T) {
	s := New(zerolog.Nop())
	path := APIPath + "/users_via_apikey_auth/"

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong key", "ApiKey john.doe:nope", http.StatusUnauthorized},
		{"malformed", "ApiKey john.doe", http.StatusUnauthorized},
		{"valid", "ApiKey john.doe:" + JohnDoeAPIKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			rec := serve(t, s, http.MethodGet, path, "", header)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBasicAuth(t *testing.T) {
	s := New(zerolog.Nop())
	path := APIPath + "/users_via_basic_auth/"

	rec := serve(t, s, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.SetBasicAuth("john.doe", JohnDoePassword)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	s := New(zerolog.Nop())
	jsonHeader := http.Header{"Content-Type": {"application/json"}}

	rec := serve(t, s, http.MethodPost, APIPath+"/projects/", `{"label": "Test Project"}`, jsonHeader)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), APIPath+"/projects/3/")

	rec = serve(t, s, http.MethodPost, APIPath+"/projects/", `{"label": "Test Project"}`, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, s, http.MethodPatch, APIPath+"/projects/3/", `{"label": "Renamed"}`, jsonHeader)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = serve(t, s, http.MethodPut, APIPath+"/projects/3/", `{}`, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, s, http.MethodPut, APIPath+"/projects/3/", `{"label": "Final"}`, jsonHeader)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, s, http.MethodGet, APIPath+"/projects/?label__exact=Final", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":3`)

	rec = serve(t, s, http.MethodDelete, APIPath+"/projects/3/", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, s, http.MethodGet, APIPath+"/projects/3/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectFormBody(t *testing.T) {
	s := New(zerolog.Nop())

	header := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	rec := serve(t, s, http.MethodPost, APIPath+"/projects/", "label=From+Form", header)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "From Form")
}

func TestPatchProjectsIsAtomic(t *testing.T) {
	s := New(zerolog.Nop())

	body := `{"objects": [{"label": "Fresh"}, {"label": "my_project"}], "deleted_objects": []}`
	rec := serve(t, s, http.MethodPatch, APIPath+"/projects/", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, s.store.listProjects("Fresh", ""), 0)

	body = `{"objects": [{"label": "Fresh"}], "deleted_objects": ["/api/v0/projects/1/"]}`
	rec = serve(t, s, http.MethodPatch, APIPath+"/projects/", body, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, s.store.listProjects("Fresh", ""), 1)
	assert.Len(t, s.store.listProjects("my_project", ""), 0)
}

func TestListPagination(t *testing.T) {
	s := New(zerolog.Nop())

	rec := serve(t, s, http.MethodGet, APIPath+"/projects/?limit=1&offset=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Meta struct {
			TotalCount int `json:"total_count"`
		} `json:"meta"`
		Objects []Project `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Meta.TotalCount)
	require.Len(t, out.Objects, 1)
	assert.Equal(t, "some_other_project", out.Objects[0].Label)
}
