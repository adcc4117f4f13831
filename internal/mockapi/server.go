// Package mockapi serves a small django-tastypie style API used by tests and
// by the "restkit mockapi" command.
package mockapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// APIPath is where the API is mounted
const APIPath = "/api/v0"

// Seeded credentials
const (
	AdminAPIKey     = "ADMIN_API_KEY"
	AdminPassword   = "admin"
	JohnDoeAPIKey   = "JOHNDOE_API_KEY"
	JohnDoePassword = "password"
)

const defaultLimit = 20

// resourceNames is the root listing, in the order it is served
var resourceNames = []string{"users", "users_via_apikey_auth", "users_via_basic_auth", "projects"}

// Server is an http.Handler serving the mock API
type Server struct {
	store  *store
	logger zerolog.Logger
	router chi.Router
}

// New creates a Server with seeded users and projects
func New(logger zerolog.Logger) *Server {
	s := &Server{
		store:  newStore(),
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route(APIPath, func(r chi.Router) {
		r.Get("/", s.index)

		r.Route("/users", s.userRoutes)
		r.Route("/users_via_apikey_auth", func(r chi.Router) {
			r.Use(s.requireAPIKey)
			s.userRoutes(r)
		})
		r.Route("/users_via_basic_auth", func(r chi.Router) {
			r.Use(s.requireBasicAuth)
			s.userRoutes(r)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Patch("/", s.patchProjects)
			r.Get("/schema/", s.schema(projectSchema))
			r.Get("/{id}/", s.getProject)
			r.Put("/{id}/", s.putProject)
			r.Patch("/{id}/", s.patchProject)
			r.Delete("/{id}/", s.deleteProject)
		})
	})

	return r
}

func (s *Server) userRoutes(r chi.Router) {
	r.Get("/", s.listUsers)
	r.Get("/schema/", s.schema(userSchema))
	r.Get("/{id}/", s.getUser)
}

// index lists every resource. The body is written by hand to keep the order.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range resourceNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		entry, _ := json.Marshal(map[string]string{
			"list_endpoint": fmt.Sprintf("%s/%s/", APIPath, name),
			"schema":        fmt.Sprintf("%s/%s/schema/", APIPath, name),
		})
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(entry)
	}
	buf.WriteByte('}')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users := s.store.listUsers(r.URL.Query().Get("username"))
	writeList(w, r, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	u, err := s.store.getUser(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := q.Get("label")
	if exact := q.Get("label__exact"); exact != "" {
		label = exact
	}
	writeList(w, r, s.store.listProjects(label, q.Get("label__icontains")))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := s.store.getProject(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.store.createProject(fields)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Location", "http://"+r.Host+p.ResourceURI)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) putProject(w http.ResponseWriter, r *http.Request) {
	s.updateProject(w, r, true, http.StatusNoContent)
}

func (s *Server) patchProject(w http.ResponseWriter, r *http.Request) {
	s.updateProject(w, r, false, http.StatusAccepted)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request, replace bool, status int) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.store.updateProject(id, fields, replace)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.deleteProject(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// patchProjects implements TastyPie's bulk PATCH on the list endpoint
func (s *Server) patchProjects(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Objects        []map[string]any `json:"objects"`
		DeletedObjects []string         `json:"deleted_objects"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	ids := make([]int, 0, len(body.DeletedObjects))
	for _, uri := range body.DeletedObjects {
		id, err := idFromURI(uri)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ids = append(ids, id)
	}

	if err := s.store.patchProjects(body.Objects, ids); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) schema(schema map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, schema)
	}
}

// requireAPIKey accepts "Authorization: ApiKey <username>:<key>"
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, ok := strings.CutPrefix(r.Header.Get("Authorization"), "ApiKey ")
		if ok {
			user, key, found := strings.Cut(creds, ":")
			if found && s.store.checkAPIKey(user, key) {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func (s *Server) requireBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if ok && s.store.checkPassword(user, password) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="mockapi"`)
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("mockapi request")
	})
}

// writeList writes a TastyPie list envelope honoring limit and offset
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	q := r.URL.Query()
	limit := queryInt(q, "limit", defaultLimit)
	offset := queryInt(q, "offset", 0)

	total := len(items)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"meta": map[string]any{
			"limit":       limit,
			"offset":      offset,
			"total_count": total,
			"next":        nil,
			"previous":    nil,
		},
		"objects": items[offset:end],
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errDuplicateLabel), errors.Is(err, errMissingLabel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid id")
		return 0, false
	}
	return id, true
}

func idFromURI(uri string) (int, error) {
	trimmed := strings.TrimRight(uri, "/")
	idx := strings.LastIndex(trimmed, "/")
	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid resource uri %q", uri)
	}
	return id, nil
}

func queryInt(q url.Values, key string, fallback int) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// decodeFields reads a JSON or form encoded body into a flat mapping
func decodeFields(r *http.Request) (map[string]any, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		fields := make(map[string]any, len(r.PostForm))
		for k := range r.PostForm {
			fields[k] = r.PostForm.Get(k)
		}
		return fields, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	fields := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.New("request body must be valid JSON")
	}
	return fields, nil
}

var userSchema = map[string]any{
	"allowed_detail_http_methods": []string{"get"},
	"allowed_list_http_methods":   []string{"get"},
	"default_format":              "application/json",
	"default_limit":               defaultLimit,
	"fields": map[string]any{
		"id":           map[string]any{"type": "integer", "readonly": false, "nullable": false},
		"username":     map[string]any{"type": "string", "readonly": false, "nullable": false},
		"resource_uri": map[string]any{"type": "string", "readonly": true, "nullable": false},
	},
	"filtering": map[string]any{"username": 1},
}

var projectSchema = map[string]any{
	"allowed_detail_http_methods": []string{"get", "put", "patch", "delete"},
	"allowed_list_http_methods":   []string{"get", "post", "patch"},
	"default_format":              "application/json",
	"default_limit":               defaultLimit,
	"fields": map[string]any{
		"id":           map[string]any{"type": "integer", "readonly": false, "nullable": false},
		"label":        map[string]any{"type": "string", "readonly": false, "nullable": false, "unique": true},
		"create_date":  map[string]any{"type": "datetime", "readonly": false, "nullable": false},
		"update_date":  map[string]any{"type": "datetime", "readonly": false, "nullable": false},
		"resource_uri": map[string]any{"type": "string", "readonly": true, "nullable": false},
	},
	"filtering": map[string]any{"label": 1},
}
