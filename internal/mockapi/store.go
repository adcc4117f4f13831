package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	errNotFound       = errors.New("not found")
	errDuplicateLabel = errors.New("label already exists")
	errMissingLabel   = errors.New("label is required")
)

const timeLayout = "2006-01-02T15:04:05.000000"

// User is a read-only account
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	ResourceURI string `json:"resource_uri"`

	apiKey   string
	password string
}

// Project is a writable record with a unique label
type Project struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	CreateDate  string `json:"create_date"`
	UpdateDate  string `json:"update_date"`
	ResourceURI string `json:"resource_uri"`
}

// store holds the mock data. All methods are safe for concurrent use.
type store struct {
	mu       sync.RWMutex
	users    []*User
	projects map[int]*Project
	nextID   int
	now      func() time.Time
}

func newStore() *store {
	s := &store{
		projects: make(map[int]*Project),
		nextID:   1,
		now:      time.Now,
	}

	s.users = []*User{
		{ID: 1, Username: "admin", apiKey: AdminAPIKey, password: AdminPassword},
		{ID: 2, Username: "john.doe", apiKey: JohnDoeAPIKey, password: JohnDoePassword},
	}
	for _, u := range s.users {
		u.ResourceURI = memberURI("users", u.ID)
	}

	for _, label := range []string{"my_project", "some_other_project"} {
		_, _ = s.createProject(map[string]any{"label": label})
	}

	return s
}

func memberURI(resource string, id int) string {
	return fmt.Sprintf("%s/%s/%d/", APIPath, resource, id)
}

func (s *store) listUsers(username string) []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if username != "" && u.Username != username {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (s *store) getUser(id int) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errNotFound
}

// checkAPIKey reports whether key belongs to username
func (s *store) checkAPIKey(username, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username && u.apiKey == key {
			return true
		}
	}
	return false
}

// checkPassword reports whether password belongs to username
func (s *store) checkPassword(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username && u.password == password {
			return true
		}
	}
	return false
}

// listProjects returns projects ordered by id. label matches exactly,
// labelContains matches case-insensitively.
func (s *store) listProjects(label, labelContains string) []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		if label != "" && p.Label != label {
			continue
		}
		if labelContains != "" && !strings.Contains(strings.ToLower(p.Label), strings.ToLower(labelContains)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) getProject(id int) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *store) createProject(fields map[string]any) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createProjectLocked(fields)
}

func (s *store) createProjectLocked(fields map[string]any) (*Project, error) {
	label, _ := fields["label"].(string)
	if label == "" {
		return nil, errMissingLabel
	}
	if s.labelTakenLocked(label, 0) {
		return nil, errDuplicateLabel
	}

	now := s.now().UTC().Format(timeLayout)
	p := &Project{
		ID:         s.nextID,
		Label:      label,
		CreateDate: stringField(fields, "create_date", now),
		UpdateDate: stringField(fields, "update_date", now),
	}
	p.ResourceURI = memberURI("projects", p.ID)

	s.projects[p.ID] = p
	s.nextID++

	cp := *p
	return &cp, nil
}

// updateProject applies fields to a project. With replace set, a missing
// label is an error as it would be for PUT.
func (s *store) updateProject(id int, fields map[string]any, replace bool) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, errNotFound
	}

	label, hasLabel := fields["label"].(string)
	if replace && label == "" {
		return nil, errMissingLabel
	}
	if hasLabel && label != "" {
		if s.labelTakenLocked(label, id) {
			return nil, errDuplicateLabel
		}
		p.Label = label
	}
	p.UpdateDate = s.now().UTC().Format(timeLayout)

	cp := *p
	return &cp, nil
}

func (s *store) deleteProject(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return errNotFound
	}
	delete(s.projects, id)
	return nil
}

// patchProjects creates objects and deletes the projects behind deletedURIs
// as a single change. Nothing is applied if any part fails.
func (s *store) patchProjects(objects []map[string]any, deletedIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range deletedIDs {
		if _, ok := s.projects[id]; !ok {
			return fmt.Errorf("project %d: %w", id, errNotFound)
		}
	}

	snapshot := make(map[int]*Project, len(s.projects))
	for k, v := range s.projects {
		snapshot[k] = v
	}
	nextID := s.nextID

	for _, id := range deletedIDs {
		delete(s.projects, id)
	}
	for _, obj := range objects {
		if _, err := s.createProjectLocked(obj); err != nil {
			s.projects = snapshot
			s.nextID = nextID
			return err
		}
	}
	return nil
}

func (s *store) labelTakenLocked(label string, exceptID int) bool {
	for id, p := range s.projects {
		if id != exceptID && p.Label == label {
			return true
		}
	}
	return false
}

func stringField(fields map[string]any, key, fallback string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
