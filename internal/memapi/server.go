// Package memapi is an in-memory JSON REST API serving the conventional
// collection and singleton routes of activestore models.
package memapi

import (
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lychee-technology/activestore"
)

// Resource describes one route served by the API.
type Resource struct {
	// Route is the path segment below the prefix, e.g. "posts".
	Route      string
	PrimaryKey string
	Singleton  bool
	// Required fields must be present and non-empty on create and update.
	Required []string
	// UUIDKeys assigns UUID strings instead of sequential integers.
	UUIDKeys bool
}

// ResourceFor derives the resource served for a registered model.
func ResourceFor(meta *activestore.ModelMetadata) Resource {
	var required []string
	for _, name := range meta.Schema.Fields() {
		if meta.Schema[name].Required {
			required = append(required, name)
		}
	}
	return Resource{
		Route:      meta.RouteName,
		PrimaryKey: meta.PrimaryKey,
		Singleton:  meta.Singleton,
		Required:   required,
	}
}

type table struct {
	Resource
	rows   map[string]map[string]any
	order  []string
	nextID int64
	single map[string]any
}

// Server is the in-memory API. It implements http.Handler.
type Server struct {
	mu     sync.Mutex
	prefix string
	tables map[string]*table
	mux    *http.ServeMux
}

// NewServer creates a server answering below prefix for the given resources.
func NewServer(prefix string, resources ...Resource) *Server {
	s := &Server{
		prefix: "/" + strings.Trim(prefix, "/"),
		tables: make(map[string]*table, len(resources)),
		mux:    http.NewServeMux(),
	}
	if s.prefix == "/" {
		s.prefix = ""
	}
	for _, res := range resources {
		if res.PrimaryKey == "" {
			res.PrimaryKey = activestore.DefaultPrimaryKey
		}
		s.tables[res.Route] = &table{
			Resource: res,
			rows:     map[string]map[string]any{},
			nextID:   1,
			single:   map[string]any{},
		}
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers the API routes on the server mux.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc(s.prefix+"/", s.apiHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Seed stores rows in a collection resource, assigning keys where missing.
// It returns the stored rows.
func (s *Server) Seed(route string, rows ...map[string]any) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[route]
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if t.Singleton {
			t.single = maps.Clone(row)
			out = append(out, maps.Clone(t.single))
			continue
		}
		out = append(out, t.insert(maps.Clone(row)))
	}
	return out
}

// Rows returns a copy of the rows of a collection resource in insertion order.
func (s *Server) Rows(route string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[route]
	if !ok {
		return nil
	}
	return t.list(nil)
}

func (t *table) insert(row map[string]any) map[string]any {
	key, ok := row[t.PrimaryKey]
	if !ok || key == nil {
		if t.UUIDKeys {
			key = uuid.NewString()
		} else {
			key = float64(t.nextID)
			t.nextID++
		}
		row[t.PrimaryKey] = key
	}
	id := keyString(key)
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
	return maps.Clone(row)
}

func (t *table) list(filter map[string][]string) []map[string]any {
	out := make([]map[string]any, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if !matches(row, filter) {
			continue
		}
		out = append(out, maps.Clone(row))
	}
	return out
}

func (t *table) remove(id string) {
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(k string) bool { return k == id })
}

// validate returns the messages of required fields that are missing or empty.
func (t *table) validate(row map[string]any) map[string][]string {
	errs := map[string][]string{}
	for _, field := range t.Required {
		v, ok := row[field]
		if !ok || v == nil || v == "" {
			errs[field] = []string{"is required"}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// matches applies equality filters from the query string; parameters naming
// fields the row does not have are ignored.
func matches(row map[string]any, filter map[string][]string) bool {
	for key, values := range filter {
		v, ok := row[key]
		if !ok || len(values) == 0 {
			continue
		}
		if !slices.Contains(values, keyString(v)) {
			return false
		}
	}
	return true
}
