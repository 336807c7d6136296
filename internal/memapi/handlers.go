package memapi

import (
	"fmt"
	"maps"
	"net/http"

	"go.uber.org/zap"
)

// apiHandler routes requests to the collection, member or singleton handlers.
func (s *Server) apiHandler(w http.ResponseWriter, r *http.Request) {
	route, id, err := parsePath(s.prefix, r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[route]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource: %s", route))
		return
	}
	zap.S().Debugw("memapi request", "method", r.Method, "route", route, "id", id)

	switch {
	case t.Singleton:
		if id != "" {
			writeError(w, http.StatusNotFound, "singleton resources have no members")
			return
		}
		s.handleSingleton(w, r, t)
	case id == "":
		s.handleCollection(w, r, t)
	default:
		s.handleMember(w, r, t, id)
	}
}

// handleCollection handles GET and POST /{prefix}/{route}
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request, t *table) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, t.list(r.URL.Query()))
	case http.MethodPost:
		body, err := readJSONObject(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
			return
		}
		if errs := t.validate(body); errs != nil {
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
			return
		}
		if key, ok := body[t.PrimaryKey]; ok && key != nil {
			if _, exists := t.rows[keyString(key)]; exists {
				writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
					Errors: map[string][]string{t.PrimaryKey: {"has already been taken"}},
				})
				return
			}
		}
		writeJSON(w, http.StatusCreated, t.insert(body))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMember handles GET, PUT, PATCH and DELETE /{prefix}/{route}/{id}
func (s *Server) handleMember(w http.ResponseWriter, r *http.Request, t *table, id string) {
	row, ok := t.rows[id]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", t.Route, id))
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, row)
	case http.MethodPut, http.MethodPatch:
		body, err := readJSONObject(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
			return
		}
		next := maps.Clone(row)
		maps.Copy(next, body)
		next[t.PrimaryKey] = row[t.PrimaryKey]
		if errs := t.validate(next); errs != nil {
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
			return
		}
		t.rows[id] = next
		writeJSON(w, http.StatusOK, next)
	case http.MethodDelete:
		t.remove(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSingleton handles /{prefix}/{route} for a singleton resource
func (s *Server) handleSingleton(w http.ResponseWriter, r *http.Request, t *table) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, t.single)
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body, err := readJSONObject(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
			return
		}
		next := maps.Clone(t.single)
		maps.Copy(next, body)
		if errs := t.validate(next); errs != nil {
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
			return
		}
		t.single = next
		status := http.StatusOK
		if r.Method == http.MethodPost {
			status = http.StatusCreated
		}
		writeJSON(w, status, next)
	case http.MethodDelete:
		t.single = map[string]any{}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
