package memapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// parsePath splits {route} or {route}/{id} below prefix.
func parsePath(prefix, path string) (route string, id string, err error) {
	if !strings.HasPrefix(path, prefix+"/") {
		return "", "", fmt.Errorf("path outside %s", prefix)
	}
	path = strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if path == "" {
		return "", "", fmt.Errorf("invalid path: empty resource name")
	}

	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid path format")
	}
}

// errorResponse is the body of non-validation failures.
type errorResponse struct {
	Error string `json:"error"`
}

// validationResponse is the body of a 422 response.
type validationResponse struct {
	Errors map[string][]string `json:"errors"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, errorResponse{Error: message})
}

// readJSONObject decodes a JSON object request body.
func readJSONObject(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// keyString renders a primary key value the way it appears in a URL.
func keyString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
