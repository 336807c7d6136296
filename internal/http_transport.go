package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/lychee-technology/activestore"
)

// ErrBreakerOpen is returned while the circuit breaker rejects requests.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// outgoingRequest is a fully resolved API call.
type outgoingRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// incomingResponse is the status and decoded JSON body of an API response.
type incomingResponse struct {
	Status int
	Body   any
}

// httpTransport sends JSON requests to the API.
type httpTransport struct {
	client  activestore.HTTPDoer
	baseURL string
	headers map[string]string
	breaker *CircuitBreaker
}

func newHTTPTransport(client activestore.HTTPDoer, baseURL string, headers map[string]string, breaker *CircuitBreaker) *httpTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpTransport{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: maps.Clone(headers),
		breaker: breaker,
	}
}

// Do performs req. A non-nil error means no response was received.
func (t *httpTransport) Do(ctx context.Context, req outgoingRequest) (*incomingResponse, error) {
	target := t.url(req.Path, req.Query)

	var body io.Reader
	if req.Method != http.MethodGet && req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	if !t.breaker.Allow() {
		return nil, ErrBreakerOpen
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.breaker.RecordFailure()
		return nil, err
	}
	defer resp.Body.Close()
	t.breaker.RecordSuccess()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &incomingResponse{Status: resp.StatusCode, Body: map[string]any{"error": err.Error()}}, nil
	}
	return &incomingResponse{Status: resp.StatusCode, Body: decodeBody(data)}, nil
}

func (t *httpTransport) url(path string, query url.Values) string {
	target := path
	if !strings.Contains(path, "://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = t.baseURL + path
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	return target
}

// decodeBody parses a JSON response body. An empty body decodes to an empty
// object; a malformed one to {"error": message}.
func decodeBody(data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return body
}

// encodeQuery renders query parameters. Slices repeat the key; objects are
// sent as JSON.
func encodeQuery(params map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
			continue
		case []any:
			for _, item := range v {
				values.Add(k, formatValue(item))
			}
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		default:
			values.Add(k, formatValue(v))
		}
	}
	return values
}

func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
