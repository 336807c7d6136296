package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDoer struct {
	calls int
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, errors.New("connection refused")
}

func TestHTTPTransportDo(t *testing.T) {
	var (
		mu      sync.Mutex
		got     *http.Request
		gotBody []byte
	)
	last := func() (*http.Request, []byte) {
		mu.Lock()
		defer mu.Unlock()
		return got, gotBody
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got, gotBody = r.Clone(context.Background()), body
		mu.Unlock()
		switch r.URL.Path {
		case "/api/posts":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"title":"hi"}`))
		case "/api/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/api/broken":
			_, _ = w.Write([]byte(`{"id":`))
		case "/api/list":
			_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
		}
	}))
	defer srv.Close()

	transport := newHTTPTransport(srv.Client(), srv.URL+"/", map[string]string{"Authorization": "Bearer t"}, nil)
	ctx := context.Background()

	t.Run("json body and headers", func(t *testing.T) {
		resp, err := transport.Do(ctx, outgoingRequest{
			Method: http.MethodPost,
			Path:   "/api/posts",
			Query:  url.Values{"draft": {"true"}},
			Body:   map[string]any{"title": "hi"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.Status)
		assert.Equal(t, map[string]any{"id": float64(1), "title": "hi"}, resp.Body)

		got, gotBody := last()
		assert.Equal(t, http.MethodPost, got.Method)
		assert.Equal(t, "application/json", got.Header.Get("Accept"))
		assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
		assert.Equal(t, "true", got.URL.Query().Get("draft"))
		assert.JSONEq(t, `{"title":"hi"}`, string(gotBody))
	})

	t.Run("get sends no body", func(t *testing.T) {
		resp, err := transport.Do(ctx, outgoingRequest{Method: http.MethodGet, Path: "api/list", Body: map[string]any{"ignored": true}})
		require.NoError(t, err)
		_, gotBody := last()
		assert.Empty(t, gotBody)
		assert.Len(t, resp.Body, 2)
	})

	t.Run("empty body decodes to an object", func(t *testing.T) {
		resp, err := transport.Do(ctx, outgoingRequest{Method: http.MethodDelete, Path: "/api/empty"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.Status)
		assert.Equal(t, map[string]any{}, resp.Body)
	})

	t.Run("malformed body becomes an error object", func(t *testing.T) {
		resp, err := transport.Do(ctx, outgoingRequest{Method: http.MethodGet, Path: "/api/broken"})
		require.NoError(t, err)
		body, ok := resp.Body.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, body, "error")
	})
}

func TestHTTPTransportBreaker(t *testing.T) {
	doer := &failingDoer{}
	breaker := NewCircuitBreaker(2, time.Minute, time.Minute)
	transport := newHTTPTransport(doer, "http://api.test", nil, breaker)
	req := outgoingRequest{Method: http.MethodGet, Path: "/posts"}

	for range 2 {
		_, err := transport.Do(context.Background(), req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBreakerOpen)
	}

	_, err := transport.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 2, doer.calls)
}

func TestHTTPTransportURL(t *testing.T) {
	transport := newHTTPTransport(nil, "http://api.test/", nil, nil)

	assert.Equal(t, "http://api.test/posts", transport.url("/posts", nil))
	assert.Equal(t, "http://api.test/posts?a=1&a=2", transport.url("posts", url.Values{"a": {"1", "2"}}))
	assert.Equal(t, "https://other.test/x?q=1&b=2", transport.url("https://other.test/x?q=1", url.Values{"b": {"2"}}))
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, map[string]any{}, decodeBody(nil))
	assert.Equal(t, map[string]any{}, decodeBody([]byte("  \n")))
	assert.Equal(t, []any{float64(1)}, decodeBody([]byte("[1]")))
	assert.Equal(t, "text", decodeBody([]byte(`"text"`)))

	bad, ok := decodeBody([]byte("<html>")).(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, bad["error"])
}

func TestEncodeQuery(t *testing.T) {
	values := encodeQuery(map[string]any{
		"page":   float64(2),
		"tags":   []any{"a", "b"},
		"ids":    []string{"1", "2"},
		"filter": map[string]any{"author": "ann"},
		"skip":   nil,
	})

	assert.Equal(t, []string{"2"}, values["page"])
	assert.Equal(t, []string{"a", "b"}, values["tags"])
	assert.Equal(t, []string{"1", "2"}, values["ids"])
	assert.NotContains(t, values, "skip")

	var filter map[string]any
	require.NoError(t, json.Unmarshal([]byte(values.Get("filter")), &filter))
	assert.Equal(t, "ann", filter["author"])
}
