package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lychee-technology/activestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: map[string]any{}},
		{
			name:  "scalars",
			pairs: []string{"title=Hello", "views=3", "published=true", "score=1.5"},
			want:  map[string]any{"title": "Hello", "views": int64(3), "published": true, "score": 1.5},
		},
		{name: "value with equals", pairs: []string{"expr=a=b"}, want: map[string]any{"expr": "a=b"}},
		{name: "empty value", pairs: []string{"title="}, want: map[string]any{"title": ""}},
		{name: "missing separator", pairs: []string{"title"}, wantErr: true},
		{name: "missing key", pairs: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitCode(t *testing.T) {
	reqErr := &activestore.RequestError{Request: activestore.Request{Status: activestore.CodeStatus(404)}}

	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitRequestError, exitCode(reqErr))
	assert.Equal(t, exitSysError, exitCode(errors.New("boom")))
	assert.Equal(t, exitSysError, exitCode(activestore.NewModelNotFoundError("Post")))
}

func TestWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, writeFailure(&buf, errors.New("boom")))
	assert.Empty(t, buf.String())

	reqErr := &activestore.RequestError{
		Request: activestore.Request{Status: activestore.CodeStatus(422), Body: map[string]any{"errors": map[string]any{}}},
		Errors:  activestore.Errors{"title": {"is required"}},
	}
	assert.True(t, writeFailure(&buf, reqErr))
	assert.Contains(t, buf.String(), `"status": 422`)
	assert.Contains(t, buf.String(), "is required")
}
