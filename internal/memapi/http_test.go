package memapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name        string
		prefix      string
		path        string
		wantRoute   string
		wantID      string
		expectError bool
	}{
		{name: "collection", prefix: "/api/v1", path: "/api/v1/posts", wantRoute: "posts"},
		{name: "collection trailing slash", prefix: "/api/v1", path: "/api/v1/posts/", wantRoute: "posts"},
		{name: "member", prefix: "/api/v1", path: "/api/v1/posts/7", wantRoute: "posts", wantID: "7"},
		{name: "empty prefix", prefix: "", path: "/posts/7", wantRoute: "posts", wantID: "7"},
		{name: "empty resource", prefix: "/api/v1", path: "/api/v1/", expectError: true},
		{name: "nested path", prefix: "/api/v1", path: "/api/v1/posts/7/comments", expectError: true},
		{name: "outside prefix", prefix: "/api/v1", path: "/other/posts", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, id, err := parsePath(tt.prefix, tt.path)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoute, route)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "7", keyString(float64(7)))
	assert.Equal(t, "1.5", keyString(1.5))
	assert.Equal(t, "abc", keyString("abc"))
	assert.Equal(t, "42", keyString(int64(42)))
}
