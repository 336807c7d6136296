package internal

import (
	"testing"

	"github.com/lychee-technology/activestore"
	"github.com/stretchr/testify/assert"
)

func TestDefaultRoutes(t *testing.T) {
	collection := DefaultRoutes("slug", false)
	assert.Equal(t, ":prefix/:modelname", collection[activestore.ActionIndex])
	assert.Equal(t, ":prefix/:modelname", collection[activestore.ActionCreate])
	assert.Equal(t, ":prefix/:modelname/:slug", collection[activestore.ActionShow])
	assert.Equal(t, ":prefix/:modelname/:slug", collection[activestore.ActionUpdate])
	assert.Equal(t, ":prefix/:modelname/:slug", collection[activestore.ActionDestroy])

	singleton := DefaultRoutes("id", true)
	for _, name := range activestore.ActionNames {
		assert.Equal(t, ":prefix/:modelname", singleton[name], string(name))
	}
}

func TestRouteResolverResolve(t *testing.T) {
	meta := &activestore.ModelMetadata{Name: "Comment", RouteName: "comments", PrimaryKey: "id"}

	tests := []struct {
		name       string
		prefix     string
		template   string
		attributes map[string]any
		path       string
		consumed   []string
	}{
		{
			name:     "collection",
			prefix:   "/api/v1",
			template: ":prefix/:modelname",
			path:     "/api/v1/comments",
		},
		{
			name:       "member with json number key",
			prefix:     "/api/v1/",
			template:   ":prefix/:modelname/:id",
			attributes: map[string]any{"id": float64(12), "body": "hi"},
			path:       "/api/v1/comments/12",
			consumed:   []string{"id"},
		},
		{
			name:       "nested resource",
			prefix:     "/api",
			template:   ":prefix/posts/:postId/:modelname/:id",
			attributes: map[string]any{"postId": 3, "id": "a b"},
			path:       "/api/posts/3/comments/a%20b",
			consumed:   []string{"postId", "id"},
		},
		{
			name:       "missing token stays literal",
			prefix:     "/api",
			template:   ":prefix/posts/:postId/:modelname",
			attributes: map[string]any{"postId": nil},
			path:       "/api/posts/:postId/comments",
		},
		{
			name:     "absolute url prefix",
			prefix:   "https://api.example.com/v2",
			template: ":prefix/:modelname",
			path:     "https://api.example.com/v2/comments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, consumed := NewRouteResolver(tt.prefix).Resolve(tt.template, meta, tt.attributes)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.consumed, consumed)
		})
	}
}
