package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "id": {"type": "string"},
    "title": {"type": "string"}
  }
}`

const settingsSchema = `{
  "type": "object",
  "properties": {
    "theme": {"type": "string", "default": "light"}
  },
  "x-activestore": {"model": "SiteSettings", "singleton": true}
}`

func TestBuildResources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Post.json"), []byte(postSchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settingsSchema), 0o644))

	resources, err := buildResources(dir, []string{"Post"})
	require.NoError(t, err)
	require.Len(t, resources, 2)

	post := resources[0]
	assert.Equal(t, "posts", post.Route)
	assert.Equal(t, "id", post.PrimaryKey)
	assert.False(t, post.Singleton)
	assert.Equal(t, []string{"title"}, post.Required)
	assert.True(t, post.UUIDKeys)

	settings := resources[1]
	assert.Equal(t, "site_settings", settings.Route)
	assert.True(t, settings.Singleton)
	assert.False(t, settings.UUIDKeys)
}

func TestBuildResourcesEmptyDir(t *testing.T) {
	_, err := buildResources(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("ACTIVESTORE_SERVER_PORT", "9090")
	t.Setenv("ACTIVESTORE_SERVER_SCHEMA_DIR", "/etc/models")

	cfg, err := loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/etc/models", cfg.SchemaDir)
	assert.Equal(t, "/api/v1", cfg.Prefix)
}
