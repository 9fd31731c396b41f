package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, Write(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Content(), b)
	assert.NotContains(t, string(b), "stale")
}

func TestWrite_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "www", "index.html")

	require.NoError(t, Write(path))
	assert.FileExists(t, path)
}

func TestContent_TalksToRoutes(t *testing.T) {
	html := string(Content())

	assert.Contains(t, html, "'/messages'")
	assert.Contains(t, html, "'/send'")
	assert.Contains(t, html, "application/x-www-form-urlencoded")
	assert.Contains(t, html, "create_time")
}
