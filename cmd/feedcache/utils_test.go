package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGetKeyDBURL(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("environment variable wins", func(t *testing.T) {
		t.Setenv("KEYDB_URL", "redis://env:6379")
		t.Setenv("CACHE_KEYDB_URL_FILE", filepath.Join(t.TempDir(), "missing"))

		assert.Equal(t, "redis://env:6379", GetKeyDBURL(logger))
	})

	t.Run("connection file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".keydb-url")
		require.NoError(t, os.WriteFile(path, []byte("  redis://file:6380/2\n"), 0o600))
		t.Setenv("KEYDB_URL", "")
		t.Setenv("CACHE_KEYDB_URL_FILE", path)

		assert.Equal(t, "redis://file:6380/2", GetKeyDBURL(logger))
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("KEYDB_URL", "")
		t.Setenv("CACHE_KEYDB_URL_FILE", filepath.Join(t.TempDir(), "missing"))

		assert.Equal(t, defaultKeyDBURL, GetKeyDBURL(logger))
	})
}
