package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs rootCmd with args until it returns or timeout passes.
func executeCommand(timeout time.Duration, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCmd_ConfigErrors(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		_, err := executeCommand(time.Second, "backend", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load config")
	})

	t.Run("invalid endpoint from env", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "not a url")
		_, err := executeCommand(time.Second, "web", "--config", "")
		require.Error(t, err)
	})
}

func TestBackendCmd_StartsAndStops(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db", "mercari.sqlite3")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("IMAGE_DIR", filepath.Join(dir, "images"))
	t.Setenv("BACKEND_ADDR", "127.0.0.1:0")
	t.Setenv("LOG_LEVEL", "error")

	_, err := executeCommand(300*time.Millisecond, "backend", "--config", "")
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database is created")
	_, err = os.Stat(filepath.Join(dir, "images"))
	assert.NoError(t, err, "image directory is created")
}

func TestWebCmd_StartsAndStops(t *testing.T) {
	t.Setenv("WEB_ADDR", "127.0.0.1:0")
	t.Setenv("LOG_LEVEL", "error")

	_, err := executeCommand(300*time.Millisecond, "web", "--config", "")
	assert.NoError(t, err)
}
