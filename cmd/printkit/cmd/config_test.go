package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printkit.yaml")

	out, _, err := executeCommand(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "warn_mismatch: true")

	_, _, err = executeCommand(t, "", "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCommand(t, "", "config", "init", "--force", path)
	require.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	out, _, err := executeCommand(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# environment prefix: PRINTKIT_")
	assert.Contains(t, out, "port: 8080")
	assert.Contains(t, out, "warn_mismatch: true")
	assert.Contains(t, out, "log_level: info")
}

func TestConfigShow_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nserver:\n  port: 9090\n"), 0o600))

	out, _, err := executeCommand(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# config file: "+path)
	assert.Contains(t, out, "log_level: debug")
	assert.Contains(t, out, "port: 9090")
}

func TestConfigShow_Env(t *testing.T) {
	t.Setenv("PRINTKIT_SERVER_PORT", "9999")
	t.Setenv("PRINTKIT_EAN13_WARN_MISMATCH", "false")

	out, _, err := executeCommand(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9999")
	assert.Contains(t, out, "warn_mismatch: false")
}

func TestConfigShow_Flags(t *testing.T) {
	out, _, err := executeCommand(t, "", "--log-level", "warn", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level: warn")
}
