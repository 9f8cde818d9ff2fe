package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig points the CLI at an isolated data directory so commands
// never touch the real home directory.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "toolgate.json")
	content := `{
		"data_dir": "` + dir + `",
		"catalog": {"provider": "memory"},
		"logging": {"level": "error", "console": false}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := GetRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "toolgate", GetRootCmd().Use)
}

func TestVersionFlag(t *testing.T) {
	out, err := runCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "toolgate version 0.1.0")
}

func TestStatusWhenStopped(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Status: stopped")
}

func TestToolsCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "tools", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "search_articles")
	assert.Contains(t, out, "content_statistics")
	assert.Contains(t, out, "/api/inventory/search-articles")
	assert.Contains(t, out, "/api/analytics/content-statistics")
}

func TestReindexCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "reindex", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog rebuilt: 9 descriptors")
}

func TestStopWithoutDaemon(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCommand(t, "stop", "--config", cfgPath)
	assert.Error(t, err)
}
