package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "scalpel-e2e version dev")
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Scalpel-E2E audits web pages")
	assert.Contains(t, out, "audit")
	assert.Contains(t, out, "report")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	_, err := execute(t, "report", "accessibility", "--config", "/nonexistent/scalpel-e2e.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load or validate config")
}

func TestRootCmd_FlagStateIsPerTree(t *testing.T) {
	env := newTestEnv(t)
	_, err := execute(t, "report", "performance", "--config", env.configFile, "--markdown")
	require.NoError(t, err)

	// A second tree must not inherit --markdown from the first.
	require.NoError(t, os.RemoveAll(env.performanceDir))
	_, err = execute(t, "report", "performance", "--config", env.configFile)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.performanceDir, "consolidated-report.html"))
	assert.NoFileExists(t, filepath.Join(env.performanceDir, "consolidated-report.md"))
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.EqualError(t, err, "configuration not found in command context")
}
