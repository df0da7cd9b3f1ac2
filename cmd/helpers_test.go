package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	configFile       string
	accessibilityDir string
	performanceDir   string
}

// newTestEnv writes a config file whose report directories live under a temp dir.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	root := t.TempDir()
	env := testEnv{
		configFile:       filepath.Join(root, "config.yaml"),
		accessibilityDir: filepath.Join(root, "accessibility-reports"),
		performanceDir:   filepath.Join(root, "lighthouse-reports"),
	}
	yaml := fmt.Sprintf(`app:
  base_url: http://127.0.0.1:3000
logger:
  level: error
reports:
  accessibility_dir: %s
  performance_dir: %s
`, env.accessibilityDir, env.performanceDir)
	require.NoError(t, os.WriteFile(env.configFile, []byte(yaml), 0o644))
	return env
}

// execute runs a fresh command tree and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
