// internal/reporting/reporter_test.go
package reporting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-e2e/internal/reporting"
)

const testToolVersion = "v1.0.0-test"

func TestNew_SARIF_Stdout(t *testing.T) {
	for _, path := range []string{"", "stdout"} {
		r, err := reporting.New("sarif", path, testToolVersion)
		require.NoError(t, err)
		assert.NotNil(t, r)
	}
}

func TestNew_SARIF_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "a11y.sarif")

	r, err := reporting.New("sarif", out, testToolVersion)
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.NoError(t, err, "output file and its directory are created eagerly")
	assert.NoError(t, r.Close())
}

func TestNew_UnsupportedFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	r, err := reporting.New("text", out, testToolVersion)
	assert.Nil(t, r)
	assert.ErrorContains(t, err, "unsupported output format: text")
	assert.NoFileExists(t, out)
}
