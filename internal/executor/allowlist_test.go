package executor

import (
	"os"
	"path/filepath"
	"testing"

	"vizgo/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAllowList(t *testing.T) {
	al := DefaultAllowList()

	for _, m := range []string{"pandas", "numpy.linalg", "matplotlib.pyplot", "plotly.express", "altair", "plotnine"} {
		assert.True(t, al.Allowed(m), m)
	}
	for _, m := range []string{"os", "subprocess", "sys", "pandas.io.sql", "pandasx", "socket"} {
		assert.False(t, al.Allowed(m), m)
	}
	assert.Contains(t, al.Modules(), "seaborn")
}

func TestLoadAllowListFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modules:\n  - altair\n  - numpy\ndeny:\n  - numpy.ctypeslib\n"), 0o644))

	al, err := LoadAllowList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"altair", "numpy"}, al.Modules())
	assert.True(t, al.Allowed("numpy.random"))
	assert.False(t, al.Allowed("numpy.ctypeslib"))
	assert.False(t, al.Allowed("pandas"))
}

func TestLoadAllowListErrors(t *testing.T) {
	_, err := LoadAllowList(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, core.IsConfigurationError(err))

	for _, doc := range []string{"modules: [", "deny: [os]", "modules: ['bad name']"} {
		_, err := ParseAllowList([]byte(doc))
		assert.ErrorIs(t, err, core.ErrInvalidAllowList, doc)
	}

	al, err := LoadAllowList("")
	require.NoError(t, err)
	assert.True(t, al.Allowed("pandas"))
}
