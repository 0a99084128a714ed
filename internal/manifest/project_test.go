package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProjectConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ailang.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: .
stdlib_path: /opt/ailang/stdlib
default_flags:
  O: "2"
  backend: llvm
`), 0644))

	cfg, err := LoadProjectConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "/opt/ailang/stdlib", cfg.StdlibPath)
	assert.Equal(t, "llvm", cfg.DefaultFlags["backend"])
}

func TestLoadProjectConfigMissingFileReturnsNotExist(t *testing.T) {
	_, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
