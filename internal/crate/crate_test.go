package crate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestDiscoverFindsLocalAndDepCrates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.an"), "main = 0")
	writeFile(t, filepath.Join(root, "src", "nested", "util.an"), "id x = x")
	writeFile(t, filepath.Join(root, "deps", "json", "src", "lib.an"), "parse s = s")

	std := t.TempDir()
	writeFile(t, filepath.Join(std, "src", "prelude.an"), "print x = x")

	g, err := Discover(root, std)
	require.NoError(t, err)

	stdId, ok := g.Lookup(StdName)
	require.True(t, ok)
	assert.Len(t, g.Crate(stdId).SourceFiles, 1)

	localId, ok := g.Lookup("local")
	require.True(t, ok)
	local := g.Crate(localId)
	assert.Len(t, local.SourceFiles, 2)
	assert.Contains(t, local.Dependencies, stdId)

	jsonId, ok := g.Lookup("json")
	require.True(t, ok)
	json := g.Crate(jsonId)
	assert.Len(t, json.SourceFiles, 1)
	assert.Contains(t, json.Dependencies, stdId)
}

func TestDiscoverWithoutStdlibPathStillRegistersStd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.an"), "main = 0")

	g, err := Discover(root, "")
	require.NoError(t, err)

	stdId, ok := g.Lookup(StdName)
	require.True(t, ok)
	assert.Empty(t, g.Crate(stdId).SourceFiles)
}

func TestAddReplacesExistingNameKeepingId(t *testing.T) {
	g := New()
	id1 := g.Add(Crate{Name: "local", SourceFiles: []string{"a.an"}})
	id2 := g.Add(Crate{Name: "local", SourceFiles: []string{"a.an", "b.an"}})
	assert.Equal(t, id1, id2)
	assert.Len(t, g.Crate(id1).SourceFiles, 2)
}
