package querydb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typeResult struct {
	Name string
	Arity int
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutThenGetRoundTripsOnMatchingHash(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("typecheck:main.foo", "hash-1", typeResult{Name: "Int -> Int", Arity: 1}, []string{"resolve:main.foo"}))

	var got typeResult
	ok, err := s.Get("typecheck:main.foo", "hash-1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, typeResult{Name: "Int -> Int", Arity: 1}, got)

	deps, err := s.Deps("typecheck:main.foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"resolve:main.foo"}, deps)
}

func TestGetMissesOnHashMismatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("typecheck:main.foo", "hash-1", typeResult{Name: "Int"}, nil))

	var got typeResult
	ok, err := s.Get("typecheck:main.foo", "hash-2", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetMissesOnUnknownKey(t *testing.T) {
	s := openTestStore(t)
	var got typeResult
	ok, err := s.Get("nope", "hash", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
