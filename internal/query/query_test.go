package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/diagnostics"
)

type sourceKey struct{ file string }
type lineCountKey struct{ file string }
type totalKey struct{}

func TestGetCachesAndRecomputesOnInputChange(t *testing.T) {
	db := NewDatabase()
	SetInput(db, sourceKey{"a.an"}, "one\ntwo\n")

	runs := 0
	compute := func(c *Context) (int, error) {
		runs++
		text, _ := GetInput[string](c, db, sourceKey{"a.an"})
		n := 0
		for _, r := range text {
			if r == '\n' {
				n++
			}
		}
		return n, nil
	}

	n, err := Get(nil, db, lineCountKey{"a.an"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, runs)

	// Re-reading without any input change must not re-invoke compute.
	n2, err := Get(nil, db, lineCountKey{"a.an"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, n2)
	assert.Equal(t, 1, runs)

	// Changing the input invalidates the dependent query.
	SetInput(db, sourceKey{"a.an"}, "one\ntwo\nthree\n")
	n3, err := Get(nil, db, lineCountKey{"a.an"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 3, n3)
	assert.Equal(t, 2, runs)
}

func TestEarlyCutoffSkipsDownstreamRecompute(t *testing.T) {
	db := NewDatabase()
	SetInput(db, sourceKey{"a.an"}, "hello")

	lineRuns, totalRuns := 0, 0
	lineCount := func(c *Context) (int, error) {
		lineRuns++
		text, _ := GetInput[string](c, db, sourceKey{"a.an"})
		return len(text), nil
	}
	total := func(c *Context) (int, error) {
		totalRuns++
		n, _ := Get(c, db, lineCountKey{"a.an"}, lineCount)
		return n * 2, nil
	}

	v, err := Get(nil, db, totalKey{}, total)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, lineRuns)
	assert.Equal(t, 1, totalRuns)

	// Touching the input with a same-length replacement changes nothing lineCount
	// depends on except byte content, so lineCount recomputes (same length, so same
	// value) but total must NOT recompute since lineCount's value didn't change.
	SetInput(db, sourceKey{"a.an"}, "HELLO")
	v2, err := Get(nil, db, totalKey{}, total)
	require.NoError(t, err)
	assert.Equal(t, 10, v2)
	assert.Equal(t, 2, lineRuns)
	assert.Equal(t, 1, totalRuns, "total must not re-run when its dependency's value is unchanged (early cutoff)")
}

func TestAllDiagnosticsGathersAcrossQueries(t *testing.T) {
	db := NewDatabase()
	_, err := Get(nil, db, lineCountKey{"a.an"}, func(c *Context) (int, error) {
		pos := ast.Pos{File: "a.an", Line: 1, Column: 1}
		c.Accumulate(diagnostics.Diagnostic{
			Severity: diagnostics.Error,
			Kind:     diagnostics.KindNameNotInScope,
			Message:  "boom",
			Span:     ast.Span{Start: pos, End: pos},
		})
		return 0, nil
	})
	require.NoError(t, err)
	assert.Len(t, AllDiagnostics(db), 1)
}

func TestRunParallelPropagatesFirstError(t *testing.T) {
	err := RunParallel(
		func() error { return nil },
		func() error { return assert.AnError },
	)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMapParallelPreservesOrder(t *testing.T) {
	out, err := MapParallel([]int{1, 2, 3, 4}, func(n int) (int, error) { return n * n, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16}, out)
}
