package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdsAreCheapValueTypes(t *testing.T) {
	a := TopLevelName{Item: TopLevelId{File: SourceFileId{Crate: 0, Module: 1}, Hash: 42}, Name: NameId(3)}
	b := a
	assert.Equal(t, a, b, "TopLevelName must be comparable by value for use as a map key")

	m := map[TopLevelName]int{a: 1}
	m[b] = 2
	assert.Len(t, m, 1, "equal TopLevelName values must collide as one map key")
}

func TestFunctionIdString(t *testing.T) {
	fid := FunctionId{TopLevel: TopLevelId{File: SourceFileId{Crate: 0, Module: 0}, Hash: 7}, Index: 1}
	assert.Contains(t, fid.String(), "#1")
}
