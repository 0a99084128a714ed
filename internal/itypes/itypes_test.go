package itypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/ailang/internal/ids"
)

func TestTypeContextInternsStructurallyEqualTypesToSameId(t *testing.T) {
	c := NewTypeContext()
	a := c.Intern(&Primitive{Kind: PrimI32})
	b := c.Intern(&Primitive{Kind: PrimI32})
	assert.Equal(t, a, b)
	assert.Equal(t, 1, c.Len())

	other := c.Intern(&Primitive{Kind: PrimBool})
	assert.NotEqual(t, a, other)
	assert.Equal(t, 2, c.Len())
}

func TestTypeContextResolveRoundTrips(t *testing.T) {
	c := NewTypeContext()
	id := c.Intern(&Primitive{Kind: PrimString})
	resolved, ok := c.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, "String", resolved.String())
}

func TestUnifyPrimitivesSucceedsOnMatch(t *testing.T) {
	b := NewTypeBindings()
	err := Unify(b, &Primitive{Kind: PrimI32}, &Primitive{Kind: PrimI32})
	assert.NoError(t, err)
}

func TestUnifyPrimitivesFailsOnMismatch(t *testing.T) {
	b := NewTypeBindings()
	err := Unify(b, &Primitive{Kind: PrimI32}, &Primitive{Kind: PrimBool})
	require.Error(t, err)
	var mismatch *ErrMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestUnifyVariableBindsThenResolves(t *testing.T) {
	b := NewTypeBindings()
	v := b.Fresh()
	err := Unify(b, &Variable{Id: v}, &Primitive{Kind: PrimBool})
	require.NoError(t, err)

	resolved := b.Resolve(&Variable{Id: v})
	assert.Equal(t, "Bool", resolved.String())
}

func TestUnifyOccursCheckRejectsSelfReferentialType(t *testing.T) {
	b := NewTypeBindings()
	v := b.Fresh()
	fn := &Function{
		Parameters: []ParameterType{{Typ: &Variable{Id: v}}},
		Return:     &Primitive{Kind: PrimUnit},
	}
	err := Unify(b, &Variable{Id: v}, fn)
	require.Error(t, err)
	var occ *ErrOccursCheck
	assert.ErrorAs(t, err, &occ)
}

func TestUnifyFunctionsRecurseOnParametersAndReturn(t *testing.T) {
	b := NewTypeBindings()
	v1, v2 := b.Fresh(), b.Fresh()
	a := &Function{
		Parameters: []ParameterType{{Typ: &Variable{Id: v1}}},
		Return:     &Variable{Id: v2},
	}
	concrete := &Function{
		Parameters: []ParameterType{{Typ: &Primitive{Kind: PrimI32}}},
		Return:     &Primitive{Kind: PrimBool},
	}
	require.NoError(t, Unify(b, a, concrete))
	assert.Equal(t, "I32", b.Resolve(&Variable{Id: v1}).String())
	assert.Equal(t, "Bool", b.Resolve(&Variable{Id: v2}).String())
}

func TestGeneralizeThenInstantiateProducesFreshVariables(t *testing.T) {
	b := NewTypeBindings()
	v := b.Fresh()
	idFn := &Function{
		Parameters: []ParameterType{{Typ: &Variable{Id: v}}},
		Return:     &Variable{Id: v},
	}

	gt := Generalize(b, idFn)
	require.Len(t, gt.Generics, 1)

	inst1 := Instantiate(b, gt)
	inst2 := Instantiate(b, gt)

	f1, ok := inst1.(*Function)
	require.True(t, ok)
	f2, ok := inst2.(*Function)
	require.True(t, ok)

	v1, ok := f1.Parameters[0].Typ.(*Variable)
	require.True(t, ok)
	v2, ok := f2.Parameters[0].Typ.(*Variable)
	require.True(t, ok)
	assert.NotEqual(t, v1.Id, v2.Id, "each instantiation must allocate fresh variables")

	retV1, ok := f1.Return.(*Variable)
	require.True(t, ok)
	assert.Equal(t, v1.Id, retV1.Id, "parameter and return share one generic within an instantiation")
}

func TestFreeVariablesSkipsAlreadyBoundVariables(t *testing.T) {
	b := NewTypeBindings()
	bound, free := b.Fresh(), b.Fresh()
	b.Bind(bound, &Primitive{Kind: PrimI32})

	fn := &Function{
		Parameters: []ParameterType{{Typ: &Variable{Id: bound}}},
		Return:     &Variable{Id: free},
	}
	fvs := FreeVariables(b, fn)
	assert.Equal(t, []ids.TypeVariableId{free}, fvs)
}
