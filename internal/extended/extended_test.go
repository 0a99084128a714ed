package extended

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/resolve"
)

func spanAt(line int) ast.Span {
	p := ast.Pos{File: "a.an", Line: line, Column: 1}
	return ast.Span{Start: p, End: p}
}

func TestSyntheticExprIdsContinueBaseNamespace(t *testing.T) {
	base := cst.NewTopLevelContext()
	base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "1"}, spanAt(1))
	base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "2"}, spanAt(1))

	ext := New(base)
	fresh := ext.AddExpr(&cst.LiteralExpr{Kind: cst.UnitLit}, spanAt(1))
	assert.Equal(t, ids.ExprId(2), fresh, "synthetic ids start above every original id")

	second := ext.AddExpr(&cst.LiteralExpr{Kind: cst.UnitLit}, spanAt(1))
	assert.Equal(t, ids.ExprId(3), second)
}

func TestAccessorsFallBackToBase(t *testing.T) {
	base := cst.NewTopLevelContext()
	origExpr := base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "7"}, spanAt(5))

	ext := New(base)
	lit, ok := ext.Expr(origExpr).(*cst.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "7", lit.Raw)
	assert.Equal(t, spanAt(5), ext.ExprSpan(origExpr))

	synth := ext.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "99"}, spanAt(6))
	lit2, ok := ext.Expr(synth).(*cst.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "99", lit2.Raw)
	assert.Equal(t, spanAt(6), ext.ExprSpan(synth))
}

func TestAddScrutineePathMintsFreshPathAboveBase(t *testing.T) {
	base := cst.NewTopLevelContext()
	base.AddPath(cst.Path{Components: []string{"x"}}, spanAt(1))

	ext := New(base)
	scrutinee := ext.AddScrutineePath("$match0", spanAt(2))
	assert.Equal(t, ids.PathId(1), scrutinee)
	assert.Equal(t, "$match0", ext.Path(scrutinee).Last())
}

func TestResolvedOriginRoundTrips(t *testing.T) {
	base := cst.NewTopLevelContext()
	p := base.AddPath(cst.Path{Components: []string{"Some"}}, spanAt(1))

	ext := New(base)
	_, ok := ext.ResolvedOrigin(p)
	assert.False(t, ok, "nothing recorded yet")

	origin := resolve.Origin{Kind: resolve.OriginTopLevelDefinition}
	ext.RecordResolvedOrigin(p, origin)

	got, ok := ext.ResolvedOrigin(p)
	require.True(t, ok)
	assert.Equal(t, origin, got)
}

func TestMatchLoweringRoundTrips(t *testing.T) {
	base := cst.NewTopLevelContext()
	matchExpr := base.AddExpr(&cst.MatchExpr{}, spanAt(1))

	ext := New(base)
	_, ok := ext.MatchLoweringFor(matchExpr)
	assert.False(t, ok)

	noneArm := ext.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "0"}, spanAt(2))
	someArm := ext.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "1"}, spanAt(3))
	scrutinee := ext.AddScrutineePath("$match0", spanAt(1))
	someArg := ext.AddScrutineePath("$match0.0", spanAt(3))

	tree := &Switch{
		Scrutinee: scrutinee,
		Cases: []Case{
			{Constructor: "None", Body: &Success{Body: noneArm}},
			{Constructor: "Some", Arguments: []ids.PathId{someArg}, Body: &Success{Body: someArm}},
		},
	}
	ext.SetMatchLowering(matchExpr, &MatchLowering{ScrutineePath: scrutinee, Tree: tree})

	got, ok := ext.MatchLoweringFor(matchExpr)
	require.True(t, ok)
	sw, ok := got.Tree.(*Switch)
	require.True(t, ok)
	assert.Len(t, sw.Cases, 2)
	assert.Equal(t, "Some", sw.Cases[1].Constructor)
}

func TestFailureAndGuardVariantsSatisfyDecisionTree(t *testing.T) {
	var _ DecisionTree = (*Failure)(nil)
	var _ DecisionTree = (*Guard)(nil)
	var _ DecisionTree = (*Success)(nil)
	var _ DecisionTree = (*Switch)(nil)
}
