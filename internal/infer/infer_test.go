package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/extended"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
	"github.com/sunholo/ailang/internal/query"
)

func spanAt(line int) ast.Span {
	p := ast.Pos{File: "a.an", Line: line, Column: 1}
	return ast.Span{Start: p, End: p}
}

// setupProgram installs every item under one source file, wiring both the per-file Cst
// (for VisibleDefinitions/VisibleTypes) and the program-wide item table GetType needs
// to walk every reference it finds.
func setupProgram(t *testing.T, items ...cst.TopLevelItem) (*query.Database, map[string]ids.TopLevelId) {
	t.Helper()
	sf := ids.SourceFileId{Crate: 0, Module: 0}
	c := &cst.Cst{File: sf, Path: "a.an", Items: items}

	db := query.NewDatabase()
	collect.SetCst(db, sf, c)
	collect.SetFileIndex(db, map[string]ids.SourceFileId{})

	table := make(map[ids.TopLevelId]*cst.TopLevelItem, len(items))
	byName := make(map[string]ids.TopLevelId, len(items))
	for i := range c.Items {
		item := &c.Items[i]
		table[item.Id] = item
		if item.Kind == cst.ItemDefinition {
			if vp, ok := item.Context.Pattern(item.Pattern).(*cst.VariablePattern); ok {
				byName[item.Context.Name(vp.Name).Text] = item.Id
			}
		}
		if item.Kind == cst.ItemTypeDefinition {
			byName[item.TypeName] = item.Id
		}
	}
	collect.SetItemTable(db, table)
	return db, byName
}

func definition(sf ids.SourceFileId, hash uint64, name string, build func(ctx *cst.TopLevelContext) ids.ExprId) cst.TopLevelItem {
	ctx := cst.NewTopLevelContext()
	rhs := build(ctx)
	nameId := ctx.AddName(cst.Name{Text: name}, spanAt(1))
	pat := ctx.AddPattern(&cst.VariablePattern{Name: nameId}, spanAt(1))
	return cst.TopLevelItem{
		Id: ids.TopLevelId{File: sf, Hash: hash}, Kind: cst.ItemDefinition,
		Span: spanAt(1), Context: ctx, Pattern: pat, Rhs: rhs,
	}
}

func TestGetTypeLiteralIsI32(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}
	item := definition(sf, 1, "answer", func(ctx *cst.TopLevelContext) ids.ExprId {
		return ctx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "42"}, spanAt(1))
	})
	db, names := setupProgram(t, item)

	g, ok, err := GetType(nil, db, names["answer"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, g.Generics)
	assert.Equal(t, "I32", g.Typ.String())
}

func TestGetTypeIdentityLambdaGeneralizes(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}
	item := definition(sf, 1, "id", func(ctx *cst.TopLevelContext) ids.ExprId {
		pName := ctx.AddName(cst.Name{Text: "x"}, spanAt(1))
		pPat := ctx.AddPattern(&cst.VariablePattern{Name: pName}, spanAt(1))
		xPath := ctx.AddPath(cst.Path{Components: []string{"x"}}, spanAt(1))
		body := ctx.AddExpr(&cst.VariableExpr{Path: xPath}, spanAt(1))
		return ctx.AddExpr(&cst.LambdaExpr{Params: []ids.PatternId{pPat}, Body: body}, spanAt(1))
	})
	db, names := setupProgram(t, item)

	g, ok, err := GetType(nil, db, names["id"])
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, g.Generics, "identity should generalize at least its value parameter")

	fn, ok := g.Typ.(*itypes.Function)
	require.True(t, ok, "identity should generalize to a function type, got %s", g.Typ)
	require.Len(t, fn.Parameters, 1)
	paramRef, ok := fn.Parameters[0].Typ.(*itypes.GenericRef)
	require.True(t, ok)
	retRef, ok := fn.Return.(*itypes.GenericRef)
	require.True(t, ok)
	assert.Equal(t, paramRef.Generic.Name, retRef.Generic.Name, "parameter and return share one generalized generic")
}

func TestGetTypeMutualRecursionSharesOneFunctionShape(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}

	isEven := definition(sf, 1, "isEven", func(ctx *cst.TopLevelContext) ids.ExprId {
		pName := ctx.AddName(cst.Name{Text: "n"}, spanAt(1))
		pPat := ctx.AddPattern(&cst.VariablePattern{Name: pName}, spanAt(1))
		calleePath := ctx.AddPath(cst.Path{Components: []string{"isOdd"}}, spanAt(1))
		callee := ctx.AddExpr(&cst.VariableExpr{Path: calleePath}, spanAt(1))
		argPath := ctx.AddPath(cst.Path{Components: []string{"n"}}, spanAt(1))
		arg := ctx.AddExpr(&cst.VariableExpr{Path: argPath}, spanAt(1))
		call := ctx.AddExpr(&cst.CallExpr{Callee: callee, Args: []ids.ExprId{arg}}, spanAt(1))
		return ctx.AddExpr(&cst.LambdaExpr{Params: []ids.PatternId{pPat}, Body: call}, spanAt(1))
	})
	isOdd := definition(sf, 2, "isOdd", func(ctx *cst.TopLevelContext) ids.ExprId {
		pName := ctx.AddName(cst.Name{Text: "n"}, spanAt(2))
		pPat := ctx.AddPattern(&cst.VariablePattern{Name: pName}, spanAt(2))
		calleePath := ctx.AddPath(cst.Path{Components: []string{"isEven"}}, spanAt(2))
		callee := ctx.AddExpr(&cst.VariableExpr{Path: calleePath}, spanAt(2))
		argPath := ctx.AddPath(cst.Path{Components: []string{"n"}}, spanAt(2))
		arg := ctx.AddExpr(&cst.VariableExpr{Path: argPath}, spanAt(2))
		call := ctx.AddExpr(&cst.CallExpr{Callee: callee, Args: []ids.ExprId{arg}}, spanAt(2))
		return ctx.AddExpr(&cst.LambdaExpr{Params: []ids.PatternId{pPat}, Body: call}, spanAt(2))
	})

	db, names := setupProgram(t, isEven, isOdd)

	gEven, ok, err := GetType(nil, db, names["isEven"])
	require.NoError(t, err)
	require.True(t, ok)
	gOdd, ok, err := GetType(nil, db, names["isOdd"])
	require.NoError(t, err)
	require.True(t, ok)

	fnEven, ok := gEven.Typ.(*itypes.Function)
	require.True(t, ok)
	fnOdd, ok := gOdd.Typ.(*itypes.Function)
	require.True(t, ok)
	assert.Equal(t, fnEven.Parameters[0].Typ.String(), fnEven.Return.String())
	assert.Equal(t, fnOdd.Parameters[0].Typ.String(), fnOdd.Return.String())

	for _, d := range query.AllDiagnostics(db) {
		assert.NotEqual(t, diagnostics.Error, d.Severity, "unexpected diagnostic: %s", d.Message)
	}
}

func TestGetTypeArgCountMismatchEmitsDiagnostic(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}

	f := definition(sf, 1, "f", func(ctx *cst.TopLevelContext) ids.ExprId {
		pName := ctx.AddName(cst.Name{Text: "x"}, spanAt(1))
		pPat := ctx.AddPattern(&cst.VariablePattern{Name: pName}, spanAt(1))
		xPath := ctx.AddPath(cst.Path{Components: []string{"x"}}, spanAt(1))
		body := ctx.AddExpr(&cst.VariableExpr{Path: xPath}, spanAt(1))
		return ctx.AddExpr(&cst.LambdaExpr{Params: []ids.PatternId{pPat}, Body: body}, spanAt(1))
	})
	main := definition(sf, 2, "main", func(ctx *cst.TopLevelContext) ids.ExprId {
		calleePath := ctx.AddPath(cst.Path{Components: []string{"f"}}, spanAt(2))
		callee := ctx.AddExpr(&cst.VariableExpr{Path: calleePath}, spanAt(2))
		a1 := ctx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "1"}, spanAt(2))
		a2 := ctx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "2"}, spanAt(2))
		return ctx.AddExpr(&cst.CallExpr{Callee: callee, Args: []ids.ExprId{a1, a2}}, spanAt(2))
	})

	db, names := setupProgram(t, f, main)

	_, _, err := GetType(nil, db, names["f"])
	require.NoError(t, err)
	_, _, err = GetType(nil, db, names["main"])
	require.NoError(t, err)

	var found bool
	for _, d := range query.AllDiagnostics(db) {
		if d.Kind == diagnostics.KindFunctionArgCountMismatch {
			found = true
		}
	}
	assert.True(t, found, "expected a FunctionArgCountMismatch diagnostic")
}

func TestGetTypeConstructorCallInfersVariantType(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}

	typeCtx := cst.NewTopLevelContext()
	fieldA := typeCtx.AddPath(cst.Path{Components: []string{"a"}}, spanAt(1))
	optionItem := cst.TopLevelItem{
		Id:       ids.TopLevelId{File: sf, Hash: 1},
		Kind:     cst.ItemTypeDefinition,
		Span:     spanAt(1),
		Context:  typeCtx,
		TypeName: "Option",
		Generics: []string{"a"},
		Variants: []cst.TypeVariant{
			{Name: "None"},
			{Name: "Some", Fields: []ids.PathId{fieldA}},
		},
	}

	mk := definition(sf, 2, "mk", func(ctx *cst.TopLevelContext) ids.ExprId {
		calleePath := ctx.AddPath(cst.Path{Components: []string{"Some"}}, spanAt(2))
		callee := ctx.AddExpr(&cst.VariableExpr{Path: calleePath}, spanAt(2))
		arg := ctx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "1"}, spanAt(2))
		return ctx.AddExpr(&cst.CallExpr{Callee: callee, Args: []ids.ExprId{arg}}, spanAt(2))
	})

	db, names := setupProgram(t, optionItem, mk)

	g, ok, err := GetType(nil, db, names["mk"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, g.Generics)

	app, ok := g.Typ.(*itypes.Application)
	require.True(t, ok, "expected an applied Option type, got %s", g.Typ)
	ud, ok := app.Constructor.(*itypes.UserDefined)
	require.True(t, ok)
	assert.Equal(t, "Option", ud.Name)
	require.Len(t, app.Arguments, 1)
	assert.Equal(t, "I32", app.Arguments[0].String())

	for _, d := range query.AllDiagnostics(db) {
		assert.NotEqual(t, diagnostics.Error, d.Severity, "unexpected diagnostic: %s", d.Message)
	}
}

// TestTypeCheckSCCLowersExhaustiveMatchToSwitch exercises spec.md §4.7 end to end:
// `unwrap o = match o | None -> 0 | Some x -> x` over a fully-applied Option should
// compile to a Switch with no Failure default and no diagnostic, matching §8 S4.
func TestTypeCheckSCCLowersExhaustiveMatchToSwitch(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}

	typeCtx := cst.NewTopLevelContext()
	fieldA := typeCtx.AddPath(cst.Path{Components: []string{"a"}}, spanAt(1))
	optionItem := cst.TopLevelItem{
		Id: ids.TopLevelId{File: sf, Hash: 1}, Kind: cst.ItemTypeDefinition,
		Span: spanAt(1), Context: typeCtx, TypeName: "Option", Generics: []string{"a"},
		Variants: []cst.TypeVariant{{Name: "None"}, {Name: "Some", Fields: []ids.PathId{fieldA}}},
	}

	var matchId ids.ExprId
	unwrap := definition(sf, 2, "unwrap", func(ctx *cst.TopLevelContext) ids.ExprId {
		oName := ctx.AddName(cst.Name{Text: "o"}, spanAt(2))
		oPat := ctx.AddPattern(&cst.VariablePattern{Name: oName}, spanAt(2))
		oPath := ctx.AddPath(cst.Path{Components: []string{"o"}}, spanAt(2))
		scrutinee := ctx.AddExpr(&cst.VariableExpr{Path: oPath}, spanAt(2))

		nonePath := ctx.AddPath(cst.Path{Components: []string{"None"}}, spanAt(2))
		nonePat := ctx.AddPattern(&cst.ConstructorPattern{Path: nonePath}, spanAt(2))
		noneBody := ctx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "0"}, spanAt(2))

		somePath := ctx.AddPath(cst.Path{Components: []string{"Some"}}, spanAt(2))
		xName := ctx.AddName(cst.Name{Text: "x"}, spanAt(2))
		xPat := ctx.AddPattern(&cst.VariablePattern{Name: xName}, spanAt(2))
		somePat := ctx.AddPattern(&cst.ConstructorPattern{Path: somePath, Args: []ids.PatternId{xPat}}, spanAt(2))
		xPath := ctx.AddPath(cst.Path{Components: []string{"x"}}, spanAt(2))
		someBody := ctx.AddExpr(&cst.VariableExpr{Path: xPath}, spanAt(2))

		match := ctx.AddExpr(&cst.MatchExpr{Scrutinee: scrutinee, Arms: []cst.MatchArm{
			{Pattern: nonePat, Body: noneBody},
			{Pattern: somePat, Body: someBody},
		}}, spanAt(2))
		matchId = match

		lam := ctx.AddExpr(&cst.LambdaExpr{Params: []ids.PatternId{oPat}, Body: match}, spanAt(2))
		return lam
	})

	db, names := setupProgram(t, optionItem, unwrap)

	res, err := TypeCheckSCC(nil, db, []ids.TopLevelId{names["unwrap"]}, nil)
	require.NoError(t, err)

	ext, ok := res.Extended[names["unwrap"]]
	require.True(t, ok)
	lowering, ok := ext.MatchLoweringFor(matchId)
	require.True(t, ok, "expected a recorded MatchLowering for the match expression")

	sw, ok := lowering.Tree.(*extended.Switch)
	require.True(t, ok, "expected a Switch tree for a two-constructor match, got %T", lowering.Tree)
	assert.Len(t, sw.Cases, 2)
	assert.Nil(t, sw.Default, "Option's match is exhaustive, expected no default")
}
