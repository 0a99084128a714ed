package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/query"
)

func pos(line int) ast.Pos { return ast.Pos{File: "a.an", Line: line, Column: 1} }
func spanAt(line int) ast.Span {
	p := pos(line)
	return ast.Span{Start: p, End: p}
}

func definitionItem(sf ids.SourceFileId, name string, line int) cst.TopLevelItem {
	ctx := cst.NewTopLevelContext()
	nameId := ctx.AddName(cst.Name{Text: name}, spanAt(line))
	patId := ctx.AddPattern(&cst.VariablePattern{Name: nameId}, spanAt(line))
	rhs := ctx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "0"}, spanAt(line))
	return cst.TopLevelItem{
		Id:      ids.TopLevelId{File: sf, Hash: uint64(line)},
		Kind:    cst.ItemDefinition,
		Span:    spanAt(line),
		Context: ctx,
		Pattern: patId,
		Rhs:     rhs,
	}
}

func typeDefItem(sf ids.SourceFileId, name string, line int) cst.TopLevelItem {
	return cst.TopLevelItem{
		Id:       ids.TopLevelId{File: sf, Hash: uint64(line)},
		Kind:     cst.ItemTypeDefinition,
		Span:     spanAt(line),
		Context:  cst.NewTopLevelContext(),
		TypeName: name,
	}
}

func TestExportedDefinitionsCollectsTopLevelNames(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}
	c := &cst.Cst{File: sf, Path: "a.an", Items: []cst.TopLevelItem{
		definitionItem(sf, "foo", 1),
		definitionItem(sf, "bar", 2),
	}}

	db := query.NewDatabase()
	SetCst(db, sf, c)

	defs, err := GetExportedDefinitions(nil, db, sf)
	require.NoError(t, err)
	assert.Len(t, defs.Names, 2)
	assert.Contains(t, defs.Names, "foo")
	assert.Contains(t, defs.Names, "bar")
}

func TestExportedDefinitionsAssociatesMethodsWithSameFileType(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}
	optionType := typeDefItem(sf, "Option", 1)

	methodCtx := cst.NewTopLevelContext()
	methodNameId := methodCtx.AddName(cst.Name{Text: "unwrap"}, spanAt(3))
	methodPatId := methodCtx.AddPattern(&cst.VariablePattern{Name: methodNameId}, spanAt(3))
	methodRhs := methodCtx.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "0"}, spanAt(3))
	method := cst.TopLevelItem{
		Id:      ids.TopLevelId{File: sf, Hash: 3},
		Kind:    cst.ItemDefinition,
		Span:    spanAt(3),
		Context: methodCtx,
		Pattern: methodPatId,
		Rhs:     methodRhs,
	}

	implCtx := cst.NewTopLevelContext()
	implTypePath := implCtx.AddPath(cst.Path{Components: []string{"Option"}}, spanAt(2))
	impl := cst.TopLevelItem{
		Id:       ids.TopLevelId{File: sf, Hash: 2},
		Kind:     cst.ItemTraitImpl,
		Span:     spanAt(2),
		Context:  implCtx,
		ImplType: implTypePath,
		ImplBody: []cst.TopLevelItem{method},
	}

	c := &cst.Cst{File: sf, Path: "a.an", Items: []cst.TopLevelItem{optionType, impl}}

	db := query.NewDatabase()
	SetCst(db, sf, c)

	defs, err := GetExportedDefinitions(nil, db, sf)
	require.NoError(t, err)
	require.Contains(t, defs.Methods, optionType.Id)
	assert.Contains(t, defs.Methods[optionType.Id], "unwrap")
}

func TestExportedDefinitionsRejectsMethodOnTypeNotInThisFile(t *testing.T) {
	sf := ids.SourceFileId{Crate: 0, Module: 0}

	implCtx := cst.NewTopLevelContext()
	implTypePath := implCtx.AddPath(cst.Path{Components: []string{"Elsewhere"}}, spanAt(1))
	impl := cst.TopLevelItem{
		Id:       ids.TopLevelId{File: sf, Hash: 1},
		Kind:     cst.ItemTraitImpl,
		Span:     spanAt(1),
		Context:  implCtx,
		ImplType: implTypePath,
	}

	c := &cst.Cst{File: sf, Path: "a.an", Items: []cst.TopLevelItem{impl}}

	db := query.NewDatabase()
	SetCst(db, sf, c)

	_, err := GetExportedDefinitions(nil, db, sf)
	require.NoError(t, err)

	var found bool
	for _, d := range query.AllDiagnostics(db) {
		if d.Kind == diagnostics.KindMethodOnUnknownType {
			found = true
		}
	}
	assert.True(t, found, "expected a MethodOnUnknownType diagnostic")
}

func TestVisibleDefinitionsMergesImportsAndWarnsOnDuplicate(t *testing.T) {
	libFile := ids.SourceFileId{Crate: 0, Module: 1}
	libCst := &cst.Cst{File: libFile, Path: "lib.an", Items: []cst.TopLevelItem{
		definitionItem(libFile, "helper", 1),
		definitionItem(libFile, "shared", 2),
	}}

	mainFile := ids.SourceFileId{Crate: 0, Module: 0}
	mainCst := &cst.Cst{
		File: mainFile,
		Path: "main.an",
		Imports: []cst.Import{{Path: "lib"}},
		Items: []cst.TopLevelItem{
			definitionItem(mainFile, "shared", 10),
		},
	}

	db := query.NewDatabase()
	SetCst(db, libFile, libCst)
	SetCst(db, mainFile, mainCst)
	SetFileIndex(db, map[string]ids.SourceFileId{"lib": libFile})

	visible, err := GetVisibleDefinitions(nil, db, mainFile)
	require.NoError(t, err)
	assert.Contains(t, visible.Names, "helper")
	assert.Contains(t, visible.Names, "shared")

	var found bool
	for _, d := range query.AllDiagnostics(db) {
		if d.Kind == diagnostics.KindDuplicateName && d.Severity == diagnostics.Warning {
			found = true
			assert.Len(t, d.Related, 1)
		}
	}
	assert.True(t, found, "expected a duplicate-name warning")
}
