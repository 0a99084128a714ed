// Package collect implements the four definition-collection queries spec.md §4.2
// names: ExportedDefinitions, ExportedTypes, VisibleDefinitions, VisibleTypes. These
// are the first queries run over a parsed source file, and everything the name
// resolver (internal/resolve) does is built on top of their output.
package collect

import (
	"fmt"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/query"
)

// CstKey is the query key under which a source file's parsed Cst is installed as a
// primary input (spec.md §4.1: "the source-file contents map is an input").
type CstKey struct{ File ids.SourceFileId }

// SetCst installs file's parsed Cst as a primary input.
func SetCst(db *query.Database, file ids.SourceFileId, c *cst.Cst) {
	query.SetInput(db, CstKey{file}, c)
}

// GetCst reads a previously-installed Cst, recording it as a dependency of c.
func GetCst(c *query.Context, db *query.Database, file ids.SourceFileId) (*cst.Cst, bool) {
	return query.GetInput[*cst.Cst](c, db, CstKey{file})
}

// FileIndexKey is the query key for the path->SourceFileId table import resolution
// needs (spec.md doesn't specify how an import string maps to a file; this is the
// driver-supplied side table that makes it concrete — see DESIGN.md).
type FileIndexKey struct{}

// SetFileIndex installs the path->SourceFileId table as a primary input.
func SetFileIndex(db *query.Database, index map[string]ids.SourceFileId) {
	query.SetInput(db, FileIndexKey{}, index)
}

func getFileIndex(c *query.Context, db *query.Database) map[string]ids.SourceFileId {
	idx, _ := query.GetInput[map[string]ids.SourceFileId](c, db, FileIndexKey{})
	return idx
}

// GetFileIndex reads the path->SourceFileId table, for callers (e.g. the resolver's
// crate-qualified-path step) that need to map a crate's source-file paths to the ids
// this package's queries are keyed by.
func GetFileIndex(c *query.Context, db *query.Database) map[string]ids.SourceFileId {
	return getFileIndex(c, db)
}

// ItemTableKey is the query key for the program-wide TopLevelId->TopLevelItem index.
// Nothing in spec.md's query set stores "every item in the program" directly — each
// query is scoped to one file or one item — but the dependency graph and type checker
// both need to go from a referenced TopLevelId back to the item itself, so the driver
// assembles this table once after parsing every discovered source file.
type ItemTableKey struct{}

// SetItemTable installs the program-wide item index as a primary input.
func SetItemTable(db *query.Database, items map[ids.TopLevelId]*cst.TopLevelItem) {
	query.SetInput(db, ItemTableKey{}, items)
}

// GetItem looks up one top-level item by id, recording the table as a dependency of c.
func GetItem(c *query.Context, db *query.Database, id ids.TopLevelId) (*cst.TopLevelItem, bool) {
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](c, db, ItemTableKey{})
	item, ok := table[id]
	return item, ok
}

// ExportedDefinitions is the result of the ExportedDefinitions(file) query: every
// value-level top-level name this file defines, plus the methods declared (via trait
// impls in this file) on a type or trait defined in this same file.
type ExportedDefinitions struct {
	Names   map[string]ids.TopLevelId
	Spans   map[string]ast.Span
	Methods map[ids.TopLevelId]map[string]ids.TopLevelId
}

type exportedDefsKey struct{ File ids.SourceFileId }

// GetExportedDefinitions runs (or returns the cached result of) ExportedDefinitions(file).
func GetExportedDefinitions(c *query.Context, db *query.Database, file ids.SourceFileId) (*ExportedDefinitions, error) {
	return query.Get(c, db, exportedDefsKey{file}, func(qc *query.Context) (*ExportedDefinitions, error) {
		return computeExportedDefinitions(qc, db, file)
	})
}

func computeExportedDefinitions(qc *query.Context, db *query.Database, file ids.SourceFileId) (*ExportedDefinitions, error) {
	out := &ExportedDefinitions{
		Names:   make(map[string]ids.TopLevelId),
		Spans:   make(map[string]ast.Span),
		Methods: make(map[ids.TopLevelId]map[string]ids.TopLevelId),
	}

	c, ok := GetCst(qc, db, file)
	if !ok || c == nil {
		return out, nil
	}

	types, err := computeExportedTypes(qc, db, file)
	if err != nil {
		return nil, err
	}

	for i := range c.Items {
		item := &c.Items[i]
		switch item.Kind {
		case cst.ItemDefinition:
			if name, ok := variablePatternName(item.Context, item.Pattern); ok {
				out.Names[name] = item.Id
				out.Spans[name] = item.Span
			}
		case cst.ItemExtern:
			out.Names[item.ExternName] = item.Id
			out.Spans[item.ExternName] = item.Span
		case cst.ItemTraitImpl:
			targetName := item.Context.Path(item.ImplType).Last()
			targetId, ok := types.Names[targetName]
			if !ok {
				qc.Accumulate(diagnostics.Diagnostic{
					Severity: diagnostics.Error,
					Kind:     diagnostics.KindMethodOnUnknownType,
					Message:  fmt.Sprintf("methods may only be declared on a type defined in this file; %q is not", targetName),
					Span:     item.Span,
				})
				continue
			}
			if out.Methods[targetId] == nil {
				out.Methods[targetId] = make(map[string]ids.TopLevelId)
			}
			for _, method := range item.ImplBody {
				if name, ok := variablePatternName(method.Context, method.Pattern); ok {
					out.Methods[targetId][name] = method.Id
				}
			}
		}
	}

	return out, nil
}

func variablePatternName(c *cst.TopLevelContext, id ids.PatternId) (string, bool) {
	vp, ok := c.Pattern(id).(*cst.VariablePattern)
	if !ok {
		return "", false
	}
	return c.Name(vp.Name).Text, true
}

// ExportedTypes is the result of the ExportedTypes(file) query.
type ExportedTypes struct {
	Names map[string]ids.TopLevelId
	Spans map[string]ast.Span
}

type exportedTypesKey struct{ File ids.SourceFileId }

// GetExportedTypes runs (or returns the cached result of) ExportedTypes(file).
func GetExportedTypes(c *query.Context, db *query.Database, file ids.SourceFileId) (*ExportedTypes, error) {
	return query.Get(c, db, exportedTypesKey{file}, func(qc *query.Context) (*ExportedTypes, error) {
		return computeExportedTypes(qc, db, file)
	})
}

func computeExportedTypes(qc *query.Context, db *query.Database, file ids.SourceFileId) (*ExportedTypes, error) {
	out := &ExportedTypes{Names: make(map[string]ids.TopLevelId), Spans: make(map[string]ast.Span)}

	c, ok := GetCst(qc, db, file)
	if !ok || c == nil {
		return out, nil
	}

	for i := range c.Items {
		item := &c.Items[i]
		var name string
		switch item.Kind {
		case cst.ItemTypeDefinition:
			name = item.TypeName
		case cst.ItemTraitDefinition:
			name = item.TraitName
		case cst.ItemEffectDefinition:
			name = item.EffectName
		default:
			continue
		}
		out.Names[name] = item.Id
		out.Spans[name] = item.Span
	}

	return out, nil
}

// VisibleDefinitions is the result of the VisibleDefinitions(file) query: this file's
// own exported definitions plus, for every import, the imported file's exported
// definitions. A name exported by both produces a warning naming both locations.
type VisibleDefinitions struct {
	Names   map[string]ids.TopLevelId
	Methods map[ids.TopLevelId]map[string]ids.TopLevelId
}

type visibleDefsKey struct{ File ids.SourceFileId }

// GetVisibleDefinitions runs (or returns the cached result of) VisibleDefinitions(file).
func GetVisibleDefinitions(c *query.Context, db *query.Database, file ids.SourceFileId) (*VisibleDefinitions, error) {
	return query.Get(c, db, visibleDefsKey{file}, func(qc *query.Context) (*VisibleDefinitions, error) {
		out := &VisibleDefinitions{
			Names:   make(map[string]ids.TopLevelId),
			Methods: make(map[ids.TopLevelId]map[string]ids.TopLevelId),
		}

		own, err := GetExportedDefinitions(qc, db, file)
		if err != nil {
			return nil, err
		}
		for name, id := range own.Names {
			out.Names[name] = id
		}
		for typeId, methods := range own.Methods {
			out.Methods[typeId] = methods
		}

		c, ok := GetCst(qc, db, file)
		if !ok || c == nil {
			return out, nil
		}
		fileIndex := getFileIndex(qc, db)

		for _, imp := range c.Imports {
			importedFile, ok := fileIndex[imp.Path]
			if !ok {
				continue
			}
			imported, err := GetExportedDefinitions(qc, db, importedFile)
			if err != nil {
				return nil, err
			}
			for name, id := range imported.Names {
				if !importSelected(imp, name) {
					continue
				}
				if _, dup := out.Names[name]; dup {
					qc.Accumulate(diagnostics.Diagnostic{
						Severity: diagnostics.Warning,
						Kind:     diagnostics.KindDuplicateName,
						Message:  fmt.Sprintf("%q is defined here and also imported from %q", name, imp.Path),
						Span:     own.Spans[name],
						Related:  []ast.Span{imported.Spans[name]},
					})
					continue
				}
				out.Names[name] = id
			}
			for typeId, methods := range imported.Methods {
				if out.Methods[typeId] == nil {
					out.Methods[typeId] = make(map[string]ids.TopLevelId)
				}
				for name, id := range methods {
					out.Methods[typeId][name] = id
				}
			}
		}

		return out, nil
	})
}

func importSelected(imp cst.Import, name string) bool {
	if len(imp.Symbols) == 0 {
		return true
	}
	for _, s := range imp.Symbols {
		if s == name {
			return true
		}
	}
	return false
}

// VisibleTypes is the analogous result for types.
type VisibleTypes struct {
	Names map[string]ids.TopLevelId
}

type visibleTypesKey struct{ File ids.SourceFileId }

// GetVisibleTypes runs (or returns the cached result of) VisibleTypes(file).
func GetVisibleTypes(c *query.Context, db *query.Database, file ids.SourceFileId) (*VisibleTypes, error) {
	return query.Get(c, db, visibleTypesKey{file}, func(qc *query.Context) (*VisibleTypes, error) {
		out := &VisibleTypes{Names: make(map[string]ids.TopLevelId)}

		own, err := GetExportedTypes(qc, db, file)
		if err != nil {
			return nil, err
		}
		for name, id := range own.Names {
			out.Names[name] = id
		}

		c, ok := GetCst(qc, db, file)
		if !ok || c == nil {
			return out, nil
		}
		fileIndex := getFileIndex(qc, db)

		for _, imp := range c.Imports {
			importedFile, ok := fileIndex[imp.Path]
			if !ok {
				continue
			}
			imported, err := GetExportedTypes(qc, db, importedFile)
			if err != nil {
				return nil, err
			}
			for name, id := range imported.Names {
				if !importSelected(imp, name) {
					continue
				}
				if _, dup := out.Names[name]; dup {
					qc.Accumulate(diagnostics.Diagnostic{
						Severity: diagnostics.Warning,
						Kind:     diagnostics.KindDuplicateName,
						Message:  fmt.Sprintf("type %q is defined here and also imported from %q", name, imp.Path),
						Span:     own.Spans[name],
						Related:  []ast.Span{imported.Spans[name]},
					})
					continue
				}
				out.Names[name] = id
			}
		}

		return out, nil
	})
}
