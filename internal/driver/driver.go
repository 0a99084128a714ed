// Package driver wires the query engine, definition collector, name resolver, type
// checker, and MIR builder into the one compilation round the CLI (cmd/ailang) drives.
// Building the CST from source text is explicitly out of scope for the core passes
// (spec.md §1), so this package owns that external seam (internal/cst.FromFile) the
// same way internal/crate owns crate-graph discovery — both are ambient collaborators
// layered on top of the core, not part of it.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/crate"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/infer"
	"github.com/sunholo/ailang/internal/itypes"
	"github.com/sunholo/ailang/internal/lexer"
	"github.com/sunholo/ailang/internal/mir"
	"github.com/sunholo/ailang/internal/parser"
	"github.com/sunholo/ailang/internal/query"
	"github.com/sunholo/ailang/internal/resolve"
)

// Unit is one compilation round's output: the populated query database (still queryable
// after Compile returns, so a caller like the `inspect` REPL can poke at it further),
// every top-level item's generalized type, every lowered Function, and the final
// deduplicated, sorted diagnostic list.
type Unit struct {
	DB          *query.Database
	Files       map[string]ids.SourceFileId
	Items       map[ids.TopLevelId]*cst.TopLevelItem
	ItemOrder   []ids.TopLevelId
	Types       map[ids.TopLevelId]itypes.GeneralizedType
	Functions   map[ids.FunctionId]*mir.Function
	Diagnostics []diagnostics.Diagnostic
}

// HasErrors reports whether any diagnostic in the unit is severity Error, the signal
// the CLI uses to choose its exit code (spec.md §6: "non-zero if any error diagnostic
// was emitted").
func (u *Unit) HasErrors() bool {
	for _, d := range u.Diagnostics {
		if d.Severity == diagnostics.Error {
			return true
		}
	}
	return false
}

// CompileFile parses a single source file, type-checks every top-level item it
// contains, and lowers each to MIR. It is the `local`-crate-only path the CLI's
// default (non-multi-crate) invocation uses. stdlibPath, resolved by the CLI from
// ailang.yaml/AILANG_STDLIB/the convention cmd/ailang.resolveStdlibPath implements,
// seeds the Std crate so Std::-qualified paths have something to resolve against; an
// empty stdlibPath still leaves Std present in the graph with no source files. root,
// if non-empty, overrides the directory the local crate's `src/**/*.an` and `deps/*`
// are discovered under (an ailang.yaml `root:` override); empty defaults to path's
// own directory.
func CompileFile(path, stdlibPath, root string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: reading %s: %w", path, err)
	}

	sf := ids.SourceFileId{Crate: 0, Module: 0}
	c, err := parseSource(string(content), path, sf)
	if err != nil {
		return nil, err
	}

	db := query.NewDatabase()
	collect.SetCst(db, sf, c)
	files := map[string]ids.SourceFileId{path: sf}
	collect.SetFileIndex(db, files)

	if root == "" {
		root = filepath.Dir(path)
	}
	graph, err := crate.Discover(root, stdlibPath)
	if err != nil {
		return nil, fmt.Errorf("driver: building crate graph for %s: %w", path, err)
	}
	resolve.SetCrateGraph(db, graph)

	items := make(map[ids.TopLevelId]*cst.TopLevelItem, len(c.Items))
	order := make([]ids.TopLevelId, 0, len(c.Items))
	for i := range c.Items {
		it := &c.Items[i]
		items[it.Id] = it
		order = append(order, it.Id)
	}
	collect.SetItemTable(db, items)

	return checkAndLower(db, files, items, order)
}

// parseSource runs the teacher's lexer+parser (the external collaborator spec.md §1
// assumes already exists) and adapts its output into this module's arena-indexed CST.
func parseSource(content, path string, sf ids.SourceFileId) (*cst.Cst, error) {
	l := lexer.New(content, path)
	p := parser.New(l)
	file := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("driver: parse errors in %s: %v", path, msgs)
	}
	return cst.FromFile(file, sf)
}

// checkAndLower runs type inference and MIR lowering over every item in the
// already-populated database, in item order, then collects and normalizes
// diagnostics. Shared by CompileFile and (future) multi-crate compilation.
func checkAndLower(db *query.Database, files map[string]ids.SourceFileId, items map[ids.TopLevelId]*cst.TopLevelItem, order []ids.TopLevelId) (*Unit, error) {
	u := &Unit{
		DB:        db,
		Files:     files,
		Items:     items,
		ItemOrder: order,
		Types:     make(map[ids.TopLevelId]itypes.GeneralizedType),
		Functions: make(map[ids.FunctionId]*mir.Function),
	}

	results := make(map[ids.TopLevelId]*infer.Result, len(order))
	for _, id := range order {
		res, err := infer.GetSCCResult(nil, db, id)
		if err != nil {
			return u, err
		}
		if res == nil {
			continue
		}
		results[id] = res
		if g, ok := res.ItemTypes[id]; ok {
			u.Types[id] = g
		}
	}

	funcs, err := mir.BuildAll(nil, db, order, results)
	if err != nil {
		u.Diagnostics = finalizeDiagnostics(db)
		return u, err
	}
	u.Functions = funcs
	u.Diagnostics = finalizeDiagnostics(db)
	return u, nil
}

func finalizeDiagnostics(db *query.Database) []diagnostics.Diagnostic {
	diags := query.AllDiagnostics(db)
	diagnostics.Sort(diags)
	return diagnostics.Dedup(diags)
}

// ItemName returns a human-readable name for id, falling back to its string form for
// items with no name-bearing pattern (e.g. trait impls) — used by CLI `--show-*` dumps.
func ItemName(ctx *cst.TopLevelContext, item *cst.TopLevelItem) string {
	switch item.Kind {
	case cst.ItemTypeDefinition:
		return item.TypeName
	case cst.ItemTraitDefinition:
		return item.TraitName
	case cst.ItemExtern:
		return item.ExternName
	default:
		if p, ok := ctx.Pattern(item.Pattern).(*cst.VariablePattern); ok {
			return ctx.Name(p.Name).Text
		}
		return item.Id.String()
	}
}

// SortedItemIds returns ids sorted by their source span, giving `--show-*` dumps and
// diagnostic listings a stable, source-order presentation instead of hash order.
func SortedItemIds(items map[ids.TopLevelId]*cst.TopLevelItem, itemIds []ids.TopLevelId) []ids.TopLevelId {
	out := make([]ids.TopLevelId, len(itemIds))
	copy(out, itemIds)
	sort.Slice(out, func(i, j int) bool {
		a, b := items[out[i]], items[out[j]]
		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}
		return a.Span.Start.Column < b.Span.Start.Column
	})
	return out
}
