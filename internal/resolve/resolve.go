// Package resolve implements the name resolver (spec.md §4.3): for every path and name
// occurrence inside one top-level item, decide what it refers to — a local binding, a
// visible top-level definition or type, a crate-qualified path, a built-in, or (for an
// uppercase name in value position) a deferral to type inference.
package resolve

import (
	"fmt"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/builtins"
	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/crate"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/query"
)

// OriginKind tags which of the four origin shapes a resolved reference has
// (spec.md §3.4).
type OriginKind int

const (
	OriginTopLevelDefinition OriginKind = iota
	OriginLocal
	OriginTypeResolution
	OriginBuiltin
	OriginUnresolved
)

// Origin is the resolution result attached to every path/name occurrence.
type Origin struct {
	Kind    OriginKind
	TopName ids.TopLevelName // OriginTopLevelDefinition
	Local   ids.NameId       // OriginLocal
	Builtin builtins.Builtin // OriginBuiltin
}

// Result is the output of resolving one top-level item: the origin of every path and
// name occurrence in its TopLevelContext, plus the set of other top-level items it
// references (the input to the dependency graph, §4.5).
type Result struct {
	PathOrigins     map[ids.PathId]Origin
	NameOrigins     map[ids.NameId]Origin
	ReferencedItems map[ids.TopLevelId]struct{}
}

func newResult() *Result {
	return &Result{
		PathOrigins:     make(map[ids.PathId]Origin),
		NameOrigins:     make(map[ids.NameId]Origin),
		ReferencedItems: make(map[ids.TopLevelId]struct{}),
	}
}

// CrateGraphKey is the query key for the crate graph primary input (spec.md §4.1:
// "the crate graph is an input").
type CrateGraphKey struct{}

// SetCrateGraph installs the crate graph as a primary input.
func SetCrateGraph(db *query.Database, g *crate.Graph) {
	query.SetInput(db, CrateGraphKey{}, g)
}

func getCrateGraph(c *query.Context, db *query.Database) *crate.Graph {
	g, _ := query.GetInput[*crate.Graph](c, db, CrateGraphKey{})
	return g
}

type resolveKey struct{ Item ids.TopLevelId }

// Resolve runs (or returns the cached result of) the name resolver over one top-level
// item. file is the source file owning the item, needed to look up its
// VisibleDefinitions/VisibleTypes.
func Resolve(c *query.Context, db *query.Database, file ids.SourceFileId, item *cst.TopLevelItem) (*Result, error) {
	return query.Get(c, db, resolveKey{item.Id}, func(qc *query.Context) (*Result, error) {
		r := newResult()
		vis, err := collect.GetVisibleDefinitions(qc, db, file)
		if err != nil {
			return nil, err
		}
		visTypes, err := collect.GetVisibleTypes(qc, db, file)
		if err != nil {
			return nil, err
		}
		res := &resolver{
			qc:       qc,
			db:       db,
			file:     file,
			item:     item,
			ctx:      item.Context,
			vis:      vis,
			visTypes: visTypes,
			graph:    getCrateGraph(qc, db),
			result:   r,
			scopes:   []map[string]ids.NameId{{}},
		}
		res.run()
		return r, nil
	})
}

type resolver struct {
	qc       *query.Context
	db       *query.Database
	file     ids.SourceFileId
	item     *cst.TopLevelItem
	ctx      *cst.TopLevelContext
	vis      *collect.VisibleDefinitions
	visTypes *collect.VisibleTypes
	graph    *crate.Graph
	result   *Result
	scopes   []map[string]ids.NameId
}

func (r *resolver) push() { r.scopes = append(r.scopes, map[string]ids.NameId{}) }
func (r *resolver) pop()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *resolver) bind(text string, id ids.NameId) {
	r.scopes[len(r.scopes)-1][text] = id
}

func (r *resolver) lookupLocal(text string) (ids.NameId, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if id, ok := r.scopes[i][text]; ok {
			return id, true
		}
	}
	return 0, false
}

func (r *resolver) run() {
	switch r.item.Kind {
	case cst.ItemDefinition:
		r.resolvePattern(r.item.Pattern, true)
		r.resolveExpr(r.item.Rhs)
	case cst.ItemTraitImpl:
		// Methods carry their own TopLevelContext and are resolved as their own items
		// by the driver once collected into the dependency graph; nothing further to
		// do for the impl item itself beyond its head, which type inference consumes
		// directly via ImplType/ImplTrait.
	case cst.ItemComptime:
		r.resolveExpr(r.item.ComptimeBody)
	}
}

func isUpper(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

// resolvePath resolves a path occurrence. valuePosition distinguishes step 5's
// uppercase-in-value-position deferral from an ordinary type-position lookup.
func (r *resolver) resolvePath(id ids.PathId, valuePosition bool) {
	p := r.ctx.Path(id)
	span := r.ctx.PathSpan(id)

	if len(p.Components) == 1 {
		name := p.Components[0]

		// 1. Local scopes.
		if valuePosition {
			if nameId, ok := r.lookupLocal(name); ok {
				r.result.PathOrigins[id] = Origin{Kind: OriginLocal, Local: nameId}
				return
			}
		}

		// 2. Visible definitions/types of the containing file.
		table := r.vis.Names
		if !valuePosition {
			table = r.visTypes.Names
		}
		if topId, ok := table[name]; ok {
			r.result.PathOrigins[id] = Origin{Kind: OriginTopLevelDefinition, TopName: ids.TopLevelName{Item: topId}}
			r.result.ReferencedItems[topId] = struct{}{}
			return
		}

		// 4. Built-in names.
		if b, ok := builtins.LookupBuiltin(name); ok {
			r.result.PathOrigins[id] = Origin{Kind: OriginBuiltin, Builtin: b}
			return
		}

		// 5. Uppercase name in value position: defer to type inference.
		if valuePosition && isUpper(name) {
			r.result.PathOrigins[id] = Origin{Kind: OriginTypeResolution}
			return
		}

		// 6. Unresolved.
		r.qc.Accumulate(diagnostics.Diagnostic{
			Severity: diagnostics.Error,
			Kind:     diagnostics.KindNameNotInScope,
			Message:  fmt.Sprintf("%q is not in scope", name),
			Span:     span,
		})
		r.result.PathOrigins[id] = Origin{Kind: OriginUnresolved}
		return
	}

	// 3. Multi-component path: leading component may name a crate.
	r.resolveCrateQualifiedPath(id, p, span, valuePosition)
}

// resolveCrateQualifiedPath implements step 3: the leading component names a crate
// (resolved via the crate graph), and the remaining component indexes into the
// ExportedDefinitions/ExportedTypes of that crate's source files. A path with more
// than two components addresses a submodule several levels deep; this resolver treats
// every component after the first as naming the same flat per-crate export table
// (crates here have no further internal module nesting — see DESIGN.md) and looks the
// final component up there.
func (r *resolver) resolveCrateQualifiedPath(id ids.PathId, p cst.Path, span ast.Span, valuePosition bool) {
	crateName := p.Components[0]
	memberName := p.Components[len(p.Components)-1]

	if r.graph == nil {
		r.unresolvedNamespace(id, crateName, span)
		return
	}
	crateId, ok := r.graph.Lookup(crateName)
	if !ok {
		r.unresolvedNamespace(id, crateName, span)
		return
	}

	fileIndex := collect.GetFileIndex(r.qc, r.db)
	for _, path := range r.graph.Crate(crateId).SourceFiles {
		sf, ok := fileIndex[path]
		if !ok {
			continue
		}
		if valuePosition {
			defs, err := collect.GetExportedDefinitions(r.qc, r.db, sf)
			if err != nil {
				continue
			}
			if topId, ok := defs.Names[memberName]; ok {
				r.result.PathOrigins[id] = Origin{Kind: OriginTopLevelDefinition, TopName: ids.TopLevelName{Item: topId}}
				r.result.ReferencedItems[topId] = struct{}{}
				return
			}
		} else {
			types, err := collect.GetExportedTypes(r.qc, r.db, sf)
			if err != nil {
				continue
			}
			if topId, ok := types.Names[memberName]; ok {
				r.result.PathOrigins[id] = Origin{Kind: OriginTopLevelDefinition, TopName: ids.TopLevelName{Item: topId}}
				r.result.ReferencedItems[topId] = struct{}{}
				return
			}
		}
	}

	r.qc.Accumulate(diagnostics.Diagnostic{
		Severity: diagnostics.Error,
		Kind:     diagnostics.KindNameNotInScope,
		Message:  fmt.Sprintf("%q is not exported by crate %q", memberName, crateName),
		Span:     span,
	})
	r.result.PathOrigins[id] = Origin{Kind: OriginUnresolved}
}

func (r *resolver) unresolvedNamespace(id ids.PathId, crateName string, span ast.Span) {
	r.qc.Accumulate(diagnostics.Diagnostic{
		Severity: diagnostics.Error,
		Kind:     diagnostics.KindNamespaceNotFound,
		Message:  fmt.Sprintf("no crate named %q", crateName),
		Span:     span,
	})
	r.result.PathOrigins[id] = Origin{Kind: OriginUnresolved}
}

func (r *resolver) resolveExpr(id ids.ExprId) {
	switch e := r.ctx.Expr(id).(type) {
	case *cst.LiteralExpr:
	case *cst.VariableExpr:
		r.resolvePath(e.Path, true)
	case *cst.CallExpr:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
	case *cst.LambdaExpr:
		r.push()
		for i, p := range e.Params {
			r.resolvePattern(p, true)
			if i < len(e.ParamAnnotations) && e.ParamAnnotations[i] != 0 {
				r.resolvePath(e.ParamAnnotations[i], false)
			}
		}
		if e.HasReturnAnno {
			r.resolvePath(e.ReturnAnnotation, false)
		}
		r.resolveExpr(e.Body)
		r.pop()
	case *cst.SequenceExpr:
		r.push()
		for _, x := range e.Exprs {
			r.resolveExpr(x)
		}
		r.pop()
	case *cst.DefinitionExpr:
		r.resolveExpr(e.Value)
		r.resolvePattern(e.Pattern, true)
	case *cst.MemberExpr:
		r.resolveExpr(e.Object)
	case *cst.IndexExpr:
		r.resolveExpr(e.Object)
		r.resolveExpr(e.Index)
	case *cst.IfExpr:
		r.resolveExpr(e.Cond)
		r.push()
		r.resolveExpr(e.Then)
		r.pop()
		if e.HasElse {
			r.push()
			r.resolveExpr(e.Else)
			r.pop()
		}
	case *cst.MatchExpr:
		r.resolveExpr(e.Scrutinee)
		for _, arm := range e.Arms {
			r.push()
			r.resolvePattern(arm.Pattern, true)
			if arm.HasGuard {
				r.resolveExpr(arm.Guard)
			}
			r.resolveExpr(arm.Body)
			r.pop()
		}
	case *cst.HandleExpr:
		r.resolveExpr(e.Body)
		for _, arm := range e.Arms {
			r.push()
			r.resolvePath(arm.EffectPath, false)
			for _, p := range arm.Params {
				r.resolvePattern(p, true)
			}
			r.resolveExpr(arm.Body)
			r.pop()
		}
	case *cst.ReferenceExpr:
		r.resolveExpr(e.Inner)
	case *cst.TypeAnnotationExpr:
		r.resolveExpr(e.Inner)
		r.resolvePath(e.Type, false)
	case *cst.ConstructorExpr:
		r.resolvePath(e.Path, true)
		for _, f := range e.Fields {
			r.resolveExpr(f.Value)
		}
	case *cst.QuotedExpr:
		r.resolveExpr(e.Inner)
	case *cst.ErrorExpr:
	}
}

func (r *resolver) resolvePattern(id ids.PatternId, bind bool) {
	switch p := r.ctx.Pattern(id).(type) {
	case *cst.VariablePattern:
		if bind {
			r.bind(r.ctx.Name(p.Name).Text, p.Name)
			r.result.NameOrigins[p.Name] = Origin{Kind: OriginLocal, Local: p.Name}
		}
	case *cst.LiteralPattern:
	case *cst.ConstructorPattern:
		r.resolvePath(p.Path, true)
		for _, a := range p.Args {
			r.resolvePattern(a, bind)
		}
	case *cst.TypeAnnotationPattern:
		r.resolvePattern(p.Inner, bind)
		r.resolvePath(p.Type, false)
	case *cst.MethodNamePattern:
		r.resolvePath(p.TypePath, false)
	case *cst.ErrorPattern:
	}
}
