// Package extended implements the per-item "extended context" design note §9 and
// glossary describe: a side table of synthetic expressions, patterns, paths, and
// resolved origins created by type inference and pattern compilation, layered on top
// of a TopLevelContext's arena without ever mutating it (spec.md §3.7, §4.6.1, §4.7).
//
// Ids for synthetic nodes continue the same dense-index namespace the owning
// TopLevelContext already uses: a synthetic node's ids.ExprId is always greater than or
// equal to the count of expressions the base context held when the extended context was
// created, so a consumer can tell "is this id original or synthetic" by comparing
// against that boundary, and every accessor on ExtendedTopLevelContext transparently
// falls back to the base context below it.
package extended

import (
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/resolve"
)

// ExtendedTopLevelContext layers synthetic nodes over one item's original
// *cst.TopLevelContext. The zero value is not usable; construct with New.
type ExtendedTopLevelContext struct {
	base *cst.TopLevelContext

	baseExprs int
	exprs     []cst.Expr
	exprSpans []ast.Span

	basePatterns int
	patterns     []cst.Pattern
	patternSpans []ast.Span

	basePaths int
	paths     []cst.Path
	pathSpans []ast.Span

	baseNames int
	names     []cst.Name
	nameSpans []ast.Span

	// resolvedOrigins records §4.6.1's "the type checker follows the expected type ...
	// and updates the extended context to record the resolved origin for subsequent
	// queries" — the deferred OriginTypeResolution path gets its concrete origin filled
	// in here once the type checker has figured out which variant it names.
	resolvedOrigins map[ids.PathId]resolve.Origin

	// matchLowerings maps a match expression's own ids.ExprId (in the base context) to
	// the decision tree it was compiled into (spec.md §4.7).
	matchLowerings map[ids.ExprId]*MatchLowering
}

// New creates an extended context with no synthetic nodes yet, anchored to base's
// current sizes so every subsequently-added node gets an id strictly above anything the
// original source produced.
func New(base *cst.TopLevelContext) *ExtendedTopLevelContext {
	return &ExtendedTopLevelContext{
		base:            base,
		baseExprs:       len(base.Exprs),
		basePatterns:    len(base.Patterns),
		basePaths:       len(base.Paths),
		baseNames:       len(base.Names),
		resolvedOrigins: make(map[ids.PathId]resolve.Origin),
		matchLowerings:  make(map[ids.ExprId]*MatchLowering),
	}
}

func (e *ExtendedTopLevelContext) AddExpr(x cst.Expr, span ast.Span) ids.ExprId {
	e.exprs = append(e.exprs, x)
	e.exprSpans = append(e.exprSpans, span)
	return ids.ExprId(e.baseExprs + len(e.exprs) - 1)
}

func (e *ExtendedTopLevelContext) Expr(id ids.ExprId) cst.Expr {
	if int(id) < e.baseExprs {
		return e.base.Expr(id)
	}
	return e.exprs[int(id)-e.baseExprs]
}

func (e *ExtendedTopLevelContext) ExprSpan(id ids.ExprId) ast.Span {
	if int(id) < e.baseExprs {
		return e.base.ExprSpan(id)
	}
	return e.exprSpans[int(id)-e.baseExprs]
}

func (e *ExtendedTopLevelContext) AddPattern(p cst.Pattern, span ast.Span) ids.PatternId {
	e.patterns = append(e.patterns, p)
	e.patternSpans = append(e.patternSpans, span)
	return ids.PatternId(e.basePatterns + len(e.patterns) - 1)
}

func (e *ExtendedTopLevelContext) Pattern(id ids.PatternId) cst.Pattern {
	if int(id) < e.basePatterns {
		return e.base.Pattern(id)
	}
	return e.patterns[int(id)-e.basePatterns]
}

func (e *ExtendedTopLevelContext) PatternSpan(id ids.PatternId) ast.Span {
	if int(id) < e.basePatterns {
		return e.base.PatternSpan(id)
	}
	return e.patternSpans[int(id)-e.basePatterns]
}

// AddScrutineePath mints a fresh path naming a synthetic scrutinee binding — either the
// preamble `let <fresh> = <scrutinee>` itself, or a sub-scrutinee produced by indexing
// into a constructor's fields during pattern-matrix specialization (spec.md §4.7 step 3:
// "specializes its arguments to fresh scrutinees").
func (e *ExtendedTopLevelContext) AddScrutineePath(name string, span ast.Span) ids.PathId {
	e.paths = append(e.paths, cst.Path{Components: []string{name}})
	e.pathSpans = append(e.pathSpans, span)
	return ids.PathId(e.basePaths + len(e.paths) - 1)
}

func (e *ExtendedTopLevelContext) Path(id ids.PathId) cst.Path {
	if int(id) < e.basePaths {
		return e.base.Path(id)
	}
	return e.paths[int(id)-e.basePaths]
}

func (e *ExtendedTopLevelContext) PathSpan(id ids.PathId) ast.Span {
	if int(id) < e.basePaths {
		return e.base.PathSpan(id)
	}
	return e.pathSpans[int(id)-e.basePaths]
}

func (e *ExtendedTopLevelContext) AddName(n cst.Name, span ast.Span) ids.NameId {
	e.names = append(e.names, n)
	e.nameSpans = append(e.nameSpans, span)
	return ids.NameId(e.baseNames + len(e.names) - 1)
}

func (e *ExtendedTopLevelContext) Name(id ids.NameId) cst.Name {
	if int(id) < e.baseNames {
		return e.base.Name(id)
	}
	return e.names[int(id)-e.baseNames]
}

func (e *ExtendedTopLevelContext) NameSpan(id ids.NameId) ast.Span {
	if int(id) < e.baseNames {
		return e.base.NameSpan(id)
	}
	return e.nameSpans[int(id)-e.baseNames]
}

// RecordResolvedOrigin implements §4.6.1's extended-context update for a path whose
// resolver-time Origin.Kind was OriginTypeResolution.
func (e *ExtendedTopLevelContext) RecordResolvedOrigin(path ids.PathId, origin resolve.Origin) {
	e.resolvedOrigins[path] = origin
}

// ResolvedOrigin returns the origin the type checker later pinned down for a path that
// name resolution deferred, if any.
func (e *ExtendedTopLevelContext) ResolvedOrigin(path ids.PathId) (resolve.Origin, bool) {
	o, ok := e.resolvedOrigins[path]
	return o, ok
}

// SetMatchLowering records the decision-tree compilation result for one match
// expression (spec.md §4.7: "the CST's match node is replaced, in the extended context,
// by a preamble ... followed by a DecisionTree").
func (e *ExtendedTopLevelContext) SetMatchLowering(matchExpr ids.ExprId, lowering *MatchLowering) {
	e.matchLowerings[matchExpr] = lowering
}

// MatchLoweringFor returns the decision tree compiled for a given match expression, if
// it has been compiled.
func (e *ExtendedTopLevelContext) MatchLoweringFor(matchExpr ids.ExprId) (*MatchLowering, bool) {
	l, ok := e.matchLowerings[matchExpr]
	return l, ok
}

// MatchLowering is the §4.7 replacement for a `match`: bind the scrutinee once under a
// fresh name, then dispatch through the compiled DecisionTree.
type MatchLowering struct {
	ScrutineePath ids.PathId
	ScrutineePat  ids.PatternId
	Tree          DecisionTree

	// ArmBindings records, per original match-arm index, which local name each
	// variable pattern in that arm resolves to once the matrix compiler has finished
	// specializing — the MIR builder reads this instead of re-walking the decision
	// tree to rediscover which fresh path backs which bound name.
	ArmBindings map[int]map[ids.NameId]ids.PathId
}

// DecisionTree is the sum type spec.md §4.7 names: Success, Failure, Guard, Switch.
type DecisionTree interface {
	isDecisionTree()
}

// Success takes the named match arm's body unconditionally.
type Success struct {
	Body ids.ExprId
}

// Failure marks a non-exhaustive match; the compiler that builds a DecisionTree emits a
// diagnostic at the point it produces one (spec.md §4.7: "emit diagnostic during
// compilation").
type Failure struct{}

// Guard is an `if` embedded in the tree, for a match arm carrying a `when` clause.
type Guard struct {
	Condition ids.ExprId
	Then      ids.ExprId
	Else      DecisionTree
}

// Case is one arm of a Switch: the constructor it matches, the fresh paths bound to
// each of that constructor's fields, and the subtree to take.
type Case struct {
	Constructor string
	Arguments   []ids.PathId
	Body        DecisionTree
}

// Switch dispatches on the tag of the value named by Scrutinee. Default is nil when
// every constructor of the scrutinee's type has an explicit Case.
type Switch struct {
	Scrutinee ids.PathId
	Cases     []Case
	Default   DecisionTree
}

func (*Success) isDecisionTree() {}
func (*Failure) isDecisionTree() {}
func (*Guard) isDecisionTree()   {}
func (*Switch) isDecisionTree()  {}
