// Package infer implements the per-SCC Hindley-Milner type checker spec.md §4.6
// describes: fresh item-type variables shared across one strongly-connected component,
// a recursive-descent checker unifying every expression against an expected type, and
// generalization into a cached GeneralizedType once the whole component is checked.
package infer

import (
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/dtree"
	"github.com/sunholo/ailang/internal/extended"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
	"github.com/sunholo/ailang/internal/query"
	"github.com/sunholo/ailang/internal/resolve"
)

// TypeLookup answers "what is the generalized type of this already-checked item?".
// checkSCCMemoized (gettype.go) supplies one that calls GetType for the item, so an
// earlier SCC's type is computed and generalized on demand (spec.md §4.5: earlier SCCs
// in the post-order never depend on later ones).
type TypeLookup func(ids.TopLevelId) (itypes.GeneralizedType, bool)

// Result is the output of type-checking one SCC: every item's generalized type, plus
// every expression's inferred type for the MIR builder to consume.
type Result struct {
	Bindings  *itypes.TypeBindings
	ItemTypes map[ids.TopLevelId]itypes.GeneralizedType
	ExprTypes map[ids.TopLevelId]map[ids.ExprId]itypes.Type
	PatTypes  map[ids.TopLevelId]map[ids.PatternId]itypes.Type

	// Extended carries each item's synthetic-node side table (spec.md §3.7, §4.7):
	// the match-decision-tree lowerings and type-directed-resolution updates
	// produced while checking that item.
	Extended map[ids.TopLevelId]*extended.ExtendedTopLevelContext
}

// TypeCheckSCC type-checks every item in scc as one unit (spec.md §4.5
// "TypeCheckSCC(scc) type-checks the whole SCC as a unit"), sharing one TypeBindings so
// mutually-recursive members can reference each other's placeholder type variables
// before generalization.
func TypeCheckSCC(qc *query.Context, db *query.Database, scc []ids.TopLevelId, lookup TypeLookup) (*Result, error) {
	bindings := itypes.NewTypeBindings()
	itemVars := make(map[ids.TopLevelId]ids.TypeVariableId, len(scc))
	for _, id := range scc {
		itemVars[id] = bindings.Fresh()
	}

	res := &Result{
		Bindings:  bindings,
		ItemTypes: make(map[ids.TopLevelId]itypes.GeneralizedType, len(scc)),
		ExprTypes: make(map[ids.TopLevelId]map[ids.ExprId]itypes.Type, len(scc)),
		PatTypes:  make(map[ids.TopLevelId]map[ids.PatternId]itypes.Type, len(scc)),
		Extended:  make(map[ids.TopLevelId]*extended.ExtendedTopLevelContext, len(scc)),
	}

	c := &checker{
		qc: qc, db: db, bindings: bindings, itemVars: itemVars, lookup: lookup, result: res,
	}

	for _, id := range scc {
		item, ok := collect.GetItem(qc, db, id)
		if !ok {
			continue
		}
		resolved, err := resolve.Resolve(qc, db, id.File, item)
		if err != nil {
			return nil, err
		}
		c.checkItem(item, resolved)
	}

	for _, id := range scc {
		expected := &itypes.Variable{Id: itemVars[id]}
		res.ItemTypes[id] = itypes.Generalize(bindings, expected)
	}

	return res, nil
}

// checker holds the state shared across every item of one SCC, plus the per-item state
// reset at the start of each checkItem call.
type checker struct {
	qc       *query.Context
	db       *query.Database
	bindings *itypes.TypeBindings
	itemVars map[ids.TopLevelId]ids.TypeVariableId
	lookup   TypeLookup
	result   *Result

	// Per-item state, reset by checkItem.
	item    *cst.TopLevelItem
	ctx     *cst.TopLevelContext
	res     *resolve.Result
	locals  map[ids.NameId]itypes.Type
	generic map[string]itypes.Type
	ext     *extended.ExtendedTopLevelContext
	dt      *dtree.Compiler
}

func (c *checker) checkItem(item *cst.TopLevelItem, res *resolve.Result) {
	c.item = item
	c.ctx = item.Context
	c.res = res
	c.locals = make(map[ids.NameId]itypes.Type)
	c.generic = make(map[string]itypes.Type)
	c.result.ExprTypes[item.Id] = make(map[ids.ExprId]itypes.Type)
	c.result.PatTypes[item.Id] = make(map[ids.PatternId]itypes.Type)
	c.ext = extended.New(item.Context)
	c.dt = dtree.NewCompiler(c.ext, c.siblingsOf, func(span ast.Span) {
		c.accumulate(diagnostics.KindNonExhaustiveMatch, span, "match is not exhaustive")
	})
	c.result.Extended[item.Id] = c.ext

	expected := &itypes.Variable{Id: c.itemVars[item.Id]}

	switch item.Kind {
	case cst.ItemDefinition:
		c.bindPattern(item.Pattern, expected)
		c.checkExpr(item.Rhs, expected)
	case cst.ItemComptime:
		c.accumulate(diagnostics.KindUnimplemented, item.Span, "comptime is not yet implemented")
		c.checkExpr(item.ComptimeBody, c.freshVar())
	case cst.ItemExtern:
		t := c.resolveTypeAnnotation(item.Context, item.ExternType, c.generic)
		c.unify(expected, t, item.Span, diagnostics.General)
	case cst.ItemTypeDefinition, cst.ItemTraitDefinition, cst.ItemEffectDefinition, cst.ItemTraitImpl:
		// These introduce types/traits/effects/impls rather than a checkable value body, so
		// no expression is checked here; their ItemTypes entry is the generalization of
		// the item's still-unconstrained placeholder variable. TraitImpl's methods carry their own TopLevelId and are
		// checked as independent items elsewhere in the SCC partition.
	}
}

func (c *checker) freshVar() itypes.Type {
	return &itypes.Variable{Id: c.bindings.Fresh()}
}

func (c *checker) accumulate(kind diagnostics.Kind, span ast.Span, msg string) {
	c.qc.Accumulate(diagnostics.Diagnostic{Severity: diagnostics.Error, Kind: kind, Message: msg, Span: span})
}

func (c *checker) unify(a, b itypes.Type, span ast.Span, kind diagnostics.TypeErrorKind) bool {
	if err := itypes.Unify(c.bindings, a, b); err != nil {
		if _, ok := err.(*itypes.ErrOccursCheck); ok {
			c.qc.Accumulate(diagnostics.Diagnostic{
				Severity: diagnostics.Error, Kind: diagnostics.KindRecursiveType,
				Message: err.Error(), Span: span,
			})
			return false
		}
		c.qc.Accumulate(diagnostics.Diagnostic{
			Severity: diagnostics.Error, Kind: diagnostics.KindTypeMismatch,
			Message: err.Error(), Span: span, TypeKind: kind,
		})
		return false
	}
	return true
}

// typeByName scans the program-wide item table for a type/trait/effect definition with
// this name. Linear in the number of items; acceptable since it only runs for unbound
// type-annotation lookups, not on every expression.
func (c *checker) typeByName(name string) (ids.TopLevelId, bool) {
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](c.qc, c.db, collect.ItemTableKey{})
	for id, item := range table {
		switch item.Kind {
		case cst.ItemTypeDefinition:
			if item.TypeName == name {
				return id, true
			}
		case cst.ItemTraitDefinition:
			if item.TraitName == name {
				return id, true
			}
		case cst.ItemEffectDefinition:
			if item.EffectName == name {
				return id, true
			}
		}
	}
	return ids.TopLevelId{}, false
}

// siblingsOf returns every variant name of the sum type that declares name as one of
// its constructors, for dtree.Compiler's exhaustiveness check (spec.md §8 property 6).
func (c *checker) siblingsOf(name string) ([]string, bool) {
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](c.qc, c.db, collect.ItemTableKey{})
	for _, item := range table {
		if item.Kind != cst.ItemTypeDefinition {
			continue
		}
		for _, v := range item.Variants {
			if v.Name == name {
				names := make([]string, len(item.Variants))
				for i, vv := range item.Variants {
					names[i] = vv.Name
				}
				return names, true
			}
		}
	}
	return nil, false
}

func (c *checker) itemByName(name string) (*cst.TopLevelItem, bool) {
	id, ok := c.typeByName(name)
	if !ok {
		return nil, false
	}
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](c.qc, c.db, collect.ItemTableKey{})
	item, ok := table[id]
	return item, ok
}
