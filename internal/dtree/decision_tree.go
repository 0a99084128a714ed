// Package dtree compiles a match's arms into the decision tree spec.md §4.7 describes,
// adapted from the matrix-based algorithm the teacher's original decision tree compiler
// used for core.CorePattern: represent the arms as a matrix (one column per
// sub-scrutinee, one row per arm), repeatedly split on a column's constructor, and
// specialize each resulting sub-matrix until every row reduces to a leaf.
//
// Unlike the teacher's version, this one operates directly on cst.Pattern/ids.PatternId
// and writes every node it synthesizes (fresh scrutinee paths, placeholder wildcard
// patterns for specialized default rows) into an extended.ExtendedTopLevelContext
// rather than mutating the original CST.
package dtree

import (
	"fmt"
	"sort"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/extended"
	"github.com/sunholo/ailang/internal/ids"
)

// SiblingLookup answers "what are all the constructor names of the sum type this
// constructor belongs to, including itself?" — used to decide whether a Switch's cases
// already cover every possibility (spec.md §8 property 6: exhaustiveness), so that an
// exhaustive Switch omits Default entirely rather than carrying a dead fallback.
type SiblingLookup func(constructorName string) (siblings []string, ok bool)

// NonExhaustiveReporter is called once per Failure leaf the compiler produces, so the
// caller can accumulate the "non-exhaustive match" diagnostic spec.md §4.7 step 5
// describes ("Failure — non-exhaustive match (emit diagnostic during compilation)").
type NonExhaustiveReporter func(span ast.Span)

// Compiler holds the state shared across every match compiled for one top-level item:
// the extended context synthetic nodes are written into, and the counter that keeps
// fresh scrutinee names unique within the item.
type Compiler struct {
	ext      *extended.ExtendedTopLevelContext
	siblings SiblingLookup
	onFail   NonExhaustiveReporter
	fresh    int
}

func NewCompiler(ext *extended.ExtendedTopLevelContext, siblings SiblingLookup, onFail NonExhaustiveReporter) *Compiler {
	return &Compiler{ext: ext, siblings: siblings, onFail: onFail}
}

func (c *Compiler) freshPath(base string, span ast.Span) ids.PathId {
	name := fmt.Sprintf("%s$%d", base, c.fresh)
	c.fresh++
	return c.ext.AddScrutineePath(name, span)
}

// row is one matrix row: the patterns still to be tested, aligned one-to-one with the
// matrix's current column list, plus the arm's own identity and the variable bindings
// accumulated for it so far.
type row struct {
	patterns []ids.PatternId
	armIndex int
	guard    ids.ExprId
	hasGuard bool
	body     ids.ExprId
	bindings map[ids.NameId]ids.PathId
}

func cloneBindings(b map[ids.NameId]ids.PathId) map[ids.NameId]ids.PathId {
	out := make(map[ids.NameId]ids.PathId, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Compile lowers one match expression into a MatchLowering (spec.md §4.7): a preamble
// binding the scrutinee under a fresh name, and the DecisionTree dispatching on it.
func (c *Compiler) Compile(scrutinee ids.ExprId, arms []cst.MatchArm, matchSpan ast.Span) *extended.MatchLowering {
	scrutineePath := c.freshPath("$match", matchSpan)
	scrutineeName := c.ext.AddName(cst.Name{Text: "$match"}, matchSpan)
	scrutineePat := c.ext.AddPattern(&cst.VariablePattern{Name: scrutineeName}, matchSpan)

	rows := make([]row, len(arms))
	for i, arm := range arms {
		rows[i] = row{
			patterns: []ids.PatternId{arm.Pattern},
			armIndex: i,
			guard:    arm.Guard,
			hasGuard: arm.HasGuard,
			body:     arm.Body,
			bindings: make(map[ids.NameId]ids.PathId),
		}
	}

	armBindings := make(map[int]map[ids.NameId]ids.PathId, len(arms))
	tree := c.compileMatrix([]ids.PathId{scrutineePath}, rows, matchSpan, armBindings)

	return &extended.MatchLowering{
		ScrutineePath: scrutineePath,
		ScrutineePat:  scrutineePat,
		Tree:          tree,
		ArmBindings:   armBindings,
	}
}

// resolvePattern unwraps a TypeAnnotationPattern transparently — the annotation has
// already done its job during type checking and carries no dispatch information here.
func (c *Compiler) resolvePattern(id ids.PatternId) cst.Pattern {
	p := c.ext.Pattern(id)
	for {
		ap, ok := p.(*cst.TypeAnnotationPattern)
		if !ok {
			return p
		}
		p = c.ext.Pattern(ap.Inner)
	}
}

func (c *Compiler) unwrapId(id ids.PatternId) ids.PatternId {
	p := c.ext.Pattern(id)
	for {
		ap, ok := p.(*cst.TypeAnnotationPattern)
		if !ok {
			return id
		}
		id = ap.Inner
		p = c.ext.Pattern(id)
	}
}

// isDefault reports whether a pattern carries no constructor/literal to dispatch on —
// binds unconditionally (variable), matches unconditionally but silently (error, method
// name — best-effort, spec.md §7 treats unresolved constructs as absorbing rather than
// fatal).
func isDefault(p cst.Pattern) bool {
	switch p.(type) {
	case *cst.VariablePattern, *cst.ErrorPattern, *cst.MethodNamePattern:
		return true
	default:
		return false
	}
}

// rowIsLeaf reports whether every remaining column in row is a default pattern —
// nothing left to dispatch on, so this row is the arm that fires.
func (c *Compiler) rowIsLeaf(r row) bool {
	for _, pid := range r.patterns {
		if !isDefault(c.resolvePattern(pid)) {
			return false
		}
	}
	return true
}

// finalizeLeaf binds every remaining variable pattern in r to its aligned column path
// and records the result under the arm's own index.
func (c *Compiler) finalizeLeaf(columns []ids.PathId, r row, armBindings map[int]map[ids.NameId]ids.PathId) {
	b := cloneBindings(r.bindings)
	for i, pid := range r.patterns {
		if vp, ok := c.resolvePattern(pid).(*cst.VariablePattern); ok {
			b[vp.Name] = columns[i]
		}
	}
	armBindings[r.armIndex] = b
}

func (c *Compiler) compileMatrix(columns []ids.PathId, rows []row, span ast.Span, armBindings map[int]map[ids.NameId]ids.PathId) extended.DecisionTree {
	if len(rows) == 0 {
		if c.onFail != nil {
		c.onFail(span)
	}
		return &extended.Failure{}
	}

	if c.rowIsLeaf(rows[0]) {
		c.finalizeLeaf(columns, rows[0], armBindings)
		r := rows[0]
		if r.hasGuard {
			return &extended.Guard{
				Condition: r.guard,
				Then:      r.body,
				Else:      c.compileMatrix(columns, rows[1:], span, armBindings),
			}
		}
		return &extended.Success{Body: r.body}
	}

	// design note §9 / teacher precedent: pick column 0. If it happens to be
	// uninformative for every row (every row's first pattern is a default), drop it
	// and keep looking rather than looping forever on it.
	if allDefaultAtZero(c, rows) {
		for _, vp := range collectVarBindingsAtZero(c, rows) {
			rows[vp.rowIdx].bindings = cloneBindings(rows[vp.rowIdx].bindings)
			rows[vp.rowIdx].bindings[vp.name] = columns[0]
		}
		newRows := make([]row, len(rows))
		for i, r := range rows {
			newRows[i] = row{
				patterns: append([]ids.PatternId{}, r.patterns[1:]...),
				armIndex: r.armIndex, guard: r.guard, hasGuard: r.hasGuard, body: r.body,
				bindings: r.bindings,
			}
		}
		return c.compileMatrix(columns[1:], newRows, span, armBindings)
	}

	return c.buildSwitch(columns, rows, span, armBindings)
}

type varBinding struct {
	rowIdx int
	name   ids.NameId
}

func allDefaultAtZero(c *Compiler, rows []row) bool {
	for _, r := range rows {
		if !isDefault(c.resolvePattern(r.patterns[0])) {
			return false
		}
	}
	return true
}

func collectVarBindingsAtZero(c *Compiler, rows []row) []varBinding {
	var out []varBinding
	for i, r := range rows {
		if vp, ok := c.resolvePattern(r.patterns[0]).(*cst.VariablePattern); ok {
			out = append(out, varBinding{rowIdx: i, name: vp.Name})
		}
	}
	return out
}

func (c *Compiler) buildSwitch(columns []ids.PathId, rows []row, span ast.Span, armBindings map[int]map[ids.NameId]ids.PathId) extended.DecisionTree {
	type group struct {
		key      string
		ctorName string // empty for literal groups
		arity    int
		rows     []row
	}
	groups := make(map[string]*group)
	var order []string
	var defaultRows []row

	for _, r := range rows {
		pid := c.unwrapId(r.patterns[0])
		switch p := c.resolvePattern(pid).(type) {
		case *cst.ConstructorPattern:
			name := c.ext.Path(p.Path).Last()
			g, ok := groups[name]
			if !ok {
				g = &group{key: name, ctorName: name, arity: len(p.Args)}
				groups[name] = g
				order = append(order, name)
			}
			g.rows = append(g.rows, r)
		case *cst.LiteralPattern:
			key := p.Raw
			g, ok := groups[key]
			if !ok {
				g = &group{key: key}
				groups[key] = g
				order = append(order, key)
			}
			g.rows = append(g.rows, r)
		default:
			defaultRows = append(defaultRows, r)
		}
	}

	if len(groups) == 0 {
		// Every row's first column was a default we didn't drop above (shouldn't
		// happen given allDefaultAtZero's check, kept as a defensive fallback).
		return c.compileMatrix(columns[1:], defaultRows, span, armBindings)
	}

	sort.Strings(order)

	sw := &extended.Switch{Scrutinee: columns[0]}
	exhaustive := false
	if c.siblings != nil && len(order) > 0 && groups[order[0]].ctorName != "" {
		if siblings, ok := c.siblings(groups[order[0]].ctorName); ok {
			exhaustive = len(defaultRows) == 0 && coversAll(order, siblings)
		}
	}

	for _, key := range order {
		g := groups[key]
		freshArgs := make([]ids.PathId, g.arity)
		for i := range freshArgs {
			freshArgs[i] = c.freshPath(fmt.Sprintf("%s.%d", key, i), span)
		}
		caseColumns := append(append([]ids.PathId{}, freshArgs...), columns[1:]...)

		caseRows := make([]row, 0, len(g.rows)+len(defaultRows))
		for _, r := range g.rows {
			var fieldPats []ids.PatternId
			if cp, ok := c.resolvePattern(r.patterns[0]).(*cst.ConstructorPattern); ok {
				fieldPats = cp.Args
			}
			caseRows = append(caseRows, row{
				patterns: append(append([]ids.PatternId{}, fieldPats...), r.patterns[1:]...),
				armIndex: r.armIndex, guard: r.guard, hasGuard: r.hasGuard, body: r.body,
				bindings: r.bindings,
			})
		}
		for _, r := range defaultRows {
			b := r.bindings
			if vp, ok := c.resolvePattern(r.patterns[0]).(*cst.VariablePattern); ok {
				b = cloneBindings(b)
				b[vp.Name] = columns[0]
			}
			placeholder := make([]ids.PatternId, g.arity)
			for i := range placeholder {
				placeholder[i] = c.ext.AddPattern(&cst.ErrorPattern{}, span)
			}
			caseRows = append(caseRows, row{
				patterns: append(append([]ids.PatternId{}, placeholder...), r.patterns[1:]...),
				armIndex: r.armIndex, guard: r.guard, hasGuard: r.hasGuard, body: r.body,
				bindings: b,
			})
		}

		sw.Cases = append(sw.Cases, extended.Case{
			Constructor: key,
			Arguments:   freshArgs,
			Body:        c.compileMatrix(caseColumns, caseRows, span, armBindings),
		})
	}

	switch {
	case exhaustive:
		sw.Default = nil
	case len(defaultRows) > 0:
		sw.Default = c.compileMatrix(columns[1:], defaultRows, span, armBindings)
	default:
		if c.onFail != nil {
		c.onFail(span)
	}
		sw.Default = &extended.Failure{}
	}

	return sw
}

func coversAll(have, want []string) bool {
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[h] = true
	}
	for _, w := range want {
		if !haveSet[w] {
			return false
		}
	}
	return true
}
