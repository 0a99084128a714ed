package infer

import (
	"fmt"

	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
)

// bindPattern unifies a pattern's shape against an expected type, binding every
// variable it introduces into c.locals (spec.md §4.6: pattern checking is part of the
// same unification pass as expression checking, not a separate stage).
func (c *checker) bindPattern(id ids.PatternId, expected itypes.Type) {
	span := c.ctx.PatternSpan(id)
	c.setPatType(id, expected)

	switch p := c.ctx.Pattern(id).(type) {
	case *cst.VariablePattern:
		c.locals[p.Name] = expected

	case *cst.LiteralPattern:
		c.unify(expected, literalType(p.Kind), span, diagnostics.General)

	case *cst.ConstructorPattern:
		c.bindConstructorPattern(p, id, expected)

	case *cst.TypeAnnotationPattern:
		at := c.resolveTypeAnnotation(c.ctx, p.Type, c.generic)
		c.unify(expected, at, span, diagnostics.TypeAnnotationMismatch)
		c.bindPattern(p.Inner, at)

	case *cst.MethodNamePattern:
		// Matches a bound `Type.method` reference; the referenced method's own type is
		// resolved elsewhere (collect.VisibleDefinitions methods table), this pattern
		// site only needs to admit whatever expected already is.

	case *cst.ErrorPattern:
		// Already diagnosed upstream.
	}
}

func (c *checker) bindConstructorPattern(p *cst.ConstructorPattern, id ids.PatternId, expected itypes.Type) {
	patSpan := c.ctx.PatternSpan(id)
	name := c.ctx.Path(p.Path).Last()

	item, variant, ok := c.resolveVariantForExpected(name, expected)
	if !ok {
		for _, a := range p.Args {
			c.bindPattern(a, c.freshVar())
		}
		return
	}

	fn, ret := c.constructorType(item, variant)
	c.unify(expected, ret, patSpan, diagnostics.ConstructorKind)

	if len(p.Args) != len(fn.Parameters) {
		c.accumulate(diagnostics.KindFunctionArgCountMismatch, patSpan,
			fmt.Sprintf("%s expects %d argument(s), got %d", name, len(fn.Parameters), len(p.Args)))
		for _, a := range p.Args {
			c.bindPattern(a, c.freshVar())
		}
		return
	}
	for i, a := range p.Args {
		c.bindPattern(a, fn.Parameters[i].Typ)
	}
}
