package infer

import (
	"fmt"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
	"github.com/sunholo/ailang/internal/query"
	"github.com/sunholo/ailang/internal/resolve"
)

func (c *checker) setExprType(id ids.ExprId, t itypes.Type) {
	c.result.ExprTypes[c.item.Id][id] = t
}

func (c *checker) setPatType(id ids.PatternId, t itypes.Type) {
	c.result.PatTypes[c.item.Id][id] = t
}

// checkExpr is the recursive-descent core of §4.6: every expression is checked against
// an expected type, unifying as it goes rather than inferring bottom-up then comparing,
// so a single pass both propagates annotations downward and reports the first point of
// disagreement.
func (c *checker) checkExpr(id ids.ExprId, expected itypes.Type) {
	span := c.ctx.ExprSpan(id)
	c.setExprType(id, expected)

	switch e := c.ctx.Expr(id).(type) {
	case *cst.LiteralExpr:
		c.unify(expected, literalType(e.Kind), span, diagnostics.General)

	case *cst.VariableExpr:
		c.checkVariable(e, expected, span)

	case *cst.CallExpr:
		c.checkCall(e, id, expected, span)

	case *cst.LambdaExpr:
		c.checkLambda(e, id, expected, span)

	case *cst.SequenceExpr:
		if len(e.Exprs) == 0 {
			c.unify(expected, &itypes.Primitive{Kind: itypes.PrimUnit}, span, diagnostics.General)
			return
		}
		for i, x := range e.Exprs {
			if i == len(e.Exprs)-1 {
				c.checkExpr(x, expected)
			} else {
				c.checkExpr(x, c.freshVar())
			}
		}

	case *cst.DefinitionExpr:
		vt := c.freshVar()
		c.checkExpr(e.Value, vt)
		c.bindPattern(e.Pattern, vt)
		c.unify(expected, &itypes.Primitive{Kind: itypes.PrimUnit}, span, diagnostics.General)

	case *cst.MemberExpr:
		c.checkMember(e, expected, span)

	case *cst.IndexExpr:
		c.checkExpr(e.Object, c.freshVar())
		c.checkExpr(e.Index, &itypes.Primitive{Kind: itypes.PrimI32})

	case *cst.IfExpr:
		c.checkExpr(e.Cond, &itypes.Primitive{Kind: itypes.PrimBool})
		c.checkExpr(e.Then, expected)
		if e.HasElse {
			c.checkExpr(e.Else, expected)
		} else {
			c.unify(expected, &itypes.Primitive{Kind: itypes.PrimUnit}, span, diagnostics.IfStatement)
		}

	case *cst.MatchExpr:
		scrutType := c.freshVar()
		c.checkExpr(e.Scrutinee, scrutType)
		for _, arm := range e.Arms {
			c.bindPattern(arm.Pattern, scrutType)
			if arm.HasGuard {
				c.checkExpr(arm.Guard, &itypes.Primitive{Kind: itypes.PrimBool})
			}
			c.checkExpr(arm.Body, expected)
		}
		lowering := c.dt.Compile(e.Scrutinee, e.Arms, span)
		c.ext.SetMatchLowering(id, lowering)

	case *cst.HandleExpr:
		c.accumulate(diagnostics.KindUnimplemented, span, "effect handlers are not yet implemented")
		c.checkExpr(e.Body, expected)
		for _, arm := range e.Arms {
			for _, p := range arm.Params {
				c.bindPattern(p, c.freshVar())
			}
			c.checkExpr(arm.Body, c.freshVar())
		}

	case *cst.ReferenceExpr:
		elem := c.freshVar()
		mutability := itypes.Immutable
		if e.Mutable {
			mutability = itypes.Mutable
		}
		sharing := itypes.Owned
		if e.Shared {
			sharing = itypes.Shared
		}
		c.unify(expected, &itypes.ReferenceType{Mutability: mutability, Sharing: sharing, Elem: elem}, span, diagnostics.ReferenceKind)
		c.checkExpr(e.Inner, elem)

	case *cst.TypeAnnotationExpr:
		at := c.resolveTypeAnnotation(c.ctx, e.Type, c.generic)
		c.unify(expected, at, span, diagnostics.TypeAnnotationMismatch)
		c.checkExpr(e.Inner, at)

	case *cst.ConstructorExpr:
		c.checkConstructorExpr(e, expected, span)

	case *cst.QuotedExpr:
		c.accumulate(diagnostics.KindUnimplemented, span, "quoted expressions are not yet implemented")
		c.checkExpr(e.Inner, c.freshVar())

	case *cst.ErrorExpr:
		// Already diagnosed upstream (parse/resolve); nothing further to check.
	}
}

func (c *checker) checkVariable(e *cst.VariableExpr, expected itypes.Type, span ast.Span) {
	origin, ok := c.res.PathOrigins[e.Path]
	if !ok {
		return
	}
	switch origin.Kind {
	case resolve.OriginLocal:
		t, ok := c.locals[origin.Local]
		if !ok {
			t = c.freshVar()
			c.locals[origin.Local] = t
		}
		c.unify(expected, t, span, diagnostics.General)

	case resolve.OriginTopLevelDefinition:
		c.unify(expected, c.typeOfTopLevel(origin.TopName.Item), span, diagnostics.General)

	case resolve.OriginBuiltin:
		c.unify(expected, itypes.BuiltinType(origin.Builtin), span, diagnostics.General)

	case resolve.OriginTypeResolution:
		name := c.ctx.Path(e.Path).Last()
		item, variant, ok := c.resolveVariantForExpected(name, expected)
		if !ok {
			return
		}
		fn, ret := c.constructorType(item, variant)
		c.unify(expected, ret, span, diagnostics.ConstructorKind)
		if len(fn.Parameters) != 0 {
			c.accumulate(diagnostics.KindFunctionArgCountMismatch, span,
				fmt.Sprintf("%s expects %d argument(s), got 0", name, len(fn.Parameters)))
		}

	case resolve.OriginUnresolved:
		// Resolver already reported this; avoid a cascading mismatch.
	}
}

// typeOfTopLevel answers "what type does this already-resolved top-level reference
// have", either by sharing this SCC's own placeholder variable (when the reference is
// to another member of the same SCC, not yet generalized) or by instantiating an
// already-generalized type looked up from an earlier SCC (spec.md §4.5: SCCs are
// checked in post-order, so an earlier SCC's members are always already generalized).
func (c *checker) typeOfTopLevel(id ids.TopLevelId) itypes.Type {
	if v, ok := c.itemVars[id]; ok {
		return &itypes.Variable{Id: v}
	}
	if c.lookup != nil {
		if g, ok := c.lookup(id); ok {
			return itypes.Instantiate(c.bindings, g)
		}
	}
	return &itypes.Primitive{Kind: itypes.PrimError}
}

func (c *checker) checkCall(e *cst.CallExpr, id ids.ExprId, expected itypes.Type, span ast.Span) {
	if c.checkConstructorCall(e, id, expected, span) {
		return
	}

	calleeVar := c.freshVar()
	c.checkExpr(e.Callee, calleeVar)
	resolved := c.bindings.Resolve(calleeVar)

	if fn, ok := resolved.(*itypes.Function); ok {
		if len(fn.Parameters) != len(e.Args) {
			c.accumulate(diagnostics.KindFunctionArgCountMismatch, span,
				fmt.Sprintf("expected %d argument(s), got %d", len(fn.Parameters), len(e.Args)))
			for _, a := range e.Args {
				c.checkExpr(a, c.freshVar())
			}
			return
		}
		for i, a := range e.Args {
			c.checkExpr(a, fn.Parameters[i].Typ)
		}
		c.unify(expected, fn.Return, span, diagnostics.General)
		return
	}

	argTypes := make([]itypes.ParameterType, len(e.Args))
	for i, a := range e.Args {
		at := c.freshVar()
		c.checkExpr(a, at)
		argTypes[i] = itypes.ParameterType{Typ: at}
	}
	fnType := &itypes.Function{Parameters: argTypes, Return: expected, Effects: c.freshVar()}
	c.unify(calleeVar, fnType, span, diagnostics.General)
}

// checkConstructorCall implements spec.md §4.6.1: a call whose callee is a bare
// uppercase name the resolver deferred to type inference is a sum-type constructor
// application. Unifying the constructor's return type against expected *before*
// descending into the arguments is what lets an outer annotation (`let o : Option I32
// = Some 1`) pin down which variant's fields the arguments are checked against.
func (c *checker) checkConstructorCall(e *cst.CallExpr, id ids.ExprId, expected itypes.Type, span ast.Span) bool {
	ve, ok := c.ctx.Expr(e.Callee).(*cst.VariableExpr)
	if !ok {
		return false
	}
	origin, ok := c.res.PathOrigins[ve.Path]
	if !ok || origin.Kind != resolve.OriginTypeResolution {
		return false
	}
	name := c.ctx.Path(ve.Path).Last()
	item, variant, ok := c.resolveVariantForExpected(name, expected)
	if !ok {
		return false
	}
	fn, ret := c.constructorType(item, variant)
	c.setExprType(e.Callee, fn)
	c.unify(expected, ret, span, diagnostics.ConstructorKind)

	if len(fn.Parameters) != len(e.Args) {
		c.accumulate(diagnostics.KindFunctionArgCountMismatch, span,
			fmt.Sprintf("%s expects %d argument(s), got %d", name, len(fn.Parameters), len(e.Args)))
		for _, a := range e.Args {
			c.checkExpr(a, c.freshVar())
		}
		return true
	}
	for i, a := range e.Args {
		c.checkExpr(a, fn.Parameters[i].Typ)
	}
	return true
}

func (c *checker) checkLambda(e *cst.LambdaExpr, id ids.ExprId, expected itypes.Type, span ast.Span) {
	params := make([]itypes.ParameterType, len(e.Params))
	for i, p := range e.Params {
		var pt itypes.Type
		if i < len(e.ParamAnnotations) && e.ParamAnnotations[i] != 0 {
			pt = c.resolveTypeAnnotation(c.ctx, e.ParamAnnotations[i], c.generic)
		} else {
			pt = c.freshVar()
		}
		c.bindPattern(p, pt)
		params[i] = itypes.ParameterType{Typ: pt}
	}

	var ret itypes.Type
	if e.HasReturnAnno {
		ret = c.resolveTypeAnnotation(c.ctx, e.ReturnAnnotation, c.generic)
	} else {
		ret = c.freshVar()
	}

	effRow := &itypes.EffectRow{Tail: &itypes.Variable{Id: c.bindings.Fresh()}}
	fn := &itypes.Function{Parameters: params, Return: ret, Effects: effRow}
	c.unify(expected, fn, span, diagnostics.LambdaKind)
	c.checkExpr(e.Body, ret)
	c.setExprType(id, fn)
}

func (c *checker) checkMember(e *cst.MemberExpr, expected itypes.Type, span ast.Span) {
	objType := c.freshVar()
	c.checkExpr(e.Object, objType)
	resolved := c.bindings.Resolve(objType)

	item, ok := c.recordItemOf(resolved)
	if !ok {
		return
	}
	for _, f := range item.Fields {
		if f.Name != e.Field {
			continue
		}
		subst := c.genericSubstFor(resolved, item)
		ft := c.resolveTypeAnnotation(item.Context, f.Type, subst)
		c.unify(expected, ft, span, diagnostics.General)
		return
	}
	c.accumulate(diagnostics.KindConstructorFieldUnknown, span, fmt.Sprintf("no field %q", e.Field))
}

func (c *checker) checkConstructorExpr(e *cst.ConstructorExpr, expected itypes.Type, span ast.Span) {
	name := c.ctx.Path(e.Path).Last()
	item, ok := c.itemByName(name)
	if !ok || item.Kind != cst.ItemTypeDefinition || len(item.Fields) == 0 {
		c.accumulate(diagnostics.KindConstructorNotAStruct, span, fmt.Sprintf("%q is not a record type", name))
		for _, f := range e.Fields {
			c.checkExpr(f.Value, c.freshVar())
		}
		return
	}

	subst := make(map[string]itypes.Type, len(item.Generics))
	for _, g := range item.Generics {
		subst[g] = c.freshVar()
	}
	fieldTypes := make(map[string]itypes.Type, len(item.Fields))
	for _, f := range item.Fields {
		fieldTypes[f.Name] = c.resolveTypeAnnotation(item.Context, f.Type, subst)
	}

	var ret itypes.Type = &itypes.UserDefined{Name: item.TypeName, Item: item.Id}
	if len(item.Generics) > 0 {
		args := make([]itypes.Type, len(item.Generics))
		for i, g := range item.Generics {
			args[i] = subst[g]
		}
		ret = &itypes.Application{Constructor: ret, Arguments: args}
	}
	c.unify(expected, ret, span, diagnostics.ConstructorKind)

	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		ft, ok := fieldTypes[f.Name]
		if !ok {
			c.accumulate(diagnostics.KindConstructorFieldUnknown, span, fmt.Sprintf("%s has no field %q", name, f.Name))
			ft = c.freshVar()
		} else if seen[f.Name] {
			c.accumulate(diagnostics.KindConstructorFieldDup, span, fmt.Sprintf("duplicate field %q", f.Name))
		}
		seen[f.Name] = true
		c.checkExpr(f.Value, ft)
	}
	for fname := range fieldTypes {
		if !seen[fname] {
			c.accumulate(diagnostics.KindConstructorFieldMissing, span, fmt.Sprintf("missing field %q in %s", fname, name))
		}
	}
}

// constructorType builds the function type a sum-variant constructor has: one fresh
// type variable per the defining type's generics, substituted through each field
// annotation, returning the (possibly applied) UserDefined type.
func (c *checker) constructorType(item *cst.TopLevelItem, variant cst.TypeVariant) (*itypes.Function, itypes.Type) {
	subst := make(map[string]itypes.Type, len(item.Generics))
	for _, g := range item.Generics {
		subst[g] = c.freshVar()
	}
	params := make([]itypes.ParameterType, len(variant.Fields))
	for i, fieldPath := range variant.Fields {
		params[i] = itypes.ParameterType{Typ: c.resolveTypeAnnotation(item.Context, fieldPath, subst)}
	}
	var ret itypes.Type = &itypes.UserDefined{Name: item.TypeName, Item: item.Id}
	if len(item.Generics) > 0 {
		args := make([]itypes.Type, len(item.Generics))
		for i, g := range item.Generics {
			args[i] = subst[g]
		}
		ret = &itypes.Application{Constructor: ret, Arguments: args}
	}
	return &itypes.Function{Parameters: params, Return: ret, Effects: &itypes.EffectRow{}}, ret
}

// resolveVariantForExpected finds the TypeDefinition variant named name, preferring the
// type expected already (deeply) resolves to, and falling back to a program-wide scan
// by name otherwise — the deferred, best-effort resolution spec.md §3.4 describes for
// OriginTypeResolution.
func (c *checker) resolveVariantForExpected(name string, expected itypes.Type) (*cst.TopLevelItem, cst.TypeVariant, bool) {
	resolved := c.bindings.Resolve(expected)
	var target ids.TopLevelId
	hasTarget := false
	switch t := resolved.(type) {
	case *itypes.UserDefined:
		target, hasTarget = t.Item, true
	case *itypes.Application:
		if ud, ok := t.Constructor.(*itypes.UserDefined); ok {
			target, hasTarget = ud.Item, true
		}
	}
	if hasTarget {
		if item, ok := collect.GetItem(c.qc, c.db, target); ok {
			for _, v := range item.Variants {
				if v.Name == name {
					return item, v, true
				}
			}
		}
	}
	return c.findVariant(name)
}

func (c *checker) findVariant(name string) (*cst.TopLevelItem, cst.TypeVariant, bool) {
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](c.qc, c.db, collect.ItemTableKey{})
	for _, item := range table {
		if item.Kind != cst.ItemTypeDefinition {
			continue
		}
		for _, v := range item.Variants {
			if v.Name == name {
				return item, v, true
			}
		}
	}
	return nil, cst.TypeVariant{}, false
}

func (c *checker) recordItemOf(t itypes.Type) (*cst.TopLevelItem, bool) {
	var target ids.TopLevelId
	switch tt := t.(type) {
	case *itypes.UserDefined:
		target = tt.Item
	case *itypes.Application:
		ud, ok := tt.Constructor.(*itypes.UserDefined)
		if !ok {
			return nil, false
		}
		target = ud.Item
	default:
		return nil, false
	}
	item, ok := collect.GetItem(c.qc, c.db, target)
	if !ok || item.Kind != cst.ItemTypeDefinition || len(item.Fields) == 0 {
		return nil, false
	}
	return item, true
}

func (c *checker) genericSubstFor(resolved itypes.Type, item *cst.TopLevelItem) map[string]itypes.Type {
	subst := make(map[string]itypes.Type, len(item.Generics))
	if app, ok := resolved.(*itypes.Application); ok && len(app.Arguments) == len(item.Generics) {
		for i, g := range item.Generics {
			subst[g] = app.Arguments[i]
		}
		return subst
	}
	for _, g := range item.Generics {
		subst[g] = c.freshVar()
	}
	return subst
}
