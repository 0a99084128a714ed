// Package mir's builder implements spec.md §4.8: lowering one type-checked top-level
// item into a map FunctionId → Function. It mirrors internal/infer's checker shape (a
// small struct carrying per-item state, a recursive-descent lowerExpr matching
// checkExpr's own switch over *cst.Expr) and consumes exactly the two things spec.md
// says it should: the type-checked item's ExprTypes/PatTypes/Extended side tables
// (internal/infer's Result) and the item itself (collect.GetItem).
package mir

import (
	"fmt"
	"strconv"

	"github.com/sunholo/ailang/internal/builtins"
	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/extended"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/infer"
	"github.com/sunholo/ailang/internal/itypes"
	"github.com/sunholo/ailang/internal/query"
	"github.com/sunholo/ailang/internal/resolve"
)

// builder holds the state spec.md §4.8 names: "the current function being built, the
// current block, a map Origin → Value for in-scope locals, and a counter of completed
// inner functions". Locals are keyed by ids.NameId rather than the full resolve.Origin
// since that is exactly how internal/infer's own checker.locals is keyed (a NameId is
// already unique within one item), and OriginTopLevelDefinition/OriginBuiltin never need
// a locals-map entry — they're resolved directly by a type switch in lowerVariable.
type builder struct {
	qc  *query.Context
	db  *query.Database
	res *infer.Result

	item  *cst.TopLevelItem
	ctx   *cst.TopLevelContext
	ext   *extended.ExtendedTopLevelContext
	names *resolve.Result

	exprTypes map[ids.ExprId]itypes.Type
	patTypes  map[ids.PatternId]itypes.Type
	bindings  *itypes.TypeBindings

	functions map[ids.FunctionId]*Function
	lambdas   uint32

	fn     *Function
	block  ids.BlockId
	locals map[ids.NameId]Value
}

// BuildItem lowers one already-type-checked top-level item to MIR (spec.md §4.8). res
// must be the infer.Result produced by the TypeCheckSCC call that covers itemId (it may
// cover other items of the same SCC too; only itemId's own slice of it is read here).
func BuildItem(qc *query.Context, db *query.Database, itemId ids.TopLevelId, res *infer.Result) (map[ids.FunctionId]*Function, error) {
	item, ok := collect.GetItem(qc, db, itemId)
	if !ok {
		return nil, fmt.Errorf("mir: unknown item %s", itemId)
	}
	names, err := resolve.Resolve(qc, db, itemId.File, item)
	if err != nil {
		return nil, err
	}

	b := &builder{
		qc: qc, db: db, res: res,
		item: item, ctx: item.Context, ext: res.Extended[itemId], names: names,
		exprTypes: res.ExprTypes[itemId], patTypes: res.PatTypes[itemId], bindings: res.Bindings,
		functions: make(map[ids.FunctionId]*Function),
		locals:    make(map[ids.NameId]Value),
	}

	switch item.Kind {
	case cst.ItemDefinition:
		b.buildDefinition()
	case cst.ItemTypeDefinition:
		b.buildConstructors()
	case cst.ItemExtern, cst.ItemTraitDefinition, cst.ItemEffectDefinition, cst.ItemComptime, cst.ItemTraitImpl:
		// No function body to lower: externs have no MIR (the backend links them by
		// name), trait/effect definitions only declare signatures, comptime is
		// Unimplemented upstream (already diagnosed by internal/infer), and a
		// TraitImpl's methods are themselves independent TopLevelItems checked and
		// built separately.
	}
	return b.functions, nil
}

// BuildAll lowers every item independently and in parallel (spec.md §5: "the MIR
// builder, for example, may run in parallel on every top-level item because each MIR
// build is a pure function of (TypeCheck(item), GetItem(item))"), merging every
// resulting Function map into one.
func BuildAll(qc *query.Context, db *query.Database, itemIds []ids.TopLevelId, results map[ids.TopLevelId]*infer.Result) (map[ids.FunctionId]*Function, error) {
	perItem, err := query.MapParallel(itemIds, func(id ids.TopLevelId) (map[ids.FunctionId]*Function, error) {
		res := results[id]
		if res == nil {
			return nil, fmt.Errorf("mir: no type-check result for item %s", id)
		}
		return BuildItem(qc, db, id, res)
	})
	if err != nil {
		return nil, err
	}
	merged := make(map[ids.FunctionId]*Function)
	for _, fns := range perItem {
		for id, fn := range fns {
			merged[id] = fn
		}
	}
	return merged, nil
}

func (b *builder) definitionName() string {
	if p, ok := b.ctx.Pattern(b.item.Pattern).(*cst.VariablePattern); ok {
		return b.ctx.Name(p.Name).Text
	}
	return "<anon>"
}

// buildDefinition builds the function for an ItemDefinition (spec.md §4.8: "The entry
// block's parameter types are set from the outer lambda's parameters (or empty for a
// non-lambda definition)"). When the definition's own right-hand side is directly a
// lambda (the common `f x y = ...` shape), its parameters become the entry block's own
// parameters instead of being lowered as a separate, nested Function value.
func (b *builder) buildDefinition() {
	fid := ids.FunctionId{TopLevel: b.item.Id, Index: 0}
	fn := NewFunction(fid, b.definitionName())
	b.functions[fid] = fn
	b.fn = fn
	b.block = fn.EntryBlock()

	body := b.item.Rhs
	if lam, ok := b.ctx.Expr(b.item.Rhs).(*cst.LambdaExpr); ok {
		b.bindLambdaParams(lam, fn, fn.EntryBlock())
		body = lam.Body
	}

	ret := b.lowerExpr(body)
	b.fn.Terminate(b.block, &ReturnTerminator{Value: ret})
}

func (b *builder) bindLambdaParams(lam *cst.LambdaExpr, fn *Function, block ids.BlockId) {
	for _, paramPat := range lam.Params {
		pt := b.patTypes[paramPat]
		val := fn.AddParameter(block, pt)
		b.bindPatternValue(paramPat, val)
	}
}

// bindPatternValue binds every name a pattern introduces to val, the MIR Value that
// pattern as a whole matched. A ConstructorPattern is destructured via the same
// IndexTuple/Transmute sequence lowerSwitch uses for a match's Switch cases (spec.md
// §4.8's open question: "a complete implementation must destructure via the same
// variant-extraction sequence used in switch" — applied here too, not just in Switch).
func (b *builder) bindPatternValue(id ids.PatternId, val Value) {
	switch p := b.ctx.Pattern(id).(type) {
	case *cst.VariablePattern:
		b.locals[p.Name] = val

	case *cst.TypeAnnotationPattern:
		b.bindPatternValue(p.Inner, val)

	case *cst.ConstructorPattern:
		name := b.ctx.Path(p.Path).Last()
		item, variant, tag, ok := b.findVariant(name)
		if !ok {
			return
		}
		_ = tag
		subst := b.substFor(b.patTypes[id], item)
		union := b.fn.Emit(b.block, &IndexTupleInstruction{Tuple: val, Index: 1}, nil)
		tupleType := b.variantTupleType(item.Context, variant, subst)
		concrete := b.fn.Emit(b.block, &TransmuteInstruction{Value: union, To: tupleType}, tupleType)
		for i, argPat := range p.Args {
			fieldVal := b.fn.Emit(b.block, &IndexTupleInstruction{Tuple: concrete, Index: i}, nil)
			b.bindPatternValue(argPat, fieldVal)
		}

	case *cst.LiteralPattern, *cst.MethodNamePattern, *cst.ErrorPattern:
		// No names introduced.
	}
}

// lowerExpr is the recursive-descent core of the builder, mirroring internal/infer's
// checkExpr: one case per *cst.Expr variant, each returning the Value the expression
// evaluates to.
func (b *builder) lowerExpr(id ids.ExprId) Value {
	switch e := b.ctx.Expr(id).(type) {
	case *cst.LiteralExpr:
		return b.lowerLiteral(e)

	case *cst.VariableExpr:
		return b.lowerVariable(e)

	case *cst.CallExpr:
		return b.lowerCall(e, id)

	case *cst.LambdaExpr:
		return b.lowerLambda(e)

	case *cst.SequenceExpr:
		return b.lowerSequence(e)

	case *cst.DefinitionExpr:
		return b.lowerDefinition(e)

	case *cst.MemberExpr:
		return b.lowerMember(e, id)

	case *cst.IndexExpr:
		// Dynamic indexing has no instruction in spec.md §3.5's fixed instruction set
		// (IndexTuple takes a constant field index); evaluated for side effects only.
		b.lowerExpr(e.Object)
		b.lowerExpr(e.Index)
		return &ErrorValue{}

	case *cst.IfExpr:
		return b.lowerIf(e, id)

	case *cst.MatchExpr:
		return b.lowerMatch(e, id)

	case *cst.HandleExpr:
		// Effect handlers are Unimplemented upstream (internal/infer already reports
		// it); still walk the body/arms so nested calls get their own Functions built.
		b.lowerExpr(e.Body)
		for _, arm := range e.Arms {
			b.lowerExpr(arm.Body)
		}
		return &ErrorValue{}

	case *cst.ReferenceExpr:
		inner := b.lowerExpr(e.Inner)
		if e.Mutable {
			return b.fn.Emit(b.block, &StackAllocInstruction{Init: inner}, b.exprTypes[id])
		}
		return inner

	case *cst.TypeAnnotationExpr:
		return b.lowerExpr(e.Inner)

	case *cst.ConstructorExpr:
		return b.lowerConstructorExpr(e, id)

	case *cst.QuotedExpr:
		b.lowerExpr(e.Inner)
		return &ErrorValue{}

	case *cst.ErrorExpr:
		return &ErrorValue{}
	}
	return &ErrorValue{}
}

func (b *builder) lowerLiteral(e *cst.LiteralExpr) Value {
	switch e.Kind {
	case cst.IntLit:
		if n, ok := e.Value.(int64); ok {
			return &IntegerValue{IntConstant{Value: n, Kind: itypes.PrimI32}}
		}
		if n, err := strconv.ParseInt(e.Raw, 10, 64); err == nil {
			return &IntegerValue{IntConstant{Value: n, Kind: itypes.PrimI32}}
		}
		return &ErrorValue{}

	case cst.FloatLit:
		if f, ok := e.Value.(float64); ok {
			return &FloatValue{FloatConstant{Value: f, Kind: itypes.PrimF64}}
		}
		if f, err := strconv.ParseFloat(e.Raw, 64); err == nil {
			return &FloatValue{FloatConstant{Value: f, Kind: itypes.PrimF64}}
		}
		return &ErrorValue{}

	case cst.BoolLit:
		if v, ok := e.Value.(bool); ok {
			return &BoolValue{v}
		}
		return &BoolValue{e.Raw == "true"}

	case cst.CharLit:
		if r, ok := e.Value.(rune); ok {
			return &CharValue{r}
		}
		return &ErrorValue{}

	case cst.StringLit:
		if s, ok := e.Value.(string); ok {
			return b.fn.Emit(b.block, &MakeStringInstruction{Value: s}, &itypes.Primitive{Kind: itypes.PrimString})
		}
		return b.fn.Emit(b.block, &MakeStringInstruction{Value: e.Raw}, &itypes.Primitive{Kind: itypes.PrimString})

	case cst.UnitLit:
		return &UnitValue{}
	}
	return &ErrorValue{}
}

func (b *builder) lowerVariable(e *cst.VariableExpr) Value {
	origin, ok := b.names.PathOrigins[e.Path]
	if !ok {
		return &ErrorValue{}
	}
	switch origin.Kind {
	case resolve.OriginLocal:
		if v, ok := b.locals[origin.Local]; ok {
			return v
		}
		return &ErrorValue{}

	case resolve.OriginTopLevelDefinition:
		return &GlobalValue{Name: origin.TopName}

	case resolve.OriginTypeResolution:
		// A bare nullary constructor reference (e.g. `None`), spec.md §4.6.1's deferred
		// path now resolved by the type checker to a concrete variant; calling its
		// synthesized zero-argument constructor function produces the tagged value.
		name := b.ctx.Path(e.Path).Last()
		item, _, tag, ok := b.findVariant(name)
		if !ok {
			return &ErrorValue{}
		}
		fid := ids.FunctionId{TopLevel: item.Id, Index: uint32(tag)}
		return b.fn.Emit(b.block, &CallInstruction{Function: &FunctionValue{Id: fid}}, nil)

	default:
		// OriginBuiltin (a type name used where a value was expected) and
		// OriginUnresolved (already diagnosed) have no runtime value.
		return &ErrorValue{}
	}
}

func (b *builder) lowerCall(e *cst.CallExpr, id ids.ExprId) Value {
	if v, ok := b.lowerConstructorCall(e, id); ok {
		return v
	}
	fnVal := b.lowerExpr(e.Callee)
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.lowerExpr(a)
	}
	return b.fn.Emit(b.block, &CallInstruction{Function: fnVal, Arguments: args}, b.exprTypes[id])
}

// lowerConstructorCall mirrors internal/infer's checkConstructorCall: a call whose
// callee is a bare name the resolver deferred to type inference (Origin::TypeResolution)
// is a sum-type variant constructor application, lowered as a call to that variant's
// synthesized constructor Function rather than a Value::Global lookup.
func (b *builder) lowerConstructorCall(e *cst.CallExpr, id ids.ExprId) (Value, bool) {
	ve, ok := b.ctx.Expr(e.Callee).(*cst.VariableExpr)
	if !ok {
		return nil, false
	}
	origin, ok := b.names.PathOrigins[ve.Path]
	if !ok || origin.Kind != resolve.OriginTypeResolution {
		return nil, false
	}
	name := b.ctx.Path(ve.Path).Last()
	item, _, tag, ok := b.findVariant(name)
	if !ok {
		return nil, false
	}
	fid := ids.FunctionId{TopLevel: item.Id, Index: uint32(tag)}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.lowerExpr(a)
	}
	return b.fn.Emit(b.block, &CallInstruction{Function: &FunctionValue{Id: fid}, Arguments: args}, b.exprTypes[id]), true
}

// lowerLambda lowers a lambda appearing in value position (not directly the right-hand
// side of the enclosing definition, which buildDefinition already special-cases):
// spec.md §4.8 "save current function/block, allocate a new FunctionId, build the new
// function ..., restore, emit Value::Function(id)".
func (b *builder) lowerLambda(e *cst.LambdaExpr) Value {
	outerFn, outerBlock := b.fn, b.block
	savedLocals := b.locals
	b.locals = copyLocals(savedLocals)

	fid := ids.FunctionId{TopLevel: b.item.Id, Index: 1 + b.lambdas}
	b.lambdas++
	fn := NewFunction(fid, fmt.Sprintf("%s$lambda%d", b.definitionName(), fid.Index))
	b.functions[fid] = fn
	b.fn = fn
	b.block = fn.EntryBlock()

	b.bindLambdaParams(e, fn, fn.EntryBlock())
	ret := b.lowerExpr(e.Body)
	b.fn.Terminate(b.block, &ReturnTerminator{Value: ret})

	b.fn, b.block, b.locals = outerFn, outerBlock, savedLocals
	return &FunctionValue{Id: fid}
}

func copyLocals(m map[ids.NameId]Value) map[ids.NameId]Value {
	out := make(map[ids.NameId]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (b *builder) lowerSequence(e *cst.SequenceExpr) Value {
	if len(e.Exprs) == 0 {
		return &UnitValue{}
	}
	var last Value = &UnitValue{}
	for _, x := range e.Exprs {
		last = b.lowerExpr(x)
	}
	return last
}

// lowerDefinition lowers a `let`/`let mut` sequence element (spec.md §4.8: "Definition
// (mutable) → value is wrapped in StackAlloc and stored in the locals map as a
// pointer").
func (b *builder) lowerDefinition(e *cst.DefinitionExpr) Value {
	v := b.lowerExpr(e.Value)
	if e.Mutable {
		v = b.fn.Emit(b.block, &StackAllocInstruction{Init: v}, b.patTypes[e.Pattern])
	}
	b.bindPatternValue(e.Pattern, v)
	return &UnitValue{}
}

func (b *builder) lowerMember(e *cst.MemberExpr, id ids.ExprId) Value {
	objVal := b.lowerExpr(e.Object)
	objType := b.resolveDeep(b.exprTypes[e.Object])
	item, _, ok := b.recordOf(objType)
	if !ok {
		return &ErrorValue{}
	}
	for i, f := range item.Fields {
		if f.Name != e.Field {
			continue
		}
		return b.fn.Emit(b.block, &IndexTupleInstruction{Tuple: objVal, Index: i}, b.exprTypes[id])
	}
	return &ErrorValue{}
}

// lowerConstructorExpr lowers a record literal (spec.md §4.8: "Constructor expression →
// evaluate fields in source order, reorder by declared position, MakeTuple(values)").
func (b *builder) lowerConstructorExpr(e *cst.ConstructorExpr, id ids.ExprId) Value {
	name := b.ctx.Path(e.Path).Last()
	item, ok := b.itemByName(name)
	if !ok || item.Kind != cst.ItemTypeDefinition || len(item.Fields) == 0 {
		for _, f := range e.Fields {
			b.lowerExpr(f.Value)
		}
		return &ErrorValue{}
	}
	values := make(map[string]Value, len(e.Fields))
	for _, f := range e.Fields {
		values[f.Name] = b.lowerExpr(f.Value)
	}
	ordered := make([]Value, len(item.Fields))
	for i, f := range item.Fields {
		if v, ok := values[f.Name]; ok {
			ordered[i] = v
		} else {
			ordered[i] = &ErrorValue{}
		}
	}
	return b.fn.Emit(b.block, &MakeTupleInstruction{Elements: ordered}, b.exprTypes[id])
}

// lowerIf implements spec.md §4.8's If recipe verbatim: three blocks, the current block
// terminated with If, each arm terminated with Jmp(end, [value]), end carrying a single
// parameter typed to the if's own result.
func (b *builder) lowerIf(e *cst.IfExpr, id ids.ExprId) Value {
	thenBlock := b.fn.AddBlock()
	elseBlock := b.fn.AddBlock()
	endBlock := b.fn.AddBlock()

	cond := b.lowerExpr(e.Cond)
	cur := b.block
	b.fn.Terminate(cur, &IfTerminator{Condition: cond, Then: thenBlock, Else: elseBlock, End: endBlock})

	b.block = thenBlock
	thenVal := b.lowerExpr(e.Then)
	b.fn.Terminate(b.block, &JmpTerminator{Target: endBlock, Args: []Value{thenVal}})

	b.block = elseBlock
	var elseVal Value = &UnitValue{}
	if e.HasElse {
		elseVal = b.lowerExpr(e.Else)
	}
	b.fn.Terminate(b.block, &JmpTerminator{Target: endBlock, Args: []Value{elseVal}})

	b.block = endBlock
	return b.fn.AddParameter(endBlock, b.exprTypes[id])
}

// lowerMatch implements spec.md §4.7/§4.8's match recipe: bind the scrutinee, then walk
// the already-compiled DecisionTree (internal/extended, internal/dtree), converging
// every arm on one end block exactly like lowerIf.
func (b *builder) lowerMatch(e *cst.MatchExpr, id ids.ExprId) Value {
	lowering, ok := b.ext.MatchLoweringFor(id)
	if !ok {
		return &ErrorValue{}
	}
	scrutineeVal := b.lowerExpr(e.Scrutinee)

	bodyToArm := make(map[ids.ExprId]int, len(e.Arms))
	for i, arm := range e.Arms {
		bodyToArm[arm.Body] = i
	}
	pathValues := map[ids.PathId]Value{lowering.ScrutineePath: scrutineeVal}
	pathTypes := map[ids.PathId]itypes.Type{lowering.ScrutineePath: b.exprTypes[e.Scrutinee]}

	endBlock := b.fn.AddBlock()
	resultType := b.exprTypes[id]
	b.lowerDecisionTree(lowering.Tree, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)

	b.block = endBlock
	return b.fn.AddParameter(endBlock, resultType)
}

// lowerDecisionTree lowers one extended.DecisionTree node into b.block, terminating it
// (and any block it creates) so that every leaf reaches endBlock carrying the match's
// result value — the same single-entry/single-terminator discipline lowerIf uses.
func (b *builder) lowerDecisionTree(
	tree extended.DecisionTree,
	lowering *extended.MatchLowering,
	pathValues map[ids.PathId]Value,
	pathTypes map[ids.PathId]itypes.Type,
	bodyToArm map[ids.ExprId]int,
	endBlock ids.BlockId,
	resultType itypes.Type,
) {
	switch t := tree.(type) {
	case *extended.Success:
		b.bindArm(t.Body, lowering, pathValues, bodyToArm)
		val := b.lowerExpr(t.Body)
		b.fn.Terminate(b.block, &JmpTerminator{Target: endBlock, Args: []Value{val}})

	case *extended.Failure:
		b.fn.Terminate(b.block, &UnreachableTerminator{})

	case *extended.Guard:
		b.bindArm(t.Then, lowering, pathValues, bodyToArm)
		cond := b.lowerExpr(t.Condition)
		thenBlock := b.fn.AddBlock()
		elseBlock := b.fn.AddBlock()
		cur := b.block
		b.fn.Terminate(cur, &IfTerminator{Condition: cond, Then: thenBlock, Else: elseBlock, End: endBlock})

		b.block = thenBlock
		thenVal := b.lowerExpr(t.Then)
		b.fn.Terminate(b.block, &JmpTerminator{Target: endBlock, Args: []Value{thenVal}})

		b.block = elseBlock
		b.lowerDecisionTree(t.Else, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)

	case *extended.Switch:
		b.lowerSwitch(t, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)
	}
}

func (b *builder) bindArm(body ids.ExprId, lowering *extended.MatchLowering, pathValues map[ids.PathId]Value, bodyToArm map[ids.ExprId]int) {
	armIdx, ok := bodyToArm[body]
	if !ok {
		return
	}
	for name, path := range lowering.ArmBindings[armIdx] {
		if v, ok := pathValues[path]; ok {
			b.locals[name] = v
		}
	}
}

// lowerSwitch lowers an extended.Switch. Two shapes are soundly expressible with
// spec.md §3.5's fixed instruction set: a sum-type tag switch (IndexTuple extracts the
// tag, each case Transmutes the erased union back to the variant's concrete field
// tuple) and a two-way bool switch (the scrutinee's own Bool value doubles as the
// dispatch key, since false/true already encode 0/1). A Switch compiled over any other
// literal kind has no sound lowering here: spec.md's Instruction set has no
// equality/comparison instruction, so there is no way to turn "does this Int/String/Char
// equal this case's literal" into a Switch whose cases carry no comparison key of their
// own — that path is terminated Unreachable rather than silently guessing.
func (b *builder) lowerSwitch(
	sw *extended.Switch,
	lowering *extended.MatchLowering,
	pathValues map[ids.PathId]Value,
	pathTypes map[ids.PathId]itypes.Type,
	bodyToArm map[ids.ExprId]int,
	endBlock ids.BlockId,
	resultType itypes.Type,
) {
	scrutVal, scrutOk := pathValues[sw.Scrutinee]
	scrutType, typeOk := pathTypes[sw.Scrutinee]
	cur := b.block
	if !scrutOk || !typeOk {
		b.fn.Terminate(cur, &UnreachableTerminator{})
		return
	}
	scrutType = b.resolveDeep(scrutType)

	if item, variants, subst, ok := b.sumTypeOf(scrutType); ok {
		tagVal := b.fn.Emit(cur, &IndexTupleInstruction{Tuple: scrutVal, Index: 0}, &itypes.Primitive{Kind: itypes.PrimI32})
		unionVal := b.fn.Emit(cur, &IndexTupleInstruction{Tuple: scrutVal, Index: 1}, nil)

		byName := make(map[string]extended.Case, len(sw.Cases))
		for _, c := range sw.Cases {
			byName[c.Constructor] = c
		}

		hasDefault := sw.Default != nil
		var defaultBlock ids.BlockId
		if hasDefault {
			defaultBlock = b.fn.AddBlock()
		}

		cases := make([]SwitchCase, len(variants))
		for i, v := range variants {
			c, has := byName[v.Name]
			if !has {
				if hasDefault {
					cases[i] = SwitchCase{Block: defaultBlock}
				} else {
					unreachable := b.fn.AddBlock()
					b.fn.Terminate(unreachable, &UnreachableTerminator{})
					cases[i] = SwitchCase{Block: unreachable}
				}
				continue
			}
			caseBlock := b.fn.AddBlock()
			b.block = caseBlock
			if len(c.Arguments) > 0 {
				tupleType := b.variantTupleType(item.Context, v, subst)
				concrete := b.fn.Emit(caseBlock, &TransmuteInstruction{Value: unionVal, To: tupleType}, tupleType)
				for fi, argPath := range c.Arguments {
					fv := b.fn.Emit(caseBlock, &IndexTupleInstruction{Tuple: concrete, Index: fi}, nil)
					pathValues[argPath] = fv
					pathTypes[argPath] = b.fieldTypeAnnotation(item.Context, v.Fields[fi], subst)
				}
			}
			b.lowerDecisionTree(c.Body, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)
			cases[i] = SwitchCase{Block: caseBlock}
		}

		if hasDefault {
			b.block = defaultBlock
			b.lowerDecisionTree(sw.Default, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)
		}

		b.fn.Terminate(cur, &SwitchTerminator{IntValue: tagVal, Cases: cases, End: endBlock})
		return
	}

	if isBoolType(scrutType) {
		var trueCase, falseCase *extended.Case
		for i := range sw.Cases {
			switch sw.Cases[i].Constructor {
			case "true":
				trueCase = &sw.Cases[i]
			case "false":
				falseCase = &sw.Cases[i]
			}
		}
		falseBlock := b.fn.AddBlock()
		trueBlock := b.fn.AddBlock()

		b.block = falseBlock
		b.lowerLiteralArm(falseCase, sw.Default, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType, falseBlock)

		b.block = trueBlock
		b.lowerLiteralArm(trueCase, sw.Default, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType, trueBlock)

		b.fn.Terminate(cur, &SwitchTerminator{
			IntValue: scrutVal,
			Cases:    []SwitchCase{{Block: falseBlock}, {Block: trueBlock}},
			End:      endBlock,
		})
		return
	}

	b.fn.Terminate(cur, &UnreachableTerminator{})
}

func (b *builder) lowerLiteralArm(
	c *extended.Case,
	def extended.DecisionTree,
	lowering *extended.MatchLowering,
	pathValues map[ids.PathId]Value,
	pathTypes map[ids.PathId]itypes.Type,
	bodyToArm map[ids.ExprId]int,
	endBlock ids.BlockId,
	resultType itypes.Type,
	block ids.BlockId,
) {
	switch {
	case c != nil:
		b.lowerDecisionTree(c.Body, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)
	case def != nil:
		b.lowerDecisionTree(def, lowering, pathValues, pathTypes, bodyToArm, endBlock, resultType)
	default:
		b.fn.Terminate(block, &UnreachableTerminator{})
	}
}

func isBoolType(t itypes.Type) bool {
	p, ok := t.(*itypes.Primitive)
	return ok && p.Kind == itypes.PrimBool
}

// resolveDeep follows t's shallow variable binding (itypes.TypeBindings.Resolve already
// walks a whole chain of bound *Variables down to a non-variable type or unbound
// variable) and then recurses structurally into an Application's own arguments, which
// Resolve does not do. internal/itypes keeps the equivalent deep-substitution helper
// unexported (generalize.go's resolveDeep), so this is a small local duplicate scoped to
// what the builder needs: resolving a field/variant/member type down to something
// sumTypeOf/recordOf can pattern-match on.
func (b *builder) resolveDeep(t itypes.Type) itypes.Type {
	if t == nil {
		return t
	}
	r := b.bindings.Resolve(t)
	app, ok := r.(*itypes.Application)
	if !ok {
		return r
	}
	args := make([]itypes.Type, len(app.Arguments))
	for i, a := range app.Arguments {
		args[i] = b.resolveDeep(a)
	}
	return &itypes.Application{Constructor: b.resolveDeep(app.Constructor), Arguments: args}
}

func (b *builder) freshVar() itypes.Type {
	return &itypes.Variable{Id: b.bindings.Fresh()}
}

// typeByName and itemByName duplicate internal/infer's checker methods of the same
// name (see internal/infer/infer.go) — the program-wide item table scan for resolving a
// type-position name to its TopLevelId/TopLevelItem. Kept as an independent, scoped-down
// copy rather than an import since the checker's version is unexported and tied to
// *checker rather than *builder.
func (b *builder) typeByName(name string) (ids.TopLevelId, bool) {
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](b.qc, b.db, collect.ItemTableKey{})
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

func (b *builder) itemByName(name string) (*cst.TopLevelItem, bool) {
	id, ok := b.typeByName(name)
	if !ok {
		return nil, false
	}
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](b.qc, b.db, collect.ItemTableKey{})
	item, ok := table[id]
	return item, ok
}

// findVariant scans the program-wide item table for a sum-type variant named name,
// returning its declaring TypeDefinition item, the variant itself, and its 0-based tag
// (its position in item.Variants — the same position buildConstructors uses to key that
// variant's synthesized constructor FunctionId and the value Switch dispatch compares
// against).
func (b *builder) findVariant(name string) (*cst.TopLevelItem, cst.TypeVariant, int, bool) {
	table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](b.qc, b.db, collect.ItemTableKey{})
	for _, item := range table {
		if item.Kind != cst.ItemTypeDefinition {
			continue
		}
		for i, v := range item.Variants {
			if v.Name == name {
				return item, v, i, true
			}
		}
	}
	return nil, cst.TypeVariant{}, 0, false
}

// substFor mirrors internal/infer's checker.genericSubstFor: recover item's generic
// parameters' concrete arguments from resolved if it's an Application over item's own
// generic count, otherwise hand out fresh type variables (the occurrence is in
// unreachable/dead code, so the exact type no longer matters).
func (b *builder) substFor(resolved itypes.Type, item *cst.TopLevelItem) map[string]itypes.Type {
	subst := make(map[string]itypes.Type, len(item.Generics))
	if app, ok := resolved.(*itypes.Application); ok && len(app.Arguments) == len(item.Generics) {
		for i, g := range item.Generics {
			subst[g] = app.Arguments[i]
		}
		return subst
	}
	for _, g := range item.Generics {
		subst[g] = b.freshVar()
	}
	return subst
}

// recordOf mirrors internal/infer's checker.recordItemOf: t names a record-shaped
// TypeDefinition (non-empty Fields), used by lowerMember to look up a field's index.
func (b *builder) recordOf(t itypes.Type) (*cst.TopLevelItem, map[string]itypes.Type, bool) {
	t = b.resolveDeep(t)
	target, ok := topLevelOf(t)
	if !ok {
		return nil, nil, false
	}
	item, ok := collect.GetItem(b.qc, b.db, target)
	if !ok || item.Kind != cst.ItemTypeDefinition || len(item.Fields) == 0 {
		return nil, nil, false
	}
	return item, b.substFor(t, item), true
}

// sumTypeOf is recordOf's counterpart for a variant-shaped TypeDefinition (non-empty
// Variants), used by lowerSwitch to decide whether a Switch's scrutinee is a
// constructor-tag dispatch.
func (b *builder) sumTypeOf(t itypes.Type) (*cst.TopLevelItem, []cst.TypeVariant, map[string]itypes.Type, bool) {
	t = b.resolveDeep(t)
	target, ok := topLevelOf(t)
	if !ok {
		return nil, nil, nil, false
	}
	item, ok := collect.GetItem(b.qc, b.db, target)
	if !ok || item.Kind != cst.ItemTypeDefinition || len(item.Variants) == 0 {
		return nil, nil, nil, false
	}
	return item, item.Variants, b.substFor(t, item), true
}

func topLevelOf(t itypes.Type) (ids.TopLevelId, bool) {
	switch tt := t.(type) {
	case *itypes.UserDefined:
		return tt.Item, true
	case *itypes.Application:
		if ud, ok := tt.Constructor.(*itypes.UserDefined); ok {
			return ud.Item, true
		}
	}
	return ids.TopLevelId{}, false
}

// buildConstructors synthesizes one Function per variant of a type-definition item
// (spec.md §4.8: "Type-definitions synthesize a constructor function per variant: entry
// block takes one parameter per field, returns a MakeTuple"), keyed by the variant's
// 0-based position (matching findVariant/lowerSwitch's own tag numbering). The runtime
// representation decided on here is (tag, union): the outer MakeTuple pairs an integer
// tag with an inner MakeTuple of the variant's own fields, reusing itypes.PrimPair (the
// existing n-ary tuple-type primitive) as the generic "union of all variants' field
// tuples" type head — see DESIGN.md for why this specific shape reconciles spec.md's
// constructor-synthesis sentence with its separate (tag, union) switch-dispatch
// phrasing.
func (b *builder) buildConstructors() {
	for tag, v := range b.item.Variants {
		fid := ids.FunctionId{TopLevel: b.item.Id, Index: uint32(tag)}
		fn := NewFunction(fid, b.item.TypeName+"."+v.Name)
		b.functions[fid] = fn
		entry := fn.EntryBlock()

		subst := make(map[string]itypes.Type, len(b.item.Generics))
		for _, g := range b.item.Generics {
			subst[g] = b.freshVar()
		}

		fieldVals := make([]Value, len(v.Fields))
		for i, fp := range v.Fields {
			ft := b.fieldTypeAnnotation(b.item.Context, fp, subst)
			fieldVals[i] = fn.AddParameter(entry, ft)
		}
		union := fn.Emit(entry, &MakeTupleInstruction{Elements: fieldVals}, nil)
		tagVal := &IntegerValue{IntConstant{Value: int64(tag), Kind: itypes.PrimI32}}
		outer := fn.Emit(entry, &MakeTupleInstruction{Elements: []Value{tagVal, union}}, nil)
		fn.Terminate(entry, &ReturnTerminator{Value: outer})
	}
}

// variantTupleType builds the concrete field-tuple type a Switch case Transmutes a
// variant's erased union payload to before indexing its fields.
func (b *builder) variantTupleType(ctx *cst.TopLevelContext, v cst.TypeVariant, subst map[string]itypes.Type) itypes.Type {
	fields := make([]itypes.Type, len(v.Fields))
	for i, fp := range v.Fields {
		fields[i] = b.fieldTypeAnnotation(ctx, fp, subst)
	}
	return &itypes.Application{Constructor: &itypes.Primitive{Kind: itypes.PrimPair}, Arguments: fields}
}

var primitivesByName = map[string]itypes.PrimitiveType{
	"I8": itypes.PrimI8, "I16": itypes.PrimI16, "I32": itypes.PrimI32, "I64": itypes.PrimI64, "Isz": itypes.PrimIsz,
	"U8": itypes.PrimU8, "U16": itypes.PrimU16, "U32": itypes.PrimU32, "U64": itypes.PrimU64, "Usz": itypes.PrimUsz,
	"F32": itypes.PrimF32, "F64": itypes.PrimF64,
	"Bool": itypes.PrimBool, "Char": itypes.PrimChar, "String": itypes.PrimString,
	"Unit": itypes.PrimUnit, "Ptr": itypes.PrimPointer,
}

// fieldTypeAnnotation duplicates internal/infer's checker.resolveTypeAnnotation (same
// file-level doc comment there explains the scope: primitives, built-ins,
// lowercase-initial generics, and a program-wide type-name fallback, never a full crate
// graph walk). Unexported there and tied to *checker, so the builder keeps a small copy
// scoped to resolving one field/variant/return annotation at a time.
func (b *builder) fieldTypeAnnotation(ctx *cst.TopLevelContext, id ids.PathId, generics map[string]itypes.Type) itypes.Type {
	name := ctx.Path(id).Last()
	if prim, ok := primitivesByName[name]; ok {
		return &itypes.Primitive{Kind: prim}
	}
	if bi, ok := builtins.LookupBuiltin(name); ok {
		return itypes.BuiltinType(bi)
	}
	if isLowercaseIdent(name) {
		if t, ok := generics[name]; ok {
			return t
		}
		t := b.freshVar()
		generics[name] = t
		return t
	}
	if target, ok := b.typeByName(name); ok {
		return &itypes.UserDefined{Name: name, Item: target}
	}
	return &itypes.Primitive{Kind: itypes.PrimError}
}

func isLowercaseIdent(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= 'a' && s[0] <= 'z'
}
