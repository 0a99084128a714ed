package cst

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/ids"
)

// FromFile lowers a parsed ast.File (the teacher's external-collaborator parser output)
// into the arena-indexed Cst this compiler's core passes operate on. Building the CST
// from source text is explicitly out of scope (spec.md §1); this is the one adaptation
// seam between that external collaborator and everything downstream.
func FromFile(file *ast.File, sourceFile ids.SourceFileId) (*Cst, error) {
	out := &Cst{File: sourceFile, Path: file.Path}

	for _, imp := range file.Imports {
		out.Imports = append(out.Imports, Import{
			Path:    imp.Path,
			Symbols: imp.Symbols,
			Span:    ast.Span{Start: imp.Pos, End: imp.Pos},
		})
	}

	for _, fn := range file.Funcs {
		item, err := lowerFuncDecl(fn, sourceFile)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, item)
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.TypeDecl:
			item, err := lowerTypeDecl(d, sourceFile)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		case *ast.TypeClass:
			out.Items = append(out.Items, lowerTypeClass(d, sourceFile))
		case *ast.Instance:
			item, err := lowerInstance(d, sourceFile)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		case *ast.FuncDecl:
			// Already lowered above via file.Funcs — the parser duplicates every
			// top-level function into both slices for backward compatibility.
		}
	}

	return out, nil
}

// contentHash is, like internal/sid's NewSID, a truncated crypto/sha256 over
// "|"-joined fields, but it hashes crate | module | kind | text (the whole rendered item
// text in one shot) instead of sid's path, offsets, kind and child-path components,
// since a TopLevelId only needs to distinguish whole top-level items, not arbitrary
// sub-nodes.
func contentHash(sourceFile ids.SourceFileId, kind, text string) uint64 {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%s", sourceFile.Crate, sourceFile.Module, kind, text)
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

func lowerFuncDecl(fn *ast.FuncDecl, sf ids.SourceFileId) (TopLevelItem, error) {
	ctx := NewTopLevelContext()
	span := fn.Span
	if span.Start == (ast.Pos{}) {
		span = ast.Span{Start: fn.Pos, End: fn.Pos}
	}

	nameId := ctx.AddName(Name{Text: fn.Name}, span)
	patId := ctx.AddPattern(&VariablePattern{Name: nameId}, span)

	bodyId, err := lowerExpr(ctx, fn.Body)
	if err != nil {
		return TopLevelItem{}, err
	}
	// Curry parameters into a Lambda wrapping the body, matching the teacher's own
	// FuncDecl→Lambda desugaring intent (FuncLit "desugars to Lambda in the elaboration
	// phase", per ast.go's FuncLit doc comment).
	rhs := bodyId
	if len(fn.Params) > 0 {
		params := make([]ids.PatternId, len(fn.Params))
		paramAnnos := make([]ids.PathId, len(fn.Params))
		for i, p := range fn.Params {
			pid := ctx.AddName(Name{Text: p.Name}, span)
			params[i] = ctx.AddPattern(&VariablePattern{Name: pid}, span)
			if p.Type != nil {
				paramAnnos[i] = lowerTypeHead(ctx, p.Type, span)
			}
		}
		var retAnno ids.PathId
		hasRet := fn.ReturnType != nil
		if hasRet {
			retAnno = lowerTypeHead(ctx, fn.ReturnType, span)
		}
		rhs = ctx.AddExpr(&LambdaExpr{
			Params:           params,
			ParamAnnotations: paramAnnos,
			ReturnAnnotation: retAnno,
			HasReturnAnno:    hasRet,
			Body:             bodyId,
		}, span)
	}

	text := fmt.Sprintf("func:%s:%v:%s", fn.Name, fn.Params, fn.Body.String())
	item := TopLevelItem{
		Id:      ids.TopLevelId{File: sf, Hash: contentHash(sf, "def", text)},
		Kind:    ItemDefinition,
		Span:    span,
		Context: ctx,
		Pattern: patId,
		Rhs:     rhs,
	}
	return item, nil
}

func lowerTypeDecl(td *ast.TypeDecl, sf ids.SourceFileId) (TopLevelItem, error) {
	ctx := NewTopLevelContext()
	span := ast.Span{Start: td.Pos, End: td.Pos}

	item := TopLevelItem{
		Kind:     ItemTypeDefinition,
		Span:     span,
		Context:  ctx,
		TypeName: td.Name,
		Generics: td.TypeParams,
	}

	switch def := td.Definition.(type) {
	case *ast.AlgebraicType:
		for _, c := range def.Constructors {
			variant := TypeVariant{Name: c.Name}
			for _, f := range c.Fields {
				variant.Fields = append(variant.Fields, lowerTypeHead(ctx, f, span))
			}
			item.Variants = append(item.Variants, variant)
		}
	case *ast.RecordType:
		for _, f := range def.Fields {
			item.Fields = append(item.Fields, TypeField{Name: f.Name, Type: lowerTypeHead(ctx, f.Type, span)})
		}
	case *ast.TypeAlias:
		item.Fields = append(item.Fields, TypeField{Name: "", Type: lowerTypeHead(ctx, def.Target, span)})
	}

	item.Id = ids.TopLevelId{File: sf, Hash: contentHash(sf, "type", td.Name+fmt.Sprint(td.TypeParams))}
	return item, nil
}

func lowerTypeClass(tc *ast.TypeClass, sf ids.SourceFileId) TopLevelItem {
	ctx := NewTopLevelContext()
	span := ast.Span{Start: tc.Pos, End: tc.Pos}
	item := TopLevelItem{
		Kind:      ItemTraitDefinition,
		Span:      span,
		Context:   ctx,
		TraitName: tc.Name,
	}
	for _, m := range tc.Methods {
		item.TraitMethods = append(item.TraitMethods, TraitMethod{Name: m.Name, Signature: lowerTypeHead(ctx, m.Type, span)})
	}
	item.Id = ids.TopLevelId{File: sf, Hash: contentHash(sf, "trait", tc.Name)}
	return item
}

func lowerInstance(inst *ast.Instance, sf ids.SourceFileId) (TopLevelItem, error) {
	ctx := NewTopLevelContext()
	span := ast.Span{Start: inst.Pos, End: inst.Pos}
	item := TopLevelItem{
		Kind:      ItemTraitImpl,
		Span:      span,
		Context:   ctx,
		ImplTrait: ctx.AddPath(Path{Components: strings.Split(inst.ClassName, ".")}, span),
		ImplType:  lowerTypeHead(ctx, inst.Type, span),
	}
	for name, body := range inst.Methods {
		methodCtx := NewTopLevelContext()
		bodyId, err := lowerExpr(methodCtx, body)
		if err != nil {
			return TopLevelItem{}, err
		}
		nameId := methodCtx.AddName(Name{Text: name}, span)
		item.ImplBody = append(item.ImplBody, TopLevelItem{
			Kind:    ItemDefinition,
			Span:    span,
			Context: methodCtx,
			Pattern: methodCtx.AddPattern(&VariablePattern{Name: nameId}, span),
			Rhs:     bodyId,
			Id:      ids.TopLevelId{File: sf, Hash: contentHash(sf, "method", inst.ClassName+"."+name)},
		})
	}
	item.Id = ids.TopLevelId{File: sf, Hash: contentHash(sf, "impl", inst.ClassName+fmt.Sprint(inst.Type))}
	return item, nil
}

// lowerTypeHead records only the head name of a type expression as a Path — generic
// applications and structural detail are re-derived by the type checker from the
// resolved definition rather than carried through the CST (see DESIGN.md).
func lowerTypeHead(ctx *TopLevelContext, t ast.Type, span ast.Span) ids.PathId {
	var components []string
	switch tt := t.(type) {
	case *ast.SimpleType:
		components = []string{tt.Name}
	case *ast.TypeVar:
		components = []string{tt.Name}
	case *ast.ListType:
		components = []string{"List"}
	case *ast.TupleType:
		components = []string{"Pair"}
	case *ast.FuncType:
		components = []string{"Function"}
	case *ast.RecordType:
		components = []string{"Record"}
	default:
		components = []string{"Error"}
	}
	return ctx.AddPath(Path{Components: components}, span)
}

func lowerExpr(ctx *TopLevelContext, e ast.Expr) (ids.ExprId, error) {
	span := ast.Span{Start: e.Position(), End: e.Position()}
	switch ex := e.(type) {
	case *ast.Literal:
		kind, val := lowerLiteralKind(ex.Kind, ex.Value)
		return ctx.AddExpr(&LiteralExpr{Kind: kind, Raw: fmt.Sprint(ex.Value), Value: val}, span), nil

	case *ast.Identifier:
		pathId := ctx.AddPath(Path{Components: []string{ex.Name}}, span)
		return ctx.AddExpr(&VariableExpr{Path: pathId}, span), nil

	case *ast.FuncCall:
		callee, err := lowerExpr(ctx, ex.Func)
		if err != nil {
			return 0, err
		}
		args := make([]ids.ExprId, len(ex.Args))
		for i, a := range ex.Args {
			argId, err := lowerExpr(ctx, a)
			if err != nil {
				return 0, err
			}
			args[i] = argId
		}
		return ctx.AddExpr(&CallExpr{Callee: callee, Args: args}, span), nil

	case *ast.BinaryOp:
		callee := ctx.AddExpr(&VariableExpr{Path: ctx.AddPath(Path{Components: []string{ex.Op}}, span)}, span)
		left, err := lowerExpr(ctx, ex.Left)
		if err != nil {
			return 0, err
		}
		right, err := lowerExpr(ctx, ex.Right)
		if err != nil {
			return 0, err
		}
		return ctx.AddExpr(&CallExpr{Callee: callee, Args: []ids.ExprId{left, right}}, span), nil

	case *ast.UnaryOp:
		callee := ctx.AddExpr(&VariableExpr{Path: ctx.AddPath(Path{Components: []string{ex.Op}}, span)}, span)
		operand, err := lowerExpr(ctx, ex.Expr)
		if err != nil {
			return 0, err
		}
		return ctx.AddExpr(&CallExpr{Callee: callee, Args: []ids.ExprId{operand}}, span), nil

	case *ast.Lambda:
		params := make([]ids.PatternId, len(ex.Params))
		annos := make([]ids.PathId, len(ex.Params))
		for i, p := range ex.Params {
			nid := ctx.AddName(Name{Text: p.Name}, span)
			params[i] = ctx.AddPattern(&VariablePattern{Name: nid}, span)
			if p.Type != nil {
				annos[i] = lowerTypeHead(ctx, p.Type, span)
			}
		}
		body, err := lowerExpr(ctx, ex.Body)
		if err != nil {
			return 0, err
		}
		return ctx.AddExpr(&LambdaExpr{Params: params, ParamAnnotations: annos, Body: body}, span), nil

	case *ast.Let:
		defPat := ctx.AddPattern(&VariablePattern{Name: ctx.AddName(Name{Text: ex.Name}, span)}, span)
		val, err := lowerExpr(ctx, ex.Value)
		if err != nil {
			return 0, err
		}
		defExpr := ctx.AddExpr(&DefinitionExpr{Pattern: defPat, Value: val}, span)
		body, err := lowerExpr(ctx, ex.Body)
		if err != nil {
			return 0, err
		}
		return ctx.AddExpr(&SequenceExpr{Exprs: []ids.ExprId{defExpr, body}}, span), nil

	case *ast.LetRec:
		pat := ctx.AddPattern(&VariablePattern{Name: ctx.AddName(Name{Text: ex.Name}, span)}, span)
		val, err := lowerExpr(ctx, ex.Value)
		if err != nil {
			return 0, err
		}
		defExpr := ctx.AddExpr(&DefinitionExpr{Mutable: false, Pattern: pat, Value: val}, span)
		body, err := lowerExpr(ctx, ex.Body)
		if err != nil {
			return 0, err
		}
		return ctx.AddExpr(&SequenceExpr{Exprs: []ids.ExprId{defExpr, body}}, span), nil

	case *ast.Block:
		var exprs []ids.ExprId
		for _, sub := range ex.Exprs {
			id, err := lowerExpr(ctx, sub)
			if err != nil {
				return 0, err
			}
			exprs = append(exprs, id)
		}
		return ctx.AddExpr(&SequenceExpr{Exprs: exprs}, span), nil

	case *ast.If:
		cond, err := lowerExpr(ctx, ex.Condition)
		if err != nil {
			return 0, err
		}
		then, err := lowerExpr(ctx, ex.Then)
		if err != nil {
			return 0, err
		}
		ifExpr := &IfExpr{Cond: cond, Then: then}
		if ex.Else != nil {
			elseId, err := lowerExpr(ctx, ex.Else)
			if err != nil {
				return 0, err
			}
			ifExpr.Else = elseId
			ifExpr.HasElse = true
		}
		return ctx.AddExpr(ifExpr, span), nil

	case *ast.Match:
		scrut, err := lowerExpr(ctx, ex.Expr)
		if err != nil {
			return 0, err
		}
		m := &MatchExpr{Scrutinee: scrut}
		for _, c := range ex.Cases {
			pat, err := lowerPattern(ctx, c.Pattern)
			if err != nil {
				return 0, err
			}
			arm := MatchArm{Pattern: pat}
			if c.Guard != nil {
				g, err := lowerExpr(ctx, c.Guard)
				if err != nil {
					return 0, err
				}
				arm.Guard = g
				arm.HasGuard = true
			}
			body, err := lowerExpr(ctx, c.Body)
			if err != nil {
				return 0, err
			}
			arm.Body = body
			m.Arms = append(m.Arms, arm)
		}
		return ctx.AddExpr(m, span), nil

	case *ast.List:
		// Desugar list literals to nested constructor applications of Cons/Nil so the
		// rest of the pipeline only ever sees Call/Constructor nodes.
		tail := ctx.AddExpr(&ConstructorExpr{Path: ctx.AddPath(Path{Components: []string{"Nil"}}, span)}, span)
		for i := len(ex.Elements) - 1; i >= 0; i-- {
			head, err := lowerExpr(ctx, ex.Elements[i])
			if err != nil {
				return 0, err
			}
			tail = ctx.AddExpr(&ConstructorExpr{
				Path: ctx.AddPath(Path{Components: []string{"Cons"}}, span),
				Fields: []ConstructorField{
					{Name: "head", Value: head},
					{Name: "tail", Value: tail},
				},
			}, span)
		}
		return tail, nil

	case *ast.Tuple:
		fields := make([]ConstructorField, len(ex.Elements))
		for i, el := range ex.Elements {
			id, err := lowerExpr(ctx, el)
			if err != nil {
				return 0, err
			}
			fields[i] = ConstructorField{Name: fmt.Sprintf("_%d", i), Value: id}
		}
		return ctx.AddExpr(&ConstructorExpr{Path: ctx.AddPath(Path{Components: []string{"Pair"}}, span), Fields: fields}, span), nil

	case *ast.Record:
		fields := make([]ConstructorField, len(ex.Fields))
		for i, f := range ex.Fields {
			id, err := lowerExpr(ctx, f.Value)
			if err != nil {
				return 0, err
			}
			fields[i] = ConstructorField{Name: f.Name, Value: id}
		}
		return ctx.AddExpr(&ConstructorExpr{Path: ctx.AddPath(Path{Components: []string{"Record"}}, span), Fields: fields}, span), nil

	case *ast.RecordAccess:
		rec, err := lowerExpr(ctx, ex.Record)
		if err != nil {
			return 0, err
		}
		return ctx.AddExpr(&MemberExpr{Object: rec, Field: ex.Field}, span), nil

	case *ast.Error:
		return ctx.AddExpr(&ErrorExpr{}, span), nil

	default:
		return ctx.AddExpr(&ErrorExpr{}, span), nil
	}
}

func lowerLiteralKind(k ast.LiteralKind, value interface{}) (LiteralKind, interface{}) {
	switch k {
	case ast.IntLit:
		return IntLit, value
	case ast.FloatLit:
		return FloatLit, value
	case ast.StringLit:
		return StringLit, value
	case ast.BoolLit:
		return BoolLit, value
	case ast.UnitLit:
		return UnitLit, value
	default:
		return UnitLit, value
	}
}

func lowerPattern(ctx *TopLevelContext, p ast.Pattern) (ids.PatternId, error) {
	span := ast.Span{Start: p.Position(), End: p.Position()}
	switch pt := p.(type) {
	case *ast.Identifier:
		nid := ctx.AddName(Name{Text: pt.Name}, span)
		return ctx.AddPattern(&VariablePattern{Name: nid}, span), nil

	case *ast.Literal:
		kind, val := lowerLiteralKind(pt.Kind, pt.Value)
		return ctx.AddPattern(&LiteralPattern{Kind: kind, Raw: fmt.Sprint(pt.Value), Value: val}, span), nil

	case *ast.WildcardPattern:
		nid := ctx.AddName(Name{Text: "_"}, span)
		return ctx.AddPattern(&VariablePattern{Name: nid}, span), nil

	case *ast.ConstructorPattern:
		args := make([]ids.PatternId, len(pt.Patterns))
		for i, sub := range pt.Patterns {
			id, err := lowerPattern(ctx, sub)
			if err != nil {
				return 0, err
			}
			args[i] = id
		}
		pathId := ctx.AddPath(Path{Components: []string{pt.Name}}, span)
		return ctx.AddPattern(&ConstructorPattern{Path: pathId, Args: args}, span), nil

	case *ast.TuplePattern:
		args := make([]ids.PatternId, len(pt.Elements))
		for i, sub := range pt.Elements {
			id, err := lowerPattern(ctx, sub)
			if err != nil {
				return 0, err
			}
			args[i] = id
		}
		pathId := ctx.AddPath(Path{Components: []string{"Pair"}}, span)
		return ctx.AddPattern(&ConstructorPattern{Path: pathId, Args: args}, span), nil

	case *ast.ConsPattern:
		head, err := lowerPattern(ctx, pt.Head)
		if err != nil {
			return 0, err
		}
		tail, err := lowerPattern(ctx, pt.Tail)
		if err != nil {
			return 0, err
		}
		pathId := ctx.AddPath(Path{Components: []string{"Cons"}}, span)
		return ctx.AddPattern(&ConstructorPattern{Path: pathId, Args: []ids.PatternId{head, tail}}, span), nil

	case *ast.ListPattern:
		tailPat := ctx.AddPattern(&ConstructorPattern{Path: ctx.AddPath(Path{Components: []string{"Nil"}}, span)}, span)
		if pt.Rest != nil {
			var err error
			tailPat, err = lowerPattern(ctx, pt.Rest)
			if err != nil {
				return 0, err
			}
		}
		for i := len(pt.Elements) - 1; i >= 0; i-- {
			head, err := lowerPattern(ctx, pt.Elements[i])
			if err != nil {
				return 0, err
			}
			pathId := ctx.AddPath(Path{Components: []string{"Cons"}}, span)
			tailPat = ctx.AddPattern(&ConstructorPattern{Path: pathId, Args: []ids.PatternId{head, tailPat}}, span)
		}
		return tailPat, nil

	default:
		return ctx.AddPattern(&ErrorPattern{}, span), nil
	}
}
