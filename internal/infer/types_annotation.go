package infer

import (
	"github.com/sunholo/ailang/internal/builtins"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
)

var primitivesByName = map[string]itypes.PrimitiveType{
	"I8": itypes.PrimI8, "I16": itypes.PrimI16, "I32": itypes.PrimI32, "I64": itypes.PrimI64, "Isz": itypes.PrimIsz,
	"U8": itypes.PrimU8, "U16": itypes.PrimU16, "U32": itypes.PrimU32, "U64": itypes.PrimU64, "Usz": itypes.PrimUsz,
	"F32": itypes.PrimF32, "F64": itypes.PrimF64,
	"Bool": itypes.PrimBool, "Char": itypes.PrimChar, "String": itypes.PrimString,
	"Unit": itypes.PrimUnit, "Ptr": itypes.PrimPointer,
}

// resolveTypeAnnotation interprets a type-position path (a lambda parameter annotation,
// a return annotation, a pattern type annotation, a record field type) against ctx.
// Spec.md §4.3 resolves type-position paths through the same VisibleTypes table as
// value-position ones, but a referenced type's own TopLevelItem lives in a different
// TopLevelContext than the one being checked, and full name resolution isn't re-run
// here — this is a deliberate simplification (see DESIGN.md): primitives, built-ins,
// and lowercase-initial names as type parameters (resolved to a fresh generic on first
// use and reused from genericEnv afterwards, implementing the "auto-declare fresh
// generics when an unknown type variable is used" behavior spec.md §4.3 describes) are
// handled directly; any other name is looked up by type name in the program-wide item
// table (typeByName) rather than walking the full crate graph, and resolves to
// Type::Error when no such type exists.
func (c *checker) resolveTypeAnnotation(ctx *cst.TopLevelContext, id ids.PathId, genericEnv map[string]itypes.Type) itypes.Type {
	name := ctx.Path(id).Last()

	if prim, ok := primitivesByName[name]; ok {
		return &itypes.Primitive{Kind: prim}
	}
	if b, ok := builtins.LookupBuiltin(name); ok {
		return itypes.BuiltinType(b)
	}
	if isLowercaseIdent(name) {
		if t, ok := genericEnv[name]; ok {
			return t
		}
		v := c.bindings.Fresh()
		t := &itypes.Variable{Id: v}
		genericEnv[name] = t
		return t
	}
	if target, ok := c.typeByName(name); ok {
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
