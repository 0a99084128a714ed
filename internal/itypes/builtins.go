package itypes

import "github.com/sunholo/ailang/internal/builtins"

// BuiltinType returns the Type a resolved Origin::Builtin(b) denotes (spec.md §4.6:
// "For Builtin, produce the built-in's type"). Builtins name the primitive scalars plus
// Pair, the 2-tuple constructor.
func BuiltinType(b builtins.Builtin) Type {
	switch b {
	case builtins.BuiltinUnit:
		return &Primitive{Kind: PrimUnit}
	case builtins.BuiltinInt:
		return &Primitive{Kind: PrimI32}
	case builtins.BuiltinChar:
		return &Primitive{Kind: PrimChar}
	case builtins.BuiltinFloat:
		return &Primitive{Kind: PrimF64}
	case builtins.BuiltinString:
		return &Primitive{Kind: PrimString}
	case builtins.BuiltinPtr:
		return &Primitive{Kind: PrimPointer}
	case builtins.BuiltinPair:
		return &Primitive{Kind: PrimPair}
	default:
		return &Primitive{Kind: PrimError}
	}
}
