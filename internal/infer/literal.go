package infer

import (
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/itypes"
)

// literalType returns a literal's fixed type. Integer and float literals have no
// source-level suffix syntax in this CST, so spec.md's open question ("polymorphic
// numeric literals ... pins them to I32 and F64 as placeholders") is resolved the same
// way here: every IntLit is I32, every FloatLit is F64.
func literalType(kind cst.LiteralKind) itypes.Type {
	switch kind {
	case cst.IntLit:
		return &itypes.Primitive{Kind: itypes.PrimI32}
	case cst.FloatLit:
		return &itypes.Primitive{Kind: itypes.PrimF64}
	case cst.StringLit:
		return &itypes.Primitive{Kind: itypes.PrimString}
	case cst.BoolLit:
		return &itypes.Primitive{Kind: itypes.PrimBool}
	case cst.CharLit:
		return &itypes.Primitive{Kind: itypes.PrimChar}
	case cst.UnitLit:
		return &itypes.Primitive{Kind: itypes.PrimUnit}
	default:
		return &itypes.Primitive{Kind: itypes.PrimError}
	}
}
