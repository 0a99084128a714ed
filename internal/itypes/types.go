// Package itypes implements the interned structural type model spec.md §3.3 describes:
// a tagged-union Type (design note §9: "tagged variants instead of inheritance"),
// interned into a TypeContext yielding dense TypeIds, with a separate TypeBindings map
// from unification variable to type holding the solver's state. This generalizes the
// teacher's internal/types.Type interface (TVar/TCon/TFunc/...) from a pointer-based
// structural type into the arena-indexed shape the rest of this compiler uses.
package itypes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunholo/ailang/internal/ids"
)

// PrimitiveType enumerates spec.md §3.3's fixed primitive set.
type PrimitiveType int

const (
	PrimError PrimitiveType = iota
	PrimUnit
	PrimBool
	PrimPointer
	PrimChar
	PrimString
	PrimPair
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimIsz
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimUsz
	PrimF32
	PrimF64
)

var primitiveNames = map[PrimitiveType]string{
	PrimError: "Error", PrimUnit: "Unit", PrimBool: "Bool", PrimPointer: "Ptr",
	PrimChar: "Char", PrimString: "String", PrimPair: ",",
	PrimI8: "I8", PrimI16: "I16", PrimI32: "I32", PrimI64: "I64", PrimIsz: "Isz",
	PrimU8: "U8", PrimU16: "U16", PrimU32: "U32", PrimU64: "U64", PrimUsz: "Usz",
	PrimF32: "F32", PrimF64: "F64",
}

func (p PrimitiveType) String() string {
	if s, ok := primitiveNames[p]; ok {
		return s
	}
	return "?prim"
}

// ReferenceMutability and ReferenceSharing are the two axes spec.md §3.3 names for
// reference types: "two axes: mutable vs immutable, shared vs owned — four combinations".
type ReferenceMutability int

const (
	Immutable ReferenceMutability = iota
	Mutable
)

type ReferenceSharing int

const (
	Owned ReferenceSharing = iota
	Shared
)

// Generic is a universally-quantified type parameter, introduced either in source (a
// named generic) or by generalization (an inferred one, §4.6 "promote each to a fresh
// Generic::Inferred").
type Generic struct {
	Name     string
	Var      ids.TypeVariableId
	Inferred bool
}

func (g Generic) String() string {
	if g.Inferred {
		return g.Var.String()
	}
	return g.Name
}

// ParameterType is one parameter of a Function type.
type ParameterType struct {
	Typ Type
}

// Type is the tagged-union interface every type variant implements.
type Type interface {
	isType()
	String() string
}

// Primitive is one of the fixed built-in types PrimitiveType enumerates; reference
// types are the separate ReferenceType variant.
type Primitive struct {
	Kind PrimitiveType
}

func (*Primitive) isType() {}
func (p *Primitive) String() string { return p.Kind.String() }

// ReferenceType is `&T`/`&mut T`/`own T`/`own mut T` (spec.md §3.3's four reference
// combinations), carrying the element type it refers to.
type ReferenceType struct {
	Mutability ReferenceMutability
	Sharing    ReferenceSharing
	Elem       Type
}

func (*ReferenceType) isType() {}
func (r *ReferenceType) String() string {
	sigil := "&"
	if r.Sharing == Owned {
		sigil = "own "
	}
	if r.Mutability == Mutable {
		sigil += "mut "
	}
	return sigil + r.Elem.String()
}

// GenericRef is a reference to a bound generic (used inside a Forall's body).
type GenericRef struct {
	Generic Generic
}

func (*GenericRef) isType() {}
func (g *GenericRef) String() string { return g.Generic.String() }

// Variable is an as-yet-unsolved unification variable, resolved by looking it up in a
// TypeBindings map.
type Variable struct {
	Id ids.TypeVariableId
}

func (*Variable) isType() {}
func (v *Variable) String() string { return v.Id.String() }

// Function is `fn(params) -> return ! effects`. Effects is itself a Type (an effect row,
// spec.md design notes: "carried as an effects field but not unified structurally beyond
// equality of type variables").
type Function struct {
	Parameters []ParameterType
	Return     Type
	Effects    Type
}

func (*Function) isType() {}
func (f *Function) String() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.Typ.String()
	}
	effStr := ""
	if f.Effects != nil {
		if s := f.Effects.String(); s != "" && s != "Unit" {
			effStr = " ! " + s
		}
	}
	return fmt.Sprintf("fn(%s) -> %s%s", strings.Join(params, ", "), f.Return.String(), effStr)
}

// Application is a type constructor applied to arguments, e.g. `List I32`.
type Application struct {
	Constructor Type
	Arguments   []Type
}

func (*Application) isType() {}
func (a *Application) String() string {
	args := make([]string, len(a.Arguments))
	for i, arg := range a.Arguments {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s %s", a.Constructor.String(), strings.Join(args, " "))
}

// UserDefined names a type introduced by a top-level type/trait/effect definition.
type UserDefined struct {
	Name string
	Item ids.TopLevelId
}

func (*UserDefined) isType() {}
func (u *UserDefined) String() string { return u.Name }

// Forall is a universally-quantified type: `forall generics. typ`.
type Forall struct {
	Generics []Generic
	Typ      Type
}

func (*Forall) isType() {}
func (f *Forall) String() string {
	names := make([]string, len(f.Generics))
	for i, g := range f.Generics {
		names[i] = g.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, " "), f.Typ.String())
}

// EffectRow is an open or closed set of effect labels (teacher's internal/types.Row
// generalized to this package's Type interface, grounded on effects.go's
// ElaborateEffectRow / IsKnownEffect sorted-labels shape for determinism).
type EffectRow struct {
	Labels []string // kept sorted
	Tail   *Variable
}

func (*EffectRow) isType() {}
func (r *EffectRow) String() string {
	labels := append([]string(nil), r.Labels...)
	sort.Strings(labels)
	s := strings.Join(labels, ", ")
	if r.Tail != nil {
		if s != "" {
			s += " | "
		}
		s += r.Tail.String()
	}
	return "{" + s + "}"
}

// GeneralizedType is spec.md §3.3's `{ generics, typ }`: the cached result of
// generalization, admissible at a top-level signature.
type GeneralizedType struct {
	Generics []Generic
	Typ      TopLevelType
}

// TopLevelType is the subset of Type guaranteed to contain no unbound type variables.
// Go's type system can't express that constraint structurally, so this is a documented
// convention (every constructor of a GeneralizedType's Typ must have had its free
// variables substituted by generalization before being stored here) rather than an
// enforced invariant — matching the teacher's similar convention-not-enforcement for
// e.g. "a TopLevelType is the subset of Type with no Variable nodes reachable".
type TopLevelType = Type
