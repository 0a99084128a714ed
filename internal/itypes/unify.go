package itypes

import (
	"fmt"

	"github.com/sunholo/ailang/internal/ids"
)

// ErrOccursCheck is returned when unification would build an infinite type (spec.md §8
// property 4: "no binding in TypeBindings forms a cycle").
type ErrOccursCheck struct {
	Var ids.TypeVariableId
	In  Type
}

func (e *ErrOccursCheck) Error() string {
	return fmt.Sprintf("occurs check failed: %s occurs in %s", e.Var, e.In.String())
}

// ErrMismatch is returned when two resolved types have incompatible shapes.
type ErrMismatch struct {
	A, B Type
}

func (e *ErrMismatch) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.A.String(), e.B.String())
}

// Unify performs classical structural Hindley-Milner unification of a and b against
// bindings, grounded on the teacher's internal/types.Unifier.Unify — resolve both sides
// through current bindings first, bind an unresolved variable after an occurs check,
// otherwise recurse structurally on matching shapes (spec.md §4.6 "Unification").
func Unify(bindings *TypeBindings, a, b Type) error {
	a = bindings.Resolve(a)
	b = bindings.Resolve(b)

	if av, ok := a.(*Variable); ok {
		if bv, ok := b.(*Variable); ok && av.Id == bv.Id {
			return nil
		}
		if occurs(bindings, av.Id, b) {
			return &ErrOccursCheck{Var: av.Id, In: b}
		}
		bindings.Bind(av.Id, b)
		return nil
	}
	if bv, ok := b.(*Variable); ok {
		if occurs(bindings, bv.Id, a) {
			return &ErrOccursCheck{Var: bv.Id, In: a}
		}
		bindings.Bind(bv.Id, a)
		return nil
	}

	switch at := a.(type) {
	case *Primitive:
		bt, ok := b.(*Primitive)
		if !ok || at.Kind != bt.Kind {
			return &ErrMismatch{a, b}
		}
		return nil

	case *ReferenceType:
		bt, ok := b.(*ReferenceType)
		if !ok || at.Mutability != bt.Mutability || at.Sharing != bt.Sharing {
			return &ErrMismatch{a, b}
		}
		return Unify(bindings, at.Elem, bt.Elem)

	case *Function:
		bt, ok := b.(*Function)
		if !ok || len(at.Parameters) != len(bt.Parameters) {
			return &ErrMismatch{a, b}
		}
		for i := range at.Parameters {
			if err := Unify(bindings, at.Parameters[i].Typ, bt.Parameters[i].Typ); err != nil {
				return err
			}
		}
		if err := Unify(bindings, at.Return, bt.Return); err != nil {
			return err
		}
		if at.Effects != nil && bt.Effects != nil {
			return Unify(bindings, at.Effects, bt.Effects)
		}
		return nil

	case *Application:
		bt, ok := b.(*Application)
		if !ok || len(at.Arguments) != len(bt.Arguments) {
			return &ErrMismatch{a, b}
		}
		if err := Unify(bindings, at.Constructor, bt.Constructor); err != nil {
			return err
		}
		for i := range at.Arguments {
			if err := Unify(bindings, at.Arguments[i], bt.Arguments[i]); err != nil {
				return err
			}
		}
		return nil

	case *UserDefined:
		bt, ok := b.(*UserDefined)
		if !ok || at.Item != bt.Item {
			return &ErrMismatch{a, b}
		}
		return nil

	case *GenericRef:
		bt, ok := b.(*GenericRef)
		if !ok || at.Generic.Name != bt.Generic.Name {
			return &ErrMismatch{a, b}
		}
		return nil

	case *EffectRow:
		bt, ok := b.(*EffectRow)
		if !ok {
			return &ErrMismatch{a, b}
		}
		return unifyEffectRows(bindings, at, bt)

	default:
		return &ErrMismatch{a, b}
	}
}

// unifyEffectRows implements the design note's stated limitation directly: "not unified
// structurally beyond equality of type variables" — closed rows must carry the same
// label set; an open tail unifies its variable like any other.
func unifyEffectRows(bindings *TypeBindings, a, b *EffectRow) error {
	if len(a.Labels) != len(b.Labels) {
		return &ErrMismatch{a, b}
	}
	seen := make(map[string]bool, len(a.Labels))
	for _, l := range a.Labels {
		seen[l] = true
	}
	for _, l := range b.Labels {
		if !seen[l] {
			return &ErrMismatch{a, b}
		}
	}
	if a.Tail == nil && b.Tail == nil {
		return nil
	}
	if a.Tail == nil || b.Tail == nil {
		return &ErrMismatch{a, b}
	}
	return Unify(bindings, a.Tail, b.Tail)
}

func occurs(bindings *TypeBindings, v ids.TypeVariableId, t Type) bool {
	t = bindings.Resolve(t)
	switch tt := t.(type) {
	case *Variable:
		return tt.Id == v
	case *ReferenceType:
		return occurs(bindings, v, tt.Elem)
	case *Function:
		for _, p := range tt.Parameters {
			if occurs(bindings, v, p.Typ) {
				return true
			}
		}
		if occurs(bindings, v, tt.Return) {
			return true
		}
		if tt.Effects != nil {
			return occurs(bindings, v, tt.Effects)
		}
		return false
	case *Application:
		if occurs(bindings, v, tt.Constructor) {
			return true
		}
		for _, arg := range tt.Arguments {
			if occurs(bindings, v, arg) {
				return true
			}
		}
		return false
	case *EffectRow:
		return tt.Tail != nil && tt.Tail.Id == v
	default:
		return false
	}
}

// FreeVariables collects every unbound TypeVariableId reachable from t through bindings,
// the set generalization promotes into Generics (spec.md §4.6 "Generalization").
func FreeVariables(bindings *TypeBindings, t Type) []ids.TypeVariableId {
	seen := make(map[ids.TypeVariableId]bool)
	var order []ids.TypeVariableId
	var walk func(Type)
	walk = func(t Type) {
		t = bindings.Resolve(t)
		switch tt := t.(type) {
		case *Variable:
			if !seen[tt.Id] {
				seen[tt.Id] = true
				order = append(order, tt.Id)
			}
		case *ReferenceType:
			walk(tt.Elem)
		case *Function:
			for _, p := range tt.Parameters {
				walk(p.Typ)
			}
			walk(tt.Return)
			if tt.Effects != nil {
				walk(tt.Effects)
			}
		case *Application:
			walk(tt.Constructor)
			for _, arg := range tt.Arguments {
				walk(arg)
			}
		case *EffectRow:
			if tt.Tail != nil {
				walk(tt.Tail)
			}
		case *Forall:
			walk(tt.Typ)
		}
	}
	walk(t)
	return order
}

// Substitute replaces every Variable in t whose id appears in subst with its mapped
// replacement, used both to instantiate a GeneralizedType's generics with fresh
// variables and to apply a finished TypeBindings before caching a TopLevelType. An
// EffectRow is returned as is: its Tail variable is not substituted.
func Substitute(t Type, subst map[ids.TypeVariableId]Type) Type {
	switch tt := t.(type) {
	case *Variable:
		if r, ok := subst[tt.Id]; ok {
			return r
		}
		return tt
	case *ReferenceType:
		return &ReferenceType{Mutability: tt.Mutability, Sharing: tt.Sharing, Elem: Substitute(tt.Elem, subst)}
	case *Function:
		params := make([]ParameterType, len(tt.Parameters))
		for i, p := range tt.Parameters {
			params[i] = ParameterType{Typ: Substitute(p.Typ, subst)}
		}
		var eff Type
		if tt.Effects != nil {
			eff = Substitute(tt.Effects, subst)
		}
		return &Function{Parameters: params, Return: Substitute(tt.Return, subst), Effects: eff}
	case *Application:
		args := make([]Type, len(tt.Arguments))
		for i, a := range tt.Arguments {
			args[i] = Substitute(a, subst)
		}
		return &Application{Constructor: Substitute(tt.Constructor, subst), Arguments: args}
	case *Forall:
		return &Forall{Generics: tt.Generics, Typ: Substitute(tt.Typ, subst)}
	default:
		return tt
	}
}
