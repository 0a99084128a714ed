package itypes

import "github.com/sunholo/ailang/internal/ids"

// Generalize implements spec.md §4.6 "Generalization": collect t's free variables
// (through bindings), promote each to a fresh Generic::Inferred, substitute them through
// t, and wrap the result in a GeneralizedType. Only called on top-level bindings; let-
// locals are never generalized (monomorphic let), so this is never invoked for them.
func Generalize(bindings *TypeBindings, t Type) GeneralizedType {
	free := FreeVariables(bindings, t)
	generics := make([]Generic, len(free))
	subst := make(map[ids.TypeVariableId]Type, len(free))
	for i, v := range free {
		g := Generic{Name: v.String(), Var: v, Inferred: true}
		generics[i] = g
		subst[v] = &GenericRef{Generic: g}
	}
	resolved := resolveDeep(bindings, t)
	return GeneralizedType{Generics: generics, Typ: Substitute(resolved, subst)}
}

// resolveDeep walks t replacing every bound Variable with its resolved type, so that the
// TopLevelType stored in a GeneralizedType never carries a stale binding reference.
func resolveDeep(bindings *TypeBindings, t Type) Type {
	t = bindings.Resolve(t)
	switch tt := t.(type) {
	case *ReferenceType:
		return &ReferenceType{Mutability: tt.Mutability, Sharing: tt.Sharing, Elem: resolveDeep(bindings, tt.Elem)}
	case *Function:
		params := make([]ParameterType, len(tt.Parameters))
		for i, p := range tt.Parameters {
			params[i] = ParameterType{Typ: resolveDeep(bindings, p.Typ)}
		}
		var eff Type
		if tt.Effects != nil {
			eff = resolveDeep(bindings, tt.Effects)
		}
		return &Function{Parameters: params, Return: resolveDeep(bindings, tt.Return), Effects: eff}
	case *Application:
		args := make([]Type, len(tt.Arguments))
		for i, a := range tt.Arguments {
			args[i] = resolveDeep(bindings, a)
		}
		return &Application{Constructor: resolveDeep(bindings, tt.Constructor), Arguments: args}
	default:
		return tt
	}
}

// Instantiate implements §4.6 "Instantiation": replace every generic in g with a fresh
// type variable, returning the resulting (non-generalized) Type.
func Instantiate(bindings *TypeBindings, g GeneralizedType) Type {
	if len(g.Generics) == 0 {
		return g.Typ
	}
	subst := make(map[ids.TypeVariableId]Type, len(g.Generics))
	fresh := make(map[string]Type, len(g.Generics))
	for _, generic := range g.Generics {
		v := bindings.Fresh()
		subst[generic.Var] = &Variable{Id: v}
		fresh[generic.Name] = &Variable{Id: v}
	}
	return substituteGenericRefs(g.Typ, fresh)
}

func substituteGenericRefs(t Type, fresh map[string]Type) Type {
	switch tt := t.(type) {
	case *GenericRef:
		if r, ok := fresh[tt.Generic.Name]; ok {
			return r
		}
		return tt
	case *ReferenceType:
		return &ReferenceType{Mutability: tt.Mutability, Sharing: tt.Sharing, Elem: substituteGenericRefs(tt.Elem, fresh)}
	case *Function:
		params := make([]ParameterType, len(tt.Parameters))
		for i, p := range tt.Parameters {
			params[i] = ParameterType{Typ: substituteGenericRefs(p.Typ, fresh)}
		}
		var eff Type
		if tt.Effects != nil {
			eff = substituteGenericRefs(tt.Effects, fresh)
		}
		return &Function{Parameters: params, Return: substituteGenericRefs(tt.Return, fresh), Effects: eff}
	case *Application:
		args := make([]Type, len(tt.Arguments))
		for i, a := range tt.Arguments {
			args[i] = substituteGenericRefs(a, fresh)
		}
		return &Application{Constructor: substituteGenericRefs(tt.Constructor, fresh), Arguments: args}
	default:
		return tt
	}
}
