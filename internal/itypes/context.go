package itypes

import "github.com/sunholo/ailang/internal/ids"

// TypeContext interns Types into dense TypeIds (spec.md §3.3: "Types are interned into a
// TypeContext yielding TypeId"). Interning by structural string makes equal types (by
// String()) share one id, which is what lets two independently-built Types compare equal
// cheaply for query-cache equality.
type TypeContext struct {
	byId  []Type
	index map[string]ids.TypeId
}

// NewTypeContext returns an empty interning table.
func NewTypeContext() *TypeContext {
	return &TypeContext{index: make(map[string]ids.TypeId)}
}

// Intern returns t's TypeId, assigning a fresh one the first time t's structural key is seen.
func (c *TypeContext) Intern(t Type) ids.TypeId {
	key := t.String()
	if id, ok := c.index[key]; ok {
		return id
	}
	id := ids.TypeId(len(c.byId))
	c.byId = append(c.byId, t)
	c.index[key] = id
	return id
}

// Resolve returns the Type previously interned under id.
func (c *TypeContext) Resolve(id ids.TypeId) (Type, bool) {
	if int(id) >= len(c.byId) {
		return nil, false
	}
	return c.byId[id], true
}

// Len reports how many distinct types have been interned.
func (c *TypeContext) Len() int { return len(c.byId) }

// TypeBindings is the unification solver's state: a map from variable id to the type
// it has been bound to, mutated during one SCC's type-check pass (spec.md §3.3: "A
// separate TypeBindings: TypeVariableId → Type holds the solver state").
type TypeBindings struct {
	bindings map[ids.TypeVariableId]Type
	next     uint32
}

// NewTypeBindings returns an empty solver state.
func NewTypeBindings() *TypeBindings {
	return &TypeBindings{bindings: make(map[ids.TypeVariableId]Type)}
}

// Fresh allocates a new, unbound type variable.
func (b *TypeBindings) Fresh() ids.TypeVariableId {
	id := ids.TypeVariableId(b.next)
	b.next++
	return id
}

// Bind records v := t. Callers are responsible for the occurs check before calling Bind.
func (b *TypeBindings) Bind(v ids.TypeVariableId, t Type) { b.bindings[v] = t }

// Lookup returns v's current binding, if any.
func (b *TypeBindings) Lookup(v ids.TypeVariableId) (Type, bool) {
	t, ok := b.bindings[v]
	return t, ok
}

// Resolve follows a chain of variable bindings to a non-variable type (or an unbound
// variable), the "deref" every unification step needs before comparing shapes.
func (b *TypeBindings) Resolve(t Type) Type {
	for {
		v, ok := t.(*Variable)
		if !ok {
			return t
		}
		bound, ok := b.Lookup(v.Id)
		if !ok {
			return t
		}
		t = bound
	}
}
