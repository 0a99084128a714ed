// Package cst is the arena-indexed concrete syntax tree every later pass operates on.
// It generalizes the teacher's pointer-based internal/ast into the dense-index model
// design note §9 calls for: one TopLevelContext per top-level item owns flat vectors of
// Expr/Pattern/Path/Name, each with a parallel location vector, and every reference
// between them is a u32 ids.*Id rather than a pointer. This removes back-edge cycles in
// the ownership graph (a CFG built later can reference earlier nodes without the arena
// itself being cyclic) and makes a TopLevelContext cheap to clone for query-cache
// equality.
//
// Building a CST from source text is out of scope (spec.md §1: "we assume a CST
// exists"); FromFile in lower.go adapts the teacher's existing lexer+parser output
// (internal/ast) into this shape, playing the role of the external collaborator.
package cst

import (
	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/ids"
)

// Name is an identifier occurrence. Its Span is stored in the owning TopLevelContext's
// NameSpans vector, not inline here, so copying a Name is always cheap irrespective of
// provenance.
type Name struct {
	Text string
}

// Path is a (possibly multi-component) reference, e.g. `List.map` or `Std.List.map`.
// A single-component path is an ordinary unqualified name use.
type Path struct {
	Components []string
}

func (p Path) Last() string {
	if len(p.Components) == 0 {
		return ""
	}
	return p.Components[len(p.Components)-1]
}

// LiteralKind tags the fixed set of literal forms a literal Expr or Pattern may carry.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	CharLit
	UnitLit
)

// Expr is the tagged-union interface every expression node implements (design note §9:
// "tagged variants instead of inheritance"). Concrete types hold ids.ExprId /
// ids.PatternId / ids.PathId references to siblings stored in the same
// TopLevelContext, never pointers.
type Expr interface {
	isExpr()
}

type LiteralExpr struct {
	Kind  LiteralKind
	Raw   string
	Value interface{}
}

type VariableExpr struct {
	Path ids.PathId
}

type CallExpr struct {
	Callee ids.ExprId
	Args   []ids.ExprId
}

type LambdaExpr struct {
	Params           []ids.PatternId
	ParamAnnotations []ids.PathId // an entry equal to 0 at index i is read as "parameter i is unannotated"
	ReturnAnnotation ids.PathId
	HasReturnAnno    bool
	Body             ids.ExprId
}

// SequenceExpr is a `;`-separated block; the last element is the value of the sequence.
type SequenceExpr struct {
	Exprs []ids.ExprId
}

// DefinitionExpr is a `let`/`let mut` binding used as a sequence element.
type DefinitionExpr struct {
	Mutable bool
	Pattern ids.PatternId
	Value   ids.ExprId
}

type MemberExpr struct {
	Object ids.ExprId
	Field  string
}

type IndexExpr struct {
	Object ids.ExprId
	Index  ids.ExprId
}

type IfExpr struct {
	Cond    ids.ExprId
	Then    ids.ExprId
	Else    ids.ExprId
	HasElse bool
}

type MatchArm struct {
	Pattern  ids.PatternId
	Guard    ids.ExprId
	HasGuard bool
	Body     ids.ExprId
}

type MatchExpr struct {
	Scrutinee ids.ExprId
	Arms      []MatchArm
}

type HandleArm struct {
	EffectPath ids.PathId
	Params     []ids.PatternId
	Body       ids.ExprId
}

type HandleExpr struct {
	Body ids.ExprId
	Arms []HandleArm
}

// ReferenceExpr is `&expr`, `&mut expr`, `&shared expr`, etc: the two mutability/share
// axes described in spec.md §3.3.
type ReferenceExpr struct {
	Mutable bool
	Shared  bool
	Inner   ids.ExprId
}

type TypeAnnotationExpr struct {
	Inner ids.ExprId
	Type  ids.PathId
}

type ConstructorField struct {
	Name  string
	Value ids.ExprId
}

type ConstructorExpr struct {
	Path   ids.PathId
	Fields []ConstructorField
}

// QuotedExpr is an unevaluated quoted expression (comptime metaprogramming surface);
// comptime itself is Unimplemented (spec.md open questions) but the node still needs to
// exist so name resolution doesn't choke on it.
type QuotedExpr struct {
	Inner ids.ExprId
}

// ErrorExpr stands in for any expression the CST construction step could not make
// sense of; every downstream pass treats it the same as an unresolved name (§7).
type ErrorExpr struct{}

func (*LiteralExpr) isExpr()        {}
func (*VariableExpr) isExpr()       {}
func (*CallExpr) isExpr()           {}
func (*LambdaExpr) isExpr()         {}
func (*SequenceExpr) isExpr()       {}
func (*DefinitionExpr) isExpr()     {}
func (*MemberExpr) isExpr()         {}
func (*IndexExpr) isExpr()          {}
func (*IfExpr) isExpr()             {}
func (*MatchExpr) isExpr()          {}
func (*HandleExpr) isExpr()         {}
func (*ReferenceExpr) isExpr()      {}
func (*TypeAnnotationExpr) isExpr() {}
func (*ConstructorExpr) isExpr()    {}
func (*QuotedExpr) isExpr()         {}
func (*ErrorExpr) isExpr()          {}

// Pattern is the tagged-union interface every pattern node implements.
type Pattern interface {
	isPattern()
}

type VariablePattern struct {
	Name ids.NameId
}

type LiteralPattern struct {
	Kind  LiteralKind
	Raw   string
	Value interface{}
}

type ConstructorPattern struct {
	Path ids.PathId
	Args []ids.PatternId
}

type TypeAnnotationPattern struct {
	Inner ids.PatternId
	Type  ids.PathId
}

// MethodNamePattern matches `Type.method` used as a pattern head, e.g. matching on a
// bound method reference.
type MethodNamePattern struct {
	TypePath ids.PathId
	Method   string
}

type ErrorPattern struct{}

func (*VariablePattern) isPattern()       {}
func (*LiteralPattern) isPattern()        {}
func (*ConstructorPattern) isPattern()    {}
func (*TypeAnnotationPattern) isPattern() {}
func (*MethodNamePattern) isPattern()     {}
func (*ErrorPattern) isPattern()          {}

// TopLevelContext owns every Expr/Pattern/Path/Name belonging to one TopLevelItem, in
// dense vectors keyed by the matching ids.*Id, with a parallel location vector for
// each (spec.md §3.2). Synthetic nodes created later by the pattern compiler and
// implicit-argument insertion are never appended here — they live in a separate
// ExtendedTopLevelContext (see internal/extended) so this context stays exactly what
// the original source produced.
type TopLevelContext struct {
	Exprs     []Expr
	ExprSpans []ast.Span

	Patterns     []Pattern
	PatternSpans []ast.Span

	Paths     []Path
	PathSpans []ast.Span

	Names     []Name
	NameSpans []ast.Span
}

func NewTopLevelContext() *TopLevelContext { return &TopLevelContext{} }

func (c *TopLevelContext) AddExpr(e Expr, span ast.Span) ids.ExprId {
	c.Exprs = append(c.Exprs, e)
	c.ExprSpans = append(c.ExprSpans, span)
	return ids.ExprId(len(c.Exprs) - 1)
}

func (c *TopLevelContext) Expr(id ids.ExprId) Expr         { return c.Exprs[id] }
func (c *TopLevelContext) ExprSpan(id ids.ExprId) ast.Span { return c.ExprSpans[id] }

func (c *TopLevelContext) AddPattern(p Pattern, span ast.Span) ids.PatternId {
	c.Patterns = append(c.Patterns, p)
	c.PatternSpans = append(c.PatternSpans, span)
	return ids.PatternId(len(c.Patterns) - 1)
}

func (c *TopLevelContext) Pattern(id ids.PatternId) Pattern     { return c.Patterns[id] }
func (c *TopLevelContext) PatternSpan(id ids.PatternId) ast.Span { return c.PatternSpans[id] }

func (c *TopLevelContext) AddPath(p Path, span ast.Span) ids.PathId {
	c.Paths = append(c.Paths, p)
	c.PathSpans = append(c.PathSpans, span)
	return ids.PathId(len(c.Paths) - 1)
}

func (c *TopLevelContext) Path(id ids.PathId) Path         { return c.Paths[id] }
func (c *TopLevelContext) PathSpan(id ids.PathId) ast.Span { return c.PathSpans[id] }

func (c *TopLevelContext) AddName(n Name, span ast.Span) ids.NameId {
	c.Names = append(c.Names, n)
	c.NameSpans = append(c.NameSpans, span)
	return ids.NameId(len(c.Names) - 1)
}

func (c *TopLevelContext) Name(id ids.NameId) Name         { return c.Names[id] }
func (c *TopLevelContext) NameSpan(id ids.NameId) ast.Span { return c.NameSpans[id] }

// TopLevelItemKind tags the seven top-level item shapes spec.md §3.2 names.
type TopLevelItemKind int

const (
	ItemDefinition TopLevelItemKind = iota
	ItemTypeDefinition
	ItemTraitDefinition
	ItemTraitImpl
	ItemEffectDefinition
	ItemExtern
	ItemComptime
)

// TypeVariant is one constructor of a sum TypeDefinition, e.g. `Some a` in
// `type Option a = None | Some a`.
type TypeVariant struct {
	Name   string
	Fields []ids.PathId // field type annotations, in declared order
}

// TypeField is one field of a record/struct TypeDefinition.
type TypeField struct {
	Name string
	Type ids.PathId
}

// TraitMethod is one method signature declared inside a TraitDefinition.
type TraitMethod struct {
	Name      string
	Signature ids.PathId
}

// EffectOp is one operation declared inside an EffectDefinition.
type EffectOp struct {
	Name      string
	Signature ids.PathId
}

// TopLevelItem is one source-file-level definition, type, trait, impl, effect, extern,
// or comptime block (spec.md §3.2, glossary).
type TopLevelItem struct {
	Id       ids.TopLevelId
	Kind     TopLevelItemKind
	Comments []string
	Span     ast.Span
	Context  *TopLevelContext

	// Definition
	Mutable bool
	Pattern ids.PatternId
	Rhs     ids.ExprId

	// TypeDefinition
	TypeName string
	Generics []string
	Variants []TypeVariant
	Fields   []TypeField

	// TraitDefinition
	TraitName    string
	TraitMethods []TraitMethod

	// TraitImpl
	ImplTrait ids.PathId
	ImplType  ids.PathId
	ImplBody  []TopLevelItem // method definitions, nested for locality

	// EffectDefinition
	EffectName string
	EffectOps  []EffectOp

	// Extern
	ExternName string
	ExternType ids.PathId

	// Comptime
	ComptimeBody ids.ExprId
}

// Import is a `use`/`import` declaration at the top of a source file.
type Import struct {
	Path    string
	Symbols []string // empty means "import everything exported"
	Span    ast.Span
}

// Cst is the parsed form of one source file: its imports and its top-level items.
type Cst struct {
	File    ids.SourceFileId
	Path    string
	Imports []Import
	Items   []TopLevelItem
}
