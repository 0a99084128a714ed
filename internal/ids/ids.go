// Package ids defines the dense, phantom-typed index identifiers shared across the
// compiler's core passes. Every identifier is a cheap-to-copy u32 wrapper indexing into
// a per-owner vector, so cloning a query result for cache-equality never walks a pointer
// graph.
package ids

import "fmt"

// NameId indexes into a TopLevelContext's name vector. Local to one top-level item.
type NameId uint32

func (n NameId) String() string { return fmt.Sprintf("name%d", uint32(n)) }

// PathId indexes into a TopLevelContext's path vector. Local to one top-level item.
type PathId uint32

func (p PathId) String() string { return fmt.Sprintf("path%d", uint32(p)) }

// ExprId indexes into a TopLevelContext's expression vector. Local to one top-level item.
type ExprId uint32

func (e ExprId) String() string { return fmt.Sprintf("expr%d", uint32(e)) }

// PatternId indexes into a TopLevelContext's pattern vector. Local to one top-level item.
type PatternId uint32

func (p PatternId) String() string { return fmt.Sprintf("pat%d", uint32(p)) }

// CrateId identifies one crate within a CrateGraph.
type CrateId uint32

func (c CrateId) String() string { return fmt.Sprintf("crate%d", uint32(c)) }

// SourceFileId identifies one source file, scoped to a crate.
type SourceFileId struct {
	Crate  CrateId
	Module uint32
}

func (f SourceFileId) String() string { return fmt.Sprintf("file(%d,%d)", f.Crate, f.Module) }

// TopLevelId is a globally unique identifier for one top-level item, derived from the
// hash of {source file, content}. Two items with identical source text in the same file
// position hash identically, which is what lets the query engine recognize "nothing
// changed" across incremental recompiles without comparing ASTs structurally.
type TopLevelId struct {
	File SourceFileId
	Hash uint64
}

func (t TopLevelId) String() string { return fmt.Sprintf("item(%s,%#x)", t.File, t.Hash) }

// TopLevelName is a fully-qualified binding site: a top-level item plus a name local to it.
type TopLevelName struct {
	Item TopLevelId
	Name NameId
}

func (n TopLevelName) String() string { return fmt.Sprintf("%s::%s", n.Item, n.Name) }

// TypeId indexes into a TypeContext's interning table.
type TypeId uint32

func (t TypeId) String() string { return fmt.Sprintf("type%d", uint32(t)) }

// TypeVariableId identifies one unification variable, unique within a single SCC's
// type-check pass.
type TypeVariableId uint32

func (t TypeVariableId) String() string { return fmt.Sprintf("'t%d", uint32(t)) }

// FunctionId identifies one MIR function: the top-level item it was built for, plus an
// index distinguishing the outer definition (index 0) from lambdas lifted out of its body.
type FunctionId struct {
	TopLevel TopLevelId
	Index    uint32
}

func (f FunctionId) String() string { return fmt.Sprintf("fn(%s,#%d)", f.TopLevel, f.Index) }

// BlockId indexes into a Function's dense block vector. Block 0 is always the entry block.
type BlockId uint32

func (b BlockId) String() string { return fmt.Sprintf("bb%d", uint32(b)) }

// InstructionId indexes into a Function's dense instruction vector.
type InstructionId uint32

func (i InstructionId) String() string { return fmt.Sprintf("%%%d", uint32(i)) }
