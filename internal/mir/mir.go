// Package mir implements the block-CFG medium-level IR spec.md §3.5 describes: a
// Function owning a dense vector of Blocks and a dense vector of Instructions, where
// control flow is expressed as block parameters (a basic-block-arguments SSA form)
// rather than phi nodes. Every sum type here follows the same "tagged variants instead
// of inheritance" shape internal/cst, internal/itypes, and internal/extended already
// use: a closed interface with an unexported marker method and one concrete struct per
// variant.
package mir

import (
	"fmt"

	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
)

// IntConstant is a fixed-width integer literal value, tagged with which primitive width
// it was typed to (spec.md's literal.go placeholder pins every IntLit to I32, but a
// constructor's synthesized tag value may need a different width later).
type IntConstant struct {
	Value int64
	Kind  itypes.PrimitiveType
}

// FloatConstant is a floating-point literal value, tagged the same way as IntConstant.
type FloatConstant struct {
	Value float64
	Kind  itypes.PrimitiveType
}

// Value is spec.md §3.5's `Value` sum type: `Error | Unit | Bool | Char |
// Integer(IntConstant) | Float(FloatConstant) | InstructionResult(InstructionId) |
// Parameter(BlockId, u32) | Function(FunctionId) | Global(TopLevelName)`.
type Value interface {
	isValue()
	String() string
}

type ErrorValue struct{}
type UnitValue struct{}
type BoolValue struct{ Value bool }
type CharValue struct{ Value rune }
type IntegerValue struct{ Constant IntConstant }
type FloatValue struct{ Constant FloatConstant }

// InstructionResultValue names the value an earlier instruction in the same function
// produced. Per spec.md's invariant, it may only be referenced from blocks reachable
// from the block that produced it.
type InstructionResultValue struct{ Id ids.InstructionId }

// ParameterValue names one of a block's own parameters — the value a predecessor
// supplies via a Jmp's argument list, read by the block itself.
type ParameterValue struct {
	Block ids.BlockId
	Index uint32
}

// FunctionValue denotes a function used as a first-class value (a lambda lifted to its
// own FunctionId, referenced from the block that defined it).
type FunctionValue struct{ Id ids.FunctionId }

// GlobalValue denotes a reference to a top-level definition.
type GlobalValue struct{ Name ids.TopLevelName }

func (*ErrorValue) isValue()             {}
func (*UnitValue) isValue()              {}
func (*BoolValue) isValue()              {}
func (*CharValue) isValue()              {}
func (*IntegerValue) isValue()           {}
func (*FloatValue) isValue()             {}
func (*InstructionResultValue) isValue() {}
func (*ParameterValue) isValue()         {}
func (*FunctionValue) isValue()          {}
func (*GlobalValue) isValue()            {}

// Instruction is spec.md §3.5's `Instruction` sum type: `Call{function, arguments},
// IndexTuple{tuple, index}, MakeTuple([Value]), MakeString(String), StackAlloc(Value),
// Transmute(Value)`.
type Instruction interface {
	isInstruction()
	String() string
}

type CallInstruction struct {
	Function  Value
	Arguments []Value
}

type IndexTupleInstruction struct {
	Tuple Value
	Index int
}

type MakeTupleInstruction struct {
	Elements []Value
}

type MakeStringInstruction struct {
	Value string
}

// StackAllocInstruction allocates a mutable slot initialized to Init — used for `let
// mut` bindings (spec.md §4.8: "Definition (mutable) → value is wrapped in StackAlloc
// and stored in the locals map as a pointer") and for `&mut`/`own mut` reference
// expressions, which need the same addressable slot.
type StackAllocInstruction struct {
	Init Value
}

// TransmuteInstruction reinterprets Value as To without a runtime conversion — used to
// go from a sum type's erased union payload to the concrete variant's field tuple when a
// Switch case or a constructor pattern extracts the variant's fields.
type TransmuteInstruction struct {
	Value Value
	To    itypes.Type
}

func (*CallInstruction) isInstruction()       {}
func (*IndexTupleInstruction) isInstruction() {}
func (*MakeTupleInstruction) isInstruction()  {}
func (*MakeStringInstruction) isInstruction() {}
func (*StackAllocInstruction) isInstruction() {}
func (*TransmuteInstruction) isInstruction()  {}

// TerminatorInstruction is spec.md §3.5's `TerminatorInstruction` sum type:
// `Jmp(BlockId, [Value]), If{condition, then, else_, end}, Switch{int_value, cases:
// [(BlockId, [Value])], else_: Option<(BlockId, [Value])>, end: BlockId}, Return(Value),
// Unreachable`.
type TerminatorInstruction interface {
	isTerminator()
	String() string
}

type JmpTerminator struct {
	Target ids.BlockId
	Args   []Value
}

type IfTerminator struct {
	Condition  Value
	Then, Else ids.BlockId
	End        ids.BlockId
}

// SwitchCase is one `(BlockId, [Value])` pair of Switch's cases/else_.
type SwitchCase struct {
	Block ids.BlockId
	Args  []Value
}

type SwitchTerminator struct {
	IntValue Value
	Cases    []SwitchCase
	HasElse  bool
	Else     SwitchCase
	End      ids.BlockId
}

type ReturnTerminator struct{ Value Value }
type UnreachableTerminator struct{}

func (*JmpTerminator) isTerminator()         {}
func (*IfTerminator) isTerminator()          {}
func (*SwitchTerminator) isTerminator()      {}
func (*ReturnTerminator) isTerminator()      {}
func (*UnreachableTerminator) isTerminator() {}

// Block is spec.md §3.5's `Block`: parameter types, a list of instruction ids belonging
// to it, and exactly one terminator, set once and never mutated after (spec.md §4.8:
// "the block is not reused after").
type Block struct {
	ParameterTypes []itypes.Type
	Instructions   []ids.InstructionId
	Terminator     TerminatorInstruction
}

// Function is spec.md §3.5's `Function`: a dense block vector (block 0 is the entry
// block) and a dense instruction vector with a parallel result-type vector.
type Function struct {
	Id   ids.FunctionId
	Name string

	Blocks           []Block
	Instructions     []Instruction
	InstructionTypes []itypes.Type
}

// NewFunction allocates a Function with a single, parameterless entry block (block 0).
// Callers that need entry parameters append to Blocks[0].ParameterTypes before emitting
// any instruction that references Parameter(0, i).
func NewFunction(id ids.FunctionId, name string) *Function {
	return &Function{Id: id, Name: name, Blocks: []Block{{}}}
}

// EntryBlock is block 0, always present.
func (f *Function) EntryBlock() ids.BlockId { return 0 }

// AddBlock appends a new, terminator-less block and returns its id.
func (f *Function) AddBlock() ids.BlockId {
	f.Blocks = append(f.Blocks, Block{})
	return ids.BlockId(len(f.Blocks) - 1)
}

// AddParameter appends a parameter of type t to block b, returning the value that
// names it.
func (f *Function) AddParameter(b ids.BlockId, t itypes.Type) Value {
	idx := uint32(len(f.Blocks[b].ParameterTypes))
	f.Blocks[b].ParameterTypes = append(f.Blocks[b].ParameterTypes, t)
	return &ParameterValue{Block: b, Index: idx}
}

// Emit appends instr to block b's instruction list, recording resultType as its
// result's type, and returns a Value naming the result.
func (f *Function) Emit(b ids.BlockId, instr Instruction, resultType itypes.Type) Value {
	f.Instructions = append(f.Instructions, instr)
	f.InstructionTypes = append(f.InstructionTypes, resultType)
	id := ids.InstructionId(len(f.Instructions) - 1)
	f.Blocks[b].Instructions = append(f.Blocks[b].Instructions, id)
	return &InstructionResultValue{Id: id}
}

// Terminate sets block b's terminator. Panics if b already has one, enforcing
// spec.md §4.8's "the block is not reused after" rule at the point of misuse rather
// than silently overwriting an earlier terminator.
func (f *Function) Terminate(b ids.BlockId, term TerminatorInstruction) {
	if f.Blocks[b].Terminator != nil {
		panic(fmt.Sprintf("mir: block %s already terminated", b))
	}
	f.Blocks[b].Terminator = term
}
