package mir

import (
	"fmt"
	"strings"

	"github.com/sunholo/ailang/internal/ids"
)

// String renders f in the flat textual form the CLI's --emit=ir dump prints directly:
// a header line naming the function, then for each block a label line followed by one
// line per instruction and one for its terminator.
func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s {\n", f.Id, f.Name)
	for i, blk := range f.Blocks {
		fmt.Fprintf(&b, "  %s%s:\n", ids.BlockId(i), blk.paramsString())
		for _, instrId := range blk.Instructions {
			fmt.Fprintf(&b, "    %s = %s\n", instrId, f.Instructions[instrId].String())
		}
		if blk.Terminator != nil {
			fmt.Fprintf(&b, "    %s\n", blk.Terminator.String())
		}
	}
	b.WriteString("}")
	return b.String()
}

func (b *Block) paramsString() string {
	if len(b.ParameterTypes) == 0 {
		return ""
	}
	parts := make([]string, len(b.ParameterTypes))
	for i, t := range b.ParameterTypes {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (v *ErrorValue) String() string             { return "<error>" }
func (v *UnitValue) String() string              { return "unit" }
func (v *BoolValue) String() string              { return fmt.Sprintf("%v", v.Value) }
func (v *CharValue) String() string              { return fmt.Sprintf("%q", v.Value) }
func (v *IntegerValue) String() string            { return fmt.Sprintf("%d", v.Constant.Value) }
func (v *FloatValue) String() string              { return fmt.Sprintf("%g", v.Constant.Value) }
func (v *InstructionResultValue) String() string  { return v.Id.String() }
func (v *ParameterValue) String() string          { return fmt.Sprintf("%s.p%d", v.Block, v.Index) }
func (v *FunctionValue) String() string           { return fmt.Sprintf("fn(%s)", v.Id) }
func (v *GlobalValue) String() string             { return fmt.Sprintf("global(%s)", v.Name) }

func valuesString(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func (i *CallInstruction) String() string {
	return fmt.Sprintf("call %s(%s)", i.Function, valuesString(i.Arguments))
}

func (i *IndexTupleInstruction) String() string {
	return fmt.Sprintf("index_tuple %s, %d", i.Tuple, i.Index)
}

func (i *MakeTupleInstruction) String() string {
	return fmt.Sprintf("make_tuple(%s)", valuesString(i.Elements))
}

func (i *MakeStringInstruction) String() string {
	return fmt.Sprintf("make_string %q", i.Value)
}

func (i *StackAllocInstruction) String() string {
	return fmt.Sprintf("stack_alloc %s", i.Init)
}

func (i *TransmuteInstruction) String() string {
	return fmt.Sprintf("transmute %s to %s", i.Value, i.To)
}

func (t *JmpTerminator) String() string {
	return fmt.Sprintf("jmp %s(%s)", t.Target, valuesString(t.Args))
}

func (t *IfTerminator) String() string {
	return fmt.Sprintf("if %s then %s else %s end %s", t.Condition, t.Then, t.Else, t.End)
}

func (t *SwitchTerminator) String() string {
	parts := make([]string, len(t.Cases))
	for i, c := range t.Cases {
		parts[i] = fmt.Sprintf("%s(%s)", c.Block, valuesString(c.Args))
	}
	s := fmt.Sprintf("switch %s [%s]", t.IntValue, strings.Join(parts, ", "))
	if t.HasElse {
		s += fmt.Sprintf(" else %s(%s)", t.Else.Block, valuesString(t.Else.Args))
	}
	return s + fmt.Sprintf(" end %s", t.End)
}

func (t *ReturnTerminator) String() string      { return fmt.Sprintf("return %s", t.Value) }
func (t *UnreachableTerminator) String() string { return "unreachable" }
