package builtins

// Builtin names one of the core language's built-in names (spec.md §4.3 step 4): the
// final fallback the name resolver tries once local scope, visible definitions/types,
// and crate-qualified paths have all failed. Whether a given occurrence means the type
// or the value is context-dependent and left to the caller (type position vs. value
// position), matching spec.md's "type vs value is context-dependent" note.
type Builtin int

const (
	BuiltinUnit Builtin = iota
	BuiltinInt
	BuiltinChar
	BuiltinFloat
	BuiltinString
	BuiltinPtr
	BuiltinPair
)

func (b Builtin) String() string {
	switch b {
	case BuiltinUnit:
		return "Unit"
	case BuiltinInt:
		return "Int"
	case BuiltinChar:
		return "Char"
	case BuiltinFloat:
		return "Float"
	case BuiltinString:
		return "String"
	case BuiltinPtr:
		return "Ptr"
	case BuiltinPair:
		return ","
	default:
		return "<unknown builtin>"
	}
}

// builtinNames is a flat, dependency-free name-to-enum map, scoped to the small fixed
// set of names the resolver/type-checker core needs (see DESIGN.md).
var builtinNames = map[string]Builtin{
	"Unit":   BuiltinUnit,
	"Int":    BuiltinInt,
	"Char":   BuiltinChar,
	"Float":  BuiltinFloat,
	"String": BuiltinString,
	"Ptr":    BuiltinPtr,
	",":      BuiltinPair,
}

// LookupBuiltin resolves name against the fixed built-in name set.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}
