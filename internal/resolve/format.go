package resolve

import "fmt"

func (k OriginKind) String() string {
	switch k {
	case OriginTopLevelDefinition:
		return "top-level"
	case OriginLocal:
		return "local"
	case OriginTypeResolution:
		return "type"
	case OriginBuiltin:
		return "builtin"
	case OriginUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// String renders an Origin the way the CLI's --show-resolved dump prints it: the kind,
// plus whichever identifying field that kind carries.
func (o Origin) String() string {
	switch o.Kind {
	case OriginTopLevelDefinition:
		return fmt.Sprintf("top-level(%s)", o.TopName)
	case OriginLocal:
		return fmt.Sprintf("local(%s)", o.Local)
	case OriginBuiltin:
		return fmt.Sprintf("builtin(%s)", o.Builtin)
	default:
		return o.Kind.String()
	}
}
