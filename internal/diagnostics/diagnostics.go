// Package diagnostics accumulates the error and warning variants every query in the
// engine may produce, keyed by source location. It generalizes the teacher's
// internal/errors package (same Report/code-taxonomy shape) to the full kind set §7
// requires, and adds the out-of-band per-query accumulation the query engine needs for
// stale-diagnostic discard on invalidation.
package diagnostics

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/sunholo/ailang/internal/ast"
)

// Severity distinguishes error from warning/note diagnostics. Only Error causes a
// non-zero exit code (§6).
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Kind tags the taxonomy of diagnostic (§7). The code string is what's rendered; Kind
// lets callers branch without string-matching codes.
type Kind string

const (
	KindParse                   Kind = "PAR"
	KindMissingImport           Kind = "RSV001"
	KindDuplicateName           Kind = "RSV002"
	KindNameNotInScope          Kind = "RSV003"
	KindUnknownType             Kind = "RSV004"
	KindNamespaceNotFound       Kind = "RSV005"
	KindMethodOnUnknownType     Kind = "RSV006"
	KindLiteralAsName           Kind = "RSV007"
	KindRecursiveType           Kind = "TYP001"
	KindValueExpectedButGotType Kind = "TYP002"
	KindFunctionArgCountMismatch Kind = "TYP003"
	KindTypeMismatch            Kind = "TYP004"
	KindConstructorFieldMissing Kind = "TYP005"
	KindConstructorFieldDup     Kind = "TYP006"
	KindConstructorFieldUnknown Kind = "TYP007"
	KindConstructorNotAStruct   Kind = "TYP008"
	KindNonExhaustiveMatch      Kind = "PAT001"
	KindUnimplemented           Kind = "GEN001"
	KindImplicitAmbiguous       Kind = "TYP009"
	KindImplicitNotFound        Kind = "TYP010"
)

// TypeErrorKind tags *why* a unification failed so the user-facing message can be
// specific (§4.6 "Unification").
type TypeErrorKind int

const (
	General TypeErrorKind = iota
	TypeAnnotationMismatch
	ElseBranch
	MatchBranch
	IfStatement
	LambdaKind
	ConstructorKind
	ReferenceKind
	ExpectedNonReference
)

// Diagnostic is the canonical structured diagnostic type. Every query-produced error
// or warning is one of these; nothing is propagated by panic/unwind (§7).
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Span     ast.Span
	// TypeKind is populated only for KindTypeMismatch diagnostics.
	TypeKind TypeErrorKind
	// Related carries secondary spans, e.g. the first and second definition sites of a
	// duplicate-name warning (§4.2).
	Related []ast.Span
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.Start, d.Severity, d.Message)
}

// Accumulator collects diagnostics produced while running a single query. The query
// engine associates the finished set with the query's cache entry so that invalidating
// the query discards exactly these diagnostics (§4.1).
type Accumulator struct {
	diags []Diagnostic
}

func NewAccumulator() *Accumulator { return &Accumulator{} }

func (a *Accumulator) Accumulate(d Diagnostic) { a.diags = append(a.diags, d) }

func (a *Accumulator) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(a.diags))
	copy(out, a.diags)
	return out
}

// HasErrors reports whether any accumulated diagnostic is Severity Error.
func (a *Accumulator) HasErrors() bool {
	for _, d := range a.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by source location and secondarily by message, the ordering
// guarantee §5 promises within a single query's output and §7 promises for the final
// deduplicated report.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Start.File != b.Span.Start.File {
			return a.Span.Start.File < b.Span.Start.File
		}
		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}
		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}
		return a.Message < b.Message
	})
}

// Dedup removes exact duplicates after Sort, the final step before printing (§7:
// "deduplicated and sorted by location").
func Dedup(diags []Diagnostic) []Diagnostic {
	if len(diags) == 0 {
		return diags
	}
	out := diags[:1]
	for _, d := range diags[1:] {
		last := out[len(out)-1]
		if reflect.DeepEqual(d, last) {
			continue
		}
		out = append(out, d)
	}
	return out
}
