package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/width"
)

// Render writes one diagnostic in the §6 wire format:
//
//	path:line:column<TAB>{error|warning|note}: message
//
// followed by the offending source line and a caret indicator (colored or not). sourceLine
// may be empty if the line is unavailable (e.g. a synthesized span).
func Render(w io.Writer, d Diagnostic, sourceLine string, useColor bool) {
	tag := d.Severity.String()
	if useColor {
		tag = colorForSeverity(d.Severity)(tag)
	}
	fmt.Fprintf(w, "%s\t%s: %s\n", d.Span.Start, tag, d.Message)
	if sourceLine == "" {
		return
	}
	fmt.Fprintln(w, sourceLine)
	fmt.Fprintln(w, caret(sourceLine, d.Span.Start.Column))
}

func colorForSeverity(s Severity) func(a ...interface{}) string {
	switch s {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgCyan).SprintFunc()
	}
}

// caret builds a "   ^" indicator under column col (1-indexed), accounting for
// double-width runes so the caret still lines up under CJK/emoji source text.
func caret(line string, col int) string {
	if col < 1 {
		col = 1
	}
	runes := []rune(line)
	limit := col - 1
	if limit > len(runes) {
		limit = len(runes)
	}
	var b strings.Builder
	for _, r := range runes[:limit] {
		if width.LookupRune(r).Kind() == width.EastAsianWide {
			b.WriteString("  ")
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('^')
	return b.String()
}
