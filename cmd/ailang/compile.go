package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/diagnostics"
	"github.com/sunholo/ailang/internal/driver"
	"github.com/sunholo/ailang/internal/lexer"
	"github.com/sunholo/ailang/internal/querydb"
	"github.com/sunholo/ailang/internal/resolve"
)

// compileOptions mirrors spec.md §6's flag surface. showTokens/showParse/showResolved/
// showTypes/check/build/emit/deleteBinary are mutually exclusive "what to do" modes;
// everything else modifies how that one mode runs.
type compileOptions struct {
	optLevel string

	showTokens   bool
	showParse    bool
	showResolved bool
	showTypes    bool
	check        bool
	build        bool
	emit         string
	deleteBinary bool

	backend       string
	showLifetimes bool
	showTime      bool
	noColor       bool
	incremental   bool
}

// actionFlags returns the names of every "what to do" flag opts set, used to enforce
// their mutual exclusivity (spec.md §6 lists them as one-of).
func (o compileOptions) actionFlags() []string {
	var set []string
	if o.showTokens {
		set = append(set, "--show-tokens")
	}
	if o.showParse {
		set = append(set, "--show-parse")
	}
	if o.showResolved {
		set = append(set, "--show-resolved")
	}
	if o.showTypes {
		set = append(set, "--show-types")
	}
	if o.check {
		set = append(set, "--check")
	}
	if o.build {
		set = append(set, "--build")
	}
	if o.emit != "" {
		set = append(set, "--emit")
	}
	if o.deleteBinary {
		set = append(set, "--delete-binary")
	}
	return set
}

func runCompile(cmd *cobra.Command, path string, opts compileOptions) error {
	if flags := opts.actionFlags(); len(flags) > 1 {
		return fmt.Errorf("ailang: %s are mutually exclusive", strings.Join(flags, ", "))
	}
	if opts.emit != "" && opts.emit != "ir" && opts.emit != "hir" {
		return fmt.Errorf("ailang: --emit must be ir or hir, got %q", opts.emit)
	}

	sessionID := uuid.New()
	start := time.Now()
	color := useColor(opts.noColor)
	out := cmd.OutOrStdout()

	if opts.incremental {
		if err := os.MkdirAll(".ailang-cache", 0755); err != nil {
			return fmt.Errorf("ailang: creating cache dir: %w", err)
		}
		store, err := querydb.Open(".ailang-cache/local.db")
		if err != nil {
			return fmt.Errorf("ailang: opening incremental cache: %w", err)
		}
		defer store.Close()
	}

	if opts.showTokens {
		return runShowTokens(out, path)
	}

	cfg := loadProjectConfig()
	root := ""
	if cfg != nil {
		root = cfg.Root
	}
	unit, err := driver.CompileFile(path, resolveStdlibPath(cfg), root)
	if err != nil {
		return fmt.Errorf("ailang: %w", err)
	}

	switch {
	case opts.showParse:
		runShowParse(out, unit)
	case opts.showResolved:
		runShowResolved(out, unit, path)
	case opts.showTypes:
		runShowTypes(out, unit)
	case opts.emit != "":
		runEmit(out, unit, opts.emit)
	}

	if opts.showLifetimes {
		fmt.Fprintln(out, dim("lifetimes: Unimplemented"))
	}

	printDiagnostics(cmd.ErrOrStderr(), unit, path, color)

	if opts.showTime {
		fmt.Fprintf(out, "%s session=%s elapsed=%s\n", dim("[time]"), sessionID, time.Since(start))
	}

	if opts.deleteBinary {
		fmt.Fprintln(out, dim("--delete-binary: no binary was produced (backend codegen is unimplemented)"))
	}

	if unit.HasErrors() {
		os.Exit(1)
	}
	return nil
}

func runShowTokens(out io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ailang: reading %s: %w", path, err)
	}
	l := lexer.New(string(content), path)
	for {
		tok := l.NextToken()
		fmt.Fprintln(out, tok.String())
		if tok.Type == lexer.EOF {
			return nil
		}
	}
}

// kindName names a TopLevelItemKind for --show-parse's dump; cst.TopLevelItemKind has
// no String() of its own since query keys never render it, only this CLI does.
func kindName(k cst.TopLevelItemKind) string {
	switch k {
	case cst.ItemDefinition:
		return "definition"
	case cst.ItemTypeDefinition:
		return "type"
	case cst.ItemTraitDefinition:
		return "trait"
	case cst.ItemTraitImpl:
		return "impl"
	case cst.ItemEffectDefinition:
		return "effect"
	case cst.ItemExtern:
		return "extern"
	case cst.ItemComptime:
		return "comptime"
	default:
		return "unknown"
	}
}

func runShowParse(out io.Writer, unit *driver.Unit) {
	for _, id := range driver.SortedItemIds(unit.Items, unit.ItemOrder) {
		item := unit.Items[id]
		fmt.Fprintf(out, "%s %s\n", kindName(item.Kind), driver.ItemName(item.Context, item))
	}
}

func runShowResolved(out io.Writer, unit *driver.Unit, path string) {
	file, ok := unit.Files[path]
	if !ok {
		return
	}
	for _, id := range driver.SortedItemIds(unit.Items, unit.ItemOrder) {
		item := unit.Items[id]
		fmt.Fprintf(out, "%s:\n", driver.ItemName(item.Context, item))
		res, err := resolve.Resolve(nil, unit.DB, file, item)
		if err != nil || res == nil {
			continue
		}
		for name, origin := range res.NameOrigins {
			fmt.Fprintf(out, "  %s -> %s\n", name, origin)
		}
		for refId := range res.ReferencedItems {
			fmt.Fprintf(out, "  references %s\n", refId)
		}
	}
}

func runShowTypes(out io.Writer, unit *driver.Unit) {
	for _, id := range driver.SortedItemIds(unit.Items, unit.ItemOrder) {
		item := unit.Items[id]
		name := driver.ItemName(item.Context, item)
		g, ok := unit.Types[id]
		if !ok {
			fmt.Fprintf(out, "%s : <untyped>\n", name)
			continue
		}
		fmt.Fprintf(out, "%s : %s\n", name, g.Typ.String())
	}
}

func runEmit(out io.Writer, unit *driver.Unit, form string) {
	if form == "hir" {
		fmt.Fprintln(out, dim("--emit=hir: high-level IR dump is unimplemented; showing MIR instead"))
	}
	for _, fn := range unit.Functions {
		fmt.Fprintln(out, fn.String())
	}
}

func printDiagnostics(errOut io.Writer, unit *driver.Unit, path string, color bool) {
	var sourceLines []string
	if content, err := os.ReadFile(path); err == nil {
		sourceLines = strings.Split(string(content), "\n")
	}
	for _, d := range unit.Diagnostics {
		var line string
		if n := d.Span.Start.Line - 1; n >= 0 && n < len(sourceLines) {
			line = sourceLines[n]
		}
		diagnostics.Render(errOut, d, line, color)
	}
}
