// Command ailang is the compiler's CLI front end: the one piece spec.md §1
// deliberately leaves external ("we assume a CST exists... the CLI front-end" is listed
// among what core scope assumes). It drives internal/driver's compile pipeline the same
// way the teacher's eval/repl commands drove internal/pipeline.Run, but dispatches via
// spf13/cobra instead of the stdlib flag package, matching the rest of the corpus's CLI
// convention (spf13/cobra + spf13/pflag) rather than the teacher's own flag-based one.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	bold = color.New(color.Bold).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
)

func main() {
	// .ailang.env (falling back to .env) seeds AILANG_STDLIB before any flag is parsed,
	// so a project-local env file behaves the same as an exported shell var
	// (resolveStdlibPath in stdlib.go reads it via os.Getenv).
	if err := godotenv.Load(".ailang.env"); err != nil {
		_ = godotenv.Load(".env")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts compileOptions

	root := &cobra.Command{
		Use:           "ailang <file>",
		Short:         "Compile and inspect AILANG source files",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], opts)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.optLevel, "optimize", "O", "0", "optimization level: 0,1,2,3,s,z")
	flags.BoolVar(&opts.showTokens, "show-tokens", false, "print the lexed token stream and exit")
	flags.BoolVar(&opts.showParse, "show-parse", false, "print the parsed syntax tree and exit")
	flags.BoolVar(&opts.showResolved, "show-resolved", false, "print name-resolution origins and exit")
	flags.BoolVar(&opts.showTypes, "show-types", false, "print every top-level item's inferred type and exit")
	flags.BoolVar(&opts.check, "check", false, "report diagnostics only; the full pipeline, MIR lowering included, still runs")
	flags.BoolVar(&opts.build, "build", false, "compile through MIR lowering (default action)")
	flags.StringVar(&opts.emit, "emit", "", "dump an intermediate form: ir|hir")
	flags.BoolVar(&opts.deleteBinary, "delete-binary", false, "accepted for compatibility; no binary is produced, so nothing is removed")
	flags.StringVar(&opts.backend, "backend", "llvm", "code-generation backend: llvm|cranelift (unimplemented, recorded only)")
	flags.BoolVar(&opts.showLifetimes, "show-lifetimes", false, "print borrow/lifetime annotations (unimplemented)")
	flags.BoolVar(&opts.showTime, "show-time", false, "print the total elapsed time and session id for this compilation round")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored diagnostic output")
	flags.BoolVarP(&opts.incremental, "incremental", "i", false, "reuse a persisted query cache across invocations")

	root.AddCommand(newInspectCmd())
	return root
}

// useColor applies spec.md §6's rule: explicit --no-color always wins, otherwise color
// is on only when stdout is a real terminal (go-isatty), matching common CLI convention
// for auto-disabling color in pipes/CI logs.
func useColor(noColor bool) bool {
	if noColor {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
