package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/sunholo/ailang/internal/driver"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/resolve"
)

// newInspectCmd builds `ailang inspect <file>`, a small interactive query inspector:
// type a query key (`resolve <name>`, `typecheck <name>`, `mir <name>`, `:items`,
// `:quit`) against the file's compiled Unit and see its memoized value. It dogfoods the
// query engine's own introspection rather than reimplementing the teacher's
// internal/repl expression evaluator, which is built on an incompatible eval/types
// stack this module no longer has.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Interactively inspect a compiled file's queries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadProjectConfig()
			root := ""
			if cfg != nil {
				root = cfg.Root
			}
			unit, err := driver.CompileFile(args[0], resolveStdlibPath(cfg), root)
			if err != nil {
				return fmt.Errorf("ailang inspect: %w", err)
			}
			return runInspectREPL(cmd.OutOrStdout(), unit, args[0])
		},
	}
}

func runInspectREPL(out io.Writer, unit *driver.Unit, path string) error {
	names := itemNameIndex(unit)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".ailang_inspect_history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(partial string) []string {
		var completions []string
		for _, cmd := range []string{"resolve ", "typecheck ", "mir ", ":items", ":quit"} {
			if strings.HasPrefix(cmd, partial) {
				completions = append(completions, cmd)
			}
		}
		return completions
	})

	fmt.Fprintf(out, "inspecting %s — %d item(s). Try \":items\", \"typecheck <name>\", \"resolve <name>\", \"mir <name>\", \":quit\".\n", path, len(unit.ItemOrder))

	for {
		input, err := line.Prompt("ailang-inspect> ")
		if err != nil {
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == ":quit" || input == ":q" {
			break
		}
		handleInspectCommand(out, unit, names, path, input)
	}

	if f, err := os.Create(historyPath); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
	return nil
}

// itemNameIndex maps each top-level item's display name to its id, the lookup table
// every inspect query resolves its argument through.
func itemNameIndex(unit *driver.Unit) map[string]ids.TopLevelId {
	names := make(map[string]ids.TopLevelId, len(unit.Items))
	for _, id := range unit.ItemOrder {
		item := unit.Items[id]
		names[driver.ItemName(item.Context, item)] = id
	}
	return names
}

func handleInspectCommand(out io.Writer, unit *driver.Unit, names map[string]ids.TopLevelId, path, input string) {
	if input == ":items" {
		for _, id := range driver.SortedItemIds(unit.Items, unit.ItemOrder) {
			fmt.Fprintln(out, driver.ItemName(unit.Items[id].Context, unit.Items[id]))
		}
		return
	}

	parts := strings.SplitN(input, " ", 2)
	if len(parts) != 2 {
		fmt.Fprintln(out, "usage: resolve|typecheck|mir <name>, :items, :quit")
		return
	}
	query, arg := parts[0], strings.TrimSpace(parts[1])

	id, ok := names[arg]
	if !ok {
		fmt.Fprintf(out, "no such item: %s\n", arg)
		return
	}

	switch query {
	case "typecheck":
		g, ok := unit.Types[id]
		if !ok {
			fmt.Fprintln(out, "<untyped>")
			return
		}
		fmt.Fprintln(out, g.Typ.String())

	case "resolve":
		file, ok := unit.Files[path]
		if !ok {
			fmt.Fprintln(out, "<no source file>")
			return
		}
		res, err := resolve.Resolve(nil, unit.DB, file, unit.Items[id])
		if err != nil || res == nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		for name, origin := range res.NameOrigins {
			fmt.Fprintf(out, "%s -> %s\n", name, origin)
		}

	case "mir":
		printed := false
		for fnId, fn := range unit.Functions {
			if fnId.TopLevel == id {
				fmt.Fprintln(out, fn.String())
				printed = true
			}
		}
		if !printed {
			fmt.Fprintln(out, "<no MIR — not a value definition, or type-checking failed>")
		}

	default:
		fmt.Fprintf(out, "unknown query %q\n", query)
	}
}
