// Package crate models the crate graph spec.md §6 describes: a set of named crates,
// each with a path, a dependency list, and a set of source files, plus the built-in
// Std crate every other crate depends on implicitly.
//
// Crate-graph file-system discovery is explicitly out of scope for the core spec
// (spec.md §1: "these are external collaborators described only by the interfaces the
// core uses") but SPEC_FULL.md's ambient CLI surface needs a concrete implementation
// to drive the query engine's `GetCrateGraph` input, so Discover here plays that
// external-collaborator role the same way internal/cst.FromFile plays it for parsing.
package crate

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sunholo/ailang/internal/ids"
)

// StdName is the name of the built-in standard-library crate, always present in the
// graph and always an implicit dependency of every other crate (spec.md §6).
const StdName = "Std"

// Crate is one node of the crate graph.
type Crate struct {
	Name         string
	Path         string
	Dependencies []ids.CrateId
	SourceFiles  []string
}

// Graph is the full crate dependency graph, an input to the query database
// (`Input.set(db, value)` target named in spec.md §4.1).
type Graph struct {
	crates []Crate
	byName map[string]ids.CrateId
}

// New creates an empty crate graph.
func New() *Graph {
	return &Graph{byName: make(map[string]ids.CrateId)}
}

// Add inserts a crate and returns its id. Re-adding a name already present replaces the
// entry in place, keeping its id stable — discovery re-runs need this when file lists
// change between compilation rounds.
func (g *Graph) Add(c Crate) ids.CrateId {
	if id, ok := g.byName[c.Name]; ok {
		g.crates[id] = c
		return id
	}
	id := ids.CrateId(len(g.crates))
	g.crates = append(g.crates, c)
	g.byName[c.Name] = id
	return id
}

// Lookup resolves a crate by name, the operation the resolver's crate-qualified-path
// step (spec.md §4.3 step 3) uses.
func (g *Graph) Lookup(name string) (ids.CrateId, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// Crate returns the crate stored at id.
func (g *Graph) Crate(id ids.CrateId) Crate {
	return g.crates[id]
}

// Dependencies returns id's direct dependency ids.
func (g *Graph) Dependencies(id ids.CrateId) []ids.CrateId {
	return g.crates[id].Dependencies
}

// Len reports how many crates the graph holds.
func (g *Graph) Len() int { return len(g.crates) }

// Discover builds a crate graph rooted at root: the local crate is seeded with every
// `.an` file under `root/src`, and every directory under `root/deps` becomes a
// subcrate seeded the same way, depending on Std. stdlibPath, if non-empty, is
// registered as the Std crate's source; if empty, Std is still present in the graph
// (with no source files) so lookups of the name never fail.
func Discover(root, stdlibPath string) (*Graph, error) {
	g := New()

	stdFiles, err := globSourceFiles(stdlibPath)
	if err != nil {
		return nil, fmt.Errorf("crate: discovering Std sources: %w", err)
	}
	stdId := g.Add(Crate{Name: StdName, Path: stdlibPath, SourceFiles: stdFiles})

	localFiles, err := globSourceFiles(root)
	if err != nil {
		return nil, fmt.Errorf("crate: discovering local sources: %w", err)
	}
	g.Add(Crate{Name: "local", Path: root, Dependencies: []ids.CrateId{stdId}, SourceFiles: localFiles})

	depsDir := filepath.Join(root, "deps")
	entries, err := doublestar.FilepathGlob(filepath.Join(depsDir, "*"))
	if err != nil {
		return nil, fmt.Errorf("crate: listing %s: %w", depsDir, err)
	}
	sort.Strings(entries)
	for _, depPath := range entries {
		name := filepath.Base(depPath)
		files, err := globSourceFiles(depPath)
		if err != nil {
			return nil, fmt.Errorf("crate: discovering %s sources: %w", name, err)
		}
		g.Add(Crate{Name: name, Path: depPath, Dependencies: []ids.CrateId{stdId}, SourceFiles: files})
	}

	return g, nil
}

func globSourceFiles(root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	pattern := filepath.Join(filepath.ToSlash(root), "src", "**", "*.an")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
