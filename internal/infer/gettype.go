package infer

import (
	"github.com/sunholo/ailang/internal/collect"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/depgraph"
	"github.com/sunholo/ailang/internal/ids"
	"github.com/sunholo/ailang/internal/itypes"
	"github.com/sunholo/ailang/internal/query"
	"github.com/sunholo/ailang/internal/resolve"
)

// dependencyGraphKey memoizes the whole-program SCC partition (spec.md §4.5), built by
// resolving every item in the program-wide item table and recording an edge to every
// item it references. The edge is drawn whether or not the referenced item carries a
// type annotation; annotated items are type-checked the same way as unannotated ones.
type dependencyGraphKey struct{}

func getPartition(c *query.Context, db *query.Database) (*depgraph.Partition, error) {
	return query.Get(c, db, dependencyGraphKey{}, func(qc *query.Context) (*depgraph.Partition, error) {
		table, _ := query.GetInput[map[ids.TopLevelId]*cst.TopLevelItem](qc, db, collect.ItemTableKey{})
		g := depgraph.New()
		for id, item := range table {
			g.AddNode(id)
			res, err := resolve.Resolve(qc, db, id.File, item)
			if err != nil {
				return nil, err
			}
			for ref := range res.ReferencedItems {
				g.AddNode(ref)
				g.AddEdge(id, ref)
			}
		}
		return g.Partition(), nil
	})
}

// sccKey identifies a memoized TypeCheckSCC run by the SCC's member with the smallest
// content Hash, a stable representative since depgraph.Partition's SCCs never reorder their
// members across an unrelated edit (spec.md §4.5's post-order is deterministic).
type sccKey struct{ First ids.TopLevelId }

func sccRepresentative(scc []ids.TopLevelId) ids.TopLevelId {
	best := scc[0]
	for _, id := range scc[1:] {
		if id.Hash < best.Hash {
			best = id
		}
	}
	return best
}

func checkSCCMemoized(c *query.Context, db *query.Database, scc []ids.TopLevelId) (*Result, error) {
	key := sccKey{First: sccRepresentative(scc)}
	return query.Get(c, db, key, func(qc *query.Context) (*Result, error) {
		lookup := func(id ids.TopLevelId) (itypes.GeneralizedType, bool) {
			g, _, err := GetType(qc, db, id)
			if err != nil {
				return itypes.GeneralizedType{}, false
			}
			return g, true
		}
		return TypeCheckSCC(qc, db, scc, lookup)
	})
}

// GetType implements spec.md §4.4: the per-item fast path. Requesting one item's type
// triggers TypeCheckDependencyGraph once (memoized) and then only the TypeCheckSCC run
// for that item's own component — every other already-computed SCC is served from
// cache, so asking for a single function's type after an unrelated edit elsewhere in
// the program re-runs only the SCCs the query engine's dependency tracking says changed.
func GetType(c *query.Context, db *query.Database, id ids.TopLevelId) (itypes.GeneralizedType, bool, error) {
	partition, err := getPartition(c, db)
	if err != nil {
		return itypes.GeneralizedType{}, false, err
	}
	scc, ok := partition.GetTypeCheckSCC(id)
	if !ok {
		return itypes.GeneralizedType{}, false, nil
	}
	res, err := checkSCCMemoized(c, db, scc)
	if err != nil {
		return itypes.GeneralizedType{}, false, err
	}
	g, ok := res.ItemTypes[id]
	return g, ok, nil
}

// GetSCCResult is GetType's counterpart for callers that need the whole memoized
// Result (expr/pattern types, bindings, extended match-lowering) rather than just
// id's own generalized type — the MIR builder (internal/mir) is the main such caller,
// since a Function's body lowering needs every sub-expression's inferred type, not
// only the top-level signature.
func GetSCCResult(c *query.Context, db *query.Database, id ids.TopLevelId) (*Result, error) {
	partition, err := getPartition(c, db)
	if err != nil {
		return nil, err
	}
	scc, ok := partition.GetTypeCheckSCC(id)
	if !ok {
		return nil, nil
	}
	return checkSCCMemoized(c, db, scc)
}
