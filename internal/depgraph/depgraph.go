// Package depgraph builds the type-check dependency graph (spec.md §4.5): a directed
// edge from one top-level item to every other top-level item it references whose type
// isn't knowable from annotation alone. Tarjan's algorithm partitions the graph into
// strongly-connected components so mutually-recursive definitions type-check together.
package depgraph

import "github.com/sunholo/ailang/internal/ids"

// Graph is a directed graph over top-level ids.
type Graph struct {
	nodes []ids.TopLevelId
	edges map[ids.TopLevelId][]ids.TopLevelId
	seen  map[ids.TopLevelId]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		edges: make(map[ids.TopLevelId][]ids.TopLevelId),
		seen:  make(map[ids.TopLevelId]bool),
	}
}

// AddNode registers id, idempotently.
func (g *Graph) AddNode(id ids.TopLevelId) {
	if !g.seen[id] {
		g.nodes = append(g.nodes, id)
		g.seen[id] = true
		g.edges[id] = nil
	}
}

// AddEdge records that from's type-check depends on to's. The graph keeps every edge it
// is given and does not check whether to's type is knowable from its own annotation;
// its caller in internal/infer adds an edge for every referenced item.
func (g *Graph) AddEdge(from, to ids.TopLevelId) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

// SCCs partitions the graph into strongly-connected components via Tarjan's algorithm,
// returned in reverse topological (post) order: a component only depends on components
// appearing at or before its own index.
func (g *Graph) SCCs() [][]ids.TopLevelId {
	t := &tarjan{
		graph:    g,
		index:    make(map[ids.TopLevelId]int),
		lowlink:  make(map[ids.TopLevelId]int),
		onStack:  make(map[ids.TopLevelId]bool),
		nextIdx:  0,
	}
	for _, n := range g.nodes {
		if _, visited := t.index[n]; !visited {
			t.strongconnect(n)
		}
	}
	return t.sccs
}

type tarjan struct {
	graph   *Graph
	index   map[ids.TopLevelId]int
	lowlink map[ids.TopLevelId]int
	onStack map[ids.TopLevelId]bool
	stack   []ids.TopLevelId
	nextIdx int
	sccs    [][]ids.TopLevelId
}

func (t *tarjan) strongconnect(v ids.TopLevelId) {
	t.index[v] = t.nextIdx
	t.lowlink[v] = t.nextIdx
	t.nextIdx++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph.edges[v] {
		if _, visited := t.index[w]; !visited {
			t.strongconnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []ids.TopLevelId
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

// Partition is the result of TypeCheckDependencyGraph: the SCCs in post-order plus the
// reverse index from item to its SCC's position.
type Partition struct {
	SCCs    [][]ids.TopLevelId
	idToSCC map[ids.TopLevelId]int
}

// Partition computes the SCC decomposition and the id->scc-index reverse map.
func (g *Graph) Partition() *Partition {
	sccs := g.SCCs()
	idToSCC := make(map[ids.TopLevelId]int, len(g.nodes))
	for i, scc := range sccs {
		for _, id := range scc {
			idToSCC[id] = i
		}
	}
	return &Partition{SCCs: sccs, idToSCC: idToSCC}
}

// GetTypeCheckSCC returns the SCC containing id, if id is known to the graph.
func (p *Partition) GetTypeCheckSCC(id ids.TopLevelId) ([]ids.TopLevelId, bool) {
	idx, ok := p.idToSCC[id]
	if !ok {
		return nil, false
	}
	return p.SCCs[idx], true
}

// SCCIndex returns the post-order position of id's SCC.
func (p *Partition) SCCIndex(id ids.TopLevelId) (int, bool) {
	idx, ok := p.idToSCC[id]
	return idx, ok
}
