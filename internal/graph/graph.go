package graph

import (
	"sort"

	"gdinfer/internal/extractor"
)

// Node represents a method in the dependency graph.
type Node struct {
	Key     MethodKey
	Unit    *extractor.CodeUnit
	File    string
	InCycle bool
}

// Edge is a directed "caller depends on callee" relationship. Edges are
// unique by (From, To, Kind).
type Edge struct {
	From        MethodKey
	To          MethodKey
	Kind        DependencyKind
	Param       string
	PartOfCycle bool
}

type edgeID struct {
	from, to MethodKey
	kind     DependencyKind
}

// Graph manages method nodes and their dependencies. Nodes live in a map
// keyed by MethodKey; edges refer to keys, never to nodes.
type Graph struct {
	Nodes      map[MethodKey]*Node
	Edges      []*Edge
	Unresolved []Unresolved

	out       map[MethodKey][]*Edge
	in        map[MethodKey][]*Edge
	edgeIndex map[edgeID]*Edge

	// Name -> keys, for binding unresolved calls.
	nameIndex map[string][]MethodKey

	cycles   [][]MethodKey
	detected bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[MethodKey]*Node),
		out:       make(map[MethodKey][]*Edge),
		in:        make(map[MethodKey][]*Edge),
		edgeIndex: make(map[edgeID]*Edge),
		nameIndex: make(map[string][]MethodKey),
	}
}

// AddMethod adds a node for key. Adding an existing key returns the existing
// node unchanged.
func (g *Graph) AddMethod(key MethodKey, unit *extractor.CodeUnit) *Node {
	if n, ok := g.Nodes[key]; ok {
		return n
	}
	n := &Node{Key: key, Unit: unit}
	if unit != nil {
		n.File = unit.Filepath
	}
	g.Nodes[key] = n
	g.nameIndex[key.Method] = append(g.nameIndex[key.Method], key)
	g.detected = false
	return n
}

// AddEdge links two known methods. It reports false when either endpoint is
// missing or the edge already exists.
func (g *Graph) AddEdge(from, to MethodKey, kind DependencyKind, param string) bool {
	if _, ok := g.Nodes[from]; !ok {
		return false
	}
	if _, ok := g.Nodes[to]; !ok {
		return false
	}
	id := edgeID{from: from, to: to, kind: kind}
	if _, ok := g.edgeIndex[id]; ok {
		return false
	}
	e := &Edge{From: from, To: to, Kind: kind, Param: param}
	g.edgeIndex[id] = e
	g.Edges = append(g.Edges, e)
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
	g.detected = false
	return true
}

// AddUnresolved records a call from `from` whose receiver type is unknown.
func (g *Graph) AddUnresolved(from MethodKey, name string, line int) {
	g.Unresolved = append(g.Unresolved, Unresolved{From: from, Name: name, Line: line})
}

// LinkUnresolved binds unresolved calls by name. A name declared by exactly
// one method becomes a CallSite edge; the rest keep a reason.
func (g *Graph) LinkUnresolved() int {
	linked := 0
	kept := g.Unresolved[:0]
	for _, u := range g.Unresolved {
		keys := g.nameIndex[u.Name]
		switch len(keys) {
		case 0:
			u.Reason = ReasonNoCandidate
		case 1:
			g.AddEdge(u.From, keys[0], CallSite, "")
			linked++
			continue
		default:
			u.Reason = ReasonAmbiguous
		}
		kept = append(kept, u)
	}
	g.Unresolved = kept
	return linked
}

// MethodsNamed lists every method key with the given name, sorted.
func (g *Graph) MethodsNamed(name string) []MethodKey {
	out := append([]MethodKey(nil), g.nameIndex[name]...)
	SortKeys(out)
	return out
}

// EdgesFrom returns the out-edges of key.
func (g *Graph) EdgesFrom(key MethodKey) []*Edge {
	return g.out[key]
}

// EdgesTo returns the in-edges of key.
func (g *Graph) EdgesTo(key MethodKey) []*Edge {
	return g.in[key]
}

// GetDependencies returns all nodes that the given node depends on.
func (g *Graph) GetDependencies(key MethodKey) []*Node {
	return g.collect(g.out[key], func(e *Edge) MethodKey { return e.To })
}

// GetDependents returns all nodes that depend on the given node.
func (g *Graph) GetDependents(key MethodKey) []*Node {
	return g.collect(g.in[key], func(e *Edge) MethodKey { return e.From })
}

func (g *Graph) collect(edges []*Edge, end func(*Edge) MethodKey) []*Node {
	seen := make(map[MethodKey]bool)
	var nodes []*Node
	for _, e := range edges {
		k := end(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		if n, ok := g.Nodes[k]; ok {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return less(nodes[i].Key, nodes[j].Key) })
	return nodes
}

// TransitiveDependents returns every method that reaches one of seeds
// through one or more edges, excluding the seeds themselves.
func (g *Graph) TransitiveDependents(seeds ...MethodKey) []MethodKey {
	isSeed := make(map[MethodKey]bool, len(seeds))
	for _, s := range seeds {
		isSeed[s] = true
	}
	seen := make(map[MethodKey]bool)
	queue := append([]MethodKey(nil), seeds...)
	var out []MethodKey
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, e := range g.in[k] {
			if seen[e.From] {
				continue
			}
			seen[e.From] = true
			queue = append(queue, e.From)
			if !isSeed[e.From] {
				out = append(out, e.From)
			}
		}
	}
	SortKeys(out)
	return out
}

// Component returns every method connected to one of seeds, ignoring edge
// direction, seeds included.
func (g *Graph) Component(seeds ...MethodKey) []MethodKey {
	seen := make(map[MethodKey]bool)
	var queue, out []MethodKey
	for _, s := range seeds {
		if _, ok := g.Nodes[s]; ok && !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		out = append(out, k)
		for _, e := range g.out[k] {
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
		for _, e := range g.in[k] {
			if !seen[e.From] {
				seen[e.From] = true
				queue = append(queue, e.From)
			}
		}
	}
	SortKeys(out)
	return out
}

// Keys returns every node key, sorted.
func (g *Graph) Keys() []MethodKey {
	keys := make([]MethodKey, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys orders keys by type, then method.
func SortKeys(keys []MethodKey) {
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
}
