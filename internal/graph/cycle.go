package graph

// tarjan holds the per-run state of Tarjan's strongly connected components
// algorithm.
type tarjan struct {
	g       *Graph
	index   int
	disc    map[MethodKey]int
	low     map[MethodKey]int
	onStack map[MethodKey]bool
	stack   []MethodKey
	sccs    [][]MethodKey
}

func (t *tarjan) connect(v MethodKey) {
	t.disc[v] = t.index
	t.low[v] = t.index
	t.index++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.successors(v) {
		if _, seen := t.disc[w]; !seen {
			t.connect(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.disc[w])
		}
	}

	if t.low[v] != t.disc[v] {
		return
	}
	var scc []MethodKey
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// successors lists the distinct targets of v's out-edges, sorted.
func (g *Graph) successors(v MethodKey) []MethodKey {
	seen := make(map[MethodKey]bool)
	var out []MethodKey
	for _, e := range g.out[v] {
		if !seen[e.To] {
			seen[e.To] = true
			out = append(out, e.To)
		}
	}
	SortKeys(out)
	return out
}

func (g *Graph) hasSelfLoop(k MethodKey) bool {
	for _, e := range g.out[k] {
		if e.To == k {
			return true
		}
	}
	return false
}

// DetectCycles finds every strongly connected component with more than one
// method, or a single method calling itself. Members are marked InCycle and
// edges inside one component are marked PartOfCycle. Running it again on an
// unchanged graph yields the same result.
func (g *Graph) DetectCycles() [][]MethodKey {
	for _, n := range g.Nodes {
		n.InCycle = false
	}
	for _, e := range g.Edges {
		e.PartOfCycle = false
	}

	t := &tarjan{
		g:       g,
		disc:    make(map[MethodKey]int),
		low:     make(map[MethodKey]int),
		onStack: make(map[MethodKey]bool),
	}
	for _, k := range g.Keys() {
		if _, seen := t.disc[k]; !seen {
			t.connect(k)
		}
	}

	var cycles [][]MethodKey
	for _, scc := range t.sccs {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		SortKeys(scc)
		member := make(map[MethodKey]bool, len(scc))
		for _, k := range scc {
			member[k] = true
			g.Nodes[k].InCycle = true
		}
		for _, k := range scc {
			for _, e := range g.out[k] {
				if member[e.To] {
					e.PartOfCycle = true
				}
			}
		}
		cycles = append(cycles, scc)
	}
	sortCycles(cycles)

	g.cycles = cycles
	g.detected = true
	return g.Cycles()
}

func sortCycles(cycles [][]MethodKey) {
	for i := 1; i < len(cycles); i++ {
		for j := i; j > 0 && less(cycles[j][0], cycles[j-1][0]); j-- {
			cycles[j], cycles[j-1] = cycles[j-1], cycles[j]
		}
	}
}

func (g *Graph) ensureCycles() {
	if !g.detected {
		g.DetectCycles()
	}
}

// Cycles returns a copy of the detected cycles.
func (g *Graph) Cycles() [][]MethodKey {
	g.ensureCycles()
	out := make([][]MethodKey, len(g.cycles))
	for i, c := range g.cycles {
		out[i] = append([]MethodKey(nil), c...)
	}
	return out
}

// IsInCycle reports whether key belongs to a detected cycle.
func (g *Graph) IsInCycle(key MethodKey) bool {
	g.ensureCycles()
	n, ok := g.Nodes[key]
	return ok && n.InCycle
}

// CycleOf returns the cycle containing key, or nil.
func (g *Graph) CycleOf(key MethodKey) []MethodKey {
	g.ensureCycles()
	for _, c := range g.cycles {
		for _, k := range c {
			if k == key {
				return append([]MethodKey(nil), c...)
			}
		}
	}
	return nil
}

// InferenceOrder lists acyclic methods in depth-first post-order, so each
// one comes after all of its acyclic callees, followed by the members of
// every cycle.
func (g *Graph) InferenceOrder() []OrderEntry {
	g.ensureCycles()

	var order []OrderEntry
	visited := make(map[MethodKey]bool)
	var visit func(k MethodKey)
	visit = func(k MethodKey) {
		visited[k] = true
		for _, w := range g.successors(k) {
			if !visited[w] && !g.Nodes[w].InCycle {
				visit(w)
			}
		}
		order = append(order, OrderEntry{Key: k})
	}
	for _, k := range g.Keys() {
		if !visited[k] && !g.Nodes[k].InCycle {
			visit(k)
		}
	}
	for _, c := range g.cycles {
		for _, k := range c {
			order = append(order, OrderEntry{Key: k, InCycle: true})
		}
	}
	return order
}
