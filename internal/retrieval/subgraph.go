package retrieval

import (
	"sort"

	"gdinfer/internal/graph"
)

// Config controls how neighborhoods are extracted.
type Config struct {
	MaxHops   int
	MinWeight float64
	// AllowedKinds limits the edges followed; empty means all kinds.
	AllowedKinds map[graph.DependencyKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:      2,
		MinWeight:    0.0,
		AllowedKinds: nil,
	}
}

// KindWeight is how directly an edge of kind carries type evidence between
// its endpoints.
func KindWeight(kind graph.DependencyKind) float64 {
	switch kind {
	case graph.ReturnDependency:
		return 1.0
	case graph.ParameterDependency:
		return 0.9
	default:
		return 0.7
	}
}

// Subgraph is the neighborhood of a set of seed methods.
type Subgraph struct {
	MaxHops int
	Seeds   []graph.MethodKey
	Keys    []graph.MethodKey
	Depth   map[graph.MethodKey]int
	// Scores multiply edge weights along the strongest path from a seed.
	Scores map[graph.MethodKey]float64
	Edges  []*graph.Edge
}

// Extract walks up to cfg.MaxHops edges from the seeds in both directions.
// Seeds missing from g are ignored.
func Extract(g *graph.Graph, seeds []graph.MethodKey, cfg Config) *Subgraph {
	sg := &Subgraph{
		MaxHops: cfg.MaxHops,
		Depth:   make(map[graph.MethodKey]int),
		Scores:  make(map[graph.MethodKey]float64),
	}
	if g == nil {
		return sg
	}
	if sg.MaxHops < 0 {
		sg.MaxHops = 0
	}

	queue := make([]queueItem, 0, len(seeds))
	for _, k := range seeds {
		if _, ok := g.Nodes[k]; !ok {
			continue
		}
		if _, dup := sg.Depth[k]; dup {
			continue
		}
		sg.Seeds = append(sg.Seeds, k)
		sg.Depth[k] = 0
		sg.Scores[k] = 1.0
		queue = append(queue, queueItem{key: k, depth: 0})
	}
	graph.SortKeys(sg.Seeds)

	edgeSeen := make(map[*graph.Edge]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= sg.MaxHops {
			continue
		}

		for _, next := range neighbors(g, cur.key, cfg) {
			if !edgeSeen[next.edge] {
				edgeSeen[next.edge] = true
				sg.Edges = append(sg.Edges, next.edge)
			}

			nextDepth := cur.depth + 1
			candidate := sg.Scores[cur.key] * KindWeight(next.edge.Kind)
			if candidate > sg.Scores[next.to] {
				sg.Scores[next.to] = candidate
			}
			prevDepth, seen := sg.Depth[next.to]
			if !seen || nextDepth < prevDepth {
				sg.Depth[next.to] = nextDepth
				queue = append(queue, queueItem{key: next.to, depth: nextDepth})
			}
		}
	}

	for k := range sg.Depth {
		sg.Keys = append(sg.Keys, k)
	}
	graph.SortKeys(sg.Keys)
	sort.Slice(sg.Edges, func(i, j int) bool {
		a, b := sg.Edges[i], sg.Edges[j]
		if a.From != b.From {
			return a.From.String() < b.From.String()
		}
		if a.To != b.To {
			return a.To.String() < b.To.String()
		}
		return a.Kind < b.Kind
	})
	return sg
}

type queueItem struct {
	key   graph.MethodKey
	depth int
}

type edgeHop struct {
	to   graph.MethodKey
	edge *graph.Edge
}

func neighbors(g *graph.Graph, k graph.MethodKey, cfg Config) []edgeHop {
	var out []edgeHop
	for _, e := range g.EdgesFrom(k) {
		if edgeAllowed(e, cfg) {
			out = append(out, edgeHop{to: e.To, edge: e})
		}
	}
	for _, e := range g.EdgesTo(k) {
		if edgeAllowed(e, cfg) {
			out = append(out, edgeHop{to: e.From, edge: e})
		}
	}
	return out
}

func edgeAllowed(e *graph.Edge, cfg Config) bool {
	if cfg.MinWeight > 0 && KindWeight(e.Kind) < cfg.MinWeight {
		return false
	}
	if len(cfg.AllowedKinds) == 0 {
		return true
	}
	return cfg.AllowedKinds[e.Kind]
}
