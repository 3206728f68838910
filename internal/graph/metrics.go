package graph

func (g *Graph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonNoCandidate
		}
		counts[reason]++
	}
	return counts
}

// Stats summarizes the graph size.
type Stats struct {
	Methods    int
	Edges      int
	Cycles     int
	CycleEdges int
	Unresolved int
}

func (g *Graph) Stats() Stats {
	g.ensureCycles()
	s := Stats{
		Methods:    len(g.Nodes),
		Edges:      len(g.Edges),
		Cycles:     len(g.cycles),
		Unresolved: len(g.Unresolved),
	}
	for _, e := range g.Edges {
		if e.PartOfCycle {
			s.CycleEdges++
		}
	}
	return s
}
