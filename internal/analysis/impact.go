package analysis

import (
	"gdinfer/internal/git"
	"gdinfer/internal/graph"
	"gdinfer/internal/project"
)

// ImpactReport summarizes the methods affected by changes.
type ImpactReport struct {
	DirectlyAffected   []graph.MethodKey
	IndirectlyAffected []graph.MethodKey
}

// All returns direct then indirect keys.
func (r *ImpactReport) All() []graph.MethodKey {
	out := append([]graph.MethodKey(nil), r.DirectlyAffected...)
	return append(out, r.IndirectlyAffected...)
}

// Analyzer performs impact analysis on the dependency graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact finds the methods whose body overlaps a changed line, then
// every method that transitively calls one of them. A change without line
// information marks every method of the file. Paths in changes are relative
// to the project root.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []graph.MethodKey{},
		IndirectlyAffected: []graph.MethodKey{},
	}
	if a.g == nil {
		return report
	}

	byFile := make(map[string][]*graph.Node)
	for _, k := range a.g.Keys() {
		n := a.g.Nodes[k]
		byFile[n.File] = append(byFile[n.File], n)
	}

	seen := make(map[graph.MethodKey]bool)
	for _, change := range changes {
		for _, node := range byFile[project.ResPath(change.Path)] {
			if seen[node.Key] {
				continue
			}
			if len(change.ChangedLines) == 0 || isAffected(node, change.ChangedLines) {
				seen[node.Key] = true
				report.DirectlyAffected = append(report.DirectlyAffected, node.Key)
			}
		}
	}
	graph.SortKeys(report.DirectlyAffected)
	report.IndirectlyAffected = append(report.IndirectlyAffected, a.g.TransitiveDependents(report.DirectlyAffected...)...)
	return report
}

func isAffected(node *graph.Node, lines []int) bool {
	if node.Unit == nil {
		return false
	}
	for _, line := range lines {
		if line >= node.Unit.StartLine && line <= node.Unit.EndLine {
			return true
		}
	}
	return false
}
