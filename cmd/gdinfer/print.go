package main

import (
	"fmt"
	"io"
	"strings"

	"gdinfer/internal/graph"
	"gdinfer/internal/resolver"
	"gdinfer/internal/retrieval"
	"gdinfer/internal/storage"
)

func typeText(t storage.TypeRecord) string {
	if t.Type == "" {
		return "?"
	}
	return t.Type
}

func grade(t storage.TypeRecord) string {
	return fmt.Sprintf("%s/%s  %s", t.Confidence, t.TypeConfidence, t.Reason)
}

func printRecord(w io.Writer, rec *storage.MethodRecord) {
	header := fmt.Sprintf("%s (%s:%d) #%d %s", rec.Key, rec.File, rec.Line, rec.OrderIndex, rec.Confidence)
	if rec.InCycle {
		header += " [cycle]"
	}
	fmt.Fprintln(w, header)
	for _, p := range rec.Params {
		line := fmt.Sprintf("  %s: %s  %s", p.Name, typeText(p.TypeRecord), grade(p.TypeRecord))
		if p.Evidence > 0 {
			line += fmt.Sprintf(" (%d sites)", p.Evidence)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  -> %s  %s\n", typeText(rec.Return), grade(rec.Return))
	if len(rec.Dependencies) > 0 {
		fmt.Fprintf(w, "  calls: %s\n", strings.Join(rec.Dependencies, ", "))
	}
	if len(rec.Dependents) > 0 {
		fmt.Fprintf(w, "  called by: %s\n", strings.Join(rec.Dependents, ", "))
	}
}

func printCycles(w io.Writer, cycles [][]graph.MethodKey) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No cycles.")
		return
	}
	for i, c := range cycles {
		names := make([]string, len(c))
		for j, k := range c {
			names[j] = k.String()
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, strings.Join(names, " <-> "))
	}
}

func printOrder(w io.Writer, order []graph.OrderEntry) {
	for i, o := range order {
		mark := ""
		if o.InCycle {
			mark = " [cycle]"
		}
		fmt.Fprintf(w, "%4d  %s%s\n", i, o.Key, mark)
	}
}

func printValues(w io.Writer, vals []resolver.Value) {
	if len(vals) == 0 {
		fmt.Fprintln(w, "not known at compile time")
		return
	}
	for _, v := range vals {
		fmt.Fprintf(w, "%s  %s (%s)\n", v.Text(), v.Confidence, v.Layer)
	}
}

func printNeighborhood(w io.Writer, sg *retrieval.Subgraph) {
	for _, k := range sg.Keys {
		fmt.Fprintf(w, "%d  %.2f  %s\n", sg.Depth[k], sg.Scores[k], k)
	}
	for _, e := range sg.Edges {
		fmt.Fprintf(w, "  %s -> %s (%s)\n", e.From, e.To, e.Kind)
	}
}
