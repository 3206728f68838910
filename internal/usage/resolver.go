package usage

import (
	"errors"
	"sort"

	"gdinfer/internal/catalog"
	"gdinfer/internal/typeset"
)

var ErrNilCatalog = errors.New("usage: catalog is required")

// Resolution reasons.
const (
	ReasonNoConstraints = "no_constraints"
	ReasonDuck          = "duck_intersection"
	ReasonPartial       = "partial_match"
	ReasonContainer     = "container_fallback"
	ReasonNoCandidate   = "no_candidate"
)

// Result is the outcome of resolving one parameter's constraints. Duck
// candidates and explicit `is` evidence are kept apart.
type Result struct {
	Types      []string
	Confidence typeset.TypeConfidence
	Checked    []string
	Reason     string
	Partial    bool
}

// Known reports whether any candidate was found.
func (r Result) Known() bool {
	return len(r.Types) > 0 || len(r.Checked) > 0
}

// Resolver maps constraints to catalog types.
type Resolver struct {
	catalog *catalog.Catalog
}

func NewResolver(c *catalog.Catalog) (*Resolver, error) {
	if c == nil {
		return nil, ErrNilCatalog
	}
	return &Resolver{catalog: c}, nil
}

// Resolve intersects the types exposing each required member. Types
// assignable to an excluded type are removed even when they fit. An empty
// intersection falls back to the types matching the most members; shape-only
// constraints fall back to the generic containers.
func (r *Resolver) Resolve(c *Constraints) Result {
	res := Result{Confidence: typeset.Unknown, Reason: ReasonNoConstraints}
	if c == nil {
		return res
	}
	for _, t := range c.PossibleTypes {
		if !r.excluded(t, c.ExcludedTypes) {
			res.Checked = append(res.Checked, t)
		}
	}

	if !c.HasMembers() {
		if c.HasShape() {
			res.Types = r.filter([]string{"Array", "Dictionary"}, c)
			if len(res.Types) > 0 {
				res.Confidence = typeset.Low
				res.Reason = ReasonContainer
			}
		}
		return res
	}

	if types := r.intersect(c); len(types) > 0 {
		res.Types = r.prune(types)
		res.Confidence = typeset.Medium
		res.Reason = ReasonDuck
		return res
	}

	if types := r.bestPartial(c); len(types) > 0 {
		res.Types = r.prune(types)
		res.Confidence = typeset.Low
		res.Reason = ReasonPartial
		res.Partial = true
		return res
	}
	res.Reason = ReasonNoCandidate
	return res
}

func (r *Resolver) intersect(c *Constraints) []string {
	var sets [][]string
	for _, m := range c.Methods {
		sets = append(sets, r.catalog.TypesWithMethod(m))
	}
	for _, p := range c.Properties {
		sets = append(sets, r.catalog.TypesWithProperty(p))
	}
	out := sets[0]
	for _, s := range sets[1:] {
		out = intersection(out, s)
	}
	return r.filter(out, c)
}

// filter drops types lacking a required trait or excluded by a check.
func (r *Resolver) filter(types []string, c *Constraints) []string {
	var out []string
	for _, t := range types {
		tr := r.catalog.Traits(t)
		if c.Iterable && !tr.Iterable || c.Indexable && !tr.Indexable {
			continue
		}
		if r.excluded(t, c.ExcludedTypes) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *Resolver) excluded(t string, excluded []string) bool {
	for _, x := range excluded {
		if r.catalog.IsAssignableTo(t, x) {
			return true
		}
	}
	return false
}

// bestPartial returns the types satisfying the largest number of required
// members, when that number is at least one.
func (r *Resolver) bestPartial(c *Constraints) []string {
	score := make(map[string]int)
	for _, m := range c.Methods {
		for _, t := range r.catalog.TypesWithMethod(m) {
			score[t]++
		}
	}
	for _, p := range c.Properties {
		for _, t := range r.catalog.TypesWithProperty(p) {
			score[t]++
		}
	}
	best := 0
	for t, s := range score {
		if s > best && len(r.filter([]string{t}, c)) == 1 {
			best = s
		}
	}
	if best == 0 {
		return nil
	}
	var out []string
	for t, s := range score {
		if s == best {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return r.filter(out, c)
}

// prune drops a candidate when one of its ancestors is also a candidate.
func (r *Resolver) prune(types []string) []string {
	in := make(map[string]bool, len(types))
	for _, t := range types {
		in[t] = true
	}
	var out []string
	for _, t := range types {
		covered := false
		for _, a := range r.catalog.Ancestors(t) {
			if in[a] {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, t)
		}
	}
	return out
}

func intersection(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, t := range b {
		in[t] = true
	}
	var out []string
	for _, t := range a {
		if in[t] {
			out = append(out, t)
		}
	}
	return out
}
