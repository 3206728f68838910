// Package resolver computes the compile-time values an expression can take:
// literals, folded operators, constants and parameters fed by call sites.
package resolver

import (
	"errors"

	"gdinfer/internal/callsite"
	"gdinfer/internal/catalog"
	"gdinfer/internal/exprtype"
	"gdinfer/internal/project"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
)

const DefaultMaxDepth = 3

// maxCandidates bounds the cross product of a binary expression.
const maxCandidates = 64

var (
	ErrNilProject   = errors.New("resolver: project is required")
	ErrNilCatalog   = errors.New("resolver: catalog is required")
	ErrNilCollector = errors.New("resolver: call site collector is required")
)

// Value is one candidate value of an expression.
type Value struct {
	Value      any // int64, float64, string, bool or nil
	Confidence typeset.ReferenceConfidence
	// Layer names the layer that produced the value.
	Layer string
}

// Text renders the value as GDScript source.
func (v Value) Text() string {
	return syntax.QuoteValue(v.Value)
}

type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
}

// Layer resolves the expression kinds it recognizes. It reports false for
// expressions it does not handle so the next layer can try.
type Layer interface {
	Name() string
	Resolve(r *Resolver, scope *exprtype.Scope, e syntax.Expr, depth int) ([]Value, bool)
}

type StageResult struct {
	Layer string
	Stats ResolveStats
}

// Resolver runs its layers in order for each expression. Not safe for
// concurrent use.
type Resolver struct {
	project   *project.Project
	catalog   *catalog.Catalog
	collector *callsite.Collector
	typer     *exprtype.Typer

	layers   []Layer
	maxDepth int
	stats    map[string]*ResolveStats
}

type Option func(*Resolver)

// WithMaxDepth bounds how many constant or parameter hops a resolution may
// follow.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithLayers replaces the default layer chain.
func WithLayers(layers ...Layer) Option {
	return func(r *Resolver) {
		r.layers = layers
	}
}

func New(p *project.Project, c *catalog.Catalog, col *callsite.Collector, opts ...Option) (*Resolver, error) {
	switch {
	case p == nil:
		return nil, ErrNilProject
	case c == nil:
		return nil, ErrNilCatalog
	case col == nil:
		return nil, ErrNilCollector
	}
	r := &Resolver{
		project:   p,
		catalog:   c,
		collector: col,
		typer:     exprtype.New(c),
		layers:    DefaultLayers(),
		maxDepth:  DefaultMaxDepth,
		stats:     make(map[string]*ResolveStats),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// DefaultLayers is literal, then binary, then identifier, then member
// constant resolution.
func DefaultLayers() []Layer {
	return []Layer{literalLayer{}, binaryLayer{}, identLayer{}, memberLayer{}}
}

// ResolveValues returns every value e may take inside scope. An empty result
// means the value is not known at compile time.
func (r *Resolver) ResolveValues(scope *exprtype.Scope, e syntax.Expr) []Value {
	return r.resolve(scope, e, 0)
}

// ResolveConstant resolves the class constant class.name, following
// inheritance.
func (r *Resolver) ResolveConstant(class, name string) []Value {
	ci, ok := r.catalog.ConstantInitializer(class, name)
	if !ok || ci.Expr == nil {
		return nil
	}
	return r.resolve(r.ClassScope(ci.Owner), ci.Expr, 0)
}

// ResolveIn resolves e as written inside class.method, or at class level
// when method is empty.
func (r *Resolver) ResolveIn(class, method string, e syntax.Expr) []Value {
	s, ok := r.project.ByClass(class)
	if !ok {
		return r.resolve(exprtype.ClassScope(class, nil), e, 0)
	}
	var fn *syntax.FuncDecl
	if method != "" {
		fn = s.File.Func(method)
	}
	return r.resolve(exprtype.NewScope(class, s.File, fn), e, 0)
}

// Resolve continues a resolution from inside a layer.
func (r *Resolver) Resolve(scope *exprtype.Scope, e syntax.Expr, depth int) []Value {
	return r.resolve(scope, e, depth)
}

func (r *Resolver) resolve(scope *exprtype.Scope, e syntax.Expr, depth int) []Value {
	if e == nil || depth > r.maxDepth {
		return nil
	}
	for _, l := range r.layers {
		vals, handled := l.Resolve(r, scope, e, depth)
		if !handled {
			continue
		}
		st := r.stage(l.Name())
		st.Attempted++
		if len(vals) == 0 {
			st.Skipped++
			return nil
		}
		st.Resolved++
		return dedupe(vals)
	}
	return nil
}

func (r *Resolver) stage(name string) *ResolveStats {
	st, ok := r.stats[name]
	if !ok {
		st = &ResolveStats{}
		r.stats[name] = st
	}
	return st
}

// Stats returns per-layer counters in layer order.
func (r *Resolver) Stats() []StageResult {
	out := make([]StageResult, 0, len(r.layers))
	for _, l := range r.layers {
		var st ResolveStats
		if s, ok := r.stats[l.Name()]; ok {
			st = *s
		}
		out = append(out, StageResult{Layer: l.Name(), Stats: st})
	}
	return out
}

// ClassScope is the class-level scope of a project class, or a bare scope
// for built-in types.
func (r *Resolver) ClassScope(class string) *exprtype.Scope {
	var file *syntax.File
	if s, ok := r.project.ByClass(class); ok {
		file = s.File
	}
	return exprtype.ClassScope(class, file)
}

// dedupe keeps the first occurrence of each value with the weakest
// confidence any duplicate carried.
func dedupe(vals []Value) []Value {
	index := make(map[any]int, len(vals))
	var out []Value
	for _, v := range vals {
		if i, ok := index[v.Value]; ok {
			if v.Confidence < out[i].Confidence {
				out[i].Confidence = v.Confidence
			}
			continue
		}
		index[v.Value] = len(out)
		out = append(out, v)
	}
	return out
}
