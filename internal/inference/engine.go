// Package inference orchestrates signature inference: it builds the method
// dependency graph, orders methods around cycles and infers parameter and
// return types from call sites, usage and return statements.
package inference

import (
	"errors"
	"log/slog"

	"gdinfer/internal/callsite"
	"gdinfer/internal/catalog"
	"gdinfer/internal/exprtype"
	"gdinfer/internal/graph"
	"gdinfer/internal/project"
	"gdinfer/internal/usage"
)

var (
	ErrNilProject = errors.New("inference: project is required")
	ErrNilCatalog = errors.New("inference: catalog is required")
)

// Engine infers method signatures for one project snapshot. Reports are
// computed lazily and cached until invalidated. Not safe for concurrent use.
type Engine struct {
	project   *project.Project
	catalog   *catalog.Catalog
	typer     *exprtype.Typer
	plain     *exprtype.Typer // no engine hooks, used while building the graph
	collector *callsite.Collector
	duck      *usage.Resolver
	logger    *slog.Logger

	graph      *graph.Graph
	order      []graph.OrderEntry
	orderIndex map[graph.MethodKey]int

	reports  map[graph.MethodKey]*MethodReport
	building map[graph.MethodKey]*MethodReport
	// partial counts hook queries that hit an unfinished report.
	partial int
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(p *project.Project, c *catalog.Catalog, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, ErrNilProject
	}
	if c == nil {
		return nil, ErrNilCatalog
	}
	e := &Engine{
		project:  p,
		catalog:  c,
		typer:    exprtype.New(c),
		plain:    exprtype.New(c),
		logger:   slog.Default(),
		reports:  make(map[graph.MethodKey]*MethodReport),
		building: make(map[graph.MethodKey]*MethodReport),
	}
	for _, o := range opts {
		o(e)
	}
	e.typer.ParamHook = e.paramHook
	e.typer.ReturnHook = e.returnHook

	var err error
	if e.collector, err = callsite.NewCollector(p, c, e.typer); err != nil {
		return nil, err
	}
	if e.duck, err = usage.NewResolver(c); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Project() *project.Project      { return e.project }
func (e *Engine) Catalog() *catalog.Catalog      { return e.catalog }
func (e *Engine) Typer() *exprtype.Typer         { return e.typer }
func (e *Engine) Collector() *callsite.Collector { return e.collector }
func (e *Engine) DuckResolver() *usage.Resolver  { return e.duck }

// Graph returns the dependency graph, building it when needed.
func (e *Engine) Graph() *graph.Graph {
	e.ensureGraph()
	return e.graph
}

func (e *Engine) ensureGraph() {
	if e.graph != nil {
		return
	}
	e.graph = e.buildGraph()
	e.order = e.graph.InferenceOrder()
	e.orderIndex = make(map[graph.MethodKey]int, len(e.order))
	for i, o := range e.order {
		e.orderIndex[o.Key] = i
	}
	stats := e.graph.Stats()
	e.logger.Debug("inference.graph",
		"methods", stats.Methods,
		"edges", stats.Edges,
		"cycles", stats.Cycles,
		"unresolved", stats.Unresolved)
}

// Order returns the inference order.
func (e *Engine) Order() []graph.OrderEntry {
	e.ensureGraph()
	return append([]graph.OrderEntry(nil), e.order...)
}

// Cycles returns the detected cycles.
func (e *Engine) Cycles() [][]graph.MethodKey {
	return e.Graph().Cycles()
}

// BuildAll infers every method in dependency-safe order and returns the
// reports in that order.
func (e *Engine) BuildAll() []*MethodReport {
	e.ensureGraph()
	out := make([]*MethodReport, 0, len(e.order))
	for _, o := range e.order {
		if r, ok := e.report(o.Key); ok {
			out = append(out, r)
		}
	}
	e.logger.Info("inference.build_all",
		"methods", len(out),
		"cycles", len(e.graph.Cycles()),
		"unresolved", len(e.graph.Unresolved))
	return out
}

// GetMethodReport returns the report of class.method.
func (e *Engine) GetMethodReport(class, method string) (*MethodReport, bool) {
	return e.report(graph.MethodKey{Type: class, Method: method})
}

// InferParameterType returns the report of one parameter.
func (e *Engine) InferParameterType(class, method, param string) (*ParameterReport, bool) {
	r, ok := e.GetMethodReport(class, method)
	if !ok {
		return nil, false
	}
	p := r.Parameter(param)
	return p, p != nil
}

// InferReturnType returns the return report of a method.
func (e *Engine) InferReturnType(class, method string) (*ReturnReport, bool) {
	r, ok := e.GetMethodReport(class, method)
	if !ok {
		return nil, false
	}
	return r.Return, true
}

// IsMethodInCycle reports whether class.method is part of a cycle.
func (e *Engine) IsMethodInCycle(class, method string) bool {
	return e.Graph().IsInCycle(graph.MethodKey{Type: class, Method: method})
}

// Invalidate clears every cache. The next query rebuilds lazily.
func (e *Engine) Invalidate() {
	e.collector.Invalidate()
	e.graph = nil
	e.order = nil
	e.orderIndex = nil
	e.reports = make(map[graph.MethodKey]*MethodReport)
	e.building = make(map[graph.MethodKey]*MethodReport)
}

// InvalidateFile drops the caches touched by a changed, added or removed
// file: its call index, the graph and the reports of every method connected
// to the file's methods before or after the change. It returns the dropped
// method keys. The project must already hold the new contents.
func (e *Engine) InvalidateFile(path string) []graph.MethodKey {
	affected := make(map[graph.MethodKey]bool)
	if e.graph != nil {
		for _, k := range e.touching(path) {
			affected[k] = true
		}
	}

	e.collector.InvalidateFile(path)
	e.graph = nil
	e.order = nil
	e.orderIndex = nil
	e.ensureGraph()
	for _, k := range e.touching(path) {
		affected[k] = true
	}

	keys := make([]graph.MethodKey, 0, len(affected))
	for k := range affected {
		delete(e.reports, k)
		keys = append(keys, k)
	}
	graph.SortKeys(keys)
	e.logger.Debug("inference.invalidate", "file", path, "reports", len(keys))
	return keys
}

// touching lists the methods whose reports can depend on path: methods
// declared in it, methods its calls may reach by name, and everything
// connected to those in the current graph.
func (e *Engine) touching(path string) []graph.MethodKey {
	var seeds []graph.MethodKey
	for _, k := range e.graph.Keys() {
		if e.graph.Nodes[k].File == path {
			seeds = append(seeds, k)
		}
	}
	for _, call := range e.collector.Calls(path) {
		seeds = append(seeds, e.graph.MethodsNamed(call.Name())...)
	}
	return e.graph.Component(seeds...)
}

// report returns the cached report of key or computes it. A report that is
// being computed further up the stack is not available. A nested report that
// read an unfinished one is returned but not cached, so the next query sees
// the finished evidence.
func (e *Engine) report(key graph.MethodKey) (*MethodReport, bool) {
	if r, ok := e.reports[key]; ok {
		return r, true
	}
	if _, busy := e.building[key]; busy {
		e.partial++
		return nil, false
	}
	e.ensureGraph()
	if _, ok := e.graph.Nodes[key]; !ok {
		return nil, false
	}
	before := e.partial
	r := e.buildReport(key)
	if r == nil {
		return nil, false
	}
	if e.partial != before && len(e.building) > 0 {
		return r, true
	}
	e.reports[key] = r
	return r, true
}
