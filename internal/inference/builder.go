package inference

import (
	"gdinfer/internal/callsite"
	"gdinfer/internal/graph"
	"gdinfer/internal/syntax"
)

// buildGraph adds every project method, then one set of edges per call
// expression in a method body. Receivers are typed without engine hooks so
// the graph never depends on inference results.
func (e *Engine) buildGraph() *graph.Graph {
	g := graph.NewGraph()
	scripts := e.project.Scripts()
	for _, s := range scripts {
		g.AddScript(s)
	}
	for _, s := range scripts {
		returned := make(map[string]map[*syntax.CallExpr]bool)
		for _, call := range e.collector.Calls(s.Path) {
			if call.CallerMethod == "" {
				continue
			}
			if returned[call.CallerMethod] == nil {
				returned[call.CallerMethod] = returnedCalls(call.Scope.Func)
			}
			from := graph.MethodKey{Type: s.Class, Method: call.CallerMethod}
			e.addCallEdges(g, from, call, returned[call.CallerMethod][call.Expr])
		}
	}
	if n := g.LinkUnresolved(); n > 0 {
		e.logger.Debug("inference.link_unresolved", "linked", n)
	}
	g.DetectCycles()
	return g
}

// returnedCalls lists the calls whose result a method returns directly.
func returnedCalls(fn *syntax.FuncDecl) map[*syntax.CallExpr]bool {
	out := make(map[*syntax.CallExpr]bool)
	if fn == nil {
		return out
	}
	for _, r := range syntax.Returns(fn.Body) {
		v := r.Value
		if a, ok := v.(*syntax.AwaitExpr); ok {
			v = a.X
		}
		if c, ok := v.(*syntax.CallExpr); ok {
			out[c] = true
		}
	}
	return out
}

func (e *Engine) addCallEdges(g *graph.Graph, from graph.MethodKey, call callsite.Call, returned bool) {
	name, args := call.Name(), call.Expr.Args
	if callsite.IsDynamic(name) {
		dispatched, passed, ok := e.collector.Dispatch(call)
		if !ok {
			// Callable.call() or a name only known at run time.
			return
		}
		name, args = dispatched, passed
	}
	if name == "" {
		return
	}

	targets, resolved := e.calleeKeys(g, call, name)
	if !resolved {
		g.AddUnresolved(from, name, call.Expr.Pos.Line)
		return
	}
	for _, to := range targets {
		g.AddEdge(from, to, graph.CallSite, "")
		if returned {
			g.AddEdge(from, to, graph.ReturnDependency, "")
		}
		for _, a := range args {
			id, ok := a.(*syntax.Ident)
			if !ok || call.Scope.IsLocal(id.Name) || call.Scope.Func.Param(id.Name) < 0 {
				continue
			}
			g.AddEdge(from, to, graph.ParameterDependency, id.Name)
		}
	}
}

// calleeKeys lists the project methods a call may reach: the method the
// receiver type inherits and every override in a subtype. A call that
// provably reaches no project method resolves to no keys; a call whose
// receiver type is unknown is unresolved.
func (e *Engine) calleeKeys(g *graph.Graph, call callsite.Call, name string) ([]graph.MethodKey, bool) {
	var types []string
	switch callee := call.Expr.Callee.(type) {
	case *syntax.Ident:
		if e.catalog.DeclaringType(call.CallerType, name) == "" {
			if _, global := e.catalog.GlobalFunction(name); global {
				return nil, true
			}
			if e.catalog.HasType(name) {
				return nil, true
			}
			return nil, false
		}
		types = []string{call.CallerType}
	case *syntax.MemberExpr:
		if id, ok := callee.X.(*syntax.Ident); ok && e.plain.IsTypeName(call.Scope, id.Name) {
			types = []string{id.Name}
			break
		}
		r := e.plain.TypeOf(call.Scope, callee.X)
		if !r.Known() {
			return nil, false
		}
		types = r.Types.Types()
	default:
		return nil, true
	}

	seen := make(map[graph.MethodKey]bool)
	var keys []graph.MethodKey
	add := func(k graph.MethodKey) {
		if _, ok := g.Nodes[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, t := range types {
		if owner := e.catalog.DeclaringType(t, name); owner != "" {
			add(graph.MethodKey{Type: owner, Method: name})
		}
		for _, k := range g.MethodsNamed(name) {
			if k.Type != t && e.catalog.IsAssignableTo(k.Type, t) {
				add(k)
			}
		}
	}
	graph.SortKeys(keys)
	return keys, true
}
