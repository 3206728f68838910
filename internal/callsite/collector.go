// Package callsite finds the invocations of a method across a project and
// records their receivers and argument types.
package callsite

import (
	"errors"

	"gdinfer/internal/catalog"
	"gdinfer/internal/exprtype"
	"gdinfer/internal/project"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
)

var (
	ErrNilProject = errors.New("callsite: project is required")
	ErrNilCatalog = errors.New("callsite: catalog is required")
	ErrNilTyper   = errors.New("callsite: typer is required")
)

// Collector scans project files for call sites. Per-file call indices are
// cached until the file is invalidated. Not safe for concurrent use.
type Collector struct {
	project *project.Project
	catalog *catalog.Catalog
	typer   *exprtype.Typer

	files  map[string][]Call
	byName map[string][]Call
}

func NewCollector(p *project.Project, c *catalog.Catalog, t *exprtype.Typer) (*Collector, error) {
	switch {
	case p == nil:
		return nil, ErrNilProject
	case c == nil:
		return nil, ErrNilCatalog
	case t == nil:
		return nil, ErrNilTyper
	}
	return &Collector{
		project: p,
		catalog: c,
		typer:   t,
		files:   make(map[string][]Call),
	}, nil
}

// Calls returns the indexed calls of one file.
func (c *Collector) Calls(path string) []Call {
	if calls, ok := c.files[path]; ok {
		return calls
	}
	s, ok := c.project.Script(path)
	if !ok {
		return nil
	}
	calls := indexScript(s)
	c.files[path] = calls
	return calls
}

// CallsNamed returns every call in the project whose callee name is name,
// including reflective call()/callv() dispatches, in file order.
func (c *Collector) CallsNamed(name string) []Call {
	if c.byName == nil {
		c.byName = make(map[string][]Call)
		for _, s := range c.project.Scripts() {
			for _, call := range c.Calls(s.Path) {
				n := call.Name()
				c.byName[n] = append(c.byName[n], call)
			}
		}
	}
	return c.byName[name]
}

// InvalidateFile drops the cached index of one file.
func (c *Collector) InvalidateFile(path string) {
	delete(c.files, path)
	c.byName = nil
}

// Invalidate drops every cached index.
func (c *Collector) Invalidate() {
	c.files = make(map[string][]Call)
	c.byName = nil
}

// Collect returns every call site that may invoke method as declared by
// declType.
func (c *Collector) Collect(declType, method string) []*Site {
	var sites []*Site
	for _, call := range c.CallsNamed(method) {
		if s, ok := c.Match(call, declType, method); ok {
			sites = append(sites, s)
		}
	}
	for _, via := range dynamicMethods {
		for _, call := range c.CallsNamed(via) {
			if s, ok := c.matchDynamic(call, declType, method); ok {
				sites = append(sites, s)
			}
		}
	}
	return sites
}

// Match classifies one direct call against (declType, method).
func (c *Collector) Match(call Call, declType, method string) (*Site, bool) {
	if call.Name() != method {
		return nil, false
	}
	var (
		recv Receiver
		conf typeset.ReferenceConfidence
		ok   bool
	)
	switch callee := call.Expr.Callee.(type) {
	case *syntax.Ident:
		recv, conf, ok = c.matchSelf(call, declType, method)
	case *syntax.MemberExpr:
		recv, conf, ok = c.matchReceiver(call.Scope, callee.X, declType, method)
	}
	if !ok {
		return nil, false
	}
	return c.site(call, recv, method, conf, call.Expr.Args), true
}

// matchSelf handles a bare call `m()` made from the caller's own class.
func (c *Collector) matchSelf(call Call, declType, method string) (Receiver, typeset.ReferenceConfidence, bool) {
	recv := Receiver{Kind: StaticReceiver, Types: []string{call.CallerType}, Text: "self"}
	if conf, ok := c.matchType(call.CallerType, declType, method); ok {
		return recv, conf, true
	}
	if _, declared := c.catalog.GetMember(call.CallerType, method); declared {
		return Receiver{}, 0, false
	}
	if _, global := c.catalog.GlobalFunction(method); global {
		return Receiver{}, 0, false
	}
	// Nothing named method is visible from the caller: last-resort match.
	return recv, typeset.NameMatch, true
}

// matchType decides whether a call of method on a receiver of type typ may
// reach declType's method.
func (c *Collector) matchType(typ, declType, method string) (typeset.ReferenceConfidence, bool) {
	owner := c.catalog.DeclaringType(typ, method)
	if owner == "" {
		return 0, false
	}
	if owner == declType {
		return typeset.Strict, true
	}
	// typ is an ancestor of declType and declType overrides the method: the
	// call dispatches to declType when the instance is one.
	if c.catalog.IsAssignableTo(declType, typ) && c.catalog.DeclaringType(declType, method) == declType {
		return typeset.Potential, true
	}
	return 0, false
}

// matchReceiver handles `x.m()`.
func (c *Collector) matchReceiver(scope *exprtype.Scope, x syntax.Expr, declType, method string) (Receiver, typeset.ReferenceConfidence, bool) {
	text := syntax.Format(x)
	if id, ok := x.(*syntax.Ident); ok && c.typer.IsTypeName(scope, id.Name) {
		conf, ok := c.matchType(id.Name, declType, method)
		return Receiver{Kind: StaticReceiver, Types: []string{id.Name}, Text: text}, conf, ok
	}

	r := c.typer.TypeOf(scope, x)
	if !r.Known() {
		m, ok := c.catalog.GetMember(declType, method)
		if !ok || m.Owner != declType {
			return Receiver{}, 0, false
		}
		recv := Receiver{Kind: DuckTyped, Text: text}
		if id, ok := syntax.RootIdent(x); ok {
			recv.Variable = id.Name
		}
		return recv, typeset.Potential, true
	}

	types := r.Types.Types()
	if len(types) == 1 {
		conf, ok := c.matchType(types[0], declType, method)
		if ok && !r.Confidence.IsHigh() {
			conf = typeset.MinReference(conf, typeset.Potential)
		}
		return Receiver{Kind: StaticReceiver, Types: types, Text: text}, conf, ok
	}
	return c.matchUnion(types, r.Confidence, text, declType, method)
}

// matchUnion keeps every union member that may reach declType's method. The
// site is Strict only when every kept member is.
func (c *Collector) matchUnion(types []string, rc typeset.TypeConfidence, text, declType, method string) (Receiver, typeset.ReferenceConfidence, bool) {
	visited := make(map[string]bool)
	var matched []string
	all := true
	for _, t := range types {
		k := t + "." + method
		if visited[k] {
			continue
		}
		visited[k] = true
		conf, ok := c.matchType(t, declType, method)
		if !ok {
			all = false
			continue
		}
		if conf != typeset.Strict {
			all = false
		}
		matched = append(matched, t)
	}
	if len(matched) == 0 {
		return Receiver{}, 0, false
	}
	conf := typeset.Potential
	if all && rc.IsHigh() {
		conf = typeset.Strict
	}
	return Receiver{Kind: UnionReceiver, Types: matched, Text: text}, conf, true
}

func (c *Collector) site(call Call, recv Receiver, method string, conf typeset.ReferenceConfidence, args []syntax.Expr) *Site {
	s := &Site{
		File:         call.File,
		CallerType:   call.CallerType,
		CallerMethod: call.CallerMethod,
		Receiver:     recv,
		Method:       method,
		Pos:          call.Expr.Pos,
		Confidence:   conf,
		Call:         call.Expr,
	}
	for i, a := range args {
		r := c.typer.TypeOf(call.Scope, a)
		s.Args = append(s.Args, Argument{
			Index:      i,
			Type:       r.Types,
			Confidence: r.Confidence,
			Text:       syntax.Format(a),
			Pos:        a.Position(),
			Expr:       a,
		})
	}
	return s
}
