package resolver

import (
	"gdinfer/internal/callsite"
	"gdinfer/internal/exprtype"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
)

// literalLayer extracts literal values and folds prefix operators over them.
type literalLayer struct{}

func (literalLayer) Name() string { return "literal" }

func (literalLayer) Resolve(r *Resolver, scope *exprtype.Scope, e syntax.Expr, depth int) ([]Value, bool) {
	switch x := e.(type) {
	case *syntax.Literal:
		return []Value{{Value: x.Value, Confidence: typeset.Strict, Layer: "literal"}}, true
	case *syntax.UnaryExpr:
		var out []Value
		for _, v := range r.resolve(scope, x.X, depth) {
			folded, ok := evalUnary(x.Op, v.Value)
			if !ok {
				continue
			}
			v.Value = folded
			out = append(out, v)
		}
		return out, true
	}
	return nil, false
}

// binaryLayer evaluates an operator when both operands resolve, over the
// cross product of their candidates. Each result carries the weaker operand
// confidence.
type binaryLayer struct{}

func (binaryLayer) Name() string { return "binary" }

func (binaryLayer) Resolve(r *Resolver, scope *exprtype.Scope, e syntax.Expr, depth int) ([]Value, bool) {
	b, ok := e.(*syntax.BinaryExpr)
	if !ok {
		return nil, false
	}
	left := r.resolve(scope, b.X, depth)
	if len(left) == 0 {
		return nil, true
	}
	right := r.resolve(scope, b.Y, depth)
	if len(right) == 0 {
		return nil, true
	}
	var out []Value
	for _, l := range left {
		for _, rv := range right {
			if len(out) == maxCandidates {
				return out, true
			}
			v, ok := evalBinary(b.Op, l.Value, rv.Value)
			if !ok {
				continue
			}
			out = append(out, Value{
				Value:      v,
				Confidence: typeset.MinReference(l.Confidence, rv.Confidence),
				Layer:      "binary",
			})
		}
	}
	return out, true
}

// identLayer resolves a name through a local constant or `:=` local, then a
// class constant, then the arguments passed for a parameter.
type identLayer struct{}

func (identLayer) Name() string { return "identifier" }

func (identLayer) Resolve(r *Resolver, scope *exprtype.Scope, e syntax.Expr, depth int) ([]Value, bool) {
	id, ok := e.(*syntax.Ident)
	if !ok {
		return nil, false
	}
	if scope == nil {
		return nil, true
	}
	if fn := scope.Func; fn != nil {
		if init, ok := localInit(fn, id.Name); ok {
			return r.resolve(scope, init, depth+1), true
		}
		if scope.IsLocal(id.Name) {
			return nil, true
		}
		if idx := fn.Param(id.Name); idx >= 0 {
			return r.paramValues(scope, idx, depth), true
		}
	}
	if scope.Class == "" {
		return nil, true
	}
	ci, ok := r.catalog.ConstantInitializer(scope.Class, id.Name)
	if !ok || ci.Expr == nil {
		return nil, true
	}
	return r.resolve(r.ClassScope(ci.Owner), ci.Expr, depth+1), true
}

// localInit returns the initializer of a local constant or `:=` local. A
// plain `var` is a run-time value.
func localInit(fn *syntax.FuncDecl, name string) (syntax.Expr, bool) {
	var (
		init  syntax.Expr
		found bool
	)
	syntax.InspectStmts(fn.Body, func(n syntax.Node) bool {
		if found {
			return false
		}
		switch d := n.(type) {
		case *syntax.LambdaExpr:
			return false
		case *syntax.ConstDecl:
			if d.Name == name {
				init, found = d.Value, true
			}
		case *syntax.VarDecl:
			if d.Name == name {
				found = true
				if d.Inferred {
					init = d.Value
				}
			}
		}
		return true
	})
	return init, init != nil
}

// paramValues substitutes the arguments every call site passes for the
// parameter at idx. A site that omits it, or no site at all, falls back to
// the default value. Substituted values carry Potential, or NameMatch from a
// name-matched site.
func (r *Resolver) paramValues(scope *exprtype.Scope, idx, depth int) []Value {
	fn := scope.Func
	p := fn.Params[idx]
	sites := r.collector.Collect(scope.Class, fn.Name)

	var out []Value
	add := func(vals []Value, site *callsite.Site) {
		conf := typeset.Potential
		if site != nil && site.Confidence == typeset.NameMatch {
			conf = typeset.NameMatch
		}
		for _, v := range vals {
			v.Confidence = conf
			out = append(out, v)
		}
	}
	for _, s := range sites {
		if arg, ok := s.Arg(idx); ok {
			add(r.resolve(r.siteScope(s), arg.Expr, depth+1), s)
			continue
		}
		add(r.resolve(scope, p.Default, depth+1), s)
	}
	if len(sites) == 0 {
		add(r.resolve(scope, p.Default, depth+1), nil)
	}
	return out
}

// siteScope rebuilds the scope a call site's arguments were written in.
func (r *Resolver) siteScope(s *callsite.Site) *exprtype.Scope {
	script, ok := r.project.Script(s.File)
	if !ok {
		return exprtype.ClassScope(s.CallerType, nil)
	}
	var fn *syntax.FuncDecl
	if s.CallerMethod != "" {
		fn = script.File.Func(s.CallerMethod)
	}
	return exprtype.NewScope(s.CallerType, script.File, fn)
}

// memberLayer resolves `Type.CONST`, `Enum.VALUE` and `self.CONST` through
// the catalog's constant initializers.
type memberLayer struct{}

func (memberLayer) Name() string { return "member" }

func (memberLayer) Resolve(r *Resolver, scope *exprtype.Scope, e syntax.Expr, depth int) ([]Value, bool) {
	m, ok := e.(*syntax.MemberExpr)
	if !ok {
		return nil, false
	}
	owner, name, ok := r.typer.ConstantRef(scope, m)
	if !ok {
		return nil, true
	}
	ci, ok := r.catalog.ConstantInitializer(owner, name)
	if !ok || ci.Expr == nil {
		return nil, true
	}
	return r.resolve(r.ClassScope(ci.Owner), ci.Expr, depth+1), true
}
