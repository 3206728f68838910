package callsite

import (
	"gdinfer/internal/exprtype"
	"gdinfer/internal/project"
	"gdinfer/internal/syntax"
)

// Call is one call expression of a file with the scope it appears in.
type Call struct {
	File         string
	CallerType   string
	CallerMethod string
	Expr         *syntax.CallExpr
	Scope        *exprtype.Scope
}

// Name returns the called method name: `f()` and `x.f()` both yield "f".
func (c Call) Name() string {
	return CalleeName(c.Expr)
}

// CalleeName returns the method name a call expression invokes, or "".
func CalleeName(call *syntax.CallExpr) string {
	switch callee := call.Callee.(type) {
	case *syntax.Ident:
		return callee.Name
	case *syntax.MemberExpr:
		return callee.Name
	}
	return ""
}

// indexScript lists every call of s: calls in method bodies, including
// nested lambdas, then calls in class-level initializers.
func indexScript(s *project.Script) []Call {
	var calls []Call
	add := func(method string, scope *exprtype.Scope, node syntax.Node) {
		for _, c := range syntax.Calls(node) {
			calls = append(calls, Call{
				File:         s.Path,
				CallerType:   s.Class,
				CallerMethod: method,
				Expr:         c,
				Scope:        scope,
			})
		}
	}
	for _, fn := range s.File.Funcs {
		add(fn.Name, exprtype.NewScope(s.Class, s.File, fn), fn)
	}
	cls := exprtype.ClassScope(s.Class, s.File)
	for _, v := range s.File.Vars {
		add("", cls, v)
	}
	for _, c := range s.File.Constants {
		add("", cls, c)
	}
	return calls
}
