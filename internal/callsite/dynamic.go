package callsite

import (
	"gdinfer/internal/exprtype"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
)

// dynamicMethods are the reflective Object methods taking a method name.
var dynamicMethods = []string{"call", "call_deferred", "callv"}

const maxNameDepth = 3

// IsDynamic reports whether name is a reflective dispatch method.
func IsDynamic(name string) bool {
	for _, m := range dynamicMethods {
		if m == name {
			return true
		}
	}
	return false
}

// Dispatch resolves a reflective `call("m", ...)`, `call_deferred` or
// `callv("m", [...])` to the dispatched method name and the arguments it
// forwards. The name must resolve to a static string holding a plain
// identifier.
func (c *Collector) Dispatch(call Call) (string, []syntax.Expr, bool) {
	via := call.Name()
	args := call.Expr.Args
	if !IsDynamic(via) || len(args) == 0 {
		return "", nil, false
	}
	name, ok := c.StaticString(call.Scope, args[0])
	if !ok || !isMethodName(name) {
		return "", nil, false
	}
	var passed []syntax.Expr
	switch via {
	case "callv":
		if len(args) > 1 {
			if arr, isArr := args[1].(*syntax.ArrayLit); isArr {
				passed = arr.Elems
			}
		}
	default:
		passed = args[1:]
	}
	return name, passed, true
}

// matchDynamic matches a reflective dispatch of method. Dynamic sites are
// never Strict.
func (c *Collector) matchDynamic(call Call, declType, method string) (*Site, bool) {
	name, passed, ok := c.Dispatch(call)
	if !ok || name != method {
		return nil, false
	}

	var (
		recv Receiver
		conf typeset.ReferenceConfidence
	)
	switch callee := call.Expr.Callee.(type) {
	case *syntax.Ident:
		recv = Receiver{Types: []string{call.CallerType}, Text: "self"}
		conf, ok = c.matchType(call.CallerType, declType, method)
	case *syntax.MemberExpr:
		recv, conf, ok = c.matchReceiver(call.Scope, callee.X, declType, method)
	default:
		ok = false
	}
	if !ok {
		return nil, false
	}
	recv.Kind = DynamicDispatch
	recv.Via = call.Name()
	return c.site(call, recv, method, typeset.MinReference(conf, typeset.Potential), passed), true
}

// isMethodName re-parses a dispatched name and accepts it only when it is a
// plain identifier. Malformed text is no match.
func isMethodName(name string) bool {
	e, err := syntax.ParseExpr(name)
	if err != nil {
		return false
	}
	id, ok := e.(*syntax.Ident)
	return ok && id.Name == name
}

// StaticString resolves e to a compile-time string: a String or StringName
// literal, or a constant whose initializer is one.
func (c *Collector) StaticString(scope *exprtype.Scope, e syntax.Expr) (string, bool) {
	for depth := 0; depth < maxNameDepth; depth++ {
		switch x := e.(type) {
		case *syntax.Literal:
			if x.Kind != syntax.LitString && x.Kind != syntax.LitStringName {
				return "", false
			}
			s, ok := x.Value.(string)
			return s, ok
		case *syntax.Ident:
			next, nextScope, ok := c.constantValue(scope, x.Name)
			if !ok {
				return "", false
			}
			e, scope = next, nextScope
		case *syntax.MemberExpr:
			owner, name, ok := c.typer.ConstantRef(scope, x)
			if !ok {
				return "", false
			}
			ci, _ := c.catalog.ConstantInitializer(owner, name)
			e, scope = ci.Expr, c.classScope(ci.Owner)
		default:
			return "", false
		}
	}
	return "", false
}

// constantValue finds the initializer of a method-level or class constant
// and the scope it must be read in.
func (c *Collector) constantValue(scope *exprtype.Scope, name string) (syntax.Expr, *exprtype.Scope, bool) {
	if scope == nil {
		return nil, nil, false
	}
	if scope.Func != nil {
		var found syntax.Expr
		syntax.InspectStmts(scope.Func.Body, func(n syntax.Node) bool {
			if d, ok := n.(*syntax.ConstDecl); ok && d.Name == name && found == nil {
				found = d.Value
			}
			_, lambda := n.(*syntax.LambdaExpr)
			return !lambda
		})
		if found != nil {
			return found, scope, true
		}
		if scope.IsLocal(name) || scope.Func.Param(name) >= 0 {
			return nil, nil, false
		}
	}
	if scope.Class == "" {
		return nil, nil, false
	}
	ci, ok := c.catalog.ConstantInitializer(scope.Class, name)
	if !ok {
		return nil, nil, false
	}
	return ci.Expr, c.classScope(ci.Owner), true
}

func (c *Collector) classScope(class string) *exprtype.Scope {
	var file *syntax.File
	if s, ok := c.project.ByClass(class); ok {
		file = s.File
	}
	return exprtype.ClassScope(class, file)
}
