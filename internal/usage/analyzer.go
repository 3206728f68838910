package usage

import "gdinfer/internal/syntax"

// AnalyzeFunc collects constraints for every parameter of fn.
func AnalyzeFunc(fn *syntax.FuncDecl) map[string]*Constraints {
	return AnalyzeBody(paramNames(fn.Params), fn.Body)
}

// AnalyzeLambda collects constraints for every parameter of a lambda.
func AnalyzeLambda(l *syntax.LambdaExpr) map[string]*Constraints {
	return AnalyzeBody(paramNames(l.Params), l.Body)
}

// AnalyzeBody collects constraints for the named parameters over body.
// Nested lambdas are walked too, except for names they shadow.
func AnalyzeBody(params []string, body []syntax.Stmt) map[string]*Constraints {
	out := make(map[string]*Constraints, len(params))
	for _, p := range params {
		out[p] = &Constraints{Param: p}
	}
	walk(out, body)
	return out
}

func paramNames(params []*syntax.Param) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func walk(tracked map[string]*Constraints, body []syntax.Stmt) {
	callees := make(map[*syntax.MemberExpr]bool)

	param := func(e syntax.Expr) *Constraints {
		if id, ok := e.(*syntax.Ident); ok {
			return tracked[id.Name]
		}
		return nil
	}

	syntax.InspectStmts(body, func(n syntax.Node) bool {
		switch x := n.(type) {
		case *syntax.LambdaExpr:
			inner := make(map[string]*Constraints, len(tracked))
			for name, c := range tracked {
				inner[name] = c
			}
			for _, p := range x.Params {
				delete(inner, p.Name)
			}
			walk(inner, x.Body)
			return false

		case *syntax.CallExpr:
			if m, ok := x.Callee.(*syntax.MemberExpr); ok {
				callees[m] = true
			}
			if calleeName(x) == "assert" && len(x.Args) > 0 {
				if _, ok := x.Callee.(*syntax.Ident); ok {
					narrow(tracked, x.Args[0], true)
				}
			}
			for i, a := range x.Args {
				if c := param(a); c != nil {
					f := Forward{Method: calleeName(x), ArgIndex: i, Call: x}
					if m, ok := x.Callee.(*syntax.MemberExpr); ok {
						f.Receiver = syntax.Format(m.X)
					}
					c.Forwarded = append(c.Forwarded, f)
				}
			}

		case *syntax.MemberExpr:
			if c := param(x.X); c != nil {
				if callees[x] {
					c.addMethod(x.Name)
				} else {
					c.addProperty(x.Name)
				}
			}

		case *syntax.ForStmt:
			if c := param(x.Iter); c != nil {
				c.Iterable = true
			}

		case *syntax.IndexExpr:
			if c := param(x.X); c != nil {
				c.Indexable = true
			}

		case *syntax.IfStmt:
			narrow(tracked, x.Cond, true)
		case *syntax.ElifClause:
			narrow(tracked, x.Cond, true)
		case *syntax.WhileStmt:
			narrow(tracked, x.Cond, true)
		case *syntax.TernaryExpr:
			narrow(tracked, x.Cond, true)
		case *syntax.ReturnStmt:
			narrow(tracked, x.Value, true)
		case *syntax.MatchStmt:
			matchTypeof(tracked, x)
		}
		return true
	})
}

// narrow records `is` checks in a condition. positive is false under an odd
// number of negations.
func narrow(tracked map[string]*Constraints, cond syntax.Expr, positive bool) {
	switch x := cond.(type) {
	case *syntax.IsExpr:
		id, ok := x.X.(*syntax.Ident)
		if !ok {
			return
		}
		c := tracked[id.Name]
		if c == nil {
			return
		}
		if positive {
			c.PossibleTypes = addUnique(c.PossibleTypes, x.TypeName)
		} else {
			c.ExcludedTypes = addUnique(c.ExcludedTypes, x.TypeName)
		}
	case *syntax.UnaryExpr:
		if x.Op == syntax.NOT {
			narrow(tracked, x.X, !positive)
		}
	case *syntax.BinaryExpr:
		switch {
		case x.Op == syntax.OR:
			// not (a or b) == not a and not b
			narrow(tracked, x.X, positive)
			narrow(tracked, x.Y, positive)
		case x.Op == syntax.AND && positive:
			narrow(tracked, x.X, true)
			narrow(tracked, x.Y, true)
		}
	}
}

// variantTypes maps the Variant.Type constants compared against typeof().
var variantTypes = map[string]string{
	"TYPE_NIL":                 "Nil",
	"TYPE_BOOL":                "bool",
	"TYPE_INT":                 "int",
	"TYPE_FLOAT":               "float",
	"TYPE_STRING":              "String",
	"TYPE_VECTOR2":             "Vector2",
	"TYPE_VECTOR2I":            "Vector2i",
	"TYPE_VECTOR3":             "Vector3",
	"TYPE_VECTOR3I":            "Vector3i",
	"TYPE_COLOR":               "Color",
	"TYPE_STRING_NAME":         "StringName",
	"TYPE_NODE_PATH":           "NodePath",
	"TYPE_OBJECT":              "Object",
	"TYPE_CALLABLE":            "Callable",
	"TYPE_SIGNAL":              "Signal",
	"TYPE_DICTIONARY":          "Dictionary",
	"TYPE_ARRAY":               "Array",
	"TYPE_PACKED_BYTE_ARRAY":   "PackedByteArray",
	"TYPE_PACKED_STRING_ARRAY": "PackedStringArray",
}

// matchTypeof records the branches of `match typeof(p):` as possible types
// of p.
func matchTypeof(tracked map[string]*Constraints, m *syntax.MatchStmt) {
	call, ok := m.Subject.(*syntax.CallExpr)
	if !ok || len(call.Args) != 1 {
		return
	}
	if fn, ok := call.Callee.(*syntax.Ident); !ok || fn.Name != "typeof" {
		return
	}
	id, ok := call.Args[0].(*syntax.Ident)
	if !ok || tracked[id.Name] == nil {
		return
	}
	c := tracked[id.Name]
	for _, b := range m.Branches {
		for _, pat := range b.Patterns {
			if pid, ok := pat.(*syntax.Ident); ok {
				if typ, ok := variantTypes[pid.Name]; ok {
					c.PossibleTypes = addUnique(c.PossibleTypes, typ)
				}
			}
		}
	}
}

func calleeName(call *syntax.CallExpr) string {
	switch c := call.Callee.(type) {
	case *syntax.Ident:
		return c.Name
	case *syntax.MemberExpr:
		return c.Name
	}
	return ""
}
