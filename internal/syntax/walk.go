package syntax

// Inspect traverses the tree rooted at node in depth-first source order,
// calling f for each node. If f returns false the children of that node are
// skipped. Nested lambda bodies are visited like any other expression.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *FuncDecl:
		inspectParams(n.Params, f)
		InspectStmts(n.Body, f)
	case *ConstDecl:
		Inspect(n.Value, f)
	case *VarDecl:
		Inspect(n.Value, f)
	case *Param:
		Inspect(n.Default, f)
	case *ReturnStmt:
		Inspect(n.Value, f)
	case *IfStmt:
		Inspect(n.Cond, f)
		InspectStmts(n.Then, f)
		for _, e := range n.Elifs {
			Inspect(e, f)
		}
		InspectStmts(n.Else, f)
	case *ElifClause:
		Inspect(n.Cond, f)
		InspectStmts(n.Body, f)
	case *ForStmt:
		Inspect(n.Iter, f)
		InspectStmts(n.Body, f)
	case *WhileStmt:
		Inspect(n.Cond, f)
		InspectStmts(n.Body, f)
	case *MatchStmt:
		Inspect(n.Subject, f)
		for _, b := range n.Branches {
			Inspect(b, f)
		}
	case *MatchBranch:
		for _, p := range n.Patterns {
			Inspect(p, f)
		}
		InspectStmts(n.Body, f)
	case *AssignStmt:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *ArrayLit:
		for _, e := range n.Elems {
			Inspect(e, f)
		}
	case *DictLit:
		for _, e := range n.Entries {
			Inspect(e.Key, f)
			Inspect(e.Value, f)
		}
	case *CallExpr:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *MemberExpr:
		Inspect(n.X, f)
	case *IndexExpr:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *UnaryExpr:
		Inspect(n.X, f)
	case *BinaryExpr:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *IsExpr:
		Inspect(n.X, f)
	case *CastExpr:
		Inspect(n.X, f)
	case *TernaryExpr:
		Inspect(n.Then, f)
		Inspect(n.Cond, f)
		Inspect(n.Else, f)
	case *AwaitExpr:
		Inspect(n.X, f)
	case *LambdaExpr:
		inspectParams(n.Params, f)
		InspectStmts(n.Body, f)
	}
}

// InspectStmts applies Inspect to each statement of a block.
func InspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}

func inspectParams(params []*Param, f func(Node) bool) {
	for _, p := range params {
		Inspect(p, f)
	}
}

// Returns collects the return statements of a body, skipping nested lambdas.
func Returns(body []Stmt) []*ReturnStmt {
	var out []*ReturnStmt
	InspectStmts(body, func(n Node) bool {
		switch r := n.(type) {
		case *LambdaExpr:
			return false
		case *ReturnStmt:
			out = append(out, r)
		}
		return true
	})
	return out
}

// Calls collects every call expression under node, including those in
// nested lambdas.
func Calls(node Node) []*CallExpr {
	var out []*CallExpr
	Inspect(node, func(n Node) bool {
		if c, ok := n.(*CallExpr); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

// RootIdent follows member and index chains down to the identifier they
// start from, e.g. `a.b[0].c` yields `a`.
func RootIdent(e Expr) (*Ident, bool) {
	for {
		switch x := e.(type) {
		case *Ident:
			return x, true
		case *MemberExpr:
			e = x.X
		case *IndexExpr:
			e = x.X
		case *CallExpr:
			e = x.Callee
		default:
			return nil, false
		}
	}
}
