package exprtype

import "gdinfer/internal/syntax"

type local struct {
	typ   string
	value syntax.Expr
}

// Scope is the lexical context an expression is typed in: the enclosing
// class, its script and, inside a method, the method's locals.
type Scope struct {
	Class string
	File  *syntax.File
	Func  *syntax.FuncDecl

	locals map[string]local
}

// NewScope builds the scope of fn in class. Locals are collected flow
// insensitively; the first declaration of a name wins. Nested lambda bodies
// are not part of the scope.
func NewScope(class string, file *syntax.File, fn *syntax.FuncDecl) *Scope {
	s := &Scope{Class: class, File: file, Func: fn, locals: make(map[string]local)}
	if fn != nil {
		s.collect(fn.Body)
	}
	return s
}

// ClassScope is the scope of class-level initializers.
func ClassScope(class string, file *syntax.File) *Scope {
	return NewScope(class, file, nil)
}

func (s *Scope) classScope() *Scope {
	return ClassScope(s.Class, s.File)
}

func (s *Scope) declare(name string, l local) {
	if _, ok := s.locals[name]; !ok {
		s.locals[name] = l
	}
}

func (s *Scope) collect(body []syntax.Stmt) {
	syntax.InspectStmts(body, func(n syntax.Node) bool {
		switch d := n.(type) {
		case *syntax.LambdaExpr:
			return false
		case *syntax.VarDecl:
			s.declare(d.Name, local{typ: d.Type, value: d.Value})
		case *syntax.ConstDecl:
			s.declare(d.Name, local{typ: d.Type, value: d.Value})
		case *syntax.ForStmt:
			s.declare(d.Var, local{typ: forVarType(d)})
		}
		return true
	})
}

// forVarType types a loop variable from its annotation or an integer range.
func forVarType(f *syntax.ForStmt) string {
	if f.VarType != "" {
		return f.VarType
	}
	switch it := f.Iter.(type) {
	case *syntax.Literal:
		if it.Kind == syntax.LitInt {
			return "int"
		}
	case *syntax.CallExpr:
		if id, ok := it.Callee.(*syntax.Ident); ok && id.Name == "range" {
			return "int"
		}
	}
	return ""
}

// IsLocal reports whether name is a local variable or constant of the
// method, as opposed to a parameter or a class member.
func (s *Scope) IsLocal(name string) bool {
	_, ok := s.locals[name]
	return ok
}

// LocalValue returns the initializer of a local declared with name.
func (s *Scope) LocalValue(name string) (syntax.Expr, bool) {
	l, ok := s.locals[name]
	if !ok || l.value == nil {
		return nil, false
	}
	return l.value, true
}

func (s *Scope) paramIndex(name string) int {
	if s.Func == nil {
		return -1
	}
	return s.Func.Param(name)
}
