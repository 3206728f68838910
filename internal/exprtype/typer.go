// Package exprtype infers the type of an expression from local evidence:
// literals, annotations, local initializers and catalog member types. It never
// runs cross-method inference itself; the engine plugs that in through hooks.
package exprtype

import (
	"gdinfer/internal/catalog"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
)

// Result is an inferred expression type. An empty union with Unknown
// confidence means no evidence.
type Result struct {
	Types      *typeset.Union
	Confidence typeset.TypeConfidence
}

// Known reports whether any type was inferred.
func (r Result) Known() bool {
	return !r.Types.IsEmpty()
}

func unknown() Result {
	return Result{Types: &typeset.Union{}, Confidence: typeset.Unknown}
}

func certain(typ string) Result {
	return Result{Types: typeset.New(typ), Confidence: typeset.Certain}
}

func of(typ string, c typeset.TypeConfidence) Result {
	if typ == "" || c == typeset.Unknown {
		return unknown()
	}
	u := &typeset.Union{}
	u.Add(typ, c.IsHigh())
	return Result{Types: u, Confidence: c}
}

// ParamHook returns the inferred type of an unannotated parameter.
type ParamHook func(class, method string, index int) Result

// ReturnHook returns the inferred return type of an unannotated method.
type ReturnHook func(class, method string) Result

// Typer types expressions against a catalog.
type Typer struct {
	catalog *catalog.Catalog

	ParamHook  ParamHook
	ReturnHook ReturnHook
}

func New(c *catalog.Catalog) *Typer {
	return &Typer{catalog: c}
}

// Catalog returns the catalog the typer resolves members against.
func (t *Typer) Catalog() *catalog.Catalog { return t.catalog }

// TypeOf infers the type of e inside scope.
func (t *Typer) TypeOf(scope *Scope, e syntax.Expr) Result {
	return t.typeOf(scope, e, make(map[string]bool))
}

func (t *Typer) typeOf(scope *Scope, e syntax.Expr, visiting map[string]bool) Result {
	switch x := e.(type) {
	case nil:
		return unknown()
	case *syntax.Literal:
		return certain(LiteralType(x))
	case *syntax.ArrayLit:
		return certain("Array")
	case *syntax.DictLit:
		return certain("Dictionary")
	case *syntax.LambdaExpr:
		return certain("Callable")
	case *syntax.SelfExpr:
		if scope == nil || scope.Class == "" {
			return unknown()
		}
		return certain(scope.Class)
	case *syntax.GetNodeExpr:
		return of("Node", typeset.Low)
	case *syntax.Ident:
		return t.identType(scope, x.Name, visiting)
	case *syntax.CallExpr:
		return t.callType(scope, x, visiting)
	case *syntax.MemberExpr:
		return t.memberType(scope, x, visiting)
	case *syntax.UnaryExpr:
		if x.Op == syntax.NOT {
			return certain("bool")
		}
		if x.Op == syntax.TILDE {
			return certain("int")
		}
		return t.typeOf(scope, x.X, visiting)
	case *syntax.BinaryExpr:
		return t.binaryType(scope, x, visiting)
	case *syntax.IsExpr:
		return certain("bool")
	case *syntax.CastExpr:
		return certain(x.TypeName)
	case *syntax.TernaryExpr:
		a := t.typeOf(scope, x.Then, visiting)
		b := t.typeOf(scope, x.Else, visiting)
		if !a.Known() || !b.Known() {
			return unknown()
		}
		u := a.Types.Clone()
		u.AddUnion(b.Types, true)
		return Result{Types: u, Confidence: typeset.MinType(a.Confidence, b.Confidence)}
	case *syntax.IndexExpr:
		return t.indexType(scope, x, visiting)
	case *syntax.AwaitExpr:
		return t.typeOf(scope, x.X, visiting)
	}
	return unknown()
}

// LiteralType names the built-in type of a literal.
func LiteralType(l *syntax.Literal) string {
	switch l.Kind {
	case syntax.LitInt:
		return "int"
	case syntax.LitFloat:
		return "float"
	case syntax.LitString:
		return "String"
	case syntax.LitStringName:
		return "StringName"
	case syntax.LitNodePath:
		return "NodePath"
	case syntax.LitBool:
		return "bool"
	}
	return "Nil"
}

func (t *Typer) identType(scope *Scope, name string, visiting map[string]bool) Result {
	if scope == nil {
		return unknown()
	}
	if visiting[name] {
		return unknown()
	}
	visiting[name] = true
	defer delete(visiting, name)

	if l, ok := scope.locals[name]; ok {
		if l.typ != "" {
			return certain(l.typ)
		}
		if l.value != nil {
			return t.typeOf(scope, l.value, visiting)
		}
		return unknown()
	}

	if idx := scope.paramIndex(name); idx >= 0 {
		p := scope.Func.Params[idx]
		switch {
		case p.Type != "":
			return certain(p.Type)
		case p.Inferred:
			return t.typeOf(scope, p.Default, visiting)
		}
		if t.ParamHook != nil {
			return t.ParamHook(scope.Class, scope.Func.Name, idx)
		}
		return unknown()
	}

	if scope.File != nil {
		if v := scope.File.Var(name); v != nil {
			if v.Type != "" {
				return certain(v.Type)
			}
			return t.typeOf(scope.classScope(), v.Value, visiting)
		}
		if c := scope.File.Const(name); c != nil {
			if c.Type != "" {
				return certain(c.Type)
			}
			return t.typeOf(scope.classScope(), c.Value, visiting)
		}
	}

	if scope.Class != "" {
		if m, ok := t.catalog.GetMember(scope.Class, name); ok && m.Kind != catalog.MemberMethod {
			if m.Type != "" {
				return certain(m.Type)
			}
			if ci, ok := t.catalog.ConstantInitializer(scope.Class, name); ok {
				return t.constType(scope.Class, name, ci, visiting)
			}
			return unknown()
		}
	}
	return unknown()
}

func (t *Typer) callType(scope *Scope, call *syntax.CallExpr, visiting map[string]bool) Result {
	switch callee := call.Callee.(type) {
	case *syntax.Ident:
		// Constructors of built-in value types: Vector2(1, 2), int("3").
		if t.catalog.HasType(callee.Name) && !t.catalog.IsProjectType(callee.Name) {
			return certain(callee.Name)
		}
		if scope != nil && scope.Class != "" {
			if m, ok := t.catalog.GetMember(scope.Class, callee.Name); ok && m.Kind == catalog.MemberMethod {
				return t.methodReturn(m)
			}
		}
		if ret, ok := t.catalog.GlobalFunction(callee.Name); ok {
			return t.declaredReturn(ret)
		}
		return unknown()

	case *syntax.MemberExpr:
		if id, ok := callee.X.(*syntax.Ident); ok && callee.Name == "new" && t.IsTypeName(scope, id.Name) {
			return certain(id.Name)
		}
		recv := t.typeOf(scope, callee.X, visiting)
		if !recv.Known() {
			return unknown()
		}
		out := &typeset.Union{}
		conf := recv.Confidence
		for _, typ := range recv.Types.Types() {
			m, ok := t.catalog.GetMember(typ, callee.Name)
			if !ok || m.Kind != catalog.MemberMethod {
				return unknown()
			}
			r := t.methodReturn(m)
			if !r.Known() {
				return unknown()
			}
			out.AddUnion(r.Types, r.Confidence.IsHigh())
			conf = typeset.MinType(conf, r.Confidence)
		}
		return Result{Types: out, Confidence: conf}
	}
	return unknown()
}

// methodReturn uses the declared return type, or asks the engine for an
// unannotated project method.
func (t *Typer) methodReturn(m catalog.Member) Result {
	if m.Type != "" {
		return t.declaredReturn(m.Type)
	}
	if t.ReturnHook != nil && t.catalog.IsProjectType(m.Owner) {
		return t.ReturnHook(m.Owner, m.Name)
	}
	return unknown()
}

// declaredReturn maps catalog return types; Variant says nothing useful.
func (t *Typer) declaredReturn(typ string) Result {
	if typ == "Variant" || typ == "" {
		return unknown()
	}
	return certain(typ)
}

// IsTypeName reports whether name denotes a type rather than a variable in
// scope.
func (t *Typer) IsTypeName(scope *Scope, name string) bool {
	if scope != nil {
		if _, ok := scope.locals[name]; ok {
			return false
		}
		if scope.paramIndex(name) >= 0 {
			return false
		}
	}
	return t.catalog.HasType(name)
}

// constType types a catalog constant's initializer. Qualified keys share the
// visiting set with bare names so cross-class constant loops stop.
func (t *Typer) constType(owner, name string, ci catalog.ConstantInit, visiting map[string]bool) Result {
	if ci.Type != "" {
		return certain(ci.Type)
	}
	key := owner + "." + name
	if visiting[key] {
		return unknown()
	}
	visiting[key] = true
	defer delete(visiting, key)
	return t.typeOf(nil, ci.Expr, visiting)
}

func (t *Typer) memberType(scope *Scope, m *syntax.MemberExpr, visiting map[string]bool) Result {
	if owner, name, ok := t.ConstantRef(scope, m); ok {
		ci, _ := t.catalog.ConstantInitializer(owner, name)
		return t.constType(owner, name, ci, visiting)
	}
	if id, ok := m.X.(*syntax.Ident); ok && t.IsTypeName(scope, id.Name) {
		return unknown()
	}
	recv := t.typeOf(scope, m.X, visiting)
	if !recv.Known() {
		return unknown()
	}
	out := &typeset.Union{}
	for _, typ := range recv.Types.Types() {
		pt := t.catalog.PropertyType(typ, m.Name)
		if pt == "" {
			return unknown()
		}
		out.Add(pt, true)
	}
	return Result{Types: out, Confidence: recv.Confidence}
}

func (t *Typer) indexType(scope *Scope, x *syntax.IndexExpr, visiting map[string]bool) Result {
	recv := t.typeOf(scope, x.X, visiting)
	if typ, ok := recv.Types.Single(); ok {
		switch typ {
		case "String":
			return of("String", recv.Confidence)
		case "PackedStringArray":
			return of("String", recv.Confidence)
		case "PackedInt32Array":
			return of("int", recv.Confidence)
		}
	}
	return unknown()
}

func (t *Typer) binaryType(scope *Scope, b *syntax.BinaryExpr, visiting map[string]bool) Result {
	switch b.Op {
	case syntax.EQ, syntax.NEQ, syntax.LT, syntax.GT, syntax.LTE, syntax.GTE,
		syntax.AND, syntax.OR, syntax.IN:
		return certain("bool")
	}
	l := t.typeOf(scope, b.X, visiting)
	r := t.typeOf(scope, b.Y, visiting)
	lt, lok := l.Types.Single()
	rt, rok := r.Types.Single()
	if !lok || !rok {
		return unknown()
	}
	typ := ArithmeticResult(b.Op, lt, rt)
	return of(typ, typeset.MinType(l.Confidence, r.Confidence))
}

// ArithmeticResult is the result type of `lt op rt` for built-in operands, or
// "" when unknown.
func ArithmeticResult(op syntax.TokenType, lt, rt string) string {
	numeric := func(s string) bool { return s == "int" || s == "float" }
	vector := func(s string) bool { return s == "Vector2" || s == "Vector3" || s == "Color" }

	switch op {
	case syntax.PLUS, syntax.MINUS, syntax.STAR, syntax.SLASH, syntax.POW:
		switch {
		case lt == "int" && rt == "int":
			return "int"
		case numeric(lt) && numeric(rt):
			return "float"
		case op == syntax.PLUS && lt == "String" && rt == "String":
			return "String"
		case op == syntax.PLUS && lt == "Array" && rt == "Array":
			return "Array"
		case vector(lt) && (lt == rt || numeric(rt)):
			return lt
		case vector(rt) && numeric(lt) && op == syntax.STAR:
			return rt
		}
	case syntax.PERCENT:
		switch {
		case lt == "String":
			return "String"
		case lt == "int" && rt == "int":
			return "int"
		case numeric(lt) && numeric(rt):
			return "float"
		}
	case syntax.AMP, syntax.PIPE, syntax.CARET, syntax.SHL, syntax.SHR:
		if lt == "int" && rt == "int" {
			return "int"
		}
	}
	return ""
}

// ConstantRef recognizes a qualified constant reference and returns the type
// declaring it plus the constant's catalog name: Type.CONST, Enum.VALUE of
// the enclosing class and Type.Enum.VALUE.
func (t *Typer) ConstantRef(scope *Scope, m *syntax.MemberExpr) (string, string, bool) {
	try := func(owner, name string) (string, string, bool) {
		if ci, ok := t.catalog.ConstantInitializer(owner, name); ok {
			return ci.Owner, name, true
		}
		return "", "", false
	}
	switch x := m.X.(type) {
	case *syntax.Ident:
		if t.IsTypeName(scope, x.Name) {
			return try(x.Name, m.Name)
		}
		if scope != nil && scope.Class != "" && !scope.IsLocal(x.Name) && scope.paramIndex(x.Name) < 0 {
			return try(scope.Class, x.Name+"."+m.Name)
		}
	case *syntax.SelfExpr:
		if scope != nil && scope.Class != "" {
			return try(scope.Class, m.Name)
		}
	case *syntax.MemberExpr:
		if id, ok := x.X.(*syntax.Ident); ok && t.IsTypeName(scope, id.Name) {
			return try(id.Name, x.Name+"."+m.Name)
		}
	}
	return "", "", false
}
