package syntax

import "fmt"

// Pos is a 1-based line/column pair.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by every syntax tree node. Trees are read-only once
// parsed; analysis passes keep non-owning references into them.
type Node interface {
	Position() Pos
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// File and declarations
// ---------------------------------------------------------------------------

// File is one parsed script.
type File struct {
	Path        string
	ClassName   string // from class_name, empty when absent
	Extends     string // base type name (extends Node)
	ExtendsPath string // base script path (extends "res://base.gd")
	Constants   []*ConstDecl
	Vars        []*VarDecl
	Signals     []*SignalDecl
	Enums       []*EnumDecl
	Funcs       []*FuncDecl
}

// Func returns the function declared with name, or nil.
func (f *File) Func(name string) *FuncDecl {
	for _, fn := range f.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Const returns the class-level constant declared with name, or nil.
func (f *File) Const(name string) *ConstDecl {
	for _, c := range f.Constants {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Var returns the member variable declared with name, or nil.
func (f *File) Var(name string) *VarDecl {
	for _, v := range f.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// ConstDecl is `const NAME [: T | :=] = value`, at class or block level.
type ConstDecl struct {
	Name     string
	Type     string
	Inferred bool
	Value    Expr
	Pos      Pos
}

// VarDecl is `var name [: T | :=] [= value]`, at class or block level.
type VarDecl struct {
	Name     string
	Type     string
	Inferred bool
	Value    Expr
	Pos      Pos
}

// SignalDecl is `signal name(params)`.
type SignalDecl struct {
	Name   string
	Params []*Param
	Pos    Pos
}

// EnumDecl is `enum [Name] { A, B = 2 }`.
type EnumDecl struct {
	Name   string
	Values []*EnumValue
	Pos    Pos
}

// EnumValue is one enumerator.
type EnumValue struct {
	Name  string
	Value Expr
	Pos   Pos
}

// Param is a function, lambda or signal parameter.
type Param struct {
	Name     string
	Type     string
	Inferred bool // declared with :=
	Default  Expr
	Pos      Pos
}

// FuncDecl is a method declaration.
type FuncDecl struct {
	Name       string
	Static     bool
	Params     []*Param
	ReturnType string
	Body       []Stmt
	Pos        Pos
	EndLine    int
}

// Param returns the index of the named parameter, or -1.
func (f *FuncDecl) Param(name string) int {
	for i, p := range f.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (n *ConstDecl) Position() Pos  { return n.Pos }
func (n *VarDecl) Position() Pos    { return n.Pos }
func (n *SignalDecl) Position() Pos { return n.Pos }
func (n *EnumDecl) Position() Pos   { return n.Pos }
func (n *Param) Position() Pos      { return n.Pos }
func (n *FuncDecl) Position() Pos   { return n.Pos }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type ReturnStmt struct {
	Value Expr // nil for a bare return
	Pos   Pos
}

type IfStmt struct {
	Cond  Expr
	Then  []Stmt
	Elifs []*ElifClause
	Else  []Stmt
	Pos   Pos
}

type ElifClause struct {
	Cond Expr
	Body []Stmt
	Pos  Pos
}

type ForStmt struct {
	Var     string
	VarType string
	Iter    Expr
	Body    []Stmt
	Pos     Pos
}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Pos  Pos
}

type MatchStmt struct {
	Subject  Expr
	Branches []*MatchBranch
	Pos      Pos
}

type MatchBranch struct {
	Patterns []Expr
	Body     []Stmt
	Pos      Pos
}

type AssignStmt struct {
	Target Expr
	Op     TokenType // ASSIGN or a compound operator such as PLUSEQ
	Value  Expr
	Pos    Pos
}

type ExprStmt struct {
	X   Expr
	Pos Pos
}

type PassStmt struct{ Pos Pos }
type BreakStmt struct{ Pos Pos }
type ContinueStmt struct{ Pos Pos }

func (n *ReturnStmt) Position() Pos   { return n.Pos }
func (n *IfStmt) Position() Pos       { return n.Pos }
func (n *ElifClause) Position() Pos   { return n.Pos }
func (n *ForStmt) Position() Pos      { return n.Pos }
func (n *WhileStmt) Position() Pos    { return n.Pos }
func (n *MatchStmt) Position() Pos    { return n.Pos }
func (n *MatchBranch) Position() Pos  { return n.Pos }
func (n *AssignStmt) Position() Pos   { return n.Pos }
func (n *ExprStmt) Position() Pos     { return n.Pos }
func (n *PassStmt) Position() Pos     { return n.Pos }
func (n *BreakStmt) Position() Pos    { return n.Pos }
func (n *ContinueStmt) Position() Pos { return n.Pos }

func (*VarDecl) stmtNode()      {}
func (*ConstDecl) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*WhileStmt) stmtNode()    {}
func (*MatchStmt) stmtNode()    {}
func (*AssignStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
func (*PassStmt) stmtNode()     {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// LitKind classifies literal expressions.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitStringName
	LitNodePath
	LitBool
	LitNull
)

// Literal is a scalar literal. Value holds int64, float64, string, bool or nil.
type Literal struct {
	Kind  LitKind
	Raw   string
	Value any
	Pos   Pos
}

type Ident struct {
	Name string
	Pos  Pos
}

type SelfExpr struct{ Pos Pos }

type ArrayLit struct {
	Elems []Expr
	Pos   Pos
}

type DictEntry struct {
	Key   Expr
	Value Expr
}

type DictLit struct {
	Entries []*DictEntry
	Pos     Pos
}

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Pos    Pos
}

type MemberExpr struct {
	X    Expr
	Name string
	Pos  Pos
}

type IndexExpr struct {
	X     Expr
	Index Expr
	Pos   Pos
}

type UnaryExpr struct {
	Op  TokenType // MINUS, PLUS, NOT, BANG, TILDE
	X   Expr
	Pos Pos
}

type BinaryExpr struct {
	Op  TokenType
	X   Expr
	Y   Expr
	Pos Pos
}

// IsExpr is the `x is T` type test.
type IsExpr struct {
	X        Expr
	TypeName string
	Pos      Pos
}

// CastExpr is `x as T`.
type CastExpr struct {
	X        Expr
	TypeName string
	Pos      Pos
}

// TernaryExpr is `then if cond else other`.
type TernaryExpr struct {
	Then Expr
	Cond Expr
	Else Expr
	Pos  Pos
}

// GetNodeExpr is the `$Path` shorthand.
type GetNodeExpr struct {
	Path string
	Pos  Pos
}

type AwaitExpr struct {
	X   Expr
	Pos Pos
}

type LambdaExpr struct {
	Name       string
	Params     []*Param
	ReturnType string
	Body       []Stmt
	Pos        Pos
}

func (n *Literal) Position() Pos     { return n.Pos }
func (n *Ident) Position() Pos       { return n.Pos }
func (n *SelfExpr) Position() Pos    { return n.Pos }
func (n *ArrayLit) Position() Pos    { return n.Pos }
func (n *DictLit) Position() Pos     { return n.Pos }
func (n *CallExpr) Position() Pos    { return n.Pos }
func (n *MemberExpr) Position() Pos  { return n.Pos }
func (n *IndexExpr) Position() Pos   { return n.Pos }
func (n *UnaryExpr) Position() Pos   { return n.Pos }
func (n *BinaryExpr) Position() Pos  { return n.Pos }
func (n *IsExpr) Position() Pos      { return n.Pos }
func (n *CastExpr) Position() Pos    { return n.Pos }
func (n *TernaryExpr) Position() Pos { return n.Pos }
func (n *GetNodeExpr) Position() Pos { return n.Pos }
func (n *AwaitExpr) Position() Pos   { return n.Pos }
func (n *LambdaExpr) Position() Pos  { return n.Pos }

func (*Literal) exprNode()     {}
func (*Ident) exprNode()       {}
func (*SelfExpr) exprNode()    {}
func (*ArrayLit) exprNode()    {}
func (*DictLit) exprNode()     {}
func (*CallExpr) exprNode()    {}
func (*MemberExpr) exprNode()  {}
func (*IndexExpr) exprNode()   {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*IsExpr) exprNode()      {}
func (*CastExpr) exprNode()    {}
func (*TernaryExpr) exprNode() {}
func (*GetNodeExpr) exprNode() {}
func (*AwaitExpr) exprNode()   {}
func (*LambdaExpr) exprNode()  {}
