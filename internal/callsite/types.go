package callsite

import (
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
)

// ReceiverKind tags how a call's receiver was resolved.
type ReceiverKind int

const (
	// StaticReceiver: the receiver has one known type.
	StaticReceiver ReceiverKind = iota
	// UnionReceiver: the receiver is one of several known types.
	UnionReceiver
	// DuckTyped: the receiver's type is unknown; only the name matched.
	DuckTyped
	// DynamicDispatch: the method is named by a string passed to call().
	DynamicDispatch
)

func (k ReceiverKind) String() string {
	switch k {
	case StaticReceiver:
		return "static"
	case UnionReceiver:
		return "union"
	case DuckTyped:
		return "duck"
	case DynamicDispatch:
		return "dynamic"
	}
	return "unknown"
}

type Receiver struct {
	Kind ReceiverKind
	// Types that can receive the call, for static, union and resolved
	// dynamic receivers.
	Types []string
	// Variable is the root identifier of a duck-typed receiver.
	Variable string
	Text     string
	// Via names the reflective method used by a dynamic dispatch.
	Via string
}

// Argument is one actual argument of a call site. A nil or empty Type means
// the argument could not be typed.
type Argument struct {
	Index      int
	Type       *typeset.Union
	Confidence typeset.TypeConfidence
	Text       string
	Pos        syntax.Pos
	Expr       syntax.Expr
}

// High reports whether the argument's type is high-confidence evidence.
func (a Argument) High() bool {
	return !a.Type.IsEmpty() && a.Confidence.IsHigh()
}

// Site is one invocation of a method. Sites are immutable once collected.
type Site struct {
	File         string
	CallerType   string
	CallerMethod string // empty for class-level initializers
	Receiver     Receiver
	Method       string
	Args         []Argument
	Pos          syntax.Pos
	Confidence   typeset.ReferenceConfidence
	Call         *syntax.CallExpr
}

// Arg returns the argument at index, if the site passed one.
func (s *Site) Arg(index int) (Argument, bool) {
	if index < 0 || index >= len(s.Args) {
		return Argument{}, false
	}
	return s.Args[index], true
}
