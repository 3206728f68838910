package graph

import "strings"

// MethodKey identifies a method by its declaring type and name. Keys are
// case-sensitive.
type MethodKey struct {
	Type   string
	Method string
}

func (k MethodKey) String() string {
	return k.Type + "." + k.Method
}

// ParseMethodKey splits "Type.method". Path-named types such as
// "res://a/b.gd" keep their dots since method names never contain one.
func ParseMethodKey(s string) (MethodKey, bool) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return MethodKey{}, false
	}
	return MethodKey{Type: s[:i], Method: s[i+1:]}, true
}

func less(a, b MethodKey) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Method < b.Method
}

type DependencyKind string

const (
	// ParameterDependency: a caller parameter is forwarded into the callee.
	ParameterDependency DependencyKind = "parameter"
	// ReturnDependency: the caller returns the callee's result.
	ReturnDependency DependencyKind = "return"
	CallSite         DependencyKind = "call_site"
)

type UnresolvedReason string

const (
	ReasonNoCandidate UnresolvedReason = "no_candidate"
	ReasonAmbiguous   UnresolvedReason = "ambiguous"
)

// Unresolved is a call whose callee type could not be determined, keyed by
// method name only.
type Unresolved struct {
	From   MethodKey
	Name   string
	Line   int
	Reason UnresolvedReason
}

// OrderEntry is one step of the inference order.
type OrderEntry struct {
	Key     MethodKey
	InCycle bool
}
