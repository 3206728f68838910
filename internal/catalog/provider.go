// Package catalog answers type questions ("does T have member M", "is A
// assignable to B") over a composition of type universes: built-in engine
// types loaded from YAML and classes declared by project scripts.
package catalog

import "gdinfer/internal/syntax"

// MemberKind classifies a type member.
type MemberKind int

const (
	MemberNone MemberKind = iota
	MemberMethod
	MemberProperty
	MemberSignal
	MemberConstant
)

func (k MemberKind) String() string {
	switch k {
	case MemberMethod:
		return "method"
	case MemberProperty:
		return "property"
	case MemberSignal:
		return "signal"
	case MemberConstant:
		return "constant"
	}
	return "none"
}

// Member is one member of a type as declared by its owner.
type Member struct {
	Name  string
	Kind  MemberKind
	Type  string // return type for methods, declared type otherwise; may be empty
	Owner string
}

// ConstantInit is the initializer of a constant, used for compile-time value
// resolution.
type ConstantInit struct {
	Owner string
	Name  string
	Type  string
	Expr  syntax.Expr
	File  string // res:// path of the declaring script, empty for built-ins
}

// Traits are container capabilities of a type.
type Traits struct {
	Iterable  bool
	Indexable bool
}

// Provider is one type universe. Member lookups are non-inherited; the
// Catalog walks base chains across providers.
type Provider interface {
	Name() string
	HasType(typ string) bool
	Types() []string
	Base(typ string) (string, bool)
	OwnMember(typ, name string) (Member, bool)
	OwnMembers(typ string) []Member
	ConstantInitializer(typ, name string) (ConstantInit, bool)
	Traits(typ string) Traits
}

// GlobalProvider is implemented by providers that know global functions.
type GlobalProvider interface {
	GlobalFunction(name string) (string, bool)
}
