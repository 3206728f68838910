package catalog

import (
	"errors"
	"sort"

	"gdinfer/internal/project"
)

// ErrNoProviders is returned when a catalog is built without any universe.
var ErrNoProviders = errors.New("catalog: at least one provider is required")

// Catalog composes providers. Earlier providers shadow later ones for a type
// they both know; base chains may cross providers (a project class extending
// an engine type).
type Catalog struct {
	providers []Provider
}

func New(providers ...Provider) (*Catalog, error) {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return nil, ErrNoProviders
	}
	return &Catalog{providers: ps}, nil
}

// ForProject builds the usual composition: project classes over the built-in
// engine catalog, plus any extra catalogs after them.
func ForProject(p *project.Project, extra ...Provider) (*Catalog, error) {
	builtin, err := LoadBuiltin()
	if err != nil {
		return nil, err
	}
	providers := []Provider{NewProjectProvider(p)}
	providers = append(providers, extra...)
	providers = append(providers, builtin)
	return New(providers...)
}

func (c *Catalog) provider(typ string) Provider {
	for _, p := range c.providers {
		if p.HasType(typ) {
			return p
		}
	}
	return nil
}

func (c *Catalog) HasType(typ string) bool {
	return c.provider(typ) != nil
}

// BaseType returns the direct base of typ.
func (c *Catalog) BaseType(typ string) (string, bool) {
	p := c.provider(typ)
	if p == nil {
		return "", false
	}
	return p.Base(typ)
}

// Ancestors returns the base chain of typ, nearest first, excluding typ.
// Cyclic extends chains stop at the first repeat.
func (c *Catalog) Ancestors(typ string) []string {
	var out []string
	seen := map[string]bool{typ: true}
	for {
		base, ok := c.BaseType(typ)
		if !ok || seen[base] {
			return out
		}
		seen[base] = true
		out = append(out, base)
		typ = base
	}
}

// chain is typ followed by its ancestors.
func (c *Catalog) chain(typ string) []string {
	return append([]string{typ}, c.Ancestors(typ)...)
}

// GetMember looks name up on typ and its ancestors. The returned member's
// Owner is the type that declares it.
func (c *Catalog) GetMember(typ, name string) (Member, bool) {
	for _, t := range c.chain(typ) {
		p := c.provider(t)
		if p == nil {
			continue
		}
		if m, ok := p.OwnMember(t, name); ok {
			return m, true
		}
	}
	return Member{}, false
}

// Members returns every member visible on typ, nearest declaration winning.
func (c *Catalog) Members(typ string) []Member {
	seen := make(map[string]bool)
	var out []Member
	for _, t := range c.chain(typ) {
		p := c.provider(t)
		if p == nil {
			continue
		}
		for _, m := range p.OwnMembers(t) {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			out = append(out, m)
		}
	}
	return out
}

// DeclaringType returns the type in typ's chain that declares name, or "".
func (c *Catalog) DeclaringType(typ, name string) string {
	if m, ok := c.GetMember(typ, name); ok {
		return m.Owner
	}
	return ""
}

// IsAssignableTo reports whether a value of type a can be stored in a b.
func (c *Catalog) IsAssignableTo(a, b string) bool {
	if a == b || b == "Variant" {
		return true
	}
	if a == "int" && b == "float" {
		return true
	}
	if a == "Nil" {
		return c.IsAssignableTo(b, "Object")
	}
	for _, t := range c.Ancestors(a) {
		if t == b {
			return true
		}
	}
	return false
}

// AllTypes lists every known type once, sorted.
func (c *Catalog) AllTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.providers {
		for _, t := range p.Types() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) typesWith(name string, kind MemberKind) []string {
	var out []string
	for _, t := range c.AllTypes() {
		if m, ok := c.GetMember(t, name); ok && m.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// TypesWithMethod lists every type exposing method name, inherited or own.
func (c *Catalog) TypesWithMethod(name string) []string {
	return c.typesWith(name, MemberMethod)
}

// TypesWithProperty lists every type exposing property name.
func (c *Catalog) TypesWithProperty(name string) []string {
	return c.typesWith(name, MemberProperty)
}

// TypesWithTraits lists every type having all of the requested traits.
func (c *Catalog) TypesWithTraits(want Traits) []string {
	var out []string
	for _, t := range c.AllTypes() {
		have := c.Traits(t)
		if want.Iterable && !have.Iterable {
			continue
		}
		if want.Indexable && !have.Indexable {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Traits merges the container traits along typ's chain.
func (c *Catalog) Traits(typ string) Traits {
	var tr Traits
	for _, t := range c.chain(typ) {
		p := c.provider(t)
		if p == nil {
			continue
		}
		own := p.Traits(t)
		tr.Iterable = tr.Iterable || own.Iterable
		tr.Indexable = tr.Indexable || own.Indexable
	}
	return tr
}

// ConstantInitializer finds the initializer of constant name on typ or an
// ancestor.
func (c *Catalog) ConstantInitializer(typ, name string) (ConstantInit, bool) {
	for _, t := range c.chain(typ) {
		p := c.provider(t)
		if p == nil {
			continue
		}
		if ci, ok := p.ConstantInitializer(t, name); ok {
			return ci, true
		}
	}
	return ConstantInit{}, false
}

// MethodReturnType returns the declared return type of a method, or "".
func (c *Catalog) MethodReturnType(typ, name string) string {
	if m, ok := c.GetMember(typ, name); ok && m.Kind == MemberMethod {
		return m.Type
	}
	return ""
}

// PropertyType returns the declared type of a property, signal or constant.
func (c *Catalog) PropertyType(typ, name string) string {
	if m, ok := c.GetMember(typ, name); ok && m.Kind != MemberMethod {
		return m.Type
	}
	return ""
}

// GlobalFunction returns the return type of a global function.
func (c *Catalog) GlobalFunction(name string) (string, bool) {
	for _, p := range c.providers {
		if g, ok := p.(GlobalProvider); ok {
			if t, ok := g.GlobalFunction(name); ok {
				return t, true
			}
		}
	}
	return "", false
}

// IsProjectType reports whether typ is declared by a project script.
func (c *Catalog) IsProjectType(typ string) bool {
	_, ok := c.provider(typ).(*ProjectProvider)
	return ok
}
