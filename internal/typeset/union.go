package typeset

import "strings"

// universalRoots are present in nearly every ancestor chain and say nothing
// about a union's shape.
var universalRoots = map[string]bool{
	"Object":     true,
	"RefCounted": true,
	"Variant":    true,
}

// Hierarchy answers ancestor queries. Ancestors excludes typ itself and is
// ordered from the direct base upwards.
type Hierarchy interface {
	Ancestors(typ string) []string
}

// Union is the set of distinct types a binding may hold. It only grows: a type
// once added is never removed, and a single low-confidence observation keeps
// the union from ever reporting all-high confidence again.
//
// The zero value is an empty union ready to use.
type Union struct {
	types   []string
	set     map[string]struct{}
	tainted bool

	// CommonBase is the most specific shared ancestor, set by
	// ResolveCommonBase. Empty when none is informative.
	CommonBase string
}

// New returns a union of high-confidence types.
func New(types ...string) *Union {
	u := &Union{}
	for _, t := range types {
		u.Add(t, true)
	}
	return u
}

// Add records one observation of typ. An empty type name counts as an
// unresolvable observation and only affects confidence.
func (u *Union) Add(typ string, high bool) {
	if !high {
		u.tainted = true
	}
	if typ == "" {
		u.tainted = true
		return
	}
	if u.set == nil {
		u.set = make(map[string]struct{})
	}
	if _, ok := u.set[typ]; ok {
		return
	}
	u.set[typ] = struct{}{}
	u.types = append(u.types, typ)
}

// AddUnknown records an observation whose type could not be determined.
func (u *Union) AddUnknown() {
	u.tainted = true
}

// AddUnion merges every member of o. The merge is high-confidence only when
// both the caller's flag and o's own aggregate are high.
func (u *Union) AddUnion(o *Union, high bool) {
	if o == nil {
		return
	}
	if o.tainted {
		high = false
	}
	if !high {
		u.tainted = true
	}
	for _, t := range o.types {
		u.Add(t, high)
	}
}

// Types returns the members in insertion order.
func (u *Union) Types() []string {
	if u == nil {
		return nil
	}
	out := make([]string, len(u.types))
	copy(out, u.types)
	return out
}

func (u *Union) Len() int {
	if u == nil {
		return 0
	}
	return len(u.types)
}

// IsEmpty reports whether no type evidence was recorded. An empty union means
// "no evidence", never "Variant".
func (u *Union) IsEmpty() bool {
	return u.Len() == 0
}

func (u *Union) Contains(typ string) bool {
	if u == nil {
		return false
	}
	_, ok := u.set[typ]
	return ok
}

// AllHighConfidence is the logical AND over every insertion. An empty union
// has no evidence and reports false.
func (u *Union) AllHighConfidence() bool {
	return u != nil && len(u.types) > 0 && !u.tainted
}

// Single returns the only member when the union holds exactly one type.
func (u *Union) Single() (string, bool) {
	if u.Len() != 1 {
		return "", false
	}
	return u.types[0], true
}

// Clone returns an independent copy.
func (u *Union) Clone() *Union {
	c := &Union{tainted: u.tainted, CommonBase: u.CommonBase}
	for _, t := range u.types {
		c.Add(t, true)
	}
	return c
}

// String renders members joined by "|", e.g. "int|String".
func (u *Union) String() string {
	if u.IsEmpty() {
		return ""
	}
	return strings.Join(u.types, "|")
}

// ResolveCommonBase walks each member's ancestor chain and records the most
// specific type present in every chain, ignoring universal roots.
func (u *Union) ResolveCommonBase(h Hierarchy) string {
	u.CommonBase = ""
	if u.IsEmpty() || h == nil {
		return ""
	}
	chains := make([]map[string]bool, len(u.types))
	for i, t := range u.types {
		chain := map[string]bool{t: true}
		for _, a := range h.Ancestors(t) {
			chain[a] = true
		}
		chains[i] = chain
	}

	candidates := append([]string{u.types[0]}, h.Ancestors(u.types[0])...)
	for _, c := range candidates {
		if universalRoots[c] {
			continue
		}
		shared := true
		for _, chain := range chains[1:] {
			if !chain[c] {
				shared = false
				break
			}
		}
		if shared {
			u.CommonBase = c
			return c
		}
	}
	return ""
}
