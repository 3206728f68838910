// Package usage derives structural requirements on parameters from how a
// body uses them, and maps those requirements to catalog types.
package usage

import "gdinfer/internal/syntax"

// Forward records a parameter passed as an argument to another call.
type Forward struct {
	Method   string
	Receiver string // receiver text, empty for a bare call
	ArgIndex int
	Call     *syntax.CallExpr
}

// Constraints accumulates what one parameter must support.
type Constraints struct {
	Param         string
	Methods       []string
	Properties    []string
	Iterable      bool
	Indexable     bool
	PossibleTypes []string // from `param is T` checks and `match typeof(param)` branches
	ExcludedTypes []string // from `not (param is T)`
	Forwarded     []Forward
}

func addUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

func (c *Constraints) addMethod(name string)   { c.Methods = addUnique(c.Methods, name) }
func (c *Constraints) addProperty(name string) { c.Properties = addUnique(c.Properties, name) }

// HasMembers reports whether any named member is required.
func (c *Constraints) HasMembers() bool {
	return len(c.Methods) > 0 || len(c.Properties) > 0
}

// HasShape reports whether the parameter is iterated or indexed.
func (c *Constraints) HasShape() bool {
	return c.Iterable || c.Indexable
}

// IsEmpty reports whether the body gave no evidence at all.
func (c *Constraints) IsEmpty() bool {
	return !c.HasMembers() && !c.HasShape() &&
		len(c.PossibleTypes) == 0 && len(c.ExcludedTypes) == 0 && len(c.Forwarded) == 0
}
