package graph

import (
	"gdinfer/internal/extractor"
	"gdinfer/internal/project"
)

// AddScript adds a node for every method of s, keyed by the script's class.
func (g *Graph) AddScript(s *project.Script) []MethodKey {
	if s == nil {
		return nil
	}
	var keys []MethodKey
	for _, u := range s.Methods() {
		k := KeyForUnit(s.Class, u)
		g.AddMethod(k, u)
		keys = append(keys, k)
	}
	return keys
}

// KeyForUnit converts an extracted method unit into its graph key.
func KeyForUnit(class string, u *extractor.CodeUnit) MethodKey {
	return MethodKey{Type: class, Method: u.Name}
}
