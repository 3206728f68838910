package inference

import (
	"gdinfer/internal/callsite"
	"gdinfer/internal/graph"
	"gdinfer/internal/typeset"
	"gdinfer/internal/usage"
)

// Report reasons.
const (
	ReasonAnnotation = "annotation"
	ReasonInferred   = "inferred_annotation"
	ReasonCallSites  = "call_sites"
	ReasonDefault    = "default_value"
	ReasonTypeCheck  = "type_check"
	ReasonDuck       = "duck_typing"
	ReasonForwarded  = "forwarded"
	ReasonReturns    = "return_statements"
	ReasonVoid       = "no_return_value"
	ReasonNoEvidence = "no_evidence"
)

// ParameterReport is the inferred type of one parameter.
type ParameterReport struct {
	Name         string
	Index        int
	ExplicitType string
	Inferred     *typeset.Union
	// Evidence lists the call sites that passed this parameter.
	Evidence       []*callsite.Site
	Duck           usage.Result
	Confidence     typeset.ReferenceConfidence
	TypeConfidence typeset.TypeConfidence
	Reason         string
}

// Type returns the explicit type, or the inferred union text.
func (p *ParameterReport) Type() string {
	if p.ExplicitType != "" {
		return p.ExplicitType
	}
	return p.Inferred.String()
}

type ReturnReport struct {
	ExplicitType   string
	Inferred       *typeset.Union
	Confidence     typeset.ReferenceConfidence
	TypeConfidence typeset.TypeConfidence
	Reason         string
}

func (r *ReturnReport) Type() string {
	if r.ExplicitType != "" {
		return r.ExplicitType
	}
	return r.Inferred.String()
}

// MethodReport is the inference result for one method.
type MethodReport struct {
	Key          graph.MethodKey
	File         string
	Line         int
	Parameters   []*ParameterReport
	Return       *ReturnReport
	Dependencies []graph.MethodKey
	Dependents   []graph.MethodKey
	// OrderIndex is the method's position in the inference order.
	OrderIndex          int
	HasCyclicDependency bool
	// Confidence is the weakest parameter or return confidence, capped at
	// Potential for cycle members.
	Confidence typeset.ReferenceConfidence
}

func (r *MethodReport) aggregateConfidence() typeset.ReferenceConfidence {
	conf := typeset.Strict
	for _, p := range r.Parameters {
		if p != nil {
			conf = typeset.MinReference(conf, p.Confidence)
		}
	}
	if r.Return != nil {
		conf = typeset.MinReference(conf, r.Return.Confidence)
	}
	if r.HasCyclicDependency {
		conf = typeset.MinReference(conf, typeset.Potential)
	}
	return conf
}

// Parameter returns the report of the named parameter, or nil.
func (r *MethodReport) Parameter(name string) *ParameterReport {
	for _, p := range r.Parameters {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}
