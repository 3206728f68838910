package storage

import (
	"gdinfer/internal/graph"
	"gdinfer/internal/inference"
	"gdinfer/internal/typeset"
)

// MethodRecord is the stored form of a method report.
type MethodRecord struct {
	Key          graph.MethodKey
	File         string
	Line         int
	OrderIndex   int
	InCycle      bool
	Confidence   typeset.ReferenceConfidence
	Dependencies []string
	Dependents   []string
	Params       []ParamRecord
	Return       TypeRecord
}

// ParamRecord is one stored parameter.
type ParamRecord struct {
	Index int
	Name  string
	TypeRecord
	Evidence int
}

// TypeRecord is an inferred type with its grades.
type TypeRecord struct {
	ExplicitType   string
	Type           string
	Confidence     typeset.ReferenceConfidence
	TypeConfidence typeset.TypeConfidence
	Reason         string
}

// RecordFromReport flattens a report for storage.
func RecordFromReport(r *inference.MethodReport) *MethodRecord {
	rec := &MethodRecord{
		Key:          r.Key,
		File:         r.File,
		Line:         r.Line,
		OrderIndex:   r.OrderIndex,
		InCycle:      r.HasCyclicDependency,
		Confidence:   r.Confidence,
		Dependencies: keyStrings(r.Dependencies),
		Dependents:   keyStrings(r.Dependents),
	}
	for _, p := range r.Parameters {
		rec.Params = append(rec.Params, ParamRecord{
			Index: p.Index,
			Name:  p.Name,
			TypeRecord: TypeRecord{
				ExplicitType:   p.ExplicitType,
				Type:           p.Type(),
				Confidence:     p.Confidence,
				TypeConfidence: p.TypeConfidence,
				Reason:         p.Reason,
			},
			Evidence: len(p.Evidence),
		})
	}
	if r.Return != nil {
		rec.Return = TypeRecord{
			ExplicitType:   r.Return.ExplicitType,
			Type:           r.Return.Type(),
			Confidence:     r.Return.Confidence,
			TypeConfidence: r.Return.TypeConfidence,
			Reason:         r.Return.Reason,
		}
	}
	return rec
}

func keyStrings(keys []graph.MethodKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
