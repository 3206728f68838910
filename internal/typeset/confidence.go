package typeset

// TypeConfidence grades how certain a single type guess is.
type TypeConfidence int

const (
	Unknown TypeConfidence = iota
	Low
	Medium
	High
	Certain
)

func (c TypeConfidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Certain:
		return "certain"
	default:
		return "unknown"
	}
}

// IsHigh reports whether c counts as a high-confidence observation.
func (c TypeConfidence) IsHigh() bool {
	return c >= High
}

// MinType returns the weaker of two type confidences.
func MinType(a, b TypeConfidence) TypeConfidence {
	if a < b {
		return a
	}
	return b
}

// ReferenceConfidence grades how certain a symbol or call resolution is.
type ReferenceConfidence int

const (
	NameMatch ReferenceConfidence = iota
	Potential
	Strict
)

func (c ReferenceConfidence) String() string {
	switch c {
	case Strict:
		return "strict"
	case Potential:
		return "potential"
	default:
		return "name_match"
	}
}

// TypeConfidence maps a reference grade onto the finer type scale.
func (c ReferenceConfidence) TypeConfidence() TypeConfidence {
	switch c {
	case Strict:
		return High
	case Potential:
		return Medium
	default:
		return Low
	}
}

// MinReference returns the weaker of two reference confidences.
func MinReference(a, b ReferenceConfidence) ReferenceConfidence {
	if a < b {
		return a
	}
	return b
}

// ParseTypeConfidence is the inverse of TypeConfidence.String.
func ParseTypeConfidence(s string) TypeConfidence {
	for c := Unknown; c <= Certain; c++ {
		if c.String() == s {
			return c
		}
	}
	return Unknown
}

// ParseReferenceConfidence is the inverse of ReferenceConfidence.String.
func ParseReferenceConfidence(s string) ReferenceConfidence {
	switch s {
	case "strict":
		return Strict
	case "potential":
		return Potential
	}
	return NameMatch
}
