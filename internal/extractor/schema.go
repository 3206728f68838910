package extractor

import "gdinfer/internal/syntax"

// ClassDetails describes the script-level class declaration.
type ClassDetails struct {
	Named       bool   `json:"named"` // declared with class_name
	Extends     string `json:"extends,omitempty"`
	ExtendsPath string `json:"extends_path,omitempty"`
}

// MethodDetails contains the signature of a method.
type MethodDetails struct {
	Static     bool    `json:"static,omitempty"`
	Parameters []Param `json:"parameters"`
	ReturnType string  `json:"return_type,omitempty"` // empty when unannotated

	Decl *syntax.FuncDecl `json:"-"`
}

// Param represents a single method or signal parameter.
type Param struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Inferred   bool   `json:"inferred,omitempty"` // declared with :=
	HasDefault bool   `json:"has_default,omitempty"`
}

// ConstantDetails holds a class constant or enumerator.
type ConstantDetails struct {
	Type      string `json:"type,omitempty"`
	ValueText string `json:"value"`

	Value syntax.Expr `json:"-"` // nil when the value cannot be determined statically
}

// VariableDetails holds a member variable.
type VariableDetails struct {
	Type     string `json:"type,omitempty"`
	Inferred bool   `json:"inferred,omitempty"`
	Static   bool   `json:"static,omitempty"`

	Value syntax.Expr `json:"-"`
}

// SignalDetails holds a signal declaration.
type SignalDetails struct {
	Parameters []Param `json:"parameters"`
}

// EnumDetails holds an enum declaration. Unnamed enums register their values
// directly as class constants.
type EnumDetails struct {
	Values []string `json:"values"`
}
