package extractor

import (
	"fmt"
	"os"
	"strings"

	"gdinfer/internal/syntax"
)

// DefaultBase is the implicit base of a script without an extends clause.
const DefaultBase = "RefCounted"

// ClassKey returns the identity of a script's class: its class_name, or its
// resource path for unnamed scripts.
func ClassKey(file *syntax.File) string {
	if file.ClassName != "" {
		return file.ClassName
	}
	return file.Path
}

// ExtractFromFile reads and parses a single script and extracts its units.
// resPath becomes the file's identity (res://...). A file with syntax errors
// still yields the units that could be recovered, alongside the error.
func ExtractFromFile(fsPath, resPath string) (*syntax.File, []*CodeUnit, error) {
	src, err := os.ReadFile(fsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", fsPath, err)
	}
	file, perr := syntax.Parse(resPath, string(src))
	units := Extract(file)
	if perr != nil {
		return file, units, fmt.Errorf("failed to parse file %s: %w", resPath, perr)
	}
	return file, units, nil
}

// Extract turns a parsed script into code units: one class unit followed by
// its members in declaration order.
func Extract(file *syntax.File) []*CodeUnit {
	class := ClassKey(file)
	var units []*CodeUnit
	add := func(u *CodeUnit) {
		u.Filepath = file.Path
		u.Class = class
		if u.EndLine < u.StartLine {
			u.EndLine = u.StartLine
		}
		u.ID = BuildStableSymbolID(u)
		units = append(units, u)
	}

	add(&CodeUnit{
		UnitType:  UnitClass,
		Name:      class,
		StartLine: 1,
		Signature: classSignature(file),
		Details: ClassDetails{
			Named:       file.ClassName != "",
			Extends:     file.Extends,
			ExtendsPath: file.ExtendsPath,
		},
	})

	for _, c := range file.Constants {
		add(&CodeUnit{
			UnitType:  UnitConstant,
			Name:      c.Name,
			StartLine: c.Pos.Line,
			Signature: "const " + c.Name,
			Details:   ConstantDetails{Type: c.Type, Value: c.Value, ValueText: syntax.Format(c.Value)},
		})
	}

	for _, e := range file.Enums {
		var names []string
		for _, v := range e.Values {
			names = append(names, v.Name)
		}
		if e.Name != "" {
			add(&CodeUnit{
				UnitType:  UnitEnum,
				Name:      e.Name,
				StartLine: e.Pos.Line,
				Signature: "enum " + e.Name,
				Details:   EnumDetails{Values: names},
			})
		}
		for _, ev := range enumConstants(e) {
			add(ev)
		}
	}

	for _, v := range file.Vars {
		add(&CodeUnit{
			UnitType:  UnitVariable,
			Name:      v.Name,
			StartLine: v.Pos.Line,
			Signature: "var " + v.Name + typeSuffix(v.Type),
			Details:   VariableDetails{Type: v.Type, Inferred: v.Inferred, Value: v.Value},
		})
	}

	for _, s := range file.Signals {
		add(&CodeUnit{
			UnitType:  UnitSignal,
			Name:      s.Name,
			StartLine: s.Pos.Line,
			Signature: "signal " + s.Name + "(" + paramList(s.Params) + ")",
			Details:   SignalDetails{Parameters: convertParams(s.Params)},
		})
	}

	for _, fn := range file.Funcs {
		add(&CodeUnit{
			UnitType:  UnitMethod,
			Name:      fn.Name,
			StartLine: fn.Pos.Line,
			EndLine:   fn.EndLine,
			Signature: FuncSignature(fn),
			Details: MethodDetails{
				Static:     fn.Static,
				Parameters: convertParams(fn.Params),
				ReturnType: fn.ReturnType,
				Decl:       fn,
			},
		})
	}

	return units
}

// enumConstants registers enumerators as constants. Values of a named enum are
// qualified as "Enum.VALUE". Implicit values continue from the last integer
// literal, as the language does.
func enumConstants(e *syntax.EnumDecl) []*CodeUnit {
	var out []*CodeUnit
	next := int64(0)
	known := true
	for _, v := range e.Values {
		value := v.Value
		if value == nil && known {
			value = &syntax.Literal{Kind: syntax.LitInt, Raw: fmt.Sprint(next), Value: next, Pos: v.Pos}
		}
		if lit, ok := value.(*syntax.Literal); ok && lit.Kind == syntax.LitInt {
			next = lit.Value.(int64) + 1
			known = true
		} else {
			known = false
		}

		name := v.Name
		if e.Name != "" {
			name = e.Name + "." + v.Name
		}
		out = append(out, &CodeUnit{
			UnitType:  UnitConstant,
			Name:      name,
			StartLine: v.Pos.Line,
			Signature: "const " + name,
			Details:   ConstantDetails{Type: "int", Value: value, ValueText: syntax.Format(value)},
		})
	}
	return out
}

func convertParams(params []*syntax.Param) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		out = append(out, Param{
			Name:       p.Name,
			Type:       p.Type,
			Inferred:   p.Inferred,
			HasDefault: p.Default != nil,
		})
	}
	return out
}

// FuncSignature renders a method header such as
// "static func make(a, b: int = ...) -> Player".
func FuncSignature(fn *syntax.FuncDecl) string {
	var sb strings.Builder
	if fn.Static {
		sb.WriteString("static ")
	}
	sb.WriteString("func " + fn.Name + "(" + paramList(fn.Params) + ")")
	if fn.ReturnType != "" {
		sb.WriteString(" -> " + fn.ReturnType)
	}
	return sb.String()
}

func paramList(params []*syntax.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name
		switch {
		case p.Inferred:
			s += " := ..."
		case p.Type != "":
			s += ": " + p.Type
		}
		if p.Default != nil && !p.Inferred {
			s += " = ..."
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func classSignature(file *syntax.File) string {
	var sb strings.Builder
	if file.ClassName != "" {
		sb.WriteString("class_name " + file.ClassName)
	}
	base := file.Extends
	if file.ExtendsPath != "" {
		base = `"` + file.ExtendsPath + `"`
	}
	if base != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("extends " + base)
	}
	return sb.String()
}

func typeSuffix(t string) string {
	if t == "" {
		return ""
	}
	return ": " + t
}
