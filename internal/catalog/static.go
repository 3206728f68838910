package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gdinfer/internal/syntax"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

type typeSpec struct {
	Base       string            `yaml:"base"`
	Iterable   bool              `yaml:"iterable"`
	Indexable  bool              `yaml:"indexable"`
	Methods    map[string]string `yaml:"methods"`
	Properties map[string]string `yaml:"properties"`
	Signals    []string          `yaml:"signals"`
	Constants  map[string]string `yaml:"constants"`
}

type catalogFile struct {
	Globals map[string]string   `yaml:"globals"`
	Types   map[string]typeSpec `yaml:"types"`
}

// StaticProvider serves a fixed type universe described in YAML.
type StaticProvider struct {
	name      string
	globals   map[string]string
	types     map[string]typeSpec
	constants map[string]map[string]syntax.Expr
}

// LoadBuiltin returns the embedded engine catalog.
func LoadBuiltin() (*StaticProvider, error) {
	return LoadYAML("builtin", builtinYAML)
}

// LoadYAMLFile reads an additional catalog from disk.
func LoadYAMLFile(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return LoadYAML(path, data)
}

// LoadYAML parses a catalog document. Constant initializers are parsed once
// here; an invalid one fails the load.
func LoadYAML(name string, data []byte) (*StaticProvider, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", name, err)
	}
	p := &StaticProvider{
		name:      name,
		globals:   doc.Globals,
		types:     doc.Types,
		constants: make(map[string]map[string]syntax.Expr),
	}
	if p.types == nil {
		p.types = make(map[string]typeSpec)
	}
	for typ, ts := range p.types {
		for cname, src := range ts.Constants {
			expr, err := syntax.ParseExpr(src)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: constant %s.%s: %w", name, typ, cname, err)
			}
			if p.constants[typ] == nil {
				p.constants[typ] = make(map[string]syntax.Expr)
			}
			p.constants[typ][cname] = expr
		}
	}
	return p, nil
}

func (p *StaticProvider) Name() string { return p.name }

func (p *StaticProvider) HasType(typ string) bool {
	_, ok := p.types[typ]
	return ok
}

func (p *StaticProvider) Types() []string {
	out := make([]string, 0, len(p.types))
	for t := range p.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (p *StaticProvider) Base(typ string) (string, bool) {
	ts, ok := p.types[typ]
	if !ok || ts.Base == "" {
		return "", false
	}
	return ts.Base, true
}

func (p *StaticProvider) OwnMember(typ, name string) (Member, bool) {
	ts, ok := p.types[typ]
	if !ok {
		return Member{}, false
	}
	if t, ok := ts.Methods[name]; ok {
		return Member{Name: name, Kind: MemberMethod, Type: t, Owner: typ}, true
	}
	if t, ok := ts.Properties[name]; ok {
		return Member{Name: name, Kind: MemberProperty, Type: t, Owner: typ}, true
	}
	for _, s := range ts.Signals {
		if s == name {
			return Member{Name: name, Kind: MemberSignal, Type: "Signal", Owner: typ}, true
		}
	}
	if _, ok := ts.Constants[name]; ok {
		return Member{Name: name, Kind: MemberConstant, Owner: typ}, true
	}
	return Member{}, false
}

func (p *StaticProvider) OwnMembers(typ string) []Member {
	ts, ok := p.types[typ]
	if !ok {
		return nil
	}
	var out []Member
	for name, t := range ts.Methods {
		out = append(out, Member{Name: name, Kind: MemberMethod, Type: t, Owner: typ})
	}
	for name, t := range ts.Properties {
		out = append(out, Member{Name: name, Kind: MemberProperty, Type: t, Owner: typ})
	}
	for _, name := range ts.Signals {
		out = append(out, Member{Name: name, Kind: MemberSignal, Type: "Signal", Owner: typ})
	}
	for name := range ts.Constants {
		out = append(out, Member{Name: name, Kind: MemberConstant, Owner: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *StaticProvider) ConstantInitializer(typ, name string) (ConstantInit, bool) {
	expr, ok := p.constants[typ][name]
	if !ok {
		return ConstantInit{}, false
	}
	return ConstantInit{Owner: typ, Name: name, Expr: expr}, true
}

func (p *StaticProvider) Traits(typ string) Traits {
	ts := p.types[typ]
	return Traits{Iterable: ts.Iterable, Indexable: ts.Indexable}
}

func (p *StaticProvider) GlobalFunction(name string) (string, bool) {
	t, ok := p.globals[name]
	return t, ok
}
