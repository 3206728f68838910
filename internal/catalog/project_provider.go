package catalog

import (
	"gdinfer/internal/extractor"
	"gdinfer/internal/project"
)

// ProjectProvider exposes classes declared by project scripts. It reads the
// live project, so replacing a script is visible immediately.
type ProjectProvider struct {
	project *project.Project
}

func NewProjectProvider(p *project.Project) *ProjectProvider {
	return &ProjectProvider{project: p}
}

func (p *ProjectProvider) Name() string { return "project" }

func (p *ProjectProvider) HasType(typ string) bool {
	_, ok := p.project.ByClass(typ)
	return ok
}

func (p *ProjectProvider) Types() []string {
	var out []string
	for _, s := range p.project.Scripts() {
		out = append(out, s.Class)
	}
	return out
}

// Base resolves `extends Name`, `extends "res://path.gd"` or the implicit
// RefCounted base.
func (p *ProjectProvider) Base(typ string) (string, bool) {
	s, ok := p.project.ByClass(typ)
	if !ok {
		return "", false
	}
	f := s.File
	switch {
	case f.ExtendsPath != "":
		if base, ok := p.project.Script(f.ExtendsPath); ok {
			return base.Class, true
		}
		return f.ExtendsPath, true
	case f.Extends != "":
		return f.Extends, true
	}
	return extractor.DefaultBase, true
}

func (p *ProjectProvider) OwnMember(typ, name string) (Member, bool) {
	s, ok := p.project.ByClass(typ)
	if !ok {
		return Member{}, false
	}
	u := s.Unit(name)
	if u == nil {
		return Member{}, false
	}
	return unitMember(typ, u)
}

func (p *ProjectProvider) OwnMembers(typ string) []Member {
	s, ok := p.project.ByClass(typ)
	if !ok {
		return nil
	}
	var out []Member
	for _, u := range s.Units[1:] {
		if m, ok := unitMember(typ, u); ok {
			out = append(out, m)
		}
	}
	return out
}

func unitMember(owner string, u *extractor.CodeUnit) (Member, bool) {
	m := Member{Name: u.Name, Owner: owner}
	switch d := u.Details.(type) {
	case extractor.MethodDetails:
		m.Kind = MemberMethod
		m.Type = d.ReturnType
	case extractor.VariableDetails:
		m.Kind = MemberProperty
		m.Type = d.Type
	case extractor.SignalDetails:
		m.Kind = MemberSignal
		m.Type = "Signal"
	case extractor.ConstantDetails:
		m.Kind = MemberConstant
		m.Type = d.Type
	case extractor.EnumDetails:
		m.Kind = MemberConstant
		m.Type = "Dictionary"
	default:
		return Member{}, false
	}
	return m, true
}

func (p *ProjectProvider) ConstantInitializer(typ, name string) (ConstantInit, bool) {
	s, ok := p.project.ByClass(typ)
	if !ok {
		return ConstantInit{}, false
	}
	u := s.Unit(name)
	if u == nil {
		return ConstantInit{}, false
	}
	d, ok := u.Details.(extractor.ConstantDetails)
	if !ok || d.Value == nil {
		return ConstantInit{}, false
	}
	return ConstantInit{Owner: typ, Name: name, Type: d.Type, Expr: d.Value, File: s.Path}, true
}

func (p *ProjectProvider) Traits(string) Traits { return Traits{} }
