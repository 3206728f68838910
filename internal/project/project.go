// Package project holds the set of parsed scripts an inference run works on.
package project

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gdinfer/internal/extractor"
	"gdinfer/internal/syntax"

	"github.com/zeebo/xxh3"
)

// ResPrefix is the scheme of project-relative resource paths.
const ResPrefix = "res://"

// Script is one parsed file of the project.
type Script struct {
	Path  string // res:// path, the script's identity
	Class string // class_name, or Path for unnamed scripts
	Hash  string // content fingerprint
	File  *syntax.File
	Units []*extractor.CodeUnit
}

// NewScript wraps an already parsed file.
func NewScript(file *syntax.File, hash string) *Script {
	return &Script{
		Path:  file.Path,
		Class: extractor.ClassKey(file),
		Hash:  hash,
		File:  file,
		Units: extractor.Extract(file),
	}
}

// Methods returns the method units of the script in declaration order.
func (s *Script) Methods() []*extractor.CodeUnit {
	var out []*extractor.CodeUnit
	for _, u := range s.Units {
		if u.UnitType == extractor.UnitMethod {
			out = append(out, u)
		}
	}
	return out
}

// Unit returns the member unit declared with name, or nil.
func (s *Script) Unit(name string) *extractor.CodeUnit {
	for _, u := range s.Units[1:] {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// Project is a snapshot of scripts keyed by path with a class-name index.
// It is not safe for concurrent mutation.
type Project struct {
	Root    string
	scripts map[string]*Script
	byClass map[string]*Script
}

func New(root string) *Project {
	return &Project{
		Root:    root,
		scripts: make(map[string]*Script),
		byClass: make(map[string]*Script),
	}
}

// Put adds or replaces a script.
func (p *Project) Put(s *Script) {
	if old, ok := p.scripts[s.Path]; ok {
		p.unindex(old)
	}
	p.scripts[s.Path] = s
	p.byClass[s.Class] = s
}

// AddSource parses src and stores it under path. The recovered script is
// stored even when parsing reports errors.
func (p *Project) AddSource(resPath, src string) (*Script, error) {
	file, err := syntax.Parse(resPath, src)
	s := NewScript(file, Fingerprint([]byte(src)))
	p.Put(s)
	return s, err
}

// Remove drops the script stored under path.
func (p *Project) Remove(resPath string) bool {
	s, ok := p.scripts[resPath]
	if !ok {
		return false
	}
	p.unindex(s)
	delete(p.scripts, resPath)
	return true
}

func (p *Project) unindex(s *Script) {
	if cur, ok := p.byClass[s.Class]; ok && cur == s {
		delete(p.byClass, s.Class)
	}
}

func (p *Project) Script(resPath string) (*Script, bool) {
	s, ok := p.scripts[resPath]
	return s, ok
}

// ByClass finds the script declaring class. Unnamed scripts are found by
// their res:// path.
func (p *Project) ByClass(class string) (*Script, bool) {
	s, ok := p.byClass[class]
	return s, ok
}

// Scripts returns all scripts ordered by path.
func (p *Project) Scripts() []*Script {
	out := make([]*Script, 0, len(p.scripts))
	for _, s := range p.scripts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (p *Project) Len() int { return len(p.scripts) }

// Func finds a method declaration by class and name.
func (p *Project) Func(class, method string) (*Script, *syntax.FuncDecl, bool) {
	s, ok := p.byClass[class]
	if !ok {
		return nil, nil, false
	}
	fn := s.File.Func(method)
	return s, fn, fn != nil
}

// Fingerprint is the content hash stored per file for change detection.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// ResPath converts a path relative to the project root into a res:// path.
func ResPath(rel string) string {
	return ResPrefix + strings.TrimPrefix(filepath.ToSlash(rel), "./")
}

// RelPath converts a res:// path back into a slash-separated relative path.
func RelPath(resPath string) string {
	return path.Clean(strings.TrimPrefix(resPath, ResPrefix))
}
