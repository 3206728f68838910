package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gdinfer/internal/graph"
	"gdinfer/internal/inference"
	"gdinfer/internal/project"
	"gdinfer/internal/resolver"
	"gdinfer/internal/retrieval"
	"gdinfer/internal/storage"
	"gdinfer/internal/syntax"

	"github.com/peterh/liner"
)

const (
	historyFile = ".gdinfer_history"
	promptMain  = "gdinfer> "
)

const helpText = `Commands:
  report <Class> <method>          parameter and return types of a method
  param <Class> <method> <param>   one parameter
  return <Class> <method>          the return type
  cycle <Class> <method>           whether the method is part of a cycle
  cycles                           every cycle
  near <Class> <method> [hops]     methods connected within hops (default 2)
  order                            the inference order
  value <Class> <CONSTANT>         compile-time values of a constant
  eval <Class> <method|-> <expr>   compile-time values of an expression
  invalidate [path]                reload a script from disk, or drop every cache
  help                             this text
  quit                             leave
`

// session answers REPL commands against one engine.
type session struct {
	engine   *inference.Engine
	resolver *resolver.Resolver
	out      io.Writer
}

func newSession(e *inference.Engine, r *resolver.Resolver, out io.Writer) *session {
	return &session{engine: e, resolver: r, out: out}
}

func runREPL(s *session) {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Fprint(s.out, "Type help for commands.\n")
	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(s.out)
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if s.exec(line) {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

// exec runs one command line and reports whether the session should end.
func (s *session) exec(line string) (exit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "quit", "exit":
		return true

	case "help":
		fmt.Fprint(s.out, helpText)

	case "report":
		if !s.want(args, 2, "report <Class> <method>") {
			return false
		}
		r, ok := s.engine.GetMethodReport(args[0], args[1])
		if !ok {
			fmt.Fprintf(s.out, "unknown method %s.%s\n", args[0], args[1])
			return false
		}
		printRecord(s.out, storage.RecordFromReport(r))

	case "param":
		if !s.want(args, 3, "param <Class> <method> <param>") {
			return false
		}
		p, ok := s.engine.InferParameterType(args[0], args[1], args[2])
		if !ok {
			fmt.Fprintf(s.out, "unknown parameter %s of %s.%s\n", args[2], args[0], args[1])
			return false
		}
		rec := storage.TypeRecord{Type: p.Type(), Confidence: p.Confidence, TypeConfidence: p.TypeConfidence, Reason: p.Reason}
		fmt.Fprintf(s.out, "%s: %s  %s\n", p.Name, typeText(rec), grade(rec))

	case "return":
		if !s.want(args, 2, "return <Class> <method>") {
			return false
		}
		r, ok := s.engine.InferReturnType(args[0], args[1])
		if !ok {
			fmt.Fprintf(s.out, "unknown method %s.%s\n", args[0], args[1])
			return false
		}
		rec := storage.TypeRecord{Type: r.Type(), Confidence: r.Confidence, TypeConfidence: r.TypeConfidence, Reason: r.Reason}
		fmt.Fprintf(s.out, "-> %s  %s\n", typeText(rec), grade(rec))

	case "cycle":
		if !s.want(args, 2, "cycle <Class> <method>") {
			return false
		}
		fmt.Fprintln(s.out, s.engine.IsMethodInCycle(args[0], args[1]))

	case "cycles":
		printCycles(s.out, s.engine.Cycles())

	case "order":
		printOrder(s.out, s.engine.Order())

	case "near":
		if len(args) != 2 && len(args) != 3 {
			fmt.Fprintln(s.out, "usage: near <Class> <method> [hops]")
			return false
		}
		cfg := retrieval.DefaultConfig()
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Fprintf(s.out, "bad hop count %q\n", args[2])
				return false
			}
			cfg.MaxHops = n
		}
		seed := graph.MethodKey{Type: args[0], Method: args[1]}
		sg := retrieval.Extract(s.engine.Graph(), []graph.MethodKey{seed}, cfg)
		if len(sg.Seeds) == 0 {
			fmt.Fprintf(s.out, "unknown method %s\n", seed)
			return false
		}
		printNeighborhood(s.out, sg)

	case "value":
		if !s.want(args, 2, "value <Class> <CONSTANT>") {
			return false
		}
		printValues(s.out, s.resolver.ResolveConstant(args[0], args[1]))

	case "eval":
		if len(args) < 3 {
			fmt.Fprintln(s.out, "usage: eval <Class> <method|-> <expr>")
			return false
		}
		e, err := syntax.ParseExpr(afterFields(line, 3))
		if err != nil {
			fmt.Fprintf(s.out, "parse error: %v\n", err)
			return false
		}
		method := args[1]
		if method == "-" {
			method = ""
		}
		printValues(s.out, s.resolver.ResolveIn(args[0], method, e))

	case "invalidate":
		if len(args) == 0 {
			s.engine.Invalidate()
			fmt.Fprintln(s.out, "all caches dropped")
			return false
		}
		dropped, err := s.reload(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "reload failed: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "%d reports dropped\n", dropped)

	default:
		fmt.Fprintln(s.out, "unknown command. Type help for help.")
	}
	return false
}

func (s *session) want(args []string, n int, usage string) bool {
	if len(args) != n {
		fmt.Fprintf(s.out, "usage: %s\n", usage)
		return false
	}
	return true
}

// afterFields returns line without its first n fields.
func afterFields(line string, n int) string {
	rest := line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		if j := strings.IndexAny(rest, " \t"); j >= 0 {
			rest = rest[j:]
		} else {
			return ""
		}
	}
	return strings.TrimSpace(rest)
}

// reload re-reads path from disk into the project, dropping it when the
// file is gone, and invalidates what depends on it.
func (s *session) reload(path string) (int, error) {
	p := s.engine.Project()
	res := path
	if !strings.HasPrefix(res, project.ResPrefix) {
		res = project.ResPath(path)
	}

	data, err := os.ReadFile(filepath.Join(p.Root, filepath.FromSlash(project.RelPath(res))))
	switch {
	case errors.Is(err, os.ErrNotExist):
		p.Remove(res)
	case err != nil:
		return 0, err
	default:
		if _, err := p.AddSource(res, string(data)); err != nil {
			fmt.Fprintf(s.out, "warning: %v\n", err)
		}
	}
	return len(s.engine.InvalidateFile(res)), nil
}
