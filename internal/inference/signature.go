package inference

import (
	"gdinfer/internal/exprtype"
	"gdinfer/internal/graph"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"
	"gdinfer/internal/usage"
)

// buildReport infers every parameter, then the return type of key. While
// it runs, the partial report answers hook queries for parameters that are
// already done.
func (e *Engine) buildReport(key graph.MethodKey) *MethodReport {
	s, fn, ok := e.project.Func(key.Type, key.Method)
	if !ok {
		return nil
	}
	node := e.graph.Nodes[key]
	rep := &MethodReport{
		Key:                 key,
		File:                node.File,
		OrderIndex:          e.orderIndex[key],
		HasCyclicDependency: node.InCycle,
	}
	if node.Unit != nil {
		rep.Line = node.Unit.StartLine
	}
	for _, n := range e.graph.GetDependencies(key) {
		rep.Dependencies = append(rep.Dependencies, n.Key)
	}
	for _, n := range e.graph.GetDependents(key) {
		rep.Dependents = append(rep.Dependents, n.Key)
	}

	e.building[key] = rep
	defer delete(e.building, key)

	scope := exprtype.NewScope(key.Type, s.File, fn)
	for i := range fn.Params {
		rep.Parameters = append(rep.Parameters, e.inferParam(key, scope, i, node.InCycle))
	}
	rep.Return = e.inferReturn(scope, node.InCycle)
	rep.Confidence = rep.aggregateConfidence()

	e.logger.Debug("inference.method",
		"method", key.String(),
		"params", len(rep.Parameters),
		"return", rep.Return.Type(),
		"confidence", rep.Confidence.String(),
		"in_cycle", node.InCycle)
	return rep
}

func (e *Engine) inferParam(key graph.MethodKey, scope *exprtype.Scope, index int, inCycle bool) *ParameterReport {
	p := scope.Func.Params[index]
	pr := &ParameterReport{Name: p.Name, Index: index, ExplicitType: p.Type}

	if p.Type != "" {
		pr.Inferred = typeset.New(p.Type)
		pr.Confidence = typeset.Strict
		pr.TypeConfidence = typeset.Certain
		pr.Reason = ReasonAnnotation
		return pr
	}
	if p.Inferred {
		if r := e.typer.TypeOf(scope, p.Default); r.Known() {
			pr.Inferred = r.Types
			pr.Confidence = typeset.Strict
			pr.TypeConfidence = r.Confidence
			pr.Reason = ReasonInferred
			return pr
		}
	}

	if !e.fromCallSites(key, scope, p, pr) && !e.fromUsage(scope, p, pr) {
		pr.Inferred = &typeset.Union{}
		pr.Confidence = typeset.NameMatch
		pr.TypeConfidence = typeset.Unknown
		pr.Reason = ReasonNoEvidence
		return pr
	}
	if inCycle {
		pr.Confidence = typeset.MinReference(pr.Confidence, typeset.Potential)
		pr.TypeConfidence = typeset.MinType(pr.TypeConfidence, typeset.Medium)
	}
	return pr
}

// fromCallSites unions the argument types passed at every call site. A site
// that omits the argument contributes the default value's type. It reports
// false when no site gave a typed argument.
func (e *Engine) fromCallSites(key graph.MethodKey, scope *exprtype.Scope, p *syntax.Param, pr *ParameterReport) bool {
	u := &typeset.Union{}
	conf := typeset.Strict
	passed := false
	for _, site := range e.collector.Collect(key.Type, key.Method) {
		arg, ok := site.Arg(pr.Index)
		if !ok {
			if p.Default == nil {
				continue
			}
			d := e.typer.TypeOf(scope, p.Default)
			if d.Known() {
				u.AddUnion(d.Types, d.Confidence.IsHigh())
			} else {
				u.AddUnknown()
			}
			conf = typeset.MinReference(conf, site.Confidence)
			continue
		}

		passed = true
		pr.Evidence = append(pr.Evidence, site)
		conf = typeset.MinReference(conf, site.Confidence)
		switch {
		case arg.High():
			u.AddUnion(arg.Type, true)
		case arg.Type.IsEmpty():
			u.AddUnknown()
			conf = typeset.MinReference(conf, typeset.Potential)
		default:
			u.AddUnion(arg.Type, false)
			conf = typeset.MinReference(conf, typeset.Potential)
		}
	}
	if u.IsEmpty() {
		return false
	}

	pr.Inferred = u
	pr.Confidence = conf
	if conf == typeset.Strict && u.AllHighConfidence() {
		pr.TypeConfidence = typeset.High
	} else {
		pr.TypeConfidence = conf.TypeConfidence()
	}
	pr.Reason = ReasonCallSites
	if !passed {
		pr.Reason = ReasonDefault
	}
	return true
}

// fromUsage falls back to the parameter's uses in the body: `is` checks,
// duck-typed members and forwarding into other inferred methods.
func (e *Engine) fromUsage(scope *exprtype.Scope, p *syntax.Param, pr *ParameterReport) bool {
	cons := usage.AnalyzeFunc(scope.Func)[p.Name]
	res := e.duck.Resolve(cons)
	pr.Duck = res

	if len(res.Checked) > 0 {
		pr.Inferred = typeset.New(res.Checked...)
		pr.Confidence = typeset.Potential
		pr.TypeConfidence = typeset.High
		pr.Reason = ReasonTypeCheck
		return true
	}

	u := &typeset.Union{}
	tc := typeset.Certain
	for _, t := range res.Types {
		u.Add(t, false)
	}
	if len(res.Types) > 0 {
		tc = res.Confidence
		pr.Reason = ReasonDuck
	}
	if cons != nil {
		for _, f := range cons.Forwarded {
			r := e.forwardedType(scope, f)
			if !r.Known() {
				continue
			}
			u.AddUnion(r.Types, false)
			tc = typeset.MinType(tc, typeset.Medium)
			if pr.Reason == "" {
				pr.Reason = ReasonForwarded
			}
		}
	}
	if u.IsEmpty() {
		pr.Reason = ""
		return false
	}
	pr.Inferred = u
	pr.Confidence = typeset.Potential
	pr.TypeConfidence = tc
	return true
}

// forwardedType is the inferred type of the callee parameter a forwarded
// argument lands in, when the callee is a project method on a known type.
func (e *Engine) forwardedType(scope *exprtype.Scope, f usage.Forward) exprtype.Result {
	var recv string
	switch callee := f.Call.Callee.(type) {
	case *syntax.Ident:
		recv = scope.Class
	case *syntax.MemberExpr:
		if _, ok := callee.X.(*syntax.SelfExpr); ok {
			recv = scope.Class
			break
		}
		r := e.typer.TypeOf(scope, callee.X)
		t, ok := r.Types.Single()
		if !ok || !r.Confidence.IsHigh() {
			return noEvidence()
		}
		recv = t
	}
	owner := e.catalog.DeclaringType(recv, f.Method)
	if owner == "" || !e.catalog.IsProjectType(owner) {
		return noEvidence()
	}
	return e.paramHook(owner, f.Method, f.ArgIndex)
}

func (e *Engine) inferReturn(scope *exprtype.Scope, inCycle bool) *ReturnReport {
	fn := scope.Func
	rr := &ReturnReport{ExplicitType: fn.ReturnType}
	if fn.ReturnType != "" {
		rr.Inferred = typeset.New(fn.ReturnType)
		rr.Confidence = typeset.Strict
		rr.TypeConfidence = typeset.Certain
		rr.Reason = ReasonAnnotation
		return rr
	}

	u := &typeset.Union{}
	tc := typeset.Certain
	valued := false
	for _, r := range syntax.Returns(fn.Body) {
		if r.Value == nil {
			continue
		}
		valued = true
		res := e.typer.TypeOf(scope, r.Value)
		if !res.Known() {
			u.AddUnknown()
			tc = typeset.MinType(tc, typeset.Low)
			continue
		}
		u.AddUnion(res.Types, res.Confidence.IsHigh())
		tc = typeset.MinType(tc, res.Confidence)
	}

	switch {
	case !valued:
		rr.Inferred = typeset.New("void")
		rr.Confidence = typeset.Strict
		rr.TypeConfidence = typeset.Certain
		rr.Reason = ReasonVoid
		return rr
	case u.IsEmpty():
		rr.Inferred = u
		rr.Confidence = typeset.NameMatch
		rr.TypeConfidence = typeset.Unknown
		rr.Reason = ReasonNoEvidence
		return rr
	}

	rr.Inferred = u
	rr.Confidence = typeset.Potential
	if u.AllHighConfidence() {
		rr.Confidence = typeset.Strict
	}
	rr.TypeConfidence = tc
	rr.Reason = ReasonReturns
	if inCycle {
		rr.Confidence = typeset.MinReference(rr.Confidence, typeset.Potential)
		rr.TypeConfidence = typeset.MinType(rr.TypeConfidence, typeset.Medium)
	}
	return rr
}

func noEvidence() exprtype.Result {
	return exprtype.Result{Types: &typeset.Union{}, Confidence: typeset.Unknown}
}

// lookup returns the finished report of key, or the partial report of a
// method whose inference is in progress.
func (e *Engine) lookup(class, method string) (*MethodReport, bool) {
	key := graph.MethodKey{Type: class, Method: method}
	if rep, ok := e.building[key]; ok {
		return rep, true
	}
	return e.report(key)
}

// paramHook feeds inferred parameter types into expression typing.
func (e *Engine) paramHook(class, method string, index int) exprtype.Result {
	rep, ok := e.lookup(class, method)
	if !ok {
		return noEvidence()
	}
	if index >= len(rep.Parameters) {
		e.partial++
		return noEvidence()
	}
	p := rep.Parameters[index]
	if p.Inferred.IsEmpty() {
		return noEvidence()
	}
	return exprtype.Result{Types: p.Inferred.Clone(), Confidence: p.TypeConfidence}
}

// returnHook feeds inferred return types into expression typing. A void
// method yields no value type.
func (e *Engine) returnHook(class, method string) exprtype.Result {
	rep, ok := e.lookup(class, method)
	if !ok {
		return noEvidence()
	}
	if rep.Return == nil {
		e.partial++
		return noEvidence()
	}
	if rep.Return.Type() == "void" {
		return noEvidence()
	}
	r := rep.Return
	if r.Inferred.IsEmpty() {
		return noEvidence()
	}
	return exprtype.Result{Types: r.Inferred.Clone(), Confidence: r.TypeConfidence}
}
