package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Precedence levels for Pratt expression parsing, lowest first.
const (
	precNone = iota
	precTernary
	precOr       // or ||
	precAnd      // and &&
	precNot      // not ! (prefix)
	precCompare  // == != < > <= >= in
	precBitOr    // |
	precBitXor   // ^
	precBitAnd   // &
	precShift    // << >>
	precAdditive // + -
	precMultiply // * / %
	precUnary    // - + ~
	precPower    // **
	precIs       // is as
	precCall     // () . []
)

// ParseError is a single syntax error.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

type parser struct {
	tokens []Token
	pos    int
	errors []ParseError
}

// Parse lexes and parses one script. The returned file is never nil; it
// holds everything that could be recovered even when err is non-nil.
func Parse(path, src string) (*File, error) {
	tokens, lexErrs := Lex(src)
	p := &parser{tokens: tokens}
	file := p.parseFile()
	file.Path = path
	return file, joinErrors(lexErrs, p.errors)
}

// ParseExpr parses a standalone expression, e.g. a method name recovered from
// a dynamic-dispatch string.
func ParseExpr(src string) (Expr, error) {
	tokens, lexErrs := Lex(src)
	p := &parser{tokens: tokens}
	expr := p.parseExpression()
	p.skip(NEWLINE)
	if !p.check(EOF) {
		p.addError(p.peek(), "unexpected trailing input")
	}
	if err := joinErrors(lexErrs, p.errors); err != nil {
		return nil, err
	}
	return expr, nil
}

func joinErrors(lexErrs []LexError, parseErrs []ParseError) error {
	var errs []error
	for _, e := range lexErrs {
		errs = append(errs, e)
	}
	for _, e := range parseErrs {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

func (p *parser) peek() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: EOF}
}

func (p *parser) peekAt(offset int) Token {
	if i := p.pos + offset; i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	return Token{Type: EOF}
}

func (p *parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) previous() Token {
	if p.pos > 0 {
		return p.tokens[p.pos-1]
	}
	return Token{Type: EOF}
}

func (p *parser) check(typ TokenType) bool { return p.peek().Type == typ }

func (p *parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) skip(typ TokenType) {
	for p.check(typ) {
		p.advance()
	}
}

func (p *parser) expect(typ TokenType, msg string) Token {
	if p.check(typ) {
		return p.advance()
	}
	p.addError(p.peek(), msg)
	return p.peek()
}

func (p *parser) addError(tok Token, msg string) {
	p.errors = append(p.errors, ParseError{
		Message: fmt.Sprintf("%s, got %s", msg, tok),
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

// synchronize skips to the end of the current logical line.
func (p *parser) synchronize() {
	for !p.check(EOF) && !p.check(NEWLINE) && !p.check(DEDENT) {
		p.advance()
	}
	p.match(NEWLINE)
}

func pos(tok Token) Pos { return Pos{Line: tok.Line, Column: tok.Column} }

func (p *parser) endOfStatement() bool {
	switch p.peek().Type {
	case NEWLINE, SEMICOLON, DEDENT, EOF, RPAREN, RBRACKET, RBRACE, COMMA:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// File level
// ---------------------------------------------------------------------------

func (p *parser) parseFile() *File {
	f := &File{}
	for !p.check(EOF) {
		start := p.pos
		switch p.peek().Type {
		case NEWLINE, SEMICOLON, INDENT, DEDENT:
			p.advance()
		case ANNOTATION:
			p.parseAnnotation()
		case EXTENDS:
			p.parseExtends(f)
		case CLASSNAME:
			p.advance()
			f.ClassName = p.expect(IDENT, "expected class name").Value
			if p.check(EXTENDS) {
				p.parseExtends(f)
			}
		case CONST:
			f.Constants = append(f.Constants, p.parseConst())
		case VAR:
			f.Vars = append(f.Vars, p.parseVar())
		case SIGNAL:
			f.Signals = append(f.Signals, p.parseSignal())
		case ENUM:
			f.Enums = append(f.Enums, p.parseEnum())
		case STATIC:
			p.advance()
			if p.check(FUNC) {
				fn := p.parseFunc()
				fn.Static = true
				f.Funcs = append(f.Funcs, fn)
			} else if p.check(VAR) {
				f.Vars = append(f.Vars, p.parseVar())
			} else {
				p.addError(p.peek(), "expected func or var after static")
				p.synchronize()
			}
		case FUNC:
			f.Funcs = append(f.Funcs, p.parseFunc())
		case CLASS:
			p.skipInnerClass()
		default:
			p.addError(p.peek(), "unexpected token at class level")
			p.synchronize()
		}
		if p.pos == start {
			p.advance()
		}
	}
	return f
}

func (p *parser) parseAnnotation() {
	p.advance()
	if p.check(LPAREN) {
		p.advance()
		for !p.check(RPAREN) && !p.check(EOF) {
			p.parseExpression()
			if !p.match(COMMA) {
				break
			}
		}
		p.expect(RPAREN, "expected ) after annotation arguments")
	}
}

func (p *parser) parseExtends(f *File) {
	p.advance()
	if p.check(STRING) {
		f.ExtendsPath = p.advance().Value
		return
	}
	f.Extends = p.parseTypeName()
}

// skipInnerClass consumes an inner class declaration without modelling it.
func (p *parser) skipInnerClass() {
	p.synchronize()
	if !p.check(INDENT) {
		return
	}
	depth := 0
	for !p.check(EOF) {
		switch p.advance().Type {
		case INDENT:
			depth++
		case DEDENT:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// parseTypeName parses `Name`, `Outer.Inner` or `Array[T]`.
func (p *parser) parseTypeName() string {
	tok := p.peek()
	if tok.Type != IDENT {
		p.addError(tok, "expected type name")
		return ""
	}
	p.advance()
	name := tok.Value
	for p.check(DOT) && p.peekAt(1).Type == IDENT {
		p.advance()
		name += "." + p.advance().Value
	}
	if p.check(LBRACKET) {
		p.advance()
		inner := p.parseTypeName()
		p.expect(RBRACKET, "expected ] in typed collection")
		name += "[" + inner + "]"
	}
	return name
}

func (p *parser) parseConst() *ConstDecl {
	tok := p.advance()
	c := &ConstDecl{Pos: pos(tok)}
	c.Name = p.expect(IDENT, "expected constant name").Value
	switch {
	case p.match(WALRUS):
		c.Inferred = true
		c.Value = p.parseExpression()
	case p.match(COLON):
		c.Type = p.parseTypeName()
		p.expect(ASSIGN, "expected = in constant declaration")
		c.Value = p.parseExpression()
	default:
		p.expect(ASSIGN, "expected = in constant declaration")
		c.Value = p.parseExpression()
	}
	return c
}

func (p *parser) parseVar() *VarDecl {
	tok := p.advance()
	v := &VarDecl{Pos: pos(tok)}
	v.Name = p.expect(IDENT, "expected variable name").Value
	switch {
	case p.match(WALRUS):
		v.Inferred = true
		v.Value = p.parseExpression()
	case p.match(COLON):
		v.Type = p.parseTypeName()
		if p.match(ASSIGN) {
			v.Value = p.parseExpression()
		}
	case p.match(ASSIGN):
		v.Value = p.parseExpression()
	}
	// Property accessors (`var x: int: set = _set_x`) are not modelled.
	if p.check(COLON) {
		p.synchronize()
		p.skipIndentedBlock()
	}
	return v
}

func (p *parser) skipIndentedBlock() {
	if !p.check(INDENT) {
		return
	}
	depth := 0
	for !p.check(EOF) {
		switch p.advance().Type {
		case INDENT:
			depth++
		case DEDENT:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseSignal() *SignalDecl {
	tok := p.advance()
	s := &SignalDecl{Pos: pos(tok)}
	s.Name = p.expect(IDENT, "expected signal name").Value
	if p.check(LPAREN) {
		s.Params = p.parseParams()
	}
	return s
}

func (p *parser) parseEnum() *EnumDecl {
	tok := p.advance()
	e := &EnumDecl{Pos: pos(tok)}
	if p.check(IDENT) {
		e.Name = p.advance().Value
	}
	p.expect(LBRACE, "expected { in enum")
	for !p.check(RBRACE) && !p.check(EOF) {
		name := p.expect(IDENT, "expected enumerator name")
		ev := &EnumValue{Name: name.Value, Pos: pos(name)}
		if p.match(ASSIGN) {
			ev.Value = p.parseExpression()
		}
		e.Values = append(e.Values, ev)
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RBRACE, "expected } to close enum")
	return e
}

func (p *parser) parseFunc() *FuncDecl {
	tok := p.advance()
	fn := &FuncDecl{Pos: pos(tok)}
	fn.Name = p.expect(IDENT, "expected function name").Value
	fn.Params = p.parseParams()
	if p.match(ARROW) {
		fn.ReturnType = p.parseTypeName()
	}
	p.expect(COLON, "expected : after function signature")
	fn.Body = p.parseBlock()
	fn.EndLine = p.lastContentLine()
	return fn
}

// lastContentLine is the line of the last consumed token that is not layout.
func (p *parser) lastContentLine() int {
	for i := p.pos - 1; i >= 0; i-- {
		switch p.tokens[i].Type {
		case NEWLINE, INDENT, DEDENT:
			continue
		}
		return p.tokens[i].Line
	}
	return 0
}

func (p *parser) parseParams() []*Param {
	var params []*Param
	p.expect(LPAREN, "expected (")
	for !p.check(RPAREN) && !p.check(EOF) {
		tok := p.expect(IDENT, "expected parameter name")
		param := &Param{Name: tok.Value, Pos: pos(tok)}
		switch {
		case p.match(WALRUS):
			param.Inferred = true
			param.Default = p.parseExpression()
		case p.match(COLON):
			param.Type = p.parseTypeName()
			if p.match(ASSIGN) {
				param.Default = p.parseExpression()
			}
		case p.match(ASSIGN):
			param.Default = p.parseExpression()
		}
		params = append(params, param)
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RPAREN, "expected ) after parameters")
	return params
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// parseBlock parses the body following a ':'. It is either an indented suite or
// simple statements on the same line.
func (p *parser) parseBlock() []Stmt {
	if !p.check(NEWLINE) {
		return p.parseSimpleStatements()
	}
	p.advance()
	if !p.match(INDENT) {
		p.addError(p.peek(), "expected indented block")
		return nil
	}
	var body []Stmt
	for !p.check(DEDENT) && !p.check(EOF) {
		start := p.pos
		if p.match(NEWLINE, SEMICOLON) {
			continue
		}
		if s := p.parseStatement(); s != nil {
			body = append(body, s)
		}
		p.match(NEWLINE, SEMICOLON)
		if p.pos == start {
			p.advance()
		}
	}
	p.match(DEDENT)
	return body
}

func (p *parser) parseSimpleStatements() []Stmt {
	var body []Stmt
	for {
		if s := p.parseStatement(); s != nil {
			body = append(body, s)
		}
		if !p.match(SEMICOLON) || p.endOfStatement() {
			break
		}
	}
	p.match(NEWLINE)
	return body
}

func (p *parser) parseStatement() Stmt {
	tok := p.peek()
	switch tok.Type {
	case ANNOTATION:
		p.parseAnnotation()
		return p.parseStatement()
	case VAR:
		return p.parseVar()
	case CONST:
		return p.parseConst()
	case RETURN:
		p.advance()
		ret := &ReturnStmt{Pos: pos(tok)}
		if !p.endOfStatement() {
			ret.Value = p.parseExpression()
		}
		return ret
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	case WHILE:
		p.advance()
		w := &WhileStmt{Pos: pos(tok)}
		w.Cond = p.parseExpression()
		p.expect(COLON, "expected : after while condition")
		w.Body = p.parseBlock()
		return w
	case MATCH:
		return p.parseMatch()
	case PASS:
		p.advance()
		return &PassStmt{Pos: pos(tok)}
	case BREAK:
		p.advance()
		return &BreakStmt{Pos: pos(tok)}
	case CONTINUE:
		p.advance()
		return &ContinueStmt{Pos: pos(tok)}
	}

	x := p.parseExpression()
	if x == nil {
		p.synchronize()
		return nil
	}
	if op := p.peek().Type; isAssignOp(op) {
		p.advance()
		return &AssignStmt{Target: x, Op: op, Value: p.parseExpression(), Pos: pos(tok)}
	}
	return &ExprStmt{X: x, Pos: pos(tok)}
}

func isAssignOp(t TokenType) bool {
	switch t {
	case ASSIGN, PLUSEQ, MINUSEQ, STAREQ, SLASHEQ, PERCENTEQ, POWEQ, AMPEQ, PIPEEQ, CARETEQ, SHLEQ, SHREQ:
		return true
	}
	return false
}

func (p *parser) parseIf() Stmt {
	tok := p.advance()
	s := &IfStmt{Pos: pos(tok)}
	s.Cond = p.parseExpression()
	p.expect(COLON, "expected : after if condition")
	s.Then = p.parseBlock()
	for p.check(ELIF) {
		et := p.advance()
		clause := &ElifClause{Pos: pos(et)}
		clause.Cond = p.parseExpression()
		p.expect(COLON, "expected : after elif condition")
		clause.Body = p.parseBlock()
		s.Elifs = append(s.Elifs, clause)
	}
	if p.match(ELSE) {
		p.expect(COLON, "expected : after else")
		s.Else = p.parseBlock()
	}
	return s
}

func (p *parser) parseFor() Stmt {
	tok := p.advance()
	s := &ForStmt{Pos: pos(tok)}
	s.Var = p.expect(IDENT, "expected loop variable").Value
	if p.match(COLON) {
		s.VarType = p.parseTypeName()
	}
	p.expect(IN, "expected in")
	s.Iter = p.parseExpression()
	p.expect(COLON, "expected : after for clause")
	s.Body = p.parseBlock()
	return s
}

func (p *parser) parseMatch() Stmt {
	tok := p.advance()
	s := &MatchStmt{Pos: pos(tok)}
	s.Subject = p.parseExpression()
	p.expect(COLON, "expected : after match subject")
	p.expect(NEWLINE, "expected newline after match")
	if !p.match(INDENT) {
		p.addError(p.peek(), "expected match branches")
		return s
	}
	for !p.check(DEDENT) && !p.check(EOF) {
		start := p.pos
		if p.match(NEWLINE) {
			continue
		}
		branch := &MatchBranch{Pos: pos(p.peek())}
		for {
			if p.match(VAR) {
				name := p.expect(IDENT, "expected binding name")
				branch.Patterns = append(branch.Patterns, &Ident{Name: name.Value, Pos: pos(name)})
			} else {
				branch.Patterns = append(branch.Patterns, p.parsePrecedence(precOr))
			}
			if !p.match(COMMA) {
				break
			}
		}
		p.expect(COLON, "expected : after match pattern")
		branch.Body = p.parseBlock()
		s.Branches = append(s.Branches, branch)
		if p.pos == start {
			p.advance()
		}
	}
	p.match(DEDENT)
	return s
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *parser) parseExpression() Expr {
	x := p.parsePrecedence(precOr)
	if x != nil && p.check(IF) {
		tok := p.advance()
		cond := p.parsePrecedence(precOr)
		p.expect(ELSE, "expected else in conditional expression")
		other := p.parseExpression()
		return &TernaryExpr{Then: x, Cond: cond, Else: other, Pos: pos(tok)}
	}
	return x
}

func (p *parser) parsePrecedence(min int) Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for {
		tok := p.peek()
		// `x not in y`
		if tok.Type == NOT && p.peekAt(1).Type == IN && precCompare >= min {
			p.advance()
			p.advance()
			right := p.parsePrecedence(precCompare + 1)
			in := &BinaryExpr{Op: IN, X: left, Y: right, Pos: pos(tok)}
			left = &UnaryExpr{Op: NOT, X: in, Pos: pos(tok)}
			continue
		}
		prec := infixPrecedence(tok.Type)
		if prec == precNone || prec < min {
			return left
		}
		left = p.parseInfix(left, prec)
	}
}

func infixPrecedence(t TokenType) int {
	switch t {
	case OR, OROR:
		return precOr
	case AND, ANDAND:
		return precAnd
	case EQ, NEQ, LT, GT, LTE, GTE, IN:
		return precCompare
	case PIPE:
		return precBitOr
	case CARET:
		return precBitXor
	case AMP:
		return precBitAnd
	case SHL, SHR:
		return precShift
	case PLUS, MINUS:
		return precAdditive
	case STAR, SLASH, PERCENT:
		return precMultiply
	case POW:
		return precPower
	case IS, AS:
		return precIs
	case LPAREN, DOT, LBRACKET:
		return precCall
	}
	return precNone
}

func (p *parser) parseInfix(left Expr, prec int) Expr {
	tok := p.advance()
	switch tok.Type {
	case LPAREN:
		return &CallExpr{Callee: left, Args: p.parseArgs(), Pos: left.Position()}
	case DOT:
		name := p.peek()
		if name.Type == IDENT || keywords[name.Value] != "" {
			p.advance()
		} else {
			p.addError(name, "expected member name")
		}
		return &MemberExpr{X: left, Name: name.Value, Pos: pos(name)}
	case LBRACKET:
		idx := p.parseExpression()
		p.expect(RBRACKET, "expected ]")
		return &IndexExpr{X: left, Index: idx, Pos: pos(tok)}
	case IS:
		return &IsExpr{X: left, TypeName: p.parseTypeName(), Pos: pos(tok)}
	case AS:
		return &CastExpr{X: left, TypeName: p.parseTypeName(), Pos: pos(tok)}
	case POW:
		return &BinaryExpr{Op: POW, X: left, Y: p.parsePrecedence(prec), Pos: pos(tok)}
	}
	op := tok.Type
	switch op {
	case OROR:
		op = OR
	case ANDAND:
		op = AND
	}
	return &BinaryExpr{Op: op, X: left, Y: p.parsePrecedence(prec + 1), Pos: pos(tok)}
}

func (p *parser) parseArgs() []Expr {
	var args []Expr
	for !p.check(RPAREN) && !p.check(EOF) {
		if a := p.parseExpression(); a != nil {
			args = append(args, a)
		}
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RPAREN, "expected ) after arguments")
	return args
}

func (p *parser) parsePrefix() Expr {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 0, 64)
		if err != nil {
			p.addError(tok, "invalid integer literal")
		}
		return &Literal{Kind: LitInt, Raw: tok.Value, Value: v, Pos: pos(tok)}
	case FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(strings.TrimSuffix(tok.Value, "."), 64)
		if err != nil {
			p.addError(tok, "invalid float literal")
		}
		return &Literal{Kind: LitFloat, Raw: tok.Value, Value: v, Pos: pos(tok)}
	case STRING:
		p.advance()
		return &Literal{Kind: LitString, Raw: strconv.Quote(tok.Value), Value: tok.Value, Pos: pos(tok)}
	case STRINGNAME:
		p.advance()
		return &Literal{Kind: LitStringName, Raw: "&" + strconv.Quote(tok.Value), Value: tok.Value, Pos: pos(tok)}
	case NODEPATH:
		p.advance()
		return &Literal{Kind: LitNodePath, Raw: "^" + strconv.Quote(tok.Value), Value: tok.Value, Pos: pos(tok)}
	case TRUE, FALSE:
		p.advance()
		return &Literal{Kind: LitBool, Raw: tok.Value, Value: tok.Type == TRUE, Pos: pos(tok)}
	case NULL:
		p.advance()
		return &Literal{Kind: LitNull, Raw: "null", Pos: pos(tok)}
	case IDENT:
		p.advance()
		return &Ident{Name: tok.Value, Pos: pos(tok)}
	case SELF:
		p.advance()
		return &SelfExpr{Pos: pos(tok)}
	case GETNODE:
		p.advance()
		return &GetNodeExpr{Path: tok.Value, Pos: pos(tok)}
	case LPAREN:
		p.advance()
		x := p.parseExpression()
		p.expect(RPAREN, "expected )")
		return x
	case LBRACKET:
		return p.parseArray()
	case LBRACE:
		return p.parseDict()
	case MINUS, PLUS, TILDE:
		p.advance()
		return &UnaryExpr{Op: tok.Type, X: p.parsePrecedence(precUnary), Pos: pos(tok)}
	case NOT, BANG:
		p.advance()
		return &UnaryExpr{Op: NOT, X: p.parsePrecedence(precCompare), Pos: pos(tok)}
	case AWAIT:
		p.advance()
		return &AwaitExpr{X: p.parsePrecedence(precUnary), Pos: pos(tok)}
	case FUNC:
		return p.parseLambda()
	}
	p.addError(tok, "expected expression")
	return nil
}

func (p *parser) parseArray() Expr {
	tok := p.advance()
	arr := &ArrayLit{Pos: pos(tok)}
	for !p.check(RBRACKET) && !p.check(EOF) {
		if e := p.parseExpression(); e != nil {
			arr.Elems = append(arr.Elems, e)
		}
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RBRACKET, "expected ] to close array")
	return arr
}

func (p *parser) parseDict() Expr {
	tok := p.advance()
	d := &DictLit{Pos: pos(tok)}
	for !p.check(RBRACE) && !p.check(EOF) {
		// Lua-style `{key = value}` uses bare identifiers as string keys.
		if p.check(IDENT) && p.peekAt(1).Type == ASSIGN {
			k := p.advance()
			p.advance()
			d.Entries = append(d.Entries, &DictEntry{
				Key:   &Literal{Kind: LitString, Raw: strconv.Quote(k.Value), Value: k.Value, Pos: pos(k)},
				Value: p.parseExpression(),
			})
		} else {
			key := p.parseExpression()
			p.expect(COLON, "expected : in dictionary entry")
			d.Entries = append(d.Entries, &DictEntry{Key: key, Value: p.parseExpression()})
		}
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RBRACE, "expected } to close dictionary")
	return d
}

func (p *parser) parseLambda() Expr {
	tok := p.advance()
	l := &LambdaExpr{Pos: pos(tok)}
	if p.check(IDENT) {
		l.Name = p.advance().Value
	}
	l.Params = p.parseParams()
	if p.match(ARROW) {
		l.ReturnType = p.parseTypeName()
	}
	p.expect(COLON, "expected : after lambda signature")
	if p.check(NEWLINE) {
		l.Body = p.parseBlock()
		return l
	}
	for {
		if s := p.parseStatement(); s != nil {
			l.Body = append(l.Body, s)
		}
		if !p.match(SEMICOLON) || p.endOfStatement() {
			break
		}
	}
	return l
}
