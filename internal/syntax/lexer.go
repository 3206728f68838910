package syntax

import "strings"

const tabWidth = 4

// lexer turns GDScript source into tokens. Indentation is reported as
// INDENT/DEDENT pairs; newlines inside brackets are not significant.
type lexer struct {
	src     string
	i       int
	line    int
	col     int
	depth   int
	indents []int
	atStart bool
	tokens  []Token
	errors  []LexError
}

// Lex tokenizes src. Recoverable problems (unterminated strings, stray
// characters, inconsistent dedents) are returned alongside the tokens.
func Lex(src string) ([]Token, []LexError) {
	l := &lexer{src: src, line: 1, col: 1, indents: []int{0}, atStart: true}
	l.run()
	return l.tokens, l.errors
}

func (l *lexer) run() {
	for l.i < len(l.src) {
		if l.atStart && l.depth == 0 {
			if !l.lineIndent() {
				continue
			}
		}
		ch := l.src[l.i]
		switch {
		case ch == '\n':
			l.newline()
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.step()
		case ch == '#':
			l.skipComment()
		case ch == '\\' && l.continuation():
		case ch == '"' || ch == '\'':
			l.lexString(STRING, l.line, l.col)
		case (ch == '&' || ch == '^') && l.peekQuote(1):
			line, col := l.line, l.col
			l.step()
			typ := STRINGNAME
			if ch == '^' {
				typ = NODEPATH
			}
			l.lexString(typ, line, col)
		case ch == '$':
			l.lexGetNode()
		case ch == '@':
			l.lexAnnotation()
		case isDigit(ch) || (ch == '.' && l.i+1 < len(l.src) && isDigit(l.src[l.i+1])):
			l.lexNumber()
		case isIdentStart(ch):
			l.lexIdentifier()
		default:
			l.lexOperator()
		}
	}

	if n := len(l.tokens); n > 0 && l.tokens[n-1].Type != NEWLINE && l.tokens[n-1].Type != DEDENT {
		l.emit(NEWLINE, "", l.line, l.col)
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "", l.line, l.col)
	}
	l.emit(EOF, "", l.line, l.col)
}

func (l *lexer) emit(typ TokenType, value string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: line, Column: col})
}

func (l *lexer) step() {
	if l.src[l.i] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.i++
}

func (l *lexer) peekQuote(offset int) bool {
	j := l.i + offset
	return j < len(l.src) && (l.src[j] == '"' || l.src[j] == '\'')
}

// lineIndent measures the indentation of a logical line. Blank and
// comment-only lines are consumed entirely and report false.
func (l *lexer) lineIndent() bool {
	width := 0
	j := l.i
	for j < len(l.src) && (l.src[j] == ' ' || l.src[j] == '\t') {
		if l.src[j] == '\t' {
			width += tabWidth
		} else {
			width++
		}
		j++
	}
	if j >= len(l.src) || l.src[j] == '\n' || l.src[j] == '\r' || l.src[j] == '#' {
		for l.i < len(l.src) && l.src[l.i] != '\n' {
			l.step()
		}
		if l.i < len(l.src) {
			l.step()
		}
		return false
	}

	l.col += j - l.i
	l.i = j
	l.atStart = false

	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emit(INDENT, "", l.line, l.col)
	case width < top:
		for len(l.indents) > 1 && width < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(DEDENT, "", l.line, l.col)
		}
		if width != l.indents[len(l.indents)-1] {
			l.errors = append(l.errors, LexError{
				Message: "inconsistent dedent",
				Lexeme:  strings.Repeat(" ", width),
				Line:    l.line,
				Column:  1,
			})
		}
	}
	return true
}

func (l *lexer) newline() {
	if l.depth == 0 {
		if n := len(l.tokens); n > 0 && l.tokens[n-1].Type != NEWLINE {
			l.emit(NEWLINE, "", l.line, l.col)
		}
		l.atStart = true
	}
	l.step()
}

func (l *lexer) skipComment() {
	for l.i < len(l.src) && l.src[l.i] != '\n' {
		l.step()
	}
}

// continuation consumes a backslash line continuation.
func (l *lexer) continuation() bool {
	j := l.i + 1
	if j < len(l.src) && l.src[j] == '\r' {
		j++
	}
	if j >= len(l.src) || l.src[j] != '\n' {
		return false
	}
	for l.i <= j {
		l.step()
	}
	return true
}

func (l *lexer) lexString(typ TokenType, line, col int) {
	quote := l.src[l.i]
	triple := strings.HasPrefix(l.src[l.i:], strings.Repeat(string(quote), 3))
	if triple {
		l.step()
		l.step()
	}
	l.step()

	var sb strings.Builder
	for l.i < len(l.src) {
		ch := l.src[l.i]
		if triple {
			if strings.HasPrefix(l.src[l.i:], strings.Repeat(string(quote), 3)) {
				l.step()
				l.step()
				l.step()
				l.emit(typ, sb.String(), line, col)
				return
			}
		} else {
			if ch == quote {
				l.step()
				l.emit(typ, sb.String(), line, col)
				return
			}
			if ch == '\n' {
				break
			}
		}
		if ch == '\\' && l.i+1 < len(l.src) {
			l.step()
			sb.WriteByte(unescape(l.src[l.i]))
			l.step()
			continue
		}
		sb.WriteByte(ch)
		l.step()
	}

	l.errors = append(l.errors, LexError{
		Message: "unterminated string",
		Lexeme:  string(quote),
		Line:    line,
		Column:  col,
	})
	l.emit(typ, sb.String(), line, col)
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func (l *lexer) lexGetNode() {
	line, col := l.line, l.col
	l.step()
	if l.peekQuote(0) {
		l.lexString(GETNODE, line, col)
		return
	}
	start := l.i
	for l.i < len(l.src) && (isIdentChar(l.src[l.i]) || l.src[l.i] == '/' || l.src[l.i] == '%') {
		l.step()
	}
	if start == l.i {
		l.errors = append(l.errors, LexError{Message: "empty node path", Lexeme: "$", Line: line, Column: col})
	}
	l.emit(GETNODE, l.src[start:l.i], line, col)
}

func (l *lexer) lexAnnotation() {
	line, col := l.line, l.col
	l.step()
	start := l.i
	for l.i < len(l.src) && isIdentChar(l.src[l.i]) {
		l.step()
	}
	l.emit(ANNOTATION, l.src[start:l.i], line, col)
}

func (l *lexer) lexNumber() {
	line, col := l.line, l.col
	start := l.i
	typ := INT

	if l.src[l.i] == '0' && l.i+1 < len(l.src) && strings.ContainsRune("xXbB", rune(l.src[l.i+1])) {
		l.step()
		l.step()
		for l.i < len(l.src) && (isHexDigit(l.src[l.i]) || l.src[l.i] == '_') {
			l.step()
		}
		l.emit(INT, strings.ReplaceAll(l.src[start:l.i], "_", ""), line, col)
		return
	}

	for l.i < len(l.src) && (isDigit(l.src[l.i]) || l.src[l.i] == '_') {
		l.step()
	}
	if l.i < len(l.src) && l.src[l.i] == '.' && (l.i+1 >= len(l.src) || !isIdentStart(l.src[l.i+1])) {
		typ = FLOAT
		l.step()
		for l.i < len(l.src) && (isDigit(l.src[l.i]) || l.src[l.i] == '_') {
			l.step()
		}
	}
	if l.i < len(l.src) && (l.src[l.i] == 'e' || l.src[l.i] == 'E') {
		j := l.i + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			typ = FLOAT
			for l.i < j {
				l.step()
			}
			for l.i < len(l.src) && isDigit(l.src[l.i]) {
				l.step()
			}
		}
	}
	l.emit(typ, strings.ReplaceAll(l.src[start:l.i], "_", ""), line, col)
}

func (l *lexer) lexIdentifier() {
	line, col := l.line, l.col
	start := l.i
	for l.i < len(l.src) && isIdentChar(l.src[l.i]) {
		l.step()
	}
	word := l.src[start:l.i]
	if kw, ok := keywords[word]; ok {
		l.emit(kw, word, line, col)
		return
	}
	l.emit(IDENT, word, line, col)
}

var operators = []TokenType{
	POWEQ, SHLEQ, SHREQ,
	WALRUS, ARROW, POW, EQ, NEQ, LTE, GTE, ANDAND, OROR, SHL, SHR,
	PLUSEQ, MINUSEQ, STAREQ, SLASHEQ, PERCENTEQ, AMPEQ, PIPEEQ, CARETEQ,
	LPAREN, RPAREN, LBRACKET, RBRACKET, LBRACE, RBRACE, COMMA, DOT, COLON, SEMICOLON,
	ASSIGN, PLUS, MINUS, STAR, SLASH, PERCENT, AMP, PIPE, CARET, TILDE, BANG, LT, GT,
}

func (l *lexer) lexOperator() {
	line, col := l.line, l.col
	for _, op := range operators {
		if strings.HasPrefix(l.src[l.i:], string(op)) {
			for range len(op) {
				l.step()
			}
			switch op {
			case LPAREN, LBRACKET, LBRACE:
				l.depth++
			case RPAREN, RBRACKET, RBRACE:
				if l.depth > 0 {
					l.depth--
				}
			}
			l.emit(op, string(op), line, col)
			return
		}
	}
	l.errors = append(l.errors, LexError{
		Message: "unexpected character",
		Lexeme:  string(l.src[l.i]),
		Line:    line,
		Column:  col,
	})
	l.step()
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
