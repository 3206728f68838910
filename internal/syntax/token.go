package syntax

import "fmt"

// TokenType classifies a lexed token.
type TokenType string

const (
	EOF     TokenType = "EOF"
	ILLEGAL TokenType = "ILLEGAL"

	NEWLINE TokenType = "NEWLINE"
	INDENT  TokenType = "INDENT"
	DEDENT  TokenType = "DEDENT"

	IDENT      TokenType = "IDENT"
	INT        TokenType = "INT"
	FLOAT      TokenType = "FLOAT"
	STRING     TokenType = "STRING"
	STRINGNAME TokenType = "STRINGNAME" // &"name"
	NODEPATH   TokenType = "NODEPATH"   // ^"path"
	GETNODE    TokenType = "GETNODE"    // $Path/To/Node
	ANNOTATION TokenType = "ANNOTATION" // @export

	// Keywords
	EXTENDS   TokenType = "EXTENDS"
	CLASSNAME TokenType = "CLASS_NAME"
	CLASS     TokenType = "CLASS"
	CONST     TokenType = "CONST"
	VAR       TokenType = "VAR"
	FUNC      TokenType = "FUNC"
	STATIC    TokenType = "STATIC"
	SIGNAL    TokenType = "SIGNAL"
	ENUM      TokenType = "ENUM"
	RETURN    TokenType = "RETURN"
	IF        TokenType = "IF"
	ELIF      TokenType = "ELIF"
	ELSE      TokenType = "ELSE"
	FOR       TokenType = "FOR"
	IN        TokenType = "IN"
	WHILE     TokenType = "WHILE"
	MATCH     TokenType = "MATCH"
	PASS      TokenType = "PASS"
	BREAK     TokenType = "BREAK"
	CONTINUE  TokenType = "CONTINUE"
	TRUE      TokenType = "TRUE"
	FALSE     TokenType = "FALSE"
	NULL      TokenType = "NULL"
	SELF      TokenType = "SELF"
	AND       TokenType = "AND"
	OR        TokenType = "OR"
	NOT       TokenType = "NOT"
	IS        TokenType = "IS"
	AS        TokenType = "AS"
	AWAIT     TokenType = "AWAIT"

	// Delimiters
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	COMMA     TokenType = ","
	DOT       TokenType = "."
	COLON     TokenType = ":"
	SEMICOLON TokenType = ";"
	ARROW     TokenType = "->"
	WALRUS    TokenType = ":="

	// Operators
	ASSIGN     TokenType = "="
	PLUS       TokenType = "+"
	MINUS      TokenType = "-"
	STAR       TokenType = "*"
	POW        TokenType = "**"
	SLASH      TokenType = "/"
	PERCENT    TokenType = "%"
	AMP        TokenType = "&"
	PIPE       TokenType = "|"
	CARET      TokenType = "^"
	TILDE      TokenType = "~"
	SHL        TokenType = "<<"
	SHR        TokenType = ">>"
	BANG       TokenType = "!"
	EQ         TokenType = "=="
	NEQ        TokenType = "!="
	LT         TokenType = "<"
	GT         TokenType = ">"
	LTE        TokenType = "<="
	GTE        TokenType = ">="
	ANDAND     TokenType = "&&"
	OROR       TokenType = "||"
	PLUSEQ     TokenType = "+="
	MINUSEQ    TokenType = "-="
	STAREQ     TokenType = "*="
	SLASHEQ    TokenType = "/="
	PERCENTEQ  TokenType = "%="
	POWEQ      TokenType = "**="
	AMPEQ      TokenType = "&="
	PIPEEQ     TokenType = "|="
	CARETEQ    TokenType = "^="
	SHLEQ      TokenType = "<<="
	SHREQ      TokenType = ">>="
)

var keywords = map[string]TokenType{
	"extends":    EXTENDS,
	"class_name": CLASSNAME,
	"class":      CLASS,
	"const":      CONST,
	"var":        VAR,
	"func":       FUNC,
	"static":     STATIC,
	"signal":     SIGNAL,
	"enum":       ENUM,
	"return":     RETURN,
	"if":         IF,
	"elif":       ELIF,
	"else":       ELSE,
	"for":        FOR,
	"in":         IN,
	"while":      WHILE,
	"match":      MATCH,
	"pass":       PASS,
	"break":      BREAK,
	"continue":   CONTINUE,
	"true":       TRUE,
	"false":      FALSE,
	"null":       NULL,
	"self":       SELF,
	"and":        AND,
	"or":         OR,
	"not":        NOT,
	"is":         IS,
	"as":         AS,
	"await":      AWAIT,
}

// Token is a single lexical token with its 1-based source position.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Value == "" {
		return string(t.Type)
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// LexError is a recoverable lexing problem.
type LexError struct {
	Message string
	Lexeme  string
	Line    int
	Column  int
}

func (e LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s (got %q)", e.Line, e.Column, e.Message, e.Lexeme)
}
