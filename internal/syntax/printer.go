package syntax

import (
	"strconv"
	"strings"
)

var opText = map[TokenType]string{
	OR:  "or",
	AND: "and",
	NOT: "not",
	IN:  "in",
}

// Format renders an expression back to compact source text. It is used for
// argument evidence and diagnostics, not for round-tripping files.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
	case *Literal:
		sb.WriteString(x.Raw)
	case *Ident:
		sb.WriteString(x.Name)
	case *SelfExpr:
		sb.WriteString("self")
	case *GetNodeExpr:
		sb.WriteString("$" + x.Path)
	case *ArrayLit:
		sb.WriteByte('[')
		for i, el := range x.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, el)
		}
		sb.WriteByte(']')
	case *DictLit:
		sb.WriteByte('{')
		for i, en := range x.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, en.Key)
			sb.WriteString(": ")
			format(sb, en.Value)
		}
		sb.WriteByte('}')
	case *CallExpr:
		format(sb, x.Callee)
		sb.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, a)
		}
		sb.WriteByte(')')
	case *MemberExpr:
		format(sb, x.X)
		sb.WriteString("." + x.Name)
	case *IndexExpr:
		format(sb, x.X)
		sb.WriteByte('[')
		format(sb, x.Index)
		sb.WriteByte(']')
	case *UnaryExpr:
		if x.Op == NOT {
			sb.WriteString("not ")
		} else {
			sb.WriteString(string(x.Op))
		}
		format(sb, x.X)
	case *BinaryExpr:
		sb.WriteByte('(')
		format(sb, x.X)
		sb.WriteString(" " + operatorText(x.Op) + " ")
		format(sb, x.Y)
		sb.WriteByte(')')
	case *IsExpr:
		format(sb, x.X)
		sb.WriteString(" is " + x.TypeName)
	case *CastExpr:
		format(sb, x.X)
		sb.WriteString(" as " + x.TypeName)
	case *TernaryExpr:
		format(sb, x.Then)
		sb.WriteString(" if ")
		format(sb, x.Cond)
		sb.WriteString(" else ")
		format(sb, x.Else)
	case *AwaitExpr:
		sb.WriteString("await ")
		format(sb, x.X)
	case *LambdaExpr:
		sb.WriteString("func(")
		for i, p := range x.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Name)
		}
		sb.WriteString("): ...")
	default:
		sb.WriteString("<expr>")
	}
}

func operatorText(op TokenType) string {
	if s, ok := opText[op]; ok {
		return s
	}
	return string(op)
}

// QuoteValue renders a compile-time value the way it would appear in source.
func QuoteValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	}
	return "<value>"
}
