package resolver

import (
	"math"
	"strings"

	"gdinfer/internal/syntax"
)

// evalUnary folds a prefix operator over a constant. Values are int64,
// float64, string, bool or nil.
func evalUnary(op syntax.TokenType, v any) (any, bool) {
	switch op {
	case syntax.MINUS:
		switch x := v.(type) {
		case int64:
			return -x, true
		case float64:
			return -x, true
		}
	case syntax.PLUS:
		switch v.(type) {
		case int64, float64:
			return v, true
		}
	case syntax.NOT:
		if b, ok := v.(bool); ok {
			return !b, true
		}
	case syntax.TILDE:
		if i, ok := v.(int64); ok {
			return ^i, true
		}
	}
	return nil, false
}

// evalBinary folds `a op b` with GDScript semantics for the supported
// operand kinds. Division or modulo by an integer zero does not fold.
func evalBinary(op syntax.TokenType, a, b any) (any, bool) {
	switch op {
	case syntax.EQ:
		return equal(a, b)
	case syntax.NEQ:
		eq, ok := equal(a, b)
		if !ok {
			return nil, false
		}
		return !eq.(bool), true
	case syntax.AND, syntax.OR:
		x, ok1 := a.(bool)
		y, ok2 := b.(bool)
		if !ok1 || !ok2 {
			return nil, false
		}
		if op == syntax.AND {
			return x && y, true
		}
		return x || y, true
	}

	if x, ok := a.(string); ok {
		y, ok := b.(string)
		if !ok {
			return nil, false
		}
		return stringOp(op, x, y)
	}

	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		return intOp(op, ai, bi)
	}
	af, ok1 := toFloat(a)
	bf, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return nil, false
	}
	return floatOp(op, af, bf)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func equal(a, b any) (any, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return false, true
		}
		return af == bf, true
	}
	switch a.(type) {
	case string, bool, nil:
		return a == b, true
	}
	return nil, false
}

func stringOp(op syntax.TokenType, x, y string) (any, bool) {
	switch op {
	case syntax.PLUS:
		return x + y, true
	case syntax.LT:
		return x < y, true
	case syntax.GT:
		return x > y, true
	case syntax.LTE:
		return x <= y, true
	case syntax.GTE:
		return x >= y, true
	case syntax.IN:
		return strings.Contains(y, x), true
	}
	return nil, false
}

func intOp(op syntax.TokenType, x, y int64) (any, bool) {
	switch op {
	case syntax.PLUS:
		return x + y, true
	case syntax.MINUS:
		return x - y, true
	case syntax.STAR:
		return x * y, true
	case syntax.SLASH:
		if y == 0 {
			return nil, false
		}
		return x / y, true
	case syntax.PERCENT:
		if y == 0 {
			return nil, false
		}
		return x % y, true
	case syntax.POW:
		if y < 0 {
			return math.Pow(float64(x), float64(y)), true
		}
		return ipow(x, y), true
	case syntax.AMP:
		return x & y, true
	case syntax.PIPE:
		return x | y, true
	case syntax.CARET:
		return x ^ y, true
	case syntax.SHL:
		if y < 0 || y > 63 {
			return nil, false
		}
		return x << uint(y), true
	case syntax.SHR:
		if y < 0 || y > 63 {
			return nil, false
		}
		return x >> uint(y), true
	}
	return compare(op, float64(x), float64(y))
}

// ipow raises x to a non-negative y by squaring, wrapping like int64
// multiplication.
func ipow(x, y int64) int64 {
	out := int64(1)
	for y > 0 {
		if y&1 == 1 {
			out *= x
		}
		x *= x
		y >>= 1
	}
	return out
}

func floatOp(op syntax.TokenType, x, y float64) (any, bool) {
	switch op {
	case syntax.PLUS:
		return x + y, true
	case syntax.MINUS:
		return x - y, true
	case syntax.STAR:
		return x * y, true
	case syntax.SLASH:
		return x / y, true
	case syntax.PERCENT:
		return math.Mod(x, y), true
	case syntax.POW:
		return math.Pow(x, y), true
	}
	return compare(op, x, y)
}

func compare(op syntax.TokenType, x, y float64) (any, bool) {
	switch op {
	case syntax.LT:
		return x < y, true
	case syntax.GT:
		return x > y, true
	case syntax.LTE:
		return x <= y, true
	case syntax.GTE:
		return x >= y, true
	}
	return nil, false
}
