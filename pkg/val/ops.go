package val

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
)

// Operate applies a binary operator to two values. Mixed int and float
// operands promote to float; duration and filesize arithmetic keeps the
// unit kind, with the ratio of two like units being a plain float. The
// result carries r, the range of the whole operator expression.
//
// Assignment operators never reach here, and the evaluator applies the
// short-circuiting boolean operators itself.
func Operate(op ast.Op, a, b Value, r diag.Ranging) (Value, error) {
	switch op {
	case ast.Add:
		return add(a, b, r)
	case ast.Sub:
		return sub(a, b, r)
	case ast.Mul:
		return mul(a, b, r)
	case ast.Div:
		return div(a, b, r)
	case ast.FloorDiv:
		return floorDiv(a, b, r)
	case ast.Mod:
		return mod(a, b, r)
	case ast.Pow:
		return pow(a, b, r)
	case ast.Concat:
		return concat(a, b, r)
	case ast.Eq:
		return Bool(Equal(a, b), r), nil
	case ast.NotEq:
		return Bool(!Equal(a, b), r), nil
	case ast.Lt, ast.Gt, ast.LtEq, ast.GtEq:
		return compareOp(op, a, b, r)
	case ast.RegexMatch:
		return regexMatch(a, b, r, false)
	case ast.NotRegexMatch:
		return regexMatch(a, b, r, true)
	case ast.In:
		return membership(a, b, r, false)
	case ast.NotIn:
		return membership(a, b, r, true)
	case ast.StartsWith:
		return startsEndsWith(a, b, r, true)
	case ast.EndsWith:
		return startsEndsWith(a, b, r, false)
	case ast.And, ast.Or, ast.Xor:
		return boolOp(op, a, b, r)
	default:
		panic(fmt.Sprintf("bad binary op %s", op))
	}
}

// Not applies the logical not operator.
func Not(v Value, r diag.Ranging) (Value, error) {
	b, err := v.AsBool()
	if err != nil {
		return Value{}, errs.BadValue{
			What: "operand of 'not'", Valid: "bool", Actual: v.Kind().String()}
	}
	return Bool(!b, r), nil
}

func opMismatch(op ast.Op, a, b Value) error {
	return errs.OpMismatch{
		Op: op.String(), LHS: a.Kind().String(), RHS: b.Kind().String()}
}

func overflow(op ast.Op) error {
	return errs.OperatorOverflow{Op: op.String()}
}

func add(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			s, ok := addInt(ad, bd)
			if !ok {
				return Value{}, overflow(ast.Add)
			}
			return Int(s, r), nil
		case float64:
			return Float(float64(ad)+bd, r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			return Float(ad+float64(bd), r), nil
		case float64:
			return Float(ad+bd, r), nil
		}
	case string:
		if bd, ok := b.data.(string); ok {
			return String(ad+bd, r), nil
		}
	case time.Duration:
		switch bd := b.data.(type) {
		case time.Duration:
			s, ok := addInt(int64(ad), int64(bd))
			if !ok {
				return Value{}, overflow(ast.Add)
			}
			return Duration(time.Duration(s), r), nil
		case time.Time:
			return Date(bd.Add(ad), r), nil
		}
	case filesize:
		if bd, ok := b.data.(filesize); ok {
			s, ok := addInt(int64(ad), int64(bd))
			if !ok {
				return Value{}, overflow(ast.Add)
			}
			return Filesize(s, r), nil
		}
	case time.Time:
		if bd, ok := b.data.(time.Duration); ok {
			return Date(ad.Add(bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.Add, a, b)
}

func sub(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			s, ok := subInt(ad, bd)
			if !ok {
				return Value{}, overflow(ast.Sub)
			}
			return Int(s, r), nil
		case float64:
			return Float(float64(ad)-bd, r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			return Float(ad-float64(bd), r), nil
		case float64:
			return Float(ad-bd, r), nil
		}
	case time.Duration:
		if bd, ok := b.data.(time.Duration); ok {
			s, ok := subInt(int64(ad), int64(bd))
			if !ok {
				return Value{}, overflow(ast.Sub)
			}
			return Duration(time.Duration(s), r), nil
		}
	case filesize:
		if bd, ok := b.data.(filesize); ok {
			s, ok := subInt(int64(ad), int64(bd))
			if !ok {
				return Value{}, overflow(ast.Sub)
			}
			return Filesize(s, r), nil
		}
	case time.Time:
		switch bd := b.data.(type) {
		case time.Duration:
			return Date(ad.Add(-bd), r), nil
		case time.Time:
			return Duration(ad.Sub(bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.Sub, a, b)
}

func mul(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			p, ok := mulInt(ad, bd)
			if !ok {
				return Value{}, overflow(ast.Mul)
			}
			return Int(p, r), nil
		case float64:
			return Float(float64(ad)*bd, r), nil
		case time.Duration:
			p, ok := mulInt(ad, int64(bd))
			if !ok {
				return Value{}, overflow(ast.Mul)
			}
			return Duration(time.Duration(p), r), nil
		case filesize:
			p, ok := mulInt(ad, int64(bd))
			if !ok {
				return Value{}, overflow(ast.Mul)
			}
			return Filesize(p, r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			return Float(ad*float64(bd), r), nil
		case float64:
			return Float(ad*bd, r), nil
		case time.Duration:
			return Duration(time.Duration(ad*float64(bd)), r), nil
		case filesize:
			return Filesize(int64(ad*float64(bd)), r), nil
		}
	case time.Duration:
		switch bd := b.data.(type) {
		case int64:
			p, ok := mulInt(int64(ad), bd)
			if !ok {
				return Value{}, overflow(ast.Mul)
			}
			return Duration(time.Duration(p), r), nil
		case float64:
			return Duration(time.Duration(float64(ad)*bd), r), nil
		}
	case filesize:
		switch bd := b.data.(type) {
		case int64:
			p, ok := mulInt(int64(ad), bd)
			if !ok {
				return Value{}, overflow(ast.Mul)
			}
			return Filesize(p, r), nil
		case float64:
			return Filesize(int64(float64(ad)*bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.Mul, a, b)
}

func div(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			if ad == math.MinInt64 && bd == -1 {
				return Value{}, overflow(ast.Div)
			}
			// An exact division stays an int; otherwise the quotient is a
			// float.
			if ad%bd == 0 {
				return Int(ad/bd, r), nil
			}
			return Float(float64(ad)/float64(bd), r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(float64(ad)/bd, r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(ad/float64(bd), r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(ad/bd, r), nil
		}
	case time.Duration:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Duration(ad/time.Duration(bd), r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Duration(time.Duration(float64(ad)/bd), r), nil
		case time.Duration:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(float64(ad)/float64(bd), r), nil
		}
	case filesize:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Filesize(int64(ad)/bd, r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Filesize(int64(float64(ad)/bd), r), nil
		case filesize:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(float64(ad)/float64(bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.Div, a, b)
}

func floorDiv(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			if ad == math.MinInt64 && bd == -1 {
				return Value{}, overflow(ast.FloorDiv)
			}
			q := ad / bd
			if ad%bd != 0 && (ad < 0) != (bd < 0) {
				q--
			}
			return Int(q, r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(math.Floor(float64(ad)/bd), r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(math.Floor(ad/float64(bd)), r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(math.Floor(ad/bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.FloorDiv, a, b)
}

func mod(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			if ad == math.MinInt64 && bd == -1 {
				return Value{}, overflow(ast.Mod)
			}
			return Int(ad%bd, r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(math.Mod(float64(ad), bd), r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(math.Mod(ad, float64(bd)), r), nil
		case float64:
			if bd == 0 {
				return Value{}, errs.DivisionByZero{}
			}
			return Float(math.Mod(ad, bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.Mod, a, b)
}

func pow(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case int64:
		switch bd := b.data.(type) {
		case int64:
			if bd >= 0 {
				p, ok := powInt(ad, bd)
				if !ok {
					return Value{}, overflow(ast.Pow)
				}
				return Int(p, r), nil
			}
			return Float(math.Pow(float64(ad), float64(bd)), r), nil
		case float64:
			return Float(math.Pow(float64(ad), bd), r), nil
		}
	case float64:
		switch bd := b.data.(type) {
		case int64:
			return Float(math.Pow(ad, float64(bd)), r), nil
		case float64:
			return Float(math.Pow(ad, bd), r), nil
		}
	}
	return Value{}, opMismatch(ast.Pow, a, b)
}

func concat(a, b Value, r diag.Ranging) (Value, error) {
	switch ad := a.data.(type) {
	case string:
		if bd, ok := b.data.(string); ok {
			return String(ad+bd, r), nil
		}
	case []byte:
		if bd, ok := b.data.([]byte); ok {
			out := make([]byte, 0, len(ad)+len(bd))
			out = append(out, ad...)
			out = append(out, bd...)
			return Binary(out, r), nil
		}
	}
	if a.Kind() == KindList && b.Kind() == KindList {
		out := a.data.(List)
		for it := b.data.(List).Iterator(); it.HasElem(); it.Next() {
			out = out.Conj(it.Elem())
		}
		return NewList(out, r), nil
	}
	return Value{}, opMismatch(ast.Concat, a, b)
}

func compareOp(op ast.Op, a, b Value, r diag.Ranging) (Value, error) {
	o := Cmp(a, b)
	if o == CmpUncomparable {
		return Value{}, opMismatch(op, a, b)
	}
	var res bool
	switch op {
	case ast.Lt:
		res = o == CmpLess
	case ast.Gt:
		res = o == CmpMore
	case ast.LtEq:
		res = o != CmpMore
	case ast.GtEq:
		res = o != CmpLess
	}
	return Bool(res, r), nil
}

func regexMatch(a, b Value, r diag.Ranging, negate bool) (Value, error) {
	op := ast.RegexMatch
	if negate {
		op = ast.NotRegexMatch
	}
	s, ok := a.data.(string)
	if !ok {
		return Value{}, opMismatch(op, a, b)
	}
	pattern, ok := b.data.(string)
	if !ok {
		return Value{}, opMismatch(op, a, b)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Value{}, errs.BadValue{
			What: "right operand of '" + op.String() + "'",
			Valid: "valid regular expression", Actual: pattern}
	}
	return Bool(re.MatchString(s) != negate, r), nil
}

func membership(a, b Value, r diag.Ranging, negate bool) (Value, error) {
	op := ast.In
	if negate {
		op = ast.NotIn
	}
	var found bool
	switch b.Kind() {
	case KindList:
		for it := b.data.(List).Iterator(); it.HasElem(); it.Next() {
			if Equal(a, it.Elem().(Value)) {
				found = true
				break
			}
		}
	case KindRecord:
		key, ok := a.data.(string)
		if !ok {
			return Value{}, opMismatch(op, a, b)
		}
		found = b.data.(Record).HasKey(key)
	case KindString:
		sub, ok := a.data.(string)
		if !ok {
			return Value{}, opMismatch(op, a, b)
		}
		found = strings.Contains(b.data.(string), sub)
	case KindRange:
		found = b.data.(*Range).Contains(a)
	default:
		return Value{}, opMismatch(op, a, b)
	}
	return Bool(found != negate, r), nil
}

func startsEndsWith(a, b Value, r diag.Ranging, prefix bool) (Value, error) {
	op := ast.StartsWith
	if !prefix {
		op = ast.EndsWith
	}
	s, ok := a.data.(string)
	if !ok {
		return Value{}, opMismatch(op, a, b)
	}
	affix, ok := b.data.(string)
	if !ok {
		return Value{}, opMismatch(op, a, b)
	}
	if prefix {
		return Bool(strings.HasPrefix(s, affix), r), nil
	}
	return Bool(strings.HasSuffix(s, affix), r), nil
}

func boolOp(op ast.Op, a, b Value, r diag.Ranging) (Value, error) {
	ad, ok := a.data.(bool)
	if !ok {
		return Value{}, opMismatch(op, a, b)
	}
	bd, ok := b.data.(bool)
	if !ok {
		return Value{}, opMismatch(op, a, b)
	}
	var res bool
	switch op {
	case ast.And:
		res = ad && bd
	case ast.Or:
		res = ad || bd
	case ast.Xor:
		res = ad != bd
	}
	return Bool(res, r), nil
}

func addInt(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}

func subInt(a, b int64) (int64, bool) {
	s := a - b
	if (b > 0 && s > a) || (b < 0 && s < a) {
		return 0, false
	}
	return s, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

func powInt(base, exp int64) (int64, bool) {
	p := int64(1)
	for ; exp > 0; exp-- {
		var ok bool
		p, ok = mulInt(p, base)
		if !ok {
			return 0, false
		}
	}
	return p, true
}
