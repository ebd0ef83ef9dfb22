package eval

import (
	"fmt"
	"strconv"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/strutil"
	"src.kelp.sh/pkg/val"
)

// The operator a compound assignment combines with.
var baseOps = map[ast.Op]ast.Op{
	ast.AddAssign:    ast.Add,
	ast.SubAssign:    ast.Sub,
	ast.MulAssign:    ast.Mul,
	ast.DivAssign:    ast.Div,
	ast.ConcatAssign: ast.Concat,
}

// assign carries out an assignment statement. The right side is evaluated
// first; writing to a cell path rebuilds the data along the path, since
// values are immutable.
func assign(es *engine.EngineState, st *engine.Stack, x *ast.BinaryOp) error {
	rhs, err := Expr(es, st, x.Right)
	if err != nil {
		return err
	}
	switch lhs := x.Left.(type) {
	case *ast.Var:
		return assignVar(es, st, x, lhs, rhs)
	case *ast.Path:
		return assignPath(es, st, x, lhs, rhs)
	}
	return wrapError(es, st, x.Ranging, fmt.Errorf("bug: assignment to %T", x.Left))
}

func assignVar(es *engine.EngineState, st *engine.Stack, x *ast.BinaryOp, lhs *ast.Var, rhs val.Value) error {
	v := rhs
	if _, compound := baseOps[x.Op]; compound {
		cur, ok := st.Var(lhs.ID)
		if !ok {
			return wrapError(es, st, lhs.Ranging,
				fmt.Errorf("variable has no value to combine with %v", x.Op))
		}
		var err error
		v, err = combined(es, st, x, cur, rhs)
		if err != nil {
			return err
		}
	}
	if !st.AssignVar(lhs.ID, v) {
		st.DefineVar(lhs.ID, v)
	}
	return nil
}

func assignPath(es *engine.EngineState, st *engine.Stack, x *ast.BinaryOp, lhs *ast.Path, rhs val.Value) error {
	head, ok := lhs.Head.(*ast.Var)
	if !ok {
		return wrapError(es, st, lhs.Ranging, fmt.Errorf("bug: assignment to a path not rooted at a variable"))
	}
	leaf := func(cur val.Value) (val.Value, error) {
		return combined(es, st, x, cur, rhs)
	}
	if head.ID == engine.EnvVarID {
		return assignEnv(es, st, x, lhs, leaf)
	}

	cur, found := st.Var(head.ID)
	if !found {
		return wrapError(es, st, head.Ranging, fmt.Errorf("variable has no value"))
	}
	v, err := assignAt(es, st, cur, lhs.Members, leaf)
	if err != nil {
		return err
	}
	if !st.AssignVar(head.ID, v) {
		st.DefineVar(head.ID, v)
	}
	return nil
}

// assignAt rebuilds cur with the cell at the given path replaced by what
// leaf makes of its old value. A key missing at the last step reads as
// nothing, so plain assignment can add a new column.
func assignAt(es *engine.EngineState, st *engine.Stack, cur val.Value, members []ast.PathMember, leaf func(val.Value) (val.Value, error)) (val.Value, error) {
	if len(members) == 0 {
		return leaf(cur)
	}
	m := members[0]
	switch m.Kind {
	case ast.KeyMember:
		if cur.Kind() != val.KindRecord {
			return val.Value{}, wrapError(es, st, m.Ranging, errs.BadValue{
				What: "value to assign a column of", Valid: "record",
				Actual: cur.Kind().String()})
		}
		rec, _ := cur.AsRecord()
		child, ok := rec.Index(m.Key)
		if !ok {
			if len(members) > 1 {
				sugg, _ := strutil.Nearest(m.Key, rec.Keys())
				return val.Value{}, wrapError(es, st, m.Ranging,
					errs.ColumnNotFound{Name: m.Key, Suggestion: sugg})
			}
			child = val.Nothing(m.Ranging)
		}
		nv, err := assignAt(es, st, child, members[1:], leaf)
		if err != nil {
			return val.Value{}, err
		}
		return val.NewRecord(rec.Assoc(m.Key, nv), cur.Range()), nil
	case ast.IndexMember:
		if cur.Kind() != val.KindList {
			return val.Value{}, wrapError(es, st, m.Ranging, errs.BadValue{
				What: "value to assign an element of", Valid: "list",
				Actual: cur.Kind().String()})
		}
		l, _ := cur.AsList()
		if m.Index < 0 || m.Index >= int64(l.Len()) {
			return val.Value{}, wrapError(es, st, m.Ranging, errs.OutOfRange{
				What: "index", ValidLow: "0", ValidHigh: strconv.Itoa(l.Len() - 1),
				Actual: strconv.FormatInt(m.Index, 10)})
		}
		elem, _ := l.Index(int(m.Index))
		nv, err := assignAt(es, st, elem.(val.Value), members[1:], leaf)
		if err != nil {
			return val.Value{}, err
		}
		return val.NewList(l.Assoc(int(m.Index), nv), cur.Range()), nil
	}
	panic(fmt.Sprintf("bug: unknown path member kind %d", m.Kind))
}

// assignEnv writes an environment variable through $env.NAME. The value is
// coerced to a string, the only thing an environment can hold.
func assignEnv(es *engine.EngineState, st *engine.Stack, x *ast.BinaryOp, lhs *ast.Path, leaf func(val.Value) (val.Value, error)) error {
	if len(lhs.Members) != 1 || lhs.Members[0].Kind != ast.KeyMember {
		return wrapError(es, st, lhs.Ranging, errs.BadValue{
			What: "assignment under $env", Valid: "a single name, like $env.PATH",
			Actual: "a longer path"})
	}
	name := lhs.Members[0].Key
	cur := val.Nothing(lhs.Ranging)
	if s, ok := st.Env(name); ok {
		cur = val.String(s, lhs.Ranging)
	}
	nv, err := leaf(cur)
	if err != nil {
		return err
	}
	s, err := nv.CoerceString()
	if err != nil {
		return wrapError(es, st, x.Right.Range(), err)
	}
	st.SetEnv(name, s)
	return nil
}

func combined(es *engine.EngineState, st *engine.Stack, x *ast.BinaryOp, cur, rhs val.Value) (val.Value, error) {
	op, ok := baseOps[x.Op]
	if !ok {
		return rhs, nil
	}
	v, err := val.Operate(op, cur, rhs, x.Ranging)
	if err != nil {
		return val.Value{}, wrapError(es, st, x.Ranging, err)
	}
	return v, nil
}
