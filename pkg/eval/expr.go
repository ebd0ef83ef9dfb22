package eval

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/val"
)

// Expr evaluates an expression to a value. Calls and subexpressions run
// with an empty input and their data is collected.
func Expr(es *engine.EngineState, st *engine.Stack, e ast.Expr) (val.Value, error) {
	switch x := e.(type) {
	case *ast.BoolLit:
		return val.Bool(x.Value, x.Ranging), nil
	case *ast.IntLit:
		return val.Int(x.Value, x.Ranging), nil
	case *ast.FloatLit:
		return val.Float(x.Value, x.Ranging), nil
	case *ast.StringLit:
		return val.String(x.Value, x.Ranging), nil
	case *ast.NothingLit:
		return val.Nothing(x.Ranging), nil
	case *ast.UnitLit:
		n := x.Amount * x.Unit.Multiplier()
		if x.Unit.IsDuration() {
			return val.Duration(time.Duration(n), x.Ranging), nil
		}
		return val.Filesize(n, x.Ranging), nil
	case *ast.Interp:
		return interp(es, st, x)
	case *ast.List:
		l := val.EmptyList
		for _, item := range x.Items {
			v, err := Expr(es, st, item)
			if err != nil {
				return val.Value{}, err
			}
			l = l.Conj(v)
		}
		return val.NewList(l, x.Ranging), nil
	case *ast.Record:
		rec := val.Record{}
		for _, it := range x.Items {
			k, err := stringOf(es, st, it.Key)
			if err != nil {
				return val.Value{}, err
			}
			v, err := Expr(es, st, it.Value)
			if err != nil {
				return val.Value{}, err
			}
			rec = rec.Assoc(k, v)
		}
		return val.NewRecord(rec, x.Ranging), nil
	case *ast.Table:
		return table(es, st, x)
	case *ast.Range:
		return rangeExpr(es, st, x)
	case *ast.Var:
		return variable(st, x.ID, x.Ranging), nil
	case *ast.Path:
		return path(es, st, x)
	case *ast.Call:
		data, err := call(es, st, x, engine.Empty)
		if err != nil {
			return val.Value{}, err
		}
		v, err := engine.Collect(data, x.Ranging)
		return v, wrapError(es, st, x.Ranging, err)
	case *ast.ExternalCall:
		data, err := externalCall(es, st, x, engine.Empty, ast.PipeOut, false, false)
		if err != nil {
			return val.Value{}, err
		}
		v, err := engine.Collect(data, x.Ranging)
		return v, wrapError(es, st, x.Ranging, err)
	case *ast.BinaryOp:
		return binaryOp(es, st, x)
	case *ast.UnaryNot:
		v, err := Expr(es, st, x.Expr)
		if err != nil {
			return val.Value{}, err
		}
		out, err := val.Not(v, x.Ranging)
		return out, wrapError(es, st, x.Ranging, err)
	case *ast.SubExpr:
		data, err := Block(es, st, es.Block(x.ID), engine.Empty)
		if err != nil {
			return val.Value{}, err
		}
		v, err := engine.Collect(data, x.Ranging)
		return v, wrapError(es, st, x.Ranging, err)
	case *ast.BlockExpr:
		return val.Block(x.ID, x.Ranging), nil
	case *ast.ClosureExpr:
		return closure(es, st, x), nil
	case *ast.Keyword:
		return Expr(es, st, x.Expr)
	case *ast.VarDecl:
		return val.Value{}, wrapError(es, st, x.Ranging,
			fmt.Errorf("bug: variable declaration evaluated as expression"))
	case *ast.Garbage:
		return val.Value{}, wrapError(es, st, x.Ranging,
			fmt.Errorf("bug: block with parse errors evaluated"))
	}
	panic(fmt.Sprintf("bug: unknown expression %T", e))
}

// stringOf evaluates an expression and coerces the result to a string, for
// positions that want text, like record keys and table headers.
func stringOf(es *engine.EngineState, st *engine.Stack, e ast.Expr) (string, error) {
	v, err := Expr(es, st, e)
	if err != nil {
		return "", err
	}
	s, err := v.CoerceString()
	return s, wrapError(es, st, e.Range(), err)
}

func interp(es *engine.EngineState, st *engine.Stack, x *ast.Interp) (val.Value, error) {
	var sb strings.Builder
	for _, part := range x.Parts {
		s, err := stringOf(es, st, part)
		if err != nil {
			return val.Value{}, err
		}
		sb.WriteString(s)
	}
	return val.String(sb.String(), x.Ranging), nil
}

func table(es *engine.EngineState, st *engine.Stack, x *ast.Table) (val.Value, error) {
	headers := make([]string, len(x.Headers))
	for i, h := range x.Headers {
		s, err := stringOf(es, st, h)
		if err != nil {
			return val.Value{}, err
		}
		headers[i] = s
	}
	rows := val.EmptyList
	for _, row := range x.Rows {
		rec := val.Record{}
		for i, cell := range row {
			v, err := Expr(es, st, cell)
			if err != nil {
				return val.Value{}, err
			}
			rec = rec.Assoc(headers[i], v)
		}
		rows = rows.Conj(val.NewRecord(rec, x.Ranging))
	}
	return val.NewList(rows, x.Ranging), nil
}

func rangeExpr(es *engine.EngineState, st *engine.Stack, x *ast.Range) (val.Value, error) {
	part := func(e ast.Expr) (val.Value, error) {
		if e == nil {
			return val.Nothing(x.Ranging), nil
		}
		return Expr(es, st, e)
	}
	from, err := part(x.From)
	if err != nil {
		return val.Value{}, err
	}
	if x.From == nil {
		from = val.Int(0, x.Ranging)
	}
	next, err := part(x.Next)
	if err != nil {
		return val.Value{}, err
	}
	to, err := part(x.To)
	if err != nil {
		return val.Value{}, err
	}
	v, err := val.NewRange(from, next, to, x.Exclusive, x.Ranging)
	return v, wrapError(es, st, x.Ranging, err)
}

// variable reads a variable binding. $env materializes the visible
// environment as a record; an unbound variable reads as nothing, which only
// happens for $in outside any input context.
func variable(st *engine.Stack, id ast.VarID, r diag.Ranging) val.Value {
	if id == engine.EnvVarID {
		return envRecord(st, r)
	}
	if v, ok := st.Var(id); ok {
		return v.WithRange(r)
	}
	return val.Nothing(r)
}

func envRecord(st *engine.Stack, r diag.Ranging) val.Value {
	m := st.EnvMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	rec := val.Record{}
	for _, name := range names {
		rec = rec.Assoc(name, val.String(m[name], r))
	}
	return val.NewRecord(rec, r)
}

func path(es *engine.EngineState, st *engine.Stack, x *ast.Path) (val.Value, error) {
	var head val.Value
	if x.Head == nil {
		head = variable(st, engine.InVarID, x.Ranging)
	} else {
		var err error
		head, err = Expr(es, st, x.Head)
		if err != nil {
			return val.Value{}, err
		}
	}
	return Index(es, st, head, x.Members)
}

// Index resolves cell path members against a value. Commands with cell path
// parameters use it to apply the path to their input.
func Index(es *engine.EngineState, st *engine.Stack, v val.Value, members []ast.PathMember) (val.Value, error) {
	var err error
	for _, m := range members {
		switch m.Kind {
		case ast.KeyMember:
			v, err = val.IndexKey(v, m.Key, m.Optional, m.Ranging)
		case ast.IndexMember:
			v, err = val.IndexInt(v, m.Index, m.Optional, m.Ranging)
		}
		if err != nil {
			return val.Value{}, wrapError(es, st, m.Ranging, err)
		}
	}
	return v, nil
}

func closure(es *engine.EngineState, st *engine.Stack, x *ast.ClosureExpr) val.Value {
	blk := es.Block(x.ID)
	captures := make(map[ast.VarID]val.Value, len(blk.Captures))
	for _, id := range blk.Captures {
		if v, ok := st.Var(id); ok {
			captures[id] = v
		} else {
			captures[id] = val.Nothing(x.Ranging)
		}
	}
	return val.NewClosure(&val.Closure{Block: x.ID, Captures: captures}, x.Ranging)
}

func binaryOp(es *engine.EngineState, st *engine.Stack, x *ast.BinaryOp) (val.Value, error) {
	if x.Op.IsAssignment() {
		return val.Value{}, wrapError(es, st, x.Ranging,
			fmt.Errorf("bug: assignment evaluated as expression"))
	}
	left, err := Expr(es, st, x.Left)
	if err != nil {
		return val.Value{}, err
	}
	// and and or short-circuit on the left operand.
	if x.Op == ast.And || x.Op == ast.Or {
		b, err := left.AsBool()
		if err != nil {
			return val.Value{}, wrapError(es, st, x.Left.Range(), err)
		}
		if (x.Op == ast.And && !b) || (x.Op == ast.Or && b) {
			return val.Bool(b, x.Ranging), nil
		}
	}
	right, err := Expr(es, st, x.Right)
	if err != nil {
		return val.Value{}, err
	}
	out, err := val.Operate(x.Op, left, right, x.Ranging)
	return out, wrapError(es, st, x.Ranging, err)
}
