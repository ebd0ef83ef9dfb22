// Package core implements the declaration and control flow commands. The
// parser recognizes the declaration statements by name and does their work
// at parse time; the commands here supply the run-time halves, several of
// which are no-ops.
package core

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/val"
)

// Install adds the core commands to the working set. The declaration
// statement forms (let, def, use, ...) only activate in the parser once a
// command of the same name is declared, so installing this set is what
// turns the statement syntax on.
func Install(ws *engine.WorkingSet) {
	for _, c := range []engine.Command{
		eval.BuiltinCommand{Sig: bindSig("let", "Bind an immutable variable."), Fn: let},
		eval.BuiltinCommand{Sig: bindSig("mut", "Bind a mutable variable."), Fn: let},
		eval.BuiltinCommand{Sig: declSig("def", "Define a command."), Fn: declared},
		eval.BuiltinCommand{Sig: declSig("alias", "Define an alias expanding to a pipeline element."), Fn: declared},
		eval.BuiltinCommand{Sig: declSig("use", "Bring the exports of a module into scope."), Fn: declared},
		eval.BuiltinCommand{Sig: declSig("module", "Declare a module of exportable definitions."), Fn: declared},
		eval.BuiltinCommand{Sig: declSig("source", "Run a file in the current scope."), Fn: source},
		eval.BuiltinCommand{Sig: forSig, Fn: forLoop},
		eval.BuiltinCommand{Sig: ifSig, Fn: ifCmd},
		eval.BuiltinCommand{Sig: whileSig, Fn: while},
		eval.BuiltinCommand{Sig: loopSig, Fn: loop},
		eval.BuiltinCommand{Sig: breakSig, Fn: breakCmd},
		eval.BuiltinCommand{Sig: continueSig, Fn: continueCmd},
		eval.BuiltinCommand{Sig: returnSig, Fn: returnCmd},
		eval.BuiltinCommand{Sig: trySig, Fn: try},
		eval.BuiltinCommand{Sig: doSig, Fn: do},
		eval.BuiltinCommand{Sig: printSig, Fn: print},
		eval.BuiltinCommand{Sig: echoSig, Fn: echo},
		eval.BuiltinCommand{Sig: sleepSig, Fn: sleep},
		eval.BuiltinCommand{Sig: globSig, Fn: globCmd},
	} {
		ws.AddBuiltin(c)
	}
}

// The statement signatures declare no parameters: the parser consumes
// these statements itself and emits calls in a fixed layout.

func bindSig(name, desc string) *ast.Signature {
	return ast.NewSignature(name).WithDescription(desc)
}

func declSig(name, desc string) *ast.Signature {
	return ast.NewSignature(name).WithDescription(desc)
}

// let runs a let or mut statement: the parser emits the declared variable
// and the right side as the two positional arguments.
func let(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	vd := c.Positional[0].(*ast.VarDecl)
	v, err := eval.Expr(es, st, c.Positional[1])
	if err != nil {
		return nil, err
	}
	st.DefineVar(vd.ID, v)
	return engine.Empty, nil
}

// declared runs a statement whose whole effect happened at parse time.
func declared(*engine.EngineState, *engine.Stack, *ast.Call, engine.PipelineData) (engine.PipelineData, error) {
	return engine.Empty, nil
}

// source runs the block of a sourced file in the caller's frame. The file's
// declarations were already merged into the scope when it was parsed.
func source(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	be := c.Positional[0].(*ast.BlockExpr)
	data, err := eval.Block(es, st, es.Block(be.ID), engine.Empty)
	if err != nil {
		if ret, ok := err.(*eval.Return); ok {
			return ret.Data, nil
		}
		return nil, err
	}
	return data, nil
}

var forSig = ast.NewSignature("for").
	WithDescription("Run a block once per element of an iterable.").
	AddRequired("name", ast.ShapeString, "the loop variable").
	AddRequired("iterable", ast.ShapeMathExpr, "the list or range to iterate").
	AddRequired("body", ast.ShapeBlock, "the block to run per element")

func forLoop(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	vd := c.Positional[0].(*ast.VarDecl)
	iterable, err := eval.Expr(es, st, c.Positional[1])
	if err != nil {
		return nil, err
	}
	if !val.CanIterate(iterable) {
		return nil, errs.NotIterable{Kind: iterable.Kind().String()}
	}
	pull := engine.Pull(engine.One{Value: iterable})
	for {
		if err := es.Interrupt.Check(); err != nil {
			return nil, err
		}
		v, ok, err := pull()
		if err != nil {
			return nil, err
		}
		if !ok {
			return engine.Empty, nil
		}
		st.DefineVar(vd.ID, v)
		stop, err := runBody(es, st, c.Positional[2])
		if err != nil {
			return nil, err
		}
		if stop {
			return engine.Empty, nil
		}
	}
}

// runBody runs a loop body once, draining its output, and reports whether a
// break stopped the loop. A continue ends the single run and is absorbed
// here.
func runBody(es *engine.EngineState, st *engine.Stack, e ast.Expr) (bool, error) {
	be := e.(*ast.BlockExpr)
	data, err := eval.Block(es, st, es.Block(be.ID), engine.Empty)
	if err != nil {
		if f, ok := err.(eval.Flow); ok {
			return f == eval.Break, nil
		}
		return false, err
	}
	return false, eval.Drain(es, st, data)
}
