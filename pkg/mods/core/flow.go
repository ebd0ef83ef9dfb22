package core

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/val"
)

// The flow commands read their argument expressions from the call instead
// of going through Bind: their blocks must run zero or more times depending
// on conditions, and an else branch may hold a nested if call that must not
// be evaluated eagerly.

var ifSig = ast.NewSignature("if").
	WithDescription("Run a block when a condition holds, or an else branch otherwise.").
	AddRequired("condition", ast.ShapeMathExpr, "the condition to test").
	AddRequired("then", ast.ShapeBlock, "the block to run when the condition holds").
	AddKeyword("else", "alternative", ast.ShapeBlock, "the block or chained if to run otherwise")

func ifCmd(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	b, err := condition(es, st, c.Positional[0])
	if err != nil {
		engine.Dispose(input)
		return nil, err
	}
	if b {
		return branch(es, st, c.Positional[1], input)
	}
	if len(c.Positional) > 2 {
		return branch(es, st, c.Positional[2], input)
	}
	// No branch ran; nothing will read the input.
	engine.Dispose(input)
	return engine.Empty, nil
}

// condition evaluates a condition expression to a bool.
func condition(es *engine.EngineState, st *engine.Stack, e ast.Expr) (bool, error) {
	v, err := eval.Expr(es, st, e)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// branch runs one branch of a flow command. A block argument runs in the
// caller's frame with the command's input; anything else, like the nested
// call of an else-if chain, evaluates as a pipeline stage.
func branch(es *engine.EngineState, st *engine.Stack, e ast.Expr, input engine.PipelineData) (engine.PipelineData, error) {
	if kw, ok := e.(*ast.Keyword); ok {
		e = kw.Expr
	}
	if be, ok := e.(*ast.BlockExpr); ok {
		return eval.Block(es, st, es.Block(be.ID), input)
	}
	return eval.Data(es, st, e, input)
}

var whileSig = ast.NewSignature("while").
	WithDescription("Run a block as long as a condition holds.").
	AddRequired("condition", ast.ShapeMathExpr, "the condition retested before every run").
	AddRequired("body", ast.ShapeBlock, "the block to run")

func while(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	// The body sees no input; release any producer feeding the command.
	engine.Dispose(input)
	for {
		if err := es.Interrupt.Check(); err != nil {
			return nil, err
		}
		b, err := condition(es, st, c.Positional[0])
		if err != nil {
			return nil, err
		}
		if !b {
			return engine.Empty, nil
		}
		stop, err := runBody(es, st, c.Positional[1])
		if err != nil {
			return nil, err
		}
		if stop {
			return engine.Empty, nil
		}
	}
}

var loopSig = ast.NewSignature("loop").
	WithDescription("Run a block forever, until a break or an error.").
	AddRequired("body", ast.ShapeBlock, "the block to run")

func loop(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	engine.Dispose(input)
	for {
		if err := es.Interrupt.Check(); err != nil {
			return nil, err
		}
		stop, err := runBody(es, st, c.Positional[0])
		if err != nil {
			return nil, err
		}
		if stop {
			return engine.Empty, nil
		}
	}
}

var breakSig = ast.NewSignature("break").
	WithDescription("Stop the nearest enclosing loop.")

func breakCmd(*engine.EngineState, *engine.Stack, *ast.Call, engine.PipelineData) (engine.PipelineData, error) {
	return nil, eval.Break
}

var continueSig = ast.NewSignature("continue").
	WithDescription("Skip to the next run of the nearest enclosing loop.")

func continueCmd(*engine.EngineState, *engine.Stack, *ast.Call, engine.PipelineData) (engine.PipelineData, error) {
	return nil, eval.Continue
}

var returnSig = ast.NewSignature("return").
	WithDescription("Return from the enclosing command or closure.").
	AddOptional("value", ast.ShapeMathExpr, "the value to return")

func returnCmd(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	if len(c.Positional) == 0 {
		return nil, &eval.Return{Data: engine.Empty}
	}
	v, err := eval.Expr(es, st, c.Positional[0])
	if err != nil {
		return nil, err
	}
	return nil, &eval.Return{Data: engine.One{Value: v}}
}

var trySig = ast.NewSignature("try").
	WithDescription("Run a block, catching any error it raises.").
	AddRequired("body", ast.ShapeBlock, "the block to run").
	AddKeyword("catch", "handler", ast.ShapeClosure, "closure run with the error when the body fails")

func try(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	be := c.Positional[0].(*ast.BlockExpr)
	data, err := eval.Block(es, st, es.Block(be.ID), input)
	if err == nil {
		return data, nil
	}
	if uncatchable(err) {
		return nil, err
	}
	if len(c.Positional) < 2 {
		return engine.Empty, nil
	}
	return catch(es, st, c.Positional[1].(*ast.Keyword), err)
}

// uncatchable reports errors that try and do must not swallow: control flow
// signals and interruption.
func uncatchable(err error) bool {
	switch err.(type) {
	case eval.Flow, *eval.Return:
		return true
	}
	_, interrupted := eval.Reason(err).(errs.Interrupted)
	return interrupted
}

// catch runs a try handler. A handler with a parameter receives the error
// value as its argument; one without sees it as its input.
func catch(es *engine.EngineState, st *engine.Stack, kw *ast.Keyword, caught error) (engine.PipelineData, error) {
	handler, err := eval.Expr(es, st, kw.Expr)
	if err != nil {
		return nil, err
	}
	cl, err := handler.AsClosure()
	if err != nil {
		return nil, err
	}
	r := kw.Expr.Range()
	if exc, ok := caught.(*eval.Exception); ok {
		r = exc.Ranging
	}
	errVal := val.Error(eval.Reason(caught), r)
	if len(es.Block(cl.Block).Signature.Positional) > 0 {
		return eval.ApplyClosure(es, st, cl, kw.Ranging, []val.Value{errVal}, engine.Empty)
	}
	return eval.ApplyClosure(es, st, cl, kw.Ranging, nil, engine.One{Value: errVal})
}

var doSig = ast.NewSignature("do").
	WithDescription("Run a closure with the given arguments.").
	AddRequired("fn", ast.ShapeAny, "the closure or block to run").
	AddRest("args", ast.ShapeAny, "arguments passed to the closure").
	AddSwitch("continue", 'c', "return nothing instead of failing when the closure fails")

func do(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	args, err := eval.Bind(es, st, doSig, c)
	if err != nil {
		return nil, err
	}
	data, err := eval.Apply(es, st, args.Positional[0], args.Rest, input)
	if err != nil && args.Switch("continue") && !uncatchable(err) {
		return engine.Empty, nil
	}
	return data, err
}
