package eval

import (
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/val"
)

// Apply runs a callable value with the given arguments and pipeline input.
//
// A closure runs behind a call barrier, seeing only its parameters and its
// captured variables. A block takes no arguments and runs in the caller's
// frame, so assignments inside it are visible to the caller; return and the
// loop signals pass through it.
func Apply(es *engine.EngineState, st *engine.Stack, fn val.Value, args []val.Value, input engine.PipelineData) (engine.PipelineData, error) {
	switch fn.Kind() {
	case val.KindClosure:
		cl, err := fn.AsClosure()
		if err != nil {
			return nil, wrapError(es, st, fn.Range(), err)
		}
		return ApplyClosure(es, st, cl, fn.Range(), args, input)
	case val.KindBlock:
		id, err := fn.AsBlock()
		if err != nil {
			return nil, wrapError(es, st, fn.Range(), err)
		}
		if len(args) > 0 {
			return nil, wrapError(es, st, fn.Range(), errs.ArityMismatch{
				What: "arguments to a block", ValidLow: 0, ValidHigh: 0, Actual: len(args)})
		}
		return Block(es, st, es.Block(id), input)
	}
	return nil, wrapError(es, st, fn.Range(), errs.BadValue{
		What: "command to run", Valid: "closure or block", Actual: fn.Kind().String()})
}

// ApplyClosure runs a closure in a fresh call frame, with its captures
// seeded and args bound to its parameters. A return from the body ends the
// closure and yields the returned data.
func ApplyClosure(es *engine.EngineState, st *engine.Stack, cl *val.Closure, r diag.Ranging, args []val.Value, input engine.PipelineData) (engine.PipelineData, error) {
	block := es.Block(cl.Block)
	sig := block.Signature
	if len(args) != len(sig.Positional) {
		n := len(sig.Positional)
		return nil, wrapError(es, st, r, errs.ArityMismatch{
			What: "arguments to the closure", ValidLow: n, ValidHigh: n, Actual: len(args)})
	}

	frame := st.NewCallFrame()
	if ctx := es.Context(r); ctx != nil {
		frame.Traceback = &engine.Traceback{Head: ctx, Next: frame.Traceback}
	}
	for id, v := range cl.Captures {
		frame.DefineVar(id, v)
	}
	for i := range sig.Positional {
		frame.DefineVar(sig.Positional[i].ID, args[i])
	}

	data, err := Block(es, frame, block, input)
	if err != nil {
		if ret, ok := err.(*Return); ok {
			return ret.Data, nil
		}
		return nil, err
	}
	return data, nil
}
