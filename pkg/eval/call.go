package eval

import (
	"fmt"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/val"
)

// call runs a resolved command call. Commands defined with def are run
// directly by the evaluator; everything else dispatches to the command's
// Run method.
func call(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	cmd := es.Decl(c.Decl)
	if dc, ok := cmd.(engine.DeprecatedCommand); ok {
		deprecate(es, st, c, dc.Deprecated())
	}
	if uc, ok := cmd.(*engine.UserCommand); ok {
		return userCall(es, st, uc, c, input)
	}
	data, err := cmd.Run(es, st, c, input)
	return data, wrapError(es, st, c.Ranging, err)
}

type deprecationTag struct{}

func (deprecationTag) ErrorTag() string { return "deprecation" }

// deprecate warns about a deprecated command on the stack's error stream.
// Each call site warns at most once per interpreter.
func deprecate(es *engine.EngineState, st *engine.Stack, c *ast.Call, msg string) {
	if !es.Deprecations.Register(c.Head) {
		return
	}
	if ctx := es.Context(c.Head); ctx != nil {
		warning := &diag.Error[deprecationTag]{Message: msg, Context: *ctx}
		fmt.Fprintln(st.Err(), warning.Show(""))
	} else {
		fmt.Fprintf(st.Err(), "deprecation: %s\n", msg)
	}
}

// userCall runs a command defined with def. The arguments are evaluated in
// the caller's frame; the body runs behind a call barrier with only the
// parameters bound, and receives the caller's pipeline input.
func userCall(es *engine.EngineState, st *engine.Stack, cmd *engine.UserCommand, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	sig := cmd.Sig
	args, err := Bind(es, st, sig, c)
	if err != nil {
		return nil, err
	}

	frame := st.NewCallFrame()
	if ctx := es.Context(c.Ranging); ctx != nil {
		frame.Traceback = &engine.Traceback{Head: ctx, Next: frame.Traceback}
	}
	for i := range sig.Positional {
		param := &sig.Positional[i]
		if param.Name != "" {
			frame.DefineVar(param.ID, args.Positional[i])
		}
	}
	if sig.Rest != nil {
		frame.DefineVar(sig.Rest.ID, val.MakeList(c.Ranging, args.Rest...))
	}
	for i := range sig.Named {
		fl := &sig.Named[i]
		v, ok := args.flags[fl.Long]
		if !ok {
			if fl.Switch {
				v = val.Bool(false, c.Ranging)
			} else {
				v = val.Nothing(c.Ranging)
			}
		}
		frame.DefineVar(fl.ID, v)
	}

	data, err := Block(es, frame, es.Block(cmd.Body), input)
	if err != nil {
		switch e := err.(type) {
		case *Return:
			return e.Data, nil
		case Flow:
			return nil, wrapError(es, st, c.Ranging, outsideLoop(e))
		}
		return nil, err
	}
	return data, nil
}
