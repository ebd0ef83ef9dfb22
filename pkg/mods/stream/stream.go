// Package stream implements commands that transform or consume pipeline
// value streams.
package stream

import (
	"strconv"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/val"
)

// Install adds the stream commands to the working set.
func Install(ws *engine.WorkingSet) {
	for _, c := range []engine.Command{
		eval.BuiltinCommand{Sig: eachSig, Fn: each},
		eval.BuiltinCommand{Sig: parEachSig, Fn: parEach},
		eval.BuiltinCommand{Sig: firstSig, Fn: first},
		eval.BuiltinCommand{Sig: getSig, Fn: get},
		eval.BuiltinCommand{Sig: lengthSig, Fn: length},
		eval.BuiltinCommand{Sig: collectSig, Fn: collect},
		eval.Deprecate(eval.BuiltinCommand{Sig: countSig, Fn: length},
			"'count' is deprecated; use 'length' instead"),
	} {
		ws.AddBuiltin(c)
	}
}

var firstSig = ast.NewSignature("first").
	WithDescription("Output the first element, or with a count, the first count elements.").
	AddOptional("count", ast.ShapeInt, "how many elements to take")

// first pulls only what it outputs, so it finishes on endless input.
func first(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	// The elements past the taken ones are never read; let their producer
	// go.
	defer engine.Dispose(input)
	pull := engine.Pull(input)
	if len(c.Positional) == 0 {
		v, ok, err := pull()
		if err != nil {
			return nil, err
		}
		if !ok {
			return engine.Empty, nil
		}
		return engine.One{Value: v}, nil
	}
	nv, err := eval.Expr(es, st, c.Positional[0])
	if err != nil {
		return nil, err
	}
	n, err := nv.AsInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errs.OutOfRange{
			What: "count", ValidLow: "0", ValidHigh: "+inf",
			Actual: strconv.FormatInt(n, 10),
		}
	}
	var vs []val.Value
	for int64(len(vs)) < n {
		if err := es.Interrupt.Check(); err != nil {
			return nil, err
		}
		v, ok, err := pull()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		vs = append(vs, v)
	}
	return engine.NewSliceStream(es.Interrupt, engine.Meta(input), vs), nil
}

var lengthSig = ast.NewSignature("length").
	WithDescription("Count the elements of the input.")

var countSig = ast.NewSignature("count").
	WithDescription("Count the elements of the input. Deprecated; use length.")

func length(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	if engine.Unbounded(input) {
		return nil, errs.InfiniteRange{What: "'length'"}
	}
	var n int64
	err := engine.Elements(es.Interrupt, input, func(val.Value) bool {
		n++
		return true
	})
	if err != nil {
		return nil, err
	}
	return engine.One{Value: val.Int(n, c.Ranging)}, nil
}

var collectSig = ast.NewSignature("collect").
	WithDescription("Materialize the input stream into a single value.")

func collect(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	if engine.Unbounded(input) {
		return nil, errs.InfiniteRange{What: "'collect'"}
	}
	// A range is lazy even as a single value; expand it like a stream.
	if one, ok := input.(engine.One); ok && one.Value.Kind() == val.KindRange {
		list := val.EmptyList
		pull := engine.Pull(input)
		for {
			v, ok, err := pull()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			list = list.Conj(v)
		}
		return engine.One{Value: val.NewList(list, c.Ranging)}, nil
	}
	v, err := engine.Collect(input, c.Ranging)
	if err != nil {
		return nil, err
	}
	return engine.One{Value: v}, nil
}
