// Package math implements the math commands, reducing a stream of numbers
// to a statistic.
package math

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/val"
)

// Install adds the math commands to the working set.
func Install(ws *engine.WorkingSet) {
	for _, c := range []engine.Command{
		eval.BuiltinCommand{Sig: meanSig, Fn: mean},
		eval.BuiltinCommand{Sig: varianceSig, Fn: variance},
	} {
		ws.AddBuiltin(c)
	}
}

var meanSig = ast.NewSignature("math mean").
	WithDescription("Output the mean of the input numbers.")

func mean(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	sum, _, n, err := moments(es, "'math mean'", input)
	if err != nil {
		return nil, err
	}
	return engine.One{Value: val.Float(sum/float64(n), c.Ranging)}, nil
}

var varianceSig = ast.NewSignature("math variance").
	WithDescription("Output the population variance of the input numbers.")

func variance(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	sum, sumsq, n, err := moments(es, "'math variance'", input)
	if err != nil {
		return nil, err
	}
	m := sum / float64(n)
	return engine.One{Value: val.Float(sumsq/float64(n)-m*m, c.Ranging)}, nil
}

// moments consumes the input, accumulating the count, the sum and the sum
// of squares. Every element must coerce to a number and there must be at
// least one.
func moments(es *engine.EngineState, what string, input engine.PipelineData) (sum, sumsq float64, n int64, err error) {
	if engine.Unbounded(input) {
		return 0, 0, 0, errs.InfiniteRange{What: what}
	}
	var convErr error
	err = engine.Elements(es.Interrupt, input, func(v val.Value) bool {
		f, cerr := v.CoerceFloat()
		if cerr != nil {
			convErr = cerr
			return false
		}
		n++
		sum += f
		sumsq += f * f
		return true
	})
	if err == nil {
		err = convErr
	}
	if err != nil {
		return 0, 0, 0, err
	}
	if n == 0 {
		return 0, 0, 0, errs.BadValue{
			What: "input to " + what, Valid: "at least one number", Actual: "an empty stream",
		}
	}
	return sum, sumsq, n, nil
}
