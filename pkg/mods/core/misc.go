package core

import (
	"fmt"
	"strings"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
)

var printSig = ast.NewSignature("print").
	WithDescription("Write the arguments as text, joined by spaces, without a trailing newline.").
	AddRest("values", ast.ShapeAny, "the values to write")

func print(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	args, err := eval.Bind(es, st, printSig, c)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(args.Rest))
	for i, v := range args.Rest {
		texts[i] = eval.ValueText(v)
	}
	_, err = fmt.Fprint(st.Out(), strings.Join(texts, " "))
	return engine.Empty, err
}

var echoSig = ast.NewSignature("echo").
	WithDescription("Output the arguments as pipeline values.").
	AddRest("values", ast.ShapeAny, "the values to output")

func echo(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	args, err := eval.Bind(es, st, echoSig, c)
	if err != nil {
		return nil, err
	}
	switch len(args.Rest) {
	case 0:
		return engine.Empty, nil
	case 1:
		return engine.One{Value: args.Rest[0]}, nil
	}
	return engine.NewSliceStream(es.Interrupt, engine.Metadata{}, args.Rest), nil
}

var sleepSig = ast.NewSignature("sleep").
	WithDescription("Pause for a duration.").
	AddRequired("duration", ast.ShapeDuration, "how long to pause")

// sleep waits in short slices so an interrupt cuts the pause short.
func sleep(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	args, err := eval.Bind(es, st, sleepSig, c)
	if err != nil {
		return nil, err
	}
	d, err := args.Positional[0].AsDuration()
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(d)
	for {
		if err := es.Interrupt.Check(); err != nil {
			return nil, err
		}
		left := time.Until(deadline)
		if left <= 0 {
			return engine.Empty, nil
		}
		if left > 50*time.Millisecond {
			left = 50 * time.Millisecond
		}
		time.Sleep(left)
	}
}
