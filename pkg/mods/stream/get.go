package stream

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
)

var getSig = ast.NewSignature("get").
	WithDescription("Extract the cell at a path from the input.").
	AddRequired("path", ast.ShapeCellPath, "the cells to descend into, like user.name or 0")

// get collects its input so a path can descend into it. Key members read
// record fields and project columns across tables; index members read list
// elements.
func get(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	arg := c.Positional[0]
	p, ok := arg.(*ast.Path)
	if !ok || p.Head != nil {
		// The argument carries its own root, like $x.a; the input plays no
		// part.
		engine.Dispose(input)
		v, err := eval.Expr(es, st, arg)
		if err != nil {
			return nil, err
		}
		return engine.One{Value: v}, nil
	}
	v, err := engine.Collect(input, c.Ranging)
	if err != nil {
		return nil, err
	}
	out, err := eval.Index(es, st, v, p.Members)
	if err != nil {
		return nil, err
	}
	return engine.One{Value: out}, nil
}
