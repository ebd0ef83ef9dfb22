package core

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/glob"
	"src.kelp.sh/pkg/val"
)

var globSig = ast.NewSignature("glob").
	WithDescription("Expand a pattern against the file system and output the matching paths.").
	AddRequired("pattern", ast.ShapeString, "the pattern to expand").
	AddSwitch("hidden", 'h', "let wildcards match names starting with a dot")

// globCmd walks the file system eagerly, so the expansion happens in the
// working directory the command ran in, not wherever the output ends up
// being consumed. Directory entries come back sorted, so the output order
// is stable.
func globCmd(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	args, err := eval.Bind(es, st, globSig, c)
	if err != nil {
		return nil, err
	}
	pattern, err := args.Positional[0].AsString()
	if err != nil {
		return nil, err
	}
	var matches []val.Value
	var interrupted error
	glob.Glob(pattern, args.Switch("hidden"), func(name string) bool {
		if err := es.Interrupt.Check(); err != nil {
			interrupted = err
			return false
		}
		matches = append(matches, val.String(name, c.Ranging))
		return true
	})
	if interrupted != nil {
		return nil, interrupted
	}
	return engine.NewSliceStream(es.Interrupt, engine.Metadata{}, matches), nil
}
