package eval

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
)

// BuiltinCommand adapts a Go function into an engine.Command. The function
// receives the raw call; most implementations start by passing it to Bind,
// while commands that run blocks conditionally read the call's expressions
// directly.
type BuiltinCommand struct {
	Sig *ast.Signature
	Fn  func(*engine.EngineState, *engine.Stack, *ast.Call, engine.PipelineData) (engine.PipelineData, error)
}

func (b BuiltinCommand) Signature() *ast.Signature { return b.Sig }

func (b BuiltinCommand) Run(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	return b.Fn(es, st, c, input)
}

// Deprecate wraps a command so that calling it emits msg as a deprecation
// warning, once per call site.
func Deprecate(cmd engine.Command, msg string) engine.Command {
	return deprecatedCommand{cmd, msg}
}

type deprecatedCommand struct {
	engine.Command
	msg string
}

func (d deprecatedCommand) Deprecated() string { return d.msg }
