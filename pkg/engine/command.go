package engine

import (
	"fmt"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
)

// Command is implemented by every callable declaration. Run receives the
// engine snapshot the evaluation reads, the caller's stack, the resolved
// call carrying the argument expressions, and the pipeline input.
//
// Dispatch is an arena lookup by DeclID; names only matter at parse time.
type Command interface {
	// Signature describes the command's name, parameters and flags.
	Signature() *ast.Signature
	Run(es *EngineState, st *Stack, call *ast.Call, input PipelineData) (PipelineData, error)
}

// DeprecatedCommand marks a command as deprecated. The evaluator reports
// the message the first time the command runs.
type DeprecatedCommand interface {
	Deprecated() string
}

// UserCommand is a command defined with def. The evaluator recognizes it
// and runs its body directly; Run exists only to satisfy Command.
type UserCommand struct {
	Sig  *ast.Signature
	Body ast.BlockID
}

// Signature returns the signature declared by def.
func (c *UserCommand) Signature() *ast.Signature { return c.Sig }

func (c *UserCommand) Run(es *EngineState, st *Stack, call *ast.Call, input PipelineData) (PipelineData, error) {
	return nil, fmt.Errorf("bug: user command %s not dispatched by the evaluator", c.Sig.Name)
}

// Alias is a parse-time command substitution. Calls never reach it; the
// parser expands the replacement text in place.
type Alias struct {
	Sig *ast.Signature
	// Def is the replacement source text and DefRange its zone in the
	// global span space. Expansion lexes Def at that offset, so
	// diagnostics in expanded text point at the definition site.
	Def      string
	DefRange diag.Ranging
}

// Signature returns a name-only signature for the alias.
func (a *Alias) Signature() *ast.Signature { return a.Sig }

func (a *Alias) Run(es *EngineState, st *Stack, call *ast.Call, input PipelineData) (PipelineData, error) {
	return nil, fmt.Errorf("bug: alias %s not expanded by the parser", a.Sig.Name)
}
