package eval

import (
	"io"

	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/parse"
)

// Session drives successive evaluations against one evolving engine state.
// Script runners, the REPL and tests feed it source units; each unit parses
// against a fork of the current state, merges its declarations, and only
// then runs. The root stack is shared by all units, so variables bound by
// one unit are visible to the next.
type Session struct {
	state *engine.EngineState
	stack *engine.Stack
}

// NewSession returns a session over a fresh engine state, with byte output
// going to out and errw.
func NewSession(out, errw io.Writer) *Session {
	es := engine.NewEngineState()
	return &Session{state: es, stack: es.NewStack(out, errw)}
}

// State returns the current engine state snapshot.
func (s *Session) State() *engine.EngineState { return s.state }

// Stack returns the root stack shared by the session's source units.
func (s *Session) Stack() *engine.Stack { return s.stack }

// Extend runs install on a working set forked from the current state and
// merges the result. Callers use it to add builtin commands before
// evaluating anything.
func (s *Session) Extend(install func(*engine.WorkingSet)) {
	ws := engine.NewWorkingSet(s.state)
	install(ws)
	s.state = s.state.MergeDelta(ws.Render())
}

// Check parses one source unit against a fork of the current state and
// reports its parse errors. Nothing is merged, so checking has no effect
// on later evaluations.
func (s *Session) Check(name, src string) error {
	ws := engine.NewWorkingSet(s.state)
	_, err := parse.Parse(ws, name, src, false)
	return err
}

// Eval parses one source unit, merges its declarations and runs it. When
// the parse fails nothing is merged or run.
//
// The returned pipeline data is the output of the unit's final pipeline.
// Streams in it are unconsumed; the caller renders or [Drain]s them. A
// top-level return ends the unit and its data becomes the output, while a
// top-level break or continue is an error.
func (s *Session) Eval(name, src string) (engine.PipelineData, error) {
	ws := engine.NewWorkingSet(s.state)
	block, err := parse.Parse(ws, name, src, false)
	if err != nil {
		return nil, err
	}
	s.state = s.state.MergeDelta(ws.Render())
	data, err := Block(s.state, s.stack, block, engine.Empty)
	if err != nil {
		switch e := err.(type) {
		case *Return:
			return e.Data, nil
		case Flow:
			return nil, &Exception{Reason: outsideLoop(e), Ranging: block.Ranging}
		}
		return nil, err
	}
	return data, nil
}
