package engine

import (
	"io"
	"sort"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/val"
)

// Stack is the mutable side of an evaluation: variable bindings,
// environment overlays, the working directory and the byte output
// destinations, kept in a chain of frames. Exactly one goroutine owns a
// stack at a time; parallel iteration gives each worker its own frame via
// NewCallFrame, and a forked frame's writes are never visible to siblings
// or to the parent.
type Stack struct {
	parent *Stack
	// barrier stops variable lookup and assignment, making this frame the
	// root of a call. The env, dir and output chains continue past it.
	barrier bool

	vars map[ast.VarID]val.Value
	env  map[string]string
	dir  string
	out  io.Writer
	err  io.Writer

	// Traceback is the chain of active call sites, innermost first. The
	// evaluator maintains it.
	Traceback *Traceback
}

// Traceback is a linked list of source contexts for the active call
// sites, innermost first. Pushing never modifies existing nodes, so
// tracebacks form a tree towards the root and a captured traceback stays
// stable after the call returns.
type Traceback struct {
	Head *diag.Context
	Next *Traceback
}

// NewStack returns a root stack for one evaluation: no variable bindings,
// the environment seeded from the state's snapshot, byte output going to
// out and errw.
func (es *EngineState) NewStack(out, errw io.Writer) *Stack {
	return &Stack{
		vars: make(map[ast.VarID]val.Value),
		env:  es.EnvMap(),
		out:  out,
		err:  errw,
	}
}

// NewFrame returns a scratch child frame, used for redirections and for
// per-element state like $in. Lookups fall through to the receiver; new
// bindings die with the frame.
func (st *Stack) NewFrame() *Stack {
	return &Stack{
		parent:    st,
		vars:      make(map[ast.VarID]val.Value),
		Traceback: st.Traceback,
	}
}

// NewCallFrame returns a frame for running a called closure or a forked
// parallel worker. Variable lookup stops here, so the callee sees only
// its own bindings; seed captures and parameters with DefineVar. The env,
// dir and output chains still extend past the frame.
func (st *Stack) NewCallFrame() *Stack {
	return &Stack{
		parent:    st,
		barrier:   true,
		vars:      make(map[ast.VarID]val.Value),
		Traceback: st.Traceback,
	}
}

// DefineVar binds a variable in the current frame, shadowing any binding
// in enclosing frames.
func (st *Stack) DefineVar(id ast.VarID, v val.Value) { st.vars[id] = v }

// Var reads a variable, searching enclosing frames up to the nearest call
// barrier.
func (st *Stack) Var(id ast.VarID) (val.Value, bool) {
	for f := st; f != nil; f = f.varParent() {
		if v, ok := f.vars[id]; ok {
			return v, true
		}
	}
	return val.Value{}, false
}

// AssignVar overwrites a variable in the frame that owns it, searching up
// to the nearest call barrier. It reports whether a binding was found.
func (st *Stack) AssignVar(id ast.VarID, v val.Value) bool {
	for f := st; f != nil; f = f.varParent() {
		if _, ok := f.vars[id]; ok {
			f.vars[id] = v
			return true
		}
	}
	return false
}

func (st *Stack) varParent() *Stack {
	if st.barrier {
		return nil
	}
	return st.parent
}

// SetEnv writes an environment variable into the current frame's overlay.
// The write is seen by this frame and its descendants only.
func (st *Stack) SetEnv(name, value string) {
	if st.env == nil {
		st.env = make(map[string]string)
	}
	st.env[name] = value
}

// Env reads an environment variable, innermost overlay first.
func (st *Stack) Env(name string) (string, bool) {
	for f := st; f != nil; f = f.parent {
		if v, ok := f.env[name]; ok {
			return v, true
		}
	}
	return "", false
}

// EnvMap returns the full environment visible from this frame, with
// overlays applied.
func (st *Stack) EnvMap() map[string]string {
	var frames []*Stack
	for f := st; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	m := make(map[string]string)
	for i := len(frames) - 1; i >= 0; i-- {
		for k, v := range frames[i].env {
			m[k] = v
		}
	}
	return m
}

// Environ renders the visible environment in the form a subprocess wants,
// sorted by name.
func (st *Stack) Environ() []string {
	m := st.EnvMap()
	entries := make([]string, 0, len(m))
	for k, v := range m {
		entries = append(entries, k+"="+v)
	}
	sort.Strings(entries)
	return entries
}

// SetDir sets the working directory for this frame and its descendants.
func (st *Stack) SetDir(dir string) { st.dir = dir }

// Dir returns the effective working directory, or "" to mean the process
// working directory.
func (st *Stack) Dir() string {
	for f := st; f != nil; f = f.parent {
		if f.dir != "" {
			return f.dir
		}
	}
	return ""
}

// SetOut redirects byte output for this frame and its descendants.
func (st *Stack) SetOut(w io.Writer) { st.out = w }

// SetErr redirects error output for this frame and its descendants.
func (st *Stack) SetErr(w io.Writer) { st.err = w }

// Out returns the effective byte output destination.
func (st *Stack) Out() io.Writer {
	for f := st; f != nil; f = f.parent {
		if f.out != nil {
			return f.out
		}
	}
	return io.Discard
}

// Err returns the effective error output destination.
func (st *Stack) Err() io.Writer {
	for f := st; f != nil; f = f.parent {
		if f.err != nil {
			return f.err
		}
	}
	return io.Discard
}
