package engine

import "src.kelp.sh/pkg/ast"

// Scope maps names to entity IDs for one lexical scope.
type Scope struct {
	Cmds    map[string]ast.DeclID
	Vars    map[string]ast.VarID
	Modules map[string]ast.ModuleID
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{
		Cmds:    make(map[string]ast.DeclID),
		Vars:    make(map[string]ast.VarID),
		Modules: make(map[string]ast.ModuleID),
	}
}

// extend returns a new scope with d's bindings laid over sc's. Neither
// input is modified.
func (sc *Scope) extend(d *Scope) *Scope {
	out := NewScope()
	for k, v := range sc.Cmds {
		out.Cmds[k] = v
	}
	for k, v := range d.Cmds {
		out.Cmds[k] = v
	}
	for k, v := range sc.Vars {
		out.Vars[k] = v
	}
	for k, v := range d.Vars {
		out.Vars[k] = v
	}
	for k, v := range sc.Modules {
		out.Modules[k] = v
	}
	for k, v := range d.Modules {
		out.Modules[k] = v
	}
	return out
}
