package engine

import (
	"sort"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
)

// StateDelta holds everything one parse added: new entities for each arena
// and the names bound at the top level. It is built through a WorkingSet
// and committed with EngineState.MergeDelta; dropping it instead undoes
// the whole parse.
type StateDelta struct {
	Files   []*SourceFile
	Blocks  []*ast.Block
	Decls   []Command
	Vars    []Variable
	Modules []*Module
	// Scope holds the top-level name bindings of the parse.
	Scope *Scope
}

// WorkingSet is the parser's view of the engine state: the immutable Base
// snapshot, the delta being built from the current input, and a stack of
// lexical scopes for the blocks being parsed. Everything a parse creates
// lands in the delta; the base is never touched.
//
// IDs handed out by the Add methods continue the base's numbering, so they
// address the same entities after the delta is merged.
type WorkingSet struct {
	Base   *EngineState
	delta  *StateDelta
	scopes []*Scope
}

// NewWorkingSet returns a working set over the given base snapshot. The
// initial scope collects top-level bindings and is rendered into the
// delta.
func NewWorkingSet(base *EngineState) *WorkingSet {
	d := &StateDelta{Scope: NewScope()}
	return &WorkingSet{base, d, []*Scope{d.Scope}}
}

// Render returns the delta built so far. The working set should not be
// used afterwards.
func (ws *WorkingSet) Render() *StateDelta { return ws.delta }

// AddFile registers a unit of source text, assigning it the next free zone
// of the global span space. Lexing the text with an offset of f.From makes
// every span in it globally unique.
func (ws *WorkingSet) AddFile(name, code string) (ast.FileID, *SourceFile) {
	start := ws.SrcEnd()
	f := &SourceFile{
		Name: name, Code: code,
		Ranging: diag.Ranging{From: start, To: start + len(code)},
	}
	id := ast.FileID(ws.Base.NumFiles() + len(ws.delta.Files))
	ws.delta.Files = append(ws.delta.Files, f)
	return id, f
}

// SrcEnd returns the first unassigned offset of the global span space,
// counting files already added to the delta.
func (ws *WorkingSet) SrcEnd() int {
	if n := len(ws.delta.Files); n > 0 {
		return ws.delta.Files[n-1].To
	}
	return ws.Base.SrcEnd()
}

// AddBlock adds a block and returns its ID.
func (ws *WorkingSet) AddBlock(b *ast.Block) ast.BlockID {
	id := ast.BlockID(ws.Base.NumBlocks() + len(ws.delta.Blocks))
	ws.delta.Blocks = append(ws.delta.Blocks, b)
	return id
}

// AddDecl adds a command declaration and returns its ID. The name is not
// bound; pair with BindCmd, or use AddBuiltin.
func (ws *WorkingSet) AddDecl(c Command) ast.DeclID {
	id := ast.DeclID(ws.Base.NumDecls() + len(ws.delta.Decls))
	ws.delta.Decls = append(ws.delta.Decls, c)
	return id
}

// AddVariable adds a variable and returns its ID.
func (ws *WorkingSet) AddVariable(v Variable) ast.VarID {
	id := ast.VarID(ws.Base.NumVars() + len(ws.delta.Vars))
	ws.delta.Vars = append(ws.delta.Vars, v)
	return id
}

// AddModule adds a module and returns its ID.
func (ws *WorkingSet) AddModule(m *Module) ast.ModuleID {
	id := ast.ModuleID(ws.Base.NumModules() + len(ws.delta.Modules))
	ws.delta.Modules = append(ws.delta.Modules, m)
	return id
}

// AddBuiltin adds a command declaration and binds it in the current scope
// under its signature name.
func (ws *WorkingSet) AddBuiltin(c Command) ast.DeclID {
	id := ws.AddDecl(c)
	ws.BindCmd(c.Signature().Name, id)
	return id
}

// File returns the file addressed by id, whether it lives in the base or
// in the delta.
func (ws *WorkingSet) File(id ast.FileID) *SourceFile {
	if n := ws.Base.NumFiles(); int(id) >= n {
		return ws.delta.Files[int(id)-n]
	}
	return ws.Base.File(id)
}

// Block returns the block addressed by id, whether it lives in the base
// or in the delta.
func (ws *WorkingSet) Block(id ast.BlockID) *ast.Block {
	if n := ws.Base.NumBlocks(); int(id) >= n {
		return ws.delta.Blocks[int(id)-n]
	}
	return ws.Base.Block(id)
}

// Decl returns the declaration addressed by id, whether it lives in the
// base or in the delta.
func (ws *WorkingSet) Decl(id ast.DeclID) Command {
	if n := ws.Base.NumDecls(); int(id) >= n {
		return ws.delta.Decls[int(id)-n]
	}
	return ws.Base.Decl(id)
}

// Variable returns the variable addressed by id, whether it lives in the
// base or in the delta.
func (ws *WorkingSet) Variable(id ast.VarID) Variable {
	if n := ws.Base.NumVars(); int(id) >= n {
		return ws.delta.Vars[int(id)-n]
	}
	return ws.Base.Variable(id)
}

// Module returns the module addressed by id, whether it lives in the base
// or in the delta.
func (ws *WorkingSet) Module(id ast.ModuleID) *Module {
	if n := ws.Base.NumModules(); int(id) >= n {
		return ws.delta.Modules[int(id)-n]
	}
	return ws.Base.Module(id)
}

// PushScope enters a lexical scope. Bindings made in it disappear at the
// matching PopScope; entities stay in the delta either way.
func (ws *WorkingSet) PushScope() {
	ws.scopes = append(ws.scopes, NewScope())
}

// PopScope leaves the innermost scope.
func (ws *WorkingSet) PopScope() {
	ws.scopes = ws.scopes[:len(ws.scopes)-1]
}

func (ws *WorkingSet) top() *Scope { return ws.scopes[len(ws.scopes)-1] }

// BindCmd binds a command name in the current scope.
func (ws *WorkingSet) BindCmd(name string, id ast.DeclID) {
	ws.top().Cmds[name] = id
}

// BindVar binds a variable name in the current scope.
func (ws *WorkingSet) BindVar(name string, id ast.VarID) {
	ws.top().Vars[name] = id
}

// BindModule binds a module name in the current scope.
func (ws *WorkingSet) BindModule(name string, id ast.ModuleID) {
	ws.top().Modules[name] = id
}

// FindDecl resolves a command name, looking through the scope stack
// innermost first and then the base's global scope.
func (ws *WorkingSet) FindDecl(name string) (ast.DeclID, bool) {
	for i := len(ws.scopes) - 1; i >= 0; i-- {
		if id, ok := ws.scopes[i].Cmds[name]; ok {
			return id, true
		}
	}
	id, ok := ws.Base.global.Cmds[name]
	return id, ok
}

// FindVar resolves a variable name, looking through the scope stack
// innermost first and then the base's global scope.
func (ws *WorkingSet) FindVar(name string) (ast.VarID, bool) {
	id, _, ok := ws.FindVarScope(name)
	return id, ok
}

// FindVarScope resolves a variable name like FindVar and also reports
// which scope holds the binding: the index into the scope stack, or -1 for
// the base's global scope. The parser uses the index to compute closure
// captures and def-body visibility.
func (ws *WorkingSet) FindVarScope(name string) (ast.VarID, int, bool) {
	for i := len(ws.scopes) - 1; i >= 0; i-- {
		if id, ok := ws.scopes[i].Vars[name]; ok {
			return id, i, true
		}
	}
	if id, ok := ws.Base.global.Vars[name]; ok {
		return id, -1, true
	}
	return 0, 0, false
}

// NumScopes returns the current depth of the scope stack.
func (ws *WorkingSet) NumScopes() int { return len(ws.scopes) }

// FindModule resolves a module name, looking through the scope stack
// innermost first and then the base's global scope.
func (ws *WorkingSet) FindModule(name string) (ast.ModuleID, bool) {
	for i := len(ws.scopes) - 1; i >= 0; i-- {
		if id, ok := ws.scopes[i].Modules[name]; ok {
			return id, true
		}
	}
	id, ok := ws.Base.global.Modules[name]
	return id, ok
}

// CmdNames returns every command name visible from the current scope,
// sorted, for spelling suggestions.
func (ws *WorkingSet) CmdNames() []string {
	seen := make(map[string]bool)
	for _, sc := range ws.scopes {
		for name := range sc.Cmds {
			seen[name] = true
		}
	}
	for name := range ws.Base.global.Cmds {
		seen[name] = true
	}
	return sortedKeys(seen)
}

// VarNames returns every variable name visible from the current scope,
// sorted, for spelling suggestions.
func (ws *WorkingSet) VarNames() []string {
	seen := make(map[string]bool)
	for _, sc := range ws.scopes {
		for name := range sc.Vars {
			seen[name] = true
		}
	}
	for name := range ws.Base.global.Vars {
		seen[name] = true
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
