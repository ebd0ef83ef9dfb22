// Package engine defines the long-lived interpreter state and the types
// shared between the parser and the evaluator: engine state snapshots with
// their entity arenas, the working set overlay built during a parse, the
// per-evaluation stack, pipeline data, and the command contract.
//
// An EngineState is a snapshot and is never modified. Committing a parse
// produces a new snapshot via MergeDelta; evaluations in flight keep
// reading the snapshot they started with. The arenas are persistent
// vectors, so snapshots share structure and a merge costs only the delta.
package engine

import (
	"os"
	"sort"
	"strings"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/persistent/vector"
)

// Reserved variables, present in every engine state. InVarID is $in, the
// pipeline input of the enclosing pipeline element; EnvVarID is $env, the
// environment table. Neither can be redeclared or assigned.
const (
	InVarID ast.VarID = iota
	EnvVarID

	numReservedVars
)

// Variable describes a declared variable.
type Variable struct {
	// Shape is the declared type; ShapeAny when the declaration carries no
	// annotation.
	Shape ast.SyntaxShape
	// Mutable reports whether the variable was declared with mut.
	Mutable bool
	// Ranging is the declaration site.
	diag.Ranging
}

// Module is a named set of exported declarations.
type Module struct {
	Name string
	// Exports maps exported command names to their declarations.
	Exports map[string]ast.DeclID
}

// SourceFile is one registered unit of source text. Its Ranging is the
// zone of the global span space the unit owns: From is the global offset
// of the first byte of Code, To is From+len(Code). Zones are contiguous
// and ascending, so any known global offset identifies exactly one file.
type SourceFile struct {
	Name string
	Code string
	diag.Ranging
}

// Config holds presentation settings carried by the engine state.
type Config struct {
	// ValuePrefix is printed before each value echoed at the REPL.
	ValuePrefix string
}

// EngineState is one snapshot of the interpreter state: the entity arenas,
// the global scope, the environment snapshot and the interrupt flag.
// Create with NewEngineState and evolve with MergeDelta; the snapshot
// itself never changes, so it may be read concurrently.
type EngineState struct {
	files   vector.Vector
	blocks  vector.Vector
	decls   vector.Vector
	vars    vector.Vector
	modules vector.Vector

	global *Scope
	env    map[string]string

	// Interrupt is the cancellation flag, shared by every snapshot of one
	// interpreter.
	Interrupt *Interrupt
	// Deprecations records which deprecated call sites have been reported,
	// shared like Interrupt.
	Deprecations *Deprecations
	// Config holds presentation settings.
	Config Config
}

// NewEngineState returns a fresh engine state holding only the reserved
// variables and a snapshot of the process environment.
func NewEngineState() *EngineState {
	es := &EngineState{
		files:        vector.Empty,
		blocks:       vector.Empty,
		decls:        vector.Empty,
		vars:         vector.Empty,
		modules:      vector.Empty,
		global:       NewScope(),
		env:          environMap(),
		Interrupt:    new(Interrupt),
		Deprecations: new(Deprecations),
		Config:       Config{ValuePrefix: "▶ "},
	}
	for _, name := range []string{"in", "env"} {
		id := ast.VarID(es.vars.Len())
		es.vars = es.vars.Conj(Variable{Ranging: diag.Unknown})
		es.global.Vars[name] = id
	}
	return es
}

func environMap() map[string]string {
	m := make(map[string]string)
	for _, entry := range os.Environ() {
		if i := strings.IndexByte(entry, '='); i > 0 {
			m[entry[:i]] = entry[i+1:]
		}
	}
	return m
}

// MergeDelta returns a new snapshot with the delta committed. The receiver
// is unchanged, so evaluations reading it are unaffected. IDs handed out
// while the delta was built address the same entities in the new snapshot.
// A caller whose parse failed discards the delta instead of merging, and
// nothing from the failed attempt ever becomes visible.
func (es *EngineState) MergeDelta(d *StateDelta) *EngineState {
	next := *es
	for _, f := range d.Files {
		next.files = next.files.Conj(f)
	}
	for _, b := range d.Blocks {
		next.blocks = next.blocks.Conj(b)
	}
	for _, c := range d.Decls {
		next.decls = next.decls.Conj(c)
	}
	for _, v := range d.Vars {
		next.vars = next.vars.Conj(v)
	}
	for _, m := range d.Modules {
		next.modules = next.modules.Conj(m)
	}
	next.global = es.global.extend(d.Scope)
	return &next
}

func arenaIndex(v vector.Vector, i int, what string) any {
	elem, ok := v.Index(i)
	if !ok {
		panic("engine: bad " + what)
	}
	return elem
}

// File returns the source file addressed by id, which must be valid.
func (es *EngineState) File(id ast.FileID) *SourceFile {
	return arenaIndex(es.files, int(id), "FileID").(*SourceFile)
}

// Block returns the block addressed by id, which must be valid.
func (es *EngineState) Block(id ast.BlockID) *ast.Block {
	return arenaIndex(es.blocks, int(id), "BlockID").(*ast.Block)
}

// Decl returns the command declaration addressed by id, which must be
// valid.
func (es *EngineState) Decl(id ast.DeclID) Command {
	return arenaIndex(es.decls, int(id), "DeclID").(Command)
}

// Variable returns the variable addressed by id, which must be valid.
func (es *EngineState) Variable(id ast.VarID) Variable {
	return arenaIndex(es.vars, int(id), "VarID").(Variable)
}

// Module returns the module addressed by id, which must be valid.
func (es *EngineState) Module(id ast.ModuleID) *Module {
	return arenaIndex(es.modules, int(id), "ModuleID").(*Module)
}

// NumFiles returns the size of the file arena. It doubles as the first
// file ID the next delta will assign; the other Num methods likewise.
func (es *EngineState) NumFiles() int { return es.files.Len() }

// NumBlocks returns the size of the block arena.
func (es *EngineState) NumBlocks() int { return es.blocks.Len() }

// NumDecls returns the size of the declaration arena.
func (es *EngineState) NumDecls() int { return es.decls.Len() }

// NumVars returns the size of the variable arena.
func (es *EngineState) NumVars() int { return es.vars.Len() }

// NumModules returns the size of the module arena.
func (es *EngineState) NumModules() int { return es.modules.Len() }

// FindDecl resolves a command name in the global scope.
func (es *EngineState) FindDecl(name string) (ast.DeclID, bool) {
	id, ok := es.global.Cmds[name]
	return id, ok
}

// FindVar resolves a variable name in the global scope.
func (es *EngineState) FindVar(name string) (ast.VarID, bool) {
	id, ok := es.global.Vars[name]
	return id, ok
}

// FindModule resolves a module name in the global scope.
func (es *EngineState) FindModule(name string) (ast.ModuleID, bool) {
	id, ok := es.global.Modules[name]
	return id, ok
}

// CmdNames returns the names of all global commands, sorted.
func (es *EngineState) CmdNames() []string {
	names := make([]string, 0, len(es.global.Cmds))
	for name := range es.global.Cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvMap returns a copy of the environment snapshot.
func (es *EngineState) EnvMap() map[string]string {
	m := make(map[string]string, len(es.env))
	for k, v := range es.env {
		m[k] = v
	}
	return m
}

// SrcEnd returns the first unassigned offset of the global span space.
func (es *EngineState) SrcEnd() int {
	if n := es.files.Len(); n > 0 {
		return es.File(ast.FileID(n - 1)).To
	}
	return 0
}

// Context resolves a global range into a source context for diagnostics,
// finding the registered file whose zone contains it. It returns nil for
// unknown ranges and for ranges outside every registered file.
func (es *EngineState) Context(r diag.Ranging) *diag.Context {
	if r.IsUnknown() {
		return nil
	}
	f := es.fileAt(r.From)
	if f == nil || r.To > f.To {
		return nil
	}
	local := diag.Ranging{From: r.From - f.From, To: r.To - f.From}
	return diag.NewContext(f.Name, f.Code, local)
}

func (es *EngineState) fileAt(offset int) *SourceFile {
	if offset < 0 || offset >= es.SrcEnd() {
		return nil
	}
	lo, hi := 0, es.files.Len()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if es.File(ast.FileID(mid)).To <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return es.File(ast.FileID(lo))
}
