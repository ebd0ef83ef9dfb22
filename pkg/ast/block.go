package ast

import (
	"src.kelp.sh/pkg/diag"
)

// Block is an ordered sequence of pipelines. Blocks live in the block arena
// of the engine state and are referenced by BlockID everywhere else.
type Block struct {
	// Signature describes the block's parameters. It is never nil; plain
	// blocks have an empty signature.
	Signature *Signature
	Pipelines []*Pipeline
	// Captures lists the variables a closure over this block must capture at
	// definition time.
	Captures []VarID
	diag.Ranging
}

// Pipeline is an ordered sequence of elements connected by pipes.
type Pipeline struct {
	Elements []*PipelineElement
	diag.Ranging
}

// PipeKind describes what of the previous element's output a pipe carries.
type PipeKind int

// Possible values for PipeKind.
const (
	// PipeOut pipes stdout, written "|".
	PipeOut PipeKind = iota
	// PipeErr pipes stderr, written "e>|".
	PipeErr
	// PipeOutErr pipes stdout and stderr combined, written "o+e>|".
	PipeOutErr
)

// PipelineElement is one stage of a pipeline.
type PipelineElement struct {
	// Input describes the pipe connecting this element to the previous one.
	// It is meaningless for the first element.
	Input PipeKind
	Expr  Expr
	// Redirections are file redirections attached to this element.
	Redirections []*Redirection
	diag.Ranging
}

// RedirSource describes which output stream a redirection diverts.
type RedirSource int

// Possible values for RedirSource.
const (
	RedirOut RedirSource = iota
	RedirErr
	RedirOutErr
)

// Redirection diverts an output stream of a pipeline element to a file.
type Redirection struct {
	Source RedirSource
	Append bool
	// Target evaluates to the file path.
	Target Expr
	diag.Ranging
}
