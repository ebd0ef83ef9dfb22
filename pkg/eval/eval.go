// Package eval implements the evaluator: it walks resolved syntax trees and
// drives pipeline execution, streaming pipeline data between stages.
//
// The entry point is Block. Command implementations dispatch back into the
// evaluator through the engine.Command contract; the builtin command sets
// under pkg/mods use Expr, Bind and Apply to evaluate their arguments.
//
// Within a block, pipelines run strictly left to right and each stage runs
// to completion before the next starts; laziness lives in the streams a
// stage returns, not in goroutines. Goroutines appear only where the
// concurrency is inherent: feeding and reading subprocess pipes.
package eval

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/logutil"
	"src.kelp.sh/pkg/val"
)

var logger = logutil.GetLogger("[eval] ")

// Block evaluates a block against an engine snapshot. The input feeds the
// first pipeline; the last pipeline's data becomes the block's. The data of
// every earlier pipeline is drained: its values are produced for their
// effects and dropped, its bytes are forwarded to the stack's byte output.
//
// The returned error is nil, an *Exception, or a control flow signal (Flow
// or *Return). Signals are not failures; callers that form a loop or call
// boundary catch them.
func Block(es *engine.EngineState, st *engine.Stack, b *ast.Block, input engine.PipelineData) (engine.PipelineData, error) {
	for i, p := range b.Pipelines {
		if err := es.Interrupt.Check(); err != nil {
			return nil, wrapError(es, st, p.Ranging, err)
		}
		in := engine.Empty
		if i == 0 {
			in = input
		}
		data, err := pipeline(es, st, p, in)
		if err != nil {
			return nil, err
		}
		if i == len(b.Pipelines)-1 {
			return data, nil
		}
		if err := Drain(es, st, data); err != nil {
			return nil, wrapError(es, st, p.Ranging, err)
		}
	}
	return engine.Empty, nil
}

// Drain disposes of pipeline data produced for its effects: values are
// produced and dropped, bytes are forwarded to the stack's byte output.
// Non-final pipelines and loop bodies end here.
func Drain(es *engine.EngineState, st *engine.Stack, data engine.PipelineData) error {
	var err error
	if bs, ok := data.(*engine.ByteStream); ok {
		_, err = io.Copy(st.Out(), bs)
	} else {
		err = engine.Elements(es.Interrupt, data, func(val.Value) bool { return true })
	}
	if err != nil {
		engine.Dispose(data)
	}
	return err
}

func pipeline(es *engine.EngineState, st *engine.Stack, p *ast.Pipeline, input engine.PipelineData) (engine.PipelineData, error) {
	data := input
	for i, el := range p.Elements {
		// What the next stage wants decides which output streams this
		// element must capture.
		capture := ast.PipeOut
		if i+1 < len(p.Elements) {
			capture = p.Elements[i+1].Input
		}
		next, err := element(es, st, el, data, capture)
		if err != nil {
			// A failed stage leaves its input behind; release whatever
			// producer still feeds it.
			engine.Dispose(data)
			return nil, err
		}
		data = next
	}
	return data, nil
}

// element evaluates one pipeline element, returning the data the next stage
// will consume per the capture kind.
func element(es *engine.EngineState, st *engine.Stack, el *ast.PipelineElement, input engine.PipelineData, capture ast.PipeKind) (engine.PipelineData, error) {
	frame := st
	needFrame := len(el.Redirections) > 0 || capture != ast.PipeOut

	// Accessing $in materializes the input once; the expression then sees
	// the realized value both as $in and as its pipeline input.
	bindIn := false
	var inVal val.Value
	if input != engine.Empty && usesIn(es, el.Expr) {
		v, err := engine.Collect(input, el.Ranging)
		if err != nil {
			return nil, wrapError(es, st, el.Ranging, err)
		}
		inVal, bindIn = v, true
		input = engine.One{Value: v}
		needFrame = true
	}

	if needFrame {
		frame = st.NewFrame()
	}
	if bindIn {
		frame.DefineVar(engine.InVarID, inVal)
	}

	// A lazy stage writes to its redirection targets only while a later
	// stage consumes its output, so the files must outlive this call; they
	// close when the returned stream stops. Realized output closes them on
	// the way out.
	var redirFiles []*os.File
	closeRedirs := func() {
		for _, f := range redirFiles {
			f.Close()
		}
	}
	keepRedirs := false
	defer func() {
		if !keepRedirs {
			closeRedirs()
		}
	}()

	outRedirected, errRedirected := false, false
	for _, rd := range el.Redirections {
		f, err := openRedir(es, frame, rd)
		if err != nil {
			return nil, err
		}
		redirFiles = append(redirFiles, f)
		switch rd.Source {
		case ast.RedirOut:
			frame.SetOut(f)
			outRedirected = true
		case ast.RedirErr:
			frame.SetErr(f)
			errRedirected = true
		case ast.RedirOutErr:
			frame.SetOut(f)
			frame.SetErr(f)
			outRedirected, errRedirected = true, true
		}
	}

	if x, ok := el.Expr.(*ast.ExternalCall); ok {
		// The child holds its own copies of the redirection targets once it
		// has started; ours close on return.
		return externalCall(es, frame, x, input, capture, outRedirected, errRedirected)
	}

	// For internal stages an error pipe captures the bytes the stage writes
	// to its error output.
	var errBuf *bytes.Buffer
	if capture == ast.PipeErr || capture == ast.PipeOutErr {
		errBuf = new(bytes.Buffer)
		frame.SetErr(errBuf)
		if capture == ast.PipeOutErr {
			frame.SetOut(errBuf)
		}
	}

	data, err := Data(es, frame, el.Expr, input)
	if err != nil {
		return nil, err
	}

	if outRedirected && capture == ast.PipeOut {
		// Value output follows byte output into the redirection target.
		if err := writeData(es, frame.Out(), data); err != nil {
			return nil, wrapError(es, st, el.Ranging, err)
		}
		return engine.Empty, nil
	}
	if errBuf != nil {
		if capture == ast.PipeOutErr {
			if err := writeData(es, errBuf, data); err != nil {
				return nil, wrapError(es, st, el.Ranging, err)
			}
		} else if err := Drain(es, st, data); err != nil {
			return nil, wrapError(es, st, el.Ranging, err)
		}
		meta := engine.Metadata{Source: "error pipe"}
		return engine.NewByteStream(es.Interrupt, meta, bytes.NewReader(errBuf.Bytes()), nil), nil
	}
	if len(redirFiles) > 0 {
		switch d := data.(type) {
		case *engine.ListStream:
			keepRedirs = true
			return d.DisposeWith(closeRedirs), nil
		case *engine.ByteStream:
			keepRedirs = true
			return d.DisposeWith(closeRedirs), nil
		}
	}
	return data, nil
}

// Data evaluates an expression as a pipeline stage: calls stream their
// output, assignments perform their effect, anything else produces its
// value. Commands that run one of their argument expressions, like the else
// branch of if, dispatch through it.
func Data(es *engine.EngineState, st *engine.Stack, e ast.Expr, input engine.PipelineData) (engine.PipelineData, error) {
	switch x := e.(type) {
	case *ast.Call:
		return call(es, st, x, input)
	case *ast.BinaryOp:
		if x.Op.IsAssignment() {
			if err := assign(es, st, x); err != nil {
				return nil, err
			}
			return engine.Empty, nil
		}
	}
	v, err := Expr(es, st, e)
	if err != nil {
		return nil, err
	}
	return engine.One{Value: v}, nil
}

func openRedir(es *engine.EngineState, st *engine.Stack, rd *ast.Redirection) (*os.File, error) {
	v, err := Expr(es, st, rd.Target)
	if err != nil {
		return nil, err
	}
	path, err := v.CoerceString()
	if err != nil {
		return nil, wrapError(es, st, rd.Target.Range(), err)
	}
	flags := os.O_WRONLY | os.O_CREATE
	if rd.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, wrapError(es, st, rd.Ranging, err)
	}
	return f, nil
}

// writeData renders pipeline data as text: values become lines in their
// string form where they have one and their repr otherwise, bytes copy
// through. Used for redirected value output.
func writeData(es *engine.EngineState, w io.Writer, data engine.PipelineData) error {
	var err error
	if bs, ok := data.(*engine.ByteStream); ok {
		_, err = io.Copy(w, bs)
	} else {
		err = engine.Elements(es.Interrupt, data, func(v val.Value) bool {
			fmt.Fprintln(w, ValueText(v))
			return true
		})
	}
	if err != nil {
		engine.Dispose(data)
	}
	return err
}

// ValueText returns the way a value is written as plain text: scalars in
// their string form, compound values in their repr.
func ValueText(v val.Value) string {
	if s, err := v.CoerceString(); err == nil {
		return s
	}
	return val.ReprPlain(v)
}

// usesIn reports whether the expression references the pipeline input,
// through $in or an input-rooted cell path. Blocks and subexpressions share
// the enclosing element's input context, so the walk descends into them;
// closures receive an input of their own, so it does not.
func usesIn(es *engine.EngineState, e ast.Expr) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *ast.Var:
		return x.ID == engine.InVarID
	case *ast.Path:
		if x.Head == nil || usesIn(es, x.Head) {
			return true
		}
	case *ast.Interp:
		return anyUsesIn(es, x.Parts)
	case *ast.List:
		return anyUsesIn(es, x.Items)
	case *ast.Record:
		for _, it := range x.Items {
			if usesIn(es, it.Key) || usesIn(es, it.Value) {
				return true
			}
		}
	case *ast.Table:
		if anyUsesIn(es, x.Headers) {
			return true
		}
		for _, row := range x.Rows {
			if anyUsesIn(es, row) {
				return true
			}
		}
	case *ast.Range:
		return usesIn(es, x.From) || usesIn(es, x.Next) || usesIn(es, x.To)
	case *ast.Call:
		if anyUsesIn(es, x.Positional) {
			return true
		}
		for _, na := range x.Named {
			if usesIn(es, na.Value) {
				return true
			}
		}
	case *ast.ExternalCall:
		return usesIn(es, x.Head) || anyUsesIn(es, x.Args)
	case *ast.BinaryOp:
		return usesIn(es, x.Left) || usesIn(es, x.Right)
	case *ast.UnaryNot:
		return usesIn(es, x.Expr)
	case *ast.Keyword:
		return usesIn(es, x.Expr)
	case *ast.SubExpr:
		return blockUsesIn(es, x.ID)
	case *ast.BlockExpr:
		return blockUsesIn(es, x.ID)
	}
	return false
}

func anyUsesIn(es *engine.EngineState, es2 []ast.Expr) bool {
	for _, e := range es2 {
		if usesIn(es, e) {
			return true
		}
	}
	return false
}

func blockUsesIn(es *engine.EngineState, id ast.BlockID) bool {
	for _, p := range es.Block(id).Pipelines {
		for _, el := range p.Elements {
			if usesIn(es, el.Expr) {
				return true
			}
			for _, rd := range el.Redirections {
				if usesIn(es, rd.Target) {
					return true
				}
			}
		}
	}
	return false
}

// wrapError attaches the responsible range and the current traceback to a
// runtime error. Exceptions and control flow signals pass through as they
// are.
func wrapError(es *engine.EngineState, st *engine.Stack, r diag.Ranging, err error) error {
	switch err.(type) {
	case nil:
		return nil
	case *Exception, Flow, *Return:
		return err
	}
	tb := st.Traceback
	if ctx := es.Context(r); ctx != nil {
		tb = &engine.Traceback{Head: ctx, Next: tb}
	}
	return &Exception{Reason: err, Ranging: r, Traceback: tb}
}
