package eval

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/fsutil"
	"src.kelp.sh/pkg/strutil"
	"src.kelp.sh/pkg/val"
)

// ExternalCmdExit reports an external command that terminated with a
// nonzero status. Status is the exit code, or -1 when a signal ended the
// process; Desc then describes the signal.
type ExternalCmdExit struct {
	CmdName string
	Pid     int
	Status  int
	Desc    string
}

// Error implements the error interface.
func (e ExternalCmdExit) Error() string {
	if e.Status >= 0 {
		return fmt.Sprintf("'%s' exited with %d", e.CmdName, e.Status)
	}
	return fmt.Sprintf("'%s' %s", e.CmdName, e.Desc)
}

// externalCall runs an external command. The head and the arguments
// evaluate to strings; the program is resolved on the search path here, at
// run time.
//
// Streams that the capture kind selects become the element's data, minus
// any already redirected by the element; everything else flows to the
// stack's destinations. A captured stream defers the exit status to the
// byte stream's finish hook, so a nonzero exit surfaces to whoever drains
// the stream. With nothing captured the command runs synchronously.
func externalCall(es *engine.EngineState, st *engine.Stack, x *ast.ExternalCall, input engine.PipelineData, capture ast.PipeKind, outRedirected, errRedirected bool) (engine.PipelineData, error) {
	name, err := stringOf(es, st, x.Head)
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, len(x.Args))
	for _, argExpr := range x.Args {
		arg, err := stringOf(es, st, argExpr)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	path, err := fsutil.SearchExternal(name)
	if err != nil {
		if fsutil.DontSearch(name) {
			return nil, wrapError(es, st, x.Head.Range(), fmt.Errorf("cannot run %s: %v", name, err))
		}
		msg := fmt.Sprintf("unknown command '%s'", name)
		if near, ok := strutil.Nearest(name, es.CmdNames()); ok {
			msg += fmt.Sprintf("; did you mean '%s'?", near)
		}
		return nil, wrapError(es, st, x.Head.Range(), fmt.Errorf("%s", msg))
	}

	cmd := &exec.Cmd{
		Path: path,
		Args: append([]string{name}, args...),
		Dir:  st.Dir(),
		Env:  st.Environ(),
	}
	setStdin(es, cmd, input)

	wantOut, wantErr := false, false
	switch capture {
	case ast.PipeOut:
		wantOut = !outRedirected
	case ast.PipeErr:
		wantErr = !errRedirected
	case ast.PipeOutErr:
		wantOut = !outRedirected
		wantErr = !errRedirected
	}

	if !wantOut && !wantErr {
		cmd.Stdout = st.Out()
		cmd.Stderr = st.Err()
		err := cmd.Run()
		return engine.Empty, wrapError(es, st, x.Ranging, exitStatus(name, cmd, err))
	}

	// One pipe serves the captured side, or both sides when out and err
	// are captured together.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, wrapError(es, st, x.Ranging, err)
	}
	if wantOut {
		cmd.Stdout = pw
	} else {
		cmd.Stdout = st.Out()
	}
	if wantErr {
		cmd.Stderr = pw
	} else {
		cmd.Stderr = st.Err()
	}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, wrapError(es, st, x.Ranging, err)
	}
	// The child holds its own copy of the write end; ours must go so that
	// the read end sees EOF when the child exits.
	pw.Close()

	finish := func() error {
		pr.Close()
		err := cmd.Wait()
		return exitStatus(name, cmd, err)
	}
	return engine.NewByteStream(es.Interrupt, engine.Metadata{Source: name}, pr, finish), nil
}

// setStdin connects the pipeline input to the child's standard input. With
// no input the child reads the process's own stdin, the way a command at an
// interactive prompt expects.
func setStdin(es *engine.EngineState, cmd *exec.Cmd, input engine.PipelineData) {
	switch in := input.(type) {
	case *engine.ByteStream:
		cmd.Stdin = in
	default:
		if input == engine.Empty {
			cmd.Stdin = os.Stdin
			return
		}
		pr, pw := io.Pipe()
		cmd.Stdin = pr
		go func() {
			err := engine.Elements(es.Interrupt, in, func(v val.Value) bool {
				_, werr := fmt.Fprintln(pw, ValueText(v))
				return werr == nil
			})
			pw.CloseWithError(err)
		}()
	}
}

func exitStatus(name string, cmd *exec.Cmd, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		ps := cmd.ProcessState
		if sig, ok := terminationSignal(ps); ok && isSIGPIPE(sig) {
			// Death by closed pipe is how a producer learns that its
			// consumer is done. It is pipeline shutdown, not a failure.
			return nil
		}
		return ExternalCmdExit{
			CmdName: name,
			Pid:     ps.Pid(),
			Status:  ps.ExitCode(),
			Desc:    ps.String(),
		}
	}
	return err
}
