//go:build unix

package shell

import (
	"testing"

	"src.kelp.sh/pkg/env"
	"src.kelp.sh/pkg/must"
	. "src.kelp.sh/pkg/prog/progtest"
	"src.kelp.sh/pkg/testutil"
)

// isolateHome points the rc file and the history database into a temporary
// directory.
func isolateHome(t *testing.T) {
	dir := testutil.InTempDir(t)
	testutil.Unsetenv(t, env.KELP_RC)
	testutil.Unsetenv(t, env.KELP_DB)
	testutil.Setenv(t, env.XDG_CONFIG_HOME, dir)
	testutil.Setenv(t, env.XDG_STATE_HOME, dir)
}

func TestInteract_EvalsInput(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("echo hello\n")
	f.WaitForOutput(`▶ "hello"`)
	if exit := f.WaitExit(); exit != 0 {
		t.Errorf("got exit code %v, want 0", exit)
	}
}

func TestInteract_Continuation(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("echo [\n")
	f.WaitForOutput(continuationPrompt)
	f.Input("1 2 3]\n")
	f.WaitForOutput(`▶ [1, 2, 3]`)
}

func TestInteract_ErrorDoesNotEndSession(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("1 / 0\n")
	f.WaitForOutput("division by zero")
	f.Input("echo ok\n")
	f.WaitForOutput(`▶ "ok"`)
	if exit := f.WaitExit(); exit != 0 {
		t.Errorf("got exit code %v, want 0", exit)
	}
}

func TestInteract_UnitsShareTheSession(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("def greet [name] { echo $name }\n")
	f.Input("greet world\n")
	f.WaitForOutput(`▶ "world"`)
}

func TestInteract_RcFile(t *testing.T) {
	isolateHome(t)
	must.MkdirAll("kelp")
	must.WriteFile("kelp/rc.kelp", "print 'from rc '\ndef greet [] { echo hi }")
	f := Interactive(t, &Program{})
	f.WaitForOutput("from rc ")
	// Units of the session see what the rc file defined.
	f.Input("greet\n")
	f.WaitForOutput(`▶ "hi"`)
}

func TestInteract_RcFile_Error(t *testing.T) {
	isolateHome(t)
	must.MkdirAll("kelp")
	must.WriteFile("kelp/rc.kelp", "echo $nope")
	f := Interactive(t, &Program{})
	f.WaitForOutput("unknown variable '$nope'")
	// The session still comes up.
	f.Input("echo ok\n")
	f.WaitForOutput(`▶ "ok"`)
}

func TestInteract_KelpRCOverridesRcPath(t *testing.T) {
	isolateHome(t)
	must.WriteFile("other-rc.kelp", "print 'other rc '")
	testutil.Setenv(t, env.KELP_RC, "other-rc.kelp")
	f := Interactive(t, &Program{})
	f.WaitForOutput("other rc ")
}

func TestInteract_History(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("echo hello\n")
	f.WaitForOutput(`▶ "hello"`)
	f.Input("history\n")
	f.WaitForOutput(`{seq: 1, cmd: "echo hello"}`)
}

func TestInteract_HistoryPersistsAcrossSessions(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("echo first\n")
	f.WaitForOutput(`▶ "first"`)
	f.WaitExit()

	f2 := Interactive(t, &Program{})
	f2.WaitForOutput("> ")
	f2.Input("history\n")
	f2.WaitForOutput(`{seq: 1, cmd: "echo first"}`)
}

func TestInteract_SIGINTInterruptsTheCommand(t *testing.T) {
	isolateHome(t)
	f := Interactive(t, &Program{})
	f.WaitForOutput("> ")
	f.Input("sleep 1000sec\n")
	f.Input("\x03")
	f.WaitForOutput("interrupted")
	// The session survives the interrupt.
	f.Input("echo ok\n")
	f.WaitForOutput(`▶ "ok"`)
}
