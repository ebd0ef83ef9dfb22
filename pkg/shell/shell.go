// Package shell is the entry point for the terminal interface of Kelp.
package shell

import (
	"os"
	"strconv"

	"src.kelp.sh/pkg/env"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/logutil"
	"src.kelp.sh/pkg/mods"
	"src.kelp.sh/pkg/prog"
	"src.kelp.sh/pkg/sys"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram.
type Program struct {
	codeInArg   bool
	compileOnly bool
	json        *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.codeInArg, "c", false,
		"Take the first argument as code to execute")
	fs.BoolVar(&p.compileOnly, "compileonly", false,
		"Parse the script and print errors, but do not execute it")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	restoreSHLVL := incSHLVL()
	defer restoreSHLVL()

	sess := eval.NewSession(fds[1], fds[2])
	sess.Extend(mods.InstallAll)
	// The interrupt flag is shared by every snapshot of the session's state,
	// so capturing it once is enough.
	stopSignals := relaySignals(sess.State().Interrupt, fds[2])
	defer stopSignals()

	if len(args) > 0 {
		cfg := &scriptCfg{
			Cmd: p.codeInArg, CompileOnly: p.compileOnly, JSON: *p.json}
		return prog.Exit(script(sess, fds, args, cfg))
	}
	if p.codeInArg {
		return prog.BadUsage("argument required to -c")
	}
	if !sys.IsATTY(fds[0].Fd()) {
		cfg := &scriptCfg{CompileOnly: p.compileOnly, JSON: *p.json}
		return prog.Exit(scriptStdin(sess, fds, cfg))
	}
	if p.compileOnly {
		return prog.BadUsage("script required to -compileonly")
	}
	interact(sess, fds)
	return nil
}

// incSHLVL increments the SHLVL environment variable. It returns a function
// to restore the original value, for use in tests.
func incSHLVL() func() {
	oldValue, hadValue := os.LookupEnv(env.SHLVL)
	i, err := strconv.Atoi(oldValue)
	if err != nil {
		i = 0
	}
	os.Setenv(env.SHLVL, strconv.Itoa(i+1))

	if hadValue {
		return func() { os.Setenv(env.SHLVL, oldValue) }
	}
	return func() { os.Unsetenv(env.SHLVL) }
}

// exitStatusOf maps the error of a unit to the process exit status: a
// propagated exit status for an external command failure, 2 for everything
// else.
func exitStatusOf(err error) int {
	if exit, ok := eval.Reason(err).(eval.ExternalCmdExit); ok && exit.Status >= 0 {
		return exit.Status
	}
	return 2
}
