package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/mods/histstore"
	"src.kelp.sh/pkg/parse"
	"src.kelp.sh/pkg/store"
	"src.kelp.sh/pkg/val"
)

// interact runs an interactive session, reading code from the terminal unit
// by unit until end-of-file.
func interact(sess *eval.Session, fds [3]*os.File) {
	ed := newMinEditor(fds[0], fds[2])

	db := openHistory(sess, fds[2])
	if db != nil {
		defer db.Close()
	}

	if rc, err := rcPath(); err != nil {
		fmt.Fprintln(fds[2], "Warning:", err)
	} else if err := sourceRC(sess, fds, rc); err != nil {
		diag.ShowError(fds[2], err)
	}

	for cmdNum := 1; ; cmdNum++ {
		sess.State().Interrupt.Reset()

		code, err := readUnit(sess, ed)
		if err != nil {
			// An unreadable terminal ends the session like end-of-file does;
			// retrying would just spin on the same error.
			if err != io.EOF {
				fmt.Fprintln(fds[2], "error reading input:", err)
			}
			break
		}

		if db != nil && strings.TrimSpace(code) != "" {
			if _, err := db.AddCmd(code); err != nil {
				logger.Println("failed to add command to history:", err)
			}
		}

		err = evalInTTY(sess, fds, fmt.Sprintf("[tty %v]", cmdNum), code)
		if err != nil {
			diag.ShowError(fds[2], err)
		}
	}
}

// readUnit reads one unit of code: a first line, plus continuation lines for
// as long as the unit's only parse errors come from the source ending too
// early. End-of-file in a continuation ends the unit as it stands; the
// resulting parse error is then reported like any other.
func readUnit(sess *eval.Session, ed *minEditor) (string, error) {
	code, err := ed.ReadLine(primaryPrompt())
	if err != nil {
		return "", err
	}
	for {
		cerr := sess.Check("[continuation]", code)
		if cerr == nil || !parse.IsUnexpectedEof(cerr) {
			return code, nil
		}
		more, err := ed.ReadLine(continuationPrompt)
		code += "\n" + more
		if err != nil {
			return code, nil
		}
	}
}

// evalInTTY evaluates one unit of code with its value output echoed to the
// terminal, and puts the shell back in the terminal foreground afterwards.
func evalInTTY(sess *eval.Session, fds [3]*os.File, name, code string) error {
	data, err := sess.Eval(name, code)
	if err == nil {
		err = echoData(sess.State(), fds[1], data)
	}
	putSelfInFg(fds[0])
	return err
}

// echoData shows the data of a unit's final pipeline: each value is echoed
// on a line of its own, in its repr form under the value prefix, and bytes
// copy through. A single value holding a list stays on one line.
func echoData(es *engine.EngineState, w io.Writer, data engine.PipelineData) error {
	switch d := data.(type) {
	case engine.One:
		if err := es.Interrupt.Check(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s%s\n", es.Config.ValuePrefix, val.ReprPlain(d.Value))
		return err
	case *engine.ByteStream:
		_, err := io.Copy(w, d)
		if err != nil {
			engine.Dispose(d)
		}
		return err
	case *engine.ListStream:
		for {
			if err := es.Interrupt.Check(); err != nil {
				d.Dispose()
				return err
			}
			v, ok := d.Next()
			if !ok {
				return d.Err()
			}
			_, err := fmt.Fprintf(w, "%s%s\n", es.Config.ValuePrefix, val.ReprPlain(v))
			if err != nil {
				d.Dispose()
				return err
			}
		}
	}
	return nil
}

// sourceRC runs the rc file as the session's first unit. A missing file is
// not an error.
func sourceRC(sess *eval.Session, fds [3]*os.File, rc string) error {
	absPath, err := filepath.Abs(rc)
	if err != nil {
		return fmt.Errorf("cannot get full path of rc file: %v", err)
	}
	code, err := readFileUTF8(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return evalInTTY(sess, fds, absPath, code)
}

// openHistory opens the history database and installs the history command.
// The session merely lacks a history command when the database cannot be
// opened.
func openHistory(sess *eval.Session, stderr io.Writer) *store.Store {
	path, err := dbPath()
	if err == nil {
		var db *store.Store
		db, err = store.NewStore(path)
		if err == nil {
			sess.Extend(func(ws *engine.WorkingSet) { histstore.Install(ws, db) })
			return db
		}
	}
	fmt.Fprintln(stderr, "Warning:", err)
	fmt.Fprintln(stderr, "History will not be persisted in this session.")
	return nil
}
