package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/parse"
	"src.kelp.sh/pkg/val"
)

// Configuration for the script mode.
type scriptCfg struct {
	Cmd         bool
	CompileOnly bool
	JSON        bool
}

// Executes a shell script.
func script(sess *eval.Session, fds [3]*os.File, args []string, cfg *scriptCfg) int {
	arg0 := args[0]

	var name, code string
	if cfg.Cmd {
		name = "code from -c"
		code = arg0
	} else {
		var err error
		name, err = filepath.Abs(arg0)
		if err != nil {
			fmt.Fprintf(fds[2],
				"cannot get full path of script %q: %v\n", arg0, err)
			return 2
		}
		code, err = readFileUTF8(name)
		if err != nil {
			fmt.Fprintf(fds[2], "cannot read script %q: %v\n", name, err)
			return 2
		}
	}
	return runScript(sess, fds, name, code, cfg)
}

// Executes a script read from standard input.
func scriptStdin(sess *eval.Session, fds [3]*os.File, cfg *scriptCfg) int {
	bs, err := io.ReadAll(fds[0])
	if err != nil {
		fmt.Fprintf(fds[2], "cannot read standard input: %v\n", err)
		return 2
	}
	if !utf8.Valid(bs) {
		fmt.Fprintf(fds[2], "cannot read standard input: %v\n", errSourceNotUTF8)
		return 2
	}
	return runScript(sess, fds, "code from stdin", string(bs), cfg)
}

func runScript(sess *eval.Session, fds [3]*os.File, name, code string, cfg *scriptCfg) int {
	if cfg.CompileOnly {
		err := sess.Check(name, code)
		if cfg.JSON {
			fmt.Fprintf(fds[1], "%s\n", errorsToJSON(err))
		} else if err != nil {
			diag.ShowError(fds[2], err)
		}
		if err != nil {
			return 2
		}
		return 0
	}
	data, err := sess.Eval(name, code)
	if err == nil {
		err = renderData(sess.State(), fds[1], data)
	}
	if err != nil {
		diag.ShowError(fds[2], err)
		return exitStatusOf(err)
	}
	return 0
}

// renderData writes the data of a unit's final pipeline as plain text:
// values become lines in their text form, bytes copy through untouched. A
// deferred external command failure surfaces as the error of the stream
// that carried its output.
func renderData(es *engine.EngineState, w io.Writer, data engine.PipelineData) error {
	var err error
	if bs, ok := data.(*engine.ByteStream); ok {
		_, err = io.Copy(w, bs)
	} else {
		err = engine.Elements(es.Interrupt, data, func(v val.Value) bool {
			fmt.Fprintln(w, eval.ValueText(v))
			return true
		})
	}
	if err != nil {
		engine.Dispose(data)
	}
	return err
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fname string) (string, error) {
	bytes, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}

// An auxiliary struct for converting errors with diagnostics information to JSON.
type errorInJSON struct {
	FileName string `json:"fileName"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Message  string `json:"message"`
}

// Converts parse errors into JSON. Positions are local to the checked unit.
func errorsToJSON(err error) []byte {
	converted := []errorInJSON{}
	for _, e := range parse.UnpackErrors(err) {
		converted = append(converted,
			errorInJSON{e.Context.Name, e.Context.From, e.Context.To, e.Message})
	}

	jsonError, errMarshal := json.Marshal(converted)
	if errMarshal != nil {
		return []byte(`[{"message":"Unable to convert the errors to JSON"}]`)
	}
	return jsonError
}
