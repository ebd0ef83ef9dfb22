// Package histstore implements the history command, exposing the persistent
// command history to Kelp code.
package histstore

import (
	"strconv"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/store"
	"src.kelp.sh/pkg/val"
)

// Install adds the history command, backed by db, to the working set. It is
// separate from the sets in InstallAll because it needs an open store; runs
// without one simply have no history command.
func Install(ws *engine.WorkingSet, db *store.Store) {
	ws.AddBuiltin(eval.BuiltinCommand{Sig: historySig, Fn: history(db)})
}

var historySig = ast.NewSignature("history").
	WithDescription("Output the command history as records with seq and cmd fields, oldest first.").
	AddOptional("count", ast.ShapeInt, "only output the newest count entries")

// history reads the requested range eagerly and streams from a slice. A lazy
// stream would have to keep a read transaction open for as long as the
// pipeline runs, blocking writers.
func history(db *store.Store) func(*engine.EngineState, *engine.Stack, *ast.Call, engine.PipelineData) (engine.PipelineData, error) {
	return func(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
		next, err := db.NextCmdSeq()
		if err != nil {
			return nil, err
		}
		from := 1
		if len(c.Positional) > 0 {
			nv, err := eval.Expr(es, st, c.Positional[0])
			if err != nil {
				return nil, err
			}
			n, err := nv.AsInt()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, errs.OutOfRange{
					What: "count", ValidLow: "0", ValidHigh: "+inf",
					Actual: strconv.FormatInt(n, 10),
				}
			}
			if int64(next)-n > 1 {
				from = next - int(n)
			}
		}
		cmds, err := db.Cmds(from, next)
		if err != nil {
			return nil, err
		}
		vs := make([]val.Value, len(cmds))
		for i, cmd := range cmds {
			vs[i] = val.MakeRecord(c.Ranging,
				"seq", val.Int(int64(cmd.Seq), c.Ranging),
				"cmd", val.String(cmd.Text, c.Ranging))
		}
		return engine.NewSliceStream(es.Interrupt, engine.Metadata{Source: "history"}, vs), nil
	}
}
