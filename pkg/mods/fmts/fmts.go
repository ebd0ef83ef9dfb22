// Package fmts implements the format converter commands, mapping between
// pipeline values and JSON or YAML documents.
package fmts

import (
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
)

// Install adds the format converters to the working set.
func Install(ws *engine.WorkingSet) {
	for _, c := range []engine.Command{
		eval.BuiltinCommand{Sig: fromJSONSig, Fn: fromJSON},
		eval.BuiltinCommand{Sig: toJSONSig, Fn: toJSON},
		eval.BuiltinCommand{Sig: fromYAMLSig, Fn: fromYAML},
		eval.BuiltinCommand{Sig: toYAMLSig, Fn: toYAML},
	} {
		ws.AddBuiltin(c)
	}
}

// inputText collects the input of a from converter into text.
func inputText(input engine.PipelineData, r diag.Ranging) (string, error) {
	v, err := engine.Collect(input, r)
	if err != nil {
		return "", err
	}
	return v.AsString()
}
