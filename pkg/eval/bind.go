package eval

import (
	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/val"
)

// Args holds the evaluated arguments of one call, aligned to the command's
// signature.
type Args struct {
	// Positional has one value per positional parameter, in signature
	// order. An unbound optional parameter holds its default, or nothing.
	Positional []val.Value
	// Rest holds the arguments bound by the rest parameter.
	Rest []val.Value

	flags map[string]val.Value
}

// Switch reports whether the switch flag with the given long name was set.
func (a Args) Switch(name string) bool {
	_, ok := a.flags[name]
	return ok
}

// Flag returns the value of the flag with the given long name, and whether
// the flag was given.
func (a Args) Flag(name string) (val.Value, bool) {
	v, ok := a.flags[name]
	return v, ok
}

// Bind evaluates a call's arguments left to right in the caller's frame and
// aligns them to the signature. Commands with value-shaped parameters use
// it from their Run method; commands that run blocks conditionally read the
// call's expressions directly instead, since Bind evaluates everything.
func Bind(es *engine.EngineState, st *engine.Stack, sig *ast.Signature, c *ast.Call) (Args, error) {
	var args Args
	j := 0
	for i := range sig.Positional {
		param := &sig.Positional[i]
		var arg ast.Expr
		if param.Keyword != "" {
			// A keyword parameter binds only if the next argument was
			// introduced by its keyword.
			if j < len(c.Positional) {
				if kw, ok := c.Positional[j].(*ast.Keyword); ok && kw.Name == param.Keyword {
					arg = kw.Expr
					j++
				}
			}
		} else if j < len(c.Positional) {
			arg = c.Positional[j]
			j++
		}
		v, err := bindParam(es, st, param, arg, c)
		if err != nil {
			return Args{}, err
		}
		args.Positional = append(args.Positional, v)
	}
	for ; j < len(c.Positional); j++ {
		v, err := Expr(es, st, c.Positional[j])
		if err != nil {
			return Args{}, err
		}
		args.Rest = append(args.Rest, v)
	}

	for _, na := range c.Named {
		if args.flags == nil {
			args.flags = make(map[string]val.Value)
		}
		if na.Value == nil {
			args.flags[na.Name] = val.Bool(true, na.Ranging)
			continue
		}
		v, err := Expr(es, st, na.Value)
		if err != nil {
			return Args{}, err
		}
		args.flags[na.Name] = v
	}
	return args, nil
}

func bindParam(es *engine.EngineState, st *engine.Stack, param *ast.Param, arg ast.Expr, c *ast.Call) (val.Value, error) {
	if arg != nil {
		return Expr(es, st, arg)
	}
	if param.Default != nil {
		return Expr(es, st, param.Default)
	}
	return val.Nothing(c.Ranging), nil
}
