package stream

import (
	"runtime"
	"sync"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/eval"
	"src.kelp.sh/pkg/val"
)

var eachSig = ast.NewSignature("each").
	WithDescription("Run a closure on every element, outputting the results.").
	AddRequired("fn", ast.ShapeClosure, "closure run per element")

// each maps lazily: an element is pulled and transformed only when the
// consumer asks for the next output.
func each(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	cl, takesArg, err := closureArg(es, st, c.Positional[0])
	if err != nil {
		return nil, err
	}
	pull := engine.Pull(input)
	return engine.NewListStream(es.Interrupt, engine.Meta(input), func() (val.Value, bool, error) {
		for {
			v, ok, err := pull()
			if err != nil || !ok {
				return val.Value{}, false, err
			}
			res := applyElem(es, st, cl, c.Ranging, takesArg, v)
			switch {
			case res.err != nil:
				return val.Value{}, false, res.err
			case res.stop:
				return val.Value{}, false, nil
			case res.skip:
				continue
			}
			return res.v, true, nil
		}
	}).DisposeWith(func() { engine.Dispose(input) }), nil
}

// closureArg evaluates a closure argument and reports whether the closure
// declares a parameter. One with a parameter receives each element as its
// argument; one without sees it as its input.
func closureArg(es *engine.EngineState, st *engine.Stack, e ast.Expr) (*val.Closure, bool, error) {
	fn, err := eval.Expr(es, st, e)
	if err != nil {
		return nil, false, err
	}
	cl, err := fn.AsClosure()
	if err != nil {
		return nil, false, err
	}
	takesArg := len(es.Block(cl.Block).Signature.Positional) > 0
	return cl, takesArg, nil
}

// elemResult is the outcome of running the closure on one element: a value,
// a skip (continue or empty output), a stop (break), or an error.
type elemResult struct {
	v    val.Value
	skip bool
	stop bool
	err  error
}

func applyElem(es *engine.EngineState, st *engine.Stack, cl *val.Closure, r diag.Ranging, takesArg bool, v val.Value) elemResult {
	var args []val.Value
	in := engine.Empty
	if takesArg {
		args = []val.Value{v}
	} else {
		in = engine.One{Value: v}
	}
	data, err := eval.ApplyClosure(es, st, cl, r, args, in)
	if err != nil {
		if f, ok := err.(eval.Flow); ok {
			if f == eval.Break {
				return elemResult{stop: true}
			}
			return elemResult{skip: true}
		}
		return elemResult{err: err}
	}
	if data == engine.Empty {
		return elemResult{skip: true}
	}
	out, err := engine.Collect(data, r)
	if err != nil {
		return elemResult{err: err}
	}
	return elemResult{v: out}
}

var parEachSig = ast.NewSignature("par-each").
	WithDescription("Run a closure on every element in parallel, outputting the results in input order.").
	AddRequired("fn", ast.ShapeClosure, "closure run per element")

type parJob struct {
	v    val.Value
	slot chan elemResult
}

// parEach runs the closure on a bounded worker pool. A dispatcher pulls
// elements in order and hands each a buffered result slot; the slots pass
// through the order channel so the output keeps the input order no matter
// which worker finishes first. A break, an error, an interrupt or disposal
// of the output closes quit, winding down the dispatcher and draining the
// workers.
func parEach(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	cl, takesArg, err := closureArg(es, st, c.Positional[0])
	if err != nil {
		return nil, err
	}
	workers := runtime.NumCPU()
	jobs := make(chan parJob)
	order := make(chan chan elemResult, workers)
	quit := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(quit) }) }

	go func() {
		defer close(jobs)
		defer close(order)
		// The dispatcher owns the input; it releases it on the way out,
		// whether the input ran dry or quit cut the run short.
		defer engine.Dispose(input)
		send := func(slot chan elemResult) bool {
			select {
			case order <- slot:
				return true
			case <-quit:
				return false
			}
		}
		fail := func(err error) {
			slot := make(chan elemResult, 1)
			slot <- elemResult{err: err}
			send(slot)
		}
		pull := engine.Pull(input)
		for {
			if err := es.Interrupt.Check(); err != nil {
				fail(err)
				return
			}
			v, ok, err := pull()
			if err != nil {
				fail(err)
				return
			}
			if !ok {
				return
			}
			slot := make(chan elemResult, 1)
			select {
			case jobs <- parJob{v, slot}:
			case <-quit:
				return
			}
			if !send(slot) {
				return
			}
		}
	}()

	for i := 0; i < workers; i++ {
		go func() {
			for job := range jobs {
				select {
				case <-quit:
					job.slot <- elemResult{skip: true}
					continue
				default:
				}
				res := applyElem(es, st, cl, c.Ranging, takesArg, job.v)
				if res.err != nil || res.stop {
					stop()
				}
				job.slot <- res
			}
		}()
	}

	return engine.NewListStream(es.Interrupt, engine.Meta(input), func() (val.Value, bool, error) {
		for {
			slot, ok := <-order
			if !ok {
				return val.Value{}, false, nil
			}
			res := <-slot
			switch {
			case res.err != nil:
				stop()
				return val.Value{}, false, res.err
			case res.stop:
				return val.Value{}, false, nil
			case res.skip:
				continue
			}
			return res.v, true, nil
		}
	}).DisposeWith(stop), nil
}
