package engine

import (
	"bufio"
	"io"
	"unicode/utf8"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/strutil"
	"src.kelp.sh/pkg/val"
)

// PipelineData is the payload passed between pipeline stages: nothing at
// all, a single realized value, a lazy stream of values, or a lazy stream
// of bytes.
type PipelineData interface{ pipelineData() }

// Empty is the pipeline data of a stage with no input or no output.
var Empty PipelineData = emptyData{}

type emptyData struct{}

func (emptyData) pipelineData() {}

// One is a single realized value.
type One struct{ val.Value }

func (One) pipelineData() {}

// Metadata tags stream data with its provenance.
type Metadata struct {
	// Source names where the data came from, such as a file path or an
	// external command name. Empty when unknown.
	Source string
}

// Meta returns the provenance of the pipeline data. Only streams carry
// one.
func Meta(pd PipelineData) Metadata {
	switch d := pd.(type) {
	case *ListStream:
		return d.meta
	case *ByteStream:
		return d.meta
	}
	return Metadata{}
}

// Collect materializes pipeline data into a single value: a value stream
// becomes a list, a byte stream becomes a string when its bytes are valid
// UTF-8 and a binary value otherwise, Empty becomes nothing. A single
// trailing line ending is dropped from the string case. Streams are
// consumed; values synthesized here get range r.
func Collect(pd PipelineData, r diag.Ranging) (val.Value, error) {
	switch d := pd.(type) {
	case emptyData:
		return val.Nothing(r), nil
	case One:
		return d.Value, nil
	case *ListStream:
		list := val.EmptyList
		for {
			v, ok := d.Next()
			if !ok {
				break
			}
			list = list.Conj(v)
		}
		if err := d.Err(); err != nil {
			return val.Value{}, err
		}
		return val.NewList(list, r), nil
	case *ByteStream:
		bs, err := io.ReadAll(d)
		if err != nil {
			return val.Value{}, err
		}
		if utf8.Valid(bs) {
			return val.String(strutil.ChopLineEnding(string(bs)), r), nil
		}
		return val.Binary(bs, r), nil
	}
	panic("engine: bad PipelineData")
}

// Dispose releases pipeline data that a consumer abandons without
// draining. An abandoned byte stream closes its source and reaps its
// producer; a value stream derived from another stream passes the disposal
// on. Data already consumed to the end disposes as a no-op, so consumers
// that may stop early can dispose of their input unconditionally.
func Dispose(pd PipelineData) {
	switch d := pd.(type) {
	case *ListStream:
		d.Dispose()
	case *ByteStream:
		d.Close()
	}
}

// Unbounded reports whether the data is a single range value with no upper
// bound. Commands that must consume their whole input check it to fail fast
// instead of hanging.
func Unbounded(pd PipelineData) bool {
	if one, ok := pd.(One); ok && one.Value.Kind() == val.KindRange {
		rg, _ := one.Value.AsRange()
		return rg.IsUnbounded()
	}
	return false
}

// Pull returns a pull iterator over the data's elements, with the same
// per-element view as Elements. Each call reports the next element, whether
// one was produced, and the error that stopped the source. Pull itself does
// not poll the interrupt flag; wrapping the iterator in a ListStream adds
// the polling.
func Pull(pd PipelineData) func() (val.Value, bool, error) {
	switch d := pd.(type) {
	case emptyData:
		return func() (val.Value, bool, error) { return val.Value{}, false, nil }
	case One:
		switch d.Value.Kind() {
		case val.KindList:
			l, _ := d.Value.AsList()
			it := l.Iterator()
			return func() (val.Value, bool, error) {
				if !it.HasElem() {
					return val.Value{}, false, nil
				}
				v := it.Elem().(val.Value)
				it.Next()
				return v, true, nil
			}
		case val.KindRange:
			rg, _ := d.Value.AsRange()
			it := rg.Iter(d.Value.Range())
			return func() (val.Value, bool, error) {
				v, ok := it.Next()
				return v, ok, nil
			}
		}
		delivered := false
		return func() (val.Value, bool, error) {
			if delivered {
				return val.Value{}, false, nil
			}
			delivered = true
			return d.Value, true, nil
		}
	case *ListStream:
		return func() (val.Value, bool, error) {
			v, ok := d.Next()
			if !ok {
				return val.Value{}, false, d.Err()
			}
			return v, true, nil
		}
	case *ByteStream:
		rd := bufio.NewReader(d)
		done := false
		return func() (val.Value, bool, error) {
			if done {
				return val.Value{}, false, d.Err()
			}
			line, err := rd.ReadString('\n')
			if err != nil && err != io.EOF {
				done = true
				return val.Value{}, false, err
			}
			if err == io.EOF {
				done = true
			}
			if line != "" {
				return val.String(strutil.ChopLineEnding(line), diag.Unknown), true, nil
			}
			return val.Value{}, false, d.Err()
		}
	}
	panic("engine: bad PipelineData")
}

// Elements feeds the data's elements to f until f returns false: a value
// stream yields its values, a byte stream yields its lines with the line
// ending dropped, a single iterable value (list or range) yields its
// elements, any other single value is fed once, and Empty yields nothing.
// intr is polled once per element.
func Elements(intr *Interrupt, pd PipelineData, f func(val.Value) bool) error {
	switch d := pd.(type) {
	case emptyData:
		return nil
	case One:
		if !val.CanIterate(d.Value) {
			// A lone value behaves like a one-element stream, honoring f's
			// verdict like the other branches.
			return Elements(intr, NewSliceStream(intr, Metadata{}, []val.Value{d.Value}), f)
		}
		interrupted := false
		err := val.Iterate(d.Value, func(v val.Value) bool {
			if intr.Triggered() {
				interrupted = true
				return false
			}
			return f(v)
		})
		if interrupted {
			return errs.Interrupted{}
		}
		return err
	case *ListStream:
		for {
			v, ok := d.Next()
			if !ok {
				return d.Err()
			}
			if !f(v) {
				return nil
			}
		}
	case *ByteStream:
		rd := bufio.NewReader(d)
		for {
			if err := intr.Check(); err != nil {
				return err
			}
			line, err := rd.ReadString('\n')
			if line != "" {
				if !f(val.String(strutil.ChopLineEnding(line), diag.Unknown)) {
					return nil
				}
			}
			if err == io.EOF {
				return d.Err()
			}
			if err != nil {
				return err
			}
		}
	}
	panic("engine: bad PipelineData")
}
