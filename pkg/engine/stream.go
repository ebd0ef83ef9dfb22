package engine

import (
	"io"

	"src.kelp.sh/pkg/val"
)

// ListStream is a lazy, possibly endless sequence of values. It is
// one-shot: once the producer is exhausted or fails, the stream stays
// exhausted, and Err reports what stopped it. Use Collect to materialize
// a stream whose elements are needed more than once.
type ListStream struct {
	pull    func() (val.Value, bool, error)
	dispose func()
	meta    Metadata
	intr    *Interrupt
	err     error
	done    bool
}

func (*ListStream) pipelineData() {}

// NewListStream returns a stream drawing elements from pull, which
// returns the next element, whether one was produced, and any error. intr
// is polled on every Next, making stream consumption an interrupt
// suspension point.
func NewListStream(intr *Interrupt, meta Metadata, pull func() (val.Value, bool, error)) *ListStream {
	return &ListStream{pull: pull, meta: meta, intr: intr}
}

// NewSliceStream returns a stream over a fixed slice of values.
func NewSliceStream(intr *Interrupt, meta Metadata, vs []val.Value) *ListStream {
	i := 0
	return NewListStream(intr, meta, func() (val.Value, bool, error) {
		if i >= len(vs) {
			return val.Value{}, false, nil
		}
		v := vs[i]
		i++
		return v, true, nil
	})
}

// Next returns the next element. Once it returns false the stream is
// exhausted for good; check Err for the cause.
func (s *ListStream) Next() (val.Value, bool) {
	if s.done {
		return val.Value{}, false
	}
	if err := s.intr.Check(); err != nil {
		s.stop(err)
		return val.Value{}, false
	}
	v, ok, err := s.pull()
	if err != nil {
		s.stop(err)
		return val.Value{}, false
	}
	if !ok {
		s.stop(nil)
		return val.Value{}, false
	}
	return v, true
}

func (s *ListStream) stop(err error) {
	s.done = true
	s.err = err
	s.pull = nil
	if s.dispose != nil {
		f := s.dispose
		s.dispose = nil
		f()
	}
}

// DisposeWith registers f to run once, when the stream stops for any
// reason, so a stream derived from another source can release it. Since
// disposing of an exhausted source is a no-op, f may release the source
// unconditionally. Hooks accumulate and run in registration order. It
// returns s.
func (s *ListStream) DisposeWith(f func()) *ListStream {
	if prev := s.dispose; prev != nil {
		s.dispose = func() { prev(); f() }
	} else {
		s.dispose = f
	}
	return s
}

// Dispose abandons the stream: it becomes exhausted, and the disposal hook
// releases whatever source the remaining elements would have come from.
// Disposing an exhausted stream does nothing.
func (s *ListStream) Dispose() {
	if s.done {
		return
	}
	s.stop(nil)
}

// Err returns the error that stopped the stream, if any. Only meaningful
// after Next has returned false.
func (s *ListStream) Err() error { return s.err }

// Meta returns the stream's provenance tag.
func (s *ListStream) Meta() Metadata { return s.meta }

// ByteStream is a lazily read byte source, such as an external command's
// output. Read polls the interrupt flag, making byte consumption a
// suspension point. finish, when set, runs once the source is drained and
// its error becomes the stream's; an external command reports a nonzero
// exit status this way.
type ByteStream struct {
	r      io.Reader
	meta   Metadata
	intr   *Interrupt
	finish func() error
	err    error
	done   bool
	closed bool
}

func (*ByteStream) pipelineData() {}

// NewByteStream returns a byte stream reading from r. finish may be nil.
func NewByteStream(intr *Interrupt, meta Metadata, r io.Reader, finish func() error) *ByteStream {
	return &ByteStream{r: r, meta: meta, intr: intr, finish: finish}
}

// Read implements io.Reader. Once the source is drained, Read returns the
// finish error if there is one and io.EOF otherwise, on every call.
func (s *ByteStream) Read(p []byte) (int, error) {
	if s.done {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	if err := s.intr.Check(); err != nil {
		s.done, s.err = true, err
		return 0, err
	}
	n, err := s.r.Read(p)
	switch {
	case err == io.EOF:
		s.done = true
		if ferr := s.runFinish(); ferr != nil {
			s.err = ferr
			return n, ferr
		}
		return n, io.EOF
	case err != nil:
		s.done, s.err = true, err
	}
	return n, err
}

// Close abandons the stream: the source is closed when it supports
// closing, and the finish hook still runs, so a producer blocked on
// writing into a full pipe is released and reaped. Reads after Close
// report end of stream. Closing a stream already read to the end is a
// no-op.
func (s *ByteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	if c, ok := s.r.(io.Closer); ok {
		c.Close()
	}
	err := s.runFinish()
	if s.err == nil {
		s.err = err
	}
	return err
}

// DisposeWith registers f to run once, when the stream is drained or
// closed, after any finish hook. It returns s.
func (s *ByteStream) DisposeWith(f func()) *ByteStream {
	if prev := s.finish; prev != nil {
		s.finish = func() error {
			err := prev()
			f()
			return err
		}
	} else {
		s.finish = func() error {
			f()
			return nil
		}
	}
	return s
}

func (s *ByteStream) runFinish() error {
	if s.finish == nil {
		return nil
	}
	f := s.finish
	s.finish = nil
	return f()
}

// Err returns the error that stopped the stream, if any.
func (s *ByteStream) Err() error { return s.err }

// Meta returns the stream's provenance tag.
func (s *ByteStream) Meta() Metadata { return s.meta }
