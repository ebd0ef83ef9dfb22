package engine

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/val"
)

var (
	unk     = diag.Unknown
	errMock = errors.New("mock error")
)

func i(n int64) val.Value { return val.Int(n, unk) }

type closableReader struct {
	io.Reader
	closed bool
}

func (r *closableReader) Close() error {
	r.closed = true
	return nil
}

func TestCollect(t *testing.T) {
	r := diag.Ranging{From: 3, To: 7}

	v, err := Collect(Empty, r)
	if err != nil || !v.IsNothing() || v.Range() != r {
		t.Errorf("Collect(Empty) = %v, %v, want nothing at %v", v, err, r)
	}

	v, err = Collect(One{i(42)}, r)
	if err != nil || !reflect.DeepEqual(v, i(42)) {
		t.Errorf("Collect(One) = %v, %v, want 42", v, err)
	}

	intr := new(Interrupt)
	v, err = Collect(NewSliceStream(intr, Metadata{}, []val.Value{i(1), i(2), i(3)}), r)
	if err != nil || !reflect.DeepEqual(v, val.MakeList(r, i(1), i(2), i(3))) {
		t.Errorf("Collect(stream) = %v, %v, want [1 2 3]", v, err)
	}

	s := NewListStream(intr, Metadata{}, func() (val.Value, bool, error) {
		return val.Value{}, false, errMock
	})
	if _, err = Collect(s, r); err != errMock {
		t.Errorf("Collect(failing stream) = %v, want the stream's error", err)
	}

	v, err = Collect(NewByteStream(intr, Metadata{}, strings.NewReader("hi\n"), nil), r)
	if err != nil || !reflect.DeepEqual(v, val.String("hi", r)) {
		t.Errorf("Collect(bytes) = %v, %v, want \"hi\"", v, err)
	}

	raw := []byte{0x1f, 0x8b, 0xff}
	v, err = Collect(NewByteStream(intr, Metadata{}, strings.NewReader(string(raw)), nil), r)
	if err != nil || !reflect.DeepEqual(v, val.Binary(raw, r)) {
		t.Errorf("Collect(non-UTF-8 bytes) = %v, %v, want binary", v, err)
	}
}

func TestElements(t *testing.T) {
	intr := new(Interrupt)
	collect := func(pd PipelineData) ([]val.Value, error) {
		out := []val.Value{}
		err := Elements(intr, pd, func(v val.Value) bool {
			out = append(out, v)
			return true
		})
		return out, err
	}

	got, err := collect(Empty)
	if err != nil || len(got) != 0 {
		t.Errorf("Elements(Empty) visited %v, %v", got, err)
	}

	got, err = collect(One{val.MakeList(unk, i(1), i(2), i(3))})
	if err != nil || !reflect.DeepEqual(got, []val.Value{i(1), i(2), i(3)}) {
		t.Errorf("Elements(One list) = %v, %v", got, err)
	}

	// A non-iterable value is fed once, not an error.
	got, err = collect(One{i(7)})
	if err != nil || !reflect.DeepEqual(got, []val.Value{i(7)}) {
		t.Errorf("Elements(One int) = %v, %v", got, err)
	}

	got, err = collect(NewSliceStream(intr, Metadata{}, []val.Value{i(1), i(2)}))
	if err != nil || !reflect.DeepEqual(got, []val.Value{i(1), i(2)}) {
		t.Errorf("Elements(stream) = %v, %v", got, err)
	}

	s := NewListStream(intr, Metadata{}, func() (val.Value, bool, error) {
		return val.Value{}, false, errMock
	})
	if _, err = collect(s); err != errMock {
		t.Errorf("Elements(failing stream) = %v, want the stream's error", err)
	}

	bs := NewByteStream(intr, Metadata{}, strings.NewReader("a\nb\n\nc"), nil)
	got, err = collect(bs)
	want := []val.Value{
		val.String("a", unk), val.String("b", unk),
		val.String("", unk), val.String("c", unk),
	}
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Errorf("Elements(bytes) = %v, %v, want lines a b \"\" c", got, err)
	}
}

func TestElements_Break(t *testing.T) {
	intr := new(Interrupt)
	n := 0
	err := Elements(intr, NewSliceStream(intr, Metadata{}, []val.Value{i(1), i(2), i(3)}),
		func(val.Value) bool {
			n++
			return n < 2
		})
	if err != nil || n != 2 {
		t.Errorf("early stop visited %d elements with error %v, want 2, nil", n, err)
	}

	// A lone non-iterable value still honors the callback's verdict.
	n = 0
	err = Elements(intr, One{i(7)}, func(val.Value) bool {
		n++
		return false
	})
	if err != nil || n != 1 {
		t.Errorf("single value visited %d times with error %v, want 1, nil", n, err)
	}

	// An endless producer stops when the callback breaks.
	k := int64(0)
	endless := NewListStream(intr, Metadata{}, func() (val.Value, bool, error) {
		k++
		return i(k), true, nil
	})
	n = 0
	err = Elements(intr, endless, func(val.Value) bool {
		n++
		return n < 5
	})
	if err != nil || n != 5 {
		t.Errorf("endless stream visited %d elements with error %v, want 5, nil", n, err)
	}
}

func TestListStream_OneShot(t *testing.T) {
	intr := new(Interrupt)
	s := NewSliceStream(intr, Metadata{}, []val.Value{i(1)})
	if _, ok := s.Next(); !ok {
		t.Fatalf("first Next returned no element")
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("stream produced after its single element")
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("exhausted stream produced again")
	}
	if s.Err() != nil {
		t.Errorf("clean exhaustion left error %v", s.Err())
	}
}

func TestListStream_Interrupt(t *testing.T) {
	intr := new(Interrupt)
	s := NewSliceStream(intr, Metadata{}, []val.Value{i(1), i(2), i(3)})
	if _, ok := s.Next(); !ok {
		t.Fatalf("first Next returned no element")
	}
	intr.Trigger()
	if _, ok := s.Next(); ok {
		t.Errorf("Next produced an element after interrupt")
	}
	if s.Err() != (errs.Interrupted{}) {
		t.Errorf("interrupted stream reports %v, want errs.Interrupted", s.Err())
	}

	// The flag is sticky until reset.
	if _, ok := s.Next(); ok {
		t.Errorf("interrupted stream produced again")
	}
	intr.Reset()
	if intr.Triggered() {
		t.Errorf("Reset did not lower the flag")
	}
}

func TestByteStream_FinishError(t *testing.T) {
	intr := new(Interrupt)
	s := NewByteStream(intr, Metadata{}, strings.NewReader("out"), func() error {
		return errMock
	})
	if _, err := Collect(s, unk); err != errMock {
		t.Errorf("Collect = %v, want the finish error", err)
	}
	if s.Err() != errMock {
		t.Errorf("stream reports %v, want the finish error", s.Err())
	}
}

func TestByteStream_Interrupt(t *testing.T) {
	intr := new(Interrupt)
	s := NewByteStream(intr, Metadata{}, strings.NewReader("data"), nil)
	intr.Trigger()
	n, err := s.Read(make([]byte, 4))
	if n != 0 || err != (errs.Interrupted{}) {
		t.Errorf("Read = %d, %v, want 0, errs.Interrupted", n, err)
	}
}

func TestByteStream_Close(t *testing.T) {
	intr := new(Interrupt)
	src := &closableReader{Reader: strings.NewReader("never read")}
	finished := 0
	s := NewByteStream(intr, Metadata{}, src, func() error {
		finished++
		return nil
	})
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
	if !src.closed {
		t.Errorf("Close left the source open")
	}
	if finished != 1 {
		t.Errorf("finish ran %d times, want 1", finished)
	}
	if _, err := s.Read(make([]byte, 4)); err != io.EOF {
		t.Errorf("Read after Close = %v, want EOF", err)
	}
	if err := s.Close(); err != nil || finished != 1 {
		t.Errorf("second Close = %v with %d finish runs, want nil and 1", err, finished)
	}
}

func TestByteStream_CloseAfterDrain(t *testing.T) {
	intr := new(Interrupt)
	finished := 0
	s := NewByteStream(intr, Metadata{}, strings.NewReader("hi"), func() error {
		finished++
		return errMock
	})
	if _, err := io.ReadAll(s); err != errMock {
		t.Fatalf("ReadAll = %v, want the finish error", err)
	}
	if err := s.Close(); err != nil || finished != 1 {
		t.Errorf("Close after drain = %v with %d finish runs, want nil and 1", err, finished)
	}
}

func TestListStream_Dispose(t *testing.T) {
	intr := new(Interrupt)
	disposed := 0
	s := NewSliceStream(intr, Metadata{}, []val.Value{i(1), i(2), i(3)}).
		DisposeWith(func() { disposed++ })
	if _, ok := s.Next(); !ok {
		t.Fatalf("first Next returned no element")
	}
	s.Dispose()
	if disposed != 1 {
		t.Errorf("hook ran %d times, want 1", disposed)
	}
	if _, ok := s.Next(); ok {
		t.Errorf("disposed stream produced an element")
	}
	s.Dispose()
	if disposed != 1 {
		t.Errorf("second Dispose reran the hook")
	}
}

func TestListStream_DisposeOnExhaustion(t *testing.T) {
	intr := new(Interrupt)
	disposed := 0
	s := NewSliceStream(intr, Metadata{}, []val.Value{i(1)}).
		DisposeWith(func() { disposed++ })
	for {
		if _, ok := s.Next(); !ok {
			break
		}
	}
	if disposed != 1 {
		t.Errorf("hook ran %d times on exhaustion, want 1", disposed)
	}
}

func TestListStream_DisposeWithChains(t *testing.T) {
	intr := new(Interrupt)
	var order []int
	s := NewSliceStream(intr, Metadata{}, []val.Value{i(1)}).
		DisposeWith(func() { order = append(order, 1) }).
		DisposeWith(func() { order = append(order, 2) })
	s.Dispose()
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Errorf("hooks ran as %v, want [1 2]", order)
	}
}

func TestByteStream_DisposeWith(t *testing.T) {
	intr := new(Interrupt)
	released := 0
	bs := NewByteStream(intr, Metadata{}, strings.NewReader("x"), nil).
		DisposeWith(func() { released++ })
	if _, err := io.ReadAll(bs); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if released != 1 {
		t.Errorf("hook ran %d times on drain, want 1", released)
	}
	bs.Close()
	if released != 1 {
		t.Errorf("Close after drain reran the hook")
	}

	released = 0
	bs = NewByteStream(intr, Metadata{}, strings.NewReader("x"), nil).
		DisposeWith(func() { released++ })
	bs.Close()
	if released != 1 {
		t.Errorf("hook ran %d times on Close, want 1", released)
	}
}

func TestDispose_ReachesTheSource(t *testing.T) {
	intr := new(Interrupt)
	src := &closableReader{Reader: strings.NewReader("a\nb\n")}
	bs := NewByteStream(intr, Metadata{}, src, nil)
	lines := NewListStream(intr, Metadata{}, Pull(bs)).
		DisposeWith(func() { Dispose(bs) })
	if _, ok := lines.Next(); !ok {
		t.Fatalf("first Next returned no element")
	}
	Dispose(lines)
	if !src.closed {
		t.Errorf("disposal did not reach the byte source")
	}
}

func TestMeta(t *testing.T) {
	intr := new(Interrupt)
	m := Metadata{Source: "ls"}
	if got := Meta(NewByteStream(intr, m, strings.NewReader(""), nil)); got != m {
		t.Errorf("Meta(bytes) = %v, want %v", got, m)
	}
	if got := Meta(NewSliceStream(intr, m, nil)); got != m {
		t.Errorf("Meta(stream) = %v, want %v", got, m)
	}
	if got := Meta(One{i(1)}); got != (Metadata{}) {
		t.Errorf("Meta(One) = %v, want zero", got)
	}
}
