package wire_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/must"
	"src.kelp.sh/pkg/val"
	"src.kelp.sh/pkg/wire"
)

func TestRoundTrip(t *testing.T) {
	unk := diag.Unknown
	date := time.Date(2020, 5, 1, 10, 30, 0, 987654321, time.FixedZone("", 2*3600))
	vals := []val.Value{
		val.Nothing(unk),
		val.Bool(true, unk),
		val.Int(-42, unk),
		// Beyond the range float64 keeps exactly.
		val.Int(9007199254740993, unk),
		val.Float(0.1, unk),
		val.String("hi there", unk),
		val.String("", unk),
		val.Binary([]byte{0, 1, 2, 255}, unk),
		val.Date(date, unk),
		val.Duration(90*time.Minute+time.Nanosecond, unk),
		val.Filesize(1500, unk),
		must.OK1(val.NewRange(
			val.Int(1, unk), val.Int(3, unk), val.Int(9, unk), false, unk)),
		must.OK1(val.NewRange(
			val.Float(0, unk), val.Nothing(unk), val.Nothing(unk), true, unk)),
		val.MakeList(unk),
		val.MakeList(unk, val.Int(1, unk), val.String("x", unk),
			val.MakeRecord(unk, "k", val.Bool(false, unk))),
		val.MakeRecord(unk),
		val.MakeRecord(unk, "b", val.Int(2, unk), "a", val.Int(1, unk)),
		val.Error(errors.New("boom"), unk),
	}
	for _, v := range vals {
		enc, err := wire.Encode(v)
		if err != nil {
			t.Errorf("Encode of a %s: %v", v.Kind(), err)
			continue
		}
		got, err := wire.Decode(enc)
		if err != nil {
			t.Errorf("Decode(%s): %v", enc, err)
			continue
		}
		if !val.Equal(got, v) {
			t.Errorf("round trip changed the value; wire form %s", enc)
		}
	}
}

func TestRoundTrip_NonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		enc := must.OK1(wire.Encode(val.Float(f, diag.Unknown)))
		got := must.OK1(wire.Decode(enc))
		gf, err := got.AsFloat()
		if err != nil {
			t.Fatalf("decoded %s to a %s", enc, got.Kind())
		}
		if math.IsNaN(f) {
			if !math.IsNaN(gf) {
				t.Errorf("got %v, want NaN", gf)
			}
		} else if gf != f {
			t.Errorf("got %v, want %v", gf, f)
		}
	}
}

func TestRoundTrip_Span(t *testing.T) {
	r := diag.Ranging{From: 3, To: 8}
	got := must.OK1(wire.Decode(must.OK1(wire.Encode(val.Int(7, r)))))
	if got.Range() != r {
		t.Errorf("got span %v, want %v", got.Range(), r)
	}

	got = must.OK1(wire.Decode(must.OK1(wire.Encode(val.Int(7, diag.Unknown)))))
	if got.Range() != diag.Unknown {
		t.Errorf("got span %v, want unknown", got.Range())
	}
}

func TestEncode_NoWireForm(t *testing.T) {
	_, err := wire.Encode(val.Block(ast.BlockID(0), diag.Unknown))
	want := errs.BadValue{
		What: "value for the wire", Valid: "a serializable value", Actual: "block"}
	if err != want {
		t.Errorf("got error %v, want %v", err, want)
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := wire.Decode([]byte(`{"type": "widget", "span": {"from": -1, "to": -1}}`))
	if err == nil || !strings.Contains(err.Error(), `unknown wire type "widget"`) {
		t.Errorf("got error %v, want unknown wire type", err)
	}

	_, err = wire.Decode([]byte(`{"type": "int", "payload": "no", "span": {"from": -1, "to": -1}}`))
	if err == nil || !strings.Contains(err.Error(), `bad payload for wire type "int"`) {
		t.Errorf("got error %v, want bad payload", err)
	}
}

func TestEncoderDecoder(t *testing.T) {
	unk := diag.Unknown
	vals := []val.Value{
		val.Int(1, unk),
		val.String("two", unk),
		val.MakeList(unk, val.Bool(true, unk)),
	}

	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf)
	for _, v := range vals {
		if err := enc.Encode(v); err != nil {
			t.Fatal(err)
		}
	}

	dec := wire.NewDecoder(&buf)
	for i, want := range vals {
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("Decode #%d: %v", i, err)
		}
		if !val.Equal(got, want) {
			t.Errorf("value #%d changed across the stream", i)
		}
	}
	if _, err := dec.Decode(); err != io.EOF {
		t.Errorf("got %v after the last value, want EOF", err)
	}
}
