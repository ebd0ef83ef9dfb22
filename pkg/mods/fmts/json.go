package fmts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/val"
)

var fromJSONSig = ast.NewSignature("from json").
	WithDescription("Parse the input text as a JSON document.")

func fromJSON(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	s, err := inputText(input, c.Ranging)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, errs.BadValue{
			What: "input to 'from json'", Valid: "a JSON document", Actual: "empty text",
		}
	}
	if err != nil {
		return nil, err
	}
	v, err := jsonValue(dec, tok, c.Ranging)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after the JSON value")
	}
	return engine.One{Value: v}, nil
}

// jsonValue builds a value from the token just read, consuming nested
// tokens through the decoder. Decoding by token keeps object keys in
// document order, which a map round trip would lose.
func jsonValue(dec *json.Decoder, tok json.Token, r diag.Ranging) (val.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			return jsonList(dec, r)
		}
		return jsonRecord(dec, r)
	case bool:
		return val.Bool(t, r), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return val.Int(i, r), nil
		}
		f, err := t.Float64()
		if err != nil {
			return val.Value{}, err
		}
		return val.Float(f, r), nil
	case string:
		return val.String(t, r), nil
	case nil:
		return val.Nothing(r), nil
	}
	return val.Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

func jsonList(dec *json.Decoder, r diag.Ranging) (val.Value, error) {
	l := val.EmptyList
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return val.Value{}, err
		}
		v, err := jsonValue(dec, tok, r)
		if err != nil {
			return val.Value{}, err
		}
		l = l.Conj(v)
	}
	if _, err := dec.Token(); err != nil {
		return val.Value{}, err
	}
	return val.NewList(l, r), nil
}

func jsonRecord(dec *json.Decoder, r diag.Ranging) (val.Value, error) {
	rec := val.Record{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return val.Value{}, err
		}
		key, _ := keyTok.(string)
		tok, err := dec.Token()
		if err != nil {
			return val.Value{}, err
		}
		v, err := jsonValue(dec, tok, r)
		if err != nil {
			return val.Value{}, err
		}
		rec = rec.Assoc(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return val.Value{}, err
	}
	return val.NewRecord(rec, r), nil
}

var toJSONSig = ast.NewSignature("to json").
	WithDescription("Render the input as an indented JSON document.")

func toJSON(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	v, err := engine.Collect(input, c.Ranging)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return engine.One{Value: val.String(out.String(), c.Ranging)}, nil
}

// encodeJSON writes the compact JSON form of a value. Records encode in
// field order; dates, durations and binary data encode as strings, so the
// encoding is not reversible for them.
func encodeJSON(buf *bytes.Buffer, v val.Value) error {
	switch v.Kind() {
	case val.KindNothing:
		buf.WriteString("null")
	case val.KindBool:
		b, _ := v.AsBool()
		buf.WriteString(strconv.FormatBool(b))
	case val.KindInt:
		i, _ := v.AsInt()
		buf.WriteString(strconv.FormatInt(i, 10))
	case val.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errs.BadValue{
				What: "value for 'to json'", Valid: "a finite number",
				Actual: strconv.FormatFloat(f, 'g', -1, 64),
			}
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case val.KindString:
		s, _ := v.AsString()
		writeJSONString(buf, s)
	case val.KindDate:
		t, _ := v.AsDate()
		writeJSONString(buf, t.Format(time.RFC3339Nano))
	case val.KindDuration:
		d, _ := v.AsDuration()
		writeJSONString(buf, d.String())
	case val.KindFilesize:
		n, _ := v.AsFilesize()
		buf.WriteString(strconv.FormatInt(n, 10))
	case val.KindBinary:
		b, _ := v.AsBinary()
		enc, _ := json.Marshal(b)
		buf.Write(enc)
	case val.KindList:
		l, _ := v.AsList()
		buf.WriteByte('[')
		first := true
		for it := l.Iterator(); it.HasElem(); it.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := encodeJSON(buf, it.Elem().(val.Value)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case val.KindRecord:
		rec, _ := v.AsRecord()
		buf.WriteByte('{')
		for i := 0; i < rec.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, elem := rec.Get(i)
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if err := encodeJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return errs.BadValue{
			What: "value for 'to json'", Valid: "a JSON-representable value",
			Actual: v.Kind().String(),
		}
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc, _ := json.Marshal(s)
	buf.Write(enc)
}
