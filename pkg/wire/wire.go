// Package wire serializes values for process boundaries.
//
// A value becomes one JSON message holding a type tag, a payload whose
// shape the tag fixes, and the value's source span:
//
//	{"type": "int", "payload": 42, "span": {"from": 3, "to": 5}}
//
// The form is self-describing, so a peer decodes it without out-of-band
// knowledge. Every data kind round-trips losslessly; an error keeps its
// message. Closures, blocks and custom values are tied to one engine state
// and have no wire form.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/must"
	"src.kelp.sh/pkg/val"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Span    span            `json:"span"`
}

type span struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Record payloads are arrays of entries rather than JSON objects: field
// order is part of a record's identity and must survive any decoder.
type recordEntry struct {
	Key   string  `json:"key"`
	Value message `json:"value"`
}

type rangePayload struct {
	From      message `json:"from"`
	Next      message `json:"next"`
	To        message `json:"to"`
	Exclusive bool    `json:"exclusive"`
}

// Encode renders a value in its wire form.
func Encode(v val.Value) ([]byte, error) {
	m, err := encode(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses a wire message back into a value.
func Decode(data []byte) (val.Value, error) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return val.Value{}, err
	}
	return decode(m)
}

func encode(v val.Value) (message, error) {
	m := message{Type: v.Kind().String(), Span: span{v.Range().From, v.Range().To}}
	switch v.Kind() {
	case val.KindNothing:
	case val.KindBool:
		b, _ := v.AsBool()
		m.Payload = marshal(b)
	case val.KindInt:
		n, _ := v.AsInt()
		m.Payload = marshal(n)
	case val.KindFloat:
		f, _ := v.AsFloat()
		// JSON numbers cannot carry the non-finite floats.
		switch {
		case math.IsNaN(f):
			m.Payload = marshal("nan")
		case math.IsInf(f, 1):
			m.Payload = marshal("+inf")
		case math.IsInf(f, -1):
			m.Payload = marshal("-inf")
		default:
			m.Payload = marshal(f)
		}
	case val.KindString:
		s, _ := v.AsString()
		m.Payload = marshal(s)
	case val.KindBinary:
		b, _ := v.AsBinary()
		m.Payload = marshal(b)
	case val.KindDate:
		d, _ := v.AsDate()
		m.Payload = marshal(d.Format(time.RFC3339Nano))
	case val.KindDuration:
		d, _ := v.AsDuration()
		m.Payload = marshal(int64(d))
	case val.KindFilesize:
		n, _ := v.AsFilesize()
		m.Payload = marshal(n)
	case val.KindRange:
		rg, _ := v.AsRange()
		from, err := encode(rg.From)
		if err != nil {
			return message{}, err
		}
		next, err := encode(rg.Next)
		if err != nil {
			return message{}, err
		}
		to, err := encode(rg.To)
		if err != nil {
			return message{}, err
		}
		m.Payload = marshal(rangePayload{from, next, to, rg.Exclusive})
	case val.KindRecord:
		rec, _ := v.AsRecord()
		entries := make([]recordEntry, 0, rec.Len())
		for i := 0; i < rec.Len(); i++ {
			k, elem := rec.Get(i)
			em, err := encode(elem)
			if err != nil {
				return message{}, err
			}
			entries = append(entries, recordEntry{k, em})
		}
		m.Payload = marshal(entries)
	case val.KindList:
		l, _ := v.AsList()
		elems := make([]message, 0, l.Len())
		for it := l.Iterator(); it.HasElem(); it.Next() {
			em, err := encode(it.Elem().(val.Value))
			if err != nil {
				return message{}, err
			}
			elems = append(elems, em)
		}
		m.Payload = marshal(elems)
	case val.KindError:
		e, _ := v.AsError()
		m.Payload = marshal(e.Error())
	default:
		return message{}, errs.BadValue{
			What: "value for the wire", Valid: "a serializable value",
			Actual: v.Kind().String()}
	}
	return m, nil
}

// marshal encodes one payload. The payload shapes used above never fail.
func marshal(x any) json.RawMessage {
	return must.OK1(json.Marshal(x))
}

func decode(m message) (val.Value, error) {
	r := diag.Ranging{From: m.Span.From, To: m.Span.To}
	switch m.Type {
	case "nothing":
		return val.Nothing(r), nil
	case "bool":
		var b bool
		if err := json.Unmarshal(m.Payload, &b); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Bool(b, r), nil
	case "int":
		var n int64
		if err := json.Unmarshal(m.Payload, &n); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Int(n, r), nil
	case "float":
		if len(m.Payload) > 0 && m.Payload[0] == '"' {
			var s string
			if err := json.Unmarshal(m.Payload, &s); err != nil {
				return val.Value{}, payloadError(m.Type, err)
			}
			switch s {
			case "nan":
				return val.Float(math.NaN(), r), nil
			case "+inf":
				return val.Float(math.Inf(1), r), nil
			case "-inf":
				return val.Float(math.Inf(-1), r), nil
			}
			return val.Value{}, payloadError(m.Type, fmt.Errorf("bad name %q", s))
		}
		var f float64
		if err := json.Unmarshal(m.Payload, &f); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Float(f, r), nil
	case "string":
		var s string
		if err := json.Unmarshal(m.Payload, &s); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.String(s, r), nil
	case "binary":
		var b []byte
		if err := json.Unmarshal(m.Payload, &b); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Binary(b, r), nil
	case "date":
		var s string
		if err := json.Unmarshal(m.Payload, &s); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		d, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Date(d, r), nil
	case "duration":
		var n int64
		if err := json.Unmarshal(m.Payload, &n); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Duration(time.Duration(n), r), nil
	case "filesize":
		var n int64
		if err := json.Unmarshal(m.Payload, &n); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Filesize(n, r), nil
	case "range":
		var p rangePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		from, err := decode(p.From)
		if err != nil {
			return val.Value{}, err
		}
		next, err := decode(p.Next)
		if err != nil {
			return val.Value{}, err
		}
		to, err := decode(p.To)
		if err != nil {
			return val.Value{}, err
		}
		return val.NewRange(from, next, to, p.Exclusive, r)
	case "record":
		var entries []recordEntry
		if err := json.Unmarshal(m.Payload, &entries); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		rec := val.Record{}
		for _, e := range entries {
			elem, err := decode(e.Value)
			if err != nil {
				return val.Value{}, err
			}
			rec = rec.Assoc(e.Key, elem)
		}
		return val.NewRecord(rec, r), nil
	case "list":
		var elems []message
		if err := json.Unmarshal(m.Payload, &elems); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		l := val.EmptyList
		for _, em := range elems {
			elem, err := decode(em)
			if err != nil {
				return val.Value{}, err
			}
			l = l.Conj(elem)
		}
		return val.NewList(l, r), nil
	case "error":
		var s string
		if err := json.Unmarshal(m.Payload, &s); err != nil {
			return val.Value{}, payloadError(m.Type, err)
		}
		return val.Error(errors.New(s), r), nil
	}
	return val.Value{}, fmt.Errorf("unknown wire type %q", m.Type)
}

func payloadError(typ string, err error) error {
	return fmt.Errorf("bad payload for wire type %q: %v", typ, err)
}

// An Encoder writes values to a stream, one message per line.
type Encoder struct {
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{json.NewEncoder(w)}
}

// Encode writes one value.
func (e *Encoder) Encode(v val.Value) error {
	m, err := encode(v)
	if err != nil {
		return err
	}
	return e.enc.Encode(m)
}

// A Decoder reads values from a stream.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{json.NewDecoder(r)}
}

// Decode reads the next value. It returns io.EOF at the end of the stream.
func (d *Decoder) Decode() (val.Value, error) {
	var m message
	if err := d.dec.Decode(&m); err != nil {
		return val.Value{}, err
	}
	return decode(m)
}
