package val

import (
	"time"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/errs"
)

func (v Value) cantConvert(to string) error {
	return errs.CantConvert{From: v.Kind().String(), To: to}
}

// AsBool returns the value as a bool, or an error if it is of another kind.
// The other accessors follow the same pattern; none of them coerce.
func (v Value) AsBool() (bool, error) {
	if b, ok := v.data.(bool); ok {
		return b, nil
	}
	return false, v.cantConvert("bool")
}

// AsInt returns the value as an int.
func (v Value) AsInt() (int64, error) {
	if i, ok := v.data.(int64); ok {
		return i, nil
	}
	return 0, v.cantConvert("int")
}

// AsFloat returns the value as a float.
func (v Value) AsFloat() (float64, error) {
	if f, ok := v.data.(float64); ok {
		return f, nil
	}
	return 0, v.cantConvert("float")
}

// AsString returns the value as a string.
func (v Value) AsString() (string, error) {
	if s, ok := v.data.(string); ok {
		return s, nil
	}
	return "", v.cantConvert("string")
}

// AsBinary returns the value as binary data.
func (v Value) AsBinary() ([]byte, error) {
	if b, ok := v.data.([]byte); ok {
		return b, nil
	}
	return nil, v.cantConvert("binary")
}

// AsDate returns the value as a date.
func (v Value) AsDate() (time.Time, error) {
	if t, ok := v.data.(time.Time); ok {
		return t, nil
	}
	return time.Time{}, v.cantConvert("date")
}

// AsDuration returns the value as a duration.
func (v Value) AsDuration() (time.Duration, error) {
	if d, ok := v.data.(time.Duration); ok {
		return d, nil
	}
	return 0, v.cantConvert("duration")
}

// AsFilesize returns the value as a filesize, in bytes.
func (v Value) AsFilesize() (int64, error) {
	if n, ok := v.data.(filesize); ok {
		return int64(n), nil
	}
	return 0, v.cantConvert("filesize")
}

// AsRange returns the value as a range.
func (v Value) AsRange() (*Range, error) {
	if rg, ok := v.data.(*Range); ok {
		return rg, nil
	}
	return nil, v.cantConvert("range")
}

// AsRecord returns the value as a record.
func (v Value) AsRecord() (Record, error) {
	if rec, ok := v.data.(Record); ok {
		return rec, nil
	}
	return Record{}, v.cantConvert("record")
}

// AsList returns the value as a list.
func (v Value) AsList() (List, error) {
	if v.Kind() == KindList {
		return v.data.(List), nil
	}
	return nil, v.cantConvert("list")
}

// AsClosure returns the value as a closure.
func (v Value) AsClosure() (*Closure, error) {
	if c, ok := v.data.(*Closure); ok {
		return c, nil
	}
	return nil, v.cantConvert("closure")
}

// AsBlock returns the value as a block reference.
func (v Value) AsBlock() (ast.BlockID, error) {
	if id, ok := v.data.(ast.BlockID); ok {
		return id, nil
	}
	return 0, v.cantConvert("block")
}

// AsError returns the payload of an error value. The second return value
// indicates whether the value is of the error kind.
func (v Value) AsError() (error, bool) {
	if v.Kind() != KindError {
		return nil, false
	}
	return v.data.(error), true
}

// AsCustom returns the value as a custom value.
func (v Value) AsCustom() (Custom, error) {
	if v.Kind() == KindCustom {
		return v.data.(Custom), nil
	}
	return nil, v.cantConvert("custom")
}

// CoerceFloat is like AsFloat, but also accepts ints.
func (v Value) CoerceFloat() (float64, error) {
	switch d := v.data.(type) {
	case int64:
		return float64(d), nil
	case float64:
		return d, nil
	}
	return 0, v.cantConvert("float")
}

// CoerceString converts scalar values to their string form: strings stay as
// they are, numbers, bools, dates, durations and filesizes format
// themselves, binary data reinterprets as UTF-8 and nothing becomes the
// empty string. Compound values do not coerce.
func (v Value) CoerceString() (string, error) {
	switch d := v.data.(type) {
	case nil:
		return "", nil
	case bool:
		if d {
			return "true", nil
		}
		return "false", nil
	case int64:
		return formatInt(d), nil
	case float64:
		return formatFloat(d), nil
	case string:
		return d, nil
	case []byte:
		return string(d), nil
	case time.Time:
		return formatDate(d), nil
	case time.Duration:
		return formatDuration(d), nil
	case filesize:
		return formatFilesize(int64(d)), nil
	}
	return "", v.cantConvert("string")
}
