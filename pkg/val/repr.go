package val

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"src.kelp.sh/pkg/ast"
)

// NoPretty can be passed to Repr to suppress pretty-printing.
const NoPretty = math.MinInt

// ReprPlain is like Repr, but without pretty-printing.
func ReprPlain(v Value) string { return Repr(v, NoPretty) }

// Repr returns a representation of a value, preferably a literal that
// evaluates back to it, or a string enclosed in "<>" naming its kind for
// kinds without a literal form. If indent is at least 0, compound values are
// pretty-printed with that initial indentation level; the indentation of the
// first line is assumed to have been written already.
func Repr(v Value, indent int) string {
	switch d := v.data.(type) {
	case nil:
		return "null"
	case bool:
		if d {
			return "true"
		}
		return "false"
	case int64:
		return formatInt(d)
	case float64:
		return formatFloat(d)
	case string:
		return strconv.Quote(d)
	case []byte:
		return formatBinary(d)
	case time.Time:
		return formatDate(d)
	case time.Duration:
		return formatDuration(d)
	case filesize:
		return formatFilesize(int64(d))
	case *Range:
		return reprRange(d, indent)
	case Record:
		b := newReprBuilder("{", "}", indent)
		d.IterateFields(func(k string, f Value) bool {
			b.writeElem(reprKey(k) + ": " + Repr(f, indent+1))
			return true
		})
		return b.String()
	case *Closure:
		return "<closure>"
	case ast.BlockID:
		return "<block>"
	case Custom:
		return "<" + d.TypeName() + ">"
	case error:
		return "<error: " + d.Error() + ">"
	case List:
		b := newReprBuilder("[", "]", indent)
		for it := d.Iterator(); it.HasElem(); it.Next() {
			b.writeElem(Repr(it.Elem().(Value), indent+1))
		}
		return b.String()
	default:
		panic(fmt.Sprintf("bad value payload %T", v.data))
	}
}

const indentUnit = "  "

// reprBuilder builds the representation of a compound value. With a
// non-negative indent each element goes on its own line.
type reprBuilder struct {
	open, close string
	indent      int
	sb          strings.Builder
	n           int
}

func newReprBuilder(open, close string, indent int) *reprBuilder {
	return &reprBuilder{open: open, close: close, indent: indent}
}

func (b *reprBuilder) writeElem(elem string) {
	if b.indent >= 0 {
		b.sb.WriteString("\n" + strings.Repeat(indentUnit, b.indent+1))
	} else if b.n > 0 {
		b.sb.WriteString(", ")
	}
	b.sb.WriteString(elem)
	if b.indent >= 0 {
		b.sb.WriteString(",")
	}
	b.n++
}

func (b *reprBuilder) String() string {
	if b.n == 0 {
		return b.open + b.close
	}
	if b.indent >= 0 {
		return b.open + b.sb.String() + "\n" + strings.Repeat(indentUnit, b.indent) + b.close
	}
	return b.open + b.sb.String() + b.close
}

// reprKey writes a record key, bare when it needs no quoting.
func reprKey(k string) string {
	if isBareKey(k) {
		return k
	}
	return strconv.Quote(k)
}

func isBareKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

func reprRange(rg *Range, indent int) string {
	var sb strings.Builder
	sb.WriteString(Repr(rg.From, indent))
	if !rg.Next.IsNothing() {
		sb.WriteString("..")
		sb.WriteString(Repr(rg.Next, indent))
	}
	sb.WriteString("..")
	if rg.Exclusive {
		sb.WriteString("<")
	}
	if !rg.To.IsNothing() {
		sb.WriteString(Repr(rg.To, indent))
	}
	return sb.String()
}

func formatInt(i int64) string { return strconv.FormatInt(i, 10) }

// formatFloat always keeps a fractional part or an exponent, so that the
// result still reads as a float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func formatDate(t time.Time) string { return t.Format(time.RFC3339Nano) }

func formatBinary(b []byte) string {
	var sb strings.Builder
	sb.WriteString("0x[")
	for _, x := range b {
		fmt.Fprintf(&sb, "%02X", x)
	}
	sb.WriteString("]")
	return sb.String()
}

var durationUnits = []struct {
	name string
	d    time.Duration
}{
	{"wk", 7 * 24 * time.Hour},
	{"day", 24 * time.Hour},
	{"hr", time.Hour},
	{"min", time.Minute},
	{"sec", time.Second},
	{"ms", time.Millisecond},
	{"us", time.Microsecond},
	{"ns", time.Nanosecond},
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0sec"
	}
	var sb strings.Builder
	if d < 0 {
		sb.WriteString("-")
		d = -d
	}
	first := true
	for _, u := range durationUnits {
		if n := d / u.d; n > 0 {
			if !first {
				sb.WriteString(" ")
			}
			first = false
			sb.WriteString(strconv.FormatInt(int64(n), 10))
			sb.WriteString(u.name)
			d -= n * u.d
		}
	}
	return sb.String()
}

var filesizeUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB"}

func formatFilesize(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	if n < 1024 {
		return sign + strconv.FormatInt(n, 10) + " B"
	}
	f := float64(n)
	for i, u := range filesizeUnits {
		f /= 1024
		if f < 1024 || i == len(filesizeUnits)-1 {
			return fmt.Sprintf("%s%.1f %s", sign, f, u)
		}
	}
	panic("unreachable")
}
