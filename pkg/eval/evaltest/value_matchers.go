package evaltest

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/val"
)

// ValueMatcher is a value that can be passed to [Case.Puts] and has its own
// matching semantics.
type ValueMatcher interface {
	matchValue(val.Value) bool
	String() string
}

// Anything matches any value. It is useful when the value carries
// information that only matters when the test fails.
var Anything ValueMatcher = anything{}

type anything struct{}

func (anything) matchValue(val.Value) bool { return true }
func (anything) String() string            { return "anything" }

// ApproximatelyThreshold defines the threshold for matching float64 values
// when using [Approximately].
const ApproximatelyThreshold = 1e-15

// Approximately matches a float within the threshold defined by
// [ApproximatelyThreshold].
func Approximately(f float64) ValueMatcher { return approximately{f} }

type approximately struct{ value float64 }

func (a approximately) matchValue(got val.Value) bool {
	f, err := got.CoerceFloat()
	return err == nil && matchFloat64(a.value, f, ApproximatelyThreshold)
}

func (a approximately) String() string {
	return fmt.Sprintf("approximately %v", a.value)
}

func matchFloat64(a, b, threshold float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsInf(a, 0) && math.IsInf(b, 0) &&
		math.Signbit(a) == math.Signbit(b) {
		return true
	}
	return math.Abs(a-b) <= threshold
}

// StringMatching matches any string matching a regexp pattern. If the
// pattern is not a valid regexp, the function panics.
func StringMatching(p string) ValueMatcher { return stringMatching{regexp.MustCompile(p)} }

type stringMatching struct{ pattern *regexp.Regexp }

func (s stringMatching) matchValue(got val.Value) bool {
	str, err := got.AsString()
	return err == nil && s.pattern.MatchString(str)
}

func (s stringMatching) String() string {
	return fmt.Sprintf("string matching %v", s.pattern)
}

func matchValue(want any, got val.Value) bool {
	if vm, ok := want.(ValueMatcher); ok {
		return vm.matchValue(got)
	}
	return val.Equal(toValue(want), got)
}

// toValue converts the Go values accepted by [Case.Puts] into Kelp values
// with unknown spans. Comparisons ignore spans, so the wanted side never
// needs real ones.
func toValue(a any) val.Value {
	switch a := a.(type) {
	case val.Value:
		return a
	case nil:
		return val.Nothing(diag.Unknown)
	case bool:
		return val.Bool(a, diag.Unknown)
	case int:
		return val.Int(int64(a), diag.Unknown)
	case int64:
		return val.Int(a, diag.Unknown)
	case float64:
		return val.Float(a, diag.Unknown)
	case string:
		return val.String(a, diag.Unknown)
	case time.Duration:
		return val.Duration(a, diag.Unknown)
	default:
		panic(fmt.Sprintf("evaltest: no conversion for %T", a))
	}
}
