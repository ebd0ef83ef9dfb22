package eval

import (
	"fmt"
	"strings"

	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
)

// Exception is a runtime error annotated with the source range of the
// responsible expression and the traceback of the call sites active when it
// arose, innermost first. It is what Block returns for every failure that
// is not a control flow signal.
type Exception struct {
	// Reason is the underlying cause, often one of the types in pkg/errs.
	Reason error
	// Ranging is the range of the responsible expression.
	diag.Ranging
	// Traceback is the chain of active call sites, headed by the context of
	// the responsible expression when it is known.
	Traceback *engine.Traceback
}

// Error returns the message of the cause.
func (exc *Exception) Error() string { return exc.Reason.Error() }

// Reason returns the cause of err if it is an Exception, and err itself
// otherwise.
func Reason(err error) error {
	if exc, ok := err.(*Exception); ok {
		return exc.Reason
	}
	return err
}

// Show shows the exception with the source contexts of its traceback.
func (exc *Exception) Show(indent string) string {
	var sb strings.Builder

	if shower, ok := exc.Reason.(diag.Shower); ok {
		fmt.Fprintf(&sb, "Error: %s", shower.Show(indent))
	} else {
		fmt.Fprintf(&sb, "Error: \033[31;1m%s\033[m", exc.Reason.Error())
	}

	if tb := exc.Traceback; tb != nil {
		sb.WriteString("\n")
		if tb.Next == nil {
			sb.WriteString(tb.Head.ShowCompact(indent))
		} else {
			sb.WriteString(indent + "Traceback:")
			for ; tb != nil; tb = tb.Next {
				sb.WriteString("\n" + indent + "  ")
				sb.WriteString(tb.Head.Show(indent + "    "))
			}
		}
	}
	return sb.String()
}

// Flow is the error type of the control flow signals of break and continue.
// A flow signal is not a failure: it unwinds block evaluations until the
// nearest enclosing loop catches it. One escaping a command body is
// converted into a real error.
type Flow uint

// Possible values for Flow.
const (
	Break Flow = iota
	Continue
)

var flowNames = [...]string{"break", "continue"}

// Error returns the name of the signal.
func (f Flow) Error() string {
	if int(f) >= len(flowNames) {
		return fmt.Sprintf("bad flow %d", uint(f))
	}
	return flowNames[f]
}

// Show shows the flow signal.
func (f Flow) Show(string) string {
	return "\033[33;1m" + f.Error() + "\033[m"
}

// Return is the control flow signal of return, carrying the returned data.
// The evaluator catches it at command and closure boundaries and turns Data
// into the call's output.
type Return struct {
	Data engine.PipelineData
}

// Error returns "return".
func (*Return) Error() string { return "return" }

// Show shows the return signal.
func (*Return) Show(string) string {
	return "\033[33;1mreturn\033[m"
}

// outsideLoop converts an escaping break or continue into a real error.
func outsideLoop(f Flow) error {
	return fmt.Errorf("%s outside of a loop", f.Error())
}
