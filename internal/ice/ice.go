// Package ice is the single exit point for internal compiler errors.
//
// Every invariant violation in the IR core (an index past the end of a table,
// an operand width mismatch, an opcode reaching a dispatch arm that cannot
// handle it) goes through Fatalf. The panic value is always *Error, so the
// driver can tell an ICE apart from an ordinary runtime panic.
package ice

import "fmt"

// Error is the panic payload raised by Fatalf.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return "internal compiler error: " + e.Msg
}

// Fatalf aborts the current compilation with an internal compiler error.
func Fatalf(format string, args ...any) {
	panic(&Error{Msg: fmt.Sprintf(format, args...)})
}

// Assert calls Fatalf when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		Fatalf(format, args...)
	}
}

// Recover converts an in-flight *Error panic into *err. Any other panic is
// re-raised. It must be called directly from a deferred function.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		if err != nil {
			*err = e
		}
		return
	}
	panic(r)
}
