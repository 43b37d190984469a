package evaluator

import (
	"fmt"

	"github.com/andreasronge/ptclisp/internal/diag"
)

func newError(reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...any) *Error {
	return newError(diag.TypeError, format, args...)
}

func isError(obj Object) bool {
	_, ok := obj.(*Error)
	return ok
}

// isAbort reports whether obj terminates the current sequential path:
// errors, return/fail sentinels, and in-flight recur signals all bubble.
func isAbort(obj Object) bool {
	switch obj.(type) {
	case *Error, *ReturnSignal, *FailSignal, *RecurSignal:
		return true
	}
	return false
}
