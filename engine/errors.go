package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/quill/vm"
)

// ScriptError is an exception a script did not catch.
type ScriptError struct {
	Class     string
	Message   string
	Line      int
	Traceback []string
}

func (e *ScriptError) Error() string {
	var b strings.Builder
	b.WriteString(e.Class)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	return b.String()
}

// Is matches another *ScriptError of the same class, so callers can test
// errors.Is(err, &ScriptError{Class: "KeyError"}).
func (e *ScriptError) Is(target error) bool {
	t, ok := target.(*ScriptError)
	return ok && t.Class == e.Class
}

func newScriptError(interp *vm.Interpreter) *ScriptError {
	ex, ok := vm.ObjectAs[*vm.ExceptionObject](interp.Exception())
	if !ok {
		return &ScriptError{Class: "Exception", Message: "script failed without an exception"}
	}
	return &ScriptError{
		Class:     ex.Class().Name(),
		Message:   ex.Message(),
		Line:      ex.Line(),
		Traceback: ex.Traceback(),
	}
}
