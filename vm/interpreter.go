package vm

import (
	"fmt"
	"io"
	"time"
)

// Node is an executable syntax tree node. Package ast provides the
// implementations.
type Node interface {
	Execute(interp *Interpreter) Result
}

// ---------------------------------------------------------------------------
// Frames
// ---------------------------------------------------------------------------

// PushFrame enters a call of fn. Scripted functions get a scope nested in
// the scope they captured, the template frame gets one nested in the
// globals, native functions get none. It returns nil and throws a
// StateError when the call depth limit is reached.
func (interp *Interpreter) PushFrame(fn Function, receiver Value, args []Value) *Frame {
	if interp.depth >= interp.opts.MaxDepth {
		interp.Throw(interp.StateErrorClass, "Maximum call depth exceeded")
		return nil
	}

	var enclosing *Frame
	var parent *Scope
	native := false
	switch f := fn.(type) {
	case nil:
		parent = interp.globals
	case *ScriptedFunction:
		enclosing = f.enclosing
		parent = f.scope
		if parent == nil {
			parent = interp.globals
		}
	default:
		native = true
	}

	frame := newFrame(interp, interp.frame, enclosing, fn, receiver, args)
	frame.Retain()
	if !native {
		frame.scope = interp.NewScope(parent)
		interp.scope = frame.scope
	}
	if interp.profiler != nil && fn != nil {
		frame.started = time.Now()
	}
	interp.frame = frame
	interp.depth++
	return frame
}

// PopFrame leaves the current call and restores the caller's scope.
func (interp *Interpreter) PopFrame() {
	frame := interp.frame
	if frame == nil {
		return
	}
	interp.frame = frame.previous
	interp.scope = frame.saved
	interp.depth--
	if !frame.started.IsZero() {
		interp.profiler.Record(frame.name, time.Since(frame.started))
	}
	frame.Release()
}

// CurrentFrame returns the innermost frame, or nil.
func (interp *Interpreter) CurrentFrame() *Frame { return interp.frame }

// Depth returns the number of active frames.
func (interp *Interpreter) Depth() int { return interp.depth }

// ---------------------------------------------------------------------------
// Scopes and variables
// ---------------------------------------------------------------------------

// PushScope enters a block scope nested in the current one.
func (interp *Interpreter) PushScope() *Scope {
	s := interp.NewScope(interp.scope)
	interp.scope = s
	return s
}

// PopScope leaves the current block scope.
func (interp *Interpreter) PopScope() {
	s := interp.scope
	if s == nil || s == interp.globals {
		return
	}
	interp.scope = s.parent
	s.Release()
}

// CurrentScope returns the innermost scope.
func (interp *Interpreter) CurrentScope() *Scope { return interp.scope }

// Globals returns the global scope.
func (interp *Interpreter) Globals() *Scope { return interp.globals }

// GetVariable resolves name from the innermost scope outward. The Value is
// borrowed.
func (interp *Interpreter) GetVariable(name string) (Value, bool) {
	return interp.scope.Lookup(name)
}

// SetVariable overwrites the nearest binding of name or creates one in the
// innermost scope.
func (interp *Interpreter) SetVariable(name string, value Value) {
	interp.scope.Assign(name, value)
}

// SetLocalVariable binds name in the innermost scope.
func (interp *Interpreter) SetLocalVariable(name string, value Value) {
	interp.scope.SetVariable(name, value)
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Evaluate executes node in expression position. Control flow results are
// not expressions: break, continue and return become a SyntaxError. A
// success without a value evaluates to null.
func (interp *Interpreter) Evaluate(node Node) Value {
	result := node.Execute(interp)
	switch result.Kind {
	case ResultSuccess:
		if result.Value.IsError() {
			return NullValue()
		}
		return result.Value
	case ResultBreak:
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `break'")
	case ResultContinue:
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `continue'")
	case ResultReturn:
		result.Value.Release()
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `return'")
	}
	return ErrorValue()
}

// Run executes a whole template in a fresh template frame. A return at
// template level ends the template normally; break and continue are
// SyntaxErrors.
func (interp *Interpreter) Run(node Node) Result {
	if interp.PushFrame(nil, NullValue(), nil) == nil {
		return ErrorResult()
	}
	defer interp.PopFrame()

	result := node.Execute(interp)
	switch result.Kind {
	case ResultReturn:
		result.Kind = ResultSuccess
	case ResultBreak:
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `break'")
		result = ErrorResult()
	case ResultContinue:
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `continue'")
		result = ErrorResult()
	}
	if result.Kind == ResultError {
		interp.logUncaught()
	}
	return result
}

func (interp *Interpreter) logUncaught() {
	ex, ok := ObjectAs[*ExceptionObject](interp.exception)
	if !ok {
		return
	}
	interp.log.Warning("uncaught exception",
		"class", ex.Class().Name(), "message", ex.Message(), "line", ex.Line())
}

// Instantiate allocates an instance of cls and runs its __init__ method
// with args.
func (interp *Interpreter) Instantiate(cls *Class, args ...Value) Value {
	obj := cls.Allocate(interp)
	if obj == nil {
		interp.Throw(interp.TypeErrorClass, "Cannot create instances of '"+cls.Name()+"'")
		return ErrorValue()
	}
	instance := NewObject(obj)
	result := instance.Call(interp, "__init__", args...)
	if result.IsError() {
		instance.Release()
		return ErrorValue()
	}
	result.Release()
	return instance
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// Output returns the writer receiving template output.
func (interp *Interpreter) Output() io.Writer { return interp.output }

// SetOutput replaces the output writer.
func (interp *Interpreter) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	interp.output = w
}

// EscapeOutput reports whether expression output is escaped by default.
func (interp *Interpreter) EscapeOutput() bool { return interp.opts.EscapeOutput }

// Write sends s to the output. A write failure throws an IOError.
func (interp *Interpreter) Write(s string) bool {
	if _, err := io.WriteString(interp.output, s); err != nil {
		interp.Throw(interp.IOErrorClass, fmt.Sprintf("Unable to write output: %v", err))
		return false
	}
	return true
}
