package vm

import "fmt"

// ---------------------------------------------------------------------------
// Exception Handling Infrastructure
// ---------------------------------------------------------------------------

// ExceptionObject is an instance of Exception or one of its subclasses. It
// remembers the frame it was created in for the traceback and the script
// line of the statement that failed.
type ExceptionObject struct {
	BaseObject
	message string
	frame   *Frame
	line    int
}

func allocateException(interp *Interpreter, cls *Class) Object {
	return newException(interp, cls, "")
}

func newException(interp *Interpreter, cls *Class, message string) *ExceptionObject {
	ex := &ExceptionObject{message: message}
	ex.initObject(interp, cls, ex)
	if interp.frame != nil {
		ex.frame = interp.frame
		ex.frame.Retain()
	}
	return ex
}

// Message returns the exception message.
func (e *ExceptionObject) Message() string { return e.message }

// Line returns the script line the exception surfaced at, or 0.
func (e *ExceptionObject) Line() int { return e.line }

// SetLine records the script line.
func (e *ExceptionObject) SetLine(line int) { e.line = line }

// Traceback returns the frame names from where the exception was created
// outward.
func (e *ExceptionObject) Traceback() []string {
	if e.frame == nil {
		return nil
	}
	return e.frame.Traceback()
}

// Error formats the exception like a Go error.
func (e *ExceptionObject) Error() string {
	if e.message == "" {
		return e.Class().Name()
	}
	return e.Class().Name() + ": " + e.message
}

// Mark marks the exception and its frame.
func (e *ExceptionObject) Mark() {
	e.BaseObject.Mark()
	if e.frame != nil {
		markCounted(e.frame)
	}
}

// Dispose releases the frame.
func (e *ExceptionObject) Dispose() {
	e.BaseObject.Dispose()
	if e.frame != nil {
		f := e.frame
		e.frame = nil
		f.Release()
	}
}

// ---------------------------------------------------------------------------
// Exception class hierarchy
// ---------------------------------------------------------------------------

func (interp *Interpreter) bootstrapExceptionClasses() {
	// Exception is the root of all exceptions
	interp.ExceptionClass = interp.createClass("Exception", interp.ObjectClass, allocateException)

	interp.TypeErrorClass = interp.createClass("TypeError", interp.ExceptionClass, allocateException)
	interp.ValueErrorClass = interp.createClass("ValueError", interp.ExceptionClass, allocateException)
	interp.NameErrorClass = interp.createClass("NameError", interp.ExceptionClass, allocateException)
	interp.AttributeErrorClass = interp.createClass("AttributeError", interp.ExceptionClass, allocateException)
	interp.StateErrorClass = interp.createClass("StateError", interp.ExceptionClass, allocateException)
	interp.IOErrorClass = interp.createClass("IOError", interp.ExceptionClass, allocateException)
	interp.SyntaxErrorClass = interp.createClass("SyntaxError", interp.ExceptionClass, allocateException)

	// StopIteration ends iteration; loops swallow it
	interp.StopIterationClass = interp.createClass("StopIteration", interp.ExceptionClass, allocateException)

	interp.ArithmeticErrorClass = interp.createClass("ArithmeticError", interp.ExceptionClass, allocateException)
	interp.ZeroDivisionErrorClass = interp.createClass("ZeroDivisionError", interp.ArithmeticErrorClass, allocateException)

	interp.LookupErrorClass = interp.createClass("LookupError", interp.ExceptionClass, allocateException)
	interp.IndexErrorClass = interp.createClass("IndexError", interp.LookupErrorClass, allocateException)
	interp.KeyErrorClass = interp.createClass("KeyError", interp.LookupErrorClass, allocateException)
}

func (interp *Interpreter) registerExceptionPrimitives() {
	c := interp.ExceptionClass

	c.AddMethod(interp, "__init__", -1, func(interp *Interpreter, args []Value) Value {
		if len(args) > 2 {
			interp.Throw(interp.TypeErrorClass,
				fmt.Sprintf("Method '__init__' expected at most 1 arguments, got %d", len(args)-1))
			return ErrorValue()
		}
		ex := args[0].AsObject().(*ExceptionObject)
		if len(args) == 2 && !args[1].IsNull() {
			msg, ok := args[1].ToString(interp)
			if !ok {
				return ErrorValue()
			}
			ex.message = msg
		}
		return NullValue()
	})

	c.AddMethod(interp, "message", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(args[0].AsObject().(*ExceptionObject).message)
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		ex := args[0].AsObject().(*ExceptionObject)
		if ex.message == "" {
			return NewString(ex.Class().Name())
		}
		return NewString(ex.message)
	})

	c.AddMethod(interp, "line", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(int64(args[0].AsObject().(*ExceptionObject).line))
	})

	c.AddMethod(interp, "traceback", 0, func(interp *Interpreter, args []Value) Value {
		names := args[0].AsObject().(*ExceptionObject).Traceback()
		items := make([]Value, len(names))
		for i, name := range names {
			items[i] = NewString(name)
		}
		return interp.NewList(items...)
	})
}

// ---------------------------------------------------------------------------
// Exception slot
// ---------------------------------------------------------------------------

// Throw creates an instance of cls with message and makes it the pending
// exception. Callers then return ErrorValue or ErrorResult.
func (interp *Interpreter) Throw(cls *Class, message string) {
	ex := newException(interp, cls, message)
	v := NewObject(ex)
	interp.SetException(v)
	v.Release()
}

// Throwf is Throw with formatting.
func (interp *Interpreter) Throwf(cls *Class, format string, args ...any) {
	interp.Throw(cls, fmt.Sprintf(format, args...))
}

// SetException makes a copy of v the pending exception.
func (interp *Interpreter) SetException(v Value) {
	n := v.Copy()
	interp.exception.Release()
	interp.exception = n
}

// Exception returns the pending exception, or the Error variant. The Value
// is borrowed.
func (interp *Interpreter) Exception() Value { return interp.exception }

// HasException reports whether an exception is pending.
func (interp *Interpreter) HasException() bool {
	return !interp.exception.IsError()
}

// ClearException drops the pending exception.
func (interp *Interpreter) ClearException() {
	interp.exception.Release()
}

// ExceptionIs reports whether the pending exception is an instance of cls.
func (interp *Interpreter) ExceptionIs(cls *Class) bool {
	return interp.HasException() && interp.exception.IsInstance(interp, cls)
}

// AnnotateLine records line on the pending exception unless a line was
// already recorded closer to the failure.
func (interp *Interpreter) AnnotateLine(line int) {
	if line <= 0 {
		return
	}
	if ex, ok := ObjectAs[*ExceptionObject](interp.exception); ok && ex.line == 0 {
		ex.line = line
	}
}
