package vm

import (
	"strings"
	"testing"
)

func TestExceptionHierarchy(t *testing.T) {
	interp := newTestInterpreter(t)

	tests := []struct {
		class  *Class
		parent *Class
	}{
		{interp.TypeErrorClass, interp.ExceptionClass},
		{interp.ValueErrorClass, interp.ExceptionClass},
		{interp.NameErrorClass, interp.ExceptionClass},
		{interp.AttributeErrorClass, interp.ExceptionClass},
		{interp.StateErrorClass, interp.ExceptionClass},
		{interp.IOErrorClass, interp.ExceptionClass},
		{interp.SyntaxErrorClass, interp.ExceptionClass},
		{interp.ArithmeticErrorClass, interp.ExceptionClass},
		{interp.LookupErrorClass, interp.ExceptionClass},
	}
	for _, tt := range tests {
		if !tt.class.IsSubclassOf(tt.parent) {
			t.Errorf("%s is not a subclass of %s", tt.class.Name(), tt.parent.Name())
		}
	}
	if interp.ExceptionClass.Parent() != interp.ObjectClass {
		t.Error("Exception does not derive from Object")
	}
}

func TestThrowAndClear(t *testing.T) {
	interp := newTestInterpreter(t)

	if interp.HasException() {
		t.Fatal("fresh interpreter has a pending exception")
	}
	interp.Throwf(interp.KeyErrorClass, "Missing key: %s", "k")
	if !interp.HasException() {
		t.Fatal("Throwf did not set an exception")
	}
	if !interp.ExceptionIs(interp.LookupErrorClass) || interp.ExceptionIs(interp.TypeErrorClass) {
		t.Error("ExceptionIs does not follow the hierarchy")
	}
	ex, _ := ObjectAs[*ExceptionObject](interp.Exception())
	if ex.Message() != "Missing key: k" || ex.Error() == "" {
		t.Errorf("message = %q, error = %q", ex.Message(), ex.Error())
	}

	interp.ClearException()
	if interp.HasException() || !interp.Exception().IsError() {
		t.Error("ClearException left an exception pending")
	}
	if !ex.Destroyed() {
		t.Error("cleared exception is still alive")
	}
}

func TestSetExceptionCopies(t *testing.T) {
	interp := newTestInterpreter(t)

	v := interp.Instantiate(interp.ValueErrorClass, NewString("boom"))
	if v.IsError() {
		t.Fatal(pendingMessage(interp))
	}
	interp.SetException(v)
	v.Release()

	if !interp.ExceptionIs(interp.ValueErrorClass) {
		t.Fatal("SetException did not keep its own reference")
	}
	if got := str(t, interp, interp.Exception().Copy()); got != "boom" {
		t.Errorf("str = %q", got)
	}
	interp.ClearException()
}

func TestAnnotateLineKeepsInnermost(t *testing.T) {
	interp := newTestInterpreter(t)

	interp.AnnotateLine(5) // no exception pending
	interp.Throw(interp.TypeErrorClass, "x")
	interp.AnnotateLine(0)
	interp.AnnotateLine(3)
	interp.AnnotateLine(9)

	ex, _ := ObjectAs[*ExceptionObject](interp.Exception())
	if ex.Line() != 3 {
		t.Errorf("Line() = %d, want 3", ex.Line())
	}
	if v := call(t, interp, interp.Exception().Copy(), "line"); v.AsInt() != 3 {
		t.Errorf("line() = %v", v)
	}
	interp.ClearException()
}

func TestExceptionPrimitives(t *testing.T) {
	interp := newTestInterpreter(t)
	cls := classValue(t, interp, "IndexError")

	ex := call(t, interp, cls, "__call__", NewString("out of range"))
	defer ex.Release()
	if got := str(t, interp, call(t, interp, ex, "message")); got != "out of range" {
		t.Errorf("message() = %q", got)
	}

	bare := call(t, interp, cls, "__call__")
	defer bare.Release()
	if got := str(t, interp, bare.Copy()); got != "IndexError" {
		t.Errorf("str of an exception without message = %q", got)
	}

	callFails(t, interp, interp.TypeErrorClass, cls, "__call__", NewString("a"), NewString("b"))
}

func TestExceptionRecordsTraceback(t *testing.T) {
	interp := newTestInterpreter(t)

	inner := nativeFunction(interp, "inner", 0, func(interp *Interpreter, args []Value) Value {
		interp.Throw(interp.StateErrorClass, "deep")
		return ErrorValue()
	})
	defer inner.Release()
	outer := nativeFunction(interp, "outer", 0, func(interp *Interpreter, args []Value) Value {
		return inner.Call(interp, "__call__")
	})
	defer outer.Release()

	ex := callFails(t, interp, interp.StateErrorClass, outer, "__call__")
	tb := strings.Join(ex.Traceback(), ",")
	if !strings.HasPrefix(tb, "inner,outer") {
		t.Errorf("traceback = %q", tb)
	}
}

func TestCallDepthLimit(t *testing.T) {
	interp := NewInterpreter(Options{MaxDepth: 8})
	defer interp.Shutdown()

	var recurse Value
	recurse = nativeFunction(interp, "recurse", 0, func(interp *Interpreter, args []Value) Value {
		return recurse.Call(interp, "__call__")
	})
	defer recurse.Release()

	ex := callFails(t, interp, interp.StateErrorClass, recurse, "__call__")
	if ex.Message() != "Maximum call depth exceeded" {
		t.Errorf("message = %q", ex.Message())
	}
	if interp.Depth() != 0 {
		t.Errorf("Depth() = %d after unwinding", interp.Depth())
	}
}
