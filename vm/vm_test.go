package vm

import (
	"bytes"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	interp := NewInterpreter(Options{})
	t.Cleanup(interp.Shutdown)
	return interp
}

func pendingMessage(interp *Interpreter) string {
	ex, ok := ObjectAs[*ExceptionObject](interp.Exception())
	if !ok {
		return "<no exception>"
	}
	return ex.Class().Name() + ": " + ex.Message()
}

// call sends id to recv and fails the test if an exception is thrown.
func call(t *testing.T, interp *Interpreter, recv Value, id string, args ...Value) Value {
	t.Helper()
	v := recv.Call(interp, id, args...)
	if v.IsError() {
		t.Fatalf("%s: unexpected exception %s", id, pendingMessage(interp))
	}
	return v
}

// callFails sends id to recv, expects an exception of class cls and
// returns it. The pending exception is cleared.
func callFails(t *testing.T, interp *Interpreter, cls *Class, recv Value, id string, args ...Value) *ExceptionObject {
	t.Helper()
	v := recv.Call(interp, id, args...)
	if !v.IsError() {
		t.Fatalf("%s: expected %s, got %v", id, cls.Name(), v)
	}
	if !interp.ExceptionIs(cls) {
		t.Fatalf("%s: expected %s, got %s", id, cls.Name(), pendingMessage(interp))
	}
	ex, _ := ObjectAs[*ExceptionObject](interp.Exception())
	ex.Retain()
	t.Cleanup(ex.Release)
	interp.ClearException()
	return ex
}

// str converts v with __str__ and releases it.
func str(t *testing.T, interp *Interpreter, v Value) string {
	t.Helper()
	defer v.Release()
	s, ok := v.ToString(interp)
	if !ok {
		t.Fatalf("ToString: %s", pendingMessage(interp))
	}
	return s
}

func classValue(t *testing.T, interp *Interpreter, name string) Value {
	t.Helper()
	cls := interp.LookupClass(name)
	if cls == nil {
		t.Fatalf("class %s is not registered", name)
	}
	v := NewObject(cls)
	t.Cleanup(v.Release)
	return v
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func TestBootstrapHierarchy(t *testing.T) {
	interp := newTestInterpreter(t)

	tests := []struct {
		class  *Class
		parent *Class
	}{
		{interp.ClassClass, interp.ObjectClass},
		{interp.IntClass, interp.NumClass},
		{interp.FloatClass, interp.NumClass},
		{interp.ZeroDivisionErrorClass, interp.ArithmeticErrorClass},
		{interp.KeyErrorClass, interp.LookupErrorClass},
		{interp.IndexErrorClass, interp.LookupErrorClass},
		{interp.StopIterationClass, interp.ExceptionClass},
	}
	for _, tt := range tests {
		if tt.class.Parent() != tt.parent {
			t.Errorf("%s.Parent() = %v, want %s", tt.class.Name(), tt.class.Parent(), tt.parent.Name())
		}
	}

	if interp.ObjectClass.Class() != interp.ClassClass {
		t.Error("Object is not an instance of Class")
	}
	if interp.ClassClass.Class() != interp.ClassClass {
		t.Error("Class is not an instance of itself")
	}

	for _, name := range []string{"Object", "List", "Map", "Json", "Cbor", "Yaml", "Uuid", "File", "print"} {
		if _, ok := interp.GetVariable(name); !ok {
			t.Errorf("global %s is not defined", name)
		}
	}
}

func TestSandboxHasNoFileClass(t *testing.T) {
	interp := NewInterpreter(Options{Sandbox: true})
	defer interp.Shutdown()

	if interp.FileClass != nil || interp.LookupClass("File") != nil {
		t.Error("sandboxed interpreter registered File")
	}
}

func TestModulesRunAfterBootstrap(t *testing.T) {
	var seen *Class
	interp := NewInterpreter(Options{Modules: []Module{
		func(interp *Interpreter) {
			seen = interp.DefineClass("Widget", nil, allocateCustomObject)
		},
	}})
	defer interp.Shutdown()

	if seen == nil || seen.Parent() != interp.ObjectClass {
		t.Fatal("module did not define Widget under Object")
	}
	w := classValue(t, interp, "Widget")
	instance := call(t, interp, w, "__call__")
	defer instance.Release()
	if !instance.IsInstance(interp, seen) {
		t.Error("instance is not a Widget")
	}
}

func TestSessionIsUnique(t *testing.T) {
	a := newTestInterpreter(t)
	b := newTestInterpreter(t)
	if a.Session() == "" || a.Session() == b.Session() {
		t.Errorf("sessions %q and %q are not unique", a.Session(), b.Session())
	}
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

func TestPrintWritesWithoutSeparators(t *testing.T) {
	var out bytes.Buffer
	interp := NewInterpreter(Options{Output: &out})
	defer interp.Shutdown()

	printFn, _ := interp.GetVariable("print")
	v := call(t, interp, printFn, "__call__", NewString("a"), NewInt(1), NewFloat(2), NullValue())
	v.Release()

	if out.String() != "a12.0" {
		t.Errorf("output = %q, want %q", out.String(), "a12.0")
	}
}

// ---------------------------------------------------------------------------
// Garbage collection roots
// ---------------------------------------------------------------------------

func TestPinKeepsValueAlive(t *testing.T) {
	interp := newTestInterpreter(t)

	list := interp.NewList()
	l := list.AsObject().(*ListObject)
	l.Append(list) // cycle
	interp.Pin(list)
	list.Release()

	interp.Collect()
	if l.Destroyed() {
		t.Fatal("pinned list was collected")
	}

	pinned := NewObject(l)
	interp.Unpin(pinned)
	pinned.Release()

	interp.Collect()
	if !l.Destroyed() {
		t.Error("unpinned cycle survived collection")
	}
}

func TestMaybeCollectHonoursThreshold(t *testing.T) {
	interp := NewInterpreter(Options{GCThreshold: 1 << 30})
	defer interp.Shutdown()

	before := interp.Heap().LastStats().Collections
	interp.MaybeCollect()
	if interp.Heap().LastStats().Collections != before {
		t.Error("collected below the threshold")
	}

	interp.Collect()
	if interp.Heap().Allocations() != 0 {
		t.Errorf("Allocations() = %d after a collection, want 0", interp.Heap().Allocations())
	}
}

func TestShutdownDestroysEverything(t *testing.T) {
	interp := NewInterpreter(Options{})
	list := interp.NewList(NewInt(1))
	l := list.AsObject().(*ListObject)
	l.Append(list)
	interp.SetGlobal("cycle", list)
	list.Release()

	interp.Shutdown()
	if !l.Destroyed() {
		t.Error("global cycle survived Shutdown")
	}
	if n := interp.Heap().Len(); n != 0 {
		t.Errorf("heap holds %d objects after Shutdown", n)
	}
}
