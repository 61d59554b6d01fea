package vm

import "testing"

func TestScopeLookupWalksParents(t *testing.T) {
	interp := newTestInterpreter(t)
	outer := interp.NewScope(nil)
	defer outer.Release()
	inner := interp.NewScope(outer)
	defer inner.Release()

	outer.SetVariable("x", NewInt(1))
	if v, ok := inner.Lookup("x"); !ok || v.AsInt() != 1 {
		t.Errorf("inner x = %v, %v", v, ok)
	}
	if _, ok := inner.GetVariable("x"); ok {
		t.Error("GetVariable consulted the parent")
	}
	if _, ok := inner.Lookup("y"); ok {
		t.Error("found an unbound name")
	}
}

func TestScopeAssign(t *testing.T) {
	interp := newTestInterpreter(t)
	outer := interp.NewScope(nil)
	defer outer.Release()
	inner := interp.NewScope(outer)
	defer inner.Release()

	outer.SetVariable("x", NewInt(1))
	inner.Assign("x", NewInt(2))
	inner.Assign("y", NewInt(3))

	if v, _ := outer.GetVariable("x"); v.AsInt() != 2 {
		t.Errorf("outer x = %v, want the assignment to reach it", v)
	}
	if inner.HasVariable("x") || !inner.HasVariable("y") || outer.HasVariable("y") {
		t.Error("Assign created bindings in the wrong scope")
	}

	if !inner.DeleteVariable("y") || inner.DeleteVariable("y") {
		t.Error("DeleteVariable")
	}
}

func TestScopeHoldsReferences(t *testing.T) {
	interp := newTestInterpreter(t)
	s := interp.NewScope(nil)

	list := interp.NewList()
	s.SetVariable("l", list)
	s.SetVariable("alias", list)
	core := list.AsObject().Core()
	if core.RefCount() != 3 {
		t.Errorf("RefCount() = %d, want 3", core.RefCount())
	}
	list.Release()

	s.Release()
	if !core.Destroyed() {
		t.Error("releasing the scope leaked its variables")
	}
}

func TestPushAndPopScope(t *testing.T) {
	interp := newTestInterpreter(t)
	if interp.PushFrame(nil, NullValue(), nil) == nil {
		t.Fatal(pendingMessage(interp))
	}
	defer interp.PopFrame()

	frameScope := interp.CurrentScope()
	if frameScope.Parent() != interp.Globals() {
		t.Fatal("template scope is not nested in the globals")
	}

	interp.SetVariable("a", NewInt(1))
	block := interp.PushScope()
	interp.SetLocalVariable("a", NewInt(2))
	interp.SetVariable("b", NewInt(3))
	if v, _ := interp.GetVariable("a"); v.AsInt() != 2 {
		t.Errorf("a in block = %v", v)
	}
	interp.PopScope()

	if interp.CurrentScope() != frameScope {
		t.Fatal("PopScope did not restore the frame scope")
	}
	if !block.Destroyed() {
		t.Error("popped block scope is still alive")
	}
	if v, _ := interp.GetVariable("a"); v.AsInt() != 1 {
		t.Errorf("a after block = %v, want the shadowed binding", v)
	}
	if _, ok := interp.GetVariable("b"); ok {
		t.Error("block binding leaked out")
	}
}

func TestPopScopeStopsAtGlobals(t *testing.T) {
	interp := newTestInterpreter(t)

	interp.PopScope()
	if interp.CurrentScope() != interp.Globals() || interp.Globals().Destroyed() {
		t.Error("PopScope left the global scope")
	}
}

func TestTemplateFrame(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := interp.PushFrame(nil, NullValue(), nil)
	if frame == nil {
		t.Fatal(pendingMessage(interp))
	}
	defer interp.PopFrame()

	if frame.Name() != "<template>" || frame.Function() != nil || interp.Depth() != 1 {
		t.Errorf("name=%q function=%v depth=%d", frame.Name(), frame.Function(), interp.Depth())
	}
	if !frame.Receiver().IsNull() {
		t.Errorf("template receiver = %v", frame.Receiver())
	}
	if interp.CurrentFrame() != frame {
		t.Error("CurrentFrame is not the pushed frame")
	}
}

func TestNativeFrameHasNoScope(t *testing.T) {
	interp := newTestInterpreter(t)
	var seen *Frame
	var scope *Scope
	fn := nativeFunction(interp, "probe", 1, func(interp *Interpreter, args []Value) Value {
		seen = interp.CurrentFrame()
		scope = interp.CurrentScope()
		if len(seen.Arguments()) != 1 || seen.Arguments()[0].AsInt() != 7 {
			t.Errorf("arguments = %v", seen.Arguments())
		}
		return NullValue()
	})
	defer fn.Release()

	call(t, interp, fn, "__call__", NewInt(7))
	if seen == nil || seen.Name() != "probe" || seen.Scope() != nil {
		t.Fatal("native call did not run in its own scopeless frame")
	}
	if scope != interp.Globals() {
		t.Error("native frame changed the current scope")
	}
	if interp.Depth() != 0 {
		t.Errorf("Depth() = %d after the call", interp.Depth())
	}
}

func TestGetLocalVariables(t *testing.T) {
	interp := newTestInterpreter(t)
	frame := interp.PushFrame(nil, NullValue(), nil)
	if frame == nil {
		t.Fatal(pendingMessage(interp))
	}
	defer interp.PopFrame()

	interp.SetLocalVariable("name", NewString("quill"))
	interp.SetLocalVariable("_hidden", NewInt(1))
	interp.SetLocalVariable("count", NewInt(2))

	locals := frame.GetLocalVariables(interp)
	defer locals.Release()
	obj := locals.AsObject()
	names := obj.OwnAttributeNames()
	if len(names) != 2 || names[0] != "count" || names[1] != "name" {
		t.Errorf("locals = %v, want [count name]", names)
	}
	if v, _ := obj.GetOwnAttribute("name"); v.AsString() != "quill" {
		t.Errorf("name = %v", v)
	}
}
