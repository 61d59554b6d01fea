package vm

import (
	"testing"
	"time"
)

func TestProfilerOrdering(t *testing.T) {
	p := NewProfiler()
	p.Record("b", time.Millisecond)
	p.Record("a", time.Millisecond)
	p.Record("c", time.Second)
	p.Record("c", time.Second)
	p.Record("d", 2*time.Millisecond)

	hot := p.Hot(0)
	var names []string
	for _, fp := range hot {
		names = append(names, fp.Name)
	}
	want := []string{"c", "d", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("Hot(0) = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Hot(0) = %v, want %v", names, want)
		}
	}
	if hot[0].Calls != 2 || hot[0].Total != 2*time.Second {
		t.Errorf("c = %+v", hot[0])
	}

	if top := p.Hot(1); len(top) != 1 || top[0].Name != "c" {
		t.Errorf("Hot(1) = %v", top)
	}
	p.Reset()
	if p.Len() != 0 {
		t.Errorf("Len() = %d after Reset", p.Len())
	}
}

func TestInterpreterProfilesCalls(t *testing.T) {
	interp := NewInterpreter(Options{Profile: true})
	defer interp.Shutdown()

	leaf := nativeFunction(interp, "leaf", 0, func(interp *Interpreter, args []Value) Value {
		return NullValue()
	})
	defer leaf.Release()

	if interp.PushFrame(nil, NullValue(), nil) == nil {
		t.Fatal(pendingMessage(interp))
	}
	for i := 0; i < 3; i++ {
		call(t, interp, leaf, "__call__")
	}
	interp.PopFrame()

	p := interp.Profiler()
	if p == nil {
		t.Fatal("Profile option did not create a profiler")
	}
	if p.Len() != 1 {
		t.Fatalf("recorded %v, want leaf only", p.Hot(0))
	}
	if fp := p.Hot(1)[0]; fp.Name != "leaf" || fp.Calls != 3 {
		t.Errorf("profile = %+v", fp)
	}
}

func TestProfilingIsOffByDefault(t *testing.T) {
	interp := newTestInterpreter(t)
	if interp.Profiler() != nil {
		t.Error("profiler without Options.Profile")
	}
}
