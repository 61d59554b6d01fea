package ast

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestInterpreter(t *testing.T, opts vm.Options) (*vm.Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Output = &out
	interp := vm.NewInterpreter(opts)
	t.Cleanup(interp.Shutdown)
	return interp, &out
}

func id(name string) *IdentifierNode { return NewIdentifier(name) }

// exec runs statements directly in the global scope.
func exec(t *testing.T, interp *vm.Interpreter, statements ...Node) {
	t.Helper()
	result := NewScript(statements...).Execute(interp)
	if result.Kind == vm.ResultError {
		t.Fatalf("unexpected exception: %s", exceptionText(interp))
	}
	result.Release()
}

// execFails runs statements and expects an exception of cls.
func execFails(t *testing.T, interp *vm.Interpreter, cls *vm.Class, statements ...Node) *vm.ExceptionObject {
	t.Helper()
	result := NewScript(statements...).Execute(interp)
	if result.Kind != vm.ResultError {
		t.Fatalf("expected %s, got result %v", cls.Name(), result.Kind)
	}
	if !interp.ExceptionIs(cls) {
		t.Fatalf("expected %s, got %s", cls.Name(), exceptionText(interp))
	}
	ex, _ := vm.ObjectAs[*vm.ExceptionObject](interp.Exception())
	return ex
}

func exceptionText(interp *vm.Interpreter) string {
	ex, ok := vm.ObjectAs[*vm.ExceptionObject](interp.Exception())
	if !ok {
		return "<none>"
	}
	return ex.Error()
}

func global(t *testing.T, interp *vm.Interpreter, name string) vm.Value {
	t.Helper()
	v, ok := interp.GetVariable(name)
	if !ok {
		t.Fatalf("variable %q is not defined", name)
	}
	return v
}

func globalInt(t *testing.T, interp *vm.Interpreter, name string) int64 {
	t.Helper()
	v := global(t, interp, name)
	if !v.IsInt() {
		t.Fatalf("%s = %v, want an Int", name, v)
	}
	return v.AsInt()
}

func globalString(t *testing.T, interp *vm.Interpreter, name string) string {
	t.Helper()
	v := global(t, interp, name)
	s, ok := v.ToString(interp)
	if !ok {
		t.Fatalf("%s cannot be converted: %s", name, exceptionText(interp))
	}
	return s
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

func TestWhileIncrementsToBound(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	// x = 1; while (x < 4) { x = x.__inc__(); }
	exec(t, interp,
		NewAssign(id("x"), Int(1)),
		NewWhile(
			NewCallMethod(id("x"), "__lt__", Int(4)),
			NewBlock(NewAssign(id("x"), NewCallMethod(id("x"), "__inc__"))),
		),
	)

	if got := globalInt(t, interp, "x"); got != 4 {
		t.Errorf("x = %d, want 4", got)
	}
}

func TestWhileBreakAndContinue(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	// i = 0; odd = 0
	// while (true) { i++; if (i > 9) break; if (i % 2 == 0) continue; odd += 1 }
	mod, _ := NewBinaryOperator("%", id("i"), Int(2))
	isEven, _ := NewBinaryOperator("==", mod, Int(0))
	tooBig, _ := NewBinaryOperator(">", id("i"), Int(9))
	addOdd, _ := NewCompoundAssign("+=", id("odd"), Int(1))

	exec(t, interp,
		NewAssign(id("i"), Int(0)),
		NewAssign(id("odd"), Int(0)),
		NewWhile(Bool(true), NewBlock(
			NewIncrement(id("i"), true),
			NewIf(tooBig, NewBreak(), nil),
			NewIf(isEven, NewContinue(), nil),
			addOdd,
		)),
	)

	if got := globalInt(t, interp, "odd"); got != 5 {
		t.Errorf("odd = %d, want 5", got)
	}
	if got := globalInt(t, interp, "i"); got != 10 {
		t.Errorf("i = %d, want 10", got)
	}
}

func TestForOverRange(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	isThree, _ := NewBinaryOperator("==", id("k"), Int(3))
	isFive, _ := NewBinaryOperator("==", id("k"), Int(5))
	add, _ := NewCompoundAssign("+=", id("total"), id("k"))

	exec(t, interp,
		NewAssign(id("total"), Int(0)),
		NewFor(id("k"), NewRange(Int(1), Int(10), false), NewBlock(
			NewIf(isThree, NewContinue(), nil),
			NewIf(isFive, NewBreak(), nil),
			add,
		), nil),
	)

	if got := globalInt(t, interp, "total"); got != 7 {
		t.Errorf("total = %d, want 7", got)
	}
	// The loop variable lives in the loop scope.
	if _, ok := interp.GetVariable("k"); ok {
		t.Error("loop variable leaked into the enclosing scope")
	}
}

func TestForElseRunsOnEmptyIterable(t *testing.T) {
	tests := []struct {
		name  string
		items []Node
		want  string
	}{
		{"empty", nil, "empty"},
		{"non-empty", []Node{Int(1)}, "looped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp, _ := newTestInterpreter(t, vm.Options{})
			exec(t, interp,
				NewAssign(id("state"), Str("")),
				NewFor(id("x"), NewList(tt.items...),
					NewAssign(id("state"), Str("looped")),
					NewAssign(id("state"), Str("empty")),
				),
			)
			if got := globalString(t, interp, "state"); got != tt.want {
				t.Errorf("state = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForDestructuresMapEntries(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	add, _ := NewCompoundAssign("+=", id("keys"), id("k"))
	sum, _ := NewCompoundAssign("+=", id("sum"), id("v"))
	exec(t, interp,
		NewAssign(id("keys"), Str("")),
		NewAssign(id("sum"), Int(0)),
		NewFor(NewList(id("k"), id("v")),
			NewMap([]Node{Str("a"), Str("b")}, []Node{Int(1), Int(2)}),
			NewBlock(add, sum), nil),
	)

	if got := globalString(t, interp, "keys"); got != "ab" {
		t.Errorf("keys = %q, want %q", got, "ab")
	}
	if got := globalInt(t, interp, "sum"); got != 3 {
		t.Errorf("sum = %d, want 3", got)
	}
}

// ---------------------------------------------------------------------------
// Control flow in expression position
// ---------------------------------------------------------------------------

func TestEvaluateRejectsControlFlow(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"break", NewBreak(), "Unexpected `break'"},
		{"continue", NewContinue(), "Unexpected `continue'"},
		{"return", NewReturn(Int(1)), "Unexpected `return'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp, _ := newTestInterpreter(t, vm.Options{})
			v := interp.Evaluate(tt.node)
			if !v.IsError() {
				t.Fatalf("Evaluate returned %v, want the error value", v)
			}
			if !interp.ExceptionIs(interp.SyntaxErrorClass) {
				t.Fatalf("got %s, want SyntaxError", exceptionText(interp))
			}
			ex, _ := vm.ObjectAs[*vm.ExceptionObject](interp.Exception())
			if ex.Message() != tt.want {
				t.Errorf("message = %q, want %q", ex.Message(), tt.want)
			}
		})
	}
}

func TestRunTopLevelControlFlow(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	result := interp.Run(NewScript(NewReturn(Int(1)), NewThrow(id("ValueError"))))
	if result.Kind != vm.ResultSuccess {
		t.Fatalf("return at template level: got %v, want success", result.Kind)
	}
	result.Release()

	result = interp.Run(NewScript(NewBreak()))
	if result.Kind != vm.ResultError || !interp.ExceptionIs(interp.SyntaxErrorClass) {
		t.Fatalf("break at template level: got %v / %s", result.Kind, exceptionText(interp))
	}
}

func TestUncaughtExceptionCarriesLine(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	result := interp.Run(NewScript(
		At(NewAssign(id("a"), Int(1)), 1, 1),
		At(NewBlock(At(NewCallMethod(id("missing"), "x"), 3, 5)), 2, 1),
	))
	if result.Kind != vm.ResultError {
		t.Fatalf("got %v, want an error", result.Kind)
	}
	ex, ok := vm.ObjectAs[*vm.ExceptionObject](interp.Exception())
	if !ok {
		t.Fatal("no exception pending")
	}
	if ex.Class() != interp.NameErrorClass {
		t.Errorf("class = %s, want NameError", ex.Class().Name())
	}
	if ex.Message() != "Name 'missing' is not defined" {
		t.Errorf("message = %q", ex.Message())
	}
	if ex.Line() != 3 {
		t.Errorf("line = %d, want 3", ex.Line())
	}
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

func TestTryCatchFinally(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	exec(t, interp,
		NewAssign(id("caught"), Null()),
		NewAssign(id("done"), Bool(false)),
		NewTry(
			NewThrow(NewCall(id("ValueError"), Str("bad value"))),
			[]*CatchNode{
				NewCatch("e", NewAssign(id("caught"), Str("wrong handler")), id("KeyError")),
				NewCatch("e", NewAssign(id("caught"), NewCallMethod(id("e"), "message")), id("ValueError")),
			},
			NewAssign(id("done"), Bool(true)),
		),
	)

	if got := globalString(t, interp, "caught"); got != "bad value" {
		t.Errorf("caught = %q, want %q", got, "bad value")
	}
	if v := global(t, interp, "done"); !v.AsBool() {
		t.Error("finally did not run")
	}
	if interp.HasException() {
		t.Errorf("exception still pending: %s", exceptionText(interp))
	}
}

func TestCatchByBaseClass(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	exec(t, interp,
		NewAssign(id("kind"), Null()),
		NewTry(
			NewSubscript(NewList(), Int(3)),
			[]*CatchNode{NewCatch("e",
				NewAssign(id("kind"), NewCallMethod(NewCallMethod(id("e"), "__class__"), "name")),
				id("LookupError"))},
			nil,
		),
	)
	if got := globalString(t, interp, "kind"); got != "IndexError" {
		t.Errorf("caught %q, want IndexError", got)
	}
}

func TestUnmatchedCatchRethrowsAfterFinally(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	exec(t, interp, NewAssign(id("done"), Bool(false)))
	execFails(t, interp, interp.KeyErrorClass,
		NewTry(
			NewThrow(id("KeyError")),
			[]*CatchNode{NewCatch("", NewBlock(), id("ValueError"))},
			NewAssign(id("done"), Bool(true)),
		),
	)
	if v := global(t, interp, "done"); !v.AsBool() {
		t.Error("finally did not run")
	}
}

func TestFinallyOverridesReturn(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	exec(t, interp,
		NewFunction("f", nil, NewTry(
			NewReturn(Int(1)), nil, NewReturn(Int(2)),
		)),
		NewAssign(id("r"), NewCall(id("f"))),
	)
	if got := globalInt(t, interp, "r"); got != 2 {
		t.Errorf("r = %d, want 2", got)
	}
}

func TestThrowRequiresException(t *testing.T) {
	interp, _ := newTestInterpreter(t, vm.Options{})

	ex := execFails(t, interp, interp.TypeErrorClass, NewThrow(Int(3)))
	if !strings.Contains(ex.Message(), "Int") {
		t.Errorf("message = %q, want it to name Int", ex.Message())
	}
}

// ---------------------------------------------------------------------------
// Garbage collection
// ---------------------------------------------------------------------------

func TestCollectionSkipsNestedScripts(t *testing.T) {
	interp, out := newTestInterpreter(t, vm.Options{GCThreshold: 1})

	result := interp.Run(NewScript(
		NewFor(id("x"), NewList(Int(1), Int(2), Int(3)),
			NewScript(NewOutput(id("x"), EscapeOff)), nil),
	))
	if result.Kind != vm.ResultSuccess {
		t.Fatalf("unexpected exception: %s", exceptionText(interp))
	}
	result.Release()

	if out.String() != "123" {
		t.Errorf("output = %q, want %q", out.String(), "123")
	}
	if interp.Heap().LastStats().Collections == 0 {
		t.Error("the template never collected between statements")
	}
}

func TestCollectionKeepsExceptionDuringFinally(t *testing.T) {
	interp, out := newTestInterpreter(t, vm.Options{GCThreshold: 1})

	result := interp.Run(NewScript(
		NewTry(
			NewThrow(NewCall(id("ValueError"), Str("kept"))),
			nil,
			NewScript(
				NewAssign(id("scratch"), NewList(Int(1))),
				NewOutput(Str("finally"), EscapeOff),
			),
		),
	))
	if result.Kind != vm.ResultError {
		t.Fatalf("got %v, want the exception to propagate", result.Kind)
	}
	ex, ok := vm.ObjectAs[*vm.ExceptionObject](interp.Exception())
	if !ok || ex.Destroyed() {
		t.Fatal("pending exception was collected while finally ran")
	}
	if ex.Class() != interp.ValueErrorClass || ex.Message() != "kept" {
		t.Errorf("exception = %s", ex.Error())
	}
	if out.String() != "finally" {
		t.Errorf("output = %q, want %q", out.String(), "finally")
	}
	interp.ClearException()
}
