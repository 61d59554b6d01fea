package vm

import "testing"

func TestStringMethods(t *testing.T) {
	interp := newTestInterpreter(t)

	tests := []struct {
		recv string
		id   string
		args []Value
		want string
	}{
		{"ab", "__add__", []Value{NewInt(1)}, "ab1"},
		{"ab", "__mul__", []Value{NewInt(3)}, "ababab"},
		{"héllo", "__getitem__", []Value{NewInt(1)}, "é"},
		{"héllo", "__getitem__", []Value{NewInt(-1)}, "o"},
		{"Hello", "upper", nil, "HELLO"},
		{"Hello", "lower", nil, "hello"},
		{"  x  ", "trim", nil, "x"},
		{"abc", "reverse", nil, "cba"},
		{"a<b>&", "escape_xml", nil, "a&lt;b&gt;&amp;"},
		{"a-b-c", "replace", []Value{NewString("-"), NewString("+")}, "a+b+c"},
		{"a,b,,c", "split", []Value{NewString(",")}, "[a, b, , c]"},
		{" a  b ", "split", nil, "[a, b]"},
	}
	for _, tt := range tests {
		got := str(t, interp, call(t, interp, NewString(tt.recv), tt.id, tt.args...))
		if got != tt.want {
			t.Errorf("%q.%s = %q, want %q", tt.recv, tt.id, got, tt.want)
		}
	}
}

func TestStringQueries(t *testing.T) {
	interp := newTestInterpreter(t)
	s := NewString("héllo")

	if v := call(t, interp, s, "length"); v.AsInt() != 5 {
		t.Errorf("length = %v, want 5 characters", v)
	}
	if v := call(t, interp, s, "index", NewString("llo")); v.AsInt() != 2 {
		t.Errorf("index(llo) = %v, want 2", v)
	}
	if v := call(t, interp, s, "index", NewString("z")); v.AsInt() != -1 {
		t.Errorf("index(z) = %v, want -1", v)
	}
	for _, id := range []string{"starts_with", "contains"} {
		if v := call(t, interp, s, id, NewString("hé")); !v.AsBool() {
			t.Errorf("%s(hé) is false", id)
		}
	}
	if v := call(t, interp, s, "ends_with", NewString("x")); v.AsBool() {
		t.Error("ends_with(x) is true")
	}
	callFails(t, interp, interp.IndexErrorClass, s, "__getitem__", NewInt(5))
	callFails(t, interp, interp.ValueErrorClass, s, "__mul__", NewInt(-1))
}

func TestStringConversions(t *testing.T) {
	interp := newTestInterpreter(t)

	if v := call(t, interp, NewString(" 42 "), "to_int"); v.AsInt() != 42 {
		t.Errorf("to_int = %v", v)
	}
	if v := call(t, interp, NewString("ff"), "to_int", NewInt(16)); v.AsInt() != 255 {
		t.Errorf("to_int(16) = %v", v)
	}
	if v := call(t, interp, NewString("2.5"), "to_float"); v.AsFloat() != 2.5 {
		t.Errorf("to_float = %v", v)
	}
	ex := callFails(t, interp, interp.ValueErrorClass, NewString("x1"), "to_int")
	if ex.Message() != `Invalid integer: "x1"` {
		t.Errorf("message = %q", ex.Message())
	}
	callFails(t, interp, interp.ValueErrorClass, NewString("pi"), "to_float")
}

func TestStringEncodeDecode(t *testing.T) {
	interp := newTestInterpreter(t)

	b := call(t, interp, NewString("hé"), "encode")
	defer b.Release()
	if v := call(t, interp, b, "length"); v.AsInt() != 3 {
		t.Errorf("encoded length = %v, want 3 bytes", v)
	}
	if got := str(t, interp, call(t, interp, b, "hex")); got != "68c3a9" {
		t.Errorf("hex = %q", got)
	}
	if got := str(t, interp, call(t, interp, b, "decode")); got != "hé" {
		t.Errorf("decode = %q", got)
	}
}

func TestStringHashIsStable(t *testing.T) {
	interp := newTestInterpreter(t)

	a, _ := NewString("key").Hash(interp)
	b, _ := NewString("key").Hash(interp)
	c, _ := NewString("other").Hash(interp)
	if a != b || a == c {
		t.Errorf("hashes: %d %d %d", a, b, c)
	}
}

func TestStringIteration(t *testing.T) {
	interp := newTestInterpreter(t)

	var chars []string
	interp.Iterate(NewString("aé"), func(item Value) bool {
		chars = append(chars, item.AsString())
		return true
	})
	if len(chars) != 2 || chars[1] != "é" {
		t.Errorf("characters = %q", chars)
	}
}
