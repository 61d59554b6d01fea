package vm

import "fmt"

// ---------------------------------------------------------------------------
// Strict argument conversions
// ---------------------------------------------------------------------------

// typeError throws the standard mismatch message.
func (interp *Interpreter) typeError(want string, got Value) {
	name := "nothing"
	if !got.IsError() {
		name = got.GetClass(interp).Name()
	}
	interp.Throw(interp.TypeErrorClass, fmt.Sprintf("Expected '%s' but got '%s'", want, name))
}

// ToInt requires an Int.
func (interp *Interpreter) ToInt(v Value) (int64, bool) {
	if !v.IsInt() {
		interp.typeError("Int", v)
		return 0, false
	}
	return v.AsInt(), true
}

// ToFloat requires a number and widens integers.
func (interp *Interpreter) ToFloat(v Value) (float64, bool) {
	if !v.IsNumber() {
		interp.typeError("Num", v)
		return 0, false
	}
	return v.AsFloat(), true
}

// ToStr requires a String. Unlike ToString it does not convert.
func (interp *Interpreter) ToStr(v Value) (string, bool) {
	if !v.IsString() {
		interp.typeError("String", v)
		return "", false
	}
	return v.AsString(), true
}

// ToBinary requires a Binary and returns its bytes. The slice is shared
// with the object.
func (interp *Interpreter) ToBinary(v Value) ([]byte, bool) {
	b, ok := ObjectAs[*BinaryObject](v)
	if !ok {
		interp.typeError("Binary", v)
		return nil, false
	}
	return b.data, true
}

// ToClass requires a class.
func (interp *Interpreter) ToClass(v Value) (*Class, bool) {
	c, ok := ObjectAs[*Class](v)
	if !ok {
		interp.typeError("Class", v)
		return nil, false
	}
	return c, true
}

// ToList requires a List.
func (interp *Interpreter) ToList(v Value) (*ListObject, bool) {
	l, ok := ObjectAs[*ListObject](v)
	if !ok {
		interp.typeError("List", v)
		return nil, false
	}
	return l, true
}

// optionalArg returns args[i], or Null when it was not given.
func optionalArg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return NullValue()
}
