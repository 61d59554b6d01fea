package vm

import (
	"fmt"
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: tagged union of every script-visible datum
// ---------------------------------------------------------------------------

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	// KindError marks the absence of a value because an exception is
	// pending. It is the zero Kind and never visible to scripts.
	KindError Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "Error"
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindObject:
		return "Object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value holds exactly one of: nothing (Error), null, a bool, a 64-bit
// integer, a 64-bit float, a string or a reference to a heap object.
//
// Primitive variants are plain data. An Object variant owns a Ref that is
// registered on the target; Copy registers another one and Release drops it.
// Values returned by calls are owned by the caller, arguments are borrowed.
type Value struct {
	kind Kind
	num  uint64
	str  string
	ref  *Ref
}

// ErrorValue returns the Error variant.
func ErrorValue() Value { return Value{} }

// NullValue returns the Null variant.
func NullValue() Value { return Value{kind: KindNull} }

// NewBool creates a Bool value.
func NewBool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

// NewInt creates an Int value.
func NewInt(n int64) Value { return Value{kind: KindInt, num: uint64(n)} }

// NewFloat creates a Float value.
func NewFloat(f float64) Value { return Value{kind: KindFloat, num: math.Float64bits(f)} }

// NewString creates a String value.
func NewString(s string) Value { return Value{kind: KindString, str: s} }

// NewObject creates a strong reference to obj. A nil or destroyed object
// yields Null.
func NewObject(obj Object) Value {
	if obj == nil {
		return NullValue()
	}
	core := obj.Core()
	if core.destroyed {
		return NullValue()
	}
	r := &Ref{target: obj}
	core.link(r)
	return Value{kind: KindObject, ref: r}
}

// ---------------------------------------------------------------------------
// Type checks
// ---------------------------------------------------------------------------

// Kind returns the active variant. An object reference whose target has
// been destroyed reads as Null.
func (v Value) Kind() Kind {
	if v.kind == KindObject && (v.ref == nil || v.ref.target == nil) {
		return KindNull
	}
	return v.kind
}

func (v Value) IsError() bool  { return v.kind == KindError }
func (v Value) IsNull() bool   { return v.Kind() == KindNull }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsObject() bool { return v.Kind() == KindObject }

// ---------------------------------------------------------------------------
// Best-effort accessors
// ---------------------------------------------------------------------------

// AsBool returns the boolean payload, or false.
func (v Value) AsBool() bool {
	return v.kind == KindBool && v.num != 0
}

// AsInt returns the integer payload. Floats are truncated; anything else
// yields 0.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return int64(v.num)
	case KindFloat:
		return int64(math.Float64frombits(v.num))
	}
	return 0
}

// AsFloat returns the numeric payload as a float, or 0.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindFloat:
		return math.Float64frombits(v.num)
	case KindInt:
		return float64(int64(v.num))
	}
	return 0
}

// AsString returns the string payload, or "".
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.str
	}
	return ""
}

// AsObject returns the referenced object, or nil.
func (v Value) AsObject() Object {
	if v.kind == KindObject && v.ref != nil {
		return v.ref.target
	}
	return nil
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

// Copy returns a new Value of the same variant. For objects the copy holds
// its own strong reference.
func (v Value) Copy() Value {
	if obj := v.AsObject(); obj != nil {
		return NewObject(obj)
	}
	if v.kind == KindObject {
		return NullValue()
	}
	return v
}

// Release drops the strong reference held by v, if any, and resets v to
// the Error variant.
func (v *Value) Release() {
	if v.kind == KindObject && v.ref != nil {
		if obj := v.ref.target; obj != nil {
			obj.Core().unlink(v.ref)
		}
	}
	*v = Value{}
}

// Set replaces v with a copy of other. The copy is taken before the old
// payload is released, so assigning a value to itself is safe.
func (v *Value) Set(other Value) {
	n := other.Copy()
	v.Release()
	*v = n
}

// Mark marks the referenced object unless it is already marked.
func (v Value) Mark() {
	if obj := v.AsObject(); obj != nil && !obj.Core().marked {
		obj.Mark()
	}
}

// Identical reports whether v and other are the same primitive datum or
// reference the same object.
func (v Value) Identical(other Value) bool {
	k := v.Kind()
	if k != other.Kind() {
		return false
	}
	switch k {
	case KindObject:
		return v.ref.target == other.ref.target
	case KindString:
		return v.str == other.str
	case KindFloat:
		return v.AsFloat() == other.AsFloat()
	case KindNull, KindError:
		return true
	}
	return v.num == other.num
}

// String describes the value for debugging. Scripts use ToString.
func (v Value) String() string {
	switch v.Kind() {
	case KindError:
		return "<error>"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.AsBool())
	case KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case KindFloat:
		return formatFloat(v.AsFloat())
	case KindString:
		return strconv.Quote(v.str)
	case KindObject:
		obj := v.AsObject()
		if cls := obj.Class(); cls != nil {
			return fmt.Sprintf("<%s #%d>", cls.Name(), obj.Core().ID())
		}
		return fmt.Sprintf("<object #%d>", obj.Core().ID())
	}
	return "<invalid>"
}
