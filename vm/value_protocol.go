package vm

import "fmt"

// ---------------------------------------------------------------------------
// Value protocol: class lookup, dispatch and conversions
// ---------------------------------------------------------------------------

// GetClass returns the class of v. The Error variant has no class; asking
// for it is a bug in the caller.
func (v Value) GetClass(interp *Interpreter) *Class {
	switch v.Kind() {
	case KindNull:
		return interp.NullClass
	case KindBool:
		return interp.BoolClass
	case KindInt:
		return interp.IntClass
	case KindFloat:
		return interp.FloatClass
	case KindString:
		return interp.StringClass
	case KindObject:
		return v.ref.target.Class()
	case KindError:
		panic("vm: GetClass called on the error value")
	}
	panic(fmt.Sprintf("vm: GetClass called on unknown value kind %d", v.kind))
}

// IsInstance reports whether the class of v is cls or a subclass of it.
func (v Value) IsInstance(interp *Interpreter, cls *Class) bool {
	if v.IsError() || cls == nil {
		return false
	}
	return v.GetClass(interp).IsSubclassOf(cls)
}

// Call invokes the attribute id of v with args.
//
// An attribute stored on the object itself is called through its __call__
// method. Otherwise the class chain is searched: a function found there is
// invoked with v prepended to args (static functions without it), any
// other value is called through its __call__ method.
func (v Value) Call(interp *Interpreter, id string, args ...Value) Value {
	if v.IsError() {
		if !interp.HasException() {
			interp.Throw(interp.TypeErrorClass, "Cannot call '"+id+"' on an error value")
		}
		return ErrorValue()
	}
	if obj := v.AsObject(); obj != nil {
		if attr, ok := obj.GetOwnAttribute(id); ok {
			attr = attr.Copy()
			defer attr.Release()
			return attr.Call(interp, "__call__", args...)
		}
		if fn, ok := obj.(Function); ok && id == "__call__" {
			return fn.Invoke(interp, args)
		}
	}

	attr, ok := v.GetClass(interp).LookupAttribute(id)
	if !ok {
		interp.Throw(interp.AttributeErrorClass, "Missing attribute: "+id)
		return ErrorValue()
	}
	if fn, ok := attr.AsFunction(); ok {
		if fn.IsStatic() {
			return fn.Invoke(interp, args)
		}
		full := make([]Value, len(args)+1)
		full[0] = v
		copy(full[1:], args)
		return fn.Invoke(interp, full)
	}
	attr = attr.Copy()
	defer attr.Release()
	return attr.Call(interp, "__call__", args...)
}

// GetAttribute returns the attribute id of v. Functions found on the class
// chain are bound to v, so calling the result later behaves like Call.
func (v Value) GetAttribute(interp *Interpreter, id string) Value {
	if v.IsError() {
		return ErrorValue()
	}
	if obj := v.AsObject(); obj != nil {
		if attr, ok := obj.GetOwnAttribute(id); ok {
			return attr.Copy()
		}
	}
	attr, ok := v.GetClass(interp).LookupAttribute(id)
	if !ok {
		interp.Throw(interp.AttributeErrorClass, "Missing attribute: "+id)
		return ErrorValue()
	}
	if fn, ok := attr.AsFunction(); ok && !fn.IsStatic() {
		return interp.NewCurriedFunction(attr, v)
	}
	return attr.Copy()
}

// HasAttribute reports whether GetAttribute would find id.
func (v Value) HasAttribute(interp *Interpreter, id string) bool {
	if v.IsError() {
		return false
	}
	if obj := v.AsObject(); obj != nil {
		if _, ok := obj.GetOwnAttribute(id); ok {
			return true
		}
	}
	_, ok := v.GetClass(interp).LookupAttribute(id)
	return ok
}

// SetAttribute stores value as the attribute id of v. Only boxed objects
// carry attributes.
func (v Value) SetAttribute(interp *Interpreter, id string, value Value) bool {
	if v.IsError() {
		return false
	}
	if obj := v.AsObject(); obj != nil && obj.SetOwnAttribute(id, value) {
		return true
	}
	interp.Throw(interp.AttributeErrorClass,
		fmt.Sprintf("Cannot set attribute '%s' of '%s'", id, v.GetClass(interp).Name()))
	return false
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// ToBool converts v with __bool__. The second result is false when an
// exception is pending.
func (v Value) ToBool(interp *Interpreter) (bool, bool) {
	switch v.kind {
	case KindError:
		return false, false
	case KindBool:
		return v.AsBool(), true
	}
	result := v.Call(interp, "__bool__")
	defer result.Release()
	if result.IsBool() {
		return result.AsBool(), true
	}
	if !interp.HasException() {
		interp.Throw(interp.TypeErrorClass, "Cannot convert into boolean")
	}
	return false, false
}

// ToString converts v with __str__. The second result is false when an
// exception is pending.
func (v Value) ToString(interp *Interpreter) (string, bool) {
	switch v.kind {
	case KindError:
		return "", false
	case KindString:
		return v.str, true
	}
	result := v.Call(interp, "__str__")
	defer result.Release()
	if result.IsString() {
		return result.str, true
	}
	if !interp.HasException() {
		interp.Throw(interp.TypeErrorClass, "Cannot convert into string")
	}
	return "", false
}

// Equals compares v with other through __eq__.
func (v Value) Equals(interp *Interpreter, other Value) (bool, bool) {
	result := v.Call(interp, "__eq__", other)
	defer result.Release()
	return result.ToBool(interp)
}

// IsLessThan compares v with other through __lt__.
func (v Value) IsLessThan(interp *Interpreter, other Value) (bool, bool) {
	result := v.Call(interp, "__lt__", other)
	defer result.Release()
	return result.ToBool(interp)
}

// Hash returns the hash code reported by __hash__.
func (v Value) Hash(interp *Interpreter) (int64, bool) {
	result := v.Call(interp, "__hash__")
	defer result.Release()
	if result.IsInt() {
		return result.AsInt(), true
	}
	if !interp.HasException() {
		interp.Throw(interp.TypeErrorClass, "Cannot hash '"+v.GetClass(interp).Name()+"'")
	}
	return 0, false
}
