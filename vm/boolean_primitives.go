package vm

// ---------------------------------------------------------------------------
// Bool Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerBoolPrimitives() {
	c := interp.BoolClass

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return args[0]
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		if args[0].AsBool() {
			return NewString("true")
		}
		return NewString("false")
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		return NewBool(args[1].IsBool() && args[0].AsBool() == args[1].AsBool())
	})

	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		if args[0].AsBool() {
			return NewInt(1)
		}
		return NewInt(0)
	})

	logical := func(name string, op func(a, b bool) bool) {
		c.AddMethod(interp, name, 1, func(interp *Interpreter, args []Value) Value {
			if !args[1].IsBool() {
				interp.typeError("Bool", args[1])
				return ErrorValue()
			}
			return NewBool(op(args[0].AsBool(), args[1].AsBool()))
		})
	}
	logical("__and__", func(a, b bool) bool { return a && b })
	logical("__or__", func(a, b bool) bool { return a || b })
	logical("__xor__", func(a, b bool) bool { return a != b })
}
