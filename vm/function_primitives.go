package vm

// ---------------------------------------------------------------------------
// Function Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerFunctionPrimitives() {
	c := interp.FunctionClass
	fnOf := func(v Value) Function { return v.AsObject().(Function) }

	// __call__ - invoke with the given arguments
	c.AddMethod(interp, "__call__", -1, func(interp *Interpreter, args []Value) Value {
		return fnOf(args[0]).Invoke(interp, args[1:])
	})

	// curry(...) - bind leading arguments
	c.AddMethod(interp, "curry", -1, func(interp *Interpreter, args []Value) Value {
		return interp.NewCurriedFunction(args[0], args[1:]...)
	})

	c.AddMethod(interp, "name", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(fnOf(args[0]).Name())
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		return NewString("<function " + fnOf(args[0]).Name() + ">")
	})
}
