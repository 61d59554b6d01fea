package vm

import "fmt"

// ---------------------------------------------------------------------------
// Object Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerObjectPrimitives() {
	c := interp.ObjectClass

	// __init__ - accept and ignore any arguments
	c.AddMethod(interp, "__init__", -1, func(interp *Interpreter, args []Value) Value {
		return NullValue()
	})

	// __eq__ - identity
	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		return NewBool(args[0].Identical(args[1]))
	})

	// The remaining comparisons derive from __lt__
	c.AddMethod(interp, "__gt__", 1, func(interp *Interpreter, args []Value) Value {
		less, ok := args[1].IsLessThan(interp, args[0])
		if !ok {
			return ErrorValue()
		}
		return NewBool(less)
	})

	c.AddMethod(interp, "__le__", 1, func(interp *Interpreter, args []Value) Value {
		greater, ok := args[1].IsLessThan(interp, args[0])
		if !ok {
			return ErrorValue()
		}
		return NewBool(!greater)
	})

	c.AddMethod(interp, "__ge__", 1, func(interp *Interpreter, args []Value) Value {
		less, ok := args[0].IsLessThan(interp, args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(!less)
	})

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(true)
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		return NewString("<" + args[0].GetClass(interp).Name() + ">")
	})

	// __hash__ - identity hash for boxed objects
	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		if obj := args[0].AsObject(); obj != nil {
			return NewInt(int64(obj.Core().ID()))
		}
		interp.Throw(interp.TypeErrorClass, "Cannot hash '"+args[0].GetClass(interp).Name()+"'")
		return ErrorValue()
	})

	c.AddMethod(interp, "__class__", 0, func(interp *Interpreter, args []Value) Value {
		return NewObject(args[0].GetClass(interp))
	})

	c.AddMethod(interp, "is_instance", 1, func(interp *Interpreter, args []Value) Value {
		cls, ok := interp.ToClass(args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(args[0].IsInstance(interp, cls))
	})

	c.AddMethod(interp, "has_attribute", 1, func(interp *Interpreter, args []Value) Value {
		name, ok := interp.ToStr(args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(args[0].HasAttribute(interp, name))
	})

	// get_attribute(name, default) - default suppresses AttributeError
	c.AddMethod(interp, "get_attribute", -2, func(interp *Interpreter, args []Value) Value {
		name, ok := interp.ToStr(args[1])
		if !ok {
			return ErrorValue()
		}
		if len(args) > 2 && !args[0].HasAttribute(interp, name) {
			return args[2].Copy()
		}
		return args[0].GetAttribute(interp, name)
	})

	c.AddMethod(interp, "set_attribute", 2, func(interp *Interpreter, args []Value) Value {
		name, ok := interp.ToStr(args[1])
		if !ok {
			return ErrorValue()
		}
		if !args[0].SetAttribute(interp, name, args[2]) {
			return ErrorValue()
		}
		return NullValue()
	})

	c.AddMethod(interp, "attributes", 0, func(interp *Interpreter, args []Value) Value {
		var names []Value
		if obj := args[0].AsObject(); obj != nil {
			for _, name := range obj.OwnAttributeNames() {
				names = append(names, NewString(name))
			}
		}
		return interp.NewList(names...)
	})
}

// ---------------------------------------------------------------------------
// Class Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerClassPrimitives() {
	c := interp.ClassClass

	// __call__ - allocate and initialize an instance
	c.AddMethod(interp, "__call__", -1, func(interp *Interpreter, args []Value) Value {
		return interp.Instantiate(args[0].AsObject().(*Class), args[1:]...)
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(args[0].AsObject().(*Class).Name())
	})

	c.AddMethod(interp, "name", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(args[0].AsObject().(*Class).Name())
	})

	c.AddMethod(interp, "parent", 0, func(interp *Interpreter, args []Value) Value {
		if parent := args[0].AsObject().(*Class).Parent(); parent != nil {
			return NewObject(parent)
		}
		return NullValue()
	})

	c.AddMethod(interp, "is_subclass", 1, func(interp *Interpreter, args []Value) Value {
		other, ok := interp.ToClass(args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(args[0].AsObject().(*Class).IsSubclassOf(other))
	})
}

// ---------------------------------------------------------------------------
// Null Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerNullPrimitives() {
	c := interp.NullClass

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(false)
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		return NewString("")
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		return NewBool(args[1].IsNull())
	})

	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(0)
	})
}

// ---------------------------------------------------------------------------
// Global functions
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerGlobalFunctions() {
	// print(...) - write the string form of every argument
	interp.DefineFunction("print", -1, func(interp *Interpreter, args []Value) Value {
		for _, arg := range args {
			s, ok := arg.ToString(interp)
			if !ok || !interp.Write(s) {
				return ErrorValue()
			}
		}
		return NullValue()
	})

	// locals() - variables of the calling frame
	interp.DefineFunction("locals", 0, func(interp *Interpreter, args []Value) Value {
		caller := interp.frame.Previous()
		if caller == nil {
			return NewObject(NewCustomObject(interp, interp.ObjectClass))
		}
		return caller.GetLocalVariables(interp)
	})

	// repr(value) - debugging form of a value
	interp.DefineFunction("repr", 1, func(interp *Interpreter, args []Value) Value {
		if args[0].IsObject() {
			s, ok := args[0].ToString(interp)
			if !ok {
				return ErrorValue()
			}
			return NewString(fmt.Sprintf("%s(%s)", args[0].GetClass(interp).Name(), s))
		}
		return NewString(args[0].String())
	})
}
