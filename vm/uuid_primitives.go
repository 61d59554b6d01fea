package vm

import "github.com/google/uuid"

// ---------------------------------------------------------------------------
// Uuid Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerUuidPrimitives() {
	c := interp.createValueClass("Uuid", interp.ObjectClass)

	// generate - a random (version 4) UUID string
	c.AddStaticMethod(interp, "generate", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(uuid.NewString())
	})

	c.AddStaticMethod(interp, "is_valid", 1, func(interp *Interpreter, args []Value) Value {
		s, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		_, err := uuid.Parse(s)
		return NewBool(err == nil)
	})
}
