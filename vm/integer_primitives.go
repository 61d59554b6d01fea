package vm

import (
	"fmt"
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Num Primitives (shared by Int and Float)
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerNumPrimitives() {
	c := interp.NumClass

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		if args[0].IsInt() {
			return NewBool(args[0].AsInt() != 0)
		}
		return NewBool(args[0].AsFloat() != 0)
	})

	c.AddMethod(interp, "__pos__", 0, func(interp *Interpreter, args []Value) Value {
		return args[0]
	})

	c.AddMethod(interp, "to_int", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(args[0].AsInt())
	})

	c.AddMethod(interp, "to_float", 0, func(interp *Interpreter, args []Value) Value {
		return NewFloat(args[0].AsFloat())
	})

	c.AddMethod(interp, "abs", 0, func(interp *Interpreter, args []Value) Value {
		if args[0].IsInt() {
			n := args[0].AsInt()
			if n < 0 {
				n = -n
			}
			return NewInt(n)
		}
		return NewFloat(math.Abs(args[0].AsFloat()))
	})
}

// unsupportedOperand throws the TypeError for a binary operator applied to
// an operand it does not accept.
func (interp *Interpreter) unsupportedOperand(op string, left, right Value) Value {
	interp.Throw(interp.TypeErrorClass, fmt.Sprintf("Unsupported operand types for '%s': '%s' and '%s'",
		op, left.GetClass(interp).Name(), right.GetClass(interp).Name()))
	return ErrorValue()
}

// ---------------------------------------------------------------------------
// Int Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerIntPrimitives() {
	c := interp.IntClass

	// Arithmetic: Int with Int stays Int, Int with Float promotes
	arith := func(name, op string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) {
		c.AddMethod(interp, name, 1, func(interp *Interpreter, args []Value) Value {
			recv, arg := args[0], args[1]
			switch {
			case arg.IsInt():
				return NewInt(intOp(recv.AsInt(), arg.AsInt()))
			case arg.IsFloat():
				return NewFloat(floatOp(recv.AsFloat(), arg.AsFloat()))
			}
			return interp.unsupportedOperand(op, recv, arg)
		})
	}
	arith("__add__", "+",
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
	arith("__sub__", "-",
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
	arith("__mul__", "*",
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })

	// __div__ - always a Float
	c.AddMethod(interp, "__div__", 1, func(interp *Interpreter, args []Value) Value {
		recv, arg := args[0], args[1]
		if !arg.IsNumber() {
			return interp.unsupportedOperand("/", recv, arg)
		}
		if arg.AsFloat() == 0 {
			interp.Throw(interp.ZeroDivisionErrorClass, "Division by zero")
			return ErrorValue()
		}
		return NewFloat(recv.AsFloat() / arg.AsFloat())
	})

	// __mod__ - remainder with the sign of the dividend
	c.AddMethod(interp, "__mod__", 1, func(interp *Interpreter, args []Value) Value {
		recv, arg := args[0], args[1]
		switch {
		case arg.IsInt():
			if arg.AsInt() == 0 {
				interp.Throw(interp.ZeroDivisionErrorClass, "Modulo by zero")
				return ErrorValue()
			}
			if arg.AsInt() == -1 {
				return NewInt(0)
			}
			return NewInt(recv.AsInt() % arg.AsInt())
		case arg.IsFloat():
			if arg.AsFloat() == 0 {
				interp.Throw(interp.ZeroDivisionErrorClass, "Modulo by zero")
				return ErrorValue()
			}
			return NewFloat(math.Mod(recv.AsFloat(), arg.AsFloat()))
		}
		return interp.unsupportedOperand("%", recv, arg)
	})

	// __pow__ - Int with a non-negative Int exponent stays Int
	c.AddMethod(interp, "__pow__", 1, func(interp *Interpreter, args []Value) Value {
		recv, arg := args[0], args[1]
		switch {
		case arg.IsInt() && arg.AsInt() >= 0:
			return NewInt(intPow(recv.AsInt(), arg.AsInt()))
		case arg.IsNumber():
			return NewFloat(math.Pow(recv.AsFloat(), arg.AsFloat()))
		}
		return interp.unsupportedOperand("**", recv, arg)
	})

	c.AddMethod(interp, "__neg__", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(-args[0].AsInt())
	})

	// Bitwise operators accept only Int operands
	bitwise := func(name, op string, fn func(a, b int64) int64) {
		c.AddMethod(interp, name, 1, func(interp *Interpreter, args []Value) Value {
			if !args[1].IsInt() {
				return interp.unsupportedOperand(op, args[0], args[1])
			}
			return NewInt(fn(args[0].AsInt(), args[1].AsInt()))
		})
	}
	bitwise("__and__", "&", func(a, b int64) int64 { return a & b })
	bitwise("__or__", "|", func(a, b int64) int64 { return a | b })
	bitwise("__xor__", "^", func(a, b int64) int64 { return a ^ b })
	bitwise("__lsh__", "<<", shiftLeft)
	bitwise("__rsh__", ">>", shiftRight)

	c.AddMethod(interp, "__invert__", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(^args[0].AsInt())
	})

	c.AddMethod(interp, "__inc__", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(args[0].AsInt() + 1)
	})

	c.AddMethod(interp, "__dec__", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(args[0].AsInt() - 1)
	})

	// Comparison
	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		recv, arg := args[0], args[1]
		switch {
		case arg.IsInt():
			return NewBool(recv.AsInt() == arg.AsInt())
		case arg.IsFloat():
			return NewBool(recv.AsFloat() == arg.AsFloat())
		}
		return NewBool(false)
	})

	c.AddMethod(interp, "__lt__", 1, func(interp *Interpreter, args []Value) Value {
		recv, arg := args[0], args[1]
		switch {
		case arg.IsInt():
			return NewBool(recv.AsInt() < arg.AsInt())
		case arg.IsFloat():
			return NewBool(recv.AsFloat() < arg.AsFloat())
		}
		return interp.unsupportedOperand("<", recv, arg)
	})

	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		return args[0]
	})

	// __str__ - decimal, or in the radix given as argument
	c.AddMethod(interp, "__str__", -1, func(interp *Interpreter, args []Value) Value {
		radix := int64(10)
		if len(args) > 1 {
			r, ok := interp.ToInt(args[1])
			if !ok {
				return ErrorValue()
			}
			if r < 2 || r > 36 {
				interp.Throw(interp.ValueErrorClass, "Radix must be between 2 and 36")
				return ErrorValue()
			}
			radix = r
		}
		return NewString(strconv.FormatInt(args[0].AsInt(), int(radix)))
	})

	c.AddMethod(interp, "times", 0, func(interp *Interpreter, args []Value) Value {
		return interp.NewIterator(&intRangeGenerator{next: 0, end: args[0].AsInt(), exclusive: true})
	})
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// shiftLeft shifts a by n bits; a negative n shifts right.
func shiftLeft(a, n int64) int64 {
	if n < 0 {
		if n == math.MinInt64 {
			return shiftRight(a, 64)
		}
		return shiftRight(a, -n)
	}
	if n >= 64 {
		return 0
	}
	return a << uint(n)
}

// shiftRight shifts a arithmetically by n bits; a negative n shifts left.
func shiftRight(a, n int64) int64 {
	if n < 0 {
		if n == math.MinInt64 {
			return 0
		}
		return shiftLeft(a, -n)
	}
	if n >= 64 {
		if a < 0 {
			return -1
		}
		return 0
	}
	return a >> uint(n)
}
