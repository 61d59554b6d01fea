package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Float Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerFloatPrimitives() {
	c := interp.FloatClass

	// Arithmetic: any numeric operand yields a Float
	arith := func(name, op string, fn func(a, b float64) float64) {
		c.AddMethod(interp, name, 1, func(interp *Interpreter, args []Value) Value {
			if !args[1].IsNumber() {
				return interp.unsupportedOperand(op, args[0], args[1])
			}
			return NewFloat(fn(args[0].AsFloat(), args[1].AsFloat()))
		})
	}
	arith("__add__", "+", func(a, b float64) float64 { return a + b })
	arith("__sub__", "-", func(a, b float64) float64 { return a - b })
	arith("__mul__", "*", func(a, b float64) float64 { return a * b })
	arith("__pow__", "**", math.Pow)

	c.AddMethod(interp, "__div__", 1, func(interp *Interpreter, args []Value) Value {
		if !args[1].IsNumber() {
			return interp.unsupportedOperand("/", args[0], args[1])
		}
		if args[1].AsFloat() == 0 {
			interp.Throw(interp.ZeroDivisionErrorClass, "Division by zero")
			return ErrorValue()
		}
		return NewFloat(args[0].AsFloat() / args[1].AsFloat())
	})

	c.AddMethod(interp, "__mod__", 1, func(interp *Interpreter, args []Value) Value {
		if !args[1].IsNumber() {
			return interp.unsupportedOperand("%", args[0], args[1])
		}
		if args[1].AsFloat() == 0 {
			interp.Throw(interp.ZeroDivisionErrorClass, "Modulo by zero")
			return ErrorValue()
		}
		return NewFloat(math.Mod(args[0].AsFloat(), args[1].AsFloat()))
	})

	c.AddMethod(interp, "__neg__", 0, func(interp *Interpreter, args []Value) Value {
		return NewFloat(-args[0].AsFloat())
	})

	c.AddMethod(interp, "__inc__", 0, func(interp *Interpreter, args []Value) Value {
		return NewFloat(args[0].AsFloat() + 1)
	})

	c.AddMethod(interp, "__dec__", 0, func(interp *Interpreter, args []Value) Value {
		return NewFloat(args[0].AsFloat() - 1)
	})

	// Bitwise operators are defined on Int only
	for name, op := range map[string]string{
		"__and__": "&", "__or__": "|", "__xor__": "^", "__lsh__": "<<", "__rsh__": ">>",
	} {
		op := op
		c.AddMethod(interp, name, 1, func(interp *Interpreter, args []Value) Value {
			return interp.unsupportedOperand(op, args[0], args[1])
		})
	}

	c.AddMethod(interp, "__invert__", 0, func(interp *Interpreter, args []Value) Value {
		interp.Throw(interp.TypeErrorClass, "Unsupported operand type for '~': 'Float'")
		return ErrorValue()
	})

	// Comparison
	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		return NewBool(args[1].IsNumber() && args[0].AsFloat() == args[1].AsFloat())
	})

	c.AddMethod(interp, "__lt__", 1, func(interp *Interpreter, args []Value) Value {
		if !args[1].IsNumber() {
			return interp.unsupportedOperand("<", args[0], args[1])
		}
		return NewBool(args[0].AsFloat() < args[1].AsFloat())
	})

	// __hash__ - integral floats hash like the equal Int
	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		f := args[0].AsFloat()
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return NewInt(int64(f))
		}
		return NewInt(int64(math.Float64bits(f)))
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(formatFloat(args[0].AsFloat()))
	})

	c.AddMethod(interp, "is_nan", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(math.IsNaN(args[0].AsFloat()))
	})

	c.AddMethod(interp, "is_inf", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(math.IsInf(args[0].AsFloat(), 0))
	})

	rounding := func(name string, fn func(float64) float64) {
		c.AddMethod(interp, name, 0, func(interp *Interpreter, args []Value) Value {
			return NewFloat(fn(args[0].AsFloat()))
		})
	}
	rounding("floor", math.Floor)
	rounding("ceil", math.Ceil)
	rounding("round", math.Round)
}

// formatFloat renders f in the shortest form that reads back exactly,
// keeping a decimal point on integral values.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
