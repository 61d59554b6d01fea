package vm

import (
	"hash/fnv"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerStringPrimitives() {
	c := interp.StringClass

	// __add__ - concatenate with the string form of the argument
	c.AddMethod(interp, "__add__", 1, func(interp *Interpreter, args []Value) Value {
		s, ok := args[1].ToString(interp)
		if !ok {
			return ErrorValue()
		}
		return NewString(args[0].AsString() + s)
	})

	c.AddMethod(interp, "__mul__", 1, func(interp *Interpreter, args []Value) Value {
		n, ok := interp.ToInt(args[1])
		if !ok {
			return ErrorValue()
		}
		if n < 0 {
			interp.Throw(interp.ValueErrorClass, "Negative repeat count")
			return ErrorValue()
		}
		return NewString(strings.Repeat(args[0].AsString(), int(n)))
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		return NewBool(args[1].IsString() && args[0].AsString() == args[1].AsString())
	})

	c.AddMethod(interp, "__lt__", 1, func(interp *Interpreter, args []Value) Value {
		if !args[1].IsString() {
			return interp.unsupportedOperand("<", args[0], args[1])
		}
		return NewBool(args[0].AsString() < args[1].AsString())
	})

	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		h := fnv.New64a()
		h.Write([]byte(args[0].AsString()))
		return NewInt(int64(h.Sum64()))
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		return args[0]
	})

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(args[0].AsString() != "")
	})

	// __iter__ - characters
	c.AddMethod(interp, "__iter__", 0, func(interp *Interpreter, args []Value) Value {
		return interp.NewIterator(&stringGenerator{runes: []rune(args[0].AsString())})
	})

	// __getitem__ - character at index, negative counts from the end
	c.AddMethod(interp, "__getitem__", 1, func(interp *Interpreter, args []Value) Value {
		i, ok := interp.ToInt(args[1])
		if !ok {
			return ErrorValue()
		}
		runes := []rune(args[0].AsString())
		idx, ok := normalizeIndex(i, len(runes))
		if !ok {
			interp.Throw(interp.IndexErrorClass, "String index out of bounds")
			return ErrorValue()
		}
		return NewString(string(runes[idx]))
	})

	c.AddMethod(interp, "length", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(int64(utf8.RuneCountInString(args[0].AsString())))
	})
	c.AddMethodAlias("size", "length")

	transform := func(name string, fn func(string) string) {
		c.AddMethod(interp, name, 0, func(interp *Interpreter, args []Value) Value {
			return NewString(fn(args[0].AsString()))
		})
	}
	transform("upper", strings.ToUpper)
	transform("lower", strings.ToLower)
	transform("trim", strings.TrimSpace)
	transform("escape_xml", html.EscapeString)
	transform("reverse", func(s string) string {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	})

	predicate := func(name string, fn func(s, sub string) bool) {
		c.AddMethod(interp, name, 1, func(interp *Interpreter, args []Value) Value {
			sub, ok := interp.ToStr(args[1])
			if !ok {
				return ErrorValue()
			}
			return NewBool(fn(args[0].AsString(), sub))
		})
	}
	predicate("starts_with", strings.HasPrefix)
	predicate("ends_with", strings.HasSuffix)
	predicate("contains", strings.Contains)

	// index(sub) - rune offset of the first occurrence, or -1
	c.AddMethod(interp, "index", 1, func(interp *Interpreter, args []Value) Value {
		sub, ok := interp.ToStr(args[1])
		if !ok {
			return ErrorValue()
		}
		s := args[0].AsString()
		i := strings.Index(s, sub)
		if i < 0 {
			return NewInt(-1)
		}
		return NewInt(int64(utf8.RuneCountInString(s[:i])))
	})

	c.AddMethod(interp, "replace", 2, func(interp *Interpreter, args []Value) Value {
		old, ok := interp.ToStr(args[1])
		if !ok {
			return ErrorValue()
		}
		repl, ok := interp.ToStr(args[2])
		if !ok {
			return ErrorValue()
		}
		return NewString(strings.ReplaceAll(args[0].AsString(), old, repl))
	})

	// split(sep) - whitespace separated fields when sep is omitted
	c.AddMethod(interp, "split", -1, func(interp *Interpreter, args []Value) Value {
		var parts []string
		if len(args) > 1 {
			sep, ok := interp.ToStr(args[1])
			if !ok {
				return ErrorValue()
			}
			parts = strings.Split(args[0].AsString(), sep)
		} else {
			parts = strings.Fields(args[0].AsString())
		}
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = NewString(p)
		}
		return interp.NewList(items...)
	})

	c.AddMethod(interp, "encode", 0, func(interp *Interpreter, args []Value) Value {
		return interp.NewBinary([]byte(args[0].AsString()))
	})

	c.AddMethod(interp, "to_int", -1, func(interp *Interpreter, args []Value) Value {
		base := int64(10)
		if len(args) > 1 {
			b, ok := interp.ToInt(args[1])
			if !ok {
				return ErrorValue()
			}
			base = b
		}
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].AsString()), int(base), 64)
		if err != nil {
			interp.Throw(interp.ValueErrorClass, "Invalid integer: "+strconv.Quote(args[0].AsString()))
			return ErrorValue()
		}
		return NewInt(n)
	})

	c.AddMethod(interp, "to_float", 0, func(interp *Interpreter, args []Value) Value {
		f, err := strconv.ParseFloat(strings.TrimSpace(args[0].AsString()), 64)
		if err != nil {
			interp.Throw(interp.ValueErrorClass, "Invalid float: "+strconv.Quote(args[0].AsString()))
			return ErrorValue()
		}
		return NewFloat(f)
	})
}

// normalizeIndex resolves a possibly negative index against length.
func normalizeIndex(i int64, length int) (int, bool) {
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, false
	}
	return int(i), true
}

// stringGenerator yields the characters of a string.
type stringGenerator struct {
	runes []rune
	index int
}

func (g *stringGenerator) Generate(interp *Interpreter) Result {
	if g.index >= len(g.runes) {
		return BreakResult()
	}
	r := g.runes[g.index]
	g.index++
	return SuccessResult(NewString(string(r)))
}

func (g *stringGenerator) Mark()    {}
func (g *stringGenerator) Dispose() {}
