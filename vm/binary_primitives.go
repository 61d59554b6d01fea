package vm

import (
	"bytes"
	"encoding/hex"
	"hash/fnv"
)

// BinaryObject is an immutable byte string.
type BinaryObject struct {
	BaseObject
	data []byte
}

// NewBinary creates a Binary holding a copy of data.
func (interp *Interpreter) NewBinary(data []byte) Value {
	b := &BinaryObject{data: bytes.Clone(data)}
	if b.data == nil {
		b.data = []byte{}
	}
	b.initObject(interp, interp.BinaryClass, b)
	return NewObject(b)
}

func allocateBinary(interp *Interpreter, cls *Class) Object {
	b := &BinaryObject{data: []byte{}}
	b.initObject(interp, cls, b)
	return b
}

// Bytes returns the contents. The slice must not be modified.
func (b *BinaryObject) Bytes() []byte { return b.data }

// ---------------------------------------------------------------------------
// Binary Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerBinaryPrimitives() {
	c := interp.BinaryClass

	// __init__(...) - bytes given as integers
	c.AddMethod(interp, "__init__", -1, func(interp *Interpreter, args []Value) Value {
		b := args[0].AsObject().(*BinaryObject)
		data := make([]byte, 0, len(args)-1)
		for _, arg := range args[1:] {
			n, ok := interp.ToInt(arg)
			if !ok {
				return ErrorValue()
			}
			if n < 0 || n > 255 {
				interp.Throw(interp.ValueErrorClass, "Byte value out of range")
				return ErrorValue()
			}
			data = append(data, byte(n))
		}
		b.data = data
		return NullValue()
	})

	c.AddMethod(interp, "__iter__", 0, func(interp *Interpreter, args []Value) Value {
		return interp.NewIterator(&binaryGenerator{binary: args[0].Copy()})
	})

	c.AddMethod(interp, "__getitem__", 1, func(interp *Interpreter, args []Value) Value {
		i, ok := interp.ToInt(args[1])
		if !ok {
			return ErrorValue()
		}
		data := args[0].AsObject().(*BinaryObject).data
		idx, ok := normalizeIndex(i, len(data))
		if !ok {
			interp.Throw(interp.IndexErrorClass, "Binary index out of bounds")
			return ErrorValue()
		}
		return NewInt(int64(data[idx]))
	})

	c.AddMethod(interp, "__add__", 1, func(interp *Interpreter, args []Value) Value {
		other, ok := interp.ToBinary(args[1])
		if !ok {
			return ErrorValue()
		}
		data := args[0].AsObject().(*BinaryObject).data
		joined := make([]byte, 0, len(data)+len(other))
		joined = append(joined, data...)
		joined = append(joined, other...)
		return interp.NewBinary(joined)
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		other, ok := ObjectAs[*BinaryObject](args[1])
		if !ok {
			return NewBool(false)
		}
		return NewBool(bytes.Equal(args[0].AsObject().(*BinaryObject).data, other.data))
	})

	c.AddMethod(interp, "__hash__", 0, func(interp *Interpreter, args []Value) Value {
		h := fnv.New64a()
		h.Write(args[0].AsObject().(*BinaryObject).data)
		return NewInt(int64(h.Sum64()))
	})

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(len(args[0].AsObject().(*BinaryObject).data) > 0)
	})

	c.AddMethod(interp, "length", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(int64(len(args[0].AsObject().(*BinaryObject).data)))
	})
	c.AddMethodAlias("size", "length")

	// decode - the bytes as UTF-8 text
	c.AddMethod(interp, "decode", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(string(args[0].AsObject().(*BinaryObject).data))
	})
	c.AddMethodAlias("__str__", "decode")

	c.AddMethod(interp, "hex", 0, func(interp *Interpreter, args []Value) Value {
		return NewString(hex.EncodeToString(args[0].AsObject().(*BinaryObject).data))
	})
}

// binaryGenerator yields the bytes of a Binary as integers.
type binaryGenerator struct {
	binary Value
	index  int
}

func (g *binaryGenerator) Generate(interp *Interpreter) Result {
	b, ok := ObjectAs[*BinaryObject](g.binary)
	if !ok || g.index >= len(b.data) {
		return BreakResult()
	}
	v := NewInt(int64(b.data[g.index]))
	g.index++
	return SuccessResult(v)
}

func (g *binaryGenerator) Mark()    { g.binary.Mark() }
func (g *binaryGenerator) Dispose() { g.binary.Release() }
