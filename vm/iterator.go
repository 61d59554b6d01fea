package vm

// ---------------------------------------------------------------------------
// Iterator protocol
// ---------------------------------------------------------------------------

// Generator produces the elements of an iterator. Generate returns a
// success carrying the next element, a break once exhausted, or an error
// with an exception pending.
type Generator interface {
	Generate(interp *Interpreter) Result
	Mark()
	Dispose()
}

// IteratorObject wraps a Generator with a one element pushback buffer.
type IteratorObject struct {
	BaseObject
	gen      Generator
	buffer   Value
	buffered bool
}

// NewIterator creates an iterator over gen.
func (interp *Interpreter) NewIterator(gen Generator) Value {
	it := &IteratorObject{gen: gen}
	it.initObject(interp, interp.IteratorClass, it)
	return NewObject(it)
}

func allocateIterator(interp *Interpreter, cls *Class) Object {
	it := &IteratorObject{}
	it.initObject(interp, cls, it)
	return it
}

// Feed pushes v back so that the next Peek or Next returns it.
func (it *IteratorObject) Feed(v Value) {
	if it.buffered {
		it.buffer.Release()
	}
	it.buffer = v.Copy()
	it.buffered = true
}

func (it *IteratorObject) generate(interp *Interpreter) Result {
	if it.gen == nil {
		return BreakResult()
	}
	return it.gen.Generate(interp)
}

// Peek returns the next element without consuming it. An exhausted
// iterator throws StopIteration and stays exhausted.
func (it *IteratorObject) Peek(interp *Interpreter) Value {
	if it.buffered {
		return it.buffer.Copy()
	}
	result := it.generate(interp)
	switch result.Kind {
	case ResultSuccess:
		if result.Value.IsError() {
			result.Value = NullValue()
		}
		it.buffer = result.Value
		it.buffered = true
		return it.buffer.Copy()
	case ResultBreak:
		interp.Throw(interp.StopIterationClass, "Iteration has stopped")
	}
	return ErrorValue()
}

// Next consumes and returns the next element. An exhausted iterator
// throws StopIteration.
func (it *IteratorObject) Next(interp *Interpreter) Value {
	if it.buffered {
		v := it.buffer
		it.buffer = Value{}
		it.buffered = false
		return v
	}
	result := it.generate(interp)
	switch result.Kind {
	case ResultSuccess:
		if result.Value.IsError() {
			return NullValue()
		}
		return result.Value
	case ResultBreak:
		interp.Throw(interp.StopIterationClass, "Iteration has stopped")
	}
	return ErrorValue()
}

// HasNext reports whether another element is available. Only
// StopIteration is swallowed; other exceptions stay pending and the
// second result is false.
func (it *IteratorObject) HasNext(interp *Interpreter) (bool, bool) {
	v := it.Peek(interp)
	if v.IsError() {
		if interp.ExceptionIs(interp.StopIterationClass) {
			interp.ClearException()
			return false, true
		}
		return false, false
	}
	v.Release()
	return true, true
}

// Mark marks the iterator, the buffered element and the generator state.
func (it *IteratorObject) Mark() {
	it.BaseObject.Mark()
	if it.buffered {
		it.buffer.Mark()
	}
	if it.gen != nil {
		it.gen.Mark()
	}
}

// Dispose releases the buffered element and the generator state.
func (it *IteratorObject) Dispose() {
	it.BaseObject.Dispose()
	if it.buffered {
		it.buffer.Release()
		it.buffered = false
	}
	if it.gen != nil {
		g := it.gen
		it.gen = nil
		g.Dispose()
	}
}

// ---------------------------------------------------------------------------
// Consuming iterables from Go
// ---------------------------------------------------------------------------

// IteratorNext advances iter, which is an Iterator or any object with a
// next method. It returns false when the iterator is exhausted or when an
// exception is pending; HasException tells the two apart.
func (interp *Interpreter) IteratorNext(iter Value) (Value, bool) {
	var v Value
	if it, ok := ObjectAs[*IteratorObject](iter); ok {
		v = it.Next(interp)
	} else {
		v = iter.Call(interp, "next")
	}
	if v.IsError() {
		if interp.ExceptionIs(interp.StopIterationClass) {
			interp.ClearException()
		}
		return Value{}, false
	}
	return v, true
}

// Iterate calls fn with every element of iterable, obtained through its
// __iter__ method. The element is borrowed. Iteration stops early when fn
// returns false. The result is false when an exception is pending.
func (interp *Interpreter) Iterate(iterable Value, fn func(item Value) bool) bool {
	iter := iterable.Call(interp, "__iter__")
	if iter.IsError() {
		return false
	}
	defer iter.Release()
	for {
		item, ok := interp.IteratorNext(iter)
		if !ok {
			return !interp.HasException()
		}
		cont := fn(item)
		item.Release()
		if !cont {
			return !interp.HasException()
		}
	}
}

// ---------------------------------------------------------------------------
// Function backed generator
// ---------------------------------------------------------------------------

// funcGenerator calls a function for every element. The function ends the
// iteration by throwing StopIteration.
type funcGenerator struct {
	fn Value
}

func (g *funcGenerator) Generate(interp *Interpreter) Result {
	v := g.fn.Call(interp, "__call__")
	if v.IsError() {
		if interp.ExceptionIs(interp.StopIterationClass) {
			interp.ClearException()
			return BreakResult()
		}
		return ErrorResult()
	}
	return SuccessResult(v)
}

func (g *funcGenerator) Mark()    { g.fn.Mark() }
func (g *funcGenerator) Dispose() { g.fn.Release() }

// ---------------------------------------------------------------------------
// Iterator primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerIteratorPrimitives() {
	c := interp.IteratorClass

	c.AddMethod(interp, "__init__", 1, func(interp *Interpreter, args []Value) Value {
		it := args[0].AsObject().(*IteratorObject)
		if !args[1].HasAttribute(interp, "__call__") {
			interp.Throw(interp.TypeErrorClass, "Iterator requires a callable")
			return ErrorValue()
		}
		if it.gen != nil {
			it.gen.Dispose()
		}
		it.gen = &funcGenerator{fn: args[1].Copy()}
		return NullValue()
	})

	c.AddMethod(interp, "__iter__", 0, func(interp *Interpreter, args []Value) Value {
		return args[0].Copy()
	})

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		more, ok := args[0].AsObject().(*IteratorObject).HasNext(interp)
		if !ok {
			return ErrorValue()
		}
		return NewBool(more)
	})

	c.AddMethod(interp, "next", 0, func(interp *Interpreter, args []Value) Value {
		return args[0].AsObject().(*IteratorObject).Next(interp)
	})

	c.AddMethod(interp, "peek", 0, func(interp *Interpreter, args []Value) Value {
		return args[0].AsObject().(*IteratorObject).Peek(interp)
	})

	c.AddMethod(interp, "feed", 1, func(interp *Interpreter, args []Value) Value {
		args[0].AsObject().(*IteratorObject).Feed(args[1])
		return NullValue()
	})

	c.AddMethod(interp, "to_list", 0, func(interp *Interpreter, args []Value) Value {
		list := interp.NewList()
		l := list.AsObject().(*ListObject)
		if !interp.Iterate(args[0], func(item Value) bool {
			l.Append(item)
			return true
		}) {
			list.Release()
			return ErrorValue()
		}
		return list
	})
}
