package vm

// RangeObject spans from begin to end, including end unless exclusive.
type RangeObject struct {
	BaseObject
	begin     Value
	end       Value
	exclusive bool
}

// NewRange creates a range between copies of begin and end.
func (interp *Interpreter) NewRange(begin, end Value, exclusive bool) Value {
	r := &RangeObject{begin: begin.Copy(), end: end.Copy(), exclusive: exclusive}
	r.initObject(interp, interp.RangeClass, r)
	return NewObject(r)
}

func allocateRange(interp *Interpreter, cls *Class) Object {
	r := &RangeObject{begin: NullValue(), end: NullValue()}
	r.initObject(interp, cls, r)
	return r
}

// Mark marks the range and its bounds.
func (r *RangeObject) Mark() {
	r.BaseObject.Mark()
	r.begin.Mark()
	r.end.Mark()
}

// Dispose releases the bounds.
func (r *RangeObject) Dispose() {
	r.BaseObject.Dispose()
	r.begin.Release()
	r.end.Release()
}

// iterator picks the integer fast path when both bounds are Ints.
func (r *RangeObject) iterator(interp *Interpreter) Value {
	if r.begin.IsInt() && r.end.IsInt() {
		return interp.NewIterator(&intRangeGenerator{
			next:      r.begin.AsInt(),
			end:       r.end.AsInt(),
			exclusive: r.exclusive,
		})
	}
	return interp.NewIterator(&rangeGenerator{
		current:   r.begin.Copy(),
		end:       r.end.Copy(),
		exclusive: r.exclusive,
	})
}

// ---------------------------------------------------------------------------
// Range Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerRangePrimitives() {
	c := interp.RangeClass
	rangeOf := func(v Value) *RangeObject { return v.AsObject().(*RangeObject) }

	// __init__(begin, end, exclusive)
	c.AddMethod(interp, "__init__", -3, func(interp *Interpreter, args []Value) Value {
		if len(args) > 4 {
			interp.Throw(interp.TypeErrorClass, "Method '__init__' expected at most 3 arguments")
			return ErrorValue()
		}
		r := rangeOf(args[0])
		r.begin.Set(args[1])
		r.end.Set(args[2])
		if len(args) == 4 {
			exclusive, ok := args[3].ToBool(interp)
			if !ok {
				return ErrorValue()
			}
			r.exclusive = exclusive
		}
		return NullValue()
	})

	c.AddMethod(interp, "begin", 0, func(interp *Interpreter, args []Value) Value {
		return rangeOf(args[0]).begin.Copy()
	})

	c.AddMethod(interp, "end", 0, func(interp *Interpreter, args []Value) Value {
		return rangeOf(args[0]).end.Copy()
	})

	c.AddMethod(interp, "is_exclusive", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(rangeOf(args[0]).exclusive)
	})

	c.AddMethod(interp, "__iter__", 0, func(interp *Interpreter, args []Value) Value {
		return rangeOf(args[0]).iterator(interp)
	})

	// has(value) - begin <= value and value < end (or <= end)
	c.AddMethod(interp, "has", 1, func(interp *Interpreter, args []Value) Value {
		r := rangeOf(args[0])
		below, ok := args[1].IsLessThan(interp, r.begin)
		if !ok {
			return ErrorValue()
		}
		if below {
			return NewBool(false)
		}
		if r.exclusive {
			less, ok := args[1].IsLessThan(interp, r.end)
			if !ok {
				return ErrorValue()
			}
			return NewBool(less)
		}
		above, ok := r.end.IsLessThan(interp, args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(!above)
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		other, ok := ObjectAs[*RangeObject](args[1])
		if !ok {
			return NewBool(false)
		}
		r := rangeOf(args[0])
		if r.exclusive != other.exclusive {
			return NewBool(false)
		}
		eq, ok := r.begin.Equals(interp, other.begin)
		if !ok {
			return ErrorValue()
		}
		if !eq {
			return NewBool(false)
		}
		eq, ok = r.end.Equals(interp, other.end)
		if !ok {
			return ErrorValue()
		}
		return NewBool(eq)
	})

	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		r := rangeOf(args[0])
		begin, ok := r.begin.ToString(interp)
		if !ok {
			return ErrorValue()
		}
		end, ok := r.end.ToString(interp)
		if !ok {
			return ErrorValue()
		}
		if r.exclusive {
			return NewString(begin + "..." + end)
		}
		return NewString(begin + ".." + end)
	})

	c.AddMethod(interp, "to_list", 0, func(interp *Interpreter, args []Value) Value {
		result := interp.NewList()
		l := result.AsObject().(*ListObject)
		if !interp.Iterate(args[0], func(item Value) bool {
			l.Append(item)
			return true
		}) {
			result.Release()
			return ErrorValue()
		}
		return result
	})
}

// ---------------------------------------------------------------------------
// Range generators
// ---------------------------------------------------------------------------

// intRangeGenerator counts integers without dispatching.
type intRangeGenerator struct {
	next      int64
	end       int64
	exclusive bool
	done      bool
}

func (g *intRangeGenerator) Generate(interp *Interpreter) Result {
	if g.done || g.next > g.end || (g.exclusive && g.next == g.end) {
		g.done = true
		return BreakResult()
	}
	v := g.next
	if v == g.end {
		g.done = true
	} else {
		g.next++
	}
	return SuccessResult(NewInt(v))
}

func (g *intRangeGenerator) Mark()    {}
func (g *intRangeGenerator) Dispose() {}

// rangeGenerator walks any bounds that implement __inc__ and __lt__.
type rangeGenerator struct {
	current   Value
	end       Value
	exclusive bool
	started   bool
	done      bool
}

func (g *rangeGenerator) Generate(interp *Interpreter) Result {
	if g.done {
		return BreakResult()
	}
	if g.started {
		next := g.current.Call(interp, "__inc__")
		if next.IsError() {
			return ErrorResult()
		}
		g.current.Release()
		g.current = next
	}
	g.started = true

	var inside bool
	if g.exclusive {
		less, ok := g.current.IsLessThan(interp, g.end)
		if !ok {
			return ErrorResult()
		}
		inside = less
	} else {
		past, ok := g.end.IsLessThan(interp, g.current)
		if !ok {
			return ErrorResult()
		}
		inside = !past
	}
	if !inside {
		g.done = true
		return BreakResult()
	}
	return SuccessResult(g.current.Copy())
}

func (g *rangeGenerator) Mark() {
	g.current.Mark()
	g.end.Mark()
}

func (g *rangeGenerator) Dispose() {
	g.current.Release()
	g.end.Release()
}
