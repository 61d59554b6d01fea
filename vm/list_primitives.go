package vm

import (
	"sort"
	"strings"
)

// ListObject is a mutable sequence of values.
type ListObject struct {
	BaseObject
	items []Value
}

// NewList creates a List holding copies of items.
func (interp *Interpreter) NewList(items ...Value) Value {
	l := &ListObject{items: make([]Value, 0, len(items))}
	for _, item := range items {
		l.items = append(l.items, item.Copy())
	}
	l.initObject(interp, interp.ListClass, l)
	return NewObject(l)
}

func allocateList(interp *Interpreter, cls *Class) Object {
	l := &ListObject{}
	l.initObject(interp, cls, l)
	return l
}

// Len returns the number of elements.
func (l *ListObject) Len() int { return len(l.items) }

// At returns the element at i. The Value is borrowed.
func (l *ListObject) At(i int) Value { return l.items[i] }

// Items returns the elements. The slice and its Values are borrowed.
func (l *ListObject) Items() []Value { return l.items }

// Append adds a copy of v.
func (l *ListObject) Append(v Value) {
	l.items = append(l.items, v.Copy())
}

// snapshot copies the elements so callbacks may mutate the list.
func (l *ListObject) snapshot() []Value {
	out := make([]Value, len(l.items))
	for i, v := range l.items {
		out[i] = v.Copy()
	}
	return out
}

func releaseAll(values []Value) {
	for i := range values {
		values[i].Release()
	}
}

// Mark marks the list and its elements.
func (l *ListObject) Mark() {
	l.BaseObject.Mark()
	for _, v := range l.items {
		v.Mark()
	}
}

// Dispose releases the elements.
func (l *ListObject) Dispose() {
	l.BaseObject.Dispose()
	items := l.items
	l.items = nil
	releaseAll(items)
}

// ---------------------------------------------------------------------------
// List Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerListPrimitives() {
	c := interp.ListClass
	list := func(v Value) *ListObject { return v.AsObject().(*ListObject) }

	// __init__(...) - the arguments become the elements
	c.AddMethod(interp, "__init__", -1, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		for _, arg := range args[1:] {
			l.Append(arg)
		}
		return NullValue()
	})

	c.AddMethod(interp, "__iter__", 0, func(interp *Interpreter, args []Value) Value {
		return interp.NewIterator(&listGenerator{list: args[0].Copy()})
	})

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(list(args[0]).Len() > 0)
	})

	c.AddMethod(interp, "length", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(int64(list(args[0]).Len()))
	})
	c.AddMethodAlias("size", "length")

	c.AddMethod(interp, "__getitem__", 1, func(interp *Interpreter, args []Value) Value {
		i, ok := interp.ToInt(args[1])
		if !ok {
			return ErrorValue()
		}
		l := list(args[0])
		idx, ok := normalizeIndex(i, len(l.items))
		if !ok {
			interp.Throw(interp.IndexErrorClass, "List index out of bounds")
			return ErrorValue()
		}
		return l.items[idx].Copy()
	})

	c.AddMethod(interp, "__setitem__", 2, func(interp *Interpreter, args []Value) Value {
		i, ok := interp.ToInt(args[1])
		if !ok {
			return ErrorValue()
		}
		l := list(args[0])
		idx, ok := normalizeIndex(i, len(l.items))
		if !ok {
			interp.Throw(interp.IndexErrorClass, "List index out of bounds")
			return ErrorValue()
		}
		l.items[idx].Set(args[2])
		return NullValue()
	})

	// __add__ - new list with the elements of both operands; the right
	// operand may be any iterable
	c.AddMethod(interp, "__add__", 1, func(interp *Interpreter, args []Value) Value {
		result := interp.NewList(list(args[0]).items...)
		r := list(result)
		if !interp.Iterate(args[1], func(item Value) bool {
			r.Append(item)
			return true
		}) {
			result.Release()
			return ErrorValue()
		}
		return result
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		other, ok := ObjectAs[*ListObject](args[1])
		if !ok {
			return NewBool(false)
		}
		l := list(args[0])
		if l == other {
			return NewBool(true)
		}
		if l.Len() != other.Len() {
			return NewBool(false)
		}
		left, right := l.snapshot(), other.snapshot()
		defer releaseAll(left)
		defer releaseAll(right)
		for i := range left {
			eq, ok := left[i].Equals(interp, right[i])
			if !ok {
				return ErrorValue()
			}
			if !eq {
				return NewBool(false)
			}
		}
		return NewBool(true)
	})

	// __str__ - "[a, b]"; a list containing itself prints "[...]"
	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		if l.HasFlag(FlagInRepr) {
			return NewString("[...]")
		}
		l.SetFlag(FlagInRepr)
		defer l.ClearFlag(FlagInRepr)

		items := l.snapshot()
		defer releaseAll(items)
		parts := make([]string, len(items))
		for i, item := range items {
			s, ok := item.ToString(interp)
			if !ok {
				return ErrorValue()
			}
			parts[i] = s
		}
		return NewString("[" + strings.Join(parts, ", ") + "]")
	})

	c.AddMethod(interp, "append", -1, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		for _, arg := range args[1:] {
			l.Append(arg)
		}
		return args[0].Copy()
	})
	c.AddMethodAlias("push", "append")

	c.AddMethod(interp, "pop", 0, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		if len(l.items) == 0 {
			interp.Throw(interp.IndexErrorClass, "List is empty")
			return ErrorValue()
		}
		last := l.items[len(l.items)-1]
		l.items = l.items[:len(l.items)-1]
		return last
	})

	c.AddMethod(interp, "insert", 2, func(interp *Interpreter, args []Value) Value {
		i, ok := interp.ToInt(args[1])
		if !ok {
			return ErrorValue()
		}
		l := list(args[0])
		if i < 0 {
			i += int64(len(l.items)) + 1
		}
		if i < 0 || i > int64(len(l.items)) {
			interp.Throw(interp.IndexErrorClass, "List index out of bounds")
			return ErrorValue()
		}
		l.items = append(l.items, Value{})
		copy(l.items[i+1:], l.items[i:])
		l.items[i] = args[2].Copy()
		return NullValue()
	})

	c.AddMethod(interp, "index_of", 1, func(interp *Interpreter, args []Value) Value {
		idx, ok := listIndexOf(interp, list(args[0]), args[1])
		if !ok {
			return ErrorValue()
		}
		return NewInt(int64(idx))
	})

	c.AddMethod(interp, "contains", 1, func(interp *Interpreter, args []Value) Value {
		idx, ok := listIndexOf(interp, list(args[0]), args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(idx >= 0)
	})

	// remove(value) - drop the first equal element
	c.AddMethod(interp, "remove", 1, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		idx, ok := listIndexOf(interp, l, args[1])
		if !ok {
			return ErrorValue()
		}
		if idx < 0 || idx >= len(l.items) {
			return NewBool(false)
		}
		removed := l.items[idx]
		l.items = append(l.items[:idx], l.items[idx+1:]...)
		removed.Release()
		return NewBool(true)
	})

	c.AddMethod(interp, "clear", 0, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		items := l.items
		l.items = nil
		releaseAll(items)
		return NullValue()
	})

	c.AddMethod(interp, "reverse", 0, func(interp *Interpreter, args []Value) Value {
		items := list(args[0]).items
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return NullValue()
	})

	c.AddMethod(interp, "first", 0, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		if len(l.items) == 0 {
			interp.Throw(interp.IndexErrorClass, "List is empty")
			return ErrorValue()
		}
		return l.items[0].Copy()
	})

	c.AddMethod(interp, "last", 0, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		if len(l.items) == 0 {
			interp.Throw(interp.IndexErrorClass, "List is empty")
			return ErrorValue()
		}
		return l.items[len(l.items)-1].Copy()
	})

	// join(sep) - string forms of the elements separated by sep
	c.AddMethod(interp, "join", -1, func(interp *Interpreter, args []Value) Value {
		sep := ""
		if len(args) > 1 {
			s, ok := interp.ToStr(args[1])
			if !ok {
				return ErrorValue()
			}
			sep = s
		}
		items := list(args[0]).snapshot()
		defer releaseAll(items)
		parts := make([]string, len(items))
		for i, item := range items {
			s, ok := item.ToString(interp)
			if !ok {
				return ErrorValue()
			}
			parts[i] = s
		}
		return NewString(strings.Join(parts, sep))
	})

	// sort - in place, ordered by __lt__. The elements are sorted as a
	// snapshot and replace the contents afterwards, so __lt__ may mutate
	// the list.
	c.AddMethod(interp, "sort", 0, func(interp *Interpreter, args []Value) Value {
		l := list(args[0])
		items := l.snapshot()
		failed := false
		sort.SliceStable(items, func(i, j int) bool {
			if failed {
				return false
			}
			less, ok := items[i].IsLessThan(interp, items[j])
			if !ok {
				failed = true
			}
			return less
		})
		if failed {
			releaseAll(items)
			return ErrorValue()
		}
		old := l.items
		l.items = items
		releaseAll(old)
		return NullValue()
	})
}

// listIndexOf returns the index of the first element equal to v, or -1.
func listIndexOf(interp *Interpreter, l *ListObject, v Value) (int, bool) {
	items := l.snapshot()
	defer releaseAll(items)
	for i, item := range items {
		eq, ok := item.Equals(interp, v)
		if !ok {
			return 0, false
		}
		if eq {
			return i, true
		}
	}
	return -1, true
}

// listGenerator yields the elements of a list by position, so elements
// appended during iteration are visited too.
type listGenerator struct {
	list  Value
	index int
}

func (g *listGenerator) Generate(interp *Interpreter) Result {
	l, ok := ObjectAs[*ListObject](g.list)
	if !ok || g.index >= len(l.items) {
		return BreakResult()
	}
	v := l.items[g.index].Copy()
	g.index++
	return SuccessResult(v)
}

func (g *listGenerator) Mark()    { g.list.Mark() }
func (g *listGenerator) Dispose() { g.list.Release() }
