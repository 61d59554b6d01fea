package vm

import (
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// MapObject is a hash map keyed by any hashable value. Entries are kept in
// a linked hash map keyed by insertion sequence so iteration follows
// insertion order; buckets index them by hash.
type MapObject struct {
	BaseObject
	order   *linkedhashmap.Map // int64 sequence -> *mapEntry
	buckets map[int64][]*mapEntry
	seq     int64
}

type mapEntry struct {
	key   Value
	value Value
	hash  int64
	seq   int64
}

func newMapObject() *MapObject {
	return &MapObject{order: linkedhashmap.New(), buckets: make(map[int64][]*mapEntry)}
}

// NewMap creates an empty Map.
func (interp *Interpreter) NewMap() Value {
	m := newMapObject()
	m.initObject(interp, interp.MapClass, m)
	return NewObject(m)
}

func allocateMap(interp *Interpreter, cls *Class) Object {
	m := newMapObject()
	m.initObject(interp, cls, m)
	return m
}

// Len returns the number of entries.
func (m *MapObject) Len() int { return m.order.Size() }

// find locates the entry for key. entry is nil when the key is absent; ok
// is false when hashing or comparing threw.
func (m *MapObject) find(interp *Interpreter, key Value) (hash int64, entry *mapEntry, ok bool) {
	hash, ok = key.Hash(interp)
	if !ok {
		return 0, nil, false
	}
	for _, e := range m.buckets[hash] {
		eq, ok := e.key.Equals(interp, key)
		if !ok {
			return hash, nil, false
		}
		if eq {
			return hash, e, true
		}
	}
	return hash, nil, true
}

// Get returns a copy of the value stored under key. found is false for a
// missing key; ok is false when an exception is pending.
func (m *MapObject) Get(interp *Interpreter, key Value) (value Value, found, ok bool) {
	_, entry, ok := m.find(interp, key)
	if !ok || entry == nil {
		return Value{}, false, ok
	}
	return entry.value.Copy(), true, true
}

// Set stores copies of key and value. Replacing the value of an existing
// key keeps its position.
func (m *MapObject) Set(interp *Interpreter, key, value Value) bool {
	hash, entry, ok := m.find(interp, key)
	if !ok {
		return false
	}
	if entry != nil && m.contains(entry) {
		entry.value.Set(value)
		return true
	}
	m.seq++
	entry = &mapEntry{key: key.Copy(), value: value.Copy(), hash: hash, seq: m.seq}
	m.buckets[hash] = append(m.buckets[hash], entry)
	m.order.Put(entry.seq, entry)
	return true
}

// Remove deletes key and reports whether it was present.
func (m *MapObject) Remove(interp *Interpreter, key Value) (removed, ok bool) {
	_, entry, ok := m.find(interp, key)
	if !ok || entry == nil {
		return false, ok
	}
	if !m.contains(entry) {
		return false, true
	}
	m.unlink(entry)
	entry.key.Release()
	entry.value.Release()
	return true, true
}

// contains reports whether entry is still stored. Comparing keys runs
// script code, which may have removed it.
func (m *MapObject) contains(entry *mapEntry) bool {
	_, ok := m.order.Get(entry.seq)
	return ok
}

// unlink drops entry from the bucket index and the insertion order.
func (m *MapObject) unlink(entry *mapEntry) {
	bucket := m.buckets[entry.hash]
	for i, e := range bucket {
		if e == entry {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(m.buckets, entry.hash)
	} else {
		m.buckets[entry.hash] = bucket
	}
	m.order.Remove(entry.seq)
}

// entries lists the entries in iteration order.
func (m *MapObject) entries() []*mapEntry {
	out := make([]*mapEntry, 0, m.order.Size())
	it := m.order.Iterator()
	for it.Next() {
		out = append(out, it.Value().(*mapEntry))
	}
	return out
}

// snapshot copies keys and values so callbacks may mutate the map.
func (m *MapObject) snapshot() (keys, values []Value) {
	for _, e := range m.entries() {
		keys = append(keys, e.key.Copy())
		values = append(values, e.value.Copy())
	}
	return keys, values
}

func (m *MapObject) clear() {
	all := m.entries()
	m.order.Clear()
	clear(m.buckets)
	for _, e := range all {
		e.key.Release()
		e.value.Release()
	}
}

// Mark marks the map, its keys and its values.
func (m *MapObject) Mark() {
	m.BaseObject.Mark()
	for _, e := range m.entries() {
		e.key.Mark()
		e.value.Mark()
	}
}

// Dispose releases all entries.
func (m *MapObject) Dispose() {
	m.BaseObject.Dispose()
	m.clear()
}

// ---------------------------------------------------------------------------
// Map Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerMapPrimitives() {
	c := interp.MapClass
	mapOf := func(v Value) *MapObject { return v.AsObject().(*MapObject) }

	// __init__(other) - optionally copy the entries of another map
	c.AddMethod(interp, "__init__", -1, func(interp *Interpreter, args []Value) Value {
		if len(args) == 1 {
			return NullValue()
		}
		if len(args) > 2 {
			interp.Throw(interp.TypeErrorClass, "Method '__init__' expected at most 1 arguments")
			return ErrorValue()
		}
		other, ok := ObjectAs[*MapObject](args[1])
		if !ok {
			interp.typeError("Map", args[1])
			return ErrorValue()
		}
		m := mapOf(args[0])
		keys, values := other.snapshot()
		defer releaseAll(keys)
		defer releaseAll(values)
		for i := range keys {
			if !m.Set(interp, keys[i], values[i]) {
				return ErrorValue()
			}
		}
		return NullValue()
	})

	c.AddMethod(interp, "__getitem__", 1, func(interp *Interpreter, args []Value) Value {
		v, found, ok := mapOf(args[0]).Get(interp, args[1])
		if !ok {
			return ErrorValue()
		}
		if !found {
			name, _ := args[1].ToString(interp)
			interp.Throw(interp.KeyErrorClass, "Missing key: "+name)
			return ErrorValue()
		}
		return v
	})

	c.AddMethod(interp, "__setitem__", 2, func(interp *Interpreter, args []Value) Value {
		if !mapOf(args[0]).Set(interp, args[1], args[2]) {
			return ErrorValue()
		}
		return NullValue()
	})

	// get(key, default) - default is null when omitted
	c.AddMethod(interp, "get", -2, func(interp *Interpreter, args []Value) Value {
		v, found, ok := mapOf(args[0]).Get(interp, args[1])
		if !ok {
			return ErrorValue()
		}
		if !found {
			return optionalArg(args, 2).Copy()
		}
		return v
	})

	c.AddMethod(interp, "has", 1, func(interp *Interpreter, args []Value) Value {
		_, entry, ok := mapOf(args[0]).find(interp, args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(entry != nil)
	})

	c.AddMethod(interp, "remove", 1, func(interp *Interpreter, args []Value) Value {
		removed, ok := mapOf(args[0]).Remove(interp, args[1])
		if !ok {
			return ErrorValue()
		}
		return NewBool(removed)
	})
	c.AddMethodAlias("delete", "remove")

	c.AddMethod(interp, "clear", 0, func(interp *Interpreter, args []Value) Value {
		mapOf(args[0]).clear()
		return NullValue()
	})

	c.AddMethod(interp, "length", 0, func(interp *Interpreter, args []Value) Value {
		return NewInt(int64(mapOf(args[0]).Len()))
	})
	c.AddMethodAlias("size", "length")

	c.AddMethod(interp, "__bool__", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(mapOf(args[0]).Len() > 0)
	})

	c.AddMethod(interp, "keys", 0, func(interp *Interpreter, args []Value) Value {
		keys, values := mapOf(args[0]).snapshot()
		defer releaseAll(keys)
		defer releaseAll(values)
		return interp.NewList(keys...)
	})

	c.AddMethod(interp, "values", 0, func(interp *Interpreter, args []Value) Value {
		keys, values := mapOf(args[0]).snapshot()
		defer releaseAll(keys)
		defer releaseAll(values)
		return interp.NewList(values...)
	})

	// __iter__ - [key, value] pairs in insertion order
	c.AddMethod(interp, "__iter__", 0, func(interp *Interpreter, args []Value) Value {
		keys, values := mapOf(args[0]).snapshot()
		return interp.NewIterator(&mapGenerator{keys: keys, values: values})
	})

	c.AddMethod(interp, "__eq__", 1, func(interp *Interpreter, args []Value) Value {
		other, ok := ObjectAs[*MapObject](args[1])
		if !ok {
			return NewBool(false)
		}
		m := mapOf(args[0])
		if m == other {
			return NewBool(true)
		}
		if m.Len() != other.Len() {
			return NewBool(false)
		}
		keys, values := m.snapshot()
		defer releaseAll(keys)
		defer releaseAll(values)
		for i := range keys {
			v, found, ok := other.Get(interp, keys[i])
			if !ok {
				return ErrorValue()
			}
			if !found {
				return NewBool(false)
			}
			eq, ok := values[i].Equals(interp, v)
			v.Release()
			if !ok {
				return ErrorValue()
			}
			if !eq {
				return NewBool(false)
			}
		}
		return NewBool(true)
	})

	// __str__ - "{k: v}"; a map containing itself prints "{...}"
	c.AddMethod(interp, "__str__", 0, func(interp *Interpreter, args []Value) Value {
		m := mapOf(args[0])
		if m.HasFlag(FlagInRepr) {
			return NewString("{...}")
		}
		m.SetFlag(FlagInRepr)
		defer m.ClearFlag(FlagInRepr)

		keys, values := m.snapshot()
		defer releaseAll(keys)
		defer releaseAll(values)
		parts := make([]string, len(keys))
		for i := range keys {
			k, ok := keys[i].ToString(interp)
			if !ok {
				return ErrorValue()
			}
			v, ok := values[i].ToString(interp)
			if !ok {
				return ErrorValue()
			}
			parts[i] = k + ": " + v
		}
		return NewString("{" + strings.Join(parts, ", ") + "}")
	})
}

// mapGenerator yields [key, value] lists from a snapshot of the entries.
type mapGenerator struct {
	keys   []Value
	values []Value
	index  int
}

func (g *mapGenerator) Generate(interp *Interpreter) Result {
	if g.index >= len(g.keys) {
		return BreakResult()
	}
	pair := interp.NewList(g.keys[g.index], g.values[g.index])
	g.index++
	return SuccessResult(pair)
}

func (g *mapGenerator) Mark() {
	for i := range g.keys {
		g.keys[i].Mark()
		g.values[i].Mark()
	}
}

func (g *mapGenerator) Dispose() {
	releaseAll(g.keys)
	releaseAll(g.values)
	g.keys, g.values = nil, nil
}
