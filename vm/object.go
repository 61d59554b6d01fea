package vm

import "sort"

// ---------------------------------------------------------------------------
// Object header
// ---------------------------------------------------------------------------

// Flags records transient per-object state.
type Flags uint8

const (
	// FlagInRepr is set while an object is being converted to a string, so a
	// collection that contains itself prints a placeholder instead of looping.
	FlagInRepr Flags = 1 << iota
)

// Ref is a live strong handle registered on an object. Every Value of the
// Object kind carries one; struct copies of the same Value share it.
// When the object is destroyed the Ref is neutralized and the Value
// reads as Null from then on.
type Ref struct {
	target Object
	prev   *Ref
	next   *Ref
}

// Counted is implemented by everything the heap tracks: objects, frames
// and scopes.
type Counted interface {
	Core() *CoreObject

	// Mark sets the mark flag and marks everything reachable from the
	// receiver. Overrides call the embedded Mark first.
	Mark()

	// Dispose releases everything the receiver owns. It is called exactly
	// once, when the receiver is destroyed.
	Dispose()
}

// CoreObject is the header embedded by every heap allocated entity.
type CoreObject struct {
	heap      *Heap
	self      Counted
	id        uint64
	refCount  int
	marked    bool
	destroyed bool
	flags     Flags
	live      *Ref
	liveCount int
}

// init registers the object on the heap. self must be the outer struct so
// that destruction dispatches to its Dispose.
func (c *CoreObject) init(h *Heap, self Counted) {
	c.self = self
	c.heap = h
	if h != nil {
		h.track(self)
	}
}

// Core returns the header itself.
func (c *CoreObject) Core() *CoreObject { return c }

// ID returns a number unique among the objects of one heap.
func (c *CoreObject) ID() uint64 { return c.id }

// RefCount returns the number of strong references.
func (c *CoreObject) RefCount() int { return c.refCount }

// LiveValues returns the number of Values currently registered on the object.
func (c *CoreObject) LiveValues() int { return c.liveCount }

// Marked reports whether the collector reached the object in the current
// mark phase.
func (c *CoreObject) Marked() bool { return c.marked }

// Destroyed reports whether the object has been destroyed.
func (c *CoreObject) Destroyed() bool { return c.destroyed }

// HasFlag reports whether f is set.
func (c *CoreObject) HasFlag(f Flags) bool { return c.flags&f != 0 }

// SetFlag sets f.
func (c *CoreObject) SetFlag(f Flags) { c.flags |= f }

// ClearFlag clears f.
func (c *CoreObject) ClearFlag(f Flags) { c.flags &^= f }

// Mark sets the mark flag. Composite objects override Mark, call this first
// and then mark their children.
func (c *CoreObject) Mark() {
	if c.marked {
		return
	}
	c.marked = true
	if c.heap != nil {
		c.heap.marks++
	}
}

// Dispose is a no-op for objects that own nothing.
func (c *CoreObject) Dispose() {}

// Retain adds a strong reference held by Go code rather than by a Value.
func (c *CoreObject) Retain() {
	c.refCount++
}

// Release drops a strong reference taken with Retain. The object is
// destroyed when the count reaches zero.
func (c *CoreObject) Release() {
	if c.destroyed {
		return
	}
	if c.refCount > 0 {
		c.refCount--
	}
	if c.refCount == 0 {
		c.destroy()
	}
}

// destroy neutralizes every registered Ref, unregisters the object from the
// heap and disposes it. Calling it twice is harmless.
func (c *CoreObject) destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	for r := c.live; r != nil; {
		next := r.next
		r.target, r.prev, r.next = nil, nil, nil
		r = next
	}
	c.live = nil
	c.liveCount = 0
	if c.heap != nil {
		c.heap.untrack(c)
	}
	if c.self != nil {
		c.self.Dispose()
	}
}

func (c *CoreObject) link(r *Ref) {
	r.prev = nil
	r.next = c.live
	if c.live != nil {
		c.live.prev = r
	}
	c.live = r
	c.liveCount++
	c.refCount++
}

func (c *CoreObject) unlink(r *Ref) {
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		c.live = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.target, r.prev, r.next = nil, nil, nil
	c.liveCount--
	c.Release()
}

// ---------------------------------------------------------------------------
// Object: anything a Value can point at
// ---------------------------------------------------------------------------

// Object is a heap object visible to scripts.
type Object interface {
	Counted

	// Class returns the class of the object.
	Class() *Class

	// GetOwnAttribute returns an attribute stored on the object itself,
	// without consulting the class chain. The Value is borrowed.
	GetOwnAttribute(name string) (Value, bool)

	// SetOwnAttribute stores an attribute on the object. It returns false
	// if the object does not accept attributes.
	SetOwnAttribute(name string, value Value) bool

	// OwnAttributeNames returns the names of the object's own attributes
	// in sorted order.
	OwnAttributeNames() []string
}

// BaseObject implements Object with a class pointer and an attribute map.
// Builtin object types embed it.
type BaseObject struct {
	CoreObject
	cls        *Class
	attributes map[string]Value
}

// initObject registers the object on the interpreter's heap. The object
// keeps its class alive.
func (o *BaseObject) initObject(interp *Interpreter, cls *Class, self Object) {
	o.cls = cls
	if cls != nil {
		cls.Retain()
	}
	var h *Heap
	if interp != nil {
		h = interp.heap
	}
	o.CoreObject.init(h, self)
}

// Class returns the class of the object.
func (o *BaseObject) Class() *Class { return o.cls }

// GetOwnAttribute returns an attribute of the object itself.
func (o *BaseObject) GetOwnAttribute(name string) (Value, bool) {
	v, ok := o.attributes[name]
	return v, ok
}

// SetOwnAttribute stores a copy of value under name.
func (o *BaseObject) SetOwnAttribute(name string, value Value) bool {
	if o.attributes == nil {
		o.attributes = make(map[string]Value)
	}
	old, had := o.attributes[name]
	o.attributes[name] = value.Copy()
	if had {
		old.Release()
	}
	return true
}

// RemoveOwnAttribute deletes an attribute. It reports whether one existed.
func (o *BaseObject) RemoveOwnAttribute(name string) bool {
	old, had := o.attributes[name]
	if !had {
		return false
	}
	delete(o.attributes, name)
	old.Release()
	return true
}

// OwnAttributeNames returns the attribute names in sorted order.
func (o *BaseObject) OwnAttributeNames() []string {
	names := make([]string, 0, len(o.attributes))
	for name := range o.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mark marks the object, its class and its attributes.
func (o *BaseObject) Mark() {
	o.CoreObject.Mark()
	if o.cls != nil && !o.cls.Marked() {
		o.cls.Mark()
	}
	for _, v := range o.attributes {
		v.Mark()
	}
}

// Dispose releases the attributes and the class.
func (o *BaseObject) Dispose() {
	attrs := o.attributes
	o.attributes = nil
	for _, v := range attrs {
		v.Release()
	}
	if o.cls != nil {
		o.cls.Release()
	}
}

// CustomObject is an instance of a scripted class, or of Object itself.
type CustomObject struct {
	BaseObject
}

// NewCustomObject allocates a plain attribute bag of the given class.
func NewCustomObject(interp *Interpreter, cls *Class) *CustomObject {
	obj := &CustomObject{}
	obj.initObject(interp, cls, obj)
	return obj
}

func allocateCustomObject(interp *Interpreter, cls *Class) Object {
	return NewCustomObject(interp, cls)
}

// ObjectAs returns the object behind v as T.
func ObjectAs[T Object](v Value) (T, bool) {
	obj, ok := v.AsObject().(T)
	return obj, ok
}
