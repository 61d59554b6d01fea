package vm

import (
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// Class
// ---------------------------------------------------------------------------

// Allocator creates an uninitialized instance of cls. Classes whose
// instances are primitive values have no allocator.
type Allocator func(interp *Interpreter, cls *Class) Object

// Class is an object describing a family of values. Methods are ordinary
// attributes of the class; lookup walks the parent chain.
type Class struct {
	BaseObject
	name      string
	parent    *Class
	allocator Allocator
}

// NewClass creates a class whose instances are allocated like those of
// parent. The class is not registered anywhere; callers keep it alive.
func NewClass(interp *Interpreter, name string, parent *Class) *Class {
	c := &Class{name: name, parent: parent}
	if parent != nil {
		c.allocator = parent.allocator
		parent.Retain()
	}
	c.initObject(interp, interp.ClassClass, c)
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Parent returns the superclass, or nil for Object.
func (c *Class) Parent() *Class { return c.parent }

// Allocator returns the allocator, or nil.
func (c *Class) Allocator() Allocator { return c.allocator }

// SetAllocator replaces the allocator.
func (c *Class) SetAllocator(a Allocator) { c.allocator = a }

// Allocate creates an instance through the allocator. It returns nil when
// the class cannot be instantiated.
func (c *Class) Allocate(interp *Interpreter) Object {
	if c.allocator == nil {
		return nil
	}
	return c.allocator(interp, c)
}

// IsSubclassOf returns true if c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.parent {
		if current == other {
			return true
		}
	}
	return false
}

// LookupAttribute searches the class and its ancestors. The Value is
// borrowed.
func (c *Class) LookupAttribute(name string) (Value, bool) {
	for current := c; current != nil; current = current.parent {
		if v, ok := current.attributes[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// GetOwnAttribute exposes what a class offers when used as a value: static
// methods and non-function attributes of the whole chain. Instance methods
// are reached through instances.
func (c *Class) GetOwnAttribute(name string) (Value, bool) {
	v, ok := c.LookupAttribute(name)
	if !ok {
		return Value{}, false
	}
	if fn, isFn := v.AsFunction(); isFn && !fn.IsStatic() {
		return Value{}, false
	}
	return v, true
}

// AttributeNames returns the names defined directly on the class.
func (c *Class) AttributeNames() []string {
	return c.BaseObject.OwnAttributeNames()
}

// Mark marks the class, its parent and its attributes.
func (c *Class) Mark() {
	c.BaseObject.Mark()
	if c.parent != nil && !c.parent.Marked() {
		c.parent.Mark()
	}
}

// Dispose releases the attributes and the parent.
func (c *Class) Dispose() {
	c.BaseObject.Dispose()
	if c.parent != nil {
		c.parent.Release()
	}
}

// String returns the class name.
func (c *Class) String() string {
	return c.name
}

// ---------------------------------------------------------------------------
// Method registration
// ---------------------------------------------------------------------------

// AddMethod installs a native instance method. A non-negative arity is
// exact; -(k+1) accepts k or more arguments.
func (c *Class) AddMethod(interp *Interpreter, name string, arity int, fn NativeFunc) {
	m := newNativeMethod(interp, c, name, arity, false, fn)
	v := NewObject(m)
	c.SetOwnAttribute(name, v)
	v.Release()
}

// AddStaticMethod installs a native method that receives no receiver.
func (c *Class) AddStaticMethod(interp *Interpreter, name string, arity int, fn NativeFunc) {
	m := newNativeMethod(interp, c, name, arity, true, fn)
	v := NewObject(m)
	c.SetOwnAttribute(name, v)
	v.Release()
}

// AddMethodAlias stores the attribute name under alias as well.
func (c *Class) AddMethodAlias(alias, name string) {
	if v, ok := c.attributes[name]; ok {
		c.SetOwnAttribute(alias, v)
	}
}

// HasMethod reports whether name resolves to a function on the chain.
func (c *Class) HasMethod(name string) bool {
	v, ok := c.LookupAttribute(name)
	if !ok {
		return false
	}
	_, isFn := v.AsFunction()
	return isFn
}

// ---------------------------------------------------------------------------
// ClassTable: builtin class registry
// ---------------------------------------------------------------------------

// ClassTable manages registered classes by name and keeps them alive.
// It's safe for concurrent lookups.
type ClassTable struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewClassTable creates a new empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{
		classes: make(map[string]*Class),
	}
}

// Register adds a class to the table and retains it.
// Returns the previous class with this name, or nil. The previous class
// loses the table's reference.
func (ct *ClassTable) Register(c *Class) *Class {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	old := ct.classes[c.name]
	c.Retain()
	ct.classes[c.name] = c
	if old != nil {
		old.Release()
	}
	return old
}

// Lookup finds a class by name.
func (ct *ClassTable) Lookup(name string) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.classes[name]
}

// Has returns true if a class with this name is registered.
func (ct *ClassTable) Has(name string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	_, ok := ct.classes[name]
	return ok
}

// All returns all registered classes sorted by name.
func (ct *ClassTable) All() []*Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make([]*Class, 0, len(ct.classes))
	for _, c := range ct.classes {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].name < result[j].name })
	return result
}

// Len returns the number of registered classes.
func (ct *ClassTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.classes)
}

// mark marks every registered class.
func (ct *ClassTable) mark() {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	for _, c := range ct.classes {
		if !c.Marked() {
			c.Mark()
		}
	}
}

// clear releases every registered class.
func (ct *ClassTable) clear() {
	ct.mu.Lock()
	classes := ct.classes
	ct.classes = make(map[string]*Class)
	ct.mu.Unlock()
	for _, c := range classes {
		c.Release()
	}
}
