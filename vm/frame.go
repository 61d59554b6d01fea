package vm

import "time"

// Frame is the activation record of one call. The template itself runs in
// a frame without a function.
type Frame struct {
	CoreObject
	previous  *Frame
	enclosing *Frame
	function  Value
	name      string
	receiver  Value
	args      []Value
	scope     *Scope
	saved     *Scope
	depth     int
	hasThis   bool
	started   time.Time
}

func newFrame(interp *Interpreter, previous, enclosing *Frame, fn Function, receiver Value, args []Value) *Frame {
	f := &Frame{
		previous:  previous,
		enclosing: enclosing,
		function:  NullValue(),
		name:      "<template>",
		receiver:  NullValue(),
		saved:     interp.scope,
	}
	if fn != nil {
		f.function = NewObject(fn)
		f.name = fn.Name()
		f.hasThis = !fn.IsStatic()
		if sf, ok := fn.(*ScriptedFunction); ok && sf.mode != modeMethod {
			f.hasThis = false
		}
		f.receiver = receiver.Copy()
	}
	if len(args) > 0 {
		f.args = make([]Value, len(args))
		for i, a := range args {
			f.args[i] = a.Copy()
		}
	}
	if previous != nil {
		previous.Retain()
		f.depth = previous.depth + 1
	}
	if enclosing != nil {
		enclosing.Retain()
	}
	f.CoreObject.init(interp.heap, f)
	return f
}

// Previous returns the calling frame.
func (f *Frame) Previous() *Frame { return f.previous }

// Enclosing returns the frame the running closure was created in.
func (f *Frame) Enclosing() *Frame { return f.enclosing }

// Function returns the running function, or nil for the template frame.
func (f *Frame) Function() Function {
	fn, _ := f.function.AsFunction()
	return fn
}

// Name returns the name of the running function.
func (f *Frame) Name() string { return f.name }

// Depth returns the number of frames below this one.
func (f *Frame) Depth() int { return f.depth }

// Arguments returns the arguments, receiver excluded. The Values are
// borrowed.
func (f *Frame) Arguments() []Value { return f.args }

// Receiver returns the object the running method was invoked on. Closures
// see the receiver of the frame they were created in. The Value is
// borrowed.
func (f *Frame) Receiver() Value {
	for current := f; current != nil; current = current.enclosing {
		if current.hasThis {
			return current.receiver
		}
	}
	return NullValue()
}

// Scope returns the frame's local scope. Native frames have none.
func (f *Frame) Scope() *Scope {
	return f.scope
}

// GetLocalVariables returns an object whose attributes are the frame's
// own variables. Names that are empty or begin with an underscore are
// left out.
func (f *Frame) GetLocalVariables(interp *Interpreter) Value {
	obj := NewCustomObject(interp, interp.ObjectClass)
	result := NewObject(obj)
	if f.scope == nil {
		return result
	}
	for _, name := range f.scope.Names() {
		if name == "" || name[0] == '_' {
			continue
		}
		v, _ := f.scope.GetVariable(name)
		obj.SetOwnAttribute(name, v)
	}
	return result
}

// Traceback returns the names of this frame and its callers, innermost
// first.
func (f *Frame) Traceback() []string {
	var names []string
	for current := f; current != nil; current = current.previous {
		names = append(names, current.name)
	}
	return names
}

// Mark marks the frame and everything it references.
func (f *Frame) Mark() {
	f.CoreObject.Mark()
	if f.previous != nil {
		markCounted(f.previous)
	}
	if f.enclosing != nil {
		markCounted(f.enclosing)
	}
	if f.scope != nil {
		markCounted(f.scope)
	}
	if f.saved != nil {
		markCounted(f.saved)
	}
	f.function.Mark()
	f.receiver.Mark()
	for _, v := range f.args {
		v.Mark()
	}
}

// Dispose releases everything the frame holds.
func (f *Frame) Dispose() {
	f.function.Release()
	f.receiver.Release()
	for i := range f.args {
		f.args[i].Release()
	}
	f.args = nil
	f.saved = nil
	if f.scope != nil {
		s := f.scope
		f.scope = nil
		s.Release()
	}
	if f.previous != nil {
		p := f.previous
		f.previous = nil
		p.Release()
	}
	if f.enclosing != nil {
		e := f.enclosing
		f.enclosing = nil
		e.Release()
	}
}
