package vm

import "fmt"

// Function is a callable object. Invoke receives the receiver as args[0]
// unless the function is static.
//
// The args slice and its Values are borrowed; the returned Value is owned
// by the caller. A function signals an exception by throwing on the
// interpreter and returning ErrorValue.
type Function interface {
	Object
	Name() string
	IsStatic() bool
	Invoke(interp *Interpreter, args []Value) Value
}

// NativeFunc is a Go function implementing a builtin method. For instance
// methods args[0] is the receiver, already checked against the class.
type NativeFunc func(interp *Interpreter, args []Value) Value

// AsFunction returns the function behind v.
func (v Value) AsFunction() (Function, bool) {
	fn, ok := v.AsObject().(Function)
	return fn, ok
}

// IsFunction reports whether v is callable as a function.
func (v Value) IsFunction() bool {
	_, ok := v.AsFunction()
	return ok
}

// checkArity validates an argument count against an arity. A non-negative
// arity is exact, -(k+1) means at least k.
func checkArity(interp *Interpreter, name string, arity, given int) bool {
	if arity >= 0 {
		if given != arity {
			interp.Throw(interp.TypeErrorClass,
				fmt.Sprintf("Method '%s' expected %d arguments, got %d", name, arity, given))
			return false
		}
		return true
	}
	if least := -arity - 1; given < least {
		interp.Throw(interp.TypeErrorClass,
			fmt.Sprintf("Method '%s' expected at least %d arguments, got %d", name, least, given))
		return false
	}
	return true
}

// checkReceiver validates that args carries a receiver of class owner.
func checkReceiver(interp *Interpreter, name string, owner *Class, args []Value) bool {
	if len(args) == 0 || args[0].IsError() {
		interp.Throw(interp.TypeErrorClass,
			fmt.Sprintf("Method '%s' requires a '%s' object but received nothing", name, owner.Name()))
		return false
	}
	if owner != nil && !args[0].IsInstance(interp, owner) {
		interp.Throw(interp.TypeErrorClass,
			fmt.Sprintf("Method '%s' requires a '%s' object but received a '%s'",
				name, owner.Name(), args[0].GetClass(interp).Name()))
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// NativeMethod
// ---------------------------------------------------------------------------

// NativeMethod wraps a NativeFunc.
type NativeMethod struct {
	BaseObject
	name   string
	owner  *Class
	arity  int
	static bool
	fn     NativeFunc
}

func newNativeMethod(interp *Interpreter, owner *Class, name string, arity int, static bool, fn NativeFunc) *NativeMethod {
	m := &NativeMethod{name: name, owner: owner, arity: arity, static: static, fn: fn}
	m.initObject(interp, interp.FunctionClass, m)
	return m
}

func (m *NativeMethod) Name() string   { return m.name }
func (m *NativeMethod) IsStatic() bool { return m.static }
func (m *NativeMethod) Arity() int     { return m.arity }
func (m *NativeMethod) Owner() *Class  { return m.owner }

// Invoke checks the receiver and the argument count and calls the Go
// function in a fresh frame.
func (m *NativeMethod) Invoke(interp *Interpreter, args []Value) Value {
	receiver := NullValue()
	rest := args
	if !m.static {
		if !checkReceiver(interp, m.name, m.owner, args) {
			return ErrorValue()
		}
		receiver = args[0]
		rest = args[1:]
	}
	if !checkArity(interp, m.name, m.arity, len(rest)) {
		return ErrorValue()
	}
	if interp.PushFrame(m, receiver, rest) == nil {
		return ErrorValue()
	}
	defer interp.PopFrame()
	return m.fn(interp, args)
}

// Mark marks the method and its declaring class.
func (m *NativeMethod) Mark() {
	m.BaseObject.Mark()
	if m.owner != nil && !m.owner.Marked() {
		m.owner.Mark()
	}
}

// ---------------------------------------------------------------------------
// ScriptedFunction
// ---------------------------------------------------------------------------

// Parameter describes one formal parameter of a scripted function.
type Parameter struct {
	Name string
	// Default is evaluated in the callee's scope when the argument is
	// missing. A nil Default makes the parameter required.
	Default Node
	// Rest collects the remaining arguments into a List.
	Rest bool
}

type functionMode uint8

const (
	modeClosure functionMode = iota
	modeMethod
	modeStatic
)

// ScriptedFunction is a function defined in script. It captures the scope
// and the frame it was created in.
type ScriptedFunction struct {
	BaseObject
	name      string
	params    []Parameter
	body      Node
	scope     *Scope
	enclosing *Frame
	owner     *Class
	mode      functionMode
}

func newScriptedFunction(interp *Interpreter, name string, params []Parameter, body Node, owner *Class, mode functionMode) *ScriptedFunction {
	f := &ScriptedFunction{
		name:   name,
		params: params,
		body:   body,
		owner:  owner,
		mode:   mode,
	}
	f.initObject(interp, interp.FunctionClass, f)
	if interp.scope != nil {
		f.scope = interp.scope
		f.scope.Retain()
	}
	if interp.frame != nil {
		f.enclosing = interp.frame
		f.enclosing.Retain()
	}
	return f
}

// NewFunction creates a closure over the current scope.
func (interp *Interpreter) NewFunction(name string, params []Parameter, body Node) Value {
	return NewObject(newScriptedFunction(interp, name, params, body, nil, modeClosure))
}

// NewMethod creates a scripted instance method of owner. The receiver is
// available to the body through the frame.
func (interp *Interpreter) NewMethod(owner *Class, name string, params []Parameter, body Node) Value {
	return NewObject(newScriptedFunction(interp, name, params, body, owner, modeMethod))
}

// NewStaticMethod creates a scripted static method of owner.
func (interp *Interpreter) NewStaticMethod(owner *Class, name string, params []Parameter, body Node) Value {
	return NewObject(newScriptedFunction(interp, name, params, body, owner, modeStatic))
}

func (f *ScriptedFunction) Name() string {
	if f.name == "" {
		return "<anonymous>"
	}
	return f.name
}

func (f *ScriptedFunction) IsStatic() bool         { return f.mode == modeStatic }
func (f *ScriptedFunction) Parameters() []Parameter { return f.params }

// Invoke binds the arguments in a new frame and executes the body.
func (f *ScriptedFunction) Invoke(interp *Interpreter, args []Value) Value {
	receiver := NullValue()
	if f.mode == modeMethod {
		if !checkReceiver(interp, f.Name(), f.owner, args) {
			return ErrorValue()
		}
		receiver = args[0]
		args = args[1:]
	}

	frame := interp.PushFrame(f, receiver, args)
	if frame == nil {
		return ErrorValue()
	}
	defer interp.PopFrame()

	if !f.bind(interp, frame, args) {
		return ErrorValue()
	}

	result := f.body.Execute(interp)
	switch result.Kind {
	case ResultSuccess:
		result.Value.Release()
		return NullValue()
	case ResultReturn:
		if result.Value.IsError() {
			return NullValue()
		}
		return result.Value
	case ResultBreak:
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `break'")
	case ResultContinue:
		interp.Throw(interp.SyntaxErrorClass, "Unexpected `continue'")
	}
	return ErrorValue()
}

func (f *ScriptedFunction) bind(interp *Interpreter, frame *Frame, args []Value) bool {
	scope := frame.Scope()
	for i, p := range f.params {
		if p.Rest {
			var rest []Value
			if i < len(args) {
				rest = args[i:]
			}
			list := interp.NewList(rest...)
			scope.SetVariable(p.Name, list)
			list.Release()
			return true
		}
		if i < len(args) {
			scope.SetVariable(p.Name, args[i])
			continue
		}
		if p.Default == nil {
			interp.Throw(interp.TypeErrorClass,
				fmt.Sprintf("Function '%s' missing argument '%s'", f.Name(), p.Name))
			return false
		}
		v := interp.Evaluate(p.Default)
		if v.IsError() {
			return false
		}
		scope.SetVariable(p.Name, v)
		v.Release()
	}
	if len(args) > len(f.params) {
		interp.Throw(interp.TypeErrorClass,
			fmt.Sprintf("Function '%s' expected at most %d arguments, got %d", f.Name(), len(f.params), len(args)))
		return false
	}
	return true
}

// Mark marks the function, its declaring class and its captured state.
func (f *ScriptedFunction) Mark() {
	f.BaseObject.Mark()
	if f.owner != nil {
		markCounted(f.owner)
	}
	if f.scope != nil {
		markCounted(f.scope)
	}
	if f.enclosing != nil {
		markCounted(f.enclosing)
	}
}

// Dispose releases the captured scope and frame.
func (f *ScriptedFunction) Dispose() {
	f.BaseObject.Dispose()
	if f.scope != nil {
		s := f.scope
		f.scope = nil
		s.Release()
	}
	if f.enclosing != nil {
		fr := f.enclosing
		f.enclosing = nil
		fr.Release()
	}
}

// ---------------------------------------------------------------------------
// CurriedFunction
// ---------------------------------------------------------------------------

// CurriedFunction is a function with leading arguments already bound.
type CurriedFunction struct {
	BaseObject
	base  Value
	bound []Value
}

// NewCurriedFunction binds args in front of the arguments fn is later
// called with.
func (interp *Interpreter) NewCurriedFunction(fn Value, args ...Value) Value {
	c := &CurriedFunction{base: fn.Copy(), bound: make([]Value, len(args))}
	for i, a := range args {
		c.bound[i] = a.Copy()
	}
	c.initObject(interp, interp.FunctionClass, c)
	return NewObject(c)
}

func (c *CurriedFunction) Name() string {
	if fn, ok := c.base.AsFunction(); ok {
		return fn.Name()
	}
	return "<curried>"
}

func (c *CurriedFunction) IsStatic() bool { return false }

// Invoke calls the underlying function with the bound arguments first.
func (c *CurriedFunction) Invoke(interp *Interpreter, args []Value) Value {
	full := make([]Value, 0, len(c.bound)+len(args))
	full = append(full, c.bound...)
	full = append(full, args...)
	if fn, ok := c.base.AsFunction(); ok {
		return fn.Invoke(interp, full)
	}
	return c.base.Call(interp, "__call__", full...)
}

// Mark marks the function and the bound values.
func (c *CurriedFunction) Mark() {
	c.BaseObject.Mark()
	c.base.Mark()
	for _, v := range c.bound {
		v.Mark()
	}
}

// Dispose releases the function and the bound values.
func (c *CurriedFunction) Dispose() {
	c.BaseObject.Dispose()
	c.base.Release()
	for i := range c.bound {
		c.bound[i].Release()
	}
	c.bound = nil
}
