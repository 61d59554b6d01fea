package ast

import (
	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// ValueNode is a constant. Only primitive values are stored in nodes, so
// a tree never keeps heap objects alive.
type ValueNode struct {
	base
	Value vm.Value
}

func (n *ValueNode) Execute(interp *vm.Interpreter) vm.Result {
	return vm.SuccessResult(n.Value.Copy())
}

// Null is the null literal.
func Null() *ValueNode { return &ValueNode{Value: vm.NullValue()} }

// Bool is a boolean literal.
func Bool(b bool) *ValueNode { return &ValueNode{Value: vm.NewBool(b)} }

// Int is an integer literal.
func Int(n int64) *ValueNode { return &ValueNode{Value: vm.NewInt(n)} }

// Float is a floating point literal.
func Float(f float64) *ValueNode { return &ValueNode{Value: vm.NewFloat(f)} }

// Str is a string literal.
func Str(s string) *ValueNode { return &ValueNode{Value: vm.NewString(s)} }

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

// ListNode builds a List. As an assignment target it destructures: the
// assigned iterable is consumed element by element into Items. Surplus
// elements are ignored and missing ones leave their targets untouched.
type ListNode struct {
	base
	Items []Node
}

// NewList creates a list literal.
func NewList(items ...Node) *ListNode {
	return &ListNode{Items: items}
}

func (n *ListNode) Execute(interp *vm.Interpreter) vm.Result {
	values, ok := evaluateAll(interp, n.Items)
	if !ok {
		return vm.ErrorResult()
	}
	defer releaseAll(values)
	return vm.SuccessResult(interp.NewList(values...))
}

// IsVariable reports whether every item is assignable.
func (n *ListNode) IsVariable() bool {
	for _, item := range n.Items {
		if !item.IsVariable() {
			return false
		}
	}
	return true
}

func (n *ListNode) Assign(interp *vm.Interpreter, value vm.Value) bool {
	return n.destructure(interp, value, false)
}

func (n *ListNode) AssignLocal(interp *vm.Interpreter, value vm.Value) bool {
	return n.destructure(interp, value, true)
}

func (n *ListNode) destructure(interp *vm.Interpreter, value vm.Value, local bool) bool {
	iter := value.Call(interp, "__iter__")
	if iter.IsError() {
		return false
	}
	defer iter.Release()
	for _, item := range n.Items {
		v, ok := interp.IteratorNext(iter)
		if !ok {
			return !interp.HasException()
		}
		ok = assignTarget(interp, item, v, local)
		v.Release()
		if !ok {
			return false
		}
	}
	return true
}

// MapNode builds a Map from key and value expressions evaluated in
// source order.
type MapNode struct {
	base
	Keys   []Node
	Values []Node
}

// NewMap creates a map literal. keys and values must have the same
// length.
func NewMap(keys, values []Node) *MapNode {
	return &MapNode{Keys: keys, Values: values}
}

func (n *MapNode) Execute(interp *vm.Interpreter) vm.Result {
	result := interp.NewMap()
	for i := range n.Keys {
		k := interp.Evaluate(n.Keys[i])
		if k.IsError() {
			result.Release()
			return vm.ErrorResult()
		}
		v := interp.Evaluate(n.Values[i])
		if v.IsError() {
			k.Release()
			result.Release()
			return vm.ErrorResult()
		}
		set := result.Call(interp, "__setitem__", k, v)
		k.Release()
		v.Release()
		if set.IsError() {
			result.Release()
			return vm.ErrorResult()
		}
		set.Release()
	}
	return vm.SuccessResult(result)
}

// RangeNode builds a Range, "a..b" or "a...b" when exclusive.
type RangeNode struct {
	base
	Begin     Node
	End       Node
	Exclusive bool
}

// NewRange creates a range literal.
func NewRange(begin, end Node, exclusive bool) *RangeNode {
	return &RangeNode{Begin: begin, End: end, Exclusive: exclusive}
}

func (n *RangeNode) Execute(interp *vm.Interpreter) vm.Result {
	begin := interp.Evaluate(n.Begin)
	if begin.IsError() {
		return vm.ErrorResult()
	}
	defer begin.Release()
	end := interp.Evaluate(n.End)
	if end.IsError() {
		return vm.ErrorResult()
	}
	defer end.Release()
	return vm.SuccessResult(interp.NewRange(begin, end, n.Exclusive))
}

// ---------------------------------------------------------------------------
// Functions and classes
// ---------------------------------------------------------------------------

// FunctionNode creates a closure over the current scope. A named function
// is also bound in the innermost scope.
type FunctionNode struct {
	base
	Name   string
	Params []vm.Parameter
	Body   Node
}

// NewFunction creates a function literal.
func NewFunction(name string, params []vm.Parameter, body Node) *FunctionNode {
	return &FunctionNode{Name: name, Params: params, Body: body}
}

// Param is a required parameter.
func Param(name string) vm.Parameter { return vm.Parameter{Name: name} }

// DefaultParam is a parameter with a default expression.
func DefaultParam(name string, def Node) vm.Parameter {
	return vm.Parameter{Name: name, Default: def}
}

// RestParam collects the remaining arguments.
func RestParam(name string) vm.Parameter { return vm.Parameter{Name: name, Rest: true} }

func (n *FunctionNode) Execute(interp *vm.Interpreter) vm.Result {
	fn := interp.NewFunction(n.Name, n.Params, n.Body)
	if n.Name != "" {
		interp.SetLocalVariable(n.Name, fn)
	}
	return vm.SuccessResult(fn)
}

// ClassNode defines a class. Methods receive the instance as `this';
// static methods are called on the class. Attributes are evaluated once,
// when the class is defined, and stored on the class.
type ClassNode struct {
	base
	Name          string
	Parent        Node
	Methods       []*FunctionNode
	StaticMethods []*FunctionNode
	Attributes    map[string]Node
}

// NewClass creates a class definition. A nil parent means Object.
func NewClass(name string, parent Node, methods ...*FunctionNode) *ClassNode {
	return &ClassNode{Name: name, Parent: parent, Methods: methods}
}

func (n *ClassNode) Execute(interp *vm.Interpreter) vm.Result {
	parent := interp.ObjectClass
	if n.Parent != nil {
		pv := interp.Evaluate(n.Parent)
		if pv.IsError() {
			return vm.ErrorResult()
		}
		cls, ok := interp.ToClass(pv)
		pv.Release()
		if !ok {
			return vm.ErrorResult()
		}
		parent = cls
	}

	cls := vm.NewClass(interp, n.Name, parent)
	result := vm.NewObject(cls)

	// Bind first so methods can refer to the class by name.
	interp.SetLocalVariable(n.Name, result)

	for _, m := range n.Methods {
		fn := interp.NewMethod(cls, m.Name, m.Params, m.Body)
		cls.SetOwnAttribute(m.Name, fn)
		fn.Release()
	}
	for _, m := range n.StaticMethods {
		fn := interp.NewStaticMethod(cls, m.Name, m.Params, m.Body)
		cls.SetOwnAttribute(m.Name, fn)
		fn.Release()
	}
	for _, name := range sortedKeys(n.Attributes) {
		v := interp.Evaluate(n.Attributes[name])
		if v.IsError() {
			result.Release()
			return vm.ErrorResult()
		}
		cls.SetOwnAttribute(name, v)
		v.Release()
	}
	return vm.SuccessResult(result)
}
