package ast

import (
	"fmt"
	"sort"

	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Assignable nodes
// ---------------------------------------------------------------------------

// IdentifierNode reads or assigns a variable through the scope chain.
type IdentifierNode struct {
	base
	Name string
}

// NewIdentifier creates a variable reference.
func NewIdentifier(name string) *IdentifierNode {
	return &IdentifierNode{Name: name}
}

func (n *IdentifierNode) Execute(interp *vm.Interpreter) vm.Result {
	v, ok := interp.GetVariable(n.Name)
	if !ok {
		interp.Throw(interp.NameErrorClass, "Name '"+n.Name+"' is not defined")
		return vm.ErrorResult()
	}
	return vm.SuccessResult(v.Copy())
}

func (n *IdentifierNode) IsVariable() bool { return true }

// Assign overwrites the nearest binding of the name, or creates one in the
// innermost scope.
func (n *IdentifierNode) Assign(interp *vm.Interpreter, value vm.Value) bool {
	interp.SetVariable(n.Name, value)
	return true
}

// AssignLocal binds the name in the innermost scope.
func (n *IdentifierNode) AssignLocal(interp *vm.Interpreter, value vm.Value) bool {
	interp.SetLocalVariable(n.Name, value)
	return true
}

// ThisNode is the receiver of the running method. Outside methods it is
// null.
type ThisNode struct {
	base
}

// NewThis creates a receiver reference.
func NewThis() *ThisNode { return &ThisNode{} }

func (n *ThisNode) Execute(interp *vm.Interpreter) vm.Result {
	frame := interp.CurrentFrame()
	if frame == nil {
		return vm.SuccessResult(vm.NullValue())
	}
	return vm.SuccessResult(frame.Receiver().Copy())
}

// AttributeNode is "object.name".
type AttributeNode struct {
	base
	Object Node
	Name   string
}

// NewAttribute creates an attribute access.
func NewAttribute(object Node, name string) *AttributeNode {
	return &AttributeNode{Object: object, Name: name}
}

func (n *AttributeNode) Execute(interp *vm.Interpreter) vm.Result {
	obj := interp.Evaluate(n.Object)
	if obj.IsError() {
		return vm.ErrorResult()
	}
	defer obj.Release()
	return vm.ValueResult(obj.GetAttribute(interp, n.Name))
}

func (n *AttributeNode) IsVariable() bool { return true }

func (n *AttributeNode) Assign(interp *vm.Interpreter, value vm.Value) bool {
	obj := interp.Evaluate(n.Object)
	if obj.IsError() {
		return false
	}
	defer obj.Release()
	return obj.SetAttribute(interp, n.Name, value)
}

// SubscriptNode is "object[index]", dispatched to __getitem__ and
// __setitem__.
type SubscriptNode struct {
	base
	Object Node
	Index  Node
}

// NewSubscript creates an index access.
func NewSubscript(object, index Node) *SubscriptNode {
	return &SubscriptNode{Object: object, Index: index}
}

func (n *SubscriptNode) operands(interp *vm.Interpreter) (obj, index vm.Value, ok bool) {
	obj = interp.Evaluate(n.Object)
	if obj.IsError() {
		return obj, index, false
	}
	index = interp.Evaluate(n.Index)
	if index.IsError() {
		obj.Release()
		return obj, index, false
	}
	return obj, index, true
}

func (n *SubscriptNode) Execute(interp *vm.Interpreter) vm.Result {
	obj, index, ok := n.operands(interp)
	if !ok {
		return vm.ErrorResult()
	}
	defer obj.Release()
	defer index.Release()
	return vm.ValueResult(obj.Call(interp, "__getitem__", index))
}

func (n *SubscriptNode) IsVariable() bool { return true }

func (n *SubscriptNode) Assign(interp *vm.Interpreter, value vm.Value) bool {
	obj, index, ok := n.operands(interp)
	if !ok {
		return false
	}
	defer obj.Release()
	defer index.Release()
	result := obj.Call(interp, "__setitem__", index, value)
	if result.IsError() {
		return false
	}
	result.Release()
	return true
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

// AssignNode is "target = value". Its value is the assigned value.
type AssignNode struct {
	base
	Target Node
	Value  Node
}

// NewAssign creates an assignment.
func NewAssign(target, value Node) *AssignNode {
	return &AssignNode{Target: target, Value: value}
}

func (n *AssignNode) Execute(interp *vm.Interpreter) vm.Result {
	v := interp.Evaluate(n.Value)
	if v.IsError() {
		return vm.ErrorResult()
	}
	if !n.Target.Assign(interp, v) {
		v.Release()
		return vm.ErrorResult()
	}
	return vm.SuccessResult(v)
}

// compoundMethods maps compound assignment operators to methods.
var compoundMethods = map[string]string{
	"+=":  "__add__",
	"-=":  "__sub__",
	"*=":  "__mul__",
	"/=":  "__div__",
	"%=":  "__mod__",
	"**=": "__pow__",
	"&=":  "__and__",
	"|=":  "__or__",
	"^=":  "__xor__",
	"<<=": "__lsh__",
	">>=": "__rsh__",
}

// CompoundAssignNode is "target op= value": the current value of target
// is combined with value by Method and assigned back.
type CompoundAssignNode struct {
	base
	Target Node
	Method string
	Value  Node
}

// NewCompoundAssign creates a compound assignment for an operator such
// as "+=".
func NewCompoundAssign(op string, target, value Node) (*CompoundAssignNode, error) {
	method, ok := compoundMethods[op]
	if !ok {
		return nil, fmt.Errorf("ast: unknown compound assignment operator %q", op)
	}
	return &CompoundAssignNode{Target: target, Method: method, Value: value}, nil
}

func (n *CompoundAssignNode) Execute(interp *vm.Interpreter) vm.Result {
	current := interp.Evaluate(n.Target)
	if current.IsError() {
		return vm.ErrorResult()
	}
	defer current.Release()
	operand := interp.Evaluate(n.Value)
	if operand.IsError() {
		return vm.ErrorResult()
	}
	defer operand.Release()

	v := current.Call(interp, n.Method, operand)
	if v.IsError() {
		return vm.ErrorResult()
	}
	if !n.Target.Assign(interp, v) {
		v.Release()
		return vm.ErrorResult()
	}
	return vm.SuccessResult(v)
}

// ---------------------------------------------------------------------------
// Increment and decrement
// ---------------------------------------------------------------------------

// PrefixNode is "++x" or "--x": the variable is updated through __inc__
// or __dec__ and the new value is the result.
type PrefixNode struct {
	base
	Target Node
	Method string
}

// PostfixNode is "x++" or "x--": like PrefixNode, but the result is the
// value before the update.
type PostfixNode struct {
	base
	Target Node
	Method string
}

// NewIncrement creates "++x", or "x++" when postfix is set.
func NewIncrement(target Node, postfix bool) Node {
	if postfix {
		return &PostfixNode{Target: target, Method: "__inc__"}
	}
	return &PrefixNode{Target: target, Method: "__inc__"}
}

// NewDecrement creates "--x", or "x--" when postfix is set.
func NewDecrement(target Node, postfix bool) Node {
	if postfix {
		return &PostfixNode{Target: target, Method: "__dec__"}
	}
	return &PrefixNode{Target: target, Method: "__dec__"}
}

// step reads target, applies method and assigns the result back.
func step(interp *vm.Interpreter, target Node, method string) (before, after vm.Value, ok bool) {
	before = interp.Evaluate(target)
	if before.IsError() {
		return before, after, false
	}
	after = before.Call(interp, method)
	if after.IsError() {
		before.Release()
		return before, after, false
	}
	if !target.Assign(interp, after) {
		before.Release()
		after.Release()
		return before, after, false
	}
	return before, after, true
}

func (n *PrefixNode) Execute(interp *vm.Interpreter) vm.Result {
	before, after, ok := step(interp, n.Target, n.Method)
	if !ok {
		return vm.ErrorResult()
	}
	before.Release()
	return vm.SuccessResult(after)
}

func (n *PostfixNode) Execute(interp *vm.Interpreter) vm.Result {
	before, after, ok := step(interp, n.Target, n.Method)
	if !ok {
		return vm.ErrorResult()
	}
	after.Release()
	return vm.SuccessResult(before)
}

func sortedKeys(m map[string]Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
