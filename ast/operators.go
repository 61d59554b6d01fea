package ast

import (
	"fmt"

	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// CallNode calls the value of Callee with Args through __call__.
type CallNode struct {
	base
	Callee Node
	Args   []Node
}

// NewCall creates a call.
func NewCall(callee Node, args ...Node) *CallNode {
	return &CallNode{Callee: callee, Args: args}
}

func (n *CallNode) Execute(interp *vm.Interpreter) vm.Result {
	callee := interp.Evaluate(n.Callee)
	if callee.IsError() {
		return vm.ErrorResult()
	}
	defer callee.Release()
	args, ok := evaluateAll(interp, n.Args)
	if !ok {
		return vm.ErrorResult()
	}
	defer releaseAll(args)
	return vm.ValueResult(callee.Call(interp, "__call__", args...))
}

// CallMethodNode calls the method Name of Receiver. Method calls and all
// operators are lowered to it.
type CallMethodNode struct {
	base
	Receiver Node
	Name     string
	Args     []Node
}

// NewCallMethod creates a method call.
func NewCallMethod(receiver Node, name string, args ...Node) *CallMethodNode {
	return &CallMethodNode{Receiver: receiver, Name: name, Args: args}
}

func (n *CallMethodNode) Execute(interp *vm.Interpreter) vm.Result {
	receiver := interp.Evaluate(n.Receiver)
	if receiver.IsError() {
		return vm.ErrorResult()
	}
	defer receiver.Release()
	args, ok := evaluateAll(interp, n.Args)
	if !ok {
		return vm.ErrorResult()
	}
	defer releaseAll(args)
	return vm.ValueResult(receiver.Call(interp, n.Name, args...))
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

var binaryMethods = map[string]string{
	"+":  "__add__",
	"-":  "__sub__",
	"*":  "__mul__",
	"/":  "__div__",
	"%":  "__mod__",
	"**": "__pow__",
	"&":  "__and__",
	"|":  "__or__",
	"^":  "__xor__",
	"<<": "__lsh__",
	">>": "__rsh__",
	"==": "__eq__",
	"<":  "__lt__",
	"<=": "__le__",
	">":  "__gt__",
	">=": "__ge__",
}

var unaryMethods = map[string]string{
	"-": "__neg__",
	"+": "__pos__",
	"~": "__invert__",
}

// NewBinaryOperator lowers "left op right" to a method call on left.
// "!=" negates __eq__; "&&" and "||" short-circuit.
func NewBinaryOperator(op string, left, right Node) (Node, error) {
	switch op {
	case "&&":
		return NewAnd(left, right), nil
	case "||":
		return NewOr(left, right), nil
	case "!=":
		return NewNot(NewCallMethod(left, "__eq__", right)), nil
	}
	method, ok := binaryMethods[op]
	if !ok {
		return nil, fmt.Errorf("ast: unknown binary operator %q", op)
	}
	return NewCallMethod(left, method, right), nil
}

// NewUnaryOperator lowers "op operand". "!" is logical negation.
func NewUnaryOperator(op string, operand Node) (Node, error) {
	if op == "!" {
		return NewNot(operand), nil
	}
	method, ok := unaryMethods[op]
	if !ok {
		return nil, fmt.Errorf("ast: unknown unary operator %q", op)
	}
	return NewCallMethod(operand, method), nil
}

// ---------------------------------------------------------------------------
// Logic
// ---------------------------------------------------------------------------

// evaluateBool evaluates n and converts the value with ToBool.
func evaluateBool(interp *vm.Interpreter, n Node) (bool, bool) {
	v := interp.Evaluate(n)
	if v.IsError() {
		return false, false
	}
	defer v.Release()
	return v.ToBool(interp)
}

// AndNode is "left && right". Right is not evaluated when left is false.
type AndNode struct {
	base
	Left  Node
	Right Node
}

// NewAnd creates a logical and.
func NewAnd(left, right Node) *AndNode { return &AndNode{Left: left, Right: right} }

func (n *AndNode) Execute(interp *vm.Interpreter) vm.Result {
	b, ok := evaluateBool(interp, n.Left)
	if !ok {
		return vm.ErrorResult()
	}
	if !b {
		return vm.SuccessResult(vm.NewBool(false))
	}
	if b, ok = evaluateBool(interp, n.Right); !ok {
		return vm.ErrorResult()
	}
	return vm.SuccessResult(vm.NewBool(b))
}

// OrNode is "left || right". Right is not evaluated when left is true.
type OrNode struct {
	base
	Left  Node
	Right Node
}

// NewOr creates a logical or.
func NewOr(left, right Node) *OrNode { return &OrNode{Left: left, Right: right} }

func (n *OrNode) Execute(interp *vm.Interpreter) vm.Result {
	b, ok := evaluateBool(interp, n.Left)
	if !ok {
		return vm.ErrorResult()
	}
	if b {
		return vm.SuccessResult(vm.NewBool(true))
	}
	if b, ok = evaluateBool(interp, n.Right); !ok {
		return vm.ErrorResult()
	}
	return vm.SuccessResult(vm.NewBool(b))
}

// NotNode is "!operand".
type NotNode struct {
	base
	Operand Node
}

// NewNot creates a logical negation.
func NewNot(operand Node) *NotNode { return &NotNode{Operand: operand} }

func (n *NotNode) Execute(interp *vm.Interpreter) vm.Result {
	b, ok := evaluateBool(interp, n.Operand)
	if !ok {
		return vm.ErrorResult()
	}
	return vm.SuccessResult(vm.NewBool(!b))
}

// TernaryNode is "cond ? then : otherwise".
type TernaryNode struct {
	base
	Cond      Node
	Then      Node
	Otherwise Node
}

// NewTernary creates a conditional expression.
func NewTernary(cond, then, otherwise Node) *TernaryNode {
	return &TernaryNode{Cond: cond, Then: then, Otherwise: otherwise}
}

func (n *TernaryNode) Execute(interp *vm.Interpreter) vm.Result {
	b, ok := evaluateBool(interp, n.Cond)
	if !ok {
		return vm.ErrorResult()
	}
	if b {
		return vm.ValueResult(interp.Evaluate(n.Then))
	}
	return vm.ValueResult(interp.Evaluate(n.Otherwise))
}
