package ast

import (
	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Conditionals and loops
// ---------------------------------------------------------------------------

// IfNode runs Then when Cond is true, else Else if present.
type IfNode struct {
	base
	Cond Node
	Then Node
	Else Node
}

// NewIf creates a conditional. otherwise may be nil.
func NewIf(cond, then, otherwise Node) *IfNode {
	return &IfNode{Cond: cond, Then: then, Else: otherwise}
}

func (n *IfNode) Execute(interp *vm.Interpreter) vm.Result {
	b, ok := evaluateBool(interp, n.Cond)
	if !ok {
		return vm.ErrorResult()
	}
	if b {
		return n.Then.Execute(interp)
	}
	if n.Else != nil {
		return n.Else.Execute(interp)
	}
	return vm.EmptyResult()
}

// WhileNode runs Body while Cond is true. A break ends the loop, a
// continue re-evaluates the condition, a return or an error leaves it.
type WhileNode struct {
	base
	Cond Node
	Body Node
}

// NewWhile creates a while loop.
func NewWhile(cond, body Node) *WhileNode {
	return &WhileNode{Cond: cond, Body: body}
}

func (n *WhileNode) Execute(interp *vm.Interpreter) vm.Result {
	for {
		b, ok := evaluateBool(interp, n.Cond)
		if !ok {
			return vm.ErrorResult()
		}
		if !b {
			return vm.EmptyResult()
		}
		result := n.Body.Execute(interp)
		switch result.Kind {
		case vm.ResultSuccess:
			result.Release()
		case vm.ResultBreak:
			return vm.EmptyResult()
		case vm.ResultContinue:
		default:
			return result
		}
	}
}

// ForNode assigns every element of Iterable to Target and runs Body. The
// loop has its own scope, where Target is bound. Else runs when the
// iterable yields nothing.
type ForNode struct {
	base
	Target   Node
	Iterable Node
	Body     Node
	Else     Node
}

// NewFor creates a for loop. otherwise may be nil.
func NewFor(target, iterable, body, otherwise Node) *ForNode {
	return &ForNode{Target: target, Iterable: iterable, Body: body, Else: otherwise}
}

func (n *ForNode) Execute(interp *vm.Interpreter) vm.Result {
	iterable := interp.Evaluate(n.Iterable)
	if iterable.IsError() {
		return vm.ErrorResult()
	}
	iter := iterable.Call(interp, "__iter__")
	iterable.Release()
	if iter.IsError() {
		return vm.ErrorResult()
	}
	defer iter.Release()

	interp.PushScope()
	defer interp.PopScope()

	count := 0
	for {
		item, ok := interp.IteratorNext(iter)
		if !ok {
			if interp.HasException() {
				return vm.ErrorResult()
			}
			break
		}
		count++
		ok = assignTarget(interp, n.Target, item, true)
		item.Release()
		if !ok {
			return vm.ErrorResult()
		}

		result := n.Body.Execute(interp)
		switch result.Kind {
		case vm.ResultSuccess:
			result.Release()
		case vm.ResultBreak:
			return vm.EmptyResult()
		case vm.ResultContinue:
		default:
			return result
		}
	}
	if count == 0 && n.Else != nil {
		return n.Else.Execute(interp)
	}
	return vm.EmptyResult()
}

// ---------------------------------------------------------------------------
// Jumps
// ---------------------------------------------------------------------------

// BreakNode leaves the innermost loop.
type BreakNode struct{ base }

// NewBreak creates a break statement.
func NewBreak() *BreakNode { return &BreakNode{} }

func (n *BreakNode) Execute(interp *vm.Interpreter) vm.Result { return vm.BreakResult() }

// ContinueNode starts the next iteration of the innermost loop.
type ContinueNode struct{ base }

// NewContinue creates a continue statement.
func NewContinue() *ContinueNode { return &ContinueNode{} }

func (n *ContinueNode) Execute(interp *vm.Interpreter) vm.Result { return vm.ContinueResult() }

// ReturnNode leaves the running function, with the value of Value if set.
type ReturnNode struct {
	base
	Value Node
}

// NewReturn creates a return statement. value may be nil.
func NewReturn(value Node) *ReturnNode { return &ReturnNode{Value: value} }

func (n *ReturnNode) Execute(interp *vm.Interpreter) vm.Result {
	if n.Value == nil {
		return vm.ReturnResult(vm.ErrorValue())
	}
	v := interp.Evaluate(n.Value)
	if v.IsError() {
		return vm.ErrorResult()
	}
	return vm.ReturnResult(v)
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

// ThrowNode raises the value of Value. A class is instantiated without
// arguments first.
type ThrowNode struct {
	base
	Value Node
}

// NewThrow creates a throw statement.
func NewThrow(value Node) *ThrowNode { return &ThrowNode{Value: value} }

func (n *ThrowNode) Execute(interp *vm.Interpreter) vm.Result {
	v := interp.Evaluate(n.Value)
	if v.IsError() {
		return vm.ErrorResult()
	}
	defer v.Release()
	if cls, ok := vm.ObjectAs[*vm.Class](v); ok {
		instance := interp.Instantiate(cls)
		if instance.IsError() {
			return vm.ErrorResult()
		}
		v.Release()
		v = instance
	}
	if !v.IsInstance(interp, interp.ExceptionClass) {
		interp.Throw(interp.TypeErrorClass,
			"Only exceptions can be thrown, not '"+v.GetClass(interp).Name()+"'")
		return vm.ErrorResult()
	}
	interp.SetException(v)
	return vm.ErrorResult()
}

// CatchNode handles exceptions that are instances of one of Classes, or
// any exception when Classes is empty. The exception is bound to Name in
// the handler's scope when Name is set.
type CatchNode struct {
	base
	Classes []Node
	Name    string
	Body    Node
}

// NewCatch creates a handler.
func NewCatch(name string, body Node, classes ...Node) *CatchNode {
	return &CatchNode{Classes: classes, Name: name, Body: body}
}

// matches reports whether ex is handled. The pending exception must be
// cleared by the caller, since class expressions are evaluated here.
func (c *CatchNode) matches(interp *vm.Interpreter, ex vm.Value) (bool, bool) {
	if len(c.Classes) == 0 {
		return true, true
	}
	for _, node := range c.Classes {
		v := interp.Evaluate(node)
		if v.IsError() {
			return false, false
		}
		cls, ok := interp.ToClass(v)
		v.Release()
		if !ok {
			return false, false
		}
		if ex.IsInstance(interp, cls) {
			return true, true
		}
	}
	return false, true
}

// handle runs the handler in its own scope with the exception bound.
func (c *CatchNode) handle(interp *vm.Interpreter, ex vm.Value) vm.Result {
	interp.PushScope()
	defer interp.PopScope()
	if c.Name != "" {
		interp.SetLocalVariable(c.Name, ex)
	}
	return c.Body.Execute(interp)
}

// TryNode runs Body; an exception is passed to the first matching handler.
// Finally always runs last. A finally that does not succeed replaces the
// outcome of the try.
type TryNode struct {
	base
	Body    Node
	Catches []*CatchNode
	Finally Node
}

// NewTry creates a try statement. finally may be nil.
func NewTry(body Node, catches []*CatchNode, finally Node) *TryNode {
	return &TryNode{Body: body, Catches: catches, Finally: finally}
}

func (n *TryNode) Execute(interp *vm.Interpreter) vm.Result {
	result := n.Body.Execute(interp)
	if result.Kind == vm.ResultError && len(n.Catches) > 0 {
		result = n.dispatch(interp)
	}
	if n.Finally == nil {
		return result
	}

	var pending vm.Value
	if result.Kind == vm.ResultError {
		pending = interp.Exception().Copy()
		interp.ClearException()
	}
	final := n.Finally.Execute(interp)
	if final.Kind != vm.ResultSuccess {
		pending.Release()
		result.Release()
		return final
	}
	final.Release()
	if !pending.IsError() {
		interp.SetException(pending)
		pending.Release()
	}
	return result
}

// dispatch finds the handler for the pending exception and runs it.
func (n *TryNode) dispatch(interp *vm.Interpreter) vm.Result {
	ex := interp.Exception().Copy()
	defer ex.Release()
	interp.ClearException()

	for _, c := range n.Catches {
		match, ok := c.matches(interp, ex)
		if !ok {
			return vm.ErrorResult()
		}
		if match {
			return c.handle(interp, ex)
		}
	}
	interp.SetException(ex)
	return vm.ErrorResult()
}
