// Package ast defines the executable syntax tree of quill templates.
//
// Nodes are built once by a parser and executed many times. Every node
// implements vm.Node: Execute returns a vm.Result whose kind tells the
// enclosing construct whether to continue, leave a loop, return from a
// function or unwind with the pending exception. Expression positions go
// through vm.Interpreter.Evaluate.
package ast

import (
	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Position is a location in the template source.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	vm.Node

	// Pos returns where the node starts in the source.
	Pos() Position

	// SetPos records the source position. Parsers call it once.
	SetPos(pos Position)

	// IsVariable reports whether the node can be assigned to.
	IsVariable() bool

	// Assign stores value through the node. It returns false with an
	// exception pending on failure.
	Assign(interp *vm.Interpreter, value vm.Value) bool
}

// LocalAssigner is implemented by targets that can bind in the innermost
// scope. Loop variables and catch bindings use it.
type LocalAssigner interface {
	AssignLocal(interp *vm.Interpreter, value vm.Value) bool
}

// base carries the position and the default, non-assignable behavior.
type base struct {
	pos Position
}

func (b *base) Pos() Position       { return b.pos }
func (b *base) SetPos(pos Position) { b.pos = pos }
func (b *base) IsVariable() bool    { return false }

func (b *base) Assign(interp *vm.Interpreter, value vm.Value) bool {
	interp.Throw(interp.SyntaxErrorClass, "Node is not assignable")
	return false
}

// At sets the position of n and returns it, for building trees by hand.
func At[N Node](n N, line, column int) N {
	n.SetPos(Position{Line: line, Column: column})
	return n
}

// assignTarget binds value through target, in the innermost scope when
// local is set and the target supports it.
func assignTarget(interp *vm.Interpreter, target Node, value vm.Value, local bool) bool {
	if local {
		if la, ok := target.(LocalAssigner); ok {
			return la.AssignLocal(interp, value)
		}
	}
	return target.Assign(interp, value)
}

// evaluateAll evaluates nodes left to right. On failure the values
// produced so far are released and ok is false.
func evaluateAll(interp *vm.Interpreter, nodes []Node) ([]vm.Value, bool) {
	if len(nodes) == 0 {
		return nil, true
	}
	values := make([]vm.Value, 0, len(nodes))
	for _, n := range nodes {
		v := interp.Evaluate(n)
		if v.IsError() {
			releaseAll(values)
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

func releaseAll(values []vm.Value) {
	for i := range values {
		values[i].Release()
	}
}

// annotate records the line of n on the pending exception.
func annotate(interp *vm.Interpreter, n Node) {
	interp.AnnotateLine(n.Pos().Line)
}

// ---------------------------------------------------------------------------
// Script and blocks
// ---------------------------------------------------------------------------

// Script is a whole template: statements executed in order at template
// level. Between the statements of the outermost script the interpreter
// may collect garbage.
type Script struct {
	base
	Statements []Node
}

// NewScript creates a script from statements.
func NewScript(statements ...Node) *Script {
	return &Script{Statements: statements}
}

func (s *Script) Execute(interp *vm.Interpreter) vm.Result {
	interp.EnterScript()
	defer interp.LeaveScript()
	for _, stmt := range s.Statements {
		result := stmt.Execute(interp)
		switch result.Kind {
		case vm.ResultSuccess:
			result.Release()
		case vm.ResultError:
			annotate(interp, stmt)
			return result
		default:
			return result
		}
		interp.MaybeCollect()
	}
	return vm.EmptyResult()
}

// BlockNode is a sequence of statements. The first result that is not a
// success ends the block and becomes its result.
type BlockNode struct {
	base
	Statements []Node
}

// NewBlock creates a block from statements.
func NewBlock(statements ...Node) *BlockNode {
	return &BlockNode{Statements: statements}
}

func (b *BlockNode) Execute(interp *vm.Interpreter) vm.Result {
	for _, stmt := range b.Statements {
		result := stmt.Execute(interp)
		switch result.Kind {
		case vm.ResultSuccess:
			result.Release()
		case vm.ResultError:
			annotate(interp, stmt)
			return result
		default:
			return result
		}
	}
	return vm.EmptyResult()
}
