package ast

import (
	"html"

	"github.com/chazu/quill/vm"
)

// ---------------------------------------------------------------------------
// Template output
// ---------------------------------------------------------------------------

// TextNode writes raw template text.
type TextNode struct {
	base
	Text string
}

// NewText creates a text node.
func NewText(text string) *TextNode { return &TextNode{Text: text} }

func (n *TextNode) Execute(interp *vm.Interpreter) vm.Result {
	if !interp.Write(n.Text) {
		return vm.ErrorResult()
	}
	return vm.EmptyResult()
}

// EscapeMode selects XML escaping for an OutputNode.
type EscapeMode uint8

const (
	// EscapeDefault follows the interpreter's EscapeOutput option.
	EscapeDefault EscapeMode = iota
	EscapeOn
	EscapeOff
)

// OutputNode writes the string form of an expression, "${expr}" in a
// template.
type OutputNode struct {
	base
	Expr   Node
	Escape EscapeMode
}

// NewOutput creates an output node.
func NewOutput(expr Node, escape EscapeMode) *OutputNode {
	return &OutputNode{Expr: expr, Escape: escape}
}

func (n *OutputNode) escapes(interp *vm.Interpreter) bool {
	switch n.Escape {
	case EscapeOn:
		return true
	case EscapeOff:
		return false
	}
	return interp.EscapeOutput()
}

func (n *OutputNode) Execute(interp *vm.Interpreter) vm.Result {
	v := interp.Evaluate(n.Expr)
	if v.IsError() {
		return vm.ErrorResult()
	}
	defer v.Release()
	s, ok := v.ToString(interp)
	if !ok {
		return vm.ErrorResult()
	}
	if n.escapes(interp) {
		s = html.EscapeString(s)
	}
	if !interp.Write(s) {
		return vm.ErrorResult()
	}
	return vm.EmptyResult()
}
