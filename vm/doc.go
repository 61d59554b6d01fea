// Package vm implements the quill runtime.
//
// This package contains:
//   - Tagged value representation
//   - Reference counted objects with live-value registration
//   - A tracing collector for cycles
//   - Class and attribute based method dispatch
//   - Frames, scopes and the interpreter state
//   - Builtin class implementations
//
// Syntax trees are executed by package ast, which implements the Node
// interface declared here.
package vm
