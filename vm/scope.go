package vm

import "sort"

// Scope is one level of variable bindings. Lookups walk outward through
// the parent chain.
type Scope struct {
	CoreObject
	parent    *Scope
	variables map[string]Value
}

// NewScope creates a scope nested in parent. The new scope retains its
// parent; the caller owns one reference to the result.
func (interp *Interpreter) NewScope(parent *Scope) *Scope {
	s := &Scope{parent: parent}
	s.CoreObject.init(interp.heap, s)
	if parent != nil {
		parent.Retain()
	}
	s.Retain()
	return s
}

// Parent returns the enclosing scope, or nil for the global scope.
func (s *Scope) Parent() *Scope { return s.parent }

// GetVariable returns a binding of this scope only. The Value is borrowed.
func (s *Scope) GetVariable(name string) (Value, bool) {
	v, ok := s.variables[name]
	return v, ok
}

// HasVariable reports whether this scope binds name.
func (s *Scope) HasVariable(name string) bool {
	_, ok := s.variables[name]
	return ok
}

// SetVariable binds a copy of value in this scope.
func (s *Scope) SetVariable(name string, value Value) {
	if s.variables == nil {
		s.variables = make(map[string]Value)
	}
	old, had := s.variables[name]
	s.variables[name] = value.Copy()
	if had {
		old.Release()
	}
}

// DeleteVariable removes a binding of this scope.
func (s *Scope) DeleteVariable(name string) bool {
	old, had := s.variables[name]
	if !had {
		return false
	}
	delete(s.variables, name)
	old.Release()
	return true
}

// Lookup searches this scope and its ancestors.
func (s *Scope) Lookup(name string) (Value, bool) {
	for current := s; current != nil; current = current.parent {
		if v, ok := current.variables[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Assign overwrites the nearest existing binding of name, or creates one in
// this scope.
func (s *Scope) Assign(name string, value Value) {
	for current := s; current != nil; current = current.parent {
		if current.HasVariable(name) {
			current.SetVariable(name, value)
			return
		}
	}
	s.SetVariable(name, value)
}

// Names returns the names bound in this scope, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.variables))
	for name := range s.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mark marks the scope, its parent chain and its variables.
func (s *Scope) Mark() {
	s.CoreObject.Mark()
	if s.parent != nil {
		markCounted(s.parent)
	}
	for _, v := range s.variables {
		v.Mark()
	}
}

// Dispose releases the variables and the parent.
func (s *Scope) Dispose() {
	vars := s.variables
	s.variables = nil
	for _, v := range vars {
		v.Release()
	}
	if s.parent != nil {
		p := s.parent
		s.parent = nil
		p.Release()
	}
}
