package interp

import (
	"maps"
	"slices"
)

// Frame is one lexical scope. Each block invocation creates a frame whose
// parent is the frame the block was evaluated in.
type Frame struct {
	vars   map[string]Value
	parent *Frame
	name   string

	// exported names the bindings of an outermost frame that a module
	// exposes. Nil exposes every binding.
	exported map[string]bool
}

// NewFrame returns an empty frame enclosed by parent, which may be nil.
func NewFrame(parent *Frame, name string) *Frame {
	return &Frame{vars: make(map[string]Value), parent: parent, name: name}
}

// Name returns the name of the invocation that created the frame.
func (fr *Frame) Name() string { return fr.name }

// Parent returns the enclosing frame, or nil for the outermost frame.
func (fr *Frame) Parent() *Frame { return fr.parent }

// Lookup resolves name in fr and its enclosing frames.
func (fr *Frame) Lookup(name string) (Value, bool) {
	for s := fr; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Declare binds name in fr, shadowing any enclosing binding.
func (fr *Frame) Declare(name string, v Value) {
	fr.vars[name] = v
}

// Assign rebinds name in the nearest frame that defines it, or declares it
// in fr when no frame does.
func (fr *Frame) Assign(name string, v Value) {
	for s := fr; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v

			return
		}
	}

	fr.vars[name] = v
}

// root returns the outermost frame enclosing fr.
func (fr *Frame) root() *Frame {
	for fr.parent != nil {
		fr = fr.parent
	}

	return fr
}

// Export binds name to v in the outermost frame enclosing fr and marks it
// as exported.
func (fr *Frame) Export(name string, v Value) {
	r := fr.root()
	r.vars[name] = v

	if r.exported == nil {
		r.exported = make(map[string]bool)
	}

	r.exported[name] = true
}

// Exports returns the bindings a module with top-level frame fr exposes:
// the exported names when any were marked, otherwise every binding.
func (fr *Frame) Exports() map[string]Value {
	if fr.exported == nil {
		return maps.Clone(fr.vars)
	}

	out := make(map[string]Value, len(fr.exported))

	for name := range fr.exported {
		if v, ok := fr.vars[name]; ok {
			out[name] = v
		}
	}

	return out
}

// Bindings returns every name visible from fr with its value. Inner bindings
// shadow outer ones.
func (fr *Frame) Bindings() map[string]Value {
	var chain []*Frame
	for s := fr; s != nil; s = s.parent {
		chain = append(chain, s)
	}

	out := make(map[string]Value)

	for _, s := range slices.Backward(chain) {
		maps.Copy(out, s.vars)
	}

	return out
}
