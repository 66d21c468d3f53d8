package interp

import (
	"maps"
	"slices"
	"sync"
)

// cvarStore holds one stack of bindings per context variable name. It is
// shared by every fiber of a runtime.
type cvarStore struct {
	mu     sync.Mutex
	stacks map[string][]cvarEntry
	next   uint64
}

type cvarEntry struct {
	id    uint64
	value Value
}

// cvarHandle identifies one pushed binding.
type cvarHandle struct {
	name string
	id   uint64
}

func newCvarStore() *cvarStore {
	return &cvarStore{stacks: make(map[string][]cvarEntry)}
}

// push binds name to v until the returned handle is popped.
func (s *cvarStore) push(name string, v Value) cvarHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.stacks[name] = append(s.stacks[name], cvarEntry{id: s.next, value: v})

	return cvarHandle{name: name, id: s.next}
}

// pop removes the binding pushed under h. Bindings pushed later by other
// fibers stay in place.
func (s *cvarStore) pop(h cvarHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stack := s.stacks[h.name]

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].id == h.id {
			stack = slices.Delete(stack, i, i+1)

			break
		}
	}

	if len(stack) == 0 {
		delete(s.stacks, h.name)
	} else {
		s.stacks[h.name] = stack
	}
}

// lookup returns the innermost binding of name.
func (s *cvarStore) lookup(name string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stack := s.stacks[name]
	if len(stack) == 0 {
		return nil, false
	}

	return stack[len(stack)-1].value, true
}

// set replaces the innermost binding of name, or creates an outermost one.
func (s *cvarStore) set(name string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stack := s.stacks[name]
	if len(stack) == 0 {
		s.next++
		s.stacks[name] = []cvarEntry{{id: s.next, value: v}}

		return
	}

	stack[len(stack)-1].value = v
}

// depth returns the number of bindings of name.
func (s *cvarStore) depth(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.stacks[name])
}

// names returns the bound names in sorted order.
func (s *cvarStore) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.stacks))
}
