package interp

import (
	"iter"
	"maps"
	"slices"
	"sync"
)

// Table is a mutable string-keyed map shared by reference. Setting a key to
// [Nil] removes it.
type Table struct {
	mu sync.RWMutex
	m  map[string]Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{m: make(map[string]Value)}
}

// TableOf returns a table holding a copy of m.
func TableOf(m map[string]Value) *Table {
	t := &Table{m: make(map[string]Value, len(m))}

	for k, v := range m {
		t.set(k, v)
	}

	return t
}

func (*Table) Kind() Kind { return KindTable }

func (t *Table) String() string { return render(t, nil) }

func (*Table) value() {}

// Get returns the value of key, or [Nil].
func (t *Table) Get(key string) Value {
	v, _ := t.Lookup(key)

	return v
}

// Lookup returns the value of key and whether it is present.
func (t *Table) Lookup(key string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.m[key]
	if !ok {
		return Nil, false
	}

	return v, true
}

// Set binds key to v, or removes key when v is [Nil].
func (t *Table) Set(key string, v Value) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.set(key, v)
}

func (t *Table) set(key string, v Value) {
	if IsNil(v) {
		delete(t.m, key)

		return
	}

	t.m[key] = v
}

// Delete removes key.
func (t *Table) Delete(key string) {
	t.Set(key, Nil)
}

// Len returns the number of keys.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.m)
}

// Keys returns the keys in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Sorted(maps.Keys(t.m))
}

// All iterates over a snapshot of the table in key order.
func (t *Table) All() iter.Seq2[string, Value] {
	snap := t.Snapshot()
	keys := slices.Sorted(maps.Keys(snap))

	return func(yield func(string, Value) bool) {
		for _, k := range keys {
			if !yield(k, snap[k]) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the underlying map.
func (t *Table) Snapshot() map[string]Value {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return maps.Clone(t.m)
}

// Clone returns a shallow copy of t.
func (t *Table) Clone() *Table {
	return &Table{m: t.Snapshot()}
}
