package boundary

import (
	"sync"

	"github.com/agbru/casbridge/internal/engine"
)

// GenHandle is an opaque reference to a value slot. The zero handle is never
// issued.
type GenHandle uint64

// ContextHandle is an opaque reference to an evaluation context. The zero
// handle is never issued.
type ContextHandle uint64

// GlobalContext is the handle of the process-wide default context. It is
// usable once InitGlobalContext has run and can never be freed.
const GlobalContext ContextHandle = 1

// InvalidType is what Type reports for a handle that does not name a live
// value.
const InvalidType uint8 = 255

// table maps handles to heap objects. Handles are allocated from a
// monotonically increasing counter and are never reused, so a stale handle
// fails lookup instead of aliasing a newer object.
type table[T any] struct {
	mu    sync.RWMutex
	next  uint64
	items map[uint64]*T
}

func newTable[T any](first uint64) *table[T] {
	return &table[T]{next: first, items: make(map[uint64]*T)}
}

func (t *table[T]) put(v *T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.next
	t.next++
	t.items[h] = v
	return h
}

func (t *table[T]) putAt(h uint64, v *T) {
	t.mu.Lock()
	t.items[h] = v
	t.mu.Unlock()
}

func (t *table[T]) get(h uint64) (*T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[h]
	return v, ok
}

func (t *table[T]) remove(h uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[h]; !ok {
		return false
	}
	delete(t.items, h)
	return true
}

func (t *table[T]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// slot is the mutable cell behind a GenHandle. Engine values are immutable,
// so writing a slot replaces the value it holds.
type slot struct {
	mu  sync.Mutex
	val engine.Gen
}

func (s *slot) load() engine.Gen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val
}

func (s *slot) store(g engine.Gen) {
	s.mu.Lock()
	s.val = g
	s.mu.Unlock()
}

var (
	values   = newTable[slot](1)
	contexts = newTable[engine.Context](uint64(GlobalContext) + 1)
)

// LiveValues returns the number of value handles that have not been freed.
func LiveValues() int { return values.len() }

// LiveContexts returns the number of live context handles, the global one
// included once initialised.
func LiveContexts() int { return contexts.len() }

func lookupValue(h GenHandle) (*slot, error) {
	s, ok := values.get(uint64(h))
	if !ok {
		return nil, &Error{Msg: errInvalidValue}
	}
	return s, nil
}

func loadValue(h GenHandle) (engine.Gen, error) {
	s, err := lookupValue(h)
	if err != nil {
		return engine.Gen{}, err
	}
	return s.load(), nil
}

func lookupContext(h ContextHandle) (*engine.Context, error) {
	c, ok := contexts.get(uint64(h))
	if !ok {
		if h == GlobalContext {
			return nil, &Error{Msg: errGlobalNotReady}
		}
		return nil, &Error{Msg: errInvalidContext}
	}
	return c, nil
}

func newValue(g engine.Gen) GenHandle {
	return GenHandle(values.put(&slot{val: g}))
}
