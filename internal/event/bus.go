// Package event provides a small synchronous publish/subscribe bus.
package event

import "sync"

// Bus delivers events of type E to every registered handler, in
// registration order, on the publisher's goroutine.
//
// Handlers may subscribe or cancel from inside a handler; the change takes
// effect from the next Publish.
type Bus[E any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers []handler[E]
}

type handler[E any] struct {
	id uint64
	fn func(E)
}

// NewBus creates an empty bus.
func NewBus[E any]() *Bus[E] {
	return &Bus[E]{}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned cancel more than once is harmless.
func (b *Bus[E]) Subscribe(fn func(E)) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, handler[E]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[E]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.id == id {
			// Copy so an in-flight Publish keeps iterating its own snapshot.
			hs := make([]handler[E], 0, len(b.handlers)-1)
			hs = append(hs, b.handlers[:i]...)
			hs = append(hs, b.handlers[i+1:]...)
			b.handlers = hs
			return
		}
	}
}

// Publish calls every handler with e.
func (b *Bus[E]) Publish(e E) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers
	b.mu.RUnlock()
	for _, h := range hs {
		h.fn(e)
	}
}

// Len returns the number of registered handlers.
func (b *Bus[E]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
