package account

import "sync"

// Emitter is an ordered publish/subscribe channel. Fire delivers the value
// synchronously to every subscriber present at the time of the call, in
// subscription order.
type Emitter[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// NewEmitter creates an empty emitter.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// Subscribe registers fn and returns a function that removes the
// subscription. Unsubscribing twice is harmless.
func (e *Emitter[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.handlers = append(e.handlers, subscription[T]{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, h := range e.handlers {
			if h.id == id {
				e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
				return
			}
		}
	}
}

// Fire delivers v to the current subscribers in order. Handlers run outside
// the emitter's lock so they may subscribe or unsubscribe; such changes take
// effect for the next Fire.
func (e *Emitter[T]) Fire(v T) {
	e.mu.Lock()
	snapshot := make([]subscription[T], len(e.handlers))
	copy(snapshot, e.handlers)
	e.mu.Unlock()

	for _, h := range snapshot {
		h.fn(v)
	}
}
