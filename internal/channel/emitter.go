package channel

import (
	"sync"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Emitter dispatches channel events to subscribed handlers in subscription order.
type Emitter struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType][]subscription
}

func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]subscription)}
}

func (e *Emitter) On(event EventType, h Handler) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], subscription{id: id, handler: h})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.off(event, id) })
	}
}

func (e *Emitter) off(event EventType, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.handlers[event]
	for i, sub := range subs {
		if sub.id == id {
			e.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.handlers[event]) == 0 {
		delete(e.handlers, event)
	}
}

// Emit calls every handler subscribed to ev.Type. Handlers run outside the lock so
// they may unsubscribe themselves.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	subs := make([]subscription, len(e.handlers[ev.Type]))
	copy(subs, e.handlers[ev.Type])
	e.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(ev)
	}
}

// Count returns the number of handlers subscribed to event.
func (e *Emitter) Count(event EventType) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[event])
}

// Total returns the number of handlers across all events.
func (e *Emitter) Total() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, subs := range e.handlers {
		n += len(subs)
	}
	return n
}
