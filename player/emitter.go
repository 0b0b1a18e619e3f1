package player

import "sync"

// emitter is a registry of event handlers safe for concurrent registration and emission.
type emitter struct {
	mu       sync.Mutex
	next     int
	handlers map[Event]map[int]Handler
}

func (e *emitter) On(event Event, h Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[Event]map[int]Handler)
	}
	if e.handlers[event] == nil {
		e.handlers[event] = make(map[int]Handler)
	}

	id := e.next
	e.next++
	e.handlers[event][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers[event], id)
			e.mu.Unlock()
		})
	}
}

// emit calls handlers outside the lock so a handler may unregister itself.
func (e *emitter) emit(event Event) {
	e.mu.Lock()
	hs := make([]Handler, 0, len(e.handlers[event]))
	for _, h := range e.handlers[event] {
		hs = append(hs, h)
	}
	e.mu.Unlock()

	for _, h := range hs {
		h()
	}
}

// count reports how many handlers are registered for event.
func (e *emitter) count(event Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}
