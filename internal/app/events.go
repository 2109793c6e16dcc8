package app

import "sync"

// Feed is a minimal typed publish/subscribe primitive. Handlers run
// synchronously in subscription order on the publisher's goroutine, so
// ordering between a state change and its notifications is deterministic.
type Feed[T any] struct {
	mu   sync.RWMutex
	subs []func(T)
}

func (f *Feed[T]) Subscribe(fn func(T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

func (f *Feed[T]) Publish(e T) {
	f.mu.RLock()
	subs := f.subs
	f.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// SessionEnded fires exactly once per unregistered session, after the
// registry has already dropped it. Consumers cascade their own cleanup.
type SessionEnded struct {
	Session *Session
}

// Bus wires cross-component notifications so the registry, room manager and
// call machine stay decoupled and testable in isolation.
type Bus struct {
	SessionEnded Feed[SessionEnded]
}

func NewBus() *Bus { return &Bus{} }
