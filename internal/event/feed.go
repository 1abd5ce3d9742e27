// Package event provides a typed publish/subscribe feed for immutable snapshots.
package event

import (
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler receives published values.
type Handler[T any] func(T)

type subscription[T any] struct {
	id      uint64
	handler Handler[T]
}

// Feed is a synchronous pub-sub registry for values of one type.
// New subscribers immediately receive the latest published value, if any.
// Publishers are responsible for passing values that are not mutated afterwards.
type Feed[T any] struct {
	mu     sync.RWMutex
	subs   []subscription[T]
	latest T
	has    bool
	nextID atomic.Uint64
}

// NewFeed creates an empty feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{}
}

// Subscribe registers a handler and returns a function that removes it.
func (f *Feed[T]) Subscribe(handler Handler[T]) func() {
	id := f.nextID.Add(1)
	f.mu.Lock()
	f.subs = append(f.subs, subscription[T]{id: id, handler: handler})
	latest, has := f.latest, f.has
	f.mu.Unlock()

	if has {
		safeCall(handler, latest)
	}
	return func() { f.unsubscribe(id) }
}

func (f *Feed[T]) unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subs {
		if sub.id == id {
			f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
			return
		}
	}
}

// Publish records v as the latest value and delivers it to every subscriber
// in registration order. A panicking handler is logged and skipped.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	f.latest = v
	f.has = true
	subs := make([]subscription[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		safeCall(sub.handler, v)
	}
}

// Latest returns the most recently published value.
func (f *Feed[T]) Latest() (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.has
}

// Len returns the number of active subscriptions.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func safeCall[T any](handler Handler[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: feed handler panicked: %v\n%s", r, debug.Stack())
		}
	}()
	handler(v)
}
