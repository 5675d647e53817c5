// Package live implements observable values. A Value keeps the latest state, replays it to every new
// watcher and delivers only the most recent state to slow watchers. Optional hooks report when the first
// watcher arrives and when the last one leaves, so producers can pause while nobody observes.
package live

import (
	"context"
	"sync"
)

// Value holds the latest T and publishes changes to watchers
type Value[T any] struct {
	mu   sync.Mutex
	val  T
	subs map[chan T]struct{}

	hookMu   sync.Mutex
	active   bool
	onActive func()
	onIdle   func()
}

// Option func type
type Option[T any] func(v *Value[T])

// OnActive sets a hook called when the value gets its first watcher
func OnActive[T any](fn func()) Option[T] {
	return func(v *Value[T]) { v.onActive = fn }
}

// OnIdle sets a hook called when the last watcher is gone
func OnIdle[T any](fn func()) Option[T] {
	return func(v *Value[T]) { v.onIdle = fn }
}

// New makes Value with the initial state
func New[T any](initial T, opts ...Option[T]) *Value[T] {
	res := &Value[T]{val: initial, subs: map[chan T]struct{}{}}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Get returns the current state
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set replaces the state and publishes it to all watchers
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = val
	for ch := range v.subs {
		offer(ch, val)
	}
}

// Update applies fn to the current state and publishes the result atomically
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = fn(v.val)
	for ch := range v.subs {
		offer(ch, v.val)
	}
	return v.val
}

// Watch returns a channel receiving the current state immediately and every later change.
// Intermediate states are dropped if the receiver is behind. The channel is closed when ctx is done.
func (v *Value[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	v.mu.Lock()
	ch <- v.val
	v.subs[ch] = struct{}{}
	v.mu.Unlock()
	v.reconcile()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, ch)
		close(ch)
		v.mu.Unlock()
		v.reconcile()
	}()
	return ch
}

// Watchers returns the number of active watchers
func (v *Value[T]) Watchers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// reconcile brings hooks state in line with the watchers count. Runs the hooks outside of v.mu
// so they are free to call Set.
func (v *Value[T]) reconcile() {
	v.hookMu.Lock()
	defer v.hookMu.Unlock()

	want := v.Watchers() > 0
	if want == v.active {
		return
	}
	v.active = want
	if want && v.onActive != nil {
		v.onActive()
	}
	if !want && v.onIdle != nil {
		v.onIdle()
	}
}

// offer replaces pending value in the buffered channel, if any. Must be called with v.mu held.
func offer[T any](ch chan T, val T) {
	select {
	case <-ch:
	default:
	}
	ch <- val
}
