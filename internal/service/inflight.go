package service

import (
	"sync"
	"sync/atomic"

	"github.com/listenupapp/shelf/internal/domain"
)

// SyncMap is a type-safe concurrent map using generics.
// A RWMutex suits the pipeline's mix of frequent state reads and rare claims.
type SyncMap[K comparable, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// NewSyncMap creates a new type-safe concurrent map.
func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{
		m: make(map[K]V),
	}
}

// Load returns the value stored for key. The ok result indicates whether value was found.
func (sm *SyncMap[K, V]) Load(key K) (value V, ok bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok = sm.m[key]
	return
}

// LoadOrStore returns the existing value for the key if present.
// Otherwise, it stores and returns the given value.
// The loaded result is true if the value was loaded, false if stored.
func (sm *SyncMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if actual, loaded = sm.m[key]; loaded {
		return actual, true
	}
	sm.m[key] = value
	return value, false
}

// Delete deletes the value for a key.
func (sm *SyncMap[K, V]) Delete(key K) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.m, key)
}

// Len returns the number of items in the map.
func (sm *SyncMap[K, V]) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.m)
}

// flight is the pipeline entry for one active lookup key.
// final is written once, before done is closed.
type flight struct {
	state  atomic.Value // State
	target string
	done   chan struct{}
	final  Transition
}

func newFlight(target string) *flight {
	f := &flight{target: target, done: make(chan struct{})}
	f.state.Store(StateResolving)
	return f
}

// finish records the terminal transition and wakes every waiter.
func (f *flight) finish(t Transition) {
	f.final = t
	f.setState(StateSettled)
	close(f.done)
}

func (f *flight) setState(s State) {
	f.state.Store(s)
}

func (f *flight) currentState() State {
	return f.state.Load().(State)
}

type inflightKeys = SyncMap[domain.LookupKey, *flight]
