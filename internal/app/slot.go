package app

import "sync"

// Slot holds the latest published value of T. Publishing replaces the value
// (last write wins) and wakes every goroutine waiting on Changed.
// A slow reader may miss intermediate values but always sees the latest one.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	set     bool
	version uint64
	changed chan struct{}
	notify  func()
}

// NewSlot returns an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{changed: make(chan struct{})}
}

// Publish replaces the value and notifies waiters.
func (s *Slot[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	s.set = true
	s.version++
	ch := s.changed
	s.changed = make(chan struct{})
	notify := s.notify
	s.mu.Unlock()

	close(ch)
	if notify != nil {
		notify()
	}
}

// Load returns the latest value and whether anything was published yet.
func (s *Slot[T]) Load() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

// Version returns how many times the slot was published.
func (s *Slot[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Changed returns a channel closed by the next Publish.
// Call Load after it fires to read the value.
func (s *Slot[T]) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}
