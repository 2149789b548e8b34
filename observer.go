package serial

import "sync"

// observerSlot holds at most one active callback for a single event
// class. Replacing or clearing the callback is safe concurrently with
// dispatch: an invocation already past the fetch point completes with
// the callback it fetched, the next invocation sees the new value.
type observerSlot[T any] struct {
	mu sync.RWMutex
	fn func(T)

	// dispatchMu serializes invocations so events of one class cannot
	// run concurrently or overtake each other. It is never held while
	// the registry lock is held, so slow observer code cannot block
	// store or clear.
	dispatchMu sync.Mutex

	// pending buffers non-blocking events in generation order. A single
	// drainer at a time empties it, so hand-off never reorders events.
	pendingMu sync.Mutex
	pending   []T
	draining  bool
}

// store replaces the active callback. A nil fn clears the slot.
func (s *observerSlot[T]) store(fn func(T)) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *observerSlot[T]) clear() {
	s.store(nil)
}

// load fetches the currently active callback, which may be nil
func (s *observerSlot[T]) load() func(T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fn
}

// dispatch delivers v to the active callback, if any, through d.
// Blocking dispatch returns only after the callback has run; this is
// how the read path applies backpressure. Non-blocking dispatch
// appends v to the slot's queue and returns immediately, so it is safe
// to call from a worker that is about to stop.
func (s *observerSlot[T]) dispatch(d Dispatcher, v T, blocking bool) {
	if s.load() == nil {
		// Observers are optional; events without a listener are dropped
		return
	}

	if blocking {
		d.Dispatch(func() { s.invoke(v) })
		return
	}

	s.pendingMu.Lock()
	s.pending = append(s.pending, v)
	if s.draining {
		// The active drainer will pick this event up in order
		s.pendingMu.Unlock()
		return
	}
	s.draining = true
	s.pendingMu.Unlock()

	d.TryDispatch(s.drain)
}

// invoke runs the callback for one event inside the serialized section.
// The callback is fetched again here: a clear that lands between
// hand-off and invocation wins, so a closed device never fires a
// callback it no longer holds.
func (s *observerSlot[T]) invoke(v T) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	if fn := s.load(); fn != nil {
		fn(v)
	}
}

// drain empties the pending queue one event at a time. At most one
// drainer runs per slot, which keeps delivery in generation order even
// when the dispatcher hands work to another goroutine.
func (s *observerSlot[T]) drain() {
	for {
		s.pendingMu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.pendingMu.Unlock()
			return
		}
		v := s.pending[0]
		s.pending = s.pending[1:]
		s.pendingMu.Unlock()

		s.invoke(v)
	}
}
