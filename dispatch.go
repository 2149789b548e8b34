package serial

// Dispatcher carries observer callbacks from the worker goroutines into
// the caller's execution context. Implementations must tolerate being
// invoked from goroutines other than the caller's (for example by
// forwarding into an event loop's message queue).
//
// The worker delivers received data with Dispatch, so a slow consumer
// pauses further reads; that stall is the library's only backpressure
// mechanism. Errors are delivered with TryDispatch, which must return
// without waiting for the callback to complete so a stopping worker is
// never wedged behind a slow or absent listener.
type Dispatcher interface {
	// Dispatch delivers fn and waits for it to complete.
	Dispatch(fn func())
	// TryDispatch delivers fn without waiting for it to complete.
	TryDispatch(fn func())
}

// directDispatcher is the default transport: callbacks run directly on
// the worker goroutine that produced the event.
type directDispatcher struct{}

var _ Dispatcher = directDispatcher{}

func (directDispatcher) Dispatch(fn func()) { fn() }

func (directDispatcher) TryDispatch(fn func()) { go fn() }
