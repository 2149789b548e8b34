package serial

import (
	"sync"
	"sync/atomic"
	"time"
)

// readBufferSize is the size of the worker's scratch read buffer
const readBufferSize = 4096

// Worker lifecycle states. The facade observes these through the
// atomic state word; transitions only ever move forward.
const (
	stateRunning int32 = iota
	stateDraining
	stateStopped
)

// writeQueue is the unbounded command queue between the facade and the
// worker. Enqueueing never blocks; callers that sustain a higher write
// rate than the device drains will grow it without bound.
type writeQueue struct {
	mu    sync.Mutex
	items [][]byte

	// notify carries at most one pending wakeup for the worker
	notify chan struct{}
}

func newWriteQueue() *writeQueue {
	return &writeQueue{notify: make(chan struct{}, 1)}
}

func (q *writeQueue) push(data []byte) {
	q.mu.Lock()
	q.items = append(q.items, data)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *writeQueue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	data := q.items[0]
	q.items = q.items[1:]
	return data, true
}

// worker owns the device handle(s) for their entire lifetime and is the
// only component that performs I/O against them. It runs in one of two
// topologies: split (a read goroutine and a write goroutine over cloned
// handles) or unified (a single goroutine alternating between queue
// servicing and timed reads on one handle).
type worker struct {
	config Config
	disp   Dispatcher

	onData  observerSlot[[]byte]
	onError observerSlot[error]

	queue *writeQueue
	done  chan struct{}
	state atomic.Int32
	wg    sync.WaitGroup
}

func newWorker(config Config) *worker {
	disp := config.Dispatcher
	if disp == nil {
		disp = directDispatcher{}
	}
	return &worker{
		config: config,
		disp:   disp,
		queue:  newWriteQueue(),
		done:   make(chan struct{}),
	}
}

// startSplit launches the split topology: rd is owned by the read
// goroutine, wr by the write goroutine, each closed by its owner.
func (w *worker) startSplit(rd, wr duplex) {
	w.wg.Add(2)
	go w.readLoop(rd)
	go w.writeLoop(wr)
}

// startUnified launches the unified topology over a single handle
func (w *worker) startUnified(dev duplex) {
	w.wg.Add(1)
	go w.unifiedLoop(dev)
}

// stop requests shutdown and waits for the worker goroutine(s) to exit.
// Writes already queued are attempted before the device is released.
func (w *worker) stop() {
	close(w.done)
	w.wg.Wait()
}

func (w *worker) stopped() bool {
	return w.state.Load() == stateStopped
}

// fail records a fatal error: the worker moves to stopped and the error
// observer is notified without blocking the failing goroutine.
func (w *worker) fail(err error) {
	w.state.Store(stateStopped)
	w.onError.dispatch(w.disp, err, false)
}

// readLoop races shutdown against timed read attempts. Received data is
// delivered with a blocking dispatch, so a slow data observer pauses
// further reads. Any read error other than a timeout is fatal.
func (w *worker) readLoop(dev duplex) {
	defer w.wg.Done()
	defer dev.close()

	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-w.done:
			return
		default:
		}

		n, err := dev.readTimeout(buf, w.config.ReadTimeout)
		if err != nil {
			w.fail(err)
			return
		}
		if n == 0 {
			// Nothing arrived this attempt
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		w.onData.dispatch(w.disp, data, true)
	}
}

// writeLoop races shutdown against the next queued write. A write
// failure is reported through the error observer and the loop keeps
// going; device loss surfaces as a fatal error on the read side.
func (w *worker) writeLoop(dev duplex) {
	defer w.wg.Done()
	defer dev.close()

	for {
		if data, ok := w.queue.pop(); ok {
			w.writeOne(dev, data)
			continue
		}

		select {
		case <-w.done:
			w.flush(dev)
			return
		case <-w.queue.notify:
		}
	}
}

// unifiedLoop services the command queue and the device from a single
// goroutine. Each idle interval is bounded by the read timeout, after
// which one read attempt is made; under write pressure a zero-timeout
// read after every write keeps inbound data serviced.
func (w *worker) unifiedLoop(dev duplex) {
	defer w.wg.Done()
	defer dev.close()

	buf := make([]byte, readBufferSize)
	timer := time.NewTimer(w.config.ReadTimeout)
	defer timer.Stop()

	for {
		if data, ok := w.queue.pop(); ok {
			w.writeOne(dev, data)
			if !w.readOnce(dev, buf, 0) {
				return
			}
			continue
		}

		timer.Reset(w.config.ReadTimeout)
		select {
		case <-w.done:
			w.flush(dev)
			return
		case <-w.queue.notify:
		case <-timer.C:
			if !w.readOnce(dev, buf, w.config.ReadTimeout) {
				return
			}
		}
	}
}

// writeOne attempts a single queued payload
func (w *worker) writeOne(dev duplex, data []byte) {
	if err := dev.writeAll(data); err != nil {
		w.onError.dispatch(w.disp, err, false)
	}
}

// readOnce performs one bounded read attempt and dispatches any data.
// It reports false when the worker must stop.
func (w *worker) readOnce(dev duplex, buf []byte, timeout time.Duration) bool {
	n, err := dev.readTimeout(buf, timeout)
	if err != nil {
		w.fail(err)
		return false
	}
	if n > 0 {
		data := make([]byte, n)
		copy(data, buf[:n])
		w.onData.dispatch(w.disp, data, true)
	}
	return true
}

// flush attempts every write still queued at shutdown, then waits for
// the kernel's output buffer to drain. Writes enqueued before Close are
// therefore always attempted before the device is released.
func (w *worker) flush(dev duplex) {
	// Stopped is latched: a fatal read error may have ended the worker
	// before the write side got here
	w.state.CompareAndSwap(stateRunning, stateDraining)

	for {
		data, ok := w.queue.pop()
		if !ok {
			break
		}
		w.writeOne(dev, data)
	}

	// Best effort; the device may already be gone
	dev.drain()

	w.state.Store(stateStopped)
}
