package serial

import (
	"sync"
	"sync/atomic"
)

// Device is an open serial port driven by a background worker. All I/O
// happens on the worker's goroutine(s); the caller enqueues writes and
// receives data and errors through observer callbacks. Device is safe
// for concurrent use.
type Device struct {
	path   string
	config Config
	worker *worker

	closed    atomic.Bool
	closeOnce sync.Once
}

// Open opens a serial device with the given options and starts its
// worker. The device is configured atomically before any I/O is
// attempted and marked non-exclusive so other processes may still
// inspect it.
//
// When the platform allows the handle to be cloned, reads and writes
// run on separate goroutines over independent descriptors (split
// topology); otherwise a single goroutine alternates between the write
// queue and timed reads (unified topology).
func Open(device string, opts ...Option) (*Device, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	h, err := openHandle(device, config)
	if err != nil {
		return nil, err
	}

	d := &Device{
		path:   device,
		config: config,
		worker: newWorker(config),
	}

	if wr, err := h.clone(); err == nil {
		d.worker.startSplit(h, wr)
	} else {
		d.worker.startUnified(h)
	}

	return d, nil
}

// Path returns the device path this Device was opened with
func (d *Device) Path() string {
	return d.path
}

// Config returns the resolved configuration the device was opened with
func (d *Device) Config() Config {
	return d.config
}

// Write enqueues data for transmission and returns immediately. A nil
// return means the payload was queued, not that it reached the device;
// transmission failures are reported through the error observer.
// Writes are transmitted in enqueue order. Once the device is closed or
// its worker has stopped after a fatal error, Write returns
// ErrPortClosed.
//
// The queue is unbounded: sustained writing faster than the device
// drains grows memory without limit.
func (d *Device) Write(data []byte) error {
	if d.closed.Load() || d.worker.stopped() {
		return ErrPortClosed
	}

	// The caller may reuse its buffer as soon as Write returns
	queued := make([]byte, len(data))
	copy(queued, data)

	d.worker.queue.push(queued)
	return nil
}

// OnData sets the callback invoked with each chunk of received data.
// Passing nil clears it. The callback runs via the configured
// dispatcher; while it runs, further reads are paused.
func (d *Device) OnData(fn func(data []byte)) {
	d.worker.onData.store(fn)
}

// OnError sets the callback invoked when a write fails or the worker
// stops on a fatal read error. Passing nil clears it. Errors can be
// classified with errors.Is against ErrWriteFailed and ErrReadFailed.
func (d *Device) OnError(fn func(err error)) {
	d.worker.onError.store(fn)
}

// Close shuts the device down: the data observer is cleared so no new
// data callback can start, writes already enqueued are attempted, the
// worker goroutine(s) are joined and the descriptors released. Close
// blocks for at most roughly one read-timeout interval while the worker
// notices shutdown. Calling Close again is a no-op.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.worker.onData.clear()
		d.worker.stop()
		d.worker.onError.clear()
	})
	return nil
}
