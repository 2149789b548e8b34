// Package serial provides asynchronous, worker-owned access to serial
// communication devices on Linux.
//
// Each opened device is driven by a background worker that exclusively
// owns the OS handle: callers enqueue writes and receive data and
// errors through replaceable observer callbacks, and never block on
// device I/O themselves.
//
// # Basic Usage
//
// Open a device with default configuration (115200 8N1, no flow
// control, 10ms read timeout):
//
//	dev, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	dev.OnData(func(data []byte) {
//	    fmt.Printf("received %d bytes\n", len(data))
//	})
//	dev.OnError(func(err error) {
//	    log.Printf("device error: %v", err)
//	})
//
//	// Write enqueues and returns immediately
//	err = dev.Write([]byte("Hello"))
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	dev, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithStopBits(2),
//	    serial.WithReadTimeout(50*time.Millisecond),
//	)
//
// Every field defaults independently; partial options never leave an
// unset field behind.
//
// # Worker Model
//
// All device I/O happens on the worker's goroutine(s). Where the
// platform allows the handle to be duplicated, a dedicated read
// goroutine and a dedicated write goroutine each own one descriptor;
// otherwise a single goroutine alternates between the write queue and
// timed reads. Close signals shutdown, attempts writes still queued,
// and joins the worker before releasing the device.
//
// Write never blocks: the outbound queue is unbounded, which is a
// documented risk under sustained write pressure, not a flow control
// guarantee.
//
// # Observers
//
// At most one data callback and one error callback are active at a
// time; setting a new one replaces the old for the next dispatch, nil
// clears. Received data is delivered with blocking dispatch, so a slow
// data callback pauses reading (backpressure). Errors are delivered
// without blocking the worker. After Close returns, no further
// callback fires.
//
// Custom delivery into an event loop is possible with a Dispatcher:
//
//	dev, err := serial.Open("/dev/ttyUSB0", serial.WithDispatcher(d))
//
// # Port Discovery
//
// List available serial ports and get device metadata:
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Kind, info.Description,
//	        info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # Error Handling
//
// Errors returned by Open classify the failure (ErrDeviceNotFound,
// ErrPermissionDenied, ErrDeviceInUse, ErrInvalidConfig,
// ErrInvalidBaudRate). After a successful open, all failures are
// asynchronous and reach the caller only through the error observer:
// ErrWriteFailed wraps a failed transmission and is non-fatal,
// ErrReadFailed wraps a fatal read error after which the worker stops
// and subsequent writes return ErrPortClosed.
//
// Use errors.Is() for error type checking:
//
//	dev.OnError(func(err error) {
//	    if errors.Is(err, serial.ErrReadFailed) {
//	        // device is gone, reopen later
//	    }
//	})
//
// # Platform Support
//
// The library targets Linux (x86_64 and ARM) and uses termios through
// golang.org/x/sys/unix. USB metadata extraction and device reset rely
// on sysfs and the usbreset utility.
package serial
