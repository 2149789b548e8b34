package serial

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// duplex is the device-facing surface the worker drives. It exists so the
// worker loops can be exercised against a scripted implementation in tests.
type duplex interface {
	// readTimeout performs one read attempt bounded by timeout.
	// (0, nil) means no data arrived, which is routine and not an error.
	readTimeout(buf []byte, timeout time.Duration) (int, error)
	// writeAll writes the full payload or reports an error.
	writeAll(data []byte) error
	// drain performs a best-effort flush of buffered output.
	drain() error
	close() error
}

// handle is an open file descriptor on a serial device. It carries no
// locking of its own: each handle is owned by exactly one worker
// goroutine after open returns.
type handle struct {
	fd   int
	path string
}

var _ duplex = (*handle)(nil)

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// openHandle opens and fully configures a serial device. The handle is
// never returned half-configured: any failure after open closes the fd.
func openHandle(device string, config Config) (*handle, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, classifyOpenError(device, err)
	}

	if err := configureHandle(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Configuration used O_NONBLOCK to avoid blocking on modem lines;
	// reads are timed with poll, so switch back to blocking mode.
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to set blocking mode on %s: %w", device, err)
	}

	h := &handle{fd: fd, path: device}

	// Allow other processes to open and inspect the same device.
	if err := h.setExclusive(false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to make %s non-exclusive: %w", device, err)
	}

	return h, nil
}

// classifyOpenError maps open(2) errnos to the predefined error types
func classifyOpenError(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	case errors.Is(err, unix.EACCES):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	default:
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
}

// configureHandle applies the full termios configuration in a single
// TCSETS call so the device is never observable in a partial state
func configureHandle(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	// Raw mode
	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// Reads are timed with poll(2), so the line discipline itself
	// returns whatever is available immediately.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	baudRate, err := getBaudRate(config.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baudRate
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	// Data bits
	termios.Cflag &^= unix.CSIZE
	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	// Stop bits
	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	// Parity
	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	}

	// Flow control
	switch config.FlowControl {
	case FlowControlSoftware:
		termios.Iflag |= unix.IXON | unix.IXOFF
	case FlowControlHardware:
		termios.Cflag |= unix.CRTSCTS
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}

	return nil
}

// setExclusive toggles the kernel's exclusive-open mark (TIOCEXCL) for
// the device. Drivers that do not implement the ioctl report ENOTTY,
// which is treated as an unsupported capability rather than a failure.
func (h *handle) setExclusive(exclusive bool) error {
	req := uint(unix.TIOCNXCL)
	if exclusive {
		req = unix.TIOCEXCL
	}

	err := unix.IoctlSetInt(h.fd, req, 0)
	if errors.Is(err, unix.ENOTTY) {
		return nil
	}
	return err
}

// clone duplicates the handle so read and write halves can be owned by
// separate goroutines. Both descriptors reference the same open device.
func (h *handle) clone() (*handle, error) {
	fd, err := unix.Dup(h.fd)
	if err != nil {
		return nil, fmt.Errorf("failed to clone handle for %s: %w", h.path, err)
	}
	return &handle{fd: fd, path: h.path}, nil
}

// readTimeout waits up to timeout for data and performs a single read.
// A timeout, EINTR or EAGAIN yields (0, nil): no data arrived this
// attempt. Device loss (POLLERR/POLLHUP/POLLNVAL or a failing read)
// is reported as an error wrapping ErrReadFailed.
func (h *handle) readTimeout(buf []byte, timeout time.Duration) (int, error) {
	pfd := []unix.PollFd{
		{Fd: int32(h.fd), Events: unix.POLLIN},
	}

	n, err := unix.Poll(pfd, int(timeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: poll on %s: %v", ErrReadFailed, h.path, err)
	}
	if n == 0 {
		// Timed out, routine
		return 0, nil
	}

	if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return 0, fmt.Errorf("%w: %s is gone", ErrReadFailed, h.path)
	}

	nr, err := unix.Read(h.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read from %s: %v", ErrReadFailed, h.path, err)
	}
	return nr, nil
}

// writeAll writes the entire payload, retrying on short writes and EINTR
func (h *handle) writeAll(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(h.fd, data)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("%w: write to %s: %v", ErrWriteFailed, h.path, err)
		}
		data = data[n:]
	}
	return nil
}

// drain blocks until the kernel's output buffer has been transmitted
func (h *handle) drain() error {
	return unix.IoctlSetInt(h.fd, unix.TCSBRK, 1)
}

func (h *handle) close() error {
	return unix.Close(h.fd)
}
