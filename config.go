package serial

import "time"

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone     FlowControl = iota
	FlowControlSoftware             // XON/XOFF
	FlowControlHardware             // RTS/CTS
)

// Config holds the configuration for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
	ReadTimeout time.Duration // Bounds each read attempt in the worker
	Dispatcher  Dispatcher    // Delivers observer callbacks; nil means direct invocation
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
// Every field is populated; supplying partial options never leaves
// an unset field behind.
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
		ReadTimeout: 10 * time.Millisecond,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout bounds each read attempt made by the worker.
// Shorter timeouts make Close more responsive at the cost of more
// wakeups; zero means each read attempt polls without waiting.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = d
		return nil
	}
}

// WithDispatcher sets the mechanism used to deliver observer callbacks
// into the caller's execution context
func WithDispatcher(d Dispatcher) Option {
	return func(c *Config) error {
		if d == nil {
			return ErrInvalidConfig
		}
		c.Dispatcher = d
		return nil
	}
}
