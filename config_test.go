package serial

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", config.FlowControl)
	}

	if config.ReadTimeout != 10*time.Millisecond {
		t.Errorf("Expected ReadTimeout 10ms, got %v", config.ReadTimeout)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	err := WithBaudRate(9600)(&config)
	if err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	err = WithDataBits(7)(&config)
	if err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	err = WithStopBits(2)(&config)
	if err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	err = WithParity(ParityEven)(&config)
	if err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	err = WithFlowControl(FlowControlHardware)(&config)
	if err != nil {
		t.Errorf("WithFlowControl failed: %v", err)
	}
	if config.FlowControl != FlowControlHardware {
		t.Errorf("Expected FlowControl Hardware, got %v", config.FlowControl)
	}

	err = WithReadTimeout(50 * time.Millisecond)(&config)
	if err != nil {
		t.Errorf("WithReadTimeout failed: %v", err)
	}
	if config.ReadTimeout != 50*time.Millisecond {
		t.Errorf("Expected ReadTimeout 50ms, got %v", config.ReadTimeout)
	}
}

// Partial options must leave every unrelated field at its default
func TestPartialOptionsKeepDefaults(t *testing.T) {
	config := DefaultConfig()

	if err := WithBaudRate(9600)(&config); err != nil {
		t.Fatalf("WithBaudRate failed: %v", err)
	}

	defaults := DefaultConfig()
	if config.DataBits != defaults.DataBits {
		t.Errorf("DataBits changed: got %d", config.DataBits)
	}
	if config.StopBits != defaults.StopBits {
		t.Errorf("StopBits changed: got %d", config.StopBits)
	}
	if config.Parity != defaults.Parity {
		t.Errorf("Parity changed: got %v", config.Parity)
	}
	if config.FlowControl != defaults.FlowControl {
		t.Errorf("FlowControl changed: got %v", config.FlowControl)
	}
	if config.ReadTimeout != defaults.ReadTimeout {
		t.Errorf("ReadTimeout changed: got %v", config.ReadTimeout)
	}
}

func TestInvalidBaudRate(t *testing.T) {
	config := DefaultConfig()
	err := WithBaudRate(123456)(&config)
	if err == nil {
		t.Error("Expected error for invalid baud rate")
	}
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestInvalidDataBits(t *testing.T) {
	config := DefaultConfig()
	err := WithDataBits(9)(&config)
	if err == nil {
		t.Error("Expected error for invalid data bits")
	}
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidStopBits(t *testing.T) {
	config := DefaultConfig()
	err := WithStopBits(3)(&config)
	if err == nil {
		t.Error("Expected error for invalid stop bits")
	}
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidReadTimeout(t *testing.T) {
	config := DefaultConfig()
	err := WithReadTimeout(-time.Second)(&config)
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithNilDispatcher(t *testing.T) {
	config := DefaultConfig()
	err := WithDispatcher(nil)(&config)
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		input    int
		hasError bool
	}{
		{115200, false},
		{9600, false},
		{57600, false},
		{123456, true}, // Invalid baud rate
	}

	for _, test := range tests {
		result, err := getBaudRate(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("Expected error for baud rate %d", test.input)
			}
			if err != ErrInvalidBaudRate {
				t.Errorf("Expected ErrInvalidBaudRate for %d, got %v", test.input, err)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for baud rate %d: %v", test.input, err)
			}
			if result == 0 {
				t.Errorf("Got zero result for valid baud rate %d", test.input)
			}
		}
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := Open("/dev/nonexistent")
	if err == nil {
		t.Error("Expected error when opening non-existent device")
	}
}

func TestOpenInvalidOption(t *testing.T) {
	_, err := Open("/dev/null", WithBaudRate(123456))
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}
