package models

import (
	"sync"

	serial "github.com/svmnotn/native-serial"
	"github.com/svmnotn/native-serial/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

type ConnectionStatusMsg struct {
	Connected bool
	Error     error
}

// DeviceErrorMsg carries a worker error surfaced through the error
// observer
type DeviceErrorMsg struct {
	Err error
}

// DeviceModel holds the shared state for TUI commands that talk to a
// serial device. Incoming data and errors arrive via the device's
// observers rather than a read loop owned by the UI.
type DeviceModel struct {
	device   *serial.Device
	portPath string

	connected bool
	rawData   []components.DataReceivedMsg
	err       error
	ready     bool

	inputMode InputMode

	mu sync.RWMutex
}

func NewDeviceModel(portPath string) *DeviceModel {
	return &DeviceModel{
		portPath:  portPath,
		rawData:   make([]components.DataReceivedMsg, 0),
		inputMode: InputModeNormal,
	}
}

func (m *DeviceModel) GetDevice() *serial.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

func (m *DeviceModel) SetDevice(device *serial.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device = device
}

func (m *DeviceModel) GetPortPath() string {
	return m.portPath
}

func (m *DeviceModel) IsConnected() bool {
	return m.connected
}

func (m *DeviceModel) SetConnected(connected bool) {
	m.connected = connected
}

func (m *DeviceModel) GetError() error {
	return m.err
}

func (m *DeviceModel) SetError(err error) {
	m.err = err
}

func (m *DeviceModel) IsReady() bool {
	return m.ready
}

func (m *DeviceModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *DeviceModel) GetRawData() []components.DataReceivedMsg {
	return m.rawData
}

func (m *DeviceModel) AddRawData(msg components.DataReceivedMsg) {
	m.rawData = append(m.rawData, msg)
}

func (m *DeviceModel) ClearData() {
	m.rawData = make([]components.DataReceivedMsg, 0)
}

func (m *DeviceModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *DeviceModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *DeviceModel) IsInInsertMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeInsert
}

// Cleanup releases the device. Close flushes any queued writes and
// detaches observers, so no UI message arrives afterwards.
func (m *DeviceModel) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Close()
		m.device = nil
	}
}
