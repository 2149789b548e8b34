package serial

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestReadSysfsFile tests the sysfs file reading helper
func TestReadSysfsFile(t *testing.T) {
	// Create a temporary directory for testing
	tmpDir, err := os.MkdirTemp("", "serial-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	tests := []struct {
		name     string
		content  string
		expected string
		setup    func(string) error
	}{
		{
			name:     "normal file",
			content:  "1234\n",
			expected: "1234",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("1234\n"), 0644)
			},
		},
		{
			name:     "file with spaces",
			content:  "  test value  \n",
			expected: "test value",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("  test value  \n"), 0644)
			},
		},
		{
			name:     "nonexistent file",
			expected: "",
			setup:    func(path string) error { return nil },
		},
		{
			name:     "empty file",
			content:  "",
			expected: "",
			setup: func(path string) error {
				return os.WriteFile(path, []byte(""), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if err := tt.setup(testFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			result := readSysfsFile(testFile)
			if result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// TestEnrichUSBInfo tests USB metadata extraction with a mock sysfs structure
func TestEnrichUSBInfo(t *testing.T) {
	// Create a temporary directory that mimics sysfs structure
	tmpDir, err := os.MkdirTemp("", "serial-sysfs-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create mock sysfs structure:
	// tmpDir/class/tty/ttyUSB0/device -> symlink to ../../devices/usb5/5-2.3.1/5-2.3.1:1.0/ttyUSB0
	// tmpDir/devices/usb5/5-2.3.1/5-2.3.1:1.0/ - interface directory
	// tmpDir/devices/usb5/5-2.3.1/ - USB device directory

	devicePath := filepath.Join(tmpDir, "devices", "usb5", "5-2.3.1")
	interfacePath := filepath.Join(devicePath, "5-2.3.1:1.0")
	ttyPath := filepath.Join(interfacePath, "ttyUSB0")
	classTtyPath := filepath.Join(tmpDir, "class", "tty", "ttyUSB0")

	// Create directory structure
	if err := os.MkdirAll(ttyPath, 0755); err != nil {
		t.Fatalf("Failed to create directory structure: %v", err)
	}
	if err := os.MkdirAll(classTtyPath, 0755); err != nil {
		t.Fatalf("Failed to create class/tty directory: %v", err)
	}

	// Create USB device metadata files
	deviceFiles := map[string]string{
		"idVendor":     "0403",
		"idProduct":    "6010",
		"serial":       "FT123456",
		"manufacturer": "FTDI",
		"product":      "FT2232C Dual USB-UART",
		"busnum":       "5",
		"devnum":       "7",
	}

	for filename, content := range deviceFiles {
		path := filepath.Join(devicePath, filename)
		if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", filename, err)
		}
	}

	// Create interface metadata file
	interfaceFile := filepath.Join(interfacePath, "bInterfaceNumber")
	if err := os.WriteFile(interfaceFile, []byte("00\n"), 0644); err != nil {
		t.Fatalf("Failed to write interface number: %v", err)
	}

	// Create symlink from class/tty/ttyUSB0/device to ttyUSB0 directory
	symlinkPath := filepath.Join(classTtyPath, "device")
	if err := os.Symlink(ttyPath, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	// Point metadata extraction at the mock tree
	oldRoot := sysfsRoot
	sysfsRoot = tmpDir
	defer func() { sysfsRoot = oldRoot }()

	info := &PortInfo{
		Name: "ttyUSB0",
		Path: "/dev/ttyUSB0",
	}

	enrichUSBInfo(info)

	// Verify all fields were populated correctly
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"VendorID", info.VendorID, "0403"},
		{"ProductID", info.ProductID, "6010"},
		{"SerialNumber", info.SerialNumber, "FT123456"},
		{"InterfaceNumber", info.InterfaceNumber, "00"},
		{"BusNumber", info.BusNumber, "5"},
		{"DeviceNumber", info.DeviceNumber, "7"},
		{"Manufacturer", info.Manufacturer, "FTDI"},
		{"Product", info.Product, "FT2232C Dual USB-UART"},
	}

	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s = %q, expected %q", tt.name, tt.got, tt.expected)
		}
	}
}

// TestEnrichUSBInfoGracefulFailure tests that enrichUSBInfo handles missing files gracefully
func TestEnrichUSBInfoGracefulFailure(t *testing.T) {
	info := &PortInfo{
		Name: "ttyUSB999",
		Path: "/dev/ttyUSB999",
	}

	// This should not panic and should leave fields empty
	enrichUSBInfo(info)

	// All USB fields should be empty strings
	if info.VendorID != "" {
		t.Errorf("VendorID should be empty, got %q", info.VendorID)
	}
	if info.ProductID != "" {
		t.Errorf("ProductID should be empty, got %q", info.ProductID)
	}
	if info.SerialNumber != "" {
		t.Errorf("SerialNumber should be empty, got %q", info.SerialNumber)
	}
}

// TestUSBResetFormatting tests the USB path formatting logic
func TestUSBResetFormatting(t *testing.T) {
	tests := []struct {
		bus      string
		device   string
		expected string
	}{
		{"5", "7", "005/007"},
		{"1", "2", "001/002"},
		{"123", "456", "123/456"},
		{"1", "10", "001/010"},
	}

	for _, tt := range tests {
		formatted := formatUSBPath(tt.bus, tt.device)
		if formatted != tt.expected {
			t.Errorf("formatUSBPath(%q, %q) = %q, expected %q",
				tt.bus, tt.device, formatted, tt.expected)
		}
	}
}

// TestResetUSBDeviceBySerialNotFound tests error handling when device not found
func TestResetUSBDeviceBySerialNotFound(t *testing.T) {
	// This should return an error since the device won't be found
	err := ResetUSBDeviceBySerial("NONEXISTENT_SERIAL")
	if err == nil {
		t.Error("Expected error for nonexistent serial number")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}

// TestIsUSBResetAvailable tests the availability check
func TestIsUSBResetAvailable(t *testing.T) {
	// We can't guarantee usbreset is or isn't installed, but we can verify
	// the function returns a boolean and doesn't panic
	available := IsUSBResetAvailable()
	t.Logf("usbreset available: %v", available)

	// The function should always return either true or false
	if available != true && available != false {
		t.Error("IsUSBResetAvailable should return a boolean")
	}
}
