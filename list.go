package serial

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// PortKind classifies how a serial port is attached to the host
type PortKind int

const (
	PortKindUnknown PortKind = iota
	PortKindUSB
	PortKindBluetooth
	PortKindPCI
)

func (k PortKind) String() string {
	switch k {
	case PortKindUSB:
		return "USB"
	case PortKindBluetooth:
		return "Bluetooth"
	case PortKindPCI:
		return "PCI"
	default:
		return "Unknown"
	}
}

// ListPorts returns a list of available serial ports on the system.
// Filters for communication-capable devices and excludes virtual
// terminals. An empty list with a nil error means no ports are present.
func ListPorts() ([]string, error) {
	ports := []string{}

	devDir := "/dev"
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	// Regular expressions for different types of serial devices
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
		regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
		regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
		regexp.MustCompile(`^rfcomm\d+$`), // Bluetooth RFCOMM devices
	}

	// Exclude patterns for virtual terminals and other non-serial devices
	excludePatterns := []*regexp.Regexp{
		regexp.MustCompile(`^tty\d+$`),  // Virtual terminals (tty1, tty2, etc.)
		regexp.MustCompile(`^console$`), // Console
		regexp.MustCompile(`^ptmx$`),    // Pseudo-terminal multiplexer
		regexp.MustCompile(`^pty.*$`),   // Pseudo-terminals
		regexp.MustCompile(`^pts/.*$`),  // Pseudo-terminal slaves
	}

	for _, entry := range entries {
		name := entry.Name()

		excluded := false
		for _, excludePattern := range excludePatterns {
			if excludePattern.MatchString(name) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		matched := false
		for _, pattern := range patterns {
			if pattern.MatchString(name) {
				matched = true
				break
			}
		}

		if matched {
			fullPath := filepath.Join(devDir, name)

			// Verify it's a character device (not a directory or regular file)
			if isCharacterDevice(fullPath) {
				ports = append(ports, fullPath)
			}
		}
	}

	// Sort the ports for consistent ordering
	sort.Strings(ports)

	return ports, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	mode := info.Mode()
	return mode&os.ModeCharDevice != 0
}

// PortInfo describes a serial port found by enumeration. It is a
// snapshot: the device may vanish between enumeration and Open.
type PortInfo struct {
	Name        string
	Path        string
	Kind        PortKind
	Description string

	// USB metadata, populated from sysfs for PortKindUSB ports
	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)

	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Kind:        classifyPortKind(name),
		Description: getPortDescription(name),
	}

	if info.Kind == PortKindUSB {
		enrichUSBInfo(info)
	}

	return info, nil
}

// classifyPortKind determines the attachment kind from the device name
// and, for on-board ports, the sysfs device subsystem
func classifyPortKind(name string) PortKind {
	switch {
	case strings.HasPrefix(name, "ttyUSB"), strings.HasPrefix(name, "ttyACM"):
		return PortKindUSB
	case strings.HasPrefix(name, "rfcomm"):
		return PortKindBluetooth
	case strings.HasPrefix(name, "ttyS"):
		if isPCIPort(name) {
			return PortKindPCI
		}
		return PortKindUnknown
	default:
		return PortKindUnknown
	}
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "rfcomm"):
		return "Bluetooth Serial Port"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}
