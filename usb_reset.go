package serial

import (
	"fmt"
	"os/exec"
	"time"
)

// ResetUSBDevice performs a USB-level reset of the device behind a
// serial port. This can recover hardware that is in a hung or
// unresponsive state.
//
// Requires the usbreset utility (usbutils package) and permissions to
// reset the device, typically root. Returns ErrUSBResetNotAvailable if
// the utility is missing and ErrUSBInfoNotAvailable if the port is not
// USB-attached or its bus position could not be read from sysfs.
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	// usbreset expects zero-padded 3-digit bus and device numbers
	cmd := exec.Command("usbreset", formatUSBPath(info.BusNumber, info.DeviceNumber))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	// USB devices typically take 1-2 seconds to re-enumerate
	time.Sleep(2 * time.Second)

	return nil
}

// ResetUSBDeviceBySerial resets a USB device by its serial number.
// Useful when device paths change after reboot or when multiple devices
// are connected.
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// IsUSBResetAvailable checks if the usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}

// formatUSBPath renders a bus/device pair in the BBB/DDD form usbreset expects
func formatUSBPath(bus, device string) string {
	for len(bus) < 3 {
		bus = "0" + bus
	}
	for len(device) < 3 {
		device = "0" + device
	}
	return bus + "/" + device
}
