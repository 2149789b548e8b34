package serial

import (
	"os"
	"path/filepath"
	"strings"
)

// sysfsRoot is a variable so tests can point metadata extraction at a
// mock sysfs tree
var sysfsRoot = "/sys"

// readSysfsFile reads a single sysfs attribute, trimmed of whitespace.
// Missing or unreadable attributes yield an empty string; sysfs content
// is best-effort metadata, never an error.
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// enrichUSBInfo populates USB metadata from sysfs.
//
// /sys/class/tty/<name>/device is a symlink into the USB interface
// directory; its parent is the USB device directory carrying idVendor,
// idProduct, serial, manufacturer, product and bus/device numbers.
// Any missing piece is left empty.
func enrichUSBInfo(info *PortInfo) {
	devicePath := filepath.Join(sysfsRoot, "class", "tty", info.Name, "device")
	resolvedPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return
	}

	interfacePath := filepath.Dir(resolvedPath)
	info.InterfaceNumber = readSysfsFile(filepath.Join(interfacePath, "bInterfaceNumber"))

	usbDevicePath := filepath.Dir(interfacePath)
	info.VendorID = readSysfsFile(filepath.Join(usbDevicePath, "idVendor"))
	info.ProductID = readSysfsFile(filepath.Join(usbDevicePath, "idProduct"))
	info.SerialNumber = readSysfsFile(filepath.Join(usbDevicePath, "serial"))
	info.Manufacturer = readSysfsFile(filepath.Join(usbDevicePath, "manufacturer"))
	info.Product = readSysfsFile(filepath.Join(usbDevicePath, "product"))
	info.BusNumber = readSysfsFile(filepath.Join(usbDevicePath, "busnum"))
	info.DeviceNumber = readSysfsFile(filepath.Join(usbDevicePath, "devnum"))
}

// isPCIPort reports whether an on-board tty sits on the PCI bus by
// following its sysfs device link
func isPCIPort(name string) bool {
	devicePath := filepath.Join(sysfsRoot, "class", "tty", name, "device")
	resolvedPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return false
	}
	return strings.Contains(resolvedPath, "/pci")
}
