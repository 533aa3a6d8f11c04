//go:build linux

package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/softrtl/rtl2832/rtl/hal"
)

// System paths.
const (
	// SysfsUSBPath is the base path for USB devices in sysfs.
	SysfsUSBPath = "/sys/bus/usb/devices"

	// DevfsUSBPath is the base path for USB device nodes.
	DevfsUSBPath = "/dev/bus/usb"
)

// scanDevices scans sysfs for connected USB devices and returns their
// descriptors in stable (sorted sysfs name) order.
func scanDevices() ([]hal.DeviceInfo, error) {
	entries, err := os.ReadDir(SysfsUSBPath)
	if err != nil {
		return nil, err
	}

	var devices []hal.DeviceInfo
	for _, entry := range entries {
		name := entry.Name()

		// USB devices have names like "1-1", "1-1.2". Skip root hubs
		// (usb1, usb2, ...) and interface entries (1-1:1.0).
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}

		info, err := parseDevice(filepath.Join(SysfsUSBPath, name))
		if err != nil {
			continue // Skip devices we can't parse
		}
		info.Index = len(devices)
		devices = append(devices, info)
	}

	return devices, nil
}

// parseDevice reads one device's descriptors from its sysfs directory.
func parseDevice(sysfsPath string) (hal.DeviceInfo, error) {
	var info hal.DeviceInfo

	busNum, err := readSysfsUint8(filepath.Join(sysfsPath, "busnum"))
	if err != nil {
		return info, err
	}
	info.BusNumber = busNum

	devNum, err := readSysfsUint8(filepath.Join(sysfsPath, "devnum"))
	if err != nil {
		return info, err
	}
	info.DeviceAddress = devNum

	vendorID, err := readSysfsHexUint16(filepath.Join(sysfsPath, "idVendor"))
	if err != nil {
		return info, err
	}
	info.VendorID = vendorID

	productID, err := readSysfsHexUint16(filepath.Join(sysfsPath, "idProduct"))
	if err != nil {
		return info, err
	}
	info.ProductID = productID

	// String attributes are optional; many dongles omit the serial.
	if s, err := readSysfsString(filepath.Join(sysfsPath, "manufacturer")); err == nil {
		info.Manufacturer = s
	}
	if s, err := readSysfsString(filepath.Join(sysfsPath, "product")); err == nil {
		info.Product = s
	}
	if s, err := readSysfsString(filepath.Join(sysfsPath, "serial")); err == nil {
		info.Serial = s
	}

	return info, nil
}

// devfsPath constructs the /dev/bus/usb node path for a device.
func devfsPath(busNum, devNum uint8) string {
	return fmt.Sprintf("%s/%03d/%03d", DevfsUSBPath, busNum, devNum)
}

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsUint8 reads an unsigned decimal uint8 from a sysfs attribute file.
func readSysfsUint8(path string) (uint8, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// readSysfsHexUint16 reads a hexadecimal uint16 from a sysfs attribute file.
func readSysfsHexUint16(path string) (uint16, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
