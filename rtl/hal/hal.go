package hal

import (
	"context"
	"fmt"
)

// Vendor control request types (bmRequestType). The RTL2832 speaks only
// vendor requests on endpoint 0.
const (
	RequestTypeVendorIn  uint8 = 0xc0 // device-to-host
	RequestTypeVendorOut uint8 = 0x40 // host-to-device
)

// ControlRequest describes the fixed fields of a USB control transfer.
// The data stage buffer is passed alongside.
type ControlRequest struct {
	RequestType uint8  // Request characteristics (direction, type, recipient)
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
}

// DeviceInfo identifies one connected USB device as seen by a Transport.
type DeviceInfo struct {
	Index         int    // Position in enumeration order
	BusNumber     uint8  // USB bus number
	DeviceAddress uint8  // Device number on the bus
	VendorID      uint16 // idVendor
	ProductID     uint16 // idProduct
	Manufacturer  string // Manufacturer string descriptor, may be empty
	Product       string // Product string descriptor, may be empty
	Serial        string // Serial string descriptor, may be empty
}

// String returns a short human-readable identification.
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%03d:%03d %04x:%04x %q", d.BusNumber, d.DeviceAddress,
		d.VendorID, d.ProductID, d.Serial)
}

// Transport is the USB transport capability consumed by the driver core.
// Implementations enumerate connected devices and open claimed handles;
// the core never touches the bus directly.
type Transport interface {
	// Devices lists all connected USB devices with their descriptors.
	// No device is opened or claimed.
	Devices(ctx context.Context) ([]DeviceInfo, error)

	// Open opens the device described by info and returns an exclusive
	// handle. Claim exclusivity is enforced here, not by the caller.
	Open(ctx context.Context, info DeviceInfo) (DeviceHandle, error)

	// OpenFileDescriptor wraps a pre-opened device node file descriptor,
	// for platforms where the caller performs permission handling.
	OpenFileDescriptor(ctx context.Context, fd uintptr) (DeviceHandle, error)
}

// DeviceHandle is an open USB device. All transfers are synchronous and
// block the calling goroutine until completion or error.
type DeviceHandle interface {
	// ClaimInterface claims exclusive access to an interface, detaching
	// any kernel driver first where the platform requires it.
	ClaimInterface(iface uint8) error

	// ReleaseInterface releases a previously claimed interface.
	ReleaseInterface(iface uint8) error

	// Reset performs a USB port reset of the device.
	Reset() error

	// ControlIn performs a device-to-host control transfer, filling data.
	// Returns the number of bytes received in the data stage.
	ControlIn(ctx context.Context, req *ControlRequest, data []byte) (int, error)

	// ControlOut performs a host-to-device control transfer sending data.
	// Returns the number of bytes sent in the data stage.
	ControlOut(ctx context.Context, req *ControlRequest, data []byte) (int, error)

	// BulkIn reads from an IN bulk endpoint into data.
	// Returns the number of bytes received.
	BulkIn(ctx context.Context, endpoint uint8, data []byte) (int, error)

	// Close releases the handle and any claimed interfaces.
	Close() error
}
