//go:build linux

package linux

import (
	"syscall"
	"unsafe"
)

// ctrlTransfer matches the kernel's struct usbdevfs_ctrltransfer layout.
type ctrlTransfer struct {
	requestType uint8   // bmRequestType
	request     uint8   // bRequest
	value       uint16  // wValue
	index       uint16  // wIndex
	length      uint16  // wLength
	timeout     uint32  // Timeout in milliseconds
	_           uint32  // Padding to 8-byte pointer alignment
	data        uintptr // Data buffer pointer
}

// bulkTransfer matches the kernel's struct usbdevfs_bulktransfer layout.
type bulkTransfer struct {
	endpoint uint32  // Endpoint address
	length   uint32  // Data length
	timeout  uint32  // Timeout in milliseconds
	_        uint32  // Padding to 8-byte pointer alignment
	data     uintptr // Data buffer pointer
}

// openDevice opens a USB device node for read/write access.
func openDevice(path string) (int, error) {
	return syscall.Open(path, syscall.O_RDWR|syscall.O_CLOEXEC, 0)
}

// closeDevice closes a device file descriptor.
func closeDevice(fd int) error {
	return syscall.Close(fd)
}

// ioctlRaw performs a raw ioctl syscall.
func ioctlRaw(fd int, req uintptr, arg uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// ioctlRetval performs an ioctl syscall and returns the result value.
func ioctlRetval(fd int, req uintptr, arg uintptr) (int, error) {
	r, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

// doControlTransfer performs a synchronous control transfer.
func doControlTransfer(fd int, reqType, req uint8, value, index uint16, data []byte, timeout uint32) (int, error) {
	ctrl := ctrlTransfer{
		requestType: reqType,
		request:     req,
		value:       value,
		index:       index,
		length:      uint16(len(data)),
		timeout:     timeout,
	}
	if len(data) > 0 {
		ctrl.data = uintptr(unsafe.Pointer(&data[0]))
	}

	return ioctlRetval(fd, ioctlUsbdevfsControl, uintptr(unsafe.Pointer(&ctrl)))
}

// doBulkTransfer performs a synchronous bulk transfer.
func doBulkTransfer(fd int, endpoint uint8, data []byte, timeout uint32) (int, error) {
	bulk := bulkTransfer{
		endpoint: uint32(endpoint),
		length:   uint32(len(data)),
		timeout:  timeout,
	}
	if len(data) > 0 {
		bulk.data = uintptr(unsafe.Pointer(&data[0]))
	}

	return ioctlRetval(fd, ioctlUsbdevfsBulk, uintptr(unsafe.Pointer(&bulk)))
}

// claimInterface claims exclusive access to an interface.
func claimInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlRaw(fd, ioctlUsbdevfsClaimInterface, uintptr(unsafe.Pointer(&ifaceNum)))
}

// releaseInterface releases a previously claimed interface.
func releaseInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlRaw(fd, ioctlUsbdevfsReleaseInterface, uintptr(unsafe.Pointer(&ifaceNum)))
}

// disconnectDriver disconnects the kernel driver from an interface.
func disconnectDriver(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlRaw(fd, ioctlUsbdevfsDisconnect, uintptr(unsafe.Pointer(&ifaceNum)))
}

// connectDriver reconnects the kernel driver to an interface.
func connectDriver(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlRaw(fd, ioctlUsbdevfsConnect, uintptr(unsafe.Pointer(&ifaceNum)))
}

// resetDevice resets the USB device.
func resetDevice(fd int) error {
	return ioctlRaw(fd, ioctlUsbdevfsReset, 0)
}

// resetEndpoint resets an endpoint.
func resetEndpoint(fd int, endpoint uint8) error {
	ep := uint32(endpoint)
	return ioctlRaw(fd, ioctlUsbdevfsResetEP, uintptr(unsafe.Pointer(&ep)))
}

// isNoDevice returns true if the error indicates the device was disconnected.
func isNoDevice(err error) bool {
	if errno, ok := err.(syscall.Errno); ok {
		return errno == syscall.ENODEV
	}
	return false
}

// isPipe returns true if the error indicates a stall (EPIPE).
func isPipe(err error) bool {
	if errno, ok := err.(syscall.Errno); ok {
		return errno == syscall.EPIPE
	}
	return false
}

// isTimeout returns true if the error indicates a transfer timeout.
func isTimeout(err error) bool {
	if errno, ok := err.(syscall.Errno); ok {
		return errno == syscall.ETIMEDOUT
	}
	return false
}

// isBusy returns true if the error indicates the interface is claimed.
func isBusy(err error) bool {
	if errno, ok := err.(syscall.Errno); ok {
		return errno == syscall.EBUSY
	}
	return false
}
