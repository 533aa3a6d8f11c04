//go:build linux

package linux

// ioctl number encoding (asm-generic):
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-29: argument size (size)
//	bits 30-31: direction (dir)

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14
	iocDirBits  = 2

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

// ioc constructs an ioctl number from direction, type, number, and size.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

// ior constructs a read ioctl number.
func ior(typ, nr, size uintptr) uintptr {
	return ioc(iocRead, typ, nr, size)
}

// iow constructs a write ioctl number.
func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

// iowr constructs a read/write ioctl number.
func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// ioctl constructs an ioctl number with no data transfer.
func ioctl(typ, nr uintptr) uintptr {
	return ioc(iocNone, typ, nr, 0)
}

// usbdevfs ioctl type character.
const usbdevfsType = 'U'

// usbdevfs ioctl command numbers.
const (
	ioctlControl          = 0
	ioctlBulk             = 2
	ioctlResetEP          = 3
	ioctlClaimInterface   = 15
	ioctlReleaseInterface = 16
	ioctlConnectInfo      = 17
	ioctlReset            = 20
	ioctlDisconnect       = 22
	ioctlConnect          = 23
	ioctlGetCapabilities  = 26
)

// Size constants for ioctl argument structures on 64-bit platforms,
// where trailing data pointers are 8 bytes and 8-byte aligned.
const (
	sizeofCtrlTransfer = 24 // struct usbdevfs_ctrltransfer
	sizeofBulkTransfer = 24 // struct usbdevfs_bulktransfer
	sizeofInt          = 4
)

// Usbdevfs ioctl numbers, computed with the _IOC macros above.
var (
	ioctlUsbdevfsControl          = iowr(usbdevfsType, ioctlControl, sizeofCtrlTransfer)
	ioctlUsbdevfsBulk             = iowr(usbdevfsType, ioctlBulk, sizeofBulkTransfer)
	ioctlUsbdevfsResetEP          = ior(usbdevfsType, ioctlResetEP, sizeofInt)
	ioctlUsbdevfsClaimInterface   = ior(usbdevfsType, ioctlClaimInterface, sizeofInt)
	ioctlUsbdevfsReleaseInterface = ior(usbdevfsType, ioctlReleaseInterface, sizeofInt)
	ioctlUsbdevfsConnectInfo      = iow(usbdevfsType, ioctlConnectInfo, 8)
	ioctlUsbdevfsReset            = ioctl(usbdevfsType, ioctlReset)
	ioctlUsbdevfsDisconnect       = ioctl(usbdevfsType, ioctlDisconnect)
	ioctlUsbdevfsConnect          = ioctl(usbdevfsType, ioctlConnect)
	ioctlUsbdevfsGetCapabilities  = ior(usbdevfsType, ioctlGetCapabilities, sizeofInt)
)
