// Package linux implements the hal transport on Linux using sysfs for
// device discovery and the usbfs character devices (/dev/bus/usb) for
// control and bulk transfers.
//
// No libusb is involved: enumeration reads sysfs attribute files and
// transfers are synchronous usbdevfs ioctls. Claiming an interface
// detaches the kernel DVB driver (dvb_usb_rtl28xxu) via the usbfs
// disconnect ioctl, so the process needs read/write access to the
// device node but no other privileges.
package linux
