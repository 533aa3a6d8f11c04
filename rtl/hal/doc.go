// Package hal defines the USB transport capability consumed by the rtl2832
// driver core: blocking control and bulk transfers, interface claiming, and
// descriptor-based enumeration.
//
// The core depends only on the Transport and DeviceHandle interfaces.
// Platform implementations live in subpackages: linux (sysfs + usbfs) for
// real hardware, sim for a deterministic in-memory device model used by
// tests and demos.
package hal
