//go:build linux

package linux

import (
	"context"
	"fmt"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
)

// transferTimeoutMS is the usbfs timeout applied to every control transfer.
const transferTimeoutMS = 300

// bulkTimeoutMS is the usbfs timeout applied to bulk reads. Long enough
// for a full sample block at the lowest supported rate.
const bulkTimeoutMS = 3000

// Transport implements hal.Transport over sysfs and usbfs.
type Transport struct{}

// New returns the Linux transport.
func New() *Transport {
	return &Transport{}
}

// Devices lists all connected USB devices discovered via sysfs.
func (t *Transport) Devices(ctx context.Context) ([]hal.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scanDevices()
}

// Open opens and returns an exclusive handle to the described device.
func (t *Transport) Open(ctx context.Context, info hal.DeviceInfo) (hal.DeviceHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := devfsPath(info.BusNumber, info.DeviceAddress)
	fd, err := openDevice(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	pkg.LogDebug(pkg.ComponentHAL, "opened device node", "path", path, "fd", fd)
	return &deviceHandle{fd: fd}, nil
}

// OpenFileDescriptor wraps a pre-opened usbfs file descriptor. The caller
// retains responsibility for having opened the correct node; ownership of
// the descriptor transfers to the returned handle.
func (t *Transport) OpenFileDescriptor(ctx context.Context, fd uintptr) (hal.DeviceHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &deviceHandle{fd: int(fd)}, nil
}

// deviceHandle implements hal.DeviceHandle over a usbfs file descriptor.
type deviceHandle struct {
	fd      int
	claimed []uint8
}

// ClaimInterface detaches the kernel driver (if any) and claims the
// interface. usbfs enforces claim exclusivity across processes.
func (d *deviceHandle) ClaimInterface(iface uint8) error {
	// Detach dvb_usb_rtl28xxu or similar; ENODATA here just means no
	// driver was bound.
	if err := disconnectDriver(d.fd, iface); err != nil {
		pkg.LogDebug(pkg.ComponentHAL, "driver disconnect", "iface", iface, "err", err)
	}
	if err := claimInterface(d.fd, iface); err != nil {
		if isBusy(err) {
			return fmt.Errorf("claim interface %d: %w", iface, pkg.ErrBusy)
		}
		return fmt.Errorf("claim interface %d: %w", iface, err)
	}
	d.claimed = append(d.claimed, iface)
	return nil
}

// ReleaseInterface releases the interface and reconnects the kernel driver.
func (d *deviceHandle) ReleaseInterface(iface uint8) error {
	if err := releaseInterface(d.fd, iface); err != nil {
		return fmt.Errorf("release interface %d: %w", iface, err)
	}
	for i, c := range d.claimed {
		if c == iface {
			d.claimed = append(d.claimed[:i], d.claimed[i+1:]...)
			break
		}
	}
	// Best effort; the driver may already be gone.
	_ = connectDriver(d.fd, iface)
	return nil
}

// Reset performs a USB port reset.
func (d *deviceHandle) Reset() error {
	return resetDevice(d.fd)
}

// ControlIn performs a device-to-host control transfer.
func (d *deviceHandle) ControlIn(ctx context.Context, req *hal.ControlRequest, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := doControlTransfer(d.fd, req.RequestType, req.Request, req.Value, req.Index, data, transferTimeoutMS)
	return n, mapTransferError(err)
}

// ControlOut performs a host-to-device control transfer.
func (d *deviceHandle) ControlOut(ctx context.Context, req *hal.ControlRequest, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := doControlTransfer(d.fd, req.RequestType, req.Request, req.Value, req.Index, data, transferTimeoutMS)
	return n, mapTransferError(err)
}

// BulkIn reads from an IN bulk endpoint. A stalled endpoint is reset once
// so a subsequent read can recover, matching the reference driver's
// reset-buffer behavior.
func (d *deviceHandle) BulkIn(ctx context.Context, endpoint uint8, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := doBulkTransfer(d.fd, endpoint, data, bulkTimeoutMS)
	if err != nil && isPipe(err) {
		_ = resetEndpoint(d.fd, endpoint)
	}
	return n, mapTransferError(err)
}

// Close releases claimed interfaces and the file descriptor.
func (d *deviceHandle) Close() error {
	if d.fd < 0 {
		return nil
	}
	for _, iface := range d.claimed {
		_ = releaseInterface(d.fd, iface)
		_ = connectDriver(d.fd, iface)
	}
	d.claimed = nil
	err := closeDevice(d.fd)
	d.fd = -1
	return err
}

// mapTransferError converts usbfs errnos to the driver error vocabulary.
func mapTransferError(err error) error {
	switch {
	case err == nil:
		return nil
	case isPipe(err):
		return fmt.Errorf("%w: %w", pkg.ErrStall, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %w", pkg.ErrTimeout, err)
	case isNoDevice(err):
		return fmt.Errorf("%w: %w", pkg.ErrTransport, err)
	default:
		return fmt.Errorf("%w: %w", pkg.ErrTransport, err)
	}
}
