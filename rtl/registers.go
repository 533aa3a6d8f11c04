package rtl

import (
	"context"
	"fmt"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
)

// Demodulator register pages the driver touches. Page 0x0a is the
// status page read back after every demod write.
const (
	demodPageMax    uint16 = 0x0a
	demodStatusPage uint16 = 0x0a
	demodStatusReg  uint16 = 0x01
)

func validBlock(block uint16) bool {
	return block <= BlockIIC
}

func validDemodPage(page uint16) bool {
	return page <= 1 || page == demodPageMax
}

// ReadReg reads a 1 or 2 byte register from a block. Multi-byte values
// arrive little endian; writes go out big endian. The asymmetry is the
// chip's, not ours.
func (d *Device) ReadReg(ctx context.Context, block, addr uint16, length int) (uint16, error) {
	if !validBlock(block) {
		return 0, fmt.Errorf("read block %d: %w", block, pkg.ErrInvalidAddress)
	}
	if length != 1 && length != 2 {
		return 0, fmt.Errorf("read block %d reg %#04x: length %d: %w", block, addr, length, pkg.ErrInvalidAddress)
	}
	var data [2]byte
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorIn,
		Value:       addr,
		Index:       block << 8,
	}
	if _, err := d.handle.ControlIn(ctx, &req, data[:length]); err != nil {
		return 0, fmt.Errorf("read block %d reg %#04x: %w", block, addr, err)
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

// WriteReg writes a 1 or 2 byte register value to a block.
func (d *Device) WriteReg(ctx context.Context, block, addr uint16, val uint16, length int) error {
	if !validBlock(block) {
		return fmt.Errorf("write block %d: %w", block, pkg.ErrInvalidAddress)
	}
	if length != 1 && length != 2 {
		return fmt.Errorf("write block %d reg %#04x: length %d: %w", block, addr, length, pkg.ErrInvalidAddress)
	}
	data := [2]byte{byte(val >> 8), byte(val)}
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorOut,
		Value:       addr,
		Index:       block<<8 | 0x10,
	}
	if _, err := d.handle.ControlOut(ctx, &req, data[2-length:]); err != nil {
		return fmt.Errorf("write block %d reg %#04x: %w", block, addr, err)
	}
	return nil
}

// DemodReadReg reads one byte from a demodulator register page.
func (d *Device) DemodReadReg(ctx context.Context, page, addr uint16) (uint8, error) {
	if !validDemodPage(page) {
		return 0, fmt.Errorf("demod read page %#02x: %w", page, pkg.ErrInvalidAddress)
	}
	var data [1]byte
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorIn,
		Value:       addr<<8 | 0x20,
		Index:       page,
	}
	if _, err := d.handle.ControlIn(ctx, &req, data[:]); err != nil {
		return 0, fmt.Errorf("demod read page %#02x reg %#02x: %w", page, addr, err)
	}
	return data[0], nil
}

// DemodWriteReg writes a 1 or 2 byte demodulator register, then reads
// the status page back to latch the write.
func (d *Device) DemodWriteReg(ctx context.Context, page, addr uint16, val uint16, length int) error {
	if !validDemodPage(page) {
		return fmt.Errorf("demod write page %#02x: %w", page, pkg.ErrInvalidAddress)
	}
	if length != 1 && length != 2 {
		return fmt.Errorf("demod write page %#02x reg %#02x: length %d: %w", page, addr, length, pkg.ErrInvalidAddress)
	}
	data := [2]byte{byte(val >> 8), byte(val)}
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorOut,
		Value:       addr<<8 | 0x20,
		Index:       0x10 | page,
	}
	if _, err := d.handle.ControlOut(ctx, &req, data[2-length:]); err != nil {
		return fmt.Errorf("demod write page %#02x reg %#02x: %w", page, addr, err)
	}
	if _, err := d.DemodReadReg(ctx, demodStatusPage, demodStatusReg); err != nil {
		return fmt.Errorf("demod write page %#02x reg %#02x: status: %w", page, addr, err)
	}
	return nil
}

// ReadArray fills buf from consecutive block bytes starting at addr.
func (d *Device) ReadArray(ctx context.Context, block, addr uint16, buf []byte) (int, error) {
	if !validBlock(block) {
		return 0, fmt.Errorf("read array block %d: %w", block, pkg.ErrInvalidAddress)
	}
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorIn,
		Value:       addr,
		Index:       block << 8,
	}
	return d.handle.ControlIn(ctx, &req, buf)
}

// WriteArray sends buf to consecutive block bytes starting at addr.
func (d *Device) WriteArray(ctx context.Context, block, addr uint16, buf []byte) (int, error) {
	if !validBlock(block) {
		return 0, fmt.Errorf("write array block %d: %w", block, pkg.ErrInvalidAddress)
	}
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorOut,
		Value:       addr,
		Index:       block<<8 | 0x10,
	}
	return d.handle.ControlOut(ctx, &req, buf)
}

// resetDemod pulses the demodulator soft reset bit.
func (d *Device) resetDemod(ctx context.Context) error {
	if err := d.DemodWriteReg(ctx, 1, 0x01, 0x14, 1); err != nil {
		return err
	}
	return d.DemodWriteReg(ctx, 1, 0x01, 0x10, 1)
}

// testWrite probes endpoint 0 with a harmless register write and port
// resets the device if the data stage went missing.
func (d *Device) testWrite(ctx context.Context) error {
	data := [1]byte{0x09}
	req := hal.ControlRequest{
		RequestType: hal.RequestTypeVendorOut,
		Value:       USBSysCtl,
		Index:       BlockUSB<<8 | 0x10,
	}
	n, err := d.handle.ControlOut(ctx, &req, data[:])
	if err != nil {
		return fmt.Errorf("test write: %w", err)
	}
	if n == 0 {
		pkg.LogWarn(pkg.ComponentDevice, "test write returned no data, resetting device")
		if err := d.handle.Reset(); err != nil {
			return fmt.Errorf("reset after failed test write: %w", err)
		}
	}
	return nil
}
