package rtl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/softrtl/rtl2832/pkg"
)

// I2C repeater gate values, demod page 1 reg 0x01. The tuner sits
// behind this gate; it must be open for any tunnel traffic.
const (
	i2cRepeaterOn  uint16 = 0x18
	i2cRepeaterOff uint16 = 0x10
)

// eepromWriteSettle paces EEPROM page writes, which the part acks only
// after its internal write cycle completes.
const eepromWriteSettle = 5 * time.Millisecond

// setI2CRepeater opens or closes the gate between the demodulator's
// I2C master and the tuner bus.
func (d *Device) setI2CRepeater(ctx context.Context, enable bool) error {
	val := i2cRepeaterOff
	if enable {
		val = i2cRepeaterOn
	}
	return d.DemodWriteReg(ctx, 1, 0x01, val, 1)
}

// withI2CRepeater runs fn with the repeater gate open, closing it again
// afterwards even when fn fails.
func (d *Device) withI2CRepeater(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := d.setI2CRepeater(ctx, true); err != nil {
		return err
	}
	ferr := fn(ctx)
	if cerr := d.setI2CRepeater(ctx, false); cerr != nil && ferr == nil {
		ferr = cerr
	}
	return ferr
}

// mapI2CError translates an endpoint stall, the demodulator's way of
// reporting an unacknowledged tunnel transaction, into a NACK.
func mapI2CError(err error) error {
	if errors.Is(err, pkg.ErrStall) {
		return fmt.Errorf("%w: %w", pkg.ErrI2CNack, err)
	}
	if errors.Is(err, pkg.ErrTimeout) {
		return fmt.Errorf("%w: %w", pkg.ErrI2CTimeout, err)
	}
	return err
}

// I2CWrite sends buf to a device on the tuner I2C bus. The repeater
// gate must already be open.
func (d *Device) I2CWrite(ctx context.Context, addr uint8, buf []byte) error {
	if _, err := d.WriteArray(ctx, BlockIIC, uint16(addr), buf); err != nil {
		return fmt.Errorf("i2c write %#02x: %w", addr, mapI2CError(err))
	}
	return nil
}

// I2CRead fills buf from a device on the tuner I2C bus.
func (d *Device) I2CRead(ctx context.Context, addr uint8, buf []byte) (int, error) {
	n, err := d.ReadArray(ctx, BlockIIC, uint16(addr), buf)
	if err != nil {
		return n, fmt.Errorf("i2c read %#02x: %w", addr, mapI2CError(err))
	}
	return n, nil
}

// I2CReadReg selects reg on the addressed device, then reads one byte.
func (d *Device) I2CReadReg(ctx context.Context, addr, reg uint8) (uint8, error) {
	if err := d.I2CWrite(ctx, addr, []byte{reg}); err != nil {
		return 0, err
	}
	var data [1]byte
	if _, err := d.I2CRead(ctx, addr, data[:]); err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadEEPROM copies len(buf) bytes of the configuration EEPROM starting
// at offset. Writing is not supported.
func (d *Device) ReadEEPROM(ctx context.Context, buf []byte, offset uint8) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return 0, pkg.ErrClosed
	}
	var n int
	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		var rerr error
		n, rerr = d.readEEPROM(ctx, buf, offset)
		return rerr
	})
	return n, err
}

// readEEPROM runs the tunnel transactions with the repeater gate
// already open: a pointer write with a bounded retry, since the part
// NACKs while an internal cycle is pending, then one byte per read.
func (d *Device) readEEPROM(ctx context.Context, buf []byte, offset uint8) (int, error) {
	if int(offset)+len(buf) > EEPROMSize {
		return 0, fmt.Errorf("eeprom read at %d len %d: %w", offset, len(buf), pkg.ErrInvalidAddress)
	}
	ok, err := pkg.Poll(3, eepromWriteSettle, func() (bool, error) {
		if werr := d.I2CWrite(ctx, EEPROMAddr, []byte{offset}); werr != nil {
			if errors.Is(werr, pkg.ErrI2CNack) {
				return false, nil
			}
			return false, werr
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("eeprom pointer write: %w", pkg.ErrI2CTimeout)
	}
	for i := range buf {
		if _, err := d.I2CRead(ctx, EEPROMAddr, buf[i:i+1]); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}
