package rtl

import (
	"context"
	"errors"
	"testing"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal/sim"
)

func TestI2CRepeaterBracket(t *testing.T) {
	d, sd := bareDevice(sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()

	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		if !sd.RepeaterOpen() {
			t.Error("repeater closed inside bracket")
		}
		_, rerr := d.I2CReadReg(ctx, sim.AddrR820T, 0x00)
		return rerr
	})
	if err != nil {
		t.Fatalf("withI2CRepeater: %v", err)
	}
	if sd.RepeaterOpen() {
		t.Error("repeater left open after bracket")
	}
	if got := sd.DemodReg(1, 0x01); got != 0x10 {
		t.Errorf("gate register = %#02x, want 0x10", got)
	}
}

func TestI2CRepeaterClosesOnError(t *testing.T) {
	d, sd := bareDevice(sim.Config{})
	ctx := context.Background()

	boom := errors.New("boom")
	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if sd.RepeaterOpen() {
		t.Error("repeater left open after failing bracket")
	}
}

func TestI2CNackWithRepeaterClosed(t *testing.T) {
	d, _ := bareDevice(sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()

	err := d.I2CWrite(ctx, sim.AddrR820T, []byte{0x00})
	if !errors.Is(err, pkg.ErrI2CNack) {
		t.Errorf("err = %v, want ErrI2CNack", err)
	}
}

func TestI2CNackOnEmptyAddress(t *testing.T) {
	d, _ := bareDevice(sim.Config{})
	ctx := context.Background()

	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		return d.I2CWrite(ctx, 0x34, []byte{0x00})
	})
	if !errors.Is(err, pkg.ErrI2CNack) {
		t.Errorf("err = %v, want ErrI2CNack", err)
	}
}

func TestTunerDetectionByte(t *testing.T) {
	d, _ := bareDevice(sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()

	var val uint8
	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		var rerr error
		val, rerr = d.I2CReadReg(ctx, sim.AddrR820T, 0x00)
		return rerr
	})
	if err != nil {
		t.Fatalf("I2CReadReg: %v", err)
	}
	if val != 0x69 {
		t.Errorf("identification byte = %#02x, want 0x69", val)
	}
}

func TestReadEEPROM(t *testing.T) {
	rom := make([]byte, 256)
	for i := range rom {
		rom[i] = byte(i)
	}
	d, _ := bareDevice(sim.Config{EEPROM: rom})
	ctx := context.Background()

	buf := make([]byte, 16)
	n, err := d.ReadEEPROM(ctx, buf, 0x20)
	if err != nil {
		t.Fatalf("ReadEEPROM: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("n = %d, want %d", n, len(buf))
	}
	for i, b := range buf {
		if want := byte(0x20 + i); b != want {
			t.Fatalf("buf[%d] = %#02x, want %#02x", i, b, want)
		}
	}

	if _, err := d.ReadEEPROM(ctx, make([]byte, 32), 240); !errors.Is(err, pkg.ErrInvalidAddress) {
		t.Errorf("out of range read: err = %v, want ErrInvalidAddress", err)
	}
}
