package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/softrtl/rtl2832/pkg"
)

func TestOpenIsExclusive(t *testing.T) {
	tr := New()
	infos, err := tr.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d devices, want 1", len(infos))
	}
	h, err := tr.Open(context.Background(), infos[0])
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := tr.Open(context.Background(), infos[0]); !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("second Open() error = %v, want ErrBusy", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := tr.Open(context.Background(), infos[0]); err != nil {
		t.Errorf("Open() after close error: %v", err)
	}
}

func TestClaimInterfaceExclusive(t *testing.T) {
	d := NewDevice(Config{})
	if err := d.ClaimInterface(0); err != nil {
		t.Fatalf("ClaimInterface() error: %v", err)
	}
	if err := d.ClaimInterface(0); !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("second ClaimInterface() error = %v, want ErrBusy", err)
	}
	if err := d.ReleaseInterface(0); err != nil {
		t.Fatalf("ReleaseInterface() error: %v", err)
	}
	if err := d.ClaimInterface(0); err != nil {
		t.Errorf("ClaimInterface() after release error: %v", err)
	}
}

func TestDefaultEEPROMConfigFlags(t *testing.T) {
	d := NewDevice(Config{})
	rom := d.peripherals[AddrEEPROM].(*eepromPeripheral)
	if rom.rom[7]&0x02 == 0 {
		t.Error("default EEPROM byte 7 bit 1 clear, would force the bias tee on")
	}
}
