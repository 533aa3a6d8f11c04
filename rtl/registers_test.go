package rtl

import (
	"context"
	"errors"
	"testing"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
	"github.com/softrtl/rtl2832/rtl/hal/sim"
)

// bareDevice wires a simulated dongle directly into a Device, skipping
// the open sequence, for exercising the register layer in isolation.
func bareDevice(cfg sim.Config) (*Device, *sim.Device) {
	sd := sim.NewDevice(cfg)
	return &Device{handle: sd, state: StateIdle}, sd
}

func TestWriteRegReadBack(t *testing.T) {
	d, _ := bareDevice(sim.Config{})
	ctx := context.Background()

	if err := d.WriteReg(ctx, BlockSys, GPO, 0x5a, 1); err != nil {
		t.Fatalf("WriteReg: %v", err)
	}
	got, err := d.ReadReg(ctx, BlockSys, GPO, 1)
	if err != nil {
		t.Fatalf("ReadReg: %v", err)
	}
	if got != 0x5a {
		t.Errorf("ReadReg = %#04x, want 0x5a", got)
	}
}

// Two-byte registers go out big endian and come back little endian, so
// a 16-bit round trip swaps bytes. The quirk is the chip's.
func TestWriteRegEndianAsymmetry(t *testing.T) {
	d, _ := bareDevice(sim.Config{})
	ctx := context.Background()

	if err := d.WriteReg(ctx, BlockUSB, USBEPAMaxPkt, 0xabcd, 2); err != nil {
		t.Fatalf("WriteReg: %v", err)
	}
	got, err := d.ReadReg(ctx, BlockUSB, USBEPAMaxPkt, 2)
	if err != nil {
		t.Fatalf("ReadReg: %v", err)
	}
	if got != 0xcdab {
		t.Errorf("ReadReg = %#04x, want 0xcdab", got)
	}
}

func TestRegisterWireEncoding(t *testing.T) {
	d, sd := bareDevice(sim.Config{})
	ctx := context.Background()

	if err := d.WriteReg(ctx, BlockSys, GPO, 0x0180, 2); err != nil {
		t.Fatalf("WriteReg: %v", err)
	}
	if _, err := d.ReadReg(ctx, BlockSys, GPO, 1); err != nil {
		t.Fatalf("ReadReg: %v", err)
	}

	log := sd.Transfers()
	if len(log) != 2 {
		t.Fatalf("transfer count = %d, want 2", len(log))
	}
	w := log[0]
	if w.In {
		t.Error("first transfer should be a write")
	}
	if w.Request.RequestType != hal.RequestTypeVendorOut || w.Request.Request != 0 {
		t.Errorf("write request type/request = %#02x/%d", w.Request.RequestType, w.Request.Request)
	}
	if w.Request.Value != GPO {
		t.Errorf("write value = %#04x, want %#04x", w.Request.Value, GPO)
	}
	if want := BlockSys<<8 | 0x10; w.Request.Index != want {
		t.Errorf("write index = %#04x, want %#04x", w.Request.Index, want)
	}
	if len(w.Data) != 2 || w.Data[0] != 0x01 || w.Data[1] != 0x80 {
		t.Errorf("write data = %#v, want big endian [0x01 0x80]", w.Data)
	}

	r := log[1]
	if !r.In {
		t.Error("second transfer should be a read")
	}
	if r.Request.RequestType != hal.RequestTypeVendorIn {
		t.Errorf("read request type = %#02x", r.Request.RequestType)
	}
	if want := BlockSys << 8; r.Request.Index != want {
		t.Errorf("read index = %#04x, want %#04x", r.Request.Index, want)
	}
}

func TestDemodWriteFollowedByStatusRead(t *testing.T) {
	d, sd := bareDevice(sim.Config{})
	ctx := context.Background()

	if err := d.DemodWriteReg(ctx, 1, 0x15, 0x01, 1); err != nil {
		t.Fatalf("DemodWriteReg: %v", err)
	}
	if got := sd.DemodReg(1, 0x15); got != 0x01 {
		t.Errorf("demod reg = %#02x, want 0x01", got)
	}

	log := sd.Transfers()
	if len(log) != 2 {
		t.Fatalf("transfer count = %d, want write plus status read", len(log))
	}
	w := log[0]
	if want := uint16(0x15)<<8 | 0x20; w.Request.Value != want {
		t.Errorf("demod write value = %#04x, want %#04x", w.Request.Value, want)
	}
	if w.Request.Index != 0x10|1 {
		t.Errorf("demod write index = %#04x, want 0x11", w.Request.Index)
	}
	status := log[1]
	if !status.In {
		t.Fatal("expected status read after demod write")
	}
	if want := uint16(0x01)<<8 | 0x20; status.Request.Value != want {
		t.Errorf("status read value = %#04x, want %#04x", status.Request.Value, want)
	}
	if status.Request.Index != 0x0a {
		t.Errorf("status read index = %#04x, want 0x0a", status.Request.Index)
	}
}

func TestInvalidAddressRejectedBeforeTransfer(t *testing.T) {
	d, sd := bareDevice(sim.Config{})
	ctx := context.Background()

	if err := d.WriteReg(ctx, 7, 0x1000, 0, 1); !errors.Is(err, pkg.ErrInvalidAddress) {
		t.Errorf("bad block: err = %v, want ErrInvalidAddress", err)
	}
	if _, err := d.ReadReg(ctx, BlockSys, GPO, 3); !errors.Is(err, pkg.ErrInvalidAddress) {
		t.Errorf("bad length: err = %v, want ErrInvalidAddress", err)
	}
	if err := d.DemodWriteReg(ctx, 5, 0x01, 0, 1); !errors.Is(err, pkg.ErrInvalidAddress) {
		t.Errorf("bad page: err = %v, want ErrInvalidAddress", err)
	}
	if got := len(sd.Transfers()); got != 0 {
		t.Errorf("transfers issued = %d, want 0", got)
	}
}
