package rtl

import (
	"context"
	"errors"
	"testing"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
	"github.com/softrtl/rtl2832/rtl/hal/sim"
)

func TestListDevicesFiltersUnknownHardware(t *testing.T) {
	transport := sim.New(
		sim.NewDevice(sim.Config{TunerAddr: sim.AddrR820T, Info: hal.DeviceInfo{Serial: "A1"}}),
		sim.NewDevice(sim.Config{Info: hal.DeviceInfo{VendorID: 0x1234, ProductID: 0x5678, Serial: "NOTSDR"}}),
		sim.NewDevice(sim.Config{TunerAddr: sim.AddrR820T, Info: hal.DeviceInfo{
			VendorID: 0x0bda, ProductID: 0x2832, Serial: "A2"}}),
	)
	listings, err := ListDevices(context.Background(), transport)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(listings))
	}
	if listings[0].Name != "Generic RTL2832U OEM" {
		t.Errorf("listings[0].Name = %q", listings[0].Name)
	}
	if listings[1].Name != "Generic RTL2832U" {
		t.Errorf("listings[1].Name = %q", listings[1].Name)
	}
	// The transport index is preserved so the listing can be opened.
	if listings[1].Index != 2 {
		t.Errorf("listings[1].Index = %d, want 2", listings[1].Index)
	}
}

func TestResolveBySerial(t *testing.T) {
	transport := sim.New(
		sim.NewDevice(sim.Config{TunerAddr: sim.AddrR820T, Info: hal.DeviceInfo{Serial: "ONE"}}),
		sim.NewDevice(sim.Config{TunerAddr: sim.AddrR820T, Info: hal.DeviceInfo{Serial: "TWO"}}),
	)
	ctx := context.Background()

	info, err := resolveIdentity(ctx, transport, BySerial("TWO"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Serial != "TWO" {
		t.Errorf("Serial = %q, want TWO", info.Serial)
	}

	if _, err := resolveIdentity(ctx, transport, BySerial("MISSING")); !errors.Is(err, pkg.ErrDeviceNotFound) {
		t.Errorf("missing serial: err = %v, want ErrDeviceNotFound", err)
	}
}

func TestResolveDuplicateSerial(t *testing.T) {
	// The factory default serial ships on thousands of dongles.
	transport := sim.New(
		sim.NewDevice(sim.Config{TunerAddr: sim.AddrR820T}),
		sim.NewDevice(sim.Config{TunerAddr: sim.AddrR820T}),
	)
	_, err := resolveIdentity(context.Background(), transport, BySerial("00000001"))
	if !errors.Is(err, pkg.ErrAmbiguousSerial) {
		t.Errorf("err = %v, want ErrAmbiguousSerial", err)
	}
}

func TestResolveByIndexOutOfRange(t *testing.T) {
	transport := sim.New()
	if _, err := resolveIdentity(context.Background(), transport, ByIndex(3)); !errors.Is(err, pkg.ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestUpconverterHint(t *testing.T) {
	v4 := hal.DeviceInfo{Product: "RTL-SDR Blog V4"}
	if !hasUpconverter(v4) {
		t.Error("V4 product string should set the upconverter hint")
	}
	if hasUpconverter(hal.DeviceInfo{Product: "RTL2838UHIDIR"}) {
		t.Error("generic product string should not set the upconverter hint")
	}
}
