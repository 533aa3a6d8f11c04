package rtl

import (
	"context"
	"fmt"
	"strings"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
)

// blogV4Product is the product string RTL-SDR Blog V4 hardware reports.
// It carries an R828D with a built-in HF upconverter.
const blogV4Product = "RTL-SDR Blog V4"

// Identity selects one dongle for Open. Construct with ByIndex,
// BySerial, or ByFileDescriptor.
type Identity interface {
	identityString() string
}

type byIndex int

func (i byIndex) identityString() string { return fmt.Sprintf("index %d", int(i)) }

type bySerial string

func (s bySerial) identityString() string { return fmt.Sprintf("serial %q", string(s)) }

type byFileDescriptor uintptr

func (f byFileDescriptor) identityString() string { return fmt.Sprintf("fd %d", uintptr(f)) }

// ByIndex selects the n-th known dongle in enumeration order.
func ByIndex(n int) Identity { return byIndex(n) }

// BySerial selects the dongle whose serial string matches exactly.
// Dongles commonly ship with duplicate serials; a duplicate match is an
// error rather than an arbitrary pick.
func BySerial(serial string) Identity { return bySerial(serial) }

// ByFileDescriptor wraps an already-open device node, for callers that
// handle permissions themselves.
func ByFileDescriptor(fd uintptr) Identity { return byFileDescriptor(fd) }

// DeviceListing is one known dongle found on the bus.
type DeviceListing struct {
	hal.DeviceInfo
	Name string // marketing name from the signature table
}

// ListDevices scans the transport and returns the connected devices
// whose vendor/product pair appears in the signature table. Nothing is
// opened or claimed.
func ListDevices(ctx context.Context, transport hal.Transport) ([]DeviceListing, error) {
	infos, err := transport.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	var out []DeviceListing
	for _, info := range infos {
		sig, ok := lookupSignature(info.VendorID, info.ProductID)
		if !ok {
			continue
		}
		// Index stays the transport's; ByIndex counts listing order.
		out = append(out, DeviceListing{DeviceInfo: info, Name: sig.Name})
		pkg.LogDebug(pkg.ComponentEnum, "found device", "name", sig.Name, "info", info.String())
	}
	return out, nil
}

// resolveIdentity maps an identity to a concrete device descriptor.
func resolveIdentity(ctx context.Context, transport hal.Transport, id Identity) (hal.DeviceInfo, error) {
	listings, err := ListDevices(ctx, transport)
	if err != nil {
		return hal.DeviceInfo{}, err
	}
	switch sel := id.(type) {
	case byIndex:
		if int(sel) < 0 || int(sel) >= len(listings) {
			return hal.DeviceInfo{}, fmt.Errorf("%s: %w", id.identityString(), pkg.ErrDeviceNotFound)
		}
		return listings[sel].DeviceInfo, nil
	case bySerial:
		var match *hal.DeviceInfo
		for i := range listings {
			if listings[i].Serial != string(sel) {
				continue
			}
			if match != nil {
				return hal.DeviceInfo{}, fmt.Errorf("%s: %w", id.identityString(), pkg.ErrAmbiguousSerial)
			}
			match = &listings[i].DeviceInfo
		}
		if match == nil {
			return hal.DeviceInfo{}, fmt.Errorf("%s: %w", id.identityString(), pkg.ErrDeviceNotFound)
		}
		return *match, nil
	default:
		return hal.DeviceInfo{}, fmt.Errorf("%s: %w", id.identityString(), pkg.ErrDeviceNotFound)
	}
}

// hasUpconverter reports whether the product string marks hardware with
// the fixed HF upconverter in front of an R828D.
func hasUpconverter(info hal.DeviceInfo) bool {
	return strings.Contains(info.Product, blogV4Product)
}
