package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
)

// Register space decoding mirrors the demodulator's control protocol.
const (
	blockDemod uint16 = 0
	blockUSB   uint16 = 1
	blockSys   uint16 = 2
	blockIIC   uint16 = 6

	writeFlag uint16 = 0x10
)

// Default identity presented by a simulated dongle.
const (
	DefaultVendorID  uint16 = 0x0bda
	DefaultProductID uint16 = 0x2838
)

// I2C peripheral addresses the simulator knows how to populate.
const (
	AddrR820T  uint8 = 0x34
	AddrR828D  uint8 = 0x74
	AddrEEPROM uint8 = 0xa0
)

// Transfer records one control transfer as seen on the wire.
type Transfer struct {
	In      bool
	Request hal.ControlRequest
	Data    []byte
}

// Peripheral models a device behind the I2C tunnel.
type Peripheral interface {
	// WriteBytes receives the data stage of a tunnel write. The first
	// byte addresses a register, the rest are values.
	WriteBytes(data []byte) error

	// ReadBytes fills data from the current register pointer.
	ReadBytes(data []byte) (int, error)
}

// Config selects the personality of a simulated dongle.
type Config struct {
	Info        hal.DeviceInfo
	TunerAddr   uint8      // AddrR820T, AddrR828D, or 0 for no tuner
	EEPROM      []byte     // up to 256 bytes, zero-padded
	Peripherals map[uint8]Peripheral
}

// Device is a simulated RTL2832U dongle. It implements hal.DeviceHandle
// and decodes the demodulator's register and I2C tunnel protocol so the
// driver core can be exercised without hardware.
type Device struct {
	info hal.DeviceInfo

	mu          sync.Mutex
	opened      bool
	claimed     map[uint8]bool
	blocks      map[uint32]byte // block<<16 | offset
	demod       map[uint16]byte // page<<8 | addr
	peripherals map[uint8]Peripheral
	repeater    bool
	log         []Transfer
	bulkSeq     byte
}

// NewDevice builds a simulated dongle. A zero Info is filled with the
// generic RTL2832U identity.
func NewDevice(cfg Config) *Device {
	info := cfg.Info
	if info.VendorID == 0 {
		info.VendorID = DefaultVendorID
		info.ProductID = DefaultProductID
	}
	if info.Manufacturer == "" {
		info.Manufacturer = "Realtek"
	}
	if info.Product == "" {
		info.Product = "RTL2838UHIDIR"
	}
	if info.Serial == "" {
		info.Serial = "00000001"
	}
	d := &Device{
		info:        info,
		claimed:     make(map[uint8]bool),
		blocks:      make(map[uint32]byte),
		demod:       make(map[uint16]byte),
		peripherals: make(map[uint8]Peripheral),
	}
	rom := make([]byte, 256)
	// Factory default: IR endpoint enabled, remote wakeup off.
	rom[7] = 0x02
	copy(rom, cfg.EEPROM)
	d.peripherals[AddrEEPROM] = &eepromPeripheral{rom: rom}
	switch cfg.TunerAddr {
	case AddrR820T, AddrR828D:
		d.peripherals[cfg.TunerAddr] = newR82xxPeripheral()
	}
	for addr, p := range cfg.Peripherals {
		d.peripherals[addr] = p
	}
	return d
}

// Info returns the device's descriptor fields.
func (d *Device) Info() hal.DeviceInfo { return d.info }

// Transport implements hal.Transport over a fixed set of simulated
// devices.
type Transport struct {
	mu      sync.Mutex
	devices []*Device
}

// New returns a transport holding the given devices. With no arguments
// it holds a single generic R820T dongle.
func New(devices ...*Device) *Transport {
	if len(devices) == 0 {
		devices = []*Device{NewDevice(Config{TunerAddr: AddrR820T})}
	}
	for i, d := range devices {
		d.info.Index = i
	}
	return &Transport{devices: devices}
}

// Devices lists the simulated devices.
func (t *Transport) Devices(ctx context.Context) ([]hal.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	infos := make([]hal.DeviceInfo, len(t.devices))
	for i, d := range t.devices {
		infos[i] = d.info
	}
	return infos, nil
}

// Open returns the matching device as an exclusive handle.
func (t *Transport) Open(ctx context.Context, info hal.DeviceInfo) (hal.DeviceHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.devices {
		if d.info.Index != info.Index {
			continue
		}
		d.mu.Lock()
		if d.opened {
			d.mu.Unlock()
			return nil, fmt.Errorf("device %d: %w", info.Index, pkg.ErrBusy)
		}
		d.opened = true
		d.mu.Unlock()
		return d, nil
	}
	return nil, pkg.ErrDeviceNotFound
}

// OpenFileDescriptor is unsupported in simulation.
func (t *Transport) OpenFileDescriptor(ctx context.Context, fd uintptr) (hal.DeviceHandle, error) {
	return nil, fmt.Errorf("simulated transport: %w", pkg.ErrTransport)
}

// === hal.DeviceHandle ===

func (d *Device) ClaimInterface(iface uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimed[iface] {
		return fmt.Errorf("interface %d: %w", iface, pkg.ErrBusy)
	}
	d.claimed[iface] = true
	return nil
}

func (d *Device) ReleaseInterface(iface uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, iface)
	return nil
}

func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocks = make(map[uint32]byte)
	d.demod = make(map[uint16]byte)
	d.repeater = false
	return nil
}

func (d *Device) ControlIn(ctx context.Context, req *hal.ControlRequest, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.handleControl(req, data, true)
	d.log = append(d.log, Transfer{In: true, Request: *req, Data: append([]byte(nil), data[:n]...)})
	return n, err
}

func (d *Device) ControlOut(ctx context.Context, req *hal.ControlRequest, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, Transfer{In: false, Request: *req, Data: append([]byte(nil), data...)})
	return d.handleControl(req, data, false)
}

// BulkIn produces a deterministic byte ramp standing in for I/Q samples.
func (d *Device) BulkIn(ctx context.Context, endpoint uint8, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range data {
		data[i] = d.bulkSeq
		d.bulkSeq++
	}
	return len(data), nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = false
	d.claimed = make(map[uint8]bool)
	return nil
}

// === control decode ===

func (d *Device) handleControl(req *hal.ControlRequest, data []byte, in bool) (int, error) {
	block := req.Index >> 8
	if block == 0 {
		return d.handleDemod(req, data, in)
	}
	if block == blockIIC {
		return d.handleTunnel(req, data, in)
	}
	offset := req.Value
	for i := range data {
		key := uint32(block)<<16 | uint32(offset) + uint32(i)
		if in {
			data[i] = d.blocks[key]
		} else {
			d.blocks[key] = data[i]
		}
	}
	return len(data), nil
}

func (d *Device) handleDemod(req *hal.ControlRequest, data []byte, in bool) (int, error) {
	page := req.Index &^ writeFlag
	addr := req.Value >> 8
	key := page<<8 | addr
	if in {
		for i := range data {
			data[i] = d.demod[key+uint16(i)]
		}
		return len(data), nil
	}
	for i := range data {
		d.demod[key+uint16(i)] = data[i]
	}
	if page == 1 && addr == 0x01 && len(data) > 0 {
		d.repeater = data[len(data)-1]&0x08 != 0
	}
	return len(data), nil
}

// handleTunnel routes I2C tunnel traffic to a peripheral. A missing
// peripheral or a closed repeater gate stalls the transfer, which the
// driver reports as a NACK.
func (d *Device) handleTunnel(req *hal.ControlRequest, data []byte, in bool) (int, error) {
	if !d.repeater {
		return 0, fmt.Errorf("i2c repeater gate closed: %w", pkg.ErrStall)
	}
	addr := uint8(req.Value)
	p, ok := d.peripherals[addr]
	if !ok {
		return 0, fmt.Errorf("i2c address %#02x: %w", addr, pkg.ErrStall)
	}
	if in {
		return p.ReadBytes(data)
	}
	if err := p.WriteBytes(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// === test inspection ===

// DemodReg returns the stored value of a demodulator page register.
func (d *Device) DemodReg(page, addr uint8) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.demod[uint16(page)<<8|uint16(addr)]
}

// BlockReg returns the stored value of a block register byte.
func (d *Device) BlockReg(block uint8, offset uint16) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocks[uint32(block)<<16|uint32(offset)]
}

// TunerReg returns a tuner register as the tuner's write path sees it.
func (d *Device) TunerReg(i uint8) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, addr := range []uint8{AddrR820T, AddrR828D} {
		if p, ok := d.peripherals[addr].(*r82xxPeripheral); ok {
			return p.regs[i]
		}
	}
	return 0
}

// RepeaterOpen reports whether the I2C repeater gate is open.
func (d *Device) RepeaterOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.repeater
}

// Transfers returns a copy of the control transfer log.
func (d *Device) Transfers() []Transfer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Transfer(nil), d.log...)
}

// ResetLog clears the control transfer log.
func (d *Device) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = nil
}
