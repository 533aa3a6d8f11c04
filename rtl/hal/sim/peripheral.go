package sim

import "fmt"

// r82xxPeripheral models an R820T/R828D on the I2C tunnel. Register
// writes land verbatim; reads return each byte bit-reversed, matching
// the chip's reversed read path.
//
// Status registers are seeded so a driver bring-up succeeds: reg 0
// reads back as the chip identification byte, reg 2 reports PLL lock,
// reg 4 reports a mid-range VCO fine tune with a clean filter
// calibration code.
type r82xxPeripheral struct {
	regs [32]byte
	ptr  uint8
}

func newR82xxPeripheral() *r82xxPeripheral {
	p := &r82xxPeripheral{}
	p.regs[0] = 0x96 // bit-reversed on read: 0x69
	p.regs[2] = 0x40 // lock indicator
	p.regs[4] = 0x20 // vco fine tune 2, filter code 0
	return p
}

func (p *r82xxPeripheral) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("r82xx: empty tunnel write")
	}
	p.ptr = data[0] & 0x1f
	for _, b := range data[1:] {
		if p.ptr >= 5 {
			p.regs[p.ptr] = b
		}
		p.ptr = (p.ptr + 1) & 0x1f
	}
	return nil
}

func (p *r82xxPeripheral) ReadBytes(data []byte) (int, error) {
	for i := range data {
		data[i] = bitReverse(p.regs[p.ptr])
		p.ptr = (p.ptr + 1) & 0x1f
	}
	return len(data), nil
}

// eepromPeripheral models the 24C02 configuration EEPROM. A one-byte
// write sets the address pointer; reads auto-increment through the
// 256-byte array.
type eepromPeripheral struct {
	rom []byte
	ptr uint8
}

func (p *eepromPeripheral) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("eeprom: empty tunnel write")
	}
	p.ptr = data[0]
	for _, b := range data[1:] {
		p.rom[p.ptr] = b
		p.ptr++
	}
	return nil
}

func (p *eepromPeripheral) ReadBytes(data []byte) (int, error) {
	for i := range data {
		data[i] = p.rom[p.ptr]
		p.ptr++
	}
	return len(data), nil
}

var bitrevNibble = [16]byte{
	0x0, 0x8, 0x4, 0xc, 0x2, 0xa, 0x6, 0xe,
	0x1, 0x9, 0x5, 0xd, 0x3, 0xb, 0x7, 0xf,
}

func bitReverse(b byte) byte {
	return bitrevNibble[b&0x0f]<<4 | bitrevNibble[b>>4]
}
