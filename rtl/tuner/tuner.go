package tuner

import (
	"context"
	"fmt"
)

// Bus is the I2C access a tuner driver needs, carried over the
// demodulator's tunnel. The device orchestrator implements it and is
// responsible for opening the repeater gate around every call.
type Bus interface {
	I2CReadReg(ctx context.Context, addr, reg uint8) (uint8, error)
	I2CWrite(ctx context.Context, addr uint8, buf []byte) error
	I2CRead(ctx context.Context, addr uint8, buf []byte) (int, error)
}

// Gain selects automatic gain control or a fixed gain in tenths of a dB.
type Gain struct {
	auto    bool
	tenthDB int
}

// AutoGain enables the tuner's hardware AGC.
func AutoGain() Gain { return Gain{auto: true} }

// ManualGain requests a fixed gain in tenths of a dB. The driver
// quantizes the request to the nearest supported step.
func ManualGain(tenthDB int) Gain { return Gain{tenthDB: tenthDB} }

// Auto reports whether AGC was requested.
func (g Gain) Auto() bool { return g.auto }

// Value returns the requested manual gain in tenths of a dB.
func (g Gain) Value() int { return g.tenthDB }

func (g Gain) String() string {
	if g.auto {
		return "auto"
	}
	return fmt.Sprintf("%d.%d dB", g.tenthDB/10, abs(g.tenthDB%10))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Info describes one tuner model the driver can probe for.
type Info struct {
	ID       string
	Name     string
	I2CAddr  uint8
	CheckReg uint8
	CheckVal uint8
}

// Known lists the supported tuners in probe order. Both Rafael parts
// answer with the same identification byte; the address distinguishes
// them.
var Known = []Info{
	{ID: "r820t", Name: "Rafael Micro R820T", I2CAddr: 0x34, CheckReg: 0x00, CheckVal: 0x69},
	{ID: "r828d", Name: "Rafael Micro R828D", I2CAddr: 0x74, CheckReg: 0x00, CheckVal: 0x69},
}

// Tuner is one RF front end behind the I2C tunnel. Frequency and
// bandwidth setters return the value the hardware actually achieved,
// which callers must use in place of the request.
type Tuner interface {
	Init(ctx context.Context) error
	SetFrequency(ctx context.Context, freq uint32) (uint32, error)
	SetGain(ctx context.Context, gain Gain) error
	ReadGain(ctx context.Context) (int, error)
	SetBandwidth(ctx context.Context, bw, rate uint32) (uint32, error)
	Gains() []int
	IFFrequency() uint32
	SetCrystalFrequency(freq uint32)
	CrystalFrequency() uint32
	Standby(ctx context.Context) error
	Info() Info
}
