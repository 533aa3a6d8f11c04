package tuner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/softrtl/rtl2832/pkg"
)

// Chip selects between the two Rafael Micro variants sharing this
// driver. They differ in I2C address, crystal, and PLL power reference.
type Chip int

const (
	R820T Chip = iota
	R828D
)

func (c Chip) String() string {
	if c == R828D {
		return "R828D"
	}
	return "R820T"
}

const (
	numRegs      = 32
	rwRegStart   = 5 // regs 0..4 are read-only status
	numCacheRegs = numRegs - rwRegStart
	maxI2CMsg    = 8

	verNum uint8 = 49

	// DefaultIF is the intermediate frequency the demodulator is
	// programmed for after tuner init.
	DefaultIF uint32 = 3_570_000

	// Synthesizer coverage in Hz.
	MinFrequency uint32 = 24_000_000
	MaxFrequency uint32 = 1_766_000_000

	// UpconvertOffset is the fixed upconversion applied by RTL-SDR Blog
	// V4 hardware for HF reception.
	UpconvertOffset uint32 = 28_800_000

	// R828DXtalFreq is the reference crystal on R828D boards, which
	// clock the tuner separately from the demodulator.
	R828DXtalFreq uint32 = 16_000_000

	vcoMinKHz uint32 = 1_770_000
	vcoMaxKHz uint32 = 2 * vcoMinKHz

	lockPollDelay = 5 * time.Millisecond
)

// High-pass corner contributions used by bandwidth fitting, in Hz.
const (
	filtHPBW1 = 350_000
	filtHPBW2 = 380_000
)

type xtalCap int

const (
	xtalLowCap30p xtalCap = iota
	xtalLowCap20p
	xtalLowCap10p
	xtalLowCap0p
	xtalHighCap0p
)

// R82xx drives the R820T and R828D silicon tuners over the I2C tunnel.
// Writable registers are shadowed in a local cache since the chip's
// read path returns bit-reversed data and only the status window is
// worth reading back.
type R82xx struct {
	bus         Bus
	info        Info
	chip        Chip
	upconverter bool

	regs       [numCacheRegs]uint8
	xtal       uint32
	intFreq    uint32
	xtalCapSel xtalCap
	filCalCode uint8
	initDone   bool
}

// NewR820T returns a driver for the R820T at address 0x34.
func NewR820T(bus Bus) *R82xx {
	return &R82xx{bus: bus, chip: R820T, info: Known[0], regs: r82xxInitRegs}
}

// NewR828D returns a driver for the R828D at address 0x74. upconverter
// marks RTL-SDR Blog V4 hardware with the built-in HF upconverter.
func NewR828D(bus Bus, upconverter bool) *R82xx {
	return &R82xx{
		bus:         bus,
		chip:        R828D,
		info:        Known[1],
		upconverter: upconverter,
		regs:        r82xxInitRegs,
		xtal:        R828DXtalFreq,
	}
}

func (t *R82xx) Info() Info { return t.info }

// Gains returns the supported total gain values in tenths of a dB,
// strictly increasing.
func (t *R82xx) Gains() []int {
	return append([]int(nil), r82xxGains...)
}

// IFFrequency returns the current intermediate frequency in Hz. It
// moves with the selected bandwidth.
func (t *R82xx) IFFrequency() uint32 { return t.intFreq }

// SetCrystalFrequency updates the reference clock, in Hz.
func (t *R82xx) SetCrystalFrequency(freq uint32) { t.xtal = freq }

func (t *R82xx) CrystalFrequency() uint32 { return t.xtal }

func (t *R82xx) vcoPowerRef() uint8 {
	if t.chip == R828D {
		return 1
	}
	return 2
}

// Init programs the power-on register image, runs the TV standard setup
// with its filter calibration, and selects system frequency biasing.
// The sequence is fixed; the chip misbehaves when reordered.
func (t *R82xx) Init(ctx context.Context) error {
	t.xtalCapSel = xtalHighCap0p
	if err := t.writeRegs(ctx, rwRegStart, r82xxInitRegs[:]); err != nil {
		return fmt.Errorf("%s init: %w", t.chip, err)
	}
	if err := t.setTVStandard(ctx); err != nil {
		return fmt.Errorf("%s init: %w", t.chip, err)
	}
	if err := t.sysfreqSel(ctx, 0); err != nil {
		return fmt.Errorf("%s init: %w", t.chip, err)
	}
	t.initDone = true
	pkg.LogDebug(pkg.ComponentTuner, "tuner initialized", "chip", t.chip.String(), "xtal", t.xtal)
	return nil
}

// SetFrequency tunes to freq and returns the frequency the synthesizer
// actually achieved, reconstructed from the programmed divider. On
// upconverter hardware, requests below the upconversion offset are
// shifted into the synthesizer's range and the result shifted back.
func (t *R82xx) SetFrequency(ctx context.Context, freq uint32) (uint32, error) {
	target := freq
	shifted := false
	if t.upconverter && freq < UpconvertOffset {
		target += UpconvertOffset
		shifted = true
	}
	if target < MinFrequency || target > MaxFrequency {
		return 0, fmt.Errorf("%d Hz: %w", freq, pkg.ErrFrequencyOutOfRange)
	}
	lo := target + t.intFreq
	if err := t.setMux(ctx, lo); err != nil {
		return 0, err
	}
	actualLO, err := t.setPLL(ctx, lo)
	if err != nil {
		return 0, err
	}
	if t.chip == R828D {
		// Path selection keys off the request, not the shifted LO.
		if err := t.setInputPath(ctx, freq); err != nil {
			return 0, err
		}
	}
	achieved := actualLO - t.intFreq
	if shifted {
		achieved -= UpconvertOffset
	}
	return achieved, nil
}

// SetGain selects AGC or programs the nearest supported manual gain by
// walking the LNA and mixer step tables until their cumulative gain
// covers the request.
func (t *R82xx) SetGain(ctx context.Context, gain Gain) error {
	if gain.Auto() {
		// LNA auto
		if err := t.writeRegMask(ctx, 0x05, 0, 0x10); err != nil {
			return err
		}
		// Mixer auto
		if err := t.writeRegMask(ctx, 0x07, 0x10, 0x10); err != nil {
			return err
		}
		// Fixed VGA gain, 26.5 dB
		return t.writeRegMask(ctx, 0x0c, 0x0b, 0x9f)
	}

	// LNA auto off
	if err := t.writeRegMask(ctx, 0x05, 0x10, 0x10); err != nil {
		return err
	}
	// Mixer auto off
	if err := t.writeRegMask(ctx, 0x07, 0, 0x10); err != nil {
		return err
	}
	var data [4]uint8
	if err := t.readRegs(ctx, 0x00, data[:]); err != nil {
		return err
	}
	// Fixed VGA gain, 16.3 dB
	if err := t.writeRegMask(ctx, 0x0c, 0x08, 0x9f); err != nil {
		return err
	}

	want := resolveGain(gain.Value())
	total, lnaIndex, mixIndex := 0, 0, 0
	for i := 0; i < 15; i++ {
		if total >= want {
			break
		}
		lnaIndex++
		total += r82xxLNASteps[lnaIndex]
		if total >= want {
			break
		}
		mixIndex++
		total += r82xxMixerSteps[mixIndex]
	}
	if err := t.writeRegMask(ctx, 0x05, uint8(lnaIndex), 0x0f); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x07, uint8(mixIndex), 0x0f); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x05, 0, 0x10); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x07, 0x10, 0x10); err != nil {
		return err
	}
	// Fixed VGA gain, 26.5 dB
	return t.writeRegMask(ctx, 0x0c, 0x0b, 0x9f)
}

// resolveGain quantizes a request in tenths of a dB to the nearest
// table entry, preferring the lower on ties.
func resolveGain(req int) int {
	best := r82xxGains[0]
	for _, g := range r82xxGains {
		if abs(g-req) < abs(best-req) {
			best = g
		}
	}
	return best
}

// ReadGain reports the gain the stage registers currently encode, in
// half-dB units as the chip packs them.
func (t *R82xx) ReadGain(ctx context.Context) (int, error) {
	var data [4]uint8
	if err := t.readRegs(ctx, 0x00, data[:]); err != nil {
		return 0, err
	}
	gain := int((data[3]&0x0f)<<1) + int((data[3]&0xf0)>>4)
	return gain, nil
}

// SetBandwidth programs the channel filter for bw at the given sample
// rate and returns the achieved bandwidth. Wide settings use the coarse
// DVB channel modes; narrow ones fit the high-pass and low-pass
// corners, rounding down.
func (t *R82xx) SetBandwidth(ctx context.Context, bw, rate uint32) (uint32, error) {
	if bw == 0 {
		bw = rate
	}
	var reg0a, reg0b uint8
	var achieved uint32
	b := int(bw)
	switch {
	case b > 7_000_000:
		reg0a, reg0b = 0x10, 0x0b
		t.intFreq = 4_570_000
		achieved = 8_000_000
	case b > 6_000_000:
		reg0a, reg0b = 0x10, 0x2a
		t.intFreq = 4_570_000
		achieved = 7_000_000
	case b > r82xxLowPassBW[0]+filtHPBW1+filtHPBW2:
		reg0a, reg0b = 0x10, 0x6b
		t.intFreq = 3_570_000
		achieved = 6_000_000
	default:
		reg0a, reg0b = 0x00, 0x80
		t.intFreq = 2_300_000
		realBW := 0
		if b > r82xxLowPassBW[0]+filtHPBW1 {
			b -= filtHPBW2
			t.intFreq += filtHPBW2
			realBW += filtHPBW2
		} else {
			reg0b |= 0x20
		}
		if b > r82xxLowPassBW[0] {
			b -= filtHPBW1
			t.intFreq += filtHPBW1
			realBW += filtHPBW1
		} else {
			reg0b |= 0x40
		}
		// Narrowest low-pass corner still at or above the remainder.
		lpIdx := 0
		for i, corner := range r82xxLowPassBW {
			if b > corner {
				break
			}
			lpIdx = i
		}
		reg0b |= uint8(15 - lpIdx)
		realBW += r82xxLowPassBW[lpIdx]
		t.intFreq -= uint32(realBW / 2)
		achieved = uint32(realBW)
	}
	if err := t.writeRegMask(ctx, 0x0a, reg0a, 0x10); err != nil {
		return 0, err
	}
	if err := t.writeRegMask(ctx, 0x0b, reg0b, 0xef); err != nil {
		return 0, err
	}
	return achieved, nil
}

// Standby parks the analog sections in their low-power configuration.
func (t *R82xx) Standby(ctx context.Context) error {
	if !t.initDone {
		return nil
	}
	standby := []struct {
		reg uint8
		val uint8
	}{
		{0x06, 0xb1}, {0x05, 0xa0}, {0x07, 0x3a}, {0x08, 0x40},
		{0x09, 0xc0}, {0x0a, 0x36}, {0x0c, 0x35}, {0x0f, 0x68},
		{0x11, 0x03}, {0x17, 0xf4}, {0x19, 0x0c},
	}
	for _, w := range standby {
		if err := t.writeRegs(ctx, w.reg, []uint8{w.val}); err != nil {
			return fmt.Errorf("%s standby: %w", t.chip, err)
		}
	}
	return nil
}

// === tuning internals ===

// setMux programs the band-dependent front end settings: open drain,
// RF mux and poly filter, tracking filter caps, and crystal cap drive.
func (t *R82xx) setMux(ctx context.Context, freq uint32) error {
	freqMHz := freq / 1_000_000
	rng := r82xxFreqRanges[0]
	for _, r := range r82xxFreqRanges {
		if freqMHz < r.freqMHz {
			break
		}
		rng = r
	}

	if err := t.writeRegMask(ctx, 0x17, rng.openD, 0x08); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1a, rng.rfMuxPloy, 0xc3); err != nil {
		return err
	}
	if err := t.writeRegs(ctx, 0x1b, []uint8{rng.tfC}); err != nil {
		return err
	}
	var val uint8
	switch t.xtalCapSel {
	case xtalLowCap30p, xtalLowCap20p:
		val = rng.xtalCap20p | 0x08
	case xtalLowCap10p:
		val = rng.xtalCap10p | 0x08
	case xtalLowCap0p:
		val = rng.xtalCap0p | 0x08
	case xtalHighCap0p:
		val = rng.xtalCap0p
	}
	if err := t.writeRegMask(ctx, 0x10, val, 0x0b); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x08, 0x00, 0x3f); err != nil {
		return err
	}
	return t.writeRegMask(ctx, 0x09, 0x00, 0x3f)
}

// setPLL programs the synthesizer for the given LO frequency and
// returns the frequency the divider actually produces. Lock detect is
// polled with one VCO current raise before giving up.
func (t *R82xx) setPLL(ctx context.Context, freq uint32) (uint32, error) {
	if t.xtal == 0 {
		return 0, fmt.Errorf("reference clock not set: %w", pkg.ErrPLLNotLocked)
	}
	freqKHz := (freq + 500) / 1000
	pllRef := t.xtal
	pllRefKHz := (t.xtal + 500) / 1000

	// Reference divider off
	if err := t.writeRegMask(ctx, 0x10, 0x00, 0x10); err != nil {
		return 0, err
	}
	// PLL auto-tune clock 128 kHz
	if err := t.writeRegMask(ctx, 0x1a, 0x00, 0x0c); err != nil {
		return 0, err
	}
	if err := t.writeRegMask(ctx, 0x12, vcoCurrentVal, vcoCurrentMask); err != nil {
		return 0, err
	}

	// Mixer divider: smallest power of two placing the VCO in range.
	mixDiv, divNum := uint32(2), uint8(0)
	for mixDiv <= 64 {
		if freqKHz*mixDiv >= vcoMinKHz && freqKHz*mixDiv < vcoMaxKHz {
			for buf := mixDiv; buf > 2; buf >>= 1 {
				divNum++
			}
			break
		}
		mixDiv <<= 1
	}

	var data [5]uint8
	if err := t.readRegs(ctx, 0x00, data[:]); err != nil {
		return 0, err
	}
	vcoPowerRef := t.vcoPowerRef()
	vcoFineTune := (data[4] & 0x30) >> 4
	if vcoFineTune > vcoPowerRef {
		divNum--
	} else if vcoFineTune < vcoPowerRef {
		divNum++
	}
	if err := t.writeRegMask(ctx, 0x10, divNum<<5, 0xe0); err != nil {
		return 0, err
	}

	vcoFreq := uint64(freq) * uint64(mixDiv)
	nint := uint8(vcoFreq / (2 * uint64(pllRef)))
	vcoFra := uint32((vcoFreq - 2*uint64(pllRef)*uint64(nint)) / 1000)
	if nint > 128/vcoPowerRef-1 {
		return 0, fmt.Errorf("no valid PLL divider for %d Hz: %w", freq, pkg.ErrFrequencyOutOfRange)
	}

	// Nint = 4*Ni + Si + 13
	ni := uint8((int(nint) - 13) / 4)
	si := uint8(int(nint) - 4*int(ni) - 13)
	if err := t.writeRegs(ctx, 0x14, []uint8{ni + si<<6}); err != nil {
		return 0, err
	}

	if vcoFra == 0 {
		// Integer mode, SDM power down
		if err := t.writeRegMask(ctx, 0x12, 0x08, 0x08); err != nil {
			return 0, err
		}
	} else {
		if err := t.writeRegMask(ctx, 0x12, 0x00, 0x08); err != nil {
			return 0, err
		}
	}

	// Sigma-delta modulator word from the fractional remainder.
	var sdm uint32
	for nSDM := uint32(2); vcoFra > 1; nSDM <<= 1 {
		if vcoFra > 2*pllRefKHz/nSDM {
			sdm += 32768 / (nSDM / 2)
			vcoFra -= 2 * pllRefKHz / nSDM
			if nSDM >= 0x8000 {
				break
			}
		}
	}
	sdm &= 0xffff
	if err := t.writeRegs(ctx, 0x16, []uint8{uint8(sdm >> 8)}); err != nil {
		return 0, err
	}
	if err := t.writeRegs(ctx, 0x15, []uint8{uint8(sdm)}); err != nil {
		return 0, err
	}

	attempt := 0
	locked, err := pkg.Poll(2, lockPollDelay, func() (bool, error) {
		var status [3]uint8
		if rerr := t.readRegs(ctx, 0x00, status[:]); rerr != nil {
			return false, rerr
		}
		if status[2]&0x40 != 0 {
			return true, nil
		}
		if attempt == 0 {
			// Raise VCO current and retry once
			if werr := t.writeRegMask(ctx, 0x12, vcoCurrentVal, vcoCurrentMask); werr != nil {
				return false, werr
			}
		}
		attempt++
		return false, nil
	})
	if err != nil {
		return 0, err
	}
	if !locked {
		return 0, fmt.Errorf("%d Hz: %w", freq, pkg.ErrPLLNotLocked)
	}

	// PLL auto-tune clock 8 kHz
	if err := t.writeRegMask(ctx, 0x1a, 0x08, 0x08); err != nil {
		return 0, err
	}

	actual := uint64(2) * uint64(pllRef) * (uint64(nint)*65536 + uint64(sdm)) / 65536 / uint64(mixDiv)
	return uint32(actual), nil
}

// setTVStandard applies the DVB-T filter configuration and runs the
// channel filter calibration at the 56 MHz cal point.
func (t *R82xx) setTVStandard(ctx context.Context) error {
	const (
		ifKHz        = 3570
		filtCalLo    = 56_000_000
		filtGain     = 0x10 // +3 dB, 6 MHz on
		imgR         = 0x00 // image negative
		filtQ        = 0x10 // low Q
		hpCor        = 0x6b // 1.7 MHz disable, +2 cap, 1.0 MHz
		extEnable    = 0x60 // channel filter extension at LNA max-1
		loopThrough  = 0x01 // off
		ltAtt        = 0x00 // attenuation enabled
		fltExtWidest = 0x00 // off
		polyfilCur   = 0x60 // min
	)

	t.regs = r82xxInitRegs

	if err := t.writeRegMask(ctx, 0x0c, 0x00, 0x0f); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x13, verNum, 0x3f); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1d, 0x00, 0x38); err != nil {
		return err
	}
	t.intFreq = ifKHz * 1000

	calibrated, err := pkg.Poll(2, 0, func() (bool, error) {
		if cerr := t.calibrate(ctx, filtCalLo); cerr != nil {
			return false, cerr
		}
		return t.filCalCode != 0x0f, nil
	})
	if err != nil {
		return err
	}
	if !calibrated {
		return fmt.Errorf("filter calibration did not converge: %w", pkg.ErrCalibrationFailed)
	}

	if err := t.writeRegMask(ctx, 0x0a, filtQ|t.filCalCode, 0x1f); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x0b, hpCor, 0xef); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x07, imgR, 0x80); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x06, filtGain, 0x30); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1e, extEnable, 0x60); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x05, loopThrough, 0x80); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1f, ltAtt, 0x80); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x0f, fltExtWidest, 0x80); err != nil {
		return err
	}
	return t.writeRegMask(ctx, 0x19, polyfilCur, 0x60)
}

// calibrate runs one filter calibration cycle at calFreq and stores the
// resulting code.
func (t *R82xx) calibrate(ctx context.Context, calFreq uint32) error {
	// Filter cap
	if err := t.writeRegMask(ctx, 0x0b, 0x6b, 0x60); err != nil {
		return err
	}
	// Calibration clock on
	if err := t.writeRegMask(ctx, 0x0f, 0x04, 0x04); err != nil {
		return err
	}
	// Crystal cap 0 pF for the PLL
	if err := t.writeRegMask(ctx, 0x10, 0x00, 0x03); err != nil {
		return err
	}
	if _, err := t.setPLL(ctx, calFreq); err != nil && !errors.Is(err, pkg.ErrPLLNotLocked) {
		return err
	}
	// Trigger start, then stop
	if err := t.writeRegMask(ctx, 0x0b, 0x10, 0x10); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x0b, 0x00, 0x04); err != nil {
		return err
	}
	var data [5]uint8
	if err := t.readRegs(ctx, 0x00, data[:]); err != nil {
		return err
	}
	t.filCalCode = data[4] & 0x0f
	return nil
}

// sysfreqSel biases the analog sections for DVB-T reception. A few
// broadcast frequencies get lower charge pump and divider buffer
// currents.
func (t *R82xx) sysfreqSel(ctx context.Context, freq uint32) error {
	var mixerTop, cpCur, divBufCur uint8
	if freq == 506_000_000 || freq == 666_000_000 || freq == 818_000_000 {
		mixerTop = 0x14
		cpCur = 0x28
		divBufCur = divBufCurLow
	} else {
		mixerTop = 0x24
		cpCur = 0x38
		divBufCur = divBufCurHigh
	}
	const (
		lnaTop       = 0xe5
		lnaVthL      = 0x53
		mixerVthL    = 0x75
		airCable1In  = 0x00
		cable2In     = 0x00
		lnaDischarge = 14
		filterCur    = 0x40
	)

	if err := t.writeRegMask(ctx, 0x1d, lnaTop, 0xc7); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1c, mixerTop, 0xf8); err != nil {
		return err
	}
	if err := t.writeRegs(ctx, 0x0d, []uint8{lnaVthL}); err != nil {
		return err
	}
	if err := t.writeRegs(ctx, 0x0e, []uint8{mixerVthL}); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x05, airCable1In, 0x60); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x06, cable2In, 0x08); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x11, cpCur, 0x38); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x17, divBufCur, 0x30); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x0a, filterCur, 0x60); err != nil {
		return err
	}

	// LNA top and AGC clocking for digital TV
	if err := t.writeRegMask(ctx, 0x1d, 0, 0x38); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1c, 0, 0x04); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x06, 0, 0x40); err != nil {
		return err
	}
	// AGC clock 250 Hz
	if err := t.writeRegMask(ctx, 0x1a, 0x30, 0x30); err != nil {
		return err
	}
	// LNA top 3
	if err := t.writeRegMask(ctx, 0x1d, 0x18, 0x38); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1c, mixerTop, 0x04); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x1e, lnaDischarge, 0x1f); err != nil {
		return err
	}
	// AGC clock 60 Hz
	if err := t.writeRegMask(ctx, 0x1a, 0x20, 0x30); err != nil {
		return err
	}
	return t.writeRegMask(ctx, 0x10, lnaDischarge, 0x04)
}

// setInputPath switches the R828D input pins and the broadcast notch
// for the requested frequency: cable 2 for HF behind the upconverter,
// cable 1 with the FM/DAB notch through VHF, the air input above.
func (t *R82xx) setInputPath(ctx context.Context, freq uint32) error {
	var airCable1, cable2, notch uint8
	switch {
	case t.upconverter && freq < UpconvertOffset:
		cable2 = 0x08
	case freq < 250_000_000:
		airCable1 = 0x60
		notch = 0x08
	default:
	}
	if err := t.writeRegMask(ctx, 0x05, airCable1, 0x60); err != nil {
		return err
	}
	if err := t.writeRegMask(ctx, 0x06, cable2, 0x08); err != nil {
		return err
	}
	return t.writeRegMask(ctx, 0x17, notch, 0x08)
}

// === register access ===

// writeRegMask read-modify-writes one register through the cache.
func (t *R82xx) writeRegMask(ctx context.Context, reg uint8, val, mask uint8) error {
	old := t.cachedReg(reg)
	applied := (old &^ mask) | (val & mask)
	return t.writeRegs(ctx, reg, []uint8{applied})
}

func (t *R82xx) cachedReg(reg uint8) uint8 {
	return t.regs[reg-rwRegStart]
}

// writeRegs stores val in the cache and sends it over the tunnel, split
// into messages of at most maxI2CMsg bytes including the register byte.
func (t *R82xx) writeRegs(ctx context.Context, reg uint8, val []uint8) error {
	copy(t.regs[reg-rwRegStart:], val)
	for len(val) > 0 {
		size := len(val)
		if size > maxI2CMsg-1 {
			size = maxI2CMsg - 1
		}
		buf := make([]byte, size+1)
		buf[0] = reg
		copy(buf[1:], val[:size])
		if err := t.bus.I2CWrite(ctx, t.info.I2CAddr, buf); err != nil {
			return fmt.Errorf("write reg %#02x: %w", reg, err)
		}
		reg += uint8(size)
		val = val[size:]
	}
	return nil
}

// readRegs fills buf starting at reg, undoing the chip's bit-reversed
// read path.
func (t *R82xx) readRegs(ctx context.Context, reg uint8, buf []uint8) error {
	if err := t.bus.I2CWrite(ctx, t.info.I2CAddr, []byte{reg}); err != nil {
		return fmt.Errorf("read reg %#02x: %w", reg, err)
	}
	if _, err := t.bus.I2CRead(ctx, t.info.I2CAddr, buf); err != nil {
		return fmt.Errorf("read reg %#02x: %w", reg, err)
	}
	for i := range buf {
		buf[i] = bitReverse(buf[i])
	}
	return nil
}
