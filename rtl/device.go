package rtl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal"
	"github.com/softrtl/rtl2832/rtl/tuner"
)

// State tracks the orchestrator lifecycle. Transitions only move
// forward through open and detection; Idle and Streaming alternate
// until Close.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateTunerDetect
	StateConfiguring
	StateIdle
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateTunerDetect:
		return "tuner-detect"
	case StateConfiguring:
		return "configuring"
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	}
	return "unknown"
}

// DirectSamplingMode bypasses the tuner and feeds an ADC branch
// directly, for HF reception on hardware without an upconverter.
type DirectSamplingMode int

const (
	DirectSamplingOff DirectSamplingMode = iota
	DirectSamplingI
	DirectSamplingQ
)

// FIRLength is the number of baseband FIR coefficients: eight 8-bit
// followed by eight 12-bit values.
const FIRLength = 16

// defaultFIR is the stock baseband filter.
var defaultFIR = [FIRLength]int{
	-54, -36, -41, -40, -32, -14, 14, 53,
	101, 156, 215, 273, 327, 372, 404, 421,
}

// Crystal trim window accepted by SetXtalFreq, in Hz.
const xtalFreqSlack = 1000

// Device is one opened dongle: the demodulator orchestrator plus its
// detected tuner. Methods are safe for use from a single goroutine;
// concurrent callers must synchronize externally, except for
// CancelStreaming which may be called from any goroutine.
type Device struct {
	mu     sync.Mutex
	handle hal.DeviceHandle
	info   hal.DeviceInfo
	name   string
	tuner  tuner.Tuner
	state  State

	freq       uint32
	rate       uint32
	bw         uint32
	xtal       uint32
	tunerXtal  uint32
	corr       int
	directMode DirectSamplingMode
	offsetFreq uint32
	forceBT    bool
	forceDS    bool
	fir        [FIRLength]int

	cancel atomic.Bool
}

// Open resolves an identity on the transport, claims the hardware, and
// runs the full bring-up: baseband init, tuner probe and init, and the
// demodulator's SDR configuration. On any failure the claim is released
// and the handle closed before the error is returned.
func Open(ctx context.Context, transport hal.Transport, id Identity) (*Device, error) {
	var (
		handle hal.DeviceHandle
		info   hal.DeviceInfo
		err    error
	)
	if fd, ok := id.(byFileDescriptor); ok {
		handle, err = transport.OpenFileDescriptor(ctx, uintptr(fd))
	} else {
		info, err = resolveIdentity(ctx, transport, id)
		if err != nil {
			return nil, err
		}
		handle, err = transport.Open(ctx, info)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id.identityString(), err)
	}

	d := &Device{
		handle:    handle,
		info:      info,
		state:     StateOpening,
		xtal:      DefaultXtalFreq,
		tunerXtal: DefaultXtalFreq,
		fir:       defaultFIR,
	}
	if sig, ok := lookupSignature(info.VendorID, info.ProductID); ok {
		d.name = sig.Name
	}

	if err := handle.ClaimInterface(usbInterface); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("open %s: %w", id.identityString(), err)
	}
	if err := d.bringUp(ctx); err != nil {
		_ = handle.ReleaseInterface(usbInterface)
		_ = handle.Close()
		d.state = StateClosed
		return nil, fmt.Errorf("open %s: %w", id.identityString(), err)
	}
	d.state = StateIdle
	pkg.LogInfo(pkg.ComponentDevice, "device opened",
		"name", d.name, "tuner", d.tuner.Info().Name)
	return d, nil
}

// bringUp runs the hardware initialization sequence with the interface
// already claimed. Order follows the demodulator's requirements.
func (d *Device) bringUp(ctx context.Context) error {
	if err := d.testWrite(ctx); err != nil {
		return err
	}
	if err := d.initBaseband(ctx); err != nil {
		return err
	}
	if err := d.setI2CRepeater(ctx, true); err != nil {
		return err
	}

	d.state = StateTunerDetect
	tn, err := d.probeTuner(ctx)
	if err != nil {
		_ = d.setI2CRepeater(ctx, false)
		return err
	}
	d.tuner = tn
	// The R828D runs its PLL from a 16 MHz crystal while the
	// demodulator keeps the 28.8 MHz reference.
	if d.tuner.Info().ID == "r828d" {
		d.tunerXtal = tuner.R828DXtalFreq
	}
	d.tuner.SetCrystalFrequency(d.tunerXtalFreq())

	d.state = StateConfiguring
	// Disable Zero-IF mode
	if err := d.DemodWriteReg(ctx, 1, 0xb1, 0x1a, 1); err != nil {
		return err
	}
	// Only enable in-phase ADC input
	if err := d.DemodWriteReg(ctx, 0, 0x08, 0x4d, 1); err != nil {
		return err
	}
	if err := d.setIFFreq(ctx, tuner.DefaultIF); err != nil {
		return err
	}
	// Enable spectrum inversion
	if err := d.DemodWriteReg(ctx, 1, 0x15, 0x01, 1); err != nil {
		return err
	}

	// EEPROM byte 7: bit 1 clear forces the bias tee on, bit 0 set
	// forces direct sampling. Both are repurposed flag bits.
	var flags [8]byte
	if _, err := d.readEEPROM(ctx, flags[:], 0); err != nil {
		pkg.LogWarn(pkg.ComponentDevice, "eeprom read failed, skipping config flags", "err", err)
	} else {
		d.forceBT = flags[7]&0x02 == 0
		d.forceDS = flags[7]&0x01 != 0
	}

	if err := d.tuner.Init(ctx); err != nil {
		return err
	}
	return d.setI2CRepeater(ctx, false)
}

// probeTuner walks the probe table and instantiates the first chip
// that answers with its identification byte. The repeater gate must
// already be open.
func (d *Device) probeTuner(ctx context.Context) (tuner.Tuner, error) {
	for _, info := range tuner.Known {
		val, err := d.I2CReadReg(ctx, info.I2CAddr, info.CheckReg)
		if err != nil {
			// A NACK just means nothing lives at this address.
			if errors.Is(err, pkg.ErrI2CNack) {
				continue
			}
			return nil, err
		}
		if val != info.CheckVal {
			continue
		}
		pkg.LogDebug(pkg.ComponentDevice, "tuner detected",
			"id", info.ID, "i2c_addr", fmt.Sprintf("%#02x", info.I2CAddr))
		switch info.ID {
		case "r820t":
			return tuner.NewR820T(d), nil
		case "r828d":
			return tuner.NewR828D(d, hasUpconverter(d.info)), nil
		}
	}
	return nil, pkg.ErrNoSupportedTuner
}

// initBaseband powers up the demodulator and loads the SDR baseband
// configuration, following the reference bring-up sequence.
func (d *Device) initBaseband(ctx context.Context) error {
	// USB endpoint setup
	if err := d.WriteReg(ctx, BlockUSB, USBSysCtl, 0x09, 1); err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockUSB, USBEPAMaxPkt, 0x0002, 2); err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockUSB, USBEPACtl, 0x1002, 2); err != nil {
		return err
	}

	// Power on the demodulator
	if err := d.WriteReg(ctx, BlockSys, DemodCtl1, 0x22, 1); err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockSys, DemodCtl, 0xe8, 1); err != nil {
		return err
	}
	if err := d.resetDemod(ctx); err != nil {
		return err
	}

	// Disable spectrum inversion and adjust channel rejection
	if err := d.DemodWriteReg(ctx, 1, 0x15, 0x00, 1); err != nil {
		return err
	}
	if err := d.DemodWriteReg(ctx, 1, 0x16, 0x0000, 2); err != nil {
		return err
	}
	// Clear DDC shift and IF registers
	for i := uint16(0); i < 5; i++ {
		if err := d.DemodWriteReg(ctx, 1, 0x16+i, 0x00, 1); err != nil {
			return err
		}
	}
	if err := d.setFIR(ctx, d.fir); err != nil {
		return err
	}

	// Enable SDR mode, disable DAGC
	if err := d.DemodWriteReg(ctx, 0, 0x19, 0x05, 1); err != nil {
		return err
	}
	// Init FSM state-holding register
	if err := d.DemodWriteReg(ctx, 1, 0x93, 0xf0, 1); err != nil {
		return err
	}
	if err := d.DemodWriteReg(ctx, 1, 0x94, 0x0f, 1); err != nil {
		return err
	}
	// Disable AGC
	if err := d.DemodWriteReg(ctx, 1, 0x11, 0x00, 1); err != nil {
		return err
	}
	// Disable RF and IF AGC loop
	if err := d.DemodWriteReg(ctx, 1, 0x04, 0x00, 1); err != nil {
		return err
	}
	// Disable PID filter
	if err := d.DemodWriteReg(ctx, 0, 0x61, 0x60, 1); err != nil {
		return err
	}
	// Default ADC_I/ADC_Q datapath
	if err := d.DemodWriteReg(ctx, 0, 0x06, 0x80, 1); err != nil {
		return err
	}
	// Zero-IF mode, DC cancellation, IQ compensation
	if err := d.DemodWriteReg(ctx, 1, 0xb1, 0x1b, 1); err != nil {
		return err
	}
	// Disable 4.096 MHz clock output on TP_CK0
	return d.DemodWriteReg(ctx, 0, 0x0d, 0x83, 1)
}

// Close powers down the tuner and demodulator, releases the claim, and
// closes the transport handle. Safe to call more than once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return nil
	}
	d.cancel.Store(true)
	ctx := context.Background()
	if d.tuner != nil {
		if err := d.withI2CRepeater(ctx, d.tuner.Standby); err != nil {
			pkg.LogWarn(pkg.ComponentDevice, "tuner standby failed", "err", err)
		}
	}
	// Power off demodulator and ADCs
	if err := d.WriteReg(ctx, BlockSys, DemodCtl, 0x20, 1); err != nil {
		pkg.LogWarn(pkg.ComponentDevice, "demod power-off failed", "err", err)
	}
	_ = d.handle.ReleaseInterface(usbInterface)
	err := d.handle.Close()
	d.state = StateClosed
	pkg.LogInfo(pkg.ComponentDevice, "device closed", "name", d.name)
	return err
}

// Info returns the USB descriptor fields of the opened device.
func (d *Device) Info() hal.DeviceInfo { return d.info }

// Name returns the marketing name from the signature table.
func (d *Device) Name() string { return d.name }

// Tuner returns the detected tuner.
func (d *Device) Tuner() tuner.Tuner { return d.tuner }

// State returns the current lifecycle state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) checkOpen() error {
	switch d.state {
	case StateClosed:
		return pkg.ErrClosed
	case StateIdle, StateStreaming:
		return nil
	default:
		return fmt.Errorf("device %s", d.state)
	}
}

// SampleRate returns the achieved sample rate in Hz, zero before
// SetSampleRate.
func (d *Device) SampleRate() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate
}

// CenterFreq returns the achieved center frequency in Hz.
func (d *Device) CenterFreq() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freq
}

// TunerGains returns the tuner's supported gains in tenths of a dB.
func (d *Device) TunerGains() []int { return d.tuner.Gains() }

// SetSampleRate programs the resampler for the requested rate in Hz
// and returns the exact rate achieved. Valid requests are 225 001 to
// 300 000 and 900 001 to 3 200 000; the resampler cannot produce rates
// in between or beyond.
func (d *Device) SetSampleRate(ctx context.Context, rate uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	return d.setSampleRate(ctx, rate)
}

func (d *Device) setSampleRate(ctx context.Context, rate uint32) (uint32, error) {
	if rate < minSampleRate || rate > maxSampleRate ||
		(rate > sampleRateGapLow && rate <= sampleRateGapHigh) {
		return 0, fmt.Errorf("%d Hz: %w", rate, pkg.ErrSampleRateOutOfRange)
	}

	ratio := (uint64(d.xtal) << 22 / uint64(rate)) & 0x0ffffffc
	realRatio := ratio | (ratio&0x08000000)<<1
	realRate := uint32(uint64(d.xtal) << 22 / realRatio)
	if realRate != rate {
		pkg.LogDebug(pkg.ComponentDevice, "exact sample rate differs", "requested", rate, "achieved", realRate)
	}
	d.rate = realRate

	// Tuner filter follows the rate unless a bandwidth was pinned.
	bw := d.bw
	if bw == 0 {
		bw = realRate
	}
	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		_, berr := d.tuner.SetBandwidth(ctx, bw, realRate)
		return berr
	})
	if err != nil {
		return 0, err
	}
	if err := d.setIFFreq(ctx, d.tuner.IFFrequency()); err != nil {
		return 0, err
	}
	if d.freq != 0 {
		if _, err := d.setCenterFreq(ctx, d.freq); err != nil {
			return 0, err
		}
	}

	if err := d.DemodWriteReg(ctx, 1, 0x9f, uint16(ratio>>16), 2); err != nil {
		return 0, err
	}
	if err := d.DemodWriteReg(ctx, 1, 0xa1, uint16(ratio), 2); err != nil {
		return 0, err
	}
	if err := d.setSampleFreqCorrection(ctx, d.corr); err != nil {
		return 0, err
	}
	if err := d.resetDemod(ctx); err != nil {
		return 0, err
	}
	return realRate, nil
}

// SetCenterFreq tunes to freq in Hz and returns the frequency actually
// achieved, which callers must use for spectrum arithmetic.
func (d *Device) SetCenterFreq(ctx context.Context, freq uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	return d.setCenterFreq(ctx, freq)
}

func (d *Device) setCenterFreq(ctx context.Context, freq uint32) (uint32, error) {
	if d.directMode != DirectSamplingOff {
		if err := d.setIFFreq(ctx, freq); err != nil {
			return 0, err
		}
		d.freq = freq
		return freq, nil
	}
	var achieved uint32
	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		var terr error
		achieved, terr = d.tuner.SetFrequency(ctx, freq-d.offsetFreq)
		return terr
	})
	if err != nil {
		return 0, err
	}
	achieved += d.offsetFreq
	d.freq = achieved
	return achieved, nil
}

// SetTunerGain selects AGC or a fixed tuner gain. Manual requests are
// quantized to the tuner's gain table.
func (d *Device) SetTunerGain(ctx context.Context, gain tuner.Gain) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.withI2CRepeater(ctx, func(ctx context.Context) error {
		return d.tuner.SetGain(ctx, gain)
	})
}

// SetTunerBandwidth pins the tuner channel filter to bw Hz (0 follows
// the sample rate again) and returns the achieved bandwidth.
func (d *Device) SetTunerBandwidth(ctx context.Context, bw uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	applied := bw
	if applied == 0 {
		applied = d.rate
	}
	var achieved uint32
	err := d.withI2CRepeater(ctx, func(ctx context.Context) error {
		var berr error
		achieved, berr = d.tuner.SetBandwidth(ctx, applied, d.rate)
		return berr
	})
	if err != nil {
		return 0, err
	}
	if err := d.setIFFreq(ctx, d.tuner.IFFrequency()); err != nil {
		return 0, err
	}
	if d.freq != 0 {
		if _, err := d.setCenterFreq(ctx, d.freq); err != nil {
			return 0, err
		}
	}
	d.bw = bw
	return achieved, nil
}

// SetFreqCorrection applies a crystal error correction in parts per
// million. Past achieved-frequency returns are not revised.
func (d *Device) SetFreqCorrection(ctx context.Context, ppm int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.corr == ppm {
		return nil
	}
	d.corr = ppm
	if err := d.setSampleFreqCorrection(ctx, ppm); err != nil {
		return err
	}
	d.tuner.SetCrystalFrequency(d.tunerXtalFreq())
	if d.freq != 0 {
		if _, err := d.setCenterFreq(ctx, d.freq); err != nil {
			return err
		}
	}
	return nil
}

// FreqCorrection returns the applied correction in PPM.
func (d *Device) FreqCorrection() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.corr
}

// SetDirectSampling bypasses (or restores) the tuner, feeding the
// selected ADC branch directly. Hardware flagged force-direct-sampling
// in the EEPROM always uses the swapped branch.
func (d *Device) SetDirectSampling(ctx context.Context, mode DirectSamplingMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.forceDS {
		mode = DirectSamplingQ
	}
	switch mode {
	case DirectSamplingI, DirectSamplingQ:
		if err := d.withI2CRepeater(ctx, d.tuner.Standby); err != nil {
			return err
		}
		// Disable Zero-IF mode
		if err := d.DemodWriteReg(ctx, 1, 0xb1, 0x1a, 1); err != nil {
			return err
		}
		// Disable spectrum inversion
		if err := d.DemodWriteReg(ctx, 1, 0x15, 0x00, 1); err != nil {
			return err
		}
		// Only enable in-phase ADC input
		if err := d.DemodWriteReg(ctx, 0, 0x08, 0x4d, 1); err != nil {
			return err
		}
		val := uint16(0x80)
		if mode == DirectSamplingQ {
			val = 0x90
		}
		if err := d.DemodWriteReg(ctx, 0, 0x06, val, 1); err != nil {
			return err
		}
		d.directMode = mode
	case DirectSamplingOff:
		if err := d.withI2CRepeater(ctx, d.tuner.Init); err != nil {
			return err
		}
		// Default ADC_I/ADC_Q datapath
		if err := d.DemodWriteReg(ctx, 0, 0x06, 0x80, 1); err != nil {
			return err
		}
		d.directMode = DirectSamplingOff
	default:
		return fmt.Errorf("direct sampling mode %d: %w", mode, pkg.ErrInvalidAddress)
	}
	if d.freq != 0 {
		if _, err := d.setCenterFreq(ctx, d.freq); err != nil {
			return err
		}
	}
	return nil
}

// DirectSampling returns the active direct sampling mode.
func (d *Device) DirectSampling() DirectSamplingMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.directMode
}

// SetOffsetTuning doubles as the bias tee switch on RTL-SDR Blog
// hardware; R82xx tuners have no use for a real tuning offset.
func (d *Device) SetOffsetTuning(ctx context.Context, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.setGPIO(ctx, 0, on)
}

// SetBiasTee drives the antenna bias tee on GPIO 0.
func (d *Device) SetBiasTee(ctx context.Context, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.setGPIO(ctx, 0, on)
}

// SetTestMode switches the ADC for an 8-bit counter so transfer
// integrity can be verified without an RF signal.
func (d *Device) SetTestMode(ctx context.Context, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	val := uint16(0x05)
	if on {
		val = 0x03
	}
	return d.DemodWriteReg(ctx, 0, 0x19, val, 1)
}

// SetAGCMode switches the demodulator's internal digital AGC.
func (d *Device) SetAGCMode(ctx context.Context, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	val := uint16(0x05)
	if on {
		val = 0x25
	}
	return d.DemodWriteReg(ctx, 0, 0x19, val, 1)
}

// SetFIR loads a replacement baseband FIR. The first eight
// coefficients must fit 8 bits signed, the last eight 12 bits.
func (d *Device) SetFIR(ctx context.Context, fir [FIRLength]int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if err := d.setFIR(ctx, fir); err != nil {
		return err
	}
	d.fir = fir
	return nil
}

func (d *Device) setFIR(ctx context.Context, fir [FIRLength]int) error {
	var packed [20]byte
	for i := 0; i < 8; i++ {
		v := fir[i]
		if v < -128 || v > 127 {
			return fmt.Errorf("fir coefficient %d out of 8-bit range: %d", i, v)
		}
		packed[i] = byte(v)
	}
	// Eight 12-bit values packed three bytes per pair.
	for i := 0; i < 8; i += 2 {
		v0, v1 := fir[8+i], fir[8+i+1]
		if v0 < -2048 || v0 > 2047 {
			return fmt.Errorf("fir coefficient %d out of 12-bit range: %d", 8+i, v0)
		}
		if v1 < -2048 || v1 > 2047 {
			return fmt.Errorf("fir coefficient %d out of 12-bit range: %d", 8+i+1, v1)
		}
		packed[8+i*3/2] = byte(v0 >> 4)
		packed[8+i*3/2+1] = byte(v0<<4) | byte((v1>>8)&0x0f)
		packed[8+i*3/2+2] = byte(v1)
	}
	for i, b := range packed {
		if err := d.DemodWriteReg(ctx, 1, 0x1c+uint16(i), uint16(b), 1); err != nil {
			return err
		}
	}
	return nil
}

// SetXtalFreq trims the demodulator and tuner reference clocks, in Hz.
// Zero leaves a clock unchanged (tuner falls back to the demodulator
// clock). The demodulator clock only accepts values within 1 kHz of
// nominal.
func (d *Device) SetXtalFreq(ctx context.Context, rtlFreq, tunerFreq uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if rtlFreq > 0 &&
		(rtlFreq < DefaultXtalFreq-xtalFreqSlack || rtlFreq > DefaultXtalFreq+xtalFreqSlack) {
		return fmt.Errorf("rtl xtal %d Hz out of trim range", rtlFreq)
	}
	if rtlFreq > 0 && d.xtal != rtlFreq {
		d.xtal = rtlFreq
		if d.rate != 0 {
			if _, err := d.setSampleRate(ctx, d.rate); err != nil {
				return err
			}
		}
	}
	want := tunerFreq
	if want == 0 {
		want = d.xtal
	}
	if d.tunerXtal != want {
		d.tunerXtal = want
		d.tuner.SetCrystalFrequency(d.tunerXtalFreq())
		if d.freq != 0 {
			if _, err := d.setCenterFreq(ctx, d.freq); err != nil {
				return err
			}
		}
	}
	return nil
}

// XtalFreq returns the demodulator and tuner reference clocks in Hz.
func (d *Device) XtalFreq() (rtlFreq, tunerFreq uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.xtal, d.tunerXtal
}

// tunerXtalFreq returns the PPM-corrected tuner reference.
func (d *Device) tunerXtalFreq() uint32 {
	return uint32(float64(d.tunerXtal) * (1 + float64(d.corr)/1e6))
}

// setIFFreq programs the demodulator's downconversion offset.
func (d *Device) setIFFreq(ctx context.Context, freq uint32) error {
	ifFreq := int32(-(int64(freq) << 22 / int64(DefaultXtalFreq)))
	if err := d.DemodWriteReg(ctx, 1, 0x19, uint16(ifFreq>>16)&0x3f, 1); err != nil {
		return err
	}
	if err := d.DemodWriteReg(ctx, 1, 0x1a, uint16(ifFreq>>8)&0xff, 1); err != nil {
		return err
	}
	return d.DemodWriteReg(ctx, 1, 0x1b, uint16(ifFreq)&0xff, 1)
}

// setSampleFreqCorrection writes the PPM correction into the sampling
// frequency offset registers.
func (d *Device) setSampleFreqCorrection(ctx context.Context, ppm int) error {
	offs := int16(-ppm * (1 << 24) / 1_000_000)
	if err := d.DemodWriteReg(ctx, 1, 0x3f, uint16(offs)&0xff, 1); err != nil {
		return err
	}
	return d.DemodWriteReg(ctx, 1, 0x3e, uint16(offs>>8)&0x3f, 1)
}

// setGPIO drives one GPIO pin, forcing it high when the EEPROM pinned
// the bias tee on.
func (d *Device) setGPIO(ctx context.Context, pin uint8, on bool) error {
	if d.forceBT && pin == 0 {
		on = true
	}
	mask := uint16(1) << pin
	// Direction: output
	r, err := d.ReadReg(ctx, BlockSys, GPD, 1)
	if err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockSys, GPD, r&^mask, 1); err != nil {
		return err
	}
	r, err = d.ReadReg(ctx, BlockSys, GPOE, 1)
	if err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockSys, GPOE, r|mask, 1); err != nil {
		return err
	}
	// Level
	r, err = d.ReadReg(ctx, BlockSys, GPO, 1)
	if err != nil {
		return err
	}
	if on {
		r |= mask
	} else {
		r &^= mask
	}
	return d.WriteReg(ctx, BlockSys, GPO, r, 1)
}
