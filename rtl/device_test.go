package rtl

import (
	"context"
	"errors"
	"testing"

	"github.com/softrtl/rtl2832/pkg"
	"github.com/softrtl/rtl2832/rtl/hal/sim"
)

// openSim brings up a device against one simulated dongle and arranges
// for it to be closed when the test ends.
func openSim(t *testing.T, cfg sim.Config) (*Device, *sim.Device) {
	t.Helper()
	sd := sim.NewDevice(cfg)
	d, err := Open(context.Background(), sim.New(sd), ByIndex(0))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, sd
}

func TestOpenDetectsR820T(t *testing.T) {
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	if got := d.State(); got != StateIdle {
		t.Fatalf("State() = %v, want %v", got, StateIdle)
	}
	if got := d.Tuner().Info().ID; got != "r820t" {
		t.Errorf("tuner ID = %q, want %q", got, "r820t")
	}
	if rtlFreq, tunerFreq := d.XtalFreq(); rtlFreq != DefaultXtalFreq || tunerFreq != DefaultXtalFreq {
		t.Errorf("XtalFreq() = %d, %d, want %d, %d", rtlFreq, tunerFreq, DefaultXtalFreq, DefaultXtalFreq)
	}
	if sd.RepeaterOpen() {
		t.Error("i2c repeater left open after bring-up")
	}
	if got := d.Name(); got != "Generic RTL2832U OEM" {
		t.Errorf("Name() = %q", got)
	}
}

func TestOpenDetectsR828D(t *testing.T) {
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR828D})
	if got := d.Tuner().Info().ID; got != "r828d" {
		t.Errorf("tuner ID = %q, want %q", got, "r828d")
	}
	// The tuner reference follows the R828D's own crystal.
	if _, tunerFreq := d.XtalFreq(); tunerFreq != 16_000_000 {
		t.Errorf("tuner xtal = %d, want 16000000", tunerFreq)
	}
}

func TestOpenNoTuner(t *testing.T) {
	sd := sim.NewDevice(sim.Config{})
	transport := sim.New(sd)
	_, err := Open(context.Background(), transport, ByIndex(0))
	if !errors.Is(err, pkg.ErrNoSupportedTuner) {
		t.Fatalf("Open() error = %v, want ErrNoSupportedTuner", err)
	}
	// The failed open must have released the device.
	_, err = Open(context.Background(), transport, ByIndex(0))
	if errors.Is(err, pkg.ErrBusy) {
		t.Error("device still claimed after failed open")
	}
}

func TestSetSampleRate(t *testing.T) {
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	achieved, err := d.SetSampleRate(context.Background(), 2_048_000)
	if err != nil {
		t.Fatalf("SetSampleRate() error: %v", err)
	}
	if achieved != 2_048_000 {
		t.Errorf("achieved rate = %d, want 2048000", achieved)
	}
	if got := d.SampleRate(); got != achieved {
		t.Errorf("SampleRate() = %d, want %d", got, achieved)
	}

	// Decode the programmed resampler ratio back into a rate.
	ratio := uint64(sd.DemodReg(1, 0x9f))<<24 |
		uint64(sd.DemodReg(1, 0xa0))<<16 |
		uint64(sd.DemodReg(1, 0xa1))<<8 |
		uint64(sd.DemodReg(1, 0xa2))
	realRatio := ratio | (ratio&0x08000000)<<1
	if got := uint32(uint64(DefaultXtalFreq) << 22 / realRatio); got != achieved {
		t.Errorf("programmed ratio yields %d Hz, want %d", got, achieved)
	}
}

func TestSetSampleRateRejectsInvalid(t *testing.T) {
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	for _, rate := range []uint32{0, 100_000, 225_000, 500_000, 900_000, 3_200_001} {
		if _, err := d.SetSampleRate(context.Background(), rate); !errors.Is(err, pkg.ErrSampleRateOutOfRange) {
			t.Errorf("SetSampleRate(%d) error = %v, want ErrSampleRateOutOfRange", rate, err)
		}
	}
	// Edges of the two valid spans.
	for _, rate := range []uint32{225_001, 300_000, 900_001, 3_200_000} {
		if _, err := d.SetSampleRate(context.Background(), rate); err != nil {
			t.Errorf("SetSampleRate(%d) error: %v", rate, err)
		}
	}
}

func TestSetCenterFreq(t *testing.T) {
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	const want = 100_000_000
	achieved, err := d.SetCenterFreq(context.Background(), want)
	if err != nil {
		t.Fatalf("SetCenterFreq() error: %v", err)
	}
	diff := int64(achieved) - want
	if diff < -2000 || diff > 2000 {
		t.Errorf("achieved freq = %d, want within 2 kHz of %d", achieved, want)
	}
	if got := d.CenterFreq(); got != achieved {
		t.Errorf("CenterFreq() = %d, want %d", got, achieved)
	}
}

func TestSetCenterFreqOutOfRange(t *testing.T) {
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	for _, freq := range []uint32{10_000_000, 2_000_000_000} {
		if _, err := d.SetCenterFreq(context.Background(), freq); !errors.Is(err, pkg.ErrFrequencyOutOfRange) {
			t.Errorf("SetCenterFreq(%d) error = %v, want ErrFrequencyOutOfRange", freq, err)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if got := d.State(); got != StateClosed {
		t.Errorf("State() = %v, want %v", got, StateClosed)
	}
	if _, err := d.SetSampleRate(context.Background(), 2_048_000); !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("SetSampleRate() after close error = %v, want ErrClosed", err)
	}
}

func TestTestModeAndAGCRegisters(t *testing.T) {
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()
	if err := d.SetTestMode(ctx, true); err != nil {
		t.Fatalf("SetTestMode(true) error: %v", err)
	}
	if got := sd.DemodReg(0, 0x19); got != 0x03 {
		t.Errorf("mode reg = %#02x, want 0x03", got)
	}
	if err := d.SetAGCMode(ctx, true); err != nil {
		t.Fatalf("SetAGCMode(true) error: %v", err)
	}
	if got := sd.DemodReg(0, 0x19); got != 0x25 {
		t.Errorf("mode reg = %#02x, want 0x25", got)
	}
	if err := d.SetAGCMode(ctx, false); err != nil {
		t.Fatalf("SetAGCMode(false) error: %v", err)
	}
	if got := sd.DemodReg(0, 0x19); got != 0x05 {
		t.Errorf("mode reg = %#02x, want 0x05", got)
	}
}

func TestBiasTeeGPIO(t *testing.T) {
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()
	if err := d.SetBiasTee(ctx, true); err != nil {
		t.Fatalf("SetBiasTee(true) error: %v", err)
	}
	if got := sd.BlockReg(2, GPO); got&0x01 == 0 {
		t.Errorf("GPO = %#02x, want bit 0 set", got)
	}
	if got := sd.BlockReg(2, GPOE); got&0x01 == 0 {
		t.Errorf("GPOE = %#02x, want bit 0 set", got)
	}
	if err := d.SetBiasTee(ctx, false); err != nil {
		t.Fatalf("SetBiasTee(false) error: %v", err)
	}
	if got := sd.BlockReg(2, GPO); got&0x01 != 0 {
		t.Errorf("GPO = %#02x, want bit 0 clear", got)
	}
}

func TestEEPROMForcesBiasTee(t *testing.T) {
	// Byte 7 bit 1 clear pins the bias tee on.
	rom := make([]byte, 8)
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T, EEPROM: rom})
	ctx := context.Background()
	if err := d.SetBiasTee(ctx, false); err != nil {
		t.Fatalf("SetBiasTee(false) error: %v", err)
	}
	if got := sd.BlockReg(2, GPO); got&0x01 == 0 {
		t.Errorf("GPO = %#02x, want bias tee forced on", got)
	}
}

func TestDirectSampling(t *testing.T) {
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()
	if err := d.SetDirectSampling(ctx, DirectSamplingI); err != nil {
		t.Fatalf("SetDirectSampling(I) error: %v", err)
	}
	if got := sd.DemodReg(0, 0x06); got != 0x80 {
		t.Errorf("datapath reg = %#02x, want 0x80", got)
	}
	if got := d.DirectSampling(); got != DirectSamplingI {
		t.Errorf("DirectSampling() = %v, want %v", got, DirectSamplingI)
	}
	if err := d.SetDirectSampling(ctx, DirectSamplingQ); err != nil {
		t.Fatalf("SetDirectSampling(Q) error: %v", err)
	}
	if got := sd.DemodReg(0, 0x06); got != 0x90 {
		t.Errorf("datapath reg = %#02x, want 0x90", got)
	}
	if err := d.SetDirectSampling(ctx, DirectSamplingOff); err != nil {
		t.Fatalf("SetDirectSampling(Off) error: %v", err)
	}
	if got := sd.DemodReg(0, 0x06); got != 0x80 {
		t.Errorf("datapath reg = %#02x, want 0x80", got)
	}
}

func TestEEPROMForcesDirectSampling(t *testing.T) {
	// Byte 7 bit 0 set forces the swapped ADC branch.
	rom := make([]byte, 8)
	rom[7] = 0x03
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR820T, EEPROM: rom})
	if err := d.SetDirectSampling(context.Background(), DirectSamplingI); err != nil {
		t.Fatalf("SetDirectSampling(I) error: %v", err)
	}
	if got := d.DirectSampling(); got != DirectSamplingQ {
		t.Errorf("DirectSampling() = %v, want %v", got, DirectSamplingQ)
	}
}

func TestSetFreqCorrection(t *testing.T) {
	d, sd := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	if err := d.SetFreqCorrection(context.Background(), 10); err != nil {
		t.Fatalf("SetFreqCorrection() error: %v", err)
	}
	if got := d.FreqCorrection(); got != 10 {
		t.Errorf("FreqCorrection() = %d, want 10", got)
	}
	// offs = -10 * 2^24 / 1e6 = -167 = 0xff59 truncated to 14 bits.
	if got := sd.DemodReg(1, 0x3f); got != 0x59 {
		t.Errorf("correction low byte = %#02x, want 0x59", got)
	}
	if got := sd.DemodReg(1, 0x3e); got != 0x3f {
		t.Errorf("correction high byte = %#02x, want 0x3f", got)
	}
}

func TestSetXtalFreqTrimWindow(t *testing.T) {
	d, _ := openSim(t, sim.Config{TunerAddr: sim.AddrR820T})
	ctx := context.Background()
	if err := d.SetXtalFreq(ctx, 27_000_000, 0); err == nil {
		t.Error("SetXtalFreq() accepted a clock far outside the trim window")
	}
	if err := d.SetXtalFreq(ctx, DefaultXtalFreq+500, 0); err != nil {
		t.Fatalf("SetXtalFreq() error: %v", err)
	}
	rtlFreq, tunerFreq := d.XtalFreq()
	if rtlFreq != DefaultXtalFreq+500 || tunerFreq != DefaultXtalFreq+500 {
		t.Errorf("XtalFreq() = %d, %d, want both %d", rtlFreq, tunerFreq, DefaultXtalFreq+500)
	}
}
