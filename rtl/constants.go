package rtl

import "time"

// Register blocks addressed through the high byte of the control
// transfer index.
const (
	BlockDemod uint16 = 0
	BlockUSB   uint16 = 1
	BlockSys   uint16 = 2
	BlockTun   uint16 = 3
	BlockROM   uint16 = 4
	BlockIRB   uint16 = 5
	BlockIIC   uint16 = 6
)

// System block registers.
const (
	DemodCtl  uint16 = 0x3000
	GPO       uint16 = 0x3001
	GPI       uint16 = 0x3002
	GPOE      uint16 = 0x3003
	GPD       uint16 = 0x3004
	SysIntE   uint16 = 0x3005
	SysIntS   uint16 = 0x3006
	GPCfg0    uint16 = 0x3007
	GPCfg1    uint16 = 0x3008
	SysIntE1  uint16 = 0x3009
	SysIntS1  uint16 = 0x300a
	DemodCtl1 uint16 = 0x300b
	IRSuspend uint16 = 0x300c
)

// USB block registers.
const (
	USBSysCtl     uint16 = 0x2000
	USBCtrl       uint16 = 0x2010
	USBStat       uint16 = 0x2014
	USBEPACfg     uint16 = 0x2144
	USBEPACtl     uint16 = 0x2148
	USBEPAMaxPkt  uint16 = 0x2158
	USBEPAMaxPkt2 uint16 = 0x215a
	USBEPAFifoCfg uint16 = 0x2160
)

// Configuration EEPROM behind the I2C tunnel.
const (
	EEPROMAddr uint8 = 0xa0
	EEPROMSize       = 256
)

const (
	// DefaultXtalFreq is the crystal frequency shared by the demodulator
	// and tuner on nearly all dongles, in Hz.
	DefaultXtalFreq = 28_800_000

	// bulkEndpoint carries raw I/Q samples from endpoint A.
	bulkEndpoint uint8 = 0x81

	// usbInterface is the single vendor interface the demodulator exposes.
	usbInterface uint8 = 0

	// ctrlTimeout bounds every endpoint 0 transfer.
	ctrlTimeout = 300 * time.Millisecond
)

// Sample rate limits accepted by the resampler, in Hz.
const (
	minSampleRate     = 225_001
	maxSampleRate     = 3_200_000
	sampleRateGapLow  = 300_000
	sampleRateGapHigh = 900_000
)

// Signature pairs an idVendor/idProduct with a marketing name.
type Signature struct {
	VendorID  uint16
	ProductID uint16
	Name      string
}

// KnownDevices lists every RTL2832U-based product the driver claims.
// Enumeration filters the bus against this table.
var KnownDevices = []Signature{
	{0x0bda, 0x2832, "Generic RTL2832U"},
	{0x0bda, 0x2838, "Generic RTL2832U OEM"},
	{0x0413, 0x6680, "DigitalNow Quad DVB-T PCI-E card"},
	{0x0413, 0x6f0f, "Leadtek WinFast DTV Dongle mini D"},
	{0x0458, 0x707f, "Genius TVGo DVB-T03 USB dongle (Ver. B)"},
	{0x0ccd, 0x00a9, "Terratec Cinergy T Stick Black (rev 1)"},
	{0x0ccd, 0x00b3, "Terratec NOXON DAB/DAB+ USB dongle (rev 1)"},
	{0x0ccd, 0x00b4, "Terratec Deutschlandradio DAB Stick"},
	{0x0ccd, 0x00b5, "Terratec NOXON DAB Stick - Radio Energy"},
	{0x0ccd, 0x00b7, "Terratec Media Broadcast DAB Stick"},
	{0x0ccd, 0x00b8, "Terratec BR DAB Stick"},
	{0x0ccd, 0x00b9, "Terratec WDR DAB Stick"},
	{0x0ccd, 0x00c0, "Terratec MuellerVerlag DAB Stick"},
	{0x0ccd, 0x00c6, "Terratec Fraunhofer DAB Stick"},
	{0x0ccd, 0x00d3, "Terratec Cinergy T Stick RC (Rev.3)"},
	{0x0ccd, 0x00d7, "Terratec T Stick PLUS"},
	{0x0ccd, 0x00e0, "Terratec NOXON DAB/DAB+ USB dongle (rev 2)"},
	{0x1554, 0x5020, "PixelView PV-DT235U(RN)"},
	{0x15f4, 0x0131, "Astrometa DVB-T/DVB-T2"},
	{0x15f4, 0x0133, "HanfTek DAB+FM+DVB-T"},
	{0x185b, 0x0620, "Compro Videomate U620F"},
	{0x185b, 0x0650, "Compro Videomate U650F"},
	{0x185b, 0x0680, "Compro Videomate U680F"},
	{0x1b80, 0xd393, "GIGABYTE GT-U7300"},
	{0x1b80, 0xd394, "DIKOM USB-DVBT HD"},
	{0x1b80, 0xd395, "Peak 102569AGPK"},
	{0x1b80, 0xd397, "KWorld KW-UB450-T USB DVB-T Pico TV"},
	{0x1b80, 0xd398, "Zaapa ZT-MINDVBZP"},
	{0x1b80, 0xd39d, "SVEON STV20 DVB-T USB & FM"},
	{0x1b80, 0xd3a4, "Twintech UT-40"},
	{0x1b80, 0xd3a8, "ASUS U3100MINI_PLUS_V2"},
	{0x1b80, 0xd3af, "SVEON STV27 DVB-T USB & FM"},
	{0x1b80, 0xd3b0, "SVEON STV21 DVB-T USB & FM"},
	{0x1d19, 0x1101, "Dexatek DK DVB-T Dongle (Logilink VG0002A)"},
	{0x1d19, 0x1102, "Dexatek DK DVB-T Dongle (MSI DigiVox mini II V3.0)"},
	{0x1d19, 0x1103, "Dexatek Technology Ltd. DK 5217 DVB-T Dongle"},
	{0x1d19, 0x1104, "MSI DigiVox Micro HD"},
	{0x1f4d, 0xa803, "Sweex DVB-T USB"},
	{0x1f4d, 0xb803, "GTek T803"},
	{0x1f4d, 0xc803, "Lifeview LV5TDeluxe"},
	{0x1f4d, 0xd286, "MyGica TD312"},
	{0x1f4d, 0xd803, "PROlectrix DV107669"},
}

// lookupSignature returns the table entry for a vid/pid pair.
func lookupSignature(vid, pid uint16) (Signature, bool) {
	for _, s := range KnownDevices {
		if s.VendorID == vid && s.ProductID == pid {
			return s, true
		}
	}
	return Signature{}, false
}
