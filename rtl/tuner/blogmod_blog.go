//go:build rtlsdrblog

package tuner

// RTL-SDR Blog hardware mod: maximum VCO current and a 2.0 V divider
// buffer dropout for better L-band performance.
const (
	vcoCurrentVal  uint8 = 0x06
	vcoCurrentMask uint8 = 0xff
	divBufCurLow   uint8 = 0xa0
	divBufCurHigh  uint8 = 0xa0
)
