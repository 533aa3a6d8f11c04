//go:build !rtlsdrblog

package tuner

// Stock Rafael PLL biasing.
const (
	vcoCurrentVal  uint8 = 0x80
	vcoCurrentMask uint8 = 0xe0
	divBufCurLow   uint8 = 0x20
	divBufCurHigh  uint8 = 0x30
)
