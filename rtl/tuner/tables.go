package tuner

// Power-on register image for the writable window (regs 0x05..0x1f).
var r82xxInitRegs = [numCacheRegs]uint8{
	0x83, 0x32, 0x75, /* 05 to 07 */
	0xc0, 0x40, 0xd6, 0x6c, /* 08 to 0b */
	0xf5, 0x63, 0x75, 0x68, /* 0c to 0f */
	0x6c, 0x83, 0x80, 0x00, /* 10 to 13 */
	0x0f, 0x00, 0xc0, 0x30, /* 14 to 17 */
	0x48, 0xcc, 0x60, 0x00, /* 18 to 1b */
	0x54, 0xae, 0x4a, 0xc0, /* 1c to 1f */
}

// Total gains in tenths of a dB, measured at 928 MHz with -60 dBm in.
// Strictly increasing; manual gain requests quantize against this.
var r82xxGains = []int{
	0, 9, 14, 27, 37, 77, 87, 125, 144, 157, 166, 197, 207, 229,
	254, 280, 297, 328, 338, 364, 372, 386, 402, 421, 434, 439,
	445, 480, 496,
}

// Per-step gain deltas for the two variable stages, tenths of a dB.
var (
	r82xxLNASteps   = [16]int{0, 9, 13, 40, 38, 13, 31, 22, 26, 31, 26, 14, 19, 5, 35, 13}
	r82xxMixerSteps = [16]int{0, 5, 10, 10, 19, 9, 10, 25, 17, 10, 8, 16, 13, 6, 3, -8}
)

// freqRange holds the front end settings for one band. Lookup walks the
// table and keeps the last row whose start frequency is not above the
// target.
type freqRange struct {
	freqMHz    uint32
	openD      uint8 // R23[3], tracking filter open drain
	rfMuxPloy  uint8 // R26[7:6] mux, R26[1:0] poly
	tfC        uint8 // R27, tracking filter caps
	xtalCap20p uint8
	xtalCap10p uint8
	xtalCap0p  uint8
}

var r82xxFreqRanges = []freqRange{
	{0, 0x08, 0x02, 0xdf, 0x02, 0x01, 0x00},
	{50, 0x08, 0x02, 0xbe, 0x02, 0x01, 0x00},
	{55, 0x08, 0x02, 0x8b, 0x02, 0x01, 0x00},
	{60, 0x08, 0x02, 0x7b, 0x02, 0x01, 0x00},
	{65, 0x08, 0x02, 0x69, 0x02, 0x01, 0x00},
	{70, 0x08, 0x02, 0x58, 0x02, 0x01, 0x00},
	{75, 0x00, 0x02, 0x44, 0x02, 0x01, 0x00},
	{80, 0x00, 0x02, 0x44, 0x02, 0x01, 0x00},
	{90, 0x00, 0x02, 0x34, 0x01, 0x01, 0x00},
	{100, 0x00, 0x02, 0x34, 0x01, 0x01, 0x00},
	{110, 0x00, 0x02, 0x24, 0x01, 0x01, 0x00},
	{120, 0x00, 0x02, 0x24, 0x01, 0x01, 0x00},
	{140, 0x00, 0x02, 0x14, 0x01, 0x01, 0x00},
	{180, 0x00, 0x02, 0x13, 0x00, 0x00, 0x00},
	{220, 0x00, 0x02, 0x13, 0x00, 0x00, 0x00},
	{250, 0x00, 0x02, 0x11, 0x00, 0x00, 0x00},
	{280, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00},
	{310, 0x00, 0x41, 0x00, 0x00, 0x00, 0x00},
	{450, 0x00, 0x41, 0x00, 0x00, 0x00, 0x00},
	{588, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
	{650, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
}

// IF low-pass filter corner frequencies in Hz, widest first. Bandwidth
// selection picks the narrowest corner still at or above the request.
var r82xxLowPassBW = []int{
	1_700_000, 1_600_000, 1_550_000, 1_450_000, 1_200_000,
	900_000, 700_000, 550_000, 450_000, 350_000,
}

// bitrevNibble reverses four bits; the chip ships register reads LSB
// first.
var bitrevNibble = [16]uint8{
	0x0, 0x8, 0x4, 0xc, 0x2, 0xa, 0x6, 0xe,
	0x1, 0x9, 0x5, 0xd, 0x3, 0xb, 0x7, 0xf,
}

func bitReverse(b uint8) uint8 {
	return bitrevNibble[b&0x0f]<<4 | bitrevNibble[b>>4]
}
