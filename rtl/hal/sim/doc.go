// Package sim provides an in-memory RTL2832U dongle behind the hal
// transport interfaces. It decodes the same control transfer protocol
// a real demodulator speaks, keeps per-block and per-page register
// state, and routes I2C tunnel traffic to modeled peripherals, so the
// driver core and tuner drivers run unmodified against it in tests and
// examples.
package sim
