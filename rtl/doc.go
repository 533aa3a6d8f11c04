// Package rtl drives RTL2832U-based USB SDR dongles: enumeration,
// the demodulator's register and I2C tunnel protocol over control
// transfers, tuner orchestration, and raw I/Q streaming over the bulk
// endpoint.
//
// A Device is obtained from Open with a transport (rtl/hal/linux on
// real hardware, rtl/hal/sim in tests) and an identity selector.
// Frequency, rate, and bandwidth setters return the value the hardware
// achieved; callers must use the returned value, not the request.
package rtl
