// Package tuner holds the RF front end drivers reached through the
// demodulator's I2C tunnel, and the probe table used to detect which
// chip a dongle carries.
package tuner
