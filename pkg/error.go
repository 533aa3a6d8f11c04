package pkg

import "errors"

// Transport-level errors.
var (
	// ErrTransport indicates a failed USB transfer. Chip state after a failed
	// transfer is indeterminate, so callers must re-sequence from a known
	// point rather than retry the transfer blindly.
	ErrTransport = errors.New("transport failure")

	// ErrShortTransfer indicates a transfer moved fewer bytes than requested.
	ErrShortTransfer = errors.New("short transfer")

	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrBusy indicates the device or interface is already claimed.
	ErrBusy = errors.New("resource busy")
)

// Register and I2C protocol errors.
var (
	// ErrInvalidAddress indicates a register block/offset outside its valid
	// window. The access is rejected before any transfer is issued.
	ErrInvalidAddress = errors.New("invalid register address")

	// ErrI2CNack indicates the addressed I2C peripheral did not acknowledge.
	// Expected and non-fatal during tuner detection; fatal anywhere else.
	ErrI2CNack = errors.New("i2c not acknowledged")

	// ErrI2CTimeout indicates an I2C bus cycle did not complete within the
	// bounded polling budget.
	ErrI2CTimeout = errors.New("i2c timeout")
)

// Tuner errors.
var (
	// ErrFrequencyOutOfRange indicates a frequency outside the tuner's band.
	ErrFrequencyOutOfRange = errors.New("frequency out of range")

	// ErrPLLNotLocked indicates the PLL lock-detect bit did not assert within
	// the bounded polling budget.
	ErrPLLNotLocked = errors.New("pll not locked")

	// ErrCalibrationFailed indicates filter calibration did not converge.
	ErrCalibrationFailed = errors.New("calibration failed")
)

// Device and enumeration errors.
var (
	// ErrSampleRateOutOfRange indicates a rate the resampler cannot produce.
	ErrSampleRateOutOfRange = errors.New("sample rate out of range")

	// ErrNoSupportedTuner indicates no known tuner answered on the I2C bus.
	ErrNoSupportedTuner = errors.New("no supported tuner found")

	// ErrDeviceNotFound indicates no connected device matches the identity.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrAmbiguousSerial indicates more than one connected device carries the
	// requested serial string.
	ErrAmbiguousSerial = errors.New("ambiguous serial")

	// ErrClosed indicates an operation on a closed device.
	ErrClosed = errors.New("device closed")

	// ErrCancelled indicates a cancelled operation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrAlreadyStreaming indicates streaming was started twice.
	ErrAlreadyStreaming = errors.New("already streaming")

	// ErrNotStreaming indicates a streaming read without StartStreaming.
	ErrNotStreaming = errors.New("not streaming")
)
