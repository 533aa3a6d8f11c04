package rtl

import (
	"context"
	"fmt"

	"github.com/softrtl/rtl2832/pkg"
)

// maxBulkBlock caps one bulk read; larger requests are split into
// whole transfers.
const maxBulkBlock = 256 * 1024

// ResetBuffer flushes the bulk endpoint FIFO. Call it between
// configuration and the first read to drop stale samples.
func (d *Device) ResetBuffer(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockUSB, USBEPACtl, 0x1002, 2); err != nil {
		return err
	}
	return d.WriteReg(ctx, BlockUSB, USBEPACtl, 0x0000, 2)
}

// StartStreaming flushes the endpoint and moves the device into the
// streaming state.
func (d *Device) StartStreaming(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return pkg.ErrClosed
	}
	if d.state == StateStreaming {
		return pkg.ErrAlreadyStreaming
	}
	if d.state != StateIdle {
		return fmt.Errorf("device %s", d.state)
	}
	if err := d.WriteReg(ctx, BlockUSB, USBEPACtl, 0x1002, 2); err != nil {
		return err
	}
	if err := d.WriteReg(ctx, BlockUSB, USBEPACtl, 0x0000, 2); err != nil {
		return err
	}
	d.cancel.Store(false)
	d.state = StateStreaming
	pkg.LogDebug(pkg.ComponentStream, "streaming started")
	return nil
}

// ReadSamples blocks until n bytes of interleaved I/Q have been read
// from the bulk endpoint. n must be even; samples are unsigned 8-bit
// with a 127.5 midpoint. Cancellation is cooperative and takes effect
// between transfers, never splitting one.
func (d *Device) ReadSamples(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 || n%2 != 0 {
		return nil, fmt.Errorf("sample read of %d bytes: length must be positive and even", n)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return nil, pkg.ErrClosed
	}
	if d.state != StateStreaming {
		return nil, pkg.ErrNotStreaming
	}
	buf := make([]byte, n)
	got := 0
	for got < n {
		if d.cancel.Load() {
			d.state = StateIdle
			return nil, pkg.ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk := n - got
		if chunk > maxBulkBlock {
			chunk = maxBulkBlock
		}
		read, err := d.handle.BulkIn(ctx, bulkEndpoint, buf[got:got+chunk])
		if err != nil {
			return nil, fmt.Errorf("bulk read: %w", err)
		}
		if read == 0 {
			return nil, fmt.Errorf("bulk read: %w", pkg.ErrShortTransfer)
		}
		got += read
	}
	return buf, nil
}

// CancelStreaming requests that the current or next ReadSamples return
// ErrCancelled. Safe to call from any goroutine; the device returns to
// idle once the in-flight transfer finishes.
func (d *Device) CancelStreaming() {
	d.cancel.Store(true)
}

// StopStreaming leaves the streaming state immediately. Unlike
// CancelStreaming it must not race a concurrent ReadSamples.
func (d *Device) StopStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return pkg.ErrClosed
	}
	if d.state != StateStreaming {
		return pkg.ErrNotStreaming
	}
	d.state = StateIdle
	pkg.LogDebug(pkg.ComponentStream, "streaming stopped")
	return nil
}

// StreamCallback receives each sample block. Returning false stops the
// stream.
type StreamCallback func(block []byte) bool

// Stream runs a background read loop delivering blockSize-byte sample
// blocks to cb until the context ends, cb returns false, or a read
// fails. Buffers cycle through a pool of nBuffers so a slow consumer
// drops blocks instead of stalling the USB pipeline. The loop's
// terminal error is sent on the returned channel; a stop requested by
// cb surfaces as ErrCancelled.
func (d *Device) Stream(ctx context.Context, nBuffers, blockSize int, cb StreamCallback) (<-chan error, error) {
	blockSize &^= 1
	if nBuffers < 1 || blockSize <= 0 {
		return nil, fmt.Errorf("stream with %d buffers of %d bytes: invalid geometry", nBuffers, blockSize)
	}
	if err := d.StartStreaming(ctx); err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	pool := make(chan []byte, nBuffers)
	blocks := make(chan []byte, nBuffers)
	for i := 0; i < nBuffers; i++ {
		pool <- make([]byte, blockSize)
	}

	go func() {
		defer close(blocks)
		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case buf := <-pool:
				got, err := d.ReadSamples(ctx, len(buf))
				if err != nil {
					done <- err
					return
				}
				copy(buf, got)
				select {
				case blocks <- buf:
				default:
					pkg.LogWarn(pkg.ComponentStream, "dropped sample block", "bytes", len(buf))
					pool <- buf
				}
			}
		}
	}()

	go func() {
		stopped := false
		for buf := range blocks {
			if !stopped && !cb(buf) {
				d.CancelStreaming()
				stopped = true
			}
			// Buffers always go back so the reader can drain through
			// to the cancellation.
			pool <- buf
		}
	}()

	return done, nil
}
