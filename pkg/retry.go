package pkg

import "time"

// Poll invokes fn up to attempts times with delay between attempts, until it
// reports done. Used for all bounded hardware waits: I2C cycle completion,
// PLL lock detect, and filter calibration convergence. Exceeding the attempt
// budget is a hard failure signalled by ok == false; fn errors abort early.
func Poll(attempts int, delay time.Duration, fn func() (done bool, err error)) (ok bool, err error) {
	for i := 0; i < attempts; i++ {
		done, err := fn()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
		if i < attempts-1 && delay > 0 {
			time.Sleep(delay)
		}
	}
	return false, nil
}
