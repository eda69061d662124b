package utils

import (
	"fmt"
	"time"
)

// RetryExecIf runs function up to retries+1 times, doubling the delay between
// attempts, but only while cond matches the returned error; any other error is
// returned as-is after the first attempt.
func RetryExecIf(function func() error, cond func(error) bool, retries int, delay time.Duration) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = function(); err == nil {
			return nil
		}
		if !cond(err) {
			return err
		}
		if attempt < retries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("failed after %d retries: %w", retries, err)
}
