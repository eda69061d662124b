package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryExecIfSucceedsAfterMatchedFailures(t *testing.T) {
	retryable := errors.New("race")
	attempts := 0
	err := RetryExecIf(func() error {
		attempts++
		if attempts < 3 {
			return retryable
		}
		return nil
	}, func(err error) bool { return errors.Is(err, retryable) }, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryExecIfStopsOnUnmatchedError(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	err := RetryExecIf(func() error {
		attempts++
		return fatal
	}, func(err error) bool { return false }, 5, time.Millisecond)

	assert.Equal(t, 1, attempts, "non-matching errors must not be retried")
	assert.ErrorIs(t, err, fatal)
}

func TestRetryExecIfExhausted(t *testing.T) {
	retryable := errors.New("race")
	attempts := 0
	err := RetryExecIf(func() error {
		attempts++
		return retryable
	}, func(err error) bool { return errors.Is(err, retryable) }, 2, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
	assert.ErrorIs(t, err, retryable, "wrapped error must remain matchable")
}
