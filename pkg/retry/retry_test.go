package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/logger"
)

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

func TestDoSucceedsAfterRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errs.New(errs.KindNavigationTimeout, "goto", "u", context.DeadlineExceeded)
		}
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.New(errs.KindLogin, "login", "", nil)
	}, fastConfig(5))

	assert.True(t, errs.IsKind(err, errs.KindLogin))
	assert.Equal(t, 1, calls)
}

func TestDoMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.New(errs.KindDialogUnavailable, "open", "", nil)
	}, fastConfig(2))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (2) exceeded")
	assert.ErrorIs(t, err, errs.ErrDialogUnavailable)
	assert.Equal(t, 2, calls)
}

func TestDoNoBackoffAfterLastAttempt(t *testing.T) {
	retries := 0
	cfg := fastConfig(2)
	cfg.Backoff = &ConstantBackoff{Delay: 200 * time.Millisecond}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retries++
	}

	start := time.Now()
	err := Do(context.Background(), func(ctx context.Context) error {
		return errs.New(errs.KindNavigation, "goto", "u", nil)
	}, cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 1, retries)
	assert.Less(t, elapsed, 350*time.Millisecond)
}

func TestDoCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(0)
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) { cancel() }

	err := Do(ctx, func(ctx context.Context) error {
		return errors.New("flaky")
	}, cfg)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry cancelled")
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(context.Background(), func(ctx context.Context) error {
		return errors.New("always")
	}, cfg)

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"bare deadline", context.DeadlineExceeded, false},
		{"navigation timeout", errs.New(errs.KindNavigationTimeout, "goto", "", context.DeadlineExceeded), true},
		{"wrapped dialog unavailable", fmt.Errorf("open: %w", errs.New(errs.KindDialogUnavailable, "", "", nil)), true},
		{"panel not found", errs.New(errs.KindPanelNotFound, "locate", "", nil), false},
		{"missing credentials", errs.New(errs.KindMissingCredentials, "", "", nil), false},
		{"unclassified", errors.New("click failed"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, time.Second, b.NextDelay(1))
	assert.Equal(t, 2*time.Second, b.NextDelay(2))
	assert.Equal(t, 4*time.Second, b.NextDelay(3))
	assert.Equal(t, 5*time.Second, b.NextDelay(4))

	b.JitterFactor = 0.5
	for i := 0; i < 100; i++ {
		d := b.NextDelay(1)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}
