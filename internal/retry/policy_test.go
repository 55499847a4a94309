package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := FromConfig(config.RetryConfig{})
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Zero(t, p.MaxRetries)
}

func TestFromConfig_ClampsInitial(t *testing.T) {
	p := FromConfig(config.RetryConfig{
		Backoff:    config.RetryBackoffFixed,
		Initial:    5 * time.Second,
		Max:        2 * time.Second,
		MaxRetries: 5,
	})
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)
}

func TestDelay(t *testing.T) {
	tests := []struct {
		mode config.RetryBackoffMode
		want []time.Duration
	}{
		{config.RetryBackoffFixed, []time.Duration{0, 2 * time.Second, 2 * time.Second, 2 * time.Second}},
		{config.RetryBackoffLinear, []time.Duration{0, 2 * time.Second, 4 * time.Second, 5 * time.Second}},
		{config.RetryBackoffExponential, []time.Duration{0, 2 * time.Second, 4 * time.Second, 5 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := Policy{Mode: tt.mode, Initial: 2 * time.Second, Max: 5 * time.Second}
			for i, want := range tt.want {
				assert.Equal(t, want, p.Delay(i), "retry %d", i)
			}
		})
	}
	p := Policy{Mode: config.RetryBackoffExponential, Initial: time.Second, Max: time.Minute}
	assert.Equal(t, time.Minute, p.Delay(100))
}

func TestDo_RetriesRetryable(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 2}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.ExternalError("flaky").Retryable().Build()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnSuccessOrPermanent(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}

	calls := 0
	require.NoError(t, p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.ExternalError("flaky").Retryable().Build()
		}
		return nil
	}))
	assert.Equal(t, 2, calls)

	calls = 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.ExternalError("HTTP 400").WithRetry(errors.RetryNever).Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CanceledWhileWaiting(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Hour, Max: time.Hour, MaxRetries: 1}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.ExternalError("flaky").Retryable().Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
