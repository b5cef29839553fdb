package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, BackoffLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicy_ClampsAndFallsBack(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, BackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	assert.Equal(t, BackoffLinear, NewPolicy("weird", time.Millisecond, time.Second, 1).Mode)
}

func TestDelay(t *testing.T) {
	tests := []struct {
		mode Backoff
		want []time.Duration
	}{
		{BackoffFixed, []time.Duration{100, 100, 100, 100}},
		{BackoffLinear, []time.Duration{100, 200, 250, 250}},
		{BackoffExponential, []time.Duration{100, 200, 250, 250}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := NewPolicy(tt.mode, 100*time.Millisecond, 250*time.Millisecond, 5)
			for i, want := range tt.want {
				assert.Equal(t, want*time.Millisecond, p.Delay(i+1), "retry %d", i+1)
			}
			assert.Zero(t, p.Delay(0))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, None().Validate())
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	var retries []int

	err := p.Do(t.Context(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 5)
	permanent := errors.New("denied")
	calls := 0

	err := p.Do(t.Context(), func(context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return !errors.Is(err, permanent) }, nil)

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := None().Do(t.Context(), func(context.Context) error {
		calls++
		return errors.New("boom")
	}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 3)
	calls := 0

	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
