package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_Transitions(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(2, 1, time.Minute)
	b.now = func() time.Time { return now }

	var changes []string
	b.OnStateChange(func(from, to State) { changes = append(changes, from.String()+"->"+to.String()) })

	b.Failure()
	assert.Equal(t, StateClosed, b.State())
	b.Success()
	b.Failure()
	assert.Equal(t, StateClosed, b.State(), "success resets the failure count")
	b.Failure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	b.Failure()
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	b.Success()
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{
		"closed->open",
		"open->half_open",
		"half_open->open",
		"open->half_open",
		"half_open->closed",
	}, changes)
}

func TestBreaker_HalfOpenAdmitsOneTrialAtATime(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(1, 2, time.Minute)
	b.now = func() time.Time { return now }

	b.Failure()
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(time.Minute)
	assert.True(t, b.Allow(), "first caller after cooldown gets the trial")
	assert.False(t, b.Allow(), "concurrent callers fail fast while the trial runs")
	assert.Equal(t, StateHalfOpen, b.State())

	b.Success()
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.Allow(), "next trial once the first is recorded")
	assert.False(t, b.Allow())
	b.Success()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
	assert.True(t, b.Allow(), "closed breaker admits every call")

	b.Failure()
	now = now.Add(time.Minute)
	assert.True(t, b.Allow())
	b.Failure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "reopened breaker waits for a new cooldown")
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, cfg.backoff(0))
	assert.Equal(t, 400*time.Millisecond, cfg.backoff(2))
	assert.Equal(t, time.Second, cfg.backoff(5))
}
