package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream 503")

func newTestBreaker(cfg Config) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(cfg)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	cb.lastStateTime = now
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errUpstream }), errUpstream)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute})

	_ = cb.Execute(func() error { return errUpstream })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errUpstream })

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var transitions []string
	cb, now := newTestBreaker(Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(func() error { return errUpstream })
	require.Equal(t, StateOpen, cb.GetState())

	*now = now.Add(11 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.GetState())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Second})

	_ = cb.Execute(func() error { return errUpstream })
	*now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errUpstream })

	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	errClient := errors.New("422 unprocessable")
	cb, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		IsFailure:        func(err error) bool { return !errors.Is(err, errClient) },
	})

	assert.ErrorIs(t, cb.Execute(func() error { return errClient }), errClient)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Hour})
	_ = cb.Execute(func() error { return errUpstream })
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
}
