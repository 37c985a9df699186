package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("bağlantı hatası")

func TestExecuteClosedState(t *testing.T) {
	cb := New(Settings{Name: "test"})

	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())

	counts := cb.Counts()
	assert.EqualValues(t, 1, counts.TotalSuccesses)
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 3})

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errFail })
		assert.ErrorIs(t, err, errFail)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 3})

	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return errFail })

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	cb.Execute(func() error { return errFail })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	cb.Execute(func() error { return errFail })
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.Execute(func() error { return errFail })
	assert.Equal(t, StateOpen, cb.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []State
	cb := New(Settings{
		Name:             "test",
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, to)
		},
	})

	cb.Execute(func() error { return errFail })
	require.Len(t, transitions, 1)
	assert.Equal(t, StateOpen, transitions[0])
}
