package geniesdk

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingOps emits `total` bytes split into 1-byte Process calls, then
// signals done.
type countingOps struct {
	total    int32
	produced int32
	opened   int32
	closed   int32
}

func (o *countingOps) Open() error {
	atomic.AddInt32(&o.opened, 1)
	return nil
}

func (o *countingOps) Close() error {
	atomic.AddInt32(&o.closed, 1)
	return nil
}

func (o *countingOps) Process(scratch []byte) (int, ProcessOutcome) {
	if atomic.LoadInt32(&o.produced) >= o.total {
		return 0, ProcessDone
	}
	atomic.AddInt32(&o.produced, 1)
	return 1, ProcessWrote
}

func TestElementRunsToFinished(t *testing.T) {
	ops := &countingOps{total: 5}
	e := NewElement("t", ops)

	require.NoError(t, e.Run())
	ok := e.WaitForStopMs(time.Second)
	require.True(t, ok)
	assert.Equal(t, StateFinished, e.State())
	assert.EqualValues(t, 5, ops.produced)
	assert.EqualValues(t, 1, ops.opened)
	assert.EqualValues(t, 1, ops.closed)
}

func TestElementPauseResumeIdempotent(t *testing.T) {
	ops := &countingOps{total: 1000000}
	e := NewElement("t", ops)
	require.NoError(t, e.Run())

	require.NoError(t, e.Pause())
	assert.Equal(t, StatePaused, e.State())

	// Idempotent: pausing again while already paused is a no-op success.
	require.NoError(t, e.Pause())
	assert.Equal(t, StatePaused, e.State())

	require.NoError(t, e.Resume())
	assert.Equal(t, StateRunning, e.State())

	e.Stop()
	assert.True(t, e.WaitForStopMs(time.Second))
}

type failingOps struct{}

func (failingOps) Open() error { return nil }
func (failingOps) Close() error { return nil }
func (failingOps) Process(scratch []byte) (int, ProcessOutcome) {
	return 0, ProcessIOFail
}

func TestElementProcessFailureSetsError(t *testing.T) {
	e := NewElement("t", failingOps{})
	require.NoError(t, e.Run())
	ok := e.WaitForStopMs(time.Second)
	require.True(t, ok)
	assert.Equal(t, StateError, e.State())
	require.Error(t, e.Err())
}

type openFailOps struct{}

func (openFailOps) Open() error { return errors.New("boom") }
func (openFailOps) Close() error { return nil }
func (openFailOps) Process(scratch []byte) (int, ProcessOutcome) {
	t := errors.New("should not be called")
	panic(t)
}

func TestElementOpenFailureSetsError(t *testing.T) {
	e := NewElement("t", openFailOps{})
	require.NoError(t, e.Run())
	require.Eventually(t, func() bool { return e.State() == StateError }, time.Second, time.Millisecond)
}

func TestElementStickyErrorSuppressesLaterStates(t *testing.T) {
	e := NewElement("t", failingOps{})
	require.NoError(t, e.Run())
	require.True(t, e.WaitForStopMs(time.Second))
	require.Equal(t, StateError, e.State())

	// A later attempt to drive it back to a non-terminal state must be
	// suppressed (§5 sticky-ERROR). STOPPED is still permitted through.
	e.setState(StateRunning)
	assert.Equal(t, StateError, e.State())
	e.setState(StateStopped)
	assert.Equal(t, StateStopped, e.State())
}

func TestElementTerminateDestroysWorker(t *testing.T) {
	ops := &countingOps{total: 1000000}
	e := NewElement("t", ops)
	require.NoError(t, e.Run())
	e.Terminate()
	assert.EqualValues(t, 1, ops.closed)
}

func TestElementEventBusFIFO(t *testing.T) {
	ops := &countingOps{total: 3}
	e := NewElement("t", ops)

	var events []Event
	e.Bus.Subscribe(EventListenerFunc(func(ev Event) { events = append(events, ev) }))

	require.NoError(t, e.Run())
	require.True(t, e.WaitForStopMs(time.Second))

	var positions []int64
	for _, ev := range events {
		if ev.Cmd == EvtReportPosition {
			positions = append(positions, ev.Position)
		}
	}
	require.Len(t, positions, 3)
	assert.Equal(t, []int64{1, 2, 3}, positions, "position reports must be observed in FIFO order")
}
