package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The generic producer/consumer unit every decoder, source
 *		feeder, and sink writer in the player is built from.
 *
 * Description:	§4.1. One worker goroutine per element: it drains a small
 *		control-command queue, and while RUNNING repeatedly calls
 *		the element's Process callback against a scratch buffer,
 *		translating the return code into a state transition.
 *		Every transition is observable through a condition
 *		variable guarding the element's current ElementState, so
 *		callers can block on a target state with a timeout the
 *		same way the spec's state_event bit mask does.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"sync"
	"time"
)

// ElementState is one of the lifecycle states in §3 "Element".
type ElementState int

const (
	StateIdle ElementState = iota
	StatePrepared
	StateRunning
	StatePaused
	StateFinished
	StateStopped
	StateError
)

func (s ElementState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePrepared:
		return "PREPARED"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateFinished:
		return "FINISHED"
	case StateStopped:
		return "STOPPED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ProcessOutcome is how an element's Process callback describes what
// happened on one invocation (§4.1 step 3).
type ProcessOutcome int

const (
	ProcessWrote    ProcessOutcome = iota // n > 0 bytes produced, keep going
	ProcessDone                           // IO_DONE / IO_OK: clean eof
	ProcessTimeout                        // IO_TIMEOUT: warn, keep running
	ProcessIOFail                         // IO_FAIL: fatal
	ProcessDSPFail                        // PROCESS_FAIL: fatal
	ProcessAbort                          // IO_ABORT: stop quietly
)

// ElementInfo mirrors the spec's per-element info block: uri, discovered
// format, and running byte position.
type ElementInfo struct {
	URI        string
	SampleRate int
	Channels   int
	Bits       int
	BytePos    int64
	TotalBytes int64
}

// ElementOps is what a concrete element (decoder, feeder, sink writer)
// supplies to the generic framework.
type ElementOps interface {
	// Open is called once before the element starts running.
	Open() error
	// Process is invoked repeatedly while RUNNING. scratch is reused
	// across calls; implementations must not retain it.
	Process(scratch []byte) (int, ProcessOutcome)
	// Close is called once when the element leaves RUNNING for good.
	Close() error
}

// command is a control message accepted by the element's worker loop.
type command int

const (
	cmdResume command = iota
	cmdPause
	cmdStop
	cmdSeek
	cmdDestroy
	cmdError
	cmdFinish
)

const defaultControlTimeout = 3 * time.Second
const defaultScratchSize = 4096

// Element is one instance of the generic producer/consumer unit, owned by
// the containing Liteplayer for the lifetime of one playback session.
type Element struct {
	Tag  string
	ops  ElementOps
	Bus  *EventBus
	Info ElementInfo

	scratchSize int

	mu    sync.Mutex
	cond  *sync.Cond
	state ElementState
	err   error

	cmds    chan command
	started bool
	done    chan struct{}
}

// NewElement constructs an element around ops, in StateIdle.
func NewElement(tag string, ops ElementOps) *Element {
	e := &Element{
		Tag:         tag,
		ops:         ops,
		Bus:         NewEventBus(),
		scratchSize: defaultScratchSize,
		state:       StateIdle,
		cmds:        make(chan command, 8),
		done:        make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *Element) setState(s ElementState) {
	e.mu.Lock()
	// Sticky error: once ERROR is reached, only STOPPED or IDLE (via
	// reset/stop teardown) may move it elsewhere (§5 "sticky-ERROR flag").
	if e.state == StateError && s != StateStopped && s != StateIdle {
		e.mu.Unlock()
		return
	}
	e.state = s
	e.mu.Unlock()
	e.cond.Broadcast()

	status := StatusUnknown
	switch s {
	case StateRunning:
		status = StatusStateRunning
	case StatePaused:
		status = StatusStatePaused
	case StateFinished:
		status = StatusStateFinished
	case StateStopped:
		status = StatusStateStopped
	case StateError:
		status = StatusStateError
	}
	if status != StatusUnknown {
		e.Bus.Publish(Event{Source: e.Tag, SourceType: "element", Cmd: EvtReportStatus, Status: status})
	}
}

// State returns the element's current state.
func (e *Element) State() ElementState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error that drove the element into StateError, if any.
func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Position returns the element's running byte count (§4.1's BytePos),
// safe to call from any goroutine while the element is active.
func (e *Element) Position() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Info.BytePos
}

// ResetPosition zeroes the element's running byte count. Used by
// Liteplayer's seek handling to reset "sink_position" (§4.5) without
// tearing the sink element down.
func (e *Element) ResetPosition() {
	e.mu.Lock()
	e.Info.BytePos = 0
	e.mu.Unlock()
}

// Started reports whether the worker goroutine has ever been launched;
// Terminate blocks on that goroutine exiting, so callers that may be
// tearing down a never-run element must check this first.
func (e *Element) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// waitForState blocks until the element reaches one of targets, or
// timeout elapses, returning the state actually reached (zero value +
// false on timeout).
func (e *Element) waitForState(timeout time.Duration, targets ...ElementState) (ElementState, bool) {
	deadline := time.Now().Add(timeout)
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		for _, t := range targets {
			if e.state == t {
				return e.state, true
			}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return e.state, false
		}
		timer := time.AfterFunc(remaining, e.cond.Broadcast)
		e.cond.Wait()
		timer.Stop()
	}
}

// Run starts the worker goroutine (idempotent) and issues RESUME,
// blocking up to the default control timeout for the RUNNING transition.
func (e *Element) Run() error {
	e.mu.Lock()
	if !e.started {
		e.started = true
		e.mu.Unlock()
		go e.workerLoop()
	} else {
		e.mu.Unlock()
	}
	return e.Resume()
}

// Resume issues RESUME and waits for RUNNING.
func (e *Element) Resume() error {
	e.send(cmdResume)
	if _, ok := e.waitForState(defaultControlTimeout, StateRunning, StateFinished, StateError, StateStopped); !ok {
		return errors.New("element: timed out waiting for RUNNING")
	}
	return nil
}

// Pause issues PAUSE and waits for PAUSED. Idempotent: pausing an
// already-PAUSED element is a no-op success (§8 boundary behavior).
func (e *Element) Pause() error {
	if e.State() == StatePaused {
		return nil
	}
	e.send(cmdPause)
	if _, ok := e.waitForState(defaultControlTimeout, StatePaused, StateFinished, StateError, StateStopped); !ok {
		return errors.New("element: timed out waiting for PAUSED")
	}
	return nil
}

// Seek issues SEEK; the element's Process/Open implementation is expected
// to have already been reconfigured with the new position before this is
// called (the generic framework only re-arms RUNNING).
func (e *Element) Seek() error {
	e.send(cmdSeek)
	if _, ok := e.waitForState(defaultControlTimeout, StateRunning, StateError, StateStopped); !ok {
		return errors.New("element: timed out waiting for post-seek RUNNING")
	}
	return nil
}

// Stop issues STOP, which asynchronously aborts I/O and tears the element
// down; it does not itself block for STOPPED (use WaitForStopMs).
func (e *Element) Stop() {
	e.send(cmdStop)
}

// WaitForStopMs blocks until STOPPED (or FINISHED/ERROR, which also
// signify the worker has exited its running loop) or the timeout elapses.
func (e *Element) WaitForStopMs(timeout time.Duration) bool {
	_, ok := e.waitForState(timeout, StateStopped, StateFinished, StateError)
	return ok
}

// Terminate issues DESTROY and waits for the worker goroutine to fully
// exit.
func (e *Element) Terminate() {
	e.send(cmdDestroy)
	<-e.done
}

func (e *Element) send(c command) {
	select {
	case e.cmds <- c:
	default:
		// Queue is bounded; a full queue means a DESTROY/STOP is
		// already in flight, so silently drop rather than block the
		// caller (mirrors the spec's "asynchronously aborts" stop).
	}
}

// reportError moves the element to StateError and emits the status
// event exactly once.
func (e *Element) reportError(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.setState(StateError)
}

// workerLoop is the single per-element worker task (§4.1 steps 1-5).
func (e *Element) workerLoop() {
	defer close(e.done)

	opened := false
	scratch := make([]byte, e.scratchSize)

	closeIfOpen := func() {
		if opened {
			_ = e.ops.Close()
			opened = false
		}
	}

runLoop:
	for {
		var c command
		select {
		case c = <-e.cmds:
		}

		switch c {
		case cmdResume:
			if !opened {
				if err := e.ops.Open(); err != nil {
					closeIfOpen()
					e.reportError(err)
					continue
				}
				opened = true
			}
			e.setState(StateRunning)
			e.drive(scratch, closeIfOpen)

		case cmdSeek:
			e.setState(StateRunning)
			e.drive(scratch, closeIfOpen)

		case cmdPause:
			e.setState(StatePaused)

		case cmdStop:
			closeIfOpen()
			e.setState(StateStopped)

		case cmdError:
			closeIfOpen()
			e.reportError(errors.New("element: internal error command"))

		case cmdFinish:
			closeIfOpen()
			e.setState(StateFinished)

		case cmdDestroy:
			closeIfOpen()
			e.setState(StateStopped)
			break runLoop
		}
	}
}

// drive runs Process in a tight loop while the element remains logically
// RUNNING, translating outcomes per §4.1 step 3. It returns (rather than
// blocking forever) as soon as a control command is pending, a terminal
// outcome occurs, or Process signals it should pause/stop.
func (e *Element) drive(scratch []byte, closeIfOpen func()) {
	for {
		select {
		case c := <-e.cmds:
			switch c {
			case cmdPause:
				e.setState(StatePaused)
				return
			case cmdStop:
				closeIfOpen()
				e.setState(StateStopped)
				return
			case cmdDestroy:
				closeIfOpen()
				e.setState(StateStopped)
				// Re-queue DESTROY so the outer loop's switch also
				// observes it and exits the goroutine.
				e.cmds <- cmdDestroy
				return
			default:
				// RESUME/SEEK/FINISH/ERROR while already driving: ignore,
				// keep processing.
			}
		default:
		}

		n, outcome := e.ops.Process(scratch)
		switch outcome {
		case ProcessWrote:
			e.mu.Lock()
			e.Info.BytePos += int64(n)
			pos := e.Info.BytePos
			e.mu.Unlock()
			e.Bus.Publish(Event{Source: e.Tag, SourceType: "element", Cmd: EvtReportPosition, Position: pos})

		case ProcessDone:
			e.send(cmdFinish)
			e.setState(StateFinished)
			return

		case ProcessTimeout:
			// §4.1 step 3 / §7 / §9: reported as a non-fatal warning;
			// the element keeps running. Downstream must not treat
			// this as terminal.
			e.Bus.Publish(Event{Source: e.Tag, SourceType: "element", Cmd: EvtReportStatus, Status: StatusErrorTimeout})

		case ProcessIOFail, ProcessDSPFail:
			e.reportError(errors.New("element: process failed"))
			return

		case ProcessAbort:
			closeIfOpen()
			e.setState(StateStopped)
			return
		}
	}
}

// ReportInfo publishes the current discovered format as an info event
// (§4.3: "The first successful decode reports REPORT_INFO with the
// discovered sample-rate / channels / bits").
func (e *Element) ReportInfo(rate, channels, bits int) {
	e.mu.Lock()
	e.Info.SampleRate = rate
	e.Info.Channels = channels
	e.Info.Bits = bits
	info := e.Info
	e.mu.Unlock()
	e.Bus.Publish(Event{Source: e.Tag, SourceType: "element", Cmd: EvtReportInfo, Info: &info})
}
