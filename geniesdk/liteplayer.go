package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Liteplayer (§4.5): the single-stream state machine that owns
 *		one MediaSource -> Decoder -> Sink pipeline and exposes it
 *		as the ten observable states in the spec's legal-call table.
 *
 * Description:	One Liteplayer instance plays one url at a time. All public
 *		calls serialize on ioMu (the "I/O lock"); state reads/writes
 *		are behind the short-lived stateMu, and the registered
 *		listener is always invoked outside both locks so it can call
 *		back into the player (e.g. to Stop it) without deadlocking.
 *		A sticky ERROR suppresses every subsequent state callback
 *		except IDLE/STOPPED, so a late internal event can't mask a
 *		reported failure.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// PlayerState is one of liteplayer_state's ten values (§4.5).
type PlayerState int

const (
	PlayerIdle PlayerState = iota
	PlayerInited
	PlayerPrepared
	PlayerStarted
	PlayerPaused
	PlayerSeekCompleted
	PlayerNearlyCompleted
	PlayerCompleted
	PlayerStopped
	PlayerError
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "IDLE"
	case PlayerInited:
		return "INITED"
	case PlayerPrepared:
		return "PREPARED"
	case PlayerStarted:
		return "STARTED"
	case PlayerPaused:
		return "PAUSED"
	case PlayerSeekCompleted:
		return "SEEKCOMPLETED"
	case PlayerNearlyCompleted:
		return "NEARLYCOMPLETED"
	case PlayerCompleted:
		return "COMPLETED"
	case PlayerStopped:
		return "STOPPED"
	case PlayerError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PlayerStateListener is called outside every lock with the new state (and
// a non-nil err only when state == PlayerError).
type PlayerStateListener func(state PlayerState, err error)

const decoderOutputBufferSize = 64 * 1024
const pipelineControlTimeout = 3 * time.Second

// seekPlan is what computeSeek produces for a given target time: the
// absolute byte offset the MediaSource must reopen at, and a closure that
// repositions the concrete decoder's cursor the same way (hiding the fact
// that M4A's PrepareSeek takes a sample index while every other codec's
// takes none, per §4.5).
type seekPlan struct {
	byteOffset int64
	apply      func() error
}

// Liteplayer is one playback session (§4.5).
type Liteplayer struct {
	sources *SourceRegistry
	sink    SinkAdapter
	parser  *MediaParser

	ioMu sync.Mutex

	stateMu sync.Mutex
	state   PlayerState
	errored bool

	listenerMu sync.Mutex
	listener   PlayerStateListener

	url  string
	user interface{}
	info CodecInfo

	ringIn  *Ringbuf
	ringOut *Ringbuf

	source      *MediaSource
	decoderElem *Element
	sinkElem    *Element

	computeSeek func(msec int64) (*seekPlan, error)

	seekTimeMs int64
}

// NewLiteplayer builds a player that resolves sources via sources and
// writes decoded PCM to sink (§6's vendor source/sink wrappers).
func NewLiteplayer(sources *SourceRegistry, sink SinkAdapter) *Liteplayer {
	return &Liteplayer{
		sources: sources,
		sink:    sink,
		parser:  NewMediaParser(sources),
		state:   PlayerIdle,
	}
}

// RegisterStateListener sets the single state-change callback. Must be
// called while IDLE, mirroring liteplayer_register_state_listener's guard.
func (p *Liteplayer) RegisterStateListener(l PlayerStateListener) error {
	if p.State() != PlayerIdle {
		return fmt.Errorf("liteplayer: can't register listener in state %s", p.State())
	}
	p.listenerMu.Lock()
	p.listener = l
	p.listenerMu.Unlock()
	return nil
}

// State returns the player's current observable state.
func (p *Liteplayer) State() PlayerState {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

func (p *Liteplayer) setState(s PlayerState, err error) {
	p.stateMu.Lock()
	if p.errored && s != PlayerStopped && s != PlayerIdle {
		p.stateMu.Unlock()
		return
	}
	if s == PlayerError {
		p.errored = true
	}
	if s == PlayerIdle {
		p.errored = false
	}
	p.state = s
	p.stateMu.Unlock()

	p.listenerMu.Lock()
	l := p.listener
	p.listenerMu.Unlock()
	if l != nil {
		l(s, err)
	}
}

// SetSource moves IDLE -> INITED, recording url for the next Prepare.
func (p *Liteplayer) SetSource(url string, user interface{}) error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()
	if p.State() != PlayerIdle {
		return fmt.Errorf("liteplayer: can't set_source in state %s", p.State())
	}
	p.url = url
	p.user = user
	p.setState(PlayerInited, nil)
	return nil
}

// Prepare probes url synchronously and builds the playback pipeline,
// moving INITED -> PREPARED (or ERROR).
func (p *Liteplayer) Prepare() error {
	return p.prepare()
}

// PrepareAsync does the same work as Prepare on a background goroutine,
// returning immediately; the result arrives through the state listener.
func (p *Liteplayer) PrepareAsync() error {
	if p.State() != PlayerInited {
		return fmt.Errorf("liteplayer: can't prepare_async in state %s", p.State())
	}
	go func() { _ = p.prepare() }()
	return nil
}

func (p *Liteplayer) prepare() error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	if p.State() != PlayerInited {
		err := fmt.Errorf("liteplayer: can't prepare in state %s", p.State())
		return err
	}

	probe, err := p.parser.Probe(context.Background(), p.url, p.user)
	if err != nil {
		p.setState(PlayerError, err)
		return err
	}
	if err := p.buildPipeline(probe); err != nil {
		p.setState(PlayerError, err)
		return err
	}
	p.setState(PlayerPrepared, nil)
	return nil
}

// buildPipeline assembles the MediaSource -> Decoder -> Sink chain from a
// successful probe, per §4.4's handle-reuse protocol and §4.3's per-codec
// decoder selection.
func (p *Liteplayer) buildPipeline(probe *ProbeResult) error {
	p.info = probe.Info
	frameStart := contentStartOffset(&p.info)

	var reused SourceHandle
	if probe.Reused {
		reused = probe.Handle
	}
	source, err := NewMediaSource(p.sources, p.url, frameStart, p.user, reused)
	if err != nil {
		return err
	}
	if probe.Stuffed != nil {
		source.Prime(probe.Stuffed)
	}
	p.source = source
	p.ringIn = source.RB
	p.ringOut = NewRingbuf(decoderOutputBufferSize, 0)

	decoderElem := NewElement("decoder:"+p.info.Kind.String(), nil)
	if err := p.wireDecoder(decoderElem); err != nil {
		return err
	}
	p.decoderElem = decoderElem

	sinkElem := NewElement("sink", nil)
	sink := NewSink(sinkElem, p.sink, p.ringOut, p.info.SampleRate, p.info.Channels, p.info.Bits)
	sinkElem.ops = sink
	p.sinkElem = sinkElem
	return nil
}

// wireDecoder builds the codec-specific decoder into decoderElem and sets
// computeSeek, the closure that hides M4A's sample-index PrepareSeek
// behind the same signature as every other codec's no-arg PrepareSeek.
func (p *Liteplayer) wireDecoder(decoderElem *Element) error {
	switch p.info.Kind {
	case CodecMP3:
		d := NewMP3Decoder(decoderElem, p.ringIn, p.ringOut, &p.info, &ReferenceMP3DSP{})
		decoderElem.ops = d
		p.computeSeek = func(msec int64) (*seekPlan, error) {
			return bytesPerSecondSeekPlan(&p.info, msec, d.PrepareSeek)
		}
	case CodecWAV:
		d := NewWAVDecoder(decoderElem, p.ringIn, p.ringOut, &p.info, &ReferenceWAVDSP{})
		decoderElem.ops = d
		p.computeSeek = func(msec int64) (*seekPlan, error) {
			return bytesPerSecondSeekPlan(&p.info, msec, d.PrepareSeek)
		}
	case CodecAAC:
		d := NewAACDecoder(decoderElem, p.ringIn, p.ringOut, &p.info, &ReferenceAACDSP{})
		decoderElem.ops = d
		// AAC seek is unsupported (§4.5): no offset exists, so seek is a
		// no-op that still reports OK.
		p.computeSeek = func(msec int64) (*seekPlan, error) { return nil, nil }
	case CodecM4A:
		d := NewM4ADecoder(decoderElem, p.ringIn, p.ringOut, &p.info, &ReferenceM4ADSP{})
		decoderElem.ops = d
		p.computeSeek = func(msec int64) (*seekPlan, error) {
			idx, offset, err := M4ASeekOffset(&p.info, msec)
			if err != nil {
				return nil, err
			}
			return &seekPlan{byteOffset: offset, apply: func() error { return d.PrepareSeek(idx) }}, nil
		}
	default:
		return ErrUnsupported
	}
	return nil
}

// bytesPerSecondSeekPlan implements the MP3/WAV seek-offset formula (§4.5):
// "MP3/WAV use bytes-per-second". A codec discovered with no usable
// bitrate (e.g. a free-format MP3 stream) can't compute an offset, so
// returns (nil, nil): the no-op-but-OK seek outcome.
func bytesPerSecondSeekPlan(info *CodecInfo, msec int64, apply func() error) (*seekPlan, error) {
	if info.BytesPerSecond <= 0 {
		return nil, nil
	}
	sec := msec / 1000
	offset := info.ContentOffset + int64(info.BytesPerSecond)*sec
	return &seekPlan{byteOffset: offset, apply: apply}, nil
}

// Start moves PREPARED -> STARTED (or PAUSED/SEEKCOMPLETED -> STARTED),
// running the whole pipeline.
func (p *Liteplayer) Start() error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	switch p.State() {
	case PlayerPrepared:
		if err := p.runPipeline(); err != nil {
			p.setState(PlayerError, err)
			return err
		}
		p.setState(PlayerStarted, nil)
		return nil
	case PlayerPaused, PlayerSeekCompleted:
		// A seek issued before the pipeline's first Start (from PREPARED)
		// leaves every element un-started; this is the pipeline's actual
		// first run, not a resume.
		if !p.decoderElem.Started() {
			if err := p.runPipeline(); err != nil {
				p.setState(PlayerError, err)
				return err
			}
			p.setState(PlayerStarted, nil)
			return nil
		}
		if err := p.decoderElem.Resume(); err != nil {
			p.setState(PlayerError, err)
			return err
		}
		p.setState(PlayerStarted, nil)
		return nil
	default:
		return fmt.Errorf("liteplayer: can't start in state %s", p.State())
	}
}

func (p *Liteplayer) runPipeline() error {
	if err := p.source.Element().Run(); err != nil {
		return err
	}
	if err := p.decoderElem.Run(); err != nil {
		return err
	}
	if err := p.sinkElem.Run(); err != nil {
		return err
	}
	go p.watchCompletion(p.decoderElem)
	return nil
}

// watchCompletion observes decoderElem reaching FINISHED (clean EOF) and
// translates it into the spec's NEARLYCOMPLETED -> (drain) -> COMPLETED
// pair: NEARLYCOMPLETED is published to the listener exactly as any other
// state per the spec's table (it pauses playable transitions the same
// way), then once the sink has drained the remaining ringOut bytes the
// player reports COMPLETED.
func (p *Liteplayer) watchCompletion(decoderElem *Element) {
	if !decoderElem.WaitForStopMs(24 * time.Hour) {
		return
	}
	if decoderElem.State() != StateFinished {
		return
	}
	if p.State() != PlayerStarted && p.State() != PlayerPaused {
		return
	}
	p.setState(PlayerNearlyCompleted, nil)

	for p.ringOut.Filled() > 0 && p.sinkElem.State() != StateFinished && p.sinkElem.State() != StateStopped {
		time.Sleep(10 * time.Millisecond)
	}
	p.setState(PlayerCompleted, nil)
}

// Pause moves STARTED -> PAUSED (or NEARLYCOMPLETED -> PAUSED).
func (p *Liteplayer) Pause() error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	switch p.State() {
	case PlayerStarted, PlayerNearlyCompleted:
		if err := p.decoderElem.Pause(); err != nil {
			p.setState(PlayerError, err)
			return err
		}
		p.setState(PlayerPaused, nil)
		return nil
	default:
		return fmt.Errorf("liteplayer: can't pause in state %s", p.State())
	}
}

// Resume moves PAUSED -> STARTED.
func (p *Liteplayer) Resume() error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	if p.State() != PlayerPaused {
		return fmt.Errorf("liteplayer: can't resume in state %s", p.State())
	}
	if err := p.decoderElem.Resume(); err != nil {
		p.setState(PlayerError, err)
		return err
	}
	p.setState(PlayerStarted, nil)
	return nil
}

// Seek computes an absolute byte offset from the codec info and tears
// down/rebuilds the source side of the pipeline at that offset (§4.5).
func (p *Liteplayer) Seek(msec int64) error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	switch p.State() {
	case PlayerPrepared, PlayerStarted, PlayerPaused, PlayerSeekCompleted, PlayerNearlyCompleted:
	default:
		return fmt.Errorf("liteplayer: can't seek in state %s", p.State())
	}
	if msec < 0 || (p.info.DurationMs > 0 && msec >= p.info.DurationMs) {
		return errors.New("liteplayer: invalid seek time")
	}

	plan, err := p.computeSeek(msec)
	if err != nil {
		p.setState(PlayerError, err)
		return err
	}
	if plan == nil {
		// No-op seek (unsupported codec, or unknown bitrate): still OK.
		return nil
	}

	// A seek issued from PREPARED, before the pipeline has ever run, just
	// repositions the not-yet-started source/decoder; there is nothing to
	// pause or stop.
	running := p.decoderElem.Started()
	if running {
		if err := p.decoderElem.Pause(); err != nil {
			p.setState(PlayerError, err)
			return err
		}
		p.source.Element().Stop()
		p.source.Element().WaitForStopMs(pipelineControlTimeout)
	}

	p.ringIn.Reset()
	p.ringOut.Reset()
	p.sinkElem.ResetPosition()

	newSource, err := NewMediaSource(p.sources, p.url, plan.byteOffset, p.user, nil)
	if err != nil {
		p.setState(PlayerError, err)
		return err
	}
	newSource.RB = p.ringIn
	p.source = newSource

	if err := plan.apply(); err != nil {
		p.setState(PlayerError, err)
		return err
	}

	if running {
		if err := p.source.Element().Run(); err != nil {
			p.setState(PlayerError, err)
			return err
		}
		if err := p.decoderElem.Seek(); err != nil {
			p.setState(PlayerError, err)
			return err
		}
	}

	p.seekTimeMs = (msec / 1000) * 1000
	p.setState(PlayerSeekCompleted, nil)
	return nil
}

// Stop tears the whole pipeline down, moving any state -> STOPPED.
func (p *Liteplayer) Stop() error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	if p.State() == PlayerIdle || p.State() == PlayerInited {
		return fmt.Errorf("liteplayer: can't stop in state %s", p.State())
	}
	if p.State() == PlayerStopped {
		return nil
	}
	p.teardown()
	p.setState(PlayerStopped, nil)
	return nil
}

// Reset tears down (if needed) and returns to IDLE, clearing the sticky
// error flag and the remembered url/pipeline.
func (p *Liteplayer) Reset() error {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()

	if p.State() != PlayerIdle {
		p.teardown()
	}
	p.url = ""
	p.user = nil
	p.info = CodecInfo{}
	p.setState(PlayerIdle, nil)
	return nil
}

// stopIfStarted issues STOP and waits for it only when the element's
// worker goroutine actually exists; an un-started element (e.g. a
// pipeline that was Prepared, maybe Seeked, but never Started) has no
// worker to signal back, so waiting for one would just block for the
// full control timeout.
func stopIfStarted(e *Element) {
	if e != nil && e.Started() {
		e.Stop()
		e.WaitForStopMs(pipelineControlTimeout)
	}
}

func (p *Liteplayer) teardown() {
	if p.source != nil {
		stopIfStarted(p.source.Element())
		p.source = nil
	}
	stopIfStarted(p.decoderElem)
	p.decoderElem = nil
	stopIfStarted(p.sinkElem)
	p.sinkElem = nil
}

// GetPosition derives the current playback position in milliseconds from
// the sink element's running byte count (§4.5's position_ms formula).
func (p *Liteplayer) GetPosition() (int64, error) {
	if p.sinkElem == nil || p.info.SampleRate == 0 || p.info.BytesPerSample() == 0 {
		return 0, nil
	}
	samples := p.sinkElem.Position() / int64(p.info.BytesPerSample())
	return samples/int64(p.info.SampleRate/1000) + p.seekTimeMs, nil
}

// GetDuration returns the probed duration in milliseconds, 0 if unknown
// (e.g. AAC, or an HTTP stream with no Content-Length).
func (p *Liteplayer) GetDuration() (int64, error) {
	return p.info.DurationMs, nil
}

// Destroy terminates every pipeline element's worker goroutine. The
// player must not be used afterward.
func (p *Liteplayer) Destroy() {
	p.ioMu.Lock()
	defer p.ioMu.Unlock()
	terminate := func(e *Element) {
		if e != nil && e.Started() {
			e.Terminate()
		}
	}
	if p.source != nil {
		terminate(p.source.Element())
	}
	terminate(p.decoderElem)
	terminate(p.sinkElem)
}
