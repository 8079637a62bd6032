package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Recorder (§4.7): captures PCM, optionally encodes it, and
 *		streams it to the service as a bounded-duration utterance.
 *
 * Description:	Single worker goroutine, gated on a mutex+condvar exactly
 *		like the teacher's transmit-queue worker (tq.go's
 *		wake_up_cond/wake_up_mutex): the loop blocks until
 *		is_recording becomes true, opens capture, and drives 30ms
 *		frames out to the callback until either the caller asks to
 *		stop or the 15s deadline (by wallclock or by cumulative byte
 *		count, whichever comes first) forces it closed.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"
	"time"
)

const (
	recorderSampleRate   = 16000
	recorderChannels     = 1
	recorderBits         = 16
	recorderFrameMs      = 30
	recorderFrameSamples = recorderSampleRate * recorderFrameMs / 1000
	recorderFrameBytes   = recorderFrameSamples * recorderBits / 8 * recorderChannels
	recorderMaxDuration  = 15 * time.Second
	recorderMaxBytes     = recorderSampleRate * recorderBits / 8 * recorderChannels * 15
)

// AudioFormat names the wire encoding of one onMicphoneStreaming chunk
// (§6 "Recorder wire format").
type AudioFormat int

const (
	AudioFormatPCM16 AudioFormat = iota
	AudioFormatSpeex
)

// RecorderCallback receives streamed microphone audio (§4.7, §6
// "onMicphoneStreaming"). The Service coordinator implements this to
// forward chunks to the cloud transport.
type RecorderCallback interface {
	OnMicphoneStreaming(format AudioFormat, buf []byte, final bool)
}

// RecorderGate mirrors the four external conditions §4.7's "Gating"
// clause requires before capture may run: Network ∧ Gateway ∧ Authorized
// ∧ ¬Muted.
type RecorderGate struct {
	Network    bool
	Gateway    bool
	Authorized bool
	Muted      bool
}

func (g RecorderGate) allowed() bool {
	return g.Network && g.Gateway && g.Authorized && !g.Muted
}

// Recorder is the single-thread PCM capture/encode loop (§4.7).
type Recorder struct {
	adapter  RecordAdapter
	callback RecorderCallback

	mu         sync.Mutex
	cond       *sync.Cond
	gate       RecorderGate
	wantRecord bool // is_recording
	closed     bool

	useSpeex   bool
	newEncoder func(sampleRate, channels int) SpeexEncoder

	// DebugDumpPattern, if non-empty, is an strftime pattern (e.g.
	// "capture-%Y%m%d-%H%M%S.wav") naming a WAV file each session's raw
	// PCM is also written to. Off by default.
	DebugDumpPattern string
}

// NewRecorder builds a Recorder and starts its worker goroutine.
func NewRecorder(adapter RecordAdapter, callback RecorderCallback) *Recorder {
	r := &Recorder{adapter: adapter, callback: callback}
	r.cond = sync.NewCond(&r.mu)
	go r.loop()
	return r
}

// EnableSpeex turns on Speex/Ogg encoding (§4.7 step 2), using newEncoder
// to build one SpeexEncoder per session.
func (r *Recorder) EnableSpeex(newEncoder func(sampleRate, channels int) SpeexEncoder) {
	r.mu.Lock()
	r.useSpeex = true
	r.newEncoder = newEncoder
	r.mu.Unlock()
}

// SetGate updates the cached Network/Gateway/Authorized/Muted flags.
// Any of NetworkDisconnected/Unauthorized/GatewayDisconnected/SpeakerMuted
// force is_recording false (§4.7 "Gating").
func (r *Recorder) SetGate(g RecorderGate) {
	r.mu.Lock()
	r.gate = g
	if !g.allowed() {
		r.wantRecord = false
	}
	r.mu.Unlock()
	r.cond.Broadcast()
}

// ExpectSpeechStart sets is_recording=true, but only when every gate
// condition currently holds (§4.7 "Gating").
func (r *Recorder) ExpectSpeechStart() {
	r.mu.Lock()
	if r.gate.allowed() {
		r.wantRecord = true
	}
	r.mu.Unlock()
	r.cond.Broadcast()
}

// ExpectSpeechStop and StopListen both set is_recording=false (§4.7
// "Gating").
func (r *Recorder) ExpectSpeechStop() { r.requestStop() }
func (r *Recorder) StopListen()       { r.requestStop() }

func (r *Recorder) requestStop() {
	r.mu.Lock()
	r.wantRecord = false
	r.mu.Unlock()
	r.cond.Broadcast()
}

// Destroy stops the worker goroutine for good; the current session, if
// any, still runs its stop path to close capture cleanly.
func (r *Recorder) Destroy() {
	r.mu.Lock()
	r.closed = true
	r.wantRecord = false
	r.mu.Unlock()
	r.cond.Broadcast()
}

// loop is the Recorder's single worker task (§5 "Recorder start loop
// blocks on is_recording condvar").
func (r *Recorder) loop() {
	for {
		r.mu.Lock()
		for !r.wantRecord && !r.closed {
			r.cond.Wait()
		}
		if r.closed {
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		r.runSession()
	}
}

// Gate reports the currently cached gate state, for callers (and tests)
// that need to observe it without racing the worker goroutine.
func (r *Recorder) Gate() RecorderGate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gate
}

func (r *Recorder) isStopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.wantRecord
}

// runSession drives one utterance end to end (§4.7 steps 1-4).
func (r *Recorder) runSession() {
	r.mu.Lock()
	useSpeex := r.useSpeex
	newEncoder := r.newEncoder
	dumpPattern := r.DebugDumpPattern
	r.mu.Unlock()

	handle, err := r.adapter.Open(context.Background(), recorderSampleRate, recorderChannels, recorderBits)
	if err != nil {
		recorderLog.Error("failed to open capture device", "adapter", r.adapter.Name(), "err", err)
		r.requestStop()
		return
	}
	defer r.adapter.Close(handle)

	var dump *wavDumpWriter
	if dumpPattern != "" {
		dump = newWavDumpWriter(dumpPattern, recorderSampleRate, recorderChannels, recorderBits)
		defer dump.Close()
	}

	var encoder SpeexEncoder
	if useSpeex {
		encoder = newEncoder(recorderSampleRate, recorderChannels)
		defer encoder.Close()
		r.callback.OnMicphoneStreaming(AudioFormatSpeex, encoder.Header(), false)
	}

	start := time.Now()
	var elapsedBytes int64
	frame := make([]byte, recorderFrameBytes)

	for {
		n, rerr := r.adapter.Read(handle, frame)
		if n < len(frame) {
			for i := n; i < len(frame); i++ {
				frame[i] = 0
			}
		}
		elapsedBytes += int64(len(frame))
		dump.Write(frame)

		final := r.isStopping() || rerr != nil ||
			elapsedBytes >= recorderMaxBytes || time.Since(start) >= recorderMaxDuration
		r.emit(encoder, useSpeex, frame, final)

		if final {
			break
		}
	}

	r.requestStop()
}

func (r *Recorder) emit(encoder SpeexEncoder, useSpeex bool, frame []byte, final bool) {
	if useSpeex {
		enc, err := encoder.EncodeFrame(frame)
		if err != nil {
			return
		}
		r.callback.OnMicphoneStreaming(AudioFormatSpeex, enc, final)
		return
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	r.callback.OnMicphoneStreaming(AudioFormatPCM16, out, final)
}
