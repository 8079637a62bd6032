package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	A RecordAdapter that captures silence, standing in for a
 *		real microphone the way sink_reference.go's NullSink stands
 *		in for a real speaker. Exercises the Recorder's framing,
 *		gating, and deadline logic without any audio hardware.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"
)

// SilenceRecorder produces zeroed PCM frames on every Read, as fast as the
// caller asks for them (no real-time pacing, matching dsp_reference.go's
// decoders). Useful for headless tests and as the default capture adapter
// before a vendor adapter is registered.
type SilenceRecorder struct {
	mu     sync.Mutex
	opened int
}

type silenceHandle struct {
	rate, channels, bits int
}

func NewSilenceRecorder() *SilenceRecorder { return &SilenceRecorder{} }

func (r *SilenceRecorder) Name() string { return "silence" }

func (r *SilenceRecorder) Open(ctx context.Context, sampleRate, channels, bits int) (RecordHandle, error) {
	r.mu.Lock()
	r.opened++
	r.mu.Unlock()
	return &silenceHandle{rate: sampleRate, channels: channels, bits: bits}, nil
}

func (r *SilenceRecorder) Read(h RecordHandle, buf []byte) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}

func (r *SilenceRecorder) Close(h RecordHandle) error {
	r.mu.Lock()
	r.opened--
	r.mu.Unlock()
	return nil
}

// OpenCount reports how many handles are currently open, for tests
// asserting the Recorder actually opens/closes capture per utterance.
func (r *SilenceRecorder) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

// BufferRecorder replays a fixed PCM buffer, frame by frame, then reports
// io.EOF-equivalent short reads of zero — for tests that want specific
// bytes to flow through the Recorder instead of silence.
type BufferRecorder struct {
	mu   sync.Mutex
	data []byte
	pos  int
}

func NewBufferRecorder(data []byte) *BufferRecorder {
	return &BufferRecorder{data: data}
}

func (r *BufferRecorder) Name() string { return "buffer" }

func (r *BufferRecorder) Open(ctx context.Context, sampleRate, channels, bits int) (RecordHandle, error) {
	return &silenceHandle{rate: sampleRate, channels: channels, bits: bits}, nil
}

func (r *BufferRecorder) Read(h RecordHandle, buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := copy(buf, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *BufferRecorder) Close(h RecordHandle) error { return nil }
