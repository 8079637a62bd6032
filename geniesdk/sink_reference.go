package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	A SinkAdapter that discards PCM, standing in for a real
 *		speaker the way dsp_reference.go's FrameDecoders stand in
 *		for real codec libraries. Exercises the Sink element's byte
 *		counting and error paths without any audio hardware.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"
)

// NullSink counts bytes written without producing sound. Useful for
// headless tests and as the default sink before a vendor adapter is
// registered.
type NullSink struct {
	mu      sync.Mutex
	written map[*nullSinkHandle]int64
}

type nullSinkHandle struct {
	rate, channels, bits int
}

func NewNullSink() *NullSink {
	return &NullSink{written: make(map[*nullSinkHandle]int64)}
}

func (s *NullSink) Name() string { return "null" }

func (s *NullSink) Open(ctx context.Context, sampleRate, channels, bits int) (SinkHandle, error) {
	h := &nullSinkHandle{rate: sampleRate, channels: channels, bits: bits}
	s.mu.Lock()
	s.written[h] = 0
	s.mu.Unlock()
	return h, nil
}

func (s *NullSink) Write(h SinkHandle, buf []byte) (int, error) {
	nh := h.(*nullSinkHandle)
	s.mu.Lock()
	s.written[nh] += int64(len(buf))
	s.mu.Unlock()
	return len(buf), nil
}

func (s *NullSink) Close(h SinkHandle) error {
	nh := h.(*nullSinkHandle)
	s.mu.Lock()
	delete(s.written, nh)
	s.mu.Unlock()
	return nil
}

// BytesWritten reports how many bytes a still-open handle has accepted,
// for tests asserting the pipeline actually drove audio through.
func (s *NullSink) BytesWritten(h SinkHandle) int64 {
	nh := h.(*nullSinkHandle)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written[nh]
}
