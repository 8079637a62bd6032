package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The sink adapter contract (§6 "Sink adapter"): one
 *		implementation per PCM output backend ("alsa", "wave",
 *		"opensles", "audiotrack" in the original taxonomy; this
 *		port's production backend is "portaudio").
 *
 * Description:	Sink is the element that reads decoded PCM out of the
 *		pipeline's final ringbuf and hands it to the adapter,
 *		exactly mirroring the MediaSource/decoder split: one
 *		ElementOps per pipeline stage, all driven by the same
 *		generic worker loop in element.go. Its running byte count
 *		(Element.Position) is the spec's "sink_position".
 *
 *------------------------------------------------------------------*/

import "context"

// SinkHandle is whatever an adapter's Open returns: a portaudio stream, a
// wave-file writer, or a null/discard handle.
type SinkHandle interface{}

// SinkAdapter is the per-backend contract every PCM sink implements.
type SinkAdapter interface {
	// Name identifies the backend ("portaudio", "wave", "null").
	Name() string
	Open(ctx context.Context, sampleRate, channels, bits int) (SinkHandle, error)
	// Write blocks until buf has been consumed (or the backend fails);
	// returns the number of bytes actually accepted.
	Write(h SinkHandle, buf []byte) (int, error)
	Close(h SinkHandle) error
}

// Sink is an Element's ops implementation that drains a ringbuf into a
// SinkAdapter.
type Sink struct {
	elem    *Element
	adapter SinkAdapter
	rb      *Ringbuf

	rate, channels, bits int
	handle                SinkHandle
}

// NewSink builds a Sink bound to elem, reading decoded PCM from input and
// writing it to adapter opened at (rate, channels, bits).
func NewSink(elem *Element, adapter SinkAdapter, input *Ringbuf, rate, channels, bits int) *Sink {
	return &Sink{elem: elem, adapter: adapter, rb: input, rate: rate, channels: channels, bits: bits}
}

func (s *Sink) Open() error {
	h, err := s.adapter.Open(context.Background(), s.rate, s.channels, s.bits)
	if err != nil {
		return err
	}
	s.handle = h
	return nil
}

func (s *Sink) Close() error {
	return s.adapter.Close(s.handle)
}

func (s *Sink) Process(scratch []byte) (int, ProcessOutcome) {
	n, status := s.rb.Read(scratch, decoderIOTimeout)
	switch status {
	case RbOK:
		written, err := s.adapter.Write(s.handle, scratch[:n])
		if err != nil {
			return written, ProcessIOFail
		}
		return written, ProcessWrote
	case RbDone:
		return n, ProcessDone
	case RbAbort:
		return n, ProcessAbort
	case RbTimeout:
		return n, ProcessTimeout
	default:
		return n, ProcessIOFail
	}
}
