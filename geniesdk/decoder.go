package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Shared decoder-element plumbing (§4.3): the input/output
 *		ringbuf bridge every codec decoder reads/writes through, the
 *		FrameDecoder DSP interface decoders drive, and the one-shot
 *		REPORT_INFO bookkeeping.
 *
 * Description:	The spec treats the actual decode math as an imported
 *		library (pvmp3, pvaac, dr_wav) the core only glues together;
 *		FrameDecoder is that library's seam. The geniesdk package
 *		ships reference FrameDecoder implementations that produce
 *		correctly-shaped silence so the element pipeline, seek
 *		arithmetic, and position reporting can be exercised without
 *		a real codec linked in — a production build swaps in the
 *		real library behind the same interface.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"time"
)

const decoderIOTimeout = 3 * time.Second

// FrameDecoder is the DSP seam: one compressed frame in, interleaved PCM
// out. Implementations hold their own codec context; Reset reinitializes
// it for a seek without a full Close/Init round trip.
type FrameDecoder interface {
	Init(info *CodecInfo) error
	Decode(frame []byte) (pcm []byte, err error)
	Reset() error
	Close() error
}

// rbInput adapts a Ringbuf to the small blocking-read shape decoders need,
// translating RbStatus into a ProcessOutcome the element worker
// understands.
type rbInput struct {
	rb *Ringbuf
}

func (r rbInput) read(p []byte) (int, ProcessOutcome, bool) {
	n, status := r.rb.Read(p, decoderIOTimeout)
	switch status {
	case RbOK:
		return n, ProcessWrote, true
	case RbDone:
		return n, ProcessDone, n > 0
	case RbAbort:
		return n, ProcessAbort, false
	case RbTimeout:
		return n, ProcessTimeout, false
	default:
		return n, ProcessIOFail, false
	}
}

func (r rbInput) readChunk(p []byte) (ProcessOutcome, bool) {
	switch r.rb.ReadChunk(p, decoderIOTimeout) {
	case RbOK:
		return ProcessWrote, true
	case RbDone:
		return ProcessDone, false
	case RbAbort:
		return ProcessAbort, false
	case RbTimeout:
		return ProcessTimeout, false
	default:
		return ProcessIOFail, false
	}
}

// rbOutput adapts a Ringbuf to the blocking-write shape decoders push
// decoded PCM through.
type rbOutput struct {
	rb *Ringbuf
}

func (o rbOutput) writeAll(p []byte) (ProcessOutcome, bool) {
	for len(p) > 0 {
		n, status := o.rb.Write(p, decoderIOTimeout)
		switch status {
		case RbOK:
			p = p[n:]
		case RbAbort:
			return ProcessAbort, false
		case RbDone:
			return ProcessIOFail, false
		case RbTimeout:
			return ProcessTimeout, false
		default:
			return ProcessIOFail, false
		}
	}
	return ProcessWrote, true
}

// decoderBase is the common state every codec-specific decoder embeds:
// the ringbuf bridge pair, the codec metadata discovered by the matching
// extractor, the DSP context, and a latch so REPORT_INFO fires exactly
// once per Open (§4.3: "The first successful decode reports REPORT_INFO").
type decoderBase struct {
	elem *Element
	in   rbInput
	out  rbOutput
	info *CodecInfo
	dsp  FrameDecoder

	reportedInfo bool
	pending      []byte // undelivered PCM left over from the last Decode call
}

func newDecoderBase(input, output *Ringbuf, info *CodecInfo, dsp FrameDecoder) decoderBase {
	return decoderBase{
		in:   rbInput{rb: input},
		out:  rbOutput{rb: output},
		info: info,
		dsp:  dsp,
	}
}

// flushPending serves any undelivered PCM from the previous Decode call
// before pulling a new compressed frame, matching §4.3 step 2's "if its
// output scratch has bytes remaining, writes them to the element's
// output; otherwise reads the next frame". The returned bool is whether
// there was pending data to flush at all, not whether the flush
// succeeded: callers must return the reported outcome either way, since a
// failed flush (abort/timeout) must propagate immediately rather than
// fall through to reading a new frame.
func (d *decoderBase) flushPending() (int, ProcessOutcome, bool) {
	if len(d.pending) == 0 {
		return 0, ProcessWrote, false
	}
	outcome, _ := d.out.writeAll(d.pending)
	n := len(d.pending)
	d.pending = nil
	return n, outcome, true
}

// reportInfoOnce publishes REPORT_INFO the first time a frame has been
// decoded and the codec's true format is known.
func (d *decoderBase) reportInfoOnce() {
	if d.reportedInfo {
		return
	}
	d.reportedInfo = true
	d.elem.ReportInfo(d.info.SampleRate, d.info.Channels, d.info.Bits)
}

var errDecoderClosed = errors.New("geniesdk: decoder used after close")
