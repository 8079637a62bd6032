package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	MP3 decoder element (§4.3). Two-phase frame read: 4 header
 *		bytes first (deriving frame size), then the remaining
 *		payload, each frame handed whole to the DSP. After a seek,
 *		resynchronizes on the input by scanning byte-by-byte for a
 *		header whose rate/channels match the already-discovered
 *		format before resuming normal framed reads.
 *
 *------------------------------------------------------------------*/

// MP3Decoder is an Element's ops implementation for MP3 payloads.
type MP3Decoder struct {
	decoderBase
	resyncing bool
}

// NewMP3Decoder builds an MP3 decoder bound to elem, reading compressed
// bytes from input and writing PCM to output.
func NewMP3Decoder(elem *Element, input, output *Ringbuf, info *CodecInfo, dsp FrameDecoder) *MP3Decoder {
	d := &MP3Decoder{decoderBase: newDecoderBase(input, output, info, dsp)}
	d.elem = elem
	return d
}

func (d *MP3Decoder) Open() error {
	return d.dsp.Init(d.info)
}

func (d *MP3Decoder) Close() error {
	d.pending = nil
	return d.dsp.Close()
}

// PrepareSeek tears down and reinitializes the DSP context and clears I/O
// buffers (§4.3 step 3), and arms a resync scan for the next Process call
// since the input ringbuf after a seek is not guaranteed to start exactly
// on a frame boundary.
func (d *MP3Decoder) PrepareSeek() error {
	d.pending = nil
	d.resyncing = true
	return d.dsp.Reset()
}

func (d *MP3Decoder) Process(scratch []byte) (int, ProcessOutcome) {
	if n, outcome, ok := d.flushPending(); ok {
		return n, outcome
	}

	if d.resyncing {
		if outcome, ok := d.resync(); !ok {
			return 0, outcome
		}
		d.resyncing = false
	}

	head := scratch[:4]
	if outcome, ok := d.in.readChunk(head); !ok {
		return 0, outcome
	}
	h, ok := ParseMP3FrameHeader(head)
	if !ok {
		return 0, ProcessDSPFail
	}

	frame := make([]byte, h.FrameSize)
	copy(frame, head)
	if h.FrameSize > 4 {
		if outcome, ok := d.in.readChunk(frame[4:]); !ok {
			return 0, outcome
		}
	}

	pcm, err := d.dsp.Decode(frame)
	if err != nil {
		return 0, ProcessDSPFail
	}
	d.reportInfoOnce()

	outcome, ok := d.out.writeAll(pcm)
	if !ok {
		return 0, outcome
	}
	return len(pcm), ProcessWrote
}

// resync scans the input byte-by-byte for a 4-byte header whose sample
// rate and channel count match the format the extractor already
// discovered (§4.3: "resynchronizes by scanning for a header whose
// sample-rate and channels match the decoded info").
func (d *MP3Decoder) resync() (ProcessOutcome, bool) {
	window := make([]byte, 4)
	if outcome, ok := d.in.readChunk(window); !ok {
		return outcome, false
	}
	for i := 0; i < 64*1024; i++ {
		if h, ok := ParseMP3FrameHeader(window); ok &&
			h.SampleRate == d.info.SampleRate && h.Channels == d.info.Channels {
			return d.consumeAsFrame(h, window)
		}
		next := make([]byte, 1)
		if outcome, _, ok := d.in.read(next); !ok {
			return outcome, false
		}
		copy(window, window[1:])
		window[3] = next[0]
	}
	return ProcessDSPFail, false
}

// consumeAsFrame treats an already-read 4-byte header (found during
// resync) as the start of the next frame, pulling and decoding its
// remaining payload immediately.
func (d *MP3Decoder) consumeAsFrame(h MP3FrameHeader, header []byte) (ProcessOutcome, bool) {
	body := make([]byte, h.FrameSize)
	copy(body, header)
	if h.FrameSize > 4 {
		if outcome, ok := d.in.readChunk(body[4:]); !ok {
			return outcome, false
		}
	}
	pcm, err := d.dsp.Decode(body)
	if err != nil {
		return ProcessDSPFail, false
	}
	d.pending = pcm
	return ProcessWrote, true
}
