package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Raw AAC/ADTS decoder element (§4.3, §7). Reads one ADTS frame
 *		at a time (7-byte header gives the frame length inclusive of
 *		itself), decodes it, and tracks four consecutive DSP
 *		failures as the threshold for a fatal decoder error.
 *
 *------------------------------------------------------------------*/

const aacMaxConsecutiveFailures = 4

// AACDecoder is an Element's ops implementation for raw ADTS AAC.
type AACDecoder struct {
	decoderBase
	consecutiveFailures int
}

func NewAACDecoder(elem *Element, input, output *Ringbuf, info *CodecInfo, dsp FrameDecoder) *AACDecoder {
	d := &AACDecoder{decoderBase: newDecoderBase(input, output, info, dsp)}
	d.elem = elem
	return d
}

func (d *AACDecoder) Open() error {
	return d.dsp.Init(d.info)
}

func (d *AACDecoder) Close() error {
	d.pending = nil
	return d.dsp.Close()
}

// PrepareSeek exists to satisfy the Decoder contract; per §9's open
// question, AAC seek computes a negative offset and Liteplayer treats it
// as a no-op, so there is nothing to reconfigure here.
func (d *AACDecoder) PrepareSeek() error {
	return nil
}

func (d *AACDecoder) Process(scratch []byte) (int, ProcessOutcome) {
	if n, outcome, ok := d.flushPending(); ok {
		return n, outcome
	}

	head := scratch[:7]
	if outcome, ok := d.in.readChunk(head); !ok {
		return 0, outcome
	}
	h, ok := ParseADTSFrameHeader(head)
	if !ok {
		return 0, ProcessDSPFail
	}

	frame := make([]byte, h.FrameLen)
	copy(frame, head)
	if h.FrameLen > 7 {
		if outcome, ok := d.in.readChunk(frame[7:]); !ok {
			return 0, outcome
		}
	}

	pcm, err := d.dsp.Decode(frame)
	if err != nil {
		d.consecutiveFailures++
		if d.consecutiveFailures >= aacMaxConsecutiveFailures {
			return 0, ProcessDSPFail
		}
		return 0, ProcessWrote // tolerate isolated frame failures, keep going
	}
	d.consecutiveFailures = 0
	d.reportInfoOnce()

	outcome, ok := d.out.writeAll(pcm)
	if !ok {
		return 0, outcome
	}
	return len(pcm), ProcessWrote
}
