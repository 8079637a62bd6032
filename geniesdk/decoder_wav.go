package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	WAV decoder element (§4.3, §9). WAV payload is already PCM;
 *		the DSP's job is header replay plus bit-depth normalization,
 *		so the glue here just frames the raw bytes in ~20 ms chunks
 *		instead of parsing a compressed bitstream.
 *
 * Description:	§9's open question on "sink_bits" promotion (16 stays 16,
 *		24/32 upgrade to 32, gated on a compile-time profile in the
 *		source) is resolved here by always pinning the DSP's output
 *		to 16-bit PCM: this target is a fixed-function smart-speaker
 *		sink, not a general desktop build, so there is no profile
 *		axis to gate on. See DESIGN.md.
 *
 *------------------------------------------------------------------*/

// wavFrameMs is the decoder's read granularity, matching the spec's
// "feeds data in roughly 20 ms frames".
const wavFrameMs = 20

// WAVDecoder is an Element's ops implementation for WAV/PCM payloads.
type WAVDecoder struct {
	decoderBase
	frameBytes int
	seeded     bool
}

func NewWAVDecoder(elem *Element, input, output *Ringbuf, info *CodecInfo, dsp FrameDecoder) *WAVDecoder {
	d := &WAVDecoder{decoderBase: newDecoderBase(input, output, info, dsp)}
	d.elem = elem
	bytesPerSec := info.SampleRate * info.BytesPerSample()
	d.frameBytes = bytesPerSec * wavFrameMs / 1000
	if d.frameBytes <= 0 {
		d.frameBytes = 960 // 16kHz mono 16-bit fallback, matches recorder framing
	}
	return d
}

func (d *WAVDecoder) Open() error {
	if err := d.dsp.Init(d.info); err != nil {
		return err
	}
	d.seeded = false
	return nil
}

func (d *WAVDecoder) Close() error {
	d.pending = nil
	return d.dsp.Close()
}

// PrepareSeek tears down and reinitializes the DSP context; the header
// blob is re-seeded on the next Open/Process since a WAV seek always
// lands mid-data, after the header dr_wav-style streaming needs replayed
// once per session.
func (d *WAVDecoder) PrepareSeek() error {
	d.pending = nil
	d.seeded = false
	return d.dsp.Reset()
}

func (d *WAVDecoder) Process(scratch []byte) (int, ProcessOutcome) {
	if n, outcome, ok := d.flushPending(); ok {
		return n, outcome
	}

	if !d.seeded && len(d.info.HeaderBlob) > 0 {
		if _, err := d.dsp.Decode(d.info.HeaderBlob); err != nil {
			return 0, ProcessDSPFail
		}
		d.seeded = true
	}

	buf := scratch
	if len(buf) > d.frameBytes {
		buf = buf[:d.frameBytes]
	}
	n, outcome, ok := d.in.read(buf)
	if !ok {
		return 0, outcome
	}
	if n == 0 {
		return 0, outcome
	}

	pcm, err := d.dsp.Decode(buf[:n])
	if err != nil {
		return 0, ProcessDSPFail
	}
	d.reportInfoOnce()

	wOutcome, wok := d.out.writeAll(pcm)
	if !wok {
		return 0, wOutcome
	}
	return len(pcm), ProcessWrote
}
