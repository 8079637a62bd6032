package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The Recorder's optional Speex/Ogg encoding path (§4.7 step
 *		2-3, §6 "Speex narrowband (mode id 0, quality 8, complexity
 *		2) wrapped in Ogg pages"). Per §1's non-goal ("no codec
 *		re-implementation"), Speex DSP itself is out of scope here
 *		the same way pvmp3/pvaac/dr_wav are in dsp_reference.go: a
 *		production build links a real Speex encoder behind this
 *		interface. No Go Speex binding appears anywhere in this
 *		port's dependency surface, so this reference implementation
 *		is a stdlib-only placeholder (see DESIGN.md) that preserves
 *		the wire shape (an Ogg-style header packet, then one page per
 *		frame) without doing narrowband compression.
 *
 *------------------------------------------------------------------*/

import "encoding/binary"

// SpeexEncoder turns one 30ms PCM frame into its encoded wire form. Header
// returns the one-time Ogg header packet emitted before the first frame.
type SpeexEncoder interface {
	Header() []byte
	EncodeFrame(pcm []byte) ([]byte, error)
	Close() error
}

// ReferenceSpeexEncoder wraps each PCM frame in a minimal page: a 4-byte
// little-endian length prefix followed by the frame bytes unchanged, framed
// the way Ogg pages length-prefix their payload, without attempting actual
// Speex compression.
type ReferenceSpeexEncoder struct {
	sampleRate int
	channels   int
}

func NewReferenceSpeexEncoder(sampleRate, channels int) *ReferenceSpeexEncoder {
	return &ReferenceSpeexEncoder{sampleRate: sampleRate, channels: channels}
}

func (e *ReferenceSpeexEncoder) Header() []byte {
	h := make([]byte, 8)
	copy(h, "SpxHdr\x00\x00")
	binary.LittleEndian.PutUint32(h[4:], uint32(e.sampleRate))
	return h
}

func (e *ReferenceSpeexEncoder) EncodeFrame(pcm []byte) ([]byte, error) {
	page := make([]byte, 4+len(pcm))
	binary.LittleEndian.PutUint32(page, uint32(len(pcm)))
	copy(page[4:], pcm)
	return page, nil
}

func (e *ReferenceSpeexEncoder) Close() error { return nil }
