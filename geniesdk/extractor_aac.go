package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	AAC/ADTS container parser: optional ID3v2 skip, then a
 *		syncword scan validating the fixed profile/channel/rate
 *		fields (§4.2). Duration is unknown and left zero.
 *
 *------------------------------------------------------------------*/

var adtsSampleRateTable = [13]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// ADTSFrameHeader is a parsed 7-byte (fixed + variable, no CRC) ADTS
// header.
type ADTSFrameHeader struct {
	Profile    int
	SampleRate int
	Channels   int
	FrameLen   int // includes the 7-byte header
}

// ParseADTSFrameHeader decodes an ADTS frame header, validating the
// 0xFFF syncword and the profile/channel/sample-rate-index fields.
func ParseADTSFrameHeader(b []byte) (ADTSFrameHeader, bool) {
	var h ADTSFrameHeader
	if len(b) < 7 {
		return h, false
	}
	if b[0] != 0xFF || (b[1]&0xF0) != 0xF0 {
		return h, false
	}
	profile := int(b[2]>>6) & 0x03
	sampleIdx := int(b[2]>>2) & 0x0F
	channelCfg := (int(b[2]&0x01) << 2) | int(b[3]>>6)&0x03
	if sampleIdx >= len(adtsSampleRateTable) || channelCfg == 0 {
		return h, false
	}
	frameLen := (int(b[3]&0x03) << 11) | (int(b[4]) << 3) | (int(b[5]>>5) & 0x07)
	if frameLen < 7 {
		return h, false
	}
	h.Profile = profile + 1 // ADTS stores profile-1
	h.SampleRate = adtsSampleRateTable[sampleIdx]
	h.Channels = channelCfg
	h.FrameLen = frameLen
	return h, true
}

type AACExtractor struct{}

func (AACExtractor) Extract(fetch Fetch, info *CodecInfo) error {
	head := make([]byte, 10)
	n, err := fetch(head, 0)
	if err != nil || n < 4 {
		return ErrIndataUnderflow
	}

	var searchFrom int64
	if size, ok := id3v2Size(head); ok {
		searchFrom = size
	}

	const maxScan = 64 * 1024
	buf := make([]byte, 7)
	for off := searchFrom; off < searchFrom+maxScan; off++ {
		if n, err := fetch(buf, off); err != nil || n < 7 {
			return ErrInvalidHeader
		}
		h, ok := ParseADTSFrameHeader(buf)
		if !ok {
			continue
		}
		info.Kind = CodecAAC
		info.SampleRate = h.SampleRate
		info.Channels = h.Channels
		info.Bits = 16
		info.ContentOffset = off
		info.DurationMs = 0 // unknown, per §4.2
		return nil
	}
	return ErrInvalidHeader
}
