package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	MP3 container parser: optional ID3v2 tag skip, then a frame
 *		header scan to derive sample rate / channels / bitrate /
 *		frame size (§4.2).
 *
 *------------------------------------------------------------------*/

var mp3SampleRateTable = [4][3]int{
	// MPEG version index: 0=2.5, 1=reserved, 2=2, 3=1
	{11025, 12000, 8000},
	{0, 0, 0},
	{22050, 24000, 16000},
	{44100, 48000, 32000},
}

// mp3BitrateTable[versionGroup][layerIndex][bitrateIndex], versionGroup 0
// = MPEG1, 1 = MPEG2/2.5. layerIndex 0=layer3,1=layer2,2=layer1 (matches
// the 2-bit layer field order used below).
var mp3BitrateTable = [2][3][16]int{
	{ // MPEG1
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}, // layer3
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0}, // layer2
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}, // layer1
	},
	{ // MPEG2/2.5
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}, // layer3
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}, // layer2
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}, // layer1
	},
}

// MP3FrameHeader is a parsed 4-byte MP3 frame header.
type MP3FrameHeader struct {
	VersionIdx int // 0=2.5, 2=2, 3=1
	LayerIdx   int // 1=layer3, 2=layer2, 3=layer1
	BitrateKbps int
	SampleRate  int
	Padding     int
	Channels    int
	FrameSize   int
}

// ParseMP3FrameHeader decodes a 4-byte MP3 frame header, validating the
// syncword (0xFFFxxx) and the layer/rate/bitrate fields.
func ParseMP3FrameHeader(b []byte) (MP3FrameHeader, bool) {
	var h MP3FrameHeader
	if len(b) < 4 {
		return h, false
	}
	if b[0] != 0xFF || (b[1]&0xE0) != 0xE0 {
		return h, false
	}
	h.VersionIdx = int(b[1]>>3) & 0x03
	h.LayerIdx = int(b[1]>>1) & 0x03
	if h.VersionIdx == 1 || h.LayerIdx == 0 {
		return h, false // reserved
	}
	bitrateIdx := int(b[2]>>4) & 0x0F
	sampleIdx := int(b[2]>>2) & 0x03
	if bitrateIdx == 0 || bitrateIdx == 15 || sampleIdx == 3 {
		return h, false
	}
	h.Padding = int(b[2]>>1) & 0x01
	channelMode := int(b[3]>>6) & 0x03
	if channelMode == 3 {
		h.Channels = 1
	} else {
		h.Channels = 2
	}

	versionGroup := 0
	if h.VersionIdx != 3 {
		versionGroup = 1
	}
	h.BitrateKbps = mp3BitrateTable[versionGroup][h.LayerIdx-1][bitrateIdx]
	h.SampleRate = mp3SampleRateTable[h.VersionIdx][sampleIdx]
	if h.BitrateKbps == 0 || h.SampleRate == 0 {
		return h, false
	}

	if h.LayerIdx == 3 { // layer 1: 384 samples/frame, 4-byte slots
		h.FrameSize = (12*h.BitrateKbps*1000/h.SampleRate + h.Padding) * 4
	} else if h.VersionIdx == 3 { // MPEG1 layer2/3: 1152 samples/frame
		h.FrameSize = 144*h.BitrateKbps*1000/h.SampleRate + h.Padding
	} else { // MPEG2/2.5 layer3: 576 samples/frame
		h.FrameSize = 72*h.BitrateKbps*1000/h.SampleRate + h.Padding
	}
	return h, true
}

// id3v2Size reads the ID3v2 header's 4-byte synchsafe size field at byte
// offset 6 and returns the total tag size including the 10-byte header
// (§4.2: "24-bit synchsafe size at byte 6" -- actually a 28-bit synchsafe
// value spanning bytes 6-9, each byte contributing 7 bits).
func id3v2Size(header []byte) (int64, bool) {
	if len(header) < 10 || string(header[0:3]) != "ID3" {
		return 0, false
	}
	size := int64(header[6]&0x7F)<<21 | int64(header[7]&0x7F)<<14 | int64(header[8]&0x7F)<<7 | int64(header[9]&0x7F)
	return size + 10, true
}

type MP3Extractor struct{}

func (MP3Extractor) Extract(fetch Fetch, info *CodecInfo) error {
	head := make([]byte, 10)
	n, err := fetch(head, 0)
	if err != nil {
		return ErrIndataUnderflow
	}
	if n < 4 {
		return ErrIndataUnderflow
	}

	var searchFrom int64
	if size, ok := id3v2Size(head); ok {
		searchFrom = size
	}

	const maxScan = 64 * 1024
	buf := make([]byte, 4)
	var first, second MP3FrameHeader
	var firstOffset int64 = -1

	for off := searchFrom; off < searchFrom+maxScan; off++ {
		if n, err := fetch(buf, off); err != nil || n < 4 {
			return ErrInvalidHeader
		}
		h, ok := ParseMP3FrameHeader(buf)
		if !ok {
			continue
		}
		if firstOffset < 0 {
			first = h
			firstOffset = off
			continue
		}
		// Two-header consistency check: confirm the next frame's
		// header lands where the first frame's size says it should,
		// and that rate/channels agree.
		if off == firstOffset+int64(first.FrameSize) {
			second = h
			if second.SampleRate == first.SampleRate && second.Channels == first.Channels {
				info.Kind = CodecMP3
				info.SampleRate = first.SampleRate
				info.Channels = first.Channels
				info.Bits = 16
				info.ContentOffset = firstOffset
				info.BytesPerSecond = first.BitrateKbps * 1000 / 8
				info.deriveDurationFromBytesPerSecond()
				return nil
			}
		}
		// Didn't confirm; keep scanning from the next byte after the
		// candidate header that failed to pan out.
		firstOffset = -1
	}
	return ErrInvalidHeader
}
