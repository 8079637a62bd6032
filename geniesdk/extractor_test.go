package geniesdk

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fetchFromBytes(data []byte) Fetch {
	return func(buf []byte, offset int64) (int, error) {
		if offset >= int64(len(data)) {
			return 0, ErrIndataUnderflow
		}
		n := copy(buf, data[offset:])
		return n, nil
	}
}

// buildMP3Frame returns one MP3 frame header matching the given bitrate
// (kbps) and sample rate (MPEG1 layer 3 only, stereo), followed by
// frameSize-4 zero bytes of (fake) payload.
func buildMP3Frame(bitrateKbps, sampleRate int) []byte {
	sampleRateIdx := map[int]int{44100: 0, 48000: 1, 32000: 2}[sampleRate]
	bitrateIdx := map[int]int{32: 1, 64: 5, 128: 9, 192: 11, 320: 14}[bitrateKbps]

	b := make([]byte, 4)
	b[0] = 0xFF
	b[1] = 0xE0 | (3 << 3) | (1 << 1) | 1 // version=3 (MPEG1), layer=01 (layer3), no CRC
	b[2] = byte(bitrateIdx<<4) | byte(sampleRateIdx<<2)
	b[3] = 0x00 // stereo (00), no other flags

	h, ok := ParseMP3FrameHeader(b)
	require.True(nilT{}, ok)
	frame := make([]byte, h.FrameSize)
	copy(frame, b)
	return frame
}

// nilT satisfies require.TestingT without a *testing.T, for use in a
// package-level helper that can't take one.
type nilT struct{}

func (nilT) Errorf(format string, args ...interface{}) {}
func (nilT) FailNow()                                  {}

func TestMP3ExtractorHappyPath(t *testing.T) {
	frame1 := buildMP3Frame(128, 44100)
	frame2 := buildMP3Frame(128, 44100)
	data := append(append([]byte{}, frame1...), frame2...)

	var info CodecInfo
	err := (MP3Extractor{}).Extract(fetchFromBytes(data), &info)
	require.NoError(t, err)
	assert.Equal(t, CodecMP3, info.Kind)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.EqualValues(t, 0, info.ContentOffset)
}

func TestMP3ExtractorSkipsID3v2(t *testing.T) {
	id3 := make([]byte, 20)
	copy(id3, []byte("ID3"))
	id3[3], id3[4] = 3, 0 // version
	// synchsafe size = 10 (so tag is 20 bytes total incl. 10-byte header)
	id3[6], id3[7], id3[8], id3[9] = 0, 0, 0, 10

	frame1 := buildMP3Frame(128, 44100)
	frame2 := buildMP3Frame(128, 44100)
	data := append(append(append([]byte{}, id3...), frame1...), frame2...)

	var info CodecInfo
	err := (MP3Extractor{}).Extract(fetchFromBytes(data), &info)
	require.NoError(t, err)
	assert.EqualValues(t, 20, info.ContentOffset)
}

// TestMP3FrameSizeFormula checks invariant §8.7: for a generator frame of
// known bitrate B, frame_size == (144000*B / sample_rate) + padding to
// within +/-1 byte (MPEG1 layer 3).
func TestMP3FrameSizeFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bitrateKbps := rapid.SampledFrom([]int{32, 64, 128, 192, 320}).Draw(t, "bitrate")
		sampleRate := rapid.SampledFrom([]int{44100, 48000, 32000}).Draw(t, "rate")

		frame := buildMP3Frame(bitrateKbps, sampleRate)
		h, ok := ParseMP3FrameHeader(frame)
		require.True(t, ok)

		expected := 144000*bitrateKbps/sampleRate + h.Padding
		diff := h.FrameSize - expected
		if diff < 0 {
			diff = -diff
		}
		require.LessOrEqual(t, diff, 1)
	})
}

func TestAACExtractorHappyPath(t *testing.T) {
	// ADTS header: syncword + profile(LC=1->01) + 44100(idx4) + channels=2
	frameLen := 200
	b := make([]byte, 7)
	b[0] = 0xFF
	b[1] = 0xF1 // MPEG-4, layer 00, no CRC
	profile := 1 // LC - 1 = 01
	sampleIdx := 4
	channelCfg := 2
	b[2] = byte(profile<<6) | byte(sampleIdx<<2) | byte(channelCfg>>2)
	b[3] = byte((channelCfg&0x03)<<6) | byte((frameLen>>11)&0x03)
	b[4] = byte((frameLen >> 3) & 0xFF)
	b[5] = byte((frameLen & 0x07) << 5)
	b[6] = 0x00

	data := make([]byte, frameLen)
	copy(data, b)

	var info CodecInfo
	err := (AACExtractor{}).Extract(fetchFromBytes(data), &info)
	require.NoError(t, err)
	assert.Equal(t, CodecAAC, info.Kind)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.EqualValues(t, 0, info.DurationMs)
}

func buildWAVFile(t *testing.T, sampleRate, channels, bits int, dataLen int) []byte {
	blockAlign := channels * bits / 8
	byteRate := blockAlign * sampleRate

	var buf []byte
	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, 0, 0, 0, 0) // size placeholder
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtChunk[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[4:8], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[8:12], uint32(byteRate))
	binary.LittleEndian.PutUint16(fmtChunk[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(fmtChunk[14:16], uint16(bits))
	sizeBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBuf, 16)
	buf = append(buf, sizeBuf...)
	buf = append(buf, fmtChunk...)

	buf = append(buf, []byte("data")...)
	binary.LittleEndian.PutUint32(sizeBuf, uint32(dataLen))
	buf = append(buf, sizeBuf...)
	buf = append(buf, make([]byte, dataLen)...)

	require.GreaterOrEqual(t, len(buf), 44)
	return buf
}

func TestWAVExtractorHappyPath(t *testing.T) {
	data := buildWAVFile(t, 16000, 1, 16, 3200)

	x := &WAVExtractor{}
	var info CodecInfo
	err := x.Extract(fetchFromBytes(data), &info)
	require.NoError(t, err)
	assert.Equal(t, CodecWAV, info.Kind)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 16, info.Bits)
	assert.EqualValues(t, 44, info.ContentOffset)
	assert.EqualValues(t, 3200, info.ContentLength)
	assert.EqualValues(t, 44, len(x.HeaderBlob))
}

func TestWAVExtractorRejectsBadBlockAlign(t *testing.T) {
	data := buildWAVFile(t, 16000, 1, 16, 3200)
	// Corrupt blockAlign field (offset 32 = fmt chunk's blockAlign).
	binary.LittleEndian.PutUint16(data[32:34], 99)

	var info CodecInfo
	err := (&WAVExtractor{}).Extract(fetchFromBytes(data), &info)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, CodecMP3, detectKind([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), "song.mp3"))
	assert.Equal(t, CodecAAC, detectKind([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), "song.aac"))
	assert.Equal(t, CodecWAV, detectKind([]byte("RIFFxxxxWAVE"), ""))
	assert.Equal(t, CodecM4A, detectKind([]byte("\x00\x00\x00\x20ftypM4A "), ""))
	assert.Equal(t, CodecUnknown, detectKind([]byte{0, 0, 0, 0}, ""))
}
