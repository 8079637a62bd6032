package geniesdk

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// buildBox wraps payload in a standard 8-byte-header box.
func buildBox(typ string, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(b[0:4], uint32(8+len(payload)))
	copy(b[4:8], typ)
	copy(b[8:], payload)
	return b
}

func concatBoxes(boxes ...[]byte) []byte {
	var out []byte
	for _, b := range boxes {
		out = append(out, b...)
	}
	return out
}

// buildMinimalM4A assembles ftyp + moov(mvhd/trak(tkhd-less/mdia(mdhd/
// hdlr/minf(stbl(stsd(mp4a/esds)/stts/stsc/stsz/stco))))) + mdat, all one
// sample of 100 bytes, 1 chunk, timescale 44100, one stts run.
func buildMinimalM4A(t *testing.T) []byte {
	ftyp := buildBox("ftyp", append([]byte("M4A "), make([]byte, 8)...))

	mvhd := buildBox("mvhd", concatBoxes(
		[]byte{0, 0, 0, 0}, // version/flags
		make([]byte, 8),    // creation/mod time
		be32(44100),        // timescale
		be32(44100),        // duration (1 sec)
		make([]byte, 80),   // rest, padded
	))

	mdhd := buildBox("mdhd", concatBoxes(
		[]byte{0, 0, 0, 0},
		make([]byte, 8),
		be32(44100), // timescale
		be32(44100), // duration
		make([]byte, 4),
	))

	hdlr := buildBox("hdlr", concatBoxes(
		[]byte{0, 0, 0, 0},
		make([]byte, 4),
		[]byte("soun"),
		make([]byte, 12),
	))

	// AudioSampleEntry (28 bytes): 6 reserved, 2 dataRefIdx, 8 reserved,
	// channels(2), samplesize(2), 2 predefined/reserved, sampleRate (16.16
	// fixed, top 16 bits used here).
	sampleEntry := make([]byte, 28)
	binary.BigEndian.PutUint16(sampleEntry[16:18], 2)     // channels
	binary.BigEndian.PutUint16(sampleEntry[18:20], 16)    // bits
	binary.BigEndian.PutUint32(sampleEntry[24:28], 44100<<16)

	// Minimal esds: version/flags(4) + ES_Descriptor(tag 0x03).
	// DecoderSpecificInfo ASC for AAC-LC 44100 stereo: 0x12 0x10.
	asc := []byte{0x12, 0x10}
	dsi := append([]byte{0x05, byte(len(asc))}, asc...)
	decCfg := append([]byte{0x04, byte(13 + len(dsi))},
		append([]byte{0x40, 0x15, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, dsi...)...)
	esPayload := append([]byte{0, 0, 0}, decCfg...) // ES_ID(2)+flags(1), no optional fields
	esDescriptor := append([]byte{0x03, byte(len(esPayload))}, esPayload...)
	esds := buildBox("esds", append([]byte{0, 0, 0, 0}, esDescriptor...))

	mp4a := buildBox("mp4a", append(sampleEntry, esds...))
	stsdPayload := concatBoxes([]byte{0, 0, 0, 0}, be32(1), mp4a)
	stsd := buildBox("stsd", stsdPayload)

	stts := buildBox("stts", concatBoxes([]byte{0, 0, 0, 0}, be32(1), be32(1), be32(1024)))
	stsc := buildBox("stsc", concatBoxes([]byte{0, 0, 0, 0}, be32(1), be32(1), be32(1), be32(1)))
	stsz := buildBox("stsz", concatBoxes([]byte{0, 0, 0, 0}, be32(0), be32(1), be32(100)))

	// stco's chunk offset must point at mdat's payload, which lands right
	// after ftyp+moov in this moov-before-mdat layout. Since stco's own
	// size doesn't depend on the offset value it stores (fixed 4-byte
	// entry), compute the final moov size first with a placeholder
	// offset, then patch the one stco entry in place.
	placeholderStco := buildBox("stco", concatBoxes([]byte{0, 0, 0, 0}, be32(1), be32(0)))
	stbl := buildBox("stbl", concatBoxes(stsd, stts, stsc, stsz, placeholderStco))
	minf := buildBox("minf", stbl)
	mdia := buildBox("mdia", concatBoxes(mdhd, hdlr, minf))
	trak := buildBox("trak", mdia)
	moovPayload := concatBoxes(mvhd, trak)
	moov := buildBox("moov", moovPayload)

	mdatPayload := make([]byte, 100)
	mdat := buildBox("mdat", mdatPayload)

	mdatPayloadOffset := uint32(len(ftyp) + len(moov) + 8)
	// The stco entry value is the last 4 bytes of placeholderStco.
	binary.BigEndian.PutUint32(moov[len(moov)-4:], mdatPayloadOffset)

	file := concatBoxes(ftyp, moov, mdat)
	require.NotEmpty(t, file)
	return file
}

func TestM4AExtractorMoovFirst(t *testing.T) {
	data := buildMinimalM4A(t)

	var info CodecInfo
	err := (&M4AExtractor{}).Extract(fetchFromBytes(data), &info)
	require.NoError(t, err)
	assert.Equal(t, CodecM4A, info.Kind)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.EqualValues(t, 1000, info.DurationMs)
	assert.Len(t, info.Tables.ChunkOffset, 1)
	assert.Len(t, info.Tables.FirstChunk, 1)
}

func TestM4AExtractorMoovBehindMdatRetries(t *testing.T) {
	ftyp := buildBox("ftyp", append([]byte("M4A "), make([]byte, 8)...))
	mdat := buildBox("mdat", make([]byte, 50))
	moov := buildBox("moov", []byte{0, 0, 0, 0}) // content doesn't matter for this test

	data := concatBoxes(ftyp, mdat, moov)

	var info CodecInfo
	err := (&M4AExtractor{}).Extract(fetchFromBytes(data), &info)
	require.ErrorIs(t, err, ErrAgainMoovAtTail)
	assert.EqualValues(t, len(ftyp)+len(mdat), info.ContentOffset)
}

func TestM4ASeekOffsetWithinBounds(t *testing.T) {
	data := buildMinimalM4A(t)
	var info CodecInfo
	err := (&M4AExtractor{}).Extract(fetchFromBytes(data), &info)
	require.NoError(t, err)

	idx, offset, err := M4ASeekOffset(&info, 500)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, offset, info.MdatOffset)
	assert.Less(t, offset, int64(len(data)))
	assert.GreaterOrEqual(t, idx, 0)
}

func TestM4ASeekOffsetMidChunkReturnsChunkFirstSample(t *testing.T) {
	// 2 chunks of 4 samples each, 100 bytes/sample, 1000 samples/sec so
	// DurationMs and sample count line up exactly (8 samples, 8ms).
	info := CodecInfo{
		DurationMs: 8,
		Tables: M4ASampleTables{
			TimeToSampleCount: []uint32{8},
			TimeToSampleDelta: []uint32{1},
			FirstChunk:        []uint32{1, 2},
			SamplesPerChunk:   []uint32{4, 4},
			ChunkOffset:       []uint64{1000, 2000},
		},
	}

	// seekMs=5 -> targetSample = 5*8/8 = 5, which falls mid-chunk (second
	// chunk covers samples 4-7). The returned index must be the chunk's
	// first sample (4), not the mid-chunk target sample (5), since the
	// decoder reads a stsz[idx]-sized frame starting at byteOffset and the
	// two must name the same sample.
	idx, offset, err := M4ASeekOffset(&info, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	assert.EqualValues(t, 2000, offset)
}

func TestM4ASeekOffsetRejectsMissingTables(t *testing.T) {
	var info CodecInfo
	_, _, err := M4ASeekOffset(&info, 100)
	assert.ErrorIs(t, err, ErrUnsupported)
}
