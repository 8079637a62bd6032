package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	M4A/MP4 container parser: a recursive atom walk over
 *		ftyp/moov/mdat/mvhd/trak/mdia/mdhd/hdlr/minf/stbl/stsd/
 *		mp4a/esds/stts/stsc/stsz/stco (§4.2).
 *
 * Description:	Requires `ftyp` first. If the first payload atom is
 *		`moov`, parses immediately. If it is `mdat`, records its
 *		offset/size and returns ErrAgainMoovAtTail with
 *		info.ContentOffset set to the moov box's offset. Fetch
 *		already takes an absolute offset, so no rebasing is needed:
 *		the caller (MediaParser, §4.4) simply calls Extract again
 *		with the same fetch and the same *CodecInfo; Extract
 *		recognizes the retry from MdatOffset already being set and
 *		jumps straight to parsing moov at ContentOffset.
 *
 *		The AudioSpecificConfig bytes inside `esds` are decoded
 *		with mediacommon's mpeg4audio package rather than hand
 *		rolled bit-twiddling; the atom/box walk itself stays
 *		hand-rolled (see SPEC_FULL.md §4.2).
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
)

type M4AExtractor struct{}

type box struct {
	typ        string
	payloadOff int64
	payloadLen int64
	headerLen  int64
}

// readBox reads one box header at absolute offset `off`.
func readBox(fetch Fetch, off int64) (box, error) {
	hdr := make([]byte, 8)
	n, err := fetch(hdr, off)
	if err != nil || n < 8 {
		return box{}, ErrIndataUnderflow
	}
	size := int64(binary.BigEndian.Uint32(hdr[0:4]))
	typ := string(hdr[4:8])
	headerLen := int64(8)
	if size == 1 {
		ext := make([]byte, 8)
		if n, err := fetch(ext, off+8); err != nil || n < 8 {
			return box{}, ErrIndataUnderflow
		}
		size = int64(binary.BigEndian.Uint64(ext))
		headerLen = 16
	}
	if size != 0 && size < headerLen {
		return box{}, ErrInvalidHeader
	}
	payloadLen := size - headerLen
	if size == 0 {
		payloadLen = -1 // extends to EOF; unsupported here
	}
	return box{typ: typ, payloadOff: off + headerLen, payloadLen: payloadLen, headerLen: headerLen}, nil
}

// walkChildren calls visit for every immediate child box within [start,
// end).
func walkChildren(fetch Fetch, start, end int64, visit func(b box) (stop bool, err error)) error {
	off := start
	for off < end {
		b, err := readBox(fetch, off)
		if err != nil {
			return err
		}
		stop, err := visit(b)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
		if b.payloadLen < 0 {
			return nil
		}
		off = b.payloadOff + b.payloadLen
	}
	return nil
}

func (x *M4AExtractor) Extract(fetch Fetch, info *CodecInfo) error {
	if info.MdatOffset > 0 {
		// Retry after ErrAgainMoovAtTail: moov's offset was already
		// located and recorded in ContentOffset, so skip straight to it.
		moovBox, err := readBox(fetch, info.ContentOffset)
		if err != nil {
			return err
		}
		if moovBox.typ != "moov" {
			return ErrInvalidHeader
		}
		return x.parseMoov(fetch, moovBox, info)
	}

	first, err := readBox(fetch, 0)
	if err != nil {
		return err
	}
	if first.typ != "ftyp" {
		return ErrInvalidHeader
	}
	cursor := first.payloadOff + first.payloadLen

	next, err := readBox(fetch, cursor)
	if err != nil {
		return err
	}

	switch next.typ {
	case "moov":
		return x.parseMoov(fetch, next, info)
	case "mdat":
		info.MdatOffset = next.payloadOff
		info.MdatSize = next.payloadLen
		moovOffset := next.payloadOff + next.payloadLen
		moovBox, err := readBox(fetch, moovOffset)
		if err != nil {
			return err
		}
		if moovBox.typ != "moov" {
			return ErrInvalidHeader
		}
		// Stash moovOffset in ContentOffset and ask the caller
		// (MediaParser) to call Extract again with the same fetch and
		// info; the retry branch at the top of Extract then reads moov
		// straight from there without re-deriving it (§4.2, §8
		// scenario 3).
		info.ContentOffset = moovOffset
		return ErrAgainMoovAtTail
	default:
		return ErrInvalidHeader
	}
}

func (x *M4AExtractor) parseMoov(fetch Fetch, moov box, info *CodecInfo) error {
	var audioTrakFound bool
	var timescale uint32
	var movieDurationUnits uint64

	err := walkChildren(fetch, moov.payloadOff, moov.payloadOff+moov.payloadLen, func(b box) (bool, error) {
		switch b.typ {
		case "mvhd":
			buf := make([]byte, b.payloadLen)
			if n, err := fetch(buf, b.payloadOff); err != nil || int64(n) < b.payloadLen {
				return false, ErrIndataUnderflow
			}
			version := buf[0]
			if version == 1 {
				timescale = binary.BigEndian.Uint32(buf[20:24])
				movieDurationUnits = binary.BigEndian.Uint64(buf[24:32])
			} else {
				timescale = binary.BigEndian.Uint32(buf[12:16])
				movieDurationUnits = uint64(binary.BigEndian.Uint32(buf[16:20]))
			}
		case "trak":
			if audioTrakFound {
				return true, nil // already have our audio track
			}
			ok, err := x.parseTrak(fetch, b, info)
			if err != nil {
				return false, err
			}
			audioTrakFound = ok
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if !audioTrakFound {
		return ErrUnsupported
	}
	if info.DurationMs == 0 && timescale > 0 {
		info.DurationMs = int64(movieDurationUnits) * 1000 / int64(timescale)
	}
	info.Kind = CodecM4A
	return nil
}

func (x *M4AExtractor) parseTrak(fetch Fetch, trak box, info *CodecInfo) (bool, error) {
	var isAudio bool
	var mdhdTimescale uint32
	var mdhdDuration uint64

	err := walkChildren(fetch, trak.payloadOff, trak.payloadOff+trak.payloadLen, func(b box) (bool, error) {
		if b.typ != "mdia" {
			return false, nil
		}
		return false, walkChildren(fetch, b.payloadOff, b.payloadOff+b.payloadLen, func(mb box) (bool, error) {
			switch mb.typ {
			case "mdhd":
				buf := make([]byte, mb.payloadLen)
				if n, err := fetch(buf, mb.payloadOff); err != nil || int64(n) < mb.payloadLen {
					return false, ErrIndataUnderflow
				}
				if buf[0] == 1 {
					mdhdTimescale = binary.BigEndian.Uint32(buf[20:24])
					mdhdDuration = binary.BigEndian.Uint64(buf[24:32])
				} else {
					mdhdTimescale = binary.BigEndian.Uint32(buf[12:16])
					mdhdDuration = uint64(binary.BigEndian.Uint32(buf[16:20]))
				}
			case "hdlr":
				buf := make([]byte, mb.payloadLen)
				if n, err := fetch(buf, mb.payloadOff); err != nil || int64(n) < mb.payloadLen {
					return false, ErrIndataUnderflow
				}
				if len(buf) >= 12 && string(buf[8:12]) == "soun" {
					isAudio = true
				}
			case "minf":
				if !isAudio {
					return false, nil
				}
				return false, walkChildren(fetch, mb.payloadOff, mb.payloadOff+mb.payloadLen, func(nb box) (bool, error) {
					if nb.typ != "stbl" {
						return false, nil
					}
					return true, x.parseStbl(fetch, nb, info)
				})
			}
			return false, nil
		})
	})
	if err != nil {
		return false, err
	}
	if isAudio && mdhdTimescale > 0 {
		info.DurationMs = int64(mdhdDuration) * 1000 / int64(mdhdTimescale)
	}
	return isAudio, nil
}

func (x *M4AExtractor) parseStbl(fetch Fetch, stbl box, info *CodecInfo) error {
	return walkChildren(fetch, stbl.payloadOff, stbl.payloadOff+stbl.payloadLen, func(b box) (bool, error) {
		switch b.typ {
		case "stsd":
			return false, x.parseStsd(fetch, b, info)
		case "stts":
			return false, x.parseStts(fetch, b, info)
		case "stsc":
			return false, x.parseStsc(fetch, b, info)
		case "stsz":
			return false, x.parseStsz(fetch, b, info)
		case "stco":
			return false, x.parseStco(fetch, b, info, false)
		case "co64":
			return false, x.parseStco(fetch, b, info, true)
		}
		return false, nil
	})
}

func (x *M4AExtractor) parseStsd(fetch Fetch, stsd box, info *CodecInfo) error {
	hdr := make([]byte, 8)
	if n, err := fetch(hdr, stsd.payloadOff); err != nil || n < 8 {
		return ErrIndataUnderflow
	}
	// 4 bytes version/flags, 4 bytes entry count; then entries.
	entryStart := stsd.payloadOff + 8
	entry, err := readBox(fetch, entryStart)
	if err != nil {
		return err
	}
	if entry.typ != "mp4a" {
		return ErrUnsupported
	}
	sampleEntry := make([]byte, 28)
	if n, err := fetch(sampleEntry, entry.payloadOff); err != nil || n < 28 {
		return ErrIndataUnderflow
	}
	channels := int(binary.BigEndian.Uint16(sampleEntry[16:18]))
	bits := int(binary.BigEndian.Uint16(sampleEntry[18:20]))
	sampleRate := int(binary.BigEndian.Uint32(sampleEntry[24:28]) >> 16)
	info.Channels = channels
	info.Bits = bits
	info.SampleRate = sampleRate

	return walkChildren(fetch, entry.payloadOff+28, entry.payloadOff+entry.payloadLen, func(b box) (bool, error) {
		if b.typ != "esds" {
			return false, nil
		}
		buf := make([]byte, b.payloadLen)
		if n, err := fetch(buf, b.payloadOff); err != nil || int64(n) < b.payloadLen {
			return false, ErrIndataUnderflow
		}
		asc, err := parseEsdsASC(buf)
		if err != nil {
			return false, err
		}
		info.ASC = asc
		var cfg mpeg4audio.AudioSpecificConfig
		if err := cfg.Unmarshal(asc); err == nil {
			if info.SampleRate == 0 {
				info.SampleRate = cfg.SampleRate
			}
			if info.Channels == 0 {
				info.Channels = cfg.ChannelCount
			}
		}
		return true, nil
	})
}

// parseEsdsASC walks the MPEG-4 descriptor tree inside an `esds` box
// (version/flags + ES_Descriptor) to pull out the DecoderSpecificInfo
// bytes, i.e. the AudioSpecificConfig.
func parseEsdsASC(buf []byte) ([]byte, error) {
	if len(buf) < 4 {
		return nil, ErrInvalidHeader
	}
	tag, esPayload, ok := readDescriptorAt(buf, 4) // 4: skip version+flags
	if !ok || tag != 0x03 {
		return nil, ErrInvalidHeader
	}
	dcdPayload, ok := findDecoderConfigDescriptor(esPayload)
	if !ok {
		return nil, ErrInvalidHeader
	}
	asc, ok := findDecoderSpecificInfo(dcdPayload)
	if !ok {
		return nil, ErrInvalidHeader
	}
	return asc, nil
}

// findDecoderConfigDescriptor scans an ES_Descriptor payload (ES_ID(2) +
// flags(1), optional stream-dependence/URL/OCR fields, then nested
// descriptors) for the tag-0x04 DecoderConfigDescriptor.
func findDecoderConfigDescriptor(esPayload []byte) ([]byte, bool) {
	if len(esPayload) < 3 {
		return nil, false
	}
	pos := 3
	flags := esPayload[2]
	if flags&0x80 != 0 { // streamDependenceFlag
		pos += 2
	}
	if flags&0x40 != 0 { // URL_Flag
		if pos >= len(esPayload) {
			return nil, false
		}
		urlLen := int(esPayload[pos])
		pos += 1 + urlLen
	}
	if flags&0x20 != 0 { // OCRstreamFlag
		pos += 2
	}
	tag, payload, ok := readDescriptorAt(esPayload, pos)
	if ok && tag == 0x04 {
		return payload, true
	}
	return nil, false
}

// findDecoderSpecificInfo scans a DecoderConfigDescriptor payload (13
// fixed bytes, then nested descriptors) for the tag-0x05
// DecoderSpecificInfo, i.e. the raw AudioSpecificConfig bytes.
func findDecoderSpecificInfo(dcdPayload []byte) ([]byte, bool) {
	pos := 13
	for pos < len(dcdPayload) {
		tag, payload, ok := readDescriptorAt(dcdPayload, pos)
		if !ok {
			return nil, false
		}
		if tag == 0x05 {
			return append([]byte(nil), payload...), true
		}
		pos += len(payload) + descriptorHeaderLen(dcdPayload, pos)
	}
	return nil, false
}

// readDescriptorAt reads one MPEG-4 descriptor (tag + variable-length
// size + payload) starting at byte offset pos within buf.
func readDescriptorAt(buf []byte, pos int) (tag byte, payload []byte, ok bool) {
	if pos >= len(buf) {
		return 0, nil, false
	}
	tag = buf[pos]
	pos++
	size := 0
	for i := 0; i < 4; i++ {
		if pos >= len(buf) {
			return 0, nil, false
		}
		b := buf[pos]
		pos++
		size = (size << 7) | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}
	if pos+size > len(buf) {
		return 0, nil, false
	}
	return tag, buf[pos : pos+size], true
}

// descriptorHeaderLen returns the number of header bytes (tag + size
// field) the descriptor starting at pos occupies, so callers can advance
// past payload+header in one step.
func descriptorHeaderLen(buf []byte, pos int) int {
	start := pos
	pos++ // tag
	for i := 0; i < 4 && pos < len(buf); i++ {
		b := buf[pos]
		pos++
		if b&0x80 == 0 {
			break
		}
	}
	return pos - start
}

func (x *M4AExtractor) parseStts(fetch Fetch, stts box, info *CodecInfo) error {
	hdr := make([]byte, 8)
	if n, err := fetch(hdr, stts.payloadOff); err != nil || n < 8 {
		return ErrIndataUnderflow
	}
	count := binary.BigEndian.Uint32(hdr[4:8])
	entries := make([]byte, count*8)
	if n, err := fetch(entries, stts.payloadOff+8); err != nil || uint32(n) < count*8 {
		return ErrIndataUnderflow
	}
	info.Tables.TimeToSampleCount = make([]uint32, count)
	info.Tables.TimeToSampleDelta = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		info.Tables.TimeToSampleCount[i] = binary.BigEndian.Uint32(entries[i*8 : i*8+4])
		info.Tables.TimeToSampleDelta[i] = binary.BigEndian.Uint32(entries[i*8+4 : i*8+8])
	}
	return nil
}

func (x *M4AExtractor) parseStsc(fetch Fetch, stsc box, info *CodecInfo) error {
	hdr := make([]byte, 8)
	if n, err := fetch(hdr, stsc.payloadOff); err != nil || n < 8 {
		return ErrIndataUnderflow
	}
	count := binary.BigEndian.Uint32(hdr[4:8])
	entries := make([]byte, count*12)
	if n, err := fetch(entries, stsc.payloadOff+8); err != nil || uint32(n) < count*12 {
		return ErrIndataUnderflow
	}
	info.Tables.FirstChunk = make([]uint32, count)
	info.Tables.SamplesPerChunk = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		info.Tables.FirstChunk[i] = binary.BigEndian.Uint32(entries[i*12 : i*12+4])
		info.Tables.SamplesPerChunk[i] = binary.BigEndian.Uint32(entries[i*12+4 : i*12+8])
	}
	return nil
}

func (x *M4AExtractor) parseStsz(fetch Fetch, stsz box, info *CodecInfo) error {
	hdr := make([]byte, 12)
	if n, err := fetch(hdr, stsz.payloadOff); err != nil || n < 12 {
		return ErrIndataUnderflow
	}
	sampleSize := binary.BigEndian.Uint32(hdr[4:8])
	count := binary.BigEndian.Uint32(hdr[8:12])
	if sampleSize != 0 {
		info.Tables.SampleSizeConstant = sampleSize
		if sampleSize > 0xFFFF {
			return ErrUnsupported // stsz_samplesize_max must fit in 16 bits (§3)
		}
		info.Tables.SampleSizeMax = uint16(sampleSize)
		return nil
	}
	entries := make([]byte, count*4)
	if n, err := fetch(entries, stsz.payloadOff+12); err != nil || uint32(n) < count*4 {
		return ErrIndataUnderflow
	}
	info.Tables.FrameSize = make([]uint32, count)
	var max uint32
	for i := uint32(0); i < count; i++ {
		v := binary.BigEndian.Uint32(entries[i*4 : i*4+4])
		info.Tables.FrameSize[i] = v
		if v > max {
			max = v
		}
	}
	if max > 0xFFFF {
		return ErrUnsupported
	}
	info.Tables.SampleSizeMax = uint16(max)
	return nil
}

func (x *M4AExtractor) parseStco(fetch Fetch, stco box, info *CodecInfo, is64 bool) error {
	hdr := make([]byte, 8)
	if n, err := fetch(hdr, stco.payloadOff); err != nil || n < 8 {
		return ErrIndataUnderflow
	}
	count := binary.BigEndian.Uint32(hdr[4:8])
	width := 4
	if is64 {
		width = 8
	}
	entries := make([]byte, int(count)*width)
	if n, err := fetch(entries, stco.payloadOff+8); err != nil || n < len(entries) {
		return ErrIndataUnderflow
	}
	info.Tables.ChunkOffset = make([]uint64, count)
	for i := uint32(0); i < count; i++ {
		if is64 {
			info.Tables.ChunkOffset[i] = binary.BigEndian.Uint64(entries[int(i)*8 : int(i)*8+8])
		} else {
			info.Tables.ChunkOffset[i] = uint64(binary.BigEndian.Uint32(entries[int(i)*4 : int(i)*4+4]))
		}
	}
	return nil
}

// M4ASeekOffset returns (stszIndex, absoluteByteOffset) for a seek to
// seekMs, per §4.5's m4a_get_seek_offset contract, and §8 scenario 8's
// invariant that the result lands at a chunk boundary.
func M4ASeekOffset(info *CodecInfo, seekMs int64) (sampleIndex int, byteOffset int64, err error) {
	t := &info.Tables
	if len(t.TimeToSampleCount) == 0 || len(t.SamplesPerChunk) == 0 || len(t.ChunkOffset) == 0 {
		return 0, 0, ErrUnsupported
	}

	// Walk stts to find which sample index corresponds to seekMs, using
	// the track's timescale implied by DurationMs/sample count (we don't
	// keep timescale explicitly once DurationMs is derived, so compute
	// samples/ms via total samples and total duration).
	var totalSamples uint64
	for _, c := range t.TimeToSampleCount {
		totalSamples += uint64(c)
	}
	if totalSamples == 0 || info.DurationMs == 0 {
		return 0, 0, ErrUnsupported
	}
	targetSample := uint64(seekMs) * totalSamples / uint64(info.DurationMs)
	if targetSample >= totalSamples {
		targetSample = totalSamples - 1
	}

	// Map targetSample -> (chunkIndex, sampleOffsetWithinChunk) via stsc.
	chunkIndex, sampleInChunk, chunkFirstSample := sampleToChunk(t, targetSample)
	_ = sampleInChunk

	if int(chunkIndex) >= len(t.ChunkOffset) {
		return 0, 0, ErrInvalidHeader
	}
	// Return the chunk's first sample, not targetSample: the decoder reads
	// a stsz[sampleIndex]-sized frame starting at byteOffset, so the two
	// must refer to the same sample (ground truth: m4a_extractor.c's
	// stco_chunk2offset[cnt].sample_index, liteplayer_parser.c's
	// stsz_samplesize_index = sample_index).
	return int(chunkFirstSample), int64(t.ChunkOffset[chunkIndex]), nil
}

// sampleToChunk resolves a global sample index to its containing chunk
// using the run-length-encoded stsc table, returning the zero-based chunk
// index, the sample's zero-based offset within that chunk, and the
// sample index of the chunk's first sample.
func sampleToChunk(t *M4ASampleTables, sample uint64) (chunkIndex uint32, sampleInChunk uint32, chunkFirstSample uint64) {
	var samplesSoFar uint64

	for i := 0; i < len(t.FirstChunk); i++ {
		first := t.FirstChunk[i]
		perChunk := uint64(t.SamplesPerChunk[i])

		var runChunks uint64
		if i+1 < len(t.FirstChunk) {
			runChunks = uint64(t.FirstChunk[i+1] - first)
		} else {
			runChunks = ^uint64(0) // last run extends indefinitely
		}
		runSamples := runChunks * perChunk
		if i+1 == len(t.FirstChunk) || runSamples == 0 || sample < samplesSoFar+runSamples {
			offsetIntoRun := sample - samplesSoFar
			chunksIntoRun := offsetIntoRun / perChunk
			return first - 1 + uint32(chunksIntoRun), uint32(offsetIntoRun % perChunk), samplesSoFar + chunksIntoRun*perChunk
		}
		samplesSoFar += runSamples
	}
	return 0, 0, 0
}
