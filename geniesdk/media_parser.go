package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	MediaParser (§4.4): orchestrates a container Extractor against
 *		a SourceAdapter, then decides whether the probe's already-
 *		open handle can feed the main playback pipeline directly.
 *
 * Description:	Discovers the codec kind from the first bytes (ID3 + url
 *		hint, RIFF, ftyp, raw syncwords — detectKind, §4.2/§4.4),
 *		runs the matching extractor, and on success tries the
 *		handle-reuse protocol in order:
 *
 *		  (a) stuff the bytes already buffered between
 *		      content-start and the probe's current read position
 *		      directly into the decoder's input ringbuf (no further
 *		      I/O needed for those bytes at all);
 *		  (b) failing that, rewind the same handle to the stream's
 *		      true start and discard-read forward to content-start,
 *		      bounded at maxProbeRewindDiscard bytes.
 *
 *		If neither applies the handle is closed and the caller
 *		(the main pipeline, via NewMediaSource) opens its own fresh
 *		handle at the discovered content offset.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"errors"
	"io"
)

const (
	// maxProbeRewindDiscard bounds the discard-read rewind path (§4.4:
	// "rewinding to frame_start_offset through discarded reads (<= 512
	// KiB)").
	maxProbeRewindDiscard = 512 * 1024
	// probeSkipViaSeekThreshold: a forward gap larger than this during
	// probing (e.g. M4A's mdat payload sitting between ftyp and a
	// tail-positioned moov) is jumped with adapter.Seek instead of being
	// read byte-by-byte into the probe buffer.
	probeSkipViaSeekThreshold = 64 * 1024
)

// ProbeResult is what MediaParser.Probe hands back to the caller assembling
// the main playback pipeline.
type ProbeResult struct {
	Info    CodecInfo
	Adapter SourceAdapter

	// Reused is true when Handle is a live, correctly positioned handle
	// the main pipeline can hand straight to NewMediaSource instead of
	// opening its own. Stuffed, if non-nil, must be primed into the
	// decoder's input ringbuf before any further reads on Handle.
	Reused  bool
	Handle  SourceHandle
	Stuffed []byte
}

// MediaParser ties an Extractor to a SourceAdapter via a buffering Fetch
// bridge (probeFetch).
type MediaParser struct {
	reg *SourceRegistry
}

func NewMediaParser(reg *SourceRegistry) *MediaParser {
	return &MediaParser{reg: reg}
}

// Probe opens url, discovers its codec, and extracts its CodecInfo.
func (p *MediaParser) Probe(ctx context.Context, url string, user interface{}) (*ProbeResult, error) {
	adapter, ok := p.reg.Lookup(urlScheme(url))
	if !ok {
		return nil, errors.New("geniesdk: no source adapter registered for scheme " + urlScheme(url))
	}
	handle, err := adapter.Open(ctx, url, 0, user)
	if err != nil {
		return nil, err
	}

	pf := newProbeFetch(adapter, handle)

	header := make([]byte, 16)
	if _, err := pf.fetch(header, 0); err != nil && err != ErrIndataUnderflow {
		adapter.Close(handle)
		return nil, err
	}
	kind := detectKind(header, url)
	extractor := NewExtractorForKind(kind)
	if extractor == nil {
		adapter.Close(handle)
		return nil, ErrUnsupported
	}

	var info CodecInfo
	err = extractor.Extract(pf.fetch, &info)
	if errors.Is(err, ErrAgainMoovAtTail) {
		err = extractor.Extract(pf.fetch, &info)
	}
	if err != nil {
		adapter.Close(handle)
		return nil, err
	}
	info.Kind = kind

	// MP3 (and any other bytes-per-second container that doesn't carry
	// its own total-length field) needs the source adapter's content
	// length to derive a duration; WAV already sets it from its own RIFF
	// chunk size.
	if info.ContentLength <= 0 {
		if cl := adapter.ContentLen(handle); cl > 0 {
			info.ContentLength = cl
			info.deriveDurationFromBytesPerSecond()
		}
	}

	result := &ProbeResult{Info: info, Adapter: adapter}
	frameStart := contentStartOffset(&info)

	if tail := pf.sliceFrom(frameStart); tail != nil {
		result.Handle = handle
		result.Stuffed = tail
		result.Reused = true
		return result, nil
	}

	if frameStart >= 0 && frameStart <= maxProbeRewindDiscard {
		if err := rewindByDiscard(adapter, handle, frameStart); err == nil {
			result.Handle = handle
			result.Reused = true
			return result, nil
		}
	}

	adapter.Close(handle)
	return result, nil
}

// contentStartOffset returns the absolute byte offset of the first frame
// of compressed/PCM payload. M4A's ContentOffset is repurposed mid-parse
// to carry the moov-at-tail retry offset, so its true content start is the
// first sample chunk's table entry instead.
func contentStartOffset(info *CodecInfo) int64 {
	if info.Kind == CodecM4A && len(info.Tables.ChunkOffset) > 0 {
		return int64(info.Tables.ChunkOffset[0])
	}
	return info.ContentOffset
}

// rewindByDiscard seeks handle back to absolute offset 0 and discard-reads
// up to target bytes.
func rewindByDiscard(adapter SourceAdapter, handle SourceHandle, target int64) error {
	if target == 0 {
		return adapter.Seek(handle, 0)
	}
	if err := adapter.Seek(handle, 0); err != nil {
		return err
	}
	discard := make([]byte, 4096)
	var remaining int64 = target
	for remaining > 0 {
		want := int64(len(discard))
		if want > remaining {
			want = remaining
		}
		n, err := adapter.Read(handle, discard[:want])
		remaining -= int64(n)
		if err != nil {
			if err == io.EOF && remaining <= 0 {
				break
			}
			return err
		}
	}
	return nil
}

// probeFetch adapts a SourceAdapter's sequential Read (plus Seek for long
// forward jumps) into the extractor's random-offset Fetch contract, while
// retaining every byte it reads so MediaParser can later decide whether
// those bytes can be reused instead of re-fetched.
type probeFetch struct {
	adapter SourceAdapter
	handle  SourceHandle

	buf      []byte
	bufStart int64 // absolute offset of buf[0]
	pos      int64 // absolute offset one past the last byte read so far
}

func newProbeFetch(a SourceAdapter, h SourceHandle) *probeFetch {
	return &probeFetch{adapter: a, handle: h}
}

func (pf *probeFetch) fetch(dst []byte, offset int64) (int, error) {
	if offset < pf.bufStart {
		// Extractors never need to look further back than they've
		// already scanned; treat as a logic error rather than silently
		// lose data.
		return 0, ErrOpcode
	}
	need := offset + int64(len(dst))
	if need > pf.pos {
		if err := pf.fill(offset, need); err != nil {
			return 0, err
		}
	}

	start := offset - pf.bufStart
	if start < 0 || start > int64(len(pf.buf)) {
		return 0, ErrIndataUnderflow
	}
	avail := pf.buf[start:]
	n := len(dst)
	if n > len(avail) {
		n = len(avail)
	}
	copy(dst, avail[:n])
	if n < len(dst) {
		return n, ErrIndataUnderflow
	}
	return n, nil
}

func (pf *probeFetch) fill(offset, need int64) error {
	if gap := offset - pf.pos; gap > probeSkipViaSeekThreshold {
		if err := pf.adapter.Seek(pf.handle, offset); err != nil {
			return err
		}
		pf.buf = nil
		pf.bufStart = offset
		pf.pos = offset
	}

	chunk := make([]byte, 8192)
	for pf.pos < need {
		n, err := pf.adapter.Read(pf.handle, chunk)
		if n > 0 {
			pf.buf = append(pf.buf, chunk[:n]...)
			pf.pos += int64(n)
		}
		if err != nil {
			if err == io.EOF {
				return nil // short read at true EOF; caller validates length
			}
			return err
		}
	}
	return nil
}

// sliceFrom returns a copy of the probe buffer from absolute offset
// onward, or nil if offset isn't covered by what's been buffered (either
// because it precedes bufStart, having been trimmed, or a forward seek
// skipped past it without buffering).
func (pf *probeFetch) sliceFrom(offset int64) []byte {
	if offset < pf.bufStart || offset > pf.pos {
		return nil
	}
	start := offset - pf.bufStart
	out := make([]byte, int64(len(pf.buf))-start)
	copy(out, pf.buf[start:])
	return out
}
