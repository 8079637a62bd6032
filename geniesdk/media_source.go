package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	MediaSource (§4.4): bridges a SourceAdapter to the decoder's
 *		input ringbuf. Runs as an ordinary Element so it gets the
 *		same RESUME/PAUSE/SEEK/STOP lifecycle and event-bus
 *		reporting as every decoder and sink.
 *
 * Description:	Sync sources (file, static, prebuilt, tts) defer Open to
 *		the first Process call and run with a small ringbuf
 *		(clamped to [2KiB,16KiB]) so the decoder's own blocking
 *		Read calls are the only backpressure in the system. Async
 *		sources (http) open eagerly when the element starts and run
 *		with a larger ringbuf (clamped to [32KiB,1MiB]), so the
 *		producer can stay ahead of a decoder that temporarily stalls
 *		(pause, seek-in-flight).
 *
 *		m3u playlists (§4.4, §6) are expanded before the first
 *		Process call: the adapter reads the whole playlist body, it
 *		is parsed into entries, and Process advances through them
 *		transparently to the decoder, which only ever sees one
 *		continuous byte stream. If the playlist is exhausted, the
 *		producer re-fetches and re-resolves it rather than
 *		reporting done, since playlists are expected to grow (live
 *		radio use case).
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

// MediaSource is the producer half of the pipeline: it pulls bytes from a
// SourceAdapter and pushes them into RB for a decoder to consume.
type MediaSource struct {
	reg   *SourceRegistry
	url   string
	start int64
	user  interface{}

	adapter SourceAdapter
	handle  SourceHandle
	owned   bool // true once this MediaSource opened its own handle

	async bool
	RB    *Ringbuf

	playlistURL string
	playlist    []M3UEntry
	playlistIdx int
	isPlaylist  bool

	primed []byte // bytes MediaParser already read on this handle's behalf

	elem *Element
}

// Prime stuffs data into RB the moment the source handle becomes ready,
// ahead of any adapter.Read call. Used by MediaParser's handle-reuse path
// (a): bytes already consumed while probing the container header are
// replayed instead of being re-fetched from the source (§4.4).
func (ms *MediaSource) Prime(data []byte) {
	ms.primed = data
}

// NewMediaSource builds a MediaSource for url. If handle is non-nil, it is
// an already-open handle carried over from MediaParser's probe (§4.4's
// handle-reuse path) and is used instead of a fresh Open.
func NewMediaSource(reg *SourceRegistry, url string, startOffset int64, user interface{}, reused SourceHandle) (*MediaSource, error) {
	adapter, ok := reg.Lookup(urlScheme(url))
	if !ok {
		return nil, errors.New("geniesdk: no source adapter registered for scheme " + urlScheme(url))
	}

	ms := &MediaSource{
		reg:     reg,
		url:     url,
		start:   startOffset,
		user:    user,
		adapter: adapter,
		handle:  reused,
		owned:   reused == nil,
		async:       adapter.AsyncMode(),
		isPlaylist:  isM3UURL(url),
		playlistURL: url,
	}
	bufSize := clampBufferSize(adapter.RecommendedBufferSize(), ms.async)
	ms.RB = NewRingbuf(bufSize, 0)
	ms.elem = NewElement("media_source:"+url, ms)
	return ms, nil
}

func urlScheme(url string) string {
	idx := strings.Index(url, "://")
	if idx < 0 {
		return "file"
	}
	return url[:idx]
}

// Element exposes the owning Element so callers can Run/Pause/Seek/Stop it
// like any other pipeline element.
func (ms *MediaSource) Element() *Element { return ms.elem }

// --- ElementOps ---

// Open opens the source eagerly for async adapters (and resolves an m3u
// playlist right away); sync adapters defer their real Open to the first
// Process call.
func (ms *MediaSource) Open() error {
	if ms.isPlaylist {
		if err := ms.resolvePlaylist(); err != nil {
			return err
		}
		return nil
	}
	if ms.async {
		return ms.openCurrent()
	}
	return nil
}

func (ms *MediaSource) openCurrent() error {
	if ms.handle == nil {
		h, err := ms.adapter.Open(context.Background(), ms.url, ms.start, ms.user)
		if err != nil {
			return err
		}
		ms.handle = h
		ms.owned = true
	}
	if ms.primed != nil {
		data := ms.primed
		ms.primed = nil
		if _, ok := (rbOutput{rb: ms.RB}).writeAll(data); !ok {
			return errors.New("geniesdk: failed priming media source ringbuf")
		}
	}
	return nil
}

// resolvePlaylist fetches and parses the playlist at ms.url, replacing
// ms.url/ms.adapter with the first entry so Process can proceed uniformly.
func (ms *MediaSource) resolvePlaylist() error {
	listAdapter, ok := ms.reg.Lookup(urlScheme(ms.playlistURL))
	if !ok {
		return errors.New("geniesdk: no source adapter for playlist scheme")
	}
	h, err := listAdapter.Open(context.Background(), ms.playlistURL, 0, ms.user)
	if err != nil {
		return err
	}
	body, err := readAll(listAdapter, h)
	listAdapter.Close(h)
	if err != nil {
		return err
	}

	entries := ParseM3U(body, ms.playlistURL)
	if len(entries) == 0 {
		return errors.New("geniesdk: empty m3u playlist")
	}
	ms.playlist = entries
	ms.playlistIdx = 0
	return ms.advanceToPlaylistEntry(0)
}

func (ms *MediaSource) advanceToPlaylistEntry(idx int) error {
	entry := ms.playlist[idx]
	adapter, ok := ms.reg.Lookup(urlScheme(entry.URL))
	if !ok {
		return errors.New("geniesdk: no source adapter for playlist entry scheme")
	}
	ms.adapter = adapter
	ms.url = entry.URL
	ms.handle = nil
	ms.owned = false
	return ms.openCurrent()
}

func readAll(a SourceAdapter, h SourceHandle) ([]byte, error) {
	var buf bytes.Buffer
	tmp := make([]byte, 4096)
	for {
		n, err := a.Read(h, tmp)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil {
			if err == io.EOF {
				return buf.Bytes(), nil
			}
			return buf.Bytes(), err
		}
	}
}

// Process reads one chunk from the current source and writes it to RB,
// reporting READ_FAILED/READ_DONE (on a genuine, non-playlist EOF) or
// WRITE_* as the ringbuf side dictates (§4.4).
func (ms *MediaSource) Process(scratch []byte) (int, ProcessOutcome) {
	if !ms.async {
		if err := ms.openCurrent(); err != nil {
			ms.elem.Bus.Publish(Event{Source: ms.elem.Tag, SourceType: "source", Cmd: EvtReadFailed, Err: err})
			return 0, ProcessIOFail
		}
	}

	n, err := ms.adapter.Read(ms.handle, scratch)
	if n > 0 {
		outcome, ok := (rbOutput{rb: ms.RB}).writeAll(scratch[:n])
		if !ok {
			ms.elem.Bus.Publish(Event{Source: ms.elem.Tag, SourceType: "source", Cmd: EvtWriteStatus})
			return 0, outcome
		}
	}
	if err == nil {
		return n, ProcessWrote
	}
	if err != io.EOF {
		ms.elem.Bus.Publish(Event{Source: ms.elem.Tag, SourceType: "source", Cmd: EvtReadFailed, Err: err})
		return n, ProcessIOFail
	}

	// EOF on the current stream. A playlist advances to its next entry
	// (or re-resolves itself if exhausted) instead of finishing.
	if ms.isPlaylist {
		ms.adapter.Close(ms.handle)
		ms.playlistIdx++
		if ms.playlistIdx >= len(ms.playlist) {
			if err := ms.resolvePlaylist(); err != nil {
				ms.elem.Bus.Publish(Event{Source: ms.elem.Tag, SourceType: "source", Cmd: EvtReadFailed, Err: err})
				return n, ProcessIOFail
			}
			return n, ProcessWrote
		}
		if err := ms.advanceToPlaylistEntry(ms.playlistIdx); err != nil {
			ms.elem.Bus.Publish(Event{Source: ms.elem.Tag, SourceType: "source", Cmd: EvtReadFailed, Err: err})
			return n, ProcessIOFail
		}
		return n, ProcessWrote
	}

	ms.RB.SetDone()
	ms.elem.Bus.Publish(Event{Source: ms.elem.Tag, SourceType: "source", Cmd: EvtReadDone})
	return n, ProcessDone
}

func (ms *MediaSource) Close() error {
	ms.RB.Abort()
	if ms.handle != nil && ms.owned {
		return ms.adapter.Close(ms.handle)
	}
	return nil
}
