package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The `tts` source adapter (§6): "one-shot stream fed by the
 *		SDK user via ttsplayer_write". Unlike file/http, nothing
 *		inside this adapter produces bytes — the SDK facade's
 *		caller pushes them in from outside as the cloud transport
 *		delivers synthesized speech chunks.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"errors"
	"io"
	"sync"
)

var errTTSReadFailed = errors.New("geniesdk: tts stream read failed")

type ttsStream struct {
	rb *Ringbuf
}

// TTSSource is the `tts://` source adapter: a registry of live, externally
// fed streams keyed by URL. The UtpManager opens one per TTS utterance;
// the SDK facade's Write/Finish calls are the only producer.
type TTSSource struct {
	mu      sync.Mutex
	streams map[string]*ttsStream
}

func NewTTSSource() *TTSSource {
	return &TTSSource{streams: make(map[string]*ttsStream)}
}

func (TTSSource) Scheme() string               { return "tts" }
func (TTSSource) AsyncMode() bool              { return false }
func (TTSSource) RecommendedBufferSize() int    { return 64 * 1024 }

// Begin registers a new stream for url, ready to accept Write calls. Must
// be called before the player opens url.
func (s *TTSSource) Begin(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[url] = &ttsStream{rb: NewRingbuf(64*1024, 0)}
}

// Write appends a chunk of synthesized audio to url's stream, as the
// external transport delivers it (SDK surface: ttsplayer_write).
func (s *TTSSource) Write(url string, data []byte) (int, RbStatus) {
	s.mu.Lock()
	st, ok := s.streams[url]
	s.mu.Unlock()
	if !ok {
		return 0, RbFail
	}
	return st.rb.Write(data, decoderIOTimeout)
}

// Finish marks url's stream as fully delivered: no more bytes will ever
// arrive, so a subsequent Read drains then reports EOF.
func (s *TTSSource) Finish(url string) {
	s.mu.Lock()
	st, ok := s.streams[url]
	s.mu.Unlock()
	if ok {
		st.rb.SetDone()
	}
}

// Discard drops a finished or abandoned stream's bookkeeping.
func (s *TTSSource) Discard(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, url)
}

func (s *TTSSource) Open(_ context.Context, url string, _ int64, _ interface{}) (SourceHandle, error) {
	s.mu.Lock()
	st, ok := s.streams[url]
	s.mu.Unlock()
	if !ok {
		return nil, ErrInvalidHeader
	}
	return st, nil
}

func (s *TTSSource) Read(h SourceHandle, buf []byte) (int, error) {
	st := h.(*ttsStream)
	n, status := st.rb.Read(buf, decoderIOTimeout)
	switch status {
	case RbOK:
		return n, nil
	case RbDone:
		return n, io.EOF
	default:
		return n, errTTSReadFailed
	}
}

// Seek is unsupported: a live TTS stream has no random access.
func (s *TTSSource) Seek(SourceHandle, int64) error { return ErrUnsupported }

func (s *TTSSource) ContentPos(h SourceHandle) int64 {
	return 0 // position is tracked by the decoder's byte count, not the source
}

func (s *TTSSource) ContentLen(SourceHandle) int64 { return 0 } // unknown until Finish

func (s *TTSSource) Close(h SourceHandle) error {
	st := h.(*ttsStream)
	st.rb.Abort()
	return nil
}
