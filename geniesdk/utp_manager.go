package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	UtpManager (§4.6): arbitrates the four logical playback
 *		streams (TTS, PROMPT, MUSIC, PROMPT_WAKEUP), each its own
 *		Liteplayer, applying the ducking / wake-prompt / TTS-header
 *		rules on top of the plain state machine Liteplayer exposes.
 *
 * Description:	One Liteplayer per LogicalStream, built once and reused
 *		across sessions: playURL tears down and resets whatever
 *		session previously occupied a stream, then drives a fresh
 *		one through PrepareAsync -> (listener) Start -> ... ->
 *		Reset, so the manager's callers never see PREPARED/
 *		SEEKCOMPLETED at all. Every player's state listener runs
 *		the manager's reaction (ducking, forwarding, chaining) on
 *		its own goroutine, since the listener can fire while the
 *		originating Liteplayer call still holds its own I/O lock
 *		(§4.5) and a same-stream reaction (e.g. an auto-Reset after
 *		COMPLETED) would otherwise deadlock against it.
 *
 *------------------------------------------------------------------*/

import (
	"sync"

	"github.com/google/uuid"
)

// LogicalStream is one of the four independently-playable streams (§3
// "Logical stream").
type LogicalStream int

const (
	StreamTTS LogicalStream = iota
	StreamPrompt
	StreamMusic
	StreamPromptWakeup
)

func (s LogicalStream) String() string {
	switch s {
	case StreamTTS:
		return "TTS"
	case StreamPrompt:
		return "PROMPT"
	case StreamMusic:
		return "MUSIC"
	case StreamPromptWakeup:
		return "PROMPT_WAKEUP"
	default:
		return "UNKNOWN"
	}
}

// PlayerEvent is one of the user-visible MUSIC events (§4.6: "Only MUSIC
// produces user-visible player events").
type PlayerEvent int

const (
	PlayerEventStarted PlayerEvent = iota
	PlayerEventPaused
	PlayerEventResumed
	PlayerEventNearlyFinished
	PlayerEventFinished
	PlayerEventStopped
	PlayerEventFailed
)

func (e PlayerEvent) String() string {
	switch e {
	case PlayerEventStarted:
		return "onPlayerStarted"
	case PlayerEventPaused:
		return "onPlayerPaused"
	case PlayerEventResumed:
		return "onPlayerResumed"
	case PlayerEventNearlyFinished:
		return "onPlayerNearlyFinished"
	case PlayerEventFinished:
		return "onPlayerFinished"
	case PlayerEventStopped:
		return "onPlayerStopped"
	case PlayerEventFailed:
		return "onPlayerFailed"
	default:
		return "onPlayerUnknown"
	}
}

// UtpCallback is what the Service coordinator registers to receive the
// manager's two externally-visible signals.
type UtpCallback interface {
	OnPlayerEvent(event PlayerEvent, err error)
	OnExpectSpeech()
}

// pauseReason is a bit in a stream's pause bitmask (§4.6 rules 1/5/6):
// ducking, gateway disconnect, and speaker mute each pause/resume
// independently, and a stream only actually resumes once every reason
// has cleared.
type pauseReason uint8

const (
	pauseReasonDuck pauseReason = 1 << iota
	pauseReasonGateway
	pauseReasonMute
)

// utpStream is one LogicalStream's Liteplayer plus the bookkeeping the
// manager needs to arbitrate it.
type utpStream struct {
	kind   LogicalStream
	player *Liteplayer

	mu          sync.Mutex
	active      bool // player.State() != PlayerIdle
	networked   bool // current session's url is http/https/tts
	everStarted bool // MUSIC only: first STARTED (-> Started) vs later ones (-> Resumed)
	pausedBy    pauseReason
	onIdle      func() // fires once, the next time this stream reaches IDLE
}

func (s *utpStream) setActive(v bool) { s.mu.Lock(); s.active = v; s.mu.Unlock() }
func (s *utpStream) isActive() bool   { s.mu.Lock(); defer s.mu.Unlock(); return s.active }

func (s *utpStream) setNetworked(v bool)  { s.mu.Lock(); s.networked = v; s.mu.Unlock() }
func (s *utpStream) isNetworked() bool    { s.mu.Lock(); defer s.mu.Unlock(); return s.networked }

func (s *utpStream) everStartedFlag() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.everStarted }
func (s *utpStream) markEverStarted()      { s.mu.Lock(); s.everStarted = true; s.mu.Unlock() }

func (s *utpStream) resetSession() {
	s.mu.Lock()
	s.everStarted = false
	s.pausedBy = 0
	s.onIdle = nil
	s.mu.Unlock()
}

func (s *utpStream) setOnIdle(f func()) { s.mu.Lock(); s.onIdle = f; s.mu.Unlock() }

func (s *utpStream) takeOnIdle() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.onIdle
	s.onIdle = nil
	return f
}

// addPauseReason returns true if reason is the first active reason (i.e.
// the stream was not already paused for some other reason).
func (s *utpStream) addPauseReason(r pauseReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.pausedBy
	s.pausedBy |= r
	return was == 0
}

// clearPauseReason returns true once no pause reason remains.
func (s *utpStream) clearPauseReason(r pauseReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pausedBy &^= r
	return s.pausedBy == 0
}

func (s *utpStream) clearPauseReasons() { s.mu.Lock(); s.pausedBy = 0; s.mu.Unlock() }

// UtpManager owns the four logical streams and the arbitration rules
// between them (§4.6).
type UtpManager struct {
	sources  *SourceRegistry
	sink     SinkAdapter
	prebuilt *PrebuiltSource
	tts      *TTSSource

	streams map[LogicalStream]*utpStream

	duckMu sync.Mutex // serializes the duck/gateway/mute decision + action

	cbMu     sync.Mutex
	callback UtpCallback

	ttsMu         sync.Mutex
	ttsCurrentURL string
}

// NewUtpManager builds the four streams, sharing sources/sink, and wires
// each Liteplayer's state listener to the manager's own reaction logic.
func NewUtpManager(sources *SourceRegistry, sink SinkAdapter, prebuilt *PrebuiltSource, tts *TTSSource) *UtpManager {
	m := &UtpManager{
		sources:  sources,
		sink:     sink,
		prebuilt: prebuilt,
		tts:      tts,
		streams:  make(map[LogicalStream]*utpStream, 4),
	}
	for _, kind := range []LogicalStream{StreamTTS, StreamPrompt, StreamMusic, StreamPromptWakeup} {
		m.streams[kind] = m.newStream(kind)
	}
	return m
}

func (m *UtpManager) newStream(kind LogicalStream) *utpStream {
	player := NewLiteplayer(m.sources, m.sink)
	s := &utpStream{kind: kind, player: player}
	_ = player.RegisterStateListener(func(state PlayerState, err error) {
		go m.handleStreamState(s, state, err)
	})
	return s
}

func (m *UtpManager) allStreams() []*utpStream {
	return []*utpStream{
		m.streams[StreamTTS], m.streams[StreamPrompt],
		m.streams[StreamMusic], m.streams[StreamPromptWakeup],
	}
}

// RegisterCallback sets the single external listener for player events and
// the expect-speech cue.
func (m *UtpManager) RegisterCallback(cb UtpCallback) {
	m.cbMu.Lock()
	m.callback = cb
	m.cbMu.Unlock()
}

func isNetworkScheme(url string) bool {
	switch urlScheme(url) {
	case "http", "https", "tts":
		return true
	default:
		return false
	}
}

// resetIfNotIdle tears stream's current session down (if any) so a new one
// can begin.
func (m *UtpManager) resetIfNotIdle(stream *utpStream) error {
	switch stream.player.State() {
	case PlayerIdle:
		return nil
	case PlayerInited:
		// INITED has no legal stop (§4.5's table); reset goes straight to
		// IDLE from there.
	default:
		if err := stream.player.Stop(); err != nil {
			return err
		}
	}
	return stream.player.Reset()
}

// playURL resets stream, then begins playing url on it. onIdle, if
// non-nil, fires exactly once the next time the stream naturally or
// explicitly returns to IDLE.
func (m *UtpManager) playURL(stream *utpStream, url string, onIdle func()) error {
	if err := m.resetIfNotIdle(stream); err != nil {
		return err
	}
	stream.resetSession()
	stream.setOnIdle(onIdle)
	stream.setNetworked(isNetworkScheme(url))

	if err := stream.player.SetSource(url, nil); err != nil {
		return err
	}
	return stream.player.PrepareAsync()
}

// Play starts url as the MUSIC stream (§4.6 rule 4).
func (m *UtpManager) Play(url string) error {
	return m.playURL(m.streams[StreamMusic], url, nil)
}

// PlayOnce starts url as the PROMPT stream (§4.6 rule 4).
func (m *UtpManager) PlayOnce(url string) error {
	return m.playURL(m.streams[StreamPrompt], url, nil)
}

// ClearQueue stops and resets the PROMPT stream (§4.6 rule 4).
func (m *UtpManager) ClearQueue() error {
	return m.resetIfNotIdle(m.streams[StreamPrompt])
}

// Pause pauses MUSIC if it's currently playing; a no-op otherwise (§4.6
// rule 4).
func (m *UtpManager) Pause() error {
	music := m.streams[StreamMusic]
	if music.player.State() != PlayerStarted {
		return nil
	}
	return music.player.Pause()
}

// Resume resumes MUSIC if it's currently paused; a no-op otherwise (§4.6
// rule 4).
func (m *UtpManager) Resume() error {
	music := m.streams[StreamMusic]
	if music.player.State() != PlayerPaused {
		return nil
	}
	return music.player.Resume()
}

// Exit and Standby both stop every stream (§4.6 rule 4).
func (m *UtpManager) Exit() error    { return m.stopAll() }
func (m *UtpManager) Standby() error { return m.stopAll() }

func (m *UtpManager) stopAll() error {
	var firstErr error
	for _, stream := range m.allStreams() {
		if err := m.resetIfNotIdle(stream); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Speak opens a fresh tts:// session for the caller to feed via WriteTTS,
// dropping any TTS stream already in flight (§4.6 rule 3: "New TTS header
// clears any existing TTS stream"). When expectSpeech is set, TTS
// completion chains into a RECORD_REMIND prompt and then onExpectSpeech.
func (m *UtpManager) Speak(expectSpeech bool) (string, error) {
	tts := m.streams[StreamTTS]
	if err := m.resetIfNotIdle(tts); err != nil {
		return "", err
	}

	m.ttsMu.Lock()
	if m.ttsCurrentURL != "" {
		m.tts.Discard(m.ttsCurrentURL)
	}
	url := "tts://" + uuid.NewString()
	m.ttsCurrentURL = url
	m.ttsMu.Unlock()

	m.tts.Begin(url)

	var onIdle func()
	if expectSpeech {
		onIdle = m.startRecordRemind
	}
	if err := m.playURL(tts, url, onIdle); err != nil {
		return "", err
	}
	return url, nil
}

// WriteTTS appends a chunk of synthesized audio to an open Speak session.
func (m *UtpManager) WriteTTS(url string, data []byte) (int, RbStatus) {
	return m.tts.Write(url, data)
}

// FinishTTS marks an open Speak session as fully delivered.
func (m *UtpManager) FinishTTS(url string) {
	m.tts.Finish(url)
}

func (m *UtpManager) startRecordRemind() {
	prompt := m.streams[StreamPrompt]
	_ = m.playURL(prompt, m.prebuilt.URL(PrebuiltRecordRemind), m.emitExpectSpeech)
}

// OnMicrophoneWakeup starts the WAKEUP_REMIND prompt; once it completes,
// onExpectSpeech is emitted — the recorder's cue to start listening
// (§4.6 rule 2).
func (m *UtpManager) OnMicrophoneWakeup() error {
	wakeup := m.streams[StreamPromptWakeup]
	return m.playURL(wakeup, m.prebuilt.URL(PrebuiltWakeupRemind), m.emitExpectSpeech)
}

func (m *UtpManager) emitExpectSpeech() {
	m.cbMu.Lock()
	cb := m.callback
	m.cbMu.Unlock()
	if cb != nil {
		cb.OnExpectSpeech()
	}
}

func (m *UtpManager) emitPlayerEvent(ev PlayerEvent, err error) {
	m.cbMu.Lock()
	cb := m.callback
	m.cbMu.Unlock()
	if cb != nil {
		cb.OnPlayerEvent(ev, err)
	}
}

// SetGatewayConnected pauses (or resumes) every network-backed stream on
// gateway disconnect/reconnect (§4.6 rule 5).
func (m *UtpManager) SetGatewayConnected(connected bool) {
	for _, stream := range m.allStreams() {
		if !stream.isNetworked() {
			continue
		}
		if connected {
			m.resumeStream(stream, pauseReasonGateway)
		} else {
			m.pauseStream(stream, pauseReasonGateway)
		}
	}
}

// SetSpeakerMuted pauses (or resumes) every stream on mute/unmute (§4.6
// rule 6).
func (m *UtpManager) SetSpeakerMuted(muted bool) {
	for _, stream := range m.allStreams() {
		if muted {
			m.pauseStream(stream, pauseReasonMute)
		} else {
			m.resumeStream(stream, pauseReasonMute)
		}
	}
}

func (m *UtpManager) pauseStream(stream *utpStream, reason pauseReason) {
	if stream.addPauseReason(reason) && stream.player.State() == PlayerStarted {
		_ = stream.player.Pause()
	}
}

func (m *UtpManager) resumeStream(stream *utpStream, reason pauseReason) {
	if stream.clearPauseReason(reason) && stream.player.State() == PlayerPaused {
		_ = stream.player.Resume()
	}
}

// updateDucking implements rule 1: MUSIC pauses for as long as any of
// TTS/PROMPT/PROMPT_WAKEUP is non-idle, and resumes once all three are
// idle again (subject to no other pause reason still being set).
func (m *UtpManager) updateDucking() {
	m.duckMu.Lock()
	defer m.duckMu.Unlock()

	anyActive := m.streams[StreamTTS].isActive() ||
		m.streams[StreamPrompt].isActive() ||
		m.streams[StreamPromptWakeup].isActive()

	music := m.streams[StreamMusic]
	if anyActive {
		m.pauseStream(music, pauseReasonDuck)
	} else {
		m.resumeStream(music, pauseReasonDuck)
	}
}

// handleStreamState runs one stream's reaction to a state change, off the
// Liteplayer call stack that produced it (see file header).
func (m *UtpManager) handleStreamState(stream *utpStream, state PlayerState, err error) {
	stream.setActive(state != PlayerIdle)

	if stream.kind == StreamMusic {
		m.forwardMusicEvent(stream, state, err)
	}

	switch state {
	case PlayerPrepared:
		if serr := stream.player.Start(); serr != nil {
			utpLog.Error("failed to start prepared stream", "stream", stream.kind, "err", serr)
			_ = stream.player.Reset()
		}
	case PlayerCompleted, PlayerStopped, PlayerError:
		_ = stream.player.Reset()
	case PlayerIdle:
		stream.clearPauseReasons()
		if hook := stream.takeOnIdle(); hook != nil {
			hook()
		}
	}

	m.updateDucking()
}

func (m *UtpManager) forwardMusicEvent(stream *utpStream, state PlayerState, err error) {
	var ev PlayerEvent
	switch state {
	case PlayerStarted:
		if stream.everStartedFlag() {
			ev = PlayerEventResumed
		} else {
			stream.markEverStarted()
			ev = PlayerEventStarted
		}
	case PlayerPaused:
		ev = PlayerEventPaused
	case PlayerNearlyCompleted:
		ev = PlayerEventNearlyFinished
	case PlayerCompleted:
		ev = PlayerEventFinished
	case PlayerStopped:
		ev = PlayerEventStopped
	case PlayerError:
		ev = PlayerEventFailed
	default:
		return
	}
	m.emitPlayerEvent(ev, err)
}

// Destroy terminates every stream's underlying pipeline elements.
func (m *UtpManager) Destroy() {
	for _, stream := range m.allStreams() {
		stream.player.Destroy()
	}
}
