package geniesdk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeUtpCallback struct {
	mu            sync.Mutex
	playerEvents  []PlayerEvent
	expectSpeechN int
}

func (f *fakeUtpCallback) OnPlayerEvent(ev PlayerEvent, err error) {
	f.mu.Lock()
	f.playerEvents = append(f.playerEvents, ev)
	f.mu.Unlock()
}

func (f *fakeUtpCallback) OnExpectSpeech() {
	f.mu.Lock()
	f.expectSpeechN++
	f.mu.Unlock()
}

func (f *fakeUtpCallback) has(ev PlayerEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.playerEvents {
		if e == ev {
			return true
		}
	}
	return false
}

func (f *fakeUtpCallback) expectSpeechCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expectSpeechN
}

func newTestUtpManager(t *testing.T) (*UtpManager, *TTSSource, *PrebuiltSource) {
	t.Helper()
	reg := NewSourceRegistry()
	prebuilt := NewPrebuiltSource()
	reg.Register(prebuilt)
	tts := NewTTSSource()
	reg.Register(tts)
	sink := NewNullSink()
	return NewUtpManager(reg, sink, prebuilt, tts), tts, prebuilt
}

// feedMP3Frames drips valid MP3 frames into a tts:// stream until stopped,
// so the consuming Liteplayer stays STARTED for as long as the test needs
// instead of completing near-instantly (the reference DSPs decode with no
// real-time pacing).
func feedMP3Frames(tts *TTSSource, url string, stop <-chan struct{}) {
	frame := buildMP3Frame(128, 44100)
	for {
		select {
		case <-stop:
			tts.Finish(url)
			return
		default:
		}
		if _, status := tts.Write(url, frame); status != RbOK {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestUtpManagerMusicDucksForPromptAndResumes(t *testing.T) {
	mgr, tts, prebuilt := newTestUtpManager(t)
	cb := &fakeUtpCallback{}
	mgr.RegisterCallback(cb)

	musicURL := "tts://music-session"
	tts.Begin(musicURL)
	stop := make(chan struct{})
	defer close(stop)
	go feedMP3Frames(tts, musicURL, stop)

	require.NoError(t, mgr.Play(musicURL))
	require.Eventually(t, func() bool { return cb.has(PlayerEventStarted) }, time.Second, 5*time.Millisecond)

	require.NoError(t, mgr.PlayOnce(prebuilt.URL(PrebuiltRecordRemind)))

	require.Eventually(t, func() bool { return cb.has(PlayerEventPaused) }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return cb.has(PlayerEventResumed) }, 2*time.Second, 5*time.Millisecond)
}

func TestUtpManagerWakeupTriggersExpectSpeech(t *testing.T) {
	mgr, _, _ := newTestUtpManager(t)
	cb := &fakeUtpCallback{}
	mgr.RegisterCallback(cb)

	require.NoError(t, mgr.OnMicrophoneWakeup())
	require.Eventually(t, func() bool { return cb.expectSpeechCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestUtpManagerSpeakWithExpectSpeechChainsRecordRemind(t *testing.T) {
	mgr, tts, _ := newTestUtpManager(t)
	cb := &fakeUtpCallback{}
	mgr.RegisterCallback(cb)

	url, err := mgr.Speak(true)
	require.NoError(t, err)

	frame := buildMP3Frame(128, 44100)
	_, status := tts.Write(url, frame)
	require.Equal(t, RbOK, status)
	tts.Finish(url)

	require.Eventually(t, func() bool { return cb.expectSpeechCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestUtpManagerClearQueueStopsPrompt(t *testing.T) {
	mgr, tts, _ := newTestUtpManager(t)

	promptURL := "tts://prompt-session"
	tts.Begin(promptURL)
	stop := make(chan struct{})
	go feedMP3Frames(tts, promptURL, stop)

	require.NoError(t, mgr.PlayOnce(promptURL))
	require.Eventually(t, func() bool {
		return mgr.streams[StreamPrompt].isActive()
	}, time.Second, 5*time.Millisecond)

	close(stop)
	require.NoError(t, mgr.ClearQueue())
	require.Eventually(t, func() bool {
		return mgr.streams[StreamPrompt].player.State() == PlayerIdle
	}, time.Second, 5*time.Millisecond)
}

func TestUtpManagerSpeakerMutePausesAllAndUnmuteResumes(t *testing.T) {
	mgr, tts, _ := newTestUtpManager(t)
	cb := &fakeUtpCallback{}
	mgr.RegisterCallback(cb)

	musicURL := "tts://music-mute"
	tts.Begin(musicURL)
	stop := make(chan struct{})
	defer close(stop)
	go feedMP3Frames(tts, musicURL, stop)

	require.NoError(t, mgr.Play(musicURL))
	require.Eventually(t, func() bool { return cb.has(PlayerEventStarted) }, time.Second, 5*time.Millisecond)

	mgr.SetSpeakerMuted(true)
	require.Eventually(t, func() bool {
		return mgr.streams[StreamMusic].player.State() == PlayerPaused
	}, time.Second, 5*time.Millisecond)

	mgr.SetSpeakerMuted(false)
	require.Eventually(t, func() bool {
		return mgr.streams[StreamMusic].player.State() == PlayerStarted
	}, time.Second, 5*time.Millisecond)
}
