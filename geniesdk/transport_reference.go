package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	A ServiceTransport that never touches the network, standing
 *		in for a real cloud connection the way sink_reference.go's
 *		NullSink stands in for real audio hardware. Exercises command/
 *		status/TTS dispatch end to end in tests and as the SDK's
 *		default before a vendor transport is registered.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"
)

// LoopbackCallback is a ServiceCallback stub that records every call it
// receives, for assertions in tests.
type LoopbackCallback struct {
	mu    sync.Mutex
	calls []string
}

func (c *LoopbackCallback) record(name string) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.mu.Unlock()
}

// Calls returns the names of every method invoked so far, in order.
func (c *LoopbackCallback) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *LoopbackCallback) OnNetworkConnected()    { c.record("OnNetworkConnected") }
func (c *LoopbackCallback) OnNetworkDisconnected() { c.record("OnNetworkDisconnected") }
func (c *LoopbackCallback) OnMicphoneWakeup(word string, doa, confidence int) {
	c.record("OnMicphoneWakeup")
}
func (c *LoopbackCallback) OnMicphoneSilence() { c.record("OnMicphoneSilence") }
func (c *LoopbackCallback) OnMicphoneStreaming(format AudioFormat, buf []byte, final bool) {
	c.record("OnMicphoneStreaming")
}
func (c *LoopbackCallback) OnSpeakerVolumeChanged(volume int) { c.record("OnSpeakerVolumeChanged") }
func (c *LoopbackCallback) OnSpeakerMutedChanged(muted bool)  { c.record("OnSpeakerMutedChanged") }
func (c *LoopbackCallback) OnPlayerStarted()                  { c.record("OnPlayerStarted") }
func (c *LoopbackCallback) OnPlayerPaused()                   { c.record("OnPlayerPaused") }
func (c *LoopbackCallback) OnPlayerResumed()                  { c.record("OnPlayerResumed") }
func (c *LoopbackCallback) OnPlayerNearlyFinished()           { c.record("OnPlayerNearlyFinished") }
func (c *LoopbackCallback) OnPlayerFinished()                 { c.record("OnPlayerFinished") }
func (c *LoopbackCallback) OnPlayerStopped()                  { c.record("OnPlayerStopped") }
func (c *LoopbackCallback) OnPlayerFailed(err error)          { c.record("OnPlayerFailed") }
func (c *LoopbackCallback) OnTextRecognize(text string)       { c.record("OnTextRecognize") }
func (c *LoopbackCallback) OnExpectSpeech()                   { c.record("OnExpectSpeech") }

// LoopbackTransport implements ServiceTransport without any network
// connection. Tests (and callers with no cloud link configured yet) drive
// it directly: call InjectCommand/InjectStatus/InjectTTSFrame to pretend
// the wire delivered something.
type LoopbackTransport struct {
	mu       sync.Mutex
	active   bool
	cb       *LoopbackCallback
	onCmd    func(Command)
	onStatus func(Status)
	onTTS    func([]byte, bool)
}

func NewLoopbackTransport() *LoopbackTransport {
	return &LoopbackTransport{cb: &LoopbackCallback{}}
}

func (t *LoopbackTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	t.active = true
	t.mu.Unlock()
	return nil
}

func (t *LoopbackTransport) Stop() error {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
	return nil
}

func (t *LoopbackTransport) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *LoopbackTransport) Callback() ServiceCallback { return t.cb }

func (t *LoopbackTransport) RegisterCommandListener(f func(Command)) {
	t.mu.Lock()
	t.onCmd = f
	t.mu.Unlock()
}

func (t *LoopbackTransport) RegisterStatusListener(f func(Status)) {
	t.mu.Lock()
	t.onStatus = f
	t.mu.Unlock()
}

func (t *LoopbackTransport) RegisterTTSListener(f func([]byte, bool)) {
	t.mu.Lock()
	t.onTTS = f
	t.mu.Unlock()
}

// InjectCommand pretends the wire delivered cmd. Test-only entry point.
func (t *LoopbackTransport) InjectCommand(cmd Command) {
	t.mu.Lock()
	f := t.onCmd
	t.mu.Unlock()
	if f != nil {
		f(cmd)
	}
}

// InjectStatus pretends the wire delivered status. Test-only entry point.
func (t *LoopbackTransport) InjectStatus(status Status) {
	t.mu.Lock()
	f := t.onStatus
	t.mu.Unlock()
	if f != nil {
		f(status)
	}
}

// InjectTTSFrame pretends the wire delivered one TTS binary chunk.
// Test-only entry point.
func (t *LoopbackTransport) InjectTTSFrame(data []byte, final bool) {
	t.mu.Lock()
	f := t.onTTS
	t.mu.Unlock()
	if f != nil {
		f(data, final)
	}
}
