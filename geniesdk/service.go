package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Service (§4.8): the coordinator that owns the vendor
 *		adapter, UtpManager, and Recorder, wires them to a
 *		ServiceTransport, and applies the command/status routing
 *		rules the original spreads across GenieSdk.c's status/command
 *		listeners and GeniePlayer.c/GenieRecorder.c's own transport
 *		registrations. This port funnels all three through one place
 *		rather than mirroring the original's three independent
 *		listener registrations against the transport — simpler, and
 *		nothing in the distilled spec depends on the split (see
 *		DESIGN.md).
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"
)

const (
	bootVolumeMin = 20
	bootVolumeMax = 70
)

func clampVolumeBetween(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Service is the single coordinator wiring UtpManager, Recorder, and a
// ServiceTransport together (§4.8).
type Service struct {
	adapter   VendorAdapter
	transport ServiceTransport
	player    *UtpManager
	recorder  *Recorder

	mu         sync.Mutex
	network    bool
	gateway    bool
	authorized bool
	muted      bool
	ttsURL     string

	prebuilt        *PrebuiltSource
	volMin, volMax  int
	promptOverrides map[PrebuiltSound]string

	sdkMu            sync.Mutex
	nextListenerID   int
	commandListeners []commandListenerEntry
	statusListeners  []statusListenerEntry
}

type commandListenerEntry struct {
	id int
	l  CommandListener
}

type statusListenerEntry struct {
	id int
	l  StatusListener
}

// NewService wires a Service around adapter and transport. sources,
// prebuilt and tts are the already-built source registry this process
// shares with the player (§4.6 construction order).
func NewService(adapter VendorAdapter, transport ServiceTransport, sources *SourceRegistry, prebuilt *PrebuiltSource, tts *TTSSource) *Service {
	s := &Service{
		adapter:   adapter,
		transport: transport,
		prebuilt:  prebuilt,
		volMin:    bootVolumeMin,
		volMax:    bootVolumeMax,
	}
	s.player = NewUtpManager(sources, adapter.Sink(), prebuilt, tts)
	s.player.RegisterCallback(s)
	s.recorder = NewRecorder(adapter.Record(), s)
	return s
}

// SetVolumeBounds overrides the default §4.8 [20,70] boot volume clamp,
// for deployments whose geniesdk.yaml tunes it.
func (s *Service) SetVolumeBounds(min, max int) {
	s.mu.Lock()
	s.volMin, s.volMax = min, max
	s.mu.Unlock()
}

// SetPromptURL overrides one compiled-in prebuilt tone with a hosted
// audio URL, for deployments whose geniesdk.yaml supplies real recorded
// prompts in place of the compiled-in silent placeholder.
func (s *Service) SetPromptURL(sound PrebuiltSound, url string) {
	s.mu.Lock()
	if s.promptOverrides == nil {
		s.promptOverrides = make(map[PrebuiltSound]string)
	}
	s.promptOverrides[sound] = url
	s.mu.Unlock()
}

// promptURL resolves sound through any configured override, falling
// back to the compiled-in prebuilt:// asset.
func (s *Service) promptURL(sound PrebuiltSound) string {
	s.mu.Lock()
	url, ok := s.promptOverrides[sound]
	s.mu.Unlock()
	if ok {
		return url
	}
	return s.prebuilt.URL(sound)
}

// Start applies the boot volume clamp (§4.8: volume is clamped to
// [20,70] at boot, or to SetVolumeBounds's override) and opens the
// transport.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	lo, hi := s.volMin, s.volMax
	s.mu.Unlock()

	vol := clampVolumeBetween(s.adapter.GetSpeakerVolume(), lo, hi)
	if vol != s.adapter.GetSpeakerVolume() {
		_ = s.adapter.SetSpeakerVolume(vol)
	}
	s.player.SetSpeakerMuted(s.adapter.GetSpeakerMuted())

	s.transport.RegisterCommandListener(s.HandleCommand)
	s.transport.RegisterStatusListener(s.HandleStatus)
	s.transport.RegisterTTSListener(s.HandleTTSFrame)

	return s.transport.Start(ctx)
}

// Stop tears down the transport and the player/recorder workers.
func (s *Service) Stop() error {
	err := s.transport.Stop()
	s.recorder.Destroy()
	s.player.Destroy()
	return err
}

func (s *Service) IsActive() bool { return s.transport.IsActive() }

// RegisterCommandListener adds an external command listener and returns
// a handle for UnregisterCommandListener.
func (s *Service) RegisterCommandListener(l CommandListener) int {
	s.sdkMu.Lock()
	defer s.sdkMu.Unlock()
	s.nextListenerID++
	id := s.nextListenerID
	s.commandListeners = append(s.commandListeners, commandListenerEntry{id: id, l: l})
	return id
}

func (s *Service) UnregisterCommandListener(id int) {
	s.sdkMu.Lock()
	defer s.sdkMu.Unlock()
	for i, e := range s.commandListeners {
		if e.id == id {
			s.commandListeners = append(s.commandListeners[:i], s.commandListeners[i+1:]...)
			return
		}
	}
}

// RegisterStatusListener adds an external status listener and returns a
// handle for UnregisterStatusListener.
func (s *Service) RegisterStatusListener(l StatusListener) int {
	s.sdkMu.Lock()
	defer s.sdkMu.Unlock()
	s.nextListenerID++
	id := s.nextListenerID
	s.statusListeners = append(s.statusListeners, statusListenerEntry{id: id, l: l})
	return id
}

func (s *Service) UnregisterStatusListener(id int) {
	s.sdkMu.Lock()
	defer s.sdkMu.Unlock()
	for i, e := range s.statusListeners {
		if e.id == id {
			s.statusListeners = append(s.statusListeners[:i], s.statusListeners[i+1:]...)
			return
		}
	}
}

// HandleCommand dispatches one decoded command to the player/recorder,
// then forwards it to every registered external listener (§4.8: "the
// command listener filters SetVolume locally ... all other commands are
// forwarded to registered external listeners verbatim"). SetMute is
// given the same local-apply treatment as SetVolume for symmetry with
// the adapter's matching setter; see DESIGN.md.
func (s *Service) HandleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSpeak:
		url, err := s.player.Speak(cmd.ExpectSpeech)
		if err == nil {
			s.mu.Lock()
			s.ttsURL = url
			s.mu.Unlock()
		}
	case CmdPlay:
		_ = s.player.Play(cmd.URL)
	case CmdPlayOnce:
		_ = s.player.PlayOnce(cmd.URL)
	case CmdPause:
		_ = s.player.Pause()
	case CmdResume:
		_ = s.player.Resume()
	case CmdClearQueue:
		_ = s.player.ClearQueue()
	case CmdExit:
		_ = s.player.Exit()
	case CmdStandby:
		_ = s.player.Standby()
	case CmdExpectSpeechStart:
		s.recorder.ExpectSpeechStart()
	case CmdExpectSpeechStop:
		s.recorder.ExpectSpeechStop()
	case CmdStopListen:
		s.recorder.StopListen()
	case CmdSetVolume:
		if err := s.adapter.SetSpeakerVolume(cmd.Volume); err == nil {
			s.transport.Callback().OnSpeakerVolumeChanged(cmd.Volume)
		} else {
			serviceLog.Error("failed to set speaker volume", "volume", cmd.Volume, "err", err)
		}
		return
	case CmdSetMute:
		if err := s.adapter.SetSpeakerMuted(cmd.Muted); err == nil {
			s.player.SetSpeakerMuted(cmd.Muted)
			s.transport.Callback().OnSpeakerMutedChanged(cmd.Muted)
		} else {
			serviceLog.Error("failed to set speaker mute", "muted", cmd.Muted, "err", err)
		}
		return
	}
	s.forwardCommand(cmd)
}

func (s *Service) forwardCommand(cmd Command) {
	s.sdkMu.Lock()
	listeners := append([]commandListenerEntry(nil), s.commandListeners...)
	s.sdkMu.Unlock()
	for _, e := range listeners {
		e.l.OnCommand(cmd)
	}
}

// HandleStatus applies one environment transition (§4.8 "Status
// handling"): Network/Gateway/Authorized/Muted each gate the recorder,
// and the first transition into a disconnected/unauthorized state plays
// a one-shot prebuilt prompt (matching GenieSdk_StatusListener's
// edge-triggered prompts).
func (s *Service) HandleStatus(status Status) {
	switch status.Kind {
	case StatusNetworkConnected:
		s.mu.Lock()
		s.network = true
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)

	case StatusNetworkDisconnected:
		s.mu.Lock()
		wasUp := s.network
		s.network = false
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)
		if wasUp {
			serviceLog.Warn("network disconnected")
			_ = s.player.ClearQueue()
			_ = s.player.PlayOnce(s.promptURL(PrebuiltNetworkDisconnected))
		}

	case StatusGatewayConnected:
		s.mu.Lock()
		s.gateway = true
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)
		s.player.SetGatewayConnected(true)

	case StatusGatewayDisconnected:
		s.mu.Lock()
		wasUp := s.gateway && s.network && s.authorized
		s.gateway = false
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)
		s.player.SetGatewayConnected(false)
		if wasUp {
			_ = s.player.ClearQueue()
			_ = s.player.PlayOnce(s.promptURL(PrebuiltServerDisconnected))
		}

	case StatusAuthorized:
		s.mu.Lock()
		s.authorized = true
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)

	case StatusUnauthorized:
		s.mu.Lock()
		wasUp := s.authorized
		s.authorized = false
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)
		if wasUp {
			_ = s.player.ClearQueue()
			_ = s.player.PlayOnce(s.promptURL(PrebuiltAccountUnauthorized))
		}

	case StatusSpeakerMuted:
		s.mu.Lock()
		s.muted = true
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)
		s.player.SetSpeakerMuted(true)

	case StatusSpeakerUnmuted:
		s.mu.Lock()
		s.muted = false
		gate := s.gateSnapshotLocked()
		s.mu.Unlock()
		s.recorder.SetGate(gate)
		s.player.SetSpeakerMuted(false)

	case StatusMicphoneWakeup:
		_ = s.player.OnMicrophoneWakeup()
	}

	s.forwardStatus(status)
}

// gateSnapshotLocked reads the four flags; callers must hold s.mu.
func (s *Service) gateSnapshotLocked() RecorderGate {
	return RecorderGate{Network: s.network, Gateway: s.gateway, Authorized: s.authorized, Muted: s.muted}
}

func (s *Service) forwardStatus(status Status) {
	s.sdkMu.Lock()
	listeners := append([]statusListenerEntry(nil), s.statusListeners...)
	s.sdkMu.Unlock()
	for _, e := range listeners {
		e.l.OnStatus(status)
	}
}

// HandleTTSFrame streams one chunk of synthesized speech from the cloud
// into the active Speak session, mirroring GenieService.h's separate
// TTS-binary listener registration (distinct from CommandListener).
func (s *Service) HandleTTSFrame(data []byte, final bool) {
	s.mu.Lock()
	url := s.ttsURL
	s.mu.Unlock()
	if url == "" {
		return
	}
	if len(data) > 0 {
		_, _ = s.player.WriteTTS(url, data)
	}
	if final {
		s.player.FinishTTS(url)
	}
}

// OnPlayerEvent implements UtpCallback, forwarding MUSIC playback events
// to the transport's ServiceCallback (§4.6/§4.8).
func (s *Service) OnPlayerEvent(event PlayerEvent, err error) {
	cb := s.transport.Callback()
	switch event {
	case PlayerEventStarted:
		cb.OnPlayerStarted()
	case PlayerEventPaused:
		cb.OnPlayerPaused()
	case PlayerEventResumed:
		cb.OnPlayerResumed()
	case PlayerEventNearlyFinished:
		cb.OnPlayerNearlyFinished()
	case PlayerEventFinished:
		cb.OnPlayerFinished()
	case PlayerEventStopped:
		cb.OnPlayerStopped()
	case PlayerEventFailed:
		cb.OnPlayerFailed(err)
	}
}

// OnExpectSpeech implements UtpCallback, forwarding the player's
// wakeup-remind/record-remind completion signal.
func (s *Service) OnExpectSpeech() {
	s.transport.Callback().OnExpectSpeech()
}

// OnMicphoneStreaming implements RecorderCallback, forwarding captured
// audio to the transport's ServiceCallback.
func (s *Service) OnMicphoneStreaming(format AudioFormat, buf []byte, final bool) {
	s.transport.Callback().OnMicphoneStreaming(format, buf, final)
}
