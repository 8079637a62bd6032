package geniesdk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *LoopbackTransport, *ReferenceVendorAdapter) {
	t.Helper()
	adapter := NewReferenceVendorAdapter()
	transport := NewLoopbackTransport()
	sources := NewSourceRegistry()
	prebuilt := NewPrebuiltSource()
	tts := NewTTSSource()
	sources.Register(prebuilt)
	sources.Register(tts)
	svc := NewService(adapter, transport, sources, prebuilt, tts)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { _ = svc.Stop() })
	return svc, transport, adapter
}

func TestServiceStartClampsBootVolume(t *testing.T) {
	adapter := NewReferenceVendorAdapter()
	_ = adapter.SetSpeakerVolume(5)
	transport := NewLoopbackTransport()
	sources := NewSourceRegistry()
	prebuilt := NewPrebuiltSource()
	tts := NewTTSSource()
	sources.Register(prebuilt)
	sources.Register(tts)
	svc := NewService(adapter, transport, sources, prebuilt, tts)
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	require.Equal(t, bootVolumeMin, adapter.GetSpeakerVolume())
}

func TestServiceSetVolumeFiltersLocallyAndIsNotForwarded(t *testing.T) {
	svc, transport, adapter := newService(t)

	var got []Command
	svc.RegisterCommandListener(commandListenerFunc(func(c Command) { got = append(got, c) }))

	transport.InjectCommand(Command{Kind: CmdSetVolume, Volume: 42})
	require.Eventually(t, func() bool { return adapter.GetSpeakerVolume() == 42 }, time.Second, 5*time.Millisecond)
	require.Empty(t, got)
}

func TestServiceForwardsOtherCommandsVerbatim(t *testing.T) {
	svc, transport, _ := newService(t)

	done := make(chan Command, 1)
	svc.RegisterCommandListener(commandListenerFunc(func(c Command) { done <- c }))

	transport.InjectCommand(Command{Kind: CmdPlay, URL: "prebuilt://WAKEUP_REMIND"})
	select {
	case c := <-done:
		require.Equal(t, CmdPlay, c.Kind)
	case <-time.After(time.Second):
		t.Fatal("command was not forwarded")
	}
}

func TestServiceNetworkDisconnectGatesRecorder(t *testing.T) {
	svc, transport, _ := newService(t)

	transport.InjectStatus(Status{Kind: StatusGatewayConnected})
	transport.InjectStatus(Status{Kind: StatusAuthorized})
	transport.InjectStatus(Status{Kind: StatusNetworkConnected})

	svc.recorder.ExpectSpeechStart()
	require.Eventually(t, func() bool { return svc.recorder.Gate().allowed() }, time.Second, 5*time.Millisecond)

	transport.InjectStatus(Status{Kind: StatusNetworkDisconnected})
	require.Eventually(t, func() bool { return !svc.recorder.Gate().allowed() }, time.Second, 5*time.Millisecond)
}

func TestServiceUnregisterCommandListenerStopsDelivery(t *testing.T) {
	svc, transport, _ := newService(t)

	count := 0
	id := svc.RegisterCommandListener(commandListenerFunc(func(c Command) { count++ }))
	svc.UnregisterCommandListener(id)

	transport.InjectCommand(Command{Kind: CmdPause})
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 0, count)
}

type commandListenerFunc func(Command)

func (f commandListenerFunc) OnCommand(c Command) { f(c) }
