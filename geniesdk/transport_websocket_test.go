package geniesdk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWebsocketTransportDispatchesDecodedEnvelopes(t *testing.T) {
	cb := &LoopbackCallback{}
	tr := NewWebsocketTransport("ws://unused.example/", cb)

	var gotCmd Command
	var gotStatus Status
	var gotTTS []byte
	var gotFinal bool
	tr.RegisterCommandListener(func(c Command) { gotCmd = c })
	tr.RegisterStatusListener(func(s Status) { gotStatus = s })
	tr.RegisterTTSListener(func(data []byte, final bool) { gotTTS = data; gotFinal = final })

	tr.dispatch(wireEnvelope{Type: "command", Kind: CmdPause})
	require.Equal(t, CmdPause, gotCmd.Kind)

	tr.dispatch(wireEnvelope{Type: "status", StatusKind: StatusNetworkConnected})
	require.Equal(t, StatusNetworkConnected, gotStatus.Kind)

	tr.dispatch(wireEnvelope{Type: "tts", TTSData: []byte("abc"), TTSFinal: true})
	require.Equal(t, []byte("abc"), gotTTS)
	require.True(t, gotFinal)
}

func TestWebsocketTransportCallbackReturnsRegisteredCallback(t *testing.T) {
	cb := &LoopbackCallback{}
	tr := NewWebsocketTransport("ws://unused.example/", cb)
	require.Same(t, ServiceCallback(cb), tr.Callback())
}
