package geniesdk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSdkStartStopLifecycle(t *testing.T) {
	adapter := NewReferenceVendorAdapter()
	transport := NewLoopbackTransport()
	sdk := New(adapter, transport, NewSourceRegistry())

	require.False(t, sdk.IsActive())
	require.NoError(t, sdk.Start(context.Background()))
	require.True(t, sdk.IsActive())
	require.NoError(t, sdk.Stop())
	require.False(t, sdk.IsActive())
}

func TestSdkRegisterStatusListenerReceivesWakeup(t *testing.T) {
	adapter := NewReferenceVendorAdapter()
	transport := NewLoopbackTransport()
	sdk := New(adapter, transport, NewSourceRegistry())
	require.NoError(t, sdk.Start(context.Background()))
	defer sdk.Stop()

	got := make(chan Status, 1)
	sdk.RegisterStatusListener(statusListenerFunc(func(s Status) { got <- s }))

	transport.InjectStatus(Status{Kind: StatusMicphoneWakeup, Wakeword: "hello", DOA: 90, Confidence: 80})

	select {
	case s := <-got:
		require.Equal(t, StatusMicphoneWakeup, s.Kind)
		require.Equal(t, "hello", s.Wakeword)
	case <-time.After(time.Second):
		t.Fatal("status was not forwarded")
	}
}

type statusListenerFunc func(Status)

func (f statusListenerFunc) OnStatus(s Status) { f(s) }
