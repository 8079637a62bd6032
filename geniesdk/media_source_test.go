package geniesdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMediaSourceSyncFillsRingbuf(t *testing.T) {
	static := NewStaticSource()
	static.Register("static://clip", []byte("some audio bytes here"))
	reg := NewSourceRegistry()
	reg.Register(static)

	ms, err := NewMediaSource(reg, "static://clip", 0, nil, nil)
	require.NoError(t, err)

	require.NoError(t, ms.Element().Run())

	require.Eventually(t, func() bool {
		return ms.RB.Filled() > 0 || ms.Element().State() == StateFinished
	}, time.Second, 5*time.Millisecond)

	buf := make([]byte, 64)
	n, status := ms.RB.Read(buf, time.Second)
	require.Equal(t, RbOK, status)
	require.Contains(t, string(buf[:n]), "some audio")

	ms.Element().Stop()
	ms.Element().WaitForStopMs(time.Second)
}

func TestMediaSourcePrimeReplaysBufferedBytes(t *testing.T) {
	static := NewStaticSource()
	static.Register("static://clip", []byte("XXXXXtail-bytes"))
	reg := NewSourceRegistry()
	reg.Register(static)

	ms, err := NewMediaSource(reg, "static://clip", 0, nil, nil)
	require.NoError(t, err)
	ms.Prime([]byte("primed-"))

	require.NoError(t, ms.Element().Run())
	require.Eventually(t, func() bool { return ms.RB.Filled() > 0 }, time.Second, 5*time.Millisecond)

	buf := make([]byte, 7)
	n, status := ms.RB.Read(buf, time.Second)
	require.Equal(t, RbOK, status)
	require.Equal(t, "primed-", string(buf[:n]))

	ms.Element().Stop()
	ms.Element().WaitForStopMs(time.Second)
}

func TestMediaSourceM3UPlaylistAdvancesEntries(t *testing.T) {
	static := NewStaticSource()
	static.Register("static://list.m3u", []byte("static://a\nstatic://b\n"))
	static.Register("static://a", []byte("AAAA"))
	static.Register("static://b", []byte("BBBB"))
	reg := NewSourceRegistry()
	reg.Register(static)

	ms, err := NewMediaSource(reg, "static://list.m3u", 0, nil, nil)
	require.NoError(t, err)
	require.True(t, ms.isPlaylist)

	require.NoError(t, ms.Element().Run())

	require.Eventually(t, func() bool {
		return ms.RB.Filled() >= 8
	}, time.Second, 5*time.Millisecond)

	buf := make([]byte, 8)
	n, status := ms.RB.Read(buf, time.Second)
	require.Equal(t, RbOK, status)
	require.Equal(t, "AAAABBBB", string(buf[:n]))

	ms.Element().Stop()
	ms.Element().WaitForStopMs(time.Second)
}
