package geniesdk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMP3Player(t *testing.T, data []byte) (*Liteplayer, *NullSink) {
	t.Helper()
	static := NewStaticSource()
	static.Register("static://song.mp3", data)
	reg := NewSourceRegistry()
	reg.Register(static)

	sink := NewNullSink()
	return NewLiteplayer(reg, sink), sink
}

func twoFrameMP3() []byte {
	frame1 := buildMP3Frame(128, 44100)
	frame2 := buildMP3Frame(128, 44100)
	return append(append([]byte{}, frame1...), frame2...)
}

func TestLiteplayerFullLifecycleReachesCompleted(t *testing.T) {
	player, _ := newTestMP3Player(t, twoFrameMP3())

	var mu sync.Mutex
	var states []PlayerState
	require.NoError(t, player.RegisterStateListener(func(s PlayerState, err error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	require.NoError(t, player.SetSource("static://song.mp3", nil))
	require.Equal(t, PlayerInited, player.State())

	require.NoError(t, player.Prepare())
	require.Equal(t, PlayerPrepared, player.State())

	dur, err := player.GetDuration()
	require.NoError(t, err)
	require.Greater(t, dur, int64(0))

	require.NoError(t, player.Start())
	require.Equal(t, PlayerStarted, player.State())

	require.Eventually(t, func() bool {
		return player.State() == PlayerCompleted
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	seen := append([]PlayerState{}, states...)
	mu.Unlock()
	require.Contains(t, seen, PlayerNearlyCompleted)
	require.Contains(t, seen, PlayerCompleted)

	require.NoError(t, player.Stop())
	require.Equal(t, PlayerStopped, player.State())

	require.NoError(t, player.Reset())
	require.Equal(t, PlayerIdle, player.State())
}

func TestLiteplayerIllegalTransitionsRejected(t *testing.T) {
	player, _ := newTestMP3Player(t, twoFrameMP3())

	require.Error(t, player.Start())
	require.Equal(t, PlayerIdle, player.State())

	require.NoError(t, player.SetSource("static://song.mp3", nil))
	require.Error(t, player.Start(), "can't start before prepare")
	require.Equal(t, PlayerInited, player.State())
}

func TestLiteplayerPauseResume(t *testing.T) {
	player, _ := newTestMP3Player(t, twoFrameMP3())

	require.NoError(t, player.SetSource("static://song.mp3", nil))
	require.NoError(t, player.Prepare())
	require.NoError(t, player.Start())

	require.NoError(t, player.Pause())
	require.Equal(t, PlayerPaused, player.State())

	require.NoError(t, player.Resume())
	require.Equal(t, PlayerStarted, player.State())

	require.NoError(t, player.Stop())
}

func TestLiteplayerSeekRejectsOutOfRange(t *testing.T) {
	player, _ := newTestMP3Player(t, twoFrameMP3())

	require.NoError(t, player.SetSource("static://song.mp3", nil))
	require.NoError(t, player.Prepare())

	dur, err := player.GetDuration()
	require.NoError(t, err)
	require.Error(t, player.Seek(dur+1000))
}

func TestLiteplayerSeekFromPreparedReachesSeekCompleted(t *testing.T) {
	player, _ := newTestMP3Player(t, twoFrameMP3())

	require.NoError(t, player.SetSource("static://song.mp3", nil))
	require.NoError(t, player.Prepare())

	require.NoError(t, player.Seek(0))
	require.Equal(t, PlayerSeekCompleted, player.State())

	require.NoError(t, player.Stop())
}
