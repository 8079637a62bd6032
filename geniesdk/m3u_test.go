package geniesdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseM3UDocumentRelative(t *testing.T) {
	body := "#EXTM3U\n#EXTINF:10,Track One\ntrack1.mp3\n#EXTINF:20,Track Two\nsub/track2.mp3\n"
	entries := ParseM3U([]byte(body), "http://example.com/streams/playlist.m3u")
	require.Len(t, entries, 2)
	assert.Equal(t, "http://example.com/streams/track1.mp3", entries[0].URL)
	assert.Equal(t, "Track One", entries[0].Title)
	assert.Equal(t, "http://example.com/streams/sub/track2.mp3", entries[1].URL)
}

func TestParseM3URootRelative(t *testing.T) {
	body := "/audio/track.mp3\n"
	entries := ParseM3U([]byte(body), "http://example.com/streams/playlist.m3u")
	require.Len(t, entries, 1)
	assert.Equal(t, "http://example.com/audio/track.mp3", entries[0].URL)
}

func TestParseM3USchemeless(t *testing.T) {
	body := "//cdn.example.com/track.mp3\n"
	entries := ParseM3U([]byte(body), "https://example.com/streams/playlist.m3u")
	require.Len(t, entries, 1)
	assert.Equal(t, "https://cdn.example.com/track.mp3", entries[0].URL)
}

func TestParseM3UFullURI(t *testing.T) {
	body := "http://other.example.com/track.mp3\n"
	entries := ParseM3U([]byte(body), "http://example.com/streams/playlist.m3u")
	require.Len(t, entries, 1)
	assert.Equal(t, "http://other.example.com/track.mp3", entries[0].URL)
}

func TestParseM3UStreamInfBandwidth(t *testing.T) {
	body := "#EXT-X-STREAM-INF:BANDWIDTH=128000\nhigh.mp3\n"
	entries := ParseM3U([]byte(body), "http://example.com/streams/playlist.m3u")
	require.Len(t, entries, 1)
	assert.Equal(t, 128000, entries[0].Bandwidth)
}

func TestIsM3UURL(t *testing.T) {
	assert.True(t, isM3UURL("http://example.com/a.m3u"))
	assert.True(t, isM3UURL("http://example.com/a.m3u8?x=1"))
	assert.False(t, isM3UURL("http://example.com/a.mp3"))
}
