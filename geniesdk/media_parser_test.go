package geniesdk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMediaParserProbeMP3StuffsBufferedTail(t *testing.T) {
	frame1 := buildMP3Frame(128, 44100)
	frame2 := buildMP3Frame(128, 44100)
	data := append(append([]byte{}, frame1...), frame2...)

	static := NewStaticSource()
	static.Register("static://song.mp3", data)
	reg := NewSourceRegistry()
	reg.Register(static)

	mp := NewMediaParser(reg)
	result, err := mp.Probe(context.Background(), "static://song.mp3", nil)
	require.NoError(t, err)
	require.Equal(t, CodecMP3, result.Info.Kind)
	require.True(t, result.Reused)
	require.NotNil(t, result.Handle)

	// The probe only ever reads as far as its frame-consistency check
	// needed, so Stuffed is a prefix of the remaining file starting at
	// ContentOffset, not necessarily all of it.
	require.NotNil(t, result.Stuffed)
	require.True(t, len(result.Stuffed) > 0)
	want := data[result.Info.ContentOffset : result.Info.ContentOffset+int64(len(result.Stuffed))]
	require.Equal(t, want, result.Stuffed)

	static.Close(result.Handle)
}

func TestMediaParserProbeM4ADiscoversChunkTable(t *testing.T) {
	data := buildMinimalM4A(t)

	static := NewStaticSource()
	static.Register("static://clip.m4a", data)
	reg := NewSourceRegistry()
	reg.Register(static)

	mp := NewMediaParser(reg)
	result, err := mp.Probe(context.Background(), "static://clip.m4a", nil)
	require.NoError(t, err)
	require.Equal(t, CodecM4A, result.Info.Kind)
	require.NotEmpty(t, result.Info.Tables.ChunkOffset)
	require.True(t, result.Reused)

	static.Close(result.Handle)
}

func TestMediaParserProbeUnknownCodec(t *testing.T) {
	static := NewStaticSource()
	static.Register("static://junk.bin", []byte{0x00, 0x01, 0x02, 0x03})
	reg := NewSourceRegistry()
	reg.Register(static)

	mp := NewMediaParser(reg)
	_, err := mp.Probe(context.Background(), "static://junk.bin", nil)
	require.ErrorIs(t, err, ErrUnsupported)
}
