package geniesdk

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTSSourceWriteThenReadThenFinish(t *testing.T) {
	tts := NewTTSSource()
	tts.Begin("tts://utterance-1")
	defer tts.Discard("tts://utterance-1")

	h, err := tts.Open(context.Background(), "tts://utterance-1", 0, nil)
	require.NoError(t, err)

	n, status := tts.Write("tts://utterance-1", []byte("abcd"))
	require.Equal(t, RbOK, status)
	require.Equal(t, 4, n)

	buf := make([]byte, 4)
	got, err := tts.Read(h, buf)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(buf[:got]))

	go func() {
		time.Sleep(5 * time.Millisecond)
		tts.Finish("tts://utterance-1")
	}()
	_, err = tts.Read(h, buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestTTSSourceOpenUnknownStream(t *testing.T) {
	tts := NewTTSSource()
	_, err := tts.Open(context.Background(), "tts://never-begun", 0, nil)
	require.Error(t, err)
}
