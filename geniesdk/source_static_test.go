package geniesdk

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticSourceReadSeek(t *testing.T) {
	s := NewStaticSource()
	s.Register("static://clip", []byte("hello world"))

	h, err := s.Open(context.Background(), "static://clip", 0, nil)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := s.Read(h, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))

	require.NoError(t, s.Seek(h, 6))
	n, err = s.Read(h, buf)
	require.Equal(t, "world", string(buf[:n]))
	require.True(t, err == nil || err == io.EOF)

	require.EqualValues(t, 11, s.ContentLen(h))
}

func TestStaticSourceUnknownURL(t *testing.T) {
	s := NewStaticSource()
	_, err := s.Open(context.Background(), "static://missing", 0, nil)
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestPrebuiltSourceRegistersAllTones(t *testing.T) {
	p := NewPrebuiltSource()
	for _, sound := range []PrebuiltSound{
		PrebuiltWakeupRemind,
		PrebuiltRecordRemind,
		PrebuiltNetworkDisconnected,
		PrebuiltServerDisconnected,
		PrebuiltAccountUnauthorized,
	} {
		h, err := p.Open(context.Background(), p.URL(sound), 0, nil)
		require.NoError(t, err)
		require.Greater(t, p.ContentLen(h), int64(0))
	}
}
