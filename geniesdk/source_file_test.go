package geniesdk

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSourceReadSeekContentLen(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "geniesdk-file-src-*.bin")
	require.NoError(t, err)
	data := []byte("0123456789abcdef")
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var src FileSource
	h, err := src.Open(context.Background(), f.Name(), 0, nil)
	require.NoError(t, err)
	defer src.Close(h)

	require.EqualValues(t, len(data), src.ContentLen(h))

	buf := make([]byte, 4)
	n, err := src.Read(h, buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "0123", string(buf[:n]))

	require.NoError(t, src.Seek(h, 10))
	n, err = src.Read(h, buf)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(buf[:n]))

	require.NoError(t, src.Seek(h, int64(len(data))))
	_, err = src.Read(h, buf)
	require.ErrorIs(t, err, io.EOF)
}
