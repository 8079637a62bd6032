package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The `file` source adapter (§6): a synchronous, seekable
 *		local-filesystem source.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
)

type fileHandle struct {
	mu   sync.Mutex
	f    *os.File
	size int64
}

// FileSource is the `file://` (and bare-path) source adapter.
type FileSource struct{}

func (FileSource) Scheme() string                { return "file" }
func (FileSource) AsyncMode() bool               { return false }
func (FileSource) RecommendedBufferSize() int     { return 8 * 1024 }

func (FileSource) Open(_ context.Context, url string, startOffset int64, _ interface{}) (SourceHandle, error) {
	path := strings.TrimPrefix(url, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if startOffset > 0 {
		if _, err := f.Seek(startOffset, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &fileHandle{f: f, size: st.Size()}, nil
}

func (FileSource) Read(h SourceHandle, buf []byte) (int, error) {
	fh := h.(*fileHandle)
	fh.mu.Lock()
	defer fh.mu.Unlock()
	return fh.f.Read(buf)
}

func (FileSource) Seek(h SourceHandle, absoluteOffset int64) error {
	fh := h.(*fileHandle)
	fh.mu.Lock()
	defer fh.mu.Unlock()
	_, err := fh.f.Seek(absoluteOffset, io.SeekStart)
	return err
}

func (FileSource) ContentPos(h SourceHandle) int64 {
	fh := h.(*fileHandle)
	fh.mu.Lock()
	defer fh.mu.Unlock()
	pos, _ := fh.f.Seek(0, io.SeekCurrent)
	return pos
}

func (FileSource) ContentLen(h SourceHandle) int64 {
	return h.(*fileHandle).size
}

func (FileSource) Close(h SourceHandle) error {
	fh := h.(*fileHandle)
	fh.mu.Lock()
	defer fh.mu.Unlock()
	return fh.f.Close()
}
