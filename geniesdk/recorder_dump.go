package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Optional debug capture dumps (§4.7 expansion: "Debug WAV/Ogg
 *		capture dumps ... present in spirit in original_source's
 *		recorder, which always persists what it streams"). Off by
 *		default; set Recorder.DebugDumpPattern to enable.
 *
 * Description:	File names are timestamped with github.com/lestrrat-go/
 *		strftime, matching the teacher's own tq.go/xmit.go/beacon.go
 *		use of the same library for timestamped output. The WAV
 *		container itself is a fixed 44-byte PCM header stdlib
 *		encoding/binary can write directly — no third-party WAV
 *		library appears anywhere in this port's dependency surface,
 *		and the format is fixed and trivial enough that none is
 *		warranted (see DESIGN.md).
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
)

type wavDumpWriter struct {
	f           *os.File
	dataBytes   uint32
	sampleRate  int
	channels    int
	bits        int
}

// newWavDumpWriter formats pattern (an strftime pattern, e.g.
// "capture-%Y%m%d-%H%M%S.wav") against the current time and opens the
// resulting path, writing a placeholder header to be patched on Close.
// Returns nil if the pattern can't be formatted or the file can't be
// created — a debug feature must never abort a recording session.
func newWavDumpWriter(pattern string, sampleRate, channels, bits int) *wavDumpWriter {
	name, err := strftime.Format(pattern, time.Now())
	if err != nil {
		return nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil
	}
	w := &wavDumpWriter{f: f, sampleRate: sampleRate, channels: channels, bits: bits}
	w.writeHeader()
	return w
}

func (w *wavDumpWriter) writeHeader() {
	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.sampleRate))
	byteRate := w.sampleRate * w.channels * w.bits / 8
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	blockAlign := w.channels * w.bits / 8
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(w.bits))
	copy(hdr[36:40], "data")
	_, _ = w.f.Write(hdr)
}

func (w *wavDumpWriter) Write(pcm []byte) {
	if w == nil {
		return
	}
	if _, err := w.f.Write(pcm); err == nil {
		w.dataBytes += uint32(len(pcm))
	}
}

func (w *wavDumpWriter) Close() {
	if w == nil {
		return
	}
	riffSize := 36 + w.dataBytes
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], riffSize)
	_, _ = w.f.WriteAt(sizeBuf[:], 4)
	var dataBuf [4]byte
	binary.LittleEndian.PutUint32(dataBuf[:], w.dataBytes)
	_, _ = w.f.WriteAt(dataBuf[:], 40)
	_ = w.f.Close()
}
