package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The record adapter contract (§6 "Vendor adapter":
 *		pcm_in_open/read/close) — the capture-side mirror of
 *		SinkAdapter in sink.go.
 *
 * Description:	Recorder owns exactly one RecordHandle for the lifetime of
 *		one utterance (§5 "Shared resources"): opened lazily on the
 *		first frame of a session, closed after the final frame.
 *
 *------------------------------------------------------------------*/

import "context"

// RecordHandle is whatever an adapter's Open returns: a portaudio input
// stream, a test fixture's cursor, or a null/silence handle.
type RecordHandle interface{}

// RecordAdapter is the per-backend contract every PCM capture source
// implements.
type RecordAdapter interface {
	// Name identifies the backend ("portaudio", "silence").
	Name() string
	Open(ctx context.Context, sampleRate, channels, bits int) (RecordHandle, error)
	// Read blocks until buf is filled, the backend is closed, or an error
	// occurs; returns the number of bytes actually captured, which may be
	// less than len(buf) on the handle's last read (§4.7 step 4: "padding
	// with zeros if short").
	Read(h RecordHandle, buf []byte) (int, error)
	Close(h RecordHandle) error
}
