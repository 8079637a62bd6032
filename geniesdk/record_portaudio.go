package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The production RecordAdapter (§6: pcm_in_open/read/close).
 *		Cross-platform microphone capture via portaudio, the input
 *		mirror of sink_portaudio.go's output backend.
 *
 * Description:	One portaudio.Stream per Open call. Recorder always asks
 *		for 16 kHz/mono/16-bit (§4.7 step 1), so this adapter never
 *		needs to resample; it exists to translate portaudio's
 *		fixed-size buffer callback model into the blocking Read
 *		RecordAdapter expects.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"encoding/binary"

	"github.com/gordonklaus/portaudio"
)

// PortAudioRecorder drives the local default audio input device.
type PortAudioRecorder struct {
	initialized bool
}

// NewPortAudioRecorder initializes the portaudio library. Callers must call
// Terminate once the recorder is no longer needed. If the process also uses
// PortAudioSink, only one of the two needs to initialize/terminate the
// shared library — portaudio.Initialize is reference-counted internally.
func NewPortAudioRecorder() (*PortAudioRecorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &PortAudioRecorder{initialized: true}, nil
}

// Terminate releases the portaudio library. No-op if already terminated.
func (r *PortAudioRecorder) Terminate() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return portaudio.Terminate()
}

func (r *PortAudioRecorder) Name() string { return "portaudio" }

type portaudioRecordHandle struct {
	stream   *portaudio.Stream
	channels int
	in       []int16
	pending  []byte // leftover bytes from the last portaudio buffer
}

func (r *PortAudioRecorder) Open(ctx context.Context, sampleRate, channels, bits int) (RecordHandle, error) {
	if bits != 16 {
		return nil, ErrUnsupportedSampleFormat
	}
	const framesPerBuffer = 480 // 30ms at 16kHz
	h := &portaudioRecordHandle{channels: channels, in: make([]int16, framesPerBuffer*channels)}
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), framesPerBuffer, h.in)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}
	h.stream = stream
	return h, nil
}

// Read fills buf with captured 16-bit interleaved PCM, pulling fresh
// portaudio buffers as needed.
func (r *PortAudioRecorder) Read(handle RecordHandle, buf []byte) (int, error) {
	h := handle.(*portaudioRecordHandle)
	total := 0
	for total < len(buf) {
		if len(h.pending) == 0 {
			if err := h.stream.Read(); err != nil {
				return total, err
			}
			h.pending = int16sToBytes(h.in)
		}
		n := copy(buf[total:], h.pending)
		h.pending = h.pending[n:]
		total += n
	}
	return total, nil
}

func (r *PortAudioRecorder) Close(handle RecordHandle) error {
	h := handle.(*portaudioRecordHandle)
	if err := h.stream.Stop(); err != nil {
		h.stream.Close()
		return err
	}
	return h.stream.Close()
}

func int16sToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
