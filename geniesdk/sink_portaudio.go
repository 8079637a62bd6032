package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The production SinkAdapter (§6: "alsa"/"opensles"/"audiotrack"
 *		in the original taxonomy; this port's equivalent is the
 *		cross-platform portaudio backend).
 *
 * Description:	One portaudio.Stream per Open call, sized for whatever
 *		(rate, channels, bits) the decoder discovered. Only 16-bit
 *		interleaved PCM is supported, matching every decoder in this
 *		package (§9's 16-bit-output resolution).
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/gordonklaus/portaudio"
)

// ErrUnsupportedSampleFormat is returned by PortAudioSink.Open for any bit
// depth other than 16.
var ErrUnsupportedSampleFormat = errors.New("geniesdk: portaudio sink only supports 16-bit PCM")

// PortAudioSink drives the local default audio output device.
type PortAudioSink struct {
	initialized bool
}

// NewPortAudioSink initializes the portaudio library. Callers must call
// Terminate once the sink is no longer needed.
func NewPortAudioSink() (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &PortAudioSink{initialized: true}, nil
}

// Terminate releases the portaudio library. No-op if already terminated.
func (s *PortAudioSink) Terminate() error {
	if !s.initialized {
		return nil
	}
	s.initialized = false
	return portaudio.Terminate()
}

func (s *PortAudioSink) Name() string { return "portaudio" }

type portaudioHandle struct {
	stream   *portaudio.Stream
	channels int
	out      []int16
}

func (s *PortAudioSink) Open(ctx context.Context, sampleRate, channels, bits int) (SinkHandle, error) {
	if bits != 16 {
		return nil, ErrUnsupportedSampleFormat
	}
	const framesPerBuffer = 256
	h := &portaudioHandle{channels: channels, out: make([]int16, framesPerBuffer*channels)}
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), framesPerBuffer, h.out)
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

// Write interleaved 16-bit PCM, one portaudio buffer at a time.
func (s *PortAudioSink) Write(handle SinkHandle, buf []byte) (int, error) {
	h := handle.(*portaudioHandle)
	frameBytes := len(h.out) * 2
	written := 0
	for len(buf) > 0 {
		chunk := buf
		if len(chunk) > frameBytes {
			chunk = chunk[:frameBytes]
		}
		n := len(chunk) / 2
		for i := 0; i < n; i++ {
			h.out[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
		}
		for i := n; i < len(h.out); i++ {
			h.out[i] = 0
		}
		if err := h.stream.Write(); err != nil {
			return written, err
		}
		written += n * 2
		buf = buf[n*2:]
	}
	return written, nil
}

func (s *PortAudioSink) Close(handle SinkHandle) error {
	h := handle.(*portaudioHandle)
	if err := h.stream.Stop(); err != nil {
		h.stream.Close()
		return err
	}
	return h.stream.Close()
}
