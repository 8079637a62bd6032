package geniesdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventCollector records every event a bus publishes, for assertions.
type eventCollector struct {
	events []Event
}

func (c *eventCollector) OnEvent(e Event) { c.events = append(c.events, e) }

func (c *eventCollector) infoEvents() []Event {
	var out []Event
	for _, e := range c.events {
		if e.Cmd == EvtReportInfo {
			out = append(out, e)
		}
	}
	return out
}

func TestMP3DecoderDecodesTwoFrames(t *testing.T) {
	frame1 := buildMP3Frame(128, 44100)
	frame2 := buildMP3Frame(128, 44100)

	input := NewRingbuf(8192, 0)
	output := NewRingbuf(65536, 0)
	info := &CodecInfo{Kind: CodecMP3, SampleRate: 44100, Channels: 2, Bits: 16}

	elem := NewElement("mp3-decoder", nil)
	dec := NewMP3Decoder(elem, input, output, info, &ReferenceMP3DSP{})
	elem.ops = dec

	collector := &eventCollector{}
	elem.Bus.Subscribe(collector)

	require.NoError(t, elem.Run())

	go func() {
		input.Write(frame1, time.Second)
		input.Write(frame2, time.Second)
		input.SetDone()
	}()

	require.Eventually(t, func() bool {
		return output.Filled() >= 1152*2*2
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return len(collector.infoEvents()) == 1 }, time.Second, 5*time.Millisecond)

	elem.Stop()
	elem.WaitForStopMs(time.Second)
}

func TestAACDecoderFatalAfterFourFailures(t *testing.T) {
	input := NewRingbuf(8192, 0)
	output := NewRingbuf(65536, 0)
	info := &CodecInfo{Kind: CodecAAC, SampleRate: 44100, Channels: 2, Bits: 16}

	// alwaysFailDSP always fails Decode, to exercise the 4-consecutive
	// failure threshold without needing real corrupt ADTS bytes.
	dec := &AACDecoder{decoderBase: newDecoderBase(input, output, info, &alwaysFailDSP{})}

	elem := NewElement("aac-decoder", nil)
	dec.elem = elem
	elem.ops = dec

	require.NoError(t, elem.Run())

	// FrameLen == 7 (header-only, no payload bytes) so each write is a
	// complete frame with no cross-frame byte borrowing.
	validFrame := []byte{0xFF, 0xF1, 0x4C, 0x80, 0x00, 0xE0, 0x00}
	go func() {
		for i := 0; i < 6; i++ {
			input.Write(validFrame, time.Second)
		}
	}()

	require.Eventually(t, func() bool {
		return elem.State() == StateError
	}, 2*time.Second, 5*time.Millisecond)
}

type alwaysFailDSP struct{}

func (alwaysFailDSP) Init(*CodecInfo) error         { return nil }
func (alwaysFailDSP) Reset() error                  { return nil }
func (alwaysFailDSP) Close() error                  { return nil }
func (alwaysFailDSP) Decode([]byte) ([]byte, error) { return nil, ErrInvalidHeader }

func TestWAVDecoderSeedsHeaderThenStreamsPCM(t *testing.T) {
	data := buildWAVFile(t, 16000, 1, 16, 3200)
	info := &CodecInfo{Kind: CodecWAV, SampleRate: 16000, Channels: 1, Bits: 16, HeaderBlob: data[:44]}

	input := NewRingbuf(8192, 0)
	output := NewRingbuf(65536, 0)

	elem := NewElement("wav-decoder", nil)
	dec := NewWAVDecoder(elem, input, output, info, &ReferenceWAVDSP{})
	elem.ops = dec

	require.NoError(t, elem.Run())

	pcm := data[44:]
	go func() {
		input.Write(pcm, time.Second)
		input.SetDone()
	}()

	require.Eventually(t, func() bool {
		return output.Filled() >= len(pcm)-dec.frameBytes
	}, 2*time.Second, 5*time.Millisecond)

	elem.Stop()
	elem.WaitForStopMs(time.Second)
}

func TestM4ADecoderReadsExactSampleSizeChunks(t *testing.T) {
	info := &CodecInfo{
		Kind: CodecM4A, SampleRate: 44100, Channels: 2, Bits: 16,
		Tables: M4ASampleTables{FrameSize: []uint32{50, 60, 70}},
	}
	input := NewRingbuf(8192, 0)
	output := NewRingbuf(65536, 0)

	elem := NewElement("m4a-decoder", nil)
	dec := NewM4ADecoder(elem, input, output, info, &ReferenceM4ADSP{})
	elem.ops = dec

	require.NoError(t, elem.Run())

	go func() {
		input.Write(make([]byte, 50), time.Second)
		input.Write(make([]byte, 60), time.Second)
		input.Write(make([]byte, 70), time.Second)
		input.SetDone()
	}()

	require.Eventually(t, func() bool {
		return elem.State() == StateFinished
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 3*1024*2*2, output.Filled())
}

func TestM4ADecoderPrepareSeekRepositionsCursor(t *testing.T) {
	info := &CodecInfo{Tables: M4ASampleTables{FrameSize: []uint32{50, 60, 70}}}
	input := NewRingbuf(8192, 0)
	output := NewRingbuf(65536, 0)
	elem := NewElement("m4a-decoder-seek", nil)
	dec := NewM4ADecoder(elem, input, output, info, &ReferenceM4ADSP{})
	elem.ops = dec

	require.NoError(t, dec.PrepareSeek(2))
	assert.Equal(t, 2, dec.sampleIndex)
	size, ok := dec.sampleSize(dec.sampleIndex)
	require.True(t, ok)
	assert.Equal(t, 70, size)
}
