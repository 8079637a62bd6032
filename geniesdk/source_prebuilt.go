package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The `prebuilt` source adapter (§6): compiled-in MP3 blobs for
 *		the device's own status tones (WAKEUP_REMIND, RECORD_REMIND,
 *		NETWORK_DISCONNECTED, SERVER_DISCONNECTED,
 *		ACCOUNT_UNAUTHORIZED). Built on top of StaticSource so the
 *		player drives it exactly like any other in-memory source.
 *
 *------------------------------------------------------------------*/

// PrebuiltSound names one of the device's compiled-in status tones.
type PrebuiltSound string

const (
	PrebuiltWakeupRemind         PrebuiltSound = "WAKEUP_REMIND"
	PrebuiltRecordRemind         PrebuiltSound = "RECORD_REMIND"
	PrebuiltNetworkDisconnected  PrebuiltSound = "NETWORK_DISCONNECTED"
	PrebuiltServerDisconnected   PrebuiltSound = "SERVER_DISCONNECTED"
	PrebuiltAccountUnauthorized  PrebuiltSound = "ACCOUNT_UNAUTHORIZED"
)

// prebuiltURL maps a tone name to the URL its StaticSource blob is
// registered under.
func prebuiltURL(sound PrebuiltSound) string {
	return "prebuilt://" + string(sound)
}

// silentMP3Blob is a handful of repeated valid MPEG-1 Layer III, 44.1kHz
// stereo, 128kbps frames encoding silence: the same header shape validated
// by the MP3 extractor's frame scan (syncword, version 1, layer 3, no CRC,
// no padding). The extractor confirms a frame only once it finds a second
// consecutive header at the expected offset (§4.2's "two-header
// consistency check"), so a single frame isn't enough on its own. Real
// devices fill these in from recorded/rendered prompts at build time; this
// package ships a short repeated silent clip per tone until an asset
// pipeline replaces it.
var silentMP3Blob = func() []byte {
	const frameLen = 417 // 144*128000/44100 + 0 padding, floor
	frame := make([]byte, frameLen)
	frame[0] = 0xFF
	frame[1] = 0xFB // version 1, layer 3, no CRC
	frame[2] = 0x90 // bitrate index 9 (128kbps), sample rate index 0 (44100), no padding
	frame[3] = 0x04 // stereo, no mode extension, no copyright, original, emphasis none

	const frameCount = 4
	blob := make([]byte, 0, frameLen*frameCount)
	for i := 0; i < frameCount; i++ {
		blob = append(blob, frame...)
	}
	return blob
}()

// PrebuiltSource is the `prebuilt://` source adapter. NewPrebuiltSource
// pre-registers all five status tones against a shared StaticSource.
type PrebuiltSource struct {
	*StaticSource
}

func NewPrebuiltSource() *PrebuiltSource {
	s := &PrebuiltSource{StaticSource: NewStaticSource()}
	for _, sound := range []PrebuiltSound{
		PrebuiltWakeupRemind,
		PrebuiltRecordRemind,
		PrebuiltNetworkDisconnected,
		PrebuiltServerDisconnected,
		PrebuiltAccountUnauthorized,
	} {
		s.Register(prebuiltURL(sound), silentMP3Blob)
	}
	return s
}

func (*PrebuiltSource) Scheme() string { return "prebuilt" }

// URL returns the source URL for sound, for handing to the player/MediaParser.
func (*PrebuiltSource) URL(sound PrebuiltSound) string { return prebuiltURL(sound) }
