package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	WAV/RIFF container parser (§4.2). Parses RIFF/WAVE/fmt/
 *		fact/LIST/PEAK/data chunks, validates PCM/ADPCM/IEEE/
 *		DVI-ADPCM formats, and stores the entire header blob so it
 *		can be replayed to a streaming decoder that re-parses it.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
)

const (
	wavFormatPCM       = 1
	wavFormatADPCM     = 2
	wavFormatIEEEFloat = 3
	wavFormatDVIADPCM  = 17
)

// WAVExtractor parses the RIFF container. HeaderBlob is populated with
// the raw bytes from offset 0 through the start of `data`'s payload, for
// decoders that replay the header to a streaming library.
type WAVExtractor struct {
	HeaderBlob []byte
}

func (x *WAVExtractor) Extract(fetch Fetch, info *CodecInfo) error {
	riff := make([]byte, 12)
	n, err := fetch(riff, 0)
	if err != nil || n < 12 {
		return ErrIndataUnderflow
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return ErrInvalidHeader
	}

	var (
		gotFmt                        bool
		channels, sampleRate, bits    int
		blockAlign, byteRate, format  int
		dataOffset, dataLen           int64
	)

	off := int64(12)
	const maxHeaderScan = 1 << 20
	for off < maxHeaderScan {
		chunkHeader := make([]byte, 8)
		if n, err := fetch(chunkHeader, off); err != nil || n < 8 {
			return ErrInvalidHeader
		}
		id := string(chunkHeader[0:4])
		size := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		payloadOff := off + 8

		switch id {
		case "fmt ":
			fmtBuf := make([]byte, size)
			if n, err := fetch(fmtBuf, payloadOff); err != nil || int64(n) < size {
				return ErrIndataUnderflow
			}
			if size < 16 {
				return ErrInvalidHeader
			}
			format = int(binary.LittleEndian.Uint16(fmtBuf[0:2]))
			channels = int(binary.LittleEndian.Uint16(fmtBuf[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtBuf[4:8]))
			byteRate = int(binary.LittleEndian.Uint32(fmtBuf[8:12]))
			blockAlign = int(binary.LittleEndian.Uint16(fmtBuf[12:14]))
			bits = int(binary.LittleEndian.Uint16(fmtBuf[14:16]))
			gotFmt = true

		case "data":
			dataOffset = payloadOff
			dataLen = size
			// The data chunk is normally last in the header region we
			// care about; stop scanning once we have both fmt and data.
			if gotFmt {
				goto validate
			}
		}

		off = payloadOff + size
		if size%2 == 1 {
			off++ // chunks are word-aligned
		}
	}
	return ErrInvalidHeader

validate:
	switch format {
	case wavFormatPCM, wavFormatADPCM, wavFormatIEEEFloat, wavFormatDVIADPCM:
	default:
		return ErrUnsupported
	}
	if channels <= 0 || channels > 8 {
		return ErrUnsupported
	}
	if blockAlign != bits*channels/8 {
		return ErrInvalidHeader
	}
	if byteRate != blockAlign*sampleRate {
		return ErrInvalidHeader
	}
	if dataOffset < 44 {
		return ErrInvalidHeader
	}

	info.Kind = CodecWAV
	info.SampleRate = sampleRate
	info.Channels = channels
	info.Bits = bits
	info.ContentOffset = dataOffset
	info.ContentLength = dataLen
	info.BytesPerSecond = byteRate
	info.deriveDurationFromBytesPerSecond()

	blob := make([]byte, dataOffset)
	if n, err := fetch(blob, 0); err != nil || int64(n) < dataOffset {
		return ErrIndataUnderflow
	}
	x.HeaderBlob = blob
	info.HeaderBlob = blob
	return nil
}
