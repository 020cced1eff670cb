package speech

import "bytes"

// Format identifies an audio container detected from magic bytes.
type Format string

const (
	FormatOgg     Format = "ogg"
	FormatWav     Format = "wav"
	FormatMp3     Format = "mp3"
	FormatM4a     Format = "m4a"
	FormatFlac    Format = "flac"
	FormatWebm    Format = "webm"
	FormatUnknown Format = "unknown"
)

// Extension returns the file extension used when uploading for transcription.
// Unknown payloads are submitted as ogg since WhatsApp voice notes are
// Opus-in-Ogg.
func (f Format) Extension() string {
	if f == FormatUnknown {
		return "ogg"
	}
	return string(f)
}

// MIMEType returns the content type for the container.
func (f Format) MIMEType() string {
	switch f {
	case FormatOgg:
		return "audio/ogg"
	case FormatWav:
		return "audio/wav"
	case FormatMp3:
		return "audio/mpeg"
	case FormatM4a:
		return "audio/mp4"
	case FormatFlac:
		return "audio/flac"
	case FormatWebm:
		return "audio/webm"
	}
	return "audio/ogg"
}

// DetectFormat sniffs the audio container from its leading magic bytes.
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch {
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWav
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMp3
	case data[0] == 0xFF && (data[1]&0xE0) == 0xE0:
		return FormatMp3
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatM4a
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFlac
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebm
	}
	return FormatUnknown
}
