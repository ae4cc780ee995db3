package audio

import "strings"

// Format identifies the container format of a synthesized audio payload.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatOpus Format = "opus"
	FormatFLAC Format = "flac"
)

var formats = []Format{FormatMP3, FormatWAV, FormatOpus, FormatFLAC}

// ParseFormat maps a response_format value to a known Format.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range formats {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// Formats lists every supported format value.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, string(f))
	}
	return out
}

// MIME returns the Content-Type served for audio in this format.
func (f Format) MIME() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatOpus:
		return "audio/opus"
	case FormatFLAC:
		return "audio/flac"
	default:
		return "audio/mpeg"
	}
}

// Suffix returns the file suffix used for request-scoped temp files.
func (f Format) Suffix() string {
	if f == "" {
		return ".mp3"
	}
	return "." + string(f)
}
