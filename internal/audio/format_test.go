package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"mp3", "wav", "opus", "flac"} {
		f, ok := ParseFormat(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, string(f))
	}

	f, ok := ParseFormat("  WAV ")
	assert.True(t, ok)
	assert.Equal(t, FormatWAV, f)

	_, ok = ParseFormat("ogg")
	assert.False(t, ok)
	_, ok = ParseFormat("")
	assert.False(t, ok)
}

func TestMIME(t *testing.T) {
	assert.Equal(t, "audio/mpeg", FormatMP3.MIME())
	assert.Equal(t, "audio/wav", FormatWAV.MIME())
	assert.Equal(t, "audio/opus", FormatOpus.MIME())
	assert.Equal(t, "audio/flac", FormatFLAC.MIME())
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, ".mp3", FormatMP3.Suffix())
	assert.Equal(t, ".flac", FormatFLAC.Suffix())
	assert.Equal(t, ".mp3", Format("").Suffix())
}
