package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVPCM16LEProducesRIFFHeader(t *testing.T) {
	pcm := bytes.Repeat([]byte{0x01, 0x02}, 256)

	wav, err := EncodeWAVPCM16LE(pcm, 16000)
	require.NoError(t, err)
	require.Len(t, wav, wavHeaderSize+len(pcm))

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "audio format should be PCM")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "mono")
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[wavHeaderSize:])
}

func TestEncodeWAVPCM16LEDefaultsSampleRate(t *testing.T) {
	wav, err := EncodeWAVPCM16LE([]byte{0x00, 0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
}

func TestEncodeWAVPCM16LERejectsOddLength(t *testing.T) {
	_, err := EncodeWAVPCM16LE([]byte{0x01, 0x02, 0x03}, 16000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aligned")
}
