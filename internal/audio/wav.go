package audio

import (
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// EncodeWAVPCM16LE wraps raw mono PCM16LE samples in a WAV container.
// The gateway never re-encodes backend audio; this exists for building
// playable fixtures and tooling output.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm length %d is not 16-bit sample aligned", len(pcm))
	}

	const (
		numChannels   = 1
		bitsPerSample = 16
		pcmFormat     = 1
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	out := make([]byte, wavHeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(wavHeaderSize-8+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(out[22:24], numChannels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)
	return out, nil
}
