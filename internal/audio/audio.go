package audio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Frame is one chunk of raw audio on its way into a session.
type Frame struct {
	Data      []byte
	Timestamp time.Time
}

// PCM format accepted at the session boundary: 16kHz mono signed
// 16-bit little endian.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
)

// ToWAV wraps raw PCM audio in a RIFF/WAVE header so batch
// transcription services accept it as a file upload.
func ToWAV(rawAudio []byte) []byte {
	var buf bytes.Buffer

	const byteRate = SampleRate * Channels * BitsPerSample / 8
	const blockAlign = Channels * BitsPerSample / 8

	dataSize := len(rawAudio)
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))            // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))             // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(Channels))      // number of channels
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))    // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))      // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))    // block align
	binary.Write(&buf, binary.LittleEndian, uint16(BitsPerSample)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(rawAudio)

	return buf.Bytes()
}
