package tetrachord

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Wav encodes the buffer as a stereo WAV file. With pcm16 the samples are
// 16-bit signed integers, otherwise 32-bit IEEE floats.
func (b AudioBuffer) Wav(pcm16 bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.WriteWav(&buf, pcm16); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Raw returns the interleaved samples with no header.
func (b AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.writeSamples(&buf, pcm16); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWav writes the header and the samples of a WAV file to w. Float files
// get the extended fmt chunk and the fact chunk the format requires; see
// http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
func (b AudioBuffer) WriteWav(w io.Writer, pcm16 bool) error {
	const channels = 2
	formatTag, bytesPerSample, riffOverhead := uint16(3), 4, 50 // IEEE float
	if pcm16 {
		formatTag, bytesPerSample, riffOverhead = 1, 2, 36
	}
	samples := len(b) * channels
	dataSize := samples * bytesPerSample
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(riffOverhead + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16 + 2*boolToInt(!pcm16)),
		formatTag,
		uint16(channels),
		uint32(SampleRate),
		uint32(SampleRate * channels * bytesPerSample), // bytes per second
		uint16(channels * bytesPerSample),              // block align
		uint16(8 * bytesPerSample),
	}
	if !pcm16 {
		header = append(header,
			uint16(0), // no extension
			[4]byte{'f', 'a', 'c', 't'},
			uint32(4),
			uint32(samples),
		)
	}
	header = append(header, [4]byte{'d', 'a', 't', 'a'}, uint32(dataSize))
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("could not write wav header: %w", err)
		}
	}
	return b.writeSamples(w, pcm16)
}

func (b AudioBuffer) writeSamples(w io.Writer, pcm16 bool) error {
	var data any = b
	if pcm16 {
		ints := make([][2]int16, len(b))
		for i, frame := range b {
			ints[i] = [2]int16{toInt16(frame[0]), toInt16(frame[1])}
		}
		data = ints
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("could not write samples: %w", err)
	}
	return nil
}

// toInt16 scales and clips a sample; values beyond [-1, 1] saturate.
func toInt16(v float32) int16 {
	return int16(max(min(int(v*math.MaxInt16), math.MaxInt16), math.MinInt16))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
