package oto

import (
	"encoding/binary"
	"math"

	"github.com/microtonal/tetrachord"
)

// FloatBufferToBytes appends the buffer to dst as interleaved little-endian
// float32 samples, the format the oto context is opened with.
func FloatBufferToBytes(buffer tetrachord.AudioBuffer, dst []byte) []byte {
	for _, frame := range buffer {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(frame[0]))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(frame[1]))
	}
	return dst
}
