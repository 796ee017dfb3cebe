package tetrachord

import "io"

// SampleRate of all rendered and played audio, in Hz.
const SampleRate = 44100

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length,
	// each sample represented by [2]float32. [0] is left channel, [1] is
	// right.
	AudioBuffer [][2]float32

	AudioSource interface {
		ReadAudio(buffer AudioBuffer) (n int, err error)
	}

	AudioContext interface {
		Play(r AudioSource) CloserWaiter
		Close() error
	}

	CloserWaiter interface {
		Close() error
		Wait()
	}

	bufferSource struct {
		buffer AudioBuffer
		pos    int
	}
)

// Source returns an AudioSource that reads the buffer from the start; io.EOF
// is returned once the buffer is exhausted.
func (b AudioBuffer) Source() AudioSource {
	return &bufferSource{buffer: b}
}

func (s *bufferSource) ReadAudio(buffer AudioBuffer) (int, error) {
	if s.pos >= len(s.buffer) {
		return 0, io.EOF
	}
	n := copy(buffer, s.buffer[s.pos:])
	s.pos += n
	return n, nil
}

// Duration returns the length of the buffer in seconds.
func (b AudioBuffer) Duration() float64 {
	return float64(len(b)) / SampleRate
}
