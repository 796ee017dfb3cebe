package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/microtonal/tetrachord"
)

type (
	OtoContext struct {
		context *oto.Context
	}

	OtoPlayer struct {
		player *oto.Player
	}

	// sourceReader adapts an AudioSource to the io.Reader oto pulls bytes
	// from.
	sourceReader struct {
		source  tetrachord.AudioSource
		buffer  tetrachord.AudioBuffer
		bytes   []byte
		pending []byte
		err     error
	}
)

const otoBufferSize = 100 * time.Millisecond

// how often Wait checks if the player has drained
const pollInterval = 10 * time.Millisecond

// NewContext opens the audio device. Only one context can exist per process.
func NewContext() (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   tetrachord.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context}, nil
}

// Play starts playing the source in the background.
func (c *OtoContext) Play(source tetrachord.AudioSource) tetrachord.CloserWaiter {
	player := c.context.NewPlayer(NewReader(source))
	player.Play()
	return &OtoPlayer{player: player}
}

// Close suspends the device; oto contexts cannot be disposed of.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Wait blocks until the source is exhausted and everything it gave has been
// played.
func (p *OtoPlayer) Wait() {
	for p.player.IsPlaying() {
		time.Sleep(pollInterval)
	}
}

// Close stops the player and reports any error it ran into while playing.
// oto players are released by the garbage collector.
func (p *OtoPlayer) Close() error {
	p.player.Pause()
	if err := p.player.Err(); err != nil {
		return fmt.Errorf("oto player failed: %w", err)
	}
	return nil
}

// NewReader returns the source as a stream of float32 little-endian stereo
// bytes. The error of the source, typically io.EOF, is returned once the
// bytes read before it have been consumed.
func NewReader(source tetrachord.AudioSource) io.Reader {
	return &sourceReader{source: source}
}

func (r *sourceReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		frames := max(len(p)/8, 1)
		if cap(r.buffer) < frames {
			r.buffer = make(tetrachord.AudioBuffer, frames)
		}
		n, err := r.source.ReadAudio(r.buffer[:frames])
		r.bytes = FloatBufferToBytes(r.buffer[:n], r.bytes[:0])
		r.pending = r.bytes
		r.err = err
		if n == 0 && err == nil {
			return 0, nil
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
