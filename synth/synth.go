// Package synth renders scale degrees with simple additive timbres. It stands
// in for sampled instruments: each degree sounds at the pitch the scale maps
// it to, sped up or slowed down by the degree's playback speed.
package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/microtonal/tetrachord"
	"github.com/viterin/vek/vek32"
	"golang.org/x/exp/slices"
)

type (
	// Event plays a one based scale degree at Time for Length seconds, after
	// which the note is released.
	Event struct {
		Time     float64
		Degree   int
		Length   float64
		Velocity float32
	}

	Options struct {
		Timbre  string
		Release float64 // seconds from note off until the voice stops
		Gain    float32
	}

	voice struct {
		event     Event
		frequency float64
		stop      float64
	}
)

// releaseTimeConstants is how many time constants fit in the release: by the
// end the voice has decayed by 8 bits.
var releaseTimeConstants = math.Log(1 << 8)

func DefaultOptions() Options {
	return Options{Timbre: tetrachord.DefaultInstrument, Release: tetrachord.DefaultRelease, Gain: 0.5}
}

// OptionsFor picks the timbre and release of a preset.
func OptionsFor(p tetrachord.Preset) Options {
	ret := DefaultOptions()
	if p.Instrument != "" {
		ret.Timbre = p.Instrument
	}
	ret.Release = p.Release
	return ret
}

// Arpeggio plays every degree of the scale in turn, each held for noteLength
// seconds.
func Arpeggio(scale tetrachord.Scale, noteLength float64) []Event {
	ret := make([]Event, len(scale.Degrees))
	for i := range scale.Degrees {
		ret[i] = Event{Time: float64(i) * noteLength, Degree: i + 1, Length: noteLength, Velocity: 1}
	}
	return ret
}

// Render mixes the events into a stereo buffer that lasts until the last
// voice has been released. A new event on a degree that is still sounding
// cuts the previous voice of that degree.
func Render(scale tetrachord.Scale, events []Event, opts Options) (tetrachord.AudioBuffer, error) {
	timbre, err := Lookup(opts.Timbre)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(opts.Release) || opts.Release < 0 {
		return nil, fmt.Errorf("release should be >= 0, got %v", opts.Release)
	}
	voices, err := schedule(scale, events, opts.Release)
	if err != nil {
		return nil, err
	}
	var end float64
	for _, v := range voices {
		end = max(end, v.stop)
	}
	mix := make([]float32, frames(end))
	var osc, env []float32
	for _, v := range voices {
		start, stop := frames(v.event.Time), min(frames(v.stop), len(mix))
		if stop <= start {
			continue
		}
		osc = timbre.oscillate(osc, v.frequency, stop-start)
		env = envelope(env, timbre.Decay, v.event.Length, opts.Release, stop-start)
		vek32.Mul_Inplace(osc, env)
		vek32.MulNumber_Inplace(osc, opts.Gain*v.event.Velocity)
		vek32.Add_Inplace(mix[start:stop], osc)
	}
	ret := make(tetrachord.AudioBuffer, len(mix))
	for i, s := range mix {
		ret[i] = [2]float32{s, s}
	}
	return ret, nil
}

func schedule(scale tetrachord.Scale, events []Event, release float64) ([]voice, error) {
	voices := make([]voice, len(events))
	for i, e := range events {
		if math.IsNaN(e.Time) || e.Time < 0 || math.IsNaN(e.Length) || e.Length < 0 {
			return nil, fmt.Errorf("event %v: time and length should be >= 0, got %v and %v", i, e.Time, e.Length)
		}
		if math.IsInf(e.Time, 0) || math.IsInf(e.Length, 0) {
			return nil, errors.New("events should end in finite time")
		}
		d, err := scale.Degree(e.Degree)
		if err != nil {
			return nil, fmt.Errorf("event %v: %w", i, err)
		}
		voices[i] = voice{event: e, frequency: d.Frequency(), stop: e.Time + e.Length + release}
	}
	slices.SortStableFunc(voices, func(a, b voice) int {
		switch {
		case a.event.Time < b.event.Time:
			return -1
		case a.event.Time > b.event.Time:
			return 1
		}
		return 0
	})
	last := map[int]int{}
	for i, v := range voices {
		if j, ok := last[v.event.Degree]; ok && voices[j].stop > v.event.Time {
			voices[j].stop = v.event.Time
		}
		last[v.event.Degree] = i
	}
	return voices, nil
}

func (t Timbre) oscillate(buf []float32, frequency float64, length int) []float32 {
	buf = vek32.Zeros_Into(grow(buf, length), length)
	norm := t.norm()
	for h, amp := range t.Harmonics {
		f := frequency * float64(h+1)
		if amp == 0 || f >= tetrachord.SampleRate/2 {
			continue
		}
		w := 2 * math.Pi * f / tetrachord.SampleRate
		for i := range buf {
			buf[i] += amp * norm * float32(math.Sin(w*float64(i)))
		}
	}
	return buf
}

// envelope holds the note at full level (minus the natural decay of the
// timbre) for length seconds and then falls exponentially towards zero.
func envelope(buf []float32, decay, length, release float64, frameCount int) []float32 {
	buf = vek32.Zeros_Into(grow(buf, frameCount), frameCount)
	tau := release / releaseTimeConstants
	for i := range buf {
		t := float64(i) / tetrachord.SampleRate
		g := 1.0
		if decay > 0 {
			g = math.Exp(-t / decay)
		}
		if t >= length {
			if tau == 0 {
				break
			}
			g *= math.Exp(-(t - length) / tau)
		}
		buf[i] = float32(g)
	}
	return buf
}

func grow(buf []float32, length int) []float32 {
	if cap(buf) < length {
		return make([]float32, length)
	}
	return buf
}

func frames(seconds float64) int {
	return int(math.Round(seconds * tetrachord.SampleRate))
}
