package synth_test

import (
	"errors"
	"math"
	"testing"

	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/synth"
)

func majorTetrachord(t *testing.T, root int) tetrachord.Scale {
	t.Helper()
	scale, err := tetrachord.NewScale(tetrachord.Tuning{Equave: 2, Divisions: 12}, tetrachord.IntervalSet{2, 2, 1, 2}, root)
	if err != nil {
		t.Fatalf("NewScale failed: %v", err)
	}
	return scale
}

func peak(buffer tetrachord.AudioBuffer) float32 {
	var ret float32
	for _, s := range buffer {
		ret = max(ret, float32(math.Abs(float64(s[0]))))
	}
	return ret
}

func TestArpeggio(t *testing.T) {
	events := synth.Arpeggio(majorTetrachord(t, 60), 0.5)
	if len(events) != 5 {
		t.Fatalf("%v events, want 5", len(events))
	}
	for i, e := range events {
		if e.Degree != i+1 || e.Time != float64(i)*0.5 || e.Length != 0.5 {
			t.Errorf("event %v = %+v", i, e)
		}
	}
}

func TestRenderLength(t *testing.T) {
	scale := majorTetrachord(t, 60)
	for _, timbre := range synth.Names() {
		t.Run(timbre, func(t *testing.T) {
			opts := synth.DefaultOptions()
			opts.Timbre = timbre
			buffer, err := synth.Render(scale, synth.Arpeggio(scale, 0.5), opts)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			// the last note starts at 2 s, is held for 0.5 s and released for 0.7 s
			if want := int(math.Round(3.2 * tetrachord.SampleRate)); len(buffer) != want {
				t.Errorf("rendered %v frames, want %v", len(buffer), want)
			}
			if p := peak(buffer); p <= 0 || p > 1 {
				t.Errorf("peak %v outside (0, 1]", p)
			}
			if buffer[1000][0] != buffer[1000][1] {
				t.Error("left and right channels differ")
			}
		})
	}
}

func TestRenderRelease(t *testing.T) {
	scale := majorTetrachord(t, 60)
	opts := synth.DefaultOptions()
	opts.Timbre = "sine"
	buffer, err := synth.Render(scale, []synth.Event{{Degree: 1, Length: 0.5, Velocity: 1}}, opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	held := peak(buffer[:tetrachord.SampleRate/2])
	tail := peak(buffer[len(buffer)-tetrachord.SampleRate/100:])
	if tail > held/200 {
		t.Errorf("release tail peaks at %v, held note at %v", tail, held)
	}
}

func TestRenderRetrigger(t *testing.T) {
	scale := majorTetrachord(t, 60)
	events := []synth.Event{
		{Time: 0, Degree: 3, Length: 1, Velocity: 1},
		{Time: 0.1, Degree: 3, Length: 1, Velocity: 1},
	}
	buffer, err := synth.Render(scale, events, synth.DefaultOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if want := int(math.Round(1.8 * tetrachord.SampleRate)); len(buffer) != want {
		t.Errorf("rendered %v frames, want %v", len(buffer), want)
	}
}

func TestRenderFrequency(t *testing.T) {
	scale := tetrachord.Scale{Root: 69, Degrees: []tetrachord.Degree{{Ratio: 1, Pitch: 69, Speed: 1}}}
	opts := synth.Options{Timbre: "sine", Gain: 1}
	buffer, err := synth.Render(scale, []synth.Event{{Degree: 1, Length: 1, Velocity: 1}}, opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(buffer) != tetrachord.SampleRate {
		t.Fatalf("rendered %v frames, want one second", len(buffer))
	}
	crossings := 0
	for i := 1; i < len(buffer); i++ {
		if buffer[i-1][0] < 0 && buffer[i][0] >= 0 {
			crossings++
		}
	}
	if crossings < 438 || crossings > 441 {
		t.Errorf("%v upward zero crossings in a second of A4, want about 440", crossings)
	}
}

func TestRenderErrors(t *testing.T) {
	scale := majorTetrachord(t, 60)
	unknown := synth.DefaultOptions()
	unknown.Timbre = "theremin"
	if _, err := synth.Render(scale, nil, unknown); !errors.Is(err, synth.ErrUnknownTimbre) {
		t.Errorf("error = %v, want ErrUnknownTimbre", err)
	}
	if _, err := synth.Render(scale, []synth.Event{{Degree: 6, Length: 1}}, synth.DefaultOptions()); err == nil {
		t.Error("expected an error for degree 6 of a tetrachord")
	}
	if _, err := synth.Render(scale, []synth.Event{{Degree: 1, Time: -1}}, synth.DefaultOptions()); err == nil {
		t.Error("expected an error for a negative time")
	}
	negative := synth.DefaultOptions()
	negative.Release = -0.1
	if _, err := synth.Render(scale, nil, negative); err == nil {
		t.Error("expected an error for a negative release")
	}
}

func TestOptionsFor(t *testing.T) {
	preset := tetrachord.DefaultPreset()
	preset.Instrument = "organ"
	preset.Release = 0.2
	if opts := synth.OptionsFor(preset); opts.Timbre != "organ" || opts.Release != 0.2 {
		t.Errorf("OptionsFor() = %+v", opts)
	}
}

func TestDisplayName(t *testing.T) {
	for name, want := range map[string]string{"dulcimer": "Dulcimer", "clavinet": "Clavinet", "sine": "Sine"} {
		if got := synth.DisplayName(name); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", name, got, want)
		}
	}
}
