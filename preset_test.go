package tetrachord_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/ratio"
	"gopkg.in/yaml.v3"
)

func TestPresetFiles(t *testing.T) {
	tests := []struct {
		file           string
		wantIntervals  tetrachord.IntervalSet
		wantPitches    []int
		wantInstrument string
		wantMinDen     uint64
	}{
		{"quartertone.yml", tetrachord.IntervalSet{3, 3, 6, 2}, []int{57, 59, 60, 63, 64}, "organ", tetrachord.DefaultMinDenominator},
		{"bohlen-pierce.json", tetrachord.IntervalSet{4, 3, 2, 3}, []int{60, 66, 71, 74, 78}, tetrachord.DefaultInstrument, 12},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join("testdata", tt.file))
			if err != nil {
				t.Fatalf("cannot read preset: %v", err)
			}
			preset, err := tetrachord.ParsePreset(b)
			if err != nil {
				t.Fatalf("ParsePreset failed: %v", err)
			}
			if preset.Instrument != tt.wantInstrument {
				t.Errorf("instrument = %q, want %q", preset.Instrument, tt.wantInstrument)
			}
			if preset.MinDenominator != tt.wantMinDen {
				t.Errorf("min denominator = %v, want %v", preset.MinDenominator, tt.wantMinDen)
			}
			if preset.Release != tetrachord.DefaultRelease {
				t.Errorf("release = %v, want the default %v", preset.Release, tetrachord.DefaultRelease)
			}
			tc, scale, err := preset.Scale()
			if err != nil {
				t.Fatalf("Scale failed: %v", err)
			}
			if tc.Intervals != tt.wantIntervals {
				t.Errorf("intervals = %v, want %v", tc.Intervals, tt.wantIntervals)
			}
			pitches := make([]int, len(scale.Degrees))
			for i, d := range scale.Degrees {
				pitches[i] = d.Pitch
			}
			if !reflect.DeepEqual(pitches, tt.wantPitches) {
				t.Errorf("pitches = %v, want %v", pitches, tt.wantPitches)
			}
		})
	}
}

func TestDefaultPreset(t *testing.T) {
	preset := tetrachord.DefaultPreset()
	if err := preset.Validate(); err != nil {
		t.Fatalf("default preset does not validate: %v", err)
	}
	tc, err := preset.Tetrachord()
	if err != nil {
		t.Fatalf("Tetrachord failed: %v", err)
	}
	if want := (tetrachord.IntervalSet{2, 2, 1, 2}); tc.Intervals != want {
		t.Errorf("default intervals = %v, want %v", tc.Intervals, want)
	}
}

func TestParsePresetErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		is    error
	}{
		{"garbage", "equave: [", tetrachord.ErrMalformedPreset},
		{"scalar", "just a string", tetrachord.ErrMalformedPreset},
		{"flat equave", `{"equave": 1, "divisions": 12}`, tetrachord.ErrInvalidTuning},
		{"no divisions", "divisions: 0", tetrachord.ErrInvalidTuning},
		{"order", "order: 6", tetrachord.ErrInvalidOrder},
		{"too coarse", "divisions: 5", tetrachord.ErrTooCoarse},
		{"root note", "rootNote: 200", nil},
		{"proportions", "proportions: {fourth: 1.5}", nil},
		{"release", "release: -1", nil},
		{"min denominator above the ceiling", "minDenominator: 1000000000000", ratio.ErrInvalidDenominator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset, err := tetrachord.ParsePreset([]byte(tt.input))
			if err == nil {
				// coarse tunings parse but cannot be derived
				_, err = preset.Tetrachord()
			}
			if err == nil {
				t.Fatalf("expected an error for %q", tt.input)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestPresetYamlRoundTrip(t *testing.T) {
	preset := tetrachord.DefaultPreset()
	preset.Proportions = &tetrachord.Proportions{Fourth: 0.25, Big: 1, Mid: 0.5}
	preset.Divisions = 31
	b, err := yaml.Marshal(preset)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	parsed, err := tetrachord.ParsePreset(b)
	if err != nil {
		t.Fatalf("ParsePreset failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, preset) {
		t.Errorf("parsed preset %+v differs from the marshaled %+v", parsed, preset)
	}
}

func TestPresetCopy(t *testing.T) {
	preset := tetrachord.DefaultPreset()
	preset.Proportions = &tetrachord.Proportions{Fourth: 0.5}
	c := preset.Copy()
	c.Proportions.Fourth = 1
	if preset.Proportions.Fourth != 0.5 {
		t.Error("modifying the copy changed the original proportions")
	}
}
