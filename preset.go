package tetrachord

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/microtonal/tetrachord/ratio"
	"gopkg.in/yaml.v3"
)

// ErrMalformedPreset is returned when a preset is neither valid .json nor
// .yml.
var ErrMalformedPreset = errors.New("malformed preset")

// Preset is everything needed to recreate a tetrachord and play it back, as
// stored in .yml or .json files.
type Preset struct {
	Equave         float64      `yaml:"equave" json:"equave"`
	Divisions      int          `yaml:"divisions" json:"divisions"`
	Proportions    *Proportions `yaml:"proportions,omitempty,flow" json:"proportions,omitempty"`
	Order          int          `yaml:"order" json:"order"`
	RootNote       int          `yaml:"rootNote" json:"rootNote"`
	Instrument     string       `yaml:"instrument,omitempty" json:"instrument,omitempty"`
	MinDenominator uint64       `yaml:"minDenominator,omitempty" json:"minDenominator,omitempty"`
	Release        float64      `yaml:"release,omitempty" json:"release,omitempty"`       // seconds
	NoteLength     float64      `yaml:"noteLength,omitempty" json:"noteLength,omitempty"` // seconds
}

const (
	DefaultInstrument     = "dulcimer"
	DefaultMinDenominator = 8
	DefaultRelease        = 0.7
	DefaultNoteLength     = 0.5
	// DefaultOrder puts the intervals from big to small.
	DefaultOrder = 2
)

func DefaultPreset() Preset {
	return Preset{
		Equave:         2,
		Divisions:      12,
		Order:          DefaultOrder,
		RootNote:       DefaultRootNote,
		Instrument:     DefaultInstrument,
		MinDenominator: DefaultMinDenominator,
		Release:        DefaultRelease,
		NoteLength:     DefaultNoteLength,
	}
}

// ParsePreset reads a preset as .json or, failing that, as .yml. Fields
// missing from the input are taken from DefaultPreset.
func ParsePreset(b []byte) (Preset, error) {
	preset := DefaultPreset()
	if errJSON := json.Unmarshal(b, &preset); errJSON != nil {
		preset = DefaultPreset()
		if errYaml := yaml.Unmarshal(b, &preset); errYaml != nil {
			return Preset{}, fmt.Errorf("%w: could not be unmarshaled as a .json (%v) or .yml (%v)", ErrMalformedPreset, errJSON, errYaml)
		}
	}
	if err := preset.Validate(); err != nil {
		return Preset{}, err
	}
	return preset, nil
}

func (p *Preset) Tuning() Tuning {
	return Tuning{Equave: p.Equave, Divisions: p.Divisions}
}

func (p *Preset) Validate() error {
	if err := p.Tuning().Validate(); err != nil {
		return err
	}
	if p.Order < 0 || p.Order >= len(Permutations) {
		return fmt.Errorf("%w, got %v", ErrInvalidOrder, p.Order)
	}
	if p.RootNote < 0 || p.RootNote > MaxPitchIndex {
		return fmt.Errorf("root note should be between 0 and %v, got %v", MaxPitchIndex, p.RootNote)
	}
	if p.Proportions != nil {
		for _, v := range []float64{p.Proportions.Fourth, p.Proportions.Big, p.Proportions.Mid} {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return errors.New("proportions should be between 0 and 1")
			}
		}
	}
	if p.MinDenominator > ratio.MaxDenominator {
		return fmt.Errorf("%w: min denominator %v, should be at most %v", ratio.ErrInvalidDenominator, p.MinDenominator, ratio.MaxDenominator)
	}
	if p.Release < 0 || p.NoteLength < 0 {
		return errors.New("release and note length cannot be negative")
	}
	return nil
}

func (p *Preset) Copy() Preset {
	ret := *p
	if p.Proportions != nil {
		proportions := *p.Proportions
		ret.Proportions = &proportions
	}
	return ret
}

// Tetrachord derives the tetrachord of the preset. Presets without
// proportions get the default slider positions; otherwise the proportions
// are applied as if the sliders were moved from their default bounds.
func (p *Preset) Tetrachord() (Tetrachord, error) {
	t := p.Tuning()
	tc, err := DeriveIntervals(t, Proportions{}, p.Order, nil)
	if err != nil || p.Proportions == nil {
		return tc, err
	}
	return DeriveIntervals(t, *p.Proportions, p.Order, &tc.Bounds)
}

// Scale derives the tetrachord and maps it to notes from the root note.
func (p *Preset) Scale() (Tetrachord, Scale, error) {
	tc, err := p.Tetrachord()
	if err != nil {
		return Tetrachord{}, Scale{}, err
	}
	scale, err := NewScale(p.Tuning(), tc.Intervals, p.RootNote)
	if err != nil {
		return Tetrachord{}, Scale{}, err
	}
	return tc, scale, nil
}
