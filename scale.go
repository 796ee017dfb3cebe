package tetrachord

import "fmt"

type (
	// Degree is one playable note of a scale. Pitch is the note a sample
	// would be picked for and Speed the playback rate that tunes the sample
	// to Ratio.
	Degree struct {
		Steps int     `json:"steps"`
		Ratio float64 `json:"ratio"`
		Pitch int     `json:"pitch"`
		Speed float64 `json:"speed"`
	}

	Scale struct {
		Root    int      `json:"root"`
		Degrees []Degree `json:"degrees"`
	}
)

// NewScale accumulates the intervals from the root: the first degree is the
// root itself, the last one the fifth.
func NewScale(t Tuning, intervals IntervalSet, root int) (Scale, error) {
	if err := t.Validate(); err != nil {
		return Scale{}, err
	}
	degrees := make([]Degree, len(intervals)+1)
	degrees[0] = Degree{Ratio: 1, Pitch: root, Speed: 1}
	steps := 0
	for i, interval := range intervals {
		steps += interval
		ratio := t.StepsToRatio(steps)
		pitch := RatioToPitchIndex(ratio, root)
		degrees[i+1] = Degree{
			Steps: steps,
			Ratio: ratio,
			Pitch: pitch,
			Speed: RatioToPlaybackSpeed(ratio, pitch, root),
		}
	}
	return Scale{Root: root, Degrees: degrees}, nil
}

// Multiples returns the frequency ratio of every degree from the root.
func (s Scale) Multiples() []float64 {
	ret := make([]float64, len(s.Degrees))
	for i, d := range s.Degrees {
		ret[i] = d.Ratio
	}
	return ret
}

// Degree returns the one based scale degree, as played from the keyboard.
func (s Scale) Degree(scaleDegree int) (Degree, error) {
	if scaleDegree < 1 || scaleDegree > len(s.Degrees) {
		return Degree{}, fmt.Errorf("scale degree should be between 1 and %v, got %v", len(s.Degrees), scaleDegree)
	}
	return s.Degrees[scaleDegree-1], nil
}

// Frequency returns the sounding frequency of a degree in Hz.
func (d Degree) Frequency() float64 {
	return PitchFrequency(d.Pitch) * d.Speed
}

func (d Degree) NoteName() string {
	return NoteName(d.Pitch)
}
