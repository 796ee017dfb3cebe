package tetrachord

import (
	"fmt"
	"math"
)

type (
	// Range is the inclusive span of step counts a slider can select from.
	Range struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}

	// Bounds are the slider spans of a derivation. They are returned with
	// every Tetrachord so the next derivation can keep the slider positions
	// proportionally where the user left them.
	Bounds struct {
		Fourth Range `yaml:",flow" json:"fourth"`
		Big    Range `yaml:",flow" json:"big"`
		Mid    Range `yaml:",flow" json:"mid"`
	}

	// Proportions are slider positions between 0 (Range.Min) and 1
	// (Range.Max).
	Proportions struct {
		Fourth float64 `yaml:"fourth" json:"fourth"`
		Big    float64 `yaml:"big" json:"big"`
		Mid    float64 `yaml:"mid" json:"mid"`
	}

	// Permutation orders the big (0), mid (1) and small (2) intervals.
	Permutation [3]int

	// IntervalSet holds the three tetrachord intervals in playing order,
	// followed by the residual interval from the fourth up to the fifth.
	IntervalSet [4]int

	Tetrachord struct {
		Fifth            int         `json:"fifth"`
		Fourth           int         `json:"fourth"`
		Big              int         `json:"big"`
		Mid              int         `json:"mid"`
		Small            int         `json:"small"`
		SmallestInterval int         `json:"smallestInterval"`
		Order            int         `json:"order"`
		Intervals        IntervalSet `yaml:",flow" json:"intervals"`
		Bounds           Bounds      `json:"bounds"`
	}
)

// Permutations lists the selectable interval orders.
var Permutations = [...]Permutation{
	{1, 2, 0},
	{1, 0, 2},
	{0, 1, 2},
	{0, 2, 1},
	{2, 0, 1},
	{2, 1, 0},
}

// Value returns the step count at proportion p. A collapsed range always
// gives Min.
func (r Range) Value(p float64) int {
	if r.Max <= r.Min || math.IsNaN(p) {
		return r.Min
	}
	p = math.Max(math.Min(p, 1), 0)
	return int(math.Round(p*float64(r.Max-r.Min))) + r.Min
}

// Proportion is the inverse of Value. Values outside the range are clamped.
func (r Range) Proportion(value int) float64 {
	if r.Max <= r.Min {
		return 0
	}
	value = max(min(value, r.Max), r.Min)
	return float64(value-r.Min) / float64(r.Max-r.Min)
}

func (r Range) Clamp(value int) int {
	return max(min(value, r.Max), r.Min)
}

// Proportions measures absolute slider values against the bounds they were
// selected within.
func (b Bounds) Proportions(fourth, big, mid int) Proportions {
	return Proportions{
		Fourth: b.Fourth.Proportion(fourth),
		Big:    b.Big.Proportion(big),
		Mid:    b.Mid.Proportion(mid),
	}
}

// Apply orders the big, mid and small intervals.
func (p Permutation) Apply(big, mid, small int) [3]int {
	sorted := [3]int{big, mid, small}
	return [3]int{sorted[p[0]], sorted[p[1]], sorted[p[2]]}
}

// Sum returns the span of the tetrachord, i.e. the fourth.
func (s IntervalSet) Sum() int {
	return s[0] + s[1] + s[2]
}

func (s IntervalSet) Residual() int {
	return s[3]
}

// DeriveIntervals computes a tetrachord from slider proportions.
//
// Only whether prior is nil matters: the proportions are already relative to
// the bounds of the previous derivation, and Update is what measures absolute
// slider values against those bounds. When prior is nil the proportions are
// ignored and the sliders start from their defaults: the smallest fourth, a
// big interval as close to a 9:8 whole tone as the bounds allow and the
// smallest mid interval.
func DeriveIntervals(t Tuning, p Proportions, order int, prior *Bounds) (Tetrachord, error) {
	if err := t.Validate(); err != nil {
		return Tetrachord{}, err
	}
	if order < 0 || order >= len(Permutations) {
		return Tetrachord{}, fmt.Errorf("%w, got %v", ErrInvalidOrder, order)
	}
	stepMultiple := t.StepMultiple()
	steps := func(ratio float64) int {
		return int(math.Round(math.Log2(ratio) * stepMultiple))
	}
	fifth := steps(3.0 / 2)
	// intervals smaller than a quarter tone are not considered
	smallest := max(int(math.Trunc(math.Log2(36.0/35)*stepMultiple)), 1)

	var ret Tetrachord
	ret.Fifth = fifth
	ret.SmallestInterval = smallest
	ret.Order = order

	// the largest fourth is 28:27 below the fifth
	ret.Bounds.Fourth = Range{
		Min: max(steps(4.0/3), 3),
		Max: min(steps(81.0/56), fifth-smallest),
	}
	if fifth <= ret.Bounds.Fourth.Min {
		return Tetrachord{}, fmt.Errorf("%w (%v has a fifth of %v steps)", ErrTooCoarse, t, fifth)
	}
	if prior == nil {
		p = Proportions{}
	}
	ret.Fourth = ret.Bounds.Fourth.Value(p.Fourth)

	augmentation := ret.Fourth - ret.Bounds.Fourth.Min
	ret.Bounds.Big = Range{
		Min: max(int(math.Ceil(float64(ret.Fourth)/3)), augmentation+smallest),
		Max: min(steps(81.0/64), ret.Fourth-2*smallest),
	}
	if prior == nil {
		p.Big = ret.Bounds.Big.Proportion(steps(9.0 / 8))
	}
	ret.Big = ret.Bounds.Big.Value(p.Big)

	ret.Bounds.Mid = Range{
		Min: int(math.Ceil(0.5 * float64(ret.Fourth-ret.Big))),
		Max: min(ret.Fourth-ret.Big-smallest, ret.Big),
	}
	ret.Mid = ret.Bounds.Mid.Value(p.Mid)
	ret.Small = ret.Fourth - ret.Big - ret.Mid

	ordered := Permutations[order].Apply(ret.Big, ret.Mid, ret.Small)
	ret.Intervals = IntervalSet{ordered[0], ordered[1], ordered[2], fifth - ret.Fourth}
	return ret, nil
}

// Update derives the next tetrachord after the user has moved the sliders to
// the given absolute step counts, keeping each slider at the same relative
// position when its bounds move.
func (tc Tetrachord) Update(t Tuning, order, fourth, big, mid int) (Tetrachord, error) {
	prior := tc.Bounds
	return DeriveIntervals(t, prior.Proportions(fourth, big, mid), order, &prior)
}
