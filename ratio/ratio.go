/*
Package ratio finds low-denominator fractions for frequency ratios.

FindRatio approximates a single ratio; FindRatios labels a whole scale so that
all of its fractions stay within a common bound on the size of their
numerators and denominators, which keeps the labels comparable to each other.
Errors are measured in the logarithmic domain, i.e. in musical distance
rather than in absolute difference.
*/
package ratio

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MaxRefinements caps the rounds FindRatios spends shrinking the common
// bound.
const MaxRefinements = 32

// MaxDenominator is the largest denominator searched. The scan visits half
// of the denominators below the bound, so the bound caps the work done per
// ratio.
const MaxDenominator = 1 << 16

// numerators stay exactly representable as float64
const maxNumerator = 1 << 53

var (
	ErrInvalidRatio       = errors.New("invalid ratio input")
	ErrInvalidDenominator = errors.New("maximum denominator out of range")
)

// Fraction is a ratio of two positive integers.
type Fraction struct {
	Num uint64 `json:"num" yaml:"num"`
	Den uint64 `json:"den" yaml:"den"`
}

func (f Fraction) String() string {
	return strconv.FormatUint(f.Num, 10) + "/" + strconv.FormatUint(f.Den, 10)
}

func (f Fraction) Float() float64 {
	return float64(f.Num) / float64(f.Den)
}

// Cents returns the size of the fraction as an interval, 1200 cents being an
// octave.
func (f Fraction) Cents() float64 {
	return 1200 * math.Log2(f.Float())
}

// Bound returns the larger of the numerator and the denominator.
func (f Fraction) Bound() uint64 {
	return max(f.Num, f.Den)
}

// Reduce returns the fraction in lowest terms.
func (f Fraction) Reduce() Fraction {
	g := gcd(f.Num, f.Den)
	if g <= 1 {
		return f
	}
	return Fraction{Num: f.Num / g, Den: f.Den / g}
}

// FindRatio returns the fraction closest to target with a denominator from
// the upper half of 1..maxDenominator, reduced to lowest terms. target should
// be at least 1 and maxDenominator at most MaxDenominator.
func FindRatio(target float64, maxDenominator uint64) (Fraction, error) {
	if err := validate(target, maxDenominator); err != nil {
		return Fraction{}, err
	}
	return nearest(target, maxDenominator).Reduce(), nil
}

// nearest scans the denominators downwards and keeps the last candidate with
// the smallest error, so on a tie the smaller denominator wins. The result is
// not reduced.
func nearest(target float64, maxDenominator uint64) Fraction {
	var best Fraction
	minError := math.Inf(1)
	for d := maxDenominator; d >= maxDenominator/2+1; d-- {
		n := max(uint64(math.Round(target*float64(d))), 1)
		e := math.Abs(math.Log2(float64(n) / float64(d) / target))
		if e <= minError {
			minError = e
			best = Fraction{Num: n, Den: d}
		}
	}
	return best
}

// FindRatios approximates every multiple with a fraction.
//
// A first pass approximates each multiple with denominators up to
// minDenominator. The largest numerator or denominator found then becomes a
// common bound: each multiple is approximated again with the largest
// denominator that keeps its numerator within the bound, but never less than
// minDenominator nor more than MaxDenominator. This is repeated while the bound keeps shrinking. When a
// round leaves the bound unchanged its fractions are returned; when a round
// makes the bound grow, the fractions of the round before it are.
func FindRatios(multiples []float64, minDenominator uint64) ([]Fraction, error) {
	for i, m := range multiples {
		if err := validate(m, minDenominator); err != nil {
			return nil, fmt.Errorf("multiple %v: %w", i, err)
		}
	}
	ret, _ := refine(multiples, minDenominator, func(target float64, maxDenominator uint64) Fraction {
		return nearest(target, maxDenominator).Reduce()
	})
	return ret, nil
}

type finder func(target float64, maxDenominator uint64) Fraction

// refine runs the rounds of FindRatios with the given approximation and
// returns the selected fractions and the number of refinement rounds run.
func refine(multiples []float64, minDenominator uint64, find finder) ([]Fraction, int) {
	fractions := make([]Fraction, len(multiples))
	for i, m := range multiples {
		fractions[i] = find(m, minDenominator)
	}
	bound := maxBound(fractions)
	for round := 1; ; round++ {
		prevFractions, prevBound := fractions, bound
		fractions = make([]Fraction, len(multiples))
		for i, m := range multiples {
			maxDenominator := min(max(uint64(float64(prevBound)/m), minDenominator), MaxDenominator)
			fractions[i] = find(m, maxDenominator)
		}
		bound = maxBound(fractions)
		if bound < prevBound && round < MaxRefinements {
			continue
		}
		if bound > prevBound {
			return prevFractions, round
		}
		return fractions, round
	}
}

func maxBound(fractions []Fraction) uint64 {
	var ret uint64
	for _, f := range fractions {
		ret = max(ret, f.Bound())
	}
	return ret
}

func validate(target float64, maxDenominator uint64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) || target < 1 {
		return fmt.Errorf("%w: %v, should be >= 1", ErrInvalidRatio, target)
	}
	if maxDenominator == 0 || maxDenominator > MaxDenominator {
		return fmt.Errorf("%w: %v, should be between 1 and %v", ErrInvalidDenominator, maxDenominator, MaxDenominator)
	}
	if target*float64(maxDenominator) > maxNumerator {
		return fmt.Errorf("%w: %v needs a numerator beyond %v", ErrInvalidRatio, target, uint64(maxNumerator))
	}
	return nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
