package tetrachord

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidTuning = errors.New("invalid tuning configuration")
	ErrInvalidOrder  = errors.New("interval order should be between 0 and 5")
	ErrTooCoarse     = fmt.Errorf("%w: too few divisions to fit a fourth inside a fifth", ErrInvalidTuning)
)

// Tuning is an equave divided into equal steps, e.g. {2, 12} for 12-EDO.
type Tuning struct {
	Equave    float64
	Divisions int
}

func (t Tuning) Validate() error {
	if math.IsNaN(t.Equave) || math.IsInf(t.Equave, 0) || t.Equave <= 1 {
		return fmt.Errorf("%w: equave should be a finite number > 1, got %v", ErrInvalidTuning, t.Equave)
	}
	if t.Divisions < 1 {
		return fmt.Errorf("%w: divisions should be > 0, got %v", ErrInvalidTuning, t.Divisions)
	}
	return nil
}

// StepMultiple returns the number of steps in an octave. Multiplying the
// base-2 logarithm of a frequency ratio with it gives the size of the ratio in
// steps.
func (t Tuning) StepMultiple() float64 {
	return math.Log2(t.Equave) * float64(t.Divisions)
}

func (t Tuning) StepsToRatio(steps int) float64 {
	return math.Pow(t.Equave, float64(steps)/float64(t.Divisions))
}

// Steps returns the closest step count to the frequency ratio.
func (t Tuning) Steps(ratio float64) int {
	return int(math.Round(math.Log2(ratio) * t.StepMultiple()))
}

func (t Tuning) String() string {
	if t.Equave == 2 {
		return fmt.Sprintf("%d-EDO", t.Divisions)
	}
	return fmt.Sprintf("%d-ED%v", t.Divisions, t.Equave)
}
