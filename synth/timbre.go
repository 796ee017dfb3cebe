package synth

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Timbre is an additive instrument: the relative amplitudes of the harmonics
// and how fast a held note dies out.
type Timbre struct {
	Harmonics []float32
	// Decay is the time constant of the natural decay in seconds; zero
	// sustains a held note indefinitely.
	Decay float64
}

var ErrUnknownTimbre = errors.New("unknown timbre")

var Timbres = map[string]Timbre{
	"dulcimer": {Harmonics: []float32{1, 0.7, 0.45, 0.3, 0.2, 0.12}, Decay: 1.2},
	"sine":     {Harmonics: []float32{1}},
	"organ":    {Harmonics: []float32{1, 0.6, 0.3, 0.15, 0.1, 0, 0, 0.05}},
	"clavinet": {Harmonics: []float32{1, 0.9, 0.8, 0.6, 0.5, 0.3, 0.2}, Decay: 0.6},
}

// Lookup returns the named timbre.
func Lookup(name string) (Timbre, error) {
	t, ok := Timbres[name]
	if !ok {
		return Timbre{}, fmt.Errorf("%w %q, should be one of %v", ErrUnknownTimbre, name, Names())
	}
	return t, nil
}

// Names lists the timbres in alphabetical order.
func Names() []string {
	ret := make([]string, 0, len(Timbres))
	for name := range Timbres {
		ret = append(ret, name)
	}
	slices.Sort(ret)
	return ret
}

// DisplayName returns the name of a timbre as shown to the user, e.g.
// "Dulcimer".
func DisplayName(name string) string {
	return cases.Title(language.English).String(name)
}

func (t Timbre) norm() float32 {
	var sum float32
	for _, h := range t.Harmonics {
		sum += h
	}
	if sum == 0 {
		return 1
	}
	return 1 / sum
}
