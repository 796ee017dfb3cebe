package ratio

import (
	"reflect"
	"testing"
)

// On a tie the scan keeps the later, smaller denominator: 15/10, 12/8 and 9/6
// are all exact, and 9/6 is found last. A strict comparison would keep 15/10.
func TestNearestPrefersLastTie(t *testing.T) {
	if got := nearest(1.5, 10); got != (Fraction{Num: 9, Den: 6}) {
		t.Errorf("nearest(1.5, 10) = %v, want 9/6", got)
	}
	if got := nearest(1, 5); got != (Fraction{Num: 3, Den: 3}) {
		t.Errorf("nearest(1, 5) = %v, want 3/3", got)
	}
}

// scripted returns a finder that ignores its arguments and hands out the
// given fractions in order.
func scripted(fractions ...Fraction) finder {
	i := 0
	return func(float64, uint64) Fraction {
		f := fractions[min(i, len(fractions)-1)]
		i++
		return f
	}
}

func TestRefine(t *testing.T) {
	tests := []struct {
		name       string
		find       finder
		want       []Fraction
		wantRounds int
	}{
		{
			name:       "stable bound keeps the latest round",
			find:       scripted(Fraction{10, 1}, Fraction{7, 2}, Fraction{7, 3}),
			want:       []Fraction{{7, 3}},
			wantRounds: 2,
		},
		{
			name:       "growing bound falls back to the previous round",
			find:       scripted(Fraction{10, 1}, Fraction{8, 1}, Fraction{9, 1}),
			want:       []Fraction{{8, 1}},
			wantRounds: 2,
		},
		{
			name:       "unchanged bound on the first refinement",
			find:       scripted(Fraction{10, 1}, Fraction{10, 3}),
			want:       []Fraction{{10, 3}},
			wantRounds: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rounds := refine([]float64{1}, 4, tt.find)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("refine() = %v, want %v", got, tt.want)
			}
			if rounds != tt.wantRounds {
				t.Errorf("refine() ran %v rounds, want %v", rounds, tt.wantRounds)
			}
		})
	}
}

func TestRefineIsCapped(t *testing.T) {
	next := uint64(1000)
	shrinking := func(float64, uint64) Fraction {
		next--
		return Fraction{Num: next, Den: 1}
	}
	got, rounds := refine([]float64{1}, 4, shrinking)
	if rounds != MaxRefinements {
		t.Fatalf("refine() ran %v rounds, want %v", rounds, MaxRefinements)
	}
	// the first pass took 999, every round after it one less
	if want := (Fraction{Num: 999 - MaxRefinements, Den: 1}); got[0] != want {
		t.Errorf("refine() = %v, want %v", got[0], want)
	}
}

func TestRefineDenominators(t *testing.T) {
	var asked []uint64
	recording := func(m float64, maxDenominator uint64) Fraction {
		asked = append(asked, maxDenominator)
		return Fraction{Num: uint64(m) * maxDenominator, Den: maxDenominator}
	}
	// first pass: 5/5 and 10/5, bound 10; the refinement asks for 10/1 = 10
	// and max(10/2, 5) = 5
	got, _ := refine([]float64{1, 2}, 5, recording)
	if want := []uint64{5, 5, 10, 5}; !reflect.DeepEqual(asked, want) {
		t.Errorf("refine() asked for denominators %v, want %v", asked, want)
	}
	if want := []Fraction{{10, 10}, {10, 5}}; !reflect.DeepEqual(got, want) {
		t.Errorf("refine() = %v, want %v", got, want)
	}
}

func TestRefineStaysBelowMaxDenominator(t *testing.T) {
	var asked []uint64
	recording := func(m float64, maxDenominator uint64) Fraction {
		asked = append(asked, maxDenominator)
		return Fraction{Num: uint64(m) * maxDenominator, Den: maxDenominator}
	}
	// the first pass bound of 1e6*8 would ask for 8e6 denominators for the
	// unison
	refine([]float64{1, 1e6}, 8, recording)
	for _, d := range asked {
		if d > MaxDenominator {
			t.Fatalf("refine() asked for denominators %v, above %v", asked, MaxDenominator)
		}
	}
	if len(asked) < 4 || asked[2] != MaxDenominator {
		t.Errorf("refine() asked for denominators %v, want the unison capped at %v", asked, MaxDenominator)
	}
}
