package tetrachord

import (
	"math"
	"strconv"
)

const (
	// MaxPitchIndex is the highest note any scale degree is mapped to.
	MaxPitchIndex   = 108
	DefaultRootNote = 60

	// ratios are quantized to 1/512 of a semitone before picking a note, so
	// that a ratio a rounding error above an equal tempered note maps to it
	pitchQuantization = 512
)

var noteNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// RatioToPitchIndex returns the lowest equal tempered note at or above the
// frequency ratio measured from root.
func RatioToPitchIndex(ratio float64, root int) int {
	semitones := math.Round(math.Log2(ratio)*12*pitchQuantization) / pitchQuantization
	return min(int(math.Ceil(semitones))+root, MaxPitchIndex)
}

// RatioToPlaybackSpeed returns how much a sample recorded at pitch has to be
// sped up (or slowed down) to sound at ratio above root.
func RatioToPlaybackSpeed(ratio float64, pitch, root int) float64 {
	return ratio / math.Exp2(float64(pitch-root)/12)
}

// RootNote converts a note (semitones from A) and an octave (relative to the
// fourth octave) to a pitch index.
func RootNote(note, octave int) int {
	return note + 12*octave + 69
}

// NoteName returns e.g. "Db4" for 61.
func NoteName(pitch int) string {
	octave := pitch/12 - 1
	name := noteNames[((pitch%12)+12)%12]
	return name + strconv.Itoa(octave)
}

// PitchFrequency returns the frequency of a pitch index in Hz, A4 (69) being
// 440 Hz.
func PitchFrequency(pitch int) float64 {
	return 440 * math.Exp2(float64(pitch-69)/12)
}
