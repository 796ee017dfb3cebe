// Package midi maps MIDI keys to scale degrees and scale degrees back to MIDI
// notes. Degrees that fall between equal tempered notes are sent as the note
// at or above them bent down to the degree, so every degree gets a channel of
// its own.
package midi

import (
	"errors"
	"fmt"
	"math"

	"github.com/microtonal/tetrachord"
	gomidi "gitlab.com/gomidi/midi/v2"
)

type (
	// Keyboard maps consecutive keys starting at Base to scale degrees 1, 2,
	// ...; keys outside the scale are ignored.
	Keyboard struct {
		Base    uint8
		Degrees int
	}

	DegreeEvent struct {
		Degree   int
		On       bool
		Channel  uint8
		Velocity uint8
	}

	// Context is a MIDI driver with at most one input and one output open.
	Context interface {
		InputDevices(yield func(Device) bool)
		OutputDevices(yield func(Device) bool)
		OpenInput(namePrefix string, takeFirst bool) error
		OpenOutput(namePrefix string, takeFirst bool) error
		// Events delivers the messages of the open input. Messages are dropped
		// when nobody keeps up with reading them.
		Events() <-chan gomidi.Message
		Send(msg gomidi.Message) error
		Close()
	}

	Device interface {
		String() string
	}

	// NullContext is used when no MIDI driver is available.
	NullContext struct{}
)

// DefaultBendRange is the pitch bend range of most synthesizers, in
// semitones.
const DefaultBendRange = 2

var ErrNoDevice = errors.New("no MIDI device")

// Event translates a note message into a scale degree event.
func (k Keyboard) Event(msg gomidi.Message) (DegreeEvent, bool) {
	var channel, key, velocity uint8
	var ret DegreeEvent
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		ret.On = true
	case msg.GetNoteEnd(&channel, &key):
	default:
		return DegreeEvent{}, false
	}
	if key < k.Base || int(key-k.Base) >= k.Degrees {
		return DegreeEvent{}, false
	}
	ret.Degree = int(key-k.Base) + 1
	ret.Channel = channel
	ret.Velocity = velocity
	return ret, true
}

// PitchBend converts a playback speed to a 14-bit pitch bend value for a
// synthesizer bending bendRange semitones either way.
func PitchBend(speed, bendRange float64) int16 {
	semitones := 12 * math.Log2(speed)
	v := math.Round(semitones / bendRange * 8192)
	return int16(max(min(v, 8191), -8192))
}

// NoteMessages returns the messages that start a degree: a pitch bend that
// detunes the note and the note itself, both on channel.
func NoteMessages(scale tetrachord.Scale, degree int, channel, velocity uint8, bendRange float64) ([]gomidi.Message, error) {
	d, err := scale.Degree(degree)
	if err != nil {
		return nil, err
	}
	if bendRange <= 0 {
		return nil, fmt.Errorf("pitch bend range should be > 0, got %v", bendRange)
	}
	if d.Pitch < 0 || d.Pitch > 127 {
		return nil, fmt.Errorf("degree %v maps to note %v, outside the MIDI range", degree, d.Pitch)
	}
	return []gomidi.Message{
		gomidi.Pitchbend(channel, PitchBend(d.Speed, bendRange)),
		gomidi.NoteOn(channel, uint8(d.Pitch), velocity),
	}, nil
}

// NoteOffMessage ends a degree started with NoteMessages.
func NoteOffMessage(scale tetrachord.Scale, degree int, channel uint8) (gomidi.Message, error) {
	d, err := scale.Degree(degree)
	if err != nil {
		return nil, err
	}
	if d.Pitch < 0 || d.Pitch > 127 {
		return nil, fmt.Errorf("degree %v maps to note %v, outside the MIDI range", degree, d.Pitch)
	}
	return gomidi.NoteOff(channel, uint8(d.Pitch)), nil
}

func (NullContext) InputDevices(yield func(Device) bool)  {}
func (NullContext) OutputDevices(yield func(Device) bool) {}
func (NullContext) OpenInput(string, bool) error          { return ErrNoDevice }
func (NullContext) OpenOutput(string, bool) error         { return ErrNoDevice }
func (NullContext) Events() <-chan gomidi.Message         { return nil }
func (NullContext) Send(gomidi.Message) error             { return ErrNoDevice }
func (NullContext) Close()                                {}
